package main

import (
	"bufio"
	"context"
	"os"
	"sync/atomic"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/fzokart/internal/domain/product"
)

const (
	bloomFPR      = 0.001
	progressEvery = 100_000
	maxLineSize   = 1 << 20
)

type upserter interface {
	Upsert(ctx context.Context, p *product.Product) error
}

// Stats summarizes an ingest run.
type Stats struct {
	Lines      uint64
	Rejected   uint64
	Written    uint64
	Candidates int
}

// ingester imports products from several NDJSON files. A product id that
// occurs in more than one file is written once, with the record from the
// last file that contains it.
//
// Pass 1 builds a bloom filter of ids per file. Pass 2 streams every file
// again and upserts records whose id no other filter knows. Records that
// test positive elsewhere are held back and resolved after pass 2; false
// positives only cost memory, never correctness.
type ingester struct {
	lg       *zap.Logger
	repo     upserter
	capacity uint

	lines    atomic.Uint64
	rejected atomic.Uint64
	written  atomic.Uint64
}

// candidate is a held-back record and the index of the file it came from.
type candidate struct {
	file int
	p    *product.Product
}

func (ing *ingester) Run(ctx context.Context, files []string) (Stats, error) {
	ing.lg.Info("Pass 1: building bloom filters", zap.Int("files", len(files)))
	filters, err := ing.buildFilters(ctx, files)
	if err != nil {
		return Stats{}, errors.Wrap(err, "build bloom filters")
	}

	ing.lg.Info("Pass 2: writing unique products")
	held, err := ing.writeUnique(ctx, files, filters)
	if err != nil {
		return Stats{}, errors.Wrap(err, "write unique products")
	}

	merged := mergeCandidates(held)
	ing.lg.Info("Writing held-back products", zap.Int("count", len(merged)))
	for _, c := range merged {
		if err := ing.upsert(ctx, c.p); err != nil {
			return Stats{}, err
		}
	}

	return Stats{
		Lines:      ing.lines.Load(),
		Rejected:   ing.rejected.Load(),
		Written:    ing.written.Load(),
		Candidates: len(merged),
	}, nil
}

// buildFilters creates one bloom filter per file, concurrently.
func (ing *ingester) buildFilters(ctx context.Context, files []string) ([]*bloom.BloomFilter, error) {
	filters := make([]*bloom.BloomFilter, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range files {
		g.Go(func() error {
			filter := bloom.NewWithEstimates(ing.capacity, bloomFPR)
			var count uint64
			err := streamGzFile(ctx, path, func(line []byte) error {
				id, err := decodeProductID(line)
				if err != nil || id == "" {
					// Rejected in pass 2.
					return nil
				}
				filter.AddString(id)
				count++
				return nil
			})
			if err != nil {
				return errors.Wrapf(err, "build filter for %s", path)
			}
			ing.lg.Info("Pass 1 complete", zap.String("file", path), zap.Uint64("ids", count))
			filters[i] = filter
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return filters, nil
}

// writeUnique streams every file, upserting records that no other file's
// filter contains and returning the held-back rest per file.
func (ing *ingester) writeUnique(ctx context.Context, files []string, filters []*bloom.BloomFilter) ([][]candidate, error) {
	held := make([][]candidate, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range files {
		g.Go(func() error {
			var count uint64
			err := streamGzFile(ctx, path, func(line []byte) error {
				count++
				if n := ing.lines.Add(1); n%progressEvery == 0 {
					ing.lg.Info("Pass 2 progress", zap.Uint64("lines", n))
				}

				p, err := decodeProduct(line)
				if err != nil {
					ing.rejected.Add(1)
					ing.lg.Debug("Rejected line", zap.String("file", path), zap.Uint64("line", count), zap.Error(err))
					return nil
				}

				if seenElsewhere(p.ID, i, filters) {
					held[i] = append(held[i], candidate{file: i, p: p})
					return nil
				}
				return ing.upsert(ctx, p)
			})
			if err != nil {
				return errors.Wrapf(err, "ingest %s", path)
			}
			ing.lg.Info("Pass 2 complete",
				zap.String("file", path),
				zap.Uint64("lines", count),
				zap.Int("held_back", len(held[i])),
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return held, nil
}

// upsert writes p. A slug already owned by another product rejects the
// record instead of aborting the run.
func (ing *ingester) upsert(ctx context.Context, p *product.Product) error {
	if err := ing.repo.Upsert(ctx, p); err != nil {
		if errors.Is(err, product.ErrSlugTaken) {
			ing.rejected.Add(1)
			ing.lg.Warn("Slug taken, product skipped", zap.String("id", p.ID), zap.String("slug", p.Slug))
			return nil
		}
		return errors.Wrapf(err, "upsert product %s", p.ID)
	}
	ing.written.Add(1)
	return nil
}

func seenElsewhere(id string, idx int, filters []*bloom.BloomFilter) bool {
	for j, f := range filters {
		if j != idx && f.TestString(id) {
			return true
		}
	}
	return false
}

// mergeCandidates keeps, per id, the record from the highest file index.
// Within a file the later line wins. The result preserves first-seen order.
func mergeCandidates(held [][]candidate) []candidate {
	index := make(map[string]int)
	var out []candidate
	for _, cs := range held {
		for _, c := range cs {
			if at, ok := index[c.p.ID]; ok {
				if c.file >= out[at].file {
					out[at] = c
				}
				continue
			}
			index[c.p.ID] = len(out)
			out = append(out, c)
		}
	}
	return out
}

// streamGzFile opens a gzip-compressed file and calls fn for each
// non-empty line.
func streamGzFile(ctx context.Context, path string, fn func(line []byte) error) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if err := fn(line); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}
	return nil
}
