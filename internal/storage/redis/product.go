package redis

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/fzokart/internal/domain/product"
)

const keyPrefix = "fzokart:product:"

var _ product.Repository = (*ProductCache)(nil)

// ProductCache caches products by id in front of another product.Repository.
// Writes go to the underlying repository first and then evict the entry.
// Cache failures are logged and never fail the request.
type ProductCache struct {
	product.Repository
	store Store
	ttl   time.Duration
}

// NewProductCache wraps repo. A zero ttl selects ten minutes.
func NewProductCache(repo product.Repository, store Store, ttl time.Duration) *ProductCache {
	if ttl == 0 {
		ttl = 10 * time.Minute
	}
	return &ProductCache{Repository: repo, store: store, ttl: ttl}
}

// GetByID returns a product from the cache, loading and caching it on miss.
func (c *ProductCache) GetByID(ctx context.Context, id string) (*product.Product, error) {
	cached, err := c.lookup(ctx, []string{id})
	if err == nil && cached[0] != nil {
		return cached[0], nil
	}

	p, err := c.Repository.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.fill(ctx, []product.Product{*p})
	return p, nil
}

// GetByIDs returns the products for ids, fetching only cache misses from the
// underlying repository.
func (c *ProductCache) GetByIDs(ctx context.Context, ids []string) ([]product.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cached, err := c.lookup(ctx, ids)
	if err != nil {
		return c.loadAndFill(ctx, ids)
	}

	out := make([]product.Product, 0, len(ids))
	var missing []string
	for i, p := range cached {
		if p == nil {
			missing = append(missing, ids[i])
			continue
		}
		out = append(out, *p)
	}
	if len(missing) == 0 {
		return out, nil
	}

	loaded, err := c.loadAndFill(ctx, missing)
	if err != nil {
		return nil, err
	}
	return append(out, loaded...), nil
}

// Update writes through and evicts the product.
func (c *ProductCache) Update(ctx context.Context, p *product.Product) error {
	if err := c.Repository.Update(ctx, p); err != nil {
		return err
	}
	c.evict(ctx, p.ID)
	return nil
}

// Delete deletes and evicts the product.
func (c *ProductCache) Delete(ctx context.Context, id string) error {
	if err := c.Repository.Delete(ctx, id); err != nil {
		return err
	}
	c.evict(ctx, id)
	return nil
}

// SetRating writes through and evicts the product.
func (c *ProductCache) SetRating(ctx context.Context, id string, rating float64, numReviews int) error {
	if err := c.Repository.SetRating(ctx, id, rating, numReviews); err != nil {
		return err
	}
	c.evict(ctx, id)
	return nil
}

func (c *ProductCache) loadAndFill(ctx context.Context, ids []string) ([]product.Product, error) {
	products, err := c.Repository.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	c.fill(ctx, products)
	return products, nil
}

func (c *ProductCache) lookup(ctx context.Context, ids []string) ([]*product.Product, error) {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = keyPrefix + id
	}
	vals, err := c.store.MGet(ctx, keys...)
	if err != nil {
		zctx.From(ctx).Warn("Product cache lookup failed", zap.Error(err))
		return nil, err
	}

	out := make([]*product.Product, len(ids))
	for i, v := range vals {
		if v == nil {
			continue
		}
		p, err := decodeProduct(v)
		if err != nil {
			zctx.From(ctx).Warn("Corrupt product cache entry",
				zap.String("id", ids[i]), zap.Error(err))
			continue
		}
		out[i] = p
	}
	return out, nil
}

func (c *ProductCache) fill(ctx context.Context, products []product.Product) {
	for i := range products {
		p := &products[i]
		if err := c.store.Set(ctx, keyPrefix+p.ID, encodeProduct(p), c.ttl); err != nil {
			zctx.From(ctx).Warn("Product cache fill failed", zap.String("id", p.ID), zap.Error(err))
			return
		}
	}
}

func (c *ProductCache) evict(ctx context.Context, id string) {
	if err := c.store.Del(ctx, keyPrefix+id); err != nil {
		zctx.From(ctx).Warn("Product cache evict failed", zap.String("id", id), zap.Error(err))
	}
}

func encodeProduct(p *product.Product) []byte {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(p.ID) })
		e.Field("title", func(e *jx.Encoder) { e.Str(p.Title) })
		e.Field("slug", func(e *jx.Encoder) { e.Str(p.Slug) })
		e.Field("description", func(e *jx.Encoder) { e.Str(p.Description) })
		e.Field("price", func(e *jx.Encoder) { e.Str(p.Price.String()) })
		e.Field("stock", func(e *jx.Encoder) { e.Int(p.Stock) })
		e.Field("brand", func(e *jx.Encoder) { e.Str(p.Brand) })
		e.Field("category", func(e *jx.Encoder) { e.Str(p.Category) })
		e.Field("images", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, img := range p.Images {
					e.Str(img)
				}
			})
		})
		e.Field("thumbnail", func(e *jx.Encoder) { e.Str(p.Thumbnail) })
		e.Field("rating", func(e *jx.Encoder) { e.Float64(p.Rating) })
		e.Field("numReviews", func(e *jx.Encoder) { e.Int(p.NumReviews) })
		e.Field("isActive", func(e *jx.Encoder) { e.Bool(p.IsActive) })
		e.Field("createdAt", func(e *jx.Encoder) { e.Str(p.CreatedAt.Format(time.RFC3339Nano)) })
	})
	return e.Bytes()
}

func decodeProduct(data []byte) (*product.Product, error) {
	var p product.Product
	err := jx.DecodeBytes(data).Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			p.ID, err = d.Str()
		case "title":
			p.Title, err = d.Str()
		case "slug":
			p.Slug, err = d.Str()
		case "description":
			p.Description, err = d.Str()
		case "price":
			var s string
			if s, err = d.Str(); err == nil {
				p.Price, err = decimal.NewFromString(s)
			}
		case "stock":
			p.Stock, err = d.Int()
		case "brand":
			p.Brand, err = d.Str()
		case "category":
			p.Category, err = d.Str()
		case "images":
			p.Images = []string{}
			err = d.Arr(func(d *jx.Decoder) error {
				s, err := d.Str()
				p.Images = append(p.Images, s)
				return err
			})
		case "thumbnail":
			p.Thumbnail, err = d.Str()
		case "rating":
			p.Rating, err = d.Float64()
		case "numReviews":
			p.NumReviews, err = d.Int()
		case "isActive":
			p.IsActive, err = d.Bool()
		case "createdAt":
			var s string
			if s, err = d.Str(); err == nil {
				p.CreatedAt, err = time.Parse(time.RFC3339Nano, s)
			}
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "decode product")
	}
	return &p, nil
}
