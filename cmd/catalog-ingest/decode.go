package main

import (
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/fzokart/internal/domain/product"
)

var (
	errMissingID    = errors.New("missing id")
	errMissingTitle = errors.New("missing title")
	errBadPrice     = errors.New("price must be positive")
)

// decodeProductID reads only the id of an NDJSON product line.
func decodeProductID(line []byte) (string, error) {
	var id string
	err := jx.DecodeBytes(line).ObjBytes(func(d *jx.Decoder, key []byte) error {
		if string(key) != "id" {
			return d.Skip()
		}
		v, err := d.Str()
		id = strings.TrimSpace(v)
		return err
	})
	return id, err
}

// decodeProduct parses and validates one NDJSON product line. Records are
// active unless they say otherwise; slug and thumbnail are derived when
// absent.
func decodeProduct(line []byte) (*product.Product, error) {
	p := &product.Product{IsActive: true}
	err := jx.DecodeBytes(line).ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch string(key) {
		case "id":
			p.ID, err = d.Str()
		case "title", "name":
			p.Title, err = d.Str()
		case "slug":
			p.Slug, err = d.Str()
		case "description":
			p.Description, err = d.Str()
		case "price":
			p.Price, err = decodePrice(d)
		case "stock":
			p.Stock, err = d.Int()
		case "brand":
			p.Brand, err = d.Str()
		case "category":
			p.Category, err = d.Str()
		case "thumbnail":
			p.Thumbnail, err = d.Str()
		case "isActive":
			p.IsActive, err = d.Bool()
		case "images":
			err = d.Arr(func(d *jx.Decoder) error {
				s, err := d.Str()
				if err == nil && s != "" {
					p.Images = append(p.Images, s)
				}
				return err
			})
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "decode product")
	}

	p.ID = strings.TrimSpace(p.ID)
	p.Title = strings.TrimSpace(p.Title)
	switch {
	case p.ID == "":
		return nil, errMissingID
	case p.Title == "":
		return nil, errMissingTitle
	case !p.Price.IsPositive():
		return nil, errBadPrice
	}

	if p.Slug == "" {
		// Titles repeat across large catalogs; the id suffix keeps derived
		// slugs unique.
		p.Slug = product.Slugify(p.Title + " " + p.ID)
	}
	if p.Thumbnail == "" && len(p.Images) > 0 {
		p.Thumbnail = p.Images[0]
	}
	return p, nil
}

func decodePrice(d *jx.Decoder) (decimal.Decimal, error) {
	var raw string
	if d.Next() == jx.String {
		s, err := d.Str()
		if err != nil {
			return decimal.Zero, err
		}
		raw = s
	} else {
		n, err := d.Num()
		if err != nil {
			return decimal.Zero, err
		}
		raw = n.String()
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "parse price %q", raw)
	}
	return v, nil
}
