package product

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/fzokart/internal/domain/apperr"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = apperr.NotFound("Product not found")

// ErrMissingFields is returned when a new product lacks a title or price.
var ErrMissingFields = apperr.BadRequest("Please provide title and price")

// ErrSlugTaken is returned when another product already uses the slug.
var ErrSlugTaken = apperr.Conflict("A product with this slug already exists")

// Product represents a catalog item available for purchase.
type Product struct {
	ID          string
	Title       string
	Slug        string
	Description string
	Price       decimal.Decimal
	Stock       int
	Brand       string
	Category    string
	Images      []string
	Thumbnail   string
	Rating      float64
	NumReviews  int
	IsActive    bool
	CreatedAt   time.Time
}

// Filter narrows a catalog listing.
type Filter struct {
	Category string
	Search   string
	Page     int
	Limit    int
}

// Offset returns the row offset for the filter's page.
func (f Filter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}

// Page is one page of a catalog listing.
type Page struct {
	Products []Product
	Total    int
	Page     int
	Limit    int
}

// Patch carries the fields of a partial product update. Nil fields are left
// unchanged.
type Patch struct {
	Title       *string
	Description *string
	Price       *decimal.Decimal
	Stock       *int
	Brand       *string
	Category    *string
	Images      []string
	IsActive    *bool
}

// Apply copies the non-nil fields of the patch onto p.
func (pt Patch) Apply(p *Product) {
	if pt.Title != nil {
		p.Title = *pt.Title
	}
	if pt.Description != nil {
		p.Description = *pt.Description
	}
	if pt.Price != nil {
		p.Price = *pt.Price
	}
	if pt.Stock != nil {
		p.Stock = *pt.Stock
	}
	if pt.Brand != nil {
		p.Brand = *pt.Brand
	}
	if pt.Category != nil {
		p.Category = *pt.Category
	}
	if pt.Images != nil {
		p.Images = pt.Images
		if len(pt.Images) > 0 {
			p.Thumbnail = pt.Images[0]
		}
	}
	if pt.IsActive != nil {
		p.IsActive = *pt.IsActive
	}
}

// Repository defines persistence operations for the product catalog.
type Repository interface {
	List(ctx context.Context, f Filter) ([]Product, int, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetBySlug(ctx context.Context, slug string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id string) error
	SetRating(ctx context.Context, id string, rating float64, numReviews int) error
}
