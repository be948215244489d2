package product

import (
	"context"
	"regexp"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

var slugInvalid = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify converts a title into a URL-safe slug.
func Slugify(title string) string {
	s := slugInvalid.ReplaceAllString(strings.ToLower(title), "-")
	return strings.Trim(s, "-")
}

// Service implements catalog browsing and administration.
type Service struct {
	products Repository
}

// NewService creates a product Service.
func NewService(products Repository) *Service {
	return &Service{products: products}
}

// List returns a page of active products, newest first.
func (s *Service) List(ctx context.Context, f Filter) (*Page, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	switch {
	case f.Limit <= 0:
		f.Limit = defaultLimit
	case f.Limit > maxLimit:
		f.Limit = maxLimit
	}
	f.Search = strings.TrimSpace(f.Search)

	products, total, err := s.products.List(ctx, f)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	return &Page{Products: products, Total: total, Page: f.Page, Limit: f.Limit}, nil
}

// Get resolves a product by id, falling back to slug lookup for values that
// are not UUIDs.
func (s *Service) Get(ctx context.Context, idOrSlug string) (*Product, error) {
	if _, err := uuid.Parse(idOrSlug); err == nil {
		return s.products.GetByID(ctx, idOrSlug)
	}
	return s.products.GetBySlug(ctx, idOrSlug)
}

// Create adds a product to the catalog.
func (s *Service) Create(ctx context.Context, p *Product) (*Product, error) {
	p.Title = strings.TrimSpace(p.Title)
	if p.Title == "" || p.Price.IsZero() {
		return nil, ErrMissingFields
	}
	if p.Slug == "" {
		p.Slug = Slugify(p.Title)
	}
	if p.Thumbnail == "" && len(p.Images) > 0 {
		p.Thumbnail = p.Images[0]
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	p.IsActive = true

	if err := s.products.Create(ctx, p); err != nil {
		return nil, errors.Wrap(err, "create product")
	}
	return p, nil
}

// Update applies a partial update to an existing product.
func (s *Service) Update(ctx context.Context, id string, patch Patch) (*Product, error) {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(p)
	if err := s.products.Update(ctx, p); err != nil {
		return nil, errors.Wrap(err, "update product")
	}
	return p, nil
}

// Delete removes a product from the catalog.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.products.Delete(ctx, id)
}
