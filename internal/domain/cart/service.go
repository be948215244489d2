package cart

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/xenking/fzokart/internal/domain/product"
)

// Service implements cart operations for authenticated users.
type Service struct {
	carts    Repository
	products product.Repository
}

// NewService creates a cart Service.
func NewService(carts Repository, products product.Repository) *Service {
	return &Service{carts: carts, products: products}
}

// GetCart returns the user's cart, creating it on first access.
func (s *Service) GetCart(ctx context.Context, userID string) (*Cart, error) {
	c, err := s.carts.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "get cart")
	}
	return c, nil
}

// AddToCart adds quantity units of a product to the user's cart. An existing
// line for the product is incremented. Stock is not checked.
func (s *Service) AddToCart(ctx context.Context, userID, productID string, quantity int) (*Cart, error) {
	if productID == "" {
		return nil, ErrMissingProduct
	}
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	if quantity > MaxQuantity {
		return nil, ErrQuantityTooLarge
	}
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return nil, err
	}

	c, err := s.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.carts.AddItem(ctx, c.ID, productID, quantity); err != nil {
		if errors.Is(err, ErrQuantityTooLarge) {
			return nil, ErrQuantityTooLarge
		}
		return nil, errors.Wrap(err, "add item")
	}
	return s.GetCart(ctx, userID)
}

// UpdateCartItem sets the quantity of a cart line. A non-positive quantity
// removes the line.
func (s *Service) UpdateCartItem(ctx context.Context, userID, itemID string, quantity int) (*Cart, error) {
	if quantity > MaxQuantity {
		return nil, ErrQuantityTooLarge
	}
	c, err := s.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if quantity <= 0 {
		err = s.carts.RemoveItem(ctx, c.ID, itemID)
	} else {
		err = s.carts.SetQuantity(ctx, c.ID, itemID, quantity)
	}
	if err != nil {
		return nil, err
	}
	return s.GetCart(ctx, userID)
}

// RemoveFromCart deletes a line from the user's cart.
func (s *Service) RemoveFromCart(ctx context.Context, userID, itemID string) (*Cart, error) {
	c, err := s.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.carts.RemoveItem(ctx, c.ID, itemID); err != nil {
		return nil, err
	}
	return s.GetCart(ctx, userID)
}

// MergeCart folds a client-side cart into the server cart. Lines with a
// quantity outside 1..MaxQuantity or an unknown product are skipped.
func (s *Service) MergeCart(ctx context.Context, userID string, lines []MergeLine) (*Cart, error) {
	c, err := s.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		if l.Quantity > 0 && l.Quantity <= MaxQuantity && l.ProductID != "" {
			ids = append(ids, l.ProductID)
		}
	}
	if len(ids) == 0 {
		return c, nil
	}

	found, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}
	known := make(map[string]struct{}, len(found))
	for _, p := range found {
		known[p.ID] = struct{}{}
	}

	for _, l := range lines {
		if l.Quantity <= 0 || l.Quantity > MaxQuantity {
			continue
		}
		if _, ok := known[l.ProductID]; !ok {
			continue
		}
		if err := s.carts.AddItem(ctx, c.ID, l.ProductID, l.Quantity); err != nil {
			if errors.Is(err, ErrQuantityTooLarge) {
				return nil, ErrQuantityTooLarge
			}
			return nil, errors.Wrapf(err, "merge item %s", l.ProductID)
		}
	}
	return s.GetCart(ctx, userID)
}
