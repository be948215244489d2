package cart

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/fzokart/internal/domain/apperr"
	"github.com/xenking/fzokart/internal/domain/product"
)

var (
	// ErrItemNotFound is returned when an item id is not part of the user's cart.
	ErrItemNotFound = apperr.NotFound("Item not found in cart")
	// ErrInvalidQuantity is returned when adding a non-positive quantity.
	ErrInvalidQuantity = apperr.BadRequest("Quantity must be a positive integer")
	// ErrMissingProduct is returned when an add request has no product id.
	ErrMissingProduct = apperr.BadRequest("Please provide productId")
	// ErrMissingQuantity is returned when an update request has no quantity.
	ErrMissingQuantity = apperr.BadRequest("Please provide quantity")
	// ErrQuantityTooLarge is returned when a line would exceed MaxQuantity.
	ErrQuantityTooLarge = apperr.BadRequest("Quantity cannot exceed 9999")
)

// MaxQuantity bounds the quantity of a single cart line.
const MaxQuantity = 9999

// Cart is the per-user collection of pending purchase lines.
type Cart struct {
	ID        string
	UserID    string
	Items     []Item
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Item is a single cart line. Product is populated when the cart is loaded
// with product details.
type Item struct {
	ID        string
	CartID    string
	ProductID string
	Quantity  int
	Product   *product.Product
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Subtotal returns the sum of price times quantity over items with a loaded
// product.
func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.Items {
		if it.Product == nil {
			continue
		}
		total = total.Add(it.Product.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}

// MergeLine is one line of a client-side cart submitted for merging.
type MergeLine struct {
	ProductID string
	Quantity  int
}

// Repository defines persistence operations for carts.
type Repository interface {
	// GetOrCreate returns the user's cart with items and products, creating an
	// empty cart when none exists.
	GetOrCreate(ctx context.Context, userID string) (*Cart, error)
	// AddItem inserts a line or increments the quantity of an existing line
	// for the same product in a single statement. Returns ErrQuantityTooLarge
	// when the line would exceed MaxQuantity.
	AddItem(ctx context.Context, cartID, productID string, quantity int) error
	// SetQuantity sets the exact quantity of an item. Returns ErrItemNotFound
	// when the item does not belong to the cart.
	SetQuantity(ctx context.Context, cartID, itemID string, quantity int) error
	// RemoveItem deletes an item. Returns ErrItemNotFound when the item does
	// not belong to the cart.
	RemoveItem(ctx context.Context, cartID, itemID string) error
}
