package order

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/fzokart/internal/domain/apperr"
	"github.com/xenking/fzokart/internal/domain/cart"
	"github.com/xenking/fzokart/internal/domain/product"
)

var (
	// ErrNotFound is returned when an order does not exist or is not visible
	// to the caller.
	ErrNotFound = apperr.NotFound("Order not found")
	// ErrEmptyCart is returned by checkout when the cart has no items.
	ErrEmptyCart = apperr.BadRequest("Cart is empty")
	// ErrInvalidStatus is returned for an unknown order status.
	ErrInvalidStatus = apperr.BadRequest("Invalid order status")
	// ErrMissingAddress is returned by checkout without an address id.
	ErrMissingAddress = apperr.BadRequest("Please provide addressId")
	// ErrCartChanged is returned by checkout when the cart was modified
	// between reading it and placing the order.
	ErrCartChanged = apperr.Conflict("Your cart changed during checkout, please review it and try again")
)

// Status is the fulfilment state of an order. Transitions between statuses
// are unconstrained.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusProcessing Status = "Processing"
	StatusShipped    Status = "Shipped"
	StatusDelivered  Status = "Delivered"
	StatusCancelled  Status = "Cancelled"
)

var statuses = []Status{StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled}

// ParseStatus matches s case-insensitively against the known statuses.
func ParseStatus(s string) (Status, error) {
	s = strings.TrimSpace(s)
	for _, st := range statuses {
		if strings.EqualFold(s, string(st)) {
			return st, nil
		}
	}
	return "", ErrInvalidStatus
}

// Order is an immutable snapshot of a cart at checkout. Only Status changes
// after creation.
type Order struct {
	ID          string
	UserID      string
	OrderNumber string
	TrackingID  string
	Items       []Item
	TotalAmount decimal.Decimal
	Address     AddressSnapshot
	Shipping    Shipping
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Item is an order line with the unit price frozen at checkout. Product is
// populated only when the order is loaded with product details.
type Item struct {
	ID        string
	OrderID   string
	ProductID string
	Quantity  int
	Price     decimal.Decimal
	Product   *product.Product
}

// AddressSnapshot is the delivery address copied into the order.
type AddressSnapshot struct {
	ID           string `json:"id"`
	FullName     string `json:"fullName"`
	Phone        string `json:"phone"`
	Street       string `json:"street"`
	AddressLine2 string `json:"addressLine2,omitempty"`
	City         string `json:"city"`
	State        string `json:"state"`
	Pincode      string `json:"pincode"`
	Country      string `json:"country"`
	Type         string `json:"type"`
}

// Shipping is the label data printed for the parcel.
type Shipping struct {
	OrderNumber string          `json:"orderNumber"`
	TrackingID  string          `json:"trackingId"`
	To          ShippingParty   `json:"shippingTo"`
	From        ShippingOrigin  `json:"shippingFrom"`
	Address     AddressSnapshot `json:"address"`
}

// ShippingParty is the recipient of a parcel.
type ShippingParty struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// ShippingOrigin is the sender of a parcel.
type ShippingOrigin struct {
	Company string `json:"company"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

// Origin is the fixed sender printed on every shipping label.
var Origin = ShippingOrigin{
	Company: "Fzokart Pvt. Ltd.",
	Address: "Morigaon, Assam, India",
	Phone:   "6033394539",
}

// Repository defines persistence operations for orders.
type Repository interface {
	// Checkout inserts the order with its items and removes the ordered
	// lines from the cart in a single transaction. The cart is locked and
	// its lines compared to snapshot first: ErrEmptyCart when they are
	// gone, ErrCartChanged when they differ.
	Checkout(ctx context.Context, o *Order, snapshot *cart.Cart) error
	// GetByID returns the order with items and their products.
	GetByID(ctx context.Context, id string) (*Order, error)
	// ListByUser returns the user's orders newest first, items without
	// products.
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	// ListAll returns every order newest first, items without products.
	ListAll(ctx context.Context) ([]Order, error)
	UpdateStatus(ctx context.Context, id string, status Status) (*Order, error)
}
