package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/fzokart/internal/domain/address"
	"github.com/xenking/fzokart/internal/domain/cart"
	"github.com/xenking/fzokart/internal/domain/product"
	"github.com/xenking/fzokart/internal/domain/user"
)

// CartLoader loads a user's cart with products.
type CartLoader interface {
	GetCart(ctx context.Context, userID string) (*cart.Cart, error)
}

// AddressLoader loads an address owned by a user.
type AddressLoader interface {
	Get(ctx context.Context, userID, id string) (*address.Address, error)
}

// UserLoader loads a user by id.
type UserLoader interface {
	GetByID(ctx context.Context, id string) (*user.User, error)
}

// Viewer identifies who is reading an order.
type Viewer struct {
	UserID  string
	IsAdmin bool
}

// Service implements checkout and order management.
type Service struct {
	orders    Repository
	carts     CartLoader
	addresses AddressLoader
	users     UserLoader
	events    Publisher
	now       func() time.Time
}

// NewService creates an order Service. A nil publisher discards events.
func NewService(
	orders Repository,
	carts CartLoader,
	addresses AddressLoader,
	users UserLoader,
	events Publisher,
) *Service {
	if events == nil {
		events = NopPublisher{}
	}
	return &Service{
		orders:    orders,
		carts:     carts,
		addresses: addresses,
		users:     users,
		events:    events,
		now:       time.Now,
	}
}

// CreateOrder converts the user's cart into an order and empties the cart.
// Prices are read from the products at this moment and frozen into the
// order items.
func (s *Service) CreateOrder(ctx context.Context, userID, addressID string) (*Order, error) {
	c, err := s.carts.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if c.IsEmpty() {
		return nil, ErrEmptyCart
	}
	if addressID == "" {
		return nil, ErrMissingAddress
	}

	addr, err := s.addresses.Get(ctx, userID, addressID)
	if err != nil {
		if errors.Is(err, address.ErrNotFound) {
			return nil, address.ErrNotFound
		}
		return nil, errors.Wrap(err, "get address")
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "get user")
	}

	now := s.now()
	o := &Order{
		ID:          uuid.New().String(),
		UserID:      userID,
		OrderNumber: NewOrderNumber(now),
		TrackingID:  NewTrackingID(),
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	total := decimal.Zero
	o.Items = make([]Item, 0, len(c.Items))
	for _, it := range c.Items {
		if it.Product == nil {
			return nil, errors.Wrapf(product.ErrNotFound, "cart item %s", it.ID)
		}
		price := it.Product.Price
		total = total.Add(price.Mul(decimal.NewFromInt(int64(it.Quantity))))
		o.Items = append(o.Items, Item{
			ID:        uuid.New().String(),
			OrderID:   o.ID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     price,
			Product:   it.Product,
		})
	}
	o.TotalAmount = total.Round(2)
	o.Address = snapshotAddress(addr)
	o.Shipping = Shipping{
		OrderNumber: o.OrderNumber,
		TrackingID:  o.TrackingID,
		To:          ShippingParty{Name: u.Name, Phone: firstNonEmpty(u.Phone, addr.Phone, "N/A")},
		From:        Origin,
		Address:     o.Address,
	}

	if err := s.orders.Checkout(ctx, o, c); err != nil {
		if errors.Is(err, ErrEmptyCart) || errors.Is(err, ErrCartChanged) {
			return nil, err
		}
		return nil, errors.Wrap(err, "checkout")
	}

	s.publish(ctx, EventCreated, o)
	return o, nil
}

// GetOrder returns an order with its items and products. Orders of other
// users are reported as not found unless the viewer is an admin.
func (s *Service) GetOrder(ctx context.Context, orderID string, v Viewer) (*Order, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !v.IsAdmin && o.UserID != v.UserID {
		return nil, ErrNotFound
	}
	return o, nil
}

// GetUserOrders returns the user's orders, newest first.
func (s *Service) GetUserOrders(ctx context.Context, userID string) ([]Order, error) {
	orders, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	return orders, nil
}

// GetAllOrders returns the orders of every user, newest first.
func (s *Service) GetAllOrders(ctx context.Context) ([]Order, error) {
	orders, err := s.orders.ListAll(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list all orders")
	}
	return orders, nil
}

// UpdateOrderStatus sets the status of an order. Any status may follow any
// other.
func (s *Service) UpdateOrderStatus(ctx context.Context, orderID, status string) (*Order, error) {
	st, err := ParseStatus(status)
	if err != nil {
		return nil, err
	}
	o, err := s.orders.UpdateStatus(ctx, orderID, st)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, EventStatusChanged, o)
	return o, nil
}

func (s *Service) publish(ctx context.Context, typ string, o *Order) {
	e := Event{
		Type:        typ,
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		UserID:      o.UserID,
		Status:      o.Status,
		Total:       o.TotalAmount,
		OccurredAt:  s.now(),
	}
	if err := s.events.Publish(ctx, e); err != nil {
		zctx.From(ctx).Warn("Publish order event",
			zap.String("type", typ),
			zap.String("order_id", o.ID),
			zap.Error(err),
		)
	}
}

func snapshotAddress(a *address.Address) AddressSnapshot {
	return AddressSnapshot{
		ID:           a.ID,
		FullName:     a.FullName,
		Phone:        a.Phone,
		Street:       a.Street,
		AddressLine2: a.AddressLine2,
		City:         a.City,
		State:        a.State,
		Pincode:      a.Pincode,
		Country:      a.Country,
		Type:         string(a.Type),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
