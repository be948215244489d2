package order

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/fzokart/internal/domain/address"
	"github.com/xenking/fzokart/internal/domain/cart"
	"github.com/xenking/fzokart/internal/domain/product"
	"github.com/xenking/fzokart/internal/domain/user"
)

// --- Mock implementations ---

type mockCarts struct {
	byUser map[string]*cart.Cart
}

func (m *mockCarts) GetCart(_ context.Context, userID string) (*cart.Cart, error) {
	c, ok := m.byUser[userID]
	if !ok {
		c = &cart.Cart{ID: "cart-" + userID, UserID: userID}
		m.byUser[userID] = c
	}
	cp := *c
	cp.Items = append([]cart.Item(nil), c.Items...)
	return &cp, nil
}

type mockAddresses struct {
	byID map[string]*address.Address
}

func (m *mockAddresses) Get(_ context.Context, userID, id string) (*address.Address, error) {
	a, ok := m.byID[id]
	if !ok || a.UserID != userID {
		return nil, address.ErrNotFound
	}
	return a, nil
}

type mockUsers struct {
	byID map[string]*user.User
}

func (m *mockUsers) GetByID(_ context.Context, id string) (*user.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

type mockOrderRepo struct {
	carts       *mockCarts
	orders      map[string]*Order
	checkoutErr error
}

func (m *mockOrderRepo) Checkout(_ context.Context, o *Order, snapshot *cart.Cart) error {
	if m.checkoutErr != nil {
		return m.checkoutErr
	}
	for _, c := range m.carts.byUser {
		if c.ID != snapshot.ID {
			continue
		}
		if len(c.Items) == 0 {
			return ErrEmptyCart
		}
		if len(c.Items) != len(snapshot.Items) {
			return ErrCartChanged
		}
		for i := range c.Items {
			if c.Items[i].ID != snapshot.Items[i].ID || c.Items[i].Quantity != snapshot.Items[i].Quantity {
				return ErrCartChanged
			}
		}
		c.Items = nil
	}
	m.orders[o.ID] = o
	return nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, id string) (*Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return o, nil
}

func (m *mockOrderRepo) ListByUser(_ context.Context, userID string) ([]Order, error) {
	var out []Order
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *mockOrderRepo) ListAll(context.Context) ([]Order, error) {
	out := make([]Order, 0, len(m.orders))
	for _, o := range m.orders {
		out = append(out, *o)
	}
	return out, nil
}

func (m *mockOrderRepo) UpdateStatus(_ context.Context, id string, status Status) (*Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	o.Status = status
	return o, nil
}

type mockPublisher struct {
	events []Event
	err    error
}

func (m *mockPublisher) Publish(_ context.Context, e Event) error {
	m.events = append(m.events, e)
	return m.err
}

// --- Helpers ---

type fixture struct {
	svc       *Service
	carts     *mockCarts
	orders    *mockOrderRepo
	publisher *mockPublisher
}

func newFixture() *fixture {
	p1 := &product.Product{ID: "p1", Title: "Phone", Price: decimal.NewFromInt(100)}
	p2 := &product.Product{ID: "p2", Title: "Case", Price: decimal.NewFromInt(50)}

	carts := &mockCarts{byUser: map[string]*cart.Cart{
		"u1": {ID: "c1", UserID: "u1", Items: []cart.Item{
			{ID: "i1", CartID: "c1", ProductID: "p1", Quantity: 2, Product: p1},
			{ID: "i2", CartID: "c1", ProductID: "p2", Quantity: 1, Product: p2},
		}},
	}}
	addresses := &mockAddresses{byID: map[string]*address.Address{
		"a1": {ID: "a1", UserID: "u1", FullName: "Ravi Das", Phone: "9000000000", City: "Guwahati", Type: address.TypeHome},
		"a2": {ID: "a2", UserID: "u2", FullName: "Someone Else"},
	}}
	users := &mockUsers{byID: map[string]*user.User{
		"u1": {ID: "u1", Name: "Ravi", Role: user.RoleUser},
		"u2": {ID: "u2", Name: "Mina", Phone: "8000000000", Role: user.RoleUser},
	}}
	orders := &mockOrderRepo{carts: carts, orders: make(map[string]*Order)}
	pub := &mockPublisher{}

	svc := NewService(orders, carts, addresses, users, pub)
	svc.now = func() time.Time { return time.UnixMilli(1_700_000_123_456) }

	return &fixture{svc: svc, carts: carts, orders: orders, publisher: pub}
}

// --- Tests ---

func TestCreateOrder_Checkout(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	o, err := f.svc.CreateOrder(ctx, "u1", "a1")
	require.NoError(t, err)

	assert.True(t, decimal.NewFromInt(250).Equal(o.TotalAmount), o.TotalAmount.String())
	require.Len(t, o.Items, 2)
	assert.Equal(t, "p1", o.Items[0].ProductID)
	assert.Equal(t, 2, o.Items[0].Quantity)
	assert.True(t, decimal.NewFromInt(100).Equal(o.Items[0].Price))
	assert.Equal(t, 1, o.Items[1].Quantity)
	assert.True(t, decimal.NewFromInt(50).Equal(o.Items[1].Price))
	assert.Equal(t, StatusPending, o.Status)

	after, err := f.carts.GetCart(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, after.Items)

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, EventCreated, f.publisher.events[0].Type)
	assert.Equal(t, o.ID, f.publisher.events[0].OrderID)
}

func TestCreateOrder_Snapshot(t *testing.T) {
	f := newFixture()

	o, err := f.svc.CreateOrder(context.Background(), "u1", "a1")
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^FZK123456\d{4}$`), o.OrderNumber)
	assert.Regexp(t, regexp.MustCompile(`^TRK\d{9}$`), o.TrackingID)
	assert.Equal(t, o.OrderNumber, o.Shipping.OrderNumber)
	assert.Equal(t, o.TrackingID, o.Shipping.TrackingID)
	assert.Equal(t, "Ravi", o.Shipping.To.Name)
	assert.Equal(t, "9000000000", o.Shipping.To.Phone, "falls back to the address phone")
	assert.Equal(t, Origin, o.Shipping.From)
	assert.Equal(t, "Guwahati", o.Address.City)
	assert.Equal(t, "HOME", o.Address.Type)
}

func TestCreateOrder_PricesFrozen(t *testing.T) {
	f := newFixture()

	o, err := f.svc.CreateOrder(context.Background(), "u1", "a1")
	require.NoError(t, err)

	o.Items[0].Product.Price = decimal.NewFromInt(999)
	stored, err := f.orders.GetByID(context.Background(), o.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(100).Equal(stored.Items[0].Price))
}

func TestCreateOrder_Failures(t *testing.T) {
	tests := []struct {
		name      string
		userID    string
		addressID string
		wantErr   error
	}{
		{"empty cart", "u2", "a2", ErrEmptyCart},
		{"unknown address", "u1", "nope", address.ErrNotFound},
		{"address of another user", "u1", "a2", address.ErrNotFound},
		{"missing address", "u1", "", ErrMissingAddress},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			_, err := f.svc.CreateOrder(context.Background(), tt.userID, tt.addressID)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, f.orders.orders)
			assert.Empty(t, f.publisher.events)
		})
	}
}

func TestCreateOrder_CheckoutFailureKeepsCart(t *testing.T) {
	f := newFixture()
	f.orders.checkoutErr = errors.New("tx aborted")

	_, err := f.svc.CreateOrder(context.Background(), "u1", "a1")
	require.Error(t, err)

	c, err := f.carts.GetCart(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, c.Items, 2)
	assert.Empty(t, f.publisher.events)
}

// cartAddedDuringCheckout adds a line right after the cart snapshot is read.
type cartAddedDuringCheckout struct {
	*mockCarts
	p *product.Product
}

func (c cartAddedDuringCheckout) GetCart(ctx context.Context, userID string) (*cart.Cart, error) {
	snapshot, err := c.mockCarts.GetCart(ctx, userID)
	live := c.byUser[userID]
	live.Items = append(live.Items, cart.Item{ID: "i3", CartID: live.ID, ProductID: c.p.ID, Quantity: 1, Product: c.p})
	return snapshot, err
}

func TestCreateOrder_CartChangedDuringCheckout(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.svc.carts = cartAddedDuringCheckout{
		mockCarts: f.carts,
		p:         &product.Product{ID: "p3", Title: "Charger", Price: decimal.NewFromInt(20)},
	}

	_, err := f.svc.CreateOrder(ctx, "u1", "a1")
	require.ErrorIs(t, err, ErrCartChanged)
	assert.Empty(t, f.orders.orders)
	assert.Empty(t, f.publisher.events)

	c, err := f.carts.GetCart(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, c.Items, 3, "the late line survives")
}

func TestCreateOrder_PublishFailureIgnored(t *testing.T) {
	f := newFixture()
	f.publisher.err = errors.New("broker down")

	o, err := f.svc.CreateOrder(context.Background(), "u1", "a1")
	require.NoError(t, err)
	assert.NotEmpty(t, o.ID)
}

func TestGetOrder_Visibility(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	o, err := f.svc.CreateOrder(ctx, "u1", "a1")
	require.NoError(t, err)

	got, err := f.svc.GetOrder(ctx, o.ID, Viewer{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ID)

	_, err = f.svc.GetOrder(ctx, o.ID, Viewer{UserID: "u2"})
	require.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.GetOrder(ctx, o.ID, Viewer{UserID: "admin", IsAdmin: true})
	require.NoError(t, err)

	_, err = f.svc.GetOrder(ctx, "missing", Viewer{IsAdmin: true})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGetAllOrders(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	mine, err := f.svc.CreateOrder(ctx, "u1", "a1")
	require.NoError(t, err)
	f.orders.orders["o-u2"] = &Order{ID: "o-u2", UserID: "u2", Status: StatusDelivered}

	own, err := f.svc.GetUserOrders(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, own, 1)

	all, err := f.svc.GetAllOrders(ctx)
	require.NoError(t, err)
	ids := make([]string, len(all))
	for i, o := range all {
		ids[i] = o.ID
	}
	assert.ElementsMatch(t, []string{mine.ID, "o-u2"}, ids)
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in   string
		want Status
	}{
		{"pending", StatusPending},
		{"SHIPPED", StatusShipped},
		{" Delivered ", StatusDelivered},
		{"cancelled", StatusCancelled},
		{"Processing", StatusProcessing},
	}
	for _, tt := range tests {
		got, err := ParseStatus(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseStatus("Lost")
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestUpdateOrderStatus(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	o, err := f.svc.CreateOrder(ctx, "u1", "a1")
	require.NoError(t, err)

	// Any transition is accepted, including backwards.
	for _, s := range []string{"delivered", "pending", "Cancelled"} {
		got, err := f.svc.UpdateOrderStatus(ctx, o.ID, s)
		require.NoError(t, err)
		want, _ := ParseStatus(s)
		assert.Equal(t, want, got.Status)
	}
	last := f.publisher.events[len(f.publisher.events)-1]
	assert.Equal(t, EventStatusChanged, last.Type)
	assert.Equal(t, StatusCancelled, last.Status)

	_, err = f.svc.UpdateOrderStatus(ctx, o.ID, "teleported")
	require.ErrorIs(t, err, ErrInvalidStatus)

	_, err = f.svc.UpdateOrderStatus(ctx, "missing", "Shipped")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestNumbers(t *testing.T) {
	n := NewOrderNumber(time.UnixMilli(1_700_000_000_042))
	assert.Regexp(t, `^FZK000042[1-9]\d{3}$`, n)
	assert.Regexp(t, `^TRK[1-9]\d{8}$`, NewTrackingID())
}
