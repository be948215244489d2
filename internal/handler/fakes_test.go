package handler

import (
	"context"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/xenking/fzokart/internal/domain/address"
	"github.com/xenking/fzokart/internal/domain/cart"
	"github.com/xenking/fzokart/internal/domain/order"
	"github.com/xenking/fzokart/internal/domain/product"
	"github.com/xenking/fzokart/internal/domain/review"
	"github.com/xenking/fzokart/internal/domain/user"
)

type memUsers struct {
	mu   sync.Mutex
	byID map[string]*user.User
}

func (m *memUsers) Create(_ context.Context, u *user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.Email == u.Email {
			return user.ErrEmailTaken
		}
	}
	u.CreatedAt = time.Now()
	cp := *u
	m.byID[u.ID] = &cp
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, user.ErrNotFound
}

func (m *memUsers) SetRole(_ context.Context, email string, role user.Role) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == email {
			u.Role = role
			cp := *u
			return &cp, nil
		}
	}
	return nil, user.ErrNotFound
}

type memProducts struct {
	mu   sync.Mutex
	byID map[string]product.Product
}

func (m *memProducts) List(_ context.Context, f product.Filter) ([]product.Product, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []product.Product
	for _, p := range m.byID {
		if p.IsActive && (f.Category == "" || p.Category == f.Category) {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b product.Product) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, len(out), nil
}

func (m *memProducts) GetByID(_ context.Context, id string) (*product.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return &p, nil
}

func (m *memProducts) GetBySlug(_ context.Context, slug string) (*product.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.byID {
		if p.Slug == slug {
			return &p, nil
		}
	}
	return nil, product.ErrNotFound
}

func (m *memProducts) GetByIDs(_ context.Context, ids []string) ([]product.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []product.Product
	for _, id := range ids {
		if p, ok := m.byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memProducts) Create(_ context.Context, p *product.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.Slug == p.Slug {
			return product.ErrSlugTaken
		}
	}
	p.CreatedAt = time.Now()
	m.byID[p.ID] = *p
	return nil
}

func (m *memProducts) Update(_ context.Context, p *product.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[p.ID]; !ok {
		return product.ErrNotFound
	}
	m.byID[p.ID] = *p
	return nil
}

func (m *memProducts) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return product.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memProducts) SetRating(_ context.Context, id string, rating float64, n int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.byID[id]
	p.Rating, p.NumReviews = rating, n
	m.byID[id] = p
	return nil
}

type memCarts struct {
	mu       sync.Mutex
	products *memProducts
	byUser   map[string]*cart.Cart
	seq      int
}

func (m *memCarts) GetOrCreate(ctx context.Context, userID string) (*cart.Cart, error) {
	m.mu.Lock()
	c, ok := m.byUser[userID]
	if !ok {
		m.seq++
		c = &cart.Cart{ID: "cart-" + strconv.Itoa(m.seq), UserID: userID}
		m.byUser[userID] = c
	}
	cp := *c
	cp.Items = slices.Clone(c.Items)
	m.mu.Unlock()

	for i := range cp.Items {
		p, err := m.products.GetByID(ctx, cp.Items[i].ProductID)
		if err == nil {
			cp.Items[i].Product = p
		}
	}
	return &cp, nil
}

func (m *memCarts) byID(cartID string) *cart.Cart {
	for _, c := range m.byUser {
		if c.ID == cartID {
			return c
		}
	}
	return nil
}

func (m *memCarts) AddItem(_ context.Context, cartID, productID string, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.byID(cartID)
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity += quantity
			return nil
		}
	}
	m.seq++
	c.Items = append(c.Items, cart.Item{
		ID: "item-" + strconv.Itoa(m.seq), CartID: cartID, ProductID: productID, Quantity: quantity,
	})
	return nil
}

func (m *memCarts) SetQuantity(_ context.Context, cartID, itemID string, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.byID(cartID)
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			c.Items[i].Quantity = quantity
			return nil
		}
	}
	return cart.ErrItemNotFound
}

func (m *memCarts) RemoveItem(_ context.Context, cartID, itemID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.byID(cartID)
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			c.Items = slices.Delete(c.Items, i, i+1)
			return nil
		}
	}
	return cart.ErrItemNotFound
}

func (m *memCarts) clear(cartID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID(cartID).Items = nil
}

type memAddresses struct {
	mu   sync.Mutex
	byID map[string]address.Address
}

func (m *memAddresses) Create(_ context.Context, a *address.Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[a.ID] = *a
	return nil
}

func (m *memAddresses) List(_ context.Context, userID string) ([]address.Address, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []address.Address
	for _, a := range m.byID {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memAddresses) Get(_ context.Context, userID, id string) (*address.Address, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok || a.UserID != userID {
		return nil, address.ErrNotFound
	}
	return &a, nil
}

func (m *memAddresses) Update(_ context.Context, a *address.Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[a.ID] = *a
	return nil
}

func (m *memAddresses) Delete(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.byID[id]; !ok || a.UserID != userID {
		return address.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

type memOrders struct {
	mu    sync.Mutex
	carts *memCarts
	byID  map[string]order.Order
}

func (m *memOrders) Checkout(_ context.Context, o *order.Order, snapshot *cart.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o.CreatedAt, o.UpdatedAt = time.Now(), time.Now()
	m.byID[o.ID] = *o
	m.carts.clear(snapshot.ID)
	return nil
}

func (m *memOrders) GetByID(_ context.Context, id string) (*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.byID[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	return &o, nil
}

func (m *memOrders) ListByUser(_ context.Context, userID string) ([]order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []order.Order
	for _, o := range m.byID {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *memOrders) ListAll(context.Context) ([]order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]order.Order, 0, len(m.byID))
	for _, o := range m.byID {
		out = append(out, o)
	}
	return out, nil
}

func (m *memOrders) UpdateStatus(_ context.Context, id string, status order.Status) (*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.byID[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	o.Status = status
	m.byID[id] = o
	return &o, nil
}

type memReviews struct {
	mu   sync.Mutex
	list []review.Review
}

func (m *memReviews) Exists(_ context.Context, userID, productID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.ContainsFunc(m.list, func(r review.Review) bool {
		return r.UserID == userID && r.ProductID == productID
	}), nil
}

func (m *memReviews) Create(_ context.Context, r *review.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.CreatedAt = time.Now()
	m.list = append(m.list, *r)
	return nil
}

func (m *memReviews) Ratings(_ context.Context, productID string) ([]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []int
	for _, r := range m.list {
		if r.ProductID == productID {
			out = append(out, r.Rating)
		}
	}
	return out, nil
}

func (m *memReviews) ListByProduct(_ context.Context, productID string) ([]review.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []review.Review
	for _, r := range m.list {
		if r.ProductID == productID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memReviews) GetByID(_ context.Context, id string) (*review.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := slices.IndexFunc(m.list, func(r review.Review) bool { return r.ID == id })
	if i < 0 {
		return nil, review.ErrNotFound
	}
	r := m.list[i]
	return &r, nil
}

func (m *memReviews) Update(_ context.Context, r *review.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := slices.IndexFunc(m.list, func(x review.Review) bool { return x.ID == r.ID })
	if i < 0 {
		return review.ErrNotFound
	}
	m.list[i] = *r
	return nil
}

func (m *memReviews) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := slices.IndexFunc(m.list, func(r review.Review) bool { return r.ID == id })
	if i < 0 {
		return review.ErrNotFound
	}
	m.list = slices.Delete(m.list, i, i+1)
	return nil
}
