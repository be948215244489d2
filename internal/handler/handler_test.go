package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/xenking/fzokart/internal/domain/address"
	"github.com/xenking/fzokart/internal/domain/auth"
	"github.com/xenking/fzokart/internal/domain/cart"
	"github.com/xenking/fzokart/internal/domain/order"
	"github.com/xenking/fzokart/internal/domain/product"
	"github.com/xenking/fzokart/internal/domain/review"
	"github.com/xenking/fzokart/internal/domain/user"
)

var testSecret = []byte("test-secret")

type testAPI struct {
	t        *testing.T
	srv      http.Handler
	tokens   *auth.Tokens
	users    *memUsers
	products *memProducts
	carts    *memCarts
	orders   *memOrders
	accounts *user.Service
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	users := &memUsers{byID: map[string]*user.User{}}
	products := &memProducts{byID: map[string]product.Product{}}
	carts := &memCarts{products: products, byUser: map[string]*cart.Cart{}}
	addresses := &memAddresses{byID: map[string]address.Address{}}
	orders := &memOrders{carts: carts, byID: map[string]order.Order{}}
	reviews := &memReviews{}

	tokens := auth.NewTokens(auth.TokenConfig{Secret: testSecret})
	accounts := user.NewService(users, tokens, bcrypt.MinCost)
	cartSvc := cart.NewService(carts, products)

	h := NewHandler(Services{
		Users:     accounts,
		Products:  product.NewService(products),
		Carts:     cartSvc,
		Addresses: address.NewService(addresses),
		Orders:    order.NewService(orders, cartSvc, addresses, users, nil),
		Reviews:   review.NewService(reviews, products),
		Tokens:    tokens,
		Accounts:  users,
	})

	return &testAPI{
		t:        t,
		srv:      h.Routes(),
		tokens:   tokens,
		users:    users,
		products: products,
		carts:    carts,
		orders:   orders,
		accounts: accounts,
	}
}

type response struct {
	Code int
	Body map[string]any
}

func (r response) data() map[string]any {
	d, _ := r.Body["data"].(map[string]any)
	return d
}

func (a *testAPI) do(method, path, token string, body any) response {
	a.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.srv.ServeHTTP(w, req)

	res := response{Code: w.Code}
	if w.Body.Len() > 0 {
		require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &res.Body), w.Body.String())
	}
	return res
}

// signup registers an account and returns its access token and id.
func (a *testAPI) signup(name, email string) (token, id string) {
	a.t.Helper()
	res := a.do(http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"name": name, "email": email, "password": "hunter22",
	})
	require.Equal(a.t, http.StatusCreated, res.Code, res.Body)
	u := res.data()["user"].(map[string]any)
	return res.Body["token"].(string), u["id"].(string)
}

func (a *testAPI) admin() string {
	a.t.Helper()
	_, _ = a.signup("Root", "root@fzokart.test")
	_, err := a.accounts.PromoteAdmin(context.Background(), "root@fzokart.test")
	require.NoError(a.t, err)
	s, err := a.accounts.Login(context.Background(), "root@fzokart.test", "hunter22")
	require.NoError(a.t, err)
	return s.Token
}

func (a *testAPI) addProduct(id, title, price string) {
	a.t.Helper()
	require.NoError(a.t, a.products.Create(context.Background(), &product.Product{
		ID: id, Title: title, Slug: product.Slugify(title), Price: decimal.RequireFromString(price),
		Stock: 10, IsActive: true,
	}))
}

func TestWelcomeAndNotFound(t *testing.T) {
	api := newTestAPI(t)

	res := api.do(http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "success", res.Body["status"])

	res = api.do(http.MethodGet, "/api/v1/unknown", "", nil)
	assert.Equal(t, http.StatusNotFound, res.Code)
	assert.Equal(t, "fail", res.Body["status"])
	assert.Equal(t, "Can't find /api/v1/unknown on this server!", res.Body["message"])
}

func TestAuthFlow(t *testing.T) {
	api := newTestAPI(t)

	res := api.do(http.MethodPost, "/api/v1/auth/register", "", map[string]any{"email": "a@b.c"})
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "Please provide name, email and password", res.Body["message"])

	token, id := api.signup("Asha", "asha@fzokart.test")
	assert.NotEmpty(t, token)

	res = api.do(http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"name": "Asha", "email": "ASHA@fzokart.test", "password": "x",
	})
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "Email already in use", res.Body["message"])

	res = api.do(http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"email": "asha@fzokart.test", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Equal(t, "Invalid email or password", res.Body["message"])

	res = api.do(http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"email": "asha@fzokart.test", "password": "hunter22",
	})
	require.Equal(t, http.StatusOK, res.Code)
	refresh, ok := res.Body["refreshToken"].(string)
	require.True(t, ok)
	u := res.data()["user"].(map[string]any)
	assert.Equal(t, id, u["id"])
	assert.Equal(t, "USER", u["role"])
	assert.NotContains(t, u, "password")

	res = api.do(http.MethodPost, "/api/v1/auth/refresh", "", map[string]any{"refreshToken": refresh})
	require.Equal(t, http.StatusOK, res.Code)
	access := res.Body["token"].(string)

	res = api.do(http.MethodGet, "/api/v1/auth/me", access, nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "asha@fzokart.test", res.data()["user"].(map[string]any)["email"])

	// An access token is not accepted as a refresh token.
	res = api.do(http.MethodPost, "/api/v1/auth/refresh", "", map[string]any{"refreshToken": access})
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestProducts(t *testing.T) {
	api := newTestAPI(t)
	adminToken := api.admin()
	userToken, _ := api.signup("Asha", "asha@fzokart.test")

	body := map[string]any{"title": "Steel Water Bottle", "price": "499.00", "images": []string{"b1.jpg", "b2.jpg"}}

	res := api.do(http.MethodPost, "/api/v1/products", userToken, body)
	assert.Equal(t, http.StatusForbidden, res.Code)
	assert.Equal(t, "You do not have permission to perform this action", res.Body["message"])

	res = api.do(http.MethodPost, "/api/v1/products", adminToken, body)
	require.Equal(t, http.StatusCreated, res.Code, res.Body)
	p := res.data()["product"].(map[string]any)
	assert.Equal(t, "steel-water-bottle", p["slug"])
	assert.Equal(t, "b1.jpg", p["thumbnail"])
	assert.InDelta(t, 499.0, p["price"], 0.001)
	id := p["id"].(string)

	res = api.do(http.MethodGet, "/api/v1/products/steel-water-bottle", "", nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, id, res.data()["product"].(map[string]any)["id"])

	res = api.do(http.MethodPut, "/api/v1/products/"+id, adminToken, map[string]any{"price": 450, "stock": "7"})
	require.Equal(t, http.StatusOK, res.Code, res.Body)
	p = res.data()["product"].(map[string]any)
	assert.InDelta(t, 450.0, p["price"], 0.001)
	assert.Equal(t, float64(7), p["stock"])

	res = api.do(http.MethodGet, "/api/v1/products?limit=5", "", nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, float64(1), res.data()["total"])
	assert.Len(t, res.data()["products"], 1)

	res = api.do(http.MethodDelete, "/api/v1/products/"+id, adminToken, nil)
	assert.Equal(t, http.StatusNoContent, res.Code)

	res = api.do(http.MethodGet, "/api/v1/products/"+id, "", nil)
	assert.Equal(t, http.StatusNotFound, res.Code)
	assert.Equal(t, "Product not found", res.Body["message"])
}

func TestCartEndpoints(t *testing.T) {
	api := newTestAPI(t)
	api.addProduct("p1", "Kettle", "100")
	token, _ := api.signup("Asha", "asha@fzokart.test")

	res := api.do(http.MethodGet, "/api/v1/cart", token, nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Empty(t, res.data()["cart"].(map[string]any)["items"])

	res = api.do(http.MethodPost, "/api/v1/cart", token, map[string]any{"productId": "p1", "quantity": 2})
	require.Equal(t, http.StatusOK, res.Code)
	res = api.do(http.MethodPost, "/api/v1/cart", token, map[string]any{"productId": "p1", "quantity": 3})
	require.Equal(t, http.StatusOK, res.Code)
	items := res.data()["cart"].(map[string]any)["items"].([]any)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	assert.Equal(t, float64(5), item["quantity"])
	itemID := item["id"].(string)

	res = api.do(http.MethodPost, "/api/v1/cart", token, map[string]any{"productId": "nope", "quantity": 1})
	assert.Equal(t, http.StatusNotFound, res.Code)

	res = api.do(http.MethodPost, "/api/v1/cart", token, map[string]any{"productId": "p1", "quantity": 0})
	assert.Equal(t, http.StatusBadRequest, res.Code)

	res = api.do(http.MethodPut, "/api/v1/cart/"+itemID, token, map[string]any{"quantity": 1})
	require.Equal(t, http.StatusOK, res.Code)
	assert.InDelta(t, 100.0, res.data()["cart"].(map[string]any)["subtotal"], 0.001)

	for name, body := range map[string]map[string]any{
		"Empty":       {},
		"MisnamedKey": {"qty": 3},
		"Null":        {"quantity": nil},
	} {
		res = api.do(http.MethodPut, "/api/v1/cart/"+itemID, token, body)
		assert.Equal(t, http.StatusBadRequest, res.Code, name)
		assert.Equal(t, "Please provide quantity", res.Body["message"], name)
	}
	res = api.do(http.MethodGet, "/api/v1/cart", token, nil)
	items = res.data()["cart"].(map[string]any)["items"].([]any)
	require.Len(t, items, 1, "a rejected update keeps the line")
	assert.Equal(t, float64(1), items[0].(map[string]any)["quantity"])

	res = api.do(http.MethodPut, "/api/v1/cart/"+itemID, token, map[string]any{"quantity": 10000})
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "Quantity cannot exceed 9999", res.Body["message"])
	res = api.do(http.MethodPost, "/api/v1/cart", token, map[string]any{"productId": "p1", "quantity": 3000000000})
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "Quantity cannot exceed 9999", res.Body["message"])

	res = api.do(http.MethodPut, "/api/v1/cart/missing", token, map[string]any{"quantity": 1})
	assert.Equal(t, http.StatusNotFound, res.Code)
	assert.Equal(t, "Item not found in cart", res.Body["message"])

	res = api.do(http.MethodPut, "/api/v1/cart/"+itemID, token, map[string]any{"quantity": 0})
	require.Equal(t, http.StatusOK, res.Code)
	assert.Empty(t, res.data()["cart"].(map[string]any)["items"])

	res = api.do(http.MethodPost, "/api/v1/cart/merge", token, map[string]any{
		"items": []map[string]any{{"productId": "p1", "quantity": 2}, {"productId": "ghost", "quantity": 1}},
	})
	require.Equal(t, http.StatusOK, res.Code)
	assert.Len(t, res.data()["cart"].(map[string]any)["items"], 1)
}

func TestCheckoutFlow(t *testing.T) {
	api := newTestAPI(t)
	api.addProduct("p1", "Kettle", "100")
	api.addProduct("p2", "Mug", "50")
	token, userID := api.signup("Asha", "asha@fzokart.test")

	res := api.do(http.MethodPost, "/api/v1/orders/checkout", token, map[string]any{"addressId": "whatever"})
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "Cart is empty", res.Body["message"])

	api.do(http.MethodPost, "/api/v1/cart", token, map[string]any{"productId": "p1", "quantity": 2})
	api.do(http.MethodPost, "/api/v1/cart", token, map[string]any{"productId": "p2", "quantity": 1})

	res = api.do(http.MethodPost, "/api/v1/addresses", token, map[string]any{
		"fullName": "Asha Das", "phone": "9000000000", "street": "1 MG Road",
		"city": "Guwahati", "state": "Assam", "pincode": "781001",
	})
	require.Equal(t, http.StatusCreated, res.Code, res.Body)
	addr := res.data()["address"].(map[string]any)
	assert.Equal(t, "India", addr["country"])
	assert.Equal(t, "HOME", addr["type"])
	addressID := addr["id"].(string)

	res = api.do(http.MethodPost, "/api/v1/orders/checkout", token, map[string]any{"addressId": addressID})
	require.Equal(t, http.StatusCreated, res.Code, res.Body)
	o := res.data()["order"].(map[string]any)
	assert.InDelta(t, 250.0, o["totalAmount"], 0.001)
	assert.Equal(t, "Pending", o["status"])
	assert.Regexp(t, `^FZK\d{10}$`, o["orderNumber"])
	assert.Regexp(t, `^TRK\d{9}$`, o["trackingId"])
	assert.Len(t, o["items"], 2)
	shipping := o["shippingDetails"].(map[string]any)
	assert.Equal(t, "Asha", shipping["shippingTo"].(map[string]any)["name"])
	assert.Equal(t, "Fzokart Pvt. Ltd.", shipping["shippingFrom"].(map[string]any)["company"])
	orderID := o["id"].(string)

	res = api.do(http.MethodGet, "/api/v1/cart", token, nil)
	assert.Empty(t, res.data()["cart"].(map[string]any)["items"])

	res = api.do(http.MethodGet, "/api/v1/orders", token, nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Len(t, res.data()["orders"], 1)

	res = api.do(http.MethodGet, "/api/v1/orders/"+orderID, token, nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, userID, res.data()["order"].(map[string]any)["userId"])

	// Other customers cannot see the order.
	otherToken, _ := api.signup("Ravi", "ravi@fzokart.test")
	res = api.do(http.MethodGet, "/api/v1/orders/"+orderID, otherToken, nil)
	assert.Equal(t, http.StatusNotFound, res.Code)
	assert.Equal(t, "Order not found", res.Body["message"])

	// Only admins change status.
	res = api.do(http.MethodPut, "/api/v1/orders/"+orderID+"/status", token, map[string]any{"status": "Shipped"})
	assert.Equal(t, http.StatusForbidden, res.Code)

	adminToken := api.admin()
	res = api.do(http.MethodPut, "/api/v1/orders/"+orderID+"/status", adminToken, map[string]any{"status": "bogus"})
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "Invalid order status", res.Body["message"])

	res = api.do(http.MethodPut, "/api/v1/orders/"+orderID+"/status", adminToken, map[string]any{"status": "shipped"})
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "Shipped", res.data()["order"].(map[string]any)["status"])

	res = api.do(http.MethodGet, "/api/v1/orders/"+orderID, adminToken, nil)
	assert.Equal(t, http.StatusOK, res.Code)

	// The full order list is admin only.
	res = api.do(http.MethodGet, "/api/v1/orders/admin/all", otherToken, nil)
	assert.Equal(t, http.StatusForbidden, res.Code)

	res = api.do(http.MethodGet, "/api/v1/orders/admin/all", adminToken, nil)
	require.Equal(t, http.StatusOK, res.Code)
	all := res.data()["orders"].([]any)
	require.Len(t, all, 1)
	assert.Equal(t, orderID, all[0].(map[string]any)["id"])
}

func TestCheckout_ForeignAddress(t *testing.T) {
	api := newTestAPI(t)
	api.addProduct("p1", "Kettle", "100")
	owner, _ := api.signup("Asha", "asha@fzokart.test")
	thief, _ := api.signup("Ravi", "ravi@fzokart.test")

	res := api.do(http.MethodPost, "/api/v1/addresses", owner, map[string]any{
		"fullName": "Asha Das", "phone": "9000000000", "street": "1 MG Road",
		"city": "Guwahati", "state": "Assam", "pincode": "781001",
	})
	require.Equal(t, http.StatusCreated, res.Code)
	addressID := res.data()["address"].(map[string]any)["id"].(string)

	api.do(http.MethodPost, "/api/v1/cart", thief, map[string]any{"productId": "p1"})
	res = api.do(http.MethodPost, "/api/v1/orders/checkout", thief, map[string]any{"addressId": addressID})
	assert.Equal(t, http.StatusNotFound, res.Code)
	assert.Equal(t, "Address not found", res.Body["message"])
}

func TestAddressEndpoints(t *testing.T) {
	api := newTestAPI(t)
	token, _ := api.signup("Asha", "asha@fzokart.test")

	res := api.do(http.MethodPost, "/api/v1/addresses", token, map[string]any{"fullName": "Asha"})
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "Please provide all mandatory fields", res.Body["message"])

	res = api.do(http.MethodPost, "/api/v1/addresses", token, map[string]any{
		"fullName": "Asha Das", "phone": "9000000000", "street": "1 MG Road",
		"city": "Guwahati", "state": "Assam", "pincode": "781001", "type": "work",
	})
	require.Equal(t, http.StatusCreated, res.Code)
	id := res.data()["address"].(map[string]any)["id"].(string)

	res = api.do(http.MethodPut, "/api/v1/addresses/"+id, token, map[string]any{"city": "Morigaon"})
	require.Equal(t, http.StatusOK, res.Code)
	a := res.data()["address"].(map[string]any)
	assert.Equal(t, "Morigaon", a["city"])
	assert.Equal(t, "WORK", a["type"])

	res = api.do(http.MethodGet, "/api/v1/addresses", token, nil)
	assert.Len(t, res.data()["addresses"], 1)

	res = api.do(http.MethodDelete, "/api/v1/addresses/"+id, token, nil)
	assert.Equal(t, http.StatusNoContent, res.Code)

	res = api.do(http.MethodGet, "/api/v1/addresses/"+id, token, nil)
	assert.Equal(t, http.StatusNotFound, res.Code)
}

func TestReviewEndpoints(t *testing.T) {
	api := newTestAPI(t)
	api.addProduct("p1", "Kettle", "100")
	token, _ := api.signup("Asha", "asha@fzokart.test")

	tests := []struct {
		name    string
		body    map[string]any
		code    int
		message string
	}{
		{"RatingTooHigh", map[string]any{"product": "p1", "rating": 6, "comment": "x"}, http.StatusBadRequest, "Rating must be between 1 and 5"},
		{"MissingComment", map[string]any{"product": "p1", "rating": 4}, http.StatusBadRequest, "Please provide a comment"},
		{"UnknownProduct", map[string]any{"product": "nope", "rating": 4, "comment": "ok"}, http.StatusNotFound, "Product not found"},
		{"NotANumber", map[string]any{"product": "p1", "rating": "great", "comment": "ok"}, http.StatusBadRequest, "Invalid request body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := api.do(http.MethodPost, "/api/v1/reviews", token, tt.body)
			assert.Equal(t, tt.code, res.Code)
			assert.Equal(t, tt.message, res.Body["message"])
		})
	}

	res := api.do(http.MethodPost, "/api/v1/reviews", token, map[string]any{"product": "p1", "rating": "4", "comment": "Boils fast"})
	require.Equal(t, http.StatusCreated, res.Code, res.Body)
	rv := res.data()
	assert.Equal(t, float64(4), rv["rating"])
	assert.Equal(t, "Kettle", rv["product"].(map[string]any)["name"])

	res = api.do(http.MethodPost, "/api/v1/reviews", token, map[string]any{"product": "p1", "rating": 5, "comment": "Again"})
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "You have already reviewed this product", res.Body["message"])

	res = api.do(http.MethodGet, "/api/v1/products/p1/reviews", "", nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Len(t, res.data()["reviews"], 1)

	p, err := api.products.GetByID(context.Background(), "p1")
	require.NoError(t, err)
	assert.InDelta(t, 4.0, p.Rating, 0.001)
	assert.Equal(t, 1, p.NumReviews)
}

func TestReviewUpdateDelete(t *testing.T) {
	api := newTestAPI(t)
	api.addProduct("p1", "Kettle", "100")
	author, _ := api.signup("Asha", "asha@fzokart.test")
	other, _ := api.signup("Ravi", "ravi@fzokart.test")

	res := api.do(http.MethodPost, "/api/v1/reviews", author, map[string]any{"product": "p1", "rating": 4, "comment": "Boils fast"})
	require.Equal(t, http.StatusCreated, res.Code, res.Body)
	id := res.data()["id"].(string)
	path := "/api/v1/reviews/" + id

	tests := []struct {
		name    string
		method  string
		path    string
		token   string
		body    map[string]any
		code    int
		message string
	}{
		{"UpdateByOther", http.MethodPut, path, other, map[string]any{"rating": 1}, http.StatusForbidden, "You are not allowed to change this review"},
		{"DeleteByOther", http.MethodDelete, path, other, nil, http.StatusForbidden, "You are not allowed to change this review"},
		{"UpdateMissing", http.MethodPut, "/api/v1/reviews/nope", author, map[string]any{"rating": 1}, http.StatusNotFound, "Review not found"},
		{"DeleteMissing", http.MethodDelete, "/api/v1/reviews/nope", author, nil, http.StatusNotFound, "Review not found"},
		{"RatingTooLow", http.MethodPut, path, author, map[string]any{"rating": -1}, http.StatusBadRequest, "Rating must be between 1 and 5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := api.do(tt.method, tt.path, tt.token, tt.body)
			assert.Equal(t, tt.code, res.Code)
			assert.Equal(t, tt.message, res.Body["message"])
		})
	}

	res = api.do(http.MethodPut, path, author, map[string]any{"rating": 2})
	require.Equal(t, http.StatusOK, res.Code, res.Body)
	assert.Equal(t, float64(2), res.data()["rating"])
	assert.Equal(t, "Boils fast", res.data()["comment"])

	p, err := api.products.GetByID(context.Background(), "p1")
	require.NoError(t, err)
	assert.InDelta(t, 2.0, p.Rating, 0.001)

	// Admins may delete any review.
	res = api.do(http.MethodDelete, path, api.admin(), nil)
	assert.Equal(t, http.StatusNoContent, res.Code)

	p, err = api.products.GetByID(context.Background(), "p1")
	require.NoError(t, err)
	assert.Zero(t, p.Rating)
	assert.Zero(t, p.NumReviews)

	res = api.do(http.MethodGet, "/api/v1/products/p1/reviews", "", nil)
	assert.Empty(t, res.data()["reviews"])
}

func TestInvalidJSON(t *testing.T) {
	api := newTestAPI(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewBufferString("{not json"))
	w := httptest.NewRecorder()
	api.srv.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid request body")
}

func TestInternalErrorHidden(t *testing.T) {
	api := newTestAPI(t)
	token, _ := api.signup("Asha", "asha@fzokart.test")

	h := NewHandler(Services{
		Orders:   failingOrders{},
		Tokens:   api.tokens,
		Accounts: api.users,
	})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	h.Routes().ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"status":"error","message":"Something went wrong"}`, w.Body.String())
}

type failingOrders struct{ OrderService }

func (failingOrders) GetUserOrders(context.Context, string) ([]order.Order, error) {
	return nil, context.DeadlineExceeded
}
