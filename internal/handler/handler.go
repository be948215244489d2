// Package handler exposes the storefront services over the /api/v1 REST API.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"

	"github.com/xenking/fzokart/internal/domain/address"
	"github.com/xenking/fzokart/internal/domain/apperr"
	"github.com/xenking/fzokart/internal/domain/auth"
	"github.com/xenking/fzokart/internal/domain/cart"
	"github.com/xenking/fzokart/internal/domain/order"
	"github.com/xenking/fzokart/internal/domain/product"
	"github.com/xenking/fzokart/internal/domain/review"
	"github.com/xenking/fzokart/internal/domain/user"
)

// UserService is the account surface used by the auth routes.
type UserService interface {
	Register(ctx context.Context, req user.RegisterRequest) (*user.Session, error)
	Login(ctx context.Context, email, password string) (*user.Session, error)
	Refresh(ctx context.Context, refreshToken string) (*user.Session, error)
	Profile(ctx context.Context, userID string) (*user.User, error)
}

// ProductService is the catalog surface.
type ProductService interface {
	List(ctx context.Context, f product.Filter) (*product.Page, error)
	Get(ctx context.Context, idOrSlug string) (*product.Product, error)
	Create(ctx context.Context, p *product.Product) (*product.Product, error)
	Update(ctx context.Context, id string, patch product.Patch) (*product.Product, error)
	Delete(ctx context.Context, id string) error
}

// CartService is the shopping cart surface.
type CartService interface {
	GetCart(ctx context.Context, userID string) (*cart.Cart, error)
	AddToCart(ctx context.Context, userID, productID string, quantity int) (*cart.Cart, error)
	UpdateCartItem(ctx context.Context, userID, itemID string, quantity int) (*cart.Cart, error)
	RemoveFromCart(ctx context.Context, userID, itemID string) (*cart.Cart, error)
	MergeCart(ctx context.Context, userID string, lines []cart.MergeLine) (*cart.Cart, error)
}

// AddressService is the address book surface.
type AddressService interface {
	Add(ctx context.Context, userID string, a *address.Address) (*address.Address, error)
	List(ctx context.Context, userID string) ([]address.Address, error)
	Get(ctx context.Context, userID, id string) (*address.Address, error)
	Update(ctx context.Context, userID, id string, p address.Patch) (*address.Address, error)
	Delete(ctx context.Context, userID, id string) error
}

// OrderService is the checkout and order history surface.
type OrderService interface {
	CreateOrder(ctx context.Context, userID, addressID string) (*order.Order, error)
	GetOrder(ctx context.Context, orderID string, v order.Viewer) (*order.Order, error)
	GetUserOrders(ctx context.Context, userID string) ([]order.Order, error)
	GetAllOrders(ctx context.Context) ([]order.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID, status string) (*order.Order, error)
}

// ReviewService is the product review surface.
type ReviewService interface {
	CreateReview(ctx context.Context, userID string, req review.CreateRequest) (*review.Review, error)
	UpdateReview(ctx context.Context, userID, reviewID string, req review.UpdateRequest) (*review.Review, error)
	DeleteReview(ctx context.Context, userID string, isAdmin bool, reviewID string) error
	ListProductReviews(ctx context.Context, productID string) ([]review.Review, error)
}

// Services groups the dependencies of Handler.
type Services struct {
	Users     UserService
	Products  ProductService
	Carts     CartService
	Addresses AddressService
	Orders    OrderService
	Reviews   ReviewService

	// Tokens and Accounts back the Protect middleware.
	Tokens   *auth.Tokens
	Accounts UserGetter
}

// Handler serves the REST API.
type Handler struct {
	users     UserService
	products  ProductService
	carts     CartService
	addresses AddressService
	orders    OrderService
	reviews   ReviewService

	protect func(http.Handler) http.Handler
}

// NewHandler constructs a Handler.
func NewHandler(s Services) *Handler {
	return &Handler{
		users:     s.Users,
		products:  s.Products,
		carts:     s.Carts,
		addresses: s.Addresses,
		orders:    s.Orders,
		reviews:   s.Reviews,
		protect:   Protect(s.Tokens, s.Accounts),
	}
}

// Routes builds the API router. Callers may mount more routes (health probes)
// on the returned mux.
func (h *Handler) Routes() *chi.Mux {
	r := chi.NewRouter()
	r.NotFound(h.notFound)
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		fail(w, r, errMethodNotAllowed)
	})
	r.Get("/", h.welcome)

	admin := RestrictTo(user.RoleAdmin)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.register)
			r.Post("/login", h.login)
			r.Post("/refresh", h.refresh)
			r.With(h.protect).Get("/me", h.me)
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.listProducts)
			r.Get("/{id}", h.getProduct)
			r.Get("/{id}/reviews", h.listProductReviews)
			r.Group(func(r chi.Router) {
				r.Use(h.protect, admin)
				r.Post("/", h.createProduct)
				r.Put("/{id}", h.updateProduct)
				r.Delete("/{id}", h.deleteProduct)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(h.protect)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", h.getCart)
				r.Post("/", h.addToCart)
				r.Post("/merge", h.mergeCart)
				r.Put("/{itemId}", h.updateCartItem)
				r.Delete("/{itemId}", h.removeFromCart)
			})

			r.Route("/addresses", func(r chi.Router) {
				r.Get("/", h.listAddresses)
				r.Post("/", h.addAddress)
				r.Get("/{id}", h.getAddress)
				r.Put("/{id}", h.updateAddress)
				r.Delete("/{id}", h.deleteAddress)
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", h.listOrders)
				r.Post("/checkout", h.checkout)
				r.With(admin).Get("/admin/all", h.listAllOrders)
				r.Get("/{id}", h.getOrder)
				r.With(admin).Put("/{id}/status", h.updateOrderStatus)
			})

			r.Post("/reviews", h.createReview)
			r.Put("/reviews/{id}", h.updateReview)
			r.Delete("/reviews/{id}", h.deleteReview)
		})
	})
	return r
}

func (h *Handler) welcome(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("status", str("success"))
			e.Field("message", str("Welcome to Fzokart API"))
		})
	})
}

func (h *Handler) notFound(w http.ResponseWriter, r *http.Request) {
	fail(w, r, apperr.Newf(http.StatusNotFound, "Can't find %s on this server!", r.URL.Path))
}
