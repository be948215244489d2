package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/fzokart/internal/domain/cart"
	"github.com/xenking/fzokart/internal/domain/product"
)

const (
	getCartSQL = `SELECT id, user_id, created_at, updated_at FROM carts WHERE user_id = $1`

	createCartSQL = `INSERT INTO carts (id, user_id) VALUES ($1, $2)
		ON CONFLICT (user_id) DO NOTHING`

	listCartItemsSQL = `SELECT ci.id, ci.cart_id, ci.product_id, ci.quantity,
			p.id, p.title, p.slug, p.description, p.price, p.stock, p.brand, p.category,
			p.images, p.thumbnail, p.rating, p.num_reviews, p.is_active, p.created_at
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1
		ORDER BY ci.created_at, ci.id`

	// A single statement so concurrent adds of the same product both count.
	addCartItemSQL = `INSERT INTO cart_items (id, cart_id, product_id, quantity)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (cart_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity`

	setCartItemQuantitySQL = `UPDATE cart_items SET quantity = $3 WHERE cart_id = $1 AND id = $2`

	deleteCartItemSQL = `DELETE FROM cart_items WHERE cart_id = $1 AND id = $2`

	touchCartSQL = `UPDATE carts SET updated_at = now() WHERE id = $1`

	cartQuantityLimit = "cart_items_quantity_limit"
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by PostgreSQL.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// GetOrCreate returns the user's cart with items and products, creating an
// empty cart when the user has none.
func (r *CartRepository) GetOrCreate(ctx context.Context, userID string) (*cart.Cart, error) {
	c, err := r.get(ctx, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		if _, err := r.pool.Exec(ctx, createCartSQL, uuid.New().String(), userID); err != nil {
			return nil, errors.Wrapf(err, "create cart for user %q", userID)
		}
		c, err = r.get(ctx, userID)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get cart for user %q", userID)
	}

	rows, err := r.pool.Query(ctx, listCartItemsSQL, c.ID)
	if err != nil {
		return nil, errors.Wrap(err, "list cart items")
	}
	c.Items, err = pgx.CollectRows(rows, scanCartItem)
	if err != nil {
		return nil, errors.Wrap(err, "scan cart items")
	}
	return c, nil
}

// AddItem inserts a line or increments the existing line for the product.
func (r *CartRepository) AddItem(ctx context.Context, cartID, productID string, quantity int) error {
	if _, err := r.pool.Exec(ctx, addCartItemSQL, uuid.New().String(), cartID, productID, quantity); err != nil {
		if isCheckViolation(err, cartQuantityLimit) {
			return cart.ErrQuantityTooLarge
		}
		return errors.Wrapf(err, "add product %q to cart", productID)
	}
	return r.touch(ctx, cartID)
}

// SetQuantity sets the exact quantity of a line.
func (r *CartRepository) SetQuantity(ctx context.Context, cartID, itemID string, quantity int) error {
	tag, err := r.pool.Exec(ctx, setCartItemQuantitySQL, cartID, itemID, quantity)
	if err != nil {
		if isCheckViolation(err, cartQuantityLimit) {
			return cart.ErrQuantityTooLarge
		}
		return errors.Wrapf(err, "update cart item %q", itemID)
	}
	if tag.RowsAffected() == 0 {
		return cart.ErrItemNotFound
	}
	return r.touch(ctx, cartID)
}

// RemoveItem deletes a line.
func (r *CartRepository) RemoveItem(ctx context.Context, cartID, itemID string) error {
	tag, err := r.pool.Exec(ctx, deleteCartItemSQL, cartID, itemID)
	if err != nil {
		return errors.Wrapf(err, "delete cart item %q", itemID)
	}
	if tag.RowsAffected() == 0 {
		return cart.ErrItemNotFound
	}
	return r.touch(ctx, cartID)
}

func (r *CartRepository) get(ctx context.Context, userID string) (*cart.Cart, error) {
	var c cart.Cart
	err := r.pool.QueryRow(ctx, getCartSQL, userID).Scan(&c.ID, &c.UserID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CartRepository) touch(ctx context.Context, cartID string) error {
	if _, err := r.pool.Exec(ctx, touchCartSQL, cartID); err != nil {
		return errors.Wrap(err, "touch cart")
	}
	return nil
}

func scanCartItem(row pgx.CollectableRow) (cart.Item, error) {
	var (
		it cart.Item
		p  product.Product
	)
	dest := append([]any{&it.ID, &it.CartID, &it.ProductID, &it.Quantity}, productDest(&p)...)
	if err := row.Scan(dest...); err != nil {
		return it, err
	}
	it.Product = &p
	return it, nil
}
