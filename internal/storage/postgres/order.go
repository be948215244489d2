package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/fzokart/internal/domain/cart"
	"github.com/xenking/fzokart/internal/domain/order"
)

const (
	orderColumns = `id, user_id, order_number, tracking_id, total_amount, address, shipping,
		status, created_at, updated_at`

	createOrderSQL = `INSERT INTO orders
		(id, user_id, order_number, tracking_id, total_amount, address, shipping, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	createOrderItemSQL = `INSERT INTO order_items (id, order_id, product_id, quantity, price)
		VALUES ($1, $2, $3, $4, $5)`

	getOrderSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	listUserOrdersSQL = `SELECT ` + orderColumns + ` FROM orders
		WHERE user_id = $1 ORDER BY created_at DESC, id`

	listAllOrdersSQL = `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC, id`

	listOrderItemsSQL = `SELECT id, order_id, product_id, quantity, price
		FROM order_items WHERE order_id = ANY($1) ORDER BY order_id, id`

	updateOrderStatusSQL = `UPDATE orders SET status = $2, updated_at = now()
		WHERE id = $1`

	// Locking the cart row blocks new lines (their foreign key check takes a
	// KEY SHARE lock on it) until the checkout commits.
	lockCartSQL = `SELECT id FROM carts WHERE id = $1 FOR UPDATE`

	lockCartItemsSQL = `SELECT id, quantity FROM cart_items WHERE cart_id = $1 FOR UPDATE`

	deleteOrderedItemsSQL = `DELETE FROM cart_items WHERE cart_id = $1 AND id = ANY($2)`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool     *pgxpool.Pool
	products *ProductRepository
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool, products: NewProductRepository(pool)}
}

// Checkout locks the cart, verifies it still holds exactly the snapshot
// lines, then inserts the order and its items and deletes those lines, all
// in one transaction.
func (r *OrderRepository) Checkout(ctx context.Context, o *order.Order, snapshot *cart.Cart) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := lockCart(ctx, tx, snapshot); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, createOrderSQL,
			o.ID, o.UserID, o.OrderNumber, o.TrackingID, o.TotalAmount,
			o.Address, o.Shipping, string(o.Status), o.CreatedAt, o.UpdatedAt,
		); err != nil {
			return errors.Wrapf(err, "insert order %q", o.ID)
		}

		batch := &pgx.Batch{}
		for _, it := range o.Items {
			batch.Queue(createOrderItemSQL, it.ID, o.ID, it.ProductID, it.Quantity, it.Price)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return errors.Wrap(err, "insert order items")
		}

		ids := make([]string, len(snapshot.Items))
		for i, it := range snapshot.Items {
			ids[i] = it.ID
		}
		if _, err := tx.Exec(ctx, deleteOrderedItemsSQL, snapshot.ID, ids); err != nil {
			return errors.Wrapf(err, "clear cart %q", snapshot.ID)
		}
		if _, err := tx.Exec(ctx, touchCartSQL, snapshot.ID); err != nil {
			return errors.Wrap(err, "touch cart")
		}
		return nil
	})
}

// lockCart takes the cart and line locks and compares the current lines with
// the snapshot the order was priced from.
func lockCart(ctx context.Context, tx pgx.Tx, snapshot *cart.Cart) error {
	var id string
	if err := tx.QueryRow(ctx, lockCartSQL, snapshot.ID).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return order.ErrEmptyCart
		}
		return errors.Wrapf(err, "lock cart %q", snapshot.ID)
	}

	rows, err := tx.Query(ctx, lockCartItemsSQL, snapshot.ID)
	if err != nil {
		return errors.Wrap(err, "lock cart items")
	}
	type line struct {
		ID       string
		Quantity int
	}
	current, err := pgx.CollectRows(rows, pgx.RowToStructByPos[line])
	if err != nil {
		return errors.Wrap(err, "scan cart items")
	}
	if len(current) == 0 {
		return order.ErrEmptyCart
	}
	if len(current) != len(snapshot.Items) {
		return order.ErrCartChanged
	}
	want := make(map[string]int, len(snapshot.Items))
	for _, it := range snapshot.Items {
		want[it.ID] = it.Quantity
	}
	for _, l := range current {
		if q, ok := want[l.ID]; !ok || q != l.Quantity {
			return order.ErrCartChanged
		}
	}
	return nil
}

// GetByID returns the order with its items and their products. Items whose
// product was deleted keep a nil Product.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get order %q", id)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get order %q", id)
	}

	orders := []order.Order{o}
	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	o = orders[0]

	ids := make([]string, len(o.Items))
	for i, it := range o.Items {
		ids[i] = it.ProductID
	}
	products, err := r.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "load order products")
	}
	for i := range products {
		for j := range o.Items {
			if o.Items[j].ProductID == products[i].ID {
				o.Items[j].Product = &products[i]
			}
		}
	}
	return &o, nil
}

// ListByUser returns the user's orders newest first with items but without
// products.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]order.Order, error) {
	return r.list(ctx, listUserOrdersSQL, userID)
}

// ListAll returns every order newest first with items but without products.
func (r *OrderRepository) ListAll(ctx context.Context) ([]order.Order, error) {
	return r.list(ctx, listAllOrdersSQL)
}

func (r *OrderRepository) list(ctx context.Context, sql string, args ...any) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, errors.Wrap(err, "scan orders")
	}
	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateStatus sets the status of an order and returns the updated order.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status order.Status) (*order.Order, error) {
	tag, err := r.pool.Exec(ctx, updateOrderStatusSQL, id, string(status))
	if err != nil {
		return nil, errors.Wrapf(err, "update status of order %q", id)
	}
	if tag.RowsAffected() == 0 {
		return nil, order.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *OrderRepository) attachItems(ctx context.Context, orders []order.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]string, len(orders))
	index := make(map[string]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		index[o.ID] = i
	}

	rows, err := r.pool.Query(ctx, listOrderItemsSQL, ids)
	if err != nil {
		return errors.Wrap(err, "list order items")
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (order.Item, error) {
		var it order.Item
		err := row.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.Price)
		return it, err
	})
	if err != nil {
		return errors.Wrap(err, "scan order items")
	}
	for _, it := range items {
		i := index[it.OrderID]
		orders[i].Items = append(orders[i].Items, it)
	}
	return nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o      order.Order
		status string
	)
	err := row.Scan(
		&o.ID, &o.UserID, &o.OrderNumber, &o.TrackingID, &o.TotalAmount,
		&o.Address, &o.Shipping, &status, &o.CreatedAt, &o.UpdatedAt,
	)
	o.Status = order.Status(status)
	return o, err
}
