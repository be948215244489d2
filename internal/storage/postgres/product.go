package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/fzokart/internal/domain/product"
)

const (
	productColumns = `id, title, slug, description, price, stock, brand, category,
		images, thumbnail, rating, num_reviews, is_active, created_at`

	// COUNT(*) OVER () yields the unpaginated total alongside each row.
	listProductsSQL = `SELECT ` + productColumns + `, COUNT(*) OVER () AS total
		FROM products
		WHERE is_active
			AND ($1::text = '' OR category = $1)
			AND ($2::text = '' OR title ILIKE '%' || $2 || '%' OR brand ILIKE '%' || $2 || '%')
		ORDER BY created_at DESC, id
		LIMIT $3 OFFSET $4`

	getProductByIDSQL   = `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	getProductBySlugSQL = `SELECT ` + productColumns + ` FROM products WHERE slug = $1`
	getProductsByIDsSQL = `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1)`

	createProductSQL = `INSERT INTO products
		(id, title, slug, description, price, stock, brand, category, images, thumbnail, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at`

	updateProductSQL = `UPDATE products SET
		title = $2, description = $3, price = $4, stock = $5, brand = $6,
		category = $7, images = $8, thumbnail = $9, is_active = $10
		WHERE id = $1`

	deleteProductSQL = `DELETE FROM products WHERE id = $1`

	setProductRatingSQL = `UPDATE products SET rating = $2, num_reviews = $3 WHERE id = $1`

	// Bulk import keeps rating aggregates and creation time of existing rows.
	upsertProductSQL = `INSERT INTO products
		(id, title, slug, description, price, stock, brand, category, images, thumbnail, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title, slug = EXCLUDED.slug, description = EXCLUDED.description,
			price = EXCLUDED.price, stock = EXCLUDED.stock, brand = EXCLUDED.brand,
			category = EXCLUDED.category, images = EXCLUDED.images,
			thumbnail = EXCLUDED.thumbnail, is_active = EXCLUDED.is_active`
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns one page of active products, newest first, and the total
// number of matching products.
func (r *ProductRepository) List(ctx context.Context, f product.Filter) ([]product.Product, int, error) {
	rows, err := r.pool.Query(ctx, listProductsSQL, f.Category, f.Search, f.Limit, f.Offset())
	if err != nil {
		return nil, 0, errors.Wrap(err, "list products")
	}

	var total int
	products, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (product.Product, error) {
		var p product.Product
		err := row.Scan(append(productDest(&p), &total)...)
		return p, err
	})
	if err != nil {
		return nil, 0, errors.Wrap(err, "scan products")
	}
	return products, total, nil
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	return r.getOne(ctx, getProductByIDSQL, id)
}

// GetBySlug returns a single product by its slug.
func (r *ProductRepository) GetBySlug(ctx context.Context, slug string) (*product.Product, error) {
	return r.getOne(ctx, getProductBySlugSQL, slug)
}

// GetByIDs returns products matching any of the given IDs.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []string) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductsByIDsSQL, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products by ids")
	}
	return pgx.CollectRows(rows, scanProduct)
}

// Create inserts a product.
func (r *ProductRepository) Create(ctx context.Context, p *product.Product) error {
	err := r.pool.QueryRow(ctx, createProductSQL, productArgs(p)...).Scan(&p.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "products_slug_key") {
			return product.ErrSlugTaken
		}
		return errors.Wrapf(err, "insert product %q", p.ID)
	}
	return nil
}

// Upsert inserts a product or overwrites the catalog fields of an existing
// one with the same id.
func (r *ProductRepository) Upsert(ctx context.Context, p *product.Product) error {
	if _, err := r.pool.Exec(ctx, upsertProductSQL, productArgs(p)...); err != nil {
		if isUniqueViolation(err, "products_slug_key") {
			return product.ErrSlugTaken
		}
		return errors.Wrapf(err, "upsert product %q", p.ID)
	}
	return nil
}

// Update overwrites the editable fields of a product.
func (r *ProductRepository) Update(ctx context.Context, p *product.Product) error {
	tag, err := r.pool.Exec(ctx, updateProductSQL,
		p.ID, p.Title, p.Description, p.Price, p.Stock, p.Brand,
		p.Category, p.Images, p.Thumbnail, p.IsActive,
	)
	if err != nil {
		return errors.Wrapf(err, "update product %q", p.ID)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

// Delete removes a product.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteProductSQL, id)
	if err != nil {
		return errors.Wrapf(err, "delete product %q", id)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

// SetRating stores the aggregate rating and review count of a product.
func (r *ProductRepository) SetRating(ctx context.Context, id string, rating float64, numReviews int) error {
	tag, err := r.pool.Exec(ctx, setProductRatingSQL, id, rating, numReviews)
	if err != nil {
		return errors.Wrapf(err, "set rating of product %q", id)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

func (r *ProductRepository) getOne(ctx context.Context, sql string, arg string) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, sql, arg)
	if err != nil {
		return nil, errors.Wrapf(err, "get product %q", arg)
	}
	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get product %q", arg)
	}
	return &p, nil
}

func productArgs(p *product.Product) []any {
	images := p.Images
	if images == nil {
		images = []string{}
	}
	return []any{
		p.ID, p.Title, p.Slug, p.Description, p.Price, p.Stock,
		p.Brand, p.Category, images, p.Thumbnail, p.IsActive,
	}
}

func productDest(p *product.Product) []any {
	return []any{
		&p.ID, &p.Title, &p.Slug, &p.Description, &p.Price, &p.Stock, &p.Brand, &p.Category,
		&p.Images, &p.Thumbnail, &p.Rating, &p.NumReviews, &p.IsActive, &p.CreatedAt,
	}
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var p product.Product
	err := row.Scan(productDest(&p)...)
	return p, err
}
