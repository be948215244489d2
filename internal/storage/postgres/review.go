package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/fzokart/internal/domain/review"
)

const (
	reviewExistsSQL = `SELECT EXISTS (SELECT 1 FROM reviews WHERE user_id = $1 AND product_id = $2)`

	createReviewSQL = `INSERT INTO reviews (id, user_id, product_id, rating, comment)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, (SELECT name FROM users WHERE id = $2)`

	listRatingsSQL = `SELECT rating FROM reviews WHERE product_id = $1`

	listProductReviewsSQL = `SELECT r.id, r.user_id, r.product_id, r.rating, r.comment, r.created_at, u.name
		FROM reviews r
		JOIN users u ON u.id = r.user_id
		WHERE r.product_id = $1
		ORDER BY r.created_at DESC, r.id`

	getReviewSQL = `SELECT r.id, r.user_id, r.product_id, r.rating, r.comment, r.created_at, u.name, p.title
		FROM reviews r
		JOIN users u ON u.id = r.user_id
		JOIN products p ON p.id = r.product_id
		WHERE r.id = $1`

	updateReviewSQL = `UPDATE reviews SET rating = $2, comment = $3 WHERE id = $1`

	deleteReviewSQL = `DELETE FROM reviews WHERE id = $1`
)

var _ review.Repository = (*ReviewRepository)(nil)

// ReviewRepository implements review.Repository backed by PostgreSQL.
type ReviewRepository struct {
	pool *pgxpool.Pool
}

// NewReviewRepository returns a ReviewRepository that uses the given pool.
func NewReviewRepository(pool *pgxpool.Pool) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

// Exists reports whether the user already reviewed the product.
func (r *ReviewRepository) Exists(ctx context.Context, userID, productID string) (bool, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx, reviewExistsSQL, userID, productID).Scan(&exists); err != nil {
		return false, errors.Wrap(err, "check review")
	}
	return exists, nil
}

// Create inserts a review. The (user, product) unique constraint surfaces
// as review.ErrAlreadyReviewed.
func (r *ReviewRepository) Create(ctx context.Context, rv *review.Review) error {
	err := r.pool.QueryRow(ctx, createReviewSQL,
		rv.ID, rv.UserID, rv.ProductID, rv.Rating, rv.Comment,
	).Scan(&rv.CreatedAt, &rv.AuthorName)
	if err != nil {
		if isUniqueViolation(err, "reviews_user_product_key") {
			return review.ErrAlreadyReviewed
		}
		return errors.Wrap(err, "insert review")
	}
	return nil
}

// Ratings returns every rating recorded for the product.
func (r *ReviewRepository) Ratings(ctx context.Context, productID string) ([]int, error) {
	rows, err := r.pool.Query(ctx, listRatingsSQL, productID)
	if err != nil {
		return nil, errors.Wrap(err, "list ratings")
	}
	return pgx.CollectRows(rows, pgx.RowTo[int])
}

// ListByProduct returns the product's reviews newest first.
func (r *ReviewRepository) ListByProduct(ctx context.Context, productID string) ([]review.Review, error) {
	rows, err := r.pool.Query(ctx, listProductReviewsSQL, productID)
	if err != nil {
		return nil, errors.Wrap(err, "list reviews")
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (review.Review, error) {
		var rv review.Review
		err := row.Scan(&rv.ID, &rv.UserID, &rv.ProductID, &rv.Rating, &rv.Comment, &rv.CreatedAt, &rv.AuthorName)
		return rv, err
	})
}

// GetByID returns the review with its author name and product title.
func (r *ReviewRepository) GetByID(ctx context.Context, id string) (*review.Review, error) {
	var rv review.Review
	err := r.pool.QueryRow(ctx, getReviewSQL, id).Scan(
		&rv.ID, &rv.UserID, &rv.ProductID, &rv.Rating, &rv.Comment, &rv.CreatedAt, &rv.AuthorName, &rv.ProductTitle,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, review.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get review %q", id)
	}
	return &rv, nil
}

// Update stores the rating and comment.
func (r *ReviewRepository) Update(ctx context.Context, rv *review.Review) error {
	tag, err := r.pool.Exec(ctx, updateReviewSQL, rv.ID, rv.Rating, rv.Comment)
	if err != nil {
		return errors.Wrap(err, "update review")
	}
	if tag.RowsAffected() == 0 {
		return review.ErrNotFound
	}
	return nil
}

// Delete removes the review.
func (r *ReviewRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteReviewSQL, id)
	if err != nil {
		return errors.Wrap(err, "delete review")
	}
	if tag.RowsAffected() == 0 {
		return review.ErrNotFound
	}
	return nil
}
