package review

import (
	"context"
	"time"

	"github.com/xenking/fzokart/internal/domain/apperr"
)

var (
	// ErrAlreadyReviewed is returned when the user already reviewed the product.
	ErrAlreadyReviewed = apperr.BadRequest("You have already reviewed this product")
	// ErrInvalidRating is returned for ratings outside 1..5.
	ErrInvalidRating = apperr.BadRequest("Rating must be between 1 and 5")
	// ErrMissingComment is returned when the comment is blank.
	ErrMissingComment = apperr.BadRequest("Please provide a comment")
	// ErrMissingProduct is returned when no product id is given.
	ErrMissingProduct = apperr.BadRequest("Please provide a product")
	// ErrNotFound is returned when a review does not exist.
	ErrNotFound = apperr.NotFound("Review not found")
	// ErrNotOwner is returned when someone other than the author (or, for
	// deletion, an admin) changes a review.
	ErrNotOwner = apperr.Forbidden("You are not allowed to change this review")
)

const (
	MinRating = 1
	MaxRating = 5
)

// Review is a user's rating and comment for a product. A user holds at most
// one review per product.
type Review struct {
	ID           string
	UserID       string
	ProductID    string
	Rating       int
	Comment      string
	CreatedAt    time.Time
	AuthorName   string
	ProductTitle string
}

// Repository defines persistence operations for reviews.
type Repository interface {
	Exists(ctx context.Context, userID, productID string) (bool, error)
	// Create inserts r. Returns ErrAlreadyReviewed on a (user, product)
	// uniqueness violation.
	Create(ctx context.Context, r *Review) error
	// Ratings returns every rating recorded for the product.
	Ratings(ctx context.Context, productID string) ([]int, error)
	// ListByProduct returns the product's reviews newest first with author
	// names.
	ListByProduct(ctx context.Context, productID string) ([]Review, error)
	// GetByID returns a review with author name and product title, or
	// ErrNotFound.
	GetByID(ctx context.Context, id string) (*Review, error)
	// Update stores the rating and comment of r.
	Update(ctx context.Context, r *Review) error
	// Delete removes a review. Returns ErrNotFound when it does not exist.
	Delete(ctx context.Context, id string) error
}
