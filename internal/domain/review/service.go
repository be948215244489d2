package review

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/xenking/fzokart/internal/domain/product"
)

// CreateRequest holds the input for creating a review.
type CreateRequest struct {
	ProductID string
	Rating    int
	Comment   string
}

// UpdateRequest holds the changes to a review. A zero Rating or a blank
// Comment keeps the stored value.
type UpdateRequest struct {
	Rating  int
	Comment string
}

// Service implements product reviews and rating aggregation.
type Service struct {
	reviews  Repository
	products product.Repository
}

// NewService creates a review Service.
func NewService(reviews Repository, products product.Repository) *Service {
	return &Service{reviews: reviews, products: products}
}

// CreateReview stores the user's review and refreshes the product rating.
func (s *Service) CreateReview(ctx context.Context, userID string, req CreateRequest) (*Review, error) {
	if req.ProductID == "" {
		return nil, ErrMissingProduct
	}
	if req.Rating < MinRating || req.Rating > MaxRating {
		return nil, ErrInvalidRating
	}
	comment := strings.TrimSpace(req.Comment)
	if comment == "" {
		return nil, ErrMissingComment
	}

	p, err := s.products.GetByID(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	exists, err := s.reviews.Exists(ctx, userID, req.ProductID)
	if err != nil {
		return nil, errors.Wrap(err, "check existing review")
	}
	if exists {
		return nil, ErrAlreadyReviewed
	}

	r := &Review{
		ID:           uuid.New().String(),
		UserID:       userID,
		ProductID:    req.ProductID,
		Rating:       req.Rating,
		Comment:      comment,
		ProductTitle: p.Title,
	}
	if err := s.reviews.Create(ctx, r); err != nil {
		if errors.Is(err, ErrAlreadyReviewed) {
			return nil, ErrAlreadyReviewed
		}
		return nil, errors.Wrap(err, "create review")
	}

	if err := s.UpdateProductRating(ctx, req.ProductID); err != nil {
		return nil, err
	}
	return r, nil
}

// UpdateProductRating recomputes the product's rating as the mean of all its
// review ratings, or zero when it has none, and stores the review count.
func (s *Service) UpdateProductRating(ctx context.Context, productID string) error {
	ratings, err := s.reviews.Ratings(ctx, productID)
	if err != nil {
		return errors.Wrap(err, "load ratings")
	}
	if err := s.products.SetRating(ctx, productID, Mean(ratings), len(ratings)); err != nil {
		return errors.Wrap(err, "set rating")
	}
	return nil
}

// UpdateReview changes the author's own review and refreshes the product
// rating.
func (s *Service) UpdateReview(ctx context.Context, userID, reviewID string, req UpdateRequest) (*Review, error) {
	if req.Rating != 0 && (req.Rating < MinRating || req.Rating > MaxRating) {
		return nil, ErrInvalidRating
	}

	r, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if r.UserID != userID {
		return nil, ErrNotOwner
	}

	if req.Rating != 0 {
		r.Rating = req.Rating
	}
	if comment := strings.TrimSpace(req.Comment); comment != "" {
		r.Comment = comment
	}
	if err := s.reviews.Update(ctx, r); err != nil {
		return nil, errors.Wrapf(err, "update review %s", reviewID)
	}

	if err := s.UpdateProductRating(ctx, r.ProductID); err != nil {
		return nil, err
	}
	return r, nil
}

// DeleteReview removes a review written by userID, or any review when
// isAdmin is set, and refreshes the product rating.
func (s *Service) DeleteReview(ctx context.Context, userID string, isAdmin bool, reviewID string) error {
	r, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		return err
	}
	if r.UserID != userID && !isAdmin {
		return ErrNotOwner
	}
	if err := s.reviews.Delete(ctx, reviewID); err != nil {
		return err
	}
	return s.UpdateProductRating(ctx, r.ProductID)
}

// ListProductReviews returns the product's reviews, newest first.
func (s *Service) ListProductReviews(ctx context.Context, productID string) ([]Review, error) {
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return nil, err
	}
	return s.reviews.ListByProduct(ctx, productID)
}

// Mean returns the arithmetic mean of ratings, or 0 for none.
func Mean(ratings []int) float64 {
	if len(ratings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	return float64(sum) / float64(len(ratings))
}
