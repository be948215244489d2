package address

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

// Service manages a user's address book.
type Service struct {
	addresses Repository
}

// NewService creates an address Service.
func NewService(addresses Repository) *Service {
	return &Service{addresses: addresses}
}

// Add stores a new address for the user.
func (s *Service) Add(ctx context.Context, userID string, a *Address) (*Address, error) {
	if err := a.validate(); err != nil {
		return nil, err
	}
	t, err := ParseType(string(a.Type))
	if err != nil {
		return nil, err
	}
	a.Type = t
	if strings.TrimSpace(a.Country) == "" {
		a.Country = DefaultCountry
	}
	a.ID = uuid.New().String()
	a.UserID = userID

	if err := s.addresses.Create(ctx, a); err != nil {
		return nil, errors.Wrap(err, "create address")
	}
	return a, nil
}

// List returns the user's addresses, default first.
func (s *Service) List(ctx context.Context, userID string) ([]Address, error) {
	return s.addresses.List(ctx, userID)
}

// Get returns one of the user's addresses.
func (s *Service) Get(ctx context.Context, userID, id string) (*Address, error) {
	return s.addresses.Get(ctx, userID, id)
}

// Update applies a partial update to one of the user's addresses.
func (s *Service) Update(ctx context.Context, userID, id string, p Patch) (*Address, error) {
	a, err := s.addresses.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&a.FullName, p.FullName)
	set(&a.Phone, p.Phone)
	set(&a.Street, p.Street)
	set(&a.AddressLine2, p.AddressLine2)
	set(&a.City, p.City)
	set(&a.State, p.State)
	set(&a.Pincode, p.Pincode)
	set(&a.Country, p.Country)
	if p.Type != nil {
		t, err := ParseType(*p.Type)
		if err != nil {
			return nil, err
		}
		a.Type = t
	}
	if p.IsDefault != nil {
		a.IsDefault = *p.IsDefault
	}
	if err := a.validate(); err != nil {
		return nil, err
	}

	if err := s.addresses.Update(ctx, a); err != nil {
		return nil, errors.Wrap(err, "update address")
	}
	return a, nil
}

// Delete removes one of the user's addresses.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	return s.addresses.Delete(ctx, userID, id)
}
