package address

import (
	"context"
	"strings"
	"time"

	"github.com/xenking/fzokart/internal/domain/apperr"
)

var (
	// ErrNotFound is returned when the address does not exist or belongs to
	// another user.
	ErrNotFound = apperr.NotFound("Address not found")
	// ErrMissingFields is returned when a mandatory field is empty.
	ErrMissingFields = apperr.BadRequest("Please provide all mandatory fields")
	// ErrInvalidType is returned for an unknown address type.
	ErrInvalidType = apperr.BadRequest("Invalid address type")
)

// Type classifies an address.
type Type string

const (
	TypeHome  Type = "HOME"
	TypeWork  Type = "WORK"
	TypeOther Type = "OTHER"
)

// DefaultCountry is used when an address omits the country.
const DefaultCountry = "India"

// ParseType normalizes s into a Type. An empty string yields TypeHome.
func ParseType(s string) (Type, error) {
	switch t := Type(strings.ToUpper(strings.TrimSpace(s))); t {
	case "":
		return TypeHome, nil
	case TypeHome, TypeWork, TypeOther:
		return t, nil
	default:
		return "", ErrInvalidType
	}
}

// Address is a shipping address owned by a user.
type Address struct {
	ID           string
	UserID       string
	FullName     string
	Phone        string
	Street       string
	AddressLine2 string
	City         string
	State        string
	Pincode      string
	Country      string
	Type         Type
	IsDefault    bool
	CreatedAt    time.Time
}

func (a *Address) validate() error {
	for _, v := range []string{a.FullName, a.Phone, a.Street, a.City, a.State, a.Pincode} {
		if strings.TrimSpace(v) == "" {
			return ErrMissingFields
		}
	}
	return nil
}

// Patch carries the fields of a partial address update.
type Patch struct {
	FullName     *string
	Phone        *string
	Street       *string
	AddressLine2 *string
	City         *string
	State        *string
	Pincode      *string
	Country      *string
	Type         *string
	IsDefault    *bool
}

// Repository defines persistence operations for addresses. All lookups are
// scoped to the owning user.
type Repository interface {
	// Create inserts a. When a.IsDefault is set, the user's other addresses
	// are unmarked in the same transaction.
	Create(ctx context.Context, a *Address) error
	List(ctx context.Context, userID string) ([]Address, error)
	Get(ctx context.Context, userID, id string) (*Address, error)
	// Update persists a. Default handling matches Create.
	Update(ctx context.Context, a *Address) error
	Delete(ctx context.Context, userID, id string) error
}
