package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/fzokart/internal/domain/address"
)

const (
	addressColumns = `id, user_id, full_name, phone, street, address_line2, city, state,
		pincode, country, type, is_default, created_at`

	createAddressSQL = `INSERT INTO addresses
		(id, user_id, full_name, phone, street, address_line2, city, state, pincode, country, type, is_default)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at`

	listAddressesSQL = `SELECT ` + addressColumns + ` FROM addresses
		WHERE user_id = $1 ORDER BY is_default DESC, created_at DESC`

	getAddressSQL = `SELECT ` + addressColumns + ` FROM addresses WHERE user_id = $1 AND id = $2`

	updateAddressSQL = `UPDATE addresses SET
		full_name = $3, phone = $4, street = $5, address_line2 = $6, city = $7,
		state = $8, pincode = $9, country = $10, type = $11, is_default = $12
		WHERE user_id = $1 AND id = $2`

	deleteAddressSQL = `DELETE FROM addresses WHERE user_id = $1 AND id = $2`

	unsetDefaultAddressSQL = `UPDATE addresses SET is_default = FALSE
		WHERE user_id = $1 AND id <> $2 AND is_default`
)

var _ address.Repository = (*AddressRepository)(nil)

// AddressRepository implements address.Repository backed by PostgreSQL.
type AddressRepository struct {
	pool *pgxpool.Pool
}

// NewAddressRepository returns an AddressRepository that uses the given pool.
func NewAddressRepository(pool *pgxpool.Pool) *AddressRepository {
	return &AddressRepository{pool: pool}
}

// Create inserts an address, unmarking the user's other defaults when it is
// the new default.
func (r *AddressRepository) Create(ctx context.Context, a *address.Address) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := unsetDefault(ctx, tx, a); err != nil {
			return err
		}
		err := tx.QueryRow(ctx, createAddressSQL,
			a.ID, a.UserID, a.FullName, a.Phone, a.Street, a.AddressLine2,
			a.City, a.State, a.Pincode, a.Country, string(a.Type), a.IsDefault,
		).Scan(&a.CreatedAt)
		if err != nil {
			return errors.Wrap(err, "insert address")
		}
		return nil
	})
}

// List returns the user's addresses, default first.
func (r *AddressRepository) List(ctx context.Context, userID string) ([]address.Address, error) {
	rows, err := r.pool.Query(ctx, listAddressesSQL, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list addresses")
	}
	return pgx.CollectRows(rows, scanAddress)
}

// Get returns one of the user's addresses.
func (r *AddressRepository) Get(ctx context.Context, userID, id string) (*address.Address, error) {
	rows, err := r.pool.Query(ctx, getAddressSQL, userID, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get address %q", id)
	}
	a, err := pgx.CollectExactlyOneRow(rows, scanAddress)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, address.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get address %q", id)
	}
	return &a, nil
}

// Update overwrites an address, unmarking the user's other defaults when it
// becomes the default.
func (r *AddressRepository) Update(ctx context.Context, a *address.Address) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := unsetDefault(ctx, tx, a); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, updateAddressSQL,
			a.UserID, a.ID, a.FullName, a.Phone, a.Street, a.AddressLine2,
			a.City, a.State, a.Pincode, a.Country, string(a.Type), a.IsDefault,
		)
		if err != nil {
			return errors.Wrapf(err, "update address %q", a.ID)
		}
		if tag.RowsAffected() == 0 {
			return address.ErrNotFound
		}
		return nil
	})
}

// Delete removes one of the user's addresses.
func (r *AddressRepository) Delete(ctx context.Context, userID, id string) error {
	tag, err := r.pool.Exec(ctx, deleteAddressSQL, userID, id)
	if err != nil {
		return errors.Wrapf(err, "delete address %q", id)
	}
	if tag.RowsAffected() == 0 {
		return address.ErrNotFound
	}
	return nil
}

func unsetDefault(ctx context.Context, tx pgx.Tx, a *address.Address) error {
	if !a.IsDefault {
		return nil
	}
	if _, err := tx.Exec(ctx, unsetDefaultAddressSQL, a.UserID, a.ID); err != nil {
		return errors.Wrap(err, "unset default address")
	}
	return nil
}

func scanAddress(row pgx.CollectableRow) (address.Address, error) {
	var (
		a   address.Address
		typ string
	)
	err := row.Scan(
		&a.ID, &a.UserID, &a.FullName, &a.Phone, &a.Street, &a.AddressLine2,
		&a.City, &a.State, &a.Pincode, &a.Country, &typ, &a.IsDefault, &a.CreatedAt,
	)
	a.Type = address.Type(typ)
	return a, err
}
