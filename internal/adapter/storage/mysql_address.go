package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/freshmandi/grocery/internal/core/domain"
)

// MySQLAddressStore reads the address store owned by the user-profile
// surface. Ownership is enforced in the query, not in the caller.
type MySQLAddressStore struct {
	db *sql.DB
}

func NewMySQLAddressStore(db *sql.DB) *MySQLAddressStore {
	return &MySQLAddressStore{db: db}
}

const addressColumns = `id, user_id, complete_address, landmark, city, state, pincode, nickname, is_default`

func (s *MySQLAddressStore) GetByID(ctx context.Context, id, userID string) (*domain.Address, error) {
	var a domain.Address
	err := s.db.QueryRowContext(ctx,
		`SELECT `+addressColumns+` FROM addresses WHERE id = ? AND user_id = ?`, id, userID,
	).Scan(&a.ID, &a.UserID, &a.CompleteAddress, &a.Landmark, &a.City, &a.State,
		&a.Pincode, &a.Nickname, &a.IsDefault)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query address: %w", err)
	}
	return &a, nil
}

func (s *MySQLAddressStore) GetDefault(ctx context.Context, userID string) (*domain.Address, error) {
	var a domain.Address
	err := s.db.QueryRowContext(ctx,
		`SELECT `+addressColumns+` FROM addresses WHERE user_id = ? AND is_default = 1 LIMIT 1`, userID,
	).Scan(&a.ID, &a.UserID, &a.CompleteAddress, &a.Landmark, &a.City, &a.State,
		&a.Pincode, &a.Nickname, &a.IsDefault)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query default address: %w", err)
	}
	return &a, nil
}
