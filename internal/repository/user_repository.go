package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/restaurant-ratings/internal/model"
)

// ErrUserNotFound is returned when a rater cannot be found.
var ErrUserNotFound = errors.New("user not found")

// UserRepo reads the users (raters) table.  The list is read-only from the
// application's perspective; there is no create/edit/delete flow.
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo constructs a UserRepo with the provided DB handle.
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

// ListAll returns every rater ordered by id.
func (r *UserRepo) ListAll(ctx context.Context) ([]model.User, error) {
	const q = "SELECT id, name FROM users ORDER BY id"
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Name); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID fetches one rater.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	const q = "SELECT id, name FROM users WHERE id = ?"
	var u model.User
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&u.ID, &u.Name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}
