package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/restaurant-ratings/internal/model"
)

// ErrRestaurantNotFound is returned when a restaurant cannot be found.
var ErrRestaurantNotFound = errors.New("restaurant not found")

// RestaurantRepo encapsulates all database queries related to restaurants.
type RestaurantRepo struct {
	db *sql.DB
}

// NewRestaurantRepo constructs a RestaurantRepo with the provided DB handle.
func NewRestaurantRepo(db *sql.DB) *RestaurantRepo {
	return &RestaurantRepo{db: db}
}

// Create inserts a new restaurant.  On success the ID, CreatedAt and
// UpdatedAt fields are populated from the stored row so callers receive a
// complete record, mirroring an insert-returning select.
func (r *RestaurantRepo) Create(ctx context.Context, rest *model.Restaurant) error {
	const qInsert = "INSERT INTO restaurants (name, location, cuisine_id) VALUES (?, ?, ?)"
	res, err := r.db.ExecContext(ctx, qInsert, rest.Name, rest.Location, rest.CuisineID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rest.ID = uint64(id)

	const qSelect = "SELECT created_at, updated_at FROM restaurants WHERE id = ?"
	return r.db.QueryRowContext(ctx, qSelect, rest.ID).Scan(&rest.CreatedAt, &rest.UpdatedAt)
}

// GetByID fetches a restaurant by its ID.  It returns ErrRestaurantNotFound
// when no row exists.
func (r *RestaurantRepo) GetByID(ctx context.Context, id uint64) (*model.Restaurant, error) {
	const q = "SELECT id, name, location, cuisine_id, created_at, updated_at FROM restaurants WHERE id = ?"
	var rest model.Restaurant
	if err := r.db.QueryRowContext(ctx, q, id).Scan(
		&rest.ID, &rest.Name, &rest.Location, &rest.CuisineID, &rest.CreatedAt, &rest.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRestaurantNotFound
		}
		return nil, err
	}
	return &rest, nil
}

// ListAll returns every restaurant ordered by id.  The main page fetches
// the collection wholesale and filters/sorts in memory.
func (r *RestaurantRepo) ListAll(ctx context.Context) ([]model.Restaurant, error) {
	const q = "SELECT id, name, location, cuisine_id, created_at, updated_at FROM restaurants ORDER BY id"
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Restaurant
	for rows.Next() {
		var rest model.Restaurant
		if err := rows.Scan(&rest.ID, &rest.Name, &rest.Location, &rest.CuisineID,
			&rest.CreatedAt, &rest.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, rest)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update replaces the editable fields of a restaurant.  It returns
// ErrRestaurantNotFound when no row was affected.
func (r *RestaurantRepo) Update(ctx context.Context, rest *model.Restaurant) error {
	const q = `UPDATE restaurants
	           SET name = ?, location = ?, cuisine_id = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, rest.Name, rest.Location, rest.CuisineID, rest.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrRestaurantNotFound
	}
	return nil
}

// DeleteCascade removes a restaurant together with all dishes referencing
// it and all ratings referencing those dishes.  The store does not cascade
// on its own; the application enforces referential cleanup inside one
// transaction so a failure leaves everything in place.
func (r *RestaurantRepo) DeleteCascade(ctx context.Context, id uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			_ = tx.Commit()
		}
	}()

	// Verify the restaurant exists before deleting anything.
	var exists uint64
	if err = tx.QueryRowContext(ctx, "SELECT id FROM restaurants WHERE id = ?", id).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrRestaurantNotFound
		}
		return err
	}
	// Ratings of the restaurant's dishes go first.
	if _, err = tx.ExecContext(ctx,
		`DELETE rt FROM ratings rt
		 JOIN dishes d ON d.id = rt.dish_id
		 WHERE d.restaurant_id = ?`, id); err != nil {
		return err
	}
	// Then the dishes themselves.
	if _, err = tx.ExecContext(ctx, "DELETE FROM dishes WHERE restaurant_id = ?", id); err != nil {
		return err
	}
	// Finally the restaurant.
	if _, err = tx.ExecContext(ctx, "DELETE FROM restaurants WHERE id = ?", id); err != nil {
		return err
	}
	return nil
}
