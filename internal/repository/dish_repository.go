package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/restaurant-ratings/internal/model"
)

// ErrDishNotFound is returned when a dish cannot be found.
var ErrDishNotFound = errors.New("dish not found")

// DishRepo encapsulates database queries for the dishes table.
type DishRepo struct {
	db *sql.DB
}

// NewDishRepo constructs a DishRepo with the provided DB handle.
func NewDishRepo(db *sql.DB) *DishRepo {
	return &DishRepo{db: db}
}

// Create inserts a dish and populates its generated fields.  The "add
// dish" flow calls this with empty name and comments to persist the blank
// placeholder the form then edits in place.
func (r *DishRepo) Create(ctx context.Context, d *model.Dish) error {
	const qInsert = "INSERT INTO dishes (restaurant_id, name, comments) VALUES (?, ?, ?)"
	res, err := r.db.ExecContext(ctx, qInsert, d.RestaurantID, d.Name, d.Comments)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	d.ID = uint64(id)

	const qSelect = "SELECT created_at, updated_at FROM dishes WHERE id = ?"
	return r.db.QueryRowContext(ctx, qSelect, d.ID).Scan(&d.CreatedAt, &d.UpdatedAt)
}

// GetByID fetches a dish by id, returning ErrDishNotFound when absent.
func (r *DishRepo) GetByID(ctx context.Context, id uint64) (*model.Dish, error) {
	const q = "SELECT id, restaurant_id, name, comments, image_url, created_at, updated_at FROM dishes WHERE id = ?"
	var d model.Dish
	if err := r.db.QueryRowContext(ctx, q, id).Scan(
		&d.ID, &d.RestaurantID, &d.Name, &d.Comments, &d.ImageURL, &d.CreatedAt, &d.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDishNotFound
		}
		return nil, err
	}
	return &d, nil
}

// ListByRestaurant returns all dishes of one restaurant ordered by id.
func (r *DishRepo) ListByRestaurant(ctx context.Context, restaurantID uint64) ([]model.Dish, error) {
	const q = `SELECT id, restaurant_id, name, comments, image_url, created_at, updated_at
	           FROM dishes WHERE restaurant_id = ? ORDER BY id`
	return r.list(ctx, q, restaurantID)
}

// ListAll returns every dish; the main page joins them with ratings in
// memory.
func (r *DishRepo) ListAll(ctx context.Context) ([]model.Dish, error) {
	const q = "SELECT id, restaurant_id, name, comments, image_url, created_at, updated_at FROM dishes ORDER BY id"
	return r.list(ctx, q)
}

func (r *DishRepo) list(ctx context.Context, q string, args ...any) ([]model.Dish, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Dish
	for rows.Next() {
		var d model.Dish
		if err := rows.Scan(&d.ID, &d.RestaurantID, &d.Name, &d.Comments, &d.ImageURL,
			&d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateName sets the dish name.  Form edits save field by field, so each
// field has its own update statement.
func (r *DishRepo) UpdateName(ctx context.Context, id uint64, name string) error {
	return r.updateField(ctx, "UPDATE dishes SET name = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?", name, id)
}

// UpdateComments sets the dish comments.
func (r *DishRepo) UpdateComments(ctx context.Context, id uint64, comments string) error {
	return r.updateField(ctx, "UPDATE dishes SET comments = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?", comments, id)
}

// UpdateImageURL sets or clears (nil) the dish image reference.
func (r *DishRepo) UpdateImageURL(ctx context.Context, id uint64, url *string) error {
	return r.updateField(ctx, "UPDATE dishes SET image_url = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?", url, id)
}

func (r *DishRepo) updateField(ctx context.Context, q string, value any, id uint64) error {
	res, err := r.db.ExecContext(ctx, q, value, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrDishNotFound
	}
	return nil
}

// DeleteCascade removes the dish's ratings and then the dish itself inside
// one transaction.
func (r *DishRepo) DeleteCascade(ctx context.Context, id uint64) error {
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

	var exists uint64
	if err = tx.QueryRowContext(ctx, "SELECT id FROM dishes WHERE id = ?", id).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrDishNotFound
		}
		return err
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM ratings WHERE dish_id = ?", id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM dishes WHERE id = ?", id); err != nil {
		return err
	}
	return nil
}
