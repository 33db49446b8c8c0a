package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/restaurant-ratings/internal/model"
)

// ErrRatingNotFound is returned when a rating cannot be found.
var ErrRatingNotFound = errors.New("rating not found")

// RatingRepo encapsulates database queries for the ratings table.  Selects
// LEFT JOIN users so each row carries the rater's display name, which the
// views render next to the stars.
type RatingRepo struct {
	db *sql.DB
}

// NewRatingRepo constructs a RatingRepo with the provided DB handle.
func NewRatingRepo(db *sql.DB) *RatingRepo {
	return &RatingRepo{db: db}
}

const ratingColumns = `rt.id, rt.dish_id, rt.user_id, rt.value, rt.comments, rt.date_rated, u.name`

// dateLayout is how date_rated travels through the API.
const dateLayout = "2006-01-02"

// scanRating reads one joined row.  date_rated is a DATE column the driver
// hands back as time.Time (parseTime=true), re-formatted here to the plain
// YYYY-MM-DD the views and the aggregation engine work with.
func scanRating(scan func(dest ...any) error, rt *model.Rating) error {
	var date sql.NullTime
	if err := scan(&rt.ID, &rt.DishID, &rt.UserID, &rt.Value, &rt.Comments, &date, &rt.UserName); err != nil {
		return err
	}
	if date.Valid {
		s := date.Time.Format(dateLayout)
		rt.DateRated = &s
	}
	return nil
}

// Create inserts a rating row and populates the generated id plus the
// joined rater name.  Nullable fields go in as-is; a row may legitimately
// hold nothing but its dish reference.
func (r *RatingRepo) Create(ctx context.Context, rt *model.Rating) error {
	const qInsert = `INSERT INTO ratings (dish_id, user_id, value, comments, date_rated)
	                 VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, qInsert, rt.DishID, rt.UserID, rt.Value, rt.Comments, rt.DateRated)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rt.ID = uint64(id)

	got, err := r.GetByID(ctx, rt.ID)
	if err != nil {
		return err
	}
	*rt = *got
	return nil
}

// GetByID fetches one rating with the rater name joined in.
func (r *RatingRepo) GetByID(ctx context.Context, id uint64) (*model.Rating, error) {
	q := "SELECT " + ratingColumns + " FROM ratings rt LEFT JOIN users u ON u.id = rt.user_id WHERE rt.id = ?"
	var rt model.Rating
	row := r.db.QueryRowContext(ctx, q, id)
	if err := scanRating(row.Scan, &rt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRatingNotFound
		}
		return nil, err
	}
	return &rt, nil
}

// ListByDish returns all ratings of one dish, oldest first.
func (r *RatingRepo) ListByDish(ctx context.Context, dishID uint64) ([]model.Rating, error) {
	q := "SELECT " + ratingColumns + ` FROM ratings rt
	      LEFT JOIN users u ON u.id = rt.user_id
	      WHERE rt.dish_id = ? ORDER BY rt.id`
	return r.list(ctx, q, dishID)
}

// ListAll returns every rating with rater names; the listing views compute
// aggregates over the full set in memory.
func (r *RatingRepo) ListAll(ctx context.Context) ([]model.Rating, error) {
	q := "SELECT " + ratingColumns + " FROM ratings rt LEFT JOIN users u ON u.id = rt.user_id ORDER BY rt.id"
	return r.list(ctx, q)
}

func (r *RatingRepo) list(ctx context.Context, q string, args ...any) ([]model.Rating, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Rating
	for rows.Next() {
		var rt model.Rating
		if err := scanRating(rows.Scan, &rt); err != nil {
			return nil, err
		}
		out = append(out, rt)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update replaces the editable fields of a rating in place.  It returns
// ErrRatingNotFound when no row matches; a no-op update of identical
// values still counts as found because MySQL reports the matched row.
func (r *RatingRepo) Update(ctx context.Context, rt *model.Rating) error {
	const q = `UPDATE ratings
	           SET user_id = ?, value = ?, comments = ?, date_rated = ?
	           WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, rt.UserID, rt.Value, rt.Comments, rt.DateRated, rt.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// RowsAffected is 0 both for a missing row and for an unchanged one;
		// only the former is an error.
		if _, gerr := r.GetByID(ctx, rt.ID); gerr != nil {
			return gerr
		}
	}
	return nil
}

// Delete removes one rating row.
func (r *RatingRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM ratings WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrRatingNotFound
	}
	return nil
}
