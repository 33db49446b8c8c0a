package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/restaurant-ratings/internal/model"
)

// ErrCuisineNotFound is returned when a cuisine cannot be found.
var ErrCuisineNotFound = errors.New("cuisine not found")

// CuisineRepo encapsulates database queries for the cuisines table.
type CuisineRepo struct {
	db *sql.DB
}

// NewCuisineRepo constructs a CuisineRepo with the provided DB handle.
func NewCuisineRepo(db *sql.DB) *CuisineRepo {
	return &CuisineRepo{db: db}
}

// ListAll returns every cuisine ordered by name, the order the selection
// dropdowns present them in.
func (r *CuisineRepo) ListAll(ctx context.Context) ([]model.Cuisine, error) {
	const q = "SELECT id, name FROM cuisines ORDER BY name"
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Cuisine
	for rows.Next() {
		var c model.Cuisine
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID fetches a cuisine by id.
func (r *CuisineRepo) GetByID(ctx context.Context, id uint64) (*model.Cuisine, error) {
	const q = "SELECT id, name FROM cuisines WHERE id = ?"
	var c model.Cuisine
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&c.ID, &c.Name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCuisineNotFound
		}
		return nil, err
	}
	return &c, nil
}

// CreateIfAbsent returns the cuisine with the given name, inserting it
// first when no row matches.  Matching is case-insensitive so "thai" and
// "Thai" resolve to the same row.  The restaurant and dish forms use this
// to create cuisines ad hoc from a reference-selection field.
func (r *CuisineRepo) CreateIfAbsent(ctx context.Context, name string) (*model.Cuisine, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("cuisine name is empty")
	}

	if c, err := r.getByName(ctx, name); err == nil {
		return c, nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	res, err := r.db.ExecContext(ctx, "INSERT INTO cuisines (name) VALUES (?)", name)
	if err != nil {
		// A concurrent insert of the same name wins the race; fall back to it.
		if isDuplicate(err) {
			return r.getByName(ctx, name)
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &model.Cuisine{ID: uint64(id), Name: name}, nil
}

func (r *CuisineRepo) getByName(ctx context.Context, name string) (*model.Cuisine, error) {
	const q = "SELECT id, name FROM cuisines WHERE LOWER(name) = LOWER(?) LIMIT 1"
	var c model.Cuisine
	if err := r.db.QueryRowContext(ctx, q, name).Scan(&c.ID, &c.Name); err != nil {
		return nil, err
	}
	return &c, nil
}
