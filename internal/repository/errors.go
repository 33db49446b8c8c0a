// Package repository contains data access logic separated from HTTP
// handlers.  Each repository wraps a *sql.DB and exposes CRUD methods for
// one table.  Sentinel errors defined here and next to each repository let
// handlers map failures to HTTP statuses without string matching.
package repository

import (
	"errors"
	"strings"
)

// ErrConflict is returned when an insert or update collides with existing
// state, such as a duplicate cuisine name.  Handlers should translate this
// into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// isDuplicate reports whether err is a MySQL duplicate-key violation
// (error 1062).
func isDuplicate(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1062")
}
