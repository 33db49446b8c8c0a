// Package handler defines the HTTP handlers of the rating service.
package handler

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"
)

// getAccountID extracts the authenticated account id from echo.Context and
// converts it to uint64.  The JWT middleware stores the raw "sub" claim,
// whose concrete type depends on how the token was encoded.
func getAccountID(c echo.Context) (uint64, error) {
	v := c.Get("account_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid account_id in context")
}

// pathID parses the :id route parameter (or another named parameter) into
// a uint64.  Zero ids are rejected along with unparseable ones.
func pathID(c echo.Context, name string) (uint64, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return n, true
}
