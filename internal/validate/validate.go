// Package validate wires go-playground/validator into Echo so handlers can
// call c.Validate(&req) on bound request bodies.
package validate

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// CustomValidator adapts a validator.Validate to echo.Validator.
type CustomValidator struct {
	v *validator.Validate
}

// New returns a validator ready to register on an Echo instance.
func New() *CustomValidator {
	return &CustomValidator{v: validator.New()}
}

// Validate implements echo.Validator.  Struct tag violations come back as
// a 400 with the validator's message so the client sees which field failed.
func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.v.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
