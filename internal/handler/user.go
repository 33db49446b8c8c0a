package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-ratings/internal/repository"
)

// UserHandler serves the rater roster the rating forms select from.
type UserHandler struct {
	Users *repository.UserRepo
}

func NewUserHandler(ur *repository.UserRepo) *UserHandler {
	return &UserHandler{Users: ur}
}

// List serves GET /v1/users.
func (h *UserHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	users, err := h.Users.ListAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list users failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"users": users})
}
