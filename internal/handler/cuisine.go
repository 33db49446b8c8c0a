package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-ratings/internal/repository"
)

// CuisineHandler serves the cuisine reference collection.
type CuisineHandler struct {
	Cuisines *repository.CuisineRepo
}

func NewCuisineHandler(cr *repository.CuisineRepo) *CuisineHandler {
	return &CuisineHandler{Cuisines: cr}
}

type cuisineReq struct {
	Name string `json:"name" validate:"required"`
}

// List serves GET /v1/cuisines ordered by name.
func (h *CuisineHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	cuisines, err := h.Cuisines.ListAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list cuisines failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"cuisines": cuisines})
}

// Create serves POST /v1/cuisines.  Posting an existing name (any case)
// returns the existing row rather than a duplicate.
func (h *CuisineHandler) Create(c echo.Context) error {
	var req cuisineReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	cu, err := h.Cuisines.CreateIfAbsent(ctx, req.Name)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create cuisine failed"})
	}
	return c.JSON(http.StatusCreated, cu)
}
