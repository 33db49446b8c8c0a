package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-ratings/internal/model"
	"github.com/iliyamo/restaurant-ratings/internal/repository"
	"github.com/iliyamo/restaurant-ratings/internal/service"
)

// RatingHandler serves the rating rows of the dish form.
type RatingHandler struct {
	Dishes  *repository.DishRepo
	Ratings *repository.RatingRepo
	Service *service.DishService
}

func NewRatingHandler(dr *repository.DishRepo, rtr *repository.RatingRepo, svc *service.DishService) *RatingHandler {
	return &RatingHandler{Dishes: dr, Ratings: rtr, Service: svc}
}

type ratingReq struct {
	UserID    *uint64 `json:"user_id"`
	Value     *int    `json:"value" validate:"omitempty,min=1,max=5"`
	Comments  *string `json:"comments"`
	DateRated *string `json:"date_rated" validate:"omitempty,datetime=2006-01-02"`
}

// ListByDish serves GET /v1/dishes/:id/ratings.  A dish without saved
// ratings gets one synthetic unsaved row (id 0) prefilled with the
// account's last-used date and the first known rater; ?blank=1 appends
// one more such row for the "add another rating" action.
func (h *RatingHandler) ListByDish(c echo.Context) error {
	accountID, err := getAccountID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	dishID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Dishes.GetByID(ctx, dishID); err != nil {
		if err == repository.ErrDishNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "dish not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load dish failed"})
	}

	rows, err := h.Service.RatingRows(ctx, accountID, dishID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load ratings failed"})
	}
	if c.QueryParam("blank") == "1" {
		rows = append(rows, h.Service.BlankRow(ctx, accountID, dishID))
	}
	return c.JSON(http.StatusOK, echo.Map{"ratings": rows})
}

// Create serves POST /v1/dishes/:id/ratings, saving a new rating row.
func (h *RatingHandler) Create(c echo.Context) error {
	accountID, err := getAccountID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	dishID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req ratingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if _, err := h.Dishes.GetByID(ctx, dishID); err != nil {
		if err == repository.ErrDishNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "dish not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load dish failed"})
	}

	rt := model.Rating{
		DishID:    dishID,
		UserID:    req.UserID,
		Value:     req.Value,
		Comments:  req.Comments,
		DateRated: req.DateRated,
	}
	if err := h.Service.SaveRating(ctx, accountID, &rt); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save rating failed"})
	}
	return c.JSON(http.StatusCreated, rt)
}

// Update serves PUT /v1/ratings/:id.  Fields absent from the body keep
// their stored values; the form saves one field at a time.
func (h *RatingHandler) Update(c echo.Context) error {
	accountID, err := getAccountID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req ratingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	// The service reads, merges and writes while holding the rating's
	// write lane, so concurrent single-field edits don't clobber each other.
	patch := service.RatingPatch{
		UserID:    req.UserID,
		Value:     req.Value,
		Comments:  req.Comments,
		DateRated: req.DateRated,
	}
	if _, err := h.Service.PatchRating(ctx, accountID, id, patch); err != nil {
		if err == repository.ErrRatingNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "rating not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save rating failed"})
	}
	// Re-read for the joined rater name.
	got, err := h.Ratings.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load rating failed"})
	}
	return c.JSON(http.StatusOK, got)
}

// Delete serves DELETE /v1/ratings/:id.
func (h *RatingHandler) Delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if err := h.Service.DeleteRating(ctx, id); err != nil {
		if err == repository.ErrRatingNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "rating not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete rating failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
