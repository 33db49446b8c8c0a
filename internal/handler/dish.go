package handler

import (
	"context"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-ratings/internal/engine"
	"github.com/iliyamo/restaurant-ratings/internal/repository"
	"github.com/iliyamo/restaurant-ratings/internal/service"
	"github.com/iliyamo/restaurant-ratings/internal/storage"
)

// imagePrefix namespaces dish images inside the object store.
const imagePrefix = "dish-images"

// DishHandler serves the dish detail form: draft creation, field-by-field
// edits, image upload and deletion.
type DishHandler struct {
	Restaurants *repository.RestaurantRepo
	Dishes      *repository.DishRepo
	Ratings     *repository.RatingRepo
	Service     *service.DishService
	Images      storage.ImageStore
}

func NewDishHandler(rr *repository.RestaurantRepo, dr *repository.DishRepo,
	rtr *repository.RatingRepo, svc *service.DishService, images storage.ImageStore) *DishHandler {
	return &DishHandler{Restaurants: rr, Dishes: dr, Ratings: rtr, Service: svc, Images: images}
}

type dishUpdateReq struct {
	Name     *string `json:"name"`
	Comments *string `json:"comments"`
}

// CreateDraft serves POST /v1/restaurants/:id/dishes.  The body is empty;
// a blank dish row is persisted immediately and returned for the form to
// edit.  A repeated request with the same Idempotency-Key header while the
// first insert is in flight returns the same dish.
func (h *DishHandler) CreateDraft(c echo.Context) error {
	restaurantID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Restaurants.GetByID(ctx, restaurantID); err != nil {
		if err == repository.ErrRestaurantNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "restaurant not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load restaurant failed"})
	}

	key := strings.TrimSpace(c.Request().Header.Get("Idempotency-Key"))
	dish, err := h.Service.CreateDraft(ctx, restaurantID, key)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create dish failed"})
	}
	return c.JSON(http.StatusCreated, dish)
}

// Get serves GET /v1/dishes/:id with the dish's own aggregates.
func (h *DishHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	dish, err := h.Dishes.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrDishNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "dish not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load dish failed"})
	}

	ratings, err := h.Ratings.ListByDish(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load ratings failed"})
	}
	snap := engine.Snapshot{Ratings: ratings}
	item := dishSummary{Dish: *dish, Marks: snap.UniqueRatingSummary(id)}
	if avg, ok := snap.AverageRating(engine.ByDish(id)); ok {
		item.AverageRating = &avg
	}
	if latest, ok := snap.MostRecentRatingDate(engine.ByDish(id)); ok {
		s := latest.Format("2006-01-02")
		item.LastRated = &s
	}
	return c.JSON(http.StatusOK, item)
}

// Update serves PUT /v1/dishes/:id.  Only the fields present in the body
// are written; the form saves each field as the user leaves it.
func (h *DishHandler) Update(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req dishUpdateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Name == nil && req.Comments == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "nothing to update"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if req.Name != nil {
		if err := h.Service.UpdateDishName(ctx, id, *req.Name); err != nil {
			return dishUpdateError(c, err)
		}
	}
	if req.Comments != nil {
		if err := h.Service.UpdateDishComments(ctx, id, *req.Comments); err != nil {
			return dishUpdateError(c, err)
		}
	}
	dish, err := h.Dishes.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load dish failed"})
	}
	return c.JSON(http.StatusOK, dish)
}

func dishUpdateError(c echo.Context, err error) error {
	if err == repository.ErrDishNotFound {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "dish not found"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update dish failed"})
}

// Delete serves DELETE /v1/dishes/:id, removing the dish's ratings first.
func (h *DishHandler) Delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if err := h.Service.DeleteDish(ctx, id); err != nil {
		if err == repository.ErrDishNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "dish not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete dish failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// UploadImage serves POST /v1/dishes/:id/image.  The multipart "file" part
// is stored under a fresh random name and the dish's image_url is updated
// to the public URL.  A previously stored image is removed afterwards.
func (h *DishHandler) UploadImage(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	dish, err := h.Dishes.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrDishNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "dish not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load dish failed"})
	}

	file, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "file part required"})
	}
	src, err := file.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "open upload failed"})
	}
	defer src.Close()

	objectPath := imagePrefix + "/" + uuid.NewString() + strings.ToLower(path.Ext(file.Filename))
	if err := h.Images.Upload(ctx, objectPath, src); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "store image failed"})
	}
	url := h.Images.PublicURL(objectPath)
	if err := h.Dishes.UpdateImageURL(ctx, id, &url); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update dish failed"})
	}
	// Old image becomes unreachable once the URL is replaced; best effort.
	if dish.ImageURL != nil {
		if old := h.objectPathFromURL(*dish.ImageURL); old != "" {
			_ = h.Images.Remove(ctx, old)
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"image_url": url})
}

// DeleteImage serves DELETE /v1/dishes/:id/image, clearing image_url and
// removing the stored object.
func (h *DishHandler) DeleteImage(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	dish, err := h.Dishes.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrDishNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "dish not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load dish failed"})
	}
	if dish.ImageURL == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "dish has no image"})
	}
	if err := h.Dishes.UpdateImageURL(ctx, id, nil); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update dish failed"})
	}
	if objectPath := h.objectPathFromURL(*dish.ImageURL); objectPath != "" {
		_ = h.Images.Remove(ctx, objectPath)
	}
	return c.NoContent(http.StatusNoContent)
}

// objectPathFromURL recovers the store path of an image from its public
// URL.  Only URLs under our own image namespace resolve; anything else
// returns empty and is left alone.
func (h *DishHandler) objectPathFromURL(url string) string {
	idx := strings.Index(url, imagePrefix+"/")
	if idx < 0 {
		return ""
	}
	return url[idx:]
}
