package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-ratings/internal/engine"
	"github.com/iliyamo/restaurant-ratings/internal/model"
	"github.com/iliyamo/restaurant-ratings/internal/prefs"
	"github.com/iliyamo/restaurant-ratings/internal/repository"
)

// Display modes of the restaurant listing.
const (
	displaySummary = "summary" // aggregates plus the per-person breakdown
	displayDishes  = "dishes"  // aggregates plus the dish list with marks
	displayBare    = "bare"    // names only
)

// RestaurantHandler serves the restaurant listing and CRUD.  The listing
// endpoint loads the full snapshot and runs the filter/sort engine over it;
// filter and sort selections round-trip through the preference store so a
// returning user lands on the view they left.
type RestaurantHandler struct {
	Restaurants *repository.RestaurantRepo
	Dishes      *repository.DishRepo
	Ratings     *repository.RatingRepo
	Users       *repository.UserRepo
	Cuisines    *repository.CuisineRepo
	Session     *prefs.Session
}

func NewRestaurantHandler(rr *repository.RestaurantRepo, dr *repository.DishRepo,
	rtr *repository.RatingRepo, ur *repository.UserRepo, cr *repository.CuisineRepo,
	session *prefs.Session) *RestaurantHandler {
	return &RestaurantHandler{
		Restaurants: rr, Dishes: dr, Ratings: rtr, Users: ur, Cuisines: cr, Session: session,
	}
}

// ----- DTOs -----

type restaurantReq struct {
	Name        string  `json:"name" validate:"required"`
	Location    *string `json:"location"`
	CuisineID   *uint64 `json:"cuisine_id"`
	CuisineName string  `json:"cuisine_name"` // create-if-absent alternative to cuisine_id
}

type dishSummary struct {
	model.Dish
	AverageRating *float64            `json:"average_rating"`
	LastRated     *string             `json:"last_rated"`
	Marks         []engine.RatingMark `json:"marks,omitempty"`
}

type restaurantSummary struct {
	model.Restaurant
	CuisineName   *string                `json:"cuisine_name,omitempty"`
	AverageRating *float64               `json:"average_rating"`
	LastRated     *string                `json:"last_rated"`
	Breakdown     map[uint64]map[int]int `json:"breakdown,omitempty"`
	Dishes        []dishSummary          `json:"dishes,omitempty"`
}

// param reads one listing parameter with preference fallback: a value sent
// in the query wins and is persisted as the new preference, an absent
// parameter falls back to what the store holds.
func (h *RestaurantHandler) param(c echo.Context, ctx context.Context, accountID uint64, name, prefKey string) string {
	if vals, ok := c.QueryParams()[name]; ok {
		v := ""
		if len(vals) > 0 {
			v = vals[0]
		}
		if v == "" {
			_ = h.Session.Store().Remove(ctx, accountID, prefKey)
		} else {
			_ = h.Session.Store().Set(ctx, accountID, prefKey, v)
		}
		return v
	}
	v, err := h.Session.Store().Get(ctx, accountID, prefKey, "")
	if err != nil {
		return ""
	}
	return v
}

// snapshot loads the collections the engine computes over.
func (h *RestaurantHandler) snapshot(ctx context.Context) (engine.Snapshot, error) {
	dishes, err := h.Dishes.ListAll(ctx)
	if err != nil {
		return engine.Snapshot{}, err
	}
	ratings, err := h.Ratings.ListAll(ctx)
	if err != nil {
		return engine.Snapshot{}, err
	}
	users, err := h.Users.ListAll(ctx)
	if err != nil {
		return engine.Snapshot{}, err
	}
	return engine.Snapshot{Dishes: dishes, Ratings: ratings, Users: users}, nil
}

// List serves GET /v1/restaurants.  Query parameters user_id, dish, name,
// cuisine_id, sort and display each override and replace the stored
// preference; omitted ones come from the store.
func (h *RestaurantHandler) List(c echo.Context) error {
	accountID, err := getAccountID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	var f engine.Filter
	if v := h.param(c, ctx, accountID, "user_id", prefs.KeySelectedUserID); v != "" {
		n, perr := strconv.ParseUint(v, 10, 64)
		if perr != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user_id"})
		}
		f.UserID = n
	}
	f.DishSubstr = h.param(c, ctx, accountID, "dish", prefs.KeyDishFilter)
	f.RestaurantSubstr = h.param(c, ctx, accountID, "name", prefs.KeyRestaurantFilter)
	if v := h.param(c, ctx, accountID, "cuisine_id", prefs.KeySelectedCuisineID); v != "" {
		n, perr := strconv.ParseUint(v, 10, 64)
		if perr != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid cuisine_id"})
		}
		f.CuisineID = n
	}
	sortKey := engine.SortKey(h.param(c, ctx, accountID, "sort", prefs.KeySortOption))
	display := h.param(c, ctx, accountID, "display", prefs.KeyDisplayMode)
	if display == "" {
		display = displaySummary
	}
	if display != displaySummary && display != displayDishes && display != displayBare {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid display mode"})
	}

	restaurants, err := h.Restaurants.ListAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list restaurants failed"})
	}
	snap, err := h.snapshot(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load snapshot failed"})
	}

	restaurants = snap.SortRestaurants(snap.FilterRestaurants(restaurants, f), sortKey)

	if display == displayBare {
		return c.JSON(http.StatusOK, echo.Map{"restaurants": restaurants, "display": display})
	}

	cuisineNames := h.cuisineNames(ctx)
	out := make([]restaurantSummary, 0, len(restaurants))
	for _, rest := range restaurants {
		item := h.summarize(snap, rest, cuisineNames)
		switch display {
		case displaySummary:
			item.Breakdown = snap.RatingBreakdown(rest.ID)
		case displayDishes:
			item.Dishes = h.dishSummaries(snap, snap.FilterDishes(h.dishesOf(snap, rest.ID), f), true)
		}
		out = append(out, item)
	}
	return c.JSON(http.StatusOK, echo.Map{"restaurants": out, "display": display})
}

// cuisineNames loads the id->name lookup for listing responses.  A load
// failure degrades to ids only.
func (h *RestaurantHandler) cuisineNames(ctx context.Context) map[uint64]string {
	out := map[uint64]string{}
	if cuisines, err := h.Cuisines.ListAll(ctx); err == nil {
		for _, cu := range cuisines {
			out[cu.ID] = cu.Name
		}
	}
	return out
}

func (h *RestaurantHandler) summarize(snap engine.Snapshot, rest model.Restaurant, cuisineNames map[uint64]string) restaurantSummary {
	item := restaurantSummary{Restaurant: rest}
	if rest.CuisineID != nil {
		if name, ok := cuisineNames[*rest.CuisineID]; ok {
			item.CuisineName = &name
		}
	}
	if avg, ok := snap.AverageRating(engine.ByRestaurant(rest.ID)); ok {
		item.AverageRating = &avg
	}
	if latest, ok := snap.MostRecentRatingDate(engine.ByRestaurant(rest.ID)); ok {
		s := latest.Format("2006-01-02")
		item.LastRated = &s
	}
	return item
}

func (h *RestaurantHandler) dishesOf(snap engine.Snapshot, restaurantID uint64) []model.Dish {
	out := make([]model.Dish, 0)
	for _, d := range snap.Dishes {
		if d.RestaurantID == restaurantID {
			out = append(out, d)
		}
	}
	return out
}

func (h *RestaurantHandler) dishSummaries(snap engine.Snapshot, dishes []model.Dish, withMarks bool) []dishSummary {
	out := make([]dishSummary, 0, len(dishes))
	for _, d := range dishes {
		item := dishSummary{Dish: d}
		if avg, ok := snap.AverageRating(engine.ByDish(d.ID)); ok {
			item.AverageRating = &avg
		}
		if latest, ok := snap.MostRecentRatingDate(engine.ByDish(d.ID)); ok {
			s := latest.Format("2006-01-02")
			item.LastRated = &s
		}
		if withMarks {
			item.Marks = snap.UniqueRatingSummary(d.ID)
		}
		out = append(out, item)
	}
	return out
}

// resolveCuisine turns a request's cuisine reference into a cuisine id,
// creating the cuisine when only a name was given.
func (h *RestaurantHandler) resolveCuisine(ctx context.Context, req restaurantReq) (*uint64, error) {
	if req.CuisineName != "" {
		cu, err := h.Cuisines.CreateIfAbsent(ctx, req.CuisineName)
		if err != nil {
			return nil, err
		}
		return &cu.ID, nil
	}
	if req.CuisineID != nil {
		if _, err := h.Cuisines.GetByID(ctx, *req.CuisineID); err != nil {
			return nil, err
		}
	}
	return req.CuisineID, nil
}

// Create serves POST /v1/restaurants.
func (h *RestaurantHandler) Create(c echo.Context) error {
	var req restaurantReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	cuisineID, err := h.resolveCuisine(ctx, req)
	if err != nil {
		if err == repository.ErrCuisineNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "cuisine not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "resolve cuisine failed"})
	}

	rest := model.Restaurant{Name: req.Name, Location: req.Location, CuisineID: cuisineID}
	if err := h.Restaurants.Create(ctx, &rest); err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "restaurant already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create restaurant failed"})
	}
	return c.JSON(http.StatusCreated, rest)
}

// Get serves GET /v1/restaurants/:id with aggregates and the dish list.
func (h *RestaurantHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	rest, err := h.Restaurants.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrRestaurantNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "restaurant not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load restaurant failed"})
	}
	snap, err := h.snapshot(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load snapshot failed"})
	}
	item := h.summarize(snap, *rest, h.cuisineNames(ctx))
	item.Breakdown = snap.RatingBreakdown(rest.ID)
	item.Dishes = h.dishSummaries(snap, h.dishesOf(snap, rest.ID), true)
	return c.JSON(http.StatusOK, item)
}

// Update serves PUT /v1/restaurants/:id, replacing the editable fields.
func (h *RestaurantHandler) Update(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req restaurantReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	cuisineID, err := h.resolveCuisine(ctx, req)
	if err != nil {
		if err == repository.ErrCuisineNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "cuisine not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "resolve cuisine failed"})
	}

	rest := model.Restaurant{ID: id, Name: req.Name, Location: req.Location, CuisineID: cuisineID}
	if err := h.Restaurants.Update(ctx, &rest); err != nil {
		if err == repository.ErrRestaurantNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "restaurant not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update restaurant failed"})
	}
	got, err := h.Restaurants.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load restaurant failed"})
	}
	return c.JSON(http.StatusOK, got)
}

// Delete serves DELETE /v1/restaurants/:id, removing the restaurant along
// with its dishes and their ratings.
func (h *RestaurantHandler) Delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if err := h.Restaurants.DeleteCascade(ctx, id); err != nil {
		if err == repository.ErrRestaurantNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "restaurant not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete restaurant failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// ListDishes serves GET /v1/restaurants/:id/dishes with per-dish filter
// and sort; restaurant-level filters do not apply here.
func (h *RestaurantHandler) ListDishes(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if _, err := h.Restaurants.GetByID(ctx, id); err != nil {
		if err == repository.ErrRestaurantNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "restaurant not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load restaurant failed"})
	}

	var f engine.Filter
	if v := c.QueryParam("user_id"); v != "" {
		n, perr := strconv.ParseUint(v, 10, 64)
		if perr != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user_id"})
		}
		f.UserID = n
	}
	f.DishSubstr = c.QueryParam("dish")

	snap, err := h.snapshot(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load snapshot failed"})
	}
	dishes := snap.SortDishes(snap.FilterDishes(h.dishesOf(snap, id), f), engine.SortKey(c.QueryParam("sort")))
	return c.JSON(http.StatusOK, echo.Map{"dishes": h.dishSummaries(snap, dishes, true)})
}
