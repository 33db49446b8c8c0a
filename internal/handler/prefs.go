package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-ratings/internal/prefs"
)

// PrefsHandler exposes the preference store over HTTP: session start with
// the idle-expiry policy, reading the stored selections, and writing one.
type PrefsHandler struct {
	Session *prefs.Session
}

func NewPrefsHandler(session *prefs.Session) *PrefsHandler {
	return &PrefsHandler{Session: session}
}

// editableKeys are the preference keys clients may read and write.
var editableKeys = []string{
	prefs.KeySortOption,
	prefs.KeySelectedUserID,
	prefs.KeyDishFilter,
	prefs.KeyRestaurantFilter,
	prefs.KeySelectedCuisineID,
	prefs.KeyDisplayMode,
	prefs.KeyLastRatingDate,
}

func isEditableKey(key string) bool {
	for _, k := range editableKeys {
		if k == key {
			return true
		}
	}
	return false
}

type prefValueReq struct {
	Value string `json:"value"`
}

// StartSession serves POST /v1/session/start.  Stored filter/sort/display
// selections older than the idle limit are cleared; the last-used rating
// date survives.  Whether expiry fired is not exposed; clients re-read
// their preferences afterwards.
func (h *PrefsHandler) StartSession(c echo.Context) error {
	accountID, err := getAccountID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Session.Start(ctx, accountID, time.Now()); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "session start failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Get serves GET /v1/preferences, returning every stored selection.  Unset
// keys come back as empty strings.
func (h *PrefsHandler) Get(c echo.Context) error {
	accountID, err := getAccountID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	out := make(map[string]string, len(editableKeys))
	for _, key := range editableKeys {
		v, gerr := h.Session.Store().Get(ctx, accountID, key, "")
		if gerr != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load preferences failed"})
		}
		out[key] = v
	}
	return c.JSON(http.StatusOK, echo.Map{"preferences": out})
}

// Put serves PUT /v1/preferences/:key.  An empty value removes the stored
// selection.
func (h *PrefsHandler) Put(c echo.Context) error {
	accountID, err := getAccountID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	key := c.Param("key")
	if !isEditableKey(key) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown preference key"})
	}
	var req prefValueReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if req.Value == "" {
		if err := h.Session.Store().Remove(ctx, accountID, key); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "remove preference failed"})
		}
	} else if err := h.Session.Store().Set(ctx, accountID, key, req.Value); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "store preference failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"key": key, "value": req.Value})
}
