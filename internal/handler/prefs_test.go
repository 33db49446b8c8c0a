package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/restaurant-ratings/internal/prefs"
)

func newPrefsContext(t *testing.T, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("account_id", uint64(7))
	return c, rec
}

func TestPrefsPutThenGet(t *testing.T) {
	h := NewPrefsHandler(prefs.NewSession(prefs.NewMemoryStore()))

	c, rec := newPrefsContext(t, http.MethodPut, "/v1/preferences/sort_option", `{"value":"rating"}`)
	c.SetParamNames("key")
	c.SetParamValues(prefs.KeySortOption)
	require.NoError(t, h.Put(c))
	require.Equal(t, http.StatusOK, rec.Code)

	c, rec = newPrefsContext(t, http.MethodGet, "/v1/preferences", "")
	require.NoError(t, h.Get(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Preferences map[string]string `json:"preferences"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "rating", resp.Preferences[prefs.KeySortOption])
	require.Equal(t, "", resp.Preferences[prefs.KeyDishFilter])
}

func TestPrefsPutEmptyValueRemoves(t *testing.T) {
	h := NewPrefsHandler(prefs.NewSession(prefs.NewMemoryStore()))

	c, _ := newPrefsContext(t, http.MethodPut, "/v1/preferences/dish_filter", `{"value":"curry"}`)
	c.SetParamNames("key")
	c.SetParamValues(prefs.KeyDishFilter)
	require.NoError(t, h.Put(c))

	c, _ = newPrefsContext(t, http.MethodPut, "/v1/preferences/dish_filter", `{"value":""}`)
	c.SetParamNames("key")
	c.SetParamValues(prefs.KeyDishFilter)
	require.NoError(t, h.Put(c))

	c, rec := newPrefsContext(t, http.MethodGet, "/v1/preferences", "")
	require.NoError(t, h.Get(c))
	var resp struct {
		Preferences map[string]string `json:"preferences"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "", resp.Preferences[prefs.KeyDishFilter])
}

func TestPrefsRejectsUnknownKey(t *testing.T) {
	h := NewPrefsHandler(prefs.NewSession(prefs.NewMemoryStore()))

	c, rec := newPrefsContext(t, http.MethodPut, "/v1/preferences/bogus", `{"value":"x"}`)
	c.SetParamNames("key")
	c.SetParamValues("bogus")
	require.NoError(t, h.Put(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionStartBumpsLastVisit(t *testing.T) {
	h := NewPrefsHandler(prefs.NewSession(prefs.NewMemoryStore()))

	c, rec := newPrefsContext(t, http.MethodPost, "/v1/session/start", "")
	require.NoError(t, h.StartSession(c))
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestPrefsRequireAuth(t *testing.T) {
	h := NewPrefsHandler(prefs.NewSession(prefs.NewMemoryStore()))

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/preferences", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec) // no account_id in context
	require.NoError(t, h.Get(c))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
