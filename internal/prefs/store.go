// Package prefs persists each user's last-chosen filter, sort and display
// selections plus the last date they entered on a rating form.  Stored
// selections expire as a group: if a user stays away for more than thirty
// minutes, the next session start wipes them so the main page opens
// unfiltered.  The last-used rating date never expires.
package prefs

import (
	"context"
	"strconv"
	"time"
)

// Preference keys.  Values are stored as strings; empty string means unset.
const (
	KeySortOption        = "sort_option"         // main page sort key
	KeySelectedUserID    = "selected_user_id"    // filter-by-person selection
	KeyDishFilter        = "dish_filter"         // dish name substring
	KeyRestaurantFilter  = "restaurant_filter"   // restaurant name substring
	KeySelectedCuisineID = "selected_cuisine_id" // filter-by-cuisine selection
	KeyDisplayMode       = "display_mode"        // summary | dishes | bare
	KeyLastRatingDate    = "last_rating_date"    // prefill for new rating rows
	keyLastVisit         = "last_visit"          // unix millis of last session start
)

// expirableKeys are the selections cleared by the expiry policy.  The
// last-used rating date is deliberately not in this list.
var expirableKeys = []string{
	KeySortOption,
	KeySelectedUserID,
	KeyDishFilter,
	KeyRestaurantFilter,
	KeySelectedCuisineID,
	KeyDisplayMode,
}

// MaxIdle is how long stored selections survive between visits.
const MaxIdle = 30 * time.Minute

// Store is the key-value persistence behind preferences.  Get returns def
// when the key is absent for the user.
type Store interface {
	Get(ctx context.Context, userID uint64, key, def string) (string, error)
	Set(ctx context.Context, userID uint64, key, value string) error
	Remove(ctx context.Context, userID uint64, key string) error
}

// Session applies the expiry policy on top of a Store.
type Session struct {
	store Store
}

// NewSession wraps a Store with the session-start expiry policy.
func NewSession(store Store) *Session {
	return &Session{store: store}
}

// Store exposes the underlying key-value store for plain reads and writes.
func (s *Session) Store() Store { return s.store }

// Start must be called once per application start, before any preference is
// read.  When the stored last-visit timestamp is missing or older than
// MaxIdle, every expirable selection is removed.  The last-visit timestamp
// is always updated to now, whether or not expiry fired.
func (s *Session) Start(ctx context.Context, userID uint64, now time.Time) error {
	raw, err := s.store.Get(ctx, userID, keyLastVisit, "")
	if err != nil {
		return err
	}

	expired := true
	if raw != "" {
		if ms, perr := strconv.ParseInt(raw, 10, 64); perr == nil {
			last := time.UnixMilli(ms)
			expired = now.Sub(last) > MaxIdle
		}
	}
	if expired {
		for _, key := range expirableKeys {
			if err := s.store.Remove(ctx, userID, key); err != nil {
				return err
			}
		}
	}
	return s.store.Set(ctx, userID, keyLastVisit, strconv.FormatInt(now.UnixMilli(), 10))
}
