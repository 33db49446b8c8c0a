// Package engine holds the pure in-memory computations behind the listing
// and detail views: rating aggregation and list filtering/sorting.  All
// functions work on a Snapshot fetched wholesale from the database, have
// no side effects, and are deterministic for a given snapshot.  Missing
// optional fields are treated as absent, never as errors.
package engine

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/iliyamo/restaurant-ratings/internal/model"
)

// dateLayout is the wire format of ratings.date_rated.
const dateLayout = "2006-01-02"

// Snapshot is the in-memory copy of the collections a view fetched.  A
// snapshot is owned by a single request; nothing in this package mutates it.
type Snapshot struct {
	Dishes  []model.Dish
	Ratings []model.Rating
	Users   []model.User
}

// Scope selects the ratings an aggregate runs over: either every rating of
// every dish of one restaurant, or the ratings of a single dish.
type Scope struct {
	restaurantID uint64
	dishID       uint64
	byDish       bool
}

// ByRestaurant scopes an aggregate to all dishes of the given restaurant.
func ByRestaurant(id uint64) Scope { return Scope{restaurantID: id} }

// ByDish scopes an aggregate to a single dish.
func ByDish(id uint64) Scope { return Scope{dishID: id, byDish: true} }

// inScope reports whether a rating belongs to the scope's dish set.
func (s Snapshot) inScope(r model.Rating, sc Scope) bool {
	if sc.byDish {
		return r.DishID == sc.dishID
	}
	for _, d := range s.Dishes {
		if d.ID == r.DishID && d.RestaurantID == sc.restaurantID {
			return true
		}
	}
	return false
}

// validValue reports whether a rating carries a usable star value.  Rows
// with a nil or out-of-range value still occupy a row in the UI but are
// silently excluded from aggregates.
func validValue(r model.Rating) bool {
	return r.Value != nil && *r.Value >= 1 && *r.Value <= 5
}

// AverageRating returns the arithmetic mean of the valid star values in
// scope, rounded to one decimal place.  ok is false when no rating in
// scope has a valid value; the caller renders that as "no value".
func (s Snapshot) AverageRating(sc Scope) (avg float64, ok bool) {
	sum, n := 0, 0
	for _, r := range s.Ratings {
		if !s.inScope(r, sc) || !validValue(r) {
			continue
		}
		sum += *r.Value
		n++
	}
	if n == 0 {
		return 0, false
	}
	avg = float64(sum) / float64(n)
	return math.Round(avg*10) / 10, true
}

// MostRecentRatingDate returns the chronologically latest date among the
// ratings in scope that carry one.  Rows without a date are skipped; rows
// with an unparseable date are skipped the same way.  ok is false when no
// dated rating exists in scope.
func (s Snapshot) MostRecentRatingDate(sc Scope) (latest time.Time, ok bool) {
	for _, r := range s.Ratings {
		if !s.inScope(r, sc) || r.DateRated == nil || *r.DateRated == "" {
			continue
		}
		t, err := time.Parse(dateLayout, *r.DateRated)
		if err != nil {
			continue
		}
		if !ok || t.After(latest) {
			latest = t
			ok = true
		}
	}
	return latest, ok
}

// RatingBreakdown counts, per known user, how many ratings of each star
// value that user has given within the restaurant's dishes.  Every user in
// the snapshot appears in the result; users with zero ratings map to an
// empty count map, they are not omitted.
func (s Snapshot) RatingBreakdown(restaurantID uint64) map[uint64]map[int]int {
	out := make(map[uint64]map[int]int, len(s.Users))
	for _, u := range s.Users {
		out[u.ID] = map[int]int{}
	}
	sc := ByRestaurant(restaurantID)
	for _, r := range s.Ratings {
		if !s.inScope(r, sc) || r.UserID == nil || !validValue(r) {
			continue
		}
		counts, known := out[*r.UserID]
		if !known {
			continue // rating by a user missing from the snapshot
		}
		counts[*r.Value]++
	}
	return out
}

// RatingMark is one distinct star value of a dish with its display label.
type RatingMark struct {
	Value int    `json:"value"`
	Label string `json:"label"`
}

// UniqueRatingSummary returns the distinct valid star values given to a
// dish, highest first, each annotated with a star glyph label for compact
// inline display.  Duplicate values collapse to one entry no matter how
// many raters gave them.
func (s Snapshot) UniqueRatingSummary(dishID uint64) []RatingMark {
	seen := map[int]bool{}
	for _, r := range s.Ratings {
		if r.DishID != dishID || !validValue(r) {
			continue
		}
		seen[*r.Value] = true
	}
	values := make([]int, 0, len(seen))
	for v := range seen {
		values = append(values, v)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(values)))
	out := make([]RatingMark, 0, len(values))
	for _, v := range values {
		out = append(out, RatingMark{Value: v, Label: fmt.Sprintf("%d ★", v)})
	}
	return out
}
