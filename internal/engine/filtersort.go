package engine

import (
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/iliyamo/restaurant-ratings/internal/model"
)

// Filter holds the user-chosen list predicates.  Zero-valued fields are
// inactive; active fields combine with logical AND.
type Filter struct {
	UserID           uint64 // entity must have a rating authored by this user
	DishSubstr       string // case-insensitive substring of a dish name
	RestaurantSubstr string // case-insensitive substring of the restaurant name
	CuisineID        uint64 // exact cuisine reference match
}

// SortKey names a total order over a filtered collection.  Every key has a
// reverse variant.  An unrecognized key leaves the original order as is.
type SortKey string

const (
	SortAlpha     SortKey = "alpha"      // name A-Z
	SortAlphaRev  SortKey = "alpha_rev"  // name Z-A
	SortRating    SortKey = "rating"     // average rating best to worst
	SortRatingRev SortKey = "rating_rev" // average rating worst to best
	SortRecent    SortKey = "recent"     // last rated, most recent first
	SortRecentRev SortKey = "recent_rev" // last rated, least recent first
)

// containsFold reports a case-insensitive substring match.
func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// FilterRestaurants returns the restaurants matching every active predicate
// in f.  The input slice is not modified; relative order is preserved.
func (s Snapshot) FilterRestaurants(rs []model.Restaurant, f Filter) []model.Restaurant {
	out := make([]model.Restaurant, 0, len(rs))
	for _, r := range rs {
		if f.RestaurantSubstr != "" && !containsFold(r.Name, f.RestaurantSubstr) {
			continue
		}
		if f.CuisineID != 0 && (r.CuisineID == nil || *r.CuisineID != f.CuisineID) {
			continue
		}
		if f.DishSubstr != "" && !s.anyDishMatches(r.ID, f.DishSubstr) {
			continue
		}
		if f.UserID != 0 && !s.anyRatingByUser(r.ID, f.UserID) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// anyDishMatches reports whether a restaurant has a dish whose name
// contains substr (case-insensitive).
func (s Snapshot) anyDishMatches(restaurantID uint64, substr string) bool {
	for _, d := range s.Dishes {
		if d.RestaurantID == restaurantID && containsFold(d.Name, substr) {
			return true
		}
	}
	return false
}

// anyRatingByUser reports whether any dish of the restaurant carries a
// rating authored by the given user.
func (s Snapshot) anyRatingByUser(restaurantID uint64, userID uint64) bool {
	for _, r := range s.Ratings {
		if r.UserID == nil || *r.UserID != userID {
			continue
		}
		for _, d := range s.Dishes {
			if d.ID == r.DishID && d.RestaurantID == restaurantID {
				return true
			}
		}
	}
	return false
}

// FilterDishes returns the dishes matching the per-person and dish-name
// predicates of f.  Restaurant-level predicates do not apply here.
func (s Snapshot) FilterDishes(ds []model.Dish, f Filter) []model.Dish {
	out := make([]model.Dish, 0, len(ds))
	for _, d := range ds {
		if f.DishSubstr != "" && !containsFold(d.Name, f.DishSubstr) {
			continue
		}
		if f.UserID != 0 && !s.dishRatedBy(d.ID, f.UserID) {
			continue
		}
		out = append(out, d)
	}
	return out
}

// dishRatedBy reports whether the dish has at least one rating by the user.
func (s Snapshot) dishRatedBy(dishID, userID uint64) bool {
	for _, r := range s.Ratings {
		if r.DishID == dishID && r.UserID != nil && *r.UserID == userID {
			return true
		}
	}
	return false
}

// newCollator builds a collator for locale-aware name comparison.  A
// collator is not safe for concurrent use, so each sort builds its own.
func newCollator() *collate.Collator {
	return collate.New(language.English, collate.IgnoreCase)
}

// SortRestaurants returns a new slice ordered by key.  Sorting is stable:
// entries with equal keys keep their original relative order.  Entities
// without ratings sort with average 0 and the epoch-minimum date.
func (s Snapshot) SortRestaurants(rs []model.Restaurant, key SortKey) []model.Restaurant {
	out := append([]model.Restaurant(nil), rs...)
	switch key {
	case SortAlpha, SortAlphaRev:
		col := newCollator()
		sort.SliceStable(out, func(i, j int) bool {
			if key == SortAlphaRev {
				return col.CompareString(out[j].Name, out[i].Name) < 0
			}
			return col.CompareString(out[i].Name, out[j].Name) < 0
		})
	case SortRating, SortRatingRev:
		sort.SliceStable(out, func(i, j int) bool {
			a := s.averageOrZero(ByRestaurant(out[i].ID))
			b := s.averageOrZero(ByRestaurant(out[j].ID))
			if key == SortRatingRev {
				return a < b
			}
			return a > b
		})
	case SortRecent, SortRecentRev:
		sort.SliceStable(out, func(i, j int) bool {
			a := s.latestOrZero(ByRestaurant(out[i].ID))
			b := s.latestOrZero(ByRestaurant(out[j].ID))
			if key == SortRecentRev {
				return a.Before(b)
			}
			return a.After(b)
		})
	}
	return out
}

// SortDishes returns a new slice ordered by key, with the same contract as
// SortRestaurants.
func (s Snapshot) SortDishes(ds []model.Dish, key SortKey) []model.Dish {
	out := append([]model.Dish(nil), ds...)
	switch key {
	case SortAlpha, SortAlphaRev:
		col := newCollator()
		sort.SliceStable(out, func(i, j int) bool {
			if key == SortAlphaRev {
				return col.CompareString(out[j].Name, out[i].Name) < 0
			}
			return col.CompareString(out[i].Name, out[j].Name) < 0
		})
	case SortRating, SortRatingRev:
		sort.SliceStable(out, func(i, j int) bool {
			a := s.averageOrZero(ByDish(out[i].ID))
			b := s.averageOrZero(ByDish(out[j].ID))
			if key == SortRatingRev {
				return a < b
			}
			return a > b
		})
	case SortRecent, SortRecentRev:
		sort.SliceStable(out, func(i, j int) bool {
			a := s.latestOrZero(ByDish(out[i].ID))
			b := s.latestOrZero(ByDish(out[j].ID))
			if key == SortRecentRev {
				return a.Before(b)
			}
			return a.After(b)
		})
	}
	return out
}

// averageOrZero resolves "no ratings" to 0 for sorting purposes.
func (s Snapshot) averageOrZero(sc Scope) float64 {
	avg, ok := s.AverageRating(sc)
	if !ok {
		return 0
	}
	return avg
}

// latestOrZero resolves "no dated ratings" to the zero time for sorting.
func (s Snapshot) latestOrZero(sc Scope) time.Time {
	t, ok := s.MostRecentRatingDate(sc)
	if !ok {
		return time.Time{}
	}
	return t
}
