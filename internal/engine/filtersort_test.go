package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/restaurant-ratings/internal/model"
)

// listSnapshot builds a fixture with distinct averages and dates so that
// reverse-sort properties can be checked without ties.
func listSnapshot() (Snapshot, []model.Restaurant) {
	s := Snapshot{
		Dishes: []model.Dish{
			{ID: 1, RestaurantID: 10, Name: "Pad Thai"},
			{ID: 2, RestaurantID: 20, Name: "Tacos al Pastor"},
			{ID: 3, RestaurantID: 30, Name: "Margherita"},
		},
		Ratings: []model.Rating{
			{DishID: 1, UserID: u64Ptr(1), Value: intPtr(3), DateRated: strPtr("2024-02-01")},
			{DishID: 1, UserID: u64Ptr(2), Value: intPtr(4), DateRated: strPtr("2024-05-01")},
			{DishID: 2, UserID: u64Ptr(2), Value: intPtr(5), DateRated: strPtr("2024-03-01")},
			// restaurant 30 has no ratings at all
		},
		Users: []model.User{{ID: 1, Name: "Avery"}, {ID: 2, Name: "Sam"}},
	}
	rs := []model.Restaurant{
		{ID: 10, Name: "Bangkok Garden", CuisineID: u64Ptr(1)},
		{ID: 20, Name: "Casa Azul", CuisineID: u64Ptr(2)},
		{ID: 30, Name: "Aroma Pizzeria"},
	}
	return s, rs
}

func ids(rs []model.Restaurant) []uint64 {
	out := make([]uint64, len(rs))
	for i, r := range rs {
		out[i] = r.ID
	}
	return out
}

func TestFilterRestaurants(t *testing.T) {
	s, rs := listSnapshot()

	tests := []struct {
		name   string
		filter Filter
		want   []uint64
	}{
		{name: "no predicates keeps all", filter: Filter{}, want: []uint64{10, 20, 30}},
		{name: "restaurant substring, case-insensitive", filter: Filter{RestaurantSubstr: "casa"}, want: []uint64{20}},
		{name: "dish substring", filter: Filter{DishSubstr: "pastor"}, want: []uint64{20}},
		{name: "by person", filter: Filter{UserID: 1}, want: []uint64{10}},
		{name: "by cuisine", filter: Filter{CuisineID: 1}, want: []uint64{10}},
		{name: "predicates combine with AND", filter: Filter{UserID: 2, CuisineID: 2}, want: []uint64{20}},
		{name: "no match", filter: Filter{RestaurantSubstr: "zzz"}, want: []uint64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.FilterRestaurants(rs, tt.filter)
			require.Equal(t, tt.want, ids(got))
		})
	}
}

func TestFilterIdempotent(t *testing.T) {
	s, rs := listSnapshot()
	f := Filter{UserID: 2, DishSubstr: "a"}

	once := s.FilterRestaurants(rs, f)
	twice := s.FilterRestaurants(once, f)
	require.Equal(t, once, twice)
}

func TestFilterDoesNotMutateInput(t *testing.T) {
	s, rs := listSnapshot()
	before := append([]model.Restaurant(nil), rs...)

	s.FilterRestaurants(rs, Filter{RestaurantSubstr: "casa"})
	s.SortRestaurants(rs, SortAlpha)
	require.Equal(t, before, rs)
}

func TestSortRestaurants(t *testing.T) {
	s, rs := listSnapshot()

	tests := []struct {
		name string
		key  SortKey
		want []uint64
	}{
		{name: "alphabetical", key: SortAlpha, want: []uint64{30, 10, 20}},
		{name: "alphabetical reverse", key: SortAlphaRev, want: []uint64{20, 10, 30}},
		// averages: 10 -> 3.5, 20 -> 5.0, 30 -> none (sorts as 0)
		{name: "rating best to worst", key: SortRating, want: []uint64{20, 10, 30}},
		{name: "rating worst to best resolves missing as zero", key: SortRatingRev, want: []uint64{30, 10, 20}},
		// latest dates: 10 -> 2024-05-01, 20 -> 2024-03-01, 30 -> none
		{name: "most recently rated first", key: SortRecent, want: []uint64{10, 20, 30}},
		{name: "least recently rated first", key: SortRecentRev, want: []uint64{30, 20, 10}},
		{name: "unknown key preserves order", key: SortKey("bogus"), want: []uint64{10, 20, 30}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.SortRestaurants(rs, tt.key)
			require.Equal(t, tt.want, ids(got))
		})
	}
}

func TestReverseSortMirrorsForward(t *testing.T) {
	s, rs := listSnapshot()

	pairs := []struct{ fwd, rev SortKey }{
		{SortAlpha, SortAlphaRev},
		{SortRating, SortRatingRev},
		{SortRecent, SortRecentRev},
	}
	for _, p := range pairs {
		fwd := ids(s.SortRestaurants(rs, p.fwd))
		rev := ids(s.SortRestaurants(rs, p.rev))
		for i := range fwd {
			require.Equal(t, fwd[i], rev[len(rev)-1-i],
				"%s must be the exact reverse of %s", p.rev, p.fwd)
		}
	}
}

func TestSortStableForEqualKeys(t *testing.T) {
	s := Snapshot{}
	rs := []model.Restaurant{{ID: 1, Name: "Same"}, {ID: 2, Name: "Same"}, {ID: 3, Name: "Same"}}

	got := s.SortRestaurants(rs, SortAlpha)
	require.Equal(t, []uint64{1, 2, 3}, ids(got))

	got = s.SortRestaurants(rs, SortRating) // all unrated -> all equal to 0
	require.Equal(t, []uint64{1, 2, 3}, ids(got))
}

func TestFilterAndSortDishes(t *testing.T) {
	s, _ := listSnapshot()
	dishes := s.Dishes

	filtered := s.FilterDishes(dishes, Filter{UserID: 2})
	require.Len(t, filtered, 2) // dishes 1 and 2 have a rating by user 2

	// averages: dish 1 -> 3.5, dish 2 -> 5.0, dish 3 -> none
	sorted := s.SortDishes(dishes, SortRatingRev)
	require.Equal(t, uint64(3), sorted[0].ID)
	require.Equal(t, uint64(1), sorted[1].ID)
	require.Equal(t, uint64(2), sorted[2].ID)

	alpha := s.SortDishes(dishes, SortAlpha)
	require.Equal(t, "Margherita", alpha[0].Name)
}
