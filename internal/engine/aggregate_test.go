package engine

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/restaurant-ratings/internal/model"
)

func intPtr(v int) *int          { return &v }
func u64Ptr(v uint64) *uint64    { return &v }
func strPtr(v string) *string    { return &v }

// snapshot builds a two-restaurant fixture used across the tests.
func snapshot() Snapshot {
	return Snapshot{
		Dishes: []model.Dish{
			{ID: 1, RestaurantID: 10, Name: "Pad Thai"},
			{ID: 2, RestaurantID: 10, Name: "Green Curry"},
			{ID: 3, RestaurantID: 20, Name: "Tacos"},
		},
		Ratings: []model.Rating{
			{ID: 100, DishID: 1, UserID: u64Ptr(1), Value: intPtr(5), DateRated: strPtr("2024-03-01")},
			{ID: 101, DishID: 1, UserID: u64Ptr(2), Value: intPtr(3), DateRated: strPtr("2024-01-15")},
			{ID: 102, DishID: 2, UserID: u64Ptr(1), Value: nil, DateRated: strPtr("2024-06-20")},
			{ID: 103, DishID: 3, UserID: u64Ptr(2), Value: intPtr(4)},
		},
		Users: []model.User{
			{ID: 1, Name: "Avery"},
			{ID: 2, Name: "Sam"},
			{ID: 3, Name: "Noor"},
		},
	}
}

func TestAverageRating(t *testing.T) {
	s := snapshot()

	tests := []struct {
		name    string
		scope   Scope
		want    float64
		wantOK  bool
	}{
		{name: "restaurant with valid and null values", scope: ByRestaurant(10), want: 4.0, wantOK: true},
		{name: "single dish", scope: ByDish(1), want: 4.0, wantOK: true},
		{name: "dish with only a null value", scope: ByDish(2), wantOK: false},
		{name: "unknown restaurant", scope: ByRestaurant(99), wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := s.AverageRating(tt.scope)
			require.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				require.Equal(t, tt.want, got)
			}
		})
	}
}

func TestAverageRatingEmptySnapshot(t *testing.T) {
	var s Snapshot
	_, ok := s.AverageRating(ByRestaurant(1))
	require.False(t, ok, "empty selection must report no value, not zero")
}

func TestAverageRatingExcludesOutOfRange(t *testing.T) {
	s := Snapshot{
		Dishes: []model.Dish{{ID: 1, RestaurantID: 10}},
		Ratings: []model.Rating{
			{DishID: 1, Value: intPtr(4)},
			{DishID: 1, Value: intPtr(0)},  // below range
			{DishID: 1, Value: intPtr(42)}, // above range
		},
	}
	got, ok := s.AverageRating(ByRestaurant(10))
	require.True(t, ok)
	require.Equal(t, 4.0, got)
}

func TestAverageRatingOrderIndependent(t *testing.T) {
	s := snapshot()
	want, wantOK := s.AverageRating(ByRestaurant(10))

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		rng.Shuffle(len(s.Ratings), func(a, b int) {
			s.Ratings[a], s.Ratings[b] = s.Ratings[b], s.Ratings[a]
		})
		got, ok := s.AverageRating(ByRestaurant(10))
		require.Equal(t, wantOK, ok)
		require.Equal(t, want, got)
	}
}

func TestAverageRatingRounding(t *testing.T) {
	s := Snapshot{
		Dishes: []model.Dish{{ID: 1, RestaurantID: 10}},
		Ratings: []model.Rating{
			{DishID: 1, Value: intPtr(5)},
			{DishID: 1, Value: intPtr(5)},
			{DishID: 1, Value: intPtr(4)},
		},
	}
	got, ok := s.AverageRating(ByRestaurant(10))
	require.True(t, ok)
	require.Equal(t, 4.7, got) // 14/3 = 4.666..., rounded to one decimal
}

func TestMostRecentRatingDate(t *testing.T) {
	s := snapshot()

	latest, ok := s.MostRecentRatingDate(ByRestaurant(10))
	require.True(t, ok)
	require.Equal(t, time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC), latest)

	// Dish 3 has a rating but no date.
	_, ok = s.MostRecentRatingDate(ByDish(3))
	require.False(t, ok)
}

func TestMostRecentRatingDateSkipsMalformed(t *testing.T) {
	s := Snapshot{
		Dishes: []model.Dish{{ID: 1, RestaurantID: 10}},
		Ratings: []model.Rating{
			{DishID: 1, DateRated: strPtr("not-a-date")},
			{DishID: 1, DateRated: strPtr("2023-11-05")},
		},
	}
	latest, ok := s.MostRecentRatingDate(ByRestaurant(10))
	require.True(t, ok)
	require.Equal(t, time.Date(2023, 11, 5, 0, 0, 0, 0, time.UTC), latest)
}

func TestRatingBreakdown(t *testing.T) {
	s := snapshot()
	got := s.RatingBreakdown(10)

	require.Len(t, got, 3, "every known user must be present")
	require.Equal(t, map[int]int{5: 1}, got[1])
	require.Equal(t, map[int]int{3: 1}, got[2])
	require.Empty(t, got[3], "user with no ratings keeps an empty count map")
}

func TestUniqueRatingSummary(t *testing.T) {
	s := Snapshot{
		Ratings: []model.Rating{
			{DishID: 1, Value: intPtr(3)},
			{DishID: 1, Value: intPtr(5)},
			{DishID: 1, Value: intPtr(3)}, // duplicate collapses
			{DishID: 1, Value: nil},
			{DishID: 2, Value: intPtr(1)}, // other dish
		},
	}
	got := s.UniqueRatingSummary(1)
	require.Equal(t, []RatingMark{
		{Value: 5, Label: "5 ★"},
		{Value: 3, Label: "3 ★"},
	}, got)

	require.Empty(t, s.UniqueRatingSummary(99))
}
