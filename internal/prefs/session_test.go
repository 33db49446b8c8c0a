package prefs

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testUser = uint64(7)

func seedPrefs(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, testUser, KeySortOption, "rating"))
	require.NoError(t, store.Set(ctx, testUser, KeyDishFilter, "curry"))
	require.NoError(t, store.Set(ctx, testUser, KeyRestaurantFilter, "bangkok"))
	require.NoError(t, store.Set(ctx, testUser, KeySelectedUserID, "3"))
	require.NoError(t, store.Set(ctx, testUser, KeySelectedCuisineID, "2"))
	require.NoError(t, store.Set(ctx, testUser, KeyDisplayMode, "dishes"))
	require.NoError(t, store.Set(ctx, testUser, KeyLastRatingDate, "2024-05-01"))
}

func TestStartExpiresStaleSelections(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	seedPrefs(t, store)

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	stale := now.Add(-MaxIdle - time.Minute)
	require.NoError(t, store.Set(ctx, testUser, keyLastVisit,
		strconv.FormatInt(stale.UnixMilli(), 10)))

	session := NewSession(store)
	require.NoError(t, session.Start(ctx, testUser, now))

	for _, key := range expirableKeys {
		v, err := store.Get(ctx, testUser, key, "")
		require.NoError(t, err)
		require.Empty(t, v, "key %s should have been cleared", key)
	}

	// The last-used rating date has no expiry policy.
	date, err := store.Get(ctx, testUser, KeyLastRatingDate, "")
	require.NoError(t, err)
	require.Equal(t, "2024-05-01", date)
}

func TestStartKeepsFreshSelections(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	seedPrefs(t, store)

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	recent := now.Add(-10 * time.Minute)
	require.NoError(t, store.Set(ctx, testUser, keyLastVisit,
		strconv.FormatInt(recent.UnixMilli(), 10)))

	require.NoError(t, NewSession(store).Start(ctx, testUser, now))

	v, err := store.Get(ctx, testUser, KeySortOption, "")
	require.NoError(t, err)
	require.Equal(t, "rating", v)
}

func TestStartWithoutPriorVisitClears(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	seedPrefs(t, store)

	require.NoError(t, NewSession(store).Start(ctx, testUser, time.Now()))

	v, err := store.Get(ctx, testUser, KeySortOption, "alpha")
	require.NoError(t, err)
	require.Equal(t, "alpha", v, "no prior timestamp counts as expired")
}

func TestStartAlwaysBumpsLastVisit(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, NewSession(store).Start(ctx, testUser, now))

	raw, err := store.Get(ctx, testUser, keyLastVisit, "")
	require.NoError(t, err)
	require.Equal(t, strconv.FormatInt(now.UnixMilli(), 10), raw)

	// A later start within the window must update the timestamp again.
	later := now.Add(5 * time.Minute)
	require.NoError(t, NewSession(store).Start(ctx, testUser, later))
	raw, err = store.Get(ctx, testUser, keyLastVisit, "")
	require.NoError(t, err)
	require.Equal(t, strconv.FormatInt(later.UnixMilli(), 10), raw)
}

func TestGetReturnsCallerDefault(t *testing.T) {
	store := NewMemoryStore()
	v, err := store.Get(context.Background(), testUser, KeyDisplayMode, "summary")
	require.NoError(t, err)
	require.Equal(t, "summary", v)
}
