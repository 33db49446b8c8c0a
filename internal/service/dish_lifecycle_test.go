package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/restaurant-ratings/internal/model"
	"github.com/iliyamo/restaurant-ratings/internal/prefs"
	"github.com/iliyamo/restaurant-ratings/internal/queue"
)

// fakeDishStore is an in-memory DishStore recording cascade deletes.
type fakeDishStore struct {
	mu      sync.Mutex
	nextID  uint64
	dishes  map[uint64]*model.Dish
	creates int
	gate    chan struct{} // when set, Create blocks until the gate closes
}

func newFakeDishStore() *fakeDishStore {
	return &fakeDishStore{nextID: 1, dishes: map[uint64]*model.Dish{}}
}

func (f *fakeDishStore) Create(_ context.Context, d *model.Dish) error {
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	d.ID = f.nextID
	f.nextID++
	f.creates++
	cp := *d
	f.dishes[d.ID] = &cp
	return nil
}

func (f *fakeDishStore) GetByID(_ context.Context, id uint64) (*model.Dish, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if d, ok := f.dishes[id]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, errNotFound
}

func (f *fakeDishStore) UpdateName(_ context.Context, id uint64, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.dishes[id]
	if !ok {
		return errNotFound
	}
	d.Name = name
	return nil
}

func (f *fakeDishStore) UpdateComments(_ context.Context, id uint64, comments string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.dishes[id]
	if !ok {
		return errNotFound
	}
	d.Comments = comments
	return nil
}

func (f *fakeDishStore) DeleteCascade(_ context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.dishes[id]; !ok {
		return errNotFound
	}
	delete(f.dishes, id)
	return nil
}

// fakeRatingStore is an in-memory RatingStore.
type fakeRatingStore struct {
	mu      sync.Mutex
	nextID  uint64
	ratings map[uint64]*model.Rating
}

func newFakeRatingStore() *fakeRatingStore {
	return &fakeRatingStore{nextID: 1, ratings: map[uint64]*model.Rating{}}
}

func (f *fakeRatingStore) Create(_ context.Context, rt *model.Rating) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rt.ID = f.nextID
	f.nextID++
	cp := *rt
	f.ratings[rt.ID] = &cp
	return nil
}

func (f *fakeRatingStore) GetByID(_ context.Context, id uint64) (*model.Rating, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rt, ok := f.ratings[id]; ok {
		cp := *rt
		return &cp, nil
	}
	return nil, errNotFound
}

func (f *fakeRatingStore) Update(_ context.Context, rt *model.Rating) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.ratings[rt.ID]; !ok {
		return errNotFound
	}
	cp := *rt
	f.ratings[rt.ID] = &cp
	return nil
}

func (f *fakeRatingStore) Delete(_ context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.ratings[id]; !ok {
		return errNotFound
	}
	delete(f.ratings, id)
	return nil
}

func (f *fakeRatingStore) ListByDish(_ context.Context, dishID uint64) ([]model.Rating, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Rating
	for _, rt := range f.ratings {
		if rt.DishID == dishID {
			out = append(out, *rt)
		}
	}
	return out, nil
}

type fakeUserLister struct{ users []model.User }

func (f *fakeUserLister) ListAll(context.Context) ([]model.User, error) { return f.users, nil }

type capturedEvents struct {
	mu     sync.Mutex
	events []queue.RatingRecordedEvent
}

func (c *capturedEvents) PublishRatingRecorded(_ context.Context, ev queue.RatingRecordedEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
	return nil
}

var errNotFound = errors.New("not found")

func newTestService(t *testing.T) (*DishService, *fakeDishStore, *fakeRatingStore, *prefs.MemoryStore, *capturedEvents) {
	t.Helper()
	dishes := newFakeDishStore()
	ratings := newFakeRatingStore()
	users := &fakeUserLister{users: []model.User{{ID: 1, Name: "Avery"}, {ID: 2, Name: "Sam"}}}
	store := prefs.NewMemoryStore()
	events := &capturedEvents{}
	svc := NewDishService(dishes, ratings, users, prefs.NewSession(store),
		NewWriteQueue(), events, zap.NewNop())
	return svc, dishes, ratings, store, events
}

func TestCreateDraftPersistsBlankDish(t *testing.T) {
	svc, dishes, _, _, _ := newTestService(t)

	d, err := svc.CreateDraft(context.Background(), 10, "tok-1")
	require.NoError(t, err)
	require.NotZero(t, d.ID, "draft must be persisted immediately")
	require.Equal(t, uint64(10), d.RestaurantID)
	require.Empty(t, d.Name)
	require.Equal(t, 1, dishes.creates)
}

func TestCreateDraftDeduplicatesConcurrentEntries(t *testing.T) {
	svc, dishes, _, _, _ := newTestService(t)

	// Hold the insert open so every re-entry arrives while it is in flight.
	dishes.gate = make(chan struct{})

	var wg sync.WaitGroup
	ids := make([]uint64, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			d, err := svc.CreateDraft(context.Background(), 10, "same-key")
			require.NoError(t, err)
			ids[i] = d.ID
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(dishes.gate)
	wg.Wait()

	for _, id := range ids {
		require.Equal(t, ids[0], id, "all concurrent entries must share one dish")
	}
	require.Equal(t, 1, dishes.creates)
}

func TestCreateDraftWithoutKeyAlwaysCreates(t *testing.T) {
	svc, dishes, _, _, _ := newTestService(t)

	a, err := svc.CreateDraft(context.Background(), 10, "")
	require.NoError(t, err)
	b, err := svc.CreateDraft(context.Background(), 10, "")
	require.NoError(t, err)
	require.NotEqual(t, a.ID, b.ID)
	require.Equal(t, 2, dishes.creates)
}

func TestRatingRowsSyntheticRow(t *testing.T) {
	svc, _, _, store, _ := newTestService(t)
	ctx := context.Background()

	svc.now = func() time.Time { return time.Date(2024, 7, 4, 15, 0, 0, 0, time.UTC) }

	rows, err := svc.RatingRows(ctx, 1, 55)
	require.NoError(t, err)
	require.Len(t, rows, 1, "zero persisted ratings render as one synthetic row")
	require.Zero(t, rows[0].ID, "synthetic row is unsaved")
	require.NotNil(t, rows[0].DateRated)
	require.Equal(t, "2024-07-04", *rows[0].DateRated, "defaults to today when no date stored")

	// With a stored last-used date the synthetic row picks it up instead.
	require.NoError(t, store.Set(ctx, 1, prefs.KeyLastRatingDate, "2024-05-20"))
	rows, err = svc.RatingRows(ctx, 1, 55)
	require.NoError(t, err)
	require.Equal(t, "2024-05-20", *rows[0].DateRated)
}

func TestSaveRatingInsertThenUpdate(t *testing.T) {
	svc, _, ratings, store, events := newTestService(t)
	ctx := context.Background()

	val := 4
	date := "2024-06-01"
	row := model.Rating{DishID: 55, Value: &val, DateRated: &date}
	require.NoError(t, svc.SaveRating(ctx, 1, &row))
	require.NotZero(t, row.ID, "first meaningful edit inserts")

	// A later edit of the now-saved row updates in place.
	val2 := 5
	row.Value = &val2
	require.NoError(t, svc.SaveRating(ctx, 1, &row))

	ratings.mu.Lock()
	require.Len(t, ratings.ratings, 1)
	require.Equal(t, 5, *ratings.ratings[row.ID].Value)
	ratings.mu.Unlock()

	// The saved date became the last-used rating date.
	got, err := store.Get(ctx, 1, prefs.KeyLastRatingDate, "")
	require.NoError(t, err)
	require.Equal(t, "2024-06-01", got)

	// Both saves produced an event.
	events.mu.Lock()
	require.Len(t, events.events, 2)
	events.mu.Unlock()
}

func TestPatchRatingMergesOnStoredRow(t *testing.T) {
	svc, _, ratings, _, _ := newTestService(t)
	ctx := context.Background()

	val := 3
	row := model.Rating{DishID: 55, Value: &val}
	require.NoError(t, svc.SaveRating(ctx, 1, &row))

	comment := "too salty"
	got, err := svc.PatchRating(ctx, 1, row.ID, RatingPatch{Comments: &comment})
	require.NoError(t, err)
	require.Equal(t, 3, *got.Value, "untouched fields keep their stored values")
	require.Equal(t, "too salty", *got.Comments)

	_, err = svc.PatchRating(ctx, 1, 999, RatingPatch{Comments: &comment})
	require.Error(t, err, "patching a missing rating surfaces the lookup error")

	ratings.mu.Lock()
	require.Len(t, ratings.ratings, 1)
	ratings.mu.Unlock()
}

func TestConcurrentFieldEditsBothLand(t *testing.T) {
	svc, _, ratings, _, _ := newTestService(t)
	ctx := context.Background()

	row := model.Rating{DishID: 55}
	require.NoError(t, svc.SaveRating(ctx, 1, &row))

	// Two simultaneous single-field edits of the same rating: each must
	// merge onto what the other wrote, never onto the original blank row.
	val := 5
	comment := "crispy"
	errs := make(chan error, 2)
	go func() {
		_, err := svc.PatchRating(ctx, 1, row.ID, RatingPatch{Value: &val})
		errs <- err
	}()
	go func() {
		_, err := svc.PatchRating(ctx, 1, row.ID, RatingPatch{Comments: &comment})
		errs <- err
	}()
	require.NoError(t, <-errs)
	require.NoError(t, <-errs)

	ratings.mu.Lock()
	got := ratings.ratings[row.ID]
	require.NotNil(t, got.Value)
	require.Equal(t, 5, *got.Value)
	require.NotNil(t, got.Comments)
	require.Equal(t, "crispy", *got.Comments)
	ratings.mu.Unlock()
}

func TestDeleteRatingAndDish(t *testing.T) {
	svc, dishes, ratings, _, _ := newTestService(t)
	ctx := context.Background()

	d, err := svc.CreateDraft(ctx, 10, "")
	require.NoError(t, err)

	row := model.Rating{DishID: d.ID}
	require.NoError(t, svc.SaveRating(ctx, 1, &row))

	require.NoError(t, svc.DeleteRating(ctx, row.ID))
	require.Error(t, svc.DeleteRating(ctx, row.ID), "second delete finds nothing")

	require.NoError(t, svc.DeleteDish(ctx, d.ID))
	_, err = dishes.GetByID(ctx, d.ID)
	require.Error(t, err)

	rows, err := ratings.ListByDish(ctx, d.ID)
	require.NoError(t, err)
	require.Empty(t, rows)
}
