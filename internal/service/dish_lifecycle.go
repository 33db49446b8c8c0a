// Package service orchestrates the dish/rating editing flow on top of the
// repositories: draft dish creation, rating row inserts and updates, the
// cascading deletes, and the domain events that follow a saved rating.
package service

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/iliyamo/restaurant-ratings/internal/model"
	"github.com/iliyamo/restaurant-ratings/internal/prefs"
	"github.com/iliyamo/restaurant-ratings/internal/queue"
)

const dateLayout = "2006-01-02"

// DishStore is the slice of the dish repository the service needs.
type DishStore interface {
	Create(ctx context.Context, d *model.Dish) error
	GetByID(ctx context.Context, id uint64) (*model.Dish, error)
	UpdateName(ctx context.Context, id uint64, name string) error
	UpdateComments(ctx context.Context, id uint64, comments string) error
	DeleteCascade(ctx context.Context, id uint64) error
}

// RatingStore is the slice of the rating repository the service needs.
type RatingStore interface {
	Create(ctx context.Context, rt *model.Rating) error
	GetByID(ctx context.Context, id uint64) (*model.Rating, error)
	Update(ctx context.Context, rt *model.Rating) error
	Delete(ctx context.Context, id uint64) error
	ListByDish(ctx context.Context, dishID uint64) ([]model.Rating, error)
}

// UserLister lists the known raters.
type UserLister interface {
	ListAll(ctx context.Context) ([]model.User, error)
}

// EventPublisher publishes domain events after successful saves.
type EventPublisher interface {
	PublishRatingRecorded(ctx context.Context, event queue.RatingRecordedEvent) error
}

// DishService drives the dish lifecycle: a "new dish" entry immediately
// persists a blank dish and the form then edits dish fields and rating
// rows in place, one write per field edit.
type DishService struct {
	dishes  DishStore
	ratings RatingStore
	users   UserLister
	session *prefs.Session
	writes  *WriteQueue
	pub     EventPublisher
	drafts  singleflight.Group
	now     func() time.Time
	log     *zap.Logger
}

// NewDishService wires the lifecycle service.  pub may be nil when no
// broker is configured; events are then skipped.
func NewDishService(dishes DishStore, ratings RatingStore, users UserLister,
	session *prefs.Session, writes *WriteQueue, pub EventPublisher, log *zap.Logger) *DishService {
	return &DishService{
		dishes:  dishes,
		ratings: ratings,
		users:   users,
		session: session,
		writes:  writes,
		pub:     pub,
		now:     time.Now,
		log:     log.Named("dish"),
	}
}

// CreateDraft persists the blank placeholder dish the "add dish" flow
// edits afterwards.  Entering the flow twice with the same idempotency key
// while the first insert is in flight yields the same dish instead of a
// second record.  An empty key disables deduplication.
func (s *DishService) CreateDraft(ctx context.Context, restaurantID uint64, key string) (*model.Dish, error) {
	if key == "" {
		key = uuid.NewString()
	}
	flightKey := key
	v, err, _ := s.drafts.Do(flightKey, func() (any, error) {
		d := &model.Dish{RestaurantID: restaurantID}
		if err := s.dishes.Create(ctx, d); err != nil {
			return nil, errors.Wrap(err, "create draft dish")
		}
		return d, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.Dish), nil
}

// UpdateDishName saves a name edit, serialized with other writes to the
// same dish.
func (s *DishService) UpdateDishName(ctx context.Context, id uint64, name string) error {
	return s.writes.Do(ctx, dishKey(id), func(ctx context.Context) error {
		return s.dishes.UpdateName(ctx, id, name)
	})
}

// UpdateDishComments saves a comments edit, serialized per dish.
func (s *DishService) UpdateDishComments(ctx context.Context, id uint64, comments string) error {
	return s.writes.Do(ctx, dishKey(id), func(ctx context.Context) error {
		return s.dishes.UpdateComments(ctx, id, comments)
	})
}

// RatingRows returns the rating rows to render for a dish.  When the dish
// has no persisted ratings, a single synthetic unsaved row (ID 0) is
// returned, prefilled with the account's last-used rating date — or
// today's date when none is stored — and the first known rater.
func (s *DishService) RatingRows(ctx context.Context, accountID, dishID uint64) ([]model.Rating, error) {
	rows, err := s.ratings.ListByDish(ctx, dishID)
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 {
		return rows, nil
	}
	return []model.Rating{s.blankRow(ctx, accountID, dishID)}, nil
}

// BlankRow returns one more synthetic unsaved row for the "add another
// rating" action, with the same prefills as the initial row.
func (s *DishService) BlankRow(ctx context.Context, accountID, dishID uint64) model.Rating {
	return s.blankRow(ctx, accountID, dishID)
}

func (s *DishService) blankRow(ctx context.Context, accountID, dishID uint64) model.Rating {
	date := s.now().UTC().Format(dateLayout)
	if stored, err := s.session.Store().Get(ctx, accountID, prefs.KeyLastRatingDate, ""); err == nil && stored != "" {
		date = stored
	}
	row := model.Rating{DishID: dishID, DateRated: &date}
	if users, err := s.users.ListAll(ctx); err == nil && len(users) > 0 {
		first := users[0]
		row.UserID = &first.ID
		row.UserName = &first.Name
	}
	return row
}

// RatingPatch is one form edit to a saved rating row.  Nil fields keep
// their stored values; the form saves one field at a time.
type RatingPatch struct {
	UserID    *uint64
	Value     *int
	Comments  *string
	DateRated *string
}

// PatchRating applies a field edit to a saved rating and returns the
// merged row.  The read, merge and write all happen while holding the
// rating's write lane: two rapid edits of different fields can no longer
// both read the same stale row and clobber each other, the later edit
// merges onto what the earlier one wrote.
func (s *DishService) PatchRating(ctx context.Context, accountID, id uint64, p RatingPatch) (*model.Rating, error) {
	var merged *model.Rating
	err := s.writes.Do(ctx, ratingKey(id), func(ctx context.Context) error {
		rt, err := s.ratings.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if p.UserID != nil {
			rt.UserID = p.UserID
		}
		if p.Value != nil {
			rt.Value = p.Value
		}
		if p.Comments != nil {
			rt.Comments = p.Comments
		}
		if p.DateRated != nil {
			rt.DateRated = p.DateRated
		}
		if err := s.ratings.Update(ctx, rt); err != nil {
			return errors.Wrap(err, "update rating")
		}
		merged = rt
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.recordSaved(ctx, accountID, merged)
	return merged, nil
}

// SaveRating saves a rating row: an unsaved row (ID 0) is inserted, a
// saved one goes through PatchRating so the update is serialized with
// other edits of the same rating.  A saved date becomes the account's new
// last-used rating date, and a rating.recorded event goes out; event
// failures are logged and ignored, the save already happened.
func (s *DishService) SaveRating(ctx context.Context, accountID uint64, rt *model.Rating) error {
	if rt.ID != 0 {
		merged, err := s.PatchRating(ctx, accountID, rt.ID, RatingPatch{
			UserID:    rt.UserID,
			Value:     rt.Value,
			Comments:  rt.Comments,
			DateRated: rt.DateRated,
		})
		if err != nil {
			return err
		}
		*rt = *merged
		return nil
	}
	if err := s.ratings.Create(ctx, rt); err != nil {
		return errors.Wrap(err, "insert rating")
	}
	s.recordSaved(ctx, accountID, rt)
	return nil
}

// recordSaved runs the after-save effects shared by inserts and patches.
func (s *DishService) recordSaved(ctx context.Context, accountID uint64, rt *model.Rating) {
	if rt.DateRated != nil && *rt.DateRated != "" {
		if err := s.session.Store().Set(ctx, accountID, prefs.KeyLastRatingDate, *rt.DateRated); err != nil {
			s.log.Warn("store last rating date failed", zap.Error(err))
		}
	}
	s.publishRecorded(ctx, rt)
}

// DeleteRating removes a saved rating row.
func (s *DishService) DeleteRating(ctx context.Context, id uint64) error {
	return s.writes.Do(ctx, ratingKey(id), func(ctx context.Context) error {
		return s.ratings.Delete(ctx, id)
	})
}

// DeleteDish removes the dish's ratings and then the dish itself.
func (s *DishService) DeleteDish(ctx context.Context, id uint64) error {
	return s.dishes.DeleteCascade(ctx, id)
}

func (s *DishService) publishRecorded(ctx context.Context, rt *model.Rating) {
	if s.pub == nil {
		return
	}
	ev := queue.RatingRecordedEvent{
		RatingID:   rt.ID,
		DishID:     rt.DishID,
		UserID:     rt.UserID,
		Value:      rt.Value,
		RecordedAt: s.now().UTC().Format(time.RFC3339),
	}
	if rt.UserName != nil {
		ev.UserName = *rt.UserName
	}
	if rt.DateRated != nil {
		ev.DateRated = *rt.DateRated
	}
	if dish, err := s.dishes.GetByID(ctx, rt.DishID); err == nil {
		ev.DishName = dish.Name
		ev.RestaurantID = dish.RestaurantID
	}
	if err := s.pub.PublishRatingRecorded(ctx, ev); err != nil {
		s.log.Warn("publish rating.recorded failed", zap.Error(err))
	}
}

func dishKey(id uint64) string   { return "dish:" + strconv.FormatUint(id, 10) }
func ratingKey(id uint64) string { return "rating:" + strconv.FormatUint(id, 10) }
