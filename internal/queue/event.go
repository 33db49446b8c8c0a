// Package queue defines message payloads exchanged over the message broker.
package queue

// RatingRecordedEvent is published after a rating row is inserted or
// updated with a star value.  It carries enough context for downstream
// consumers to log or notify without querying the primary database.
type RatingRecordedEvent struct {
	RatingID     uint64  `json:"rating_id"`
	DishID       uint64  `json:"dish_id"`
	DishName     string  `json:"dish_name"`
	RestaurantID uint64  `json:"restaurant_id"`
	UserID       *uint64 `json:"user_id,omitempty"`
	UserName     string  `json:"user_name,omitempty"`
	Value        *int    `json:"value,omitempty"`
	DateRated    string  `json:"date_rated,omitempty"`
	RecordedAt   string  `json:"recorded_at"`
}
