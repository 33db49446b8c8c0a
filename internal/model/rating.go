package model

// Rating is one person's star rating of a dish on a given date.  Every
// field except the dish reference is optional: a row can exist with no
// value yet (the user opened the form but only picked a date, say).
// Aggregates only count rows whose Value is a valid 1–5 integer.
//
// Fields:
//  ID        – primary key identifier.
//  DishID    – reference to dishes.id (required).
//  UserID    – reference to users.id of the rater (nullable).
//  Value     – star value 1..5 (nullable).
//  Comments  – free-text comments (nullable).
//  DateRated – date the dish was eaten, "YYYY-MM-DD" (nullable).
//  UserName  – rater display name when the select joined users (not a column).
type Rating struct {
	ID        uint64  `json:"id"`         // ratings.id
	DishID    uint64  `json:"dish_id"`    // ratings.dish_id
	UserID    *uint64 `json:"user_id"`    // ratings.user_id (nullable)
	Value     *int    `json:"value"`      // ratings.value (nullable, 1..5)
	Comments  *string `json:"comments"`   // ratings.comments (nullable)
	DateRated *string `json:"date_rated"` // ratings.date_rated (nullable DATE)
	UserName  *string `json:"user_name,omitempty"` // joined users.name, if requested
}
