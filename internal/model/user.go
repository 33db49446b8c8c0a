package model

// User is a person who rates dishes.  The list is read-only from the
// application's point of view; rows are provisioned directly in the
// database.  Login accounts are a separate table (see repository.Account).
//
// Fields:
//  ID   – primary key identifier.
//  Name – display name shown next to ratings.
type User struct {
	ID   uint64 `json:"id"`   // users.id
	Name string `json:"name"` // users.name
}
