package model

// Restaurant represents a place whose dishes get rated.  Each restaurant
// optionally references a cuisine.  Deleting a restaurant removes all of
// its dishes and their ratings.  This struct corresponds to a row in the
// `restaurants` table.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – display name of the restaurant (required).
//  Location  – free-text location (nullable).
//  CuisineID – reference to cuisines.id (nullable).
//  CreatedAt – timestamp when the row was created.
//  UpdatedAt – timestamp of last update.
type Restaurant struct {
	ID        uint64  `json:"id"`         // restaurants.id
	Name      string  `json:"name"`       // restaurants.name
	Location  *string `json:"location"`   // restaurants.location (nullable)
	CuisineID *uint64 `json:"cuisine_id"` // restaurants.cuisine_id (nullable)
	CreatedAt string  `json:"created_at"` // restaurants.created_at
	UpdatedAt string  `json:"updated_at"` // restaurants.updated_at
}
