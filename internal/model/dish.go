package model

// Dish is a single menu item of a restaurant.  A dish is created as a
// blank placeholder the moment the user opens the "add dish" flow and is
// filled in afterwards through field-level updates.  Deleting a dish
// removes its ratings first.
//
// Fields:
//  ID           – primary key identifier.
//  RestaurantID – reference to restaurants.id (required).
//  Name         – dish name (may be empty while still a draft).
//  Comments     – free-text notes ("adds/removes" etc.).
//  ImageURL     – public URL of the dish photo (nullable).
//  CreatedAt    – timestamp when the row was created.
//  UpdatedAt    – timestamp of last update.
type Dish struct {
	ID           uint64  `json:"id"`            // dishes.id
	RestaurantID uint64  `json:"restaurant_id"` // dishes.restaurant_id
	Name         string  `json:"name"`          // dishes.name
	Comments     string  `json:"comments"`      // dishes.comments
	ImageURL     *string `json:"image_url"`     // dishes.image_url (nullable)
	CreatedAt    string  `json:"created_at"`    // dishes.created_at
	UpdatedAt    string  `json:"updated_at"`    // dishes.updated_at
}
