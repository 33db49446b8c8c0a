package model

// Cuisine is a label restaurants can reference (e.g. "Thai", "Mexican").
// Cuisines are created ad hoc from the restaurant form when the wanted
// name is not in the existing list.  Name uniqueness is a convention,
// not a constraint.
//
// Fields:
//  ID   – primary key identifier.
//  Name – cuisine name.
type Cuisine struct {
	ID   uint64 `json:"id"`   // cuisines.id
	Name string `json:"name"` // cuisines.name
}
