package model

// Entity is a Wikidata item linked from an article.
type Entity struct {
	// ID is the item identifier, e.g. "Q42".
	ID string `json:"id"`

	// Label is the localized label, or NotAvailable.
	Label string `json:"label"`

	// Description is the localized description, or NotAvailable.
	Description string `json:"description"`
}

// NewEntity creates an Entity, substituting NotAvailable for missing localized fields.
func NewEntity(id, label, description string) *Entity {
	if label == "" {
		label = NotAvailable
	}
	if description == "" {
		description = NotAvailable
	}
	return &Entity{
		ID:          id,
		Label:       label,
		Description: description,
	}
}
