// internal/models/entity.go
package models

import "strings"

// EntityStatus is the outcome of an entity lookup.
type EntityStatus string

const (
	EntityFound      EntityStatus = "found"
	EntityIncomplete EntityStatus = "incomplete"
	EntityNotFound   EntityStatus = "not_found"
)

// EntityRecord is a business or individual registered under a tax id.
// Owned by the backend; cached locally per lookup.
type EntityRecord struct {
	TaxID        string `json:"taxId"`
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Email        string `json:"email,omitempty"`
	District     string `json:"district"`
	Municipality string `json:"municipality"`
	Parish       string `json:"parish"`
	Locality     string `json:"locality"`
	PostalCode   string `json:"postalCode"`
	Street       string `json:"street"`
	Door         string `json:"door,omitempty"`
	Floor        string `json:"floor,omitempty"`
	Associate    string `json:"associate,omitempty"`
}

// MissingFields lists the required fields that are blank, in a fixed order.
func (e *EntityRecord) MissingFields() []string {
	required := []struct {
		name  string
		value string
	}{
		{"phone", e.Phone},
		{"district", e.District},
		{"municipality", e.Municipality},
		{"parish", e.Parish},
		{"locality", e.Locality},
		{"postalCode", e.PostalCode},
		{"street", e.Street},
	}

	var missing []string
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// IsComplete reports whether phone, the full administrative hierarchy,
// postal code and street are all present.
func (e *EntityRecord) IsComplete() bool {
	return len(e.MissingFields()) == 0
}

// Address returns the entity's address in request form.
func (e *EntityRecord) Address() Address {
	return Address{
		PostalCode:   e.PostalCode,
		Street:       e.Street,
		Door:         e.Door,
		Floor:        e.Floor,
		District:     e.District,
		Municipality: e.Municipality,
		Parish:       e.Parish,
		Locality:     e.Locality,
	}
}
