package resolveentity

import "document-workflow/internal/models"

type Input struct {
	TaxID string `json:"taxId"`
}

// Result is the outcome of Resolve. Entity is nil when Status is not_found.
type Result struct {
	Status        models.EntityStatus  `json:"entityStatus"`
	Entity        *models.EntityRecord `json:"entity,omitempty"`
	MissingFields []string             `json:"missingFields,omitempty"`
	FromCache     bool                 `json:"-"`
}

type Output struct {
	EntityStatus   models.EntityStatus  `json:"entityStatus"`
	EntityFound    bool                 `json:"entityFound"`
	EntityComplete bool                 `json:"entityComplete"`
	Entity         *models.EntityRecord `json:"entity,omitempty"`
	MissingFields  []string             `json:"missingFields"`
}
