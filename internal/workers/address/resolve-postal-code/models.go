package resolvepostalcode

import "document-workflow/internal/models"

type Input struct {
	PostalCode string `json:"postalCode"`
}

// Result holds the directory candidates for one postal code. ManualMode is set
// when nothing matched and the address must be typed in.
type Result struct {
	PostalCode string                    `json:"postalCode"`
	Candidates []models.AddressCandidate `json:"candidates"`
	ManualMode bool                      `json:"manualMode"`
}

type Output struct {
	PostalCode     string                    `json:"postalCode"`
	Candidates     []models.AddressCandidate `json:"candidates"`
	CandidateCount int                       `json:"candidateCount"`
	ManualMode     bool                      `json:"manualMode"`
	// Set when exactly one candidate matched.
	Address *models.Address `json:"address,omitempty"`
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source models.AddressCandidate `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}
