package loadparameters

import "document-workflow/internal/models"

type Input struct {
	DocumentTypeCode string `json:"documentTypeCode"`
	// Optional; enables pre-fill.
	TaxID string `json:"taxId,omitempty"`
}

// Schema is the ordered parameter set of a document type together with the
// initial value of every parameter in it, and nothing else.
type Schema struct {
	DocumentTypeCode string                     `json:"documentTypeCode"`
	Parameters       []models.ResolvedParameter `json:"parameters"`
	InitialValues    map[int]models.ParamValue  `json:"initialValues"`
	Prefilled        bool                       `json:"prefilled"`
}

type Output struct {
	DocumentTypeCode string                     `json:"documentTypeCode"`
	Parameters       []models.ResolvedParameter `json:"parameters"`
	InitialValues    map[int]models.ParamValue  `json:"initialValues"`
	MandatoryCount   int                        `json:"mandatoryCount"`
	UnavailableLists []string                   `json:"unavailableLists"`
	Prefilled        bool                       `json:"prefilled"`
}
