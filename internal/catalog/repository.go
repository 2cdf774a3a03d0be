package catalog

import (
	"context"
	"encoding/json"
	"fmt"

	"document-workflow/internal/models"

	"github.com/jmoiron/sqlx"
)

const (
	queryDocumentTypes = `SELECT code, name, internal FROM document_types ORDER BY code`

	queryDefinitions = `
		SELECT id, name, kind, mandatory, COALESCE(unit, '') AS unit, sort_order,
		       COALESCE(reference_list, '') AS reference_list,
		       COALESCE(option_key_field, '') AS option_key_field,
		       COALESCE(option_label_field, '') AS option_label_field
		FROM parameter_definitions`

	queryMappings = `
		SELECT document_type_code, parameter_id, applies_on_creation
		FROM document_type_parameters
		ORDER BY document_type_code, position`

	queryReferenceItems = `
		SELECT list_name, item
		FROM reference_list_items
		ORDER BY list_name, position`
)

// Repository loads the catalog from Postgres.
type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

type referenceItemRow struct {
	ListName string `db:"list_name"`
	Item     []byte `db:"item"`
}

// Load reads every catalog table in one pass.
func (r *Repository) Load(ctx context.Context) (*Catalog, error) {
	var types []models.DocumentType
	if err := r.db.SelectContext(ctx, &types, queryDocumentTypes); err != nil {
		return nil, fmt.Errorf("load document types: %w", err)
	}

	var definitions []models.ParameterDefinition
	if err := r.db.SelectContext(ctx, &definitions, queryDefinitions); err != nil {
		return nil, fmt.Errorf("load parameter definitions: %w", err)
	}
	for _, d := range definitions {
		if !d.Kind.Valid() {
			return nil, fmt.Errorf("parameter %d has unknown kind %q", d.ID, d.Kind)
		}
	}

	var mappings []models.DocumentTypeParameter
	if err := r.db.SelectContext(ctx, &mappings, queryMappings); err != nil {
		return nil, fmt.Errorf("load parameter mappings: %w", err)
	}

	var rows []referenceItemRow
	if err := r.db.SelectContext(ctx, &rows, queryReferenceItems); err != nil {
		return nil, fmt.Errorf("load reference lists: %w", err)
	}

	var lists []models.ReferenceList
	index := make(map[string]int)
	for _, row := range rows {
		var item map[string]interface{}
		if err := json.Unmarshal(row.Item, &item); err != nil {
			return nil, fmt.Errorf("reference list %s: invalid item: %w", row.ListName, err)
		}
		i, ok := index[row.ListName]
		if !ok {
			i = len(lists)
			index[row.ListName] = i
			lists = append(lists, models.ReferenceList{Name: row.ListName})
		}
		lists[i].Items = append(lists[i].Items, item)
	}

	return New(types, definitions, mappings, lists), nil
}
