package catalog

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"document-workflow/internal/common/logger"
	"document-workflow/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func setupMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}

func expectCatalogQueries(mock sqlmock.Sqlmock) {
	mock.ExpectQuery(regexp.QuoteMeta(queryDocumentTypes)).
		WillReturnRows(sqlmock.NewRows([]string{"code", "name", "internal"}).
			AddRow("LIC", "Licence", false).
			AddRow("INT", "Internal memo", true))

	mock.ExpectQuery("SELECT id, name, kind").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "kind", "mandatory", "unit", "sort_order",
			"reference_list", "option_key_field", "option_label_field",
		}).
			AddRow(1, "Area", "numeric", true, "m2", 2, "", "", "").
			AddRow(2, "Use", "reference", true, "", 1, "Uses", "code", "label"))

	mock.ExpectQuery("FROM document_type_parameters").
		WillReturnRows(sqlmock.NewRows([]string{"document_type_code", "parameter_id", "applies_on_creation"}).
			AddRow("LIC", 1, true).
			AddRow("LIC", 2, true))

	mock.ExpectQuery("FROM reference_list_items").
		WillReturnRows(sqlmock.NewRows([]string{"list_name", "item"}).
			AddRow("Uses", []byte(`{"code":"R","label":"Residential"}`)).
			AddRow("Uses", []byte(`{"code":"C","label":"Commercial"}`)).
			AddRow("Districts", []byte(`{"id":11,"name":"Lisboa"}`)))
}

// ==========================
// Repository Tests
// ==========================

func TestRepository_Load(t *testing.T) {
	db, mock := setupMockDB(t)
	expectCatalogQueries(mock)

	c, err := NewRepository(db).Load(context.Background())
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	lic, ok := c.DocumentType("LIC")
	require.True(t, ok)
	assert.Equal(t, "Licence", lic.Name)

	assert.Len(t, c.DocumentTypes(false), 1)
	assert.Len(t, c.DocumentTypes(true), 1)

	use, ok := c.Definition(2)
	require.True(t, ok)
	assert.Equal(t, models.KindReference, use.Kind)
	assert.Equal(t, "Uses", use.ReferenceList)

	uses, ok := c.ReferenceList("Uses")
	require.True(t, ok)
	assert.Len(t, uses.Items, 2)
	assert.Equal(t, []string{"Districts", "Uses"}, c.ReferenceListNames())
	assert.Len(t, c.Mappings(), 2)
}

func TestRepository_Load_UnknownKind(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta(queryDocumentTypes)).
		WillReturnRows(sqlmock.NewRows([]string{"code", "name", "internal"}))
	mock.ExpectQuery("SELECT id, name, kind").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "kind", "mandatory", "unit", "sort_order",
			"reference_list", "option_key_field", "option_label_field",
		}).AddRow(9, "Colour", "colour", false, "", 1, "", "", ""))

	_, err := NewRepository(db).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown kind")
}

// ==========================
// Store Tests
// ==========================

type stubLoader struct {
	catalog *Catalog
	err     error
}

func (s *stubLoader) Load(context.Context) (*Catalog, error) {
	return s.catalog, s.err
}

func TestStore_RefreshKeepsPreviousOnError(t *testing.T) {
	first := New([]models.DocumentType{{Code: "A", Name: "Type A"}}, nil, nil, nil)
	loader := &stubLoader{catalog: first}
	store := NewStore(loader, logger.NewNoOpLogger())

	_, ok := store.Get().DocumentType("A")
	assert.False(t, ok, "store starts empty")

	require.NoError(t, store.Refresh(context.Background()))
	_, ok = store.Get().DocumentType("A")
	assert.True(t, ok)

	loader.catalog, loader.err = nil, errors.New("connection refused")
	assert.Error(t, store.Refresh(context.Background()))
	assert.Same(t, first, store.Get())
}

func TestCatalog_IsolatedCopies(t *testing.T) {
	mappings := []models.DocumentTypeParameter{{DocumentTypeCode: "A", ParameterID: 1, AppliesOnCreation: true}}
	c := New(nil, nil, mappings, nil)

	mappings[0].ParameterID = 99
	got := c.Mappings()
	assert.Equal(t, 1, got[0].ParameterID)

	got[0].ParameterID = 42
	assert.Equal(t, 1, c.Mappings()[0].ParameterID)
}
