package main

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"document-workflow/internal/catalog"
	"document-workflow/internal/models"
	"document-workflow/pkg/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestCatalog() *catalog.Catalog {
	return catalog.New(
		[]models.DocumentType{
			{Code: "LIC", Name: "Licence"},
			{Code: "INT", Name: "Internal memo", Internal: true},
		},
		[]models.ParameterDefinition{
			{ID: 1, Name: "Area", Kind: models.KindNumeric, Mandatory: true, SortOrder: 1},
			{ID: 2, Name: "Use", Kind: models.KindReference, SortOrder: 2,
				ReferenceList: "uses", OptionKeyField: "code", OptionLabelField: "label"},
		},
		[]models.DocumentTypeParameter{
			{DocumentTypeCode: "LIC", ParameterID: 1, AppliesOnCreation: true},
			{DocumentTypeCode: "LIC", ParameterID: 2, AppliesOnCreation: true},
		},
		[]models.ReferenceList{
			{Name: "BuildingUses", Items: []map[string]interface{}{
				{"code": "R", "label": "Residential"},
			}},
		},
	)
}

func staticOpener(c *catalog.Catalog, err error) catalogOpener {
	return func(context.Context, string) (*catalog.Catalog, error) {
		return c, err
	}
}

func run(t *testing.T, open catalogOpener, args ...string) (string, error) {
	t.Helper()
	if open == nil {
		open = staticOpener(createTestCatalog(), nil)
	}
	root := newRootCmd(open)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// ==========================
// taxid / postal
// ==========================

func TestTaxIDValidate(t *testing.T) {
	out, err := run(t, nil, "taxid", "validate", "512345678")
	require.NoError(t, err)
	assert.Contains(t, out, "512345678\tvalid")

	out, err = run(t, nil, "taxid", "validate", "512345678", "512345670", "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 of 3")
	assert.Contains(t, out, "512345670\tinvalid (check digit should be 8)")
	assert.Contains(t, out, "abc\tinvalid\n")
}

func TestTaxIDValidate_Prefixes(t *testing.T) {
	_, err := run(t, nil, "taxid", "validate", "--prefixes", "9", "512345678")
	assert.Error(t, err)
}

func TestPostalFormat(t *testing.T) {
	out, err := run(t, nil, "postal", "format", "1000001", "4000 1", "12")
	require.NoError(t, err)
	assert.Contains(t, out, "1000-001\tcomplete")
	assert.Contains(t, out, "4000-1\tincomplete")
	assert.Contains(t, out, "\"12\"\t12\tincomplete")
}

// ==========================
// catalog
// ==========================

func TestCatalogShow_Types(t *testing.T) {
	out, err := run(t, nil, "catalog", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "LIC")
	assert.NotContains(t, out, "INT")

	out, err = run(t, nil, "catalog", "show", "--internal")
	require.NoError(t, err)
	assert.Contains(t, out, "Internal memo")
	assert.NotContains(t, out, "Licence")
}

func TestCatalogShow_TypeSchema(t *testing.T) {
	out, err := run(t, nil, "catalog", "show", "--type", "LIC")
	require.NoError(t, err)
	assert.Contains(t, out, "Area")
	assert.Contains(t, out, "numeric")
	assert.Contains(t, out, "R")

	out, err = run(t, nil, "catalog", "show", "--type", "LIC", "--json")
	require.NoError(t, err)
	var schema struct {
		DocumentTypeCode string `json:"documentTypeCode"`
		Parameters       []struct {
			ID int `json:"id"`
		} `json:"parameters"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &schema))
	assert.Equal(t, "LIC", schema.DocumentTypeCode)
	assert.Len(t, schema.Parameters, 2)
}

func TestCatalogShow_Errors(t *testing.T) {
	_, err := run(t, nil, "catalog", "show", "--type", "NOPE")
	assert.Error(t, err)

	_, err = run(t, staticOpener(nil, stderrors.New("connection refused")), "catalog", "show")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

// ==========================
// workers
// ==========================

func TestWorkersValidate_ShippedRegistry(t *testing.T) {
	path := filepath.Join("..", "..", "..", "configs", "worker-registry.json")

	out, err := run(t, nil, "workers", "validate", "--path", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Found 4 workers")
}

func TestWorkersSetStatus(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("..", "..", "..", "configs", "worker-registry.json"))
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "registry.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	_, err = run(t, nil, "workers", "set-status", "create-document", registry.StatusVerified, "--path", path)
	require.NoError(t, err)

	reg, err := registry.Load(path)
	require.NoError(t, err)
	w, ok := reg.Find("create-document")
	require.True(t, ok)
	assert.Equal(t, registry.StatusVerified, w.Status)

	out, err := run(t, nil, "workers", "list", "--path", path)
	require.NoError(t, err)
	assert.Contains(t, out, "verified")
}
