// internal/workers/document/load-parameters/handler_test.go
package loadparameters

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"document-workflow/internal/catalog"
	apperrors "document-workflow/internal/common/errors"
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

func createTestConfig() *Config {
	return &Config{Timeout: 5 * time.Second, PrefillEnabled: true}
}

// createTestCatalog: type A has two mandatory parameters plus a boolean and a
// reference with a mismatched list name; B has none; C has a parameter that
// only applies after creation.
func createTestCatalog() *catalog.Catalog {
	types := []models.DocumentType{
		{Code: "A", Name: "Licence"},
		{Code: "B", Name: "Complaint"},
		{Code: "C", Name: "Inspection"},
	}
	defs := []models.ParameterDefinition{
		{ID: 1, Name: "Area", Kind: models.KindNumeric, Mandatory: true, Unit: "m2", SortOrder: 2},
		{ID: 2, Name: "Use", Kind: models.KindReference, Mandatory: true, SortOrder: 1,
			ReferenceList: "uses", OptionKeyField: "code", OptionLabelField: "label"},
		{ID: 3, Name: "Urgent", Kind: models.KindBoolean, SortOrder: 2},
		{ID: 4, Name: "Zone", Kind: models.KindReference, SortOrder: 5,
			ReferenceList: "ZoningPlans", OptionKeyField: "id", OptionLabelField: "name"},
		{ID: 5, Name: "Inspector", Kind: models.KindText, SortOrder: 1},
	}
	mappings := []models.DocumentTypeParameter{
		{DocumentTypeCode: "A", ParameterID: 1, AppliesOnCreation: true},
		{DocumentTypeCode: "A", ParameterID: 2, AppliesOnCreation: true},
		{DocumentTypeCode: "A", ParameterID: 3, AppliesOnCreation: true},
		{DocumentTypeCode: "A", ParameterID: 4, AppliesOnCreation: true},
		{DocumentTypeCode: "C", ParameterID: 5, AppliesOnCreation: false},
	}
	lists := []models.ReferenceList{
		{Name: "BuildingUses", Items: []map[string]interface{}{
			{"code": "R", "label": "Residential"},
			{"code": "C", "label": "Commercial"},
			{"label": "no key"},
		}},
	}
	return catalog.New(types, defs, mappings, lists)
}

type stubPrefill struct {
	values map[int]models.ParamValue
	err    error
	calls  int
}

func (s *stubPrefill) LatestValues(context.Context, string, string) (map[int]models.ParamValue, error) {
	s.calls++
	return s.values, s.err
}

func newTestService(t *testing.T, prefill PrefillSource) *Service {
	return NewService(ServiceDependencies{
		Catalog: catalog.NewStaticStore(createTestCatalog()),
		Prefill: prefill,
		Logger:  logger.NewTestLogger(t),
	}, createTestConfig())
}

func parameterIDs(params []models.ResolvedParameter) []int {
	ids := make([]int, len(params))
	for i, p := range params {
		ids[i] = p.ID
	}
	return ids
}

// ==========================
// Normalization Tests
// ==========================

func TestNormalizeBoolean(t *testing.T) {
	tests := []struct {
		name  string
		input interface{}
		want  string
	}{
		{"bool true", true, "1"},
		{"bool false", false, "0"},
		{"int one", 1, "1"},
		{"int zero", 0, "0"},
		{"float one", 1.0, "1"},
		{"string true", "true", "1"},
		{"string one", "1", "1"},
		{"string zero", "0", "0"},
		{"string false", "false", "0"},
		{"padded", " true ", "1"},
		{"garbage", "maybe", "0"},
		{"nil", nil, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeBoolean(tt.input))
		})
	}
}

func TestNormalizeValue(t *testing.T) {
	assert.Equal(t, "", NormalizeValue(models.KindNumeric, nil))
	assert.Equal(t, "12.5", NormalizeValue(models.KindNumeric, 12.5))
	assert.Equal(t, "0", NormalizeValue(models.KindNumeric, "0"))
	assert.Equal(t, "free", NormalizeValue(models.KindText, "free"))
	assert.Equal(t, "1", NormalizeValue(models.KindBoolean, "1"))
}

func TestResolveReference_Fallbacks(t *testing.T) {
	c := createTestCatalog()

	exact := catalog.New(nil, nil, nil, []models.ReferenceList{
		{Name: "uses", Items: []map[string]interface{}{{"code": 7, "label": "Seven"}}},
		{Name: "BuildingUses"},
	})
	def, _ := c.Definition(2)
	rp := ResolveReference(exact, def)
	assert.Equal(t, "uses", rp.ResolvedList)
	assert.Equal(t, []models.ReferenceOption{{Key: "7", Label: "Seven"}}, rp.Options)

	rp = ResolveReference(c, def)
	assert.Equal(t, "BuildingUses", rp.ResolvedList)
	assert.Len(t, rp.Options, 2)
	assert.False(t, rp.ListUnavailable)

	zone, _ := c.Definition(4)
	rp = ResolveReference(c, zone)
	assert.True(t, rp.ListUnavailable)
	assert.Equal(t, models.KindText, rp.EffectiveKind())
	assert.Empty(t, rp.Options)

	// A short list name inside the reference name is not a match.
	short := catalog.New(nil, nil, nil, []models.ReferenceList{
		{Name: "a", Items: []map[string]interface{}{{"code": "X", "label": "Unrelated"}}},
	})
	rp = ResolveReference(short, models.ParameterDefinition{
		ID: 9, Name: "Municipality", Kind: models.KindReference,
		ReferenceList: "municipalities", OptionKeyField: "code", OptionLabelField: "label",
	})
	assert.True(t, rp.ListUnavailable)
	assert.Empty(t, rp.ResolvedList)
	assert.Empty(t, rp.Options)
}

// ==========================
// Service Tests
// ==========================

func TestService_Load_FiltersAndSortsStably(t *testing.T) {
	svc := newTestService(t, nil)

	schema, err := svc.Load(context.Background(), "A", "")
	require.NoError(t, err)

	// sort order 1, 2, 2, 5; Area precedes Urgent by mapping order
	assert.Equal(t, []int{2, 1, 3, 4}, parameterIDs(schema.Parameters))
	assert.Equal(t, models.ParamValue{Value: ""}, schema.InitialValues[1])
	assert.Equal(t, models.ParamValue{Value: "0"}, schema.InitialValues[3])
	assert.Len(t, schema.InitialValues, 4)
}

func TestService_Load_ExcludesParametersNotAppliedOnCreation(t *testing.T) {
	svc := newTestService(t, nil)

	schema, err := svc.Load(context.Background(), "C", "")
	require.NoError(t, err)
	assert.Empty(t, schema.Parameters)
	assert.Empty(t, schema.InitialValues)
}

func TestService_Load_UnknownType(t *testing.T) {
	svc := newTestService(t, nil)

	_, err := svc.Load(context.Background(), "Z", "")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeDocumentTypeNotFound))
}

func TestService_Load_Idempotent(t *testing.T) {
	prefill := &stubPrefill{values: map[int]models.ParamValue{1: {Value: "80"}}}
	svc := newTestService(t, prefill)

	first, err := svc.Load(context.Background(), "A", "123456789")
	require.NoError(t, err)
	second, err := svc.Load(context.Background(), "A", "123456789")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestService_Load_SwitchingTypeLeavesNoStaleKeys(t *testing.T) {
	svc := newTestService(t, nil)

	a, err := svc.Load(context.Background(), "A", "")
	require.NoError(t, err)
	assert.NotEmpty(t, a.InitialValues)

	b, err := svc.Load(context.Background(), "B", "")
	require.NoError(t, err)
	assert.Empty(t, b.Parameters)
	assert.Empty(t, b.InitialValues)
}

func TestService_Load_Prefill(t *testing.T) {
	prefill := &stubPrefill{values: map[int]models.ParamValue{
		1:  {Value: "120", Memo: "approx"},
		2:  {Value: "X"}, // not an option
		3:  {Value: "true"},
		4:  {Value: "North"},
		99: {Value: "stale"},
	}}
	svc := newTestService(t, prefill)

	schema, err := svc.Load(context.Background(), "A", "123456789")
	require.NoError(t, err)

	assert.True(t, schema.Prefilled)
	assert.Equal(t, models.ParamValue{Value: "120", Memo: "approx"}, schema.InitialValues[1])
	assert.Equal(t, "", schema.InitialValues[2].Value)
	assert.Equal(t, "1", schema.InitialValues[3].Value)
	assert.Equal(t, "North", schema.InitialValues[4].Value)
	assert.NotContains(t, schema.InitialValues, 99)
}

func TestService_Load_PrefillFailureIgnored(t *testing.T) {
	prefill := &stubPrefill{err: errors.New("connection reset")}
	svc := newTestService(t, prefill)

	schema, err := svc.Load(context.Background(), "A", "123456789")
	require.NoError(t, err)
	assert.False(t, schema.Prefilled)
	assert.Equal(t, 1, prefill.calls)
}

func TestService_Load_NoPrefillWithoutTaxID(t *testing.T) {
	prefill := &stubPrefill{}
	svc := newTestService(t, prefill)

	_, err := svc.Load(context.Background(), "A", "")
	require.NoError(t, err)
	assert.Zero(t, prefill.calls)
}

// ==========================
// Prefill Repository Tests
// ==========================

func TestPrefillRepository_LatestValues(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(queryLatestValues)).
		WithArgs("123456789", "A").
		WillReturnRows(sqlmock.NewRows([]string{"parameter_id", "value", "memo"}).
			AddRow(1, "120", "approx").
			AddRow(3, "1", ""))

	repo := NewPrefillRepository(sqlx.NewDb(db, "postgres"))
	values, err := repo.LatestValues(context.Background(), "123456789", "A")
	require.NoError(t, err)
	assert.Equal(t, map[int]models.ParamValue{
		1: {Value: "120", Memo: "approx"},
		3: {Value: "1"},
	}, values)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPrefillRepository_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM document_parameter_values").WillReturnError(errors.New("relation does not exist"))

	repo := NewPrefillRepository(sqlx.NewDb(db, "postgres"))
	_, err = repo.LatestValues(context.Background(), "123456789", "A")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeQueryExecutionFailed))
}

// ==========================
// Handler Tests
// ==========================

func TestHandler_Execute(t *testing.T) {
	h := NewHandler(createTestConfig(), newTestService(t, nil), logger.NewTestLogger(t))

	output, err := h.Execute(context.Background(), &Input{DocumentTypeCode: "A"})
	require.NoError(t, err)
	assert.Equal(t, 2, output.MandatoryCount)
	assert.Equal(t, []string{"ZoningPlans"}, output.UnavailableLists)
	assert.Len(t, output.Parameters, 4)
}

func TestHandler_Execute_RequiresDocumentType(t *testing.T) {
	h := NewHandler(createTestConfig(), newTestService(t, nil), logger.NewTestLogger(t))

	_, err := h.Execute(context.Background(), &Input{})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidationFailed))
}
