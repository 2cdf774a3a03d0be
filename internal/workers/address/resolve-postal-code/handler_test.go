// internal/workers/address/resolve-postal-code/handler_test.go
package resolvepostalcode

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	apperrors "document-workflow/internal/common/errors"
	"document-workflow/internal/common/logger"
	"document-workflow/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{
		Timeout:       5 * time.Second,
		Index:         "postal_codes",
		MaxCandidates: 10,
	}
}

type fakeDirectory struct {
	entries  map[string][]models.AddressCandidate
	status   int
	requests int32
	lastBody map[string]interface{}
}

func (d *fakeDirectory) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&d.requests, 1)
	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")

	if d.status != 0 {
		w.WriteHeader(d.status)
		w.Write([]byte(`{"error":{"type":"index_not_found_exception"},"status":404}`))
		return
	}

	body, _ := io.ReadAll(r.Body)
	var q map[string]interface{}
	_ = json.Unmarshal(body, &q)
	d.lastBody = q

	code := ""
	if query, ok := q["query"].(map[string]interface{}); ok {
		if term, ok := query["term"].(map[string]interface{}); ok {
			code, _ = term["postal_code"].(string)
		}
	}

	hits := []map[string]interface{}{}
	for _, c := range d.entries[code] {
		hits = append(hits, map[string]interface{}{"_source": c})
	}
	json.NewEncoder(w).Encode(map[string]interface{}{
		"hits": map[string]interface{}{
			"total": map[string]interface{}{"value": len(hits)},
			"hits":  hits,
		},
	})
}

func newTestService(t *testing.T, dir *fakeDirectory) *Service {
	t.Helper()
	srv := httptest.NewServer(dir)
	t.Cleanup(srv.Close)

	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)

	return NewService(ServiceDependencies{Elasticsearch: es, Logger: logger.NewTestLogger(t)}, createTestConfig())
}

func lisbonCandidates() []models.AddressCandidate {
	return []models.AddressCandidate{
		{PostalCode: "1000-001", Street: "Avenida Almirante Reis", District: "Lisboa", Municipality: "Lisboa", Parish: "Arroios", Locality: "Lisboa"},
		{PostalCode: "1000-001", Street: "Rua Pascoal de Melo", District: "Lisboa", Municipality: "Lisboa", Parish: "Arroios", Locality: "Lisboa"},
	}
}

// ==========================
// Service Tests
// ==========================

func TestService_ResolveByPostalCode_Candidates(t *testing.T) {
	dir := &fakeDirectory{entries: map[string][]models.AddressCandidate{"1000-001": lisbonCandidates()}}
	svc := newTestService(t, dir)

	result, err := svc.ResolveByPostalCode(context.Background(), "1000001")
	require.NoError(t, err)
	assert.Equal(t, "1000-001", result.PostalCode)
	assert.Len(t, result.Candidates, 2)
	assert.False(t, result.ManualMode)
	assert.EqualValues(t, 10, dir.lastBody["size"])
}

func TestService_ResolveByPostalCode_EmptyForcesManualMode(t *testing.T) {
	svc := newTestService(t, &fakeDirectory{})

	result, err := svc.ResolveByPostalCode(context.Background(), "1234-567")
	require.NoError(t, err)
	assert.True(t, result.ManualMode)
	assert.Empty(t, result.Candidates)

	addr := &models.Address{PostalCode: "1234-567", Street: "Rua X", Door: "1", Floor: "2", District: "Braga"}
	ApplyResult(addr, result)
	assert.Equal(t, models.Address{PostalCode: "1234-567"}, *addr)
}

func TestService_ResolveByPostalCode_IncompleteSkipsQuery(t *testing.T) {
	dir := &fakeDirectory{}
	svc := newTestService(t, dir)

	_, err := svc.ResolveByPostalCode(context.Background(), "1234-56")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodePostalCodeInvalid))
	assert.Zero(t, atomic.LoadInt32(&dir.requests))
}

func TestService_ResolveByPostalCode_MissingIndex(t *testing.T) {
	svc := newTestService(t, &fakeDirectory{status: http.StatusNotFound})

	_, err := svc.ResolveByPostalCode(context.Background(), "1234-567")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeIndexNotFound))
}

// ==========================
// Handler Tests
// ==========================

func TestHandler_Execute_SingleCandidateFillsAddress(t *testing.T) {
	dir := &fakeDirectory{entries: map[string][]models.AddressCandidate{
		"1000-001": lisbonCandidates()[:1],
	}}
	h := NewHandler(createTestConfig(), newTestService(t, dir), logger.NewTestLogger(t))

	output, err := h.Execute(context.Background(), &Input{PostalCode: "1000-001"})
	require.NoError(t, err)
	assert.Equal(t, 1, output.CandidateCount)
	require.NotNil(t, output.Address)
	assert.Equal(t, "Avenida Almirante Reis", output.Address.Street)
}

func TestHandler_Execute_MultipleCandidatesLeaveChoiceOpen(t *testing.T) {
	dir := &fakeDirectory{entries: map[string][]models.AddressCandidate{"1000-001": lisbonCandidates()}}
	h := NewHandler(createTestConfig(), newTestService(t, dir), logger.NewTestLogger(t))

	output, err := h.Execute(context.Background(), &Input{PostalCode: "1000-001"})
	require.NoError(t, err)
	assert.Equal(t, 2, output.CandidateCount)
	assert.Nil(t, output.Address)
	assert.False(t, output.ManualMode)
}
