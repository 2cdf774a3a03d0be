// internal/workers/entity/resolve-entity/handler_test.go
package resolveentity

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	apperrors "document-workflow/internal/common/errors"
	"document-workflow/internal/common/backend"
	"document-workflow/internal/common/logger"
	"document-workflow/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{
		Timeout:         5 * time.Second,
		CacheTTL:        time.Minute,
		AllowedPrefixes: DefaultAllowedPrefixes,
	}
}

func completeEntity() *models.EntityRecord {
	return &models.EntityRecord{
		TaxID:        "123456789",
		Name:         "ACME Lda",
		Phone:        "210000000",
		District:     "Lisboa",
		Municipality: "Lisboa",
		Parish:       "Arroios",
		Locality:     "Lisboa",
		PostalCode:   "1000-001",
		Street:       "Avenida Almirante Reis",
	}
}

type fakeBackend struct {
	mu       sync.Mutex
	entities map[string]*models.EntityRecord
	err      error
	lookups  int
	updates  int
}

func newFakeBackend(recs ...*models.EntityRecord) *fakeBackend {
	b := &fakeBackend{entities: map[string]*models.EntityRecord{}}
	for _, r := range recs {
		b.entities[r.TaxID] = r
	}
	return b
}

func (b *fakeBackend) GetEntity(_ context.Context, taxID string) (*models.EntityRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lookups++
	if b.err != nil {
		return nil, b.err
	}
	rec, ok := b.entities[taxID]
	if !ok {
		return nil, backend.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (b *fakeBackend) CreateEntity(_ context.Context, rec *models.EntityRecord) (*models.EntityRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	cp := *rec
	b.entities[rec.TaxID] = &cp
	return &cp, nil
}

func (b *fakeBackend) UpdateEntity(_ context.Context, rec *models.EntityRecord) (*models.EntityRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.updates++
	cp := *rec
	b.entities[rec.TaxID] = &cp
	return &cp, nil
}

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func newTestService(t *testing.T, b EntityBackend, rdb *redis.Client) *Service {
	return NewService(ServiceDependencies{Backend: b, Redis: rdb, Logger: logger.NewTestLogger(t)}, createTestConfig())
}

// ==========================
// Service Tests
// ==========================

func TestService_Resolve_Complete(t *testing.T) {
	b := newFakeBackend(completeEntity())
	svc := newTestService(t, b, nil)

	result, err := svc.Resolve(context.Background(), "123456789")
	require.NoError(t, err)
	assert.Equal(t, models.EntityFound, result.Status)
	assert.Empty(t, result.MissingFields)
	assert.Equal(t, 1, b.lookups)
}

func TestService_Resolve_Incomplete(t *testing.T) {
	rec := completeEntity()
	rec.Phone = ""
	rec.Parish = " "
	svc := newTestService(t, newFakeBackend(rec), nil)

	result, err := svc.Resolve(context.Background(), "123456789")
	require.NoError(t, err)
	assert.Equal(t, models.EntityIncomplete, result.Status)
	assert.Equal(t, []string{"phone", "parish"}, result.MissingFields)
	require.NotNil(t, result.Entity)
	assert.Equal(t, "ACME Lda", result.Entity.Name)
}

func TestService_Resolve_NotFound(t *testing.T) {
	svc := newTestService(t, newFakeBackend(), nil)

	result, err := svc.Resolve(context.Background(), "123456789")
	require.NoError(t, err)
	assert.Equal(t, models.EntityNotFound, result.Status)
	assert.Nil(t, result.Entity)
}

func TestService_Resolve_InvalidTaxIDSkipsLookup(t *testing.T) {
	b := newFakeBackend(completeEntity())
	svc := newTestService(t, b, nil)

	_, err := svc.Resolve(context.Background(), "123456780")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeTaxIDInvalid))
	assert.Equal(t, 0, b.lookups)
}

func TestService_Resolve_TransportError(t *testing.T) {
	b := newFakeBackend()
	b.err = errors.New("dial tcp: connection refused")
	svc := newTestService(t, b, nil)

	_, err := svc.Resolve(context.Background(), "123456789")
	require.Error(t, err)
	stdErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeEntityLookupFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
}

func TestService_Resolve_ReadThroughCache(t *testing.T) {
	mr, rdb := setupRedis(t)
	b := newFakeBackend(completeEntity())
	svc := newTestService(t, b, rdb)

	first, err := svc.Resolve(context.Background(), "123456789")
	require.NoError(t, err)
	assert.False(t, first.FromCache)
	assert.True(t, mr.Exists("entity:123456789"))

	second, err := svc.Resolve(context.Background(), "123456789")
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, 1, b.lookups)
}

func TestService_UpdateEntity_InvalidatesCache(t *testing.T) {
	mr, rdb := setupRedis(t)
	rec := completeEntity()
	rec.Phone = ""
	b := newFakeBackend(rec)
	svc := newTestService(t, b, rdb)

	result, err := svc.Resolve(context.Background(), "123456789")
	require.NoError(t, err)
	require.Equal(t, models.EntityIncomplete, result.Status)

	fixed := *result.Entity
	fixed.Phone = "210000000"
	updated, err := svc.UpdateEntity(context.Background(), &fixed)
	require.NoError(t, err)
	assert.Equal(t, models.EntityFound, updated.Status)
	assert.False(t, mr.Exists("entity:123456789"))

	again, err := svc.Resolve(context.Background(), "123456789")
	require.NoError(t, err)
	assert.Equal(t, models.EntityFound, again.Status)
	assert.Equal(t, 2, b.lookups)
}

func TestService_Resolve_CacheFailureFallsBackToBackend(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	mock.ExpectGet("entity:123456789").SetErr(errors.New("READONLY"))
	b := newFakeBackend(completeEntity())

	cfg := createTestConfig()
	cfg.CacheTTL = 0 // no write-back
	svc := NewService(ServiceDependencies{Backend: b, Redis: rdb, Logger: logger.NewTestLogger(t)}, cfg)

	result, err := svc.Resolve(context.Background(), "123456789")
	require.NoError(t, err)
	assert.Equal(t, models.EntityFound, result.Status)
	assert.Equal(t, 1, b.lookups)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Handler Tests
// ==========================

func TestHandler_Execute(t *testing.T) {
	rec := completeEntity()
	rec.Street = ""
	svc := newTestService(t, newFakeBackend(rec), nil)
	h := NewHandler(createTestConfig(), svc, logger.NewTestLogger(t))

	output, err := h.Execute(context.Background(), &Input{TaxID: "123456789"})
	require.NoError(t, err)
	assert.True(t, output.EntityFound)
	assert.False(t, output.EntityComplete)
	assert.Equal(t, []string{"street"}, output.MissingFields)

	data, err := json.Marshal(output)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"entityStatus":"incomplete"`)
}

func TestHandler_Execute_NotFoundHasEmptyMissingFields(t *testing.T) {
	svc := newTestService(t, newFakeBackend(), nil)
	h := NewHandler(createTestConfig(), svc, logger.NewTestLogger(t))

	output, err := h.Execute(context.Background(), &Input{TaxID: "123456789"})
	require.NoError(t, err)
	assert.False(t, output.EntityFound)
	assert.NotNil(t, output.MissingFields)
}

func TestHandler_Execute_InvalidTaxID(t *testing.T) {
	svc := newTestService(t, newFakeBackend(), nil)
	h := NewHandler(createTestConfig(), svc, logger.NewTestLogger(t))

	_, err := h.Execute(context.Background(), &Input{TaxID: "abc"})
	require.Error(t, err)
	bpmn := apperrors.ConvertToBPMNError(apperrors.Normalize(err))
	assert.Equal(t, "TAX_ID_INVALID", bpmn.Code)
	assert.Equal(t, 0, bpmn.Retries)
}
