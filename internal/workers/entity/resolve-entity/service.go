package resolveentity

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"document-workflow/internal/common/backend"
	"document-workflow/internal/common/errors"
	"document-workflow/internal/common/logger"
	"document-workflow/internal/common/metrics"
	"document-workflow/internal/common/observability"
	"document-workflow/internal/models"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const cacheKeyPrefix = "entity:"

// EntityBackend is the part of the backend the resolver needs.
type EntityBackend interface {
	GetEntity(ctx context.Context, taxID string) (*models.EntityRecord, error)
	CreateEntity(ctx context.Context, rec *models.EntityRecord) (*models.EntityRecord, error)
	UpdateEntity(ctx context.Context, rec *models.EntityRecord) (*models.EntityRecord, error)
}

type ServiceDependencies struct {
	Backend EntityBackend
	// Optional; nil disables caching.
	Redis  *redis.Client
	Logger logger.Logger
}

type Service struct {
	config    *Config
	backend   EntityBackend
	redis     *redis.Client
	validator TaxIDValidator
	logger    logger.Logger
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	return &Service{
		config:    config,
		backend:   deps.Backend,
		redis:     deps.Redis,
		validator: NewTaxIDValidator(config.AllowedPrefixes),
		logger:    deps.Logger.WithFields(map[string]interface{}{"component": "entity-resolver"}),
	}
}

// ValidTaxID exposes the configured checksum rule.
func (s *Service) ValidTaxID(taxID string) bool {
	return s.validator.Valid(taxID)
}

// Resolve validates the tax id and looks the entity up. Invalid ids fail with
// TAX_ID_INVALID before any network call; valid ids cause exactly one lookup
// (cache or backend).
func (s *Service) Resolve(ctx context.Context, taxID string) (*Result, error) {
	if !s.validator.Valid(taxID) {
		metrics.LookupsTotal.WithLabelValues("entity", "invalid").Inc()
		return nil, errors.NewTaxIDInvalidError(taxID)
	}

	ctx, span := observability.Tracer().Start(ctx, "entity.resolve")
	span.SetAttributes(attribute.String("taxId", taxID))
	defer span.End()

	start := time.Now()
	defer func() {
		metrics.LookupDuration.WithLabelValues("entity").Observe(time.Since(start).Seconds())
	}()

	if rec, ok := s.fromCache(ctx, taxID); ok {
		result := classify(rec)
		result.FromCache = true
		metrics.LookupsTotal.WithLabelValues("entity", string(result.Status)).Inc()
		return result, nil
	}

	rec, err := s.backend.GetEntity(ctx, taxID)
	if stderrors.Is(err, backend.ErrNotFound) {
		metrics.LookupsTotal.WithLabelValues("entity", string(models.EntityNotFound)).Inc()
		return &Result{Status: models.EntityNotFound}, nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup failed")
		metrics.LookupsTotal.WithLabelValues("entity", "error").Inc()
		s.logger.Warn("entity lookup failed", map[string]interface{}{
			"taxId": taxID,
			"error": err.Error(),
		})
		if _, ok := errors.As(err); ok {
			return nil, err
		}
		return nil, errors.NewEntityLookupFailedError(err)
	}

	s.toCache(ctx, rec)
	result := classify(rec)
	metrics.LookupsTotal.WithLabelValues("entity", string(result.Status)).Inc()
	return result, nil
}

// CreateEntity registers a new entity and returns its resolution.
func (s *Service) CreateEntity(ctx context.Context, rec *models.EntityRecord) (*Result, error) {
	if !s.validator.Valid(rec.TaxID) {
		return nil, errors.NewTaxIDInvalidError(rec.TaxID)
	}
	created, err := s.backend.CreateEntity(ctx, rec)
	if err != nil {
		return nil, err
	}
	s.Invalidate(ctx, rec.TaxID)
	s.logger.Info("entity created", map[string]interface{}{"taxId": rec.TaxID})
	return classify(created), nil
}

// UpdateEntity stores corrections and returns the new resolution.
func (s *Service) UpdateEntity(ctx context.Context, rec *models.EntityRecord) (*Result, error) {
	updated, err := s.backend.UpdateEntity(ctx, rec)
	if err != nil {
		return nil, err
	}
	s.Invalidate(ctx, rec.TaxID)
	s.logger.Info("entity updated", map[string]interface{}{"taxId": rec.TaxID})
	return classify(updated), nil
}

// Invalidate drops the cached record for taxID.
func (s *Service) Invalidate(ctx context.Context, taxID string) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, cacheKeyPrefix+taxID).Err(); err != nil {
		s.logger.Warn("cache invalidation failed", map[string]interface{}{
			"taxId": taxID,
			"error": err.Error(),
		})
	}
}

func classify(rec *models.EntityRecord) *Result {
	missing := rec.MissingFields()
	if len(missing) > 0 {
		return &Result{Status: models.EntityIncomplete, Entity: rec, MissingFields: missing}
	}
	return &Result{Status: models.EntityFound, Entity: rec}
}

func (s *Service) fromCache(ctx context.Context, taxID string) (*models.EntityRecord, bool) {
	if s.redis == nil {
		return nil, false
	}
	val, err := s.redis.Get(ctx, cacheKeyPrefix+taxID).Result()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn("cache read failed", map[string]interface{}{"taxId": taxID, "error": err.Error()})
		}
		return nil, false
	}
	var rec models.EntityRecord
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		return nil, false
	}
	return &rec, true
}

func (s *Service) toCache(ctx context.Context, rec *models.EntityRecord) {
	if s.redis == nil || s.config.CacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, cacheKeyPrefix+rec.TaxID, data, s.config.CacheTTL).Err(); err != nil {
		s.logger.Warn("cache write failed", map[string]interface{}{"taxId": rec.TaxID, "error": err.Error()})
	}
}
