package loadparameters

import (
	"context"
	"time"

	"document-workflow/internal/catalog"
	"document-workflow/internal/common/errors"
	"document-workflow/internal/common/logger"
	"document-workflow/internal/common/metrics"
	"document-workflow/internal/common/observability"
	"document-workflow/internal/models"

	"go.opentelemetry.io/otel/attribute"
)

// CatalogSource returns the current metadata snapshot.
type CatalogSource interface {
	Get() *catalog.Catalog
}

// PrefillSource supplies values from earlier documents.
type PrefillSource interface {
	LatestValues(ctx context.Context, taxID, documentTypeCode string) (map[int]models.ParamValue, error)
}

type ServiceDependencies struct {
	Catalog CatalogSource
	// Optional.
	Prefill PrefillSource
	Logger  logger.Logger
}

type Service struct {
	config  *Config
	catalog CatalogSource
	prefill PrefillSource
	logger  logger.Logger
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	return &Service{
		config:  config,
		catalog: deps.Catalog,
		prefill: deps.Prefill,
		logger:  deps.Logger.WithFields(map[string]interface{}{"component": "parameter-loader"}),
	}
}

// Load resolves the parameter schema of a document type. An empty code yields
// an empty schema. The result depends only on the catalog snapshot and the
// pre-fill source, so repeated loads are identical.
func (s *Service) Load(ctx context.Context, documentTypeCode, taxID string) (*Schema, error) {
	schema := &Schema{
		DocumentTypeCode: documentTypeCode,
		Parameters:       []models.ResolvedParameter{},
		InitialValues:    map[int]models.ParamValue{},
	}
	if documentTypeCode == "" {
		return schema, nil
	}

	ctx, span := observability.Tracer().Start(ctx, "parameters.load")
	span.SetAttributes(attribute.String("documentTypeCode", documentTypeCode))
	defer span.End()

	start := time.Now()
	defer func() {
		metrics.LookupDuration.WithLabelValues("parameters").Observe(time.Since(start).Seconds())
	}()

	c := s.catalog.Get()
	if _, ok := c.DocumentType(documentTypeCode); !ok {
		metrics.LookupsTotal.WithLabelValues("parameters", "unknown_type").Inc()
		return nil, errors.NewDocumentTypeNotFoundError(documentTypeCode)
	}

	for _, def := range selectDefinitions(c, documentTypeCode) {
		rp := ResolveReference(c, def)
		if rp.ListUnavailable {
			s.logger.Warn("reference list unavailable, collecting as free text", map[string]interface{}{
				"parameterId":   def.ID,
				"referenceList": def.ReferenceList,
			})
		}
		schema.Parameters = append(schema.Parameters, rp)
	}

	previous := s.previousValues(ctx, taxID, documentTypeCode)
	schema.Prefilled = len(previous) > 0

	for _, p := range schema.Parameters {
		var raw interface{}
		pv := models.ParamValue{}
		if prev, ok := previous[p.ID]; ok {
			raw = prev.Value
			pv.Memo = prev.Memo
		}
		pv.Value = NormalizeValue(p.EffectiveKind(), raw)
		if p.EffectiveKind() == models.KindReference && !hasOption(p.Options, pv.Value) {
			pv.Value = ""
		}
		schema.InitialValues[p.ID] = pv
	}

	metrics.LookupsTotal.WithLabelValues("parameters", "found").Inc()
	return schema, nil
}

func (s *Service) previousValues(ctx context.Context, taxID, documentTypeCode string) map[int]models.ParamValue {
	if s.prefill == nil || !s.config.PrefillEnabled || taxID == "" {
		return nil
	}
	values, err := s.prefill.LatestValues(ctx, taxID, documentTypeCode)
	if err != nil {
		s.logger.Warn("parameter pre-fill failed", map[string]interface{}{
			"taxId":            taxID,
			"documentTypeCode": documentTypeCode,
			"error":            err.Error(),
		})
		return nil
	}
	return values
}

func hasOption(options []models.ReferenceOption, key string) bool {
	if key == "" {
		return true
	}
	for _, o := range options {
		if o.Key == key {
			return true
		}
	}
	return false
}
