package resolvepostalcode

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"document-workflow/internal/common/errors"
	"document-workflow/internal/common/logger"
	"document-workflow/internal/common/metrics"
	"document-workflow/internal/common/observability"
	"document-workflow/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type ServiceDependencies struct {
	Elasticsearch *elasticsearch.Client
	Logger        logger.Logger
}

// Service looks postal codes up in the address directory index.
type Service struct {
	config *Config
	es     *elasticsearch.Client
	logger logger.Logger
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	return &Service{
		config: config,
		es:     deps.Elasticsearch,
		logger: deps.Logger.WithFields(map[string]interface{}{"component": "address-resolver"}),
	}
}

// ResolveByPostalCode formats code and, when complete, returns its directory
// candidates. Incomplete codes fail with POSTAL_CODE_INVALID without a query.
func (s *Service) ResolveByPostalCode(ctx context.Context, code string) (*Result, error) {
	formatted := FormatPostalCode(code)
	if !ShouldLookup(formatted) {
		metrics.LookupsTotal.WithLabelValues("postal_code", "invalid").Inc()
		return nil, errors.NewPostalCodeInvalidError(code)
	}

	ctx, span := observability.Tracer().Start(ctx, "address.resolve")
	span.SetAttributes(attribute.String("postalCode", formatted))
	defer span.End()

	start := time.Now()
	defer func() {
		metrics.LookupDuration.WithLabelValues("postal_code").Observe(time.Since(start).Seconds())
	}()

	candidates, err := s.search(ctx, formatted)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search failed")
		metrics.LookupsTotal.WithLabelValues("postal_code", "error").Inc()
		s.logger.Warn("postal code lookup failed", map[string]interface{}{
			"postalCode": formatted,
			"error":      err.Error(),
		})
		return nil, err
	}

	result := &Result{
		PostalCode: formatted,
		Candidates: candidates,
		ManualMode: len(candidates) == 0,
	}
	outcome := "found"
	if result.ManualMode {
		outcome = "empty"
	}
	metrics.LookupsTotal.WithLabelValues("postal_code", outcome).Inc()
	return result, nil
}

func (s *Service) search(ctx context.Context, postalCode string) ([]models.AddressCandidate, error) {
	query := map[string]interface{}{
		"size": s.config.MaxCandidates,
		"query": map[string]interface{}{
			"term": map[string]interface{}{"postal_code": postalCode},
		},
		"sort": []interface{}{
			map[string]interface{}{"street.keyword": map[string]interface{}{"order": "asc", "unmapped_type": "keyword"}},
		},
	}
	var body bytes.Buffer
	if err := json.NewEncoder(&body).Encode(query); err != nil {
		return nil, errors.NewInternalError(err)
	}

	req := esapi.SearchRequest{
		Index: []string{s.config.Index},
		Body:  &body,
	}
	res, err := req.Do(ctx, s.es)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, errors.NewTimeoutError("elasticsearch", err)
		}
		return nil, errors.NewAddressLookupFailedError(err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, errors.NewIndexNotFoundError(s.config.Index)
	}
	if res.IsError() {
		return nil, errors.NewSearchQueryFailedError(s.config.Index, fmt.Errorf("%s", res.String()))
	}

	var sr searchResponse
	if err := json.NewDecoder(res.Body).Decode(&sr); err != nil {
		return nil, errors.NewAddressLookupFailedError(fmt.Errorf("decode search response: %w", err))
	}

	candidates := make([]models.AddressCandidate, 0, len(sr.Hits.Hits))
	for _, hit := range sr.Hits.Hits {
		c := hit.Source
		if c.PostalCode == "" {
			c.PostalCode = postalCode
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}
