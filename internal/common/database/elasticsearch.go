// internal/common/database/elasticsearch.go
package database

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"document-workflow/internal/common/config"
	"document-workflow/internal/common/errors"

	"github.com/elastic/go-elasticsearch/v8"
)

// postalIndexMapping keys the directory by exact postal code and keeps a
// keyword sub-field on street for ordering candidates.
const postalIndexMapping = `{
  "mappings": {
    "properties": {
      "postal_code":  {"type": "keyword"},
      "street":       {"type": "text", "fields": {"keyword": {"type": "keyword"}}},
      "district":     {"type": "keyword"},
      "municipality": {"type": "keyword"},
      "parish":       {"type": "keyword"},
      "locality":     {"type": "keyword"}
    }
  }
}`

// ElasticsearchClient wraps the Elasticsearch client
type ElasticsearchClient struct {
	Client *elasticsearch.Client
}

// NewElasticsearch creates a new Elasticsearch client
func NewElasticsearch(cfg config.ElasticsearchConfig) (*ElasticsearchClient, error) {
	addresses := cfg.Addresses
	if len(addresses) == 0 && cfg.URL != "" {
		addresses = []string{cfg.URL}
	}

	esCfg := elasticsearch.Config{Addresses: addresses}
	if cfg.Username != "" {
		esCfg.Username = cfg.Username
		esCfg.Password = cfg.Password
	}

	es, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, errors.NewDatabaseConnectionError(fmt.Errorf("elasticsearch client: %w", err))
	}

	return &ElasticsearchClient{Client: es}, nil
}

// Ping tests the Elasticsearch connection
func (c *ElasticsearchClient) Ping(ctx context.Context) error {
	res, err := c.Client.Ping(c.Client.Ping.WithContext(ctx))
	if err != nil {
		return errors.NewDatabaseConnectionError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return errors.NewDatabaseConnectionError(fmt.Errorf("elasticsearch ping: %s", res.Status()))
	}
	return nil
}

// EnsurePostalIndex creates the postal code directory index when missing.
// It reports whether the index was created.
func (c *ElasticsearchClient) EnsurePostalIndex(ctx context.Context, index string) (bool, error) {
	res, err := c.Client.Indices.Exists([]string{index}, c.Client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return false, errors.NewSearchQueryFailedError(index, err)
	}
	res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		return false, nil
	case http.StatusNotFound:
	default:
		return false, errors.NewSearchQueryFailedError(index, fmt.Errorf("exists check: %s", res.Status()))
	}

	res, err = c.Client.Indices.Create(index,
		c.Client.Indices.Create.WithBody(strings.NewReader(postalIndexMapping)),
		c.Client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return false, errors.NewSearchQueryFailedError(index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return false, errors.NewSearchQueryFailedError(index, fmt.Errorf("create: %s", res.String()))
	}
	return true, nil
}
