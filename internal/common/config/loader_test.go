package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalYAML = `
camunda:
  broker_address: localhost:26500
database:
  postgres:
    host: localhost
    database: documents
    user: ${TEST_DB_USER}
  elasticsearch:
    addresses: ["http://localhost:9200"]
  redis:
    address: localhost:6379
backend:
  base_url: http://backend.local/api
wizard:
  internal_organization_id: ORG-INTERNAL
workers:
  resolve-entity:
    enabled: true
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile_AppliesDefaults(t *testing.T) {
	t.Setenv("TEST_DB_USER", "workflow")

	cfg, err := LoadFromFile(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, "workflow", cfg.Database.Postgres.User)
	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Equal(t, "http://localhost:9200", cfg.Database.Elasticsearch.GetURL())
	assert.Equal(t, "postal_codes", cfg.Database.Elasticsearch.PostalCodesIndex)
	assert.Equal(t, 5, cfg.Wizard.MaxFiles)
	assert.Equal(t, 200, cfg.Wizard.DescriptionMaxLength)
	assert.Equal(t, int64(10<<20), cfg.Wizard.MaxFileSize)
	assert.Equal(t, "12356789", cfg.Wizard.AllowedTaxIDPrefixes)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, "document.created", cfg.Kafka.Topic)
	assert.Equal(t, []string{"error"}, cfg.Notifications.Email.Levels)

	worker := cfg.Workers["resolve-entity"]
	assert.True(t, worker.Enabled)
	assert.Equal(t, 5, worker.MaxJobsActive)
	assert.Equal(t, 30000, worker.Timeout)
	assert.Equal(t, 3, worker.MaxRetries)
}

func TestLoadFromFile_RejectsS3WithoutBucket(t *testing.T) {
	t.Setenv("TEST_DB_USER", "workflow")
	t.Setenv("ATTACHMENTS_BUCKET", "")

	_, err := LoadFromFile(writeConfig(t, minimalYAML+"storage:\n  driver: s3\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage.bucket")
}

func TestLoadFromFile_RequiresInternalOrganization(t *testing.T) {
	t.Setenv("TEST_DB_USER", "workflow")

	body := `
camunda:
  broker_address: localhost:26500
database:
  postgres: {host: localhost, database: documents, user: workflow}
  elasticsearch: {url: "http://localhost:9200"}
  redis: {address: localhost:6379}
backend:
  base_url: http://backend.local/api
`
	_, err := LoadFromFile(writeConfig(t, body))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "internal_organization_id")
}

func TestGetWorkerConfig_FallsBackToDefaults(t *testing.T) {
	cfg := &Config{Workers: map[string]WorkerConfig{}}

	wc := GetWorkerConfig(cfg, "missing")
	assert.True(t, wc.Enabled)
	assert.Equal(t, 5, wc.MaxJobsActive)
	assert.True(t, IsWorkerEnabled(cfg, "missing"))

	cfg.Workers["off"] = WorkerConfig{Enabled: false}
	assert.False(t, IsWorkerEnabled(cfg, "off"))
}
