// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Backend       BackendConfig           `mapstructure:"backend"`
	Storage       StorageConfig           `mapstructure:"storage"`
	Kafka         KafkaConfig             `mapstructure:"kafka"`
	Notifications NotificationConfig      `mapstructure:"notifications"`
	Wizard        WizardConfig            `mapstructure:"wizard"`
	Server        ServerConfig            `mapstructure:"server"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Logging       LoggingConfig           `mapstructure:"logging"`
	Tracing       TracingConfig           `mapstructure:"tracing"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
	MessageTTL     int    `mapstructure:"message_ttl"`     // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
	// Create catalog tables on startup.
	AutoMigrate bool `mapstructure:"auto_migrate"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses        []string `mapstructure:"addresses"`
	Username         string   `mapstructure:"username"`
	Password         string   `mapstructure:"password"`
	URL              string   `mapstructure:"url"`
	PostalCodesIndex string   `mapstructure:"postal_codes_index"`
	// Create the postal code index with its mapping when missing.
	EnsureIndex bool `mapstructure:"ensure_index"`
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// BackendConfig points at the document/entity/payment REST services.
type BackendConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
}

// StorageConfig configures attachment preview staging.
type StorageConfig struct {
	Driver     string `mapstructure:"driver"` // memory | s3
	Region     string `mapstructure:"region"`
	Bucket     string `mapstructure:"bucket"`
	Prefix     string `mapstructure:"prefix"`
	Endpoint   string `mapstructure:"endpoint"`    // LocalStack/MinIO
	PresignTTL int    `mapstructure:"presign_ttl"` // seconds
}

type KafkaConfig struct {
	Enabled      bool     `mapstructure:"enabled"`
	Brokers      []string `mapstructure:"brokers"`
	Topic        string   `mapstructure:"topic"`
	WriteTimeout int      `mapstructure:"write_timeout"` // milliseconds
}

// NotificationConfig selects the toast sinks used by the wizard.
type NotificationConfig struct {
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
	SNS struct {
		Enabled  bool   `mapstructure:"enabled"`
		TopicARN string `mapstructure:"topic_arn"`
	} `mapstructure:"sns"`
	Email struct {
		Enabled   bool     `mapstructure:"enabled"`
		FromEmail string   `mapstructure:"from_email"`
		To        []string `mapstructure:"to"`
		// Only these levels are mailed; defaults to error.
		Levels []string `mapstructure:"levels"`
	} `mapstructure:"email"`
}

// WizardConfig holds the document-creation wizard rules.
type WizardConfig struct {
	MaxFiles               int    `mapstructure:"max_files"`
	MaxFileSize            int64  `mapstructure:"max_file_size"` // bytes per attachment
	DescriptionMaxLength   int    `mapstructure:"description_max_length"`
	InternalOrganizationID string `mapstructure:"internal_organization_id"`
	// First digits accepted by the tax id checksum.
	AllowedTaxIDPrefixes string `mapstructure:"allowed_tax_id_prefixes"`
	EntityCacheTTL       int    `mapstructure:"entity_cache_ttl"` // seconds
	SessionIdleTimeout   int    `mapstructure:"session_idle_timeout"` // seconds
	PDFPreviewIcon       string `mapstructure:"pdf_preview_icon"`
	// How often document metadata is reloaded from Postgres.
	CatalogRefreshInterval int `mapstructure:"catalog_refresh_interval"` // seconds
}

type ServerConfig struct {
	Address         string `mapstructure:"address"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// TracingConfig configures the OTLP span exporter. An empty endpoint disables export.
type TracingConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`
	Insecure    bool    `mapstructure:"insecure"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}
