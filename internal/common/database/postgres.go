// internal/common/database/postgres.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"document-workflow/internal/common/config"
	"document-workflow/internal/common/errors"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// schema holds the catalog tables read by catalog.Repository and the document
// history read by the parameter pre-fill. Statements are idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS document_types (
		code     TEXT PRIMARY KEY,
		name     TEXT NOT NULL,
		internal BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE TABLE IF NOT EXISTS parameter_definitions (
		id                 INTEGER PRIMARY KEY,
		name               TEXT NOT NULL,
		kind               TEXT NOT NULL CHECK (kind IN ('numeric', 'text', 'boolean', 'reference')),
		mandatory          BOOLEAN NOT NULL DEFAULT FALSE,
		unit               TEXT,
		sort_order         INTEGER NOT NULL DEFAULT 0,
		reference_list     TEXT,
		option_key_field   TEXT,
		option_label_field TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS document_type_parameters (
		document_type_code  TEXT NOT NULL REFERENCES document_types(code),
		parameter_id        INTEGER NOT NULL REFERENCES parameter_definitions(id),
		applies_on_creation BOOLEAN NOT NULL DEFAULT TRUE,
		position            INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (document_type_code, parameter_id)
	)`,
	`CREATE TABLE IF NOT EXISTS reference_list_items (
		list_name TEXT NOT NULL,
		position  INTEGER NOT NULL,
		item      JSONB NOT NULL,
		PRIMARY KEY (list_name, position)
	)`,
	`CREATE TABLE IF NOT EXISTS documents (
		id                 TEXT PRIMARY KEY,
		tax_id             TEXT NOT NULL,
		document_type_code TEXT NOT NULL,
		created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_documents_tax_type ON documents (tax_id, document_type_code, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS document_parameter_values (
		document_id  TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
		parameter_id INTEGER NOT NULL,
		value        TEXT,
		memo         TEXT,
		PRIMARY KEY (document_id, parameter_id)
	)`,
}

// PostgresClient wraps the SQL database connection
type PostgresClient struct {
	DB *sql.DB
	X  *sqlx.DB
}

// NewPostgres creates a new PostgreSQL client
func NewPostgres(cfg config.PostgresConfig) (*PostgresClient, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, errors.NewDatabaseConnectionError(err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return NewPostgresFromDB(db), nil
}

// NewPostgresFromDB wraps an already opened *sql.DB (sqlmock in tests).
func NewPostgresFromDB(db *sql.DB) *PostgresClient {
	return &PostgresClient{DB: db, X: sqlx.NewDb(db, "postgres")}
}

// Ping tests the database connection
func (c *PostgresClient) Ping(ctx context.Context) error {
	if err := c.DB.PingContext(ctx); err != nil {
		return errors.NewDatabaseConnectionError(err)
	}
	return nil
}

// Migrate creates the catalog and document history tables in one transaction.
func (c *PostgresClient) Migrate(ctx context.Context) error {
	tx, err := c.X.BeginTxx(ctx, nil)
	if err != nil {
		return errors.NewDatabaseConnectionError(err)
	}
	defer tx.Rollback()

	for i, stmt := range schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return errors.NewQueryExecutionFailedError(fmt.Sprintf("schema[%d]", i), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.NewQueryExecutionFailedError("commit", err)
	}
	return nil
}

// Close closes the database connection
func (c *PostgresClient) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
