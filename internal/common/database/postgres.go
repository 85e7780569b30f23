package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"churn-workers/internal/common/config"

	_ "github.com/lib/pq"
)

type PostgresClient struct {
	DB *sql.DB
}

func NewPostgres(cfg config.PostgresConfig) (*PostgresClient, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &PostgresClient{DB: db}, nil
}

// NewPostgresFromDB wraps an existing handle, e.g. a sqlmock connection.
func NewPostgresFromDB(db *sql.DB) *PostgresClient {
	return &PostgresClient{DB: db}
}

func (c *PostgresClient) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

func (c *PostgresClient) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

// EnsureSchema creates the churn tables if they do not exist. The statements
// run in one transaction.
func (c *PostgresClient) EnsureSchema(ctx context.Context) error {
	tx, err := c.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}

	for _, stmt := range schemaStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply schema: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS customers (
		customer_id      TEXT PRIMARY KEY,
		credit_score     DOUBLE PRECISION NOT NULL,
		geography        TEXT NOT NULL,
		gender           TEXT NOT NULL,
		age              DOUBLE PRECISION NOT NULL,
		tenure           INTEGER NOT NULL CHECK (tenure BETWEEN 0 AND 10),
		balance          DOUBLE PRECISION NOT NULL CHECK (balance >= 0),
		num_of_products  INTEGER NOT NULL CHECK (num_of_products BETWEEN 1 AND 4),
		has_cr_card      BOOLEAN NOT NULL,
		is_active_member BOOLEAN NOT NULL,
		estimated_salary DOUBLE PRECISION NOT NULL,
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS churn_assessments (
		id                UUID PRIMARY KEY,
		customer_id       TEXT,
		churn_probability DOUBLE PRECISION NOT NULL,
		risk_tier         TEXT NOT NULL,
		strategies        JSONB NOT NULL,
		features          JSONB NOT NULL,
		model_version     TEXT,
		created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_churn_assessments_customer ON churn_assessments (customer_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS audit_log (
		id          BIGSERIAL PRIMARY KEY,
		entity_type TEXT NOT NULL,
		entity_id   TEXT NOT NULL,
		action      TEXT NOT NULL,
		payload     JSONB,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}
