package repository

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

const (
	documentsTable = "documents"
	resultsTable   = "extraction_results"

	dateLayout = "2006-01-02"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS documents (
		id               UUID PRIMARY KEY,
		user_id          TEXT NOT NULL,
		storage_path     TEXT NOT NULL,
		file_name        TEXT NOT NULL,
		status           TEXT NOT NULL DEFAULT 'pending',
		pay_period_start DATE,
		pay_period_end   DATE,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS documents_user_status_idx ON documents (user_id, status)`,
	`CREATE INDEX IF NOT EXISTS documents_storage_path_idx ON documents (storage_path)`,
	`CREATE TABLE IF NOT EXISTS extraction_results (
		id               UUID PRIMARY KEY,
		document_id      UUID NOT NULL REFERENCES documents (id) ON DELETE CASCADE,
		gross_pay        NUMERIC(12,2) NOT NULL DEFAULT 0 CHECK (gross_pay >= 0),
		tax_deducted     NUMERIC(12,2) NOT NULL DEFAULT 0 CHECK (tax_deducted >= 0),
		net_pay          NUMERIC(12,2) NOT NULL DEFAULT 0 CHECK (net_pay >= 0),
		pension          NUMERIC(12,2) NOT NULL DEFAULT 0 CHECK (pension >= 0),
		social_security  NUMERIC(12,2) NOT NULL DEFAULT 0 CHECK (social_security >= 0),
		other_deductions NUMERIC(12,2) NOT NULL DEFAULT 0 CHECK (other_deductions >= 0),
		additional_data  JSONB NOT NULL DEFAULT '{}'::jsonb,
		confirmed        BOOLEAN NOT NULL DEFAULT FALSE,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS extraction_results_document_idx ON extraction_results (document_id)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS documents (
		id               TEXT PRIMARY KEY,
		user_id          TEXT NOT NULL,
		storage_path     TEXT NOT NULL,
		file_name        TEXT NOT NULL,
		status           TEXT NOT NULL DEFAULT 'pending',
		pay_period_start TEXT,
		pay_period_end   TEXT,
		created_at       TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at       TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS documents_user_status_idx ON documents (user_id, status)`,
	`CREATE INDEX IF NOT EXISTS documents_storage_path_idx ON documents (storage_path)`,
	`CREATE TABLE IF NOT EXISTS extraction_results (
		id               TEXT PRIMARY KEY,
		document_id      TEXT NOT NULL REFERENCES documents (id) ON DELETE CASCADE,
		gross_pay        REAL NOT NULL DEFAULT 0 CHECK (gross_pay >= 0),
		tax_deducted     REAL NOT NULL DEFAULT 0 CHECK (tax_deducted >= 0),
		net_pay          REAL NOT NULL DEFAULT 0 CHECK (net_pay >= 0),
		pension          REAL NOT NULL DEFAULT 0 CHECK (pension >= 0),
		social_security  REAL NOT NULL DEFAULT 0 CHECK (social_security >= 0),
		other_deductions REAL NOT NULL DEFAULT 0 CHECK (other_deductions >= 0),
		additional_data  TEXT NOT NULL DEFAULT '{}',
		confirmed        INTEGER NOT NULL DEFAULT 0,
		created_at       TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS extraction_results_document_idx ON extraction_results (document_id)`,
}

// Migrate creates the documents and extraction_results tables when missing.
func Migrate(ctx context.Context, drv *entsql.Driver, logger *slog.Logger) error {
	stmts := postgresSchema
	if drv.Dialect() == dialect.SQLite {
		stmts = sqliteSchema
	}
	for _, stmt := range stmts {
		if err := drv.Exec(ctx, stmt, []any{}, nil); err != nil {
			logger.Error("schema migration failed", "dialect", drv.Dialect(), "error", err)
			return fmt.Errorf("migrate: %w", err)
		}
	}
	logger.Info("schema migrated", "dialect", drv.Dialect(), "statements", len(stmts))
	return nil
}

// nullDate scans DATE columns (time.Time on Postgres, text on SQLite) into YYYY-MM-DD.
type nullDate struct {
	Value *string
}

func (d *nullDate) Scan(src any) error {
	d.Value = nil
	var s string
	switch v := src.(type) {
	case nil:
		return nil
	case time.Time:
		s = v.Format(dateLayout)
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("unsupported date type %T", src)
	}
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	if _, err := time.Parse(dateLayout, s); err != nil {
		return fmt.Errorf("invalid date %q: %w", s, err)
	}
	d.Value = &s
	return nil
}

// jsonMap scans a JSONB or TEXT column holding a JSON object.
type jsonMap map[string]any

func (m *jsonMap) Scan(src any) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		*m = jsonMap{}
		return nil
	case string:
		b = []byte(v)
	case []byte:
		b = v
	default:
		return fmt.Errorf("unsupported json type %T", src)
	}
	out := map[string]any{}
	if len(b) > 0 {
		if err := json.Unmarshal(b, &out); err != nil {
			return fmt.Errorf("decode additional_data: %w", err)
		}
	}
	*m = out
	return nil
}

func (m jsonMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(map[string]any(m))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// dateArg converts an optional YYYY-MM-DD into a bind argument.
func dateArg(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}
