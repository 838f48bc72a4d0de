package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const schemaLockID int64 = 2026101601

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

// EnsureSchema creates the guide, document and query log tables. Concurrent
// api/worker startups are serialized by a transaction-scoped advisory lock.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, schemaLockID); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}
	if _, err := tx.ExecContext(ctx, schemaDDL); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS compliance_sections (
	id BIGSERIAL PRIMARY KEY,
	section_code TEXT NOT NULL UNIQUE,
	section_name TEXT NOT NULL,
	page_range TEXT,
	purpose TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS compliance_questions (
	id BIGSERIAL PRIMARY KEY,
	section_id BIGINT NOT NULL REFERENCES compliance_sections(id) ON DELETE CASCADE,
	question_code TEXT NOT NULL,
	question_text TEXT NOT NULL,
	basic_requirement TEXT,
	applicability TEXT,
	detailed_explanation TEXT,
	instructions_for_reviewer TEXT,
	question_order INT NOT NULL,
	UNIQUE (section_id, question_code)
);

CREATE INDEX IF NOT EXISTS idx_compliance_questions_code ON compliance_questions (UPPER(question_code));

CREATE TABLE IF NOT EXISTS compliance_indicators (
	id BIGSERIAL PRIMARY KEY,
	question_id BIGINT NOT NULL REFERENCES compliance_questions(id) ON DELETE CASCADE,
	letter TEXT NOT NULL,
	indicator_text TEXT NOT NULL,
	indicator_order INT NOT NULL,
	UNIQUE (question_id, letter)
);

CREATE TABLE IF NOT EXISTS compliance_deficiencies (
	id BIGSERIAL PRIMARY KEY,
	question_id BIGINT NOT NULL REFERENCES compliance_questions(id) ON DELETE CASCADE,
	deficiency_code TEXT NOT NULL,
	deficiency_title TEXT NOT NULL,
	determination TEXT NOT NULL,
	corrective_action TEXT,
	deficiency_order INT NOT NULL,
	UNIQUE (question_id, deficiency_code)
);

CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	filename TEXT NOT NULL,
	mime_type TEXT NOT NULL,
	storage_path TEXT NOT NULL,
	collection TEXT NOT NULL,
	category TEXT,
	chunk_count INT NOT NULL DEFAULT 0,
	status TEXT NOT NULL,
	error_message TEXT,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(status);
CREATE INDEX IF NOT EXISTS idx_documents_collection ON documents(collection);

CREATE TABLE IF NOT EXISTS query_log (
	id TEXT PRIMARY KEY,
	request_id TEXT,
	question TEXT NOT NULL,
	route TEXT NOT NULL,
	backend TEXT NOT NULL,
	confidence TEXT NOT NULL,
	identifiers JSONB NOT NULL DEFAULT '[]'::jsonb,
	latency_ms DOUBLE PRECISION NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_query_log_created_at ON query_log(created_at DESC);
`
