package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kirillkom/compliance-assistant/internal/core/domain"
)

// QueryLogRepository keeps an audit trail of executed questions.
type QueryLogRepository struct {
	db *sql.DB
}

func NewQueryLogRepository(db *sql.DB) *QueryLogRepository {
	return &QueryLogRepository{db: db}
}

func (r *QueryLogRepository) Append(ctx context.Context, entry domain.QueryLogEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	ids := entry.Identifiers
	if ids == nil {
		ids = []string{}
	}
	idsJSON, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("marshal identifiers: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO query_log (id, request_id, question, route, backend, confidence, identifiers, latency_ms, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
`, entry.ID, nullableString(entry.RequestID), entry.Question, string(entry.Route), string(entry.Backend),
		string(entry.Confidence), idsJSON, entry.LatencyMS, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("append query log: %w", err)
	}
	return nil
}

// ListRecent returns the newest entries first.
func (r *QueryLogRepository) ListRecent(ctx context.Context, limit int) ([]domain.QueryLogEntry, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, COALESCE(request_id, ''), question, route, backend, confidence, identifiers, latency_ms, created_at
FROM query_log
ORDER BY created_at DESC
LIMIT $1
`, limit)
	if err != nil {
		return nil, fmt.Errorf("list query log: %w", err)
	}
	defer rows.Close()

	out := make([]domain.QueryLogEntry, 0, limit)
	for rows.Next() {
		var (
			entry                      domain.QueryLogEntry
			route, backend, confidence string
			idsRaw                     []byte
		)
		if err := rows.Scan(
			&entry.ID,
			&entry.RequestID,
			&entry.Question,
			&route,
			&backend,
			&confidence,
			&idsRaw,
			&entry.LatencyMS,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan query log: %w", err)
		}
		if err := json.Unmarshal(idsRaw, &entry.Identifiers); err != nil {
			return nil, fmt.Errorf("unmarshal identifiers: %w", err)
		}
		entry.Route = domain.RouteKind(route)
		entry.Backend = domain.BackendTag(backend)
		entry.Confidence = domain.ConfidenceTier(confidence)
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate query log: %w", err)
	}
	return out, nil
}
