package domain

import "time"

type DocumentStatus string

const (
	StatusUploaded   DocumentStatus = "uploaded"
	StatusProcessing DocumentStatus = "processing"
	StatusReady      DocumentStatus = "ready"
	StatusFailed     DocumentStatus = "failed"
)

// Document is a source file of the evidence corpus (a guide chapter, an audit workbook).
type Document struct {
	ID          string         `json:"id"`
	Filename    string         `json:"filename"`
	MimeType    string         `json:"mime_type"`
	StoragePath string         `json:"storage_path"`
	Collection  string         `json:"collection"`
	Category    string         `json:"category,omitempty"`
	ChunkCount  int            `json:"chunk_count"`
	Status      DocumentStatus `json:"status"`
	Error       string         `json:"error,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// QueryLogEntry is one executed question as recorded for auditing.
type QueryLogEntry struct {
	ID          string         `json:"id"`
	RequestID   string         `json:"request_id,omitempty"`
	Question    string         `json:"question"`
	Route       RouteKind      `json:"route"`
	Backend     BackendTag     `json:"backend"`
	Confidence  ConfidenceTier `json:"confidence"`
	Identifiers []string       `json:"identifiers"`
	LatencyMS   float64        `json:"latency_ms"`
	CreatedAt   time.Time      `json:"created_at"`
}
