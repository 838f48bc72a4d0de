package domain

// ConfidenceTier is the coarse answer confidence reported to clients.
type ConfidenceTier string

const (
	ConfidenceHigh   ConfidenceTier = "high"
	ConfidenceMedium ConfidenceTier = "medium"
	ConfidenceLow    ConfidenceTier = "low"
)

// ParseConfidenceTier maps generator output onto a tier; unknown values become low.
func ParseConfidenceTier(raw string) ConfidenceTier {
	switch ConfidenceTier(raw) {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return ConfidenceTier(raw)
	default:
		return ConfidenceLow
	}
}

// BackendTag records which execution path produced an envelope.
type BackendTag string

const (
	BackendDatabase            BackendTag = "database"
	BackendDatabaseError       BackendTag = "database_error"
	BackendDatabaseAggregate   BackendTag = "database_aggregate"
	BackendDatabaseComparison  BackendTag = "database_comparison"
	BackendDatabaseBreakdown   BackendTag = "database_breakdown"
	BackendDatabaseUnavailable BackendTag = "database_unavailable"
	BackendRAG                 BackendTag = "rag"
	BackendRAGUnavailable      BackendTag = "rag_unavailable"
	BackendRAGLexicalOnly      BackendTag = "rag_lexical_only"
)

// Cacheable reports whether an envelope from this backend may be reused for the same question.
func (b BackendTag) Cacheable() bool {
	switch b {
	case BackendDatabaseError, BackendDatabaseUnavailable, BackendRAGUnavailable, BackendRAGLexicalOnly:
		return false
	default:
		return true
	}
}

type ConversationTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Source is a citation. Database sources carry codes and counts, document sources carry chunk data.
type Source struct {
	Type string `json:"type"`

	QuestionCode string   `json:"question_code,omitempty"`
	Sections     []string `json:"sections,omitempty"`
	Count        *int     `json:"count,omitempty"`
	ItemCount    *int     `json:"item_count,omitempty"`
	Aggregate    bool     `json:"aggregate,omitempty"`

	ChunkID    string  `json:"chunk_id,omitempty"`
	Category   string  `json:"category,omitempty"`
	Excerpt    string  `json:"excerpt,omitempty"`
	Score      float64 `json:"score,omitempty"`
	FilePath   string  `json:"file_path,omitempty"`
	PageRange  string  `json:"page_range,omitempty"`
	Collection string  `json:"collection,omitempty"`
}

const (
	SourceTypeDatabase = "database"
	SourceTypeDocument = "document"
)

type EnvelopeMetadata struct {
	Route           RouteKind `json:"route_type"`
	Confidence      float64   `json:"confidence"`
	Reasoning       string    `json:"reasoning"`
	ExecutionTimeMS float64   `json:"execution_time_ms"`
	Identifiers     []string  `json:"sections,omitempty"`
	Operation       Operation `json:"operation,omitempty"`
	Keywords        []string  `json:"keywords,omitempty"`
	Cached          bool      `json:"cached,omitempty"`
	Error           string    `json:"error,omitempty"`
}

// ResultEnvelope is the single result shape of every execution path.
type ResultEnvelope struct {
	Answer       string           `json:"answer"`
	Confidence   ConfidenceTier   `json:"confidence"`
	Sources      []Source         `json:"sources"`
	RankedChunks []Source         `json:"ranked_chunks"`
	Backend      BackendTag       `json:"backend"`
	Metadata     EnvelopeMetadata `json:"metadata"`
}
