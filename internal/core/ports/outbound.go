package ports

import (
	"context"
	"io"
	"time"

	"github.com/kirillkom/compliance-assistant/internal/core/domain"
)

// StructuredStore answers exact lookups over the compliance guide tables.
// A missing identifier is reported as domain.ErrSectionNotFound.
type StructuredStore interface {
	CountIndicators(ctx context.Context, id domain.Identifier) (domain.CountResult, error)
	CountDeficiencies(ctx context.Context, id domain.Identifier) (domain.CountResult, error)
	ListIndicators(ctx context.Context, id domain.Identifier) (domain.IndicatorList, error)
	ListDeficiencies(ctx context.Context, id domain.Identifier) (domain.DeficiencyList, error)
	GetSection(ctx context.Context, id domain.Identifier) (domain.SectionDetail, error)
	GetTotals(ctx context.Context) (domain.Totals, error)
}

// GuideLoader replaces the structured guide contents.
type GuideLoader interface {
	ReplaceGuide(ctx context.Context, sections []domain.GuideSection) error
}

// VectorSearch queries one collection of the evidence corpus.
type VectorSearch interface {
	Search(ctx context.Context, collection string, queryVector []float32, limit int) ([]domain.SemanticHit, error)
	Scroll(ctx context.Context, collection string) ([]domain.CorpusDocument, error)
}

// VectorIndexer writes chunk vectors into a collection.
type VectorIndexer interface {
	IndexChunks(ctx context.Context, doc *domain.Document, chunks []string, vectors [][]float32) error
}

// Embedder builds vectors for chunks and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Generator returns the raw model text for a system and user prompt.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// DocumentRepository persists and reads corpus document state.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
	SaveChunkCount(ctx context.Context, id string, chunkCount int) error
}

// ObjectStorage stores source documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue carries ingestion and corpus-change events.
type MessageQueue interface {
	PublishDocumentIngested(ctx context.Context, documentID string) error
	SubscribeDocumentIngested(ctx context.Context, handler func(context.Context, string) error) error
	PublishCorpusChanged(ctx context.Context, collection string) error
	SubscribeCorpusChanged(ctx context.Context, handler func(context.Context, string) error) error
}

// TextExtractor extracts plain text from a stored document.
type TextExtractor interface {
	Extract(ctx context.Context, doc *domain.Document) (string, error)
}

// Chunker splits text into retrievable chunks.
type Chunker interface {
	Split(text string) []string
}

// AnswerCache stores envelopes for repeated history-free questions.
type AnswerCache interface {
	Get(ctx context.Context, question string) (*domain.ResultEnvelope, bool, error)
	Set(ctx context.Context, question string, envelope *domain.ResultEnvelope, ttl time.Duration) error
}

// QueryLog records executed questions.
type QueryLog interface {
	Append(ctx context.Context, entry domain.QueryLogEntry) error
}
