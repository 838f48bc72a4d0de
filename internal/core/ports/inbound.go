package ports

import (
	"context"
	"io"

	"github.com/kirillkom/compliance-assistant/internal/core/domain"
)

// QueryExecutor is the inbound contract for answering a compliance question.
type QueryExecutor interface {
	Execute(ctx context.Context, question string, history []domain.ConversationTurn) (*domain.ResultEnvelope, error)
}

// RouteClassifier exposes the routing decision without executing it.
type RouteClassifier interface {
	Classify(question string) domain.QueryRoute
}

// DocumentIngestor is the inbound contract for corpus document uploads.
type DocumentIngestor interface {
	Upload(ctx context.Context, filename, mimeType, collection string, body io.Reader) (*domain.Document, error)
}

// DocumentReader is the inbound read model for document metadata/state.
type DocumentReader interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
}

// DocumentProcessor is the inbound contract for asynchronous document processing.
type DocumentProcessor interface {
	ProcessByID(ctx context.Context, documentID string) error
}

// IndexRebuilder rebuilds the lexical index from the vector store contents.
type IndexRebuilder interface {
	Rebuild(ctx context.Context) (int, error)
}

// GuideSeeder loads a full compliance guide into the structured store.
type GuideSeeder interface {
	Seed(ctx context.Context, sections []domain.GuideSection) (domain.Totals, error)
}
