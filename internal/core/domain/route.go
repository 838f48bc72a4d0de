package domain

// RouteKind is the execution strategy chosen for a question.
type RouteKind string

const (
	RouteDatabase RouteKind = "database"
	RouteRAG      RouteKind = "rag"
	RouteHybrid   RouteKind = "hybrid"
)

// Operation is the structured lookup detected by the classifier for Database routes.
type Operation string

const (
	OpCountInSection Operation = "count_in_section"
	OpListInSection  Operation = "list_in_section"
	OpGetSection     Operation = "get_section"
)

// QueryRoute is a tagged union: exactly one of Database, RAG or Hybrid is set, matching Kind.
type QueryRoute struct {
	Kind       RouteKind `json:"route"`
	Confidence float64   `json:"confidence"`
	Reasoning  string    `json:"reasoning"`

	Database *DatabaseRoute `json:"database,omitempty"`
	RAG      *RAGRoute      `json:"rag,omitempty"`
	Hybrid   *HybridRoute   `json:"hybrid,omitempty"`
}

type DatabaseRoute struct {
	Identifiers []Identifier `json:"identifiers"`
	// Operation is empty when the question carried no explicit count/list/get verb.
	Operation Operation `json:"operation,omitempty"`
}

type RAGRoute struct {
	Keywords []string `json:"keywords"`
}

// HybridRoute has no identifiers for whole-corpus aggregate questions.
type HybridRoute struct {
	Identifiers []Identifier `json:"identifiers,omitempty"`
}

func NewDatabaseRoute(confidence float64, reasoning string, ids []Identifier, op Operation) QueryRoute {
	return QueryRoute{
		Kind:       RouteDatabase,
		Confidence: confidence,
		Reasoning:  reasoning,
		Database:   &DatabaseRoute{Identifiers: ids, Operation: op},
	}
}

func NewRAGRoute(confidence float64, reasoning string, keywords []string) QueryRoute {
	return QueryRoute{
		Kind:       RouteRAG,
		Confidence: confidence,
		Reasoning:  reasoning,
		RAG:        &RAGRoute{Keywords: keywords},
	}
}

func NewHybridRoute(confidence float64, reasoning string, ids []Identifier) QueryRoute {
	return QueryRoute{
		Kind:       RouteHybrid,
		Confidence: confidence,
		Reasoning:  reasoning,
		Hybrid:     &HybridRoute{Identifiers: ids},
	}
}

// Identifiers returns the identifiers carried by the active variant, or nil.
func (r QueryRoute) Identifiers() []Identifier {
	switch {
	case r.Database != nil:
		return r.Database.Identifiers
	case r.Hybrid != nil:
		return r.Hybrid.Identifiers
	default:
		return nil
	}
}

// Keywords returns the RAG keywords, or nil for other variants.
func (r QueryRoute) Keywords() []string {
	if r.RAG == nil {
		return nil
	}
	return r.RAG.Keywords
}
