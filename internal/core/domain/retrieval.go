package domain

// SemanticHit is one vector-store match. Distance is what the store reports;
// similarity is derived from it as 1 - Distance.
type SemanticHit struct {
	ID         string         `json:"id"`
	Text       string         `json:"text"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Distance   float64        `json:"distance"`
	Collection string         `json:"collection,omitempty"`
}

// CorpusDocument is the unit the lexical index is built over.
type CorpusDocument struct {
	ID         string
	Text       string
	Metadata   map[string]any
	Collection string
}

// EvidenceChunk is a retrieved chunk with its relevance signals. It lives for one query only.
type EvidenceChunk struct {
	ID             string         `json:"chunk_id"`
	Text           string         `json:"text"`
	SourceMetadata map[string]any `json:"source_metadata,omitempty"`
	Collection     string         `json:"collection,omitempty"`
	LexicalScore   float64        `json:"lexical_score"`
	SemanticScore  float64        `json:"semantic_score"`
	FusedScore     float64        `json:"fused_score"`
}

// MetadataString reads a string value from the chunk metadata.
func (c EvidenceChunk) MetadataString(key string) string {
	if c.SourceMetadata == nil {
		return ""
	}
	v, ok := c.SourceMetadata[key]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}
