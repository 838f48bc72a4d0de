package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/compliance-assistant/internal/core/domain"
	"github.com/kirillkom/compliance-assistant/internal/infrastructure/resilience"
)

const scrollPageSize = 256

// Client talks to the Qdrant REST API. The collection is chosen per call so one
// client serves the guide and the historical audit collections alike.
type Client struct {
	baseURL    string
	httpClient *http.Client
	executor   *resilience.Executor

	ensureMu sync.Mutex
	ensured  map[string]int
}

func New(baseURL string, executor *resilience.Executor) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 60 * time.Second},
		executor:   executor,
		ensured:    make(map[string]int),
	}
}

// IndexChunks upserts one point per chunk into doc.Collection. Point ids are
// derived from the document id and chunk position, so reprocessing overwrites.
func (c *Client) IndexChunks(ctx context.Context, doc *domain.Document, chunks []string, vectors [][]float32) error {
	if len(chunks) == 0 || len(vectors) == 0 {
		return nil
	}
	if len(chunks) != len(vectors) {
		return domain.WrapError(domain.ErrInvalidInput, "qdrant index chunks", fmt.Errorf("chunks/vectors mismatch: %d/%d", len(chunks), len(vectors)))
	}
	if strings.TrimSpace(doc.Collection) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "qdrant index chunks", errors.New("document has no collection"))
	}

	if err := c.ensureCollection(ctx, doc.Collection, len(vectors[0])); err != nil {
		return err
	}

	type point struct {
		ID      string         `json:"id"`
		Vector  []float32      `json:"vector"`
		Payload map[string]any `json:"payload"`
	}

	points := make([]point, 0, len(chunks))
	for i := range chunks {
		points = append(points, point{
			ID:     pointID(doc.ID, i),
			Vector: vectors[i],
			Payload: map[string]any{
				"document_id": doc.ID,
				"file_path":   doc.Filename,
				"category":    doc.Category,
				"collection":  doc.Collection,
				"chunk_index": i,
				"text":        chunks[i],
			},
		})
	}

	body, err := json.Marshal(map[string]any{"points": points})
	if err != nil {
		return fmt.Errorf("marshal upsert body: %w", err)
	}
	endpoint := fmt.Sprintf("%s/collections/%s/points?wait=true", c.baseURL, url.PathEscape(doc.Collection))
	return c.run(ctx, "qdrant.upsert", func(ctx context.Context) error {
		return c.doJSON(ctx, "upsert", http.MethodPut, endpoint, body, nil)
	})
}

// Search returns the nearest chunks of one collection. Qdrant reports cosine
// similarity; it is turned into a distance so callers can use 1 - distance.
func (c *Client) Search(ctx context.Context, collection string, queryVector []float32, limit int) ([]domain.SemanticHit, error) {
	body, err := json.Marshal(map[string]any{
		"vector":       queryVector,
		"limit":        limit,
		"with_payload": true,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal search body: %w", err)
	}

	var searchResp struct {
		Result []struct {
			ID      any            `json:"id"`
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	endpoint := fmt.Sprintf("%s/collections/%s/points/search", c.baseURL, url.PathEscape(collection))
	err = c.run(ctx, "qdrant.search", func(ctx context.Context) error {
		return c.doJSON(ctx, "search", http.MethodPost, endpoint, body, &searchResp)
	})
	if err != nil {
		return nil, err
	}

	out := make([]domain.SemanticHit, 0, len(searchResp.Result))
	for _, r := range searchResp.Result {
		text, metadata := splitPayload(r.Payload)
		out = append(out, domain.SemanticHit{
			ID:         formatPointID(r.ID),
			Text:       text,
			Metadata:   metadata,
			Distance:   1 - r.Score,
			Collection: collection,
		})
	}
	return out, nil
}

// Scroll pages through every point of a collection. A collection that does not
// exist yet is empty.
func (c *Client) Scroll(ctx context.Context, collection string) ([]domain.CorpusDocument, error) {
	endpoint := fmt.Sprintf("%s/collections/%s/points/scroll", c.baseURL, url.PathEscape(collection))

	var (
		out    []domain.CorpusDocument
		offset any
	)
	for {
		req := map[string]any{
			"limit":        scrollPageSize,
			"with_payload": true,
			"with_vector":  false,
		}
		if offset != nil {
			req["offset"] = offset
		}
		body, err := json.Marshal(req)
		if err != nil {
			return nil, fmt.Errorf("marshal scroll body: %w", err)
		}

		var page struct {
			Result struct {
				Points []struct {
					ID      any            `json:"id"`
					Payload map[string]any `json:"payload"`
				} `json:"points"`
				NextPageOffset any `json:"next_page_offset"`
			} `json:"result"`
		}
		err = c.run(ctx, "qdrant.scroll", func(ctx context.Context) error {
			return c.doJSON(ctx, "scroll", http.MethodPost, endpoint, body, &page)
		})
		if err != nil {
			var statusErr *HTTPStatusError
			if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
				return out, nil
			}
			return nil, err
		}

		for _, p := range page.Result.Points {
			text, metadata := splitPayload(p.Payload)
			out = append(out, domain.CorpusDocument{
				ID:         formatPointID(p.ID),
				Text:       text,
				Metadata:   metadata,
				Collection: collection,
			})
		}
		if page.Result.NextPageOffset == nil || len(page.Result.Points) == 0 {
			return out, nil
		}
		offset = page.Result.NextPageOffset
	}
}

func (c *Client) ensureCollection(ctx context.Context, collection string, vectorSize int) error {
	c.ensureMu.Lock()
	if size, ok := c.ensured[collection]; ok && size == vectorSize {
		c.ensureMu.Unlock()
		return nil
	}
	c.ensureMu.Unlock()

	body, err := json.Marshal(map[string]any{
		"vectors": map[string]any{
			"size":     vectorSize,
			"distance": "Cosine",
		},
	})
	if err != nil {
		return fmt.Errorf("marshal create collection body: %w", err)
	}

	endpoint := fmt.Sprintf("%s/collections/%s", c.baseURL, url.PathEscape(collection))
	err = c.run(ctx, "qdrant.ensure_collection", func(ctx context.Context) error {
		return c.doJSON(ctx, "ensure collection", http.MethodPut, endpoint, body, nil)
	})
	// 409 when the collection already exists (depends on version/config).
	var statusErr *HTTPStatusError
	if err != nil && !(errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusConflict) {
		return err
	}

	c.ensureMu.Lock()
	c.ensured[collection] = vectorSize
	c.ensureMu.Unlock()
	return nil
}

func (c *Client) doJSON(ctx context.Context, operation, method, endpoint string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &HTTPStatusError{
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(raw),
		}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	return nil
}

func (c *Client) run(ctx context.Context, operation string, fn func(context.Context) error) error {
	if c.executor == nil {
		return fn(ctx)
	}
	err := c.executor.Execute(ctx, operation, fn, classifyQdrantError)
	return wrapTemporaryIfNeeded(operation, err)
}

func pointID(documentID string, index int) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("%s:%d", documentID, index))).String()
}

// splitPayload separates the chunk text from the rest of the payload.
func splitPayload(payload map[string]any) (string, map[string]any) {
	text := getStringPayload(payload, "text")
	metadata := make(map[string]any, len(payload))
	for k, v := range payload {
		if k == "text" {
			continue
		}
		metadata[k] = v
	}
	return text, metadata
}

func formatPointID(id any) string {
	switch v := id.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func getStringPayload(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
