package httpadapter

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/compliance-assistant/internal/config"
	"github.com/kirillkom/compliance-assistant/internal/core/domain"
	"github.com/kirillkom/compliance-assistant/internal/core/ports"
	"github.com/kirillkom/compliance-assistant/internal/observability/metrics"
)

const maxUploadBytes = 64 << 20

// Services are the inbound ports served by the API. Rebuilder may be nil.
type Services struct {
	Query      ports.QueryExecutor
	Classifier ports.RouteClassifier
	Ingest     ports.DocumentIngestor
	Documents  ports.DocumentReader
	Rebuilder  ports.IndexRebuilder
}

type Router struct {
	config   config.Config
	services Services
	metrics  *metrics.HTTPServerMetrics
}

func NewRouter(cfg config.Config, services Services) *Router {
	return &Router{
		config:   cfg,
		services: services,
	}
}

func (rt *Router) WithMetrics(m *metrics.HTTPServerMetrics) *Router {
	rt.metrics = m
	return rt
}

// Handler builds the mux and wraps it, outermost first, in request id, access
// log, metrics, rate limit, backpressure and request validation.
func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	mux.HandleFunc("POST /v1/query", rt.query)
	mux.HandleFunc("POST /v1/classify", rt.classify)
	mux.HandleFunc("POST /v1/documents", rt.uploadDocument)
	mux.HandleFunc("GET /v1/documents/{id}", rt.getDocumentByID)
	mux.HandleFunc("POST /v1/index/rebuild", rt.rebuildIndex)
	mux.Handle("/mcp", newMCPHandler(rt.services.Query, rt.services.Classifier))
	if rt.metrics != nil {
		mux.Handle("GET /metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	validator, err := newRequestValidator()
	if err != nil {
		slog.Error("openapi_document_invalid", "error", err)
	} else {
		handler = validator.middleware(handler)
	}

	onReject := func() {}
	if rt.metrics != nil {
		onReject = rt.metrics.RecordRejected
	}
	if rt.config.APIMaxInFlight > 0 {
		wait := time.Duration(rt.config.APIBackpressureWaitMS) * time.Millisecond
		handler = backpressureMiddleware(handler, rt.config.APIMaxInFlight, wait, onReject)
	}
	if rt.config.APIRateLimitRPS > 0 {
		handler = rateLimitMiddleware(handler, rt.config.APIRateLimitRPS, rt.config.APIRateLimitBurst, onReject)
	}
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(handler)
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type queryRequest struct {
	Question            string                    `json:"question"`
	ConversationHistory []domain.ConversationTurn `json:"conversation_history"`
}

func (rt *Router) query(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	env, err := rt.services.Query.Execute(r.Context(), req.Question, req.ConversationHistory)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, env)
}

type classifyResponse struct {
	Route       domain.RouteKind `json:"route"`
	Confidence  float64          `json:"confidence"`
	Reasoning   string           `json:"reasoning"`
	Identifiers []string         `json:"identifiers"`
	Keywords    []string         `json:"keywords"`
	Operation   domain.Operation `json:"operation,omitempty"`
}

func newClassifyResponse(route domain.QueryRoute) classifyResponse {
	out := classifyResponse{
		Route:       route.Kind,
		Confidence:  route.Confidence,
		Reasoning:   route.Reasoning,
		Identifiers: []string{},
		Keywords:    []string{},
	}
	for _, id := range route.Identifiers() {
		out.Identifiers = append(out.Identifiers, id.String())
	}
	out.Keywords = append(out.Keywords, route.Keywords()...)
	if route.Database != nil {
		out.Operation = route.Database.Operation
	}
	return out
}

func (rt *Router) classify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "question is required"})
		return
	}
	writeJSON(w, http.StatusOK, newClassifyResponse(rt.services.Classifier.Classify(req.Question)))
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "file is too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	doc, err := rt.services.Ingest.Upload(
		r.Context(),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		r.FormValue("collection"),
		file,
	)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusAccepted, doc)
}

func (rt *Router) getDocumentByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "document id is required"})
		return
	}

	doc, err := rt.services.Documents.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) rebuildIndex(w http.ResponseWriter, r *http.Request) {
	if rt.services.Rebuilder == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "lexical index is not configured"})
		return
	}

	n, err := rt.services.Rebuilder.Rebuild(r.Context())
	if rt.metrics != nil {
		rt.metrics.RecordIndexRebuild(n, err)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"documents": n})
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Error("http_handler_failed",
			"request_id", requestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"status", status,
			"error", err,
		)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
