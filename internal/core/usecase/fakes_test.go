package usecase

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/kirillkom/compliance-assistant/internal/core/domain"
)

type storeFake struct {
	sections map[domain.Identifier]domain.SectionDetail
	totals   domain.Totals
	err      error
}

func newStoreFake() *storeFake {
	return &storeFake{
		sections: map[domain.Identifier]domain.SectionDetail{
			"TVI3": {
				Code:     "TVI3",
				Section:  domain.Section{Code: "TVI", Name: "Title VI"},
				Question: domain.Question{Code: "TVI3", Text: "Has the recipient posted its Title VI notice?", Applicability: "All recipients"},
				Indicators: []domain.Indicator{
					{Letter: "a", Text: "Notice is posted in stations."},
					{Letter: "b", Text: "Notice is translated."},
				},
				Deficiencies: []domain.Deficiency{
					{Code: "TVI3-1", Title: "Notice not posted", Determination: "Notice missing", CorrectiveAction: "Post the notice"},
				},
				Stats: domain.SectionStats{IndicatorCount: 2, DeficiencyCount: 1},
			},
			"L1": {
				Code:       "L1",
				Section:    domain.Section{Code: "L", Name: "Legal"},
				Question:   domain.Question{Code: "L1", Text: "Is the recipient eligible?"},
				Indicators: []domain.Indicator{{Letter: "a", Text: "Opinion of counsel on file."}},
				Stats:      domain.SectionStats{IndicatorCount: 1},
			},
		},
		totals: domain.Totals{Sections: 23, Questions: 160, Indicators: 640, Deficiencies: 480},
	}
}

func (f *storeFake) lookup(id domain.Identifier) (domain.SectionDetail, error) {
	if f.err != nil {
		return domain.SectionDetail{}, f.err
	}
	d, ok := f.sections[id]
	if !ok {
		return domain.SectionDetail{}, domain.WrapError(domain.ErrSectionNotFound, "lookup", errors.New(string(id)))
	}
	return d, nil
}

func (f *storeFake) CountIndicators(_ context.Context, id domain.Identifier) (domain.CountResult, error) {
	d, err := f.lookup(id)
	if err != nil {
		return domain.CountResult{}, err
	}
	return domain.CountResult{Code: id, Question: d.Question, Count: len(d.Indicators)}, nil
}

func (f *storeFake) CountDeficiencies(_ context.Context, id domain.Identifier) (domain.CountResult, error) {
	d, err := f.lookup(id)
	if err != nil {
		return domain.CountResult{}, err
	}
	return domain.CountResult{Code: id, Question: d.Question, Count: len(d.Deficiencies)}, nil
}

func (f *storeFake) ListIndicators(_ context.Context, id domain.Identifier) (domain.IndicatorList, error) {
	d, err := f.lookup(id)
	if err != nil {
		return domain.IndicatorList{}, err
	}
	return domain.IndicatorList{Code: id, Question: d.Question, Indicators: d.Indicators}, nil
}

func (f *storeFake) ListDeficiencies(_ context.Context, id domain.Identifier) (domain.DeficiencyList, error) {
	d, err := f.lookup(id)
	if err != nil {
		return domain.DeficiencyList{}, err
	}
	return domain.DeficiencyList{Code: id, Question: d.Question, Deficiencies: d.Deficiencies}, nil
}

func (f *storeFake) GetSection(_ context.Context, id domain.Identifier) (domain.SectionDetail, error) {
	return f.lookup(id)
}

func (f *storeFake) GetTotals(context.Context) (domain.Totals, error) {
	if f.err != nil {
		return domain.Totals{}, f.err
	}
	return f.totals, nil
}

type embedderFake struct {
	vectors [][]float32
	err     error
}

func (f *embedderFake) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.vectors != nil {
		return f.vectors, nil
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{0.1, 0.2}
	}
	return out, nil
}

func (f *embedderFake) EmbedQuery(context.Context, string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.1, 0.2}, nil
}

type vectorFake struct {
	mu       sync.Mutex
	hits     map[string][]domain.SemanticHit
	corpus   map[string][]domain.CorpusDocument
	errs     map[string]error
	searched []string
	limit    int
}

func (f *vectorFake) Search(_ context.Context, collection string, _ []float32, limit int) ([]domain.SemanticHit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searched = append(f.searched, collection)
	f.limit = limit
	if err := f.errs[collection]; err != nil {
		return nil, err
	}
	return append([]domain.SemanticHit(nil), f.hits[collection]...), nil
}

func (f *vectorFake) Scroll(_ context.Context, collection string) ([]domain.CorpusDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs[collection]; err != nil {
		return nil, err
	}
	return append([]domain.CorpusDocument(nil), f.corpus[collection]...), nil
}

type generatorFake struct {
	response     string
	err          error
	systemPrompt string
	userPrompt   string
	calls        int
}

func (f *generatorFake) Generate(_ context.Context, systemPrompt, userPrompt string) (string, error) {
	f.calls++
	f.systemPrompt = systemPrompt
	f.userPrompt = userPrompt
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

type cacheFake struct {
	entries map[string]domain.ResultEnvelope
	getErr  error
	sets    int
}

func (f *cacheFake) Get(_ context.Context, question string) (*domain.ResultEnvelope, bool, error) {
	if f.getErr != nil {
		return nil, false, f.getErr
	}
	env, ok := f.entries[strings.ToLower(question)]
	if !ok {
		return nil, false, nil
	}
	return &env, true, nil
}

func (f *cacheFake) Set(_ context.Context, question string, env *domain.ResultEnvelope, _ time.Duration) error {
	if f.entries == nil {
		f.entries = map[string]domain.ResultEnvelope{}
	}
	f.sets++
	f.entries[strings.ToLower(question)] = *env
	return nil
}

type queryLogFake struct {
	entries []domain.QueryLogEntry
}

func (f *queryLogFake) Append(_ context.Context, entry domain.QueryLogEntry) error {
	f.entries = append(f.entries, entry)
	return nil
}

type observerFake struct {
	degraded []string
	queries  int
}

func (f *observerFake) ObserveQuery(domain.RouteKind, domain.BackendTag, bool, time.Duration) {
	f.queries++
}

func (f *observerFake) ObserveDegraded(reason string) {
	f.degraded = append(f.degraded, reason)
}

type repoFake struct {
	doc          *domain.Document
	created      *domain.Document
	getErr       error
	createErr    error
	statusErr    error
	chunkErr     error
	statusCalls  []statusCall
	chunkCount   int
	chunkCountID string
}

type statusCall struct {
	status domain.DocumentStatus
	errMsg string
}

func (f *repoFake) Create(_ context.Context, doc *domain.Document) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = doc
	return nil
}

func (f *repoFake) GetByID(context.Context, string) (*domain.Document, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	copyDoc := *f.doc
	return &copyDoc, nil
}

func (f *repoFake) UpdateStatus(_ context.Context, _ string, status domain.DocumentStatus, errMessage string) error {
	f.statusCalls = append(f.statusCalls, statusCall{status: status, errMsg: errMessage})
	if f.statusErr != nil {
		return f.statusErr
	}
	return nil
}

func (f *repoFake) SaveChunkCount(_ context.Context, id string, chunkCount int) error {
	if f.chunkErr != nil {
		return f.chunkErr
	}
	f.chunkCountID = id
	f.chunkCount = chunkCount
	return nil
}

type storageFake struct {
	key  string
	data string
	err  error
}

func (f *storageFake) Save(_ context.Context, key string, data io.Reader) error {
	if f.err != nil {
		return f.err
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.key = key
	f.data = string(raw)
	return nil
}

func (f *storageFake) Open(context.Context, string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(f.data)), nil
}

type queueFake struct {
	ingested   []string
	changed    []string
	publishErr error
}

func (f *queueFake) PublishDocumentIngested(_ context.Context, id string) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.ingested = append(f.ingested, id)
	return nil
}

func (f *queueFake) SubscribeDocumentIngested(context.Context, func(context.Context, string) error) error {
	return nil
}

func (f *queueFake) PublishCorpusChanged(_ context.Context, collection string) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.changed = append(f.changed, collection)
	return nil
}

func (f *queueFake) SubscribeCorpusChanged(context.Context, func(context.Context, string) error) error {
	return nil
}

type extractorFake struct {
	text string
	err  error
}

func (f *extractorFake) Extract(context.Context, *domain.Document) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

type chunkerFake struct {
	chunks []string
}

func (f *chunkerFake) Split(string) []string { return f.chunks }

type indexerFake struct {
	doc    *domain.Document
	chunks []string
	err    error
}

func (f *indexerFake) IndexChunks(_ context.Context, doc *domain.Document, chunks []string, _ [][]float32) error {
	if f.err != nil {
		return f.err
	}
	f.doc = doc
	f.chunks = chunks
	return nil
}
