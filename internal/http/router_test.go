package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ragchat/internal/chunker"
	"ragchat/internal/eval"
	"ragchat/internal/ingest"
	"ragchat/internal/memory"
	"ragchat/internal/rag"
	"ragchat/internal/storage"
	"ragchat/internal/vectorstore"
)

type stubEngine struct{}

func (stubEngine) Answer(ctx context.Context, req rag.AnswerRequest) (rag.AnswerResponse, error) {
	return rag.AnswerResponse{Answer: "stub answer", Sources: []string{}}, nil
}

type stubIndexer struct{}

func (stubIndexer) Upsert(ctx context.Context, chunks []chunker.Chunk, source string) error {
	return nil
}

type stubDocs struct{}

func (stubDocs) Upsert(ctx context.Context, doc *storage.Document) error { return nil }
func (stubDocs) Delete(ctx context.Context, source string) error         { return nil }
func (stubDocs) List(ctx context.Context) ([]storage.Document, error)    { return nil, nil }
func (stubDocs) Get(ctx context.Context, source string) (*storage.Document, error) {
	return nil, storage.ErrNotFound
}

type stubEvals struct{}

func (stubEvals) Insert(ctx context.Context, rec *storage.EvalRecord) error { return nil }
func (stubEvals) ListRecent(ctx context.Context, n int) ([]storage.EvalRecord, error) {
	return nil, nil
}

type stubDocIndex struct{}

func (stubDocIndex) DeleteSource(ctx context.Context, source string) error { return nil }
func (stubDocIndex) ListSources(ctx context.Context) ([]string, error)     { return nil, nil }

type stubInspector struct{}

func (stubInspector) GetCollectionInfo(ctx context.Context, collection string) (*vectorstore.CollectionInfo, error) {
	return &vectorstore.CollectionInfo{VectorSize: 768, Status: "Green"}, nil
}

type stubChecker struct{}

func (stubChecker) CollectionExists(ctx context.Context, collection string) (bool, error) {
	return true, nil
}

func testRouter(t *testing.T) http.Handler {
	t.Helper()
	return NewRouter(&Deps{
		Engine:        stubEngine{},
		IngestService: ingest.NewService(ingest.NewLoader(), chunker.NewSplitter(0, 0), stubIndexer{}, stubDocs{}),
		Documents:     stubDocs{},
		Evaluations:   stubEvals{},
		Evaluator:     eval.New(),
		Sessions:      memory.NewStore(10),
		Index:         stubDocIndex{},
		Inspector:     stubInspector{},
		Health:        stubChecker{},

		UploadDir:      t.TempDir(),
		Collection:     "documents",
		GeneratorName:  "template",
		EmbeddingModel: "test-embedding",
		DefaultTopK:    5,
		DefaultRerankK: 3,
	})
}

func TestRouter_Routes(t *testing.T) {
	router := testRouter(t)

	tests := []struct {
		method string
		path   string
		body   string
		want   int
	}{
		{http.MethodPost, "/api/chat", `{"message":"hello"}`, http.StatusOK},
		{http.MethodGet, "/api/health", "", http.StatusOK},
		{http.MethodGet, "/api/documents", "", http.StatusOK},
		{http.MethodGet, "/api/stats", "", http.StatusOK},
		{http.MethodGet, "/api/history?session_id=s1", "", http.StatusOK},
		{http.MethodGet, "/api/evaluations", "", http.StatusOK},
		{http.MethodPost, "/api/clear", `{"session_id":"s1"}`, http.StatusOK},
		{http.MethodGet, "/api/documents/a.md", "", http.StatusNotFound},
		{http.MethodDelete, "/api/documents/a.md", "", http.StatusOK},
		{http.MethodGet, "/api/unknown", "", http.StatusNotFound},
		{http.MethodGet, "/api/chat", "", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			var req *http.Request
			if tt.body != "" {
				req = httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
				req.Header.Set("Content-Type", "application/json")
			} else {
				req = httptest.NewRequest(tt.method, tt.path, nil)
			}
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)
			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d, body = %s", rr.Code, tt.want, rr.Body.String())
			}
		})
	}
}

func TestCORS_Preflight(t *testing.T) {
	router := testRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", rr.Code)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestCORS_HeadersOnNormalRequest(t *testing.T) {
	router := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
}
