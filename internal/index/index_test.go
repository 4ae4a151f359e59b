package index

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"go.uber.org/mock/gomock"

	"ragchat/internal/chunker"
	"ragchat/internal/vectorstore"
	"ragchat/internal/vectorstore/mocks"
)

const testCollection = "documents"

// stubEmbedder returns a fixed-size vector per input without leaving the test.
type stubEmbedder struct {
	err   error
	calls int
}

func (s *stubEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	vecs := make([][]float32, len(texts))
	for i := range texts {
		vecs[i] = []float32{0.1, 0.2, 0.3}
	}
	return vecs, nil
}

func TestPointID_Deterministic(t *testing.T) {
	a := pointID("notes.md", 0)
	b := pointID("notes.md", 0)
	if a != b {
		t.Errorf("pointID not deterministic: %s != %s", a, b)
	}
	if pointID("notes.md", 1) == a {
		t.Error("different chunk index should produce different ID")
	}
	if pointID("other.md", 0) == a {
		t.Error("different source should produce different ID")
	}
}

func TestIndex_Upsert(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockVectorStore(ctrl)
	embedder := &stubEmbedder{}
	ix := New(embedder, store, testCollection)

	chunks := []chunker.Chunk{
		{Text: "first chunk", Source: "notes.md", Index: 0, CharCount: 11},
		{Text: "second chunk", Source: "notes.md", Index: 1, CharCount: 12},
	}

	store.EXPECT().
		Upsert(gomock.Any(), testCollection, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, points []vectorstore.Point) error {
			if len(points) != 2 {
				t.Errorf("got %d points, want 2", len(points))
			}
			if points[0].ID != pointID("notes.md", 0) {
				t.Errorf("point ID = %s, want deterministic ID", points[0].ID)
			}
			if points[0].Meta["text"] != "first chunk" {
				t.Errorf("payload text = %v", points[0].Meta["text"])
			}
			if points[0].Meta["source"] != "notes.md" {
				t.Errorf("payload source = %v", points[0].Meta["source"])
			}
			if points[0].Meta["chunk_index"] != 0 {
				t.Errorf("payload chunk_index = %v", points[0].Meta["chunk_index"])
			}
			return nil
		})

	if err := ix.Upsert(context.Background(), chunks, "notes.md"); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
}

func TestIndex_Upsert_SameIDsOnReingest(t *testing.T) {
	// Re-ingesting the same source produces the same point IDs, so the
	// store overwrites instead of accumulating duplicates.
	ctrl := gomock.NewController(t)
	store := mocks.NewMockVectorStore(ctrl)
	ix := New(&stubEmbedder{}, store, testCollection)

	chunks := []chunker.Chunk{{Text: "same spot", Source: "notes.md", Index: 0, CharCount: 9}}

	var firstID, secondID string
	store.EXPECT().
		Upsert(gomock.Any(), testCollection, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, points []vectorstore.Point) error {
			firstID = points[0].ID
			return nil
		})
	store.EXPECT().
		Upsert(gomock.Any(), testCollection, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, points []vectorstore.Point) error {
			secondID = points[0].ID
			return nil
		})

	ctx := context.Background()
	if err := ix.Upsert(ctx, chunks, "notes.md"); err != nil {
		t.Fatalf("first Upsert() error = %v", err)
	}
	if err := ix.Upsert(ctx, chunks, "notes.md"); err != nil {
		t.Fatalf("second Upsert() error = %v", err)
	}
	if firstID != secondID {
		t.Errorf("re-ingest produced new point ID: %s vs %s", firstID, secondID)
	}
}

func TestIndex_Upsert_EmptyChunks(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockVectorStore(ctrl)
	embedder := &stubEmbedder{}
	ix := New(embedder, store, testCollection)

	if err := ix.Upsert(context.Background(), nil, "notes.md"); err != nil {
		t.Fatalf("Upsert() with no chunks should be a no-op, got %v", err)
	}
	if embedder.calls != 0 {
		t.Error("embedder should not be called for empty input")
	}
}

func TestIndex_Upsert_EmbedderDown(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockVectorStore(ctrl)
	ix := New(&stubEmbedder{err: errors.New("connection refused")}, store, testCollection)

	err := ix.Upsert(context.Background(), []chunker.Chunk{{Text: "x", Index: 0}}, "notes.md")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Upsert() error = %v, want ErrUnavailable", err)
	}
}

func searchResult(text, source string, chunkIndex int, score float32, ingestedAt int64) vectorstore.SearchResult {
	return vectorstore.SearchResult{
		PointID: pointID(source, chunkIndex),
		Score:   score,
		Meta: map[string]any{
			"text":        text,
			"source":      source,
			"chunk_index": int64(chunkIndex),
			"char_count":  int64(len(text)),
			"ingested_at": ingestedAt,
		},
	}
}

func TestIndex_Query(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockVectorStore(ctrl)
	ix := New(&stubEmbedder{}, store, testCollection)

	store.EXPECT().Count(gomock.Any(), testCollection, "").Return(10, nil)
	store.EXPECT().
		Search(gomock.Any(), testCollection, gomock.Any(), 3, "").
		Return([]vectorstore.SearchResult{
			searchResult("closest", "a.md", 0, 0.95, 1),
			searchResult("middle", "a.md", 1, 0.80, 2),
			searchResult("farthest", "b.md", 0, 0.60, 3),
		}, nil)

	hits, err := ix.Query(context.Background(), "question", 3, "")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(hits) != 3 {
		t.Fatalf("got %d hits, want 3", len(hits))
	}
	if hits[0].Text != "closest" || hits[0].Similarity != 0.95 {
		t.Errorf("hits[0] = %+v", hits[0])
	}
	if hits[0].Source != "a.md" || hits[0].ChunkIndex != 0 {
		t.Errorf("hits[0] metadata = %+v", hits[0])
	}
	for i := 1; i < len(hits); i++ {
		if hits[i].Similarity > hits[i-1].Similarity {
			t.Errorf("hits not sorted by similarity: %v > %v", hits[i].Similarity, hits[i-1].Similarity)
		}
	}
}

func TestIndex_Query_TieBreakByRecency(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockVectorStore(ctrl)
	ix := New(&stubEmbedder{}, store, testCollection)

	store.EXPECT().Count(gomock.Any(), testCollection, "").Return(2, nil)
	store.EXPECT().
		Search(gomock.Any(), testCollection, gomock.Any(), 2, "").
		Return([]vectorstore.SearchResult{
			searchResult("older", "a.md", 0, 0.9, 100),
			searchResult("newer", "b.md", 0, 0.9, 200),
		}, nil)

	hits, err := ix.Query(context.Background(), "question", 2, "")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if hits[0].Text != "newer" {
		t.Errorf("equal similarity should rank the newer chunk first, got %q", hits[0].Text)
	}
}

func TestIndex_Query_TopKClampedToCount(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockVectorStore(ctrl)
	ix := New(&stubEmbedder{}, store, testCollection)

	store.EXPECT().Count(gomock.Any(), testCollection, "").Return(2, nil)
	store.EXPECT().
		Search(gomock.Any(), testCollection, gomock.Any(), 2, "").
		Return([]vectorstore.SearchResult{
			searchResult("one", "a.md", 0, 0.9, 1),
			searchResult("two", "a.md", 1, 0.8, 1),
		}, nil)

	hits, err := ix.Query(context.Background(), "question", 50, "")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(hits) != 2 {
		t.Errorf("got %d hits, want all 2 available", len(hits))
	}
}

func TestIndex_Query_EmptyCollection(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockVectorStore(ctrl)
	embedder := &stubEmbedder{}
	ix := New(embedder, store, testCollection)

	store.EXPECT().Count(gomock.Any(), testCollection, "").Return(0, nil)

	hits, err := ix.Query(context.Background(), "question", 5, "")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("got %d hits, want 0", len(hits))
	}
	if embedder.calls != 0 {
		t.Error("embedder should not be called when collection is empty")
	}
}

func TestIndex_Query_InvalidTopK(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockVectorStore(ctrl)
	ix := New(&stubEmbedder{}, store, testCollection)

	if _, err := ix.Query(context.Background(), "question", 0, ""); err == nil {
		t.Error("Query() with topK=0 should return error")
	}
}

func TestIndex_Query_SourceFilterPassedThrough(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockVectorStore(ctrl)
	ix := New(&stubEmbedder{}, store, testCollection)

	store.EXPECT().Count(gomock.Any(), testCollection, "a.md").Return(1, nil)
	store.EXPECT().
		Search(gomock.Any(), testCollection, gomock.Any(), 1, "a.md").
		Return([]vectorstore.SearchResult{searchResult("hit", "a.md", 0, 0.9, 1)}, nil)

	hits, err := ix.Query(context.Background(), "question", 5, "a.md")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(hits) != 1 || hits[0].Source != "a.md" {
		t.Errorf("hits = %+v", hits)
	}
}

func TestIndex_DeleteSource(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockVectorStore(ctrl)
	ix := New(&stubEmbedder{}, store, testCollection)

	store.EXPECT().Count(gomock.Any(), testCollection, "notes.md").Return(4, nil)
	store.EXPECT().DeleteBySource(gomock.Any(), testCollection, "notes.md").Return(nil)

	if err := ix.DeleteSource(context.Background(), "notes.md"); err != nil {
		t.Fatalf("DeleteSource() error = %v", err)
	}
}

func TestIndex_DeleteSource_Unknown(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockVectorStore(ctrl)
	ix := New(&stubEmbedder{}, store, testCollection)

	store.EXPECT().Count(gomock.Any(), testCollection, "ghost.md").Return(0, nil)

	err := ix.DeleteSource(context.Background(), "ghost.md")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteSource() error = %v, want ErrNotFound", err)
	}
}

func TestIndex_DeleteSource_StoreDown(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockVectorStore(ctrl)
	ix := New(&stubEmbedder{}, store, testCollection)

	store.EXPECT().Count(gomock.Any(), testCollection, "notes.md").
		Return(0, fmt.Errorf("connection refused"))

	err := ix.DeleteSource(context.Background(), "notes.md")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("DeleteSource() error = %v, want ErrUnavailable", err)
	}
}

func TestIndex_ListSources(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockVectorStore(ctrl)
	ix := New(&stubEmbedder{}, store, testCollection)

	store.EXPECT().ListSources(gomock.Any(), testCollection).
		Return([]string{"a.md", "b.pdf"}, nil)

	sources, err := ix.ListSources(context.Background())
	if err != nil {
		t.Fatalf("ListSources() error = %v", err)
	}
	if len(sources) != 2 || sources[0] != "a.md" {
		t.Errorf("sources = %v", sources)
	}
}
