// Package index maintains the vector index over document chunks: embedding
// chunk text, writing points to the vector store and answering similarity
// queries for the retrieval pipeline.
package index

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"ragchat/internal/chunker"
	"ragchat/internal/contextutil"
	"ragchat/internal/vectorstore"
)

// Sentinel errors for the retrieval boundary.
var (
	// ErrNotFound indicates the named source has no points in the index.
	ErrNotFound = errors.New("source not found")
	// ErrUnavailable indicates the embedding service or the vector store
	// could not be reached.
	ErrUnavailable = errors.New("vector service unavailable")
)

// pointNamespace seeds the deterministic point IDs. Re-ingesting the same
// source overwrites its points instead of duplicating them.
var pointNamespace = uuid.MustParse("8c7e6a94-42b1-4c0f-9a6f-3d2b1e5c8f07")

// Embedder turns text into vectors. Satisfied by *llm.EmbeddingsClient.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// RetrievalHit is one chunk returned by a similarity query.
type RetrievalHit struct {
	Text       string  `json:"text"`
	Source     string  `json:"source"`
	ChunkIndex int     `json:"chunk_index"`
	CharCount  int     `json:"char_count"`
	Similarity float64 `json:"similarity"`

	ingestedAt int64
}

// Index embeds chunks and stores them in a single vector store collection.
type Index struct {
	embedder   Embedder
	store      vectorstore.VectorStore
	collection string
}

// New creates an index over the given collection.
func New(embedder Embedder, store vectorstore.VectorStore, collection string) *Index {
	return &Index{
		embedder:   embedder,
		store:      store,
		collection: collection,
	}
}

// pointID derives a stable UUID for a chunk from its source and position.
func pointID(source string, chunkIndex int) string {
	return uuid.NewSHA1(pointNamespace, []byte(source+"#"+strconv.Itoa(chunkIndex))).String()
}

// Upsert embeds the chunks and writes them to the store. Point IDs are
// derived from source and chunk index, so the operation is idempotent.
func (ix *Index) Upsert(ctx context.Context, chunks []chunker.Chunk, source string) error {
	logger := contextutil.LoggerFromContext(ctx)

	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := ix.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return fmt.Errorf("%w: embed chunks: %v", ErrUnavailable, err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("embedding count mismatch: %d vectors for %d chunks", len(vectors), len(chunks))
	}

	now := time.Now().UnixNano()
	points := make([]vectorstore.Point, len(chunks))
	for i, c := range chunks {
		points[i] = vectorstore.Point{
			ID:  pointID(source, c.Index),
			Vec: vectors[i],
			Meta: map[string]any{
				"text":        c.Text,
				"source":      source,
				"chunk_index": c.Index,
				"char_count":  c.CharCount,
				"ingested_at": now,
			},
		}
	}

	if err := ix.store.Upsert(ctx, ix.collection, points); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	logger.InfoContext(ctx, "chunks indexed", "source", source, "count", len(points))
	return nil
}

// Query embeds the query text and returns the topK most similar chunks,
// optionally restricted to one source. Hits are ordered by similarity
// descending; equal similarities put the most recently ingested chunk first.
// topK larger than the collection simply returns everything available.
func (ix *Index) Query(ctx context.Context, query string, topK int, source string) ([]RetrievalHit, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("topK must be greater than 0")
	}

	count, err := ix.store.Count(ctx, ix.collection, source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if count == 0 {
		return []RetrievalHit{}, nil
	}
	if topK > count {
		topK = count
	}

	vectors, err := ix.embedder.EmbedTexts(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %v", ErrUnavailable, err)
	}

	results, err := ix.store.Search(ctx, ix.collection, vectors[0], topK, source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	hits := make([]RetrievalHit, 0, len(results))
	for _, r := range results {
		hits = append(hits, hitFromMeta(r))
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].ingestedAt > hits[j].ingestedAt
	})

	return hits, nil
}

// DeleteSource removes every point of the given source. Returns ErrNotFound
// when the source has no points.
func (ix *Index) DeleteSource(ctx context.Context, source string) error {
	logger := contextutil.LoggerFromContext(ctx)

	count, err := ix.store.Count(ctx, ix.collection, source)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if count == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, source)
	}

	if err := ix.store.DeleteBySource(ctx, ix.collection, source); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	logger.InfoContext(ctx, "source removed from index", "source", source, "chunks", count)
	return nil
}

// Count returns the total number of indexed chunks.
func (ix *Index) Count(ctx context.Context) (int, error) {
	count, err := ix.store.Count(ctx, ix.collection, "")
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return count, nil
}

// ListSources returns the distinct sources present in the index.
func (ix *Index) ListSources(ctx context.Context) ([]string, error) {
	sources, err := ix.store.ListSources(ctx, ix.collection)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return sources, nil
}

// hitFromMeta rebuilds a hit from a search result payload. The store reports
// cosine similarity directly; missing payload fields degrade to zero values.
func hitFromMeta(r vectorstore.SearchResult) RetrievalHit {
	hit := RetrievalHit{
		Similarity: float64(r.Score),
	}
	if v, ok := r.Meta["text"].(string); ok {
		hit.Text = v
	}
	if v, ok := r.Meta["source"].(string); ok {
		hit.Source = v
	}
	if v, ok := r.Meta["chunk_index"].(int64); ok {
		hit.ChunkIndex = int(v)
	}
	if v, ok := r.Meta["char_count"].(int64); ok {
		hit.CharCount = int(v)
	}
	if v, ok := r.Meta["ingested_at"].(int64); ok {
		hit.ingestedAt = v
	}
	return hit
}
