package vectorstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_vector_store.go -package=mocks ragchat/internal/vectorstore VectorStore

import "context"

// Point represents a vector point with metadata.
type Point struct {
	ID   string
	Vec  []float32
	Meta map[string]any
}

// SearchResult represents a single hit from vector search. Score is the
// cosine similarity reported by the store, higher is closer.
type SearchResult struct {
	PointID string
	Score   float32
	Meta    map[string]any
}

// VectorStore defines the interface for vector storage operations. The
// source argument, where present, restricts the operation to points whose
// payload source matches; an empty source means all points.
type VectorStore interface {
	// Upsert inserts or updates points in the collection.
	Upsert(ctx context.Context, collection string, points []Point) error

	// Search performs a similarity search, optionally restricted to one source.
	Search(ctx context.Context, collection string, query []float32, k int, source string) ([]SearchResult, error)

	// Count returns the number of points, optionally restricted to one source.
	Count(ctx context.Context, collection string, source string) (int, error)

	// DeleteBySource removes every point belonging to the given source.
	DeleteBySource(ctx context.Context, collection string, source string) error

	// ListSources returns the distinct source values present in the
	// collection, sorted ascending.
	ListSources(ctx context.Context, collection string) ([]string, error)
}
