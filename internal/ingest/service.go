package ingest

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_chunk_indexer.go -package=mocks ragchat/internal/ingest ChunkIndexer

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"ragchat/internal/chunker"
	"ragchat/internal/contextutil"
	"ragchat/internal/storage"
)

// ChunkIndexer stores document chunks in the vector index.
// Implemented by the index package; defined here consumer-first.
type ChunkIndexer interface {
	Upsert(ctx context.Context, chunks []chunker.Chunk, source string) error
}

// FileResult reports the outcome of ingesting a single file.
// Batch ingestion reports per-file success or failure instead of aborting.
type FileResult struct {
	Filename string `json:"filename"`
	Status   string `json:"status"`
	Chunks   int    `json:"chunks,omitempty"`
}

// Service runs the ingestion pipeline: load → clean → chunk → index → catalog.
type Service struct {
	loader   *Loader
	splitter *chunker.Splitter
	indexer  ChunkIndexer
	docs     storage.DocumentStore
}

// NewService creates an ingestion service.
func NewService(loader *Loader, splitter *chunker.Splitter, indexer ChunkIndexer, docs storage.DocumentStore) *Service {
	return &Service{
		loader:   loader,
		splitter: splitter,
		indexer:  indexer,
		docs:     docs,
	}
}

// IngestFile ingests a single document file. The source label is the base
// filename. Returns the number of chunks stored.
func (s *Service) IngestFile(ctx context.Context, path string) (int, error) {
	logger := contextutil.LoggerFromContext(ctx)
	source := filepath.Base(path)

	text, err := s.loader.Load(path)
	if err != nil {
		return 0, err
	}

	chunks := s.splitter.Split(chunker.Clean(text), source)
	if len(chunks) == 0 {
		logger.WarnContext(ctx, "document produced no chunks", "source", source)
		return 0, nil
	}

	if err := s.indexer.Upsert(ctx, chunks, source); err != nil {
		return 0, fmt.Errorf("index %s: %w", source, err)
	}

	charCount := 0
	for _, c := range chunks {
		charCount += c.CharCount
	}
	doc := &storage.Document{
		Source:     source,
		ChunkCount: len(chunks),
		CharCount:  charCount,
		IngestedAt: time.Now().UTC(),
	}
	if err := s.docs.Upsert(ctx, doc); err != nil {
		return 0, fmt.Errorf("catalog %s: %w", source, err)
	}

	logger.InfoContext(ctx, "document ingested", "source", source, "chunks", len(chunks), "chars", charCount)
	return len(chunks), nil
}

// IngestBatch ingests each path independently and reports per-file results.
// A failing file never aborts the rest of the batch.
func (s *Service) IngestBatch(ctx context.Context, paths []string) []FileResult {
	logger := contextutil.LoggerFromContext(ctx)

	results := make([]FileResult, 0, len(paths))
	for _, path := range paths {
		filename := filepath.Base(path)
		n, err := s.IngestFile(ctx, path)
		if err != nil {
			logger.ErrorContext(ctx, "ingestion failed", "file", filename, "error", err)
			results = append(results, FileResult{
				Filename: filename,
				Status:   fmt.Sprintf("error: %v", err),
			})
			continue
		}
		results = append(results, FileResult{
			Filename: filename,
			Status:   "success",
			Chunks:   n,
		})
	}
	return results
}
