package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_document_store.go -package=mocks ragchat/internal/storage DocumentStore

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Document is a catalog entry for an ingested source file.
type Document struct {
	Source     string    `json:"source"`
	ChunkCount int       `json:"chunk_count"`
	CharCount  int       `json:"char_count"`
	IngestedAt time.Time `json:"ingested_at"`
}

// DocumentStore defines the interface for document catalog operations.
type DocumentStore interface {
	// Upsert inserts or replaces the catalog entry for a source.
	Upsert(ctx context.Context, doc *Document) error
	// Delete removes the catalog entry for a source. Returns ErrNotFound
	// if the source is unknown.
	Delete(ctx context.Context, source string) error
	// List returns all catalog entries ordered by source.
	List(ctx context.Context) ([]Document, error)
	// Get returns the catalog entry for a source, or ErrNotFound.
	Get(ctx context.Context, source string) (*Document, error)
}

// DocumentRepo implements DocumentStore on SQLite.
type DocumentRepo struct {
	db *sql.DB
}

// NewDocumentRepo creates a new DocumentRepo.
func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

// Upsert inserts or replaces the catalog entry for a source.
// Re-ingesting a source overwrites its previous entry.
func (r *DocumentRepo) Upsert(ctx context.Context, doc *Document) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO documents (source, chunk_count, char_count, ingested_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(source) DO UPDATE SET
		   chunk_count = excluded.chunk_count,
		   char_count = excluded.char_count,
		   ingested_at = excluded.ingested_at`,
		doc.Source, doc.ChunkCount, doc.CharCount, doc.IngestedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert document: %w", err)
	}
	return nil
}

// Delete removes the catalog entry for a source.
func (r *DocumentRepo) Delete(ctx context.Context, source string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM documents WHERE source = ?", source)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns all catalog entries ordered by source.
func (r *DocumentRepo) List(ctx context.Context) ([]Document, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT source, chunk_count, char_count, ingested_at FROM documents ORDER BY source")
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var docs []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.Source, &d.ChunkCount, &d.CharCount, &d.IngestedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return docs, nil
}

// Get returns the catalog entry for a source.
func (r *DocumentRepo) Get(ctx context.Context, source string) (*Document, error) {
	var d Document
	err := r.db.QueryRowContext(ctx,
		"SELECT source, chunk_count, char_count, ingested_at FROM documents WHERE source = ?",
		source,
	).Scan(&d.Source, &d.ChunkCount, &d.CharCount, &d.IngestedAt)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query document: %w", err)
	}
	return &d, nil
}
