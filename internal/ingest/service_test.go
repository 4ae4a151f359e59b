package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"

	"ragchat/internal/chunker"
	ingestmocks "ragchat/internal/ingest/mocks"
	"ragchat/internal/storage"
	storagemocks "ragchat/internal/storage/mocks"
)

func newTestService(t *testing.T) (*Service, *ingestmocks.MockChunkIndexer, *storagemocks.MockDocumentStore) {
	t.Helper()
	ctrl := gomock.NewController(t)
	indexer := ingestmocks.NewMockChunkIndexer(ctrl)
	docs := storagemocks.NewMockDocumentStore(ctrl)
	svc := NewService(NewLoader(), chunker.NewSplitter(0, 0), indexer, docs)
	return svc, indexer, docs
}

func TestService_IngestFile(t *testing.T) {
	svc, indexer, docs := newTestService(t)
	path := writeTempFile(t, "notes.txt", []byte("The first sentence. The second sentence."))

	indexer.EXPECT().
		Upsert(gomock.Any(), gomock.Any(), "notes.txt").
		DoAndReturn(func(_ context.Context, chunks []chunker.Chunk, _ string) error {
			if len(chunks) == 0 {
				t.Error("expected at least one chunk")
			}
			return nil
		})
	docs.EXPECT().
		Upsert(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, doc *storage.Document) error {
			if doc.Source != "notes.txt" {
				t.Errorf("doc.Source = %q", doc.Source)
			}
			if doc.ChunkCount == 0 || doc.CharCount == 0 {
				t.Errorf("catalog entry missing counts: %+v", doc)
			}
			if doc.IngestedAt.IsZero() {
				t.Error("IngestedAt not set")
			}
			return nil
		})

	n, err := svc.IngestFile(context.Background(), path)
	if err != nil {
		t.Fatalf("IngestFile() error = %v", err)
	}
	if n == 0 {
		t.Error("IngestFile() returned 0 chunks")
	}
}

func TestService_IngestFile_EmptyDocument(t *testing.T) {
	svc, _, _ := newTestService(t)
	path := writeTempFile(t, "empty.txt", []byte("   \n\t  "))

	n, err := svc.IngestFile(context.Background(), path)
	if err != nil {
		t.Fatalf("IngestFile() error = %v", err)
	}
	if n != 0 {
		t.Errorf("IngestFile() = %d chunks, want 0", n)
	}
}

func TestService_IngestFile_IndexFailureIsHard(t *testing.T) {
	svc, indexer, _ := newTestService(t)
	path := writeTempFile(t, "notes.txt", []byte("Some content here."))

	indexer.EXPECT().
		Upsert(gomock.Any(), gomock.Any(), "notes.txt").
		Return(errors.New("store down"))

	if _, err := svc.IngestFile(context.Background(), path); err == nil {
		t.Error("IngestFile() should fail when indexing fails")
	}
}

func TestService_IngestFile_UnsupportedFormat(t *testing.T) {
	svc, _, _ := newTestService(t)
	path := writeTempFile(t, "archive.zip", []byte("zip"))

	_, err := svc.IngestFile(context.Background(), path)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("IngestFile() error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestService_IngestBatch_PartialFailure(t *testing.T) {
	svc, indexer, docs := newTestService(t)
	good := writeTempFile(t, "good.txt", []byte("Valid document content."))
	bad := writeTempFile(t, "bad.zip", []byte("zip"))

	indexer.EXPECT().Upsert(gomock.Any(), gomock.Any(), "good.txt").Return(nil)
	docs.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(nil)

	results := svc.IngestBatch(context.Background(), []string{good, bad})
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Status != "success" || results[0].Chunks == 0 {
		t.Errorf("results[0] = %+v", results[0])
	}
	if !strings.HasPrefix(results[1].Status, "error") {
		t.Errorf("results[1] = %+v, want error status", results[1])
	}
	if results[1].Filename != "bad.zip" {
		t.Errorf("results[1].Filename = %q", results[1].Filename)
	}
}
