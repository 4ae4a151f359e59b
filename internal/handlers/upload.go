package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"ragchat/internal/contextutil"
	"ragchat/internal/ingest"
	"ragchat/internal/storage"
)

// maxUploadBytes bounds the total multipart payload size.
const maxUploadBytes = 64 << 20

// UploadHandler ingests uploaded document files into the knowledge base.
type UploadHandler struct {
	service   *ingest.Service
	docs      storage.DocumentStore
	uploadDir string
}

// NewUploadHandler creates a new UploadHandler.
func NewUploadHandler(service *ingest.Service, docs storage.DocumentStore, uploadDir string) *UploadHandler {
	return &UploadHandler{
		service:   service,
		docs:      docs,
		uploadDir: uploadDir,
	}
}

// UploadResponse represents the HTTP response payload for uploads.
type UploadResponse struct {
	Results   []ingest.FileResult `json:"results"`
	Documents int                 `json:"documents"`
}

// ServeHTTP saves the uploaded files and ingests each one independently.
// A file that fails to parse is reported in its result entry; the batch
// itself never aborts.
func (h *UploadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		logger.WarnContext(ctx, "invalid multipart form", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "No files provided")
		return
	}

	paths := make([]string, 0, len(files))
	results := make([]ingest.FileResult, 0, len(files))
	for _, fh := range files {
		path, err := h.saveUpload(fh.Filename, fh)
		if err != nil {
			logger.ErrorContext(ctx, "failed to save upload", "file", fh.Filename, "error", err)
			results = append(results, ingest.FileResult{
				Filename: filepath.Base(fh.Filename),
				Status:   fmt.Sprintf("error: %v", err),
			})
			continue
		}
		paths = append(paths, path)
	}

	results = append(results, h.service.IngestBatch(ctx, paths)...)

	docs, err := h.docs.List(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "failed to list documents", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, UploadResponse{
		Results:   results,
		Documents: len(docs),
	})
}

// saveUpload writes one multipart file into the upload directory. The stored
// name is the base name only, so path components in the client filename
// cannot escape the directory.
func (h *UploadHandler) saveUpload(filename string, fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer func() {
		_ = src.Close()
	}()

	dest := filepath.Join(h.uploadDir, filepath.Base(filename))
	out, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer func() {
		_ = out.Close()
	}()

	if _, err := io.Copy(out, src); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return dest, nil
}
