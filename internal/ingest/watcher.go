package ingest

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"

	"ragchat/internal/contextutil"
)

// watchSettle is how long a file must stay quiet after the last write event
// before it is ingested, so partially copied uploads are not read early.
const watchSettle = 500 * time.Millisecond

// Watcher monitors the upload directory and ingests supported files as they
// appear or change.
type Watcher struct {
	fs      *fsnotify.Watcher
	service *Service
	dir     string
}

// NewWatcher creates a watcher for dir backed by the given ingestion service.
func NewWatcher(dir string, service *Service) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fs.Add(dir); err != nil {
		_ = fs.Close()
		return nil, err
	}
	return &Watcher{
		fs:      fs,
		service: service,
		dir:     dir,
	}, nil
}

// Run processes filesystem events until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	logger := contextutil.LoggerFromContext(ctx)
	logger.InfoContext(ctx, "watching upload directory", "dir", w.dir)

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(watchSettle)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !w.service.loader.Supported(event.Name) {
				continue
			}
			pending[event.Name] = time.Now()
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			logger.WarnContext(ctx, "watcher error", "error", err)
		case now := <-ticker.C:
			for path, last := range pending {
				if now.Sub(last) < watchSettle {
					continue
				}
				delete(pending, path)
				if _, err := w.service.IngestFile(ctx, path); err != nil {
					logger.ErrorContext(ctx, "auto-ingestion failed", "path", path, "error", err)
				}
			}
		}
	}
}

// Close stops the underlying filesystem watcher.
func (w *Watcher) Close() error {
	return w.fs.Close()
}
