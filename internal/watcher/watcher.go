// Package watcher uploads files dropped into a directory.
package watcher

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"kb-admin-client/internal/models"
	"kb-admin-client/internal/services"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

const DefaultDebounce = 500 * time.Millisecond

// Result reports the upload of one file.
type Result struct {
	Path   string
	Upload models.Upload
	Err    error
}

// UploadWatcher uploads files created or rewritten in a watched directory
// once they have been quiet for the debounce interval.
type UploadWatcher struct {
	watcher    *fsnotify.Watcher
	uploads    services.UploadsClientInterface
	extensions []string
	debounce   time.Duration
	logger     zerolog.Logger
}

// New creates a watcher. An empty extensions list accepts every file.
func New(uploads services.UploadsClientInterface, extensions []string, debounce time.Duration, logger zerolog.Logger) (*UploadWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	normalized := make([]string, 0, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(ext)
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		normalized = append(normalized, ext)
	}

	return &UploadWatcher{
		watcher:    w,
		uploads:    uploads,
		extensions: normalized,
		debounce:   debounce,
		logger:     logger,
	}, nil
}

// Watch starts monitoring dir. The returned channel is closed when ctx is
// done or the watcher is closed.
func (w *UploadWatcher) Watch(ctx context.Context, dir string) (<-chan Result, error) {
	if err := w.watcher.Add(dir); err != nil {
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	results := make(chan Result, 16)
	ready := make(chan string, 64)

	go func() {
		timers := make(map[string]*time.Timer)
		defer func() {
			for _, t := range timers {
				t.Stop()
			}
			close(results)
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
					continue
				}
				if !w.isWatchedExtension(event.Name) {
					continue
				}
				name := event.Name
				if t, ok := timers[name]; ok && t.Stop() {
					t.Reset(w.debounce)
					continue
				}
				timers[name] = time.AfterFunc(w.debounce, func() {
					select {
					case ready <- name:
					case <-ctx.Done():
					}
				})
			case name := <-ready:
				delete(timers, name)
				result, ok := w.upload(ctx, name)
				if !ok {
					continue
				}
				select {
				case results <- result:
				case <-ctx.Done():
					return
				}
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				w.logger.Warn().Err(err).Str("dir", dir).Msg("File watcher error")
			}
		}
	}()

	return results, nil
}

func (w *UploadWatcher) Close() error {
	return w.watcher.Close()
}

// upload sends one file. It reports false for paths that vanished or are
// directories.
func (w *UploadWatcher) upload(ctx context.Context, path string) (Result, bool) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return Result{}, false
	}

	f, err := os.Open(path)
	if err != nil {
		return Result{Path: path, Err: err}, true
	}
	defer f.Close()

	name := filepath.Base(path)
	uploads, err := w.uploads.UploadFiles(ctx, []models.FileHandle{{
		Name:        name,
		ContentType: mime.TypeByExtension(filepath.Ext(name)),
		Body:        f,
	}})
	if err != nil {
		w.logger.Error().Err(err).Str("path", path).Msg("Failed to upload file")
		return Result{Path: path, Err: err}, true
	}

	byName, err := services.UploadsByName(uploads)
	if err != nil {
		return Result{Path: path, Err: err}, true
	}
	upload, ok := byName[name]
	if !ok {
		return Result{Path: path, Err: fmt.Errorf("no upload record returned for %s", name)}, true
	}

	w.logger.Info().
		Str("path", path).
		Int("upload_id", upload.ID).
		Int64("size", upload.Size).
		Msg("File uploaded")
	return Result{Path: path, Upload: upload}, true
}

func (w *UploadWatcher) isWatchedExtension(path string) bool {
	if len(w.extensions) == 0 {
		return true
	}
	return slices.Contains(w.extensions, strings.ToLower(filepath.Ext(path)))
}
