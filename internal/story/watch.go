package story

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	xlog "github.com/ivlev/carrytales/internal/log"
)

const watchDebounce = 500 * time.Millisecond

// WatchScript calls onChange with the re-read script whenever the file at
// path is written or replaced, debounced by 500ms. Unparseable edits are
// logged and skipped. It blocks until ctx ends.
func WatchScript(ctx context.Context, path string, onChange func(*Script)) error {
	logger := xlog.WithComponent("script")

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Editors often replace the file, so watch the directory.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch script dir: %w", err)
	}
	target := filepath.Clean(path)

	logger.Info().
		Str(xlog.FieldEvent, "script.watcher_started").
		Str(xlog.FieldPath, path).
		Msg("watching narration script for changes")

	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()
	fire := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			logger.Info().Str(xlog.FieldEvent, "script.watcher_stopped").Msg("script watcher stopped")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			logger.Debug().
				Str(xlog.FieldEvent, "script.file_changed").
				Str("op", event.Op.String()).
				Msg("script file changed")
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(watchDebounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})

		case <-fire:
			sc, err := ReadScript(path)
			if err != nil {
				logger.Error().
					Err(err).
					Str(xlog.FieldEvent, "script.reload_failed").
					Msg("changed script could not be read")
				continue
			}
			onChange(sc)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error().
				Err(err).
				Str(xlog.FieldEvent, "script.watcher_error").
				Msg("script watcher error")
		}
	}
}
