package player

import (
	"context"

	xlog "github.com/ivlev/carrytales/internal/log"
	"github.com/ivlev/carrytales/internal/story"
)

// RunFunc plays a story built from a script until it ends or ctx ends.
type RunFunc func(ctx context.Context, sc *story.Script) error

// RunWatching plays the script at path and restarts the story whenever the
// file changes, cancelling the run in progress. After a run finishes it
// waits for the next change. It returns when ctx ends or a run fails.
func RunWatching(ctx context.Context, path string, run RunFunc) error {
	logger := xlog.ForRun(ctx, "player")

	sc, err := story.ReadScript(path)
	if err != nil {
		return err
	}

	ctx, stop := context.WithCancel(ctx)
	defer stop()

	changes := make(chan *story.Script, 1)
	watchDone := make(chan struct{})
	var watchErr error
	go func() {
		defer close(watchDone)
		watchErr = story.WatchScript(ctx, path, func(next *story.Script) {
			// Keep only the newest edit.
			select {
			case <-changes:
			default:
			}
			changes <- next
		})
	}()
	defer func() {
		stop()
		<-watchDone
	}()

	for {
		runCtx, cancel := context.WithCancel(ctx)
		done := make(chan error, 1)
		go func(sc *story.Script) { done <- run(runCtx, sc) }(sc)

		select {
		case next := <-changes:
			cancel()
			<-done
			logger.Info().Str(xlog.FieldEvent, "run.restart").Str(xlog.FieldPath, path).Msg("script changed, restarting story")
			sc = next
			continue
		case err := <-done:
			cancel()
			if err != nil {
				return err
			}
		case <-watchDone:
			cancel()
			<-done
			return watchErr
		case <-ctx.Done():
			cancel()
			<-done
			return nil
		}

		logger.Info().Str(xlog.FieldEvent, "run.waiting").Str(xlog.FieldPath, path).Msg("story finished, waiting for script changes")
		select {
		case sc = <-changes:
		case <-watchDone:
			return watchErr
		case <-ctx.Done():
			return nil
		}
	}
}
