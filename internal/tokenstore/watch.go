package tokenstore

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch invokes onChange whenever the token file backing f is rewritten by
// another process (for example, a second opsboard invocation that refreshed
// the session). It watches the parent directory rather than the file itself
// because atomic saves replace the file via rename, which would drop a
// watch placed on the old inode.
//
// Watch blocks until ctx is canceled or the watcher fails.
func Watch(ctx context.Context, f *File, logger *slog.Logger, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("tokenstore: creating watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(f.Path())
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("tokenstore: watching %s: %w", dir, err)
	}

	target := filepath.Clean(f.Path())

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			// Only rewrites of the token file matter; chmod alone does not
			// change credentials.
			if filepath.Clean(ev.Name) != target {
				continue
			}

			if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}

			logger.Debug("token file changed externally",
				slog.String("path", target),
				slog.String("op", ev.Op.String()),
			)

			onChange()

		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			logger.Warn("token file watcher error", slog.String("error", watchErr.Error()))
		}
	}
}
