package watcher

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"quill/internal/logging"
)

// startNotifier watches the inbox tree and signals the returned channel on
// changes. It returns a nil channel when fsnotify is off or unavailable.
func (w *Watcher) startNotifier(ctx context.Context) (<-chan struct{}, func()) {
	if !w.cfg.Watch.Fsnotify {
		return nil, func() {}
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		logging.WarnWithContext(w.logger, "fsnotify unavailable; polling only", "fsnotify_unavailable",
			logging.Error(err),
			logging.String(logging.FieldImpact, "new recordings are picked up on the poll interval"),
		)
		return nil, func() {}
	}
	addTree(fsw, w.cfg.Paths.InboxDir)

	wake := make(chan struct{}, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-fsw.Events:
				if !ok {
					return
				}
				if event.Has(fsnotify.Create) {
					addTree(fsw, event.Name)
				}
				if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
					continue
				}
				select {
				case wake <- struct{}{}:
				default:
				}
			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				w.logger.Debug("fsnotify error", logging.Error(err))
			}
		}
	}()

	return wake, func() {
		_ = fsw.Close()
		<-done
	}
}

// addTree registers root and every visible directory below it. Non
// directories are ignored so Create events can be passed straight in.
func addTree(fsw *fsnotify.Watcher, root string) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return fs.SkipDir
		}
		_ = fsw.Add(path)
		return nil
	})
}
