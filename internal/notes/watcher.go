package notes

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"

	"notedrop/internal/logging"
)

// debounceInterval coalesces editor save bursts (temp file, rename, chmod)
// into one refresh. 300ms is long enough to absorb a multi-event save and
// short enough that an external edit shows up without a visible lag.
const debounceInterval = 300 * time.Millisecond

// Watcher keeps the search index in sync with external edits to the notes
// directory. It is a run-to-completion worker: Run blocks until the context
// is cancelled or the underlying OS watcher dies, and it is safe to restart.
type Watcher struct {
	dir      string
	store    *Store
	onChange func()
	interval time.Duration
}

// NewWatcher creates a watcher over store's directory. onChange is invoked
// after each debounced refresh, on the watcher goroutine; it may be nil.
func NewWatcher(store *Store, onChange func()) *Watcher {
	return &Watcher{
		dir:      store.Dir(),
		store:    store,
		onChange: onChange,
		interval: debounceInterval,
	}
}

// Run watches the notes directory until ctx is cancelled. Setup failures
// are logged and end the run; the panic-recovery wrapper that hosts this
// worker handles restarts.
func (w *Watcher) Run(ctx context.Context) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		logging.Error(logging.CategoryWatcher,
			"Failed to start notes watcher", err.Error())
		return
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		logging.Error(logging.CategoryWatcher,
			"Failed to watch notes directory", err.Error())
		return
	}

	debounced := debounce.New(w.interval)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if !isNoteEvent(event.Name, event.Op) {
				continue
			}
			debounced(w.refresh)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			logging.Event(logging.CategoryWatcher,
				"Notes watcher error", err.Error())
		}
	}
}

// refresh rescans the directory and notifies the frontend. Runs on the
// debounce timer goroutine.
func (w *Watcher) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := w.store.RefreshCache(ctx); err != nil {
		logging.Event(logging.CategoryWatcher,
			"Failed to refresh notes after change", err.Error())
		return
	}
	if w.onChange != nil {
		w.onChange()
	}
}

// isNoteEvent reports whether a filesystem event concerns a markdown note.
// Dotfiles cover both hidden files and the temp files from atomic writes.
func isNoteEvent(path string, op fsnotify.Op) bool {
	base := filepath.Base(path)
	if !strings.HasSuffix(base, ".md") {
		return false
	}
	if strings.HasPrefix(base, ".") {
		return false
	}
	return op.Has(fsnotify.Create) || op.Has(fsnotify.Write) ||
		op.Has(fsnotify.Remove) || op.Has(fsnotify.Rename)
}
