package triggers

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"expandd/internal/logging"
	"expandd/internal/trie"
)

// DefaultDebounce coalesces the burst of events an editor produces when it
// saves a file.
const DefaultDebounce = 100 * time.Millisecond

// Swapper accepts a freshly built trie.
type Swapper interface {
	Swap(t *trie.Trie)
}

// Watcher rebuilds the trie whenever the trigger file changes and hands it
// to a Swapper. A file that fails to load is reported and the previous trie
// stays in use.
type Watcher struct {
	path     string
	target   Swapper
	debounce time.Duration
	log      *logging.Logger

	watcher *fsnotify.Watcher
	ctx     context.Context
	cancel  context.CancelFunc
	errChan chan error
	done    chan struct{}

	mu    sync.Mutex
	timer *time.Timer
}

// NewWatcher returns a watcher for the trigger file at path.
func NewWatcher(path string, target Swapper, log *logging.Logger) *Watcher {
	if log == nil {
		log = logging.Discard()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		path:     path,
		target:   target,
		debounce: DefaultDebounce,
		log:      log.WithComponent("triggers"),
		ctx:      ctx,
		cancel:   cancel,
		errChan:  make(chan error, 1),
		done:     make(chan struct{}),
	}
}

// Start begins watching. The file's directory is watched rather than the
// file, so replace-by-rename saves are seen.
func (w *Watcher) Start() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch directory: %w", err)
	}
	w.watcher = watcher

	go w.watchLoop()
	return nil
}

func (w *Watcher) watchLoop() {
	defer close(w.done)
	name := filepath.Base(w.path)

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.schedule()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.report(err)
		}
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.Reload)
}

// Reload loads the file now and swaps in the result.
func (w *Watcher) Reload() {
	if w.ctx.Err() != nil {
		return
	}
	t, err := LoadTrie(w.path)
	if err != nil {
		w.log.Warn("keeping previous triggers", "path", w.path, "error", err)
		w.report(fmt.Errorf("reload triggers: %w", err))
		return
	}
	w.log.Info("triggers reloaded", "path", w.path, "triggers", t.Len())
	w.target.Swap(t)
}

func (w *Watcher) report(err error) {
	select {
	case w.errChan <- err:
	default:
	}
}

// Errors returns a channel of reload and watch errors. Errors are dropped
// when nobody is receiving.
func (w *Watcher) Errors() <-chan error {
	return w.errChan
}

// Close stops watching.
func (w *Watcher) Close() error {
	w.cancel()

	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	if w.watcher == nil {
		return nil
	}
	err := w.watcher.Close()
	<-w.done
	return err
}
