package menu

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads the menu file whenever it changes on disk. Rapid
// successive writes (editors often write twice) are debounced.
type Watcher struct {
	mu          sync.Mutex
	watcher     *fsnotify.Watcher
	path        string
	debounceDur time.Duration
	lastEvent   time.Time
	onReload    func(*Menu, error)
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool
}

// NewWatcher creates a watcher for the menu file at path. onReload is
// called with the reloaded menu, or with a nil menu and the load error
// when the new content does not validate.
func NewWatcher(path string, onReload func(*Menu, error)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		watcher:     fsw,
		path:        path,
		debounceDur: 500 * time.Millisecond,
		onReload:    onReload,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Start begins watching. Non-blocking; events are handled in a
// goroutine until Stop.
func (w *Watcher) Start() error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	// Watch the directory, not the file: editors that replace the file
	// on save would otherwise drop the watch.
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}

	go w.run()
	return nil
}

// Stop stops the watcher and waits for the event loop to drain.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	w.watcher.Close()
	<-w.doneCh
}

func (w *Watcher) run() {
	defer close(w.doneCh)

	for {
		select {
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != filepath.Clean(w.path) {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return
	}

	w.mu.Lock()
	now := time.Now()
	if now.Sub(w.lastEvent) < w.debounceDur {
		w.mu.Unlock()
		return
	}
	w.lastEvent = now
	w.mu.Unlock()

	m, err := Load(w.path)
	w.onReload(m, err)
}
