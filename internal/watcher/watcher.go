// Package watcher monitors spec directories for plan and report changes.
package watcher

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Update is emitted after a debounce window when files in a watched
// spec directory change.
type Update struct {
	SpecID string
	Path   string
}

// Watcher tracks a set of spec directories via fsnotify and emits
// debounced updates on a single channel.
type Watcher struct {
	fs       *fsnotify.Watcher
	debounce time.Duration
	updates  chan Update

	mu     sync.Mutex
	specs  map[string]string      // specID -> directory
	byDir  map[string]string      // directory -> specID
	timers map[string]*time.Timer // specID -> debounce timer

	stopCh chan struct{}
	wg     sync.WaitGroup
	closed bool
}

// New creates a watcher. The caller reads Updates() until Close.
func New() (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fs:       fs,
		debounce: 500 * time.Millisecond,
		updates:  make(chan Update, 16),
		specs:    make(map[string]string),
		byDir:    make(map[string]string),
		timers:   make(map[string]*time.Timer),
		stopCh:   make(chan struct{}),
	}

	w.wg.Add(1)
	go w.loop()
	return w, nil
}

// Updates returns the channel of debounced change notifications.
func (w *Watcher) Updates() <-chan Update {
	return w.updates
}

// Watch subscribes to changes under a spec directory. Watching the
// same spec again replaces the previous subscription.
func (w *Watcher) Watch(specID, dir string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if prev, ok := w.specs[specID]; ok {
		w.fs.Remove(prev)
		delete(w.byDir, prev)
	}

	if err := w.fs.Add(dir); err != nil {
		return err
	}
	w.specs[specID] = dir
	w.byDir[dir] = specID
	return nil
}

// Unwatch drops the subscription for a spec. Unknown specs are a no-op.
func (w *Watcher) Unwatch(specID string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	dir, ok := w.specs[specID]
	if !ok {
		return
	}
	w.fs.Remove(dir)
	delete(w.specs, specID)
	delete(w.byDir, dir)

	if t, ok := w.timers[specID]; ok {
		if t.Stop() {
			w.wg.Done()
		}
		delete(w.timers, specID)
	}
}

// Close stops the event loop, waits out any in-flight debounce
// deliveries, and releases the fsnotify handle. Only then is the
// updates channel closed, so a fired timer can never send into it.
func (w *Watcher) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	for _, t := range w.timers {
		// A timer past Stop has already entered emit and signals the
		// wait group itself.
		if t.Stop() {
			w.wg.Done()
		}
	}
	w.mu.Unlock()

	close(w.stopCh)
	w.fs.Close()
	w.wg.Wait()
	close(w.updates)
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			w.schedule(event.Name)

		case _, ok := <-w.fs.Errors:
			if !ok {
				return
			}
		}
	}
}

// schedule arms (or re-arms) the debounce timer for the spec owning
// the changed path.
func (w *Watcher) schedule(path string) {
	dir := filepath.Dir(path)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}

	specID, ok := w.byDir[dir]
	if !ok {
		// The event may be for the directory itself.
		specID, ok = w.byDir[path]
		if !ok {
			return
		}
		dir = path
	}

	if t, exists := w.timers[specID]; exists {
		if t.Stop() {
			w.wg.Done()
		}
	}
	w.wg.Add(1)
	w.timers[specID] = time.AfterFunc(w.debounce, func() {
		w.emit(specID, dir)
	})
}

func (w *Watcher) emit(specID, dir string) {
	defer w.wg.Done()

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	delete(w.timers, specID)
	w.mu.Unlock()

	select {
	case w.updates <- Update{SpecID: specID, Path: dir}:
	case <-w.stopCh:
	}
}
