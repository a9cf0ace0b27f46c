package heapconfig

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher hot-reloads Granularity/CompactFactor from a JSON tuning file,
// so the knobs spec.md §9 calls tunable "without affecting correctness"
// can change at runtime instead of requiring a rebuild.
type Watcher struct {
	path string
	fsw  *fsnotify.Watcher

	mu        sync.Mutex
	listeners []func(Tunables)
}

// NewWatcher starts watching path for writes and creates and parses it
// as Tunables on every such event. The contents present when NewWatcher
// is called are not read.
func NewWatcher(path string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(path); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{path: path, fsw: fsw}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			t, err := w.read()
			if err != nil {
				continue
			}
			w.notify(t)
		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
		}
	}
}

func (w *Watcher) read() (Tunables, error) {
	data, err := os.ReadFile(w.path)
	if err != nil {
		return Tunables{}, err
	}
	var t Tunables
	if err := json.Unmarshal(data, &t); err != nil {
		return Tunables{}, err
	}
	return t, nil
}

func (w *Watcher) notify(t Tunables) {
	w.mu.Lock()
	listeners := append([]func(Tunables){}, w.listeners...)
	w.mu.Unlock()
	for _, fn := range listeners {
		if fn != nil {
			fn(t)
		}
	}
}

// Watch registers fn to run on every reload and returns a function that
// deregisters it.
func (w *Watcher) Watch(fn func(Tunables)) func() {
	w.mu.Lock()
	w.listeners = append(w.listeners, fn)
	idx := len(w.listeners) - 1
	w.mu.Unlock()

	return func() {
		w.mu.Lock()
		w.listeners[idx] = nil
		w.mu.Unlock()
	}
}

func (w *Watcher) Close() error { return w.fsw.Close() }
