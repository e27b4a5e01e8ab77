// Package watcher reports filesystem changes to loaded source files.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

type Watcher interface {
	Watch(ctx context.Context, path string) error
	Unwatch(path string) error
	Stop() error
	OnChange(callback func(path string, event EventType))
}

type EventType int

const (
	EventCreate EventType = iota
	EventModify
	EventDelete
)

func (e EventType) String() string {
	switch e {
	case EventCreate:
		return "create"
	case EventModify:
		return "modify"
	case EventDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// FSWatcher watches individual files through their parent directories, so a
// file that is deleted and recreated keeps being reported.
type FSWatcher struct {
	fs     *fsnotify.Watcher
	logger *slog.Logger

	mu       sync.Mutex
	files    map[string]bool
	dirs     map[string]int
	callback func(path string, event EventType)

	done chan struct{}
	wg   sync.WaitGroup
}

func NewFSWatcher(logger *slog.Logger) (*FSWatcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	w := &FSWatcher{
		fs:     fw,
		logger: logger,
		files:  make(map[string]bool),
		dirs:   make(map[string]int),
		done:   make(chan struct{}),
	}
	w.wg.Add(1)
	go w.loop()
	return w, nil
}

func (w *FSWatcher) Watch(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.files[abs] {
		return nil
	}
	dir := filepath.Dir(abs)
	if w.dirs[dir] == 0 {
		if err := w.fs.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}
	w.dirs[dir]++
	w.files[abs] = true

	if w.logger != nil {
		w.logger.Debug("watching file", "path", abs)
	}
	return nil
}

func (w *FSWatcher) Unwatch(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.files[abs] {
		return nil
	}
	delete(w.files, abs)
	dir := filepath.Dir(abs)
	w.dirs[dir]--
	if w.dirs[dir] <= 0 {
		delete(w.dirs, dir)
		return w.fs.Remove(dir)
	}
	return nil
}

func (w *FSWatcher) Stop() error {
	select {
	case <-w.done:
		return nil
	default:
	}
	close(w.done)
	err := w.fs.Close()
	w.wg.Wait()
	return err
}

func (w *FSWatcher) OnChange(callback func(path string, event EventType)) {
	w.mu.Lock()
	w.callback = callback
	w.mu.Unlock()
}

func (w *FSWatcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			if w.logger != nil {
				w.logger.Warn("file watcher error", "error", err)
			}
		case <-w.done:
			return
		}
	}
}

func (w *FSWatcher) handle(event fsnotify.Event) {
	path := filepath.Clean(event.Name)

	w.mu.Lock()
	tracked := w.files[path]
	callback := w.callback
	w.mu.Unlock()

	if !tracked || callback == nil {
		return
	}

	var kind EventType
	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		kind = EventDelete
	case event.Has(fsnotify.Create):
		kind = EventCreate
	case event.Has(fsnotify.Write):
		kind = EventModify
	default:
		return
	}

	if w.logger != nil {
		w.logger.Debug("file changed", "path", path, "event", kind.String())
	}
	callback(path, kind)
}

// NopWatcher accepts watch requests and never reports changes.
type NopWatcher struct{}

func (NopWatcher) Watch(ctx context.Context, path string) error         { return nil }
func (NopWatcher) Unwatch(path string) error                            { return nil }
func (NopWatcher) Stop() error                                          { return nil }
func (NopWatcher) OnChange(callback func(path string, event EventType)) {}
