package store

import (
	"log"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports documents rewritten by another process (for example a
// second application instance sharing the session store). Writes made
// through this Store are suppressed.
type Watcher struct {
	// Changed receives the document name (without extension) of every
	// external modification.
	Changed chan string

	store    *Store
	fsw      *fsnotify.Watcher
	stopChan chan struct{}
}

// Watch starts watching the store directory.
func (s *Store) Watch() (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(s.dir); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		Changed:  make(chan string, 16),
		store:    s,
		fsw:      fsw,
		stopChan: make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	defer close(w.Changed)
	for {
		select {
		case <-w.stopChan:
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			file := filepath.Base(event.Name)
			if !strings.HasSuffix(file, ".json") {
				continue
			}
			if w.store.recentlyWritten(file) {
				continue
			}
			name := strings.TrimSuffix(file, ".json")
			select {
			case w.Changed <- name:
			default:
				// Slow consumer; drop rather than block the watch loop.
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Printf("⚠️ Store watcher error: %v", err)
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() {
	close(w.stopChan)
	w.fsw.Close()
}
