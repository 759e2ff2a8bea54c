// Package history implements per-panel navigation history with classic
// browser semantics: back/forward over a linear stack, truncation of
// forward entries on new navigation, and bounded growth.
package history

import (
	"log"
	"strings"
	"sync"
	"time"
)

const (
	// maxSize bounds the in-memory stack; the oldest entry is evicted first.
	maxSize = 100
	// maxPersisted bounds how many entries are written to the store.
	maxPersisted = 50
)

// Entry is a single visited path.
type Entry struct {
	Path      string `json:"path"`
	Timestamp int64  `json:"timestamp"` // epoch-ms
	Title     string `json:"title"`
}

// VisitStat tracks how often a path has been visited, independent of the
// back/forward stack.
type VisitStat struct {
	Count     int   `json:"count"`
	LastVisit int64 `json:"lastVisit"` // epoch-ms
}

// PathVisit pairs a path with its visit statistics for suggestion lists.
type PathVisit struct {
	Path  string `json:"path"`
	Count int    `json:"count"`
}

// Persister is the slice of the session store history needs.
type Persister interface {
	Load(name string, v interface{}) bool
	Save(name string, v interface{}) error
	Delete(name string) error
}

// History is the navigation stack for one panel.
type History struct {
	mu         sync.Mutex
	entries    []Entry
	current    int // index into entries, -1 when empty
	navigating bool
	frequency  map[string]VisitStat

	side     string
	store    Persister
	navigate func(path string)

	now func() time.Time // injectable for tests
}

type persistedHistory struct {
	Entries      []Entry `json:"entries"`
	CurrentIndex int     `json:"currentIndex"`
}

// New creates a history for the given panel side. navigate is invoked with
// the target path on back/forward/parent navigation. Previously persisted
// entries are restored.
func New(side string, store Persister, navigate func(path string)) *History {
	h := &History{
		current:   -1,
		frequency: make(map[string]VisitStat),
		side:      side,
		store:     store,
		navigate:  navigate,
		now:       time.Now,
	}

	if store != nil {
		var saved persistedHistory
		if store.Load("history-"+side, &saved) && len(saved.Entries) > 0 {
			h.entries = saved.Entries
			h.current = saved.CurrentIndex
			if h.current < 0 {
				h.current = 0
			}
			if h.current >= len(h.entries) {
				h.current = len(h.entries) - 1
			}
		}
		store.Load("frequency-"+side, &h.frequency)
		if h.frequency == nil {
			h.frequency = make(map[string]VisitStat)
		}
	}

	return h
}

// titleFor derives the display name for a path.
func titleFor(path string) string {
	if path == "/" || path == "" {
		return "/"
	}
	trimmed := strings.TrimSuffix(path, "/")
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		return trimmed[i+1:]
	}
	return trimmed
}

// Add records a visited path. It is a no-op while a history-driven
// navigation is in flight, so back/forward never grow the stack. Forward
// entries beyond the current position are discarded.
func (h *History) Add(path string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.navigating {
		return
	}

	// Truncate forward history.
	if h.current < len(h.entries)-1 {
		h.entries = h.entries[:h.current+1]
	}

	h.entries = append(h.entries, Entry{
		Path:      path,
		Timestamp: h.now().UnixMilli(),
		Title:     titleFor(path),
	})
	h.current++

	if len(h.entries) > maxSize {
		h.entries = h.entries[1:]
		h.current--
	}

	stat := h.frequency[path]
	stat.Count++
	stat.LastVisit = h.now().UnixMilli()
	h.frequency[path] = stat

	h.persistLocked()
}

// GoBack navigates to the previous entry. No-op at the start of history.
func (h *History) GoBack() {
	h.step(-1)
}

// GoForward navigates to the next entry. No-op at the end of history.
func (h *History) GoForward() {
	h.step(+1)
}

func (h *History) step(delta int) {
	h.mu.Lock()
	target := h.current + delta
	if target < 0 || target >= len(h.entries) {
		h.mu.Unlock()
		return
	}
	h.current = target
	h.navigating = true
	path := h.entries[h.current].Path
	navigate := h.navigate
	h.persistLocked()
	h.mu.Unlock()

	if navigate != nil {
		navigate(path)
	}

	h.mu.Lock()
	h.navigating = false
	h.mu.Unlock()
}

// CanGoBack reports whether a back navigation is possible. Drives button
// enablement.
func (h *History) CanGoBack() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current > 0
}

// CanGoForward reports whether a forward navigation is possible.
func (h *History) CanGoForward() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current < len(h.entries)-1
}

// Parent returns the parent of path, or path itself when at the root.
func Parent(path string) string {
	if path == "/" || path == "" {
		return "/"
	}
	trimmed := strings.TrimSuffix(path, "/")
	i := strings.LastIndex(trimmed, "/")
	if i <= 0 {
		return "/"
	}
	return trimmed[:i]
}

// NavigateToParent navigates one level up from the given path. The root is
// terminal.
func (h *History) NavigateToParent(current string) {
	if current == "/" || current == "" {
		return
	}
	if h.navigate != nil {
		h.navigate(Parent(current))
	}
}

// Entries returns a copy of the stack and the current index.
func (h *History) Entries() ([]Entry, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Entry, len(h.entries))
	copy(out, h.entries)
	return out, h.current
}

// Clear empties the stack and erases persisted history and frequency data.
// confirm is consulted first; a declined confirmation aborts with no side
// effects.
func (h *History) Clear(confirm func() bool) bool {
	if confirm != nil && !confirm() {
		return false
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = nil
	h.current = -1
	h.frequency = make(map[string]VisitStat)

	if h.store != nil {
		if err := h.store.Delete("history-" + h.side); err != nil {
			return true
		}
		h.store.Delete("frequency-" + h.side)
	}
	return true
}

// FrequentPaths returns up to n paths ordered by visit count, most visited
// first. Ties break on most recent visit.
func (h *History) FrequentPaths(n int) []PathVisit {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]PathVisit, 0, len(h.frequency))
	for path, stat := range h.frequency {
		out = append(out, PathVisit{Path: path, Count: stat.Count})
	}
	// Insertion sort: frequency maps stay small.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0; j-- {
			a, b := out[j-1], out[j]
			if b.Count > a.Count ||
				(b.Count == a.Count && h.frequency[b.Path].LastVisit > h.frequency[a.Path].LastVisit) {
				out[j-1], out[j] = b, a
			} else {
				break
			}
		}
	}
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// persistLocked writes the most recent entries and the frequency map.
// Caller holds h.mu.
func (h *History) persistLocked() {
	if h.store == nil {
		return
	}

	saved := persistedHistory{Entries: h.entries, CurrentIndex: h.current}
	if len(saved.Entries) > maxPersisted {
		drop := len(saved.Entries) - maxPersisted
		saved.Entries = saved.Entries[drop:]
		saved.CurrentIndex -= drop
		if saved.CurrentIndex < 0 {
			saved.CurrentIndex = 0
		}
	}

	// Persistence failures never interrupt navigation.
	if err := h.store.Save("history-"+h.side, saved); err != nil {
		log.Printf("⚠️ Failed to persist %s panel history: %v", h.side, err)
	}
	if err := h.store.Save("frequency-"+h.side, h.frequency); err != nil {
		log.Printf("⚠️ Failed to persist %s panel visit frequency: %v", h.side, err)
	}
}
