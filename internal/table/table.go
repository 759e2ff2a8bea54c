// Package table owns the per-panel column sort state and the select-all
// checkbox reconciliation for the file tables.
package table

import (
	"sort"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"dualpane-file-manager/internal/fsapi"
	"dualpane-file-manager/internal/panel"
)

// Column identifies a sortable table column.
type Column string

const (
	ColumnName     Column = "name"
	ColumnSize     Column = "size"
	ColumnModified Column = "modified"
)

// Direction is a sort direction.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// SortState is the active sort for one panel.
type SortState struct {
	Column    Column    `json:"column"`
	Direction Direction `json:"direction"`
}

// CheckState is the tri-state value of the select-all checkbox.
type CheckState int

const (
	CheckNone CheckState = iota
	CheckPartial
	CheckAll
)

// SelectAllState reconciles the select-all checkbox with the selection
// count: unchecked at zero, checked when everything is selected,
// indeterminate otherwise.
func SelectAllState(selected, total int) CheckState {
	switch {
	case selected == 0 || total == 0:
		return CheckNone
	case selected >= total:
		return CheckAll
	default:
		return CheckPartial
	}
}

// Enhancements holds the sort state for both panels and implements
// panel.Sorter.
type Enhancements struct {
	mu       sync.Mutex
	states   map[panel.Side]SortState
	collator *collate.Collator
}

// New creates the enhancement layer with no explicit sort on either panel.
func New() *Enhancements {
	return &Enhancements{
		states:   make(map[panel.Side]SortState),
		collator: collate.New(language.Und),
	}
}

// SortByColumn records a header click: the same column toggles direction,
// a different column resets to ascending. Returns the new state.
func (e *Enhancements) SortByColumn(side panel.Side, col Column) SortState {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := e.states[side]
	if st.Column == col {
		if st.Direction == Ascending {
			st.Direction = Descending
		} else {
			st.Direction = Ascending
		}
	} else {
		st = SortState{Column: col, Direction: Ascending}
	}
	e.states[side] = st
	return st
}

// State returns the panel's active sort, if any.
func (e *Enhancements) State(side panel.Side) (SortState, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, ok := e.states[side]
	return st, ok
}

// Reset removes the explicit sort for a panel, restoring the default
// listing order.
func (e *Enhancements) Reset(side panel.Side) {
	e.mu.Lock()
	delete(e.states, side)
	e.mu.Unlock()
}

// Apply sorts files per the panel's active sort state. Directories always
// partition before files regardless of column or direction. Reports false
// when no explicit sort is set.
func (e *Enhancements) Apply(side panel.Side, files []fsapi.FileEntry) bool {
	e.mu.Lock()
	st, ok := e.states[side]
	e.mu.Unlock()
	if !ok {
		return false
	}

	sort.SliceStable(files, func(i, j int) bool {
		if files[i].IsDir != files[j].IsDir {
			return files[i].IsDir
		}
		c := e.compare(files[i], files[j], st.Column)
		if st.Direction == Descending {
			c = -c
		}
		return c < 0
	})
	return true
}

func (e *Enhancements) compare(a, b fsapi.FileEntry, col Column) int {
	switch col {
	case ColumnSize:
		switch {
		case a.Size < b.Size:
			return -1
		case a.Size > b.Size:
			return 1
		}
		return 0
	case ColumnModified:
		ta := parseModified(a.Modified)
		tb := parseModified(b.Modified)
		switch {
		case ta.Before(tb):
			return -1
		case ta.After(tb):
			return 1
		}
		return 0
	default:
		return e.collator.CompareString(a.Name, b.Name)
	}
}

// parseModified parses the ISO-8601 modified stamp; missing or malformed
// values sort as the epoch.
func parseModified(s string) time.Time {
	if s == "" {
		return time.Unix(0, 0)
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Unix(0, 0)
	}
	return t
}

// FormatSize renders a byte count for the size column. Directories show
// no size.
func FormatSize(entry fsapi.FileEntry) string {
	if entry.IsDir {
		return ""
	}
	return humanize.Bytes(uint64(entry.Size))
}
