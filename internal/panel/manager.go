// Package panel implements the dual-pane state engine: per-panel path,
// storage backend, file list, selection, and focus, with coordinated
// asynchronous directory loads and typed state-change events.
package panel

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"dualpane-file-manager/internal/event"
	"dualpane-file-manager/internal/fsapi"
)

// DirectoryLister fetches directory listings from the backend.
type DirectoryLister interface {
	List(ctx context.Context, storage, path string) ([]fsapi.FileEntry, error)
}

// Notifier surfaces user-visible, non-fatal notifications.
type Notifier interface {
	Notify(message string)
}

// RowRenderer builds the visible row for each projected entry. The index
// follows the wire convention: -1 for the synthetic parent row, otherwise
// the position in the visible list.
type RowRenderer interface {
	RenderRow(side Side, index int, entry fsapi.FileEntry, selected, focused bool)
	SetFocus(side Side, index int)
}

// Sorter optionally overrides the default listing order. Apply reports
// whether it sorted files; when false the default directories-first,
// name-ascending order is used.
type Sorter interface {
	Apply(side Side, files []fsapi.FileEntry) bool
}

// SessionStore is the slice of the persisted store the manager needs.
type SessionStore interface {
	Load(name string, v interface{}) bool
	Save(name string, v interface{}) error
}

// state is the mutable state of one panel. All fields are guarded by the
// manager's mutex.
type state struct {
	storageID   string
	currentPath string
	files       []fsapi.FileEntry
	selected    map[string]struct{}
	focus       Focus
	filter      string

	// view is the last rendered projection of files (filtered and
	// sorted, without the synthetic parent row). Focus and range
	// selection index into it.
	view []fsapi.FileEntry

	loading bool
	loadSeq uint64
	cancel  context.CancelFunc
}

// Manager owns both panel states and is the single writer for all panel
// mutations. Safe for concurrent use.
type Manager struct {
	mu       sync.Mutex
	panels   map[Side]*state
	active   Side
	showHide bool // show hidden (dot) files

	api      DirectoryLister
	bus      *event.Bus
	store    SessionStore
	notifier Notifier
	renderer RowRenderer
	sorter   Sorter

	now func() time.Time
}

// Options configures a Manager. API and Bus are required; the rest may be
// nil.
type Options struct {
	API      DirectoryLister
	Bus      *event.Bus
	Store    SessionStore
	Notifier Notifier
	Renderer RowRenderer
	Sorter   Sorter
}

// NewManager creates the manager with both panels empty at "/".
func NewManager(opts Options) *Manager {
	m := &Manager{
		panels: map[Side]*state{
			Left:  newState(),
			Right: newState(),
		},
		active:   Left,
		api:      opts.API,
		bus:      opts.Bus,
		store:    opts.Store,
		notifier: opts.Notifier,
		renderer: opts.Renderer,
		sorter:   opts.Sorter,
		now:      time.Now,
	}
	return m
}

func newState() *state {
	return &state{
		currentPath: "/",
		selected:    make(map[string]struct{}),
		focus:       FocusRow(0),
	}
}

// SetRenderer replaces the row renderer. Used by the shell once the
// frontend is ready.
func (m *Manager) SetRenderer(r RowRenderer) {
	m.mu.Lock()
	m.renderer = r
	m.mu.Unlock()
}

// SetSorter installs a sort-order override (the table enhancement layer).
func (m *Manager) SetSorter(s Sorter) {
	m.mu.Lock()
	m.sorter = s
	m.mu.Unlock()
}

// SetShowHidden toggles dotfile visibility and re-renders both panels.
func (m *Manager) SetShowHidden(show bool) {
	m.mu.Lock()
	m.showHide = show
	m.mu.Unlock()
	for _, side := range Sides() {
		m.RenderFileList(side)
	}
}

func (m *Manager) notify(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	log.Printf("⚠️ %s", msg)
	if m.notifier != nil {
		m.notifier.Notify(msg)
	}
}

// ChangeStorage switches a panel to a different storage backend: the path
// resets to "/", the selection clears, and the root directory is loaded.
// A failed load leaves the panel showing the reset state and surfaces a
// notification.
func (m *Manager) ChangeStorage(side Side, storageID string) error {
	m.mu.Lock()
	st := m.panels[side]
	st.storageID = storageID
	st.currentPath = "/"
	st.selected = make(map[string]struct{})
	st.focus = FocusRow(0)
	st.filter = ""
	m.mu.Unlock()

	if m.bus != nil {
		m.bus.EmitStorageChanged(event.StorageChanged{
			Panel:   string(side),
			Path:    "/",
			Storage: storageID,
		})
	}

	return m.LoadDirectory(side, "/")
}

// LoadDirectory is the single authoritative directory-load routine.
//
// Each call bumps the panel's load sequence and cancels any load still in
// flight; a response is applied only while its sequence is current. The
// contract is therefore: the most recently issued navigation wins, and
// stale responses (including their errors) are discarded. On success the
// listing, path, selection, and focus are replaced atomically and
// PathChanged is emitted; on failure the prior state is left untouched and
// a notification is surfaced.
func (m *Manager) LoadDirectory(side Side, path string) error {
	if path == "" {
		path = "/"
	}

	m.mu.Lock()
	st := m.panels[side]
	st.loadSeq++
	seq := st.loadSeq
	if st.cancel != nil {
		st.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	st.cancel = cancel
	st.loading = true
	storage := st.storageID
	m.mu.Unlock()

	files, err := m.api.List(ctx, storage, path)
	cancel()

	m.mu.Lock()
	if st.loadSeq != seq {
		// Superseded by a newer navigation; discard.
		m.mu.Unlock()
		return nil
	}
	st.loading = false
	st.cancel = nil

	if err != nil {
		m.mu.Unlock()
		m.notify("Failed to load %s: %v", path, err)
		return err
	}

	st.files = files
	st.currentPath = path
	st.selected = make(map[string]struct{})
	st.filter = ""
	if len(files) > 0 {
		st.focus = FocusRow(0)
	} else if path != "/" {
		st.focus = FocusParent()
	} else {
		st.focus = FocusRow(0)
	}
	m.saveSessionLocked()
	m.mu.Unlock()

	if m.bus != nil {
		m.bus.EmitPathChanged(event.PathChanged{
			Panel:   string(side),
			Path:    path,
			Storage: storage,
		})
	}
	return nil
}

// Refresh reloads the panel's current path.
func (m *Manager) Refresh(side Side) error {
	m.mu.Lock()
	path := m.panels[side].currentPath
	m.mu.Unlock()
	return m.LoadDirectory(side, path)
}

// RefreshBoth reloads both panels.
func (m *Manager) RefreshBoth() {
	for _, side := range Sides() {
		if err := m.Refresh(side); err != nil {
			log.Printf("⚠️ Refresh of %s panel failed: %v", side, err)
		}
	}
}

// Loading reports whether a directory load is in flight for the panel.
func (m *Manager) Loading(side Side) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.panels[side].loading
}

// CurrentPath returns the panel's current directory.
func (m *Manager) CurrentPath(side Side) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.panels[side].currentPath
}

// CurrentStorage returns the panel's storage backend id, or "" when none
// is selected.
func (m *Manager) CurrentStorage(side Side) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.panels[side].storageID
}

// Files returns a copy of the panel's raw listing in server order.
func (m *Manager) Files(side Side) []fsapi.FileEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]fsapi.FileEntry, len(m.panels[side].files))
	copy(out, m.panels[side].files)
	return out
}

// FileAt returns the visible entry at the given row of the last render.
func (m *Manager) FileAt(side Side, row int) (fsapi.FileEntry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	view := m.panels[side].view
	if row < 0 || row >= len(view) {
		return fsapi.FileEntry{}, false
	}
	return view[row], true
}

// ActivePanel returns the side that currently has keyboard focus.
func (m *Manager) ActivePanel() Side {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// SetActivePanel records which panel has keyboard focus.
func (m *Manager) SetActivePanel(side Side) {
	if !side.Valid() {
		return
	}
	m.mu.Lock()
	m.active = side
	m.saveSessionLocked()
	m.mu.Unlock()
}

// SetQuickFilter applies a fuzzy filter to the panel's visible rows. An
// empty query clears the filter. Filtering is projection-only: the raw
// listing and the selection are untouched.
func (m *Manager) SetQuickFilter(side Side, query string) {
	m.mu.Lock()
	m.panels[side].filter = query
	m.mu.Unlock()
	m.RenderFileList(side)
}
