package panel

import (
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"dualpane-file-manager/internal/event"
	"dualpane-file-manager/internal/fsapi"
)

// collator performs locale-aware name comparison for the default listing
// order. Guarded by the manager mutex like the rest of the projection.
var collator = collate.New(language.Und)

// defaultSort orders directories before files, then names ascending with
// a locale-aware compare.
func defaultSort(files []fsapi.FileEntry) {
	sort.SliceStable(files, func(i, j int) bool {
		if files[i].IsDir != files[j].IsDir {
			return files[i].IsDir
		}
		return collator.CompareString(files[i].Name, files[j].Name) < 0
	})
}

// RenderFileList projects the panel's raw listing into visible rows and
// hands each row to the renderer: hidden-file and quick-filter passes,
// then the active sort order (directories always first), then the
// synthetic ".." row unless at the root. Emits PanelRefreshed so dependent
// components re-attach their per-row handlers. Returns the rendered rows,
// parent row included.
func (m *Manager) RenderFileList(side Side) []fsapi.FileEntry {
	m.mu.Lock()
	st := m.panels[side]

	view := make([]fsapi.FileEntry, 0, len(st.files))
	for _, f := range st.files {
		if !m.showHide && strings.HasPrefix(f.Name, ".") {
			continue
		}
		view = append(view, f)
	}
	view = filterFuzzy(view, st.filter)

	if m.sorter == nil || !m.sorter.Apply(side, view) {
		defaultSort(view)
	}
	st.view = view

	// Re-clamp focus against the new projection.
	if !st.focus.IsParent() {
		switch {
		case len(view) == 0 && st.currentPath != "/":
			st.focus = FocusParent()
		case len(view) == 0:
			st.focus = FocusRow(0)
		case st.focus.Row() >= len(view):
			st.focus = FocusRow(len(view) - 1)
		}
	}

	atRoot := st.currentPath == "/"
	focus := st.focus
	selected := make(map[string]struct{}, len(st.selected))
	for name := range st.selected {
		selected[name] = struct{}{}
	}
	renderer := m.renderer
	m.mu.Unlock()

	rows := make([]fsapi.FileEntry, 0, len(view)+1)
	if !atRoot {
		rows = append(rows, fsapi.ParentEntry())
	}
	rows = append(rows, view...)

	if renderer != nil {
		if !atRoot {
			renderer.RenderRow(side, -1, fsapi.ParentEntry(), false, focus.IsParent())
		}
		for i, entry := range view {
			_, isSelected := selected[entry.Name]
			focused := !focus.IsParent() && focus.Row() == i
			renderer.RenderRow(side, i, entry, isSelected, focused)
		}
	}

	if m.bus != nil {
		m.bus.EmitPanelRefreshed(event.PanelRefreshed{Panel: string(side)})
	}
	return rows
}

// filterFuzzy keeps only entries whose names fuzzy-match query. The ".."
// row is added after filtering and is never subject to it.
func filterFuzzy(files []fsapi.FileEntry, query string) []fsapi.FileEntry {
	if query == "" {
		return files
	}
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
	}
	matched := make(map[int]struct{})
	for _, match := range fuzzy.Find(query, names) {
		matched[match.Index] = struct{}{}
	}
	out := files[:0]
	for i, f := range files {
		if _, ok := matched[i]; ok {
			out = append(out, f)
		}
	}
	return out
}

// ToggleSelection flips the selection state of the named entry. The
// synthetic parent row is never selectable. Selection is keyed by name so
// it survives re-sorting and reloading.
func (m *Manager) ToggleSelection(side Side, name string) {
	if name == ".." {
		return
	}
	m.mu.Lock()
	st := m.panels[side]
	if _, ok := st.selected[name]; ok {
		delete(st.selected, name)
	} else {
		st.selected[name] = struct{}{}
	}
	m.mu.Unlock()
	m.RenderFileList(side)
}

// SelectRange selects all visible rows between fromRow and toRow
// inclusive, in either order. Focus does not move.
func (m *Manager) SelectRange(side Side, fromRow, toRow int) {
	if fromRow > toRow {
		fromRow, toRow = toRow, fromRow
	}
	m.mu.Lock()
	st := m.panels[side]
	if fromRow < 0 {
		fromRow = 0
	}
	if toRow >= len(st.view) {
		toRow = len(st.view) - 1
	}
	for i := fromRow; i <= toRow; i++ {
		st.selected[st.view[i].Name] = struct{}{}
	}
	m.mu.Unlock()
	m.RenderFileList(side)
}

// SelectAll selects every visible entry.
func (m *Manager) SelectAll(side Side) {
	m.mu.Lock()
	st := m.panels[side]
	for _, f := range st.view {
		st.selected[f.Name] = struct{}{}
	}
	m.mu.Unlock()
	m.RenderFileList(side)
}

// DeselectAll clears the panel's selection.
func (m *Manager) DeselectAll(side Side) {
	m.mu.Lock()
	m.panels[side].selected = make(map[string]struct{})
	m.mu.Unlock()
	m.RenderFileList(side)
}

// SelectedFiles returns the selected entry names in visible order;
// selected names no longer visible (filtered out) follow alphabetically.
func (m *Manager) SelectedFiles(side Side) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.panels[side]

	out := make([]string, 0, len(st.selected))
	seen := make(map[string]struct{}, len(st.selected))
	for _, f := range st.view {
		if _, ok := st.selected[f.Name]; ok {
			out = append(out, f.Name)
			seen[f.Name] = struct{}{}
		}
	}
	rest := make([]string, 0)
	for name := range st.selected {
		if _, ok := seen[name]; !ok {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

// SelectionCount returns the number of selected entries.
func (m *Manager) SelectionCount(side Side) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.panels[side].selected)
}

// IsSelected reports whether the named entry is selected.
func (m *Manager) IsSelected(side Side, name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.panels[side].selected[name]
	return ok
}

// ViewCount returns the number of visible rows from the last render, the
// synthetic parent row excluded.
func (m *Manager) ViewCount(side Side) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.panels[side].view)
}

// FocusOf returns the panel's current focus.
func (m *Manager) FocusOf(side Side) Focus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.panels[side].focus
}

// SetFocusRow moves focus to a specific visible row (click handlers).
func (m *Manager) SetFocusRow(side Side, row int) {
	m.mu.Lock()
	st := m.panels[side]
	if row == -1 && st.currentPath != "/" {
		st.focus = FocusParent()
	} else if row >= 0 && row < len(st.view) {
		st.focus = FocusRow(row)
	}
	m.mu.Unlock()
	m.UpdateFocus(side)
}

// NavigateUp moves the focus one row up, stopping at the parent row (or
// the first row when at the root).
func (m *Manager) NavigateUp(side Side) {
	m.mu.Lock()
	st := m.panels[side]
	if !st.focus.IsParent() {
		if st.focus.Row() > 0 {
			st.focus = FocusRow(st.focus.Row() - 1)
		} else if st.currentPath != "/" {
			st.focus = FocusParent()
		}
	}
	m.mu.Unlock()
	m.UpdateFocus(side)
}

// NavigateDown moves the focus one row down, clamped to the last row.
func (m *Manager) NavigateDown(side Side) {
	m.mu.Lock()
	st := m.panels[side]
	if st.focus.IsParent() {
		if len(st.view) > 0 {
			st.focus = FocusRow(0)
		}
	} else if st.focus.Row() < len(st.view)-1 {
		st.focus = FocusRow(st.focus.Row() + 1)
	}
	m.mu.Unlock()
	m.UpdateFocus(side)
}

// UpdateFocus pushes the current focus position to the renderer, which is
// responsible for the highlight and for scrolling the row into view.
func (m *Manager) UpdateFocus(side Side) {
	m.mu.Lock()
	idx := m.panels[side].focus.Index()
	renderer := m.renderer
	m.mu.Unlock()
	if renderer != nil {
		renderer.SetFocus(side, idx)
	}
}
