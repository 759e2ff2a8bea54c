// Package app wires the panel engine to the Wails frontend: every bound
// method is callable from the browser side, and engine events are
// forwarded as runtime events the frontend re-renders from.
package app

import (
	"context"
	"log"
	"path"
	"sync"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"dualpane-file-manager/internal/breadcrumb"
	"dualpane-file-manager/internal/dragdrop"
	"dualpane-file-manager/internal/event"
	"dualpane-file-manager/internal/fsapi"
	"dualpane-file-manager/internal/history"
	"dualpane-file-manager/internal/panel"
	"dualpane-file-manager/internal/store"
	"dualpane-file-manager/internal/table"
)

const appName = "dualpane"

// App is the Wails-bound application facade.
type App struct {
	ctx context.Context

	mu        sync.Mutex
	settings  Settings
	bookmarks []Bookmark

	bus         *event.Bus
	store       *store.Store
	client      *fsapi.Client
	panels      *panel.Manager
	table       *table.Enhancements
	drag        *dragdrop.Manager
	histories   map[panel.Side]*history.History
	breadcrumbs map[panel.Side]*breadcrumb.Nav
	watcher     *store.Watcher
	progress    *fsapi.ProgressChannel
}

// NewApp creates the application facade.
func NewApp() *App {
	return &App{
		bus:         event.NewBus(),
		histories:   make(map[panel.Side]*history.History),
		breadcrumbs: make(map[panel.Side]*breadcrumb.Nav),
	}
}

// Startup is called by Wails when the app starts. The context is saved so
// runtime events can reach the frontend.
func (a *App) Startup(ctx context.Context) {
	a.ctx = ctx

	st, err := store.Open(appName)
	if err != nil {
		log.Printf("⚠️ Persistence unavailable, running with in-memory state: %v", err)
	} else {
		a.store = st
	}

	a.settings = defaultSettings()
	if a.store != nil {
		a.settings = loadSettings(a.store)
		a.store.Load("bookmarks", &a.bookmarks)
	}

	// A typed-nil store must stay nil behind the interfaces below.
	var sessions panel.SessionStore
	var persister history.Persister
	if a.store != nil {
		sessions = a.store
		persister = a.store
	}

	a.client = fsapi.New(fsapi.Config{BaseURL: a.settings.BackendURL})
	a.table = table.New()
	a.panels = panel.NewManager(panel.Options{
		API:      a.client,
		Bus:      a.bus,
		Store:    sessions,
		Notifier: a,
		Renderer: a,
		Sorter:   a.table,
	})
	a.panels.SetShowHidden(a.settings.ShowHidden)
	a.drag = dragdrop.NewManager(a.panels, a.client, a)

	for _, side := range panel.Sides() {
		side := side
		a.histories[side] = history.New(string(side), persister, func(p string) {
			if err := a.panels.LoadDirectory(side, p); err != nil {
				log.Printf("⚠️ History navigation to %s failed: %v", p, err)
			}
		})
		a.breadcrumbs[side] = breadcrumb.NewNav(a.panels, side)
	}

	a.subscribeEvents()
	a.watchStore()

	go a.panels.InitializePanels(a.settings.DefaultStorage)
}

// Shutdown tears down background resources.
func (a *App) Shutdown(ctx context.Context) {
	if a.watcher != nil {
		a.watcher.Close()
	}
	if a.progress != nil {
		a.progress.Close()
	}
}

// subscribeEvents forwards every bus event to the frontend and keeps the
// dependent components in sync.
func (a *App) subscribeEvents() {
	a.bus.OnPathChanged(func(e event.PathChanged) {
		a.histories[panel.Side(e.Panel)].Add(e.Path)
		a.emit("pathChanged", e)
		a.emit("historyState", a.historyState(panel.Side(e.Panel)))
		a.panels.RenderFileList(panel.Side(e.Panel))
	})
	a.bus.OnStorageChanged(func(e event.StorageChanged) {
		a.emit("storageChanged", e)
	})
	a.bus.OnPanelRefreshed(func(e event.PanelRefreshed) {
		side := panel.Side(e.Panel)
		a.emit("panelRefreshed", e)
		a.emit("selectAllState", map[string]interface{}{
			"panel": e.Panel,
			"state": table.SelectAllState(a.panels.SelectionCount(side), a.panels.ViewCount(side)),
		})
		a.emit("breadcrumb", map[string]interface{}{
			"panel":    e.Panel,
			"segments": a.breadcrumbs[side].Trail(),
		})
	})
	a.bus.OnFilesDropped(func(e event.FilesDropped) {
		// Upload handling lives outside the panel engine; the frontend
		// owns it.
		a.emit("filesDropped", e)
	})
}

// watchStore reloads advisory state rewritten by another app instance.
// Last writer wins; nothing here is correctness-critical.
func (a *App) watchStore() {
	if a.store == nil {
		return
	}
	w, err := a.store.Watch()
	if err != nil {
		log.Printf("⚠️ Store watcher unavailable: %v", err)
		return
	}
	a.watcher = w
	go func() {
		for name := range w.Changed {
			log.Printf("🔄 Store document %s changed externally", name)
			if name == "bookmarks" {
				a.reloadBookmarks()
			}
			a.emit("storeChanged", name)
		}
	}()
}

// emit forwards an event to the frontend when one is attached.
func (a *App) emit(name string, payload interface{}) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, name, payload)
}

// Notify implements panel.Notifier: transient, user-visible error toasts.
func (a *App) Notify(message string) {
	a.emit("notification", message)
}

// RenderRow implements panel.RowRenderer by streaming rows to the
// frontend.
func (a *App) RenderRow(side panel.Side, index int, entry fsapi.FileEntry, selected, focused bool) {
	a.emit("renderRow", map[string]interface{}{
		"panel":    string(side),
		"index":    index,
		"entry":    entry,
		"size":     table.FormatSize(entry),
		"selected": selected,
		"focused":  focused,
	})
}

// SetFocus implements panel.RowRenderer; the frontend moves the highlight
// and scrolls the row into view.
func (a *App) SetFocus(side panel.Side, index int) {
	a.emit("focusChanged", map[string]interface{}{
		"panel": string(side),
		"index": index,
	})
}

// --- Navigation -----------------------------------------------------------

// Navigate loads a directory in the given panel.
func (a *App) Navigate(side string, path string) error {
	return a.panels.LoadDirectory(panel.Side(side), path)
}

// ChangeStorage switches the panel's storage backend.
func (a *App) ChangeStorage(side string, storageID string) error {
	return a.panels.ChangeStorage(panel.Side(side), storageID)
}

// RenderPanel re-renders a panel and returns the visible rows.
func (a *App) RenderPanel(side string) []fsapi.FileEntry {
	return a.panels.RenderFileList(panel.Side(side))
}

// Refresh reloads one panel.
func (a *App) Refresh(side string) error {
	return a.panels.Refresh(panel.Side(side))
}

// RefreshBoth reloads both panels.
func (a *App) RefreshBoth() {
	a.panels.RefreshBoth()
}

// OpenRow opens the visible row: directories (and the -1 parent row)
// navigate, files are left to the frontend to preview.
func (a *App) OpenRow(side string, row int) error {
	s := panel.Side(side)
	if row == -1 {
		a.histories[s].NavigateToParent(a.panels.CurrentPath(s))
		return nil
	}
	entry, ok := a.panels.FileAt(s, row)
	if !ok || !entry.IsDir {
		return nil
	}
	return a.panels.LoadDirectory(s, path.Join(a.panels.CurrentPath(s), entry.Name))
}

// CurrentPath returns the panel's current directory.
func (a *App) CurrentPath(side string) string {
	return a.panels.CurrentPath(panel.Side(side))
}

// CurrentStorage returns the panel's storage backend id.
func (a *App) CurrentStorage(side string) string {
	return a.panels.CurrentStorage(panel.Side(side))
}

// SetActivePanel records keyboard focus.
func (a *App) SetActivePanel(side string) {
	a.panels.SetActivePanel(panel.Side(side))
}

// ActivePanel returns the focused panel side.
func (a *App) ActivePanel() string {
	return string(a.panels.ActivePanel())
}

// --- Selection and focus --------------------------------------------------

// ToggleSelection flips one entry's selection.
func (a *App) ToggleSelection(side string, name string) {
	a.panels.ToggleSelection(panel.Side(side), name)
}

// SelectRange selects the inclusive row range, order-independent.
func (a *App) SelectRange(side string, fromRow, toRow int) {
	a.panels.SelectRange(panel.Side(side), fromRow, toRow)
}

// SelectAll selects all visible entries.
func (a *App) SelectAll(side string) {
	a.panels.SelectAll(panel.Side(side))
}

// DeselectAll clears the selection.
func (a *App) DeselectAll(side string) {
	a.panels.DeselectAll(panel.Side(side))
}

// SelectedFiles returns the selected entry names.
func (a *App) SelectedFiles(side string) []string {
	return a.panels.SelectedFiles(panel.Side(side))
}

// NavigateUp moves the focus cursor up one row.
func (a *App) NavigateUp(side string) {
	a.panels.NavigateUp(panel.Side(side))
}

// NavigateDown moves the focus cursor down one row.
func (a *App) NavigateDown(side string) {
	a.panels.NavigateDown(panel.Side(side))
}

// SetFocusRow moves the focus cursor to a clicked row.
func (a *App) SetFocusRow(side string, row int) {
	a.panels.SetFocusRow(panel.Side(side), row)
}

// QuickFilter fuzzy-filters the panel's visible rows.
func (a *App) QuickFilter(side string, query string) {
	a.panels.SetQuickFilter(panel.Side(side), query)
}

// --- History --------------------------------------------------------------

type historyState struct {
	Panel      string `json:"panel"`
	CanGoBack  bool   `json:"canGoBack"`
	CanForward bool   `json:"canGoForward"`
}

func (a *App) historyState(side panel.Side) historyState {
	h := a.histories[side]
	return historyState{
		Panel:      string(side),
		CanGoBack:  h.CanGoBack(),
		CanForward: h.CanGoForward(),
	}
}

// GoBack navigates the panel to the previous history entry.
func (a *App) GoBack(side string) {
	a.histories[panel.Side(side)].GoBack()
	a.emit("historyState", a.historyState(panel.Side(side)))
}

// GoForward navigates the panel to the next history entry.
func (a *App) GoForward(side string) {
	a.histories[panel.Side(side)].GoForward()
	a.emit("historyState", a.historyState(panel.Side(side)))
}

// NavigateToParent moves the panel one directory up.
func (a *App) NavigateToParent(side string) {
	s := panel.Side(side)
	a.histories[s].NavigateToParent(a.panels.CurrentPath(s))
}

// HistoryState returns button enablement for the panel.
func (a *App) HistoryState(side string) historyState {
	return a.historyState(panel.Side(side))
}

// FrequentPaths returns the panel's most visited paths.
func (a *App) FrequentPaths(side string, n int) []history.PathVisit {
	return a.histories[panel.Side(side)].FrequentPaths(n)
}

// ClearHistory empties the panel's history after user confirmation.
func (a *App) ClearHistory(side string) bool {
	return a.histories[panel.Side(side)].Clear(func() bool {
		if a.ctx == nil {
			return false
		}
		choice, err := runtime.MessageDialog(a.ctx, runtime.MessageDialogOptions{
			Type:          runtime.QuestionDialog,
			Title:         "Clear History",
			Message:       "Clear navigation history and visit statistics for this panel?",
			Buttons:       []string{"Clear", "Cancel"},
			DefaultButton: "Cancel",
		})
		return err == nil && choice == "Clear"
	})
}

// --- Breadcrumb -----------------------------------------------------------

// Breadcrumb returns the clickable trail for the panel.
func (a *App) Breadcrumb(side string) []breadcrumb.Segment {
	return a.breadcrumbs[panel.Side(side)].Trail()
}

// BreadcrumbNavigate loads the directory of the clicked segment.
func (a *App) BreadcrumbNavigate(side string, index int) error {
	return a.breadcrumbs[panel.Side(side)].Navigate(index)
}

// --- Table ----------------------------------------------------------------

// SortByColumn records a header click and re-renders the panel.
func (a *App) SortByColumn(side string, column string) table.SortState {
	st := a.table.SortByColumn(panel.Side(side), table.Column(column))
	a.panels.RenderFileList(panel.Side(side))
	return st
}

// --- Drag and drop --------------------------------------------------------

// StartDrag begins a drag from the named row.
func (a *App) StartDrag(side string, name string) dragdrop.Session {
	return a.drag.StartDrag(panel.Side(side), name)
}

// DragOver returns the live drop effect ("copy" or "move") for the
// current modifier state.
func (a *App) DragOver(mods dragdrop.Modifiers) string {
	return a.drag.DragOver(mods).String()
}

// DropOnFolder drops the dragged files onto a folder row.
func (a *App) DropOnFolder(side string, folderName string, mods dragdrop.Modifiers) error {
	return a.drag.DropOnFolder(context.Background(), panel.Side(side), folderName, mods)
}

// DropOnPanel drops the dragged files into the panel's current directory.
func (a *App) DropOnPanel(side string, mods dragdrop.Modifiers) error {
	return a.drag.DropOnPanel(context.Background(), panel.Side(side), mods)
}

// CancelDrag discards the in-flight drag session.
func (a *App) CancelDrag() {
	a.drag.CancelDrag()
}

// NotifyFilesDropped reports an external (OS) file drop for upload.
func (a *App) NotifyFilesDropped(side string, files []string) {
	a.bus.EmitFilesDropped(event.FilesDropped{Panel: side, Files: files})
}

// --- Operations -----------------------------------------------------------

// Rename renames an entry in the panel's current directory and refreshes.
func (a *App) Rename(side string, oldName, newName string) error {
	s := panel.Side(side)
	dir := a.panels.CurrentPath(s)
	err := a.client.Rename(context.Background(), path.Join(dir, oldName), path.Join(dir, newName))
	if err != nil {
		a.Notify("Failed to rename " + oldName + ": " + err.Error())
		return err
	}
	return a.panels.Refresh(s)
}

// ConnectProgress opens the transfer progress channel and streams its
// messages to the frontend.
func (a *App) ConnectProgress() error {
	pc, err := a.client.DialProgress()
	if err != nil {
		return err
	}
	a.progress = pc
	go func() {
		for msg := range pc.C {
			a.emit("transferProgress", msg)
		}
	}()
	return nil
}

// CancelOperation asks the backend to abort a long-running transfer.
func (a *App) CancelOperation(operationID string) error {
	if a.progress == nil {
		return nil
	}
	return a.progress.Cancel(operationID)
}
