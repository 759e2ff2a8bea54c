package panel

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"dualpane-file-manager/internal/event"
	"dualpane-file-manager/internal/fsapi"
)

// listerFunc adapts a function to DirectoryLister.
type listerFunc func(ctx context.Context, storage, path string) ([]fsapi.FileEntry, error)

func (f listerFunc) List(ctx context.Context, storage, path string) ([]fsapi.FileEntry, error) {
	return f(ctx, storage, path)
}

// staticLister serves fixed listings keyed by path.
func staticLister(listings map[string][]fsapi.FileEntry) listerFunc {
	return func(ctx context.Context, storage, path string) ([]fsapi.FileEntry, error) {
		files, ok := listings[path]
		if !ok {
			return nil, errors.New("no such directory: " + path)
		}
		return files, nil
	}
}

// memStore is an in-memory SessionStore.
type memStore struct {
	mu   sync.Mutex
	docs map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{docs: make(map[string][]byte)}
}

func (m *memStore) Load(name string, v interface{}) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.docs[name]
	if !ok {
		return false
	}
	return json.Unmarshal(data, v) == nil
}

func (m *memStore) Save(name string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.docs[name] = data
	m.mu.Unlock()
	return nil
}

// recordingNotifier collects notifications.
type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) Notify(message string) {
	n.mu.Lock()
	n.messages = append(n.messages, message)
	n.mu.Unlock()
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.messages)
}

func entry(name string, isDir bool) fsapi.FileEntry {
	return fsapi.FileEntry{Name: name, IsDir: isDir}
}

func names(rows []fsapi.FileEntry) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Name
	}
	return out
}

func TestEndToEndScenario(t *testing.T) {
	lister := staticLister(map[string][]fsapi.FileEntry{
		"/": {
			{Name: "readme.md", IsDir: false, Size: 120},
			{Name: "docs", IsDir: true},
		},
	})
	m := NewManager(Options{API: lister, Bus: event.NewBus()})

	if err := m.ChangeStorage(Left, "local"); err != nil {
		t.Fatalf("ChangeStorage failed: %v", err)
	}
	if got := m.CurrentStorage(Left); got != "local" {
		t.Errorf("Expected storage local, got %s", got)
	}
	if got := m.CurrentPath(Left); got != "/" {
		t.Errorf("Expected path /, got %s", got)
	}

	rows := m.RenderFileList(Left)
	got := names(rows)
	want := []string{"docs", "readme.md"}
	if len(got) != len(want) {
		t.Fatalf("Expected rows %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Row %d: expected %s, got %s", i, want[i], got[i])
		}
	}

	m.ToggleSelection(Left, "readme.md")
	selected := m.SelectedFiles(Left)
	if len(selected) != 1 || selected[0] != "readme.md" {
		t.Errorf("Expected selection [readme.md], got %v", selected)
	}
}

func TestParentRowPrependedBelowRoot(t *testing.T) {
	lister := staticLister(map[string][]fsapi.FileEntry{
		"/sub": {entry("a.txt", false)},
	})
	m := NewManager(Options{API: lister})

	if err := m.LoadDirectory(Left, "/sub"); err != nil {
		t.Fatalf("LoadDirectory failed: %v", err)
	}
	rows := m.RenderFileList(Left)
	if len(rows) != 2 || !rows[0].IsParent || rows[0].Name != ".." {
		t.Fatalf("Expected synthetic .. row first, got %v", names(rows))
	}
}

func TestDirectoriesSortFirst(t *testing.T) {
	lister := staticLister(map[string][]fsapi.FileEntry{
		"/": {
			entry("b.txt", false),
			entry("a", true),
		},
	})
	m := NewManager(Options{API: lister})

	if err := m.LoadDirectory(Left, "/"); err != nil {
		t.Fatalf("LoadDirectory failed: %v", err)
	}
	rows := m.RenderFileList(Left)
	got := names(rows)
	if got[0] != "a" || got[1] != "b.txt" {
		t.Errorf("Expected directories first [a b.txt], got %v", got)
	}
}

// reverseSorter sorts by name descending, directories still first.
type reverseSorter struct{}

func (reverseSorter) Apply(side Side, files []fsapi.FileEntry) bool {
	for i := 0; i < len(files)/2; i++ {
		files[i], files[len(files)-1-i] = files[len(files)-1-i], files[i]
	}
	return true
}

func TestSelectionSurvivesResort(t *testing.T) {
	lister := staticLister(map[string][]fsapi.FileEntry{
		"/": {
			entry("foo.txt", false),
			entry("bar.txt", false),
			entry("baz.txt", false),
		},
	})
	m := NewManager(Options{API: lister})

	if err := m.LoadDirectory(Left, "/"); err != nil {
		t.Fatalf("LoadDirectory failed: %v", err)
	}
	m.RenderFileList(Left)
	m.ToggleSelection(Left, "foo.txt")

	m.SetSorter(reverseSorter{})
	m.RenderFileList(Left)

	selected := m.SelectedFiles(Left)
	if len(selected) != 1 || selected[0] != "foo.txt" {
		t.Errorf("Expected foo.txt still selected after re-sort, got %v", selected)
	}
}

func TestLoadFailureLeavesStateUntouched(t *testing.T) {
	calls := 0
	lister := listerFunc(func(ctx context.Context, storage, path string) ([]fsapi.FileEntry, error) {
		calls++
		if path == "/" {
			return []fsapi.FileEntry{entry("keep.txt", false)}, nil
		}
		return nil, errors.New("backend down")
	})
	notifier := &recordingNotifier{}
	m := NewManager(Options{API: lister, Notifier: notifier})

	if err := m.LoadDirectory(Left, "/"); err != nil {
		t.Fatalf("Initial load failed: %v", err)
	}
	if err := m.LoadDirectory(Left, "/broken"); err == nil {
		t.Fatal("Expected load error")
	}

	if got := m.CurrentPath(Left); got != "/" {
		t.Errorf("Expected path unchanged at /, got %s", got)
	}
	files := m.Files(Left)
	if len(files) != 1 || files[0].Name != "keep.txt" {
		t.Errorf("Expected files unchanged, got %v", names(files))
	}
	if notifier.count() != 1 {
		t.Errorf("Expected one notification, got %d", notifier.count())
	}
	if calls != 2 {
		t.Errorf("Expected 2 list calls, got %d", calls)
	}
}

func TestStaleResponseDiscarded(t *testing.T) {
	release := make(chan struct{})
	var call int32
	lister := listerFunc(func(ctx context.Context, storage, path string) ([]fsapi.FileEntry, error) {
		if atomic.AddInt32(&call, 1) == 1 {
			<-release
			return []fsapi.FileEntry{entry("stale.txt", false)}, nil
		}
		return []fsapi.FileEntry{entry("fresh.txt", false)}, nil
	})
	m := NewManager(Options{API: lister})

	done := make(chan error, 1)
	go func() { done <- m.LoadDirectory(Left, "/old") }()

	// Wait for the first load to be in flight.
	for atomic.LoadInt32(&call) == 0 {
		time.Sleep(time.Millisecond)
	}

	if err := m.LoadDirectory(Left, "/new"); err != nil {
		t.Fatalf("Second load failed: %v", err)
	}

	// Let the first (now stale) response arrive.
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("Stale load should discard silently, got %v", err)
	}

	if got := m.CurrentPath(Left); got != "/new" {
		t.Errorf("Expected last issued navigation to win, path is %s", got)
	}
	files := m.Files(Left)
	if len(files) != 1 || files[0].Name != "fresh.txt" {
		t.Errorf("Expected fresh listing, got %v", names(files))
	}
}

func TestStaleErrorDiscarded(t *testing.T) {
	release := make(chan struct{})
	var call int32
	lister := listerFunc(func(ctx context.Context, storage, path string) ([]fsapi.FileEntry, error) {
		if atomic.AddInt32(&call, 1) == 1 {
			<-release
			return nil, errors.New("slow failure")
		}
		return []fsapi.FileEntry{entry("fresh.txt", false)}, nil
	})
	notifier := &recordingNotifier{}
	m := NewManager(Options{API: lister, Notifier: notifier})

	done := make(chan error, 1)
	go func() { done <- m.LoadDirectory(Left, "/old") }()
	for atomic.LoadInt32(&call) == 0 {
		time.Sleep(time.Millisecond)
	}

	if err := m.LoadDirectory(Left, "/new"); err != nil {
		t.Fatalf("Second load failed: %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("Stale failure should discard silently, got %v", err)
	}
	if notifier.count() != 0 {
		t.Errorf("Expected no notification for a stale failure, got %d", notifier.count())
	}
	if got := m.CurrentPath(Left); got != "/new" {
		t.Errorf("Expected /new, got %s", got)
	}
}

func TestFocusClampInvariant(t *testing.T) {
	lister := staticLister(map[string][]fsapi.FileEntry{
		"/sub": {
			entry("a.txt", false),
			entry("b.txt", false),
			entry("c.txt", false),
		},
	})
	m := NewManager(Options{API: lister})

	if err := m.LoadDirectory(Left, "/sub"); err != nil {
		t.Fatalf("LoadDirectory failed: %v", err)
	}
	m.RenderFileList(Left)

	if got := m.FocusOf(Left).Index(); got != 0 {
		t.Fatalf("Expected initial focus on row 0, got %d", got)
	}

	// Up from the first row focuses the parent entry below root.
	m.NavigateUp(Left)
	if !m.FocusOf(Left).IsParent() {
		t.Error("Expected parent row focused")
	}
	if got := m.FocusOf(Left).Index(); got != -1 {
		t.Errorf("Expected index -1 for parent focus, got %d", got)
	}

	// Up from the parent row stays put.
	m.NavigateUp(Left)
	if !m.FocusOf(Left).IsParent() {
		t.Error("Expected focus to stay on parent row")
	}

	// Down walks back through the rows and clamps at the last one.
	for i := 0; i < 10; i++ {
		m.NavigateDown(Left)
	}
	if got := m.FocusOf(Left).Index(); got != 2 {
		t.Errorf("Expected focus clamped to last row 2, got %d", got)
	}
}

func TestFocusNeverParentAtRoot(t *testing.T) {
	lister := staticLister(map[string][]fsapi.FileEntry{
		"/": {entry("a.txt", false)},
	})
	m := NewManager(Options{API: lister})

	if err := m.LoadDirectory(Left, "/"); err != nil {
		t.Fatalf("LoadDirectory failed: %v", err)
	}
	m.RenderFileList(Left)

	m.NavigateUp(Left)
	if m.FocusOf(Left).IsParent() {
		t.Error("Parent focus must not exist at the root")
	}
	if got := m.FocusOf(Left).Index(); got != 0 {
		t.Errorf("Expected focus to stay at row 0, got %d", got)
	}
}

func TestFocusReclampedWhenViewShrinks(t *testing.T) {
	lister := staticLister(map[string][]fsapi.FileEntry{
		"/sub": {
			entry("aaa.txt", false),
			entry("bbb.txt", false),
			entry("ccc.txt", false),
		},
	})
	m := NewManager(Options{API: lister})
	if err := m.LoadDirectory(Left, "/sub"); err != nil {
		t.Fatalf("LoadDirectory failed: %v", err)
	}
	m.RenderFileList(Left)
	m.NavigateDown(Left)
	m.NavigateDown(Left)
	if got := m.FocusOf(Left).Index(); got != 2 {
		t.Fatalf("Expected focus on row 2, got %d", got)
	}

	m.SetQuickFilter(Left, "aaa")
	if got := m.FocusOf(Left).Index(); got != 0 {
		t.Errorf("Expected focus clamped into filtered view, got %d", got)
	}
}

func TestSelectRangeIsOrderIndependent(t *testing.T) {
	lister := staticLister(map[string][]fsapi.FileEntry{
		"/": {
			entry("a.txt", false),
			entry("b.txt", false),
			entry("c.txt", false),
			entry("d.txt", false),
		},
	})
	m := NewManager(Options{API: lister})
	if err := m.LoadDirectory(Left, "/"); err != nil {
		t.Fatalf("LoadDirectory failed: %v", err)
	}
	m.RenderFileList(Left)

	focusBefore := m.FocusOf(Left)
	m.SelectRange(Left, 2, 0)

	selected := m.SelectedFiles(Left)
	if len(selected) != 3 {
		t.Errorf("Expected 3 selected, got %v", selected)
	}
	if m.FocusOf(Left) != focusBefore {
		t.Error("SelectRange must not move focus")
	}
}

func TestSelectAllAndDeselectAll(t *testing.T) {
	lister := staticLister(map[string][]fsapi.FileEntry{
		"/sub": {
			entry("a.txt", false),
			entry("b.txt", false),
		},
	})
	m := NewManager(Options{API: lister})
	if err := m.LoadDirectory(Left, "/sub"); err != nil {
		t.Fatalf("LoadDirectory failed: %v", err)
	}
	m.RenderFileList(Left)

	m.SelectAll(Left)
	if got := m.SelectionCount(Left); got != 2 {
		t.Errorf("Expected 2 selected, got %d", got)
	}
	if m.IsSelected(Left, "..") {
		t.Error("Synthetic parent row must never be selected")
	}

	m.DeselectAll(Left)
	if got := m.SelectionCount(Left); got != 0 {
		t.Errorf("Expected 0 selected, got %d", got)
	}
}

func TestToggleSelectionIgnoresParentRow(t *testing.T) {
	lister := staticLister(map[string][]fsapi.FileEntry{
		"/sub": {entry("a.txt", false)},
	})
	m := NewManager(Options{API: lister})
	if err := m.LoadDirectory(Left, "/sub"); err != nil {
		t.Fatalf("LoadDirectory failed: %v", err)
	}
	m.RenderFileList(Left)

	m.ToggleSelection(Left, "..")
	if got := m.SelectionCount(Left); got != 0 {
		t.Errorf("Expected .. not selectable, got %d selected", got)
	}
}

func TestLoadClearsSelectionAndResetsFocus(t *testing.T) {
	lister := staticLister(map[string][]fsapi.FileEntry{
		"/":    {entry("a.txt", false), entry("b.txt", false)},
		"/sub": {entry("x.txt", false)},
	})
	m := NewManager(Options{API: lister})
	if err := m.LoadDirectory(Left, "/"); err != nil {
		t.Fatalf("LoadDirectory failed: %v", err)
	}
	m.RenderFileList(Left)
	m.ToggleSelection(Left, "a.txt")
	m.NavigateDown(Left)

	if err := m.LoadDirectory(Left, "/sub"); err != nil {
		t.Fatalf("LoadDirectory failed: %v", err)
	}
	if got := m.SelectionCount(Left); got != 0 {
		t.Errorf("Expected selection cleared on load, got %d", got)
	}
	if got := m.FocusOf(Left).Index(); got != 0 {
		t.Errorf("Expected focus reset to row 0, got %d", got)
	}
}

func TestChangeStorageEmitsBeforeLoadCompletes(t *testing.T) {
	lister := staticLister(map[string][]fsapi.FileEntry{
		"/": {entry("a.txt", false)},
	})
	bus := event.NewBus()
	var order []string
	bus.OnStorageChanged(func(e event.StorageChanged) { order = append(order, "storage:"+e.Storage) })
	bus.OnPathChanged(func(e event.PathChanged) { order = append(order, "path:"+e.Path) })

	m := NewManager(Options{API: lister, Bus: bus})
	if err := m.ChangeStorage(Right, "s3-bucket"); err != nil {
		t.Fatalf("ChangeStorage failed: %v", err)
	}

	if len(order) != 2 || order[0] != "storage:s3-bucket" || order[1] != "path:/" {
		t.Errorf("Expected storageChanged before pathChanged, got %v", order)
	}
}

func TestHiddenFilesFilteredByDefault(t *testing.T) {
	lister := staticLister(map[string][]fsapi.FileEntry{
		"/": {
			entry(".hidden", false),
			entry("visible.txt", false),
		},
	})
	m := NewManager(Options{API: lister})
	if err := m.LoadDirectory(Left, "/"); err != nil {
		t.Fatalf("LoadDirectory failed: %v", err)
	}

	rows := m.RenderFileList(Left)
	if len(rows) != 1 || rows[0].Name != "visible.txt" {
		t.Errorf("Expected dotfiles hidden, got %v", names(rows))
	}

	m.SetShowHidden(true)
	rows = m.RenderFileList(Left)
	if len(rows) != 2 {
		t.Errorf("Expected dotfiles shown, got %v", names(rows))
	}
}

func TestQuickFilterIsProjectionOnly(t *testing.T) {
	lister := staticLister(map[string][]fsapi.FileEntry{
		"/": {
			entry("report.pdf", false),
			entry("notes.txt", false),
		},
	})
	m := NewManager(Options{API: lister})
	if err := m.LoadDirectory(Left, "/"); err != nil {
		t.Fatalf("LoadDirectory failed: %v", err)
	}
	m.RenderFileList(Left)
	m.ToggleSelection(Left, "report.pdf")

	m.SetQuickFilter(Left, "notes")
	rows := m.RenderFileList(Left)
	if len(rows) != 1 || rows[0].Name != "notes.txt" {
		t.Errorf("Expected filtered view [notes.txt], got %v", names(rows))
	}
	if len(m.Files(Left)) != 2 {
		t.Error("Quick filter must not mutate the raw listing")
	}
	if !m.IsSelected(Left, "report.pdf") {
		t.Error("Quick filter must not mutate the selection")
	}

	m.SetQuickFilter(Left, "")
	if rows := m.RenderFileList(Left); len(rows) != 2 {
		t.Errorf("Expected full view after clearing filter, got %v", names(rows))
	}
}

func TestSessionRoundTripAndStaleness(t *testing.T) {
	lister := staticLister(map[string][]fsapi.FileEntry{
		"/":     {entry("a", true)},
		"/deep": {entry("b.txt", false)},
	})
	st := newMemStore()
	m := NewManager(Options{API: lister, Store: st})
	m.panels[Left].storageID = "local"
	m.panels[Right].storageID = "s3-bucket"

	if err := m.LoadDirectory(Left, "/deep"); err != nil {
		t.Fatalf("LoadDirectory failed: %v", err)
	}
	m.SetActivePanel(Right)

	snap := m.LoadSession()
	if snap == nil {
		t.Fatal("Expected a restorable session")
	}
	if snap.Left.Path != "/deep" || snap.Left.Storage != "local" {
		t.Errorf("Unexpected left session: %+v", snap.Left)
	}
	if snap.ActivePanel != "right" {
		t.Errorf("Expected active panel right, got %s", snap.ActivePanel)
	}

	// A session older than 24 hours is discarded.
	m.now = func() time.Time { return time.Now().Add(25 * time.Hour) }
	if m.LoadSession() != nil {
		t.Error("Expected stale session discarded")
	}
}

func TestInitializePanelsRestoresSession(t *testing.T) {
	lister := staticLister(map[string][]fsapi.FileEntry{
		"/":        {entry("top", true)},
		"/restore": {entry("kept.txt", false)},
	})
	st := newMemStore()

	first := NewManager(Options{API: lister, Store: st})
	first.panels[Left].storageID = "local"
	first.panels[Right].storageID = "local"
	if err := first.LoadDirectory(Left, "/restore"); err != nil {
		t.Fatalf("LoadDirectory failed: %v", err)
	}

	second := NewManager(Options{API: lister, Store: st})
	second.InitializePanels("local")

	if got := second.CurrentPath(Left); got != "/restore" {
		t.Errorf("Expected left panel restored to /restore, got %s", got)
	}
	if got := second.CurrentPath(Right); got != "/" {
		t.Errorf("Expected right panel at /, got %s", got)
	}
}

func TestInitializePanelsFallsBackToDefaults(t *testing.T) {
	lister := staticLister(map[string][]fsapi.FileEntry{
		"/": {entry("a", true)},
	})
	m := NewManager(Options{API: lister, Store: newMemStore()})
	m.InitializePanels("local")

	for _, side := range Sides() {
		if got := m.CurrentStorage(side); got != "local" {
			t.Errorf("Expected %s storage local, got %s", side, got)
		}
		if got := m.CurrentPath(side); got != "/" {
			t.Errorf("Expected %s path /, got %s", side, got)
		}
	}
}

func TestInitializePanelsFallsBackToRootOnBadPath(t *testing.T) {
	lister := staticLister(map[string][]fsapi.FileEntry{
		"/": {entry("a", true)},
	})
	st := newMemStore()
	st.Save("session", SessionSnapshot{
		Left:        PanelSession{Storage: "local", Path: "/gone"},
		Right:       PanelSession{Storage: "local", Path: "/"},
		ActivePanel: "left",
		Timestamp:   time.Now().UnixMilli(),
	})

	m := NewManager(Options{API: lister, Store: st})
	m.InitializePanels("local")

	if got := m.CurrentPath(Left); got != "/" {
		t.Errorf("Expected fallback to /, got %s", got)
	}
}

func TestCrossPanelIndependence(t *testing.T) {
	lister := staticLister(map[string][]fsapi.FileEntry{
		"/l": {entry("left.txt", false)},
		"/r": {entry("right.txt", false)},
	})
	m := NewManager(Options{API: lister})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); m.LoadDirectory(Left, "/l") }()
	go func() { defer wg.Done(); m.LoadDirectory(Right, "/r") }()
	wg.Wait()

	if got := m.CurrentPath(Left); got != "/l" {
		t.Errorf("Expected left at /l, got %s", got)
	}
	if got := m.CurrentPath(Right); got != "/r" {
		t.Errorf("Expected right at /r, got %s", got)
	}
}

func TestPanelRefreshedEmittedOnRender(t *testing.T) {
	lister := staticLister(map[string][]fsapi.FileEntry{
		"/": {entry("a.txt", false)},
	})
	bus := event.NewBus()
	var refreshed []string
	bus.OnPanelRefreshed(func(e event.PanelRefreshed) { refreshed = append(refreshed, e.Panel) })

	m := NewManager(Options{API: lister, Bus: bus})
	if err := m.LoadDirectory(Left, "/"); err != nil {
		t.Fatalf("LoadDirectory failed: %v", err)
	}
	m.RenderFileList(Left)
	m.RenderFileList(Left)

	if len(refreshed) != 2 {
		t.Errorf("Expected panelRefreshed per render, got %v", refreshed)
	}
}
