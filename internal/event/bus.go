// Package event is the typed in-process event bus connecting the panel
// engine to its dependent UI components. It replaces an untyped
// publish/subscribe surface with statically checkable subscriptions.
package event

import "sync"

// PathChanged is emitted after a successful directory load.
type PathChanged struct {
	Panel   string
	Path    string
	Storage string
}

// StorageChanged is emitted after a storage switch, before the subsequent
// load completes.
type StorageChanged struct {
	Panel   string
	Path    string
	Storage string
}

// PanelRefreshed is emitted after every re-render so row-level handlers
// can resync.
type PanelRefreshed struct {
	Panel string
}

// FilesDropped is emitted when external files are dropped on a panel for
// upload. Handled outside the panel engine.
type FilesDropped struct {
	Panel string
	Files []string
}

// Bus fans events out to registered handlers. Handlers run synchronously
// on the emitting goroutine, in registration order.
type Bus struct {
	mu             sync.RWMutex
	pathChanged    []func(PathChanged)
	storageChanged []func(StorageChanged)
	panelRefreshed []func(PanelRefreshed)
	filesDropped   []func(FilesDropped)
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// OnPathChanged registers a handler for PathChanged events.
func (b *Bus) OnPathChanged(fn func(PathChanged)) {
	b.mu.Lock()
	b.pathChanged = append(b.pathChanged, fn)
	b.mu.Unlock()
}

// OnStorageChanged registers a handler for StorageChanged events.
func (b *Bus) OnStorageChanged(fn func(StorageChanged)) {
	b.mu.Lock()
	b.storageChanged = append(b.storageChanged, fn)
	b.mu.Unlock()
}

// OnPanelRefreshed registers a handler for PanelRefreshed events.
func (b *Bus) OnPanelRefreshed(fn func(PanelRefreshed)) {
	b.mu.Lock()
	b.panelRefreshed = append(b.panelRefreshed, fn)
	b.mu.Unlock()
}

// OnFilesDropped registers a handler for FilesDropped events.
func (b *Bus) OnFilesDropped(fn func(FilesDropped)) {
	b.mu.Lock()
	b.filesDropped = append(b.filesDropped, fn)
	b.mu.Unlock()
}

// EmitPathChanged delivers e to all PathChanged handlers.
func (b *Bus) EmitPathChanged(e PathChanged) {
	b.mu.RLock()
	handlers := b.pathChanged
	b.mu.RUnlock()
	for _, fn := range handlers {
		fn(e)
	}
}

// EmitStorageChanged delivers e to all StorageChanged handlers.
func (b *Bus) EmitStorageChanged(e StorageChanged) {
	b.mu.RLock()
	handlers := b.storageChanged
	b.mu.RUnlock()
	for _, fn := range handlers {
		fn(e)
	}
}

// EmitPanelRefreshed delivers e to all PanelRefreshed handlers.
func (b *Bus) EmitPanelRefreshed(e PanelRefreshed) {
	b.mu.RLock()
	handlers := b.panelRefreshed
	b.mu.RUnlock()
	for _, fn := range handlers {
		fn(e)
	}
}

// EmitFilesDropped delivers e to all FilesDropped handlers.
func (b *Bus) EmitFilesDropped(e FilesDropped) {
	b.mu.RLock()
	handlers := b.filesDropped
	b.mu.RUnlock()
	for _, fn := range handlers {
		fn(e)
	}
}
