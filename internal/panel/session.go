package panel

import (
	"log"
	"time"
)

// sessionMaxAge is how long a persisted session remains restorable.
const sessionMaxAge = 24 * time.Hour

// PanelSession is the persisted position of one panel.
type PanelSession struct {
	Storage string `json:"storage"`
	Path    string `json:"path"`
}

// SessionSnapshot is the persisted state of both panels.
type SessionSnapshot struct {
	Left        PanelSession `json:"left"`
	Right       PanelSession `json:"right"`
	ActivePanel string       `json:"activePanel"`
	Timestamp   int64        `json:"timestamp"` // epoch-ms
}

// SaveSession writes the current panel positions to the store.
func (m *Manager) SaveSession() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveSessionLocked()
}

func (m *Manager) saveSessionLocked() error {
	if m.store == nil {
		return nil
	}
	snap := SessionSnapshot{
		Left: PanelSession{
			Storage: m.panels[Left].storageID,
			Path:    m.panels[Left].currentPath,
		},
		Right: PanelSession{
			Storage: m.panels[Right].storageID,
			Path:    m.panels[Right].currentPath,
		},
		ActivePanel: string(m.active),
		Timestamp:   m.now().UnixMilli(),
	}
	if err := m.store.Save("session", snap); err != nil {
		log.Printf("⚠️ Failed to persist session: %v", err)
		return err
	}
	return nil
}

// LoadSession returns the persisted session, or nil when none exists or
// it is older than 24 hours.
func (m *Manager) LoadSession() *SessionSnapshot {
	if m.store == nil {
		return nil
	}
	var snap SessionSnapshot
	if !m.store.Load("session", &snap) {
		return nil
	}
	age := m.now().UnixMilli() - snap.Timestamp
	if age < 0 || age > sessionMaxAge.Milliseconds() {
		return nil
	}
	return &snap
}

// InitializePanels restores both panels from a recent session, or starts
// them at the root of the default storage backend. A panel whose restored
// path fails to load falls back to the root of its restored storage.
func (m *Manager) InitializePanels(defaultStorage string) {
	snap := m.LoadSession()

	restore := func(side Side, saved PanelSession) {
		storage := saved.Storage
		path := saved.Path
		if storage == "" {
			storage = defaultStorage
			path = "/"
		}
		if path == "" {
			path = "/"
		}

		m.mu.Lock()
		m.panels[side].storageID = storage
		m.mu.Unlock()

		if err := m.LoadDirectory(side, path); err != nil && path != "/" {
			if err := m.LoadDirectory(side, "/"); err != nil {
				log.Printf("⚠️ Failed to initialize %s panel: %v", side, err)
			}
		}
	}

	if snap != nil {
		if Side(snap.ActivePanel).Valid() {
			m.mu.Lock()
			m.active = Side(snap.ActivePanel)
			m.mu.Unlock()
		}
		restore(Left, snap.Left)
		restore(Right, snap.Right)
		return
	}

	restore(Left, PanelSession{Storage: defaultStorage, Path: "/"})
	restore(Right, PanelSession{Storage: defaultStorage, Path: "/"})
}
