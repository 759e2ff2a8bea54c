// Package dragdrop tracks the ephemeral drag session between panels and
// turns drops into backend copy or move operations.
package dragdrop

import (
	"context"
	"fmt"
	"log"
	"path"
	"sync"

	"dualpane-file-manager/internal/fsapi"
	"dualpane-file-manager/internal/panel"
)

// Effect is the operation a drop performs.
type Effect int

const (
	EffectMove Effect = iota
	EffectCopy
)

func (e Effect) String() string {
	if e == EffectCopy {
		return "copy"
	}
	return "move"
}

// Modifiers is the live keyboard modifier state. It must be sampled at
// the decision point (dragover/drop), never cached at drag start: the user
// may change modifiers mid-drag.
type Modifiers struct {
	Ctrl bool `json:"ctrl"`
	Meta bool `json:"meta"`
}

// EffectFor derives the drop effect from live modifier state: ctrl/cmd
// held means copy, otherwise move.
func EffectFor(mods Modifiers) Effect {
	if mods.Ctrl || mods.Meta {
		return EffectCopy
	}
	return EffectMove
}

// TransferAPI is the slice of the backend client drops need.
type TransferAPI interface {
	Copy(ctx context.Context, req fsapi.TransferRequest) error
	Move(ctx context.Context, req fsapi.TransferRequest) error
}

// Session is the state of one drag, from drag start to drop or cancel.
type Session struct {
	SourcePanel  panel.Side `json:"sourcePanel"`
	DraggedFiles []string   `json:"draggedFiles"`
	IsDragging   bool       `json:"isDragging"`
}

// Manager coordinates drag sessions against the panel engine.
type Manager struct {
	mu      sync.Mutex
	session Session

	panels   *panel.Manager
	api      TransferAPI
	notifier panel.Notifier
}

// NewManager creates a drag-drop manager.
func NewManager(panels *panel.Manager, api TransferAPI, notifier panel.Notifier) *Manager {
	return &Manager{panels: panels, api: api, notifier: notifier}
}

// StartDrag begins a drag from the named row. If the row is part of the
// panel's selection the whole selection is the payload; otherwise the
// single row is dragged on its own.
func (m *Manager) StartDrag(side panel.Side, name string) Session {
	payload := []string{name}
	if m.panels.IsSelected(side, name) {
		payload = m.panels.SelectedFiles(side)
	}

	m.mu.Lock()
	m.session = Session{
		SourcePanel:  side,
		DraggedFiles: payload,
		IsDragging:   true,
	}
	s := m.session
	m.mu.Unlock()
	return s
}

// DragOver re-derives the drop effect from the live modifier state. The
// frontend calls this on every dragover so the cursor tracks modifier
// changes mid-drag.
func (m *Manager) DragOver(mods Modifiers) Effect {
	return EffectFor(mods)
}

// CancelDrag discards the current session.
func (m *Manager) CancelDrag() {
	m.mu.Lock()
	m.session = Session{}
	m.mu.Unlock()
}

// CurrentSession returns the in-flight drag session.
func (m *Manager) CurrentSession() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

// DropOnFolder drops the dragged files onto a folder row. Same-panel
// drops onto folders are honored.
func (m *Manager) DropOnFolder(ctx context.Context, target panel.Side, folderName string, mods Modifiers) error {
	targetPath := path.Join(m.panels.CurrentPath(target), folderName)
	return m.drop(ctx, target, targetPath, mods)
}

// DropOnPanel drops the dragged files onto a panel's empty area, i.e.
// into its current directory. Only cross-panel drops make sense here.
func (m *Manager) DropOnPanel(ctx context.Context, target panel.Side, mods Modifiers) error {
	m.mu.Lock()
	source := m.session.SourcePanel
	active := m.session.IsDragging
	m.mu.Unlock()

	if !active {
		return fmt.Errorf("no drag in progress")
	}
	if source == target {
		m.CancelDrag()
		return nil
	}
	return m.drop(ctx, target, m.panels.CurrentPath(target), mods)
}

// drop issues one backend call per dragged file, sequentially. A failed
// file is reported and the loop continues with the next one. Both the
// source and target panels refresh afterwards.
func (m *Manager) drop(ctx context.Context, target panel.Side, targetPath string, mods Modifiers) error {
	m.mu.Lock()
	session := m.session
	m.session = Session{}
	m.mu.Unlock()

	if !session.IsDragging || len(session.DraggedFiles) == 0 {
		return fmt.Errorf("no drag in progress")
	}

	effect := EffectFor(mods)
	sourceDir := m.panels.CurrentPath(session.SourcePanel)
	sourceStorage := m.panels.CurrentStorage(session.SourcePanel)
	targetStorage := m.panels.CurrentStorage(target)

	var failed int
	for _, name := range session.DraggedFiles {
		sourcePath := path.Join(sourceDir, name)
		if sourcePath == targetPath || sourceDir == targetPath {
			// Dropping an entry onto itself or back into its own
			// directory accomplishes nothing; skip it.
			continue
		}

		req := fsapi.TransferRequest{
			SourceStorage: sourceStorage,
			TargetStorage: targetStorage,
			SourcePath:    sourcePath,
			TargetPath:    path.Join(targetPath, name),
		}

		var err error
		if effect == EffectCopy {
			err = m.api.Copy(ctx, req)
		} else {
			err = m.api.Move(ctx, req)
		}
		if err != nil {
			failed++
			log.Printf("⚠️ Failed to %s %s: %v", effect, name, err)
			if m.notifier != nil {
				m.notifier.Notify(fmt.Sprintf("Failed to %s %s: %v", effect, name, err))
			}
			continue
		}
	}

	m.panels.RefreshBoth()

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed to %s", failed, len(session.DraggedFiles), effect)
	}
	return nil
}
