// Package breadcrumb projects a panel's (storage, path) pair into a
// clickable trail of path segments.
package breadcrumb

import (
	"fmt"
	"strings"

	"dualpane-file-manager/internal/panel"
)

// Segment is one clickable element of the trail.
type Segment struct {
	Label string `json:"label"`
	Path  string `json:"path"`
	Root  bool   `json:"root"`
}

// Trail builds the segment list for a path. The root segment is always
// present and labeled with the storage backend id.
func Trail(storage, path string) []Segment {
	rootLabel := storage
	if rootLabel == "" {
		rootLabel = "/"
	}
	segments := []Segment{{Label: rootLabel, Path: "/", Root: true}}

	if path == "" || path == "/" {
		return segments
	}

	current := ""
	for _, part := range strings.Split(strings.Trim(path, "/"), "/") {
		if part == "" {
			continue
		}
		current += "/" + part
		segments = append(segments, Segment{Label: part, Path: current})
	}
	return segments
}

// Nav dispatches breadcrumb clicks back to the panel manager.
type Nav struct {
	panels *panel.Manager
	side   panel.Side
}

// NewNav creates a breadcrumb navigator for one panel.
func NewNav(panels *panel.Manager, side panel.Side) *Nav {
	return &Nav{panels: panels, side: side}
}

// Trail returns the trail for the panel's current state.
func (n *Nav) Trail() []Segment {
	return Trail(n.panels.CurrentStorage(n.side), n.panels.CurrentPath(n.side))
}

// Navigate loads the directory for the clicked segment index. Clicking the
// terminal segment (the current directory) is a no-op.
func (n *Nav) Navigate(index int) error {
	trail := n.Trail()
	if index < 0 || index >= len(trail) {
		return fmt.Errorf("breadcrumb index out of range: %d", index)
	}
	if index == len(trail)-1 {
		return nil
	}
	return n.panels.LoadDirectory(n.side, trail[index].Path)
}
