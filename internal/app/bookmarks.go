package app

import (
	"fmt"

	"dualpane-file-manager/internal/panel"
)

// Bookmark is a saved (storage, path) location.
type Bookmark struct {
	Name    string `json:"name"`
	Storage string `json:"storage"`
	Path    string `json:"path"`
}

// Bookmarks returns the saved bookmark list.
func (a *App) Bookmarks() []Bookmark {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Bookmark, len(a.bookmarks))
	copy(out, a.bookmarks)
	return out
}

// AddBookmark saves the given panel's current location under a name.
// An existing bookmark with the same name is replaced.
func (a *App) AddBookmark(name string, side string) error {
	s := panel.Side(side)
	if !s.Valid() {
		return fmt.Errorf("unknown panel: %s", side)
	}
	if name == "" {
		return fmt.Errorf("bookmark name must not be empty")
	}

	bm := Bookmark{
		Name:    name,
		Storage: a.panels.CurrentStorage(s),
		Path:    a.panels.CurrentPath(s),
	}

	a.mu.Lock()
	replaced := false
	for i := range a.bookmarks {
		if a.bookmarks[i].Name == name {
			a.bookmarks[i] = bm
			replaced = true
			break
		}
	}
	if !replaced {
		a.bookmarks = append(a.bookmarks, bm)
	}
	err := a.persistBookmarksLocked()
	a.mu.Unlock()
	return err
}

// RemoveBookmark deletes a bookmark by name. Unknown names are not an
// error.
func (a *App) RemoveBookmark(name string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	kept := a.bookmarks[:0]
	for _, bm := range a.bookmarks {
		if bm.Name != name {
			kept = append(kept, bm)
		}
	}
	a.bookmarks = kept
	return a.persistBookmarksLocked()
}

// OpenBookmark navigates the given panel to a bookmarked location,
// switching storage first when it differs.
func (a *App) OpenBookmark(name string, side string) error {
	s := panel.Side(side)
	if !s.Valid() {
		return fmt.Errorf("unknown panel: %s", side)
	}

	a.mu.Lock()
	var found *Bookmark
	for i := range a.bookmarks {
		if a.bookmarks[i].Name == name {
			found = &a.bookmarks[i]
			break
		}
	}
	a.mu.Unlock()

	if found == nil {
		return fmt.Errorf("bookmark not found: %s", name)
	}

	if a.panels.CurrentStorage(s) != found.Storage {
		if err := a.panels.ChangeStorage(s, found.Storage); err != nil {
			return err
		}
	}
	return a.panels.LoadDirectory(s, found.Path)
}

// persistBookmarksLocked writes the bookmark list. Caller holds a.mu.
func (a *App) persistBookmarksLocked() error {
	if a.store == nil {
		return nil
	}
	return a.store.Save("bookmarks", a.bookmarks)
}

// reloadBookmarks re-reads bookmarks from the store after an external
// write (another instance).
func (a *App) reloadBookmarks() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.store == nil {
		return
	}
	var saved []Bookmark
	if a.store.Load("bookmarks", &saved) {
		a.bookmarks = saved
	}
}
