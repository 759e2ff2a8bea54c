// Package store persists application state as JSON files in the user
// config directory. Missing or corrupt data degrades to defaults without
// surfacing an error; persistence is advisory state, never
// correctness-critical.
package store

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Store reads and writes named JSON documents in a single directory.
type Store struct {
	dir string

	mu     sync.Mutex
	writes map[string]time.Time // last self-write per file, for watcher suppression
}

// Open creates (if needed) and opens the store directory for appName under
// the user config directory.
func Open(appName string) (*Store, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user config dir: %v", err)
	}
	return OpenAt(filepath.Join(configDir, appName))
}

// OpenAt opens a store rooted at an explicit directory.
func OpenAt(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %v", err)
	}
	return &Store{
		dir:    dir,
		writes: make(map[string]time.Time),
	}, nil
}

// Dir returns the store's root directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the absolute path of a named document.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

// Load decodes the named document into v. It returns false when the
// document is missing or corrupt; corrupt data is logged and treated as
// missing.
func (s *Store) Load(name string, v interface{}) bool {
	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("⚠️ Failed to read %s: %v", name, err)
		}
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		log.Printf("⚠️ Corrupt %s, using defaults: %v", name, err)
		return false
	}
	return true
}

// Save encodes v as the named document.
func (s *Store) Save(name string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %v", name, err)
	}

	s.mu.Lock()
	s.writes[name+".json"] = time.Now()
	s.mu.Unlock()

	if err := os.WriteFile(s.Path(name), data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %v", name, err)
	}
	return nil
}

// Delete removes the named document. Missing documents are not an error.
func (s *Store) Delete(name string) error {
	s.mu.Lock()
	s.writes[name+".json"] = time.Now()
	s.mu.Unlock()

	if err := os.Remove(s.Path(name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete %s: %v", name, err)
	}
	return nil
}

// selfWriteWindow is how long after a local write events for that file are
// ignored by the watcher. Prevents a write -> notify -> reload loop.
const selfWriteWindow = 2 * time.Second

func (s *Store) recentlyWritten(file string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.writes[file]
	return ok && time.Since(t) < selfWriteWindow
}
