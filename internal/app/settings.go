package app

import (
	"fmt"

	"dualpane-file-manager/internal/store"
)

// Settings is the user-facing application configuration.
type Settings struct {
	BackendURL     string `json:"backendUrl"`
	DefaultStorage string `json:"defaultStorage"`
	ShowHidden     bool   `json:"showHidden"`
	ConfirmDrop    bool   `json:"confirmDrop"`
}

// defaultSettings returns the configuration used when nothing is
// persisted yet.
func defaultSettings() Settings {
	return Settings{
		BackendURL:     "http://localhost:8080",
		DefaultStorage: "local",
		ShowHidden:     false,
		ConfirmDrop:    false,
	}
}

// loadSettings reads persisted settings, falling back to defaults for
// missing or corrupt data.
func loadSettings(s *store.Store) Settings {
	settings := defaultSettings()
	s.Load("settings", &settings)
	if settings.BackendURL == "" {
		settings.BackendURL = defaultSettings().BackendURL
	}
	if settings.DefaultStorage == "" {
		settings.DefaultStorage = defaultSettings().DefaultStorage
	}
	return settings
}

// GetSettings returns the current settings.
func (a *App) GetSettings() Settings {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.settings
}

// SetSettings persists new settings and applies them to the running
// panels.
func (a *App) SetSettings(settings Settings) error {
	if settings.BackendURL == "" {
		return fmt.Errorf("backend URL must not be empty")
	}

	a.mu.Lock()
	a.settings = settings
	st := a.store
	a.mu.Unlock()

	if st != nil {
		if err := st.Save("settings", settings); err != nil {
			return err
		}
	}
	if a.panels != nil {
		a.panels.SetShowHidden(settings.ShowHidden)
	}
	return nil
}
