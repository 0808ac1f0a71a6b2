//go:build !nogui

package gui

import (
	"os"
	"path/filepath"

	"pixed/internal/editor"
	"pixed/internal/log"
	"pixed/internal/watch"
)

// StartGUI opens the editor window and blocks until it is closed. When
// configPath names a file in an existing directory, edits to it are
// applied live.
func StartGUI(ed *editor.Editor, configPath string) error {
	var opts []Option
	if configPath != "" {
		if _, err := os.Stat(filepath.Dir(configPath)); err == nil {
			w, err := watch.New(configPath)
			if err != nil {
				log.LogWithError(err).Warn("Configuration will not be reloaded")
			} else if err := w.Start(); err != nil {
				log.LogWithError(err).Warn("Configuration will not be reloaded")
			} else {
				opts = append(opts, WithConfigWatcher(w))
			}
		}
	}

	ui, err := NewFactory(ed, opts...).Create()
	if err != nil {
		return err
	}
	ui.Run()
	return nil
}

// IsGUIAvailable returns whether the GUI is available in this build
func IsGUIAvailable() bool {
	return true
}
