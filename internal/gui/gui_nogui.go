//go:build nogui
// +build nogui

package gui

import (
	"fmt"

	"pixed/internal/editor"
)

// StartGUI is a stub implementation for builds with GUI disabled
func StartGUI(ed *editor.Editor, configPath string) error {
	fmt.Println("GUI is disabled in this build. Please use the tui or render commands.")
	return fmt.Errorf("GUI not available in this build")
}

// IsGUIAvailable returns whether the GUI is available in this build
func IsGUIAvailable() bool {
	return false
}
