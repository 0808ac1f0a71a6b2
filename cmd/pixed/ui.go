package main

import "github.com/charmbracelet/lipgloss"

var (
	successStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#73F59F"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F5F")).Bold(true)
	warningStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F5C973"))
	infoStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#5A9"))
	emphasisStyle = lipgloss.NewStyle().Bold(true)
	logoStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#7B61FF")).Bold(true)
)

func successText(s string) string  { return successStyle.Render(s) }
func errorText(s string) string    { return errorStyle.Render(s) }
func warningText(s string) string  { return warningStyle.Render(s) }
func infoText(s string) string     { return infoStyle.Render(s) }
func emphasisText(s string) string { return emphasisStyle.Render(s) }

// drawLogo returns the banner shown in the root help.
func drawLogo() string {
	return logoStyle.Render(`
 ██████╗ ██╗██╗  ██╗███████╗██████╗
 ██╔══██╗██║╚██╗██╔╝██╔════╝██╔══██╗
 ██████╔╝██║ ╚███╔╝ █████╗  ██║  ██║
 ██╔═══╝ ██║ ██╔██╗ ██╔══╝  ██║  ██║
 ██║     ██║██╔╝ ██╗███████╗██████╔╝
 ╚═╝     ╚═╝╚═╝  ╚═╝╚══════╝╚═════╝
`)
}
