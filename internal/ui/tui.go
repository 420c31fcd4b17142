// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program around the playback model
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the TUI and blocks until the user quits.
func Run(ctrl Controller) error {
	p := tea.NewProgram(NewModel(ctrl), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
