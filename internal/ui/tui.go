// ABOUTME: TUI bootstrap: constructs and runs the bubbletea program
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the bubbletea program driving the status model and
// returns immediately with the running *tea.Program; the caller feeds
// status updates in via prog.Send(StatusMsg{...}) from a separate
// goroutine. The program stops when the user presses q or ctrl+c
// (which also sends a QuitMsg on volumeCtrl.Quit) or when the caller
// calls prog.Quit(); Run itself never reads volumeCtrl.Quit.
func Run(volumeCtrl *VolumeControl) (*tea.Program, error) {
	model := NewModel(volumeCtrl)
	prog := tea.NewProgram(model, tea.WithAltScreen())
	go func() {
		_, _ = prog.Run()
	}()
	return prog, nil
}
