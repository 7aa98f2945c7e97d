// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program and the command channel to the host
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Command identifies a user action raised by the TUI.
type Command int

const (
	CmdTogglePlay Command = iota
	CmdStop
	CmdSeekBack
	CmdSeekForward
	CmdVolumeUp
	CmdVolumeDown
	CmdToggleMute
	CmdToggleSolo
	CmdToggleLoop
	CmdQuit
)

// CommandMsg is one user action. TrackID is set for per-track commands.
type CommandMsg struct {
	Cmd     Command
	TrackID string
}

// Control holds the channel the TUI sends user commands over.
type Control struct {
	Commands chan CommandMsg
}

// NewControl creates a new command channel handler
func NewControl() *Control {
	return &Control{
		Commands: make(chan CommandMsg, 16),
	}
}

// NewModel creates a new TUI model
func NewModel(ctrl *Control) Model {
	return Model{
		volume:  80,
		state:   "idle",
		control: ctrl,
	}
}

// Run starts the TUI
func Run(ctrl *Control) (*tea.Program, error) {
	p := tea.NewProgram(NewModel(ctrl), tea.WithAltScreen())
	return p, nil
}
