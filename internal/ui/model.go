// ABOUTME: Bubbletea model for the editor TUI
// ABOUTME: Defines transport, track list, and timeline display state
package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Clipdeck/clipdeck-go/internal/clock"
)

// TrackStatus is the per-track display state pushed by the host.
type TrackStatus struct {
	ID     string
	Name   string
	Volume float64
	Pan    float64
	Muted  bool
	Solo   bool
	Clips  int
}

// Model represents the TUI state
type Model struct {
	// Project
	projectName string
	bpm         float64
	timeSig     clock.TimeSignature
	duration    float64

	// Transport
	state           string
	positionSeconds float64
	loopEnabled     bool

	// Mixer
	volume int

	// Tracks
	tracks   []TrackStatus
	selected int

	// Status line
	message string

	// Dimensions
	width  int
	height int

	control *Control
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		m.applyStatus(msg)
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	s := ""
	s += m.renderHeader()
	s += m.renderTransport()
	s += m.renderTracks()
	s += m.renderStatus()
	s += m.renderHelp()

	return s
}

// renderHeader renders the project line
func (m Model) renderHeader() string {
	sig := fmt.Sprintf("%d/%d", m.timeSig.Numerator, m.timeSig.Denominator)
	return fmt.Sprintf(`┌─ Clipdeck ───────────────────────────────────────────┐
│ Project: %-26s %5.1f BPM %4s │
├──────────────────────────────────────────────────────┤
`, truncate(m.projectName, 26), m.bpm, sig)
}

// renderTransport renders state, position, and the master volume bar
func (m Model) renderTransport() string {
	loopIcon := " "
	if m.loopEnabled {
		loopIcon = "∞"
	}

	bars, beats := clock.BarsBeats(m.positionSeconds, m.bpm, m.timeSig)
	volumeBar := renderBar(m.volume, 100, 10)

	return fmt.Sprintf("│ %-8s %3d.%d  %7.2fs / %.0fs %s%-16s │\n"+
		"│ Master: [%s] %d%%%-26s │\n",
		m.state, bars, beats, m.positionSeconds, m.duration, loopIcon, "",
		volumeBar, m.volume, "")
}

// renderTracks renders the track list with the selection marker
func (m Model) renderTracks() string {
	if len(m.tracks) == 0 {
		return "│ No tracks                                            │\n"
	}

	s := "├──────────────────────────────────────────────────────┤\n"
	for i, tr := range m.tracks {
		marker := " "
		if i == m.selected {
			marker = ">"
		}
		flags := ""
		if tr.Muted {
			flags += "M"
		}
		if tr.Solo {
			flags += "S"
		}
		s += fmt.Sprintf("│%s %-16s [%s] %-2s pan %+0.1f  %d clips%-6s │\n",
			marker, truncate(tr.Name, 16), renderBar(int(tr.Volume*100), 100, 8),
			flags, tr.Pan, tr.Clips, "")
	}
	return s
}

// renderStatus renders the message line
func (m Model) renderStatus() string {
	return fmt.Sprintf(`├──────────────────────────────────────────────────────┤
│ %-52s │
`, truncate(m.message, 52))
}

// renderHelp renders keyboard shortcuts
func (m Model) renderHelp() string {
	return `│ space:Play/Pause  s:Stop  ←/→:Seek  ↑/↓:Volume       │
│ j/k:Track  m:Mute  o:Solo  l:Loop  q:Quit            │
└──────────────────────────────────────────────────────┘
`
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.send(CmdQuit, "")
		return m, tea.Quit
	case " ":
		m.send(CmdTogglePlay, "")
	case "s":
		m.send(CmdStop, "")
	case "left":
		m.send(CmdSeekBack, "")
	case "right":
		m.send(CmdSeekForward, "")
	case "up":
		m.volume += 5
		if m.volume > 100 {
			m.volume = 100
		}
		m.send(CmdVolumeUp, "")
	case "down":
		m.volume -= 5
		if m.volume < 0 {
			m.volume = 0
		}
		m.send(CmdVolumeDown, "")
	case "j":
		if m.selected < len(m.tracks)-1 {
			m.selected++
		}
	case "k":
		if m.selected > 0 {
			m.selected--
		}
	case "m":
		if id := m.selectedTrackID(); id != "" {
			m.send(CmdToggleMute, id)
		}
	case "o":
		if id := m.selectedTrackID(); id != "" {
			m.send(CmdToggleSolo, id)
		}
	case "l":
		m.send(CmdToggleLoop, "")
	}

	return m, nil
}

func (m Model) selectedTrackID() string {
	if m.selected < 0 || m.selected >= len(m.tracks) {
		return ""
	}
	return m.tracks[m.selected].ID
}

func (m Model) send(cmd Command, trackID string) {
	if m.control == nil {
		return
	}
	select {
	case m.control.Commands <- CommandMsg{Cmd: cmd, TrackID: trackID}:
	default:
	}
}

// applyStatus updates model from status message
func (m *Model) applyStatus(msg StatusMsg) {
	if msg.ProjectName != "" {
		m.projectName = msg.ProjectName
	}
	if msg.BPM > 0 {
		m.bpm = msg.BPM
	}
	if msg.TimeSig.Valid() {
		m.timeSig = msg.TimeSig
	}
	if msg.Duration > 0 {
		m.duration = msg.Duration
	}
	if msg.State != "" {
		m.state = msg.State
	}
	if msg.Position != nil {
		m.positionSeconds = *msg.Position
	}
	if msg.LoopEnabled != nil {
		m.loopEnabled = *msg.LoopEnabled
	}
	if msg.Volume != 0 {
		m.volume = msg.Volume
	}
	if msg.Tracks != nil {
		m.tracks = msg.Tracks
		if m.selected >= len(m.tracks) {
			m.selected = len(m.tracks) - 1
		}
		if m.selected < 0 {
			m.selected = 0
		}
	}
	if msg.Message != "" {
		m.message = msg.Message
	}
}

// StatusMsg updates TUI state. Zero-valued fields leave the current state
// untouched; Position and LoopEnabled use pointers because zero is meaningful.
type StatusMsg struct {
	ProjectName string
	BPM         float64
	TimeSig     clock.TimeSignature
	Duration    float64
	State       string
	Position    *float64
	LoopEnabled *bool
	Volume      int
	Tracks      []TrackStatus
	Message     string
}

// Utility functions
func renderBar(value, max, width int) string {
	filled := (value * width) / max
	bar := ""
	for i := 0; i < width; i++ {
		if i < filled {
			bar += "█"
		} else {
			bar += "░"
		}
	}
	return bar
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}
