// ABOUTME: Bubbletea model for the client status TUI
// ABOUTME: Shows connection, sync, stream format, volume and scheduler stats
package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	tea "github.com/charmbracelet/bubbletea"
)

var (
	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1).
			Width(50)

	labelStyle = lipgloss.NewStyle().Bold(true).Width(10)
	goodStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	badStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// Model is the TUI's state. It is updated only through StatusMsg values
// sent from the app's stats loop, plus local keystrokes for volume and
// quit.
type Model struct {
	connected  bool
	serverAddr string

	synchronized bool
	offsetMs     int64

	codec      string
	sampleRate int
	channels   int
	bitDepth   int

	volume int
	muted  bool

	received int64
	played   int64
	dropped  int64

	volumeCtrl *VolumeControl
}

// NewModel creates a TUI model. volumeCtrl may be nil in tests that
// don't exercise keyboard handling.
func NewModel(volumeCtrl *VolumeControl) Model {
	return Model{volume: 100, volumeCtrl: volumeCtrl}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case StatusMsg:
		m.applyStatus(msg)
	}
	return m, nil
}

func (m Model) View() string {
	connLine := fmt.Sprintf("%s %s", labelStyle.Render("Server:"), m.connectionText())
	syncLine := fmt.Sprintf("%s %s", labelStyle.Render("Sync:"), m.syncText())
	streamLine := fmt.Sprintf("%s %s", labelStyle.Render("Stream:"), m.streamText())
	volumeLine := fmt.Sprintf("%s %s", labelStyle.Render("Volume:"), m.volumeText())
	statsLine := fmt.Sprintf("%s rx=%d played=%d dropped=%d",
		labelStyle.Render("Stats:"), m.received, m.played, m.dropped)

	body := connLine + "\n" + syncLine + "\n" + streamLine + "\n" + volumeLine + "\n" + statsLine
	help := helpStyle.Render("\n↑/↓ volume  m mute  q quit")

	return borderStyle.Render(body+help) + "\n"
}

func (m Model) connectionText() string {
	if !m.connected {
		return badStyle.Render("disconnected")
	}
	return goodStyle.Render(m.serverAddr)
}

func (m Model) syncText() string {
	if !m.synchronized {
		return warnStyle.Render("warming up")
	}
	return goodStyle.Render(fmt.Sprintf("offset %+dms", m.offsetMs))
}

func (m Model) streamText() string {
	if m.codec == "" {
		return helpStyle.Render("no stream")
	}
	return fmt.Sprintf("%s %dHz %dch %dbit", m.codec, m.sampleRate, m.channels, m.bitDepth)
}

func (m Model) volumeText() string {
	muteSuffix := ""
	if m.muted {
		muteSuffix = " (muted)"
	}
	return fmt.Sprintf("%d%%%s", m.volume, muteSuffix)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.sendQuit()
		return m, tea.Quit
	case "up":
		m.volume = clampVolume(m.volume + 5)
		m.sendVolume()
	case "down":
		m.volume = clampVolume(m.volume - 5)
		m.sendVolume()
	case "m":
		m.muted = !m.muted
		m.sendVolume()
	}
	return m, nil
}

func (m Model) sendVolume() {
	if m.volumeCtrl == nil {
		return
	}
	select {
	case m.volumeCtrl.Changes <- VolumeChangeMsg{Volume: m.volume, Muted: m.muted}:
	default:
	}
}

func (m Model) sendQuit() {
	if m.volumeCtrl == nil {
		return
	}
	select {
	case m.volumeCtrl.Quit <- QuitMsg{}:
	default:
	}
}

func clampVolume(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func (m *Model) applyStatus(msg StatusMsg) {
	if msg.Connected != nil {
		m.connected = *msg.Connected
	}
	if msg.ServerAddr != "" {
		m.serverAddr = msg.ServerAddr
	}
	m.synchronized = msg.Synchronized
	m.offsetMs = msg.OffsetMs
	if msg.Codec != "" {
		m.codec = msg.Codec
		m.sampleRate = msg.SampleRate
		m.channels = msg.Channels
		m.bitDepth = msg.BitDepth
	}
	if msg.Volume != 0 {
		m.volume = msg.Volume
	}
	m.muted = msg.Muted
	m.received = msg.Received
	m.played = msg.Played
	m.dropped = msg.Dropped
}

// StatusMsg updates TUI state. Sent periodically by the app's stats
// loop and on connection lifecycle transitions.
type StatusMsg struct {
	Connected  *bool
	ServerAddr string

	Synchronized bool
	OffsetMs     int64

	Codec      string
	SampleRate int
	Channels   int
	BitDepth   int

	Volume int
	Muted  bool

	Received int64
	Played   int64
	Dropped  int64
}

// VolumeChangeMsg requests a volume/mute change, originating from a
// keystroke in the TUI.
type VolumeChangeMsg struct {
	Volume int
	Muted  bool
}

// QuitMsg signals the player should shut down.
type QuitMsg struct{}

// VolumeControl is the channel pair the app listens on for TUI-driven
// volume changes and quit requests.
type VolumeControl struct {
	Changes chan VolumeChangeMsg
	Quit    chan QuitMsg
}

// NewVolumeControl creates a VolumeControl with reasonably sized
// buffers; keystrokes are dropped rather than blocking the UI loop if
// the app is slow to drain them.
func NewVolumeControl() *VolumeControl {
	return &VolumeControl{
		Changes: make(chan VolumeChangeMsg, 4),
		Quit:    make(chan QuitMsg, 1),
	}
}
