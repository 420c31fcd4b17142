// ABOUTME: Bubbletea model for the playback TUI
// ABOUTME: Polls the engine snapshot and maps keys to transport commands
package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/loopdeck/loopdeck-go/internal/engine"
)

// pollInterval is how often the view refreshes from the engine snapshot.
const pollInterval = 250 * time.Millisecond

// seekStepSeconds is the arrow-key seek distance.
const seekStepSeconds = 5.0

// speedStep is the +/- speed increment.
const speedStep = 0.25

// trimStep is the {/} trim-edge nudge, as a fraction of the clip.
const trimStep = 0.02

// Controller is the transport surface the TUI drives. The engine satisfies
// it; tests substitute a fake.
type Controller interface {
	TogglePlay()
	Seek(pos float64)
	SetLoop(enabled bool)
	SetTrim(start, end float64)
	SetSpeed(ratio float64)
	SetVolume(v float64)
	Snapshot() engine.Snapshot
}

// Model represents the TUI state.
type Model struct {
	ctrl     Controller
	snap     engine.Snapshot
	volume   int
	width    int
	height   int
	quitting bool
}

// NewModel creates a TUI model bound to a controller.
func NewModel(ctrl Controller) Model {
	return Model{
		ctrl:   ctrl,
		snap:   ctrl.Snapshot(),
		volume: 100,
	}
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tick()
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tickMsg:
		m.snap = m.ctrl.Snapshot()
		return m, tick()
	}

	return m, nil
}

// handleKey maps keyboard input to transport commands.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case " ":
		m.ctrl.TogglePlay()

	case "left":
		m.ctrl.Seek(m.seekBy(-seekStepSeconds))
	case "right":
		m.ctrl.Seek(m.seekBy(seekStepSeconds))

	case "l":
		m.ctrl.SetLoop(!m.snap.Loop)
		m.snap.Loop = !m.snap.Loop

	case "[":
		m.ctrl.SetTrim(m.snap.Normalized, m.snap.TrimEnd)
	case "]":
		m.ctrl.SetTrim(m.snap.TrimStart, m.snap.Normalized)
	case "{":
		m.ctrl.SetTrim(m.snap.TrimStart-trimStep, m.snap.TrimEnd)
	case "}":
		m.ctrl.SetTrim(m.snap.TrimStart, m.snap.TrimEnd+trimStep)
	case "r":
		m.ctrl.SetTrim(0, 1)

	case "+", "=":
		m.ctrl.SetSpeed(m.snap.Speed + speedStep)
	case "-":
		m.ctrl.SetSpeed(m.snap.Speed - speedStep)
	case "1":
		m.ctrl.SetSpeed(1.0)

	case "up":
		m.volume = clampPercent(m.volume + 5)
		m.ctrl.SetVolume(float64(m.volume) / 100)
	case "down":
		m.volume = clampPercent(m.volume - 5)
		m.ctrl.SetVolume(float64(m.volume) / 100)
	}

	return m, nil
}

// seekBy converts a seconds delta into a normalized target around the
// current position.
func (m Model) seekBy(seconds float64) float64 {
	if m.snap.Total <= 0 || m.snap.SampleRate <= 0 {
		return 0
	}
	delta := seconds * float64(m.snap.SampleRate) / float64(m.snap.Total)
	target := m.snap.Normalized + delta
	if target < 0 {
		target = 0
	}
	if target > 1 {
		target = 1
	}
	return target
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return "Stopping playback...\n"
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("Loopdeck"))
	b.WriteString("\n\n")

	source := m.snap.Source
	if source == "" {
		source = "(nothing open)"
	}
	b.WriteString(headerStyle.Render("Source: "))
	b.WriteString(valueStyle.Render(source))
	b.WriteString("\n")

	b.WriteString(headerStyle.Render("State:  "))
	b.WriteString(valueStyle.Render(m.snap.State))
	b.WriteString("\n\n")

	b.WriteString(renderTimeline(m.snap, 50))
	b.WriteString("\n")
	b.WriteString(valueStyle.Render(m.renderPosition()))
	b.WriteString("\n\n")

	loop := "off"
	if m.snap.Loop {
		loop = "on"
	}
	b.WriteString(headerStyle.Render("Speed: "))
	b.WriteString(valueStyle.Render(fmt.Sprintf("%.2fx", m.snap.Speed)))
	b.WriteString(headerStyle.Render("   Loop: "))
	b.WriteString(valueStyle.Render(loop))
	b.WriteString(headerStyle.Render("   Volume: "))
	b.WriteString(valueStyle.Render(fmt.Sprintf("%d%%", m.volume)))
	if m.snap.FrameIndex >= 0 {
		b.WriteString(headerStyle.Render("   Frame: "))
		b.WriteString(valueStyle.Render(fmt.Sprintf("%d", m.snap.FrameIndex)))
	}
	if m.snap.Underruns > 0 {
		b.WriteString(headerStyle.Render("   Underruns: "))
		b.WriteString(valueStyle.Render(fmt.Sprintf("%d", m.snap.Underruns)))
	}
	b.WriteString("\n\n")

	b.WriteString(helpStyle.Render(
		"space:play/pause  ←/→:seek  l:loop  [/]:trim  {/}:widen  r:untrim  +/-/1:speed  ↑/↓:volume  q:quit"))
	b.WriteString("\n")

	return b.String()
}

// renderPosition formats position over duration, noting unknown lengths.
func (m Model) renderPosition() string {
	if m.snap.SampleRate <= 0 {
		return ""
	}
	pos := formatSamples(m.snap.Position, m.snap.SampleRate)
	if !m.snap.KnownLength {
		return fmt.Sprintf("%s / --:-- (length unknown)", pos)
	}
	return fmt.Sprintf("%s / %s", pos, formatSamples(m.snap.Total, m.snap.SampleRate))
}

// renderTimeline draws a fixed-width bar with the trim window marked and the
// play head inside it.
func renderTimeline(s engine.Snapshot, width int) string {
	if width < 3 {
		width = 3
	}

	trimLo := int(s.TrimStart * float64(width))
	trimHi := int(s.TrimEnd * float64(width))
	if trimHi >= width {
		trimHi = width - 1
	}
	head := int(s.Normalized * float64(width))
	if head >= width {
		head = width - 1
	}

	var b strings.Builder
	for i := 0; i < width; i++ {
		switch {
		case i == head && s.KnownLength:
			b.WriteString("◆")
		case i < trimLo || i > trimHi:
			b.WriteString("·")
		default:
			b.WriteString("─")
		}
	}
	return b.String()
}

func formatSamples(samples int64, rate int) string {
	secs := samples / int64(rate)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

func clampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
