// Package tui provides a terminal front panel for the amplifier mirror.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Houston4444/OsciTronix/engine"
	"github.com/Houston4444/OsciTronix/vox"
)

// Vox panel colors
var (
	voxCream = lipgloss.Color("#F2E6C9")
	voxRed   = lipgloss.Color("#B22222")
	okGreen  = lipgloss.Color("#5FD75F")
	dimGray  = lipgloss.Color("#666666")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(voxCream).
			Background(voxRed).
			Padding(0, 2).
			MarginBottom(1)

	labelStyle = lipgloss.NewStyle().Foreground(dimGray).Width(14)
	valueStyle = lipgloss.NewStyle().Foreground(voxCream).Bold(true)
	okStyle    = lipgloss.NewStyle().Foreground(okGreen).Bold(true)
	lostStyle  = lipgloss.NewStyle().Foreground(voxRed).Bold(true)
	offStyle   = lipgloss.NewStyle().Foreground(dimGray)
	helpStyle  = lipgloss.NewStyle().Foreground(dimGray).MarginTop(1)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(voxRed).
			Padding(0, 1)
)

const commandTimeout = time.Second

// Runner is the part of engine.Runner the panel drives.
type Runner interface {
	Submit(ctx context.Context, c engine.Command) error
	Snapshot(ctx context.Context) (engine.Snapshot, error)
}

// Feed carries engine events to the panel. Push never blocks; events are dropped when the
// panel falls behind, the next one carries the whole current program anyway.
type Feed chan engine.Event

func NewFeed(size int) Feed { return make(Feed, size) }

func (f Feed) Push(ev engine.Event) {
	select {
	case f <- ev:
	default:
	}
}

type eventMsg engine.Event

type snapshotMsg engine.Snapshot

type errMsg struct{ err error }

type Model struct {
	runner  Runner
	feed    Feed
	spinner spinner.Model

	current vox.Program
	comm    engine.CommunicationState
	midi    engine.MidiConnectState
	mode    vox.Mode
	index   int
	syncing bool
	status  string
	width   int
}

func New(r Runner, feed Feed) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(voxCream)
	return Model{
		runner:  r,
		feed:    feed,
		spinner: s,
		current: vox.NewProgram(),
		midi:    engine.AbsentDevice,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitEvent(), m.refresh())
}

func (m Model) waitEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.feed
		if !ok {
			return nil
		}
		return eventMsg(ev)
	}
}

func (m Model) refresh() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		snap, err := m.runner.Snapshot(ctx)
		if err != nil {
			return errMsg{err}
		}
		return snapshotMsg(snap)
	}
}

func (m Model) submit(c engine.Command) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		if err := m.runner.Submit(ctx, c); err != nil {
			return errMsg{err}
		}
		return nil
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.updateKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case snapshotMsg:
		m.current = msg.Current
		m.comm = msg.Communication
		m.midi = msg.Midi
		m.mode = msg.Mode
		m.index = msg.Index
		return m, nil

	case eventMsg:
		m.apply(engine.Event(msg))
		return m, m.waitEvent()

	case errMsg:
		m.status = msg.err.Error()
		return m, nil
	}
	return m, nil
}

func (m *Model) apply(ev engine.Event) {
	m.current = ev.Current
	switch ev.Kind {
	case engine.CommunicationStateChanged:
		m.comm = ev.Communication
		if ev.Communication == engine.Lost {
			m.syncing = false
			m.status = "amplifier not answering"
		}
	case engine.MidiConnectStateChanged:
		m.midi = ev.Midi
	case engine.ModeChanged:
		m.mode = ev.Mode
		m.index = ev.Index
	case engine.UserBanksRead:
		m.status = "user banks read"
	case engine.FactoryBanksRead:
		m.syncing = false
		m.status = "all banks read"
	case engine.DataError:
		m.status = fmt.Sprintf("device reported %s after %s", ev.Code, ev.LastSent)
	}
}

func (m Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "s":
		m.syncing = true
		m.status = "reading amplifier"
		return m, m.submit(engine.StartCommunicationCmd{})
	case "m":
		next := vox.Mode((int(m.mode) + 1) % 3)
		return m, m.submit(engine.SetModeCmd{Mode: next})
	case "left", "h":
		return m, m.step(-1)
	case "right", "l":
		return m, m.step(1)
	}
	return m, nil
}

// step selects the neighbouring bank in the current mode, wrapping around.
func (m Model) step(delta int) tea.Cmd {
	switch m.mode {
	case vox.ModeUser:
		return m.submit(engine.SelectUserBankCmd{Num: wrap(m.index+delta, vox.UserBankCount)})
	case vox.ModePreset:
		return m.submit(engine.SelectPresetCmd{Num: wrap(m.index+delta, vox.PresetCount)})
	}
	return nil
}

func wrap(n, count int) int {
	return ((n % count) + count) % count
}

func (m Model) View() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(" OSCITRONIX "))
	s.WriteString("\n")
	s.WriteString(m.viewStatus())
	s.WriteString("\n\n")
	s.WriteString(boxStyle.Render(m.viewProgram()))
	s.WriteString("\n")
	if m.status != "" {
		s.WriteString(offStyle.Render(m.status))
		s.WriteString("\n")
	}
	s.WriteString(helpStyle.Render("←/→: bank • m: mode • s: sync • q: quit"))
	return s.String()
}

func (m Model) viewStatus() string {
	comm := lostStyle.Render(m.comm.String())
	if m.comm.IsOk() {
		comm = okStyle.Render(m.comm.String())
	}
	if m.syncing {
		comm = m.spinner.View() + " " + comm
	}

	bank := m.mode.String()
	switch m.mode {
	case vox.ModeUser:
		bank = fmt.Sprintf("USER %c%d", 'A'+rune(m.index/4), m.index%4+1)
	case vox.ModePreset:
		bank = fmt.Sprintf("PRESET %d", m.index+1)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		row("Amplifier", comm),
		row("MIDI", valueStyle.Render(m.midi.String())),
		row("Mode", valueStyle.Render(bank)),
	)
}

func (m Model) viewProgram() string {
	p := &m.current
	var s strings.Builder

	s.WriteString(row("Program", valueStyle.Render(p.Name)))
	s.WriteString("\n")
	s.WriteString(row("NR Sens", valueStyle.Render(fmt.Sprint(p.NoiseGate))))
	s.WriteString("\n")
	s.WriteString(row("Amp", valueStyle.Render(p.ModelName(vox.SlotAmp))))
	s.WriteString("\n")
	amp := make([]string, 0, vox.AmpParamCount)
	for i, v := range p.Amp {
		amp = append(amp, fmt.Sprintf("%s %d", vox.AmpParam(i), v))
	}
	s.WriteString(offStyle.Render("  " + strings.Join(amp, "  ")))

	for _, slot := range []vox.Slot{vox.SlotPedal1, vox.SlotPedal2, vox.SlotReverb} {
		s.WriteString("\n")
		name := p.ModelName(slot)
		if p.Active[slot] {
			name = valueStyle.Render(name)
		} else {
			name = offStyle.Render(name + " (off)")
		}
		s.WriteString(row(slot.String(), name))
		s.WriteString("\n")

		params := p.SlotParams(slot)
		values := p.SlotValues(slot)
		parts := make([]string, 0, len(params))
		for i, info := range params {
			parts = append(parts, fmt.Sprintf("%s %d%s", info.Name, values[i], info.Unit))
		}
		s.WriteString(offStyle.Render("  " + strings.Join(parts, "  ")))
	}
	return s.String()
}

func row(label, value string) string {
	return labelStyle.Render(label) + value
}

// Run blocks until the user quits.
func Run(r Runner, feed Feed) error {
	p := tea.NewProgram(New(r, feed), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
