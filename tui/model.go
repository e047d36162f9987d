package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"gridseq/midi"
	"gridseq/sequencer"
	"gridseq/theme"
	"gridseq/widgets"
)

// Model is a read-only status display. It only sees snapshots, never the
// engine itself.
type Model struct {
	Theme *theme.Theme

	updates  <-chan sequencer.Snapshot
	snap     sequencer.Snapshot
	run      string
	quitting bool
}

type snapshotMsg sequencer.Snapshot

type closedMsg struct{}

func NewModel(updates <-chan sequencer.Snapshot, th *theme.Theme, run string) Model {
	return Model{Theme: th, updates: updates, run: run}
}

func listen(updates <-chan sequencer.Snapshot) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-updates
		if !ok {
			return closedMsg{}
		}
		return snapshotMsg(s)
	}
}

func (m Model) Init() tea.Cmd {
	return listen(m.updates)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		}

	case snapshotMsg:
		m.snap = sequencer.Snapshot(msg)
		return m, listen(m.updates)

	case closedMsg:
		m.quitting = true
		return m, tea.Quit
	}

	return m, nil
}

var keyHelp = []widgets.KeySection{{
	Title: "",
	Keys: []widgets.KeyBinding{
		{Key: "q", Desc: "quit (notes off, pads dark)"},
	},
}}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	s := m.snap
	sym := m.Theme.Symbols

	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent())
	labelStyle := lipgloss.NewStyle().Foreground(m.Theme.FG()).Width(9)
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	onStyle := lipgloss.NewStyle().Foreground(m.Theme.Active())
	warnStyle := lipgloss.NewStyle().Foreground(m.Theme.Warning())

	playState := "STOP"
	if s.Playing {
		playState = "PLAY"
	}
	header := headerStyle.Render(fmt.Sprintf("gridseq  %s  %3.0fbpm  beat:%05d  part:%d",
		playState, sequencer.BPM, s.Beat, s.Focused+1))

	flag := func(name string, on bool) string {
		if on {
			return onStyle.Render(string(sym.On) + " " + name)
		}
		return dimStyle.Render(string(sym.Off) + " " + name)
	}
	toggles := strings.Join([]string{
		flag("voice", s.Voice),
		flag("play", s.Playing),
		flag("record", s.Recording),
		flag("clear", s.Clearing),
	}, "  ")

	parts := make([][3]uint8, sequencer.Parts)
	mutes := make([][3]uint8, sequencer.Parts)
	for i := range parts {
		parts[i] = m.Theme.LED(lit(i == s.Focused))
		mutes[i] = m.Theme.LED(lit(s.Muted[i]))
	}

	var patterns strings.Builder
	for part := 0; part < sequencer.Parts; part++ {
		row := make([][3]uint8, sequencer.Patterns)
		for pattern := range row {
			level := midi.LEDOff
			switch {
			case pattern == s.Current[part]:
				level = midi.LEDBright
			case contains(s.Queued[part], pattern):
				level = midi.LEDFull
			case s.Content[part][pattern]:
				level = midi.LEDDim
			}
			row[pattern] = m.Theme.LED(level)
		}
		line := widgets.RenderPadRow(row)
		if s.Muted[part] {
			line += warnStyle.Render(" muted")
		}
		fmt.Fprintf(&patterns, "%s%s\n", labelStyle.Render(fmt.Sprintf("part %d", part+1)), line)
	}

	symbols := make([]rune, sequencer.Steps)
	colors := make([][3]uint8, sequencer.Steps)
	for step := range symbols {
		switch {
		case s.Playing && step == s.Step:
			symbols[step], colors[step] = sym.StepPlayhead, m.Theme.LED(midi.LEDBright)
		case step >= s.Length:
			symbols[step], colors[step] = sym.StepBeyond, m.Theme.LED(midi.LEDOff)
		case s.Filled[step]:
			symbols[step], colors[step] = sym.StepActive, m.Theme.LED(midi.LEDDim)
		default:
			symbols[step], colors[step] = sym.StepEmpty, m.Theme.LED(midi.LEDDim)
		}
	}

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n\n")
	out.WriteString(toggles)
	out.WriteString("\n\n")
	out.WriteString(labelStyle.Render("parts") + widgets.RenderPadRow(parts) + "\n")
	out.WriteString(labelStyle.Render("mutes") + widgets.RenderPadRow(mutes) + "\n\n")
	out.WriteString(patterns.String())
	out.WriteString(widgets.RenderLegendItem(m.Theme.LED(midi.LEDBright), "playing", "current pattern") + "\n")
	out.WriteString(widgets.RenderLegendItem(m.Theme.LED(midi.LEDFull), "queued", "starts at the next bar") + "\n")
	out.WriteString(widgets.RenderLegendItem(m.Theme.LED(midi.LEDDim), "notes", "has content") + "\n")
	out.WriteString("\n")
	out.WriteString(labelStyle.Render(fmt.Sprintf("pat %d", s.Pattern+1)) + widgets.RenderSteps(symbols, colors))
	out.WriteString("\n\n")
	out.WriteString(dimStyle.Render(widgets.RenderKeyHelp(keyHelp)))
	if m.run != "" {
		out.WriteString("\n")
		out.WriteString(dimStyle.Render("run " + m.run))
	}

	return out.String()
}

func lit(on bool) uint8 {
	if on {
		return midi.LEDFull
	}
	return midi.LEDOff
}

func contains(list []int, v int) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
