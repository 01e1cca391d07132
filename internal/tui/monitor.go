// SPDX-License-Identifier: MIT
// Package tui renders a live pulse monitor: strength and confidence
// bars for the latest ensemble decision, polled at ~30 Hz.
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"emberlight/internal/detect"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#D2691E")).
			Padding(0, 1).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5"))

	strengthStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B35")).
			Bold(true)

	confidenceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

const barWidth = 40

// OutputSource supplies the latest ensemble decision. The engine's
// LastOutput method satisfies it.
type OutputSource func() detect.Output

type tickMsg time.Time

// MonitorModel is the Bubble Tea model for the pulse monitor.
type MonitorModel struct {
	source OutputSource
	output detect.Output

	// peak hold so short transients stay visible between polls
	peakStrength float64
	peakAge      int
}

// NewMonitor creates a monitor polling the given source.
func NewMonitor(source OutputSource) MonitorModel {
	return MonitorModel{source: source}
}

func (m MonitorModel) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(33*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m MonitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case tickMsg:
		m.output = m.source()
		if m.output.TransientStrength >= m.peakStrength {
			m.peakStrength = m.output.TransientStrength
			m.peakAge = 0
		} else {
			m.peakAge++
			if m.peakAge > 15 { // ~0.5s hold
				m.peakStrength = m.output.TransientStrength
				m.peakAge = 0
			}
		}
		return m, tick()
	}
	return m, nil
}

func (m MonitorModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("emberlight pulse monitor"))
	b.WriteString("\n\n")

	b.WriteString(labelStyle.Render("strength   "))
	b.WriteString(strengthStyle.Render(bar(m.peakStrength)))
	b.WriteString(fmt.Sprintf(" %.2f\n", m.output.TransientStrength))

	b.WriteString(labelStyle.Render("confidence "))
	b.WriteString(confidenceStyle.Render(bar(m.output.Confidence)))
	b.WriteString(fmt.Sprintf(" %.2f\n\n", m.output.Confidence))

	b.WriteString(labelStyle.Render(fmt.Sprintf("agreement: %d/%d   dominant: %s\n",
		m.output.Agreement, detect.NumDetectors, m.output.Dominant)))

	b.WriteString("\n")
	b.WriteString(dimStyle.Render("q to quit"))
	b.WriteString("\n")
	return b.String()
}

func bar(v float64) string {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	filled := int(v * barWidth)
	return strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
}
