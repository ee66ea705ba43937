// SPDX-License-Identifier: MIT
package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"notetrack/internal/pitch"
	"notetrack/internal/segment"
)

// NotesModel browses the note events of one analysis. Enter opens a detail
// view for the selected event.
type NotesModel struct {
	title         string
	events        []segment.NoteEvent
	a4            float64
	duration      float64 // seconds, closes the last event's span
	selectedIndex int
	viewport      viewport.Model
	ready         bool
	activeScreen  ScreenType
}

// NewNotesModel creates a browser for events detected in a clip of the given
// duration, tuned to a4.
func NewNotesModel(title string, events []segment.NoteEvent, a4, duration float64) NotesModel {
	return NotesModel{
		title:        title,
		events:       events,
		a4:           a4,
		duration:     duration,
		activeScreen: ListScreen,
	}
}

func (m NotesModel) Init() tea.Cmd {
	return nil
}

func (m NotesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-chrome)
			m.viewport.Style = lipgloss.NewStyle()
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - chrome
		}
		m.refresh()

	case tea.KeyMsg:
		if key.Matches(msg, keyQuit) {
			return m, tea.Quit
		}

		switch m.activeScreen {
		case ListScreen:
			switch {
			case key.Matches(msg, keyUp):
				if m.selectedIndex > 0 {
					m.selectedIndex--
					m.refresh()
				}
			case key.Matches(msg, keyDown):
				if m.selectedIndex < len(m.events)-1 {
					m.selectedIndex++
					m.refresh()
				}
			case key.Matches(msg, keyEnter):
				if len(m.events) > 0 {
					m.activeScreen = DetailScreen
					m.refresh()
				}
			}
		case DetailScreen:
			switch {
			case key.Matches(msg, keyBack):
				m.activeScreen = ListScreen
				m.refresh()
			case key.Matches(msg, keyUp):
				if m.selectedIndex > 0 {
					m.selectedIndex--
					m.refresh()
				}
			case key.Matches(msg, keyDown):
				if m.selectedIndex < len(m.events)-1 {
					m.selectedIndex++
					m.refresh()
				}
			}
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// Selected returns the highlighted event.
func (m NotesModel) Selected() (segment.NoteEvent, bool) {
	if len(m.events) == 0 {
		return segment.NoteEvent{}, false
	}
	return m.events[m.selectedIndex], true
}

func (m NotesModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var title, help string
	if m.activeScreen == ListScreen {
		title = titleStyle.Render(fmt.Sprintf("Notes: %s", m.title))
		help = infoStyle.Render("↑/↓: Navigate • Enter: Details • q: Quit")
	} else {
		title = titleStyle.Render("Note Details")
		help = infoStyle.Render("↑/↓: Previous/Next • Esc: Back • q: Quit")
	}
	return fmt.Sprintf("%s\n\n%s\n\n%s", title, m.viewport.View(), help)
}

func (m *NotesModel) refresh() {
	if !m.ready {
		return
	}
	if m.activeScreen == DetailScreen {
		m.viewport.SetContent(m.renderDetail())
		return
	}
	m.viewport.SetContent(m.renderList())
}

func (m NotesModel) renderList() string {
	if len(m.events) == 0 {
		return "No notes detected."
	}

	var sb strings.Builder
	for i, e := range m.events {
		line := fmt.Sprintf("%3d  %7.2f s  %-4s %7.1f Hz", i+1, e.Time, e.Note, e.Y)
		if i == m.selectedIndex {
			line = highlightStyle.Render("▶ " + line)
		} else {
			line = "  " + line
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m NotesModel) renderDetail() string {
	e := m.events[m.selectedIndex]
	nominal := e.Note.Frequency(m.a4)

	end := m.duration
	if m.selectedIndex+1 < len(m.events) {
		end = m.events[m.selectedIndex+1].Time
	}

	var sb strings.Builder
	sb.WriteString(highlightStyle.Render(pitch.Describe(e.Note, m.a4)))
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "  Onset:     %.3f s (frame %d)\n", e.Time, e.Frame)
	fmt.Fprintf(&sb, "  Detected:  %.2f Hz\n", e.Y)
	fmt.Fprintf(&sb, "  Deviation: %+.1f cents\n", Cents(e.Y, nominal))
	if end > e.Time {
		fmt.Fprintf(&sb, "  Held:      %.3f s\n", end-e.Time)
	}
	sb.WriteString("\n")
	sb.WriteString(dimStyle.Render(fmt.Sprintf("Note %d of %d, A4 = %.1f Hz", m.selectedIndex+1, len(m.events), m.a4)))
	return sb.String()
}

// Cents is the interval from ref to f.
func Cents(f, ref float64) float64 {
	return 1200 * math.Log2(f/ref)
}

// BrowseNotes runs the note browser until the user quits.
func BrowseNotes(title string, events []segment.NoteEvent, a4, duration float64) error {
	p := tea.NewProgram(NewNotesModel(title, events, a4, duration), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
