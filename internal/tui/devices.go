// SPDX-License-Identifier: MIT
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"notetrack/internal/audio"
)

// DevicePickerModel lists capture-capable devices and lets the user choose
// the one to record from.
type DevicePickerModel struct {
	fetch         func() ([]audio.Device, error)
	devices       []audio.Device
	selectedIndex int
	chosen        int
	viewport      viewport.Model
	ready         bool
	err           error
}

type devicesMsg struct {
	devices []audio.Device
}

type errMsg struct {
	err error
}

// NewDevicePicker creates a picker over the devices returned by fetch.
func NewDevicePicker(fetch func() ([]audio.Device, error)) DevicePickerModel {
	return DevicePickerModel{fetch: fetch, chosen: -1}
}

// Init fetches the device list.
func (m DevicePickerModel) Init() tea.Cmd {
	fetch := m.fetch
	return func() tea.Msg {
		all, err := fetch()
		if err != nil {
			return errMsg{err}
		}
		var inputs []audio.Device
		for _, d := range all {
			if d.MaxInputChannels > 0 {
				inputs = append(inputs, d)
			}
		}
		return devicesMsg{inputs}
	}
}

func (m DevicePickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-chrome)
			m.viewport.Style = lipgloss.NewStyle()
			m.ready = true
			m.viewport.SetContent(m.renderDevices())
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - chrome
		}

	case devicesMsg:
		m.devices = msg.devices
		if m.ready {
			m.viewport.SetContent(m.renderDevices())
		}

	case errMsg:
		m.err = msg.err

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keyQuit):
			return m, tea.Quit
		case m.err != nil:
			return m, tea.Quit
		case key.Matches(msg, keyUp):
			if m.selectedIndex > 0 {
				m.selectedIndex--
				m.viewport.SetContent(m.renderDevices())
			}
		case key.Matches(msg, keyDown):
			if m.selectedIndex < len(m.devices)-1 {
				m.selectedIndex++
				m.viewport.SetContent(m.renderDevices())
			}
		case key.Matches(msg, keyEnter):
			if len(m.devices) > 0 {
				m.chosen = m.devices[m.selectedIndex].ID
				return m, tea.Quit
			}
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// Chosen returns the picked device ID, or false if the user quit.
func (m DevicePickerModel) Chosen() (int, bool) {
	return m.chosen, m.chosen >= 0
}

func (m DevicePickerModel) View() string {
	if m.err != nil {
		return fmt.Sprintf("Error: %v\n\nPress any key to exit.", m.err)
	}
	if !m.ready {
		return "Initializing..."
	}
	title := titleStyle.Render("Input Devices")
	help := infoStyle.Render("↑/↓: Navigate • Enter: Record from device • q: Quit")
	return fmt.Sprintf("%s\n\n%s\n\n%s", title, m.viewport.View(), help)
}

func (m DevicePickerModel) renderDevices() string {
	if len(m.devices) == 0 {
		return "No input devices found."
	}

	var sb strings.Builder
	for i, d := range m.devices {
		info := fmt.Sprintf("[%d] %s (%s)\n", d.ID, d.Name, d.Kind())
		info += fmt.Sprintf("    Input channels: %d, default sample rate: %.0f Hz\n",
			d.MaxInputChannels, d.DefaultSampleRate)
		if i == m.selectedIndex {
			info = highlightStyle.Render(info)
		}
		sb.WriteString(info)
		sb.WriteString("\n")
	}
	return sb.String()
}

// PickInputDevice runs the picker on the host's PortAudio devices.
// PortAudio must already be initialised.
func PickInputDevice() (int, bool, error) {
	p := tea.NewProgram(NewDevicePicker(audio.HostDevices), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return 0, false, err
	}
	m := final.(DevicePickerModel)
	if m.err != nil {
		return 0, false, m.err
	}
	id, ok := m.Chosen()
	return id, ok, nil
}
