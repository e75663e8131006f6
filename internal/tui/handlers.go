package tui

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nicobailon/mediasection/internal/section"
	"github.com/nicobailon/mediasection/internal/tui/theme"
)

func handleMain(m *model, msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return *m, m.overview.update(msg)
	}

	switch keyMsg.String() {
	case "q", "ctrl+c":
		return *m, tea.Quit
	case "?":
		m.state = stateHelp
		return *m, nil
	case "esc":
		m.endHover()
		return *m, nil
	case "ctrl+r":
		m.loading = true
		return *m, tea.Batch(m.spinner.Tick, m.loadMedia())
	case "enter":
		sel, ok := m.files.selected()
		if !ok {
			return *m, nil
		}
		m.ctrl.OpenMedia(sel.ID)
		return *m, nil
	case "r":
		from := m.ctrl.Name().Attribute()
		if !m.ctrl.RequestRename() {
			return *m, NewWarningCmd("Section is not ready")
		}
		m.editFrom = from
		m.state = stateRename
		return *m, nil
	case "a":
		if len(m.files.algorithms) == 0 {
			return *m, NewWarningCmd("No algorithms configured")
		}
		m.picker = newPicker(theme.IconAlgorithm+"  Launch algorithm", m.files.algorithms)
		m.state = statePicker
		return *m, m.picker.focus()
	case "d", "D":
		if _, err := m.ctrl.RequestDownload(keyMsg.String() == "D"); err != nil {
			return *m, NewErrorCmd(err, "Download")
		}
		return *m, nil
	case "x":
		if !m.ctrl.Ready() {
			return *m, NewWarningCmd("Section is not ready")
		}
		m.state = stateConfirmDelete
		return *m, nil
	}

	cmd := m.files.update(msg)
	m.syncHover()
	return *m, cmd
}

func handleRename(m *model, msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "enter":
			m.ctrl.CommitKey(m.header.value())
			m.state = stateMain
			return *m, nil
		case "esc", "tab":
			m.ctrl.Blur(m.header.value())
			m.state = stateMain
			return *m, nil
		case "ctrl+c":
			m.ctrl.Blur(m.header.value())
			return *m, tea.Quit
		}
	}
	return *m, m.header.update(msg)
}

func handlePicker(m *model, msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "enter":
			name, ok := m.picker.selected()
			if !ok {
				return *m, nil
			}
			m.state = stateMain
			if _, err := m.ctrl.LaunchAlgorithm(name); err != nil {
				return *m, NewErrorCmd(err, "Launch")
			}
			return *m, nil
		case "esc":
			m.state = stateMain
			return *m, nil
		}
	}
	return *m, m.picker.update(msg)
}

func handleConfirmDelete(m *model, msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "y", "enter":
			m.state = stateMain
			if err := m.ctrl.RequestDelete(); err != nil {
				if errors.Is(err, section.ErrNotReady) {
					return *m, NewWarningCmd("Section is not ready")
				}
				return *m, NewErrorCmd(err, "Delete")
			}
			return *m, nil
		case "n", "esc":
			m.state = stateMain
		}
	}
	return *m, nil
}
