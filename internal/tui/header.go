package tui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nicobailon/mediasection/internal/tui/theme"
)

// headerBar renders the section label and count and hosts the rename input.
type headerBar struct {
	label   string
	count   string
	editing bool
	// fresh is true until the first key after BeginEdit, which replaces
	// the whole value the way a selected input does.
	fresh bool
	input textinput.Model
	out   *outbox
}

func newHeaderBar(out *outbox) *headerBar {
	ti := textinput.New()
	ti.CharLimit = 128
	ti.Prompt = theme.IconRename + " "
	ti.PromptStyle = theme.KeyStyle
	ti.TextStyle = theme.TextStyle
	ti.PlaceholderStyle = theme.SubTextStyle
	return &headerBar{input: ti, out: out}
}

func (h *headerBar) SetLabel(label string)    { h.label = label }
func (h *headerBar) SetCountText(text string) { h.count = text }
func (h *headerBar) Editing() bool            { return h.editing }

func (h *headerBar) BeginEdit(initial string) {
	h.editing = true
	h.fresh = true
	h.input.SetValue(initial)
	h.input.CursorEnd()
	h.out.push(h.input.Focus())
}

func (h *headerBar) EndEdit(label string) {
	h.editing = false
	h.fresh = false
	h.label = label
	h.input.Blur()
	h.input.SetValue("")
}

func (h *headerBar) value() string { return h.input.Value() }

func (h *headerBar) update(msg tea.Msg) tea.Cmd {
	if key, ok := msg.(tea.KeyMsg); ok && h.fresh {
		h.fresh = false
		if key.Type == tea.KeyRunes || key.Type == tea.KeySpace {
			h.input.SetValue("")
		}
	}
	var cmd tea.Cmd
	h.input, cmd = h.input.Update(msg)
	return cmd
}

func (h *headerBar) view() string {
	if h.editing {
		return h.input.View()
	}
	return theme.TitleStyle.Render(theme.IconSection+" "+h.label) + "  " + theme.CountStyle.Render(h.count)
}
