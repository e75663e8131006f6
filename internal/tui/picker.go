package tui

import (
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/nicobailon/mediasection/internal/tui/theme"
)

// picker is a small fuzzy-filtered chooser used for algorithms.
type picker struct {
	title   string
	options []string
	matches []string
	cursor  int
	input   textinput.Model
}

func newPicker(title string, options []string) picker {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.PromptStyle = theme.KeyStyle
	ti.TextStyle = theme.TextStyle
	ti.Placeholder = "filter"
	ti.PlaceholderStyle = theme.SubTextStyle
	p := picker{title: title, options: options, input: ti}
	p.matches = filterOptions(options, "")
	return p
}

func (p *picker) focus() tea.Cmd { return p.input.Focus() }

// filterOptions keeps options matching query, best match first. Without a
// fuzzy hit it falls back to substring matching.
func filterOptions(options []string, query string) []string {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return append([]string(nil), options...)
	}
	ranks := fuzzy.RankFindNormalizedFold(trimmed, options)
	if len(ranks) > 0 {
		sort.Stable(ranks)
		out := make([]string, 0, len(ranks))
		for _, r := range ranks {
			out = append(out, r.Target)
		}
		return out
	}
	lower := strings.ToLower(trimmed)
	var out []string
	for _, o := range options {
		if strings.Contains(strings.ToLower(o), lower) {
			out = append(out, o)
		}
	}
	return out
}

func (p *picker) selected() (string, bool) {
	if p.cursor < 0 || p.cursor >= len(p.matches) {
		return "", false
	}
	return p.matches[p.cursor], true
}

func (p *picker) update(msg tea.Msg) tea.Cmd {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "up", "ctrl+p":
			if p.cursor > 0 {
				p.cursor--
			}
			return nil
		case "down", "ctrl+n":
			if p.cursor < len(p.matches)-1 {
				p.cursor++
			}
			return nil
		}
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	p.matches = filterOptions(p.options, p.input.Value())
	if p.cursor >= len(p.matches) {
		p.cursor = max(len(p.matches)-1, 0)
	}
	return cmd
}

func (p *picker) view(width int) string {
	w := 50
	if width > 0 && width < w+10 {
		w = width - 10
	}
	lines := []string{theme.TitleStyle.Render(p.title), p.input.View(), ""}
	if len(p.matches) == 0 {
		lines = append(lines, theme.DimStyle.Render("no matches"))
	}
	for i, m := range p.matches {
		if i == p.cursor {
			lines = append(lines, lipgloss.NewStyle().Foreground(theme.Accent).Bold(true).Render("┃ "+theme.IconAlgorithm+" "+m))
			continue
		}
		lines = append(lines, theme.TextStyle.Render("  "+theme.IconAlgorithm+" "+m))
	}
	return theme.ModalStyle.Width(w).Render(strings.Join(lines, "\n"))
}
