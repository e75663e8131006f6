package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nicobailon/mediasection/internal/rest"
	"github.com/nicobailon/mediasection/internal/section"
	"github.com/nicobailon/mediasection/internal/tui/theme"
)

// overviewPane shows either the focused media or the section aggregate.
type overviewPane struct {
	vp      viewport.Model
	out     *outbox
	backend Backend
	ctx     context.Context

	projectID string
	filter    section.MediaFilter
	visible   bool

	focused  *section.Media
	seq      int
	loading  bool
	analysis rest.Analysis
	err      error
}

func newOverviewPane(ctx context.Context, out *outbox, backend Backend) *overviewPane {
	return &overviewPane{vp: viewport.New(0, 0), out: out, backend: backend, ctx: ctx}
}

func (o *overviewPane) SetProjectID(id string)                    { o.projectID = id }
func (o *overviewPane) SetMediaFilter(filter section.MediaFilter) { o.filter = filter }
func (o *overviewPane) SetVisible(visible bool)                   { o.visible = visible }

func (o *overviewPane) UpdateForMedia(m section.Media) {
	o.focused = &m
	o.render()
}

// UpdateForAll drops the focus and reloads the aggregate for the current filter.
func (o *overviewPane) UpdateForAll() {
	o.focused = nil
	if o.projectID == "" || o.filter == nil || o.backend == nil {
		o.render()
		return
	}
	o.seq++
	o.loading = true
	o.out.push(loadAnalysisCmd(o.ctx, o.backend, o.projectID, o.filter().Query(), o.seq))
	o.render()
}

func (o *overviewPane) UpdateForAllSoft() {
	o.focused = nil
	o.render()
}

// setAnalysis applies a loaded aggregate unless a newer load superseded it.
func (o *overviewPane) setAnalysis(msg analysisLoadedMsg) bool {
	if msg.seq != o.seq {
		return false
	}
	o.loading = false
	o.analysis = msg.analysis
	o.err = msg.err
	o.render()
	return true
}

func (o *overviewPane) setSize(w, h int) {
	o.vp.Width = w
	o.vp.Height = h
	o.render()
}

func (o *overviewPane) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	o.vp, cmd = o.vp.Update(msg)
	return cmd
}

func (o *overviewPane) render() {
	o.vp.SetContent(o.content())
}

func (o *overviewPane) content() string {
	if !o.visible {
		return theme.DimStyle.Render("No media in this section")
	}
	if o.focused != nil {
		return renderMedia(*o.focused)
	}

	var b strings.Builder
	b.WriteString(theme.SectionStyle.Render(theme.IconSection+"  Section overview") + "\n\n")
	if o.filter != nil {
		b.WriteString(theme.DimStyle.Render(o.filter().Predicate()) + "\n\n")
	}
	switch {
	case o.loading:
		b.WriteString(theme.SubTextStyle.Render("Loading..."))
	case o.err != nil:
		b.WriteString(theme.ErrorStyle.Render(o.err.Error()))
	case len(o.analysis) == 0:
		b.WriteString(theme.DimStyle.Render("No analysis"))
	default:
		for _, k := range sortedKeys(o.analysis) {
			b.WriteString(theme.KeyStyle.Render(k) + "  " + theme.TextStyle.Render(fmt.Sprint(o.analysis[k])) + "\n")
		}
	}
	return b.String()
}

func renderMedia(m section.Media) string {
	var b strings.Builder
	b.WriteString(theme.TitleStyle.Render(theme.IconMedia+"  "+m.Name) + "\n")
	b.WriteString(theme.DimStyle.Render("#"+strconv.FormatInt(m.ID, 10)) + "\n\n")
	for _, k := range sortedKeys(m.Attributes) {
		b.WriteString(theme.KeyStyle.Render(k) + "  " + theme.TextStyle.Render(fmt.Sprint(m.Attributes[k])) + "\n")
	}
	return b.String()
}

func (o *overviewPane) view() string { return o.vp.View() }
