package tui

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nicobailon/mediasection/internal/rest"
	"github.com/nicobailon/mediasection/internal/section"
	"github.com/nicobailon/mediasection/internal/tui/theme"
)

type mediaItem struct {
	media section.Media
	desc  string
}

func (i mediaItem) Title() string       { return i.media.Name }
func (i mediaItem) Description() string { return i.desc }
func (i mediaItem) FilterValue() string { return i.media.Name }

// fileList is the file list child of the section.
type fileList struct {
	list list.Model

	known   map[int64]section.Media
	ids     []int64
	count   int
	visible bool

	projectID  string
	section    string
	username   string
	token      string
	filter     section.MediaFilter
	worker     section.Worker
	cardInfo   section.CardInfo
	algorithms []string
	sections   []string
}

func newFileList() *fileList {
	l := list.New([]list.Item{}, newItemDelegate(50), 0, 0)
	l.DisableQuitKeybindings()
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetShowPagination(true)
	return &fileList{list: l, known: map[int64]section.Media{}}
}

func (f *fileList) SetProjectID(id string)                    { f.projectID = id }
func (f *fileList) SetSection(label string)                   { f.section = label }
func (f *fileList) SetUsername(username string)               { f.username = username }
func (f *fileList) SetToken(token string)                     { f.token = token }
func (f *fileList) SetMediaFilter(filter section.MediaFilter) { f.filter = filter }
func (f *fileList) SetVisible(visible bool)                   { f.visible = visible }
func (f *fileList) MediaCount() int                           { return f.count }
func (f *fileList) SetWorker(w section.Worker)                { f.worker = w }
func (f *fileList) SetAlgorithms(names []string)              { f.algorithms = names }
func (f *fileList) SetSections(names []string)                { f.sections = names }

func (f *fileList) SetMediaCount(n int) {
	f.count = n
	f.refresh()
}

// SetMediaIDs replaces the ids; the displayed count only follows SetMediaCount.
func (f *fileList) SetMediaIDs(ids []int64) {
	f.ids = ids
	f.refresh()
}

func (f *fileList) SetCardInfo(info section.CardInfo) {
	f.cardInfo = info
	f.refresh()
}

// remember stores names and attributes of loaded media for rendering.
func (f *fileList) remember(media []rest.Media) {
	for _, m := range media {
		f.known[m.ID] = section.Media{ID: m.ID, Name: m.Name, Attributes: m.Attributes}
	}
}

func (f *fileList) refresh() {
	items := make([]list.Item, 0, len(f.ids))
	for _, id := range f.ids {
		if len(items) == f.count {
			break
		}
		m, ok := f.known[id]
		if !ok {
			m = section.Media{ID: id, Name: "Media " + strconv.FormatInt(id, 10)}
		}
		items = append(items, mediaItem{media: m, desc: f.describe(m)})
	}
	f.list.SetItems(items)
}

func (f *fileList) describe(m section.Media) string {
	parts := []string{"#" + strconv.FormatInt(m.ID, 10)}
	for _, field := range f.cardInfo.Fields {
		if v, ok := m.Attributes[field]; ok && v != nil {
			parts = append(parts, fmt.Sprintf("%s: %v", field, v))
		}
	}
	return strings.Join(parts, " · ")
}

func (f *fileList) selected() (section.Media, bool) {
	item, ok := f.list.SelectedItem().(mediaItem)
	if !ok {
		return section.Media{}, false
	}
	return item.media, true
}

func (f *fileList) setSize(w, h int) {
	f.list.SetSize(w, h)
	f.list.SetDelegate(newItemDelegate(w))
}

func (f *fileList) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.list, cmd = f.list.Update(msg)
	return cmd
}

func (f *fileList) view() string {
	if !f.visible {
		return theme.DimStyle.Render("No media in " + f.section)
	}
	return f.list.View()
}

type itemDelegate struct {
	listWidth int
}

func (d itemDelegate) Height() int                             { return 2 }
func (d itemDelegate) Spacing() int                            { return 0 }
func (d itemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	i, ok := item.(mediaItem)
	if !ok {
		return
	}

	selected := index == m.Index()
	width := d.listWidth - 4
	if width < 20 {
		width = 20
	}

	accentBar := theme.DimStyle.Render("  ")
	line1 := accentBar + theme.TextStyle.Render(theme.IconMedia+" "+i.media.Name)
	line2 := accentBar + theme.DimStyle.Render("  "+i.desc)
	if selected {
		accentBar = lipgloss.NewStyle().Foreground(theme.Accent).Bold(true).Render("┃ ")
		line1 = accentBar + lipgloss.NewStyle().Foreground(theme.Accent).Bold(true).Render(theme.IconMedia+" "+i.media.Name)
		line2 = accentBar + theme.SelectedRowStyle.Render("  "+i.desc)
		rowStyle := lipgloss.NewStyle().Background(theme.SurfaceBg).Width(width)
		fmt.Fprint(w, rowStyle.Render(line1)+"\n"+rowStyle.Render(line2))
		return
	}
	fmt.Fprint(w, line1+"\n"+line2)
}

func newItemDelegate(width int) itemDelegate {
	return itemDelegate{listWidth: width}
}

// sortedKeys returns the keys of m in order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
