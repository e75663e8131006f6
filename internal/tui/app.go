package tui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/nicobailon/mediasection/internal/config"
	"github.com/nicobailon/mediasection/internal/recent"
	"github.com/nicobailon/mediasection/internal/rest"
	"github.com/nicobailon/mediasection/internal/section"
	"github.com/nicobailon/mediasection/internal/tui/theme"
	"github.com/nicobailon/mediasection/internal/worker"
)

type viewState int

const (
	stateMain viewState = iota
	stateRename
	statePicker
	stateConfirmDelete
	stateHelp
)

// Backend is the REST surface the section screen needs.
type Backend interface {
	section.API
	ListMedia(ctx context.Context, projectID, query string) ([]rest.Media, error)
	SectionAnalysis(ctx context.Context, projectID, query string) (rest.Analysis, error)
}

type Opener interface {
	Open(url string) error
}

type Deps struct {
	Cfg     *config.Config
	Backend Backend
	Worker  section.Worker
	Recent  *recent.Store
	Opener  Opener
	Log     zerolog.Logger
}

// Outcome is what the screen asks of its caller once it quits.
type Outcome struct {
	Remove *section.RemoveSection
}

type model struct {
	deps    Deps
	ctx     context.Context
	out     *outbox
	notices *noticeSink

	ctrl     *section.Controller
	files    *fileList
	overview *overviewPane
	header   *headerBar
	picker   picker
	spinner  spinner.Model

	state     viewState
	loading   bool
	width     int
	height    int
	toast     *toast
	downloads bool
	lastErr   string

	hovering bool
	hoverID  int64
	editFrom string

	outcome Outcome
}

type App struct {
	deps Deps
}

func New(deps Deps) *App {
	return &App{deps: deps}
}

func (a *App) Run(ctx context.Context) (*Outcome, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	m := newModel(ctx, a.deps)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	finalModel, err := p.Run()
	finishActions(m.ctrl, cancel, quitGrace)
	if a.deps.Recent != nil {
		if serr := a.deps.Recent.Save(); serr != nil {
			a.deps.Log.Warn().Err(serr).Msg("save recent sections")
		}
	}
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return nil, err
	}
	if fm, ok := finalModel.(model); ok {
		return &fm.outcome, nil
	}
	return &Outcome{}, nil
}

// finishActions waits for in-flight actions and cancels whatever is still
// running after grace.
func finishActions(ctrl *section.Controller, cancel context.CancelFunc, grace time.Duration) {
	done := make(chan struct{})
	go func() {
		ctrl.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(grace):
		cancel()
		<-done
	}
}

func newModel(ctx context.Context, deps Deps) model {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := deps.Cfg
	out := &outbox{}
	notices := newNoticeSink(deps.Log)

	files := newFileList()
	overview := newOverviewPane(ctx, out, deps.Backend)
	header := newHeaderBar(out)

	ctrl := section.NewController(section.Options{
		Files:            files,
		Overview:         overview,
		Header:           header,
		API:              deps.Backend,
		Notifier:         notices,
		Emitter:          out,
		Scheduler:        out,
		SettleDelay:      cfg.SettleDelay,
		DownloadFailures: cfg.DownloadFailures(),
		PageQuery:        cfg.PageQuery(),
		Context:          ctx,
		Logger:           deps.Log,
	})
	ctrl.SetProjectID(cfg.ProjectID)
	ctrl.SetUsername(cfg.Username)
	ctrl.SetToken(cfg.Token)
	ctrl.SetNameAttribute(cfg.Section)
	if deps.Worker != nil {
		ctrl.SetWorker(deps.Worker)
	}
	ctrl.SetAlgorithms(cfg.Algorithms)
	ctrl.SetCardInfo(section.CardInfo{Fields: cfg.CardFields})

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Accent)

	m := model{
		deps:     deps,
		ctx:      ctx,
		out:      out,
		notices:  notices,
		ctrl:     ctrl,
		files:    files,
		overview: overview,
		header:   header,
		spinner:  sp,
		loading:  true,
	}
	m.refreshSections()
	return m
}

// TEA plumbing

func (m model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.loadMedia(),
		waitForNotice(m.notices.ch),
		waitForActionError(m.ctrl.Errors()),
		m.out.drain(),
	)
}

func (m model) loadMedia() tea.Cmd {
	if m.deps.Backend == nil || m.ctrl.ProjectID() == "" {
		return func() tea.Msg {
			return mediaLoadedMsg{err: errors.New("no project configured")}
		}
	}
	return loadMediaCmd(m.ctx, m.deps.Backend, m.ctrl.ProjectID(), m.ctrl.Filter().Query())
}

// Update runs the model and flushes whatever the section queued meanwhile.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.update(msg)
	return next, tea.Batch(cmd, m.out.drain())
}

func (m model) update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil

	case mediaLoadedMsg:
		return m.applyMedia(msg)

	case analysisLoadedMsg:
		m.overview.setAnalysis(msg)
		return m, nil

	case settleMsg:
		msg.fn()
		return m, nil

	case sectionEventMsg:
		return m.handleEvent(msg.event)

	case noticeMsg:
		cmd := m.applyNotice(msg.notice)
		return m, tea.Batch(cmd, waitForNotice(m.notices.ch))

	case actionErrorMsg:
		m.deps.Log.Warn().Err(msg.err).Msg("section action failed")
		m.lastErr = msg.err.Error()
		return m, waitForActionError(m.ctrl.Errors())

	case resultMsg:
		if msg.err != nil {
			return m, NewErrorCmd(msg.err, msg.action)
		}
		return m, nil

	case SuccessMsg:
		return m, m.showToast(msg.Message, toastSuccess, toastDuration)
	case ErrorMsg:
		return m, m.showToast(msg.Error(), toastError, toastDuration)
	case WarningMsg:
		return m, m.showToast(msg.Message, toastWarning, toastDuration)
	case InfoMsg:
		return m, m.showToast(msg.Message, toastInfo, toastDuration)

	case toastExpiredMsg:
		if m.toast != nil && m.toast.expired() {
			m.toast = nil
		}
		return m, nil
	}

	if _, ok := msg.(tea.KeyMsg); ok && m.toast != nil && m.toast.sticky {
		m.toast = nil
	}

	switch m.state {
	case stateRename:
		return handleRename(&m, msg)
	case statePicker:
		return handlePicker(&m, msg)
	case stateConfirmDelete:
		return handleConfirmDelete(&m, msg)
	case stateHelp:
		if _, ok := msg.(tea.KeyMsg); ok {
			m.state = stateMain
		}
		return m, nil
	}
	return handleMain(&m, msg)
}

// layout sizes the panes so header, framed panes, a toast line and the
// footer fit the terminal.
func (m *model) layout() {
	listWidth := int(float64(m.width) * 0.45)
	if listWidth < 30 {
		listWidth = 30
	}
	previewWidth := m.width - listWidth - 12
	paneHeight := m.height - 12
	if paneHeight < 3 {
		paneHeight = 3
	}
	m.files.setSize(listWidth, paneHeight)
	m.overview.setSize(previewWidth, paneHeight)
}

func (m model) applyMedia(msg mediaLoadedMsg) (tea.Model, tea.Cmd) {
	m.loading = false
	if msg.err != nil {
		m.deps.Log.Error().Err(msg.err).Msg("load media")
		m.ctrl.SetMediaCount(0)
		return m, NewErrorCmd(msg.err, "Error loading media")
	}

	ids := make([]int64, 0, len(msg.media))
	for _, md := range msg.media {
		ids = append(ids, md.ID)
	}
	m.files.remember(msg.media)
	m.ctrl.SetMediaIDs(ids)
	m.ctrl.SetMediaCount(len(ids))
	if m.deps.Worker != nil {
		m.deps.Worker.Post(worker.CacheSection{Name: m.ctrl.Label(), MediaIDs: ids})
	}
	if m.deps.Recent != nil {
		m.deps.Recent.Add(m.deps.Cfg.Server, m.ctrl.ProjectID(), m.ctrl.Name().Attribute(), m.ctrl.Label())
		m.refreshSections()
	}
	return m, nil
}

// refreshSections hands the controller every section name known for the project.
func (m *model) refreshSections() {
	seen := map[string]bool{}
	var names []string
	add := func(n string) {
		if n != "" && !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}
	for _, n := range m.deps.Cfg.Sections {
		add(n)
	}
	if m.deps.Recent != nil {
		for _, n := range m.deps.Recent.SectionNames(m.deps.Cfg.Server, m.ctrl.ProjectID()) {
			add(n)
		}
	}
	m.ctrl.SetSections(names)
}

// syncHover maps the list cursor onto hover enter/exit signals.
func (m *model) syncHover() {
	sel, ok := m.files.selected()
	if !ok {
		m.endHover()
		return
	}
	if m.hovering && m.hoverID == sel.ID {
		return
	}
	m.endHover()
	m.hovering = true
	m.hoverID = sel.ID
	m.ctrl.HoverEnter(sel)
}

func (m *model) endHover() {
	if !m.hovering {
		return
	}
	m.hovering = false
	m.hoverID = 0
	m.ctrl.HoverExit()
}

func (m model) handleEvent(e section.Event) (tea.Model, tea.Cmd) {
	switch ev := e.(type) {
	case section.Navigate:
		url := absoluteURL(m.deps.Cfg.Server, ev.URL)
		m.deps.Log.Info().Int64("media", ev.MediaID).Str("url", url).Msg("open media")
		if m.deps.Opener == nil {
			m.toast = newStickyToast(url, toastInfo)
			return m, nil
		}
		return m, tea.Batch(openURLCmd(m.deps.Opener, url), NewInfoCmd("Opening "+url))

	case section.NameChanged:
		if m.state == stateRename {
			m.state = stateMain
		}
		from, to := m.editFrom, m.ctrl.Name().Attribute()
		m.editFrom = ""
		if from == "" || from == to {
			return m, nil
		}
		if m.deps.Recent != nil {
			m.deps.Recent.Rename(m.deps.Cfg.Server, m.ctrl.ProjectID(), from, to)
		}
		m.refreshSections()
		return m, NewSuccessCmd("Renamed to " + ev.Name)

	case section.RemoveSection:
		m.outcome.Remove = &ev
		if m.deps.Recent != nil {
			m.deps.Recent.Remove(m.deps.Cfg.Server, ev.ProjectID, m.ctrl.Name().Attribute())
		}
		return m, tea.Quit
	}
	return m, nil
}

func (m *model) applyNotice(n notice) tea.Cmd {
	switch n.kind {
	case noticeDownloads:
		m.downloads = true
		return nil
	case noticeError:
		return m.showToast(n.message, toastError, toastDuration)
	}
	if n.persistent {
		m.toast = newStickyToast(n.message, toastSuccess)
		return nil
	}
	return m.showToast(n.message, toastSuccess, toastDuration)
}

func (m *model) showToast(message string, kind toastType, d time.Duration) tea.Cmd {
	m.toast = newToast(message, kind, d)
	return toastExpireCmd(d)
}

func (m model) View() string {
	if m.loading {
		loadingBox := lipgloss.NewStyle().
			Padding(2, 4).
			Render(m.spinner.View() + " Loading media...")
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, loadingBox)
	}

	switch m.state {
	case stateHelp:
		return renderHelp()
	case statePicker:
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.picker.view(m.width))
	case stateConfirmDelete:
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.renderConfirmDelete())
	}

	left := theme.ListFrameStyle.Render(m.files.view())
	right := theme.PreviewFrameStyle.Render(m.overview.view())
	if m.toast != nil && !m.toast.expired() {
		styles := toastStyles{
			success: theme.SuccessStyle.Bold(true),
			error:   theme.ErrorStyle.Bold(true),
			warning: theme.WarnStyle.Bold(true),
			info:    theme.SectionStyle.Bold(true),
		}
		right = m.toast.render(styles) + "\n\n" + right
	}

	headerWidth := m.width - 6
	if headerWidth < 20 {
		headerWidth = 20
	}
	badge := ""
	if m.downloads {
		badge = theme.LiveBadgeStyle.Render(theme.IconDownload + " downloads")
	}
	title := m.header.view()
	padding := headerWidth - lipgloss.Width(title) - lipgloss.Width(badge)
	if padding < 1 {
		padding = 1
	}
	divider := lipgloss.NewStyle().Foreground(theme.OverlayColor).Render(strings.Repeat("─", headerWidth))
	headerBox := lipgloss.NewStyle().
		Padding(0, 2).
		MarginTop(1).
		Render(theme.Logo + "\n" + title + strings.Repeat(" ", padding) + badge + "\n" + divider)

	body := lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right)
	return lipgloss.JoinVertical(lipgloss.Left, headerBox, body, m.renderFooter())
}

func (m model) renderFooter() string {
	sep := lipgloss.NewStyle().Foreground(theme.OverlayColor).Render(" │ ")
	hint := func(k, d string) string {
		return theme.KeyStyle.Render(k) + theme.DimStyle.Render(" "+d+"  ")
	}
	var content string
	if m.state == stateRename {
		content = hint("enter", "save") + hint("esc", "done")
	} else {
		content = hint("enter", "open") + hint("r", "rename") +
			sep +
			hint("a", "algorithm") + hint("d", "download") + hint("x", "delete") +
			sep +
			hint("?", "help") + hint("q", "quit")
	}
	if m.lastErr != "" {
		content += sep + theme.ErrorStyle.Render(m.lastErr)
	}
	return lipgloss.NewStyle().
		BorderTop(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(theme.OverlayColor).
		Padding(0, 2).
		Foreground(theme.SubTextColor).
		Render(content)
}

func (m model) renderConfirmDelete() string {
	content := theme.ErrorStyle.Render(theme.IconDelete+"  Remove section") + "\n\n" +
		theme.TextStyle.Render(m.ctrl.Label()) + theme.DimStyle.Render(" ("+section.CountText(m.ctrl.MediaCount())+")") + "\n\n" +
		theme.KeyStyle.Render("y") + theme.DimStyle.Render(" confirm  ") +
		theme.KeyStyle.Render("n") + theme.DimStyle.Render(" cancel")
	return theme.ModalStyle.Render(content)
}

func renderHelp() string {
	helpLine := func(key, desc string) string {
		k := lipgloss.NewStyle().
			Foreground(theme.BaseBg).
			Background(theme.Teal).
			Bold(true).
			Padding(0, 1).
			Width(10).
			Render(key)
		d := lipgloss.NewStyle().Foreground(theme.TextColor).Render("  " + desc)
		return k + d
	}

	sectionHeader := func(title string) string {
		return lipgloss.NewStyle().
			Foreground(theme.Accent).
			Bold(true).
			MarginTop(1).
			Render(" " + title + " ")
	}

	content := strings.Join([]string{
		theme.Logo + theme.DimStyle.Render(" help"),
		sectionHeader("Navigation"),
		helpLine("j / ↓", "move down"),
		helpLine("k / ↑", "move up"),
		helpLine("enter", "open media in the annotator"),
		helpLine("esc", "back to section overview"),
		sectionHeader("Section"),
		helpLine("r", "rename section"),
		helpLine("a", "launch algorithm"),
		helpLine("d", "download media"),
		helpLine("D", "download media + annotations"),
		helpLine("x", "remove section"),
		helpLine("ctrl+r", "reload media"),
		sectionHeader("Other"),
		helpLine("?", "toggle this help"),
		helpLine("q", "quit"),
	}, "\n")
	return theme.ModalStyle.Render(content)
}
