package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nicobailon/mediasection/internal/rest"
	"github.com/nicobailon/mediasection/internal/section"
)

type toastType int

const (
	toastSuccess toastType = iota
	toastError
	toastWarning
	toastInfo
)

const (
	toastDuration = 3 * time.Second
	// quitGrace bounds how long quitting waits for in-flight section actions.
	quitGrace = 2 * time.Second
)

type toast struct {
	message   string
	kind      toastType
	expiresAt time.Time
	// sticky toasts stay until the next key press.
	sticky bool
}

func newToast(message string, kind toastType, d time.Duration) *toast {
	return &toast{message: message, kind: kind, expiresAt: time.Now().Add(d)}
}

func newStickyToast(message string, kind toastType) *toast {
	return &toast{message: message, kind: kind, sticky: true}
}

func (t *toast) expired() bool {
	if t.sticky {
		return false
	}
	return time.Now().After(t.expiresAt)
}

type SuccessMsg struct {
	Message string
}

type ErrorMsg struct {
	Err     error
	Context string
}

func (e ErrorMsg) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s: %v", e.Context, e.Err)
	}
	return e.Err.Error()
}

type WarningMsg struct {
	Message string
}

type InfoMsg struct {
	Message string
}

type toastExpiredMsg struct{}

func NewSuccessCmd(message string) tea.Cmd {
	return func() tea.Msg {
		return SuccessMsg{Message: message}
	}
}

func NewErrorCmd(err error, context string) tea.Cmd {
	return func() tea.Msg {
		return ErrorMsg{Err: err, Context: context}
	}
}

func NewWarningCmd(message string) tea.Cmd {
	return func() tea.Msg {
		return WarningMsg{Message: message}
	}
}

func NewInfoCmd(message string) tea.Cmd {
	return func() tea.Msg {
		return InfoMsg{Message: message}
	}
}

func toastExpireCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return toastExpiredMsg{}
	})
}

func (t *toast) render(styles toastStyles) string {
	var style lipgloss.Style
	var icon string

	switch t.kind {
	case toastSuccess:
		style = styles.success
		icon = "✓ "
	case toastError:
		style = styles.error
		icon = "✗ "
	case toastWarning:
		style = styles.warning
		icon = "! "
	case toastInfo:
		style = styles.info
		icon = "i "
	}

	return style.Render(icon + t.message)
}

type toastStyles struct {
	success lipgloss.Style
	error   lipgloss.Style
	warning lipgloss.Style
	info    lipgloss.Style
}

// section and data messages

type mediaLoadedMsg struct {
	media []rest.Media
	err   error
}

type analysisLoadedMsg struct {
	seq      int
	analysis rest.Analysis
	err      error
}

// settleMsg carries a hover settle check scheduled by the controller.
type settleMsg struct {
	fn func()
}

type sectionEventMsg struct {
	event section.Event
}

type noticeMsg struct {
	notice notice
}

type actionErrorMsg struct {
	err *section.ActionError
}

type resultMsg struct {
	action string
	err    error
}
