package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/nicobailon/mediasection/internal/section"
)

type noticeKind int

const (
	noticeSuccess noticeKind = iota
	noticeError
	noticeDownloads
)

type notice struct {
	kind       noticeKind
	message    string
	persistent bool
}

const noticeBuffer = 32

// noticeSink is the section's notification sink. Network completions call it
// from their own goroutines; the program receives notices as messages.
type noticeSink struct {
	ch  chan notice
	log zerolog.Logger
}

func newNoticeSink(log zerolog.Logger) *noticeSink {
	return &noticeSink{ch: make(chan notice, noticeBuffer), log: log}
}

func (s *noticeSink) Notify(message string, persistent bool) {
	s.send(notice{kind: noticeSuccess, message: message, persistent: persistent})
}

func (s *noticeSink) Error(message string) {
	s.send(notice{kind: noticeError, message: message})
}

func (s *noticeSink) EnableDownloads() {
	s.send(notice{kind: noticeDownloads})
}

func (s *noticeSink) send(n notice) {
	select {
	case s.ch <- n:
	default:
		s.log.Warn().Str("message", n.message).Msg("notice dropped")
	}
}

func waitForNotice(ch <-chan notice) tea.Cmd {
	return func() tea.Msg {
		n, ok := <-ch
		if !ok {
			return nil
		}
		return noticeMsg{notice: n}
	}
}

func waitForActionError(ch <-chan *section.ActionError) tea.Cmd {
	return func() tea.Msg {
		err, ok := <-ch
		if !ok {
			return nil
		}
		return actionErrorMsg{err: err}
	}
}

// outbox collects commands produced while the controller runs inside Update.
// It is also the controller's scheduler and event emitter, so settle checks
// and upward events come back through the program's event loop.
type outbox struct {
	cmds []tea.Cmd
}

func (o *outbox) push(cmd tea.Cmd) {
	if cmd != nil {
		o.cmds = append(o.cmds, cmd)
	}
}

func (o *outbox) drain() tea.Cmd {
	if len(o.cmds) == 0 {
		return nil
	}
	cmds := o.cmds
	o.cmds = nil
	return tea.Batch(cmds...)
}

func (o *outbox) AfterFunc(d time.Duration, fn func()) {
	o.push(tea.Tick(d, func(time.Time) tea.Msg {
		return settleMsg{fn: fn}
	}))
}

func (o *outbox) Emit(e section.Event) {
	o.push(func() tea.Msg {
		return sectionEventMsg{event: e}
	})
}
