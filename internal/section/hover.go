package section

import (
	"sync"
	"time"
)

// DefaultSettleDelay is how long an exit must stand before the overview goes idle.
const DefaultSettleDelay = 200 * time.Millisecond

type Signal int

const (
	SignalNone Signal = iota
	SignalEnter
	SignalExit
)

func (s Signal) String() string {
	switch s {
	case SignalEnter:
		return "enter"
	case SignalExit:
		return "exit"
	default:
		return "none"
	}
}

// HoverCoordinator turns enter/exit bursts from the file list into focus and
// idle states on the overview. Every exit schedules a check; a check only acts
// if the latest signal is still exit when it fires.
type HoverCoordinator struct {
	overview  OverviewView
	scheduler Scheduler
	settle    time.Duration

	mu     sync.Mutex
	latest Signal
}

func NewHoverCoordinator(overview OverviewView, scheduler Scheduler, settle time.Duration) *HoverCoordinator {
	if scheduler == nil {
		scheduler = TimerScheduler
	}
	if settle <= 0 {
		settle = DefaultSettleDelay
	}
	return &HoverCoordinator{overview: overview, scheduler: scheduler, settle: settle}
}

func (h *HoverCoordinator) OnEnter(m Media) {
	h.setLatest(SignalEnter)
	h.overview.UpdateForMedia(m)
}

func (h *HoverCoordinator) OnExit() {
	h.setLatest(SignalExit)
	h.scheduler.AfterFunc(h.settle, h.check)
}

func (h *HoverCoordinator) Latest() Signal {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.latest
}

func (h *HoverCoordinator) setLatest(s Signal) {
	h.mu.Lock()
	h.latest = s
	h.mu.Unlock()
}

func (h *HoverCoordinator) check() {
	if h.Latest() == SignalExit {
		h.overview.UpdateForAllSoft()
	}
}
