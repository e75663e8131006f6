package section

import (
	"encoding/json"
	"time"
)

// Media is one item of the library as the child views see it.
type Media struct {
	ID         int64
	Name       string
	Attributes map[string]any
}

// CardInfo lists the media attributes a file card renders next to the name.
type CardInfo struct {
	Fields []string
}

// MediaFilter returns the filter currently in force for the section.
type MediaFilter func() Filter

// FileListView is the file list child of a section.
type FileListView interface {
	SetProjectID(id string)
	SetSection(label string)
	SetUsername(username string)
	SetToken(token string)
	SetMediaFilter(filter MediaFilter)
	SetVisible(visible bool)
	MediaCount() int
	SetMediaCount(n int)
	SetMediaIDs(ids []int64)
	SetWorker(w Worker)
	SetCardInfo(info CardInfo)
	SetAlgorithms(names []string)
	SetSections(names []string)
}

// OverviewView is the detail panel showing either one media or the section aggregate.
type OverviewView interface {
	SetProjectID(id string)
	SetMediaFilter(filter MediaFilter)
	SetVisible(visible bool)
	UpdateForMedia(m Media)
	// UpdateForAll recomputes the aggregate display.
	UpdateForAll()
	// UpdateForAllSoft returns to the aggregate display without recomputing it.
	UpdateForAllSoft()
}

// Header is the label surface of the section: name, file count and the
// inline rename input.
type Header interface {
	SetLabel(label string)
	SetCountText(text string)
	// Editing reports whether the rename input currently replaces the label.
	Editing() bool
	BeginEdit(initial string)
	EndEdit(label string)
}

// WorkerMessage is a command understood by the shared background worker.
type WorkerMessage interface {
	Command() string
}

// RenameSection asks the worker to re-key any state held under FromName.
type RenameSection struct {
	FromName string `json:"fromName"`
	ToName   string `json:"toName"`
}

func (RenameSection) Command() string { return "renameSection" }

func (m RenameSection) MarshalJSON() ([]byte, error) {
	type wire RenameSection
	return json.Marshal(struct {
		Command string `json:"command"`
		wire
	}{Command: m.Command(), wire: wire(m)})
}

// Worker is the message-send capability of the shared worker.
type Worker interface {
	Post(msg WorkerMessage)
}

// Notifier is the page level notification sink. Implementations must be safe
// for use from multiple goroutines since network completions call it.
type Notifier interface {
	Notify(message string, persistent bool)
	Error(message string)
	EnableDownloads()
}

// Event is published to the owner of a section.
type Event interface {
	eventName() string
}

// Navigate asks the owner to open a media in the annotation view.
type Navigate struct {
	URL     string
	MediaID int64
}

// NameChanged marks the end of an edit session. The name may be unchanged.
type NameChanged struct {
	Name string
}

// RemoveSection asks the owner to remove the section.
type RemoveSection struct {
	Filter    Filter
	Name      string
	ProjectID string
}

func (Navigate) eventName() string      { return "navigate" }
func (NameChanged) eventName() string   { return "newName" }
func (RemoveSection) eventName() string { return "remove" }

// EventName returns the wire name of an event.
func EventName(e Event) string { return e.eventName() }

type Emitter interface {
	Emit(e Event)
}

type EmitterFunc func(e Event)

func (f EmitterFunc) Emit(e Event) { f(e) }

// Scheduler runs fn once after d. There is no cancellation.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func())
}

type SchedulerFunc func(d time.Duration, fn func())

func (f SchedulerFunc) AfterFunc(d time.Duration, fn func()) { f(d, fn) }

// TimerScheduler runs callbacks on their own goroutine via time.AfterFunc.
var TimerScheduler Scheduler = SchedulerFunc(func(d time.Duration, fn func()) {
	time.AfterFunc(d, fn)
})
