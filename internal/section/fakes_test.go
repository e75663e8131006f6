package section

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/nicobailon/mediasection/internal/rest"
)

type apiCall struct {
	Method    string
	ProjectID string
	Query     string
	Body      any
}

type fakeAPI struct {
	mu     sync.Mutex
	calls  []apiCall
	status int
	err    error
}

func (a *fakeAPI) record(call apiCall) *rest.Pending {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, call)
	if a.err != nil {
		return rest.Resolved(nil, a.err)
	}
	status := a.status
	if status == 0 {
		status = 201
	}
	return rest.Resolved(&rest.Response{StatusCode: status}, nil)
}

func (a *fakeAPI) LaunchAlgorithm(_ context.Context, projectID string, req rest.AlgorithmLaunch) *rest.Pending {
	return a.record(apiCall{Method: "launch", ProjectID: projectID, Body: req})
}

func (a *fakeAPI) CreatePackage(_ context.Context, projectID string, req rest.PackageCreate) *rest.Pending {
	return a.record(apiCall{Method: "package", ProjectID: projectID, Body: req})
}

func (a *fakeAPI) PatchMedias(_ context.Context, projectID, query string, req rest.AttributePatch) *rest.Pending {
	return a.record(apiCall{Method: "patch", ProjectID: projectID, Query: query, Body: req})
}

func (a *fakeAPI) Calls() []apiCall {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]apiCall(nil), a.calls...)
}

type fakeNotifier struct {
	mu        sync.Mutex
	notices   []string
	errors    []string
	downloads int
}

func (n *fakeNotifier) Notify(message string, persistent bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, message)
}

func (n *fakeNotifier) Error(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, message)
}

func (n *fakeNotifier) EnableDownloads() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.downloads++
}

// fakeFiles records the calls that matter for refresh counting.
type fakeFiles struct {
	HeadlessFiles
	countSets   int
	sectionSets []string
}

func (f *fakeFiles) SetMediaCount(n int) {
	f.countSets++
	f.HeadlessFiles.SetMediaCount(n)
}

func (f *fakeFiles) SetSection(label string) {
	f.sectionSets = append(f.sectionSets, label)
	f.HeadlessFiles.SetSection(label)
}

type fakeOverview struct {
	mu      sync.Mutex
	calls   []string
	visible bool
}

func (o *fakeOverview) add(call string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, call)
}

func (o *fakeOverview) SetProjectID(string)        {}
func (o *fakeOverview) SetMediaFilter(MediaFilter) {}
func (o *fakeOverview) SetVisible(v bool)          { o.visible = v }
func (o *fakeOverview) UpdateForMedia(m Media)     { o.add("focus:" + m.Name) }
func (o *fakeOverview) UpdateForAll()              { o.add("all") }
func (o *fakeOverview) UpdateForAllSoft()          { o.add("idle") }

func (o *fakeOverview) Calls() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.calls...)
}

func (o *fakeOverview) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = nil
}

type fakeWorker struct {
	msgs []WorkerMessage
}

func (w *fakeWorker) Post(msg WorkerMessage) { w.msgs = append(w.msgs, msg) }

// manualScheduler holds callbacks until the test fires them.
type manualScheduler struct {
	delays []time.Duration
	fns    []func()
}

func (s *manualScheduler) AfterFunc(d time.Duration, fn func()) {
	s.delays = append(s.delays, d)
	s.fns = append(s.fns, fn)
}

type eventLog struct {
	events []Event
}

func (l *eventLog) Emit(e Event) { l.events = append(l.events, e) }

func (l *eventLog) named(name string) []Event {
	var out []Event
	for _, e := range l.events {
		if EventName(e) == name {
			out = append(out, e)
		}
	}
	return out
}

type fixture struct {
	ctrl      *Controller
	api       *fakeAPI
	notifier  *fakeNotifier
	files     *fakeFiles
	overview  *fakeOverview
	header    *HeadlessHeader
	worker    *fakeWorker
	scheduler *manualScheduler
	events    *eventLog
}

func newFixture(t *testing.T, opts ...func(*Options)) *fixture {
	t.Helper()
	f := &fixture{
		api:       &fakeAPI{},
		notifier:  &fakeNotifier{},
		files:     &fakeFiles{},
		overview:  &fakeOverview{},
		header:    &HeadlessHeader{},
		worker:    &fakeWorker{},
		scheduler: &manualScheduler{},
		events:    &eventLog{},
	}
	o := Options{
		Files:     f.files,
		Overview:  f.overview,
		Header:    f.header,
		API:       f.api,
		Notifier:  f.notifier,
		Emitter:   f.events,
		Scheduler: f.scheduler,
		Logger:    zerolog.Nop(),
	}
	for _, fn := range opts {
		fn(&o)
	}
	f.ctrl = NewController(o)
	f.ctrl.SetWorker(f.worker)
	t.Cleanup(f.ctrl.Wait)
	return f
}

// ready sets project 7 and the given name attribute.
func (f *fixture) ready(name string) *fixture {
	f.ctrl.SetProjectID("7")
	f.ctrl.SetNameAttribute(name)
	return f
}

var errUnreachable = errors.New("dial tcp: connection refused")
