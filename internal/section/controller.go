package section

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/nicobailon/mediasection/internal/rest"
)

// Options configure a Controller. Files, Overview, Header, API and Notifier
// are required.
type Options struct {
	Files    FileListView
	Overview OverviewView
	Header   Header
	API      API
	Notifier Notifier
	Emitter  Emitter

	Scheduler   Scheduler
	SettleDelay time.Duration

	DownloadFailures DownloadFailurePolicy
	// PageQuery is the query string of the page hosting the section; its
	// search parameter is carried into navigation URLs.
	PageQuery string

	Context context.Context
	Logger  zerolog.Logger
}

// Controller owns the state of one section and wires it into the file list,
// the overview and the header. Its methods must be called from one goroutine.
type Controller struct {
	files    FileListView
	overview OverviewView
	header   Header
	emitter  Emitter
	log      zerolog.Logger

	hover   *HoverCoordinator
	rename  *renameTransaction
	actions *dispatcher

	pageQuery string

	projectID  string
	projectSet bool
	name       Name
	nameSet    bool
	label      string
	filter     Filter
	mediaCount int
	username   string
	token      string
	worker     Worker
}

func NewController(opts Options) *Controller {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	emitter := opts.Emitter
	if emitter == nil {
		emitter = EmitterFunc(func(Event) {})
	}

	c := &Controller{
		files:     opts.Files,
		overview:  opts.Overview,
		header:    opts.Header,
		emitter:   emitter,
		log:       opts.Logger,
		pageQuery: opts.PageQuery,
		hover:     NewHoverCoordinator(opts.Overview, opts.Scheduler, opts.SettleDelay),
		actions:   newDispatcher(ctx, opts.API, opts.Notifier, opts.DownloadFailures, opts.Logger),
	}
	c.rename = &renameTransaction{c: c}
	c.files.SetMediaFilter(c.Filter)
	c.overview.SetMediaFilter(c.Filter)
	return c
}

func (c *Controller) SetProjectID(id string) {
	c.projectID = id
	c.projectSet = true
	c.files.SetProjectID(id)
	c.overview.SetProjectID(id)
	c.setCallbacks()
}

// SetNameAttribute sets the name from its attribute form, where "null" is
// the unnamed section.
func (c *Controller) SetNameAttribute(attr string) {
	c.SetName(ParseName(attr))
}

// SetName changes the display name. The filter is recomputed here and only here.
func (c *Controller) SetName(name Name) {
	c.name = name
	c.nameSet = true
	c.filter, c.label = Derive(name)
	c.header.SetLabel(c.label)
	c.overview.UpdateForAll()
	c.files.SetSection(c.label)
	c.setCallbacks()
}

func (c *Controller) SetUsername(username string) {
	c.username = username
	c.files.SetUsername(username)
}

func (c *Controller) SetToken(token string) {
	c.token = token
	c.files.SetToken(token)
}

func (c *Controller) setCallbacks() {
	c.actions.wire(c.projectSet && c.nameSet)
}

func (c *Controller) Overview() OverviewView { return c.overview }

// SetMediaCount hides both views for zero. Otherwise it shows them and only
// refreshes when the file list holds a different count.
func (c *Controller) SetMediaCount(n int) {
	c.updateCount(n)
	if n == 0 {
		c.overview.SetVisible(false)
		c.files.SetVisible(false)
		return
	}
	c.overview.SetVisible(true)
	c.files.SetVisible(true)
	if n != c.files.MediaCount() {
		c.files.SetMediaCount(n)
		c.overview.UpdateForAll()
	}
}

func (c *Controller) SetWorker(w Worker) {
	c.worker = w
	c.files.SetWorker(w)
}

func (c *Controller) SetCardInfo(info CardInfo) {
	c.files.SetCardInfo(info)
}

func (c *Controller) SetMediaIDs(ids []int64) {
	c.updateCount(len(ids))
	c.files.SetMediaIDs(slices.Clone(ids))
}

func (c *Controller) SetAlgorithms(names []string) {
	c.files.SetAlgorithms(slices.Clone(names))
}

// SetSections forwards the names of the other sections.
func (c *Controller) SetSections(names []string) {
	others := make([]string, 0, len(names))
	for _, n := range names {
		if n != c.label {
			others = append(others, n)
		}
	}
	c.files.SetSections(others)
}

func (c *Controller) updateCount(n int) {
	c.mediaCount = n
	c.header.SetCountText(CountText(n))
}

// CountText is the file count shown next to the section label.
func CountText(n int) string {
	if n == 1 {
		return "1 File"
	}
	return strconv.Itoa(n) + " Files"
}

func (c *Controller) ProjectID() string        { return c.projectID }
func (c *Controller) Name() Name               { return c.name }
func (c *Controller) Label() string            { return c.label }
func (c *Controller) Filter() Filter           { return c.filter }
func (c *Controller) MediaCount() int          { return c.mediaCount }
func (c *Controller) Ready() bool              { return c.actions.wired }
func (c *Controller) RenameState() RenameState { return c.rename.state }
func (c *Controller) Hover() *HoverCoordinator { return c.hover }

// Errors delivers failed network actions. Unread errors beyond the buffer are dropped.
func (c *Controller) Errors() <-chan *ActionError { return c.actions.errs }

// Wait blocks until every response handler of issued actions has run.
func (c *Controller) Wait() { c.actions.wait() }

// OpenMedia publishes a Navigate event for the annotation view of id.
func (c *Controller) OpenMedia(id int64) Navigate {
	nav := Navigate{URL: c.annotationURL(id), MediaID: id}
	c.emit(nav)
	return nav
}

func (c *Controller) annotationURL(id int64) string {
	u := "/" + url.PathEscape(c.projectID) + "/annotation/" + strconv.FormatInt(id, 10)
	if q := c.filter.NavigationQuery(c.pageQuery); q != "" {
		u += "?" + q
	}
	return u
}

func (c *Controller) HoverEnter(m Media) { c.hover.OnEnter(m) }
func (c *Controller) HoverExit()         { c.hover.OnExit() }

// RequestRename opens the inline editor. It reports false when an edit is
// already open or the section is not ready.
func (c *Controller) RequestRename() bool { return c.rename.requestEdit() }

// CommitKey handles Enter in the rename input.
func (c *Controller) CommitKey(value string) { c.rename.commitKey(value) }

// Blur handles the rename input losing focus.
func (c *Controller) Blur(value string) { c.rename.blur(value) }

func (c *Controller) LaunchAlgorithm(name string) (*rest.Pending, error) {
	return c.actions.launchAlgorithm(c.target(), name)
}

func (c *Controller) RequestDownload(annotations bool) (*rest.Pending, error) {
	return c.actions.requestDownload(c.target(), annotations)
}

// RequestDelete publishes a RemoveSection event. Removal is up to the owner.
func (c *Controller) RequestDelete() error {
	ev, err := c.actions.requestDelete(c.target())
	if err != nil {
		return err
	}
	c.emit(ev)
	return nil
}

func (c *Controller) target() target {
	return target{projectID: c.projectID, label: c.label, filter: c.filter}
}

func (c *Controller) postWorker(msg WorkerMessage) {
	if c.worker == nil {
		c.log.Warn().Str("command", msg.Command()).Msg("no worker attached, message dropped")
		return
	}
	c.worker.Post(msg)
}

func (c *Controller) emit(e Event) {
	c.log.Debug().Str("event", e.eventName()).Msg("section event")
	c.emitter.Emit(e)
}

func (c *Controller) String() string {
	return fmt.Sprintf("section %q (project %s, %s)", c.label, c.projectID, CountText(c.mediaCount))
}
