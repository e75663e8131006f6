package section

import "sync"

// HeadlessFiles is a FileListView that only keeps state. It backs sections
// driven from the command line.
type HeadlessFiles struct {
	ProjectID  string
	Section    string
	Username   string
	Token      string
	Visible    bool
	Count      int
	IDs        []int64
	Worker     Worker
	CardInfo   CardInfo
	Algorithms []string
	Sections   []string
	Filter     MediaFilter
}

func (f *HeadlessFiles) SetProjectID(id string)            { f.ProjectID = id }
func (f *HeadlessFiles) SetSection(label string)           { f.Section = label }
func (f *HeadlessFiles) SetUsername(username string)       { f.Username = username }
func (f *HeadlessFiles) SetToken(token string)             { f.Token = token }
func (f *HeadlessFiles) SetMediaFilter(filter MediaFilter) { f.Filter = filter }
func (f *HeadlessFiles) SetVisible(visible bool)           { f.Visible = visible }
func (f *HeadlessFiles) MediaCount() int                   { return f.Count }
func (f *HeadlessFiles) SetMediaCount(n int)               { f.Count = n }
func (f *HeadlessFiles) SetMediaIDs(ids []int64)           { f.IDs = ids }
func (f *HeadlessFiles) SetWorker(w Worker)                { f.Worker = w }
func (f *HeadlessFiles) SetCardInfo(info CardInfo)         { f.CardInfo = info }
func (f *HeadlessFiles) SetAlgorithms(names []string)      { f.Algorithms = names }
func (f *HeadlessFiles) SetSections(names []string)        { f.Sections = names }

// HeadlessOverview is an OverviewView that records the last focused media.
type HeadlessOverview struct {
	mu      sync.Mutex
	focused *Media
	visible bool
	filter  MediaFilter
}

func (o *HeadlessOverview) SetProjectID(string)               {}
func (o *HeadlessOverview) SetMediaFilter(filter MediaFilter) { o.filter = filter }

func (o *HeadlessOverview) SetVisible(visible bool) {
	o.mu.Lock()
	o.visible = visible
	o.mu.Unlock()
}

func (o *HeadlessOverview) UpdateForMedia(m Media) {
	o.mu.Lock()
	o.focused = &m
	o.mu.Unlock()
}

func (o *HeadlessOverview) UpdateForAll() { o.UpdateForAllSoft() }

func (o *HeadlessOverview) UpdateForAllSoft() {
	o.mu.Lock()
	o.focused = nil
	o.mu.Unlock()
}

// Focused returns the media in focus, or nil for the aggregate display.
func (o *HeadlessOverview) Focused() *Media {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.focused
}

// HeadlessHeader is a Header with no input surface.
type HeadlessHeader struct {
	Label   string
	Count   string
	editing bool
}

func (h *HeadlessHeader) SetLabel(label string)    { h.Label = label }
func (h *HeadlessHeader) SetCountText(text string) { h.Count = text }
func (h *HeadlessHeader) Editing() bool            { return h.editing }
func (h *HeadlessHeader) BeginEdit(string)         { h.editing = true }

func (h *HeadlessHeader) EndEdit(label string) {
	h.editing = false
	h.Label = label
}
