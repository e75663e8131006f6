package worker

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"github.com/rs/zerolog"

	"github.com/nicobailon/mediasection/internal/section"
)

const (
	DefaultCacheSize = 128
	inboxSize        = 64
)

var ErrStopped = errors.New("worker: stopped")

// CacheSection stores the media ids of a section.
type CacheSection struct {
	Name     string  `json:"name"`
	MediaIDs []int64 `json:"mediaIds"`
}

func (CacheSection) Command() string { return "cacheSection" }

// DropSection forgets a section.
type DropSection struct {
	Name string `json:"name"`
}

func (DropSection) Command() string { return "dropSection" }

type lookup struct {
	name  string
	reply chan lookupResult
}

func (lookup) Command() string { return "lookup" }

type lookupResult struct {
	ids []int64
	ok  bool
}

// Worker is the shared background collaborator holding the section cache.
// It is only ever addressed through messages.
type Worker struct {
	cache *lru.Cache
	log   zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	inbox chan section.WorkerMessage
	wg    sync.WaitGroup
}

// New starts a worker whose cache holds up to size sections.
func New(size int, log zerolog.Logger) (*Worker, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("create section cache: %w", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	w := &Worker{
		cache:  cache,
		log:    log,
		ctx:    ctx,
		cancel: cancel,
		inbox:  make(chan section.WorkerMessage, inboxSize),
	}
	w.wg.Add(1)
	go w.run()
	return w, nil
}

// Post queues msg. It does not wait for the message to be handled and drops
// it once the worker is stopped. Media ids are copied before queueing.
func (w *Worker) Post(msg section.WorkerMessage) {
	if c, ok := msg.(CacheSection); ok {
		c.MediaIDs = slices.Clone(c.MediaIDs)
		msg = c
	}
	select {
	case w.inbox <- msg:
	case <-w.ctx.Done():
		w.log.Debug().Str("command", msg.Command()).Msg("worker stopped, message dropped")
	}
}

// Lookup returns the cached media ids of a section. Messages posted before
// the lookup are handled first.
func (w *Worker) Lookup(ctx context.Context, name string) ([]int64, bool, error) {
	reply := make(chan lookupResult, 1)
	select {
	case w.inbox <- lookup{name: name, reply: reply}:
	case <-w.ctx.Done():
		return nil, false, ErrStopped
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
	select {
	case res := <-reply:
		return res.ids, res.ok, nil
	case <-w.ctx.Done():
		return nil, false, ErrStopped
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

// Len returns the number of cached sections.
func (w *Worker) Len() int { return w.cache.Len() }

// Stop cancels the worker. Queued messages are discarded.
func (w *Worker) Stop() { w.cancel() }

// Wait blocks until the worker goroutine has exited.
func (w *Worker) Wait() { w.wg.Wait() }

func (w *Worker) run() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case msg := <-w.inbox:
			w.handle(msg)
		}
	}
}

func (w *Worker) handle(msg section.WorkerMessage) {
	switch m := msg.(type) {
	case section.RenameSection:
		w.rename(m.FromName, m.ToName)
	case CacheSection:
		w.cache.Add(m.Name, m.MediaIDs)
		w.log.Debug().Str("section", m.Name).Int("media", len(m.MediaIDs)).Msg("section cached")
	case DropSection:
		w.cache.Remove(m.Name)
	case lookup:
		var res lookupResult
		if v, ok := w.cache.Get(m.name); ok {
			res = lookupResult{ids: append([]int64(nil), v.([]int64)...), ok: true}
		}
		m.reply <- res
	default:
		w.log.Warn().Str("command", msg.Command()).Msg("unknown worker command")
	}
}

func (w *Worker) rename(from, to string) {
	v, ok := w.cache.Peek(from)
	if !ok {
		w.log.Debug().Str("from", from).Str("to", to).Msg("rename of uncached section")
		return
	}
	w.cache.Remove(from)
	w.cache.Add(to, v)
	w.log.Debug().Str("from", from).Str("to", to).Msg("section renamed")
}
