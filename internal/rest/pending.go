package rest

import (
	"context"
	"encoding/json"
	"net/http"
)

// Response is the outcome of a request that reached the server.
type Response struct {
	StatusCode int
	Body       json.RawMessage
	// Data is the body decoded as JSON, nil when empty or malformed.
	Data any
	// ParseErr is set when the body was not valid JSON.
	ParseErr error
}

func (r *Response) Created() bool { return r != nil && r.StatusCode == http.StatusCreated }

func (r *Response) OK() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// Pending is the result of a request issued in the background.
type Pending struct {
	done chan struct{}
	resp *Response
	err  error
}

func newPending() *Pending {
	return &Pending{done: make(chan struct{})}
}

// Resolved returns a Pending that has already completed.
func Resolved(resp *Response, err error) *Pending {
	p := newPending()
	p.resolve(resp, err)
	return p
}

func (p *Pending) resolve(resp *Response, err error) {
	p.resp, p.err = resp, err
	close(p.done)
}

// Done is closed once the request completed.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Result returns the outcome. It must only be called after Done is closed.
func (p *Pending) Result() (*Response, error) { return p.resp, p.err }

// Wait blocks until the request completes or ctx ends. Cancelling ctx does not
// cancel the request.
func (p *Pending) Wait(ctx context.Context) (*Response, error) {
	select {
	case <-p.done:
		return p.resp, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
