package section

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/nicobailon/mediasection/internal/rest"
)

var ErrNotReady = errors.New("section: project id and name must both be set")

const (
	ActionLaunchAlgorithm = "launch algorithm"
	ActionCreatePackage   = "create package"
	ActionRenamePatch     = "rename section"

	msgAlgorithmLaunched = "Algorithm launched!"
	msgAlgorithmFailed   = "Error launching algorithm!"
	msgCreatingPackage   = "Creating zip file!"
	msgPackageFailed     = "Error creating zip file!"

	errorBuffer = 16
)

// API is the subset of the REST client used by a section.
type API interface {
	LaunchAlgorithm(ctx context.Context, projectID string, req rest.AlgorithmLaunch) *rest.Pending
	CreatePackage(ctx context.Context, projectID string, req rest.PackageCreate) *rest.Pending
	PatchMedias(ctx context.Context, projectID, query string, req rest.AttributePatch) *rest.Pending
}

// DownloadFailurePolicy decides whether a failed package request is shown to
// the user. Failures are logged and sent on the error channel either way.
type DownloadFailurePolicy int

const (
	DownloadFailureSilent DownloadFailurePolicy = iota
	DownloadFailureNotify
)

// ActionError reports a failed network action.
type ActionError struct {
	Action     string
	StatusCode int
	Err        error
}

func (e *ActionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Action, e.Err)
	}
	return fmt.Sprintf("%s: status %d", e.Action, e.StatusCode)
}

func (e *ActionError) Unwrap() error { return e.Err }

// target is the section state an action is issued against.
type target struct {
	projectID string
	label     string
	filter    Filter
}

type dispatcher struct {
	ctx      context.Context
	api      API
	notifier Notifier
	policy   DownloadFailurePolicy
	log      zerolog.Logger

	wired    bool
	errs     chan *ActionError
	inflight sync.WaitGroup
}

func newDispatcher(ctx context.Context, api API, notifier Notifier, policy DownloadFailurePolicy, log zerolog.Logger) *dispatcher {
	return &dispatcher{
		ctx:      ctx,
		api:      api,
		notifier: notifier,
		policy:   policy,
		log:      log,
		errs:     make(chan *ActionError, errorBuffer),
	}
}

// wire enables the action handlers once ready. Calling it again is a no-op.
func (d *dispatcher) wire(ready bool) {
	if ready && !d.wired {
		d.wired = true
		d.log.Debug().Msg("section actions wired")
	}
}

func (d *dispatcher) launchAlgorithm(t target, algorithm string) (*rest.Pending, error) {
	if !d.wired {
		return nil, ErrNotReady
	}
	p := d.api.LaunchAlgorithm(d.ctx, t.projectID, rest.AlgorithmLaunch{
		AlgorithmName: algorithm,
		MediaQuery:    t.filter.Query(),
	})
	d.observe(ActionLaunchAlgorithm, p, func(resp *rest.Response) {
		if resp.Created() {
			d.notifier.Notify(msgAlgorithmLaunched, true)
			return
		}
		d.notifier.Error(msgAlgorithmFailed)
		d.report(&ActionError{Action: ActionLaunchAlgorithm, StatusCode: resp.StatusCode})
	})
	return p, nil
}

func (d *dispatcher) requestDownload(t target, annotations bool) (*rest.Pending, error) {
	if !d.wired {
		return nil, ErrNotReady
	}
	p := d.api.CreatePackage(d.ctx, t.projectID, rest.PackageCreate{
		PackageName:  t.label,
		MediaQuery:   t.filter.Query(),
		UseOriginals: true,
		Annotations:  annotations,
	})
	d.observe(ActionCreatePackage, p, func(resp *rest.Response) {
		if resp.Created() {
			d.notifier.EnableDownloads()
			d.notifier.Notify(msgCreatingPackage, true)
			return
		}
		if d.policy == DownloadFailureNotify {
			d.notifier.Error(msgPackageFailed)
		}
		d.report(&ActionError{Action: ActionCreatePackage, StatusCode: resp.StatusCode})
	})
	return p, nil
}

func (d *dispatcher) requestDelete(t target) (RemoveSection, error) {
	if !d.wired {
		return RemoveSection{}, ErrNotReady
	}
	return RemoveSection{Filter: t.filter, Name: t.label, ProjectID: t.projectID}, nil
}

// patchName writes value to the section attribute of the media matched by
// the target filter. The status is logged but never shown to the user.
func (d *dispatcher) patchName(t target, value any) *rest.Pending {
	p := d.api.PatchMedias(d.ctx, t.projectID, t.filter.Query(), rest.AttributePatch{
		Attributes: map[string]any{AttributeKey: value},
	})
	d.observe(ActionRenamePatch, p, func(resp *rest.Response) {
		if !resp.OK() {
			d.report(&ActionError{Action: ActionRenamePatch, StatusCode: resp.StatusCode})
		}
	})
	return p
}

// observe runs onResponse once p completes with a response. Transport
// failures go to the error channel.
func (d *dispatcher) observe(action string, p *rest.Pending, onResponse func(*rest.Response)) {
	d.inflight.Add(1)
	go func() {
		defer d.inflight.Done()
		<-p.Done()
		resp, err := p.Result()
		if err != nil {
			d.report(&ActionError{Action: action, Err: err})
			return
		}
		ev := d.log.Debug().Str("action", action).Int("status", resp.StatusCode)
		if resp.ParseErr != nil {
			ev = ev.AnErr("parse_error", resp.ParseErr)
		} else {
			ev = ev.Interface("body", resp.Data)
		}
		ev.Msg("action response")
		onResponse(resp)
	}()
}

func (d *dispatcher) report(err *ActionError) {
	d.log.Warn().Err(err).Str("action", err.Action).Int("status", err.StatusCode).Msg("section action failed")
	select {
	case d.errs <- err:
	default:
		d.log.Warn().Str("action", err.Action).Msg("error channel full, dropping")
	}
}

func (d *dispatcher) wait() { d.inflight.Wait() }
