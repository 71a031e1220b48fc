// Package viewstate models the outcome of loading a page: loading, failed or
// loaded. Views hand out tickets so that a load finishing after the view was
// left or reloaded cannot overwrite newer state.
package viewstate

import (
	"context"
	"encoding/json"
	"sync"
)

// Status is the tag of a State.
type Status string

// State tags.
const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusFailed  Status = "failed"
	StatusLoaded  Status = "loaded"
)

// Reason classifies a failed state.
type Reason string

// Failure reasons.
const (
	ReasonUpstream     Reason = "upstream"
	ReasonNotFound     Reason = "not_found"
	ReasonInvalidInput Reason = "invalid_input"
	ReasonCanceled     Reason = "canceled"
)

// State is a tagged union of the page outcomes. The zero value is idle.
type State[T any] struct {
	status  Status
	data    T
	reason  Reason
	message string
}

// Loading returns the in-flight state.
func Loading[T any]() State[T] {
	return State[T]{status: StatusLoading}
}

// Loaded returns a state holding data.
func Loaded[T any](data T) State[T] {
	return State[T]{status: StatusLoaded, data: data}
}

// Failed returns a failed state with a human-readable message.
func Failed[T any](reason Reason, message string) State[T] {
	return State[T]{status: StatusFailed, reason: reason, message: message}
}

// Classifier turns an error into a failure reason and a message for users.
type Classifier func(err error) (Reason, string)

// From builds the state for the result of a load.
func From[T any](data T, err error, classify Classifier) State[T] {
	if err == nil {
		return Loaded(data)
	}
	reason, msg := classify(err)
	return Failed[T](reason, msg)
}

// Status returns the tag.
func (s State[T]) Status() Status {
	if s.status == "" {
		return StatusIdle
	}
	return s.status
}

// Data returns the loaded data.
func (s State[T]) Data() (T, bool) {
	return s.data, s.status == StatusLoaded
}

// Failure returns the reason and message of a failed state.
func (s State[T]) Failure() (Reason, string, bool) {
	return s.reason, s.message, s.status == StatusFailed
}

type envelope struct {
	State   Status `json:"state"`
	Data    any    `json:"data,omitempty"`
	Reason  Reason `json:"reason,omitempty"`
	Message string `json:"message,omitempty"`
}

// MarshalJSON writes {"state": ..., "data": ...} or
// {"state": "failed", "reason": ..., "message": ...}.
func (s State[T]) MarshalJSON() ([]byte, error) {
	e := envelope{State: s.Status()}
	switch e.State {
	case StatusLoaded:
		e.Data = s.data
	case StatusFailed:
		e.Reason = s.reason
		e.Message = s.message
	}
	return json.Marshal(e)
}

// Ticket identifies one load started on a View.
type Ticket struct {
	gen uint64
}

// View owns the state of one page.
type View[T any] struct {
	mu    sync.Mutex
	gen   uint64
	state State[T]
}

// Begin marks the view loading and returns the ticket of the new load.
// Outstanding tickets become stale.
func (v *View[T]) Begin() Ticket {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.gen++
	v.state = Loading[T]()
	return Ticket{gen: v.gen}
}

// Finish applies s if t is still the current ticket and reports whether it did.
func (v *View[T]) Finish(t Ticket, s State[T]) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if t.gen != v.gen {
		return false
	}
	v.state = s
	return true
}

// Discard leaves the view: pending loads are ignored and the view is idle.
func (v *View[T]) Discard() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.gen++
	v.state = State[T]{}
}

// State returns the current state.
func (v *View[T]) State() State[T] {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Loader fetches the data of a page.
type Loader[T any] func(ctx context.Context) (T, error)

// Page couples a View with its loader so a failed load can be retried.
type Page[T any] struct {
	view     View[T]
	classify Classifier

	mu   sync.Mutex
	last Loader[T]
}

// NewPage returns an idle page that classifies errors with classify.
func NewPage[T any](classify Classifier) *Page[T] {
	return &Page[T]{classify: classify}
}

// Load runs load and returns the resulting page state. If the page was
// reloaded or left meanwhile, the newer state is returned instead.
func (p *Page[T]) Load(ctx context.Context, load Loader[T]) State[T] {
	p.mu.Lock()
	p.last = load
	p.mu.Unlock()

	t := p.view.Begin()
	data, err := load(ctx)
	p.view.Finish(t, From(data, err, p.classify))
	return p.view.State()
}

// Retry re-runs the last loader. An idle page that never loaded stays idle.
func (p *Page[T]) Retry(ctx context.Context) State[T] {
	p.mu.Lock()
	last := p.last
	p.mu.Unlock()
	if last == nil {
		return p.view.State()
	}
	return p.Load(ctx, last)
}

// Leave discards pending loads and resets the page to idle.
func (p *Page[T]) Leave() {
	p.view.Discard()
}

// State returns the current page state.
func (p *Page[T]) State() State[T] {
	return p.view.State()
}
