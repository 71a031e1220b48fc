// Package fanout runs batches of independent fetches and joins them.
//
// Every task writes only its own slot of the outcome slice, so callers need
// no locking. Run returns only after every started task has finished.
package fanout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Policy decides what a failed task does to the rest of the batch.
type Policy int

const (
	// FailFast cancels the remaining tasks and fails the batch on the first error.
	FailFast Policy = iota
	// CollectAll lets every task finish and reports errors per slot.
	CollectAll
)

// String returns the configuration name of the policy.
func (p Policy) String() string {
	switch p {
	case FailFast:
		return "fail_fast"
	case CollectAll:
		return "collect_all"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ErrUnknownPolicy is returned by ParsePolicy for unrecognised names.
var ErrUnknownPolicy = errors.New("unknown fan-out policy")

// ParsePolicy maps a configuration name to a Policy.
func ParsePolicy(name string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "fail_fast", "fail-fast", "failfast":
		return FailFast, nil
	case "collect_all", "collect-all", "partial":
		return CollectAll, nil
	default:
		return FailFast, fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
	}
}

// Outcome is the result of one task.
type Outcome[T any] struct {
	Value T
	Err   error
}

// Task fetches the i-th item of a batch.
type Task[T any] func(ctx context.Context, i int) (T, error)

type settings struct {
	policy Policy
	limit  int
}

// Option configures a Run call.
type Option func(*settings)

// WithPolicy sets the failure policy. The default is FailFast.
func WithPolicy(p Policy) Option {
	return func(s *settings) {
		s.policy = p
	}
}

// WithLimit caps how many tasks run at once. Zero or less means no cap.
func WithLimit(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.limit = n
		}
	}
}

// Run issues n tasks and waits for all of them.
//
// Under FailFast the first error cancels the context passed to the other tasks
// and is returned. Under CollectAll the error is nil unless ctx itself ends;
// per-task errors are in the outcomes.
func Run[T any](ctx context.Context, n int, task Task[T], opts ...Option) ([]Outcome[T], error) {
	cfg := settings{policy: FailFast}
	for _, opt := range opts {
		opt(&cfg)
	}

	out := make([]Outcome[T], n)
	if n == 0 {
		return out, ctx.Err()
	}

	var (
		g    *errgroup.Group
		gctx = ctx
	)
	if cfg.policy == FailFast {
		g, gctx = errgroup.WithContext(ctx)
	} else {
		g = new(errgroup.Group)
	}
	if cfg.limit > 0 {
		g.SetLimit(cfg.limit)
	}

	for i := 0; i < n; i++ {
		if cfg.policy == FailFast && gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			v, err := task(gctx, i)
			out[i] = Outcome[T]{Value: v, Err: err}
			if cfg.policy == FailFast {
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return out, err
	}
	return out, ctx.Err()
}

// Failed counts the slots whose task returned an error.
func Failed[T any](outcomes []Outcome[T]) int {
	n := 0
	for _, o := range outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}

// Pair runs two required fetches concurrently and fails on the first error.
func Pair(ctx context.Context, first, second func(ctx context.Context) error) error {
	_, err := Run(ctx, 2, func(ctx context.Context, i int) (struct{}, error) {
		if i == 0 {
			return struct{}{}, first(ctx)
		}
		return struct{}{}, second(ctx)
	})
	return err
}
