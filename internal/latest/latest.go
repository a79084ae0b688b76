// Package latest runs debounced, cancelable requests where only the most
// recent one may deliver a result.
//
// A Runner moves through Idle -> Scheduled -> InFlight -> {Idle, Resolved}.
// Scheduling or starting a request while another one is scheduled or in
// flight cancels the older one; its result, if it still arrives, is dropped.
package latest

import (
	"context"
	"errors"
	"sync"
	"time"
)

type State int

const (
	Idle State = iota
	Scheduled
	InFlight
	Resolved
)

func (s State) String() string {
	switch s {
	case Scheduled:
		return "scheduled"
	case InFlight:
		return "in_flight"
	case Resolved:
		return "resolved"
	default:
		return "idle"
	}
}

// ErrSuperseded is returned by Do when a newer request replaced the call.
var ErrSuperseded = errors.New("latest: superseded")

type Runner[T any] struct {
	delay time.Duration

	mu     sync.Mutex
	gen    uint64
	state  State
	timer  *time.Timer
	cancel context.CancelFunc
}

// New returns a Runner that waits delay before starting scheduled work.
// A zero delay starts scheduled work immediately.
func New[T any](delay time.Duration) *Runner[T] {
	return &Runner[T]{delay: delay}
}

func (r *Runner[T]) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Cancel drops any scheduled or in-flight request and returns to Idle.
func (r *Runner[T]) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.supersede()
	r.state = Idle
}

// Schedule runs fetch after the quiet period unless another call to
// Schedule, Do or Cancel comes first. deliver runs with the runner lock held
// and only if the request is still the latest one; it must not call back
// into the Runner.
func (r *Runner[T]) Schedule(parent context.Context, fetch func(context.Context) (T, error), deliver func(T)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	gen := r.supersede()
	r.state = Scheduled
	fire := func() { r.run(parent, gen, fetch, deliver) }
	if r.delay <= 0 {
		go fire()
		return
	}
	r.timer = time.AfterFunc(r.delay, fire)
}

// Do starts fetch immediately, canceling whatever was pending.
func (r *Runner[T]) Do(ctx context.Context, fetch func(context.Context) (T, error)) (T, error) {
	var out T
	err := r.start(ctx, r.next(), fetch, func(v T) { out = v })
	return out, err
}

func (r *Runner[T]) next() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.supersede()
}

func (r *Runner[T]) run(parent context.Context, gen uint64, fetch func(context.Context) (T, error), deliver func(T)) {
	_ = r.start(parent, gen, fetch, deliver)
}

func (r *Runner[T]) start(parent context.Context, gen uint64, fetch func(context.Context) (T, error), deliver func(T)) error {
	r.mu.Lock()
	if gen != r.gen {
		r.mu.Unlock()
		return ErrSuperseded
	}
	ctx, cancel := context.WithCancel(parent)
	r.timer = nil
	r.cancel = cancel
	r.state = InFlight
	r.mu.Unlock()

	v, err := fetch(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	cancel()
	if gen != r.gen {
		return ErrSuperseded
	}
	r.cancel = nil
	if err != nil {
		r.state = Idle
		return err
	}
	r.state = Resolved
	deliver(v)
	return nil
}

// supersede must be called with mu held.
func (r *Runner[T]) supersede() uint64 {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.gen++
	return r.gen
}
