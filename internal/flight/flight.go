// Package flight implements a single-flight task queue with preemption:
// at most one run is active, at most one request waits behind it, and a
// waiting request is resolved as superseded the moment a newer one replaces
// it.
package flight

import (
	"context"
	"errors"
	"sync"
)

// ErrSuperseded may be returned by a run function to report that its result
// was discarded because a newer request arrived while it was executing. The
// queue maps it to StatusSuperseded instead of StatusFailed.
var ErrSuperseded = errors.New("superseded by a newer request")

// Status describes the outcome of a single Request call.
type Status int

const (
	// StatusCompleted means the run for this call's key executed and its
	// result was honored.
	StatusCompleted Status = iota
	// StatusSuperseded means this call was replaced by a newer request and
	// never took (or lost) its turn.
	StatusSuperseded
	// StatusFailed means the run for this call's key executed and failed.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusCompleted:
		return "completed"
	case StatusSuperseded:
		return "superseded"
	case StatusFailed:
		return "failed"
	}
	return "unknown"
}

// Result describes the outcome of one Request call.
type Result struct {
	Status Status
	Err    error
}

// Func runs the unit of work for a key. An in-progress run is never aborted
// mid-flight; preemption only discards its consequences.
type Func func(ctx context.Context, key string) error

// Queue is the single-flight machine: Idle or Running, plus one pending
// slot. Request in Idle starts a run immediately; Request while Running
// overwrites the pending slot, resolving the displaced waiter as superseded
// right away. When the active run finishes, the pending key (if any) runs
// next.
type Queue struct {
	run Func

	mu      sync.Mutex
	active  bool
	pending *waiter
}

type waiter struct {
	ctx context.Context
	key string
	ch  chan Result
}

// NewQueue creates a queue that executes run for each honored key.
func NewQueue(run Func) *Queue {
	return &Queue{run: run}
}

// Request asks the queue to run its function for key and blocks until this
// call's outcome is known: completed or failed once a run for key finishes,
// or superseded as soon as a newer request displaces it. If ctx expires
// while waiting in the pending slot, the request is withdrawn and the call
// returns a failed result; a run already executing is unaffected.
func (q *Queue) Request(ctx context.Context, key string) Result {
	q.mu.Lock()
	if q.active {
		w := &waiter{ctx: ctx, key: key, ch: make(chan Result, 1)}
		if prev := q.pending; prev != nil {
			prev.ch <- Result{Status: StatusSuperseded}
		}
		q.pending = w
		q.mu.Unlock()

		select {
		case res := <-w.ch:
			return res
		case <-ctx.Done():
			// Vacate the pending slot so a run is not started for a caller
			// that already left. If the slot was already taken over or
			// displaced, the buffered channel absorbs the unread result.
			q.mu.Lock()
			if q.pending == w {
				q.pending = nil
			}
			q.mu.Unlock()
			return Result{Status: StatusFailed, Err: ctx.Err()}
		}
	}
	q.active = true
	q.mu.Unlock()

	return q.execute(ctx, key)
}

// execute runs key to completion, then hands the queue over to the pending
// waiter if one accumulated meanwhile.
func (q *Queue) execute(ctx context.Context, key string) Result {
	err := q.run(ctx, key)

	q.mu.Lock()
	next := q.pending
	q.pending = nil
	if next == nil {
		q.active = false
	}
	q.mu.Unlock()

	if next != nil {
		go func() {
			next.ch <- q.execute(next.ctx, next.key)
		}()
	}

	switch {
	case err == nil:
		return Result{Status: StatusCompleted}
	case errors.Is(err, ErrSuperseded):
		return Result{Status: StatusSuperseded, Err: err}
	default:
		return Result{Status: StatusFailed, Err: err}
	}
}
