package flight

import (
	"context"
	"errors"
	"testing"
	"time"
)

// waitPending blocks until the queue's pending slot holds key.
func waitPending(t *testing.T, q *Queue, key string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		q.mu.Lock()
		p := q.pending
		q.mu.Unlock()
		if p != nil && p.key == key {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("pending slot never held %q", key)
}

func TestQueue_SingleRequestCompletes(t *testing.T) {
	var ran []string
	q := NewQueue(func(ctx context.Context, key string) error {
		ran = append(ran, key)
		return nil
	})

	res := q.Request(context.Background(), "A")
	if res.Status != StatusCompleted {
		t.Fatalf("expected completed, got %v (%v)", res.Status, res.Err)
	}
	if len(ran) != 1 || ran[0] != "A" {
		t.Fatalf("expected run of A, got %v", ran)
	}
}

func TestQueue_RunErrorFails(t *testing.T) {
	boom := errors.New("boom")
	q := NewQueue(func(ctx context.Context, key string) error {
		return boom
	})

	res := q.Request(context.Background(), "A")
	if res.Status != StatusFailed {
		t.Fatalf("expected failed, got %v", res.Status)
	}
	if !errors.Is(res.Err, boom) {
		t.Fatalf("expected wrapped run error, got %v", res.Err)
	}
}

func TestQueue_SupersededSentinel(t *testing.T) {
	q := NewQueue(func(ctx context.Context, key string) error {
		return ErrSuperseded
	})

	res := q.Request(context.Background(), "A")
	if res.Status != StatusSuperseded {
		t.Fatalf("expected superseded, got %v", res.Status)
	}
}

func TestQueue_PreemptionContract(t *testing.T) {
	started := make(chan string, 8)
	release := make(chan struct{})
	q := NewQueue(func(ctx context.Context, key string) error {
		started <- key
		<-release
		return nil
	})

	resA := make(chan Result, 1)
	go func() { resA <- q.Request(context.Background(), "A") }()
	if key := <-started; key != "A" {
		t.Fatalf("expected A to start first, got %q", key)
	}

	resB := make(chan Result, 1)
	go func() { resB <- q.Request(context.Background(), "B") }()
	waitPending(t, q, "B")

	resC := make(chan Result, 1)
	go func() { resC <- q.Request(context.Background(), "C") }()
	waitPending(t, q, "C")

	// B must resolve superseded promptly, while A is still running.
	select {
	case res := <-resB:
		if res.Status != StatusSuperseded {
			t.Fatalf("expected B superseded, got %v", res.Status)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("B did not resolve promptly after being displaced")
	}

	// Let A finish; C runs next (release is closed, so it returns at once).
	close(release)

	select {
	case res := <-resA:
		if res.Status != StatusCompleted {
			t.Fatalf("expected A completed, got %v (%v)", res.Status, res.Err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("A did not complete")
	}
	select {
	case res := <-resC:
		if res.Status != StatusCompleted {
			t.Fatalf("expected C completed, got %v (%v)", res.Status, res.Err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("C did not complete")
	}

	// C ran after A; B never got a turn.
	if key := <-started; key != "C" {
		t.Fatalf("expected C to run after A, got %q", key)
	}
	select {
	case key := <-started:
		t.Fatalf("unexpected extra run %q", key)
	default:
	}

	// Queue returns to idle: a fresh request runs immediately.
	res := q.Request(context.Background(), "D")
	if res.Status != StatusCompleted {
		t.Fatalf("expected D completed, got %v", res.Status)
	}
	if key := <-started; key != "D" {
		t.Fatalf("expected D run, got %q", key)
	}
}

func TestQueue_ContextExpiryWhilePending(t *testing.T) {
	started := make(chan string, 2)
	release := make(chan struct{})
	q := NewQueue(func(ctx context.Context, key string) error {
		started <- key
		<-release
		return nil
	})

	resA := make(chan Result, 1)
	go func() { resA <- q.Request(context.Background(), "A") }()
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	resB := make(chan Result, 1)
	go func() { resB <- q.Request(ctx, "B") }()
	waitPending(t, q, "B")
	cancel()

	select {
	case res := <-resB:
		if res.Status != StatusFailed {
			t.Fatalf("expected failed on context expiry, got %v", res.Status)
		}
		if !errors.Is(res.Err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", res.Err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("B did not resolve after context expiry")
	}

	close(release)
	if res := <-resA; res.Status != StatusCompleted {
		t.Fatalf("expected A completed, got %v", res.Status)
	}

	// The withdrawn request does not burn a turn: B never runs.
	select {
	case key := <-started:
		t.Fatalf("unexpected run %q for a withdrawn request", key)
	case <-time.After(50 * time.Millisecond):
	}

	// The queue is idle again.
	if res := q.Request(context.Background(), "C"); res.Status != StatusCompleted {
		t.Fatalf("expected C completed, got %v", res.Status)
	}
}
