// Package observable provides a minimal subscribe/notify state holder.
package observable

import "sync"

// Value holds a current value that may be unset, and notifies subscribers
// synchronously on every change. The zero Value is unset and ready to use.
type Value[T any] struct {
	mu     sync.Mutex
	val    T
	ok     bool
	subs   map[int]func(T, bool)
	nextID int
}

// Get returns the current value and whether it is set.
func (v *Value[T]) Get() (T, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.val, v.ok
}

// Set stores val and notifies subscribers.
func (v *Value[T]) Set(val T) {
	v.mu.Lock()
	v.val = val
	v.ok = true
	subs := v.snapshotSubs()
	v.mu.Unlock()

	for _, fn := range subs {
		fn(val, true)
	}
}

// Clear unsets the value and notifies subscribers with the zero value.
func (v *Value[T]) Clear() {
	v.mu.Lock()
	var zero T
	v.val = zero
	v.ok = false
	subs := v.snapshotSubs()
	v.mu.Unlock()

	for _, fn := range subs {
		fn(zero, false)
	}
}

// Subscribe registers fn to be called on every Set/Clear. It returns an
// unsubscribe function. Callbacks run on the mutating goroutine, outside the
// holder's lock.
func (v *Value[T]) Subscribe(fn func(val T, ok bool)) func() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.subs == nil {
		v.subs = make(map[int]func(T, bool))
	}
	id := v.nextID
	v.nextID++
	v.subs[id] = fn
	return func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		delete(v.subs, id)
	}
}

func (v *Value[T]) snapshotSubs() []func(T, bool) {
	out := make([]func(T, bool), 0, len(v.subs))
	for _, fn := range v.subs {
		out = append(out, fn)
	}
	return out
}
