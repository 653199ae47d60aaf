// Package livedata provides a value holder that remembers the last posted
// value and pushes it to observers, including ones that attach later.
package livedata

import (
	"context"
	"sync"
	"sync/atomic"
)

// LiveData holds the latest posted value. The zero value is ready to use.
type LiveData[T any] struct {
	mu         sync.Mutex
	observers  map[*Observer[T]]struct{}
	value      T
	version    int64
	onActive   func()
	onInactive func()
}

// Observer is a registration returned by Observe.
type Observer[T any] struct {
	owner       *LiveData[T]
	fn          func(T)
	lastVersion atomic.Int64
	removed     atomic.Bool

	stopMu sync.Mutex
	stop   func() bool
}

// SetOnActive installs fn to run whenever the observer count goes from 0 to 1.
func (ld *LiveData[T]) SetOnActive(fn func()) {
	ld.mu.Lock()
	ld.onActive = fn
	ld.mu.Unlock()
}

// SetOnInactive installs fn to run whenever the last observer is removed.
func (ld *LiveData[T]) SetOnInactive(fn func()) {
	ld.mu.Lock()
	ld.onInactive = fn
	ld.mu.Unlock()
}

// Observe registers fn and, if a value was already posted, delivers it
// right away. fn may run on any goroutine, including the posting one, and
// is never given the same or an older value twice.
func (ld *LiveData[T]) Observe(fn func(T)) *Observer[T] {
	o := &Observer[T]{owner: ld, fn: fn}

	ld.mu.Lock()
	if ld.observers == nil {
		ld.observers = make(map[*Observer[T]]struct{})
	}
	ld.observers[o] = struct{}{}
	becameActive := len(ld.observers) == 1
	hook := ld.onActive
	version, value := ld.version, ld.value
	ld.mu.Unlock()

	if becameActive && hook != nil {
		hook()
	}
	if version > 0 {
		o.deliver(version, value)
	}
	return o
}

// ObserveContext is Observe bound to ctx: the observer is removed once ctx is done.
func (ld *LiveData[T]) ObserveContext(ctx context.Context, fn func(T)) *Observer[T] {
	o := ld.Observe(fn)
	stop := context.AfterFunc(ctx, o.Remove)

	o.stopMu.Lock()
	o.stop = stop
	o.stopMu.Unlock()
	if o.removed.Load() {
		stop()
	}
	return o
}

// Post stores v and hands it to every current observer. Safe for
// concurrent use.
func (ld *LiveData[T]) Post(v T) {
	ld.mu.Lock()
	ld.version++
	ld.value = v
	version := ld.version
	observers := make([]*Observer[T], 0, len(ld.observers))
	for o := range ld.observers {
		observers = append(observers, o)
	}
	ld.mu.Unlock()

	for _, o := range observers {
		o.deliver(version, v)
	}
}

// Value returns the latest posted value, if any.
func (ld *LiveData[T]) Value() (T, bool) {
	ld.mu.Lock()
	defer ld.mu.Unlock()
	return ld.value, ld.version > 0
}

// Await blocks until a value is available or ctx is done.
func (ld *LiveData[T]) Await(ctx context.Context) (T, error) {
	ch := make(chan T, 1)
	o := ld.Observe(func(v T) {
		select {
		case ch <- v:
		default:
		}
	})
	defer o.Remove()

	select {
	case v := <-ch:
		return v, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func (ld *LiveData[T]) HasObservers() bool {
	ld.mu.Lock()
	defer ld.mu.Unlock()
	return len(ld.observers) > 0
}

// HasActiveObservers reports whether any observer is active. Observers are
// active from Observe until Remove, so this matches HasObservers.
func (ld *LiveData[T]) HasActiveObservers() bool {
	return ld.HasObservers()
}

// Remove detaches the observer. Calling it more than once is a no-op.
func (o *Observer[T]) Remove() {
	if !o.removed.CompareAndSwap(false, true) {
		return
	}

	o.stopMu.Lock()
	if o.stop != nil {
		o.stop()
		o.stop = nil
	}
	o.stopMu.Unlock()

	ld := o.owner
	ld.mu.Lock()
	delete(ld.observers, o)
	becameInactive := len(ld.observers) == 0
	hook := ld.onInactive
	ld.mu.Unlock()

	if becameInactive && hook != nil {
		hook()
	}
}

func (o *Observer[T]) deliver(version int64, v T) {
	for {
		if o.removed.Load() {
			return
		}
		last := o.lastVersion.Load()
		if version <= last {
			return
		}
		if o.lastVersion.CompareAndSwap(last, version) {
			o.fn(v)
			return
		}
	}
}
