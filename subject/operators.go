package subject

import (
	"context"
	"sync"
	"time"
)

// Map pushes fn(v) for every v pushed into src.
func Map[T, R any](src *Subject[T], fn func(T) R) *Subject[R] {
	out := New[R]()
	src.Subscribe(func(v T) {
		out.Push(fn(v))
	})
	src.OnClose(out.Close)

	return out
}

// Filter forwards the values of src for which keep returns true.
func Filter[T any](src *Subject[T], keep func(T) bool) *Subject[T] {
	out := New[T]()
	src.Subscribe(func(v T) {
		if keep(v) {
			out.Push(v)
		}
	})
	src.OnClose(out.Close)

	return out
}

// DistinctUntilChanged drops values equal to the previous one.
func DistinctUntilChanged[T comparable](src *Subject[T]) *Subject[T] {
	out := New[T]()

	var mu sync.Mutex
	var last T
	seen := false

	src.Subscribe(func(v T) {
		mu.Lock()
		if seen && last == v {
			mu.Unlock()
			return
		}
		last, seen = v, true
		mu.Unlock()

		out.Push(v)
	})
	src.OnClose(out.Close)

	return out
}

// Debounce forwards a value once src stayed quiet for d after it.
// Values are delivered from a timer goroutine. Closing src drops the pending
// value.
func Debounce[T any](src *Subject[T], d time.Duration) *Subject[T] {
	out := New[T]()

	var mu sync.Mutex
	var timer *time.Timer
	var generation uint64

	src.Subscribe(func(v T) {
		mu.Lock()
		defer mu.Unlock()

		generation++
		current := generation

		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(d, func() {
			mu.Lock()
			stale := current != generation
			mu.Unlock()

			if !stale {
				out.Push(v)
			}
		})
	})

	src.OnClose(func() {
		mu.Lock()
		generation++
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()

		out.Close()
	})

	return out
}

// SwitchMap calls project for every value of src and forwards what it emits.
// Starting a new projection cancels ctx of the previous one, and its later
// emits are dropped. Closing src cancels the last projection.
func SwitchMap[T, R any](src *Subject[T], project func(ctx context.Context, v T, emit func(R))) *Subject[R] {
	out := New[R]()

	var mu sync.Mutex
	cancel := context.CancelFunc(func() {})
	closed := false

	src.Subscribe(func(v T) {
		ctx, next := context.WithCancel(context.Background())

		mu.Lock()
		if closed {
			mu.Unlock()
			next()
			return
		}
		cancel()
		cancel = next
		mu.Unlock()

		project(ctx, v, func(r R) {
			if ctx.Err() == nil {
				out.Push(r)
			}
		})
	})

	src.OnClose(func() {
		mu.Lock()
		closed = true
		cancel()
		mu.Unlock()

		out.Close()
	})

	return out
}
