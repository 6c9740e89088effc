// Package subject provides Subject, a multicast stream that values can be
// pushed into and subscribed to, and a few operators to derive subjects
// from one another. Operators close their output once their source is closed.
package subject

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/petermattis/goid"
)

// Subject distributes every pushed value to its current subscribers.
// It is safe for concurrent use.
type Subject[T any] struct {
	mu sync.RWMutex

	observers []*observer[T]
	closed    bool

	// run once by Close
	onClose []func()
}

type observer[T any] struct {
	sub *Subscription
	fn  func(T)
}

func New[T any]() *Subject[T] {
	return &Subject[T]{}
}

// Push delivers v synchronously to a snapshot of the current subscribers,
// in subscription order. Pushing into a closed subject does nothing.
func (s *Subject[T]) Push(v T) {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return
	}
	// cloning so subscribers can unsubscribe during delivery
	observers := slices.Clone(s.observers)
	s.mu.RUnlock()

	for _, o := range observers {
		o.sub.deliver(func() { o.fn(v) })
	}
}

// Subscribe registers fn for every value pushed from now on.
// Subscribing to a closed subject returns an already closed subscription.
func (s *Subject[T]) Subscribe(fn func(T)) *Subscription {
	o := &observer[T]{sub: &Subscription{}, fn: fn}
	o.sub.detach = func() { s.remove(o) }

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		o.sub.closed.Store(true)
		return o.sub
	}

	s.observers = append(s.observers, o)
	return o.sub
}

// Unsubscribe is sub.Unsubscribe, spelled from the subject's side.
func (s *Subject[T]) Unsubscribe(sub *Subscription) {
	if sub != nil {
		sub.Unsubscribe()
	}
}

// Close drops every subscriber and runs the OnClose callbacks. Further
// pushes are ignored. Calling it again does nothing.
func (s *Subject[T]) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	observers := s.observers
	s.observers = nil
	onClose := s.onClose
	s.onClose = nil
	s.mu.Unlock()

	for _, o := range observers {
		o.sub.closed.Store(true)
	}

	for _, fn := range onClose {
		fn()
	}
}

// OnClose registers fn to run once when the subject is closed.
// On an already closed subject fn runs immediately.
func (s *Subject[T]) OnClose(fn func()) {
	s.mu.Lock()
	if !s.closed {
		s.onClose = append(s.onClose, fn)
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	fn()
}

func (s *Subject[T]) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.closed
}

// Len returns the number of live subscriptions.
func (s *Subject[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.observers)
}

func (s *Subject[T]) remove(o *observer[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := slices.Index(s.observers, o); i != -1 {
		s.observers = slices.Delete(s.observers, i, i+1)
	}
}

// Subscription is the handle returned by Subject.Subscribe.
//
// Deliveries to one subscription never overlap. Once Unsubscribe returns, no
// new delivery starts. A delivery already running on another goroutine is not
// waited for.
type Subscription struct {
	mu sync.Mutex

	closed atomic.Bool

	// goroutine running the callback, 0 when idle
	gid atomic.Int64

	detach func()
}

func (s *Subscription) deliver(fn func()) {
	if s.closed.Load() {
		return
	}

	// re-entrant push from inside the callback
	if s.gid.Load() == goid.Get() {
		fn()
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed.Load() {
		return
	}

	s.gid.Store(goid.Get())
	defer s.gid.Store(0)

	fn()
}

// Unsubscribe stops deliveries without blocking. Calling it again does
// nothing.
func (s *Subscription) Unsubscribe() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}

	if s.detach != nil {
		s.detach()
	}
}

func (s *Subscription) Closed() bool {
	return s.closed.Load()
}
