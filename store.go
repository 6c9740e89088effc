package reactor

import (
	"sync"

	"github.com/AnatoleLucet/reactor/internal"
	"github.com/AnatoleLucet/reactor/subject"
)

type Reducer[S, A any] func(state S, action A) S

// Store holds a state updated by a reducer. Its dispatcher is stable for
// the store's lifetime, so a binding fed with it subscribes only once.
type Store[S, A any] struct {
	mu sync.Mutex

	state   S
	reducer Reducer[S, A]

	dispatch *Dispatch[A]
	changes  *subject.Subject[S]
}

func NewStore[S, A any](reducer Reducer[S, A], initial S) *Store[S, A] {
	s := &Store[S, A]{
		state:   initial,
		reducer: reducer,
		changes: subject.New[S](),
	}
	s.dispatch = NewDispatch(s.apply)

	return s
}

func (s *Store[S, A]) State() S {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

func (s *Store[S, A]) Dispatch() *Dispatch[A] {
	return s.dispatch
}

// Changes pushes the new state after every action that changed it.
func (s *Store[S, A]) Changes() *subject.Subject[S] {
	return s.changes
}

func (s *Store[S, A]) apply(action A) {
	s.mu.Lock()
	prev := s.state
	next := s.reducer(prev, action)
	s.state = next
	s.mu.Unlock()

	if internal.IsEqual(prev, next) {
		return
	}

	s.changes.Push(next)
}
