package internal

import "sync"

// Scheduler serialises the work on one host: render passes and, last, its
// disposal.
type Scheduler struct {
	mu sync.Mutex

	// incremented each time a pass completes without error
	clock int

	// set while a pass is running; work requested meanwhile is deferred
	running bool

	// the latest pass requested while running
	pending func() error

	// requested by Finish while running; drops the pending pass
	final func()
}

func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Schedule runs pass(fn). If a pass is already running, fn replaces any
// pending function and runs right after the current pass, on the goroutine
// running it; Schedule then returns nil without waiting.
// The returned error is the one of the caller's own pass.
func (s *Scheduler) Schedule(fn func() error, pass func(func() error) error) error {
	job := func() error { return pass(fn) }

	if !s.acquire(job, nil) {
		return nil
	}

	var err error
	s.exclusive(func() { err = s.tick(job) })

	return err
}

// Finish runs fn once no pass is running. If one is, fn runs right after it
// on the goroutine running it, and any pending pass is dropped. Finish never
// waits for another goroutine.
func (s *Scheduler) Finish(fn func()) {
	if !s.acquire(nil, fn) {
		return
	}

	s.exclusive(fn)
}

func (s *Scheduler) acquire(job func() error, final func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		s.running = true
		return true
	}

	if job != nil {
		s.pending = job
	}
	if final != nil {
		s.final = final
	}

	return false
}

// exclusive runs first, then the work deferred meanwhile, and releases the
// scheduler once nothing is left.
func (s *Scheduler) exclusive(first func()) {
	released := false
	defer func() {
		if released {
			return
		}

		// a panicking pass still lets a requested Finish run
		s.mu.Lock()
		final := s.final
		s.pending, s.final = nil, nil
		s.mu.Unlock()

		if final != nil {
			final()
		}

		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	first()

	for {
		s.mu.Lock()
		job, final := s.pending, s.final
		s.pending, s.final = nil, nil
		if job == nil && final == nil {
			s.running = false
			released = true
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		if final != nil {
			final()
			continue
		}

		s.tick(job)
	}
}

func (s *Scheduler) tick(job func() error) error {
	err := job()
	if err == nil {
		s.mu.Lock()
		s.clock++
		s.mu.Unlock()
	}

	return err
}

func (s *Scheduler) Time() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.clock
}

func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.running
}
