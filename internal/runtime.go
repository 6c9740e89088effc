package internal

import "errors"

var (
	ErrHookOrder = errors.New("reactor: hook order changed between passes")
	ErrPanicked  = errors.New("reactor: render pass panicked")
)

// Runtime is the per-goroutine reactive state: which owner is rendering.
type Runtime struct {
	tracker *Tracker
}

func NewRuntime() *Runtime {
	return &Runtime{
		tracker: NewTracker(),
	}
}

func (r *Runtime) CurrentOwner() *Owner {
	return r.tracker.CurrentOwner()
}

// CurrentOwner returns the owner rendering on the calling goroutine, or nil.
func CurrentOwner() *Owner {
	r := LookupRuntime()
	if r == nil {
		return nil
	}

	return r.CurrentOwner()
}
