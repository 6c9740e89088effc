package internal

import (
	"fmt"
	"iter"
	"sync"
)

// Owner is a host instance. It keeps the hook slots filled during render
// passes, the effects waiting for the commit phase, and the cleanups to run
// when the host goes away.
type Owner struct {
	// cleanup functions to be called when the owner is disposed
	cleanups []func()

	// panic handlers
	catchers []func(any)

	// values visible to this owner and, through Value, to its children
	context map[any]any

	hooks   *Hooks
	effects *EffectQueue

	disposed bool

	// called instead of Dispose when the parent disposes its children
	handoff func()

	// guards the children links, which a child may update from its own goroutine
	mu sync.Mutex

	parent       *Owner
	prevSibling  *Owner
	nextSibling  *Owner
	childrenHead *Owner
}

// NewOwner creates an owner. A non-nil parent adopts it, so disposing the
// parent disposes it too.
func NewOwner(parent *Owner) *Owner {
	o := &Owner{
		cleanups: make([]func(), 0),
		context:  make(map[any]any),
		hooks:    NewHooks(),
		effects:  NewEffectQueue(),
	}

	if parent != nil && !parent.disposed {
		parent.AddChild(o)
	}

	return o
}

// Run calls fn with o as the current owner of the calling goroutine.
// A panic is handed to the owner's catchers and reported as ErrPanicked.
// Without catchers it propagates as usual.
func (o *Owner) Run(fn func() error) (err error) {
	r := GetRuntime()
	if r.tracker.CurrentOwner() == nil {
		defer ReleaseRuntime()
	}

	defer func() {
		if rec := recover(); rec != nil {
			if len(o.catchers) == 0 {
				panic(rec)
			}

			for _, catcher := range o.catchers {
				catcher(rec)
			}
			err = fmt.Errorf("%w: %v", ErrPanicked, rec)
		}
	}()

	r.tracker.RunWithOwner(o, func() { err = fn() })
	return err
}

// Begin resets the owner for a new render pass.
func (o *Owner) Begin() {
	o.hooks.Begin()
	o.effects.Clear()
}

// End validates the hooks used by the pass that just returned.
func (o *Owner) End() error {
	return o.hooks.End()
}

// Commit runs the effects queued during the pass, in queue order.
func (o *Owner) Commit() {
	o.effects.Run()
}

// Discard drops the effects queued during a pass that failed.
func (o *Owner) Discard() {
	o.effects.Clear()
}

// NextSlot returns the hook slot for the next hook call of the current pass.
func (o *Owner) NextSlot() *Slot {
	return o.hooks.Next()
}

// Enqueue schedules fn for the commit phase of the current pass.
func (o *Owner) Enqueue(fn func()) {
	o.effects.Enqueue(fn)
}

// DisposeWith makes the parent's disposal call fn instead of disposing o
// directly. fn must end up calling o.Dispose.
func (o *Owner) DisposeWith(fn func()) {
	o.handoff = fn
}

func (parent *Owner) AddChild(child *Owner) {
	parent.mu.Lock()
	defer parent.mu.Unlock()

	child.parent = parent
	child.prevSibling = nil
	child.nextSibling = parent.childrenHead

	if parent.childrenHead != nil {
		parent.childrenHead.prevSibling = child
	}

	parent.childrenHead = child
}

func (parent *Owner) removeChild(child *Owner) {
	parent.mu.Lock()
	defer parent.mu.Unlock()

	if child.prevSibling != nil {
		child.prevSibling.nextSibling = child.nextSibling
	} else if parent.childrenHead == child {
		parent.childrenHead = child.nextSibling
	}

	if child.nextSibling != nil {
		child.nextSibling.prevSibling = child.prevSibling
	}

	child.prevSibling = nil
	child.nextSibling = nil
}

func (o *Owner) Children() iter.Seq[*Owner] {
	return func(yield func(*Owner) bool) {
		child := o.childrenHead

		for child != nil {
			next := child.nextSibling
			if !yield(child) {
				return
			}

			child = next
		}
	}
}

// Dispose disposes the children, then runs the cleanups in registration order.
// Calling it again does nothing.
func (o *Owner) Dispose() {
	if o.disposed {
		return
	}
	o.disposed = true

	if o.parent != nil {
		o.parent.removeChild(o)
	}

	o.DisposeChildren()

	cleanups := o.cleanups
	o.cleanups = nil
	for _, fn := range cleanups {
		fn()
	}

	o.effects.Clear()
}

func (o *Owner) DisposeChildren() {
	o.mu.Lock()
	var children []*Owner
	for child := range o.Children() {
		children = append(children, child)
		child.prevSibling = nil
		child.nextSibling = nil
	}
	o.childrenHead = nil
	o.mu.Unlock()

	for _, child := range children {
		if child.handoff != nil {
			child.handoff()
			continue
		}

		child.Dispose()
	}
}

func (o *Owner) Disposed() bool {
	return o.disposed
}

// OnCleanup registers fn to run once when the owner is disposed.
// On an already disposed owner fn runs immediately.
func (o *Owner) OnCleanup(fn func()) {
	if o.disposed {
		fn()
		return
	}

	o.cleanups = append(o.cleanups, fn)
}

func (o *Owner) OnError(fn func(any)) {
	o.catchers = append(o.catchers, fn)
}

// Set stores a value on this owner.
func (o *Owner) Set(key, value any) {
	o.context[key] = value
}

// Value looks key up on this owner, then on its ancestors.
func (o *Owner) Value(key any) any {
	for n := o; n != nil; n = n.parent {
		if v, ok := n.context[key]; ok {
			return v
		}
	}

	return nil
}
