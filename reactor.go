package reactor

import (
	"errors"
	"fmt"
	"slices"
	"sync/atomic"

	"github.com/AnatoleLucet/reactor/internal"
	"github.com/AnatoleLucet/reactor/metrics"
	"github.com/AnatoleLucet/reactor/subject"
	"github.com/go-logr/logr"
	"github.com/google/uuid"
)

var (
	// ErrDisposed is returned by Render once the host is disposed.
	ErrDisposed = errors.New("reactor: host disposed")

	// ErrOutsideRender is the panic value of a hook called outside Host.Render.
	ErrOutsideRender = errors.New("reactor: hook called outside a render pass")

	// ErrHookOrder reports hooks called in a different order or number than on the previous pass.
	ErrHookOrder = internal.ErrHookOrder

	// ErrNilOutput is the panic value when a reaction returns a nil subject.
	ErrNilOutput = errors.New("reactor: reaction returned a nil subject")

	// ErrPanicked wraps a panic recovered by OnError catchers during a pass.
	ErrPanicked = internal.ErrPanicked
)

type options struct {
	log     logr.Logger
	metrics *metrics.Collector
	name    string
}

func defaultOptions() options {
	return options{log: logr.Discard()}
}

type Option func(*options)

// WithLogger sets the logger. Lifecycle transitions are logged at V(1).
func WithLogger(l logr.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithMetrics reports binding activity to c.
func WithMetrics(c *metrics.Collector) Option {
	return func(o *options) { o.metrics = c }
}

// WithName names the logger of a host or binding.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

func newOptions(base options, opts []Option) options {
	o := base
	o.name = ""
	for _, opt := range opts {
		opt(&o)
	}

	if o.name != "" {
		o.log = o.log.WithName(o.name)
	}

	return o
}

type hostKey struct{}

// Host is a host component instance. Each call to Render is one activation
// pass: hooks called during the pass find their state from previous passes,
// and the work they defer runs once the pass returns.
type Host struct {
	id string

	owner     *internal.Owner
	scheduler *internal.Scheduler

	// set as soon as Dispose is called; the teardown itself runs on the scheduler
	disposed atomic.Bool

	opts options
	log  logr.Logger
}

// NewHost creates a host. A host created during another host's pass is its
// child: it inherits the parent's options and is disposed with it.
func NewHost(opts ...Option) *Host {
	base := defaultOptions()

	parent := internal.CurrentOwner()
	if parent != nil {
		if p, ok := parent.Value(hostKey{}).(*Host); ok {
			base = p.opts
		}
	}

	o := newOptions(base, opts)

	h := &Host{
		id:        uuid.NewString(),
		owner:     internal.NewOwner(parent),
		scheduler: internal.NewScheduler(),
		opts:      o,
	}
	h.log = o.log.WithValues("host", h.id)
	h.owner.Set(hostKey{}, h)
	h.owner.DisposeWith(h.Dispose)

	return h
}

func (h *Host) ID() string { return h.id }

// Passes returns the number of passes that committed.
func (h *Host) Passes() int { return h.scheduler.Time() }

func (h *Host) Disposed() bool { return h.disposed.Load() }

// Render runs fn as one pass of the host, then commits the effects its hooks
// queued, in hook order. If fn returns an error or panics, nothing is
// committed.
//
// Render called while a pass of the same host is running (from a dispatcher
// reacting to a commit, for instance) is deferred until that pass commits and
// returns nil. Only the latest deferred fn runs.
func (h *Host) Render(fn func() error) error {
	if h.disposed.Load() {
		return ErrDisposed
	}

	return h.scheduler.Schedule(fn, h.pass)
}

func (h *Host) pass(fn func() error) error {
	if h.owner.Disposed() {
		return ErrDisposed
	}

	h.owner.Begin()

	err := h.owner.Run(fn)
	if err == nil {
		err = h.owner.End()
	}

	if err != nil {
		h.owner.Discard()
		h.log.V(1).Info("render pass discarded", "error", err.Error())
		return err
	}

	h.owner.Commit()
	return nil
}

// Dispose tears the host down: children first, then every binding's
// subscription. Calling it again does nothing.
//
// The teardown never overlaps a pass. Called while a pass is running, on any
// goroutine, it runs right after that pass instead of a pending Render, and
// Dispose returns without waiting.
func (h *Host) Dispose() {
	if !h.disposed.CompareAndSwap(false, true) {
		return
	}

	h.scheduler.Finish(func() {
		h.owner.Dispose()
		h.log.V(1).Info("host disposed")
	})
}

// OnCleanup registers fn to run once when the host is disposed.
func (h *Host) OnCleanup(fn func()) { h.owner.OnCleanup(fn) }

// OnError registers a handler for panics raised during a pass.
// Without handlers, panics propagate out of Render.
func (h *Host) OnError(fn func(any)) { h.owner.OnError(fn) }

func (h *Host) bindingOptions() []Option {
	return []Option{
		WithLogger(h.log),
		WithMetrics(h.opts.metrics),
	}
}

// Use binds reaction and dispatch to the host whose pass is running.
//
// On the first pass it creates an input subject and builds the pipeline with
// reaction; later passes reuse it. After the pass commits, dispatch receives
// every output event, and inputs are pushed into the input subject whenever
// one of them differs from what was pushed last. With no inputs nothing is
// pushed. The output subject is returned.
//
// Use panics with ErrOutsideRender when no pass is running on the calling goroutine.
func Use[In, Out any](reaction Reaction[In, Out], dispatch *Dispatch[Out], inputs ...In) *subject.Subject[Out] {
	owner := internal.CurrentOwner()
	if owner == nil {
		panic(ErrOutsideRender)
	}
	h := owner.Value(hostKey{}).(*Host)

	slot := owner.NextSlot()

	b, ok := slot.Value().(*Binding[In, Out])
	if !ok {
		if slot.Value() != nil {
			panic(fmt.Errorf("%w: hook %d holds %T", ErrHookOrder, slot.Index(), slot.Value()))
		}

		b = NewBinding(reaction, h.bindingOptions()...)
		b.construct()

		slot.Set(b)
		owner.OnCleanup(b.Close)
	}

	inputs = slices.Clone(inputs)
	owner.Enqueue(func() {
		b.commit(dispatch, inputs)
	})

	return b.Output()
}
