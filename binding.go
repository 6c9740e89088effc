package reactor

import (
	"fmt"
	"slices"

	"github.com/AnatoleLucet/reactor/internal"
	"github.com/AnatoleLucet/reactor/metrics"
	"github.com/AnatoleLucet/reactor/subject"
	"github.com/go-logr/logr"
	"github.com/google/uuid"
)

// Reaction derives an output stream from an input subject.
// A binding calls it exactly once.
type Reaction[In, Out any] func(input *subject.Subject[In]) *subject.Subject[Out]

type State int

const (
	StateUninitialized State = iota
	StateActive
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateActive:
		return "active"
	case StateTerminated:
		return "terminated"
	}

	return fmt.Sprintf("State(%d)", int(s))
}

// Binding owns one reaction pipeline: the input subject, the output subject
// derived from it, and the subscription of the current dispatcher.
//
// A Binding is driven by one caller at a time; Host serialises its passes.
// Output events may arrive from any goroutine.
type Binding[In, Out any] struct {
	id       string
	reaction Reaction[In, Out]
	state    State

	input  *subject.Subject[In]
	output *subject.Subject[Out]

	dispatch *Dispatch[Out]
	sub      *subject.Subscription

	// the inputs pushed last, nil until the first push
	forwarded []In

	log     logr.Logger
	metrics *metrics.Collector
}

// NewBinding returns an uninitialized binding. The reaction is not called
// before the first activation.
func NewBinding[In, Out any](reaction Reaction[In, Out], opts ...Option) *Binding[In, Out] {
	o := newOptions(defaultOptions(), opts)

	id := uuid.NewString()

	return &Binding[In, Out]{
		id:       id,
		reaction: reaction,
		log:      o.log.WithValues("binding", id),
		metrics:  o.metrics,
	}
}

func (b *Binding[In, Out]) ID() string { return b.id }

func (b *Binding[In, Out]) State() State { return b.state }

// Output returns the output subject, nil before the first activation.
func (b *Binding[In, Out]) Output() *subject.Subject[Out] { return b.output }

// Activate runs one activation: it builds the pipeline on first use,
// subscribes dispatch if it is not the current dispatcher, and pushes inputs
// if they differ from the last pushed ones. It returns the output subject.
//
// A panic in the reaction propagates and leaves the binding uninitialized.
// A terminated binding ignores activations.
func (b *Binding[In, Out]) Activate(dispatch *Dispatch[Out], inputs ...In) *subject.Subject[Out] {
	b.construct()
	b.commit(dispatch, inputs)

	return b.output
}

// Close unsubscribes the current dispatcher, closes the input subject so the
// pipeline can release its timers and projections, and terminates the binding.
// Calling it again does nothing.
func (b *Binding[In, Out]) Close() {
	if b.state == StateTerminated {
		return
	}

	b.unsubscribe()
	b.dispatch = nil
	b.state = StateTerminated

	if b.input != nil {
		b.input.Close()
	}

	b.log.V(1).Info("binding terminated")
}

func (b *Binding[In, Out]) construct() {
	if b.state != StateUninitialized {
		return
	}

	input := subject.New[In]()

	output := b.reaction(input)
	if output == nil {
		panic(fmt.Errorf("%w: binding %s", ErrNilOutput, b.id))
	}

	b.input, b.output = input, output
	b.state = StateActive

	b.metrics.ReactionConstructed()
	b.log.V(1).Info("reaction constructed")
}

func (b *Binding[In, Out]) commit(dispatch *Dispatch[Out], inputs []In) {
	if b.state != StateActive {
		return
	}
	b.metrics.Activated()

	if dispatch != b.dispatch {
		b.unsubscribe()
		b.subscribe(dispatch)
	}

	if len(inputs) == 0 {
		return
	}

	if b.forwarded != nil && internal.SameInputs(b.forwarded, inputs) {
		return
	}
	b.forwarded = slices.Clone(inputs)

	for _, v := range b.forwarded {
		b.input.Push(v)
	}

	b.metrics.InputsPushed(len(b.forwarded))
	b.log.V(1).Info("inputs forwarded", "count", len(b.forwarded))
}

func (b *Binding[In, Out]) subscribe(dispatch *Dispatch[Out]) {
	b.dispatch = dispatch
	if dispatch == nil {
		return
	}

	b.sub = b.output.Subscribe(func(v Out) {
		b.metrics.EventDispatched()
		dispatch.Call(v)
	})

	b.metrics.Subscribed()
	b.log.V(1).Info("subscribed")
}

func (b *Binding[In, Out]) unsubscribe() {
	if b.sub == nil {
		return
	}

	b.output.Unsubscribe(b.sub)
	b.sub = nil

	b.metrics.Unsubscribed()
	b.log.V(1).Info("unsubscribed")
}
