package internal

// EffectQueue holds the work a render pass defers to its commit phase.
type EffectQueue struct {
	effects []func()
}

func NewEffectQueue() *EffectQueue {
	return &EffectQueue{
		effects: make([]func(), 0),
	}
}

func (q *EffectQueue) Enqueue(fn func()) {
	q.effects = append(q.effects, fn)
}

// Run drains the queue. The queue is detached first so an effect that
// starts another pass does not run its effects twice.
func (q *EffectQueue) Run() {
	effects := q.effects
	q.effects = make([]func(), 0, len(effects))

	for _, effect := range effects {
		effect()
	}
}

func (q *EffectQueue) Clear() {
	q.effects = q.effects[:0]
}

func (q *EffectQueue) Len() int {
	return len(q.effects)
}
