package reactor

import (
	"testing"

	"github.com/AnatoleLucet/reactor/subject"
	"github.com/stretchr/testify/assert"
)

type counterAction struct {
	kind string
	by   int
}

func counter(state int, action counterAction) int {
	switch action.kind {
	case "add":
		return state + action.by
	case "reset":
		return 0
	}

	return state
}

func TestStore(t *testing.T) {
	t.Run("reduces dispatched actions", func(t *testing.T) {
		store := NewStore[int, counterAction](counter, 0)

		store.Dispatch().Call(counterAction{kind: "add", by: 2})
		store.Dispatch().Call(counterAction{kind: "add", by: 3})
		assert.Equal(t, 5, store.State())

		store.Dispatch().Call(counterAction{kind: "reset"})
		assert.Equal(t, 0, store.State())
	})

	t.Run("keeps a stable dispatch", func(t *testing.T) {
		store := NewStore[int, counterAction](counter, 0)

		assert.Same(t, store.Dispatch(), store.Dispatch())
	})

	t.Run("pushes changed states only", func(t *testing.T) {
		log := []int{}

		store := NewStore[int, counterAction](counter, 0)
		store.Changes().Subscribe(func(s int) { log = append(log, s) })

		store.Dispatch().Call(counterAction{kind: "add", by: 1})
		store.Dispatch().Call(counterAction{kind: "noop"})
		store.Dispatch().Call(counterAction{kind: "add", by: 0})
		store.Dispatch().Call(counterAction{kind: "reset"})

		assert.Equal(t, []int{1, 0}, log)
	})

	t.Run("subscribes a binding once", func(t *testing.T) {
		h := NewHost()
		defer h.Dispose()

		store := NewStore[int, counterAction](counter, 0)

		add := Reaction[int, counterAction](func(in *subject.Subject[int]) *subject.Subject[counterAction] {
			return subject.Map(in, func(n int) counterAction { return counterAction{kind: "add", by: n} })
		})

		var out *subject.Subject[counterAction]
		for _, n := range []int{1, 2, 3} {
			assert.NoError(t, h.Render(func() error {
				out = Use(add, store.Dispatch(), n)
				return nil
			}))
		}

		assert.Equal(t, 6, store.State())
		assert.Equal(t, 1, out.Len())
	})
}
