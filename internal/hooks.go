package internal

import "fmt"

// Slot holds the state of one hook call. Slots are matched to hook calls by
// their position in the pass, so hooks must be called in the same order on
// every pass.
type Slot struct {
	index int
	value any
}

func (s *Slot) Index() int { return s.index }

func (s *Slot) Value() any { return s.value }

func (s *Slot) Set(v any) { s.value = v }

type Hooks struct {
	slots  []*Slot
	cursor int

	// set once a pass completed; the number of hooks is fixed from then on
	sealed bool
}

func NewHooks() *Hooks {
	return &Hooks{
		slots: make([]*Slot, 0),
	}
}

func (h *Hooks) Begin() {
	h.cursor = 0
}

// Next returns the slot for the next hook call, growing the list on the first
// pass. It panics with ErrHookOrder when a later pass calls more hooks.
func (h *Hooks) Next() *Slot {
	if h.cursor == len(h.slots) {
		if h.sealed {
			panic(fmt.Errorf("%w: more hook calls than the previous pass (%d)", ErrHookOrder, len(h.slots)))
		}

		h.slots = append(h.slots, &Slot{index: h.cursor})
	}

	slot := h.slots[h.cursor]
	h.cursor++

	return slot
}

func (h *Hooks) End() error {
	if h.sealed && h.cursor != len(h.slots) {
		return fmt.Errorf("%w: %d hook calls, previous pass had %d", ErrHookOrder, h.cursor, len(h.slots))
	}
	h.sealed = true

	return nil
}

func (h *Hooks) Len() int {
	return len(h.slots)
}
