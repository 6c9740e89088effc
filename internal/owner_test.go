package internal

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOwner(t *testing.T) {
	t.Run("runs with the owner as current", func(t *testing.T) {
		o := NewOwner(nil)
		assert.Nil(t, CurrentOwner())

		err := o.Run(func() error {
			assert.Same(t, o, CurrentOwner())

			inner := NewOwner(o)
			return inner.Run(func() error {
				assert.Same(t, inner, CurrentOwner())
				return nil
			})
		})
		require.NoError(t, err)

		assert.Nil(t, CurrentOwner())
		assert.Nil(t, LookupRuntime())
	})

	t.Run("disposes children before running cleanups", func(t *testing.T) {
		log := []string{}

		parent := NewOwner(nil)
		parent.OnCleanup(func() { log = append(log, "parent") })

		first := NewOwner(parent)
		first.OnCleanup(func() { log = append(log, "first") })

		second := NewOwner(parent)
		second.OnCleanup(func() { log = append(log, "second") })

		parent.Dispose()
		parent.Dispose()

		assert.Equal(t, []string{"second", "first", "parent"}, log)
		assert.True(t, first.Disposed())
		assert.True(t, second.Disposed())
	})

	t.Run("detaches a disposed child", func(t *testing.T) {
		log := []string{}

		parent := NewOwner(nil)
		child := NewOwner(parent)
		child.OnCleanup(func() { log = append(log, "child") })

		child.Dispose()
		parent.Dispose()

		assert.Equal(t, []string{"child"}, log)
		assert.Empty(t, collectChildren(parent))
	})

	t.Run("runs late cleanups immediately", func(t *testing.T) {
		log := []string{}

		o := NewOwner(nil)
		o.Dispose()
		o.OnCleanup(func() { log = append(log, "late") })

		assert.Equal(t, []string{"late"}, log)
	})

	t.Run("catches panics with OnError", func(t *testing.T) {
		log := []string{}

		o := NewOwner(nil)
		o.OnError(func(r any) { log = append(log, fmt.Sprintf("caught %v", r)) })

		err := o.Run(func() error {
			// should propagate if owner has no error listener
			return NewOwner(o).Run(func() error {
				panic("oops")
			})
		})

		assert.ErrorIs(t, err, ErrPanicked)
		assert.Equal(t, []string{"caught oops"}, log)
		assert.Nil(t, CurrentOwner())
	})

	t.Run("propagates panics without catchers", func(t *testing.T) {
		o := NewOwner(nil)

		assert.PanicsWithValue(t, "oops", func() {
			_ = o.Run(func() error { panic("oops") })
		})
		assert.Nil(t, CurrentOwner())
	})

	t.Run("returns the error of fn", func(t *testing.T) {
		oops := errors.New("oops")

		err := NewOwner(nil).Run(func() error { return oops })
		assert.ErrorIs(t, err, oops)
	})

	t.Run("inherits context values", func(t *testing.T) {
		type key struct{}

		parent := NewOwner(nil)
		parent.Set(key{}, "parent")

		child := NewOwner(parent)
		assert.Equal(t, "parent", child.Value(key{}))

		child.Set(key{}, "child")
		assert.Equal(t, "child", child.Value(key{}))
		assert.Equal(t, "parent", parent.Value(key{}))
		assert.Nil(t, NewOwner(nil).Value(key{}))
	})

	t.Run("commits or discards queued effects", func(t *testing.T) {
		log := []string{}

		o := NewOwner(nil)

		o.Begin()
		o.Enqueue(func() { log = append(log, "discarded") })
		o.Discard()
		o.Commit()

		o.Begin()
		o.Enqueue(func() { log = append(log, "first") })
		o.Enqueue(func() { log = append(log, "second") })
		o.Commit()
		o.Commit()

		assert.Equal(t, []string{"first", "second"}, log)
	})
}

func collectChildren(o *Owner) []*Owner {
	children := []*Owner{}
	for child := range o.Children() {
		children = append(children, child)
	}

	return children
}
