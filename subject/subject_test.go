package subject

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubject(t *testing.T) {
	t.Run("multicasts in subscription order", func(t *testing.T) {
		log := []string{}

		s := New[int]()
		s.Subscribe(func(v int) { log = append(log, fmt.Sprintf("first %d", v)) })
		s.Subscribe(func(v int) { log = append(log, fmt.Sprintf("second %d", v)) })

		s.Push(1)
		s.Push(2)

		assert.Equal(t, []string{
			"first 1",
			"second 1",
			"first 2",
			"second 2",
		}, log)
	})

	t.Run("only delivers values pushed after subscribing", func(t *testing.T) {
		log := []int{}

		s := New[int]()
		s.Push(1)
		s.Subscribe(func(v int) { log = append(log, v) })
		s.Push(2)

		assert.Equal(t, []int{2}, log)
	})

	t.Run("stops delivering after unsubscribe", func(t *testing.T) {
		log := []int{}

		s := New[int]()
		sub := s.Subscribe(func(v int) { log = append(log, v) })

		s.Push(1)
		s.Unsubscribe(sub)
		sub.Unsubscribe()
		s.Push(2)

		assert.Equal(t, []int{1}, log)
		assert.True(t, sub.Closed())
		assert.Equal(t, 0, s.Len())
	})

	t.Run("unsubscribes from inside the callback", func(t *testing.T) {
		log := []int{}

		s := New[int]()

		var sub *Subscription
		sub = s.Subscribe(func(v int) {
			log = append(log, v)
			sub.Unsubscribe()
		})

		s.Push(1)
		s.Push(2)

		assert.Equal(t, []int{1}, log)
	})

	t.Run("skips a subscriber removed during the same push", func(t *testing.T) {
		log := []string{}

		s := New[int]()

		var second *Subscription
		s.Subscribe(func(v int) {
			log = append(log, "first")
			second.Unsubscribe()
		})
		second = s.Subscribe(func(v int) { log = append(log, "second") })

		s.Push(1)

		assert.Equal(t, []string{"first"}, log)
	})

	t.Run("delivers re-entrant pushes", func(t *testing.T) {
		log := []int{}

		s := New[int]()
		s.Subscribe(func(v int) {
			log = append(log, v)
			if v < 3 {
				s.Push(v + 1)
			}
		})

		s.Push(1)

		assert.Equal(t, []int{1, 2, 3}, log)
	})

	t.Run("unsubscribes without waiting for an in-flight delivery", func(t *testing.T) {
		started := make(chan struct{})
		release := make(chan struct{})
		delivered := make(chan struct{})

		s := New[int]()
		sub := s.Subscribe(func(v int) {
			close(started)
			<-release
			close(delivered)
		})

		go s.Push(1)
		<-started

		done := make(chan struct{})
		go func() {
			sub.Unsubscribe()
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			require.Fail(t, "unsubscribe waited for the delivery")
		}

		s.Push(2)
		close(release)
		<-delivered

		assert.True(t, sub.Closed())
		assert.Equal(t, 0, s.Len())
	})

	t.Run("starts no delivery once unsubscribed", func(t *testing.T) {
		started := make(chan struct{})
		release := make(chan struct{})

		var mu sync.Mutex
		log := []int{}

		s := New[int]()
		sub := s.Subscribe(func(v int) {
			mu.Lock()
			log = append(log, v)
			mu.Unlock()

			if v == 1 {
				close(started)
				<-release
			}
		})

		go s.Push(1)
		<-started

		// queued behind the first delivery
		second := make(chan struct{})
		go func() {
			s.Push(2)
			close(second)
		}()

		time.Sleep(10 * time.Millisecond)
		sub.Unsubscribe()
		close(release)
		<-second

		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, []int{1}, log)
	})

	t.Run("ignores pushes once closed", func(t *testing.T) {
		log := []int{}

		s := New[int]()
		sub := s.Subscribe(func(v int) { log = append(log, v) })

		s.Push(1)
		s.Close()
		s.Push(2)

		late := s.Subscribe(func(v int) { log = append(log, v) })
		s.Push(3)

		assert.Equal(t, []int{1}, log)
		assert.True(t, s.Closed())
		assert.True(t, sub.Closed())
		assert.True(t, late.Closed())
	})

	t.Run("runs close callbacks once", func(t *testing.T) {
		log := []string{}

		s := New[int]()
		s.OnClose(func() { log = append(log, "first") })
		s.OnClose(func() { log = append(log, "second") })

		s.Close()
		s.Close()
		s.OnClose(func() { log = append(log, "late") })

		assert.Equal(t, []string{"first", "second", "late"}, log)
	})

	t.Run("concurrent pushes", func(t *testing.T) {
		var wg sync.WaitGroup
		var mu sync.Mutex
		total := 0

		s := New[int]()
		s.Subscribe(func(v int) {
			mu.Lock()
			total += v
			mu.Unlock()
		})

		for range 10 {
			wg.Go(func() {
				for range 100 {
					s.Push(1)
				}
			})
		}

		wg.Wait()

		require.Equal(t, 1, s.Len())
		assert.Equal(t, 1000, total)
	})
}
