package service

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueryState_Sequence(t *testing.T) {
	var state QueryState

	assert.Equal(t, uint64(1), state.Next())
	assert.Equal(t, uint64(2), state.Next())
	assert.Equal(t, uint64(2), state.Latest())
}

func TestQueryState_TryApply(t *testing.T) {
	t.Run("latest response applies", func(t *testing.T) {
		var state QueryState
		seq := state.Next()
		assert.True(t, state.TryApply(seq))
	})

	t.Run("superseded response is discarded", func(t *testing.T) {
		var state QueryState
		old := state.Next()
		newer := state.Next()

		// The older query finished after a newer one was issued; its
		// answer must never reach displayed state.
		assert.False(t, state.TryApply(old))
		assert.True(t, state.TryApply(newer))
	})

	t.Run("already applied response does not reapply", func(t *testing.T) {
		var state QueryState
		seq := state.Next()
		assert.True(t, state.TryApply(seq))
		assert.False(t, state.TryApply(seq))
	})

	t.Run("concurrent apply admits exactly one winner", func(t *testing.T) {
		var state QueryState
		seq := state.Next()

		var wg sync.WaitGroup
		applied := make(chan bool, 10)
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				applied <- state.TryApply(seq)
			}()
		}
		wg.Wait()
		close(applied)

		wins := 0
		for ok := range applied {
			if ok {
				wins++
			}
		}
		assert.Equal(t, 1, wins)
	})
}
