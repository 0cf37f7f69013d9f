package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopK(t *testing.T) {
	t.Run("keeps k best ordered ascending", func(t *testing.T) {
		q := NewTopK(3)
		for row, dist := range []float32{0.9, 0.1, 0.5, 0.7, 0.3} {
			q.Consider(Item{Row: uint32(row), Distance: dist})
		}

		out := q.Drain()
		require.Len(t, out, 3)
		assert.Equal(t, []Item{
			{Row: 1, Distance: 0.1},
			{Row: 4, Distance: 0.3},
			{Row: 2, Distance: 0.5},
		}, out)
	})

	t.Run("fewer candidates than k", func(t *testing.T) {
		q := NewTopK(10)
		q.Consider(Item{Row: 0, Distance: 0.2})
		out := q.Drain()
		require.Len(t, out, 1)
		assert.Equal(t, uint32(0), out[0].Row)
	})

	t.Run("equal distances break ties by row", func(t *testing.T) {
		q := NewTopK(2)
		q.Consider(Item{Row: 2, Distance: 0.5})
		q.Consider(Item{Row: 0, Distance: 0.5})
		q.Consider(Item{Row: 1, Distance: 0.5})

		out := q.Drain()
		require.Len(t, out, 2)
		assert.Equal(t, uint32(0), out[0].Row)
		assert.Equal(t, uint32(1), out[1].Row)
	})

	t.Run("top reports current worst", func(t *testing.T) {
		q := NewTopK(2)
		_, ok := q.Top()
		assert.False(t, ok)

		q.Consider(Item{Row: 0, Distance: 0.1})
		q.Consider(Item{Row: 1, Distance: 0.9})
		top, ok := q.Top()
		require.True(t, ok)
		assert.Equal(t, float32(0.9), top.Distance)
	})
}
