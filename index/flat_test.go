package index

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIndex(t *testing.T, dim int) *Flat {
	t.Helper()

	f, err := New(func(o *Options) {
		o.Dimension = dim
	})
	require.NoError(t, err)

	return f
}

func TestFlatInsert(t *testing.T) {
	ctx := context.Background()

	t.Run("insert and contains", func(t *testing.T) {
		f := newTestIndex(t, 3)

		require.NoError(t, f.Insert(ctx, "a", "u1", []float32{1, 2, 3}))
		assert.True(t, f.Contains("a"))
		assert.Equal(t, 1, f.Len())
	})

	t.Run("duplicate id", func(t *testing.T) {
		f := newTestIndex(t, 3)

		require.NoError(t, f.Insert(ctx, "a", "u1", []float32{1, 2, 3}))
		err := f.Insert(ctx, "a", "u1", []float32{1, 2, 3})
		assert.IsType(t, &ErrDuplicateID{}, err)
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		f := newTestIndex(t, 3)

		err := f.Insert(ctx, "a", "u1", []float32{1, 2})
		var dm *ErrDimensionMismatch
		require.ErrorAs(t, err, &dm)
		assert.Equal(t, 3, dm.Expected)
		assert.Equal(t, 2, dm.Actual)
	})

	t.Run("caller mutation does not leak in", func(t *testing.T) {
		f := newTestIndex(t, 2)

		v := []float32{1, 0}
		require.NoError(t, f.Insert(ctx, "a", "u1", v))
		v[0] = -1

		results, err := f.Search(ctx, []float32{1, 0}, 1, nil)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.InDelta(t, 0, results[0].Distance, 1e-6)
	})
}

func TestFlatRemove(t *testing.T) {
	ctx := context.Background()

	t.Run("remove absent id", func(t *testing.T) {
		f := newTestIndex(t, 2)
		assert.IsType(t, &ErrNotFound{}, f.Remove(ctx, "missing"))
	})

	t.Run("remove twice", func(t *testing.T) {
		f := newTestIndex(t, 2)

		require.NoError(t, f.Insert(ctx, "a", "u1", []float32{1, 0}))
		require.NoError(t, f.Insert(ctx, "b", "u1", []float32{0, 1}))
		require.NoError(t, f.Remove(ctx, "a"))
		assert.IsType(t, &ErrNotFound{}, f.Remove(ctx, "a"))

		// Neighboring entry must be untouched.
		results, err := f.Search(ctx, []float32{0, 1}, 2, nil)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "b", results[0].ID)
	})
}

func TestFlatSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("reflexivity", func(t *testing.T) {
		f := newTestIndex(t, 3)

		v := []float32{0.3, 0.7, 0.1}
		require.NoError(t, f.Insert(ctx, "a", "u1", v))
		require.NoError(t, f.Insert(ctx, "b", "u1", []float32{-1, 0.2, 0.5}))

		results, err := f.Search(ctx, v, 1, nil)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "a", results[0].ID)
		assert.InDelta(t, 0, results[0].Distance, 1e-6)
	})

	t.Run("invalid k", func(t *testing.T) {
		f := newTestIndex(t, 2)
		_, err := f.Search(ctx, []float32{1, 0}, 0, nil)
		assert.ErrorIs(t, err, ErrInvalidK)
	})

	t.Run("empty index", func(t *testing.T) {
		f := newTestIndex(t, 2)
		results, err := f.Search(ctx, []float32{1, 0}, 5, nil)
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("ordering is non-decreasing and k1 prefixes k2", func(t *testing.T) {
		f := newTestIndex(t, 2)

		vectors := [][]float32{
			{1, 0}, {0.9, 0.1}, {0.5, 0.5}, {0.1, 0.9}, {0, 1}, {-1, 0.1},
		}
		for i, v := range vectors {
			require.NoError(t, f.Insert(ctx, fmt.Sprintf("v%d", i), "u1", v))
		}

		q := []float32{1, 0.05}

		full, err := f.Search(ctx, q, len(vectors), nil)
		require.NoError(t, err)
		require.Len(t, full, len(vectors))
		for i := 1; i < len(full); i++ {
			assert.LessOrEqual(t, full[i-1].Distance, full[i].Distance)
		}

		for k := 1; k < len(vectors); k++ {
			part, err := f.Search(ctx, q, k, nil)
			require.NoError(t, err)
			require.Len(t, part, k)
			assert.Equal(t, full[:k], part)
		}
	})

	t.Run("equal distance breaks ties by insertion order", func(t *testing.T) {
		f := newTestIndex(t, 2)

		// Same direction, different scale: identical cosine distance.
		require.NoError(t, f.Insert(ctx, "first", "u1", []float32{2, 2}))
		require.NoError(t, f.Insert(ctx, "second", "u1", []float32{1, 1}))

		results, err := f.Search(ctx, []float32{1, 1}, 1, nil)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "first", results[0].ID)
	})

	t.Run("filter before truncate", func(t *testing.T) {
		f := newTestIndex(t, 2)

		const k = 3
		// k+1 vectors for owner A, mediocre matches.
		for i := 0; i <= k; i++ {
			v := []float32{1, float32(i+1) * 0.2}
			require.NoError(t, f.Insert(ctx, fmt.Sprintf("a%d", i), "A", v))
		}
		// One vector for owner B, closer than all of A's.
		require.NoError(t, f.Insert(ctx, "b0", "B", []float32{1, 0.001}))

		results, err := f.Search(ctx, []float32{1, 0}, k, &SearchOptions{Owners: []string{"A"}})
		require.NoError(t, err)
		require.Len(t, results, k)
		for _, r := range results {
			assert.NotEqual(t, "b0", r.ID)
		}
		// A's closest k, in order.
		assert.Equal(t, "a0", results[0].ID)
		assert.Equal(t, "a1", results[1].ID)
		assert.Equal(t, "a2", results[2].ID)
	})

	t.Run("filter for unknown owner returns empty", func(t *testing.T) {
		f := newTestIndex(t, 2)
		require.NoError(t, f.Insert(ctx, "a", "u1", []float32{1, 0}))

		results, err := f.Search(ctx, []float32{1, 0}, 1, &SearchOptions{Owners: []string{"nobody"}})
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("zero query vector is maximally dissimilar to everything", func(t *testing.T) {
		f := newTestIndex(t, 2)
		require.NoError(t, f.Insert(ctx, "a", "u1", []float32{1, 0}))
		require.NoError(t, f.Insert(ctx, "b", "u1", []float32{0, 1}))

		results, err := f.Search(ctx, []float32{0, 0}, 2, nil)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, float32(1), results[0].Distance)
		assert.Equal(t, float32(1), results[1].Distance)
		// Degenerates to insertion order.
		assert.Equal(t, "a", results[0].ID)
	})

	t.Run("zero stored vector ranks last", func(t *testing.T) {
		f := newTestIndex(t, 2)
		require.NoError(t, f.Insert(ctx, "zero", "u1", []float32{0, 0}))
		require.NoError(t, f.Insert(ctx, "unit", "u1", []float32{1, 0}))

		results, err := f.Search(ctx, []float32{1, 0}, 2, nil)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "unit", results[0].ID)
		assert.Equal(t, "zero", results[1].ID)
	})
}

func TestFlatConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	f := newTestIndex(t, 4)

	var wg sync.WaitGroup

	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				id := fmt.Sprintf("w%d-%d", w, i)
				_ = f.Insert(ctx, id, "u1", []float32{float32(w), float32(i), 1, 0})
				if i%3 == 0 {
					_ = f.Remove(ctx, id)
				}
			}
		}(w)
	}

	// Queries must never observe a torn state.
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				results, err := f.Search(ctx, []float32{1, 1, 1, 0}, 10, nil)
				assert.NoError(t, err)
				for j := 1; j < len(results); j++ {
					assert.LessOrEqual(t, results[j-1].Distance, results[j].Distance)
				}
			}
		}()
	}

	wg.Wait()
}
