package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/resumevec/embedding"
	"github.com/hupe1980/resumevec/index"
	"github.com/hupe1980/resumevec/record"
)

const testDimension = 32

type fixture struct {
	service *Service
	store   *record.MemoryStore
	index   *index.Flat
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := record.NewMemoryStore(testDimension)

	idx, err := index.New(func(o *index.Options) {
		o.Dimension = testDimension
	})
	require.NoError(t, err)

	return &fixture{
		service: New(embedding.NewHashEmbedder(testDimension), store, idx),
		store:   store,
		index:   idx,
	}
}

func (f *fixture) add(t *testing.T, id, owner, text string) {
	t.Helper()

	ctx := context.Background()

	vector, err := embedding.NewHashEmbedder(testDimension).Embed(ctx, text)
	require.NoError(t, err)

	require.NoError(t, f.store.Put(ctx, &record.Record{ID: id, OwnerID: owner, Vector: vector}))
	require.NoError(t, f.index.Insert(ctx, id, owner, vector))
}

func TestByText(t *testing.T) {
	t.Run("ranks similar resumes first", func(t *testing.T) {
		f := newFixture(t)
		f.add(t, "r1", "u1", "senior golang backend engineer distributed systems kubernetes")
		f.add(t, "r2", "u2", "golang backend engineer distributed systems")
		f.add(t, "r3", "u3", "pastry baking techniques croissant lamination")

		matches, err := f.service.ByText(context.Background(), "golang distributed systems engineer", 3)
		require.NoError(t, err)
		require.Len(t, matches, 3)

		// The baking resume must rank last.
		assert.Equal(t, "r3", matches[2].Record.ID)
		assert.LessOrEqual(t, matches[0].Distance, matches[1].Distance)
		assert.Less(t, matches[1].Distance, matches[2].Distance)
	})

	t.Run("owner restriction applies before truncation", func(t *testing.T) {
		f := newFixture(t)
		f.add(t, "r1", "u1", "golang engineer")
		f.add(t, "r2", "u2", "golang engineer with kubernetes")
		f.add(t, "r3", "u2", "weaving and pottery")

		matches, err := f.service.ByText(context.Background(), "golang engineer", 2, func(o *Options) {
			o.OwnerID = "u2"
		})
		require.NoError(t, err)
		require.Len(t, matches, 2)

		for _, m := range matches {
			assert.Equal(t, "u2", m.Record.OwnerID)
		}
	})

	t.Run("fewer candidates than k", func(t *testing.T) {
		f := newFixture(t)
		f.add(t, "r1", "u1", "golang engineer")

		matches, err := f.service.ByText(context.Background(), "golang", 10)
		require.NoError(t, err)
		assert.Len(t, matches, 1)
	})

	t.Run("stale index hits are dropped", func(t *testing.T) {
		f := newFixture(t)
		f.add(t, "r1", "u1", "golang engineer")
		f.add(t, "r2", "u2", "golang engineer kubernetes")

		// A delete can land between the index read and the hydration; the
		// search must return the surviving matches, not fail.
		require.NoError(t, f.store.Delete(context.Background(), "r2", "u2"))

		matches, err := f.service.ByText(context.Background(), "golang engineer", 2)
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, "r1", matches[0].Record.ID)
	})

	t.Run("invalid k", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.service.ByText(context.Background(), "golang", 0)
		require.ErrorIs(t, err, ErrInvalidK)
	})

	t.Run("empty query text", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.service.ByText(context.Background(), "   ", 3)
		require.ErrorIs(t, err, embedding.ErrEmptyText)
	})
}

func TestBySimilar(t *testing.T) {
	t.Run("excludes the source resume by default", func(t *testing.T) {
		f := newFixture(t)
		f.add(t, "r1", "u1", "golang backend engineer distributed systems")
		f.add(t, "r2", "u2", "golang backend engineer distributed systems kubernetes")
		f.add(t, "r3", "u3", "pastry baking techniques")

		matches, err := f.service.BySimilar(context.Background(), "r1", 2)
		require.NoError(t, err)
		require.Len(t, matches, 2)

		assert.Equal(t, "r2", matches[0].Record.ID)
		assert.Equal(t, "r3", matches[1].Record.ID)
	})

	t.Run("include self", func(t *testing.T) {
		f := newFixture(t)
		f.add(t, "r1", "u1", "golang engineer")
		f.add(t, "r2", "u2", "golang engineer kubernetes")

		matches, err := f.service.BySimilar(context.Background(), "r1", 2, func(o *Options) {
			o.IncludeSelf = true
		})
		require.NoError(t, err)
		require.Len(t, matches, 2)

		// The source resume is its own nearest neighbor at distance 0.
		assert.Equal(t, "r1", matches[0].Record.ID)
		assert.InDelta(t, 0, matches[0].Distance, 1e-6)
	})

	t.Run("self exclusion still yields k results", func(t *testing.T) {
		f := newFixture(t)
		f.add(t, "r1", "u1", "golang engineer")
		f.add(t, "r2", "u2", "golang engineer kubernetes")
		f.add(t, "r3", "u3", "golang engineer terraform")

		matches, err := f.service.BySimilar(context.Background(), "r1", 2)
		require.NoError(t, err)
		require.Len(t, matches, 2)

		for _, m := range matches {
			assert.NotEqual(t, "r1", m.Record.ID)
		}
	})

	t.Run("unknown resume", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.service.BySimilar(context.Background(), "missing", 2)
		require.ErrorIs(t, err, record.ErrNotFound)
	})
}
