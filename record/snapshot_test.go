package record

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()

	for _, tc := range []struct {
		name        string
		compression CompressionType
	}{
		{name: "none", compression: CompressionNone},
		{name: "lz4", compression: CompressionLZ4},
		{name: "zstd", compression: CompressionZSTD},
	} {
		t.Run(tc.name, func(t *testing.T) {
			src := NewMemoryStore(3)
			require.NoError(t, src.Put(ctx, testRecord("r1", "u1", []float32{1, 2, 3})))
			require.NoError(t, src.Put(ctx, testRecord("r2", "u2", []float32{4, 5, 6})))

			var buf bytes.Buffer
			require.NoError(t, WriteSnapshot(ctx, &buf, src, tc.compression))

			dst := NewMemoryStore(3)
			require.NoError(t, ReadSnapshot(ctx, &buf, dst))

			var ids []string
			require.NoError(t, dst.ForEach(ctx, func(r *Record) error {
				ids = append(ids, r.ID)
				return nil
			}))
			assert.Equal(t, []string{"r1", "r2"}, ids)

			got, err := dst.Get(ctx, "r2")
			require.NoError(t, err)
			assert.Equal(t, []float32{4, 5, 6}, got.Vector)
			assert.Equal(t, "u2", got.OwnerID)
		})
	}
}

func TestSnapshotRejectsGarbage(t *testing.T) {
	ctx := context.Background()

	t.Run("bad magic", func(t *testing.T) {
		dst := NewMemoryStore(3)
		err := ReadSnapshot(ctx, bytes.NewReader([]byte("XXXX\x01\x00garbage")), dst)
		assert.ErrorContains(t, err, "not a record snapshot")
	})

	t.Run("truncated header", func(t *testing.T) {
		dst := NewMemoryStore(3)
		err := ReadSnapshot(ctx, bytes.NewReader([]byte("RV")), dst)
		assert.Error(t, err)
	})

	t.Run("unknown compression", func(t *testing.T) {
		dst := NewMemoryStore(3)
		err := ReadSnapshot(ctx, bytes.NewReader([]byte{'R', 'V', 'S', 'N', 1, 9}), dst)
		assert.ErrorContains(t, err, "unknown compression")
	})
}
