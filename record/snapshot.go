package record

import (
	"context"
	"encoding/gob"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// CompressionType defines the compression algorithm used for snapshots.
type CompressionType uint8

const (
	// CompressionNone indicates no compression.
	CompressionNone CompressionType = 0
	// CompressionLZ4 indicates LZ4 compression (fast).
	CompressionLZ4 CompressionType = 1
	// CompressionZSTD indicates ZSTD compression (better ratio).
	CompressionZSTD CompressionType = 2
)

// snapshotMagic identifies a record store snapshot stream.
// Format: magic (4) | version (1) | compression (1) | gob([]Record).
var snapshotMagic = [4]byte{'R', 'V', 'S', 'N'}

const snapshotVersion = 1

// WriteSnapshot serializes every record of the store to w, compressed with
// the given algorithm. A snapshot together with an index rebuild is enough
// to restore a full service state.
func WriteSnapshot(ctx context.Context, w io.Writer, store Store, compression CompressionType) error {
	header := []byte{snapshotMagic[0], snapshotMagic[1], snapshotMagic[2], snapshotMagic[3], snapshotVersion, byte(compression)}
	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("write snapshot header: %w", err)
	}

	body := w
	var closeBody func() error

	switch compression {
	case CompressionNone:
	case CompressionLZ4:
		lw := lz4.NewWriter(w)
		body, closeBody = lw, lw.Close
	case CompressionZSTD:
		zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return fmt.Errorf("create zstd writer: %w", err)
		}
		body, closeBody = zw, zw.Close
	default:
		return fmt.Errorf("unknown compression type: %d", compression)
	}

	enc := gob.NewEncoder(body)

	var records []Record
	err := store.ForEach(ctx, func(r *Record) error {
		records = append(records, *r)
		return nil
	})
	if err != nil {
		return fmt.Errorf("collect records: %w", err)
	}

	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode records: %w", err)
	}

	if closeBody != nil {
		if err := closeBody(); err != nil {
			return fmt.Errorf("flush snapshot: %w", err)
		}
	}

	return nil
}

// ReadSnapshot loads a snapshot from r and replays every record into store
// in the snapshotted insertion order.
func ReadSnapshot(ctx context.Context, r io.Reader, store Store) error {
	header := make([]byte, 6)
	if _, err := io.ReadFull(r, header); err != nil {
		return fmt.Errorf("read snapshot header: %w", err)
	}
	if [4]byte(header[:4]) != snapshotMagic {
		return fmt.Errorf("not a record snapshot")
	}
	if header[4] != snapshotVersion {
		return fmt.Errorf("unsupported snapshot version: %d", header[4])
	}

	body := r

	switch CompressionType(header[5]) {
	case CompressionNone:
	case CompressionLZ4:
		body = lz4.NewReader(r)
	case CompressionZSTD:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return fmt.Errorf("create zstd reader: %w", err)
		}
		defer zr.Close()
		body = zr
	default:
		return fmt.Errorf("unknown compression type: %d", header[5])
	}

	var records []Record
	if err := gob.NewDecoder(body).Decode(&records); err != nil {
		return fmt.Errorf("decode records: %w", err)
	}

	for i := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := store.Put(ctx, &records[i]); err != nil {
			return fmt.Errorf("restore record %s: %w", records[i].ID, err)
		}
	}

	return nil
}
