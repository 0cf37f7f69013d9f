// Package index provides the in-memory similarity index over resume
// embedding vectors.
//
// The index answers exact k-nearest-neighbor queries under cosine distance.
// At the scale of a resume collection (thousands of vectors) a brute-force
// scan with a bounded top-k heap is both exact and fast; an approximate
// structure would buy nothing here. Readers are lock-free: the index keeps
// its state in an immutable snapshot behind an atomic.Value and writers
// publish a modified copy under a mutex (copy-on-write).
package index

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/resumevec/distance"
	"github.com/hupe1980/resumevec/internal/queue"
)

// entry is one stored vector. Row slots are append-only and never reused,
// so the slot number doubles as the insertion order for tie-breaking.
type entry struct {
	id    string
	owner string
	vec   []float32
	norm  float32
}

// flatState holds the immutable state of the index for lock-free reads.
type flatState struct {
	rows   []*entry          // nil entries are tombstones
	byID   map[string]uint32 // id -> row
	owners map[string]*roaring.Bitmap
}

// Options contains configuration options for the flat index.
type Options struct {
	// Dimension is the fixed vector dimensionality for this index.
	// It must be > 0 and is enforced for all inserts and searches.
	Dimension int
}

// DefaultOptions contains the default configuration options for the flat index.
var DefaultOptions = Options{
	Dimension: 384,
}

// Flat is a brute-force cosine index with copy-on-write state.
type Flat struct {
	state   atomic.Value // holds *flatState
	writeMu sync.Mutex   // serializes writes only
	opts    Options
}

// New creates a new flat index.
func New(optFns ...func(o *Options)) (*Flat, error) {
	opts := DefaultOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Dimension <= 0 {
		return nil, &ErrDimensionMismatch{Expected: 1, Actual: opts.Dimension}
	}

	f := &Flat{opts: opts}
	f.state.Store(&flatState{
		byID:   make(map[string]uint32),
		owners: make(map[string]*roaring.Bitmap),
	})

	return f, nil
}

// Dimension returns the configured vector dimensionality.
func (f *Flat) Dimension() int { return f.opts.Dimension }

// LoadFrom atomically replaces the contents of f with the contents of
// other. Searches in flight keep their snapshot; new searches see the
// replaced state. The caller must not mutate other afterwards.
func (f *Flat) LoadFrom(other *Flat) {
	f.writeMu.Lock()
	defer f.writeMu.Unlock()
	f.state.Store(other.getState())
}

func (f *Flat) getState() *flatState {
	return f.state.Load().(*flatState)
}

// cloneState creates a copy of the current state for copy-on-write.
// Bitmaps are shared; a writer must replace (not mutate) any bitmap it touches.
func (f *Flat) cloneState(st *flatState) *flatState {
	newRows := make([]*entry, len(st.rows))
	copy(newRows, st.rows)

	newByID := make(map[string]uint32, len(st.byID))
	for id, row := range st.byID {
		newByID[id] = row
	}

	newOwners := make(map[string]*roaring.Bitmap, len(st.owners))
	for owner, bm := range st.owners {
		newOwners[owner] = bm
	}

	return &flatState{rows: newRows, byID: newByID, owners: newOwners}
}

// Insert adds a vector under the given id and owner.
// It fails with ErrDuplicateID if the id is already present and with
// ErrDimensionMismatch if the vector has the wrong dimensionality.
func (f *Flat) Insert(ctx context.Context, id, owner string, v []float32) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if len(v) != f.opts.Dimension {
		return &ErrDimensionMismatch{Expected: f.opts.Dimension, Actual: len(v)}
	}

	f.writeMu.Lock()
	defer f.writeMu.Unlock()

	oldState := f.getState()
	if _, ok := oldState.byID[id]; ok {
		return &ErrDuplicateID{ID: id}
	}

	newState := f.cloneState(oldState)

	// Copy the vector so later changes by the caller don't reach the index.
	row := uint32(len(newState.rows))
	newState.rows = append(newState.rows, &entry{
		id:    id,
		owner: owner,
		vec:   slices.Clone(v),
		norm:  distance.Magnitude(v),
	})
	newState.byID[id] = row

	ownerRows := roaring.New()
	if prev, ok := newState.owners[owner]; ok {
		ownerRows.Or(prev)
	}
	ownerRows.Add(row)
	newState.owners[owner] = ownerRows

	f.state.Store(newState)

	return nil
}

// Remove deletes the vector stored under id. It fails with ErrNotFound if
// the id is absent. The freed row slot is never reused.
func (f *Flat) Remove(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f.writeMu.Lock()
	defer f.writeMu.Unlock()

	oldState := f.getState()
	row, ok := oldState.byID[id]
	if !ok {
		return &ErrNotFound{ID: id}
	}

	newState := f.cloneState(oldState)

	owner := newState.rows[row].owner
	newState.rows[row] = nil
	delete(newState.byID, id)

	if prev, ok := newState.owners[owner]; ok {
		ownerRows := prev.Clone()
		ownerRows.Remove(row)
		if ownerRows.IsEmpty() {
			delete(newState.owners, owner)
		} else {
			newState.owners[owner] = ownerRows
		}
	}

	f.state.Store(newState)

	return nil
}

// Contains reports whether id is currently indexed.
func (f *Flat) Contains(id string) bool {
	_, ok := f.getState().byID[id]
	return ok
}

// Len returns the number of vectors currently indexed.
func (f *Flat) Len() int {
	return len(f.getState().byID)
}

// Search returns the up to k nearest vectors to q by cosine distance,
// ordered ascending with ties broken by insertion order. With fewer than k
// eligible candidates it returns what exists, never an error. Owner
// restriction (opts.Owners) is applied before truncation to k.
func (f *Flat) Search(ctx context.Context, q []float32, k int, opts *SearchOptions) ([]SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if k <= 0 {
		return nil, ErrInvalidK
	}
	if len(q) != f.opts.Dimension {
		return nil, &ErrDimensionMismatch{Expected: f.opts.Dimension, Actual: len(q)}
	}

	st := f.getState()
	qNorm := distance.Magnitude(q)

	top := queue.NewTopK(k)

	consider := func(row uint32) {
		e := st.rows[row]
		if e == nil {
			return
		}
		top.Consider(queue.Item{
			Row:      row,
			Distance: distance.CosineWithNorms(q, e.vec, qNorm, e.norm),
		})
	}

	if opts != nil && opts.Owners != nil {
		allowed := roaring.New()
		for _, owner := range opts.Owners {
			if bm, ok := st.owners[owner]; ok {
				allowed.Or(bm)
			}
		}
		it := allowed.Iterator()
		for it.HasNext() {
			consider(it.Next())
		}
	} else {
		for row := range st.rows {
			consider(uint32(row))
		}
	}

	items := top.Drain()
	results := make([]SearchResult, len(items))
	for i, it := range items {
		results[i] = SearchResult{ID: st.rows[it.Row].id, Distance: it.Distance}
	}

	return results, nil
}
