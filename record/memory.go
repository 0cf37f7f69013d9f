package record

import (
	"context"
	"sync"
)

// Compile-time check to ensure MemoryStore satisfies the Store interface.
var _ Store = (*MemoryStore)(nil)

// MemoryStore is an in-memory implementation of Store using a Go map.
// It is suitable for datasets that fit in memory and provides O(1) access.
// An insertion-order list backs ListByOwner and ForEach.
type MemoryStore struct {
	mu        sync.RWMutex
	dimension int
	data      map[string]*Record
	order     []string // ids in insertion order; stale entries are skipped
}

// NewMemoryStore creates a new in-memory record store enforcing the given
// vector dimensionality.
func NewMemoryStore(dimension int) *MemoryStore {
	return &MemoryStore{
		dimension: dimension,
		data:      make(map[string]*Record),
	}
}

// Dimension returns the enforced vector dimensionality.
func (m *MemoryStore) Dimension() int { return m.dimension }

// Put inserts a new record.
func (m *MemoryStore) Put(_ context.Context, r *Record) error {
	if len(r.Vector) != m.dimension {
		return &ErrDimensionMismatch{Expected: m.dimension, Actual: len(r.Vector)}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.data[r.ID]; ok {
		return ErrDuplicateID
	}

	m.data[r.ID] = r.Clone()
	m.order = append(m.order, r.ID)

	return nil
}

// Get retrieves the record for the given id.
func (m *MemoryStore) Get(_ context.Context, id string) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.data[id]
	if !ok {
		return nil, ErrNotFound
	}

	return r.Clone(), nil
}

// Delete removes the record for id after verifying ownership.
func (m *MemoryStore) Delete(_ context.Context, id, ownerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.data[id]
	if !ok {
		return ErrNotFound
	}
	if r.OwnerID != ownerID {
		return ErrNotOwner
	}

	delete(m.data, id)
	// The order slice keeps the stale id; iteration skips ids that no
	// longer resolve. Ids are never reused, so no collision can occur.

	return nil
}

// ListByOwner returns all records of the owner in insertion order.
func (m *MemoryStore) ListByOwner(_ context.Context, ownerID string) ([]*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var records []*Record
	for _, id := range m.order {
		if r, ok := m.data[id]; ok && r.OwnerID == ownerID {
			records = append(records, r.Clone())
		}
	}

	return records, nil
}

// Hydrate batch-fetches records, omitting ids with no match.
func (m *MemoryStore) Hydrate(_ context.Context, ids []string) ([]*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := make([]*Record, 0, len(ids))
	for _, id := range ids {
		if r, ok := m.data[id]; ok {
			records = append(records, r.Clone())
		}
	}

	return records, nil
}

// ForEach visits every record in insertion order.
func (m *MemoryStore) ForEach(ctx context.Context, fn func(*Record) error) error {
	m.mu.RLock()
	// Snapshot under the read lock so fn runs without holding it.
	records := make([]*Record, 0, len(m.data))
	for _, id := range m.order {
		if r, ok := m.data[id]; ok {
			records = append(records, r.Clone())
		}
	}
	m.mu.RUnlock()

	for _, r := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(r); err != nil {
			return err
		}
	}

	return nil
}

// Len returns the number of stored records.
func (m *MemoryStore) Len(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.data), nil
}
