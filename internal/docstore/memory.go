package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Op names a store operation for failure injection.
type Op string

const (
	OpFetchAll Op = "fetchAll"
	OpInsert   Op = "insert"
	OpPatch    Op = "patch"
	OpFetchOne Op = "fetchOne"
)

// MemoryStore is an in-process Store. Records are round-tripped through JSON
// so callers see the same value types the SQLite store produces.
type MemoryStore struct {
	mu       sync.Mutex
	docs     map[string][]Document
	failures map[Op]error
	now      func() time.Time

	// BeforeWrite, when set, runs before every Insert and Patch is applied,
	// outside the store lock.
	BeforeWrite func(op Op, collection, id string)
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs:     make(map[string][]Document),
		failures: make(map[Op]error),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the store's clock.
func (m *MemoryStore) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// FailOn makes every subsequent call of op return err. A nil err clears it.
func (m *MemoryStore) FailOn(op Op, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failures, op)
		return
	}
	m.failures[op] = err
}

func (m *MemoryStore) failure(op Op) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.failures[op]
}

func (m *MemoryStore) FetchAll(_ context.Context, collection string) ([]Document, error) {
	if err := m.failure(OpFetchAll); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Document, 0, len(m.docs[collection]))
	for _, d := range m.docs[collection] {
		out = append(out, Document{ID: d.ID, Data: cloneRecord(d.Data)})
	}
	return out, nil
}

func (m *MemoryStore) Insert(_ context.Context, collection string, rec Record) (string, error) {
	if !validCollection(collection) {
		return "", fmt.Errorf("unknown collection %q: %w", collection, ErrWriteRejected)
	}
	data, err := roundTrip(withoutServerFields(rec))
	if err != nil {
		return "", fmt.Errorf("failed to marshal document: %w: %v", ErrWriteRejected, err)
	}
	id := uuid.NewString()
	if m.BeforeWrite != nil {
		m.BeforeWrite(OpInsert, collection, id)
	}
	if err := m.failure(OpInsert); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	data[FieldCreatedAt] = m.now().Format(TimestampLayout)
	m.docs[collection] = append(m.docs[collection], Document{ID: id, Data: data})
	return id, nil
}

func (m *MemoryStore) Patch(_ context.Context, collection, id string, fields Record) error {
	if !validCollection(collection) {
		return fmt.Errorf("unknown collection %q: %w", collection, ErrWriteRejected)
	}
	patch, err := roundTrip(withoutServerFields(fields))
	if err != nil {
		return fmt.Errorf("failed to marshal patch: %w: %v", ErrWriteRejected, err)
	}
	if m.BeforeWrite != nil {
		m.BeforeWrite(OpPatch, collection, id)
	}
	if err := m.failure(OpPatch); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for i, d := range m.docs[collection] {
		if d.ID != id {
			continue
		}
		for k, v := range patch {
			d.Data[k] = v
		}
		d.Data[FieldUpdatedAt] = m.now().Format(TimestampLayout)
		m.docs[collection][i] = d
		return nil
	}
	return fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
}

func (m *MemoryStore) FetchOne(_ context.Context, collection, id string) (*Document, error) {
	if err := m.failure(OpFetchOne); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, d := range m.docs[collection] {
		if d.ID == id {
			return &Document{ID: d.ID, Data: cloneRecord(d.Data)}, nil
		}
	}
	return nil, nil
}

func roundTrip(rec Record) (Record, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	out := Record{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func cloneRecord(rec Record) Record {
	out, err := roundTrip(rec)
	if err != nil {
		// Stored records were produced by roundTrip, so they always re-encode.
		panic(err)
	}
	return out
}
