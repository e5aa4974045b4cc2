// Package docstore is the thin adapter between domain operations and the
// schema-less document store. It knows about collections and records, never
// about meals or recipes.
package docstore

import (
	"context"
	"errors"
	"time"
)

// Collection names used by the application.
const (
	CalendarCollection = "calendar"
	RecipesCollection  = "recipes"
)

// Server-assigned timestamp fields. Callers never set these.
const (
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"
)

// TimestampLayout is the wire format of every timestamp the store assigns.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

var (
	// ErrStoreUnavailable reports a transport or storage failure.
	ErrStoreUnavailable = errors.New("document store unavailable")
	// ErrWriteRejected reports a write the store refused.
	ErrWriteRejected = errors.New("document write rejected")
	// ErrNotFound reports a patch against an id that does not exist.
	ErrNotFound = errors.New("document not found")
)

// Record is an untyped document body.
type Record map[string]any

// Document is a record plus the id the store assigned to it.
type Document struct {
	ID   string
	Data Record
}

// Store is the capability the rest of the application needs from the
// document database.
type Store interface {
	// FetchAll returns every document of a collection, unfiltered.
	FetchAll(ctx context.Context, collection string) ([]Document, error)
	// Insert stores a new document and returns its id. The store stamps createdAt.
	Insert(ctx context.Context, collection string, rec Record) (string, error)
	// Patch merges fields into an existing document. The store stamps updatedAt.
	Patch(ctx context.Context, collection, id string, fields Record) error
	// FetchOne returns nil, nil when the id does not resolve.
	FetchOne(ctx context.Context, collection, id string) (*Document, error)
}

var knownCollections = map[string]struct{}{
	CalendarCollection: {},
	RecipesCollection:  {},
}

func validCollection(name string) bool {
	_, ok := knownCollections[name]
	return ok
}

// withoutServerFields copies rec, dropping fields only the store may assign.
func withoutServerFields(rec Record) Record {
	out := make(Record, len(rec))
	for k, v := range rec {
		if k == FieldCreatedAt || k == FieldUpdatedAt {
			continue
		}
		out[k] = v
	}
	return out
}

// ParseTimestamp reads a store-assigned timestamp field, returning the zero
// time when the field is absent or malformed.
func ParseTimestamp(rec Record, field string) time.Time {
	s, _ := rec[field].(string)
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
