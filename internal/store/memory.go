package store

import (
	"sync"

	"relvault/internal/model"
	"relvault/internal/release"
)

// MemoryStore is an in-memory implementation of release.Store, useful
// for testing. Safe for concurrent use.
type MemoryStore struct {
	mu  sync.Mutex
	doc *model.Document

	// SaveErr, when set, is returned by the next Save calls.
	// Lets tests exercise the rollback-on-failed-save path.
	SaveErr error
}

// NewMemoryStore creates an empty memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns a copy of the stored document, or a seeded one if
// nothing was saved yet.
func (m *MemoryStore) Load() (*model.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.doc == nil {
		return Seed()
	}
	return m.doc.Clone(), nil
}

// Save stores a copy of the document.
func (m *MemoryStore) Save(doc *model.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.doc = doc.Clone()
	return nil
}

// Compile-time check that MemoryStore implements release.Store.
var _ release.Store = (*MemoryStore)(nil)
