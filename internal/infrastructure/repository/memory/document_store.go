package memory

import (
	"context"
	"sync"
)

// DocumentStore holds read documents as raw JSON in process memory.
type DocumentStore struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

func NewDocumentStore() *DocumentStore {
	return &DocumentStore{docs: map[string][]byte{}}
}

func (s *DocumentStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	raw, ok := s.docs[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(raw))
	copy(out, raw)
	return out, true, nil
}

func (s *DocumentStore) Put(_ context.Context, key string, doc []byte) error {
	stored := make([]byte, len(doc))
	copy(stored, doc)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.docs[key] = stored
	return nil
}

func (s *DocumentStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.docs, key)
	return nil
}

func (s *DocumentStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.docs = map[string][]byte{}
	return nil
}
