package cache

import (
	"bytes"
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/riskibarqy/predictions-league/internal/domain/document"
	basecache "github.com/riskibarqy/predictions-league/internal/platform/cache"
)

func TestDocumentStore_Get_CachesUnderlyingReads(t *testing.T) {
	t.Parallel()

	inner := newCountingDocumentStore()
	store := NewDocumentStore(inner, basecache.NewStore(time.Minute))
	ctx := context.Background()

	if err := inner.Put(ctx, "table:global:season", []byte(`{"rows":[]}`)); err != nil {
		t.Fatalf("seed document: %v", err)
	}

	for i := 0; i < 3; i++ {
		doc, ok, err := store.Get(ctx, "table:global:season")
		if err != nil {
			t.Fatalf("get %d: %v", i, err)
		}
		if !ok {
			t.Fatalf("get %d: document missing", i)
		}
		if !bytes.Equal(doc, []byte(`{"rows":[]}`)) {
			t.Fatalf("get %d: unexpected document %s", i, doc)
		}
	}

	if got := inner.getCalls(); got != 1 {
		t.Fatalf("underlying store read %d times, want 1", got)
	}
}

func TestDocumentStore_Get_CachesMisses(t *testing.T) {
	t.Parallel()

	inner := newCountingDocumentStore()
	store := NewDocumentStore(inner, basecache.NewStore(time.Minute))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, ok, err := store.Get(ctx, "matrix:global:9")
		if err != nil {
			t.Fatalf("get %d: %v", i, err)
		}
		if ok {
			t.Fatalf("get %d: expected missing document", i)
		}
	}

	if got := inner.getCalls(); got != 1 {
		t.Fatalf("underlying store read %d times, want 1", got)
	}
}

func TestDocumentStore_Put_InvalidatesCachedDocument(t *testing.T) {
	t.Parallel()

	inner := newCountingDocumentStore()
	store := NewDocumentStore(inner, basecache.NewStore(time.Minute))
	ctx := context.Background()

	if err := store.Put(ctx, "history:global", []byte(`{"winners":[]}`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, _, err := store.Get(ctx, "history:global"); err != nil {
		t.Fatalf("warm get: %v", err)
	}

	if err := store.Put(ctx, "history:global", []byte(`{"winners":[{"playerId":"p1"}]}`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	doc, ok, err := store.Get(ctx, "history:global")
	if err != nil {
		t.Fatalf("get after put: %v", err)
	}
	if !ok {
		t.Fatalf("document missing after put")
	}
	if !bytes.Contains(doc, []byte("p1")) {
		t.Fatalf("stale document served after put: %s", doc)
	}
}

func TestDocumentStore_Clear_DropsCachedEntries(t *testing.T) {
	t.Parallel()

	inner := newCountingDocumentStore()
	store := NewDocumentStore(inner, basecache.NewStore(time.Minute))
	ctx := context.Background()

	if err := store.Put(ctx, "summary:p1:set1", []byte(`{}`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, _, err := store.Get(ctx, "summary:p1:set1"); err != nil {
		t.Fatalf("warm get: %v", err)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}

	_, ok, err := store.Get(ctx, "summary:p1:set1")
	if err != nil {
		t.Fatalf("get after clear: %v", err)
	}
	if ok {
		t.Fatalf("document survived clear")
	}
}

type countingDocumentStore struct {
	mu   sync.Mutex
	docs map[string][]byte
	gets atomic.Int32
}

var _ document.Store = (*countingDocumentStore)(nil)

func newCountingDocumentStore() *countingDocumentStore {
	return &countingDocumentStore{docs: map[string][]byte{}}
}

func (s *countingDocumentStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.gets.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), doc...), true, nil
}

func (s *countingDocumentStore) Put(_ context.Context, key string, doc []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.docs[key] = append([]byte(nil), doc...)
	return nil
}

func (s *countingDocumentStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.docs, key)
	return nil
}

func (s *countingDocumentStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.docs = map[string][]byte{}
	return nil
}

func (s *countingDocumentStore) getCalls() int32 {
	return s.gets.Load()
}
