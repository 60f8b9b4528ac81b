package cache

import (
	"context"

	"github.com/riskibarqy/predictions-league/internal/domain/document"
	basecache "github.com/riskibarqy/predictions-league/internal/platform/cache"
)

const documentKeyPrefix = "doc:"

// DocumentStore decorates a document.Store with a TTL read cache. Writes go
// straight through and invalidate, so readers see a projection update after
// at most one cache miss.
type DocumentStore struct {
	next  document.Store
	cache *basecache.Store
}

func NewDocumentStore(next document.Store, cache *basecache.Store) *DocumentStore {
	return &DocumentStore{next: next, cache: cache}
}

func (s *DocumentStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := s.cache.GetOrLoad(ctx, documentKeyPrefix+key, func(ctx context.Context) (any, error) {
		doc, exists, err := s.next.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		return cachedDocument{
			doc:    append([]byte(nil), doc...),
			exists: exists,
		}, nil
	})
	if err != nil {
		return nil, false, err
	}

	cached, _ := v.(cachedDocument)
	return append([]byte(nil), cached.doc...), cached.exists, nil
}

func (s *DocumentStore) Put(ctx context.Context, key string, doc []byte) error {
	if err := s.next.Put(ctx, key, doc); err != nil {
		return err
	}
	s.cache.Delete(ctx, documentKeyPrefix+key)
	return nil
}

func (s *DocumentStore) Delete(ctx context.Context, key string) error {
	if err := s.next.Delete(ctx, key); err != nil {
		return err
	}
	s.cache.Delete(ctx, documentKeyPrefix+key)
	return nil
}

func (s *DocumentStore) Clear(ctx context.Context) error {
	if err := s.next.Clear(ctx); err != nil {
		return err
	}
	s.cache.DeletePrefix(ctx, documentKeyPrefix)
	return nil
}

type cachedDocument struct {
	doc    []byte
	exists bool
}
