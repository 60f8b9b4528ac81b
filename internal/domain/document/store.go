package document

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"
)

// Store holds read documents as raw JSON under deterministic keys. Documents
// are derived, disposable state: Clear wipes everything ahead of a full
// replay and nothing of value is lost.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, doc []byte) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// Load reads and decodes one document. The bool reports presence.
func Load[T any](ctx context.Context, store Store, key string) (T, bool, error) {
	var doc T
	raw, found, err := store.Get(ctx, key)
	if err != nil {
		return doc, false, fmt.Errorf("get document %s: %w", key, err)
	}
	if !found {
		return doc, false, nil
	}
	if err := sonic.Unmarshal(raw, &doc); err != nil {
		return doc, false, fmt.Errorf("decode document %s: %w", key, err)
	}
	return doc, true, nil
}

// Save encodes and writes one document, replacing any previous version.
func Save[T any](ctx context.Context, store Store, key string, doc T) error {
	raw, err := sonic.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document %s: %w", key, err)
	}
	if err := store.Put(ctx, key, raw); err != nil {
		return fmt.Errorf("put document %s: %w", key, err)
	}
	return nil
}

// Update loads a document, applies patch and saves the result. A missing
// document patches from its zero value, which makes every patch-style
// projection handler an upsert and therefore safe to replay.
func Update[T any](ctx context.Context, store Store, key string, patch func(doc T) (T, error)) error {
	doc, _, err := Load[T](ctx, store, key)
	if err != nil {
		return err
	}
	next, err := patch(doc)
	if err != nil {
		return fmt.Errorf("patch document %s: %w", key, err)
	}
	return Save(ctx, store, key, next)
}
