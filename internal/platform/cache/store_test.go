package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestStore_GetOrLoad_CollapsesConcurrentMisses(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	var loads atomic.Int32

	loader := func(context.Context) (any, error) {
		loads.Add(1)
		time.Sleep(20 * time.Millisecond)
		return "league table", nil
	}

	const readers = 32
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			v, err := store.GetOrLoad(context.Background(), "doc:table:global:season", loader)
			if err != nil {
				t.Errorf("GetOrLoad: %v", err)
				return
			}
			if got, _ := v.(string); got != "league table" {
				t.Errorf("GetOrLoad = %v, want league table", v)
			}
		}()
	}

	close(start)
	wg.Wait()

	if got := loads.Load(); got != 1 {
		t.Fatalf("loader ran %d times, want 1", got)
	}
}

func TestStore_GetOrLoad_ServesCachedValue(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	var loads atomic.Int32

	loader := func(context.Context) (any, error) {
		loads.Add(1)
		return "cached", nil
	}

	for i := 0; i < 2; i++ {
		if _, err := store.GetOrLoad(context.Background(), "doc:summary:alice:gw:1", loader); err != nil {
			t.Fatalf("GetOrLoad %d: %v", i, err)
		}
	}

	if got := loads.Load(); got != 1 {
		t.Fatalf("loader ran %d times, want 1", got)
	}
}

func TestStore_GetOrLoad_DoesNotCacheLoaderError(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	loadErr := errors.New("store unavailable")
	var loads atomic.Int32

	failing := func(context.Context) (any, error) {
		loads.Add(1)
		return nil, loadErr
	}

	if _, err := store.GetOrLoad(context.Background(), "doc:table:office:season", failing); !errors.Is(err, loadErr) {
		t.Fatalf("first GetOrLoad = %v, want %v", err, loadErr)
	}

	v, err := store.GetOrLoad(context.Background(), "doc:table:office:season", func(context.Context) (any, error) {
		loads.Add(1)
		return "recovered", nil
	})
	if err != nil {
		t.Fatalf("second GetOrLoad: %v", err)
	}
	if v != "recovered" {
		t.Fatalf("second GetOrLoad = %v, want recovered", v)
	}
	if got := loads.Load(); got != 2 {
		t.Fatalf("loader ran %d times, want 2", got)
	}
}

func TestStore_ExpiredEntryMisses(t *testing.T) {
	t.Parallel()

	store := NewStore(10 * time.Millisecond)
	store.Set(context.Background(), "doc:table:global:gw:3", "stale")

	time.Sleep(30 * time.Millisecond)

	if _, ok := store.Get(context.Background(), "doc:table:global:gw:3"); ok {
		t.Fatal("expired entry still served")
	}
}

func TestStore_ZeroTTLKeepsEntries(t *testing.T) {
	t.Parallel()

	store := NewStore(0)
	store.Set(context.Background(), "doc:history:office", "winners")

	v, ok := store.Get(context.Background(), "doc:history:office")
	if !ok || v != "winners" {
		t.Fatalf("Get = %v, %v; want winners, true", v, ok)
	}
}

func TestStore_DeletePrefix(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	ctx := context.Background()
	store.Set(ctx, "doc:table:global:season", 1)
	store.Set(ctx, "doc:table:office:season", 2)
	store.Set(ctx, "session:alice", 3)

	store.DeletePrefix(ctx, "doc:")

	if _, ok := store.Get(ctx, "doc:table:global:season"); ok {
		t.Fatal("prefixed entry survived DeletePrefix")
	}
	if _, ok := store.Get(ctx, "doc:table:office:season"); ok {
		t.Fatal("prefixed entry survived DeletePrefix")
	}
	if _, ok := store.Get(ctx, "session:alice"); !ok {
		t.Fatal("unrelated entry was deleted")
	}
}
