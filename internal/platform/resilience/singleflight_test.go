package resilience

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestSingleFlight_CollapsesConcurrentLoads(t *testing.T) {
	t.Parallel()

	var g SingleFlight
	var executions atomic.Int32
	entered := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		val, err, shared := g.Do("doc:table:global:season", func() (any, error) {
			executions.Add(1)
			close(entered)
			time.Sleep(50 * time.Millisecond)
			return "league table", nil
		})
		if err != nil {
			t.Errorf("leader err = %v", err)
		}
		if val != "league table" {
			t.Errorf("leader val = %v, want league table", val)
		}
		if shared {
			t.Error("leader reported a shared result")
		}
	}()

	<-entered
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			val, err, shared := g.Do("doc:table:global:season", func() (any, error) {
				executions.Add(1)
				return "should not run", nil
			})
			if err != nil {
				t.Errorf("follower err = %v", err)
			}
			if val != "league table" {
				t.Errorf("follower val = %v, want leader's result", val)
			}
			if !shared {
				t.Error("follower did not report a shared result")
			}
		}()
	}
	wg.Wait()

	if got := executions.Load(); got != 1 {
		t.Fatalf("executions = %d, want 1", got)
	}
}

func TestSingleFlight_SequentialCallsRunIndependently(t *testing.T) {
	t.Parallel()

	var g SingleFlight
	for i := 0; i < 2; i++ {
		val, err, shared := g.Do("doc:summary:alice", func() (any, error) {
			return i, nil
		})
		if err != nil {
			t.Fatalf("call %d err = %v", i, err)
		}
		if val != i {
			t.Fatalf("call %d val = %v, want %d", i, val, i)
		}
		if shared {
			t.Fatalf("call %d reported a shared result", i)
		}
	}
}

func TestSingleFlight_PropagatesError(t *testing.T) {
	t.Parallel()

	var g SingleFlight
	loadErr := errors.New("store unavailable")

	val, err, shared := g.Do("doc:table:office:gw:3", func() (any, error) {
		return nil, loadErr
	})
	if !errors.Is(err, loadErr) {
		t.Fatalf("err = %v, want %v", err, loadErr)
	}
	if val != nil {
		t.Fatalf("val = %v, want nil", val)
	}
	if shared {
		t.Fatal("single call reported a shared result")
	}
}
