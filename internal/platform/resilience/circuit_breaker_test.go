package resilience

import (
	"errors"
	"testing"
	"time"
)

func TestCircuitBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	t.Parallel()

	b := NewCircuitBreaker(3, 15*time.Second, 1)

	for i := 0; i < 2; i++ {
		if err := b.Allow(); err != nil {
			t.Fatalf("call %d refused: %v", i, err)
		}
		b.RecordFailure()
	}
	if got := b.State(); got != CircuitStateClosed {
		t.Fatalf("state after 2 failures = %s, want %s", got, CircuitStateClosed)
	}

	if err := b.Allow(); err != nil {
		t.Fatalf("third call refused: %v", err)
	}
	b.RecordFailure()

	if got := b.State(); got != CircuitStateOpen {
		t.Fatalf("state after 3 failures = %s, want %s", got, CircuitStateOpen)
	}
	if err := b.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("Allow while open = %v, want ErrCircuitOpen", err)
	}
}

func TestCircuitBreaker_SuccessBreaksFailureRun(t *testing.T) {
	t.Parallel()

	b := NewCircuitBreaker(2, 15*time.Second, 1)

	b.RecordFailure()
	b.RecordSuccess()
	b.RecordFailure()

	if got := b.State(); got != CircuitStateClosed {
		t.Fatalf("state = %s, want %s", got, CircuitStateClosed)
	}
	if err := b.Allow(); err != nil {
		t.Fatalf("Allow = %v, want nil", err)
	}
}

func TestCircuitBreaker_HalfOpenProbesThenCloses(t *testing.T) {
	t.Parallel()

	b := NewCircuitBreaker(1, 10*time.Second, 2)
	current := time.Unix(1700000000, 0)
	b.clock = func() time.Time { return current }

	b.RecordFailure()
	if got := b.State(); got != CircuitStateOpen {
		t.Fatalf("state after trip = %s, want %s", got, CircuitStateOpen)
	}
	if err := b.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("Allow while cooling = %v, want ErrCircuitOpen", err)
	}

	current = current.Add(11 * time.Second)
	if got := b.State(); got != CircuitStateHalfOpen {
		t.Fatalf("state after cooldown = %s, want %s", got, CircuitStateHalfOpen)
	}

	if err := b.Allow(); err != nil {
		t.Fatalf("first probe refused: %v", err)
	}
	if err := b.Allow(); err != nil {
		t.Fatalf("second probe refused: %v", err)
	}
	if err := b.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("probe beyond budget = %v, want ErrCircuitOpen", err)
	}

	b.RecordSuccess()
	b.RecordSuccess()
	if got := b.State(); got != CircuitStateClosed {
		t.Fatalf("state after successful probes = %s, want %s", got, CircuitStateClosed)
	}
	if err := b.Allow(); err != nil {
		t.Fatalf("Allow after close = %v, want nil", err)
	}
}

func TestCircuitBreaker_FailedProbeReopens(t *testing.T) {
	t.Parallel()

	b := NewCircuitBreaker(1, 10*time.Second, 1)
	current := time.Unix(1700000000, 0)
	b.clock = func() time.Time { return current }

	b.RecordFailure()
	current = current.Add(10 * time.Second)

	if err := b.Allow(); err != nil {
		t.Fatalf("probe refused: %v", err)
	}
	b.RecordFailure()

	if got := b.State(); got != CircuitStateOpen {
		t.Fatalf("state after failed probe = %s, want %s", got, CircuitStateOpen)
	}
	if err := b.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("Allow after reopen = %v, want ErrCircuitOpen", err)
	}
}

func TestNewCircuitBreaker_ClampsConfig(t *testing.T) {
	t.Parallel()

	b := NewCircuitBreaker(0, -time.Second, 0)

	b.RecordFailure()
	if got := b.State(); got != CircuitStateOpen {
		t.Fatalf("state after single failure = %s, want %s (threshold clamped to 1)", got, CircuitStateOpen)
	}
}
