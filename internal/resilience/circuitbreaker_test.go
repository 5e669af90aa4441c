package resilience

import (
	"errors"
	"testing"
	"time"
)

var errProvider = errors.New("provider exploded")

func newTestBreaker(maxFailures int, reset time.Duration, probes int) *CircuitBreaker {
	return NewCircuitBreaker(CircuitBreakerConfig{
		Name:         "test",
		MaxFailures:  maxFailures,
		ResetTimeout: reset,
		HalfOpenMax:  probes,
	})
}

func failN(cb *CircuitBreaker, n int) {
	for i := 0; i < n; i++ {
		_ = cb.Execute(func() error { return errProvider })
	}
}

func TestCircuitBreaker_ClosedPassthrough(t *testing.T) {
	cb := newTestBreaker(3, time.Hour, 3)
	if got := cb.State(); got != StateClosed {
		t.Fatalf("initial state = %v, want closed", got)
	}

	called := false
	if err := cb.Execute(func() error { called = true; return nil }); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !called {
		t.Fatal("closed breaker did not invoke the call")
	}
}

func TestCircuitBreaker_OpensAfterMaxFailures(t *testing.T) {
	cb := newTestBreaker(3, time.Hour, 3)
	failN(cb, 3)

	if got := cb.State(); got != StateOpen {
		t.Fatalf("state = %v, want open after 3 failures", got)
	}
	err := cb.Execute(func() error {
		t.Fatal("open breaker invoked the call")
		return nil
	})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("Execute() error = %v, want ErrCircuitOpen", err)
	}
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	cb := newTestBreaker(3, time.Hour, 3)

	failN(cb, 2)
	_ = cb.Execute(func() error { return nil })
	if got := cb.State(); got != StateClosed {
		t.Fatalf("state = %v, want closed after recovery", got)
	}

	// Two more failures after the reset must not trip a 3-failure breaker.
	failN(cb, 2)
	if got := cb.State(); got != StateClosed {
		t.Fatalf("state = %v, want closed at 2 of 3 failures", got)
	}
}

func TestCircuitBreaker_HalfOpenAfterResetTimeout(t *testing.T) {
	cb := newTestBreaker(2, 10*time.Millisecond, 2)
	failN(cb, 2)
	if got := cb.State(); got != StateOpen {
		t.Fatalf("state = %v, want open", got)
	}

	time.Sleep(20 * time.Millisecond)
	if got := cb.State(); got != StateHalfOpen {
		t.Fatalf("state = %v, want half-open after reset timeout", got)
	}
}

func TestCircuitBreaker_ClosesAfterSuccessfulProbes(t *testing.T) {
	cb := newTestBreaker(2, 10*time.Millisecond, 2)
	failN(cb, 2)
	time.Sleep(20 * time.Millisecond)

	for i := 0; i < 2; i++ {
		if err := cb.Execute(func() error { return nil }); err != nil {
			t.Fatalf("probe %d error = %v", i, err)
		}
	}
	if got := cb.State(); got != StateClosed {
		t.Fatalf("state = %v, want closed after successful probes", got)
	}
}

func TestCircuitBreaker_ReopensOnProbeFailure(t *testing.T) {
	cb := newTestBreaker(2, 10*time.Millisecond, 3)
	failN(cb, 2)
	time.Sleep(20 * time.Millisecond)

	if err := cb.Execute(func() error { return errProvider }); !errors.Is(err, errProvider) {
		t.Fatalf("probe error = %v, want provider error", err)
	}
	if got := cb.State(); got != StateOpen {
		t.Fatalf("state = %v, want open after failed probe", got)
	}
	if err := cb.Execute(func() error { return nil }); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("Execute() error = %v, want ErrCircuitOpen", err)
	}
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb := newTestBreaker(2, time.Hour, 3)
	failN(cb, 2)
	if got := cb.State(); got != StateOpen {
		t.Fatalf("state = %v, want open", got)
	}

	cb.Reset()
	if got := cb.State(); got != StateClosed {
		t.Fatalf("state = %v, want closed after Reset", got)
	}
	if err := cb.Execute(func() error { return nil }); err != nil {
		t.Fatalf("Execute() after Reset error = %v", err)
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateClosed, "closed"},
		{StateOpen, "open"},
		{StateHalfOpen, "half-open"},
		{State(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
