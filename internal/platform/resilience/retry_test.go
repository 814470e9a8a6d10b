package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func recordTransitions(dst *[]RetryTransition) RetrierOption {
	return WithRetryObserver(func(_ context.Context, tr RetryTransition) {
		*dst = append(*dst, tr)
	})
}

func noSleep(slept *[]time.Duration) RetrierOption {
	return WithRetrySleep(func(_ context.Context, d time.Duration) error {
		*slept = append(*slept, d)
		return nil
	})
}

func TestRetrier_SuccessOnFirstAttempt(t *testing.T) {
	t.Parallel()

	var transitions []RetryTransition
	var slept []time.Duration
	r := NewRetrier(120*time.Second, recordTransitions(&transitions), noSleep(&slept))

	calls := 0
	err := r.Do(context.Background(), "reminder", func(context.Context, int) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected one call, got %d", calls)
	}
	if len(slept) != 0 {
		t.Fatalf("must not back off on success")
	}
	want := []RetryState{RetryStateFiring, RetryStateIdle}
	assertStates(t, transitions, want)
}

func TestRetrier_RetriesOnceAfterBackoff(t *testing.T) {
	t.Parallel()

	var transitions []RetryTransition
	var slept []time.Duration
	r := NewRetrier(120*time.Second, recordTransitions(&transitions), noSleep(&slept))

	attempts := make([]int, 0, 2)
	err := r.Do(context.Background(), "week-refresh", func(_ context.Context, attempt int) error {
		attempts = append(attempts, attempt)
		if attempt == 1 {
			return errors.New("sheet quota")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected retry to recover, got %v", err)
	}
	if len(attempts) != 2 || attempts[0] != 1 || attempts[1] != 2 {
		t.Fatalf("unexpected attempts: %v", attempts)
	}
	if len(slept) != 1 || slept[0] != 120*time.Second {
		t.Fatalf("expected a single 120s backoff, got %v", slept)
	}
	assertStates(t, transitions, []RetryState{RetryStateFiring, RetryStateBackoff, RetryStateRetryFiring, RetryStateIdle})
}

func TestRetrier_AbandonsAfterSecondFailure(t *testing.T) {
	t.Parallel()

	var slept []time.Duration
	r := NewRetrier(time.Minute, noSleep(&slept))

	cause := errors.New("seed api down")
	calls := 0
	err := r.Do(context.Background(), "week-refresh", func(context.Context, int) error {
		calls++
		return cause
	})
	if !errors.Is(err, ErrRetryAbandoned) {
		t.Fatalf("expected ErrRetryAbandoned, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be wrapped, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected exactly two attempts, got %d", calls)
	}
}

func TestRetrier_BackoffHonorsCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRetrier(time.Hour)
	calls := 0
	err := r.Do(ctx, "reminder", func(context.Context, int) error {
		calls++
		return errors.New("boom")
	})
	if !errors.Is(err, ErrRetryAbandoned) {
		t.Fatalf("expected abandon on cancelled backoff, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("retry must not fire after cancellation, got %d calls", calls)
	}
}

func assertStates(t *testing.T, transitions []RetryTransition, want []RetryState) {
	t.Helper()
	if len(transitions) != len(want) {
		t.Fatalf("unexpected transition count: got=%d want=%d (%+v)", len(transitions), len(want), transitions)
	}
	for i, tr := range transitions {
		if tr.To != want[i] {
			t.Fatalf("transition %d: got=%s want=%s", i, tr.To, want[i])
		}
	}
}

func TestSleepContext(t *testing.T) {
	t.Parallel()

	if err := SleepContext(context.Background(), time.Millisecond); err != nil {
		t.Fatalf("sleep: %v", err)
	}
	if err := SleepContext(context.Background(), 0); err != nil {
		t.Fatalf("zero sleep on live context: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := SleepContext(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
