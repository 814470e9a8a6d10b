package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrRetryAbandoned = errors.New("retry abandoned")

type RetryState string

const (
	RetryStateIdle        RetryState = "idle"
	RetryStateFiring      RetryState = "firing"
	RetryStateBackoff     RetryState = "backoff"
	RetryStateRetryFiring RetryState = "retry_firing"
)

// RetryTransition is reported on every state change of a Retrier run.
// Err is set when the transition was caused by a failed attempt.
type RetryTransition struct {
	Name    string
	From    RetryState
	To      RetryState
	Attempt int
	Err     error
}

type RetryObserver func(ctx context.Context, transition RetryTransition)

type RetrierOption func(*Retrier)

func WithRetryObserver(observer RetryObserver) RetrierOption {
	return func(r *Retrier) {
		r.observer = observer
	}
}

func WithRetrySleep(sleep func(ctx context.Context, d time.Duration) error) RetrierOption {
	return func(r *Retrier) {
		if sleep != nil {
			r.sleep = sleep
		}
	}
}

// Retrier runs an action once and, on failure, retries it exactly once after
// a fixed backoff:
//
//	Idle -> Firing -> Idle                                  (success)
//	Idle -> Firing -> Backoff -> RetryFiring -> Idle        (success or abandon)
type Retrier struct {
	backoff  time.Duration
	observer RetryObserver
	sleep    func(ctx context.Context, d time.Duration) error
}

func NewRetrier(backoff time.Duration, opts ...RetrierOption) *Retrier {
	if backoff < 0 {
		backoff = 0
	}
	r := &Retrier{
		backoff: backoff,
		sleep:   SleepContext,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Retrier) Backoff() time.Duration {
	return r.backoff
}

// Do returns nil when either attempt succeeds. After two failures, or when the
// backoff is interrupted by ctx, it returns ErrRetryAbandoned wrapping the last
// attempt error.
func (r *Retrier) Do(ctx context.Context, name string, fn func(ctx context.Context, attempt int) error) error {
	state := RetryStateIdle
	move := func(to RetryState, attempt int, err error) {
		if r.observer != nil {
			r.observer(ctx, RetryTransition{Name: name, From: state, To: to, Attempt: attempt, Err: err})
		}
		state = to
	}

	move(RetryStateFiring, 1, nil)
	err := fn(ctx, 1)
	if err == nil {
		move(RetryStateIdle, 1, nil)
		return nil
	}

	move(RetryStateBackoff, 1, err)
	if sleepErr := r.sleep(ctx, r.backoff); sleepErr != nil {
		move(RetryStateIdle, 1, sleepErr)
		return fmt.Errorf("%w: %s interrupted during backoff: %w", ErrRetryAbandoned, name, err)
	}

	move(RetryStateRetryFiring, 2, nil)
	err = fn(ctx, 2)
	if err == nil {
		move(RetryStateIdle, 2, nil)
		return nil
	}

	move(RetryStateIdle, 2, err)
	return fmt.Errorf("%w: %s failed after retry: %w", ErrRetryAbandoned, name, err)
}

// SleepContext waits for d or until ctx is done.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
