package mangadex

import (
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// retryPolicy bounds a single logical request: a capped exponential schedule
// and a total wall-clock budget, after which the last transient error is
// surfaced to the caller.
type retryPolicy struct {
	InitialInterval time.Duration
	Multiplier      float64
	MaxInterval     time.Duration
	MaxElapsedTime  time.Duration
}

func defaultRetryPolicy() retryPolicy {
	return retryPolicy{
		InitialInterval: 100 * time.Millisecond,
		Multiplier:      2.0,
		MaxInterval:     5 * time.Second,
		MaxElapsedTime:  30 * time.Second,
	}
}

// runWithRetry executes op until it succeeds, fails permanently, or the
// wall-clock budget runs out. Error classification travels in the error
// chain: backoff.Permanent stops immediately, a wrapped
// *backoff.RetryAfterError replaces the computed delay with the upstream's
// suggested wait, anything else retries on the exponential schedule.
//
// sleep and now are injectable so tests can drive the schedule with a
// deterministic clock. A package-level function because methods cannot be
// generic.
func runWithRetry[T any](op func() (T, error), p retryPolicy, sleep func(time.Duration), now func() time.Time) (T, error) {
	sched := &backoff.ExponentialBackOff{
		InitialInterval:     p.InitialInterval,
		RandomizationFactor: 0,
		Multiplier:          p.Multiplier,
		MaxInterval:         p.MaxInterval,
	}
	sched.Reset()

	start := now()
	var zero T
	for {
		v, err := op()
		if err == nil {
			return v, nil
		}

		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			return zero, perm.Unwrap()
		}

		// Budget check happens before sleeping so the last transient error
		// is returned rather than swallowed.
		if now().Sub(start) >= p.MaxElapsedTime {
			return zero, err
		}

		delay := sched.NextBackOff()
		var ra *backoff.RetryAfterError
		if errors.As(err, &ra) {
			delay = ra.Duration
		}
		sleep(delay)
	}
}
