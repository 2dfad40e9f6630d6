package retry

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/prakit/supplyline/agent/remote"
	"github.com/prakit/supplyline/pkg/metrics"
)

// Policy bounds a retry loop. A call makes at most MaxRetries+1 attempts;
// the delay before attempt n (n>=2) is BaseDelay*2^(n-2), jittered by up to
// +/- Jitter fraction.
type Policy struct {
	MaxRetries int
	BaseDelay  time.Duration
	Jitter     float64
}

func DefaultPolicy() Policy {
	return Policy{
		MaxRetries: 2,
		BaseDelay:  200 * time.Millisecond,
		Jitter:     0.2,
	}
}

// ExhaustedError reports that every attempt failed transiently. It carries
// the last underlying failure.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("retries exhausted after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Last
}

// Do executes op under the policy and reports how many attempts it made.
// Only transient failures consume retries; permanent failures and
// cancellations propagate immediately. The executor is stateless.
func Do(ctx context.Context, p Policy, op func(ctx context.Context) error) (int, error) {
	maxAttempts := p.MaxRetries + 1
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			metrics.RetryAttempts.Inc()
		}

		err := op(ctx)
		if err == nil {
			return attempt, nil
		}
		lastErr = err

		switch remote.KindOf(err) {
		case remote.KindCancelled:
			return attempt, err
		case remote.KindTransient:
			// fall through to backoff
		default:
			return attempt, err
		}

		if attempt == maxAttempts {
			return attempt, &ExhaustedError{Attempts: attempt, Last: lastErr}
		}

		select {
		case <-time.After(backoff(p, attempt)):
		case <-ctx.Done():
			return attempt, remote.Cancelled("retry", ctx.Err())
		}
	}
	return maxAttempts, &ExhaustedError{Attempts: maxAttempts, Last: lastErr}
}

// DoValue is Do for operations that return a value.
func DoValue[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, int, error) {
	var out T
	attempts, err := Do(ctx, p, func(ctx context.Context) error {
		v, opErr := op(ctx)
		if opErr != nil {
			return opErr
		}
		out = v
		return nil
	})
	return out, attempts, err
}

func backoff(p Policy, attempt int) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		base = 100 * time.Millisecond
	}
	d := base << (attempt - 1)
	if p.Jitter > 0 {
		spread := float64(d) * p.Jitter
		d += time.Duration((rand.Float64()*2 - 1) * spread)
	}
	if d < 0 {
		d = base
	}
	return d
}
