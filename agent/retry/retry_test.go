package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prakit/supplyline/agent/remote"
)

func fastPolicy() Policy {
	return Policy{MaxRetries: 2, BaseDelay: time.Millisecond, Jitter: 0}
}

func TestDoSucceedsAfterTransientFailures(t *testing.T) {
	t.Parallel()

	calls := 0
	attempts, err := Do(context.Background(), fastPolicy(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return remote.Transient("fake.op", errors.New("flaky"))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", attempts)
	}
	if calls != 3 {
		t.Fatalf("expected op called 3 times, got %d", calls)
	}
}

func TestDoExhaustsTransientFailures(t *testing.T) {
	t.Parallel()

	underlying := remote.Transient("fake.op", errors.New("still down"))
	calls := 0
	attempts, err := Do(context.Background(), fastPolicy(), func(ctx context.Context) error {
		calls++
		return underlying
	})
	if calls != 3 {
		t.Fatalf("expected maxRetries+1 = 3 calls, got %d", calls)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts reported, got %d", attempts)
	}

	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected ExhaustedError, got %v", err)
	}
	if exhausted.Attempts != 3 {
		t.Fatalf("exhausted.Attempts = %d, want 3", exhausted.Attempts)
	}
	if !errors.Is(err, underlying) {
		t.Fatalf("exhausted error should wrap the last failure")
	}
	if remote.KindOf(err) != remote.KindTransient {
		t.Fatalf("exhausted error should classify through to the last kind")
	}
}

func TestDoPermanentFailureDoesNotRetry(t *testing.T) {
	t.Parallel()

	calls := 0
	attempts, err := Do(context.Background(), fastPolicy(), func(ctx context.Context) error {
		calls++
		return remote.Permanent("fake.op", errors.New("bad request"))
	})
	if calls != 1 {
		t.Fatalf("permanent failure should not retry, got %d calls", calls)
	}
	if attempts != 1 {
		t.Fatalf("attempts = %d, want 1", attempts)
	}
	if remote.KindOf(err) != remote.KindPermanent {
		t.Fatalf("unexpected kind: %v", remote.KindOf(err))
	}
}

func TestDoUnclassifiedErrorDoesNotRetry(t *testing.T) {
	t.Parallel()

	calls := 0
	_, err := Do(context.Background(), fastPolicy(), func(ctx context.Context) error {
		calls++
		return errors.New("who knows")
	})
	if calls != 1 {
		t.Fatalf("unclassified errors must not spin, got %d calls", calls)
	}
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestDoStopsOnCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := Do(ctx, Policy{MaxRetries: 5, BaseDelay: 50 * time.Millisecond}, func(ctx context.Context) error {
		calls++
		cancel()
		return remote.Transient("fake.op", errors.New("flaky"))
	})
	if calls != 1 {
		t.Fatalf("cancellation should stop the loop, got %d calls", calls)
	}
	if remote.KindOf(err) != remote.KindCancelled {
		t.Fatalf("expected cancelled kind, got %v (%v)", remote.KindOf(err), err)
	}
}

func TestDoCancellationFromOpPropagates(t *testing.T) {
	t.Parallel()

	calls := 0
	_, err := Do(context.Background(), fastPolicy(), func(ctx context.Context) error {
		calls++
		return remote.Cancelled("fake.op", context.Canceled)
	})
	if calls != 1 {
		t.Fatalf("expected a single call, got %d", calls)
	}
	if remote.KindOf(err) != remote.KindCancelled {
		t.Fatalf("expected cancelled kind, got %v", remote.KindOf(err))
	}
}

func TestDoValueReturnsValue(t *testing.T) {
	t.Parallel()

	calls := 0
	got, attempts, err := DoValue(context.Background(), fastPolicy(), func(ctx context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", remote.Transient("fake.op", errors.New("flaky"))
		}
		return "ready", nil
	})
	if err != nil {
		t.Fatalf("DoValue() error = %v", err)
	}
	if got != "ready" {
		t.Fatalf("got %q, want %q", got, "ready")
	}
	if attempts != 2 {
		t.Fatalf("attempts = %d, want 2", attempts)
	}
}

func TestBackoffGrows(t *testing.T) {
	t.Parallel()

	p := Policy{MaxRetries: 3, BaseDelay: 10 * time.Millisecond, Jitter: 0}
	prev := time.Duration(0)
	for attempt := 1; attempt <= 3; attempt++ {
		d := backoff(p, attempt)
		if d <= prev {
			t.Fatalf("backoff(%d) = %v, not greater than previous %v", attempt, d, prev)
		}
		prev = d
	}
}
