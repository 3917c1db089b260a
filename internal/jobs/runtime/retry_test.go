package runtime

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestRetrySignal(t *testing.T) {
	cause := errors.New("connection reset")
	err := Retry(cause)
	if !IsRetry(err) {
		t.Fatalf("IsRetry(Retry(err)) = false")
	}
	if !errors.Is(err, cause) {
		t.Fatalf("Retry should wrap the cause")
	}

	wrapped := fmt.Errorf("report fetch: %w", err)
	if !IsRetry(wrapped) {
		t.Fatalf("IsRetry should see through wrapping")
	}

	if IsRetry(cause) {
		t.Fatalf("IsRetry(plain error) = true")
	}
	if IsRetry(nil) {
		t.Fatalf("IsRetry(nil) = true")
	}
}

func TestRetryPolicyMaxAttempts(t *testing.T) {
	if got := (RetryPolicy{MaxRetries: 2}).MaxAttempts(); got != 3 {
		t.Fatalf("MaxAttempts{MaxRetries: 2} = %d, want 3", got)
	}
	if got := (RetryPolicy{MaxRetries: 0}).MaxAttempts(); got != 1 {
		t.Fatalf("MaxAttempts{MaxRetries: 0} = %d, want 1", got)
	}
	if got := (RetryPolicy{MaxRetries: -1}).MaxAttempts(); got != 1 {
		t.Fatalf("MaxAttempts{MaxRetries: -1} = %d, want 1", got)
	}
}

func TestRetryPolicyNextDelay(t *testing.T) {
	p := RetryPolicy{MaxRetries: 3, Delay: 5 * time.Minute, Step: 10 * time.Minute}

	if got := p.NextDelay(1); got != 5*time.Minute {
		t.Fatalf("NextDelay(1) = %v, want 5m", got)
	}
	if got := p.NextDelay(2); got != 15*time.Minute {
		t.Fatalf("NextDelay(2) = %v, want 15m", got)
	}
	if got := p.NextDelay(3); got != 25*time.Minute {
		t.Fatalf("NextDelay(3) = %v, want 25m", got)
	}
	// attempts below 1 clamp to the first-retry delay
	if got := p.NextDelay(0); got != 5*time.Minute {
		t.Fatalf("NextDelay(0) = %v, want 5m", got)
	}
}

func TestPolicyRegistry(t *testing.T) {
	const taskType = "test.policy_registry"
	RegisterPolicy(taskType, RetryPolicy{MaxRetries: 7, Delay: time.Second})

	p := PolicyFor(taskType)
	if p.MaxRetries != 7 || p.Delay != time.Second {
		t.Fatalf("PolicyFor returned %+v", p)
	}

	if got := PolicyFor("test.unregistered"); got != DefaultPolicy {
		t.Fatalf("PolicyFor(unregistered) = %+v, want DefaultPolicy", got)
	}
}
