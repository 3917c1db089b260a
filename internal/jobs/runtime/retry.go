package runtime

import (
	"errors"
	"time"
)

// retrySignal asks the worker to reschedule the task instead of failing it.
type retrySignal struct {
	err error
}

func (e *retrySignal) Error() string {
	if e.err == nil {
		return "retry requested"
	}
	return "retry requested: " + e.err.Error()
}

func (e *retrySignal) Unwrap() error { return e.err }

// Retry wraps err so the worker reschedules the task with its type's delay
// schedule. Handlers call this only after recording the retry-pending status
// on the queue item; the worker enforces the attempt ceiling.
func Retry(err error) error {
	return &retrySignal{err: err}
}

// IsRetry reports whether err carries a retry request.
func IsRetry(err error) bool {
	var rs *retrySignal
	return errors.As(err, &rs)
}

// RetryPolicy is the delay schedule for one task type. The nth retry waits
// Delay + Step*(n-1).
type RetryPolicy struct {
	MaxRetries int
	Delay      time.Duration
	Step       time.Duration
}

// MaxAttempts counts the first run plus every retry.
func (p RetryPolicy) MaxAttempts() int {
	if p.MaxRetries < 0 {
		return 1
	}
	return p.MaxRetries + 1
}

// NextDelay returns how long to wait before the run following attempt
// attempts (1-based, as recorded on the task row).
func (p RetryPolicy) NextDelay(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	return p.Delay + p.Step*time.Duration(attempts-1)
}

// DefaultPolicy applies to task types with no registered policy: a single
// attempt, never rescheduled.
var DefaultPolicy = RetryPolicy{MaxRetries: 0}

var policies = map[string]RetryPolicy{}

// RegisterPolicy binds a task type's delay schedule. Call during wiring,
// before workers start; later registrations overwrite earlier ones.
func RegisterPolicy(taskType string, p RetryPolicy) {
	policies[taskType] = p
}

func PolicyFor(taskType string) RetryPolicy {
	if p, ok := policies[taskType]; ok {
		return p
	}
	return DefaultPolicy
}
