// Package retry spaces out repeated requests to external services.
package retry

import (
	"context"
	"time"
)

// Mode selects how the delay grows between attempts.
type Mode string

const (
	ModeFixed       Mode = "fixed"
	ModeLinear      Mode = "linear"
	ModeExponential Mode = "exponential"
)

// Policy is a backoff schedule. The zero value retries nothing.
type Policy struct {
	Mode       Mode
	Initial    time.Duration
	Max        time.Duration
	MaxRetries int // attempts after the first failure
}

// DefaultPolicy retries twice with a linear 1s step capped at 30s.
func DefaultPolicy() Policy {
	return Policy{Mode: ModeLinear, Initial: time.Second, Max: 30 * time.Second, MaxRetries: 2}
}

// NewPolicy overlays the given settings on DefaultPolicy. Non-positive
// durations, negative retry counts and unknown modes keep the default.
func NewPolicy(mode Mode, initial, maxDelay time.Duration, maxRetries int) Policy {
	p := DefaultPolicy()
	switch mode {
	case ModeFixed, ModeLinear, ModeExponential:
		p.Mode = mode
	}
	if initial > 0 {
		p.Initial = initial
	}
	if maxDelay > 0 {
		p.Max = maxDelay
	}
	if maxRetries >= 0 {
		p.MaxRetries = maxRetries
	}
	p.Initial = min(p.Initial, p.Max)
	return p
}

// Delay is the wait before retry n, counting from 1.
func (p Policy) Delay(n int) time.Duration {
	if n <= 0 {
		return 0
	}
	var d time.Duration
	switch p.Mode {
	case ModeFixed:
		d = p.Initial
	case ModeExponential:
		if n > 62 {
			return p.Max
		}
		d = p.Initial << (n - 1)
	default:
		d = time.Duration(n) * p.Initial
	}
	if d <= 0 || d > p.Max {
		return p.Max
	}
	return d
}

// Do calls fn until it succeeds, the retries are spent, fn reports the error
// as permanent, or ctx ends. It returns the last error.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) (retryable bool, err error)) error {
	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(p.Delay(attempt))
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
		retryable, err := fn(ctx)
		if err == nil || !retryable || attempt >= p.MaxRetries {
			return err
		}
	}
}
