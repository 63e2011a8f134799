package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy describes how a single network call site is retried: at most
// MaxAttempts calls in total, sleeping BaseDelay*2^n between attempt n+1
// and n+2. Errors for which Permanent reports true abort immediately and
// are returned as-is.
type Policy struct {
	MaxAttempts uint64
	BaseDelay   time.Duration
	Permanent   func(error) bool
}

func DefaultPolicy(permanent func(error) bool) Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   1 * time.Second,
		Permanent:   permanent,
	}
}

func (p Policy) newBackoff(ctx context.Context) backoff.BackOffContext {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.BaseDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = 1 * time.Minute
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, p.MaxAttempts-1), ctx)
}

// Do runs op under the policy and returns its result, or the last error
// observed once the attempt budget is exhausted.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	return backoff.RetryWithData(
		func() (T, error) {
			out, err := op(ctx)
			if nil != err && nil != p.Permanent && p.Permanent(err) {
				return out, backoff.Permanent(err)
			}
			return out, err
		},
		p.newBackoff(ctx),
	)
}
