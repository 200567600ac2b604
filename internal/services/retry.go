package services

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/templeledger/donations-backend/internal/observability"
)

// RetryPolicy bounds retries of store operations after transient failures.
type RetryPolicy struct {
	MaxTries int           // total attempts including the first (>= 1)
	Initial  time.Duration // first backoff interval
	Max      time.Duration // cap on a single interval
}

// DefaultRetryPolicy is used when a service is built without an explicit
// policy.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxTries: 3, Initial: 200 * time.Millisecond, Max: 2 * time.Second}
}

// transientMarkers are lower-cased fragments of driver errors that indicate a
// connectivity or locking problem rather than a rejected write.
var transientMarkers = []string{
	"database is locked",
	"database table is locked",
	"sqlite_busy",
	"connection refused",
	"connection reset",
	"broken pipe",
	"bad connection",
	"too many connections",
	"server closed the connection",
	"i/o timeout",
}

// IsTransient reports whether err is worth retrying. Context cancellation and
// deadline expiry are never transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	low := strings.ToLower(err.Error())
	for _, m := range transientMarkers {
		if strings.Contains(low, m) {
			return true
		}
	}
	return false
}

// withRetry runs fn under p. Non-transient errors return immediately and
// unchanged. Transient errors that outlive the policy, or that are cut short
// by ctx, come back as *TransientStoreError.
func withRetry[T any](ctx context.Context, p RetryPolicy, op string, fn func() (T, error)) (T, error) {
	if p.MaxTries < 1 {
		p = DefaultRetryPolicy()
	}
	b := backoff.NewExponentialBackOff()
	if p.Initial > 0 {
		b.InitialInterval = p.Initial
	}
	if p.Max > 0 {
		b.MaxInterval = p.Max
	}

	var (
		attempts int
		lastErr  error
	)
	res, err := backoff.Retry(ctx, func() (T, error) {
		attempts++
		v, err := fn()
		lastErr = err
		if err != nil && !IsTransient(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(p.MaxTries)),
		backoff.WithNotify(func(err error, next time.Duration) {
			observability.StoreRetries.WithLabelValues(op).Inc()
			zlog(ctx).Warn().Err(err).Str("op", op).Dur("backoff", next).Msg("transient store error, retrying")
		}),
	)
	if err == nil {
		return res, nil
	}

	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		err = perm.Err
	}
	if IsTransient(lastErr) {
		return res, &TransientStoreError{Op: op, Attempts: attempts, Err: lastErr}
	}
	return res, err
}
