package warehouse

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	sf "github.com/snowflakedb/gosnowflake"
)

const (
	maxRetryAttempts    = 3
	initialRetryBackoff = 100 * time.Millisecond
	maxRetryBackoff     = 2 * time.Second
)

// retryConfig controls transient-failure retries around driver calls.
// The sleep hook is replaceable in tests.
type retryConfig struct {
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	sleep          func(context.Context, time.Duration) error
}

func defaultRetryConfig() retryConfig {
	return retryConfig{
		maxAttempts:    maxRetryAttempts,
		initialBackoff: initialRetryBackoff,
		maxBackoff:     maxRetryBackoff,
		sleep:          sleepWithContext,
	}
}

// executeWithRetry runs fn up to cfg.maxAttempts times with exponential
// backoff. Authentication failures and non-transient errors return
// immediately without retrying.
func executeWithRetry(ctx context.Context, cfg retryConfig, fn func() error) error {
	attempts := cfg.maxAttempts
	if attempts <= 0 {
		attempts = maxRetryAttempts
	}
	sleep := cfg.sleep
	if sleep == nil {
		sleep = sleepWithContext
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if ctxErr := contextError(ctx); ctxErr != nil {
			return ctxErr
		}

		if err = fn(); err == nil {
			return nil
		}
		if ctxErr := contextError(ctx); ctxErr != nil {
			return ctxErr
		}
		if isAuthError(err) || !isRetryableError(err) {
			return err
		}

		if attempt < attempts-1 {
			if sleepErr := sleep(ctx, cfg.backoffFor(attempt)); sleepErr != nil {
				if ctxErr := contextError(ctx); ctxErr != nil {
					return ctxErr
				}
				return sleepErr
			}
		}
	}
	return err
}

func (cfg retryConfig) backoffFor(attempt int) time.Duration {
	base := cfg.initialBackoff
	if base <= 0 {
		base = initialRetryBackoff
	}
	ceiling := cfg.maxBackoff
	if ceiling < base {
		ceiling = maxRetryBackoff
	}

	d := base
	for i := 0; i < attempt && d < ceiling; i++ {
		d *= 2
	}
	if d > ceiling {
		d = ceiling
	}
	return d
}

func contextError(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		if cause := context.Cause(ctx); cause != nil && !errors.Is(cause, context.Canceled) {
			return cause
		}
		return err
	}
	return nil
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return contextError(ctx)
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

// Snowflake reports auth failures as SQLSTATE 28000 or via the
// login-specific error codes 390100 and 390144.
func isAuthError(err error) bool {
	if err == nil {
		return false
	}

	var sfErr *sf.SnowflakeError
	if errors.As(err, &sfErr) {
		if sfErr.SQLState == "28000" || sfErr.Number == 390100 || sfErr.Number == 390144 {
			return true
		}
	}

	return containsAny(err.Error(),
		"authentication failed",
		"authentication error",
		"incorrect username or password",
		"invalid credentials",
		"invalid password",
		"unknown user",
		"unauthorized",
		"access denied",
		"sqlstate[28000]",
		"sqlstate 28000",
		"390100",
		"390144",
	)
}

func isRetryableError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	return containsAny(err.Error(),
		"timeout",
		"i/o timeout",
		"tls handshake timeout",
		"eof",
		"broken pipe",
		"connection reset",
		"connection refused",
		"connection aborted",
		"connection closed",
		"use of closed network connection",
		"network is unreachable",
		"no route to host",
		"no such host",
	)
}

func containsAny(text string, markers ...string) bool {
	text = strings.ToLower(text)
	for _, m := range markers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}
