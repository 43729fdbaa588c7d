package llm

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/dougsaus/tic-tac-vibe/internal/apperror"
)

// RetryNotify is called before each retry with the failed attempt's error.
type RetryNotify func(err error, wait time.Duration)

// Call runs caller with the provider's per-attempt timeout and retries
// transient failures retryAttempts times, waiting retryDelay between tries.
func Call(ctx context.Context, caller Caller, req Request, notify RetryNotify) (string, error) {
	timeout := req.Provider.TimeoutDuration()

	attempt := func() (string, error) {
		attemptCtx, cancel := attemptContext(ctx, timeout)
		defer cancel()

		text, err := caller.Complete(attemptCtx, req)
		if err == nil {
			return text, nil
		}

		if ctx.Err() != nil || !IsTransient(err) {
			return "", backoff.Permanent(err)
		}

		return "", err
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(req.Provider.RetryDelayDuration()), retries(req)),
		ctx,
	)

	return backoff.RetryNotifyWithData(attempt, policy, backoff.Notify(notify))
}

func attemptContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, timeout)
}

func retries(req Request) uint64 {
	if req.Provider.RetryAttempts <= 0 {
		return 0
	}

	return uint64(req.Provider.RetryAttempts)
}

// IsTransient reports whether err may go away on a second attempt: transport
// failures, attempt timeouts and HTTP 429/5xx.
func IsTransient(err error) bool {
	var httpErr *apperror.ProviderHTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Transient()
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
