package notification

import (
	"context"
	"fmt"
	"time"

	"glec/pkg/logger"
)

type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

func DefaultRetryPolicy(maxAttempts int) RetryPolicy {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return RetryPolicy{
		MaxAttempts:  maxAttempts,
		InitialDelay: time.Second,
		MaxDelay:     8 * time.Second,
	}
}

// Backoff returns the wait after the given failed attempt (1-based).
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	d := p.InitialDelay << (attempt - 1)
	if d > p.MaxDelay || d <= 0 {
		return p.MaxDelay
	}
	return d
}

type SendResult struct {
	EmailID  string
	Attempts int
}

// SendWithRetry retries transient failures until the policy or ctx runs out.
func SendWithRetry(ctx context.Context, sender Sender, msg *Message, policy RetryPolicy, log *logger.Logger) (SendResult, error) {
	var lastErr error

	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		id, err := sender.Send(ctx, msg)
		if err == nil {
			return SendResult{EmailID: id, Attempts: attempt}, nil
		}
		lastErr = err

		log.WarnContext(ctx, "Email send attempt failed",
			"provider", sender.Name(),
			"attempt", attempt,
			"max_attempts", policy.MaxAttempts,
			"error", err,
		)

		if IsPermanent(err) {
			return SendResult{Attempts: attempt}, err
		}
		if attempt == policy.MaxAttempts {
			break
		}

		timer := time.NewTimer(policy.Backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return SendResult{Attempts: attempt}, fmt.Errorf("email retry aborted: %w", ctx.Err())
		case <-timer.C:
		}
	}

	return SendResult{Attempts: policy.MaxAttempts}, fmt.Errorf("email not sent after %d attempts: %w", policy.MaxAttempts, lastErr)
}
