package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/docshelf/internal/core/domain"
	"github.com/custodia-labs/docshelf/internal/logger"
	"github.com/custodia-labs/docshelf/internal/metrics"
)

// Retry defaults for external capability calls.
const (
	defaultRetryAttempts = 3
	defaultRetryDelay    = time.Second
	defaultRetryMaxDelay = 30 * time.Second
	defaultRetryBurst    = 5
)

// RetryPolicy bounds calls to OCR, classification and embedding providers.
// Delays start at InitialDelay and double after each failure.
// A shared Limiter keeps the sustained request rate below provider quotas.
type RetryPolicy struct {
	Attempts     int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Limiter      *rate.Limiter
}

// NewRetryPolicy builds a policy from settings.
// A non-positive RequestsPerSecond disables rate limiting.
func NewRetryPolicy(cfg domain.RetrySettings) *RetryPolicy {
	p := &RetryPolicy{
		Attempts:     cfg.Attempts,
		InitialDelay: cfg.InitialDelay,
		MaxDelay:     defaultRetryMaxDelay,
	}
	if p.Attempts <= 0 {
		p.Attempts = defaultRetryAttempts
	}
	if p.InitialDelay <= 0 {
		p.InitialDelay = defaultRetryDelay
	}
	if cfg.RequestsPerSecond > 0 {
		p.Limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), defaultRetryBurst)
	}
	return p
}

// Do runs fn until it succeeds, the attempts are exhausted or ctx ends.
// The last error is returned wrapped with op.
func (p *RetryPolicy) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	attempts := p.Attempts
	if attempts <= 0 {
		attempts = 1
	}
	delay := p.InitialDelay

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if p.Limiter != nil {
			if err := p.Limiter.Wait(ctx); err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if errors.Is(lastErr, context.Canceled) || errors.Is(lastErr, context.DeadlineExceeded) {
			return fmt.Errorf("%s: %w", op, lastErr)
		}

		logger.Warn("%s attempt %d/%d failed: %v", op, attempt, attempts, lastErr)
		if attempt == attempts {
			break
		}
		metrics.RetryAttemptsTotal.WithLabelValues(op).Inc()

		// Rate-limit rejections wait at least twice as long
		wait := delay
		if errors.Is(lastErr, domain.ErrRateLimited) {
			wait *= 2
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s: %w", op, ctx.Err())
		case <-time.After(wait):
		}

		delay *= 2
		if p.MaxDelay > 0 && delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}

	return fmt.Errorf("%s after %d attempts: %w", op, attempts, lastErr)
}
