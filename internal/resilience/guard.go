// Package resilience protects calls to remote answer generators with a rate
// limiter, bounded retries and a circuit breaker.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

// Config tunes a Guard. Zero values select DefaultConfig.
type Config struct {
	RatePerSecond float64
	Burst         int

	RetryMaxAttempts    int
	RetryInitialBackoff time.Duration
	RetryMaxBackoff     time.Duration

	BreakerMinRequests  uint32
	BreakerFailureRatio float64
	BreakerOpenTimeout  time.Duration
}

func DefaultConfig() Config {
	return Config{
		RatePerSecond:       2,
		Burst:               1,
		RetryMaxAttempts:    2,
		RetryInitialBackoff: 250 * time.Millisecond,
		RetryMaxBackoff:     2 * time.Second,
		BreakerMinRequests:  3,
		BreakerFailureRatio: 0.6,
		BreakerOpenTimeout:  60 * time.Second,
	}
}

func (c Config) normalize() Config {
	def := DefaultConfig()
	if c.RatePerSecond <= 0 {
		c.RatePerSecond = def.RatePerSecond
	}
	if c.Burst <= 0 {
		c.Burst = def.Burst
	}
	if c.RetryMaxAttempts <= 0 {
		c.RetryMaxAttempts = def.RetryMaxAttempts
	}
	if c.RetryInitialBackoff <= 0 {
		c.RetryInitialBackoff = def.RetryInitialBackoff
	}
	if c.RetryMaxBackoff < c.RetryInitialBackoff {
		c.RetryMaxBackoff = c.RetryInitialBackoff
	}
	if c.BreakerMinRequests == 0 {
		c.BreakerMinRequests = def.BreakerMinRequests
	}
	if c.BreakerFailureRatio <= 0 || c.BreakerFailureRatio > 1 {
		c.BreakerFailureRatio = def.BreakerFailureRatio
	}
	if c.BreakerOpenTimeout <= 0 {
		c.BreakerOpenTimeout = def.BreakerOpenTimeout
	}
	return c
}

// Retryable reports whether an error is worth another attempt.
type Retryable func(err error) bool

// Guard serializes access to one remote operation.
type Guard struct {
	cfg       Config
	limiter   *rate.Limiter
	breaker   *gobreaker.CircuitBreaker[string]
	retryable Retryable
}

// NewGuard creates a guard named after the protected operation.
func NewGuard(name string, cfg Config, retryable Retryable) *Guard {
	cfg = cfg.normalize()
	if retryable == nil {
		retryable = func(error) bool { return false }
	}
	settings := gobreaker.Settings{
		Name:    name,
		Timeout: cfg.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.BreakerMinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.BreakerFailureRatio
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit_breaker_state_change", "operation", name, "from", from.String(), "to", to.String())
		},
	}
	return &Guard{
		cfg:       cfg,
		limiter:   rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst),
		breaker:   gobreaker.NewCircuitBreaker[string](settings),
		retryable: retryable,
	}
}

// Do runs fn through the limiter, retry loop and breaker.
func (g *Guard) Do(ctx context.Context, fn func(context.Context) (string, error)) (string, error) {
	if fn == nil {
		return "", fmt.Errorf("resilience: operation callback is nil")
	}
	if err := g.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit: %w", err)
	}
	return g.breaker.Execute(func() (string, error) {
		return g.retry(ctx, fn)
	})
}

func (g *Guard) retry(ctx context.Context, fn func(context.Context) (string, error)) (string, error) {
	backoff := g.cfg.RetryInitialBackoff
	var lastErr error
	for attempt := 1; attempt <= g.cfg.RetryMaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		out, err := fn(ctx)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !g.retryable(err) || attempt == g.cfg.RetryMaxAttempts {
			break
		}
		wait := backoff
		var ra interface{ RetryAfter() time.Duration }
		if errors.As(err, &ra) && ra.RetryAfter() > 0 {
			wait = ra.RetryAfter()
		}
		slog.Debug("retry_attempt", "operation", g.breaker.Name(), "attempt", attempt, "backoff_ms", wait.Milliseconds(), "error", err)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", err
		case <-timer.C:
		}
		backoff = min(backoff*2, g.cfg.RetryMaxBackoff)
	}
	return "", lastErr
}

// IsCircuitOpen reports whether err was produced by an open or saturated breaker.
func IsCircuitOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
