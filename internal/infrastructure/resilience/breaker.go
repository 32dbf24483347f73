package resilience

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/pantrylens/backend/internal/domain"
)

// Config holds circuit breaker settings
type Config struct {
	MinRequests      uint32
	FailureRatio     float64
	OpenTimeout      time.Duration
	HalfOpenMaxCalls uint32
}

func (c Config) normalize() Config {
	if c.MinRequests == 0 {
		c.MinRequests = 5
	}
	if c.FailureRatio <= 0 || c.FailureRatio > 1 {
		c.FailureRatio = 0.6
	}
	if c.OpenTimeout <= 0 {
		c.OpenTimeout = 30 * time.Second
	}
	if c.HalfOpenMaxCalls == 0 {
		c.HalfOpenMaxCalls = 1
	}
	return c
}

// BreakerRecognizer guards a TextRecognizer with a circuit breaker so a broken
// OCR engine fails fast instead of being retried on every upload
type BreakerRecognizer struct {
	next    domain.TextRecognizer
	breaker *gobreaker.CircuitBreaker[string]
}

// NewBreakerRecognizer wraps next with a breaker named name
func NewBreakerRecognizer(name string, next domain.TextRecognizer, cfg Config, logger *zap.Logger) *BreakerRecognizer {
	cfg = cfg.normalize()
	if logger == nil {
		logger = zap.NewNop()
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.HalfOpenMaxCalls,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			// A caller giving up says nothing about the engine.
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}

	return &BreakerRecognizer{
		next:    next,
		breaker: gobreaker.NewCircuitBreaker[string](settings),
	}
}

// Recognize delegates to the wrapped recognizer unless the breaker is open.
// A rejected call is reported as an OCR engine failure.
func (r *BreakerRecognizer) Recognize(ctx context.Context, img *image.Gray) (string, error) {
	text, err := r.breaker.Execute(func() (string, error) {
		return r.next.Recognize(ctx, img)
	})
	if IsCircuitOpen(err) {
		return "", fmt.Errorf("%w: %w", domain.ErrOCREngine, err)
	}
	return text, err
}

// State reports the current breaker state
func (r *BreakerRecognizer) State() gobreaker.State {
	return r.breaker.State()
}

// IsCircuitOpen reports whether err comes from a breaker rejecting the call
func IsCircuitOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
