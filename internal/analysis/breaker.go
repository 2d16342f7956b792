package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"

	"scholarship-backend/internal/shared/telemetry"
)

// BreakerProvider wraps a Provider with a circuit breaker so a flapping
// remote service fails fast instead of burning the analysis timeout on
// every upload.
type BreakerProvider struct {
	inner   Provider
	breaker *gobreaker.CircuitBreaker[Result]
}

// WithBreaker wraps p in a circuit breaker named for logging.
func WithBreaker(name string, p Provider) *BreakerProvider {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 3 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			telemetry.Warn("analysis.breaker_state_change", map[string]any{
				"provider": name,
				"from":     from.String(),
				"to":       to.String(),
			})
		},
	}
	return &BreakerProvider{
		inner:   p,
		breaker: gobreaker.NewCircuitBreaker[Result](settings),
	}
}

// Analyze delegates through the breaker.
func (b *BreakerProvider) Analyze(ctx context.Context, in Input) (Result, error) {
	result, err := b.breaker.Execute(func() (Result, error) {
		return b.inner.Analyze(ctx, in)
	})
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return result, nil
}

var _ Provider = (*BreakerProvider)(nil)
