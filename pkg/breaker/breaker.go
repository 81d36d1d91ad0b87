package breaker

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"

	"github.com/igorsal/pr-reviewer/internal/interfaces"
	pkgerrors "github.com/igorsal/pr-reviewer/pkg/errors"
)

// Breaker implements interfaces.CircuitBreaker on top of gobreaker and
// mirrors every state change into the circuit_breaker_state gauge.
type Breaker struct {
	cb *gobreaker.CircuitBreaker
}

// New creates a breaker for calls to service. It trips after three
// consecutive availability failures (see CountsAsFailure) and probes again
// after a minute.
func New(name, service string, logger interfaces.Logger, metrics interfaces.MetricsCollector) *Breaker {
	labels := map[string]string{"service": service, "name": name}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		IsSuccessful: func(err error) bool {
			return !CountsAsFailure(err)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("Circuit breaker state changed",
				"name", name,
				"service", service,
				"from", from.String(),
				"to", to.String(),
			)
			metrics.SetGauge("circuit_breaker_state", stateValue(to), labels)
		},
	})

	metrics.SetGauge("circuit_breaker_state", stateValue(gobreaker.StateClosed), labels)

	return &Breaker{cb: cb}
}

func (b *Breaker) Execute(req func() (interface{}, error)) (interface{}, error) {
	return b.cb.Execute(req)
}

func (b *Breaker) Name() string {
	return b.cb.Name()
}

func (b *Breaker) State() string {
	return b.cb.State().String()
}

// IsOpen reports whether err is a rejection by an open or saturated breaker
func IsOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

// CountsAsFailure reports whether err says the service itself is unhealthy.
// Transport errors, timeouts, rate limits and 5xx answers count. Rejections
// of a single request (4xx, bad credentials) and caller cancellation do not.
func CountsAsFailure(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}

	appErr, ok := pkgerrors.AsAppError(err)
	if !ok {
		return true
	}

	switch appErr.Type {
	case pkgerrors.ErrorTypeUnavailable, pkgerrors.ErrorTypeRateLimit, pkgerrors.ErrorTypeTimeout:
		return true
	default:
		return false
	}
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
