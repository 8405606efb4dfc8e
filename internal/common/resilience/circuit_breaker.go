package resilience

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/AlibekovAA/community-board/internal/common/clock"
	commonerrors "github.com/AlibekovAA/community-board/internal/common/errors"
	"github.com/AlibekovAA/community-board/internal/common/logger"
	"github.com/AlibekovAA/community-board/internal/observability/metrics"
)

// CircuitBreaker counts consecutive unexpected failures of a dependency and
// rejects calls for ResetAfter once Threshold is reached.
type CircuitBreaker struct {
	failures    atomic.Int32
	lastFailure atomic.Value
	clock       clock.Clock
	threshold   int32
	timeout     time.Duration
	resetAfter  time.Duration
	name        string
	ignore      func(error) bool
	log         *logger.Logger
}

type CircuitBreakerConfig struct {
	Threshold  int32
	Timeout    time.Duration
	ResetAfter time.Duration
	Name       string
	Logger     *logger.Logger
	Clock      clock.Clock
	// Ignore reports errors that are expected outcomes (not found, conflict)
	// and must not count toward opening the circuit.
	Ignore func(error) bool
}

func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	cb := &CircuitBreaker{
		threshold:  config.Threshold,
		timeout:    config.Timeout,
		resetAfter: config.ResetAfter,
		name:       config.Name,
		ignore:     config.Ignore,
		log:        config.Logger,
		clock:      config.Clock,
	}
	if cb.clock == nil {
		cb.clock = clock.NewRealClock()
	}
	if cb.threshold <= 0 {
		cb.threshold = 1
	}
	cb.lastFailure.Store(time.Time{})
	return cb
}

func (cb *CircuitBreaker) IsOpen() bool {
	if cb.failures.Load() < cb.threshold {
		cb.setState(0)
		return false
	}

	lastFailure := cb.lastFailure.Load().(time.Time)
	if lastFailure.IsZero() {
		cb.setState(0)
		return false
	}

	if cb.clock.Since(lastFailure) > cb.resetAfter {
		cb.reset()
		cb.setState(0)
		return false
	}

	cb.setState(1)
	return true
}

func (cb *CircuitBreaker) setState(state float64) {
	if cb.name != "" {
		metrics.CircuitBreakerState.WithLabelValues(cb.name).Set(state)
	}
}

func (cb *CircuitBreaker) recordFailure() {
	cb.failures.Add(1)
	cb.lastFailure.Store(cb.clock.Now())
	if cb.name != "" {
		metrics.CircuitBreakerFailures.WithLabelValues(cb.name).Inc()
	}
	if cb.log != nil {
		cb.log.Warnf("circuit breaker [%s]: failure recorded", cb.name)
	}
}

func (cb *CircuitBreaker) reset() {
	cb.failures.Store(0)
	cb.lastFailure.Store(time.Time{})
}

// Call runs fn with the breaker's timeout. While the circuit is open it
// returns ErrCircuitOpen without calling fn.
func (cb *CircuitBreaker) Call(ctx context.Context, fn func(context.Context) error) error {
	if cb.IsOpen() {
		if cb.log != nil {
			cb.log.Warnf("circuit breaker [%s]: circuit is open, rejecting request", cb.name)
		}
		return commonerrors.ErrCircuitOpen
	}

	callCtx := ctx
	if cb.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, cb.timeout)
		defer cancel()
	}

	err := fn(callCtx)
	if err != nil {
		if cb.ignore == nil || !cb.ignore(err) {
			cb.recordFailure()
		}
		return err
	}

	cb.reset()
	return nil
}
