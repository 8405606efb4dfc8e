package db

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/AlibekovAA/community-board/internal/common/clock"
	"github.com/AlibekovAA/community-board/internal/common/constants"
	commonerrors "github.com/AlibekovAA/community-board/internal/common/errors"
	"github.com/AlibekovAA/community-board/internal/common/logger"
	"github.com/AlibekovAA/community-board/internal/observability/metrics"
)

type ConnectFunc[T any] func(ctx context.Context) (T, error)

type PingFunc[T any] func(ctx context.Context, handle T) error

type CloseFunc[T any] func(ctx context.Context, handle T) error

type LazyConfig struct {
	Name       string
	Attempts   int
	RetryDelay time.Duration
	// Cooldown is how long Get fails fast after an initialization run
	// exhausted its attempts.
	Cooldown    time.Duration
	PingTimeout time.Duration
	Clock       clock.Clock
	Logger      *logger.Logger
}

// Lazy owns a database handle that is opened on first use. Initialization is
// single-flight and retry-bounded. Once a handle exists it is reused until
// Close.
type Lazy[T any] struct {
	cfg     LazyConfig
	connect ConnectFunc[T]
	ping    PingFunc[T]
	close   CloseFunc[T]

	handle atomic.Pointer[T]
	sem    chan struct{}

	mu          sync.Mutex
	lastFailure time.Time
	lastErr     error
}

func NewLazy[T any](cfg LazyConfig, connect ConnectFunc[T], ping PingFunc[T], closeFn CloseFunc[T]) *Lazy[T] {
	if cfg.Attempts <= 0 {
		cfg.Attempts = constants.DefaultDBConnectAttempts
	}
	if cfg.PingTimeout <= 0 {
		cfg.PingTimeout = constants.DefaultDBPingTimeout
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.NewRealClock()
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Discard()
	}
	return &Lazy[T]{
		cfg:     cfg,
		connect: connect,
		ping:    ping,
		close:   closeFn,
		sem:     make(chan struct{}, 1),
	}
}

// Get returns the handle, connecting on first use. Errors are
// UPSTREAM_UNAVAILABLE domain errors wrapping the driver error.
func (l *Lazy[T]) Get(ctx context.Context) (T, error) {
	if h := l.handle.Load(); h != nil {
		return *h, nil
	}

	var zero T

	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		return zero, commonerrors.ErrUpstreamUnavailable.WithCause(ctx.Err())
	}
	defer func() { <-l.sem }()

	if h := l.handle.Load(); h != nil {
		return *h, nil
	}

	if err := l.coolingDown(); err != nil {
		return zero, err
	}

	var value T
	err := RetryWithBackoff(ctx, l.cfg.Logger, FixedRetryConfig(l.cfg.Attempts, l.cfg.RetryDelay), func() error {
		v, err := l.connect(ctx)
		if err != nil {
			metrics.DBConnectAttempts.WithLabelValues(l.cfg.Name, "failure").Inc()
			return err
		}
		metrics.DBConnectAttempts.WithLabelValues(l.cfg.Name, "success").Inc()
		value = v
		return nil
	})
	if err != nil {
		l.mu.Lock()
		l.lastFailure = l.cfg.Clock.Now()
		l.lastErr = err
		l.mu.Unlock()

		metrics.DBReady.WithLabelValues(l.cfg.Name).Set(0)
		l.cfg.Logger.WithFields(ctx, logger.Fields{
			"store":    l.cfg.Name,
			"attempts": l.cfg.Attempts,
			"action":   "db_connect_failed",
		}).Errorf("database connection failed: %v", err)
		return zero, commonerrors.ErrUpstreamUnavailable.WithCause(err)
	}

	l.handle.Store(&value)
	metrics.DBReady.WithLabelValues(l.cfg.Name).Set(1)
	l.cfg.Logger.WithFields(ctx, logger.Fields{
		"store":  l.cfg.Name,
		"action": "db_connected",
	}).Info("database connection established")

	return value, nil
}

func (l *Lazy[T]) coolingDown() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.lastFailure.IsZero() || l.cfg.Cooldown <= 0 {
		return nil
	}
	if l.cfg.Clock.Since(l.lastFailure) < l.cfg.Cooldown {
		return commonerrors.ErrUpstreamUnavailable.WithCause(fmt.Errorf("%s: still cooling down after failed connect: %w", l.cfg.Name, l.lastErr))
	}
	return nil
}

// Ready connects if needed and pings the handle.
func (l *Lazy[T]) Ready(ctx context.Context) error {
	h, err := l.Get(ctx)
	if err != nil {
		return err
	}
	if l.ping == nil {
		return nil
	}

	pingCtx, cancel := context.WithTimeout(ctx, l.cfg.PingTimeout)
	defer cancel()

	if err := l.ping(pingCtx, h); err != nil {
		metrics.DBReady.WithLabelValues(l.cfg.Name).Set(0)
		return commonerrors.ErrUpstreamUnavailable.WithCause(err)
	}
	metrics.DBReady.WithLabelValues(l.cfg.Name).Set(1)
	return nil
}

// Connected reports whether a handle has been opened, without connecting.
func (l *Lazy[T]) Connected() bool {
	return l.handle.Load() != nil
}

func (l *Lazy[T]) Close(ctx context.Context) error {
	h := l.handle.Swap(nil)
	if h == nil || l.close == nil {
		return nil
	}
	metrics.DBReady.WithLabelValues(l.cfg.Name).Set(0)
	return l.close(ctx, *h)
}
