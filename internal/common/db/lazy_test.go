package db

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/AlibekovAA/community-board/internal/common/clock"
	commonerrors "github.com/AlibekovAA/community-board/internal/common/errors"
)

type fakeHandle struct {
	id int
}

var errDown = errors.New("connection refused")

func newTestLazy(connect ConnectFunc[*fakeHandle], ping PingFunc[*fakeHandle], clk clock.Clock) *Lazy[*fakeHandle] {
	return NewLazy(LazyConfig{
		Name:       "test",
		Attempts:   3,
		RetryDelay: time.Millisecond,
		Cooldown:   5 * time.Second,
		Clock:      clk,
	}, connect, ping, nil)
}

func TestLazy_DoesNotConnectUntilFirstUse(t *testing.T) {
	var calls atomic.Int32
	l := newTestLazy(func(context.Context) (*fakeHandle, error) {
		calls.Add(1)
		return &fakeHandle{id: 1}, nil
	}, nil, nil)

	if l.Connected() {
		t.Fatal("expected no connection before first Get")
	}
	if calls.Load() != 0 {
		t.Fatalf("expected no connect calls, got %d", calls.Load())
	}

	h, err := l.Get(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if h.id != 1 || !l.Connected() {
		t.Errorf("expected connected handle, got %+v", h)
	}
}

func TestLazy_RetryIsBounded(t *testing.T) {
	var calls atomic.Int32
	l := newTestLazy(func(context.Context) (*fakeHandle, error) {
		calls.Add(1)
		return nil, errDown
	}, nil, clock.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)))

	_, err := l.Get(context.Background())
	if !errors.Is(err, commonerrors.ErrUpstreamUnavailable) {
		t.Fatalf("expected UPSTREAM_UNAVAILABLE, got %v", err)
	}
	if !errors.Is(err, errDown) {
		t.Errorf("expected driver error in chain, got %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestLazy_FailsFastDuringCooldown(t *testing.T) {
	mockClock := clock.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	var calls atomic.Int32
	healthy := atomic.Bool{}

	l := newTestLazy(func(context.Context) (*fakeHandle, error) {
		calls.Add(1)
		if healthy.Load() {
			return &fakeHandle{id: 7}, nil
		}
		return nil, errDown
	}, nil, mockClock)

	_, _ = l.Get(context.Background())
	if calls.Load() != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls.Load())
	}

	healthy.Store(true)
	if _, err := l.Get(context.Background()); !errors.Is(err, commonerrors.ErrUpstreamUnavailable) {
		t.Fatalf("expected fail-fast error during cooldown, got %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("expected no new attempts during cooldown, got %d", calls.Load())
	}

	mockClock.Advance(6 * time.Second)
	h, err := l.Get(context.Background())
	if err != nil {
		t.Fatalf("expected recovery after cooldown, got %v", err)
	}
	if h.id != 7 {
		t.Errorf("expected handle 7, got %d", h.id)
	}
}

func TestLazy_ConcurrentGetConnectsOnce(t *testing.T) {
	var calls atomic.Int32
	l := newTestLazy(func(context.Context) (*fakeHandle, error) {
		calls.Add(1)
		time.Sleep(5 * time.Millisecond)
		return &fakeHandle{id: 1}, nil
	}, nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := l.Get(context.Background()); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if calls.Load() != 1 {
		t.Errorf("expected a single connect, got %d", calls.Load())
	}
}

func TestLazy_ReadyPings(t *testing.T) {
	pingErr := error(nil)
	l := newTestLazy(func(context.Context) (*fakeHandle, error) {
		return &fakeHandle{id: 1}, nil
	}, func(context.Context, *fakeHandle) error {
		return pingErr
	}, nil)

	if err := l.Ready(context.Background()); err != nil {
		t.Fatalf("expected ready, got %v", err)
	}

	pingErr = errDown
	err := l.Ready(context.Background())
	if !errors.Is(err, commonerrors.ErrUpstreamUnavailable) {
		t.Errorf("expected UPSTREAM_UNAVAILABLE from failed ping, got %v", err)
	}
}

func TestLazy_GetHonorsContextWhileWaiting(t *testing.T) {
	release := make(chan struct{})
	l := newTestLazy(func(context.Context) (*fakeHandle, error) {
		<-release
		return &fakeHandle{id: 1}, nil
	}, nil, nil)

	go func() { _, _ = l.Get(context.Background()) }()
	time.Sleep(5 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	_, err := l.Get(ctx)
	close(release)
	if !errors.Is(err, commonerrors.ErrUpstreamUnavailable) {
		t.Errorf("expected UPSTREAM_UNAVAILABLE on context expiry, got %v", err)
	}
}
