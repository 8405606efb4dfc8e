package server

import (
	"context"
	"net"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/AlibekovAA/community-board/internal/common/logger"
)

func TestShutdown_DrainsBeforeHooks(t *testing.T) {
	var (
		mu     sync.Mutex
		events []string
	)
	record := func(e string) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
	}

	started := make(chan struct{})
	srv := NewServer(ConfigFor("0", time.Second), http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		close(started)
		time.Sleep(50 * time.Millisecond)
		record("request done")
		w.WriteHeader(http.StatusNoContent)
	}))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go func() { _ = srv.Serve(ln) }()

	respDone := make(chan error, 1)
	go func() {
		resp, err := http.Get("http://" + ln.Addr().String())
		if err == nil {
			resp.Body.Close()
		}
		respDone <- err
	}()
	<-started

	Shutdown(srv, logger.Discard(), "test", []ShutdownHook{
		func(context.Context) error {
			record("store closed")
			return nil
		},
	})

	if err := <-respDone; err != nil {
		t.Fatalf("in-flight request failed: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(events) != 2 || events[0] != "request done" || events[1] != "store closed" {
		t.Errorf("expected drain before hooks, got %v", events)
	}
}

func TestConfigFor_WriteTimeoutCoversRequestTimeout(t *testing.T) {
	if cfg := ConfigFor("5000", time.Second); cfg.Addr != ":5000" || cfg.WriteTimeout != 30*time.Second {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg := ConfigFor("5000", time.Minute); cfg.WriteTimeout != time.Minute+5*time.Second {
		t.Errorf("expected write timeout past the request timeout, got %v", cfg.WriteTimeout)
	}
}
