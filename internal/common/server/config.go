package server

import (
	"net/http"
	"time"

	"github.com/AlibekovAA/community-board/internal/common/constants"
)

type ServerConfig struct {
	Addr              string
	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
}

// ConfigFor returns listener settings for port. The write timeout is
// stretched past requestTimeout so a handler that runs to its deadline can
// still write its error envelope.
func ConfigFor(port string, requestTimeout time.Duration) ServerConfig {
	write := constants.ServerWriteTimeout
	if floor := requestTimeout + constants.ServerWriteGrace; floor > write {
		write = floor
	}
	return ServerConfig{
		Addr:              ":" + port,
		ReadHeaderTimeout: constants.ServerReadHeaderTimeout,
		ReadTimeout:       constants.ServerReadTimeout,
		WriteTimeout:      write,
		IdleTimeout:       constants.ServerIdleTimeout,
	}
}

func NewServer(cfg ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}
