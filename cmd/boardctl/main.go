package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/AlibekovAA/community-board/internal/client"
	"github.com/AlibekovAA/community-board/internal/client/cli"
	"github.com/AlibekovAA/community-board/internal/common/config"
	"github.com/AlibekovAA/community-board/internal/common/logger"
)

func main() {
	cfg := config.LoadClientConfig()

	flag.StringVar(&cfg.APIBaseURL, "api", cfg.APIBaseURL, "board API base URL including the route prefix")
	flag.StringVar(&cfg.StatePath, "state", cfg.StatePath, "file that keeps remembered sessions")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logger.NewWithWriter(os.Stderr, "boardctl", cfg.LogLevel)

	persistent, err := client.OpenSQLiteStore(ctx, cfg.StatePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "boardctl: %v\n", err)
		os.Exit(1)
	}
	defer persistent.Close()

	tokens := client.NewTokenManager(persistent, client.NewMemoryStore())
	api := client.New(client.Config{BaseURL: cfg.APIBaseURL, Logger: log}, tokens)

	cli.NewApp(api, os.Stdin, os.Stdout).Run(ctx)
}
