// Command smoke-test seeds a running service with notes and ratings, then
// fetches the ranking and verifies its invariants.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/apuntia/apuntia/internal/smoketest"
	"github.com/apuntia/apuntia/pkg/logger"
)

func main() {
	cfg := smoketest.DefaultConfig()
	flag.StringVar(&cfg.BaseURL, "url", cfg.BaseURL, "base URL of the service")
	flag.IntVar(&cfg.NumNotes, "notes", cfg.NumNotes, "number of notes to seed")
	flag.IntVar(&cfg.Voters, "voters", cfg.Voters, "number of distinct voter identities")
	flag.IntVar(&cfg.Workers, "workers", cfg.Workers, "number of concurrent workers")
	flag.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "HTTP request timeout")
	flag.IntVar(&cfg.Days, "days", cfg.Days, "ranking window to query (7, 30 or 90)")
	flag.IntVar(&cfg.Limit, "limit", cfg.Limit, "ranking page size to query")
	flag.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "verbose logging")
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if cfg.Verbose {
		_ = logger.SetLevelString("debug")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	if err := smoketest.Run(ctx, cfg); err != nil {
		logger.Get().Error(ctx, "smoke test failed", logger.Error(err), logger.Any("after", time.Since(start)))
		os.Exit(1)
	}
}
