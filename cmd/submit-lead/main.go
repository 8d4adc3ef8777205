package main

import (
	"context"
	"flag"
	"os"
	"strings"
	"time"

	"github.com/ninelmnts/leadintake/internal/leadsmoke"
	"github.com/ninelmnts/leadintake/pkg/logger"
)

// Default configuration constants.
const (
	defaultTimeout    = 90 * time.Second
	defaultRunTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL = flag.String("url", "http://localhost:8080", "Base URL of the lead intake service")
		path    = flag.String("path", leadsmoke.DefaultPath, "Submission route")
		count   = flag.Int("count", 1, "Number of sample leads to submit")
		workers = flag.Int("workers", 1, "Number of concurrent submissions")
		timeout = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		require = flag.String("require", "", "Comma-separated sinks that must succeed (forward,saved,slack,notion,email)")
		format  = flag.String("log-format", logger.FormatText, "Log format (text or json)")
	)
	flag.Parse()

	if err := logger.Init(logger.WithFormat(*format), logger.WithWriter(os.Stderr)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	cfg := &leadsmoke.Config{
		BaseURL: *baseURL,
		Path:    *path,
		Count:   *count,
		Workers: *workers,
		Timeout: *timeout,
		Require: splitList(*require),
		Out:     os.Stdout,
	}

	if _, err := leadsmoke.Run(ctx, cfg); err != nil {
		logger.Get().Error(ctx, "smoke run failed", logger.Error(err))
		os.Exit(1)
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
