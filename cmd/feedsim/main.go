package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/helium/internal/feedsim"
	"github.com/okian/helium/pkg/logger"
)

// Default configuration constants.
const (
	defaultAddr     = ":9081"
	defaultTeams    = 50
	defaultProblems = 12
	defaultInterval = 500 * time.Millisecond
)

func main() {
	var (
		addr     = flag.String("addr", defaultAddr, "Listen address for the feed endpoint")
		teams    = flag.Int("teams", defaultTeams, "Number of simulated teams")
		problems = flag.Int("problems", defaultProblems, "Number of contest problems")
		interval = flag.Duration("interval", defaultInterval, "Delay between emitted solves")
		verbose  = flag.Bool("verbose", false, "Log every emitted solve")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sim := feedsim.New(feedsim.Config{
		Addr:     *addr,
		Teams:    *teams,
		Problems: *problems,
		Interval: *interval,
		Verbose:  *verbose,
	})

	if err := sim.Run(ctx); err != nil {
		os.Stderr.WriteString("feed simulator failed: " + err.Error() + "\n")
	}
}
