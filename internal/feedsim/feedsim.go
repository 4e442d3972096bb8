// Package feedsim serves a synthetic contest feed for local development and
// load testing. It speaks the same newline-delimited JSON solve format the
// engine consumes, emitting random first-solves at a configurable rate.
package feedsim

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"math/big"
	"net/http"
	"strconv"
	"time"

	"github.com/okian/helium/pkg/logger"
)

// Config controls the shape of the simulated contest.
type Config struct {
	Addr     string
	Teams    int
	Problems int
	Interval time.Duration
	Verbose  bool
}

// solve mirrors the wire shape of one contest-feed line.
type solve struct {
	ProblemID string `json:"problemId"`
	TeamID    string `json:"teamId"`
}

// Simulator is an HTTP server that streams generated solves to every
// connected client until it runs out of unsolved (team, problem) pairs.
type Simulator struct {
	cfg    Config
	logger logger.Logger
}

// New creates a simulator for the given configuration.
func New(cfg Config) *Simulator {
	return &Simulator{
		cfg:    cfg,
		logger: logger.Get().Named("feedsim"),
	}
}

// Run serves the feed endpoint until ctx is canceled.
func (s *Simulator) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/feed", s.handleFeed)

	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		// Streaming endpoint: no read/write deadlines.
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "serving synthetic contest feed",
			logger.String("addr", s.cfg.Addr),
			logger.Int("teams", s.cfg.Teams),
			logger.Int("problems", s.cfg.Problems),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// handleFeed streams NDJSON solves. Each connection gets its own random walk
// through the contest so reconnecting clients observe a fresh ordering, the
// same way a real contest feed replays from the start.
func (s *Simulator) handleFeed(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx := r.Context()
	enc := json.NewEncoder(w)

	pairs := s.shuffledPairs()
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	sent := 0
	for _, p := range pairs {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if err := enc.Encode(p); err != nil {
			return
		}
		flusher.Flush()
		sent++
		if s.cfg.Verbose {
			s.logger.Debug(ctx, "emitted solve",
				logger.String("problemId", p.ProblemID),
				logger.String("teamId", p.TeamID),
			)
		}
	}

	s.logger.Info(ctx, "contest exhausted", logger.Int("solves", sent))
	// Keep the connection open; a real feed stays attached after the
	// last solve so clients don't churn through reconnects.
	<-ctx.Done()
}

// shuffledPairs enumerates every (team, problem) pair and shuffles them with
// crypto/rand so each connection replays the contest in a new order.
func (s *Simulator) shuffledPairs() []solve {
	pairs := make([]solve, 0, s.cfg.Teams*s.cfg.Problems)
	for t := 1; t <= s.cfg.Teams; t++ {
		for p := 0; p < s.cfg.Problems; p++ {
			pairs = append(pairs, solve{
				ProblemID: problemLabel(p),
				TeamID:    strconv.Itoa(t),
			})
		}
	}

	for i := len(pairs) - 1; i > 0; i-- {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			continue
		}
		j := n.Int64()
		pairs[i], pairs[j] = pairs[j], pairs[i]
	}
	return pairs
}

// problemLabel maps an index to contest-style letters: A..Z, AA, AB, ...
func problemLabel(i int) string {
	label := ""
	for {
		label = string(rune('A'+i%26)) + label
		i = i/26 - 1
		if i < 0 {
			return label
		}
	}
}
