package feed

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/okian/helium/pkg/logger"
	"github.com/okian/helium/pkg/metrics"
)

// Default HTTP source configuration constants.
const (
	defaultRetryInterval = 5 * time.Second
	maxLineBytes         = 64 * 1024
)

// HTTPSource streams newline-delimited JSON solve facts from a contest
// system endpoint and reconnects forever until canceled.
type HTTPSource struct {
	url           string
	client        *http.Client
	retryInterval time.Duration
	logger        logger.Logger
}

// NewHTTPSource creates a source reading from url.
func NewHTTPSource(url string, opts ...Option) *HTTPSource {
	s := &HTTPSource{
		url:           url,
		client:        &http.Client{},
		retryInterval: defaultRetryInterval,
		logger:        logger.Get().Named("feed"),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Items returns the adapted stream. The first successful connection streams
// directly; every later reconnect emits a reload marker first, because the
// feed cannot be resumed and solves may have been missed in between.
func (s *HTTPSource) Items(ctx context.Context) <-chan Item {
	out := make(chan Item)
	go func() {
		defer close(out)

		connected := false
		for {
			err := s.stream(ctx, out, &connected)
			if ctx.Err() != nil {
				return
			}
			if err != nil {
				s.logger.Warn(ctx, "contest feed disconnected",
					logger.String("url", s.url),
					logger.Error(err),
				)
			}

			select {
			case <-ctx.Done():
				return
			case <-time.After(s.retryInterval):
			}
		}
	}()
	return out
}

// stream opens one connection and forwards solves until it breaks.
func (s *HTTPSource) stream(ctx context.Context, out chan<- Item, connected *bool) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return fmt.Errorf("build feed request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("connect feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("connect feed: %w: status %d", ErrFeedUnavailable, resp.StatusCode)
	}

	if *connected {
		metrics.RecordFeedReconnect()
		select {
		case out <- Item{Reload: true}:
		case <-ctx.Done():
			return nil
		}
	}
	*connected = true

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, maxLineBytes), maxLineBytes)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var solve Solve
		if err := json.Unmarshal([]byte(line), &solve); err != nil {
			// A malformed line never faults the stream; skip it.
			metrics.RecordErrorByComponent("feed", "malformed_line")
			s.logger.Warn(ctx, "skipping malformed feed line", logger.Error(err))
			continue
		}
		if solve.ProblemID == "" || solve.TeamID == "" {
			metrics.RecordErrorByComponent("feed", "incomplete_solve")
			continue
		}

		metrics.RecordFeedSolve()
		select {
		case out <- Item{Solve: &solve}:
		case <-ctx.Done():
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read feed: %w", err)
	}
	return fmt.Errorf("read feed: %w", ErrFeedClosed)
}
