// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/okian/helium/internal/adapters/feed"
	eventhub "github.com/okian/helium/internal/adapters/mq/hub"
	eventqueue "github.com/okian/helium/internal/adapters/mq/queue"
	repository "github.com/okian/helium/internal/adapters/repository"
	"github.com/okian/helium/internal/domain/model"
	"github.com/okian/helium/pkg/logger"
	"github.com/okian/helium/pkg/metrics"
)

// Default service configuration constants.
const (
	stopTimeout = 5 * time.Second
)

// Service implements the balloon delivery sync engine: it owns the store,
// the merged event queue and the hub, merges contest feed facts with
// volunteer commands, and hands subscriber sessions to the transport layer.
type Service struct {
	mu sync.RWMutex

	// Core components
	store  *repository.SQLiteStore
	queue  eventqueue.Queue
	hub    *eventhub.Hub
	source feed.Source

	// Configuration
	dbPath           string
	queueSize        int
	subscriberBuffer int

	// State
	started bool
	stopCh  chan struct{}

	// Logging
	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		dbPath:           "helium.db",
		queueSize:        10_000,
		subscriberBuffer: 256,
		stopCh:           make(chan struct{}),
		logger:           nil, // resolved on Start
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting balloon service...")

	store, err := repository.Open(s.dbPath)
	if err != nil {
		return err
	}
	s.store = store

	s.queue = eventqueue.NewInMemoryQueue(
		eventqueue.WithCapacity(s.queueSize),
	)
	s.hub = eventhub.New(s.queue,
		eventhub.WithSubscriberBuffer(s.subscriberBuffer),
		eventhub.WithLogger(s.logger),
	)

	// Balloons that predate this process must be visible to the first
	// subscriber's snapshot.
	views, err := store.All(ctx)
	if err != nil {
		_ = store.Close()
		return err
	}
	s.hub.Prime(views)

	go s.hub.Run(ctx)
	if s.source != nil {
		go s.ingest(ctx)
	}

	s.started = true
	s.logger.Info(ctx, "balloon service started",
		logger.Int("balloons", len(views)),
		logger.Int("queueSize", s.queueSize),
		logger.Int("subscriberBuffer", s.subscriberBuffer),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping balloon service...")

	// Closing the queue drains the hub and detaches every subscriber.
	if q, ok := s.queue.(*eventqueue.InMemoryQueue); ok {
		_ = q.Close()
	}
	if s.hub != nil {
		select {
		case <-s.hub.Done():
		case <-time.After(stopTimeout):
			s.logger.Warn(context.Background(), "hub shutdown timed out")
		}
	}

	if s.store != nil {
		_ = s.store.Close()
	}

	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}

	s.started = false
	s.logger.Info(context.Background(), "balloon service stopped")
}

// ProcessCommand validates and applies one volunteer command. The store's
// conditional mutation decides success; only a successful mutation produces
// a broadcast event. The boolean mirrors the store outcome so the session
// can report failure to the issuing connection alone.
func (s *Service) ProcessCommand(ctx context.Context, cmd model.Command, volunteerID int64) bool {
	if err := cmd.Validate(); err != nil {
		metrics.RecordCommandRejected(cmd.Action)
		s.logger.Debug(ctx, "rejecting malformed command",
			logger.String("action", cmd.Action),
			logger.Error(err),
		)
		return false
	}

	id := cmd.BalloonID()

	var ok bool
	var err error
	var kind model.EventKind
	switch cmd.Action {
	case model.ActionClaim:
		ok, err = s.store.Claim(ctx, id, volunteerID)
		kind = model.KindBalloonClaimed
	case model.ActionRelease:
		ok, err = s.store.Release(ctx, id, volunteerID)
		kind = model.KindBalloonReleased
	case model.ActionDeliver:
		ok, err = s.store.Deliver(ctx, id, volunteerID)
		kind = model.KindBalloonDelivered
	}
	if err != nil {
		metrics.RecordErrorByComponent("store", "command_error")
		s.logger.Error(ctx, "store mutation failed",
			logger.String("action", cmd.Action),
			logger.String("balloon", id.Key()),
			logger.Error(err),
		)
		return false
	}
	if !ok {
		metrics.RecordCommandRejected(cmd.Action)
		return false
	}

	metrics.RecordCommandProcessed(cmd.Action)
	s.broadcastState(ctx, kind, id)
	return true
}

// ForceReload pushes the reload sentinel onto the merged stream; every
// attached subscriber's next message becomes a fresh snapshot.
func (s *Service) ForceReload(ctx context.Context) bool {
	return s.queue.Enqueue(ctx, model.Reload())
}

// Subscribe attaches a new subscriber session to the hub.
func (s *Service) Subscribe() (*eventhub.Subscriber, error) {
	return s.hub.Subscribe()
}

// Unsubscribe detaches a subscriber session.
func (s *Service) Unsubscribe(id string) {
	s.hub.Unsubscribe(id)
}

// Volunteers exposes the volunteer store to the auth layer.
func (s *Service) Volunteers() repository.VolunteerStore {
	return s.store
}

// ingest merges the contest feed into the event stream.
func (s *Service) ingest(ctx context.Context) {
	for item := range s.source.Items(ctx) {
		if item.Reload {
			s.logger.Info(ctx, "feed reconnected; forcing snapshot reload")
			s.enqueue(ctx, model.Reload())
			continue
		}

		id := model.BalloonID{ProblemID: item.Solve.ProblemID, TeamID: item.Solve.TeamID}
		created, err := s.store.Create(ctx, id)
		if err != nil {
			metrics.RecordErrorByComponent("store", "create_error")
			s.logger.Error(ctx, "failed to create balloon", logger.String("balloon", id.Key()), logger.Error(err))
			continue
		}
		if !created {
			// Feed replay after reconnect; the balloon is already known.
			continue
		}
		s.broadcastState(ctx, model.KindBalloonCreated, id)
	}
}

// broadcastState loads a balloon's visible state and enqueues the matching
// event on the merged stream.
func (s *Service) broadcastState(ctx context.Context, kind model.EventKind, id model.BalloonID) {
	view, err := s.store.State(ctx, id)
	if err != nil {
		metrics.RecordErrorByComponent("store", "state_error")
		s.logger.Error(ctx, "failed to load balloon state",
			logger.String("balloon", id.Key()),
			logger.Error(err),
		)
		return
	}
	s.enqueue(ctx, model.Event{Kind: kind, BalloonView: view})
}

func (s *Service) enqueue(ctx context.Context, event model.Event) {
	if !s.queue.Enqueue(ctx, event) {
		s.logger.Warn(ctx, "dropping event; queue unavailable",
			logger.String("kind", string(event.Kind)),
		)
	}
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":          s.started,
		"queueSize":        s.queueSize,
		"subscriberBuffer": s.subscriberBuffer,
	}

	if s.started {
		total, delivered, err := s.store.Count(ctx)
		if err == nil {
			stats["balloons"] = total
			stats["delivered"] = delivered
			metrics.UpdateBalloonsTotal(total)
			metrics.UpdateBalloonsDelivered(delivered)
		}
		stats["queueLength"] = s.queue.Len(ctx)
		stats["subscribers"] = s.hub.SubscriberCount()
	}

	return stats
}
