// Package hub fans the merged event stream out to subscriber sessions.
//
// The hub is the single consumer of the queue, which makes the order it
// observes the total order every subscriber sees. It keeps a materialized
// snapshot of all balloon state so a new subscriber reaches a consistent
// baseline with one message regardless of how many events preceded it.
package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/okian/helium/internal/domain/model"
	"github.com/okian/helium/pkg/logger"
	"github.com/okian/helium/pkg/metrics"
)

// Default hub configuration constants.
const defaultSubscriberBuffer = 256

// Queue defines how the hub receives merged events.
type Queue interface {
	Dequeue(ctx context.Context) <-chan model.Event
}

// Hub consumes the merged event stream and broadcasts it. Delivery per
// subscriber is decoupled through a bounded channel; a subscriber that
// cannot keep up is dropped, never allowed to stall the stream.
type Hub struct {
	queue Queue

	mu    sync.Mutex
	subs  map[string]*Subscriber
	state map[string]model.BalloonView

	buffer int

	// Shutdown control
	done chan struct{}

	logger logger.Logger
}

// New creates a hub reading from queue.
func New(queue Queue, opts ...Option) *Hub {
	h := &Hub{
		queue:  queue,
		subs:   make(map[string]*Subscriber),
		state:  make(map[string]model.BalloonView),
		buffer: defaultSubscriberBuffer,
		done:   make(chan struct{}),
		logger: logger.Get().Named("hub"),
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// Prime seeds the materialized snapshot from the store. Call before Run so
// the first subscribers see balloons that predate this process.
func (h *Hub) Prime(views []model.BalloonView) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, v := range views {
		h.state[v.ID().Key()] = v
	}
}

// Run consumes the queue until ctx is canceled or the queue closes. All
// subscribers are detached on exit so their sessions terminate.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		h.detachAll()
		close(h.done)
	}()

	events := h.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			h.dispatch(event)
		}
	}
}

// Done is closed once Run has exited and every subscriber is detached.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// Subscribe attaches a new subscriber. Its first message is always the
// current full snapshot; the snapshot is queued and the subscriber added to
// the broadcast set under one lock, so no event can be observed before it.
func (h *Hub) Subscribe() (*Subscriber, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub := newSubscriber(h.buffer)

	msg, err := json.Marshal(model.NewSnapshot(h.state))
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	sub.msgs <- msg
	metrics.RecordSnapshotSent()

	h.subs[sub.ID()] = sub
	metrics.UpdateSubscribers(len(h.subs))
	return sub, nil
}

// Unsubscribe detaches a subscriber and closes its message channel.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.drop(id)
}

// SubscriberCount returns the number of attached subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// BalloonCount returns the number of balloons in the materialized snapshot.
func (h *Hub) BalloonCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.state)
}

// dispatch applies one event to the materialized snapshot and broadcasts it.
// For the reload sentinel the broadcast payload is a fresh snapshot instead
// of an incremental event.
func (h *Hub) dispatch(event model.Event) {
	start := time.Now()
	defer func() {
		metrics.RecordBroadcastLatency(float64(time.Since(start).Milliseconds()))
	}()

	h.mu.Lock()
	defer h.mu.Unlock()

	var msg []byte
	var err error
	if event.IsReload() {
		msg, err = json.Marshal(model.NewSnapshot(h.state))
	} else {
		h.state[event.ID().Key()] = event.BalloonView
		msg, err = json.Marshal(event)
	}
	if err != nil {
		metrics.RecordErrorByComponent("hub", "marshal_error")
		h.logger.Error(context.Background(), "failed to marshal broadcast payload", logger.Error(err))
		return
	}

	metrics.RecordEventBroadcast(string(event.Kind))
	for id, sub := range h.subs {
		select {
		case sub.msgs <- msg:
			if event.IsReload() {
				metrics.RecordSnapshotSent()
			}
		default:
			// Subscriber is not draining its buffer; disconnect it
			// rather than stall the stream for everyone else.
			h.logger.Warn(context.Background(), "dropping slow subscriber", logger.String("subscriber", id))
			metrics.RecordSubscriberDrop()
			h.drop(id)
		}
	}
}

// drop removes a subscriber and closes its channel. Caller holds h.mu.
func (h *Hub) drop(id string) {
	sub, ok := h.subs[id]
	if !ok {
		return
	}
	delete(h.subs, id)
	close(sub.msgs)
	metrics.UpdateSubscribers(len(h.subs))
}

// detachAll closes every subscriber channel.
func (h *Hub) detachAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id := range h.subs {
		h.drop(id)
	}
}
