package hub

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/okian/helium/internal/adapters/mq/queue"
	"github.com/okian/helium/internal/domain/model"
	"github.com/okian/helium/pkg/logger"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func strPtr(s string) *string { return &s }

func startHub(t *testing.T, opts ...Option) (*Hub, *queue.InMemoryQueue, context.CancelFunc) {
	t.Helper()
	q := queue.NewInMemoryQueue(queue.WithCapacity(64))
	h := New(q, opts...)
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	t.Cleanup(func() {
		cancel()
		select {
		case <-h.Done():
		case <-time.After(time.Second):
			t.Error("hub did not shut down")
		}
	})
	return h, q, cancel
}

func receive(t *testing.T, sub *Subscriber) json.RawMessage {
	t.Helper()
	select {
	case msg, ok := <-sub.Messages():
		if !ok {
			t.Fatal("subscriber channel closed unexpectedly")
		}
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

func decodeSnapshot(t *testing.T, msg json.RawMessage) model.Snapshot {
	t.Helper()
	var snap model.Snapshot
	if err := json.Unmarshal(msg, &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap.Type != model.SnapshotType {
		t.Fatalf("expected snapshot message, got type %q", snap.Type)
	}
	return snap
}

func TestHub_SnapshotFirst(t *testing.T) {
	h, _, _ := startHub(t)
	h.Prime([]model.BalloonView{
		{ProblemID: "A", TeamID: "1", Owner: strPtr("alice")},
		{ProblemID: "B", TeamID: "2", Delivered: true},
	})

	sub, err := h.Subscribe()
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer h.Unsubscribe(sub.ID())

	snap := decodeSnapshot(t, receive(t, sub))
	if len(snap.Balloons) != 2 {
		t.Fatalf("expected 2 balloons in snapshot, got %d", len(snap.Balloons))
	}
	if owner := snap.Balloons["A/1"].Owner; owner == nil || *owner != "alice" {
		t.Errorf("expected A/1 owned by alice, got %v", owner)
	}
	if !snap.Balloons["B/2"].Delivered {
		t.Error("expected B/2 delivered in snapshot")
	}
}

func TestHub_BroadcastsEventsInOrder(t *testing.T) {
	h, q, _ := startHub(t)
	ctx := context.Background()

	sub, err := h.Subscribe()
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer h.Unsubscribe(sub.ID())
	decodeSnapshot(t, receive(t, sub)) // initial snapshot

	events := []model.Event{
		{Kind: model.KindBalloonCreated, BalloonView: model.BalloonView{ProblemID: "A", TeamID: "1"}},
		{Kind: model.KindBalloonClaimed, BalloonView: model.BalloonView{ProblemID: "A", TeamID: "1", Owner: strPtr("alice")}},
		{Kind: model.KindBalloonDelivered, BalloonView: model.BalloonView{ProblemID: "A", TeamID: "1", Delivered: true, Owner: strPtr("alice")}},
	}
	for _, e := range events {
		if !q.Enqueue(ctx, e) {
			t.Fatal("enqueue failed")
		}
	}

	for i, want := range events {
		var got model.Event
		if err := json.Unmarshal(receive(t, sub), &got); err != nil {
			t.Fatalf("decode event %d: %v", i, err)
		}
		if got.Kind != want.Kind {
			t.Errorf("event %d: expected kind %s, got %s", i, want.Kind, got.Kind)
		}
	}
}

func TestHub_LateSubscriberSeesMaterializedState(t *testing.T) {
	h, q, _ := startHub(t)
	ctx := context.Background()

	q.Enqueue(ctx, model.Event{
		Kind:        model.KindBalloonClaimed,
		BalloonView: model.BalloonView{ProblemID: "C", TeamID: "9", Owner: strPtr("bob")},
	})

	// Wait for the hub to fold the event into its snapshot.
	deadline := time.After(time.Second)
	for h.BalloonCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("hub never materialized the event")
		case <-time.After(5 * time.Millisecond):
		}
	}

	sub, err := h.Subscribe()
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer h.Unsubscribe(sub.ID())

	snap := decodeSnapshot(t, receive(t, sub))
	if owner := snap.Balloons["C/9"].Owner; owner == nil || *owner != "bob" {
		t.Errorf("expected snapshot to include the earlier claim, got %v", owner)
	}
}

func TestHub_ReloadResendsSnapshot(t *testing.T) {
	h, q, _ := startHub(t)
	ctx := context.Background()
	h.Prime([]model.BalloonView{{ProblemID: "A", TeamID: "1"}})

	sub, err := h.Subscribe()
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer h.Unsubscribe(sub.ID())
	decodeSnapshot(t, receive(t, sub))

	q.Enqueue(ctx, model.Reload())

	snap := decodeSnapshot(t, receive(t, sub))
	if len(snap.Balloons) != 1 {
		t.Errorf("expected reload snapshot with 1 balloon, got %d", len(snap.Balloons))
	}
}

func TestHub_DropsSlowSubscriber(t *testing.T) {
	h, q, _ := startHub(t, WithSubscriberBuffer(1))
	ctx := context.Background()

	slow, err := h.Subscribe()
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	// The snapshot already fills the single-slot buffer; the next two
	// events overflow it and must disconnect the subscriber.
	q.Enqueue(ctx, model.Event{Kind: model.KindBalloonCreated, BalloonView: model.BalloonView{ProblemID: "A", TeamID: "1"}})
	q.Enqueue(ctx, model.Event{Kind: model.KindBalloonCreated, BalloonView: model.BalloonView{ProblemID: "B", TeamID: "2"}})

	deadline := time.After(time.Second)
	for h.SubscriberCount() != 0 {
		select {
		case <-deadline:
			t.Fatal("slow subscriber was never dropped")
		case <-time.After(5 * time.Millisecond):
		}
	}

	// The channel closes so the session loop terminates.
	for {
		select {
		case _, ok := <-slow.Messages():
			if !ok {
				return
			}
		case <-time.After(time.Second):
			t.Fatal("subscriber channel never closed")
		}
	}
}

func TestHub_UnsubscribeIsIdempotent(t *testing.T) {
	h, _, _ := startHub(t)

	sub, err := h.Subscribe()
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	h.Unsubscribe(sub.ID())
	h.Unsubscribe(sub.ID()) // second detach must not panic

	if n := h.SubscriberCount(); n != 0 {
		t.Errorf("expected 0 subscribers, got %d", n)
	}
}

func TestHub_ShutdownDetachesSubscribers(t *testing.T) {
	q := queue.NewInMemoryQueue(queue.WithCapacity(4))
	h := New(q)
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)

	sub, err := h.Subscribe()
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	receive(t, sub) // drain snapshot

	cancel()
	select {
	case <-h.Done():
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}

	select {
	case _, ok := <-sub.Messages():
		if ok {
			t.Error("expected subscriber channel to be closed")
		}
	case <-time.After(time.Second):
		t.Error("subscriber channel never closed after shutdown")
	}
}
