package service_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/okian/helium/internal/adapters/feed"
	eventhub "github.com/okian/helium/internal/adapters/mq/hub"
	service "github.com/okian/helium/internal/app"
	"github.com/okian/helium/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// scriptedFeed replays a fixed sequence of feed items.
type scriptedFeed struct {
	items []feed.Item
}

func (f *scriptedFeed) Items(ctx context.Context) <-chan feed.Item {
	out := make(chan feed.Item)
	go func() {
		defer close(out)
		for _, item := range f.items {
			select {
			case out <- item:
			case <-ctx.Done():
				return
			}
		}
		<-ctx.Done()
	}()
	return out
}

func TestServiceIntegration_DeliveryScenario(t *testing.T) {
	Convey("Given a service fed one solve and watched by a subscriber", t, func() {
		source := &scriptedFeed{items: []feed.Item{
			{Solve: &feed.Solve{ProblemID: "A", TeamID: "17"}},
		}}
		svc := service.New(
			service.WithDBPath(freshDBPath(t)),
			service.WithQueueSize(1000),
			service.WithFeedSource(source),
		)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		alice := registerVolunteer(t, svc, "alice")
		bob := registerVolunteer(t, svc, "bob")

		sub, err := svc.Subscribe()
		So(err, ShouldBeNil)
		defer svc.Unsubscribe(sub.ID())
		waitForMessage(t, sub.Messages()) // snapshot

		Convey("When two volunteers contend over the balloon's lifecycle", func() {
			// The feed creation may race the subscription; wait for it.
			created := waitForKind(t, sub, model.KindBalloonCreated)
			So(created.ProblemID, ShouldEqual, "A")
			So(created.TeamID, ShouldEqual, "17")
			So(created.Owner, ShouldBeNil)

			claim := model.Command{Action: model.ActionClaim, ProblemID: "A", TeamID: "17"}
			release := model.Command{Action: model.ActionRelease, ProblemID: "A", TeamID: "17"}
			deliver := model.Command{Action: model.ActionDeliver, ProblemID: "A", TeamID: "17"}

			So(svc.ProcessCommand(ctx, claim, alice), ShouldBeTrue)
			So(svc.ProcessCommand(ctx, claim, bob), ShouldBeFalse)
			So(svc.ProcessCommand(ctx, release, alice), ShouldBeTrue)
			So(svc.ProcessCommand(ctx, claim, bob), ShouldBeTrue)
			So(svc.ProcessCommand(ctx, deliver, bob), ShouldBeTrue)
			So(svc.ProcessCommand(ctx, release, alice), ShouldBeFalse)

			Convey("Then the subscriber sees the successful transitions in order", func() {
				e := waitForKind(t, sub, model.KindBalloonClaimed)
				So(*e.Owner, ShouldEqual, "alice")

				e = waitForKind(t, sub, model.KindBalloonReleased)
				So(e.Owner, ShouldBeNil)

				e = waitForKind(t, sub, model.KindBalloonClaimed)
				So(*e.Owner, ShouldEqual, "bob")

				e = waitForKind(t, sub, model.KindBalloonDelivered)
				So(e.Delivered, ShouldBeTrue)
				So(*e.Owner, ShouldEqual, "bob")
			})

			Convey("And a fresh subscriber's snapshot shows the final state", func() {
				late, err := svc.Subscribe()
				So(err, ShouldBeNil)
				defer svc.Unsubscribe(late.ID())

				var snap model.Snapshot
				So(json.Unmarshal(waitForMessage(t, late.Messages()), &snap), ShouldBeNil)
				So(snap.Type, ShouldEqual, model.SnapshotType)

				balloon := snap.Balloons["A/17"]
				So(balloon.Delivered, ShouldBeTrue)
				So(balloon.Owner, ShouldNotBeNil)
				So(*balloon.Owner, ShouldEqual, "bob")
			})
		})
	})
}

func TestServiceIntegration_FeedReconnectForcesReload(t *testing.T) {
	Convey("Given a service whose feed reconnects", t, func() {
		source := &scriptedFeed{items: []feed.Item{
			{Solve: &feed.Solve{ProblemID: "B", TeamID: "2"}},
			{Reload: true},
		}}
		svc := service.New(
			service.WithDBPath(freshDBPath(t)),
			service.WithFeedSource(source),
		)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		sub, err := svc.Subscribe()
		So(err, ShouldBeNil)
		defer svc.Unsubscribe(sub.ID())
		waitForMessage(t, sub.Messages()) // initial snapshot

		Convey("Then the reload marker turns into a snapshot broadcast", func() {
			deadline := time.After(5 * time.Second)
			for {
				var msg json.RawMessage
				select {
				case msg = <-sub.Messages():
				case <-deadline:
					t.Fatal("never received the reload snapshot")
				}

				var envelope struct {
					Type string `json:"type"`
				}
				So(json.Unmarshal(msg, &envelope), ShouldBeNil)
				if envelope.Type == model.SnapshotType {
					var snap model.Snapshot
					So(json.Unmarshal(msg, &snap), ShouldBeNil)
					So(snap.Balloons, ShouldContainKey, "B/2")
					return
				}
			}
		})
	})
}

// waitForKind drains the subscriber until an event of the wanted kind arrives.
func waitForKind(t *testing.T, sub *eventhub.Subscriber, kind model.EventKind) model.Event {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		var msg json.RawMessage
		select {
		case m, ok := <-sub.Messages():
			if !ok {
				t.Fatal("subscriber channel closed")
			}
			msg = m
		case <-deadline:
			t.Fatalf("timed out waiting for %s event", kind)
		}

		var event model.Event
		if err := json.Unmarshal(msg, &event); err != nil {
			continue
		}
		if event.Kind == kind {
			return event
		}
	}
}
