package model

// EventKind tags the event union on the wire.
type EventKind string

// Event kinds streamed to subscribers. KindReload never crosses the wire:
// the hub replaces it with a full snapshot message.
const (
	KindBalloonCreated   EventKind = "balloonCreated"
	KindBalloonClaimed   EventKind = "balloonClaimed"
	KindBalloonReleased  EventKind = "balloonReleased"
	KindBalloonDelivered EventKind = "balloonDelivered"
	KindReload           EventKind = "reload"
)

// Event is one item on the merged stream: a balloon state change or the
// reload sentinel. Events are transient; they are streamed, never stored.
type Event struct {
	Kind EventKind `json:"type"`
	BalloonView
}

// Reload returns the sentinel event instructing the hub to resend the full
// snapshot to every subscriber.
func Reload() Event {
	return Event{Kind: KindReload}
}

// IsReload reports whether this event is the reload sentinel.
func (e Event) IsReload() bool {
	return e.Kind == KindReload
}

// Snapshot is the full state of all known balloons at a point in time,
// keyed by BalloonID.Key(). It is a subscriber's first message on attach
// and replaces the stream after a reload.
type Snapshot struct {
	Type     string                 `json:"type"`
	Balloons map[string]BalloonView `json:"balloons"`
}

// SnapshotType is the wire tag distinguishing snapshots from events.
const SnapshotType = "snapshot"

// NewSnapshot copies views into a wire-ready snapshot.
func NewSnapshot(views map[string]BalloonView) Snapshot {
	balloons := make(map[string]BalloonView, len(views))
	for k, v := range views {
		balloons[k] = v
	}
	return Snapshot{Type: SnapshotType, Balloons: balloons}
}
