package hub

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Subscriber is one attached session's view of the stream. Messages are
// wire-ready JSON payloads: the full snapshot first, then events in hub
// order. The channel is closed when the subscriber is detached or dropped.
type Subscriber struct {
	id   string
	msgs chan json.RawMessage
}

func newSubscriber(buffer int) *Subscriber {
	if buffer < 1 {
		buffer = 1
	}
	return &Subscriber{
		id:   uuid.NewString(),
		msgs: make(chan json.RawMessage, buffer),
	}
}

// ID returns the subscriber's unique identifier.
func (s *Subscriber) ID() string {
	return s.id
}

// Messages returns the outbound message channel.
func (s *Subscriber) Messages() <-chan json.RawMessage {
	return s.msgs
}
