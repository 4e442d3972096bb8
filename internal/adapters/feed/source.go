// Package feed adapts the external contest feed into the sync engine.
//
// The contest system is the only producer of balloon-creation facts: a team
// solving a problem makes a new balloon eligible for delivery. The feed is
// lazy, unbounded and non-restartable; after a broken connection the adapter
// reconnects and signals a reload so subscribers resynchronize from a fresh
// snapshot instead of trusting their incremental state.
package feed

import "context"

// Solve is one balloon-creation fact reported by the contest system.
type Solve struct {
	ProblemID string `json:"problemId"`
	TeamID    string `json:"teamId"`
}

// Item is one element of the adapted stream: either a solve or a reload
// marker emitted after the underlying connection was re-established.
type Item struct {
	Solve  *Solve
	Reload bool
}

// Source is the narrow interface the service consumes.
type Source interface {
	// Items returns the adapted stream. The channel closes when ctx is
	// canceled.
	Items(ctx context.Context) <-chan Item
}
