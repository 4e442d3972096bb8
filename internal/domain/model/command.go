package model

import (
	"errors"
	"strings"
)

// Action names accepted from volunteer connections.
const (
	ActionClaim   = "claim"
	ActionRelease = "release"
	ActionDeliver = "deliver"
)

// Command is a volunteer request to mutate one balloon. The issuing
// volunteer's identity is carried out of band by the session, never trusted
// from the message body.
type Command struct {
	Action    string `json:"action"`
	ProblemID string `json:"problemId"`
	TeamID    string `json:"teamId"`
}

// BalloonID returns the identity the command targets.
func (c Command) BalloonID() BalloonID {
	return BalloonID{ProblemID: c.ProblemID, TeamID: c.TeamID}
}

// Validate rejects malformed commands before they reach the store.
func (c Command) Validate() error {
	switch {
	case strings.TrimSpace(c.ProblemID) == "":
		return errors.New("missing problemId")
	case strings.TrimSpace(c.TeamID) == "":
		return errors.New("missing teamId")
	}
	switch c.Action {
	case ActionClaim, ActionRelease, ActionDeliver:
		return nil
	default:
		return errors.New("unknown action")
	}
}
