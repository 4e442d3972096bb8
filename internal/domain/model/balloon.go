// Package model contains domain models passed between layers.
package model

import "fmt"

// BalloonID identifies a balloon by the (problem, team) pair that earned it.
// It is immutable once the balloon exists.
type BalloonID struct {
	ProblemID string `json:"problemId"`
	TeamID    string `json:"teamId"`
}

// Key returns the canonical map key for this balloon, also used as the
// snapshot object key on the wire.
func (id BalloonID) Key() string {
	return id.ProblemID + "/" + id.TeamID
}

func (id BalloonID) String() string {
	return fmt.Sprintf("balloon(problem=%s, team=%s)", id.ProblemID, id.TeamID)
}

// BalloonView is the publicly visible state of one balloon: who is carrying
// it (by login, nil when unowned) and whether it reached the team.
type BalloonView struct {
	ProblemID string  `json:"problemId"`
	TeamID    string  `json:"teamId"`
	Delivered bool    `json:"delivered"`
	Owner     *string `json:"owner"`
}

// ID returns the identity portion of the view.
func (v BalloonView) ID() BalloonID {
	return BalloonID{ProblemID: v.ProblemID, TeamID: v.TeamID}
}

// Volunteer is the actor performing commands. The full lifecycle (password
// changes, flag administration) lives in the repository and auth layers; the
// sync core only ever references volunteers by id and login.
type Volunteer struct {
	ID           int64
	Login        string
	PasswordHash string
	CanAccess    bool
	CanManage    bool
}
