// Package repository defines the balloon and volunteer stores and errors.
package repository

import (
	"context"

	"github.com/okian/helium/internal/domain/model"
)

// Store provides atomic access to balloon state. Every mutation is a single
// conditional statement; the store is the serialization point for racing
// commands on the same balloon.
type Store interface {
	// Create registers a balloon reported by the contest feed.
	// Returns true if the balloon was newly inserted, false if it already existed.
	Create(ctx context.Context, id model.BalloonID) (bool, error)

	// Claim assigns ownership to volunteerID unless the balloon is owned by
	// someone else. A balloon unknown to the store is inserted already owned.
	// Returns true whenever the balloon ends up owned by volunteerID, whether
	// newly set or already so.
	Claim(ctx context.Context, id model.BalloonID, volunteerID int64) (bool, error)

	// Release clears ownership only if the balloon is owned by volunteerID
	// and not yet delivered. Returns true iff the clear happened.
	Release(ctx context.Context, id model.BalloonID, volunteerID int64) (bool, error)

	// Deliver marks the balloon delivered only if it is owned by volunteerID.
	// Idempotent under the same owner. Returns true iff the balloon is now
	// delivered under volunteerID's ownership.
	Deliver(ctx context.Context, id model.BalloonID, volunteerID int64) (bool, error)

	// State returns the visible state of one balloon.
	// Returns ErrNotFound if the balloon is unknown.
	State(ctx context.Context, id model.BalloonID) (model.BalloonView, error)

	// All returns the visible state of every known balloon.
	All(ctx context.Context) ([]model.BalloonView, error)

	// Count returns the number of tracked and delivered balloons.
	Count(ctx context.Context) (total int, delivered int, err error)
}

// VolunteerStore manages volunteer accounts referenced by the core.
type VolunteerStore interface {
	// Register creates a volunteer with a pre-hashed password.
	// Returns ErrLoginTaken if the login already exists.
	Register(ctx context.Context, login, passwordHash string, canAccess bool) (*model.Volunteer, error)

	// ByLogin returns the volunteer with the given login, or ErrNotFound.
	ByLogin(ctx context.Context, login string) (*model.Volunteer, error)

	// ByID returns the volunteer with the given id, or ErrNotFound.
	ByID(ctx context.Context, id int64) (*model.Volunteer, error)

	// SetAccess grants or revokes the stream/command permission.
	// Returns ErrNotFound for an unknown volunteer.
	SetAccess(ctx context.Context, id int64, canAccess bool) error

	// SetManage grants or revokes the admin permission.
	// Returns ErrNotFound for an unknown volunteer.
	SetManage(ctx context.Context, id int64, canManage bool) error
}
