package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/okian/helium/internal/domain/model"
	"github.com/okian/helium/pkg/metrics"
)

// Create registers a balloon reported by the contest feed. The conditional
// insert is also the deduplication point for feed replays after a reconnect.
func (s *SQLiteStore) Create(ctx context.Context, id model.BalloonID) (bool, error) {
	created, err := s.execCount(ctx,
		`INSERT INTO balloons (problem_id, team_id) VALUES (?, ?)
		 ON CONFLICT (problem_id, team_id) DO NOTHING`,
		id.ProblemID, id.TeamID,
	)
	if err != nil {
		return false, fmt.Errorf("create %s: %w", id, err)
	}
	return created, nil
}

// Claim assigns ownership in one upsert statement. The WHERE clause on the
// conflict branch is the "unowned or already mine" predicate; a claim for a
// balloon owned by someone else matches no row and reports false without
// touching ownership. A claim for an unknown balloon inserts it owned, which
// lets volunteers react to solves the feed has not delivered yet.
func (s *SQLiteStore) Claim(ctx context.Context, id model.BalloonID, volunteerID int64) (bool, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreLatency(float64(time.Since(start).Milliseconds()))
	}()

	ok, err := s.execCount(ctx,
		`INSERT INTO balloons (problem_id, team_id, volunteer_id) VALUES (?, ?, ?)
		 ON CONFLICT (problem_id, team_id) DO UPDATE SET volunteer_id = excluded.volunteer_id
		 WHERE balloons.volunteer_id IS NULL OR balloons.volunteer_id = excluded.volunteer_id`,
		id.ProblemID, id.TeamID, volunteerID,
	)
	if err != nil {
		return false, fmt.Errorf("claim %s: %w", id, err)
	}
	return ok, nil
}

// Release clears ownership only for the current holder of an undelivered
// balloon.
func (s *SQLiteStore) Release(ctx context.Context, id model.BalloonID, volunteerID int64) (bool, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreLatency(float64(time.Since(start).Milliseconds()))
	}()

	ok, err := s.execCount(ctx,
		`UPDATE balloons SET volunteer_id = NULL
		 WHERE problem_id = ? AND team_id = ? AND volunteer_id = ? AND delivered = 0`,
		id.ProblemID, id.TeamID, volunteerID,
	)
	if err != nil {
		return false, fmt.Errorf("release %s: %w", id, err)
	}
	return ok, nil
}

// Deliver marks the balloon delivered while it is held by volunteerID.
// Re-delivering an already delivered balloon under the same owner still
// matches the row, which makes the operation idempotent.
func (s *SQLiteStore) Deliver(ctx context.Context, id model.BalloonID, volunteerID int64) (bool, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreLatency(float64(time.Since(start).Milliseconds()))
	}()

	ok, err := s.execCount(ctx,
		`UPDATE balloons SET delivered = 1
		 WHERE problem_id = ? AND team_id = ? AND volunteer_id = ?`,
		id.ProblemID, id.TeamID, volunteerID,
	)
	if err != nil {
		return false, fmt.Errorf("deliver %s: %w", id, err)
	}
	return ok, nil
}

// State returns the visible state of one balloon: delivery flag and the
// login of the responsible volunteer, if any.
func (s *SQLiteStore) State(ctx context.Context, id model.BalloonID) (model.BalloonView, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT b.delivered, v.login
		 FROM balloons b LEFT JOIN volunteers v ON b.volunteer_id = v.id
		 WHERE b.problem_id = ? AND b.team_id = ?`,
		id.ProblemID, id.TeamID,
	)

	view := model.BalloonView{ProblemID: id.ProblemID, TeamID: id.TeamID}
	var delivered int
	var login sql.NullString
	if err := row.Scan(&delivered, &login); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.BalloonView{}, fmt.Errorf("state %s: %w", id, ErrNotFound)
		}
		return model.BalloonView{}, fmt.Errorf("state %s: %w", id, err)
	}
	view.Delivered = delivered != 0
	if login.Valid {
		view.Owner = &login.String
	}
	return view, nil
}

// All returns the visible state of every known balloon.
func (s *SQLiteStore) All(ctx context.Context) ([]model.BalloonView, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT b.problem_id, b.team_id, b.delivered, v.login
		 FROM balloons b LEFT JOIN volunteers v ON b.volunteer_id = v.id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list balloons: %w", err)
	}
	defer rows.Close()

	var views []model.BalloonView
	for rows.Next() {
		var view model.BalloonView
		var delivered int
		var login sql.NullString
		if err := rows.Scan(&view.ProblemID, &view.TeamID, &delivered, &login); err != nil {
			return nil, fmt.Errorf("scan balloon: %w", err)
		}
		view.Delivered = delivered != 0
		if login.Valid {
			view.Owner = &login.String
		}
		views = append(views, view)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list balloons: %w", err)
	}
	return views, nil
}

// Count returns the number of tracked and delivered balloons.
func (s *SQLiteStore) Count(ctx context.Context) (int, int, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(delivered), 0) FROM balloons`,
	)
	var total, delivered int
	if err := row.Scan(&total, &delivered); err != nil {
		return 0, 0, fmt.Errorf("count balloons: %w", err)
	}
	return total, delivered, nil
}
