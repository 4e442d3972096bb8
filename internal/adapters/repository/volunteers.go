package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/okian/helium/internal/domain/model"
)

// Register creates a volunteer with a pre-hashed password. Password hashing
// belongs to the auth layer; the store only persists the result.
func (s *SQLiteStore) Register(ctx context.Context, login, passwordHash string, canAccess bool) (*model.Volunteer, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO volunteers (login, password_hash, can_access) VALUES (?, ?, ?)
		 ON CONFLICT (login) DO NOTHING`,
		login, passwordHash, boolToInt(canAccess),
	)
	if err != nil {
		return nil, fmt.Errorf("register %q: %w", login, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("register %q: %w", login, err)
	}
	if n == 0 {
		return nil, fmt.Errorf("register %q: %w", login, ErrLoginTaken)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("register %q: %w", login, err)
	}
	return &model.Volunteer{
		ID:           id,
		Login:        login,
		PasswordHash: passwordHash,
		CanAccess:    canAccess,
	}, nil
}

// SetAccess grants or revokes the stream/command permission.
func (s *SQLiteStore) SetAccess(ctx context.Context, id int64, canAccess bool) error {
	ok, err := s.execCount(ctx,
		`UPDATE volunteers SET can_access = ? WHERE id = ?`,
		boolToInt(canAccess), id,
	)
	if err != nil {
		return fmt.Errorf("set access for %d: %w", id, err)
	}
	if !ok {
		return fmt.Errorf("set access for %d: %w", id, ErrNotFound)
	}
	return nil
}

// SetManage grants or revokes the admin permission.
func (s *SQLiteStore) SetManage(ctx context.Context, id int64, canManage bool) error {
	ok, err := s.execCount(ctx,
		`UPDATE volunteers SET can_manage = ? WHERE id = ?`,
		boolToInt(canManage), id,
	)
	if err != nil {
		return fmt.Errorf("set manage for %d: %w", id, err)
	}
	if !ok {
		return fmt.Errorf("set manage for %d: %w", id, ErrNotFound)
	}
	return nil
}

// ByLogin returns the volunteer with the given login.
func (s *SQLiteStore) ByLogin(ctx context.Context, login string) (*model.Volunteer, error) {
	return s.volunteer(ctx, `login = ?`, login)
}

// ByID returns the volunteer with the given id.
func (s *SQLiteStore) ByID(ctx context.Context, id int64) (*model.Volunteer, error) {
	return s.volunteer(ctx, `id = ?`, id)
}

func (s *SQLiteStore) volunteer(ctx context.Context, where string, arg any) (*model.Volunteer, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, login, password_hash, can_access, can_manage FROM volunteers WHERE `+where,
		arg,
	)

	var v model.Volunteer
	var canAccess, canManage int
	if err := row.Scan(&v.ID, &v.Login, &v.PasswordHash, &canAccess, &canManage); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("volunteer %s %v: %w", strings.Fields(where)[0], arg, ErrNotFound)
		}
		return nil, fmt.Errorf("load volunteer: %w", err)
	}
	v.CanAccess = canAccess != 0
	v.CanManage = canManage != 0
	return &v, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
