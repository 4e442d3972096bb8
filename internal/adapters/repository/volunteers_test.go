package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func TestRegister_AndLookup(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "volunteers.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer s.Close()
	ctx := context.Background()

	v, err := s.Register(ctx, "alice", "bcrypt-hash", true)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if v.ID == 0 {
		t.Error("expected a non-zero volunteer id")
	}
	if !v.CanAccess || v.CanManage {
		t.Errorf("expected can_access without can_manage, got %+v", v)
	}

	byLogin, err := s.ByLogin(ctx, "alice")
	if err != nil {
		t.Fatalf("by login: %v", err)
	}
	if byLogin.ID != v.ID || byLogin.PasswordHash != "bcrypt-hash" {
		t.Errorf("lookup mismatch: %+v", byLogin)
	}

	byID, err := s.ByID(ctx, v.ID)
	if err != nil {
		t.Fatalf("by id: %v", err)
	}
	if byID.Login != "alice" {
		t.Errorf("expected login alice, got %s", byID.Login)
	}
}

func TestRegister_DuplicateLogin(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "volunteers.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer s.Close()
	ctx := context.Background()

	if _, err := s.Register(ctx, "alice", "hash-1", true); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, err = s.Register(ctx, "alice", "hash-2", true)
	if !errors.Is(err, ErrLoginTaken) {
		t.Errorf("expected ErrLoginTaken, got %v", err)
	}

	// The original credentials survive the collision.
	v, err := s.ByLogin(ctx, "alice")
	if err != nil {
		t.Fatalf("by login: %v", err)
	}
	if v.PasswordHash != "hash-1" {
		t.Errorf("expected first registration to win, got hash %s", v.PasswordHash)
	}
}

func TestVolunteerLookup_Unknown(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "volunteers.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer s.Close()
	ctx := context.Background()

	if _, err := s.ByLogin(ctx, "ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound by login, got %v", err)
	}
	if _, err := s.ByID(ctx, 12345); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound by id, got %v", err)
	}
}
