package auth

import (
	"context"
	"errors"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/okian/helium/internal/adapters/repository"
)

func testAuthenticator(t *testing.T) (*Authenticator, *TokenIssuer, int64) {
	t.Helper()
	store, err := repository.Open(filepath.Join(t.TempDir(), "auth.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	v, err := store.Register(context.Background(), "alice", "hash", true)
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	tokens := NewTokenIssuer("test-secret")
	return NewAuthenticator(tokens, store), tokens, v.ID
}

func TestAuthenticate_AnonymousWithoutToken(t *testing.T) {
	a, _, _ := testAuthenticator(t)

	r := httptest.NewRequest("GET", "/api/balloons", nil)
	principal, err := a.Authenticate(context.Background(), r)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if principal != nil {
		t.Errorf("expected anonymous request to yield nil principal, got %+v", principal)
	}
}

func TestAuthenticate_BearerHeader(t *testing.T) {
	a, tokens, id := testAuthenticator(t)

	token, err := tokens.Issue(id)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	r := httptest.NewRequest("GET", "/api/balloons", nil)
	r.Header.Set("Authorization", "Bearer "+token)

	principal, err := a.Authenticate(context.Background(), r)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if principal == nil || principal.Login != "alice" || !principal.CanAccess {
		t.Errorf("unexpected principal: %+v", principal)
	}
}

func TestAuthenticate_QueryParameter(t *testing.T) {
	a, tokens, id := testAuthenticator(t)

	token, err := tokens.Issue(id)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	// Browser websocket clients cannot set headers; the token rides the URL.
	r := httptest.NewRequest("GET", "/api/balloons?token="+token, nil)

	principal, err := a.Authenticate(context.Background(), r)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if principal == nil || principal.VolunteerID != id {
		t.Errorf("unexpected principal: %+v", principal)
	}
}

func TestAuthenticate_RejectsBadToken(t *testing.T) {
	a, _, _ := testAuthenticator(t)

	r := httptest.NewRequest("GET", "/api/balloons", nil)
	r.Header.Set("Authorization", "Bearer bogus")

	if _, err := a.Authenticate(context.Background(), r); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestAuthenticate_RejectsTokenForDeletedVolunteer(t *testing.T) {
	a, tokens, _ := testAuthenticator(t)

	// A structurally valid token whose subject no longer exists.
	token, err := tokens.Issue(99999)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	r := httptest.NewRequest("GET", "/api/balloons?token="+token, nil)
	if _, err := a.Authenticate(context.Background(), r); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "hunter2" {
		t.Error("expected hash to differ from password")
	}

	if !VerifyPassword(hash, "hunter2") {
		t.Error("expected correct password to verify")
	}
	if VerifyPassword(hash, "hunter3") {
		t.Error("expected wrong password to fail")
	}
}
