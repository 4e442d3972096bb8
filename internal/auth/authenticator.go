package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/okian/helium/internal/adapters/repository"
)

// Authenticator resolves the Principal for an incoming request. A request
// without a token is anonymous (nil principal, nil error); a request with a
// bad token is an error.
type Authenticator struct {
	tokens     *TokenIssuer
	volunteers repository.VolunteerStore
}

// NewAuthenticator wires token verification to the volunteer store.
func NewAuthenticator(tokens *TokenIssuer, volunteers repository.VolunteerStore) *Authenticator {
	return &Authenticator{tokens: tokens, volunteers: volunteers}
}

// Authenticate extracts a token from the Authorization header (Bearer) or
// the token query parameter. The query parameter form exists for websocket
// clients, which cannot set headers from browsers.
func (a *Authenticator) Authenticate(ctx context.Context, r *http.Request) (*Principal, error) {
	token := tokenFromRequest(r)
	if token == "" {
		return nil, nil
	}

	volunteerID, err := a.tokens.Verify(token)
	if err != nil {
		return nil, err
	}

	volunteer, err := a.volunteers.ByID(ctx, volunteerID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return principalFor(volunteer), nil
}

func tokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}
