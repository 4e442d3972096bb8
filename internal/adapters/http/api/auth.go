package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/helium/internal/adapters/repository"
	"github.com/okian/helium/internal/auth"
)

// AuthHandler handles volunteer login, registration and identity queries.
type AuthHandler struct {
	volunteers          repository.VolunteerStore
	tokens              *auth.TokenIssuer
	authenticator       *auth.Authenticator
	disableRegistration bool
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(
	volunteers repository.VolunteerStore,
	tokens *auth.TokenIssuer,
	authenticator *auth.Authenticator,
	disableRegistration bool,
) *AuthHandler {
	return &AuthHandler{
		volunteers:          volunteers,
		tokens:              tokens,
		authenticator:       authenticator,
		disableRegistration: disableRegistration,
	}
}

// HandleLogin handles POST /api/login requests. Unknown logins and wrong
// passwords are indistinguishable to the caller.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	const op = "api.login"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, WrapKind(op, ErrBadRequest, err))
		return
	}

	volunteer, err := h.volunteers.ByLogin(r.Context(), req.Login)
	if err != nil || !auth.VerifyPassword(volunteer.PasswordHash, req.Password) {
		writeError(w, http.StatusForbidden, NewKind(op, auth.ErrBadCredentials))
		return
	}

	token, err := h.tokens.Issue(volunteer.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, WrapKind(op, ErrInternal, err))
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

// HandleRegister handles POST /api/register requests. Anonymous
// registration is permitted only while enabled and yields an account
// without access rights; an admin with canManage registers volunteers with
// access granted by default.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	const op = "api.register"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	principal, err := h.authenticator.Authenticate(r.Context(), r)
	if err != nil {
		writeError(w, http.StatusForbidden, WrapKind(op, auth.ErrAccessDenied, err))
		return
	}
	if principal == nil && h.disableRegistration {
		writeError(w, http.StatusForbidden, NewKind(op, auth.ErrAccessDenied))
		return
	}
	if principal != nil && !principal.CanManage {
		writeError(w, http.StatusForbidden, NewKind(op, auth.ErrAccessDenied))
		return
	}

	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, WrapKind(op, ErrBadRequest, err))
		return
	}
	if strings.TrimSpace(req.Login) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, NewKind(op, ErrBadRequest))
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, WrapKind(op, ErrInternal, err))
		return
	}

	// An admin registering a volunteer grants access up front; a
	// self-registered volunteer waits for an admin to grant it.
	volunteer, err := h.volunteers.Register(r.Context(), req.Login, hash, principal != nil)
	if err != nil {
		if errors.Is(err, repository.ErrLoginTaken) {
			writeError(w, http.StatusConflict, NewKind(op, repository.ErrLoginTaken))
			return
		}
		writeError(w, http.StatusInternalServerError, WrapKind(op, ErrInternal, err))
		return
	}

	if principal == nil {
		// Self-registration continues as the new volunteer without a
		// second login round-trip.
		token, err := h.tokens.Issue(volunteer.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, WrapKind(op, ErrInternal, err))
			return
		}
		writeJSON(w, http.StatusOK, tokenResponse{Token: token})
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// accessRequest mirrors the POST /api/access body.
type accessRequest struct {
	Login     string `json:"login"`
	CanAccess bool   `json:"canAccess"`
	CanManage bool   `json:"canManage"`
}

// HandleAccess handles POST /api/access requests. An admin sets a
// volunteer's permission flags; this is how self-registered accounts are
// approved for duty.
func (h *AuthHandler) HandleAccess(w http.ResponseWriter, r *http.Request) {
	const op = "api.access"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	principal, err := h.authenticator.Authenticate(r.Context(), r)
	if err != nil || principal == nil || !principal.CanManage {
		writeError(w, http.StatusForbidden, NewKind(op, auth.ErrAccessDenied))
		return
	}

	var req accessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, WrapKind(op, ErrBadRequest, err))
		return
	}

	volunteer, err := h.volunteers.ByLogin(r.Context(), req.Login)
	if err != nil {
		writeError(w, http.StatusNotFound, WrapKind(op, repository.ErrNotFound, err))
		return
	}

	if err := h.volunteers.SetAccess(r.Context(), volunteer.ID, req.CanAccess); err != nil {
		writeError(w, http.StatusInternalServerError, WrapKind(op, ErrInternal, err))
		return
	}
	if err := h.volunteers.SetManage(r.Context(), volunteer.ID, req.CanManage); err != nil {
		writeError(w, http.StatusInternalServerError, WrapKind(op, ErrInternal, err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleInfo handles GET /api/info requests.
func (h *AuthHandler) HandleInfo(w http.ResponseWriter, r *http.Request) {
	const op = "api.info"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	principal, err := h.authenticator.Authenticate(r.Context(), r)
	if err != nil {
		writeError(w, http.StatusForbidden, WrapKind(op, auth.ErrAccessDenied, err))
		return
	}

	if principal == nil {
		canRegister := !h.disableRegistration
		writeJSON(w, http.StatusOK, userInfoResponse{CanRegister: &canRegister})
		return
	}
	writeJSON(w, http.StatusOK, userInfoResponse{
		Login:     principal.Login,
		CanAccess: &principal.CanAccess,
		CanManage: &principal.CanManage,
	})
}
