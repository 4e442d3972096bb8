package api

import (
	"net/http"

	"github.com/okian/helium/internal/auth"
)

// ReloadHandler lets an administrator force a snapshot resync for every
// attached subscriber, the recovery lever for a suspected inconsistency.
type ReloadHandler struct {
	deps          Dependencies
	authenticator *auth.Authenticator
}

// NewReloadHandler creates a new reload handler.
func NewReloadHandler(deps Dependencies, authenticator *auth.Authenticator) *ReloadHandler {
	return &ReloadHandler{deps: deps, authenticator: authenticator}
}

// HandleReload handles POST /api/reload requests. Requires canManage.
func (h *ReloadHandler) HandleReload(w http.ResponseWriter, r *http.Request) {
	const op = "api.reload"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	principal, err := h.authenticator.Authenticate(r.Context(), r)
	if err != nil || principal == nil || !principal.CanManage {
		writeError(w, http.StatusForbidden, NewKind(op, auth.ErrAccessDenied))
		return
	}

	if !h.deps.ForceReload(r.Context()) {
		writeError(w, http.StatusServiceUnavailable, NewKind(op, ErrBackpressure))
		return
	}
	w.WriteHeader(http.StatusAccepted)
}
