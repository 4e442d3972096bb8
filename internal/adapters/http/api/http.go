// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	eventhub "github.com/okian/helium/internal/adapters/mq/hub"
	"github.com/okian/helium/internal/adapters/repository"
	"github.com/okian/helium/internal/auth"
	"github.com/okian/helium/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// ProcessCommand applies one volunteer command; false means rejected.
	ProcessCommand(ctx context.Context, cmd model.Command, volunteerID int64) bool

	// Subscribe attaches a session to the event stream.
	Subscribe() (*eventhub.Subscriber, error)

	// Unsubscribe detaches a session from the event stream.
	Unsubscribe(id string)

	// ForceReload pushes a snapshot reload to every subscriber.
	ForceReload(ctx context.Context) bool
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	authHandler     *AuthHandler
	balloonsHandler *BalloonsHandler
	reloadHandler   *ReloadHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(
	deps Dependencies,
	statsProvider StatsProvider,
	authenticator *auth.Authenticator,
	volunteers repository.VolunteerStore,
	tokens *auth.TokenIssuer,
	disableRegistration bool,
) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		authHandler:     NewAuthHandler(volunteers, tokens, authenticator, disableRegistration),
		balloonsHandler: NewBalloonsHandler(deps, authenticator),
		reloadHandler:   NewReloadHandler(deps, authenticator),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleHealth)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/api/login", MetricsMiddleware(s.authHandler.HandleLogin, "login"))
	mux.HandleFunc("/api/register", MetricsMiddleware(s.authHandler.HandleRegister, "register"))
	mux.HandleFunc("/api/info", MetricsMiddleware(s.authHandler.HandleInfo, "info"))
	mux.HandleFunc("/api/access", MetricsMiddleware(s.authHandler.HandleAccess, "access"))
	mux.HandleFunc("/api/reload", MetricsMiddleware(s.reloadHandler.HandleReload, "reload"))
	mux.Handle("/api/balloons", s.balloonsHandler.Handler())
}

// credentialsRequest mirrors the login and register request body.
type credentialsRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// userInfoResponse mirrors GET /api/info. Fields are omitted rather than
// zeroed so anonymous and authenticated shapes stay distinct.
type userInfoResponse struct {
	CanRegister *bool  `json:"canRegister,omitempty"`
	Login       string `json:"login,omitempty"`
	CanAccess   *bool  `json:"canAccess,omitempty"`
	CanManage   *bool  `json:"canManage,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Error: msg})
}
