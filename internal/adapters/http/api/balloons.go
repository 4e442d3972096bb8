package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"golang.org/x/net/websocket"

	"github.com/okian/helium/internal/auth"
	"github.com/okian/helium/internal/domain/model"
	"github.com/okian/helium/pkg/logger"
	"github.com/okian/helium/pkg/metrics"
)

// Session hardening constants.
const (
	maxDecodeErrorsPerConn = 8
)

// BalloonsHandler owns the bidirectional stream endpoint. Each connection
// becomes a subscriber session: the hub subscription drains into the socket
// on a dedicated goroutine while the handler goroutine decodes inbound
// commands, so neither direction can stall the other.
type BalloonsHandler struct {
	deps          Dependencies
	authenticator *auth.Authenticator
	logger        logger.Logger
}

// NewBalloonsHandler creates the stream endpoint handler.
func NewBalloonsHandler(deps Dependencies, authenticator *auth.Authenticator) *BalloonsHandler {
	return &BalloonsHandler{
		deps:          deps,
		authenticator: authenticator,
		logger:        logger.Get().Named("session"),
	}
}

// Handler returns the websocket endpoint for /api/balloons.
func (h *BalloonsHandler) Handler() http.Handler {
	ws := websocket.Handler(h.handleConn)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		ws.ServeHTTP(w, r)
	})
}

func (h *BalloonsHandler) handleConn(conn *websocket.Conn) {
	defer func() {
		_ = conn.Close()
	}()

	r := conn.Request()
	ctx := r.Context()

	principal, err := h.authenticator.Authenticate(ctx, r)
	if err != nil || principal == nil || !principal.CanAccess {
		// A single error indication, then close without attaching.
		_ = websocket.JSON.Send(conn, errorResponse{Error: "access denied"})
		return
	}

	sub, err := h.deps.Subscribe()
	if err != nil {
		h.logger.Error(ctx, "failed to attach subscriber", logger.Error(err))
		_ = websocket.JSON.Send(conn, errorResponse{Error: "attach failed"})
		return
	}
	defer h.deps.Unsubscribe(sub.ID())

	h.logger.Debug(ctx, "subscriber attached",
		logger.String("subscriber", sub.ID()),
		logger.String("volunteer", principal.Login),
	)

	// Outbound: drain the hub subscription into the socket. The channel
	// closes when the subscriber is detached or dropped; a write failure
	// closes the socket, which also ends the inbound loop below.
	go func() {
		for msg := range sub.Messages() {
			if _, err := conn.Write(msg); err != nil {
				_ = conn.Close()
				return
			}
		}
		_ = conn.Close()
	}()

	// Inbound: decode commands until the connection ends. Failures are
	// reported to this connection only and never fault the stream.
	decoder := json.NewDecoder(conn)
	decodeErrors := 0
	for {
		var cmd model.Command
		if err := decoder.Decode(&cmd); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return
			}
			decodeErrors++
			metrics.RecordErrorByComponent("session", "malformed_command")
			_ = websocket.JSON.Send(conn, errorResponse{Error: "command failed"})
			if decodeErrors >= maxDecodeErrorsPerConn {
				return
			}
			continue
		}
		decodeErrors = 0

		if !h.deps.ProcessCommand(ctx, cmd, principal.VolunteerID) {
			_ = websocket.JSON.Send(conn, errorResponse{Error: "command failed"})
		}
	}
}
