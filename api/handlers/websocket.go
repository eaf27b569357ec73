package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/linesmerrill/ai-court-api/court"
	"github.com/linesmerrill/ai-court-api/models"
)

// WebSocket upgrader
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// DefaultSocketWriteWait bounds a single write to a court socket client
const DefaultSocketWriteWait = 10 * time.Second

// CourtSocket streams a trial over a websocket. Each client frame is an
// advance request; every produced line is pushed as soon as it exists,
// followed by the step result.
type CourtSocket struct {
	Sessions TrialSessions
	// WriteWait overrides DefaultSocketWriteWait when non-zero
	WriteWait time.Duration
}

// send writes one event under a write deadline. Lines are sent while the
// session is locked, so a client that stops reading must not hold it.
func (s CourtSocket) send(conn *websocket.Conn, ev models.SocketEvent) error {
	wait := s.WriteWait
	if wait == 0 {
		wait = DefaultSocketWriteWait
	}
	if err := conn.SetWriteDeadline(time.Now().Add(wait)); err != nil {
		return err
	}
	return conn.WriteJSON(ev)
}

// Handler upgrades the connection for the session in the path
func (s CourtSocket) Handler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["session_id"]
	if _, err := s.Sessions.Snapshot(r.Context(), id); err != nil {
		sessionError("failed to open court socket", w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.S().Warnw("websocket upgrade failed", "session", id, "error", err)
		return
	}
	defer conn.Close()
	zap.S().Infow("court socket connected", "session", id)

	for {
		var req models.AdvanceRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				zap.S().Warnw("court socket read failed", "session", id, "error", err)
			}
			zap.S().Infow("court socket disconnected", "session", id)
			return
		}

		var writeErr error
		res, err := s.Sessions.AdvanceStream(r.Context(), id, req.UserInput, func(l court.Line) {
			if writeErr == nil {
				writeErr = s.send(conn, models.SocketEvent{Event: models.EventLine, Data: l})
			}
		})
		if writeErr != nil {
			zap.S().Warnw("court socket write failed", "session", id, "error", writeErr)
			return
		}
		if err != nil {
			zap.S().Errorw("failed to advance trial", "session", id, "error", err)
			_ = s.send(conn, models.SocketEvent{
				Event: models.EventError,
				Data:  models.MessageError{Message: "failed to advance trial", Error: err.Error()},
			})
			if errors.Is(err, court.ErrSessionNotFound) {
				return
			}
			continue
		}

		if err := s.send(conn, models.SocketEvent{Event: models.EventStep, Data: res}); err != nil {
			zap.S().Warnw("court socket write failed", "session", id, "error", err)
			return
		}
	}
}
