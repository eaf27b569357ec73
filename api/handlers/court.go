package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/linesmerrill/ai-court-api/api"
	"github.com/linesmerrill/ai-court-api/config"
	"github.com/linesmerrill/ai-court-api/court"
	"github.com/linesmerrill/ai-court-api/models"
)

// TrialSessions is the part of the session registry the handlers drive
type TrialSessions interface {
	Start(ctx context.Context, facts court.CaseFacts) (string, error)
	SubmitEvidence(ctx context.Context, id string, e court.Evidence) error
	Advance(ctx context.Context, id, input string) (court.StepResult, error)
	AdvanceStream(ctx context.Context, id, input string, onLine func(court.Line)) (court.StepResult, error)
	Snapshot(ctx context.Context, id string) (court.Snapshot, error)
	Close(ctx context.Context, id string) error
}

// Court exposes trial sessions over HTTP
type Court struct {
	Sessions TrialSessions
}

// StartTrialHandler creates a session from the case facts in the body
func (c Court) StartTrialHandler(w http.ResponseWriter, r *http.Request) {
	var facts court.CaseFacts
	if err := json.NewDecoder(r.Body).Decode(&facts); err != nil {
		config.ErrorStatus("failed to decode case facts", http.StatusBadRequest, w, err)
		return
	}

	id, err := c.Sessions.Start(r.Context(), facts)
	if err != nil {
		sessionError("failed to start trial", w, err)
		return
	}
	zap.S().Infow("trial session created", "session", id, "requestId", api.RequestIDFromContext(r.Context()))

	writeJSON(w, http.StatusCreated, models.StartTrialResponse{
		SessionID: id,
		Message:   "trial started",
	})
}

// SubmitEvidenceHandler adds one evidence item to the session
func (c Court) SubmitEvidenceHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["session_id"]

	var e court.Evidence
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		config.ErrorStatus("failed to decode evidence", http.StatusBadRequest, w, err)
		return
	}
	if err := c.Sessions.SubmitEvidence(r.Context(), id, e); err != nil {
		sessionError("failed to submit evidence", w, err)
		return
	}

	writeJSON(w, http.StatusCreated, models.MessageResponse{Message: "evidence submitted"})
}

// AdvanceHandler runs the trial until the human must speak or judgment is given
func (c Court) AdvanceHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["session_id"]

	// an empty body advances without input
	var req models.AdvanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		config.ErrorStatus("failed to decode advance request", http.StatusBadRequest, w, err)
		return
	}

	res, err := c.Sessions.Advance(r.Context(), id, req.UserInput)
	if err != nil {
		sessionError("failed to advance trial", w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// SessionHandler returns the full state of a session
func (c Court) SessionHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["session_id"]

	snap, err := c.Sessions.Snapshot(r.Context(), id)
	if err != nil {
		sessionError("failed to get session", w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// CloseSessionHandler discards a session
func (c Court) CloseSessionHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["session_id"]

	if err := c.Sessions.Close(r.Context(), id); err != nil {
		sessionError("failed to close session", w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.MessageResponse{Message: "session closed"})
}

// sessionError maps court errors onto status codes
func sessionError(message string, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, court.ErrSessionNotFound):
		config.ErrorStatus(message, http.StatusNotFound, w, err)
	case errors.Is(err, court.ErrInvalidCaseFacts), errors.Is(err, court.ErrInvalidEvidence):
		config.ErrorStatus(message, http.StatusBadRequest, w, err)
	case errors.Is(err, court.ErrTrialNotStarted):
		config.ErrorStatus(message, http.StatusConflict, w, err)
	default:
		config.ErrorStatus(message, http.StatusInternalServerError, w, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}
