// Package docs AI Court API.
//
// Simulated civil trials: one litigant is played by the caller, the judge and
// the other litigant are generated.
//
//     Schemes: https, http
//     BasePath: /
//     Version: 1.0.0
//
//     Consumes:
//     - application/json
//
//     Produces:
//     - application/json
//
//     Security:
//     - basic
//     - bearer
//
//    SecurityDefinitions:
//    basic:
//      type: basic
//    bearer:
//      type: apiKey
//      name: Authorization
//      in: header
//
// swagger:meta
package docs

import (
	"github.com/linesmerrill/ai-court-api/api/handlers"
	"github.com/linesmerrill/ai-court-api/court"
	"github.com/linesmerrill/ai-court-api/models"
)

// swagger:route GET /health health healthEndpointID
// Lists the healthchex of the web service api.
// responses:
//   200: healthResponse

// Shows the current health of the api. true means it is alive, false means it is not.
// swagger:response healthResponse
type healthResponseWrapper struct {
	// in:body
	Body models.HealthCheckResponse
}

// swagger:route POST /api/v1/court/start_trial court startTrial
// Starts a trial from the case facts.
// responses:
//   201: startTrialResponse
//   400: errorResponse

// swagger:parameters startTrial
type startTrialParamsWrapper struct {
	// in:body
	Body court.CaseFacts
}

// The id of the new session
// swagger:response startTrialResponse
type startTrialResponseWrapper struct {
	// in:body
	Body models.StartTrialResponse
}

// swagger:route POST /api/v1/court/session/{session_id}/evidence court submitEvidence
// Adds an evidence item to the session.
// responses:
//   201: messageResponse
//   400: errorResponse
//   404: errorResponse

// swagger:parameters submitEvidence
type submitEvidenceParamsWrapper struct {
	// in:path
	SessionID string `json:"session_id"`
	// in:body
	Body court.Evidence
}

// swagger:route POST /api/v1/court/session/{session_id}/advance court advanceTrial
// Runs the trial until the caller must speak or judgment is delivered.
// responses:
//   200: stepResponse
//   404: errorResponse

// swagger:parameters advanceTrial
type advanceParamsWrapper struct {
	// in:path
	SessionID string `json:"session_id"`
	// in:body
	Body models.AdvanceRequest
}

// The lines produced by one advance
// swagger:response stepResponse
type stepResponseWrapper struct {
	// in:body
	Body court.StepResult
}

// swagger:route GET /api/v1/court/session/{session_id} court sessionByID
// Shows the full state of a session.
// responses:
//   200: sessionResponse
//   404: errorResponse

// swagger:response sessionResponse
type sessionResponseWrapper struct {
	// in:body
	Body court.Snapshot
}

// swagger:route DELETE /api/v1/court/session/{session_id} court closeSession
// Ends a session and drops its stored record.
// responses:
//   200: messageResponse
//   404: errorResponse

// swagger:parameters sessionByID closeSession
type sessionIDParamsWrapper struct {
	// in:path
	SessionID string `json:"session_id"`
}

// swagger:route GET /api/v1/metrics metrics metricsSummary
// Request counts and latencies per route.
// responses:
//   200: metricsResponse
//   400: errorResponse

// swagger:parameters metricsSummary
type metricsParamsWrapper struct {
	// in:query
	Limit int `json:"limit"`
}

// swagger:response metricsResponse
type metricsResponseWrapper struct {
	// in:body
	Body handlers.MetricsResponse
}

// swagger:response messageResponse
type messageResponseWrapper struct {
	// in:body
	Body models.MessageResponse
}

// swagger:response errorResponse
type errorResponseWrapper struct {
	// in:body
	Body models.ErrorMessageResponse
}
