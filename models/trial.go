package models

// HealthCheckResponse is returned by the health endpoint
type HealthCheckResponse struct {
	Alive bool `json:"alive"`
}

// MessageResponse is a plain acknowledgement
type MessageResponse struct {
	Message string `json:"message"`
}

// StartTrialResponse is returned when a trial session is created
type StartTrialResponse struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

// AdvanceRequest carries the human's line, if any
type AdvanceRequest struct {
	UserInput string `json:"userInput"`
}

// TokenResponse holds an operator bearer token
type TokenResponse struct {
	Token string `json:"token"`
}

// RevokeResponse confirms a revoked token
type RevokeResponse struct {
	RevokedToken string `json:"revokedToken"`
}

// Socket event names
const (
	EventLine  = "line"
	EventStep  = "step"
	EventError = "error"
)

// SocketEvent is one frame sent over the court websocket
type SocketEvent struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// ErrorMessageResponse is the body of every non-2xx reply
type ErrorMessageResponse struct {
	Response MessageError
}

// MessageError holds a short message and the underlying error text
type MessageError struct {
	Message string
	Error   string
}
