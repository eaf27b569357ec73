package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/linesmerrill/ai-court-api/models"
)

// TimeoutMiddleware answers 503 with an error body when a request runs past
// timeout. The handler's context is cancelled at the same moment, so any
// generation still in flight falls back to its placeholder line.
// A non-positive timeout disables the limit.
func TimeoutMiddleware(timeout time.Duration) func(http.Handler) http.Handler {
	body, _ := json.Marshal(models.ErrorMessageResponse{Response: models.MessageError{
		Message: "Request timeout",
		Error:   "the request took too long to process",
	}})
	return func(next http.Handler) http.Handler {
		if timeout <= 0 {
			return next
		}
		return http.TimeoutHandler(next, timeout, string(body))
	}
}
