package court

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionNotFound is returned for operations on an unknown session id
	ErrSessionNotFound = errors.New("session not found")
	// ErrInvalidCaseFacts is returned when case facts fail validation
	ErrInvalidCaseFacts = errors.New("invalid case facts")
	// ErrInvalidEvidence is returned when evidence fails validation
	ErrInvalidEvidence = errors.New("invalid evidence")
	// ErrStepBudgetExceeded is returned when an advance walks more stages than
	// the table holds without reaching a human turn or the judgment
	ErrStepBudgetExceeded = errors.New("step budget exceeded")
	// ErrTrialNotStarted is returned when a coordinator is used before Start
	ErrTrialNotStarted = errors.New("trial not started")
)

func errUnknownStage(key StageKey) error {
	return fmt.Errorf("unknown stage %d", int(key))
}
