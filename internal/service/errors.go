package service

import (
	"errors"
	"fmt"
	"strings"
)

// --- Error Definitions ---
// Archived entities are not addressable through the active-view API, so
// operations targeting them report the same NotFound errors as missing rows.
var (
	ErrAthleteNotFound   = errors.New("athlete not found")
	ErrPlanNotFound      = errors.New("training plan not found")
	ErrSessionNotFound   = errors.New("training session not found")
	ErrSlotNotFound      = errors.New("prescription slot not found")
	ErrExerciseNotFound  = errors.New("exercise not found")
	ErrExecutionNotFound = errors.New("execution not found")
	ErrExerciseNoVideo   = errors.New("exercise has no video attached")
	ErrAccessDenied      = errors.New("access denied to modify this entity")
	ErrConflict          = errors.New("structural conflict in the replace chain")
	ErrValidationFailed  = errors.New("validation failed")
)

// ValidationError rejects a create-execution request whose performed entries
// reference slot ids outside the session's active view. The offending ids
// are carried so the API layer can list them for the caller.
type ValidationError struct {
	InvalidSlotIDs []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("performed entries reference slots outside the session's active view: %s",
		strings.Join(e.InvalidSlotIDs, ", "))
}

// Is lets errors.Is(err, ErrValidationFailed) match a *ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}
