// internal/domain/execution.go
package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ExecutionStatus type for how a session execution went
type ExecutionStatus string

const (
	StatusCompleted ExecutionStatus = "completed"
	StatusPartial   ExecutionStatus = "partial"
	StatusNotDone   ExecutionStatus = "not-done"
)

// Valid reports whether s is one of the known status values.
func (s ExecutionStatus) Valid() bool {
	switch s {
	case StatusCompleted, StatusPartial, StatusNotDone:
		return true
	}
	return false
}

// Execution is one historical record of an athlete performing a
// TrainingSession on a date. Executions are append-only: created once,
// never edited, never deleted.
type Execution struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AthleteID   primitive.ObjectID `bson:"athleteId" json:"athleteId"`
	SessionID   primitive.ObjectID `bson:"sessionId" json:"sessionId"`
	ExecutedAt  time.Time          `bson:"executedAt" json:"executedAt"`
	Status      ExecutionStatus    `bson:"status" json:"status"`
	EffortScore *int               `bson:"effortScore,omitempty" json:"effortScore,omitempty"` // Perceived effort (RPE), optional
	Comment     string             `bson:"comment,omitempty" json:"comment,omitempty"`
}

// SlotSnapshot is the denormalized copy of a PrescriptionSlot frozen at the
// instant an Execution was recorded. It is a cache for display and analysis,
// not a source of truth for the live exercise catalog, and it is what makes
// later edits to the slot invisible to history.
type SlotSnapshot struct {
	SlotID           primitive.ObjectID     `bson:"slotId" json:"slotId"`
	Order            int                    `bson:"order" json:"order"`
	ExerciseID       primitive.ObjectID     `bson:"exerciseId" json:"exerciseId"`
	ExerciseName     string                 `bson:"exerciseName" json:"exerciseName"`
	ExerciseType     ExerciseType           `bson:"exerciseType,omitempty" json:"exerciseType,omitempty"`
	ExerciseGroup    string                 `bson:"exerciseGroup,omitempty" json:"exerciseGroup,omitempty"`
	PrescribedParams map[string]interface{} `bson:"prescribedParams,omitempty" json:"prescribedParams,omitempty"`
	SlotNotes        string                 `bson:"slotNotes,omitempty" json:"slotNotes,omitempty"`
}

// ExerciseExecutionRecord pairs the snapshot of one active slot with what the
// athlete actually performed. One record exists per slot that was active at
// execution time, whether or not the athlete reported on it: "not reported"
// (Performed nil) is distinguishable from "no longer prescribed" (no record).
// Immutable once written. SlotID is a weak reference: the slot may later be
// archived or replaced without affecting this record.
type ExerciseExecutionRecord struct {
	ID          primitive.ObjectID     `bson:"_id,omitempty" json:"id"`
	ExecutionID primitive.ObjectID     `bson:"executionId" json:"executionId"`
	SlotID      primitive.ObjectID     `bson:"slotId" json:"slotId"`
	Snapshot    SlotSnapshot           `bson:"snapshot" json:"snapshot"`
	Performed   map[string]interface{} `bson:"performed,omitempty" json:"performed,omitempty"`
	Notes       string                 `bson:"notes,omitempty" json:"notes,omitempty"`
}
