// internal/domain/exercise.go
package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ExerciseType tags the training modality of a catalog exercise.
type ExerciseType string

const (
	ExerciseStrength ExerciseType = "strength"
	ExerciseRunning  ExerciseType = "running"
	ExerciseCycling  ExerciseType = "cycling"
	ExerciseOther    ExerciseType = "other"
)

// Valid reports whether t is one of the known exercise types.
func (t ExerciseType) Valid() bool {
	switch t {
	case ExerciseStrength, ExerciseRunning, ExerciseCycling, ExerciseOther:
		return true
	}
	return false
}

// Exercise represents a single exercise definition in the coach's library.
// EnduranceParams is schema-free on purpose: running/cycling exercises carry
// duration, zone, pace, workout type etc. without a rigid column layout.
type Exercise struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CoachID     primitive.ObjectID `bson:"coachId" json:"coachId"` // Coach who created/owns this exercise
	Name        string             `bson:"name" json:"name"`
	Type        ExerciseType       `bson:"type" json:"type"`
	MuscleGroup string             `bson:"muscleGroup,omitempty" json:"muscleGroup,omitempty"` // e.g., "Chest", "Legs", "Back"
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Tips        string             `bson:"tips,omitempty" json:"tips,omitempty"` // Execution cues for the athlete

	// Demo media. VideoURL may point at an external video; VideoObjectKey is
	// set when the coach uploads a demo through our S3 bucket.
	VideoURL       string `bson:"videoUrl,omitempty" json:"videoUrl,omitempty"`
	VideoObjectKey string `bson:"videoObjectKey,omitempty" json:"videoObjectKey,omitempty"`

	EnduranceParams map[string]interface{} `bson:"enduranceParams,omitempty" json:"enduranceParams,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
