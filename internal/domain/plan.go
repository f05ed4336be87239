// internal/domain/plan.go
package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Plan represents a prescribed training program owned by exactly one athlete.
// Plans are never hard-deleted: removal archives the plan (and everything
// under it) through an Overlay so historical executions keep their context.
type Plan struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AthleteID primitive.ObjectID `bson:"athleteId" json:"athleteId"`
	Name      string             `bson:"name" json:"name"` // e.g., "Phase 1: Hypertrophy"
	Goal      string             `bson:"goal,omitempty" json:"goal,omitempty"`
	StartDate *time.Time         `bson:"startDate,omitempty" json:"startDate,omitempty"`
	EndDate   *time.Time         `bson:"endDate,omitempty" json:"endDate,omitempty"`
	Notes     string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// PlanWithState is a Plan annotated with its overlay state, used by listings
// that may include archived plans.
type PlanWithState struct {
	Plan       `bson:",inline"`
	Active     bool       `json:"active"`
	ArchivedAt *time.Time `json:"archivedAt,omitempty"`
}
