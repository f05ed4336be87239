package domain

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role type to distinguish between actor roles
type Role string

// Define constants for roles
const (
	RoleCoach   Role = "coach"
	RoleAthlete Role = "athlete"
)

// Athlete is the profile record the core cross-references plans and
// executions against. Identity, credentials and the coach-athlete
// relationship lifecycle live in an external service; the core only needs
// the two references below.
type Athlete struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID  primitive.ObjectID `bson:"userId" json:"userId"`   // Account in the external identity service
	CoachID primitive.ObjectID `bson:"coachId" json:"coachId"` // Coach currently responsible for this athlete
	Notes   string             `bson:"notes,omitempty" json:"notes,omitempty"`
}
