package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TrainingSession represents one ordered unit of work within a Plan
// (e.g., "Day A"). Lifecycle mirrors Plan: archived via Overlay, never
// deleted.
type TrainingSession struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PlanID    primitive.ObjectID `bson:"planId" json:"planId"`
	Name      string             `bson:"name" json:"name"` // e.g., "Day 1: Upper Body", "Long Run"
	Sequence  int                `bson:"sequence" json:"sequence"`
	MainType  string             `bson:"mainType,omitempty" json:"mainType,omitempty"` // Workout-type tag, e.g., "strength", "running"
	Notes     string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}
