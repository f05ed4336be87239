// internal/domain/slot.go
package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PrescriptionSlot is one exercise assignment inside a TrainingSession and
// the unit that gets versioned. A slot's content never changes in place once
// it exists: "editing" inserts a new slot and archives this one with the
// overlay's ReplacedBy pointing at the new row. That way an execution that
// snapshotted this slot can never be rewritten by a later edit.
//
// Params is schema-free: sets/reps/load targets for strength work, or
// duration/pace/zone for endurance work.
type PrescriptionSlot struct {
	ID         primitive.ObjectID     `bson:"_id,omitempty" json:"id"`
	SessionID  primitive.ObjectID     `bson:"sessionId" json:"sessionId"`
	ExerciseID primitive.ObjectID     `bson:"exerciseId" json:"exerciseId"`
	Order      int                    `bson:"order" json:"order"`
	Params     map[string]interface{} `bson:"params,omitempty" json:"params,omitempty"`
	Notes      string                 `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt  time.Time              `bson:"createdAt" json:"createdAt"`
}

// SlotUpdate carries the fields of a replace operation. Nil fields keep the
// old slot's value, so a partial edit still produces a complete new row.
type SlotUpdate struct {
	Order  *int
	Params map[string]interface{}
	Notes  *string
}
