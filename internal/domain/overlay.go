// internal/domain/overlay.go
package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Overlay is the soft-delete side record attached 1:1 to a versionable
// entity (Plan, TrainingSession, PrescriptionSlot, Exercise). Its _id is the
// owning entity's id. Overlays are created lazily on first archival: absence
// of an overlay means the entity is active.
//
// ReplacedBy is only ever set for PrescriptionSlot overlays. The relation,
// restricted to non-nil edges, forms a forward-only forest: a new slot is
// always inserted before the old one is archived, so following ReplacedBy
// must terminate. A revisited node during a walk is a structural conflict.
type Overlay struct {
	EntityID   primitive.ObjectID  `bson:"_id" json:"entityId"`
	Active     bool                `bson:"active" json:"active"`
	ArchivedAt *time.Time          `bson:"archivedAt,omitempty" json:"archivedAt,omitempty"`
	ReplacedBy *primitive.ObjectID `bson:"replacedBy,omitempty" json:"replacedBy,omitempty"`
}
