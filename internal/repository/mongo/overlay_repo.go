// internal/repository/mongo/overlay_repo.go
package mongo

import (
	"context"
	"time"

	"totalfit/training-app/internal/domain"
	"totalfit/training-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// One overlay collection per versionable entity kind, mirroring the
// one-meta-table-per-entity layout of the schema. The overlay _id is the
// owning entity's id, so lookups never need an index beyond _id.
const (
	planOverlayCollectionName     = "plan_meta"
	sessionOverlayCollectionName  = "session_meta"
	slotOverlayCollectionName     = "slot_meta"
	exerciseOverlayCollectionName = "exercise_meta"
)

// mongoOverlayRepository implements repository.OverlayRepository for one
// entity kind.
type mongoOverlayRepository struct {
	collection *mongo.Collection
}

// NewMongoPlanOverlayRepository creates the overlay repository for plans.
func NewMongoPlanOverlayRepository(db *mongo.Database) repository.OverlayRepository {
	return &mongoOverlayRepository{collection: db.Collection(planOverlayCollectionName)}
}

// NewMongoSessionOverlayRepository creates the overlay repository for sessions.
func NewMongoSessionOverlayRepository(db *mongo.Database) repository.OverlayRepository {
	return &mongoOverlayRepository{collection: db.Collection(sessionOverlayCollectionName)}
}

// NewMongoSlotOverlayRepository creates the overlay repository for
// prescription slots. Slot overlays are the only ones that carry replacedBy.
func NewMongoSlotOverlayRepository(db *mongo.Database) repository.OverlayRepository {
	return &mongoOverlayRepository{collection: db.Collection(slotOverlayCollectionName)}
}

// NewMongoExerciseOverlayRepository creates the overlay repository for
// catalog exercises.
func NewMongoExerciseOverlayRepository(db *mongo.Database) repository.OverlayRepository {
	return &mongoOverlayRepository{collection: db.Collection(exerciseOverlayCollectionName)}
}

// Get retrieves the overlay for one entity. ErrNotFound means the overlay
// was never created, which callers treat as "active".
func (r *mongoOverlayRepository) Get(ctx context.Context, entityID primitive.ObjectID) (*domain.Overlay, error) {
	var overlay domain.Overlay
	err := r.collection.FindOne(ctx, bson.M{"_id": entityID}).Decode(&overlay)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &overlay, nil
}

// GetMany retrieves the overlays for a batch of entities in one query.
// Entities without an overlay row are simply absent from the result map.
func (r *mongoOverlayRepository) GetMany(ctx context.Context, entityIDs []primitive.ObjectID) (map[primitive.ObjectID]domain.Overlay, error) {
	result := make(map[primitive.ObjectID]domain.Overlay, len(entityIDs))
	if len(entityIDs) == 0 {
		return result, nil
	}

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": entityIDs}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var overlays []domain.Overlay
	if err = cursor.All(ctx, &overlays); err != nil {
		return nil, err
	}
	for _, o := range overlays {
		result[o.EntityID] = o
	}
	return result, nil
}

// Archive marks the entity inactive, upserting the overlay row. Archiving an
// already-archived entity is a no-op that still succeeds (the archivedAt of
// the first archival is kept; re-archival must not rewrite history).
func (r *mongoOverlayRepository) Archive(ctx context.Context, entityID primitive.ObjectID, archivedAt time.Time, replacedBy *primitive.ObjectID) error {
	set := bson.M{"active": false}
	if replacedBy != nil {
		set["replacedBy"] = *replacedBy
	}
	update := bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"_id": entityID},
		// Only the first archival stamps archivedAt.
		"$min": bson.M{"archivedAt": archivedAt.UTC()},
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": entityID}, update, options.Update().SetUpsert(true))
	return err
}
