// internal/repository/mongo/slot_repo.go
package mongo

import (
	"context"
	"errors"
	"time"

	"totalfit/training-app/internal/domain"
	"totalfit/training-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const slotCollectionName = "prescription_slots"

// mongoSlotRepository implements repository.SlotRepository. The collection
// is append-only by design: no Update or Delete exists, matching the rule
// that slot content never changes in place once written.
type mongoSlotRepository struct {
	collection *mongo.Collection
}

// NewMongoSlotRepository creates a new PrescriptionSlot repository.
func NewMongoSlotRepository(db *mongo.Database) repository.SlotRepository {
	return &mongoSlotRepository{
		collection: db.Collection(slotCollectionName),
	}
}

// Create inserts a new prescription slot.
func (r *mongoSlotRepository) Create(ctx context.Context, slot *domain.PrescriptionSlot) (primitive.ObjectID, error) {
	if slot.SessionID == primitive.NilObjectID || slot.ExerciseID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("slot requires sessionId and exerciseId")
	}
	slot.ID = primitive.NewObjectID()
	slot.CreatedAt = time.Now().UTC()

	result, err := r.collection.InsertOne(ctx, slot)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted slot ID")
	}
	return insertedID, nil
}

// GetByID retrieves a single prescription slot by its ID.
func (r *mongoSlotRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.PrescriptionSlot, error) {
	var slot domain.PrescriptionSlot
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&slot)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &slot, nil
}

// GetBySessionID retrieves all slot rows of a session ordered by
// (order, id), the total order of the active view. Archived rows are
// included; the service filters them against the overlay store.
func (r *mongoSlotRepository) GetBySessionID(ctx context.Context, sessionID primitive.ObjectID) ([]domain.PrescriptionSlot, error) {
	findOptions := options.Find().SetSort(bson.D{
		{Key: "order", Value: 1},
		{Key: "_id", Value: 1},
	})

	cursor, err := r.collection.Find(ctx, bson.M{"sessionId": sessionID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var slots []domain.PrescriptionSlot
	if err = cursor.All(ctx, &slots); err != nil {
		return nil, err
	}
	return slots, nil
}

// EnsureSlotIndexes creates necessary indexes. Call during startup.
func EnsureSlotIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "sessionId", Value: 1}, {Key: "order", Value: 1}},
			Options: options.Index(),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
