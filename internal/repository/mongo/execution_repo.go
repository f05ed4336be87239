// internal/repository/mongo/execution_repo.go
package mongo

import (
	"context"
	"errors"

	"totalfit/training-app/internal/domain"
	"totalfit/training-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	executionCollectionName       = "executions"
	executionRecordCollectionName = "exercise_execution_records"
)

// mongoExecutionRepository implements repository.ExecutionRepository over
// two append-only collections: the execution headers and their per-slot
// records. Nothing here is ever updated or deleted.
type mongoExecutionRepository struct {
	executions *mongo.Collection
	records    *mongo.Collection
}

// NewMongoExecutionRepository creates a new Execution repository.
func NewMongoExecutionRepository(db *mongo.Database) repository.ExecutionRepository {
	return &mongoExecutionRepository{
		executions: db.Collection(executionCollectionName),
		records:    db.Collection(executionRecordCollectionName),
	}
}

// Create inserts a new execution header.
func (r *mongoExecutionRepository) Create(ctx context.Context, execution *domain.Execution) (primitive.ObjectID, error) {
	if execution.AthleteID == primitive.NilObjectID || execution.SessionID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("execution requires athleteId and sessionId")
	}
	execution.ID = primitive.NewObjectID()

	result, err := r.executions.InsertOne(ctx, execution)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted execution ID")
	}
	return insertedID, nil
}

// GetByID retrieves a single execution header by its ID.
func (r *mongoExecutionRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Execution, error) {
	var execution domain.Execution
	err := r.executions.FindOne(ctx, bson.M{"_id": id}).Decode(&execution)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &execution, nil
}

// GetByAthleteID retrieves all of an athlete's executions ordered by
// (executedAt, id) ascending. Timestamps alone may tie; the id breaks the
// tie in creation order, giving the canonical temporal order the evolution
// aggregation depends on.
func (r *mongoExecutionRepository) GetByAthleteID(ctx context.Context, athleteID primitive.ObjectID) ([]domain.Execution, error) {
	findOptions := options.Find().SetSort(bson.D{
		{Key: "executedAt", Value: 1},
		{Key: "_id", Value: 1},
	})

	cursor, err := r.executions.Find(ctx, bson.M{"athleteId": athleteID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var executions []domain.Execution
	if err = cursor.All(ctx, &executions); err != nil {
		return nil, err
	}
	return executions, nil
}

// CreateRecord inserts one per-slot execution record.
func (r *mongoExecutionRepository) CreateRecord(ctx context.Context, record *domain.ExerciseExecutionRecord) (primitive.ObjectID, error) {
	if record.ExecutionID == primitive.NilObjectID || record.SlotID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("record requires executionId and slotId")
	}
	record.ID = primitive.NewObjectID()

	result, err := r.records.InsertOne(ctx, record)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted record ID")
	}
	return insertedID, nil
}

// GetRecordsByExecutionID retrieves the per-slot records of one execution
// ordered by id ascending (insertion order, which follows slot order).
func (r *mongoExecutionRepository) GetRecordsByExecutionID(ctx context.Context, executionID primitive.ObjectID) ([]domain.ExerciseExecutionRecord, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})

	cursor, err := r.records.Find(ctx, bson.M{"executionId": executionID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []domain.ExerciseExecutionRecord
	if err = cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// EnsureExecutionIndexes creates necessary indexes. Call during startup.
func EnsureExecutionIndexes(ctx context.Context, db *mongo.Database) {
	_, _ = db.Collection(executionCollectionName).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "athleteId", Value: 1}, {Key: "executedAt", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "sessionId", Value: 1}},
			Options: options.Index(),
		},
	})
	_, _ = db.Collection(executionRecordCollectionName).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "executionId", Value: 1}},
			Options: options.Index(),
		},
	})
}
