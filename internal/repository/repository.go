package repository

import (
	"context"
	"time"

	"totalfit/training-app/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for the repository layer
var (
	ErrNotFound     = RepositoryError("not found")
	ErrUpdateFailed = RepositoryError("update failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// TxRunner wraps a function in one atomic unit against the store. Every
// repository call made with the context passed to fn joins the same
// transaction; an error from fn aborts the whole unit with no partial
// writes. Cascading archival and execution recording depend on this.
type TxRunner interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// AthleteRepository reads the athlete profiles the core validates against.
type AthleteRepository interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Athlete, error)
	GetByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.Athlete, error)
}

// ExerciseRepository defines the interface for the exercise catalog.
type ExerciseRepository interface {
	Create(ctx context.Context, exercise *domain.Exercise) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error)
	GetByCoachID(ctx context.Context, coachID primitive.ObjectID) ([]domain.Exercise, error)
	Update(ctx context.Context, exercise *domain.Exercise) error
}

// PlanRepository defines the interface for training plan rows. Plans are
// append-and-update only; archival state lives in the overlay store.
type PlanRepository interface {
	Create(ctx context.Context, plan *domain.Plan) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Plan, error)
	GetByAthleteID(ctx context.Context, athleteID primitive.ObjectID) ([]domain.Plan, error)
	Update(ctx context.Context, plan *domain.Plan) error
}

// SessionRepository defines the interface for training session rows.
type SessionRepository interface {
	Create(ctx context.Context, session *domain.TrainingSession) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.TrainingSession, error)
	GetByPlanID(ctx context.Context, planID primitive.ObjectID) ([]domain.TrainingSession, error)
}

// SlotRepository defines the interface for prescription slot rows. Slots are
// strictly append-only: there is no Update. Edits insert a new row and the
// versioning controller archives the old one.
type SlotRepository interface {
	Create(ctx context.Context, slot *domain.PrescriptionSlot) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.PrescriptionSlot, error)
	GetBySessionID(ctx context.Context, sessionID primitive.ObjectID) ([]domain.PrescriptionSlot, error)
}

// OverlayRepository manages the soft-delete overlays of one entity kind.
// Get returns ErrNotFound for entities whose overlay was never created,
// which callers must treat as "active".
type OverlayRepository interface {
	Get(ctx context.Context, entityID primitive.ObjectID) (*domain.Overlay, error)
	GetMany(ctx context.Context, entityIDs []primitive.ObjectID) (map[primitive.ObjectID]domain.Overlay, error)
	// Archive marks the entity inactive, creating the overlay row if absent.
	// replacedBy may be nil; when set it records the replace-chain edge.
	Archive(ctx context.Context, entityID primitive.ObjectID, archivedAt time.Time, replacedBy *primitive.ObjectID) error
}

// ExecutionRepository defines the interface for the append-only execution
// history. Neither executions nor their per-slot records are ever updated
// or deleted.
type ExecutionRepository interface {
	Create(ctx context.Context, execution *domain.Execution) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Execution, error)
	// GetByAthleteID returns the athlete's executions ordered by
	// (executedAt, id) ascending, the canonical temporal order.
	GetByAthleteID(ctx context.Context, athleteID primitive.ObjectID) ([]domain.Execution, error)
	CreateRecord(ctx context.Context, record *domain.ExerciseExecutionRecord) (primitive.ObjectID, error)
	// GetRecordsByExecutionID returns records ordered by id ascending.
	GetRecordsByExecutionID(ctx context.Context, executionID primitive.ObjectID) ([]domain.ExerciseExecutionRecord, error)
}
