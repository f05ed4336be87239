package service

import (
	"bytes"
	"context"
	"sort"
	"time"

	"totalfit/training-app/internal/domain"
	"totalfit/training-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory repository fakes. Each one mirrors the ordering guarantees of
// its Mongo counterpart so the services under test see the same contracts.

func idLess(a, b primitive.ObjectID) bool {
	return bytes.Compare(a[:], b[:]) < 0
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// --- athletes ---

type fakeAthleteRepo struct {
	athletes map[primitive.ObjectID]domain.Athlete
}

func newFakeAthleteRepo() *fakeAthleteRepo {
	return &fakeAthleteRepo{athletes: map[primitive.ObjectID]domain.Athlete{}}
}

func (r *fakeAthleteRepo) add(athlete domain.Athlete) domain.Athlete {
	if athlete.ID == primitive.NilObjectID {
		athlete.ID = primitive.NewObjectID()
	}
	r.athletes[athlete.ID] = athlete
	return athlete
}

func (r *fakeAthleteRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Athlete, error) {
	athlete, ok := r.athletes[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &athlete, nil
}

func (r *fakeAthleteRepo) GetByUserID(_ context.Context, userID primitive.ObjectID) (*domain.Athlete, error) {
	for _, athlete := range r.athletes {
		if athlete.UserID == userID {
			a := athlete
			return &a, nil
		}
	}
	return nil, repository.ErrNotFound
}

// --- exercises ---

type fakeExerciseRepo struct {
	exercises map[primitive.ObjectID]domain.Exercise
}

func newFakeExerciseRepo() *fakeExerciseRepo {
	return &fakeExerciseRepo{exercises: map[primitive.ObjectID]domain.Exercise{}}
}

func (r *fakeExerciseRepo) Create(_ context.Context, exercise *domain.Exercise) (primitive.ObjectID, error) {
	exercise.ID = primitive.NewObjectID()
	exercise.CreatedAt = time.Now().UTC()
	exercise.UpdatedAt = exercise.CreatedAt
	r.exercises[exercise.ID] = *exercise
	return exercise.ID, nil
}

func (r *fakeExerciseRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Exercise, error) {
	exercise, ok := r.exercises[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &exercise, nil
}

func (r *fakeExerciseRepo) GetByCoachID(_ context.Context, coachID primitive.ObjectID) ([]domain.Exercise, error) {
	var out []domain.Exercise
	for _, exercise := range r.exercises {
		if exercise.CoachID == coachID {
			out = append(out, exercise)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeExerciseRepo) Update(_ context.Context, exercise *domain.Exercise) error {
	if _, ok := r.exercises[exercise.ID]; !ok {
		return repository.ErrNotFound
	}
	exercise.UpdatedAt = time.Now().UTC()
	r.exercises[exercise.ID] = *exercise
	return nil
}

// --- plans ---

type fakePlanRepo struct {
	plans map[primitive.ObjectID]domain.Plan
}

func newFakePlanRepo() *fakePlanRepo {
	return &fakePlanRepo{plans: map[primitive.ObjectID]domain.Plan{}}
}

func (r *fakePlanRepo) Create(_ context.Context, plan *domain.Plan) (primitive.ObjectID, error) {
	plan.ID = primitive.NewObjectID()
	plan.CreatedAt = time.Now().UTC()
	plan.UpdatedAt = plan.CreatedAt
	r.plans[plan.ID] = *plan
	return plan.ID, nil
}

func (r *fakePlanRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Plan, error) {
	plan, ok := r.plans[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &plan, nil
}

func (r *fakePlanRepo) GetByAthleteID(_ context.Context, athleteID primitive.ObjectID) ([]domain.Plan, error) {
	var out []domain.Plan
	for _, plan := range r.plans {
		if plan.AthleteID == athleteID {
			out = append(out, plan)
		}
	}
	sort.Slice(out, func(i, j int) bool { return idLess(out[j].ID, out[i].ID) })
	return out, nil
}

func (r *fakePlanRepo) Update(_ context.Context, plan *domain.Plan) error {
	if _, ok := r.plans[plan.ID]; !ok {
		return repository.ErrNotFound
	}
	plan.UpdatedAt = time.Now().UTC()
	r.plans[plan.ID] = *plan
	return nil
}

// --- sessions ---

type fakeSessionRepo struct {
	sessions map[primitive.ObjectID]domain.TrainingSession
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: map[primitive.ObjectID]domain.TrainingSession{}}
}

func (r *fakeSessionRepo) Create(_ context.Context, session *domain.TrainingSession) (primitive.ObjectID, error) {
	session.ID = primitive.NewObjectID()
	session.CreatedAt = time.Now().UTC()
	session.UpdatedAt = session.CreatedAt
	r.sessions[session.ID] = *session
	return session.ID, nil
}

func (r *fakeSessionRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.TrainingSession, error) {
	session, ok := r.sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &session, nil
}

func (r *fakeSessionRepo) GetByPlanID(_ context.Context, planID primitive.ObjectID) ([]domain.TrainingSession, error) {
	var out []domain.TrainingSession
	for _, session := range r.sessions {
		if session.PlanID == planID {
			out = append(out, session)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Sequence != out[j].Sequence {
			return out[i].Sequence < out[j].Sequence
		}
		return idLess(out[i].ID, out[j].ID)
	})
	return out, nil
}

// --- slots ---

type fakeSlotRepo struct {
	slots map[primitive.ObjectID]domain.PrescriptionSlot
}

func newFakeSlotRepo() *fakeSlotRepo {
	return &fakeSlotRepo{slots: map[primitive.ObjectID]domain.PrescriptionSlot{}}
}

func (r *fakeSlotRepo) Create(_ context.Context, slot *domain.PrescriptionSlot) (primitive.ObjectID, error) {
	slot.ID = primitive.NewObjectID()
	slot.CreatedAt = time.Now().UTC()
	r.slots[slot.ID] = *slot
	return slot.ID, nil
}

func (r *fakeSlotRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.PrescriptionSlot, error) {
	slot, ok := r.slots[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &slot, nil
}

func (r *fakeSlotRepo) GetBySessionID(_ context.Context, sessionID primitive.ObjectID) ([]domain.PrescriptionSlot, error) {
	var out []domain.PrescriptionSlot
	for _, slot := range r.slots {
		if slot.SessionID == sessionID {
			out = append(out, slot)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return idLess(out[i].ID, out[j].ID)
	})
	return out, nil
}

// --- overlays ---

type fakeOverlayRepo struct {
	overlays map[primitive.ObjectID]domain.Overlay
}

func newFakeOverlayRepo() *fakeOverlayRepo {
	return &fakeOverlayRepo{overlays: map[primitive.ObjectID]domain.Overlay{}}
}

func (r *fakeOverlayRepo) Get(_ context.Context, entityID primitive.ObjectID) (*domain.Overlay, error) {
	overlay, ok := r.overlays[entityID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &overlay, nil
}

func (r *fakeOverlayRepo) GetMany(_ context.Context, entityIDs []primitive.ObjectID) (map[primitive.ObjectID]domain.Overlay, error) {
	out := map[primitive.ObjectID]domain.Overlay{}
	for _, id := range entityIDs {
		if overlay, ok := r.overlays[id]; ok {
			out[id] = overlay
		}
	}
	return out, nil
}

func (r *fakeOverlayRepo) Archive(_ context.Context, entityID primitive.ObjectID, archivedAt time.Time, replacedBy *primitive.ObjectID) error {
	overlay, ok := r.overlays[entityID]
	if !ok {
		overlay = domain.Overlay{EntityID: entityID}
	}
	overlay.Active = false
	// First archival wins on the timestamp, matching the store's $min.
	if overlay.ArchivedAt == nil || archivedAt.Before(*overlay.ArchivedAt) {
		at := archivedAt
		overlay.ArchivedAt = &at
	}
	if replacedBy != nil {
		overlay.ReplacedBy = replacedBy
	}
	r.overlays[entityID] = overlay
	return nil
}

// --- executions ---

type fakeExecutionRepo struct {
	executions map[primitive.ObjectID]domain.Execution
	records    map[primitive.ObjectID]domain.ExerciseExecutionRecord
}

func newFakeExecutionRepo() *fakeExecutionRepo {
	return &fakeExecutionRepo{
		executions: map[primitive.ObjectID]domain.Execution{},
		records:    map[primitive.ObjectID]domain.ExerciseExecutionRecord{},
	}
}

func (r *fakeExecutionRepo) Create(_ context.Context, execution *domain.Execution) (primitive.ObjectID, error) {
	execution.ID = primitive.NewObjectID()
	r.executions[execution.ID] = *execution
	return execution.ID, nil
}

func (r *fakeExecutionRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Execution, error) {
	execution, ok := r.executions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &execution, nil
}

func (r *fakeExecutionRepo) GetByAthleteID(_ context.Context, athleteID primitive.ObjectID) ([]domain.Execution, error) {
	var out []domain.Execution
	for _, execution := range r.executions {
		if execution.AthleteID == athleteID {
			out = append(out, execution)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ExecutedAt.Equal(out[j].ExecutedAt) {
			return out[i].ExecutedAt.Before(out[j].ExecutedAt)
		}
		return idLess(out[i].ID, out[j].ID)
	})
	return out, nil
}

func (r *fakeExecutionRepo) CreateRecord(_ context.Context, record *domain.ExerciseExecutionRecord) (primitive.ObjectID, error) {
	record.ID = primitive.NewObjectID()
	r.records[record.ID] = *record
	return record.ID, nil
}

func (r *fakeExecutionRepo) GetRecordsByExecutionID(_ context.Context, executionID primitive.ObjectID) ([]domain.ExerciseExecutionRecord, error) {
	var out []domain.ExerciseExecutionRecord
	for _, record := range r.records {
		if record.ExecutionID == executionID {
			out = append(out, record)
		}
	}
	sort.Slice(out, func(i, j int) bool { return idLess(out[i].ID, out[j].ID) })
	return out, nil
}

// --- fixture wiring ---

// fixture bundles the fakes plus fully wired services for tests that cross
// service boundaries (archive a slot, then record an execution, ...).
type fixture struct {
	athletes      *fakeAthleteRepo
	exercises     *fakeExerciseRepo
	plans         *fakePlanRepo
	sessions      *fakeSessionRepo
	slots         *fakeSlotRepo
	executions    *fakeExecutionRepo
	planMeta      *fakeOverlayRepo
	sessionMeta   *fakeOverlayRepo
	slotMeta      *fakeOverlayRepo
	exerciseMeta  *fakeOverlayRepo
	planSvc       PlanService
	prescriptions PrescriptionService
	executionSvc  ExecutionService
}

func newFixture() *fixture {
	f := &fixture{
		athletes:     newFakeAthleteRepo(),
		exercises:    newFakeExerciseRepo(),
		plans:        newFakePlanRepo(),
		sessions:     newFakeSessionRepo(),
		slots:        newFakeSlotRepo(),
		executions:   newFakeExecutionRepo(),
		planMeta:     newFakeOverlayRepo(),
		sessionMeta:  newFakeOverlayRepo(),
		slotMeta:     newFakeOverlayRepo(),
		exerciseMeta: newFakeOverlayRepo(),
	}
	tx := fakeTxRunner{}
	f.planSvc = NewPlanService(f.plans, f.sessions, f.slots, f.exercises, f.athletes, f.planMeta, f.sessionMeta, f.slotMeta, tx)
	f.prescriptions = NewPrescriptionService(f.sessions, f.slots, f.exercises, f.sessionMeta, f.slotMeta, f.exerciseMeta, tx)
	f.executionSvc = NewExecutionService(f.executions, f.slots, f.sessions, f.plans, f.exercises, f.athletes, f.slotMeta, tx)
	return f
}

func (f *fixture) athlete() domain.Athlete {
	return f.athletes.add(domain.Athlete{UserID: primitive.NewObjectID(), CoachID: primitive.NewObjectID()})
}

func (f *fixture) exercise(name string) domain.Exercise {
	exercise := domain.Exercise{CoachID: primitive.NewObjectID(), Name: name, Type: domain.ExerciseStrength, MuscleGroup: "Chest"}
	_, _ = f.exercises.Create(context.Background(), &exercise)
	return exercise
}

func (f *fixture) planTree(athleteID primitive.ObjectID) (domain.Plan, domain.TrainingSession) {
	plan := domain.Plan{AthleteID: athleteID, Name: "Phase 1"}
	_, _ = f.plans.Create(context.Background(), &plan)
	session := domain.TrainingSession{PlanID: plan.ID, Name: "Day A", Sequence: 1}
	_, _ = f.sessions.Create(context.Background(), &session)
	return plan, session
}
