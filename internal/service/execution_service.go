package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"totalfit/training-app/internal/domain"
	"totalfit/training-app/internal/performance"
	"totalfit/training-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PerformedInput is what the athlete reported for one slot.
type PerformedInput struct {
	SlotID    primitive.ObjectID
	Performed map[string]interface{}
	Notes     string
}

// CreateExecutionInput is the header plus per-slot reports of one recorded
// session execution. ExecutedAt defaults to now.
type CreateExecutionInput struct {
	AthleteID   primitive.ObjectID
	SessionID   primitive.ObjectID
	ExecutedAt  *time.Time
	Status      domain.ExecutionStatus
	EffortScore *int
	Comment     string
	Exercises   []PerformedInput
}

// ExecutionItem pairs one slot snapshot with what the athlete performed.
// Performed is nil when the athlete didn't report on that slot.
type ExecutionItem struct {
	RecordID  primitive.ObjectID     `json:"recordId,omitempty"`
	Snapshot  domain.SlotSnapshot    `json:"snapshot"`
	Performed map[string]interface{} `json:"performed,omitempty"`
	Notes     string                 `json:"notes,omitempty"`
}

// ExecutionReport is a fully materialized execution: header, denormalized
// session/plan names, and one item per slot that was active when it was
// recorded. Degraded marks executions from before per-slot records existed,
// rendered from the session's current active slots instead of snapshots.
type ExecutionReport struct {
	Execution   domain.Execution `json:"execution"`
	SessionName string           `json:"sessionName,omitempty"`
	PlanName    string           `json:"planName,omitempty"`
	Items       []ExecutionItem  `json:"items"`
	Degraded    bool             `json:"degraded,omitempty"`
}

// LastPerformance is the newest reported data for one exercise, used to
// pre-fill the athlete's logging form.
type LastPerformance struct {
	ExecutedAt time.Time              `json:"executedAt"`
	Performed  map[string]interface{} `json:"performed"`
	Notes      string                 `json:"notes,omitempty"`
}

// EvolutionItem is one exercise's trend summary over the athlete's whole
// execution history. Raw strings are kept next to the parsed values so the
// UI can show "20kg" while charting 20.0.
type EvolutionItem struct {
	ExerciseID      primitive.ObjectID  `json:"exercise_id"`
	Name            string              `json:"name"`
	Type            domain.ExerciseType `json:"type,omitempty"`
	Group           string              `json:"group,omitempty"`
	LastExecutedAt  *time.Time          `json:"last_executed_at,omitempty"`
	LastLoad        *string             `json:"last_load,omitempty"`
	LastLoadValue   *float64            `json:"last_load_value,omitempty"`
	BestLoad        *string             `json:"best_load,omitempty"`
	BestLoadValue   *float64            `json:"best_load_value,omitempty"`
	PrevLoad        *string             `json:"prev_load,omitempty"`
	PrevLoadValue   *float64            `json:"prev_load_value,omitempty"`
	DeltaLoadValue  *float64            `json:"delta_load_value,omitempty"`
	LastReps        *string             `json:"last_reps,omitempty"`
	LastRepsValue   *float64            `json:"last_reps_value,omitempty"`
	BestReps        *string             `json:"best_reps,omitempty"`
	BestRepsValue   *float64            `json:"best_reps_value,omitempty"`
	PrevReps        *string             `json:"prev_reps,omitempty"`
	PrevRepsValue   *float64            `json:"prev_reps_value,omitempty"`
	DeltaRepsValue  *float64            `json:"delta_reps_value,omitempty"`
	TotalExecutions int                 `json:"total_executions"`
}

// --- Service Interface ---

// ExecutionService records session executions and serves the historical
// reads built on them.
type ExecutionService interface {
	// CreateExecution freezes the session's active view into immutable
	// per-slot snapshots and persists them with the athlete's reported data
	// as one atomic write. Performed entries referencing slots outside the
	// active view make the whole call fail with a *ValidationError.
	CreateExecution(ctx context.Context, input CreateExecutionInput) (*ExecutionReport, error)
	GetExecution(ctx context.Context, executionID primitive.ObjectID) (*ExecutionReport, error)
	// ListExecutions returns the athlete's history newest-first.
	ListExecutions(ctx context.Context, athleteID primitive.ObjectID) ([]ExecutionReport, error)
	// LastPerformances maps exercise id (hex) to the newest execution data
	// reported for it.
	LastPerformances(ctx context.Context, athleteID primitive.ObjectID) (map[string]LastPerformance, error)
	// ComputeEvolution aggregates the athlete's whole history into
	// per-exercise trend summaries, most recently trained first.
	ComputeEvolution(ctx context.Context, athleteID primitive.ObjectID) ([]EvolutionItem, error)
}

// --- Service Implementation ---

type executionService struct {
	executionRepo repository.ExecutionRepository
	slotRepo      repository.SlotRepository
	sessionRepo   repository.SessionRepository
	planRepo      repository.PlanRepository
	exerciseRepo  repository.ExerciseRepository
	athleteRepo   repository.AthleteRepository
	slotOverlays  repository.OverlayRepository
	tx            repository.TxRunner
}

// NewExecutionService creates a new instance of executionService.
func NewExecutionService(
	executionRepo repository.ExecutionRepository,
	slotRepo repository.SlotRepository,
	sessionRepo repository.SessionRepository,
	planRepo repository.PlanRepository,
	exerciseRepo repository.ExerciseRepository,
	athleteRepo repository.AthleteRepository,
	slotOverlays repository.OverlayRepository,
	tx repository.TxRunner,
) ExecutionService {
	return &executionService{
		executionRepo: executionRepo,
		slotRepo:      slotRepo,
		sessionRepo:   sessionRepo,
		planRepo:      planRepo,
		exerciseRepo:  exerciseRepo,
		athleteRepo:   athleteRepo,
		slotOverlays:  slotOverlays,
		tx:            tx,
	}
}

func (s *executionService) CreateExecution(ctx context.Context, input CreateExecutionInput) (*ExecutionReport, error) {
	if !input.Status.Valid() {
		return nil, ErrValidationFailed
	}
	if _, err := s.athleteRepo.GetByID(ctx, input.AthleteID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAthleteNotFound
		}
		return nil, err
	}
	session, err := s.sessionRepo.GetByID(ctx, input.SessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	executedAt := time.Now().UTC()
	if input.ExecutedAt != nil {
		executedAt = input.ExecutedAt.UTC()
	}
	execution := domain.Execution{
		AthleteID:   input.AthleteID,
		SessionID:   input.SessionID,
		ExecutedAt:  executedAt,
		Status:      input.Status,
		EffortScore: input.EffortScore,
		Comment:     input.Comment,
	}

	var items []ExecutionItem
	exerciseCache := make(map[primitive.ObjectID]*domain.Exercise)

	// The active-view read and every write happen inside one transaction so
	// a concurrent replace cannot produce a partial snapshot.
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		slots, err := s.slotRepo.GetBySessionID(ctx, input.SessionID)
		if err != nil {
			return err
		}
		active, err := activeSlots(ctx, s.slotOverlays, slots)
		if err != nil {
			return err
		}

		activeIDs := make(map[primitive.ObjectID]bool, len(active))
		for _, slot := range active {
			activeIDs[slot.ID] = true
		}
		performedBySlot := make(map[primitive.ObjectID]PerformedInput, len(input.Exercises))
		var invalid []string
		for _, entry := range input.Exercises {
			if !activeIDs[entry.SlotID] {
				invalid = append(invalid, entry.SlotID.Hex())
				continue
			}
			performedBySlot[entry.SlotID] = entry
		}
		if len(invalid) > 0 {
			return &ValidationError{InvalidSlotIDs: invalid}
		}

		executionID, err := s.executionRepo.Create(ctx, &execution)
		if err != nil {
			return err
		}

		// One record per active slot, reported on or not: "not reported"
		// must stay distinguishable from "no longer prescribed".
		items = make([]ExecutionItem, 0, len(active))
		for _, slot := range active {
			record := domain.ExerciseExecutionRecord{
				ExecutionID: executionID,
				SlotID:      slot.ID,
				Snapshot:    s.snapshotSlot(ctx, slot, exerciseCache),
			}
			if entry, ok := performedBySlot[slot.ID]; ok {
				record.Performed = entry.Performed
				record.Notes = entry.Notes
			}
			recordID, err := s.executionRepo.CreateRecord(ctx, &record)
			if err != nil {
				return err
			}
			items = append(items, ExecutionItem{
				RecordID:  recordID,
				Snapshot:  record.Snapshot,
				Performed: record.Performed,
				Notes:     record.Notes,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	report := &ExecutionReport{
		Execution:   execution,
		SessionName: session.Name,
		Items:       items,
	}
	if plan, err := s.planRepo.GetByID(ctx, session.PlanID); err == nil {
		report.PlanName = plan.Name
	}
	return report, nil
}

func (s *executionService) GetExecution(ctx context.Context, executionID primitive.ObjectID) (*ExecutionReport, error) {
	execution, err := s.executionRepo.GetByID(ctx, executionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExecutionNotFound
		}
		return nil, err
	}
	cache := newReportCache()
	return s.materialize(ctx, *execution, cache)
}

func (s *executionService) ListExecutions(ctx context.Context, athleteID primitive.ObjectID) ([]ExecutionReport, error) {
	executions, err := s.executionsFor(ctx, athleteID)
	if err != nil {
		return nil, err
	}

	cache := newReportCache()
	reports := make([]ExecutionReport, 0, len(executions))
	// Stored order is oldest-first; callers want the newest on top.
	for i := len(executions) - 1; i >= 0; i-- {
		report, err := s.materialize(ctx, executions[i], cache)
		if err != nil {
			return nil, err
		}
		reports = append(reports, *report)
	}
	return reports, nil
}

func (s *executionService) LastPerformances(ctx context.Context, athleteID primitive.ObjectID) (map[string]LastPerformance, error) {
	executions, err := s.executionsFor(ctx, athleteID)
	if err != nil {
		return nil, err
	}

	latest := make(map[string]LastPerformance)
	for _, execution := range executions {
		records, err := s.executionRepo.GetRecordsByExecutionID(ctx, execution.ID)
		if err != nil {
			return nil, err
		}
		for _, record := range records {
			if len(record.Performed) == 0 {
				continue
			}
			// Executions arrive oldest-first, so the last write wins.
			latest[record.Snapshot.ExerciseID.Hex()] = LastPerformance{
				ExecutedAt: execution.ExecutedAt,
				Performed:  record.Performed,
				Notes:      record.Notes,
			}
		}
	}
	return latest, nil
}

// evolutionPoint is one exercise's merged contribution from one execution.
type evolutionPoint struct {
	executedAt time.Time
	summary    performance.Summary
}

type evolutionSeries struct {
	exerciseID primitive.ObjectID
	name       string
	exType     domain.ExerciseType
	group      string
	points     []evolutionPoint
}

func (s *executionService) ComputeEvolution(ctx context.Context, athleteID primitive.ObjectID) ([]EvolutionItem, error) {
	executions, err := s.executionsFor(ctx, athleteID)
	if err != nil {
		return nil, err
	}

	series := make(map[primitive.ObjectID]*evolutionSeries)
	var seen []primitive.ObjectID

	// Executions arrive by (executedAt, id) ascending, so appending points
	// in iteration order gives each exercise its canonical temporal order.
	for _, execution := range executions {
		records, err := s.executionRepo.GetRecordsByExecutionID(ctx, execution.ID)
		if err != nil {
			return nil, err
		}

		// A duplicated prescription of the same exercise inside one
		// execution contributes a single merged point.
		merged := make(map[primitive.ObjectID]*performance.Summary)
		var order []primitive.ObjectID
		for _, record := range records {
			exerciseID := record.Snapshot.ExerciseID
			summary := performance.MaxLoadAndReps(record.Performed)
			if existing, ok := merged[exerciseID]; ok {
				existing.Merge(summary)
			} else {
				merged[exerciseID] = &summary
				order = append(order, exerciseID)
			}

			entry, ok := series[exerciseID]
			if !ok {
				entry = &evolutionSeries{exerciseID: exerciseID}
				series[exerciseID] = entry
				seen = append(seen, exerciseID)
			}
			// Latest snapshot wins so renames show through.
			if record.Snapshot.ExerciseName != "" {
				entry.name = record.Snapshot.ExerciseName
			}
			if record.Snapshot.ExerciseType != "" {
				entry.exType = record.Snapshot.ExerciseType
			}
			if record.Snapshot.ExerciseGroup != "" {
				entry.group = record.Snapshot.ExerciseGroup
			}
		}
		for _, exerciseID := range order {
			series[exerciseID].points = append(series[exerciseID].points, evolutionPoint{
				executedAt: execution.ExecutedAt,
				summary:    *merged[exerciseID],
			})
		}
	}

	items := make([]EvolutionItem, 0, len(seen))
	for _, exerciseID := range seen {
		if item, ok := buildEvolutionItem(series[exerciseID]); ok {
			items = append(items, item)
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].LastExecutedAt, items[j].LastExecutedAt
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return a.After(*b)
	})
	return items, nil
}

// buildEvolutionItem reduces one exercise's point series to its trend
// summary. Returns false for series with no numeric data anywhere, which
// are dropped from the result.
func buildEvolutionItem(entry *evolutionSeries) (EvolutionItem, bool) {
	hasData := false
	for _, point := range entry.points {
		if point.summary.HasData() {
			hasData = true
			break
		}
	}
	if !hasData || len(entry.points) == 0 {
		return EvolutionItem{}, false
	}

	last := entry.points[len(entry.points)-1]
	item := EvolutionItem{
		ExerciseID:      entry.exerciseID,
		Name:            entry.name,
		Type:            entry.exType,
		Group:           entry.group,
		LastLoad:        last.summary.LoadRaw,
		LastLoadValue:   last.summary.LoadValue,
		LastReps:        last.summary.RepsRaw,
		LastRepsValue:   last.summary.RepsValue,
		TotalExecutions: len(entry.points),
	}
	if !last.executedAt.IsZero() {
		at := last.executedAt
		item.LastExecutedAt = &at
	}

	if len(entry.points) >= 2 {
		prev := entry.points[len(entry.points)-2]
		item.PrevLoad = prev.summary.LoadRaw
		item.PrevLoadValue = prev.summary.LoadValue
		item.PrevReps = prev.summary.RepsRaw
		item.PrevRepsValue = prev.summary.RepsValue
		if item.LastLoadValue != nil && item.PrevLoadValue != nil {
			delta := *item.LastLoadValue - *item.PrevLoadValue
			item.DeltaLoadValue = &delta
		}
		if item.LastRepsValue != nil && item.PrevRepsValue != nil {
			delta := *item.LastRepsValue - *item.PrevRepsValue
			item.DeltaRepsValue = &delta
		}
	}

	for _, point := range entry.points {
		if point.summary.LoadValue != nil &&
			(item.BestLoadValue == nil || *point.summary.LoadValue > *item.BestLoadValue) {
			item.BestLoadValue = point.summary.LoadValue
			item.BestLoad = point.summary.LoadRaw
		}
		if point.summary.RepsValue != nil &&
			(item.BestRepsValue == nil || *point.summary.RepsValue > *item.BestRepsValue) {
			item.BestRepsValue = point.summary.RepsValue
			item.BestReps = point.summary.RepsRaw
		}
	}
	return item, true
}

// reportCache memoizes the session/plan/exercise lookups shared by the
// reports of one call.
type reportCache struct {
	sessions  map[primitive.ObjectID]*domain.TrainingSession
	plans     map[primitive.ObjectID]*domain.Plan
	exercises map[primitive.ObjectID]*domain.Exercise
}

func newReportCache() *reportCache {
	return &reportCache{
		sessions:  make(map[primitive.ObjectID]*domain.TrainingSession),
		plans:     make(map[primitive.ObjectID]*domain.Plan),
		exercises: make(map[primitive.ObjectID]*domain.Exercise),
	}
}

// materialize turns a stored execution into a full report. Executions from
// before per-slot records existed have none; those fall back to the
// session's current active slots without prescribed-value fidelity. That
// fallback is a degraded view, not an error.
func (s *executionService) materialize(ctx context.Context, execution domain.Execution, cache *reportCache) (*ExecutionReport, error) {
	report := &ExecutionReport{Execution: execution}

	session, ok := cache.sessions[execution.SessionID]
	if !ok {
		var err error
		session, err = s.sessionRepo.GetByID(ctx, execution.SessionID)
		if err != nil {
			session = nil
		}
		cache.sessions[execution.SessionID] = session
	}
	if session != nil {
		report.SessionName = session.Name
		plan, ok := cache.plans[session.PlanID]
		if !ok {
			var err error
			plan, err = s.planRepo.GetByID(ctx, session.PlanID)
			if err != nil {
				plan = nil
			}
			cache.plans[session.PlanID] = plan
		}
		if plan != nil {
			report.PlanName = plan.Name
		}
	}

	records, err := s.executionRepo.GetRecordsByExecutionID(ctx, execution.ID)
	if err != nil {
		return nil, err
	}
	if len(records) > 0 {
		report.Items = make([]ExecutionItem, 0, len(records))
		for _, record := range records {
			report.Items = append(report.Items, ExecutionItem{
				RecordID:  record.ID,
				Snapshot:  record.Snapshot,
				Performed: record.Performed,
				Notes:     record.Notes,
			})
		}
		return report, nil
	}

	report.Degraded = true
	report.Items = []ExecutionItem{}
	if session == nil {
		return report, nil
	}
	slots, err := s.slotRepo.GetBySessionID(ctx, execution.SessionID)
	if err != nil {
		return nil, err
	}
	active, err := activeSlots(ctx, s.slotOverlays, slots)
	if err != nil {
		return nil, err
	}
	for _, slot := range active {
		report.Items = append(report.Items, ExecutionItem{
			Snapshot: s.snapshotSlot(ctx, slot, cache.exercises),
		})
	}
	return report, nil
}

// snapshotSlot freezes a slot's prescription, denormalizing the exercise
// identity so the record stays self-contained even if the catalog row
// later changes or disappears.
func (s *executionService) snapshotSlot(ctx context.Context, slot domain.PrescriptionSlot, cache map[primitive.ObjectID]*domain.Exercise) domain.SlotSnapshot {
	snapshot := domain.SlotSnapshot{
		SlotID:           slot.ID,
		Order:            slot.Order,
		ExerciseID:       slot.ExerciseID,
		PrescribedParams: cloneParams(slot.Params),
		SlotNotes:        slot.Notes,
	}
	exercise, ok := cache[slot.ExerciseID]
	if !ok {
		var err error
		exercise, err = s.exerciseRepo.GetByID(ctx, slot.ExerciseID)
		if err != nil {
			exercise = nil
		}
		cache[slot.ExerciseID] = exercise
	}
	if exercise != nil {
		snapshot.ExerciseName = exercise.Name
		snapshot.ExerciseType = exercise.Type
		snapshot.ExerciseGroup = exercise.MuscleGroup
	}
	return snapshot
}

func (s *executionService) executionsFor(ctx context.Context, athleteID primitive.ObjectID) ([]domain.Execution, error) {
	if _, err := s.athleteRepo.GetByID(ctx, athleteID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAthleteNotFound
		}
		return nil, err
	}
	return s.executionRepo.GetByAthleteID(ctx, athleteID)
}
