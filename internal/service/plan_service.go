package service

import (
	"context"
	"errors"
	"time"

	"totalfit/training-app/internal/domain"
	"totalfit/training-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AgendaSlot is one active prescription slot enriched with the live exercise
// definition for display. Exercise is nil when the catalog row has since
// disappeared.
type AgendaSlot struct {
	Slot     domain.PrescriptionSlot `json:"slot"`
	Exercise *domain.Exercise        `json:"exercise,omitempty"`
}

// AgendaSession is an active session with its active slots.
type AgendaSession struct {
	Session domain.TrainingSession `json:"session"`
	Slots   []AgendaSlot           `json:"slots"`
}

// AgendaPlan is an active plan with its active sessions.
type AgendaPlan struct {
	Plan     domain.Plan     `json:"plan"`
	Sessions []AgendaSession `json:"sessions"`
}

// --- Service Interface ---

// PlanService manages training plans and their sessions, including the
// cascading archival that keeps the plan tree consistent: archiving a plan
// archives every session and slot under it in one atomic unit.
type PlanService interface {
	CreatePlan(ctx context.Context, athleteID primitive.ObjectID, name, goal string, startDate, endDate *time.Time, notes string) (*domain.Plan, error)
	UpdatePlan(ctx context.Context, planID primitive.ObjectID, name, goal string, startDate, endDate *time.Time, notes string) (*domain.Plan, error)
	ListPlans(ctx context.Context, athleteID primitive.ObjectID, includeArchived bool) ([]domain.PlanWithState, error)
	ArchivePlan(ctx context.Context, planID primitive.ObjectID) error

	CreateSession(ctx context.Context, planID primitive.ObjectID, name string, sequence *int, mainType, notes string) (*domain.TrainingSession, error)
	ListSessions(ctx context.Context, planID primitive.ObjectID) ([]domain.TrainingSession, error)
	ArchiveSession(ctx context.Context, sessionID primitive.ObjectID) error

	// Agenda returns the athlete's full active prescription tree, slots
	// enriched with their live exercise definitions. planID and sequence
	// are optional filters.
	Agenda(ctx context.Context, athleteID primitive.ObjectID, planID *primitive.ObjectID, sequence *int) ([]AgendaPlan, error)
}

// --- Service Implementation ---

type planService struct {
	planRepo        repository.PlanRepository
	sessionRepo     repository.SessionRepository
	slotRepo        repository.SlotRepository
	exerciseRepo    repository.ExerciseRepository
	athleteRepo     repository.AthleteRepository
	planOverlays    repository.OverlayRepository
	sessionOverlays repository.OverlayRepository
	slotOverlays    repository.OverlayRepository
	tx              repository.TxRunner
}

// NewPlanService creates a new instance of planService.
func NewPlanService(
	planRepo repository.PlanRepository,
	sessionRepo repository.SessionRepository,
	slotRepo repository.SlotRepository,
	exerciseRepo repository.ExerciseRepository,
	athleteRepo repository.AthleteRepository,
	planOverlays repository.OverlayRepository,
	sessionOverlays repository.OverlayRepository,
	slotOverlays repository.OverlayRepository,
	tx repository.TxRunner,
) PlanService {
	return &planService{
		planRepo:        planRepo,
		sessionRepo:     sessionRepo,
		slotRepo:        slotRepo,
		exerciseRepo:    exerciseRepo,
		athleteRepo:     athleteRepo,
		planOverlays:    planOverlays,
		sessionOverlays: sessionOverlays,
		slotOverlays:    slotOverlays,
		tx:              tx,
	}
}

// CreatePlan creates a new training plan for an athlete.
func (s *planService) CreatePlan(ctx context.Context, athleteID primitive.ObjectID, name, goal string, startDate, endDate *time.Time, notes string) (*domain.Plan, error) {
	if name == "" {
		return nil, ErrValidationFailed
	}
	if _, err := s.athleteRepo.GetByID(ctx, athleteID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAthleteNotFound
		}
		return nil, err
	}

	plan := &domain.Plan{
		AthleteID: athleteID,
		Name:      name,
		Goal:      goal,
		StartDate: startDate,
		EndDate:   endDate,
		Notes:     notes,
	}
	planID, err := s.planRepo.Create(ctx, plan)
	if err != nil {
		return nil, err
	}
	return s.planRepo.GetByID(ctx, planID)
}

// UpdatePlan updates the mutable header fields of an active plan. Archived
// plans are not addressable and report not-found.
func (s *planService) UpdatePlan(ctx context.Context, planID primitive.ObjectID, name, goal string, startDate, endDate *time.Time, notes string) (*domain.Plan, error) {
	if name == "" {
		return nil, ErrValidationFailed
	}
	plan, err := s.getActivePlan(ctx, planID)
	if err != nil {
		return nil, err
	}

	plan.Name = name
	plan.Goal = goal
	plan.StartDate = startDate
	plan.EndDate = endDate
	plan.Notes = notes

	if err := s.planRepo.Update(ctx, plan); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return plan, nil
}

// ListPlans returns the athlete's plans, each annotated with its overlay
// state. Archived plans are filtered out unless includeArchived is set.
func (s *planService) ListPlans(ctx context.Context, athleteID primitive.ObjectID, includeArchived bool) ([]domain.PlanWithState, error) {
	if _, err := s.athleteRepo.GetByID(ctx, athleteID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAthleteNotFound
		}
		return nil, err
	}

	plans, err := s.planRepo.GetByAthleteID(ctx, athleteID)
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, len(plans))
	for i, plan := range plans {
		ids[i] = plan.ID
	}
	overlays, err := s.planOverlays.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}

	result := make([]domain.PlanWithState, 0, len(plans))
	for _, plan := range plans {
		state := domain.PlanWithState{Plan: plan, Active: true}
		if overlay, ok := overlays[plan.ID]; ok {
			state.Active = overlay.Active
			state.ArchivedAt = overlay.ArchivedAt
		}
		if !state.Active && !includeArchived {
			continue
		}
		result = append(result, state)
	}
	return result, nil
}

// ArchivePlan archives the plan and, transitively, every session and slot
// under it as one atomic unit. Re-archiving is a no-op that still succeeds.
func (s *planService) ArchivePlan(ctx context.Context, planID primitive.ObjectID) error {
	if _, err := s.planRepo.GetByID(ctx, planID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPlanNotFound
		}
		return err
	}

	now := time.Now().UTC()
	return s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.planOverlays.Archive(ctx, planID, now, nil); err != nil {
			return err
		}
		sessions, err := s.sessionRepo.GetByPlanID(ctx, planID)
		if err != nil {
			return err
		}
		for _, session := range sessions {
			if err := s.archiveSessionTree(ctx, session.ID, now); err != nil {
				return err
			}
		}
		return nil
	})
}

// CreateSession creates a session under an active plan. When sequence is nil
// the next position is assigned: max over the plan's active sessions, plus
// one.
func (s *planService) CreateSession(ctx context.Context, planID primitive.ObjectID, name string, sequence *int, mainType, notes string) (*domain.TrainingSession, error) {
	if name == "" {
		return nil, ErrValidationFailed
	}
	if _, err := s.getActivePlan(ctx, planID); err != nil {
		return nil, err
	}

	seq := 0
	if sequence != nil {
		seq = *sequence
	} else {
		active, err := s.listActiveSessions(ctx, planID)
		if err != nil {
			return nil, err
		}
		for _, session := range active {
			if session.Sequence >= seq {
				seq = session.Sequence + 1
			}
		}
		if seq == 0 {
			seq = 1
		}
	}

	session := &domain.TrainingSession{
		PlanID:   planID,
		Name:     name,
		Sequence: seq,
		MainType: mainType,
		Notes:    notes,
	}
	sessionID, err := s.sessionRepo.Create(ctx, session)
	if err != nil {
		return nil, err
	}
	return s.sessionRepo.GetByID(ctx, sessionID)
}

// ListSessions returns the plan's active sessions ordered by (sequence, id).
func (s *planService) ListSessions(ctx context.Context, planID primitive.ObjectID) ([]domain.TrainingSession, error) {
	if _, err := s.planRepo.GetByID(ctx, planID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return s.listActiveSessions(ctx, planID)
}

// ArchiveSession archives the session and every slot under it atomically.
func (s *planService) ArchiveSession(ctx context.Context, sessionID primitive.ObjectID) error {
	if _, err := s.sessionRepo.GetByID(ctx, sessionID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrSessionNotFound
		}
		return err
	}

	now := time.Now().UTC()
	return s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		return s.archiveSessionTree(ctx, sessionID, now)
	})
}

// Agenda builds the athlete's active prescription tree.
func (s *planService) Agenda(ctx context.Context, athleteID primitive.ObjectID, planID *primitive.ObjectID, sequence *int) ([]AgendaPlan, error) {
	if _, err := s.athleteRepo.GetByID(ctx, athleteID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAthleteNotFound
		}
		return nil, err
	}

	plans, err := s.ListPlans(ctx, athleteID, false)
	if err != nil {
		return nil, err
	}

	exerciseCache := make(map[primitive.ObjectID]*domain.Exercise)
	agenda := make([]AgendaPlan, 0, len(plans))
	for _, plan := range plans {
		if planID != nil && plan.ID != *planID {
			continue
		}
		sessions, err := s.listActiveSessions(ctx, plan.ID)
		if err != nil {
			return nil, err
		}

		agendaSessions := make([]AgendaSession, 0, len(sessions))
		for _, session := range sessions {
			if sequence != nil && session.Sequence != *sequence {
				continue
			}
			slots, err := s.slotRepo.GetBySessionID(ctx, session.ID)
			if err != nil {
				return nil, err
			}
			slots, err = activeSlots(ctx, s.slotOverlays, slots)
			if err != nil {
				return nil, err
			}

			agendaSlots := make([]AgendaSlot, 0, len(slots))
			for _, slot := range slots {
				agendaSlots = append(agendaSlots, AgendaSlot{
					Slot:     slot,
					Exercise: s.lookupExercise(ctx, slot.ExerciseID, exerciseCache),
				})
			}
			agendaSessions = append(agendaSessions, AgendaSession{Session: session, Slots: agendaSlots})
		}
		agenda = append(agenda, AgendaPlan{Plan: plan.Plan, Sessions: agendaSessions})
	}
	return agenda, nil
}

// archiveSessionTree archives one session and all of its slots. Must run
// inside the caller's transaction.
func (s *planService) archiveSessionTree(ctx context.Context, sessionID primitive.ObjectID, now time.Time) error {
	if err := s.sessionOverlays.Archive(ctx, sessionID, now, nil); err != nil {
		return err
	}
	slots, err := s.slotRepo.GetBySessionID(ctx, sessionID)
	if err != nil {
		return err
	}
	for _, slot := range slots {
		if err := s.slotOverlays.Archive(ctx, slot.ID, now, nil); err != nil {
			return err
		}
	}
	return nil
}

func (s *planService) listActiveSessions(ctx context.Context, planID primitive.ObjectID) ([]domain.TrainingSession, error) {
	sessions, err := s.sessionRepo.GetByPlanID(ctx, planID)
	if err != nil {
		return nil, err
	}
	return activeSessions(ctx, s.sessionOverlays, sessions)
}

func (s *planService) getActivePlan(ctx context.Context, planID primitive.ObjectID) (*domain.Plan, error) {
	plan, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	active, err := isActive(ctx, s.planOverlays, planID)
	if err != nil {
		return nil, err
	}
	if !active {
		return nil, ErrPlanNotFound
	}
	return plan, nil
}

func (s *planService) lookupExercise(ctx context.Context, exerciseID primitive.ObjectID, cache map[primitive.ObjectID]*domain.Exercise) *domain.Exercise {
	if exercise, ok := cache[exerciseID]; ok {
		return exercise
	}
	exercise, err := s.exerciseRepo.GetByID(ctx, exerciseID)
	if err != nil {
		exercise = nil
	}
	cache[exerciseID] = exercise
	return exercise
}
