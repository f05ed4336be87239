package service

import (
	"context"
	"errors"
	"time"

	"totalfit/training-app/internal/domain"
	"totalfit/training-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SlotInput carries the caller-supplied fields of a new prescription slot.
// A nil Order means "append": next position after the session's active view.
type SlotInput struct {
	ExerciseID primitive.ObjectID
	Order      *int
	Params     map[string]interface{}
	Notes      string
}

// --- Service Interface ---

// PrescriptionService manages the versioned exercise slots inside a session.
// Slots are never mutated in place: an edit inserts a new row and archives
// the old one with a replacedBy pointer, so executions that snapshotted the
// old row keep showing exactly what was prescribed at the time.
type PrescriptionService interface {
	AddSlot(ctx context.Context, sessionID primitive.ObjectID, input SlotInput) (*domain.PrescriptionSlot, error)
	AddSlots(ctx context.Context, sessionID primitive.ObjectID, inputs []SlotInput) ([]domain.PrescriptionSlot, error)
	// CopySlots duplicates the source session's active slots into the target
	// session as fresh rows, preserving their order.
	CopySlots(ctx context.Context, sourceSessionID, targetSessionID primitive.ObjectID) ([]domain.PrescriptionSlot, error)
	// ListActiveSlots returns the session's active view ordered by
	// (order, id).
	ListActiveSlots(ctx context.Context, sessionID primitive.ObjectID) ([]domain.PrescriptionSlot, error)
	// ReplaceSlot is the edit operation: new row carrying update merged over
	// the old slot's fields, old row archived with replacedBy, atomically.
	ReplaceSlot(ctx context.Context, slotID primitive.ObjectID, update domain.SlotUpdate) (*domain.PrescriptionSlot, error)
	// ArchiveSlot is idempotent: archiving an archived slot still succeeds.
	ArchiveSlot(ctx context.Context, slotID primitive.ObjectID) error
	// ResolveCurrentSlot follows replacedBy pointers from a slot to its
	// newest version. A revisited node means the chain is corrupt.
	ResolveCurrentSlot(ctx context.Context, slotID primitive.ObjectID) (*domain.PrescriptionSlot, error)
}

// --- Service Implementation ---

type prescriptionService struct {
	sessionRepo      repository.SessionRepository
	slotRepo         repository.SlotRepository
	exerciseRepo     repository.ExerciseRepository
	sessionOverlays  repository.OverlayRepository
	slotOverlays     repository.OverlayRepository
	exerciseOverlays repository.OverlayRepository
	tx               repository.TxRunner
}

// NewPrescriptionService creates a new instance of prescriptionService.
func NewPrescriptionService(
	sessionRepo repository.SessionRepository,
	slotRepo repository.SlotRepository,
	exerciseRepo repository.ExerciseRepository,
	sessionOverlays repository.OverlayRepository,
	slotOverlays repository.OverlayRepository,
	exerciseOverlays repository.OverlayRepository,
	tx repository.TxRunner,
) PrescriptionService {
	return &prescriptionService{
		sessionRepo:      sessionRepo,
		slotRepo:         slotRepo,
		exerciseRepo:     exerciseRepo,
		sessionOverlays:  sessionOverlays,
		slotOverlays:     slotOverlays,
		exerciseOverlays: exerciseOverlays,
		tx:               tx,
	}
}

// AddSlot prescribes one exercise in a session.
func (s *prescriptionService) AddSlot(ctx context.Context, sessionID primitive.ObjectID, input SlotInput) (*domain.PrescriptionSlot, error) {
	slots, err := s.AddSlots(ctx, sessionID, []SlotInput{input})
	if err != nil {
		return nil, err
	}
	return &slots[0], nil
}

// AddSlots prescribes several exercises at once, as one atomic unit.
// Inputs without an explicit order are appended after the active view in
// the order given.
func (s *prescriptionService) AddSlots(ctx context.Context, sessionID primitive.ObjectID, inputs []SlotInput) ([]domain.PrescriptionSlot, error) {
	if len(inputs) == 0 {
		return nil, ErrValidationFailed
	}
	if err := s.requireActiveSession(ctx, sessionID); err != nil {
		return nil, err
	}
	for _, input := range inputs {
		if err := s.requireActiveExercise(ctx, input.ExerciseID); err != nil {
			return nil, err
		}
	}

	created := make([]domain.PrescriptionSlot, 0, len(inputs))
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		nextOrder, err := s.nextOrder(ctx, sessionID)
		if err != nil {
			return err
		}
		for _, input := range inputs {
			order := nextOrder
			if input.Order != nil {
				order = *input.Order
			} else {
				nextOrder++
			}
			slot := domain.PrescriptionSlot{
				SessionID:  sessionID,
				ExerciseID: input.ExerciseID,
				Order:      order,
				Params:     cloneParams(input.Params),
				Notes:      input.Notes,
			}
			if _, err := s.slotRepo.Create(ctx, &slot); err != nil {
				return err
			}
			created = append(created, slot)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// CopySlots duplicates the active slots of one session into another.
func (s *prescriptionService) CopySlots(ctx context.Context, sourceSessionID, targetSessionID primitive.ObjectID) ([]domain.PrescriptionSlot, error) {
	if _, err := s.sessionRepo.GetByID(ctx, sourceSessionID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if err := s.requireActiveSession(ctx, targetSessionID); err != nil {
		return nil, err
	}

	var created []domain.PrescriptionSlot
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		source, err := s.listActive(ctx, sourceSessionID)
		if err != nil {
			return err
		}
		created = make([]domain.PrescriptionSlot, 0, len(source))
		for _, src := range source {
			slot := domain.PrescriptionSlot{
				SessionID:  targetSessionID,
				ExerciseID: src.ExerciseID,
				Order:      src.Order,
				Params:     cloneParams(src.Params),
				Notes:      src.Notes,
			}
			if _, err := s.slotRepo.Create(ctx, &slot); err != nil {
				return err
			}
			created = append(created, slot)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// ListActiveSlots returns the session's active view.
func (s *prescriptionService) ListActiveSlots(ctx context.Context, sessionID primitive.ObjectID) ([]domain.PrescriptionSlot, error) {
	if _, err := s.sessionRepo.GetByID(ctx, sessionID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return s.listActive(ctx, sessionID)
}

// ReplaceSlot edits a slot by versioning it.
func (s *prescriptionService) ReplaceSlot(ctx context.Context, slotID primitive.ObjectID, update domain.SlotUpdate) (*domain.PrescriptionSlot, error) {
	old, err := s.getActiveSlot(ctx, slotID)
	if err != nil {
		return nil, err
	}

	replacement := domain.PrescriptionSlot{
		SessionID:  old.SessionID,
		ExerciseID: old.ExerciseID,
		Order:      old.Order,
		Params:     cloneParams(old.Params),
		Notes:      old.Notes,
	}
	if update.Order != nil {
		replacement.Order = *update.Order
	}
	if update.Params != nil {
		replacement.Params = cloneParams(update.Params)
	}
	if update.Notes != nil {
		replacement.Notes = *update.Notes
	}

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		newID, err := s.slotRepo.Create(ctx, &replacement)
		if err != nil {
			return err
		}
		return s.slotOverlays.Archive(ctx, old.ID, time.Now().UTC(), &newID)
	})
	if err != nil {
		return nil, err
	}
	return &replacement, nil
}

// ArchiveSlot soft-deletes a slot.
func (s *prescriptionService) ArchiveSlot(ctx context.Context, slotID primitive.ObjectID) error {
	if _, err := s.slotRepo.GetByID(ctx, slotID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrSlotNotFound
		}
		return err
	}
	return s.slotOverlays.Archive(ctx, slotID, time.Now().UTC(), nil)
}

// ResolveCurrentSlot walks the replace chain to its end.
func (s *prescriptionService) ResolveCurrentSlot(ctx context.Context, slotID primitive.ObjectID) (*domain.PrescriptionSlot, error) {
	if _, err := s.slotRepo.GetByID(ctx, slotID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}

	visited := map[primitive.ObjectID]bool{}
	current := slotID
	for {
		if visited[current] {
			return nil, ErrConflict
		}
		visited[current] = true

		overlay, err := s.slotOverlays.Get(ctx, current)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				break // never archived, chain ends here
			}
			return nil, err
		}
		if overlay.ReplacedBy == nil {
			break
		}
		current = *overlay.ReplacedBy
	}

	slot, err := s.slotRepo.GetByID(ctx, current)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}
	return slot, nil
}

func (s *prescriptionService) listActive(ctx context.Context, sessionID primitive.ObjectID) ([]domain.PrescriptionSlot, error) {
	slots, err := s.slotRepo.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return activeSlots(ctx, s.slotOverlays, slots)
}

// nextOrder is max order over the active view, plus one; one for an empty
// session.
func (s *prescriptionService) nextOrder(ctx context.Context, sessionID primitive.ObjectID) (int, error) {
	active, err := s.listActive(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	next := 1
	for _, slot := range active {
		if slot.Order >= next {
			next = slot.Order + 1
		}
	}
	return next, nil
}

func (s *prescriptionService) getActiveSlot(ctx context.Context, slotID primitive.ObjectID) (*domain.PrescriptionSlot, error) {
	slot, err := s.slotRepo.GetByID(ctx, slotID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}
	active, err := isActive(ctx, s.slotOverlays, slotID)
	if err != nil {
		return nil, err
	}
	if !active {
		return nil, ErrSlotNotFound
	}
	return slot, nil
}

func (s *prescriptionService) requireActiveSession(ctx context.Context, sessionID primitive.ObjectID) error {
	if _, err := s.sessionRepo.GetByID(ctx, sessionID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrSessionNotFound
		}
		return err
	}
	active, err := isActive(ctx, s.sessionOverlays, sessionID)
	if err != nil {
		return err
	}
	if !active {
		return ErrSessionNotFound
	}
	return nil
}

func (s *prescriptionService) requireActiveExercise(ctx context.Context, exerciseID primitive.ObjectID) error {
	if _, err := s.exerciseRepo.GetByID(ctx, exerciseID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrExerciseNotFound
		}
		return err
	}
	active, err := isActive(ctx, s.exerciseOverlays, exerciseID)
	if err != nil {
		return err
	}
	if !active {
		return ErrExerciseNotFound
	}
	return nil
}
