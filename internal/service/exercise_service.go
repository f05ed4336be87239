package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"totalfit/training-app/internal/domain"
	"totalfit/training-app/internal/repository"
	"totalfit/training-app/internal/storage"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ExerciseInput carries the caller-supplied fields of an exercise.
type ExerciseInput struct {
	Name            string
	Type            domain.ExerciseType
	MuscleGroup     string
	Description     string
	Tips            string
	VideoURL        string
	EnduranceParams map[string]interface{}
}

// --- Service Interface ---

// ExerciseService manages the coach's exercise library. Exercises are
// soft-archived through the same overlay scheme as prescriptions: an
// archived exercise cannot be newly prescribed, but history that
// snapshotted it is untouched.
type ExerciseService interface {
	CreateExercise(ctx context.Context, coachID primitive.ObjectID, input ExerciseInput) (*domain.Exercise, error)
	GetExerciseByID(ctx context.Context, exerciseID primitive.ObjectID) (*domain.Exercise, error)
	// ListExercises returns the coach's active exercises.
	ListExercises(ctx context.Context, coachID primitive.ObjectID) ([]domain.Exercise, error)
	UpdateExercise(ctx context.Context, coachID, exerciseID primitive.ObjectID, input ExerciseInput) (*domain.Exercise, error)
	ArchiveExercise(ctx context.Context, coachID, exerciseID primitive.ObjectID) error

	// RequestVideoUploadURL presigns a PUT URL for a demo video and stores
	// the new object key on the exercise.
	RequestVideoUploadURL(ctx context.Context, coachID, exerciseID primitive.ObjectID, contentType string) (uploadURL, objectKey string, err error)
	// GetVideoDownloadURL presigns a GET URL for the stored demo video, or
	// returns the external video URL when no upload exists.
	GetVideoDownloadURL(ctx context.Context, exerciseID primitive.ObjectID) (string, error)
}

// --- Service Implementation ---

type exerciseService struct {
	exerciseRepo     repository.ExerciseRepository
	exerciseOverlays repository.OverlayRepository
	fileStorage      storage.FileStorage
}

// NewExerciseService creates a new instance of exerciseService.
func NewExerciseService(
	exerciseRepo repository.ExerciseRepository,
	exerciseOverlays repository.OverlayRepository,
	fileStorage storage.FileStorage,
) ExerciseService {
	return &exerciseService{
		exerciseRepo:     exerciseRepo,
		exerciseOverlays: exerciseOverlays,
		fileStorage:      fileStorage,
	}
}

// CreateExercise adds a new exercise to the coach's library.
func (s *exerciseService) CreateExercise(ctx context.Context, coachID primitive.ObjectID, input ExerciseInput) (*domain.Exercise, error) {
	if input.Name == "" || coachID == primitive.NilObjectID {
		return nil, ErrValidationFailed
	}
	if input.Type == "" {
		input.Type = domain.ExerciseOther
	}
	if !input.Type.Valid() {
		return nil, ErrValidationFailed
	}

	exercise := &domain.Exercise{
		CoachID:         coachID,
		Name:            input.Name,
		Type:            input.Type,
		MuscleGroup:     input.MuscleGroup,
		Description:     input.Description,
		Tips:            input.Tips,
		VideoURL:        input.VideoURL,
		EnduranceParams: input.EnduranceParams,
	}
	exerciseID, err := s.exerciseRepo.Create(ctx, exercise)
	if err != nil {
		return nil, err
	}
	return s.exerciseRepo.GetByID(ctx, exerciseID)
}

// GetExerciseByID retrieves a single exercise, archived or not: historical
// records keep referencing archived exercises, so single-entity reads stay
// addressable.
func (s *exerciseService) GetExerciseByID(ctx context.Context, exerciseID primitive.ObjectID) (*domain.Exercise, error) {
	exercise, err := s.exerciseRepo.GetByID(ctx, exerciseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, err
	}
	return exercise, nil
}

// ListExercises returns the coach's library, archived entries filtered out.
func (s *exerciseService) ListExercises(ctx context.Context, coachID primitive.ObjectID) ([]domain.Exercise, error) {
	exercises, err := s.exerciseRepo.GetByCoachID(ctx, coachID)
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, len(exercises))
	for i, exercise := range exercises {
		ids[i] = exercise.ID
	}
	inactive, err := inactiveSet(ctx, s.exerciseOverlays, ids)
	if err != nil {
		return nil, err
	}
	active := make([]domain.Exercise, 0, len(exercises))
	for _, exercise := range exercises {
		if !inactive[exercise.ID] {
			active = append(active, exercise)
		}
	}
	return active, nil
}

// UpdateExercise updates an exercise, enforcing ownership.
func (s *exerciseService) UpdateExercise(ctx context.Context, coachID, exerciseID primitive.ObjectID, input ExerciseInput) (*domain.Exercise, error) {
	if input.Name == "" {
		return nil, ErrValidationFailed
	}
	exercise, err := s.ownedExercise(ctx, coachID, exerciseID)
	if err != nil {
		return nil, err
	}
	if input.Type != "" && !input.Type.Valid() {
		return nil, ErrValidationFailed
	}

	exercise.Name = input.Name
	if input.Type != "" {
		exercise.Type = input.Type
	}
	exercise.MuscleGroup = input.MuscleGroup
	exercise.Description = input.Description
	exercise.Tips = input.Tips
	exercise.VideoURL = input.VideoURL
	exercise.EnduranceParams = input.EnduranceParams

	if err := s.exerciseRepo.Update(ctx, exercise); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, err
	}
	return exercise, nil
}

// ArchiveExercise soft-archives an exercise. Idempotent.
func (s *exerciseService) ArchiveExercise(ctx context.Context, coachID, exerciseID primitive.ObjectID) error {
	if _, err := s.ownedExercise(ctx, coachID, exerciseID); err != nil {
		return err
	}
	return s.exerciseOverlays.Archive(ctx, exerciseID, time.Now().UTC(), nil)
}

func (s *exerciseService) RequestVideoUploadURL(ctx context.Context, coachID, exerciseID primitive.ObjectID, contentType string) (string, string, error) {
	exercise, err := s.ownedExercise(ctx, coachID, exerciseID)
	if err != nil {
		return "", "", err
	}

	objectKey := fmt.Sprintf("exercises/%s/%s", exerciseID.Hex(), uuid.NewString())
	uploadURL, err := s.fileStorage.GeneratePresignedUploadURL(ctx, objectKey, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return "", "", err
	}

	oldKey := exercise.VideoObjectKey
	exercise.VideoObjectKey = objectKey
	if err := s.exerciseRepo.Update(ctx, exercise); err != nil {
		return "", "", err
	}
	if oldKey != "" && oldKey != objectKey {
		// Best effort: a dangling object is just storage cost.
		if err := s.fileStorage.DeleteObject(ctx, oldKey); err != nil {
			log.Printf("WARN: failed to delete replaced video object %s: %v", oldKey, err)
		}
	}
	return uploadURL, objectKey, nil
}

func (s *exerciseService) GetVideoDownloadURL(ctx context.Context, exerciseID primitive.ObjectID) (string, error) {
	exercise, err := s.GetExerciseByID(ctx, exerciseID)
	if err != nil {
		return "", err
	}
	if exercise.VideoObjectKey != "" {
		return s.fileStorage.GeneratePresignedDownloadURL(ctx, exercise.VideoObjectKey, storage.DefaultPresignedURLExpiry)
	}
	if exercise.VideoURL != "" {
		return exercise.VideoURL, nil
	}
	return "", ErrExerciseNoVideo
}

func (s *exerciseService) ownedExercise(ctx context.Context, coachID, exerciseID primitive.ObjectID) (*domain.Exercise, error) {
	exercise, err := s.exerciseRepo.GetByID(ctx, exerciseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, err
	}
	if exercise.CoachID != coachID {
		return nil, ErrAccessDenied
	}
	return exercise, nil
}
