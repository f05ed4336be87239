package service

import (
	"context"
	"testing"
	"time"

	"totalfit/training-app/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeFileStorage struct {
	deleted []string
}

func (f *fakeFileStorage) GeneratePresignedUploadURL(_ context.Context, objectKey, _ string, _ time.Duration) (string, error) {
	return "https://storage.test/upload/" + objectKey, nil
}

func (f *fakeFileStorage) GeneratePresignedDownloadURL(_ context.Context, objectKey string, _ time.Duration) (string, error) {
	return "https://storage.test/get/" + objectKey, nil
}

func (f *fakeFileStorage) DeleteObject(_ context.Context, objectKey string) error {
	f.deleted = append(f.deleted, objectKey)
	return nil
}

func newExerciseFixture() (ExerciseService, *fakeExerciseRepo, *fakeOverlayRepo, *fakeFileStorage) {
	exercises := newFakeExerciseRepo()
	overlays := newFakeOverlayRepo()
	files := &fakeFileStorage{}
	return NewExerciseService(exercises, overlays, files), exercises, overlays, files
}

func TestArchiveExerciseLeavesLibraryListing(t *testing.T) {
	svc, _, _, _ := newExerciseFixture()
	ctx := context.Background()
	coachID := primitive.NewObjectID()

	kept, err := svc.CreateExercise(ctx, coachID, ExerciseInput{Name: "Bench Press", Type: domain.ExerciseStrength})
	require.NoError(t, err)
	gone, err := svc.CreateExercise(ctx, coachID, ExerciseInput{Name: "Smith Machine Press"})
	require.NoError(t, err)

	require.NoError(t, svc.ArchiveExercise(ctx, coachID, gone.ID))
	// Idempotent.
	require.NoError(t, svc.ArchiveExercise(ctx, coachID, gone.ID))

	listed, err := svc.ListExercises(ctx, coachID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, kept.ID, listed[0].ID)

	// Archived exercises stay addressable for history rendering.
	got, err := svc.GetExerciseByID(ctx, gone.ID)
	require.NoError(t, err)
	assert.Equal(t, "Smith Machine Press", got.Name)
}

func TestUpdateExerciseEnforcesOwnership(t *testing.T) {
	svc, _, _, _ := newExerciseFixture()
	ctx := context.Background()
	owner := primitive.NewObjectID()

	exercise, err := svc.CreateExercise(ctx, owner, ExerciseInput{Name: "Squat"})
	require.NoError(t, err)

	_, err = svc.UpdateExercise(ctx, primitive.NewObjectID(), exercise.ID, ExerciseInput{Name: "Front Squat"})
	assert.ErrorIs(t, err, ErrAccessDenied)

	updated, err := svc.UpdateExercise(ctx, owner, exercise.ID, ExerciseInput{Name: "Front Squat", Type: domain.ExerciseStrength})
	require.NoError(t, err)
	assert.Equal(t, "Front Squat", updated.Name)
}

func TestVideoUploadRotatesObjectKey(t *testing.T) {
	svc, exercises, _, files := newExerciseFixture()
	ctx := context.Background()
	coachID := primitive.NewObjectID()

	exercise, err := svc.CreateExercise(ctx, coachID, ExerciseInput{Name: "Deadlift"})
	require.NoError(t, err)

	uploadURL, firstKey, err := svc.RequestVideoUploadURL(ctx, coachID, exercise.ID, "video/mp4")
	require.NoError(t, err)
	assert.Contains(t, uploadURL, firstKey)

	stored, err := exercises.GetByID(ctx, exercise.ID)
	require.NoError(t, err)
	assert.Equal(t, firstKey, stored.VideoObjectKey)

	// A second upload replaces the key and drops the old object.
	_, secondKey, err := svc.RequestVideoUploadURL(ctx, coachID, exercise.ID, "video/mp4")
	require.NoError(t, err)
	assert.NotEqual(t, firstKey, secondKey)
	assert.Contains(t, files.deleted, firstKey)

	downloadURL, err := svc.GetVideoDownloadURL(ctx, exercise.ID)
	require.NoError(t, err)
	assert.Contains(t, downloadURL, secondKey)
}

func TestGetVideoDownloadURLFallsBackToExternal(t *testing.T) {
	svc, _, _, _ := newExerciseFixture()
	ctx := context.Background()
	coachID := primitive.NewObjectID()

	linked, err := svc.CreateExercise(ctx, coachID, ExerciseInput{Name: "Run", Type: domain.ExerciseRunning, VideoURL: "https://videos.test/run"})
	require.NoError(t, err)
	url, err := svc.GetVideoDownloadURL(ctx, linked.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://videos.test/run", url)

	bare, err := svc.CreateExercise(ctx, coachID, ExerciseInput{Name: "Walk"})
	require.NoError(t, err)
	_, err = svc.GetVideoDownloadURL(ctx, bare.ID)
	assert.ErrorIs(t, err, ErrExerciseNoVideo)
}
