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

func performedSets(sets ...map[string]interface{}) map[string]interface{} {
	details := make([]interface{}, len(sets))
	for i, set := range sets {
		details[i] = set
	}
	return map[string]interface{}{"setDetails": details}
}

func executionAt(day int) *time.Time {
	at := time.Date(2026, 3, day, 18, 0, 0, 0, time.UTC)
	return &at
}

func TestCreateExecutionSnapshotsAllActiveSlots(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	athlete := f.athlete()
	_, session := f.planTree(athlete.ID)
	bench := f.exercise("Bench Press")
	squat := f.exercise("Squat")

	benchSlot, err := f.prescriptions.AddSlot(ctx, session.ID, SlotInput{
		ExerciseID: bench.ID,
		Params:     map[string]interface{}{"sets": 3, "reps": "10"},
	})
	require.NoError(t, err)
	squatSlot, err := f.prescriptions.AddSlot(ctx, session.ID, SlotInput{ExerciseID: squat.ID})
	require.NoError(t, err)
	skipped, err := f.prescriptions.AddSlot(ctx, session.ID, SlotInput{ExerciseID: squat.ID})
	require.NoError(t, err)
	require.NoError(t, f.prescriptions.ArchiveSlot(ctx, skipped.ID))

	report, err := f.executionSvc.CreateExecution(ctx, CreateExecutionInput{
		AthleteID: athlete.ID,
		SessionID: session.ID,
		Status:    domain.StatusCompleted,
		Exercises: []PerformedInput{{
			SlotID:    benchSlot.ID,
			Performed: performedSets(map[string]interface{}{"reps": "10", "load": "60kg"}),
		}},
	})
	require.NoError(t, err)

	// One record per active slot, reported on or not; archived slots get none.
	require.Len(t, report.Items, 2)
	assert.Equal(t, benchSlot.ID, report.Items[0].Snapshot.SlotID)
	assert.Equal(t, "Bench Press", report.Items[0].Snapshot.ExerciseName)
	assert.NotNil(t, report.Items[0].Performed)
	assert.Equal(t, squatSlot.ID, report.Items[1].Snapshot.SlotID)
	assert.Nil(t, report.Items[1].Performed, "unreported slot still gets a snapshot")
	assert.Equal(t, "Day A", report.SessionName)
	assert.Equal(t, "Phase 1", report.PlanName)
}

func TestSnapshotSurvivesLaterReplace(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	athlete := f.athlete()
	_, session := f.planTree(athlete.ID)
	exercise := f.exercise("Press")

	slot, err := f.prescriptions.AddSlot(ctx, session.ID, SlotInput{
		ExerciseID: exercise.ID,
		Params:     map[string]interface{}{"sets": 3, "load": "40kg"},
	})
	require.NoError(t, err)

	report, err := f.executionSvc.CreateExecution(ctx, CreateExecutionInput{
		AthleteID: athlete.ID,
		SessionID: session.ID,
		Status:    domain.StatusCompleted,
	})
	require.NoError(t, err)

	_, err = f.prescriptions.ReplaceSlot(ctx, slot.ID, domain.SlotUpdate{
		Params: map[string]interface{}{"sets": 5, "load": "50kg"},
	})
	require.NoError(t, err)

	reread, err := f.executionSvc.GetExecution(ctx, report.Execution.ID)
	require.NoError(t, err)
	require.Len(t, reread.Items, 1)
	assert.False(t, reread.Degraded)
	assert.Equal(t, "40kg", reread.Items[0].Snapshot.PrescribedParams["load"],
		"replacing the slot must not rewrite the persisted snapshot")
}

func TestCreateExecutionRejectsForeignSlotIDs(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	athlete := f.athlete()
	_, session := f.planTree(athlete.ID)
	exercise := f.exercise("Curl")

	_, err := f.prescriptions.AddSlot(ctx, session.ID, SlotInput{ExerciseID: exercise.ID})
	require.NoError(t, err)
	foreign := primitive.NewObjectID()

	_, err = f.executionSvc.CreateExecution(ctx, CreateExecutionInput{
		AthleteID: athlete.ID,
		SessionID: session.ID,
		Status:    domain.StatusCompleted,
		Exercises: []PerformedInput{{SlotID: foreign}},
	})
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.InvalidSlotIDs, foreign.Hex())
	assert.ErrorIs(t, err, ErrValidationFailed)

	// Nothing was persisted.
	history, err := f.executionSvc.ListExecutions(ctx, athlete.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestCreateExecutionRejectsArchivedSlotReport(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	athlete := f.athlete()
	_, session := f.planTree(athlete.ID)
	exercise := f.exercise("Row")

	slot, err := f.prescriptions.AddSlot(ctx, session.ID, SlotInput{ExerciseID: exercise.ID})
	require.NoError(t, err)
	require.NoError(t, f.prescriptions.ArchiveSlot(ctx, slot.ID))

	_, err = f.executionSvc.CreateExecution(ctx, CreateExecutionInput{
		AthleteID: athlete.ID,
		SessionID: session.ID,
		Status:    domain.StatusPartial,
		Exercises: []PerformedInput{{SlotID: slot.ID}},
	})
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.InvalidSlotIDs, slot.ID.Hex())
}

func TestCreateExecutionRejectsUnknownStatus(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	athlete := f.athlete()
	_, session := f.planTree(athlete.ID)

	_, err := f.executionSvc.CreateExecution(ctx, CreateExecutionInput{
		AthleteID: athlete.ID,
		SessionID: session.ID,
		Status:    "almost",
	})
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestLegacyExecutionRendersDegradedView(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	athlete := f.athlete()
	_, session := f.planTree(athlete.ID)
	exercise := f.exercise("Pull Up")

	slot, err := f.prescriptions.AddSlot(ctx, session.ID, SlotInput{ExerciseID: exercise.ID})
	require.NoError(t, err)

	// An execution from before per-slot records existed.
	legacy := domain.Execution{
		AthleteID:  athlete.ID,
		SessionID:  session.ID,
		ExecutedAt: *executionAt(1),
		Status:     domain.StatusCompleted,
	}
	legacyID, err := f.executions.Create(ctx, &legacy)
	require.NoError(t, err)

	report, err := f.executionSvc.GetExecution(ctx, legacyID)
	require.NoError(t, err)
	assert.True(t, report.Degraded)
	require.Len(t, report.Items, 1)
	assert.Equal(t, slot.ID, report.Items[0].Snapshot.SlotID)
	assert.Nil(t, report.Items[0].Performed)
}

func TestListExecutionsNewestFirst(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	athlete := f.athlete()
	_, session := f.planTree(athlete.ID)

	for day := 1; day <= 3; day++ {
		_, err := f.executionSvc.CreateExecution(ctx, CreateExecutionInput{
			AthleteID:  athlete.ID,
			SessionID:  session.ID,
			ExecutedAt: executionAt(day),
			Status:     domain.StatusCompleted,
		})
		require.NoError(t, err)
	}

	history, err := f.executionSvc.ListExecutions(ctx, athlete.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, 3, history[0].Execution.ExecutedAt.Day())
	assert.Equal(t, 1, history[2].Execution.ExecutedAt.Day())
}

func TestComputeEvolutionTrend(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	athlete := f.athlete()
	_, session := f.planTree(athlete.ID)
	exercise := f.exercise("Bench Press")

	slot, err := f.prescriptions.AddSlot(ctx, session.ID, SlotInput{ExerciseID: exercise.ID})
	require.NoError(t, err)

	for day, load := range map[int]string{1: "20kg", 2: "25kg", 3: "25kg"} {
		_, err := f.executionSvc.CreateExecution(ctx, CreateExecutionInput{
			AthleteID:  athlete.ID,
			SessionID:  session.ID,
			ExecutedAt: executionAt(day),
			Status:     domain.StatusCompleted,
			Exercises: []PerformedInput{{
				SlotID:    slot.ID,
				Performed: performedSets(map[string]interface{}{"reps": "10", "load": load}),
			}},
		})
		require.NoError(t, err)
	}

	items, err := f.executionSvc.ComputeEvolution(ctx, athlete.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)

	item := items[0]
	assert.Equal(t, exercise.ID, item.ExerciseID)
	assert.Equal(t, "Bench Press", item.Name)
	assert.Equal(t, 3, item.TotalExecutions)
	require.NotNil(t, item.LastLoadValue)
	assert.Equal(t, 25.0, *item.LastLoadValue)
	require.NotNil(t, item.PrevLoadValue)
	assert.Equal(t, 25.0, *item.PrevLoadValue)
	require.NotNil(t, item.DeltaLoadValue)
	assert.Equal(t, 0.0, *item.DeltaLoadValue)
	require.NotNil(t, item.BestLoadValue)
	assert.Equal(t, 25.0, *item.BestLoadValue)
	require.NotNil(t, item.LastExecutedAt)
	assert.Equal(t, 3, item.LastExecutedAt.Day())
}

func TestComputeEvolutionDropsExercisesWithoutNumbers(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	athlete := f.athlete()
	_, session := f.planTree(athlete.ID)
	exercise := f.exercise("Stretching")

	slot, err := f.prescriptions.AddSlot(ctx, session.ID, SlotInput{ExerciseID: exercise.ID})
	require.NoError(t, err)

	_, err = f.executionSvc.CreateExecution(ctx, CreateExecutionInput{
		AthleteID: athlete.ID,
		SessionID: session.ID,
		Status:    domain.StatusCompleted,
		Exercises: []PerformedInput{{
			SlotID:    slot.ID,
			Performed: performedSets(map[string]interface{}{"load": "bodyweight", "reps": "a few"}),
		}},
	})
	require.NoError(t, err)

	items, err := f.executionSvc.ComputeEvolution(ctx, athlete.ID)
	require.NoError(t, err)
	assert.Empty(t, items, "exercises with zero numeric history are dropped")
}

func TestComputeEvolutionMergesDuplicatePrescriptions(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	athlete := f.athlete()
	_, session := f.planTree(athlete.ID)
	exercise := f.exercise("Squat")

	// Same exercise prescribed twice in one session.
	slotA, err := f.prescriptions.AddSlot(ctx, session.ID, SlotInput{ExerciseID: exercise.ID})
	require.NoError(t, err)
	slotB, err := f.prescriptions.AddSlot(ctx, session.ID, SlotInput{ExerciseID: exercise.ID})
	require.NoError(t, err)

	_, err = f.executionSvc.CreateExecution(ctx, CreateExecutionInput{
		AthleteID: athlete.ID,
		SessionID: session.ID,
		Status:    domain.StatusCompleted,
		Exercises: []PerformedInput{
			{SlotID: slotA.ID, Performed: performedSets(map[string]interface{}{"load": "80kg"})},
			{SlotID: slotB.ID, Performed: performedSets(map[string]interface{}{"load": "100kg"})},
		},
	})
	require.NoError(t, err)

	items, err := f.executionSvc.ComputeEvolution(ctx, athlete.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].TotalExecutions, "one merged point per execution")
	require.NotNil(t, items[0].LastLoadValue)
	assert.Equal(t, 100.0, *items[0].LastLoadValue)
}

func TestComputeEvolutionSortsByRecency(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	athlete := f.athlete()
	plan, rowDay := f.planTree(athlete.ID)
	pressDay := domain.TrainingSession{PlanID: plan.ID, Name: "Day B", Sequence: 2}
	_, err := f.sessions.Create(ctx, &pressDay)
	require.NoError(t, err)
	older := f.exercise("Row")
	newer := f.exercise("Press")

	// One exercise per session: every snapshot record counts as a point, so
	// sharing a session would give both exercises the same last-executed date.
	olderSlot, err := f.prescriptions.AddSlot(ctx, rowDay.ID, SlotInput{ExerciseID: older.ID})
	require.NoError(t, err)
	newerSlot, err := f.prescriptions.AddSlot(ctx, pressDay.ID, SlotInput{ExerciseID: newer.ID})
	require.NoError(t, err)

	_, err = f.executionSvc.CreateExecution(ctx, CreateExecutionInput{
		AthleteID:  athlete.ID,
		SessionID:  rowDay.ID,
		ExecutedAt: executionAt(1),
		Status:     domain.StatusCompleted,
		Exercises:  []PerformedInput{{SlotID: olderSlot.ID, Performed: performedSets(map[string]interface{}{"load": "50kg"})}},
	})
	require.NoError(t, err)
	_, err = f.executionSvc.CreateExecution(ctx, CreateExecutionInput{
		AthleteID:  athlete.ID,
		SessionID:  pressDay.ID,
		ExecutedAt: executionAt(5),
		Status:     domain.StatusCompleted,
		Exercises:  []PerformedInput{{SlotID: newerSlot.ID, Performed: performedSets(map[string]interface{}{"load": "30kg"})}},
	})
	require.NoError(t, err)

	items, err := f.executionSvc.ComputeEvolution(ctx, athlete.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, newer.ID, items[0].ExerciseID, "most recently trained first")
	assert.Equal(t, older.ID, items[1].ExerciseID)
}

func TestLastPerformancesKeepsNewest(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	athlete := f.athlete()
	_, session := f.planTree(athlete.ID)
	exercise := f.exercise("Deadlift")

	slot, err := f.prescriptions.AddSlot(ctx, session.ID, SlotInput{ExerciseID: exercise.ID})
	require.NoError(t, err)

	for day, load := range map[int]string{1: "100kg", 4: "110kg"} {
		_, err := f.executionSvc.CreateExecution(ctx, CreateExecutionInput{
			AthleteID:  athlete.ID,
			SessionID:  session.ID,
			ExecutedAt: executionAt(day),
			Status:     domain.StatusCompleted,
			Exercises: []PerformedInput{{
				SlotID:    slot.ID,
				Performed: performedSets(map[string]interface{}{"load": load}),
			}},
		})
		require.NoError(t, err)
	}

	latest, err := f.executionSvc.LastPerformances(ctx, athlete.ID)
	require.NoError(t, err)
	require.Contains(t, latest, exercise.ID.Hex())
	got := latest[exercise.ID.Hex()]
	assert.Equal(t, 4, got.ExecutedAt.Day())

	details := got.Performed["setDetails"].([]interface{})
	set := details[0].(map[string]interface{})
	assert.Equal(t, "110kg", set["load"])
}
