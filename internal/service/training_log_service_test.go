package service

import (
	"context"
	"testing"
	"time"

	"alcyxob/blockcoach/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestTrainingLog_LogAndClearSet(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	coach, athlete := f.pair(t)
	other := f.addUser(t, domain.RoleAthlete, "")
	block := f.newBlock(t, coach, athlete, &blockStart, shape{weeks: 1, days: 1, exercises: 1, sets: 1})
	tree, err := f.programs.GetTree(ctx, athlete, blockRef(block.ID))
	require.NoError(t, err)
	set := firstSet(t, tree)

	_, err = f.logs.LogSet(ctx, coach, set.ID, SetLog{ActualReps: ptr(5)})
	assert.ErrorIs(t, err, ErrAthleteOnly)
	_, err = f.logs.LogSet(ctx, other, set.ID, SetLog{ActualReps: ptr(5)})
	assert.ErrorIs(t, err, ErrProgramAccessDenied)
	_, err = f.logs.LogSet(ctx, athlete, set.ID, SetLog{ActualRPE: ptr(11.0)})
	assert.ErrorIs(t, err, ErrValidationFailed)
	_, err = f.logs.LogSet(ctx, athlete, primitive.NewObjectID(), SetLog{})
	assert.ErrorIs(t, err, ErrSetNotFound)

	logged, err := f.logs.LogSet(ctx, athlete, set.ID, SetLog{ActualReps: ptr(5), ActualWeight: ptr(140.0), ActualRPE: ptr(8.0), Notes: "easy"})
	require.NoError(t, err)
	assert.True(t, logged.Completed)
	require.NotNil(t, logged.LoggedAt)
	assert.Equal(t, "easy", logged.AthleteNotes)

	video := primitive.NewObjectID()
	require.NoError(t, f.deps.Tree.Sets.SetVideo(ctx, logged.ID, &video))

	cleared, err := f.logs.ClearSetLog(ctx, athlete, set.ID)
	require.NoError(t, err)
	assert.False(t, cleared.Completed)
	assert.Nil(t, cleared.ActualReps)
	assert.Nil(t, cleared.LoggedAt)
	assert.Empty(t, cleared.AthleteNotes)
	require.NotNil(t, cleared.VideoUploadID)
	assert.Equal(t, video, *cleared.VideoUploadID)
}

func TestTrainingLog_CompleteDaySurvivesCoachEdit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	coach, athlete := f.pair(t)
	block := f.newBlock(t, coach, athlete, &blockStart, shape{weeks: 1, days: 1})
	tree, err := f.programs.GetTree(ctx, athlete, blockRef(block.ID))
	require.NoError(t, err)
	dayID := tree.Weeks[0].Days[0].ID

	// the coach loads the day, the athlete completes it, then the coach saves
	stale, err := f.deps.Tree.Days.GetByID(ctx, dayID)
	require.NoError(t, err)
	_, err = f.logs.CompleteDay(ctx, athlete, dayID, true)
	require.NoError(t, err)
	stale.Name = "Heavy day"
	require.NoError(t, f.deps.Tree.Days.UpdateDetails(ctx, stale))

	_, err = f.tree.UpdateDay(ctx, coach, dayID, DayInput{Name: "Heavy day", Notes: "belt on"})
	require.NoError(t, err)

	day, err := f.deps.Tree.Days.GetByID(ctx, dayID)
	require.NoError(t, err)
	assert.True(t, day.Completed)
	assert.NotNil(t, day.CompletedAt)
	assert.Equal(t, "belt on", day.Notes)
}

func TestTrainingLog_TemplatesCannotBeLogged(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	coach, athlete := f.pair(t)
	template := f.newTemplate(t, coach, shape{weeks: 1, days: 1, exercises: 1, sets: 1})
	tree, err := f.programs.GetTree(ctx, coach, templateRef(template.ID))
	require.NoError(t, err)

	_, err = f.logs.LogSet(ctx, athlete, firstSet(t, tree).ID, SetLog{ActualReps: ptr(1)})
	assert.ErrorIs(t, err, ErrNotABlock)
	_, err = f.logs.CompleteDay(ctx, athlete, tree.Weeks[0].Days[0].ID, true)
	assert.ErrorIs(t, err, ErrNotABlock)
}

func TestTrainingLog_CompleteDay(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	coach, athlete := f.pair(t)
	block := f.newBlock(t, coach, athlete, nil, shape{weeks: 1, days: 1})
	tree, err := f.programs.GetTree(ctx, athlete, blockRef(block.ID))
	require.NoError(t, err)
	dayID := tree.Weeks[0].Days[0].ID

	day, err := f.logs.CompleteDay(ctx, athlete, dayID, true)
	require.NoError(t, err)
	assert.True(t, day.Completed)
	assert.NotNil(t, day.CompletedAt)

	day, err = f.logs.CompleteDay(ctx, athlete, dayID, false)
	require.NoError(t, err)
	assert.False(t, day.Completed)
	assert.Nil(t, day.CompletedAt)
}

func TestTrainingLog_ExerciseHistory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	coach, athlete := f.pair(t)
	stranger := f.addUser(t, domain.RoleCoach, "")
	otherAthlete := f.addUser(t, domain.RoleAthlete, "")

	later := blockStart.AddDate(0, 0, 28)
	first := f.newBlock(t, coach, athlete, &blockStart, shape{weeks: 1, days: 1, exercises: 2, sets: 2})
	second := f.newBlock(t, coach, athlete, &later, shape{weeks: 1, days: 1, exercises: 1, sets: 1})
	dropped := f.newBlock(t, coach, athlete, &later, shape{weeks: 1, days: 1, exercises: 1, sets: 1})

	logFirstSet := func(block *domain.Block, weight float64) {
		tree, err := f.programs.GetTree(ctx, athlete, blockRef(block.ID))
		require.NoError(t, err)
		_, err = f.logs.LogSet(ctx, athlete, firstSet(t, tree).ID, SetLog{ActualReps: ptr(5), ActualWeight: ptr(weight)})
		require.NoError(t, err)
	}
	// log the later block first to check the ordering
	logFirstSet(second, 150)
	logFirstSet(first, 140)
	logFirstSet(dropped, 999)
	require.NoError(t, f.programs.DeleteProgram(ctx, coach, blockRef(dropped.ID)))

	history, err := f.logs.ExerciseHistory(ctx, athlete, athlete.ID, "  squat ")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, first.ID, history[0].BlockID)
	assert.Equal(t, first.Name, history[0].BlockName)
	assert.Equal(t, second.ID, history[1].BlockID)
	assert.InDelta(t, 140*(1+5.0/30), history[0].EstimatedOneRepMax, 1e-9)
	assert.Equal(t, "Squat", history[0].ExerciseName)

	fromCoach, err := f.logs.ExerciseHistory(ctx, coach, athlete.ID, "Squat")
	require.NoError(t, err)
	assert.Len(t, fromCoach, 2)

	bench, err := f.logs.ExerciseHistory(ctx, athlete, athlete.ID, "bench")
	require.NoError(t, err)
	assert.Empty(t, bench)

	_, err = f.logs.ExerciseHistory(ctx, stranger, athlete.ID, "squat")
	assert.ErrorIs(t, err, ErrNotConnected)
	_, err = f.logs.ExerciseHistory(ctx, otherAthlete, athlete.ID, "squat")
	assert.ErrorIs(t, err, ErrProgramAccessDenied)
	_, err = f.logs.ExerciseHistory(ctx, athlete, athlete.ID, "")
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestTrainingLog_ExerciseHistorySameDayFollowsLogOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	coach, athlete := f.pair(t)
	block := f.newBlock(t, coach, athlete, &blockStart, shape{weeks: 1, days: 1, exercises: 1, sets: 2})
	tree, err := f.programs.GetTree(ctx, athlete, blockRef(block.ID))
	require.NoError(t, err)
	sets := tree.Weeks[0].Days[0].Exercises[0].Sets
	require.Len(t, sets, 2)

	clock := time.Date(2026, time.March, 2, 18, 0, 0, 0, time.UTC)
	f.logs.(*trainingLogService).now = func() time.Time { return clock }
	_, err = f.logs.LogSet(ctx, athlete, sets[1].ID, SetLog{ActualReps: ptr(5), ActualWeight: ptr(100.0)})
	require.NoError(t, err)
	clock = clock.Add(3 * time.Minute)
	_, err = f.logs.LogSet(ctx, athlete, sets[0].ID, SetLog{ActualReps: ptr(5), ActualWeight: ptr(110.0)})
	require.NoError(t, err)

	history, err := f.logs.ExerciseHistory(ctx, athlete, athlete.ID, "squat")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, sets[1].ID, history[0].SetID)
	assert.Equal(t, sets[0].ID, history[1].SetID)
}

func TestHistoryBefore(t *testing.T) {
	day := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)
	nextDay := day.AddDate(0, 0, 1)
	early := day.Add(17 * time.Hour)
	late := day.Add(19 * time.Hour)

	tests := []struct {
		name string
		a, b HistoryEntry
		want bool
	}{
		{"earlier date first", HistoryEntry{Date: &day, LoggedAt: &late}, HistoryEntry{Date: &nextDay, LoggedAt: &early}, true},
		{"same date, earlier log first", HistoryEntry{Date: &day, LoggedAt: &early}, HistoryEntry{Date: &day, LoggedAt: &late}, true},
		{"same date, later log second", HistoryEntry{Date: &day, LoggedAt: &late}, HistoryEntry{Date: &day, LoggedAt: &early}, false},
		{"unlogged goes last", HistoryEntry{Date: &day}, HistoryEntry{Date: &day, LoggedAt: &late}, false},
		{"undated uses log time", HistoryEntry{LoggedAt: &early}, HistoryEntry{Date: &nextDay}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, historyBefore(tt.a, tt.b))
		})
	}
}
