package service

import (
	"context"
	"errors"
	"testing"

	"alcyxob/blockcoach/internal/domain"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countSets(tree *ProgramTree) (n int) {
	for _, w := range tree.Weeks {
		for _, d := range w.Days {
			for _, e := range d.Exercises {
				n += len(e.Sets)
			}
		}
	}
	return n
}

func TestDuplicateBlock_StripsLogsAndSkipsDeleted(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	coach, athlete := f.pair(t)
	block := f.newBlock(t, coach, athlete, &blockStart, shape{weeks: 2, days: 2, exercises: 2, sets: 2})

	src, err := f.programs.GetTree(ctx, coach, blockRef(block.ID))
	require.NoError(t, err)
	logged := firstSet(t, src)
	_, err = f.logs.LogSet(ctx, athlete, logged.ID, SetLog{ActualReps: ptr(5), ActualWeight: ptr(140.0)})
	require.NoError(t, err)
	_, err = f.logs.CompleteDay(ctx, athlete, src.Weeks[0].Days[0].ID, true)
	require.NoError(t, err)
	require.NoError(t, f.tree.DeleteExercise(ctx, coach, src.Weeks[1].Days[1].Exercises[0].ID))

	dup, err := f.programs.DuplicateBlock(ctx, coach, block.ID, CopyOptions{})
	require.NoError(t, err)
	assert.NotEqual(t, block.ID, dup.ID)
	assert.Equal(t, block.Name+" (copy)", dup.Name)
	assert.Equal(t, athlete.ID, dup.AthleteID)
	require.NotNil(t, dup.StartDate)
	assert.True(t, dup.StartDate.Equal(blockStart))

	copied, err := f.programs.GetTree(ctx, coach, blockRef(dup.ID))
	require.NoError(t, err)
	require.Len(t, copied.Weeks, 2)
	assert.Len(t, copied.Weeks[1].Days[1].Exercises, 1)
	assert.Equal(t, 2*2*2*2-2, countSets(copied))

	for wi, w := range copied.Weeks {
		assert.Equal(t, dup.ID, w.ProgramID)
		for di, d := range w.Days {
			assert.False(t, d.Completed)
			require.NotNil(t, d.Date)
			assert.True(t, d.Date.Equal(domain.ScheduledDate(blockStart, wi+1, di+1)))
			for _, e := range d.Exercises {
				assert.Equal(t, d.ID, e.DayID)
				for _, s := range e.Sets {
					assert.Equal(t, e.ID, s.ExerciseID)
					assert.False(t, s.Completed)
					assert.Nil(t, s.ActualReps)
					assert.Nil(t, s.ActualWeight)
					assert.Nil(t, s.LoggedAt)
					assert.Nil(t, s.VideoUploadID)
					require.NotNil(t, s.Reps)
				}
			}
		}
	}

	// the source keeps its log
	src, err = f.programs.GetTree(ctx, coach, blockRef(block.ID))
	require.NoError(t, err)
	assert.True(t, firstSet(t, src).Completed)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.CounterProgramCopies.WithLabelValues("block", "ok")))
}

func TestDuplicateBlock_NewAthleteAndStart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	coach, athlete := f.pair(t)
	other := f.addUser(t, domain.RoleAthlete, "")
	block := f.newBlock(t, coach, athlete, &blockStart, shape{weeks: 2, days: 3, exercises: 1, sets: 1})

	newStart := blockStart.AddDate(0, 1, 0)
	_, err := f.programs.DuplicateBlock(ctx, coach, block.ID, CopyOptions{AthleteID: &other.ID, StartDate: &newStart})
	assert.ErrorIs(t, err, ErrNotConnected)

	f.connect(t, coach, other)
	dup, err := f.programs.DuplicateBlock(ctx, coach, block.ID, CopyOptions{AthleteID: &other.ID, Name: "Cycle 2", StartDate: &newStart})
	require.NoError(t, err)
	assert.Equal(t, "Cycle 2", dup.Name)
	assert.Equal(t, other.ID, dup.AthleteID)
	require.NotNil(t, dup.EndDate)
	assert.True(t, dup.EndDate.Equal(domain.ScheduledDate(newStart, 2, 7)))

	copied, err := f.programs.GetTree(ctx, other, blockRef(dup.ID))
	require.NoError(t, err)
	for wi, w := range copied.Weeks {
		for di, d := range w.Days {
			require.NotNil(t, d.Date)
			assert.True(t, d.Date.Equal(domain.ScheduledDate(newStart, wi+1, di+1)))
		}
	}
}

func TestAssignTemplate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	coach, athlete := f.pair(t)
	template := f.newTemplate(t, coach, shape{weeks: 2, days: 3, exercises: 2, sets: 3})

	_, err := f.programs.AssignTemplate(ctx, coach, template.ID, CopyOptions{})
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = f.programs.AssignTemplate(ctx, athlete, template.ID, CopyOptions{AthleteID: &athlete.ID})
	assert.ErrorIs(t, err, ErrProgramAccessDenied)

	block, err := f.programs.AssignTemplate(ctx, coach, template.ID, CopyOptions{AthleteID: &athlete.ID, StartDate: &blockStart})
	require.NoError(t, err)
	assert.Equal(t, template.Name, block.Name)
	require.NotNil(t, block.TemplateID)
	assert.Equal(t, template.ID, *block.TemplateID)

	tree, err := f.programs.GetTree(ctx, athlete, blockRef(block.ID))
	require.NoError(t, err)
	assert.Equal(t, 2*3*2*3, countSets(tree))
	last := tree.Weeks[1].Days[2]
	require.NotNil(t, last.Date)
	assert.True(t, last.Date.Equal(blockStart.AddDate(0, 0, 9)))
	assert.Equal(t, domain.KindBlock, last.ProgramKind)

	undated, err := f.programs.AssignTemplate(ctx, coach, template.ID, CopyOptions{AthleteID: &athlete.ID})
	require.NoError(t, err)
	tree, err = f.programs.GetTree(ctx, coach, blockRef(undated.ID))
	require.NoError(t, err)
	assert.Nil(t, tree.Weeks[0].Days[0].Date)
}

func TestSaveBlockAsTemplateAndDuplicateTemplate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	coach, athlete := f.pair(t)
	block := f.newBlock(t, coach, athlete, &blockStart, shape{weeks: 1, days: 2, exercises: 2, sets: 2})

	template, err := f.programs.SaveBlockAsTemplate(ctx, coach, block.ID, "Peaking")
	require.NoError(t, err)
	assert.Equal(t, "Peaking", template.Name)

	_, err = f.programs.GetTree(ctx, athlete, templateRef(template.ID))
	assert.ErrorIs(t, err, ErrProgramAccessDenied)

	tree, err := f.programs.GetTree(ctx, coach, templateRef(template.ID))
	require.NoError(t, err)
	assert.Equal(t, 8, countSets(tree))
	for _, d := range tree.Weeks[0].Days {
		assert.Nil(t, d.Date)
		assert.Equal(t, domain.KindTemplate, d.ProgramKind)
	}

	dup, err := f.programs.DuplicateTemplate(ctx, coach, template.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "Peaking (copy)", dup.Name)

	templates, err := f.programs.ListTemplates(ctx, coach)
	require.NoError(t, err)
	assert.Len(t, templates, 2)
}

func TestCopyFailure_RollsBackEverything(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	coach, athlete := f.pair(t)
	block := f.newBlock(t, coach, athlete, &blockStart, shape{weeks: 2, days: 2, exercises: 2, sets: 2})
	before := f.store.Counts()

	for _, collection := range []string{"blocks", "weeks", "days", "exercises", "sets"} {
		failing := collection
		f.store.FailOn = func(c string) error {
			if c == failing {
				return errors.New("write refused")
			}
			return nil
		}
		_, err := f.programs.DuplicateBlock(ctx, coach, block.ID, CopyOptions{})
		require.Error(t, err, failing)
		assert.Equal(t, before, f.store.Counts(), failing)
	}

	f.store.FailOn = func(c string) error {
		if c == "sets" {
			return errors.New("write refused")
		}
		return nil
	}
	_, err := f.programs.SaveBlockAsTemplate(ctx, coach, block.ID, "")
	require.Error(t, err)
	assert.Equal(t, before, f.store.Counts())

	assert.Equal(t, 5.0, testutil.ToFloat64(f.metrics.CounterProgramCopies.WithLabelValues("block", "failed")))
	assert.Equal(t, 6.0, testutil.ToFloat64(f.metrics.CounterCopyRollbacks))

	f.store.FailOn = nil
	blocks, err := f.programs.ListBlocks(ctx, athlete, nil)
	require.NoError(t, err)
	assert.Len(t, blocks, 1)
}

func TestDuplicateWeek(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	coach, athlete := f.pair(t)
	block := f.newBlock(t, coach, athlete, &blockStart, shape{weeks: 2, days: 2, exercises: 1, sets: 2})
	tree, err := f.programs.GetTree(ctx, coach, blockRef(block.ID))
	require.NoError(t, err)

	week, err := f.tree.DuplicateWeek(ctx, coach, tree.Weeks[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 3, week.WeekNumber)

	tree, err = f.programs.GetTree(ctx, coach, blockRef(block.ID))
	require.NoError(t, err)
	require.Len(t, tree.Weeks, 3)
	third := tree.Weeks[2]
	assert.Equal(t, week.ID, third.ID)
	require.Len(t, third.Days, 2)
	for di, d := range third.Days {
		require.NotNil(t, d.Date)
		assert.True(t, d.Date.Equal(domain.ScheduledDate(blockStart, 3, di+1)))
		require.Len(t, d.Exercises, 1)
		assert.Len(t, d.Exercises[0].Sets, 2)
	}
}

func TestDuplicateDay(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	coach, athlete := f.pair(t)
	block := f.newBlock(t, coach, athlete, &blockStart, shape{weeks: 2, days: 2, exercises: 2, sets: 1})
	other := f.newBlock(t, coach, athlete, nil, shape{weeks: 1})
	tree, err := f.programs.GetTree(ctx, coach, blockRef(block.ID))
	require.NoError(t, err)
	source := tree.Weeks[0].Days[0]

	sameWeek, err := f.tree.DuplicateDay(ctx, coach, source.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, source.WeekID, sameWeek.WeekID)
	assert.Equal(t, 3, sameWeek.DayNumber)

	target := tree.Weeks[1].ID
	moved, err := f.tree.DuplicateDay(ctx, coach, source.ID, &target)
	require.NoError(t, err)
	assert.Equal(t, target, moved.WeekID)
	assert.Equal(t, 3, moved.DayNumber)
	require.NotNil(t, moved.Date)
	assert.True(t, moved.Date.Equal(domain.ScheduledDate(blockStart, 2, 3)))

	exercises, err := f.deps.Tree.Exercises.ListByDay(ctx, moved.ID)
	require.NoError(t, err)
	assert.Len(t, exercises, 2)

	otherTree, err := f.programs.GetTree(ctx, coach, blockRef(other.ID))
	require.NoError(t, err)
	foreign := otherTree.Weeks[0].ID
	_, err = f.tree.DuplicateDay(ctx, coach, source.ID, &foreign)
	assert.ErrorIs(t, err, ErrCrossProgramMove)
}
