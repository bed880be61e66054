package service

import (
	"context"
	"fmt"
	"time"

	"alcyxob/blockcoach/internal/domain"
	"alcyxob/blockcoach/internal/metrics"
	"alcyxob/blockcoach/internal/repository"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/multierr"
)

const rollbackTimeout = 30 * time.Second

// copyTarget is the program new nodes are written under.
type copyTarget struct {
	ref   domain.ProgramRef
	start *time.Time // block start date; nil leaves days undated
}

func (t copyTarget) dateFor(weekNumber, dayNumber int) *time.Time {
	if t.start == nil {
		return nil
	}
	d := domain.ScheduledDate(*t.start, weekNumber, dayNumber)
	return &d
}

// copyJournal records every id a copy has written so a failure can undo it.
type copyJournal struct {
	blocks    []primitive.ObjectID
	templates []primitive.ObjectID
	weeks     []primitive.ObjectID
	days      []primitive.ObjectID
	exercises []primitive.ObjectID
	sets      []primitive.ObjectID
}

func (j *copyJournal) size() int {
	return len(j.blocks) + len(j.templates) + len(j.weeks) + len(j.days) + len(j.exercises) + len(j.sets)
}

// track appends the non-nil ids; CreateMany assigns ids before writing, so
// documents from a partially applied batch are captured too.
func track(dst *[]primitive.ObjectID, ids ...primitive.ObjectID) {
	for _, id := range ids {
		if id != primitive.NilObjectID {
			*dst = append(*dst, id)
		}
	}
}

// treeCopier copies program subtrees level by level, parent before children.
// Copies carry the coach's prescription only: athlete logs, completion flags,
// videos and soft-deleted rows are never copied.
type treeCopier struct {
	blockRepo    repository.BlockRepository
	templateRepo repository.TemplateRepository
	tree         TreeRepos
	metrics      metrics.CopyRecorder
}

// run executes a copy and compensates for it if any step fails.
func (c *treeCopier) run(ctx context.Context, kind string, copyFn func(j *copyJournal) error) error {
	j := &copyJournal{}
	err := copyFn(j)
	c.metrics.CopyDone(kind, err)
	if err == nil {
		return nil
	}

	logger := log.WithFields(log.Fields{"copy": kind, "written": j.size()})
	logger.Warnf("copy failed, rolling back: %s", err)
	if rbErr := c.rollback(ctx, j); rbErr != nil {
		logger.Errorf("rollback incomplete: %s", rbErr)
		return multierr.Append(err, fmt.Errorf("rollback: %w", rbErr))
	}
	c.metrics.RolledBack()
	return err
}

// rollback hard-deletes everything in the journal, leaves first. It runs on
// a context detached from the request so a cancelled client cannot stop it.
func (c *treeCopier) rollback(ctx context.Context, j *copyJournal) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rollbackTimeout)
	defer cancel()

	var err error
	if len(j.sets) > 0 {
		err = multierr.Append(err, c.tree.Sets.HardDeleteMany(ctx, j.sets))
	}
	if len(j.exercises) > 0 {
		err = multierr.Append(err, c.tree.Exercises.HardDeleteMany(ctx, j.exercises))
	}
	if len(j.days) > 0 {
		err = multierr.Append(err, c.tree.Days.HardDeleteMany(ctx, j.days))
	}
	if len(j.weeks) > 0 {
		err = multierr.Append(err, c.tree.Weeks.HardDeleteMany(ctx, j.weeks))
	}
	for _, id := range j.blocks {
		err = multierr.Append(err, c.blockRepo.HardDelete(ctx, id))
	}
	for _, id := range j.templates {
		err = multierr.Append(err, c.templateRepo.HardDelete(ctx, id))
	}
	return err
}

// copyProgram copies every live week of src under dst, keeping week numbers.
func (c *treeCopier) copyProgram(ctx context.Context, j *copyJournal, srcProgramID primitive.ObjectID, dst copyTarget) error {
	weeks, err := c.tree.Weeks.ListByProgram(ctx, srcProgramID)
	if err != nil {
		return fmt.Errorf("list weeks: %w", err)
	}
	_, err = c.copyWeeks(ctx, j, weeks, dst, func(w domain.Week) int { return w.WeekNumber })
	return err
}

// copyWeeks writes copies of src under dst, numbering them with number, and
// then copies their days.
func (c *treeCopier) copyWeeks(ctx context.Context, j *copyJournal, src []domain.Week, dst copyTarget, number func(domain.Week) int) ([]*domain.Week, error) {
	if len(src) == 0 {
		return nil, nil
	}
	copies := make([]*domain.Week, len(src))
	byOld := make(map[primitive.ObjectID]*domain.Week, len(src))
	oldIDs := make([]primitive.ObjectID, len(src))
	for i, w := range src {
		copies[i] = &domain.Week{
			ProgramID:   dst.ref.ID,
			ProgramKind: dst.ref.Kind,
			WeekNumber:  number(w),
			Name:        w.Name,
			Notes:       w.Notes,
		}
		byOld[w.ID] = copies[i]
		oldIDs[i] = w.ID
	}
	err := c.tree.Weeks.CreateMany(ctx, copies)
	for _, w := range copies {
		track(&j.weeks, w.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("copy weeks: %w", err)
	}

	days, err := c.tree.Days.ListByWeeks(ctx, oldIDs)
	if err != nil {
		return nil, fmt.Errorf("list days: %w", err)
	}
	err = c.copyDays(ctx, j, days, dst, func(d domain.Day) (primitive.ObjectID, int, int) {
		parent := byOld[d.WeekID]
		return parent.ID, parent.WeekNumber, d.DayNumber
	})
	if err != nil {
		return nil, err
	}
	return copies, nil
}

// dayPlacement returns the new week id, that week's number, and the new day number.
type dayPlacement func(domain.Day) (weekID primitive.ObjectID, weekNumber, dayNumber int)

func (c *treeCopier) copyDays(ctx context.Context, j *copyJournal, src []domain.Day, dst copyTarget, place dayPlacement) error {
	if len(src) == 0 {
		return nil
	}
	copies := make([]*domain.Day, len(src))
	byOld := make(map[primitive.ObjectID]primitive.ObjectID, len(src))
	for i, d := range src {
		weekID, weekNumber, dayNumber := place(d)
		copies[i] = &domain.Day{
			ProgramID:   dst.ref.ID,
			ProgramKind: dst.ref.Kind,
			WeekID:      weekID,
			DayNumber:   dayNumber,
			Name:        d.Name,
			Notes:       d.Notes,
			Date:        dst.dateFor(weekNumber, dayNumber),
		}
	}
	err := c.tree.Days.CreateMany(ctx, copies)
	for i, d := range copies {
		track(&j.days, d.ID)
		byOld[src[i].ID] = d.ID
	}
	if err != nil {
		return fmt.Errorf("copy days: %w", err)
	}
	return c.copyExercises(ctx, j, byOld, dst)
}

// copyExercises copies the exercises of every day in dayMap (old id -> new id).
func (c *treeCopier) copyExercises(ctx context.Context, j *copyJournal, dayMap map[primitive.ObjectID]primitive.ObjectID, dst copyTarget) error {
	exercises, err := c.tree.Exercises.ListByDays(ctx, keysOf(dayMap))
	if err != nil {
		return fmt.Errorf("list exercises: %w", err)
	}
	if len(exercises) == 0 {
		return nil
	}
	copies := make([]*domain.Exercise, len(exercises))
	for i, e := range exercises {
		copies[i] = &domain.Exercise{
			ProgramID:   dst.ref.ID,
			ProgramKind: dst.ref.Kind,
			DayID:       dayMap[e.DayID],
			Order:       e.Order,
			Name:        e.Name,
			MovementID:  e.MovementID,
			Notes:       e.Notes,
		}
	}
	err = c.tree.Exercises.CreateMany(ctx, copies)
	byOld := make(map[primitive.ObjectID]primitive.ObjectID, len(copies))
	for i, e := range copies {
		track(&j.exercises, e.ID)
		byOld[exercises[i].ID] = e.ID
	}
	if err != nil {
		return fmt.Errorf("copy exercises: %w", err)
	}
	return c.copySets(ctx, j, byOld, dst)
}

func (c *treeCopier) copySets(ctx context.Context, j *copyJournal, exerciseMap map[primitive.ObjectID]primitive.ObjectID, dst copyTarget) error {
	sets, err := c.tree.Sets.ListByExercises(ctx, keysOf(exerciseMap))
	if err != nil {
		return fmt.Errorf("list sets: %w", err)
	}
	if len(sets) == 0 {
		return nil
	}
	copies := make([]*domain.Set, len(sets))
	for i, s := range sets {
		copies[i] = &domain.Set{
			ProgramID:   dst.ref.ID,
			ProgramKind: dst.ref.Kind,
			ExerciseID:  exerciseMap[s.ExerciseID],
			Order:       s.Order,
			Reps:        s.Reps,
			Weight:      s.Weight,
			RPE:         s.RPE,
			Percent:     s.Percent,
			Notes:       s.Notes,
		}
	}
	err = c.tree.Sets.CreateMany(ctx, copies)
	for _, s := range copies {
		track(&j.sets, s.ID)
	}
	if err != nil {
		return fmt.Errorf("copy sets: %w", err)
	}
	return nil
}
