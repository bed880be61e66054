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
)

// ProgramDeps wires the repositories shared by the program and tree services.
type ProgramDeps struct {
	Blocks      repository.BlockRepository
	Templates   repository.TemplateRepository
	Tree        TreeRepos
	Movements   repository.MovementRepository
	Connections ConnectionService
	Metrics     metrics.CopyRecorder // nil disables copy metrics
}

// treeKeeper owns the structural maintenance of a program tree: cascading
// soft deletes, keeping ordinals dense, and keeping block day dates in step
// with week and day numbers.
type treeKeeper struct {
	blockRepo    repository.BlockRepository
	templateRepo repository.TemplateRepository
	tree         TreeRepos
	now          func() time.Time
}

// deleteProgram hides the root first, so a failure part way leaves only
// unreachable children behind, never a visible half-deleted tree.
func (k *treeKeeper) deleteProgram(ctx context.Context, ref domain.ProgramRef) error {
	at := k.now().UTC()
	var err error
	switch ref.Kind {
	case domain.KindBlock:
		err = k.blockRepo.SoftDelete(ctx, ref.ID, at)
	case domain.KindTemplate:
		err = k.templateRepo.SoftDelete(ctx, ref.ID, at)
	}
	if err != nil {
		return fmt.Errorf("delete %s: %w", ref.Kind, err)
	}
	steps := []struct {
		name string
		fn   func(context.Context, primitive.ObjectID, time.Time) error
	}{
		{"weeks", k.tree.Weeks.SoftDeleteByProgram},
		{"days", k.tree.Days.SoftDeleteByProgram},
		{"exercises", k.tree.Exercises.SoftDeleteByProgram},
		{"sets", k.tree.Sets.SoftDeleteByProgram},
	}
	for _, step := range steps {
		if err := step.fn(ctx, ref.ID, at); err != nil {
			return fmt.Errorf("delete %s of %s %s: %w", step.name, ref.Kind, ref.ID.Hex(), err)
		}
	}
	log.WithFields(log.Fields{"kind": ref.Kind, "program": ref.ID.Hex()}).Infoln("program deleted")
	return nil
}

func (k *treeKeeper) deleteWeeks(ctx context.Context, weekIDs []primitive.ObjectID, at time.Time) error {
	if err := k.tree.Weeks.SoftDeleteMany(ctx, weekIDs, at); err != nil {
		return fmt.Errorf("delete weeks: %w", err)
	}
	days, err := k.tree.Days.ListByWeeks(ctx, weekIDs)
	if err != nil {
		return err
	}
	return k.deleteDays(ctx, dayIDs(days), at)
}

func (k *treeKeeper) deleteDays(ctx context.Context, ids []primitive.ObjectID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	if err := k.tree.Days.SoftDeleteMany(ctx, ids, at); err != nil {
		return fmt.Errorf("delete days: %w", err)
	}
	exercises, err := k.tree.Exercises.ListByDays(ctx, ids)
	if err != nil {
		return err
	}
	return k.deleteExercises(ctx, exerciseIDs(exercises), at)
}

func (k *treeKeeper) deleteExercises(ctx context.Context, ids []primitive.ObjectID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	if err := k.tree.Exercises.SoftDeleteMany(ctx, ids, at); err != nil {
		return fmt.Errorf("delete exercises: %w", err)
	}
	sets, err := k.tree.Sets.ListByExercises(ctx, ids)
	if err != nil {
		return err
	}
	if len(sets) == 0 {
		return nil
	}
	ids = make([]primitive.ObjectID, len(sets))
	for i := range sets {
		ids[i] = sets[i].ID
	}
	if err := k.tree.Sets.SoftDeleteMany(ctx, ids, at); err != nil {
		return fmt.Errorf("delete sets: %w", err)
	}
	return nil
}

// renumberWeeks rewrites week numbers to 1..n in their current order.
func (k *treeKeeper) renumberWeeks(ctx context.Context, programID primitive.ObjectID) error {
	weeks, err := k.tree.Weeks.ListByProgram(ctx, programID)
	if err != nil {
		return err
	}
	for i := range weeks {
		if weeks[i].WeekNumber == i+1 {
			continue
		}
		weeks[i].WeekNumber = i + 1
		if err := k.tree.Weeks.Update(ctx, &weeks[i]); err != nil {
			return fmt.Errorf("renumber week %s: %w", weeks[i].ID.Hex(), err)
		}
	}
	return nil
}

func (k *treeKeeper) renumberDays(ctx context.Context, weekID primitive.ObjectID) error {
	days, err := k.tree.Days.ListByWeek(ctx, weekID)
	if err != nil {
		return err
	}
	for i := range days {
		if days[i].DayNumber == i+1 {
			continue
		}
		if err := k.tree.Days.SetDayNumber(ctx, days[i].ID, i+1); err != nil {
			return fmt.Errorf("renumber day %s: %w", days[i].ID.Hex(), err)
		}
	}
	return nil
}

func (k *treeKeeper) renumberExercises(ctx context.Context, dayID primitive.ObjectID) error {
	exercises, err := k.tree.Exercises.ListByDay(ctx, dayID)
	if err != nil {
		return err
	}
	for i := range exercises {
		if exercises[i].Order == i+1 {
			continue
		}
		exercises[i].Order = i + 1
		if err := k.tree.Exercises.Update(ctx, &exercises[i]); err != nil {
			return fmt.Errorf("renumber exercise %s: %w", exercises[i].ID.Hex(), err)
		}
	}
	return nil
}

func (k *treeKeeper) renumberSets(ctx context.Context, exerciseID primitive.ObjectID) error {
	sets, err := k.tree.Sets.ListByExercise(ctx, exerciseID)
	if err != nil {
		return err
	}
	for i := range sets {
		if sets[i].Order == i+1 {
			continue
		}
		if err := k.tree.Sets.SetOrder(ctx, sets[i].ID, i+1); err != nil {
			return fmt.Errorf("renumber set %s: %w", sets[i].ID.Hex(), err)
		}
	}
	return nil
}

// reschedule brings every day date of a block in line with its start date.
// Templates carry no dates and are left alone, as are days the coach dated by hand.
func (k *treeKeeper) reschedule(ctx context.Context, p *program) error {
	if p.Ref.Kind != domain.KindBlock {
		return nil
	}
	weeks, err := k.tree.Weeks.ListByProgram(ctx, p.Ref.ID)
	if err != nil {
		return err
	}
	weekNumbers := make(map[primitive.ObjectID]int, len(weeks))
	for _, w := range weeks {
		weekNumbers[w.ID] = w.WeekNumber
	}
	days, err := k.tree.Days.ListByProgram(ctx, p.Ref.ID)
	if err != nil {
		return err
	}
	target := copyTarget{ref: p.Ref, start: p.StartDate}
	for i := range days {
		weekNumber, ok := weekNumbers[days[i].WeekID]
		if !ok || days[i].DateOverridden {
			continue
		}
		want := target.dateFor(weekNumber, days[i].DayNumber)
		if sameDate(days[i].Date, want) {
			continue
		}
		if err := k.tree.Days.SetScheduledDate(ctx, days[i].ID, want); err != nil {
			return fmt.Errorf("reschedule day %s: %w", days[i].ID.Hex(), err)
		}
	}
	return nil
}

func sameDate(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func dayIDs(days []domain.Day) []primitive.ObjectID {
	ids := make([]primitive.ObjectID, len(days))
	for i := range days {
		ids[i] = days[i].ID
	}
	return ids
}

func exerciseIDs(exercises []domain.Exercise) []primitive.ObjectID {
	ids := make([]primitive.ObjectID, len(exercises))
	for i := range exercises {
		ids[i] = exercises[i].ID
	}
	return ids
}
