package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"alcyxob/blockcoach/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WeekInput, DayInput, ExerciseInput and SetInput carry editable node fields.
type WeekInput struct {
	Name  string
	Notes string
}

type DayInput struct {
	Name  string
	Notes string
	Date  *time.Time // block days only; overrides the scheduled date
}

type ExerciseInput struct {
	Name       string
	Notes      string
	MovementID *primitive.ObjectID
}

type SetInput struct {
	Reps    *int
	Weight  *float64
	RPE     *float64
	Percent *float64
	Notes   string
}

// TreeService edits the weeks, days, exercises and sets of a program.
// Every call requires the caller to own the program.
type TreeService interface {
	AddWeek(ctx context.Context, actor Actor, ref domain.ProgramRef, in WeekInput) (*domain.Week, error)
	UpdateWeek(ctx context.Context, actor Actor, weekID primitive.ObjectID, in WeekInput) (*domain.Week, error)
	DuplicateWeek(ctx context.Context, actor Actor, weekID primitive.ObjectID) (*domain.Week, error)
	DeleteWeek(ctx context.Context, actor Actor, weekID primitive.ObjectID) error

	AddDay(ctx context.Context, actor Actor, weekID primitive.ObjectID, in DayInput) (*domain.Day, error)
	UpdateDay(ctx context.Context, actor Actor, dayID primitive.ObjectID, in DayInput) (*domain.Day, error)
	// DuplicateDay appends a copy to targetWeekID, or to the source week when nil.
	DuplicateDay(ctx context.Context, actor Actor, dayID primitive.ObjectID, targetWeekID *primitive.ObjectID) (*domain.Day, error)
	DeleteDay(ctx context.Context, actor Actor, dayID primitive.ObjectID) error

	AddExercise(ctx context.Context, actor Actor, dayID primitive.ObjectID, in ExerciseInput) (*domain.Exercise, error)
	UpdateExercise(ctx context.Context, actor Actor, exerciseID primitive.ObjectID, in ExerciseInput) (*domain.Exercise, error)
	ReorderExercises(ctx context.Context, actor Actor, dayID primitive.ObjectID, order []primitive.ObjectID) ([]domain.Exercise, error)
	DeleteExercise(ctx context.Context, actor Actor, exerciseID primitive.ObjectID) error

	AddSet(ctx context.Context, actor Actor, exerciseID primitive.ObjectID, in SetInput) (*domain.Set, error)
	UpdateSet(ctx context.Context, actor Actor, setID primitive.ObjectID, in SetInput) (*domain.Set, error)
	DeleteSet(ctx context.Context, actor Actor, setID primitive.ObjectID) error
}

type treeService struct {
	*programService
}

func NewTreeService(deps ProgramDeps) TreeService {
	return &treeService{programService: newProgramService(deps)}
}

// --- Weeks ---

func (s *treeService) editWeek(ctx context.Context, actor Actor, weekID primitive.ObjectID) (*domain.Week, *program, error) {
	week, err := s.deps.Tree.Weeks.GetByID(ctx, weekID)
	if err != nil {
		return nil, nil, notFound(err, ErrWeekNotFound)
	}
	p, err := s.loader.forEdit(ctx, actor, week.Program())
	if err != nil {
		return nil, nil, err
	}
	return week, p, nil
}

func (s *treeService) nextWeekNumber(ctx context.Context, programID primitive.ObjectID) (int, error) {
	weeks, err := s.deps.Tree.Weeks.ListByProgram(ctx, programID)
	if err != nil {
		return 0, err
	}
	next := 1
	for _, w := range weeks {
		if w.WeekNumber >= next {
			next = w.WeekNumber + 1
		}
	}
	return next, nil
}

func (s *treeService) AddWeek(ctx context.Context, actor Actor, ref domain.ProgramRef, in WeekInput) (*domain.Week, error) {
	if _, err := s.loader.forEdit(ctx, actor, ref); err != nil {
		return nil, err
	}
	number, err := s.nextWeekNumber(ctx, ref.ID)
	if err != nil {
		return nil, err
	}
	week := &domain.Week{
		ProgramID:   ref.ID,
		ProgramKind: ref.Kind,
		WeekNumber:  number,
		Name:        strings.TrimSpace(in.Name),
		Notes:       in.Notes,
	}
	if _, err := s.deps.Tree.Weeks.Create(ctx, week); err != nil {
		return nil, err
	}
	return week, nil
}

func (s *treeService) UpdateWeek(ctx context.Context, actor Actor, weekID primitive.ObjectID, in WeekInput) (*domain.Week, error) {
	week, _, err := s.editWeek(ctx, actor, weekID)
	if err != nil {
		return nil, err
	}
	week.Name = strings.TrimSpace(in.Name)
	week.Notes = in.Notes
	if err := s.deps.Tree.Weeks.Update(ctx, week); err != nil {
		return nil, notFound(err, ErrWeekNotFound)
	}
	return week, nil
}

// DuplicateWeek appends a copy of the week, with all its days, to the same program.
func (s *treeService) DuplicateWeek(ctx context.Context, actor Actor, weekID primitive.ObjectID) (*domain.Week, error) {
	week, p, err := s.editWeek(ctx, actor, weekID)
	if err != nil {
		return nil, err
	}
	number, err := s.nextWeekNumber(ctx, p.Ref.ID)
	if err != nil {
		return nil, err
	}
	var created []*domain.Week
	err = s.copier.run(ctx, "week", func(j *copyJournal) error {
		dst := copyTarget{ref: p.Ref, start: p.StartDate}
		created, err = s.copier.copyWeeks(ctx, j, []domain.Week{*week}, dst, func(domain.Week) int { return number })
		return err
	})
	if err != nil {
		return nil, err
	}
	return created[0], nil
}

// DeleteWeek soft-deletes the week and its subtree, then closes the gap in
// week numbers and moves later block days back by a week.
func (s *treeService) DeleteWeek(ctx context.Context, actor Actor, weekID primitive.ObjectID) error {
	_, p, err := s.editWeek(ctx, actor, weekID)
	if err != nil {
		return err
	}
	if err := s.keeper.deleteWeeks(ctx, []primitive.ObjectID{weekID}, s.now().UTC()); err != nil {
		return err
	}
	if err := s.keeper.renumberWeeks(ctx, p.Ref.ID); err != nil {
		return err
	}
	return s.keeper.reschedule(ctx, p)
}

// --- Days ---

func (s *treeService) editDay(ctx context.Context, actor Actor, dayID primitive.ObjectID) (*domain.Day, *program, error) {
	day, err := s.deps.Tree.Days.GetByID(ctx, dayID)
	if err != nil {
		return nil, nil, notFound(err, ErrDayNotFound)
	}
	p, err := s.loader.forEdit(ctx, actor, day.Program())
	if err != nil {
		return nil, nil, err
	}
	return day, p, nil
}

func (s *treeService) nextDayNumber(ctx context.Context, weekID primitive.ObjectID) (int, error) {
	days, err := s.deps.Tree.Days.ListByWeek(ctx, weekID)
	if err != nil {
		return 0, err
	}
	next := 1
	for _, d := range days {
		if d.DayNumber >= next {
			next = d.DayNumber + 1
		}
	}
	return next, nil
}

func (s *treeService) AddDay(ctx context.Context, actor Actor, weekID primitive.ObjectID, in DayInput) (*domain.Day, error) {
	week, p, err := s.editWeek(ctx, actor, weekID)
	if err != nil {
		return nil, err
	}
	if in.Date != nil && p.Ref.Kind != domain.KindBlock {
		return nil, fmt.Errorf("%w: template days have no dates", ErrValidationFailed)
	}
	number, err := s.nextDayNumber(ctx, weekID)
	if err != nil {
		return nil, err
	}
	day := &domain.Day{
		ProgramID:   p.Ref.ID,
		ProgramKind: p.Ref.Kind,
		WeekID:      week.ID,
		DayNumber:   number,
		Name:        strings.TrimSpace(in.Name),
		Notes:       in.Notes,
		Date:        in.Date,

		DateOverridden: in.Date != nil,
	}
	if day.Date == nil {
		day.Date = copyTarget{ref: p.Ref, start: p.StartDate}.dateFor(week.WeekNumber, number)
	}
	if _, err := s.deps.Tree.Days.Create(ctx, day); err != nil {
		return nil, err
	}
	return day, nil
}

func (s *treeService) UpdateDay(ctx context.Context, actor Actor, dayID primitive.ObjectID, in DayInput) (*domain.Day, error) {
	day, p, err := s.editDay(ctx, actor, dayID)
	if err != nil {
		return nil, err
	}
	if in.Date != nil && p.Ref.Kind != domain.KindBlock {
		return nil, fmt.Errorf("%w: template days have no dates", ErrValidationFailed)
	}
	day.Name = strings.TrimSpace(in.Name)
	day.Notes = in.Notes
	if in.Date != nil {
		day.Date = in.Date
		day.DateOverridden = true
	}
	if err := s.deps.Tree.Days.UpdateDetails(ctx, day); err != nil {
		return nil, notFound(err, ErrDayNotFound)
	}
	return day, nil
}

func (s *treeService) DuplicateDay(ctx context.Context, actor Actor, dayID primitive.ObjectID, targetWeekID *primitive.ObjectID) (*domain.Day, error) {
	day, p, err := s.editDay(ctx, actor, dayID)
	if err != nil {
		return nil, err
	}
	weekID := day.WeekID
	if targetWeekID != nil {
		weekID = *targetWeekID
	}
	target, err := s.deps.Tree.Weeks.GetByID(ctx, weekID)
	if err != nil {
		return nil, notFound(err, ErrWeekNotFound)
	}
	if target.ProgramID != p.Ref.ID {
		return nil, ErrCrossProgramMove
	}
	number, err := s.nextDayNumber(ctx, target.ID)
	if err != nil {
		return nil, err
	}

	var created *domain.Day
	err = s.copier.run(ctx, "day", func(j *copyJournal) error {
		dst := copyTarget{ref: p.Ref, start: p.StartDate}
		err := s.copier.copyDays(ctx, j, []domain.Day{*day}, dst, func(domain.Day) (primitive.ObjectID, int, int) {
			return target.ID, target.WeekNumber, number
		})
		if err != nil {
			return err
		}
		if len(j.days) > 0 {
			created, err = s.deps.Tree.Days.GetByID(ctx, j.days[0])
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *treeService) DeleteDay(ctx context.Context, actor Actor, dayID primitive.ObjectID) error {
	day, p, err := s.editDay(ctx, actor, dayID)
	if err != nil {
		return err
	}
	if err := s.keeper.deleteDays(ctx, []primitive.ObjectID{dayID}, s.now().UTC()); err != nil {
		return err
	}
	if err := s.keeper.renumberDays(ctx, day.WeekID); err != nil {
		return err
	}
	return s.keeper.reschedule(ctx, p)
}

// --- Exercises ---

func (s *treeService) editExercise(ctx context.Context, actor Actor, exerciseID primitive.ObjectID) (*domain.Exercise, *program, error) {
	exercise, err := s.deps.Tree.Exercises.GetByID(ctx, exerciseID)
	if err != nil {
		return nil, nil, notFound(err, ErrExerciseNotFound)
	}
	p, err := s.loader.forEdit(ctx, actor, exercise.Program())
	if err != nil {
		return nil, nil, err
	}
	return exercise, p, nil
}

// checkMovement verifies a linked library entry belongs to the program's coach.
func (s *treeService) checkMovement(ctx context.Context, p *program, movementID *primitive.ObjectID) error {
	if movementID == nil {
		return nil
	}
	movement, err := s.deps.Movements.GetByID(ctx, *movementID)
	if err != nil {
		return notFound(err, ErrMovementNotFound)
	}
	if movement.CoachID != p.CoachID {
		return ErrMovementAccessDenied
	}
	return nil
}

func (s *treeService) AddExercise(ctx context.Context, actor Actor, dayID primitive.ObjectID, in ExerciseInput) (*domain.Exercise, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, fmt.Errorf("%w: exercise name is required", ErrValidationFailed)
	}
	day, p, err := s.editDay(ctx, actor, dayID)
	if err != nil {
		return nil, err
	}
	if err := s.checkMovement(ctx, p, in.MovementID); err != nil {
		return nil, err
	}
	existing, err := s.deps.Tree.Exercises.ListByDay(ctx, day.ID)
	if err != nil {
		return nil, err
	}
	order := 1
	for _, e := range existing {
		if e.Order >= order {
			order = e.Order + 1
		}
	}
	exercise := &domain.Exercise{
		ProgramID:   p.Ref.ID,
		ProgramKind: p.Ref.Kind,
		DayID:       day.ID,
		Order:       order,
		Name:        in.Name,
		Notes:       in.Notes,
		MovementID:  in.MovementID,
	}
	if _, err := s.deps.Tree.Exercises.Create(ctx, exercise); err != nil {
		return nil, err
	}
	return exercise, nil
}

func (s *treeService) UpdateExercise(ctx context.Context, actor Actor, exerciseID primitive.ObjectID, in ExerciseInput) (*domain.Exercise, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, fmt.Errorf("%w: exercise name is required", ErrValidationFailed)
	}
	exercise, p, err := s.editExercise(ctx, actor, exerciseID)
	if err != nil {
		return nil, err
	}
	if err := s.checkMovement(ctx, p, in.MovementID); err != nil {
		return nil, err
	}
	exercise.Name = in.Name
	exercise.Notes = in.Notes
	exercise.MovementID = in.MovementID
	if err := s.deps.Tree.Exercises.Update(ctx, exercise); err != nil {
		return nil, notFound(err, ErrExerciseNotFound)
	}
	return exercise, nil
}

// ReorderExercises takes the complete list of the day's exercise ids in their new order.
func (s *treeService) ReorderExercises(ctx context.Context, actor Actor, dayID primitive.ObjectID, order []primitive.ObjectID) ([]domain.Exercise, error) {
	day, _, err := s.editDay(ctx, actor, dayID)
	if err != nil {
		return nil, err
	}
	exercises, err := s.deps.Tree.Exercises.ListByDay(ctx, day.ID)
	if err != nil {
		return nil, err
	}
	if len(order) != len(exercises) {
		return nil, ErrInvalidOrder
	}
	byID := make(map[primitive.ObjectID]*domain.Exercise, len(exercises))
	for i := range exercises {
		byID[exercises[i].ID] = &exercises[i]
	}
	reordered := make([]*domain.Exercise, 0, len(order))
	for _, id := range order {
		e, ok := byID[id]
		if !ok {
			return nil, ErrInvalidOrder
		}
		delete(byID, id) // a repeated id fails the lookup above
		reordered = append(reordered, e)
	}

	out := make([]domain.Exercise, len(reordered))
	for i, e := range reordered {
		if e.Order != i+1 {
			e.Order = i + 1
			if err := s.deps.Tree.Exercises.Update(ctx, e); err != nil {
				return nil, err
			}
		}
		out[i] = *e
	}
	return out, nil
}

func (s *treeService) DeleteExercise(ctx context.Context, actor Actor, exerciseID primitive.ObjectID) error {
	exercise, _, err := s.editExercise(ctx, actor, exerciseID)
	if err != nil {
		return err
	}
	if err := s.keeper.deleteExercises(ctx, []primitive.ObjectID{exerciseID}, s.now().UTC()); err != nil {
		return err
	}
	return s.keeper.renumberExercises(ctx, exercise.DayID)
}

// --- Sets ---

func (s *treeService) editSet(ctx context.Context, actor Actor, setID primitive.ObjectID) (*domain.Set, error) {
	set, err := s.deps.Tree.Sets.GetByID(ctx, setID)
	if err != nil {
		return nil, notFound(err, ErrSetNotFound)
	}
	if _, err := s.loader.forEdit(ctx, actor, set.Program()); err != nil {
		return nil, err
	}
	return set, nil
}

func validSetInput(in SetInput) error {
	if in.Reps != nil && *in.Reps < 0 {
		return fmt.Errorf("%w: reps cannot be negative", ErrValidationFailed)
	}
	if in.Weight != nil && *in.Weight < 0 {
		return fmt.Errorf("%w: weight cannot be negative", ErrValidationFailed)
	}
	if in.RPE != nil && (*in.RPE < 0 || *in.RPE > 10) {
		return fmt.Errorf("%w: rpe must be between 0 and 10", ErrValidationFailed)
	}
	if in.Percent != nil && (*in.Percent < 0 || *in.Percent > 150) {
		return fmt.Errorf("%w: percent must be between 0 and 150", ErrValidationFailed)
	}
	return nil
}

func (s *treeService) AddSet(ctx context.Context, actor Actor, exerciseID primitive.ObjectID, in SetInput) (*domain.Set, error) {
	if err := validSetInput(in); err != nil {
		return nil, err
	}
	exercise, p, err := s.editExercise(ctx, actor, exerciseID)
	if err != nil {
		return nil, err
	}
	existing, err := s.deps.Tree.Sets.ListByExercise(ctx, exercise.ID)
	if err != nil {
		return nil, err
	}
	order := 1
	for _, set := range existing {
		if set.Order >= order {
			order = set.Order + 1
		}
	}
	set := &domain.Set{
		ProgramID:   p.Ref.ID,
		ProgramKind: p.Ref.Kind,
		ExerciseID:  exercise.ID,
		Order:       order,
		Reps:        in.Reps,
		Weight:      in.Weight,
		RPE:         in.RPE,
		Percent:     in.Percent,
		Notes:       in.Notes,
	}
	if _, err := s.deps.Tree.Sets.Create(ctx, set); err != nil {
		return nil, err
	}
	return set, nil
}

// UpdateSet changes the prescription only; the athlete log is untouched.
func (s *treeService) UpdateSet(ctx context.Context, actor Actor, setID primitive.ObjectID, in SetInput) (*domain.Set, error) {
	if err := validSetInput(in); err != nil {
		return nil, err
	}
	set, err := s.editSet(ctx, actor, setID)
	if err != nil {
		return nil, err
	}
	set.Reps = in.Reps
	set.Weight = in.Weight
	set.RPE = in.RPE
	set.Percent = in.Percent
	set.Notes = in.Notes
	if err := s.deps.Tree.Sets.UpdatePrescription(ctx, set); err != nil {
		return nil, notFound(err, ErrSetNotFound)
	}
	return set, nil
}

func (s *treeService) DeleteSet(ctx context.Context, actor Actor, setID primitive.ObjectID) error {
	set, err := s.editSet(ctx, actor, setID)
	if err != nil {
		return err
	}
	if err := s.deps.Tree.Sets.SoftDeleteMany(ctx, []primitive.ObjectID{setID}, s.now().UTC()); err != nil {
		return err
	}
	return s.keeper.renumberSets(ctx, set.ExerciseID)
}
