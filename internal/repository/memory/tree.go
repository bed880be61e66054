package memory

import (
	"context"
	"time"

	"alcyxob/blockcoach/internal/domain"
	"alcyxob/blockcoach/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// treeRepo carries the behaviour shared by weeks, days, exercises and sets.
type treeRepo[T any] struct {
	store    *Store
	name     string
	table    func(*Store) *table[T]
	validate func(*T) bool
}

func (r treeRepo[T]) Create(ctx context.Context, doc *T) (primitive.ObjectID, error) {
	if err := r.CreateMany(ctx, []*T{doc}); err != nil {
		return primitive.NilObjectID, err
	}
	return *r.table(r.store).access.id(doc), nil
}

func (r treeRepo[T]) CreateMany(_ context.Context, docs []*T) error {
	for _, doc := range docs {
		if !r.validate(doc) {
			return repository.ErrInvalid
		}
	}
	if err := r.store.failOn(r.name); err != nil {
		return err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.table(r.store).insert(docs)
	return nil
}

func (r treeRepo[T]) GetByID(_ context.Context, id primitive.ObjectID) (*T, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return r.table(r.store).get(id)
}

func (r treeRepo[T]) ListByProgram(_ context.Context, programID primitive.ObjectID) ([]T, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	t := r.table(r.store)
	return t.list(t.byProgram([]primitive.ObjectID{programID})), nil
}

func (r treeRepo[T]) listByParents(parents []primitive.ObjectID) []T {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	t := r.table(r.store)
	return t.list(t.byParent(parents))
}

func (r treeRepo[T]) Update(_ context.Context, doc *T) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.table(r.store).replace(doc)
}

func (r treeRepo[T]) patch(id primitive.ObjectID, apply func(*T)) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.table(r.store).patch(id, apply)
}

func (r treeRepo[T]) SoftDeleteMany(_ context.Context, ids []primitive.ObjectID, at time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	t := r.table(r.store)
	t.softDelete(t.byID(ids), at)
	return nil
}

func (r treeRepo[T]) SoftDeleteByProgram(_ context.Context, programID primitive.ObjectID, at time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	t := r.table(r.store)
	t.softDelete(t.byProgram([]primitive.ObjectID{programID}), at)
	return nil
}

func (r treeRepo[T]) HardDeleteMany(_ context.Context, ids []primitive.ObjectID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.table(r.store).hardDelete(ids)
	return nil
}

type weekRepo struct{ treeRepo[domain.Week] }

func (s *Store) Weeks() repository.WeekRepository {
	return weekRepo{treeRepo[domain.Week]{
		store: s,
		name:  "weeks",
		table: func(s *Store) *table[domain.Week] { return s.weeks },
		validate: func(w *domain.Week) bool {
			return w.ProgramID != primitive.NilObjectID && w.ProgramKind.Valid() && w.WeekNumber >= 1
		},
	}}
}

type dayRepo struct{ treeRepo[domain.Day] }

func (s *Store) Days() repository.DayRepository {
	return dayRepo{treeRepo[domain.Day]{
		store: s,
		name:  "days",
		table: func(s *Store) *table[domain.Day] { return s.days },
		validate: func(d *domain.Day) bool {
			return d.ProgramID != primitive.NilObjectID && d.WeekID != primitive.NilObjectID && d.ProgramKind.Valid() && d.DayNumber >= 1
		},
	}}
}

func (r dayRepo) UpdateDetails(_ context.Context, day *domain.Day) error {
	return r.patch(day.ID, func(d *domain.Day) {
		d.Name, d.Notes, d.Date, d.DateOverridden = day.Name, day.Notes, day.Date, day.DateOverridden
	})
}

func (r dayRepo) UpdateCompletion(_ context.Context, day *domain.Day) error {
	return r.patch(day.ID, func(d *domain.Day) {
		d.Completed, d.CompletedAt = day.Completed, day.CompletedAt
	})
}

func (r dayRepo) SetDayNumber(_ context.Context, id primitive.ObjectID, dayNumber int) error {
	return r.patch(id, func(d *domain.Day) { d.DayNumber = dayNumber })
}

func (r dayRepo) SetScheduledDate(_ context.Context, id primitive.ObjectID, date *time.Time) error {
	return r.patch(id, func(d *domain.Day) {
		if !d.DateOverridden {
			d.Date = date
		}
	})
}

func (r dayRepo) ListByWeek(_ context.Context, weekID primitive.ObjectID) ([]domain.Day, error) {
	return r.listByParents([]primitive.ObjectID{weekID}), nil
}

func (r dayRepo) ListByWeeks(_ context.Context, weekIDs []primitive.ObjectID) ([]domain.Day, error) {
	return r.listByParents(weekIDs), nil
}

type exerciseRepo struct{ treeRepo[domain.Exercise] }

func (s *Store) Exercises() repository.ExerciseRepository {
	return exerciseRepo{treeRepo[domain.Exercise]{
		store: s,
		name:  "exercises",
		table: func(s *Store) *table[domain.Exercise] { return s.exercises },
		validate: func(e *domain.Exercise) bool {
			return e.ProgramID != primitive.NilObjectID && e.DayID != primitive.NilObjectID && e.ProgramKind.Valid() && e.Name != ""
		},
	}}
}

func (r exerciseRepo) ListByDay(_ context.Context, dayID primitive.ObjectID) ([]domain.Exercise, error) {
	return r.listByParents([]primitive.ObjectID{dayID}), nil
}

func (r exerciseRepo) ListByDays(_ context.Context, dayIDs []primitive.ObjectID) ([]domain.Exercise, error) {
	return r.listByParents(dayIDs), nil
}

func (r exerciseRepo) ListByPrograms(_ context.Context, programIDs []primitive.ObjectID) ([]domain.Exercise, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return r.store.exercises.list(r.store.exercises.byProgram(programIDs)), nil
}

type setRepo struct{ treeRepo[domain.Set] }

func (s *Store) Sets() repository.SetRepository {
	return setRepo{treeRepo[domain.Set]{
		store: s,
		name:  "sets",
		table: func(s *Store) *table[domain.Set] { return s.sets },
		validate: func(st *domain.Set) bool {
			return st.ProgramID != primitive.NilObjectID && st.ExerciseID != primitive.NilObjectID && st.ProgramKind.Valid()
		},
	}}
}

func (r setRepo) UpdatePrescription(_ context.Context, set *domain.Set) error {
	return r.patch(set.ID, func(s *domain.Set) {
		s.Reps, s.Weight, s.RPE, s.Percent, s.Notes = set.Reps, set.Weight, set.RPE, set.Percent, set.Notes
	})
}

func (r setRepo) UpdateLog(_ context.Context, set *domain.Set) error {
	return r.patch(set.ID, func(s *domain.Set) {
		s.ActualReps, s.ActualWeight, s.ActualRPE = set.ActualReps, set.ActualWeight, set.ActualRPE
		s.AthleteNotes, s.Completed, s.LoggedAt = set.AthleteNotes, set.Completed, set.LoggedAt
	})
}

func (r setRepo) SetVideo(_ context.Context, id primitive.ObjectID, uploadID *primitive.ObjectID) error {
	return r.patch(id, func(s *domain.Set) { s.VideoUploadID = uploadID })
}

func (r setRepo) SetOrder(_ context.Context, id primitive.ObjectID, order int) error {
	return r.patch(id, func(s *domain.Set) { s.Order = order })
}

func (r setRepo) ListByExercise(_ context.Context, exerciseID primitive.ObjectID) ([]domain.Set, error) {
	return r.listByParents([]primitive.ObjectID{exerciseID}), nil
}

func (r setRepo) ListByExercises(_ context.Context, exerciseIDs []primitive.ObjectID) ([]domain.Set, error) {
	return r.listByParents(exerciseIDs), nil
}
