// Package memory keeps every collection in process memory behind one lock.
// It satisfies the same repository interfaces as the MongoDB implementation
// and backs the tests and the "memory" database driver.
package memory

import (
	"bytes"
	"sort"
	"sync"
	"time"

	"alcyxob/blockcoach/internal/domain"
	"alcyxob/blockcoach/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store owns all in-memory tables.
type Store struct {
	mu sync.RWMutex

	users     map[primitive.ObjectID]domain.User
	blocks    map[primitive.ObjectID]domain.Block
	templates map[primitive.ObjectID]domain.Template
	movements map[primitive.ObjectID]domain.Movement
	uploads   map[primitive.ObjectID]domain.Upload

	weeks     *table[domain.Week]
	days      *table[domain.Day]
	exercises *table[domain.Exercise]
	sets      *table[domain.Set]

	// FailOn lets tests make a write fail; it is consulted before every tree insert.
	FailOn func(collection string) error
}

func NewStore() *Store {
	return &Store{
		users:     make(map[primitive.ObjectID]domain.User),
		blocks:    make(map[primitive.ObjectID]domain.Block),
		templates: make(map[primitive.ObjectID]domain.Template),
		movements: make(map[primitive.ObjectID]domain.Movement),
		uploads:   make(map[primitive.ObjectID]domain.Upload),
		weeks: newTable(nodeAccess[domain.Week]{
			id:       func(w *domain.Week) *primitive.ObjectID { return &w.ID },
			program:  func(w *domain.Week) primitive.ObjectID { return w.ProgramID },
			parent:   func(w *domain.Week) primitive.ObjectID { return w.ProgramID },
			ordinal:  func(w *domain.Week) int { return w.WeekNumber },
			deleted:  func(w *domain.Week) bool { return w.Deleted },
			markDead: func(w *domain.Week, at time.Time) { w.Deleted, w.DeletedAt, w.UpdatedAt = true, &at, at },
			stamp:    func(w *domain.Week, at time.Time) { w.CreatedAt, w.UpdatedAt, w.Deleted, w.DeletedAt = at, at, false, nil },
			touch:    func(w *domain.Week, at time.Time) { w.UpdatedAt = at },
		}),
		days: newTable(nodeAccess[domain.Day]{
			id:       func(d *domain.Day) *primitive.ObjectID { return &d.ID },
			program:  func(d *domain.Day) primitive.ObjectID { return d.ProgramID },
			parent:   func(d *domain.Day) primitive.ObjectID { return d.WeekID },
			ordinal:  func(d *domain.Day) int { return d.DayNumber },
			deleted:  func(d *domain.Day) bool { return d.Deleted },
			markDead: func(d *domain.Day, at time.Time) { d.Deleted, d.DeletedAt, d.UpdatedAt = true, &at, at },
			stamp:    func(d *domain.Day, at time.Time) { d.CreatedAt, d.UpdatedAt, d.Deleted, d.DeletedAt = at, at, false, nil },
			touch:    func(d *domain.Day, at time.Time) { d.UpdatedAt = at },
		}),
		exercises: newTable(nodeAccess[domain.Exercise]{
			id:       func(e *domain.Exercise) *primitive.ObjectID { return &e.ID },
			program:  func(e *domain.Exercise) primitive.ObjectID { return e.ProgramID },
			parent:   func(e *domain.Exercise) primitive.ObjectID { return e.DayID },
			ordinal:  func(e *domain.Exercise) int { return e.Order },
			deleted:  func(e *domain.Exercise) bool { return e.Deleted },
			markDead: func(e *domain.Exercise, at time.Time) { e.Deleted, e.DeletedAt, e.UpdatedAt = true, &at, at },
			stamp:    func(e *domain.Exercise, at time.Time) { e.CreatedAt, e.UpdatedAt, e.Deleted, e.DeletedAt = at, at, false, nil },
			touch:    func(e *domain.Exercise, at time.Time) { e.UpdatedAt = at },
		}),
		sets: newTable(nodeAccess[domain.Set]{
			id:       func(s *domain.Set) *primitive.ObjectID { return &s.ID },
			program:  func(s *domain.Set) primitive.ObjectID { return s.ProgramID },
			parent:   func(s *domain.Set) primitive.ObjectID { return s.ExerciseID },
			ordinal:  func(s *domain.Set) int { return s.Order },
			deleted:  func(s *domain.Set) bool { return s.Deleted },
			markDead: func(s *domain.Set, at time.Time) { s.Deleted, s.DeletedAt, s.UpdatedAt = true, &at, at },
			stamp:    func(s *domain.Set, at time.Time) { s.CreatedAt, s.UpdatedAt, s.Deleted, s.DeletedAt = at, at, false, nil },
			touch:    func(s *domain.Set, at time.Time) { s.UpdatedAt = at },
		}),
	}
}

// Counts reports how many rows (deleted included) each tree table holds.
// Tests use it to assert that failed copies leave nothing behind.
func (s *Store) Counts() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]int{
		"blocks":    len(s.blocks),
		"templates": len(s.templates),
		"weeks":     len(s.weeks.rows),
		"days":      len(s.days.rows),
		"exercises": len(s.exercises.rows),
		"sets":      len(s.sets.rows),
	}
}

func (s *Store) failOn(collection string) error {
	if s.FailOn == nil {
		return nil
	}
	return s.FailOn(collection)
}

// nodeAccess exposes the common fields of a tree node to the generic table.
type nodeAccess[T any] struct {
	id       func(*T) *primitive.ObjectID
	program  func(*T) primitive.ObjectID
	parent   func(*T) primitive.ObjectID
	ordinal  func(*T) int
	deleted  func(*T) bool
	markDead func(*T, time.Time)
	stamp    func(*T, time.Time)
	touch    func(*T, time.Time)
}

// table is not safe on its own; the Store lock guards it.
type table[T any] struct {
	access nodeAccess[T]
	rows   map[primitive.ObjectID]T
}

func newTable[T any](access nodeAccess[T]) *table[T] {
	return &table[T]{access: access, rows: make(map[primitive.ObjectID]T)}
}

func (t *table[T]) insert(docs []*T) {
	now := time.Now().UTC()
	for _, doc := range docs {
		*t.access.id(doc) = primitive.NewObjectID()
		t.access.stamp(doc, now)
		t.rows[*t.access.id(doc)] = *doc
	}
}

func (t *table[T]) get(id primitive.ObjectID) (*T, error) {
	row, ok := t.rows[id]
	if !ok || t.access.deleted(&row) {
		return nil, repository.ErrNotFound
	}
	return &row, nil
}

func (t *table[T]) replace(doc *T) error {
	id := *t.access.id(doc)
	existing, ok := t.rows[id]
	if !ok || t.access.deleted(&existing) {
		return repository.ErrNotFound
	}
	t.access.touch(doc, time.Now().UTC())
	t.rows[id] = *doc
	return nil
}

// patch applies a partial write to a live row in place.
func (t *table[T]) patch(id primitive.ObjectID, apply func(*T)) error {
	row, ok := t.rows[id]
	if !ok || t.access.deleted(&row) {
		return repository.ErrNotFound
	}
	apply(&row)
	t.access.touch(&row, time.Now().UTC())
	t.rows[id] = row
	return nil
}

// list returns live rows matching keep, sorted by parent then ordinal.
func (t *table[T]) list(keep func(*T) bool) []T {
	out := []T{}
	for _, row := range t.rows {
		row := row
		if t.access.deleted(&row) || !keep(&row) {
			continue
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool {
		pi, pj := t.access.parent(&out[i]), t.access.parent(&out[j])
		if c := bytes.Compare(pi[:], pj[:]); c != 0 {
			return c < 0
		}
		return t.access.ordinal(&out[i]) < t.access.ordinal(&out[j])
	})
	return out
}

func (t *table[T]) softDelete(match func(*T) bool, at time.Time) {
	for id, row := range t.rows {
		row := row
		if t.access.deleted(&row) || !match(&row) {
			continue
		}
		t.access.markDead(&row, at)
		t.rows[id] = row
	}
}

func (t *table[T]) hardDelete(ids []primitive.ObjectID) {
	for _, id := range ids {
		delete(t.rows, id)
	}
}

func (t *table[T]) byParent(parents []primitive.ObjectID) func(*T) bool {
	set := idSet(parents)
	return func(row *T) bool {
		_, ok := set[t.access.parent(row)]
		return ok
	}
}

func (t *table[T]) byProgram(programs []primitive.ObjectID) func(*T) bool {
	set := idSet(programs)
	return func(row *T) bool {
		_, ok := set[t.access.program(row)]
		return ok
	}
}

func (t *table[T]) byID(ids []primitive.ObjectID) func(*T) bool {
	set := idSet(ids)
	return func(row *T) bool {
		_, ok := set[*t.access.id(row)]
		return ok
	}
}

func idSet(ids []primitive.ObjectID) map[primitive.ObjectID]struct{} {
	set := make(map[primitive.ObjectID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
