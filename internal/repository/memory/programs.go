package memory

import (
	"context"
	"errors"
	"sort"
	"time"

	"alcyxob/blockcoach/internal/domain"
	"alcyxob/blockcoach/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type blockRepo struct{ store *Store }

func (s *Store) Blocks() repository.BlockRepository {
	return blockRepo{store: s}
}

func (r blockRepo) Create(_ context.Context, block *domain.Block) (primitive.ObjectID, error) {
	if block.AthleteID == primitive.NilObjectID || block.CoachID == primitive.NilObjectID || block.Name == "" {
		return primitive.NilObjectID, errors.New("block requires athleteId, coachId, and name")
	}
	if err := r.store.failOn("blocks"); err != nil {
		return primitive.NilObjectID, err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	block.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	block.CreatedAt, block.UpdatedAt = now, now
	block.Deleted, block.DeletedAt = false, nil
	r.store.blocks[block.ID] = *block
	return block.ID, nil
}

func (r blockRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Block, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	b, ok := r.store.blocks[id]
	if !ok || b.Deleted {
		return nil, repository.ErrNotFound
	}
	return &b, nil
}

func (r blockRepo) list(match func(*domain.Block) bool) []domain.Block {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	out := []domain.Block{}
	for _, b := range r.store.blocks {
		b := b
		if !b.Deleted && match(&b) {
			out = append(out, b)
		}
	}
	// newest start first, undated blocks last, then newest created
	sort.Slice(out, func(i, j int) bool {
		si, sj := out[i].StartDate, out[j].StartDate
		switch {
		case si != nil && sj != nil && !si.Equal(*sj):
			return si.After(*sj)
		case si != nil && sj == nil:
			return true
		case si == nil && sj != nil:
			return false
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (r blockRepo) ListByAthlete(_ context.Context, athleteID primitive.ObjectID) ([]domain.Block, error) {
	return r.list(func(b *domain.Block) bool { return b.AthleteID == athleteID }), nil
}

func (r blockRepo) ListByCoach(_ context.Context, coachID primitive.ObjectID) ([]domain.Block, error) {
	return r.list(func(b *domain.Block) bool { return b.CoachID == coachID }), nil
}

func (r blockRepo) ListByCoachAndAthlete(_ context.Context, coachID, athleteID primitive.ObjectID) ([]domain.Block, error) {
	return r.list(func(b *domain.Block) bool { return b.CoachID == coachID && b.AthleteID == athleteID }), nil
}

func (r blockRepo) Update(_ context.Context, block *domain.Block) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	existing, ok := r.store.blocks[block.ID]
	if !ok || existing.Deleted {
		return repository.ErrNotFound
	}
	existing.Name = block.Name
	existing.Description = block.Description
	existing.StartDate = block.StartDate
	existing.EndDate = block.EndDate
	existing.UpdatedAt = time.Now().UTC()
	r.store.blocks[block.ID] = existing
	return nil
}

func (r blockRepo) SoftDelete(_ context.Context, id primitive.ObjectID, at time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if b, ok := r.store.blocks[id]; ok && !b.Deleted {
		b.Deleted, b.DeletedAt, b.UpdatedAt = true, &at, at
		r.store.blocks[id] = b
	}
	return nil
}

func (r blockRepo) HardDelete(_ context.Context, id primitive.ObjectID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.blocks, id)
	return nil
}

type templateRepo struct{ store *Store }

func (s *Store) Templates() repository.TemplateRepository {
	return templateRepo{store: s}
}

func (r templateRepo) Create(_ context.Context, template *domain.Template) (primitive.ObjectID, error) {
	if template.CoachID == primitive.NilObjectID || template.Name == "" {
		return primitive.NilObjectID, errors.New("template requires coachId and name")
	}
	if err := r.store.failOn("templates"); err != nil {
		return primitive.NilObjectID, err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	template.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	template.CreatedAt, template.UpdatedAt = now, now
	template.Deleted, template.DeletedAt = false, nil
	r.store.templates[template.ID] = *template
	return template.ID, nil
}

func (r templateRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Template, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	t, ok := r.store.templates[id]
	if !ok || t.Deleted {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}

func (r templateRepo) ListByCoach(_ context.Context, coachID primitive.ObjectID) ([]domain.Template, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	out := []domain.Template{}
	for _, t := range r.store.templates {
		if !t.Deleted && t.CoachID == coachID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r templateRepo) Update(_ context.Context, template *domain.Template) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	existing, ok := r.store.templates[template.ID]
	if !ok || existing.Deleted {
		return repository.ErrNotFound
	}
	existing.Name = template.Name
	existing.Description = template.Description
	existing.UpdatedAt = time.Now().UTC()
	r.store.templates[template.ID] = existing
	return nil
}

func (r templateRepo) SoftDelete(_ context.Context, id primitive.ObjectID, at time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if t, ok := r.store.templates[id]; ok && !t.Deleted {
		t.Deleted, t.DeletedAt, t.UpdatedAt = true, &at, at
		r.store.templates[id] = t
	}
	return nil
}

func (r templateRepo) HardDelete(_ context.Context, id primitive.ObjectID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.templates, id)
	return nil
}
