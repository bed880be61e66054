package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"alcyxob/blockcoach/internal/domain"
	"alcyxob/blockcoach/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type movementRepo struct{ store *Store }

func (s *Store) Movements() repository.MovementRepository {
	return movementRepo{store: s}
}

func (r movementRepo) Create(_ context.Context, movement *domain.Movement) (primitive.ObjectID, error) {
	if movement.Name == "" || movement.CoachID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("movement name and coach ID are required")
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	movement.ID = primitive.NewObjectID()
	movement.NameLower = strings.ToLower(movement.Name)
	now := time.Now().UTC()
	movement.CreatedAt, movement.UpdatedAt = now, now
	r.store.movements[movement.ID] = *movement
	return movement.ID, nil
}

func (r movementRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Movement, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	m, ok := r.store.movements[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &m, nil
}

func (r movementRepo) ListByCoach(ctx context.Context, coachID primitive.ObjectID) ([]domain.Movement, error) {
	return r.SearchByCoach(ctx, coachID, "", -1)
}

// SearchByCoach with a negative limit returns every match.
func (r movementRepo) SearchByCoach(_ context.Context, coachID primitive.ObjectID, prefix string, limit int) ([]domain.Movement, error) {
	if limit == 0 {
		limit = repository.DefaultSearchLimit
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	out := []domain.Movement{}
	for _, m := range r.store.movements {
		if m.CoachID == coachID && strings.HasPrefix(m.NameLower, prefix) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NameLower < out[j].NameLower })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r movementRepo) Update(_ context.Context, movement *domain.Movement) error {
	if movement.Name == "" {
		return errors.New("movement name cannot be empty")
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	existing, ok := r.store.movements[movement.ID]
	if !ok {
		return repository.ErrNotFound
	}
	updated := *movement
	updated.CoachID = existing.CoachID
	updated.CreatedAt = existing.CreatedAt
	updated.NameLower = strings.ToLower(movement.Name)
	updated.UpdatedAt = time.Now().UTC()
	r.store.movements[movement.ID] = updated
	return nil
}

func (r movementRepo) Delete(_ context.Context, id primitive.ObjectID, coachID primitive.ObjectID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	m, ok := r.store.movements[id]
	if !ok || m.CoachID != coachID {
		return repository.ErrNotFound
	}
	delete(r.store.movements, id)
	return nil
}

type uploadRepo struct{ store *Store }

func (s *Store) Uploads() repository.UploadRepository {
	return uploadRepo{store: s}
}

func (r uploadRepo) Create(_ context.Context, upload *domain.Upload) (primitive.ObjectID, error) {
	if upload.SetID == primitive.NilObjectID || upload.AthleteID == primitive.NilObjectID ||
		upload.CoachID == primitive.NilObjectID || upload.ObjectKey == "" {
		return primitive.NilObjectID, errors.New("upload requires setId, athleteId, coachId, and objectKey")
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, existing := range r.store.uploads {
		if existing.SetID == upload.SetID {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	upload.ID = primitive.NewObjectID()
	upload.UploadedAt = time.Now().UTC()
	r.store.uploads[upload.ID] = *upload
	return upload.ID, nil
}

func (r uploadRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Upload, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	u, ok := r.store.uploads[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r uploadRepo) GetBySetID(_ context.Context, setID primitive.ObjectID) (*domain.Upload, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, u := range r.store.uploads {
		if u.SetID == setID {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r uploadRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.uploads[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.store.uploads, id)
	return nil
}
