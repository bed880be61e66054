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

type userRepo struct{ store *Store }

func (s *Store) Users() repository.UserRepository {
	return userRepo{store: s}
}

func (r userRepo) Create(_ context.Context, user *domain.User) (primitive.ObjectID, error) {
	if user.Email == "" || user.Username == "" || user.PasswordHash == "" || user.Role == "" {
		return primitive.NilObjectID, errors.New("user email, username, password hash, and role are required")
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, existing := range r.store.users {
		if existing.Email == user.Email || existing.Username == user.Username {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	user.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.store.users[user.ID] = cloneUser(*user)
	return user.ID, nil
}

func (r userRepo) find(match func(*domain.User) bool) (*domain.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, u := range r.store.users {
		u := u
		if match(&u) {
			found := cloneUser(u)
			return &found, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r userRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.Email == email })
}

func (r userRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.Username == username })
}

func (r userRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	u, ok := r.store.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	found := cloneUser(u)
	return &found, nil
}

func (r userRepo) GetByIDs(_ context.Context, ids []primitive.ObjectID) ([]domain.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	out := []domain.User{}
	for id := range idSet(ids) {
		if u, ok := r.store.users[id]; ok {
			out = append(out, cloneUser(u))
		}
	}
	sortUsers(out)
	return out, nil
}

func (r userRepo) UpdateProfile(_ context.Context, user *domain.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	existing, ok := r.store.users[user.ID]
	if !ok {
		return repository.ErrNotFound
	}
	existing.Name = user.Name
	existing.NameLower = user.NameLower
	existing.Bio = user.Bio
	existing.Sport = user.Sport
	existing.Location = user.Location
	existing.UpdatedAt = time.Now().UTC()
	r.store.users[user.ID] = existing
	return nil
}

func (r userRepo) AddLink(_ context.Context, userID primitive.ObjectID, field domain.LinkField, otherID primitive.ObjectID) error {
	return r.mutateLinks(userID, field, func(ids []primitive.ObjectID) []primitive.ObjectID {
		for _, id := range ids {
			if id == otherID {
				return ids
			}
		}
		return append(ids, otherID)
	})
}

func (r userRepo) RemoveLink(_ context.Context, userID primitive.ObjectID, field domain.LinkField, otherID primitive.ObjectID) error {
	return r.mutateLinks(userID, field, func(ids []primitive.ObjectID) []primitive.ObjectID {
		kept := ids[:0]
		for _, id := range ids {
			if id != otherID {
				kept = append(kept, id)
			}
		}
		return kept
	})
}

func (r userRepo) mutateLinks(userID primitive.ObjectID, field domain.LinkField, mutate func([]primitive.ObjectID) []primitive.ObjectID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	u, ok := r.store.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	switch field {
	case domain.LinkPendingRequests:
		u.PendingRequests = mutate(u.PendingRequests)
	case domain.LinkSentRequests:
		u.SentRequests = mutate(u.SentRequests)
	case domain.LinkCoaches:
		u.Coaches = mutate(u.Coaches)
	case domain.LinkAthletes:
		u.Athletes = mutate(u.Athletes)
	default:
		return repository.ErrInvalid
	}
	u.UpdatedAt = time.Now().UTC()
	r.store.users[userID] = u
	return nil
}

func (r userRepo) Search(_ context.Context, query repository.UserSearch) ([]domain.User, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = repository.DefaultSearchLimit
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	out := []domain.User{}
	for _, u := range r.store.users {
		if query.Role != "" && u.Role != query.Role {
			continue
		}
		if u.ID == query.ExcludeID {
			continue
		}
		if !strings.HasPrefix(u.NameLower, query.Prefix) && !strings.HasPrefix(u.Username, query.Prefix) {
			continue
		}
		out = append(out, cloneUser(u))
	}
	sortUsers(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func sortUsers(users []domain.User) {
	sort.Slice(users, func(i, j int) bool { return users[i].NameLower < users[j].NameLower })
}

// cloneUser copies the link arrays so callers never share backing storage with the store.
func cloneUser(u domain.User) domain.User {
	u.PendingRequests = append([]primitive.ObjectID(nil), u.PendingRequests...)
	u.SentRequests = append([]primitive.ObjectID(nil), u.SentRequests...)
	u.Coaches = append([]primitive.ObjectID(nil), u.Coaches...)
	u.Athletes = append([]primitive.ObjectID(nil), u.Athletes...)
	return u
}
