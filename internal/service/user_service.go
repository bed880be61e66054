package service

import (
	"context"
	"fmt"
	"strings"

	"alcyxob/blockcoach/internal/cache"
	"alcyxob/blockcoach/internal/domain"
	"alcyxob/blockcoach/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const MaxSearchLimit = 50

// ProfileUpdate lists the fields a user may edit on their own profile.
type ProfileUpdate struct {
	Name     string
	Bio      string
	Sport    string
	Location string
}

type UserService interface {
	GetMe(ctx context.Context, actor Actor) (*domain.User, error)
	GetProfile(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	UpdateProfile(ctx context.Context, actor Actor, update ProfileUpdate) (*domain.User, error)
	Search(ctx context.Context, actor Actor, prefix string, role domain.Role, limit int) ([]domain.User, error)
}

type userService struct {
	userRepo repository.UserRepository
	profiles *cache.ProfileCache
}

// NewUserService creates a user service. profiles may be nil to disable caching.
func NewUserService(userRepo repository.UserRepository, profiles *cache.ProfileCache) UserService {
	return &userService{userRepo: userRepo, profiles: profiles}
}

// GetMe returns the caller's full record, connection arrays included.
func (s *userService) GetMe(ctx context.Context, actor Actor) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	user.PasswordHash = ""
	return user, nil
}

// GetProfile returns the public view of another user.
func (s *userService) GetProfile(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	if s.profiles != nil {
		if cached, ok := s.profiles.Get(id); ok {
			return cached, nil
		}
	}
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	profile := publicProfile(user)
	if s.profiles != nil {
		s.profiles.Set(profile)
	}
	return profile, nil
}

func (s *userService) UpdateProfile(ctx context.Context, actor Actor, update ProfileUpdate) (*domain.User, error) {
	update.Name = strings.TrimSpace(update.Name)
	if update.Name == "" {
		return nil, fmt.Errorf("%w: name cannot be empty", ErrValidationFailed)
	}
	user, err := s.userRepo.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	user.Name = update.Name
	user.NameLower = strings.ToLower(update.Name)
	user.Bio = update.Bio
	user.Sport = update.Sport
	user.Location = update.Location
	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	if s.profiles != nil {
		s.profiles.Invalidate(user.ID)
	}
	user.PasswordHash = ""
	return user, nil
}

// Search is a case-insensitive prefix match on name or username.
func (s *userService) Search(ctx context.Context, actor Actor, prefix string, role domain.Role, limit int) ([]domain.User, error) {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" {
		return nil, ErrEmptySearchQuery
	}
	if role != "" && !role.Valid() {
		return nil, ErrInvalidRole
	}
	if limit <= 0 {
		limit = repository.DefaultSearchLimit
	}
	if limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}
	users, err := s.userRepo.Search(ctx, repository.UserSearch{
		Prefix:    prefix,
		Role:      role,
		ExcludeID: actor.ID,
		Limit:     limit,
	})
	if err != nil {
		return nil, err
	}
	return publicProfiles(users), nil
}

// publicProfile strips the credentials and pending request arrays.
func publicProfile(user *domain.User) *domain.User {
	return &domain.User{
		ID:        user.ID,
		Name:      user.Name,
		Username:  user.Username,
		Role:      user.Role,
		Bio:       user.Bio,
		Sport:     user.Sport,
		Location:  user.Location,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

func publicProfiles(users []domain.User) []domain.User {
	out := make([]domain.User, 0, len(users))
	for i := range users {
		out = append(out, *publicProfile(&users[i]))
	}
	return out
}
