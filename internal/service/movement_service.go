package service

import (
	"context"
	"fmt"
	"strings"

	"alcyxob/blockcoach/internal/domain"
	"alcyxob/blockcoach/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MovementInput holds the editable fields of a library entry.
type MovementInput struct {
	Name          string
	Description   string
	MuscleGroup   string
	Technique     string
	Applicability string
	Difficulty    string
	VideoURL      string
}

// MovementService manages a coach's exercise library.
type MovementService interface {
	CreateMovement(ctx context.Context, actor Actor, in MovementInput) (*domain.Movement, error)
	GetMovement(ctx context.Context, actor Actor, id primitive.ObjectID) (*domain.Movement, error)
	ListMovements(ctx context.Context, actor Actor, prefix string, limit int) ([]domain.Movement, error)
	UpdateMovement(ctx context.Context, actor Actor, id primitive.ObjectID, in MovementInput) (*domain.Movement, error)
	DeleteMovement(ctx context.Context, actor Actor, id primitive.ObjectID) error
}

type movementService struct {
	movementRepo repository.MovementRepository
}

func NewMovementService(movementRepo repository.MovementRepository) MovementService {
	return &movementService{movementRepo: movementRepo}
}

func (in MovementInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: movement name is required", ErrValidationFailed)
	}
	return nil
}

func (in MovementInput) applyTo(m *domain.Movement) {
	m.Name = strings.TrimSpace(in.Name)
	m.Description = in.Description
	m.MuscleGroup = in.MuscleGroup
	m.Technique = in.Technique
	m.Applicability = in.Applicability
	m.Difficulty = in.Difficulty
	m.VideoURL = in.VideoURL
}

func (s *movementService) CreateMovement(ctx context.Context, actor Actor, in MovementInput) (*domain.Movement, error) {
	if !actor.IsCoach() {
		return nil, ErrCoachOnly
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	movement := &domain.Movement{CoachID: actor.ID}
	in.applyTo(movement)
	if _, err := s.movementRepo.Create(ctx, movement); err != nil {
		return nil, err
	}
	return movement, nil
}

// GetMovement returns a library entry to its owner.
func (s *movementService) GetMovement(ctx context.Context, actor Actor, id primitive.ObjectID) (*domain.Movement, error) {
	movement, err := s.movementRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrMovementNotFound)
	}
	if movement.CoachID != actor.ID {
		return nil, ErrMovementAccessDenied
	}
	return movement, nil
}

// ListMovements returns the whole library, or a prefix match when prefix is set.
func (s *movementService) ListMovements(ctx context.Context, actor Actor, prefix string, limit int) ([]domain.Movement, error) {
	if !actor.IsCoach() {
		return nil, ErrCoachOnly
	}
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" {
		return s.movementRepo.ListByCoach(ctx, actor.ID)
	}
	if limit <= 0 {
		limit = repository.DefaultSearchLimit
	}
	if limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}
	return s.movementRepo.SearchByCoach(ctx, actor.ID, prefix, limit)
}

func (s *movementService) UpdateMovement(ctx context.Context, actor Actor, id primitive.ObjectID, in MovementInput) (*domain.Movement, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	movement, err := s.GetMovement(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	in.applyTo(movement)
	if err := s.movementRepo.Update(ctx, movement); err != nil {
		return nil, notFound(err, ErrMovementNotFound)
	}
	return movement, nil
}

// DeleteMovement removes the entry for good. Exercises that linked it keep their own name.
func (s *movementService) DeleteMovement(ctx context.Context, actor Actor, id primitive.ObjectID) error {
	if _, err := s.GetMovement(ctx, actor, id); err != nil {
		return err
	}
	return notFound(s.movementRepo.Delete(ctx, id, actor.ID), ErrMovementNotFound)
}
