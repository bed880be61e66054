package service

import (
	"context"
	"errors"
	"time"

	"alcyxob/blockcoach/internal/domain"
	"alcyxob/blockcoach/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Actor is the authenticated caller as read from the access token.
type Actor struct {
	ID   primitive.ObjectID
	Role domain.Role
}

func (a Actor) IsCoach() bool   { return a.Role == domain.RoleCoach }
func (a Actor) IsAthlete() bool { return a.Role == domain.RoleAthlete }

// TreeRepos groups the four child collections of a program.
type TreeRepos struct {
	Weeks     repository.WeekRepository
	Days      repository.DayRepository
	Exercises repository.ExerciseRepository
	Sets      repository.SetRepository
}

// program is a resolved block or template root.
type program struct {
	Ref       domain.ProgramRef
	CoachID   primitive.ObjectID
	AthleteID primitive.ObjectID // zero for templates
	StartDate *time.Time         // only blocks carry one
	Block     *domain.Block
	Template  *domain.Template
}

func (p *program) editableBy(actor Actor) bool {
	return actor.IsCoach() && p.CoachID == actor.ID
}

func (p *program) viewableBy(actor Actor) bool {
	if p.editableBy(actor) {
		return true
	}
	return p.Ref.Kind == domain.KindBlock && actor.IsAthlete() && p.AthleteID == actor.ID
}

// programLoader resolves ProgramRefs and checks access.
type programLoader struct {
	blockRepo    repository.BlockRepository
	templateRepo repository.TemplateRepository
}

func (l programLoader) load(ctx context.Context, ref domain.ProgramRef) (*program, error) {
	switch ref.Kind {
	case domain.KindBlock:
		block, err := l.blockRepo.GetByID(ctx, ref.ID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrBlockNotFound
			}
			return nil, err
		}
		return &program{Ref: ref, CoachID: block.CoachID, AthleteID: block.AthleteID, StartDate: block.StartDate, Block: block}, nil
	case domain.KindTemplate:
		template, err := l.templateRepo.GetByID(ctx, ref.ID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrTemplateNotFound
			}
			return nil, err
		}
		return &program{Ref: ref, CoachID: template.CoachID, Template: template}, nil
	}
	return nil, ErrValidationFailed
}

func (l programLoader) forEdit(ctx context.Context, actor Actor, ref domain.ProgramRef) (*program, error) {
	p, err := l.load(ctx, ref)
	if err != nil {
		return nil, err
	}
	if !p.editableBy(actor) {
		return nil, ErrProgramAccessDenied
	}
	return p, nil
}

func (l programLoader) forView(ctx context.Context, actor Actor, ref domain.ProgramRef) (*program, error) {
	p, err := l.load(ctx, ref)
	if err != nil {
		return nil, err
	}
	if !p.viewableBy(actor) {
		return nil, ErrProgramAccessDenied
	}
	return p, nil
}

// notFound maps a repository miss to the given service error.
func notFound(err error, mapped error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return mapped
	}
	return err
}
