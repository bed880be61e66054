package repository

import (
	"context"
	"time"

	"alcyxob/blockcoach/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for repository layer
var (
	ErrNotFound     = RepositoryError("not found")
	ErrDuplicate    = RepositoryError("duplicate key")
	ErrUpdateFailed = RepositoryError("update failed")
	ErrInvalid      = RepositoryError("invalid document")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// DefaultSearchLimit caps prefix searches when the caller passes no limit.
const DefaultSearchLimit = 20

// UserSearch describes a prefix search over users.
type UserSearch struct {
	Prefix    string             // already lower-cased
	Role      domain.Role        // empty means any role
	ExcludeID primitive.ObjectID // usually the caller
	Limit     int
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.User, error)
	UpdateProfile(ctx context.Context, user *domain.User) error
	// AddLink is an array-union on one of the connection arrays.
	AddLink(ctx context.Context, userID primitive.ObjectID, field domain.LinkField, otherID primitive.ObjectID) error
	// RemoveLink is an array-remove on one of the connection arrays.
	RemoveLink(ctx context.Context, userID primitive.ObjectID, field domain.LinkField, otherID primitive.ObjectID) error
	Search(ctx context.Context, query UserSearch) ([]domain.User, error)
}

// BlockRepository stores blocks. Soft-deleted blocks are invisible to every read.
type BlockRepository interface {
	Create(ctx context.Context, block *domain.Block) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Block, error)
	ListByAthlete(ctx context.Context, athleteID primitive.ObjectID) ([]domain.Block, error)
	ListByCoach(ctx context.Context, coachID primitive.ObjectID) ([]domain.Block, error)
	ListByCoachAndAthlete(ctx context.Context, coachID, athleteID primitive.ObjectID) ([]domain.Block, error)
	Update(ctx context.Context, block *domain.Block) error
	SoftDelete(ctx context.Context, id primitive.ObjectID, at time.Time) error
	HardDelete(ctx context.Context, id primitive.ObjectID) error
}

// TemplateRepository stores templates. Soft-deleted templates are invisible to every read.
type TemplateRepository interface {
	Create(ctx context.Context, template *domain.Template) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Template, error)
	ListByCoach(ctx context.Context, coachID primitive.ObjectID) ([]domain.Template, error)
	Update(ctx context.Context, template *domain.Template) error
	SoftDelete(ctx context.Context, id primitive.ObjectID, at time.Time) error
	HardDelete(ctx context.Context, id primitive.ObjectID) error
}

// The tree repositories below share a shape: CreateMany assigns ids and
// timestamps in place, list methods skip soft-deleted rows and sort by the
// ordinal field, and the delete methods take explicit id lists so a cascade
// can be expressed as one update per collection.

type WeekRepository interface {
	Create(ctx context.Context, week *domain.Week) (primitive.ObjectID, error)
	CreateMany(ctx context.Context, weeks []*domain.Week) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Week, error)
	ListByProgram(ctx context.Context, programID primitive.ObjectID) ([]domain.Week, error)
	Update(ctx context.Context, week *domain.Week) error
	SoftDeleteMany(ctx context.Context, ids []primitive.ObjectID, at time.Time) error
	SoftDeleteByProgram(ctx context.Context, programID primitive.ObjectID, at time.Time) error
	HardDeleteMany(ctx context.Context, ids []primitive.ObjectID) error
}

type DayRepository interface {
	Create(ctx context.Context, day *domain.Day) (primitive.ObjectID, error)
	CreateMany(ctx context.Context, days []*domain.Day) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Day, error)
	ListByWeek(ctx context.Context, weekID primitive.ObjectID) ([]domain.Day, error)
	ListByWeeks(ctx context.Context, weekIDs []primitive.ObjectID) ([]domain.Day, error)
	ListByProgram(ctx context.Context, programID primitive.ObjectID) ([]domain.Day, error)
	// UpdateDetails writes the coach's fields: name, notes and the date with its override flag.
	UpdateDetails(ctx context.Context, day *domain.Day) error
	UpdateCompletion(ctx context.Context, day *domain.Day) error
	SetDayNumber(ctx context.Context, id primitive.ObjectID, dayNumber int) error
	// SetScheduledDate leaves days whose date was overridden untouched.
	SetScheduledDate(ctx context.Context, id primitive.ObjectID, date *time.Time) error
	SoftDeleteMany(ctx context.Context, ids []primitive.ObjectID, at time.Time) error
	SoftDeleteByProgram(ctx context.Context, programID primitive.ObjectID, at time.Time) error
	HardDeleteMany(ctx context.Context, ids []primitive.ObjectID) error
}

type ExerciseRepository interface {
	Create(ctx context.Context, exercise *domain.Exercise) (primitive.ObjectID, error)
	CreateMany(ctx context.Context, exercises []*domain.Exercise) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error)
	ListByDay(ctx context.Context, dayID primitive.ObjectID) ([]domain.Exercise, error)
	ListByDays(ctx context.Context, dayIDs []primitive.ObjectID) ([]domain.Exercise, error)
	ListByProgram(ctx context.Context, programID primitive.ObjectID) ([]domain.Exercise, error)
	ListByPrograms(ctx context.Context, programIDs []primitive.ObjectID) ([]domain.Exercise, error)
	Update(ctx context.Context, exercise *domain.Exercise) error
	SoftDeleteMany(ctx context.Context, ids []primitive.ObjectID, at time.Time) error
	SoftDeleteByProgram(ctx context.Context, programID primitive.ObjectID, at time.Time) error
	HardDeleteMany(ctx context.Context, ids []primitive.ObjectID) error
}

type SetRepository interface {
	Create(ctx context.Context, set *domain.Set) (primitive.ObjectID, error)
	CreateMany(ctx context.Context, sets []*domain.Set) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Set, error)
	ListByExercise(ctx context.Context, exerciseID primitive.ObjectID) ([]domain.Set, error)
	ListByExercises(ctx context.Context, exerciseIDs []primitive.ObjectID) ([]domain.Set, error)
	ListByProgram(ctx context.Context, programID primitive.ObjectID) ([]domain.Set, error)
	// Each write below touches only its own fields, so a coach edit and an
	// athlete log on the same set never overwrite each other.
	UpdatePrescription(ctx context.Context, set *domain.Set) error
	UpdateLog(ctx context.Context, set *domain.Set) error
	SetVideo(ctx context.Context, id primitive.ObjectID, uploadID *primitive.ObjectID) error
	SetOrder(ctx context.Context, id primitive.ObjectID, order int) error
	SoftDeleteMany(ctx context.Context, ids []primitive.ObjectID, at time.Time) error
	SoftDeleteByProgram(ctx context.Context, programID primitive.ObjectID, at time.Time) error
	HardDeleteMany(ctx context.Context, ids []primitive.ObjectID) error
}

// MovementRepository defines the interface for the coach exercise library.
type MovementRepository interface {
	Create(ctx context.Context, movement *domain.Movement) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Movement, error)
	ListByCoach(ctx context.Context, coachID primitive.ObjectID) ([]domain.Movement, error)
	SearchByCoach(ctx context.Context, coachID primitive.ObjectID, prefix string, limit int) ([]domain.Movement, error)
	Update(ctx context.Context, movement *domain.Movement) error
	Delete(ctx context.Context, id primitive.ObjectID, coachID primitive.ObjectID) error // Ensure coach owns the movement
}

// UploadRepository defines the interface for interacting with upload metadata.
type UploadRepository interface {
	Create(ctx context.Context, upload *domain.Upload) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Upload, error)
	GetBySetID(ctx context.Context, setID primitive.ObjectID) (*domain.Upload, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// PrefixUpperBound returns the exclusive upper bound for a range query
// matching every string that starts with prefix.
func PrefixUpperBound(prefix string) string {
	return prefix + "\uffff"
}
