package mongo

import (
	"context"
	"time"

	"alcyxob/blockcoach/internal/domain"
	"alcyxob/blockcoach/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const weekCollectionName = "weeks"

// mongoWeekRepository implements repository.WeekRepository
type mongoWeekRepository struct {
	collection *mongo.Collection
}

// NewMongoWeekRepository creates a new Week repository.
func NewMongoWeekRepository(db *mongo.Database) repository.WeekRepository {
	return &mongoWeekRepository{
		collection: db.Collection(weekCollectionName),
	}
}

func prepareWeek(week *domain.Week, now time.Time) error {
	if week.ProgramID == primitive.NilObjectID || !week.ProgramKind.Valid() || week.WeekNumber < 1 {
		return repository.ErrInvalid
	}
	week.ID = primitive.NewObjectID()
	week.CreatedAt = now
	week.UpdatedAt = now
	week.Deleted = false
	week.DeletedAt = nil
	return nil
}

// Create inserts a single week.
func (r *mongoWeekRepository) Create(ctx context.Context, week *domain.Week) (primitive.ObjectID, error) {
	if err := r.CreateMany(ctx, []*domain.Week{week}); err != nil {
		return primitive.NilObjectID, err
	}
	return week.ID, nil
}

// CreateMany assigns ids to every week before inserting, so callers can link children right away.
func (r *mongoWeekRepository) CreateMany(ctx context.Context, weeks []*domain.Week) error {
	now := time.Now().UTC()
	for _, w := range weeks {
		if err := prepareWeek(w, now); err != nil {
			return err
		}
	}
	return insertMany(ctx, r.collection, weeks)
}

func (r *mongoWeekRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Week, error) {
	return findOne[domain.Week](ctx, r.collection, bson.M{"_id": id, "deleted": notDeleted})
}

// ListByProgram returns the live weeks of a block or template ordered by week number.
func (r *mongoWeekRepository) ListByProgram(ctx context.Context, programID primitive.ObjectID) ([]domain.Week, error) {
	filter := bson.M{"programId": programID, "deleted": notDeleted}
	findOptions := options.Find().SetSort(bson.D{{Key: "weekNumber", Value: 1}})
	return findAll[domain.Week](ctx, r.collection, filter, findOptions)
}

func (r *mongoWeekRepository) Update(ctx context.Context, week *domain.Week) error {
	return updateByID(ctx, r.collection, week.ID, bson.M{
		"weekNumber": week.WeekNumber,
		"name":       week.Name,
		"notes":      week.Notes,
	})
}

func (r *mongoWeekRepository) SoftDeleteMany(ctx context.Context, ids []primitive.ObjectID, at time.Time) error {
	return softDeleteMany(ctx, r.collection, ids, at)
}

func (r *mongoWeekRepository) SoftDeleteByProgram(ctx context.Context, programID primitive.ObjectID, at time.Time) error {
	return softDeleteWhere(ctx, r.collection, bson.M{"programId": programID}, at)
}

func (r *mongoWeekRepository) HardDeleteMany(ctx context.Context, ids []primitive.ObjectID) error {
	return hardDeleteMany(ctx, r.collection, ids)
}

func EnsureWeekIndexes(ctx context.Context, collection *mongo.Collection) error {
	return createIndexes(ctx, collection, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "programId", Value: 1}, {Key: "weekNumber", Value: 1}},
			Options: options.Index(),
		},
	})
}
