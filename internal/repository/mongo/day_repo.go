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

const dayCollectionName = "days"

type mongoDayRepository struct {
	collection *mongo.Collection
}

// NewMongoDayRepository creates a new Day repository.
func NewMongoDayRepository(db *mongo.Database) repository.DayRepository {
	return &mongoDayRepository{
		collection: db.Collection(dayCollectionName),
	}
}

func (r *mongoDayRepository) Create(ctx context.Context, day *domain.Day) (primitive.ObjectID, error) {
	if err := r.CreateMany(ctx, []*domain.Day{day}); err != nil {
		return primitive.NilObjectID, err
	}
	return day.ID, nil
}

func (r *mongoDayRepository) CreateMany(ctx context.Context, days []*domain.Day) error {
	now := time.Now().UTC()
	for _, d := range days {
		if d.ProgramID == primitive.NilObjectID || d.WeekID == primitive.NilObjectID || !d.ProgramKind.Valid() || d.DayNumber < 1 {
			return repository.ErrInvalid
		}
		d.ID = primitive.NewObjectID()
		d.CreatedAt = now
		d.UpdatedAt = now
		d.Deleted = false
		d.DeletedAt = nil
	}
	return insertMany(ctx, r.collection, days)
}

func (r *mongoDayRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Day, error) {
	return findOne[domain.Day](ctx, r.collection, bson.M{"_id": id, "deleted": notDeleted})
}

func (r *mongoDayRepository) ListByWeek(ctx context.Context, weekID primitive.ObjectID) ([]domain.Day, error) {
	return r.list(ctx, bson.M{"weekId": weekID})
}

func (r *mongoDayRepository) ListByWeeks(ctx context.Context, weekIDs []primitive.ObjectID) ([]domain.Day, error) {
	if len(weekIDs) == 0 {
		return []domain.Day{}, nil
	}
	return r.list(ctx, bson.M{"weekId": bson.M{"$in": weekIDs}})
}

func (r *mongoDayRepository) ListByProgram(ctx context.Context, programID primitive.ObjectID) ([]domain.Day, error) {
	return r.list(ctx, bson.M{"programId": programID})
}

func (r *mongoDayRepository) list(ctx context.Context, filter bson.M) ([]domain.Day, error) {
	filter["deleted"] = notDeleted
	findOptions := options.Find().SetSort(bson.D{{Key: "weekId", Value: 1}, {Key: "dayNumber", Value: 1}})
	return findAll[domain.Day](ctx, r.collection, filter, findOptions)
}

func (r *mongoDayRepository) UpdateDetails(ctx context.Context, day *domain.Day) error {
	return updateByID(ctx, r.collection, day.ID, bson.M{
		"name":           day.Name,
		"notes":          day.Notes,
		"date":           day.Date,
		"dateOverridden": day.DateOverridden,
	})
}

func (r *mongoDayRepository) UpdateCompletion(ctx context.Context, day *domain.Day) error {
	return updateByID(ctx, r.collection, day.ID, bson.M{
		"completed":   day.Completed,
		"completedAt": day.CompletedAt,
	})
}

func (r *mongoDayRepository) SetDayNumber(ctx context.Context, id primitive.ObjectID, dayNumber int) error {
	return updateByID(ctx, r.collection, id, bson.M{"dayNumber": dayNumber})
}

func (r *mongoDayRepository) SetScheduledDate(ctx context.Context, id primitive.ObjectID, date *time.Time) error {
	if id == primitive.NilObjectID {
		return repository.ErrInvalid
	}
	// the override check is part of the filter, so a concurrent manual date wins
	filter := bson.M{"_id": id, "deleted": notDeleted, "dateOverridden": bson.M{"$ne": true}}
	update := bson.M{"$set": bson.M{"date": date, "updatedAt": time.Now().UTC()}}
	_, err := r.collection.UpdateOne(ctx, filter, update)
	return err
}

func (r *mongoDayRepository) SoftDeleteMany(ctx context.Context, ids []primitive.ObjectID, at time.Time) error {
	return softDeleteMany(ctx, r.collection, ids, at)
}

func (r *mongoDayRepository) SoftDeleteByProgram(ctx context.Context, programID primitive.ObjectID, at time.Time) error {
	return softDeleteWhere(ctx, r.collection, bson.M{"programId": programID}, at)
}

func (r *mongoDayRepository) HardDeleteMany(ctx context.Context, ids []primitive.ObjectID) error {
	return hardDeleteMany(ctx, r.collection, ids)
}

func EnsureDayIndexes(ctx context.Context, collection *mongo.Collection) error {
	return createIndexes(ctx, collection, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "weekId", Value: 1}, {Key: "dayNumber", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "programId", Value: 1}},
			Options: options.Index(),
		},
	})
}
