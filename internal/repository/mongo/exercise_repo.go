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

const exerciseCollectionName = "exercises"

// mongoExerciseRepository implements repository.ExerciseRepository
type mongoExerciseRepository struct {
	collection *mongo.Collection
}

// NewMongoExerciseRepository creates a new Exercise repository backed by MongoDB.
func NewMongoExerciseRepository(db *mongo.Database) repository.ExerciseRepository {
	return &mongoExerciseRepository{
		collection: db.Collection(exerciseCollectionName),
	}
}

func (r *mongoExerciseRepository) Create(ctx context.Context, exercise *domain.Exercise) (primitive.ObjectID, error) {
	if err := r.CreateMany(ctx, []*domain.Exercise{exercise}); err != nil {
		return primitive.NilObjectID, err
	}
	return exercise.ID, nil
}

func (r *mongoExerciseRepository) CreateMany(ctx context.Context, exercises []*domain.Exercise) error {
	now := time.Now().UTC()
	for _, e := range exercises {
		if e.ProgramID == primitive.NilObjectID || e.DayID == primitive.NilObjectID || !e.ProgramKind.Valid() || e.Name == "" {
			return repository.ErrInvalid
		}
		e.ID = primitive.NewObjectID()
		e.CreatedAt = now
		e.UpdatedAt = now
		e.Deleted = false
		e.DeletedAt = nil
	}
	return insertMany(ctx, r.collection, exercises)
}

func (r *mongoExerciseRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error) {
	return findOne[domain.Exercise](ctx, r.collection, bson.M{"_id": id, "deleted": notDeleted})
}

func (r *mongoExerciseRepository) ListByDay(ctx context.Context, dayID primitive.ObjectID) ([]domain.Exercise, error) {
	return r.list(ctx, bson.M{"dayId": dayID})
}

func (r *mongoExerciseRepository) ListByDays(ctx context.Context, dayIDs []primitive.ObjectID) ([]domain.Exercise, error) {
	if len(dayIDs) == 0 {
		return []domain.Exercise{}, nil
	}
	return r.list(ctx, bson.M{"dayId": bson.M{"$in": dayIDs}})
}

func (r *mongoExerciseRepository) ListByProgram(ctx context.Context, programID primitive.ObjectID) ([]domain.Exercise, error) {
	return r.list(ctx, bson.M{"programId": programID})
}

func (r *mongoExerciseRepository) ListByPrograms(ctx context.Context, programIDs []primitive.ObjectID) ([]domain.Exercise, error) {
	if len(programIDs) == 0 {
		return []domain.Exercise{}, nil
	}
	return r.list(ctx, bson.M{"programId": bson.M{"$in": programIDs}})
}

func (r *mongoExerciseRepository) list(ctx context.Context, filter bson.M) ([]domain.Exercise, error) {
	filter["deleted"] = notDeleted
	findOptions := options.Find().SetSort(bson.D{{Key: "dayId", Value: 1}, {Key: "order", Value: 1}})
	return findAll[domain.Exercise](ctx, r.collection, filter, findOptions)
}

func (r *mongoExerciseRepository) Update(ctx context.Context, exercise *domain.Exercise) error {
	return updateByID(ctx, r.collection, exercise.ID, bson.M{
		"order":      exercise.Order,
		"name":       exercise.Name,
		"movementId": exercise.MovementID,
		"notes":      exercise.Notes,
	})
}

func (r *mongoExerciseRepository) SoftDeleteMany(ctx context.Context, ids []primitive.ObjectID, at time.Time) error {
	return softDeleteMany(ctx, r.collection, ids, at)
}

func (r *mongoExerciseRepository) SoftDeleteByProgram(ctx context.Context, programID primitive.ObjectID, at time.Time) error {
	return softDeleteWhere(ctx, r.collection, bson.M{"programId": programID}, at)
}

func (r *mongoExerciseRepository) HardDeleteMany(ctx context.Context, ids []primitive.ObjectID) error {
	return hardDeleteMany(ctx, r.collection, ids)
}

// EnsureExerciseIndexes creates necessary indexes for the exercises collection.
func EnsureExerciseIndexes(ctx context.Context, collection *mongo.Collection) error {
	return createIndexes(ctx, collection, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "dayId", Value: 1}, {Key: "order", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "programId", Value: 1}},
			Options: options.Index(),
		},
	})
}
