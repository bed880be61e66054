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

const setCollectionName = "sets"

type mongoSetRepository struct {
	collection *mongo.Collection
}

// NewMongoSetRepository creates a new Set repository.
func NewMongoSetRepository(db *mongo.Database) repository.SetRepository {
	return &mongoSetRepository{
		collection: db.Collection(setCollectionName),
	}
}

func (r *mongoSetRepository) Create(ctx context.Context, set *domain.Set) (primitive.ObjectID, error) {
	if err := r.CreateMany(ctx, []*domain.Set{set}); err != nil {
		return primitive.NilObjectID, err
	}
	return set.ID, nil
}

func (r *mongoSetRepository) CreateMany(ctx context.Context, sets []*domain.Set) error {
	now := time.Now().UTC()
	for _, s := range sets {
		if s.ProgramID == primitive.NilObjectID || s.ExerciseID == primitive.NilObjectID || !s.ProgramKind.Valid() {
			return repository.ErrInvalid
		}
		s.ID = primitive.NewObjectID()
		s.CreatedAt = now
		s.UpdatedAt = now
		s.Deleted = false
		s.DeletedAt = nil
	}
	return insertMany(ctx, r.collection, sets)
}

func (r *mongoSetRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Set, error) {
	return findOne[domain.Set](ctx, r.collection, bson.M{"_id": id, "deleted": notDeleted})
}

func (r *mongoSetRepository) ListByExercise(ctx context.Context, exerciseID primitive.ObjectID) ([]domain.Set, error) {
	return r.list(ctx, bson.M{"exerciseId": exerciseID})
}

func (r *mongoSetRepository) ListByExercises(ctx context.Context, exerciseIDs []primitive.ObjectID) ([]domain.Set, error) {
	if len(exerciseIDs) == 0 {
		return []domain.Set{}, nil
	}
	return r.list(ctx, bson.M{"exerciseId": bson.M{"$in": exerciseIDs}})
}

func (r *mongoSetRepository) ListByProgram(ctx context.Context, programID primitive.ObjectID) ([]domain.Set, error) {
	return r.list(ctx, bson.M{"programId": programID})
}

func (r *mongoSetRepository) list(ctx context.Context, filter bson.M) ([]domain.Set, error) {
	filter["deleted"] = notDeleted
	findOptions := options.Find().SetSort(bson.D{{Key: "exerciseId", Value: 1}, {Key: "order", Value: 1}})
	return findAll[domain.Set](ctx, r.collection, filter, findOptions)
}

// UpdatePrescription writes the coach's fields only.
func (r *mongoSetRepository) UpdatePrescription(ctx context.Context, set *domain.Set) error {
	return updateByID(ctx, r.collection, set.ID, bson.M{
		"reps":    set.Reps,
		"weight":  set.Weight,
		"rpe":     set.RPE,
		"percent": set.Percent,
		"notes":   set.Notes,
	})
}

// UpdateLog writes the athlete's logged values only.
func (r *mongoSetRepository) UpdateLog(ctx context.Context, set *domain.Set) error {
	return updateByID(ctx, r.collection, set.ID, bson.M{
		"actualReps":   set.ActualReps,
		"actualWeight": set.ActualWeight,
		"actualRpe":    set.ActualRPE,
		"athleteNotes": set.AthleteNotes,
		"completed":    set.Completed,
		"loggedAt":     set.LoggedAt,
	})
}

func (r *mongoSetRepository) SetVideo(ctx context.Context, id primitive.ObjectID, uploadID *primitive.ObjectID) error {
	return updateByID(ctx, r.collection, id, bson.M{"videoUploadId": uploadID})
}

func (r *mongoSetRepository) SetOrder(ctx context.Context, id primitive.ObjectID, order int) error {
	return updateByID(ctx, r.collection, id, bson.M{"order": order})
}

func (r *mongoSetRepository) SoftDeleteMany(ctx context.Context, ids []primitive.ObjectID, at time.Time) error {
	return softDeleteMany(ctx, r.collection, ids, at)
}

func (r *mongoSetRepository) SoftDeleteByProgram(ctx context.Context, programID primitive.ObjectID, at time.Time) error {
	return softDeleteWhere(ctx, r.collection, bson.M{"programId": programID}, at)
}

func (r *mongoSetRepository) HardDeleteMany(ctx context.Context, ids []primitive.ObjectID) error {
	return hardDeleteMany(ctx, r.collection, ids)
}

func EnsureSetIndexes(ctx context.Context, collection *mongo.Collection) error {
	return createIndexes(ctx, collection, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "exerciseId", Value: 1}, {Key: "order", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "programId", Value: 1}},
			Options: options.Index(),
		},
	})
}
