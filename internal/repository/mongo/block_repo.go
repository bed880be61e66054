// internal/repository/mongo/block_repo.go
package mongo

import (
	"context"
	"errors"
	"time"

	"alcyxob/blockcoach/internal/domain"
	"alcyxob/blockcoach/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const blockCollectionName = "blocks"

// mongoBlockRepository implements repository.BlockRepository
type mongoBlockRepository struct {
	collection *mongo.Collection
}

// NewMongoBlockRepository creates a new Block repository.
func NewMongoBlockRepository(db *mongo.Database) repository.BlockRepository {
	return &mongoBlockRepository{
		collection: db.Collection(blockCollectionName),
	}
}

// Create inserts a new block.
func (r *mongoBlockRepository) Create(ctx context.Context, block *domain.Block) (primitive.ObjectID, error) {
	if block.AthleteID == primitive.NilObjectID || block.CoachID == primitive.NilObjectID || block.Name == "" {
		return primitive.NilObjectID, errors.New("block requires athleteId, coachId, and name")
	}
	block.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	block.CreatedAt = now
	block.UpdatedAt = now
	block.Deleted = false

	result, err := r.collection.InsertOne(ctx, block)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return insertedObjectID(result)
}

// GetByID retrieves a single live block by its ID.
func (r *mongoBlockRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Block, error) {
	return findOne[domain.Block](ctx, r.collection, bson.M{"_id": id, "deleted": notDeleted})
}

// ListByAthlete retrieves the athlete's blocks, newest start first.
func (r *mongoBlockRepository) ListByAthlete(ctx context.Context, athleteID primitive.ObjectID) ([]domain.Block, error) {
	filter := bson.M{"athleteId": athleteID, "deleted": notDeleted}
	return findAll[domain.Block](ctx, r.collection, filter, blockSort())
}

// ListByCoach retrieves every block the coach created.
func (r *mongoBlockRepository) ListByCoach(ctx context.Context, coachID primitive.ObjectID) ([]domain.Block, error) {
	filter := bson.M{"coachId": coachID, "deleted": notDeleted}
	return findAll[domain.Block](ctx, r.collection, filter, blockSort())
}

// ListByCoachAndAthlete retrieves the blocks a coach wrote for one athlete.
func (r *mongoBlockRepository) ListByCoachAndAthlete(ctx context.Context, coachID, athleteID primitive.ObjectID) ([]domain.Block, error) {
	filter := bson.M{
		"coachId":   coachID,
		"athleteId": athleteID,
		"deleted":   notDeleted,
	}
	return findAll[domain.Block](ctx, r.collection, filter, blockSort())
}

func blockSort() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "startDate", Value: -1}, {Key: "createdAt", Value: -1}})
}

// Update writes the block metadata. Owner and athlete never change.
func (r *mongoBlockRepository) Update(ctx context.Context, block *domain.Block) error {
	return updateByID(ctx, r.collection, block.ID, bson.M{
		"name":        block.Name,
		"description": block.Description,
		"startDate":   block.StartDate,
		"endDate":     block.EndDate,
	})
}

// SoftDelete flags the block itself; the caller cascades to the tree.
func (r *mongoBlockRepository) SoftDelete(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	return softDeleteMany(ctx, r.collection, []primitive.ObjectID{id}, at)
}

// HardDelete removes the document. Used to undo a failed copy.
func (r *mongoBlockRepository) HardDelete(ctx context.Context, id primitive.ObjectID) error {
	return hardDeleteMany(ctx, r.collection, []primitive.ObjectID{id})
}

// EnsureBlockIndexes creates necessary indexes. Call during startup.
func EnsureBlockIndexes(ctx context.Context, collection *mongo.Collection) error {
	return createIndexes(ctx, collection, []mongo.IndexModel{
		{
			// main query pattern: a coach looking at one athlete
			Keys:    bson.D{{Key: "coachId", Value: 1}, {Key: "athleteId", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "athleteId", Value: 1}, {Key: "startDate", Value: -1}},
			Options: options.Index(),
		},
	})
}
