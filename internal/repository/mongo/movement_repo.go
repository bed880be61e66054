package mongo

import (
	"context"
	"errors"
	"strings"
	"time"

	"alcyxob/blockcoach/internal/domain"
	"alcyxob/blockcoach/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const movementCollectionName = "movements"

// mongoMovementRepository implements repository.MovementRepository
type mongoMovementRepository struct {
	collection *mongo.Collection
}

// NewMongoMovementRepository creates a new Movement repository backed by MongoDB.
func NewMongoMovementRepository(db *mongo.Database) repository.MovementRepository {
	return &mongoMovementRepository{
		collection: db.Collection(movementCollectionName),
	}
}

// Create inserts a new movement into the coach's library.
func (r *mongoMovementRepository) Create(ctx context.Context, movement *domain.Movement) (primitive.ObjectID, error) {
	if movement.Name == "" || movement.CoachID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("movement name and coach ID are required")
	}

	movement.ID = primitive.NewObjectID()
	movement.NameLower = strings.ToLower(movement.Name)
	now := time.Now().UTC()
	movement.CreatedAt = now
	movement.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, movement)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return insertedObjectID(result)
}

// GetByID retrieves a movement by its ID.
func (r *mongoMovementRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Movement, error) {
	return findOne[domain.Movement](ctx, r.collection, bson.M{"_id": id})
}

// ListByCoach retrieves all movements created by a specific coach, by name.
func (r *mongoMovementRepository) ListByCoach(ctx context.Context, coachID primitive.ObjectID) ([]domain.Movement, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "nameLower", Value: 1}})
	return findAll[domain.Movement](ctx, r.collection, bson.M{"coachId": coachID}, findOptions)
}

// SearchByCoach is a prefix search over the coach's library.
func (r *mongoMovementRepository) SearchByCoach(ctx context.Context, coachID primitive.ObjectID, prefix string, limit int) ([]domain.Movement, error) {
	if limit <= 0 {
		limit = repository.DefaultSearchLimit
	}
	filter := bson.M{
		"coachId":   coachID,
		"nameLower": bson.M{"$gte": prefix, "$lt": repository.PrefixUpperBound(prefix)},
	}
	findOptions := options.Find().
		SetSort(bson.D{{Key: "nameLower", Value: 1}}).
		SetLimit(int64(limit))
	return findAll[domain.Movement](ctx, r.collection, filter, findOptions)
}

// Update modifies an existing movement. CoachID is never changed here.
func (r *mongoMovementRepository) Update(ctx context.Context, movement *domain.Movement) error {
	if movement.ID == primitive.NilObjectID {
		return errors.New("movement ID is required for update")
	}
	if movement.Name == "" {
		return errors.New("movement name cannot be empty")
	}
	update := bson.M{
		"$set": bson.M{
			"name":          movement.Name,
			"nameLower":     strings.ToLower(movement.Name),
			"description":   movement.Description,
			"muscleGroup":   movement.MuscleGroup,
			"technique":     movement.Technique,
			"applicability": movement.Applicability,
			"difficulty":    movement.Difficulty,
			"videoUrl":      movement.VideoURL,
			"updatedAt":     time.Now().UTC(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": movement.ID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes a movement, ensuring it belongs to the specified coach.
func (r *mongoMovementRepository) Delete(ctx context.Context, id primitive.ObjectID, coachID primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "coachId": coachID})
	if err != nil {
		return err
	}
	// Either missing or owned by somebody else; both look the same from here.
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureMovementIndexes creates necessary indexes for the movements collection.
func EnsureMovementIndexes(ctx context.Context, collection *mongo.Collection) error {
	return createIndexes(ctx, collection, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "coachId", Value: 1}, {Key: "nameLower", Value: 1}},
			Options: options.Index(),
		},
	})
}
