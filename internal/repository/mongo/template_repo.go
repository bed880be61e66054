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

const templateCollectionName = "templates"

type mongoTemplateRepository struct {
	collection *mongo.Collection
}

// NewMongoTemplateRepository creates a new Template repository.
func NewMongoTemplateRepository(db *mongo.Database) repository.TemplateRepository {
	return &mongoTemplateRepository{
		collection: db.Collection(templateCollectionName),
	}
}

func (r *mongoTemplateRepository) Create(ctx context.Context, template *domain.Template) (primitive.ObjectID, error) {
	if template.CoachID == primitive.NilObjectID || template.Name == "" {
		return primitive.NilObjectID, errors.New("template requires coachId and name")
	}
	template.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	template.CreatedAt = now
	template.UpdatedAt = now
	template.Deleted = false

	result, err := r.collection.InsertOne(ctx, template)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return insertedObjectID(result)
}

func (r *mongoTemplateRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Template, error) {
	return findOne[domain.Template](ctx, r.collection, bson.M{"_id": id, "deleted": notDeleted})
}

// ListByCoach returns the coach's templates sorted by name.
func (r *mongoTemplateRepository) ListByCoach(ctx context.Context, coachID primitive.ObjectID) ([]domain.Template, error) {
	filter := bson.M{"coachId": coachID, "deleted": notDeleted}
	findOptions := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	return findAll[domain.Template](ctx, r.collection, filter, findOptions)
}

func (r *mongoTemplateRepository) Update(ctx context.Context, template *domain.Template) error {
	return updateByID(ctx, r.collection, template.ID, bson.M{
		"name":        template.Name,
		"description": template.Description,
	})
}

func (r *mongoTemplateRepository) SoftDelete(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	return softDeleteMany(ctx, r.collection, []primitive.ObjectID{id}, at)
}

func (r *mongoTemplateRepository) HardDelete(ctx context.Context, id primitive.ObjectID) error {
	return hardDeleteMany(ctx, r.collection, []primitive.ObjectID{id})
}

func EnsureTemplateIndexes(ctx context.Context, collection *mongo.Collection) error {
	return createIndexes(ctx, collection, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "coachId", Value: 1}, {Key: "name", Value: 1}},
			Options: options.Index(),
		},
	})
}
