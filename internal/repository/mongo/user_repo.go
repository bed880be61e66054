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

const userCollectionName = "users"

// mongoUserRepository implements the repository.UserRepository interface using MongoDB.
type mongoUserRepository struct {
	collection *mongo.Collection
}

// NewMongoUserRepository creates a new instance of mongoUserRepository.
func NewMongoUserRepository(db *mongo.Database) repository.UserRepository {
	return &mongoUserRepository{
		collection: db.Collection(userCollectionName),
	}
}

// Create inserts a new user into the database.
func (r *mongoUserRepository) Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error) {
	if user.Email == "" || user.Username == "" || user.PasswordHash == "" || user.Role == "" {
		return primitive.NilObjectID, errors.New("user email, username, password hash, and role are required")
	}

	user.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, user)
	if err != nil {
		// email and username carry unique indexes
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
		return primitive.NilObjectID, err
	}
	return insertedObjectID(result)
}

// GetByEmail retrieves a user by their email address.
func (r *mongoUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return findOne[domain.User](ctx, r.collection, bson.M{"email": email})
}

// GetByUsername retrieves a user by their username.
func (r *mongoUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return findOne[domain.User](ctx, r.collection, bson.M{"username": username})
}

// GetByID retrieves a user by their MongoDB ObjectID.
func (r *mongoUserRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	return findOne[domain.User](ctx, r.collection, bson.M{"_id": id})
}

// GetByIDs retrieves all users whose id is in ids, sorted by name.
func (r *mongoUserRepository) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.User, error) {
	if len(ids) == 0 {
		return []domain.User{}, nil
	}
	filter := bson.M{"_id": bson.M{"$in": ids}}
	findOptions := options.Find().SetSort(bson.D{{Key: "nameLower", Value: 1}})
	return findAll[domain.User](ctx, r.collection, filter, findOptions)
}

// UpdateProfile writes the editable profile fields.
func (r *mongoUserRepository) UpdateProfile(ctx context.Context, user *domain.User) error {
	if user.ID == primitive.NilObjectID {
		return errors.New("user ID is required for update")
	}
	update := bson.M{
		"$set": bson.M{
			"name":      user.Name,
			"nameLower": user.NameLower,
			"bio":       user.Bio,
			"sport":     user.Sport,
			"location":  user.Location,
			"updatedAt": time.Now().UTC(),
		},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": user.ID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// AddLink adds otherID to one of the user's connection arrays.
func (r *mongoUserRepository) AddLink(ctx context.Context, userID primitive.ObjectID, field domain.LinkField, otherID primitive.ObjectID) error {
	update := bson.M{
		"$addToSet": bson.M{string(field): otherID}, // $addToSet prevents duplicates
		"$set":      bson.M{"updatedAt": time.Now().UTC()},
	}
	return r.updateLinks(ctx, userID, update)
}

// RemoveLink removes otherID from one of the user's connection arrays.
func (r *mongoUserRepository) RemoveLink(ctx context.Context, userID primitive.ObjectID, field domain.LinkField, otherID primitive.ObjectID) error {
	update := bson.M{
		"$pull": bson.M{string(field): otherID},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}
	return r.updateLinks(ctx, userID, update)
}

func (r *mongoUserRepository) updateLinks(ctx context.Context, userID primitive.ObjectID, update bson.M) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": userID}, update)
	if err != nil {
		return err
	}
	// ModifiedCount is 0 when the array already had (or lacked) the id, which is fine.
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Search runs a case-insensitive prefix query on name or username.
// Both fields are stored lower-cased, so a range scan keeps the query on the indexes.
func (r *mongoUserRepository) Search(ctx context.Context, query repository.UserSearch) ([]domain.User, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = repository.DefaultSearchLimit
	}
	upper := repository.PrefixUpperBound(query.Prefix)
	filter := bson.M{
		"$or": bson.A{
			bson.M{"nameLower": bson.M{"$gte": query.Prefix, "$lt": upper}},
			bson.M{"username": bson.M{"$gte": query.Prefix, "$lt": upper}},
		},
	}
	if query.Role != "" {
		filter["role"] = query.Role
	}
	if query.ExcludeID != primitive.NilObjectID {
		filter["_id"] = bson.M{"$ne": query.ExcludeID}
	}
	findOptions := options.Find().
		SetSort(bson.D{{Key: "nameLower", Value: 1}}).
		SetLimit(int64(limit))
	return findAll[domain.User](ctx, r.collection, filter, findOptions)
}

// EnsureUserIndexes creates necessary indexes for the users collection.
func EnsureUserIndexes(ctx context.Context, collection *mongo.Collection) error {
	return createIndexes(ctx, collection, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			// prefix search by name, optionally narrowed by role
			Keys:    bson.D{{Key: "nameLower", Value: 1}, {Key: "role", Value: 1}},
			Options: options.Index(),
		},
	})
}
