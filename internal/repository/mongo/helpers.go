package mongo

import (
	"context"
	"errors"
	"time"

	"alcyxob/blockcoach/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// notDeleted is merged into every read filter of soft-deletable collections.
// Documents written before the flag existed have no field at all, so test for "not true".
var notDeleted = bson.M{"$ne": true}

func findAll[T any](ctx context.Context, collection *mongo.Collection, filter bson.M, opts ...*options.FindOptions) ([]T, error) {
	cursor, err := collection.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	results := []T{}
	if err = cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func findOne[T any](ctx context.Context, collection *mongo.Collection, filter bson.M) (*T, error) {
	var doc T
	err := collection.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &doc, nil
}

func insertMany[T any](ctx context.Context, collection *mongo.Collection, docs []*T) error {
	if len(docs) == 0 {
		return nil
	}
	payload := make([]interface{}, len(docs))
	for i, doc := range docs {
		payload[i] = doc
	}
	// Ordered insert stops at the first failure; the caller tracks the ids it assigned
	// and cleans up whatever made it in.
	_, err := collection.InsertMany(ctx, payload, options.InsertMany().SetOrdered(true))
	return err
}

func softDeleteWhere(ctx context.Context, collection *mongo.Collection, filter bson.M, at time.Time) error {
	filter["deleted"] = notDeleted
	update := bson.M{"$set": bson.M{"deleted": true, "deletedAt": at, "updatedAt": at}}
	_, err := collection.UpdateMany(ctx, filter, update)
	return err
}

func softDeleteMany(ctx context.Context, collection *mongo.Collection, ids []primitive.ObjectID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	return softDeleteWhere(ctx, collection, bson.M{"_id": bson.M{"$in": ids}}, at)
}

func hardDeleteMany(ctx context.Context, collection *mongo.Collection, ids []primitive.ObjectID) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := collection.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	return err
}

func updateByID(ctx context.Context, collection *mongo.Collection, id primitive.ObjectID, set bson.M) error {
	if id == primitive.NilObjectID {
		return repository.ErrInvalid
	}
	set["updatedAt"] = time.Now().UTC()
	result, err := collection.UpdateOne(ctx, bson.M{"_id": id, "deleted": notDeleted}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func insertedObjectID(result *mongo.InsertOneResult) (primitive.ObjectID, error) {
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

func createIndexes(ctx context.Context, collection *mongo.Collection, indexes []mongo.IndexModel) error {
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
