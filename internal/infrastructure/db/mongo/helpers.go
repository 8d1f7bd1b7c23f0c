package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	byCreated  = bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}
	byPosition = bson.D{{Key: "position", Value: 1}, {Key: "_id", Value: 1}}
	byDate     = bson.D{{Key: "date", Value: 1}, {Key: "_id", Value: 1}}
)

func insertOne(ctx context.Context, col *mongo.Collection, doc any, duplicate error) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := col.InsertOne(ctx, doc); err != nil {
		if duplicate != nil && mongo.IsDuplicateKeyError(err) {
			return duplicate
		}
		return fmt.Errorf("insert into %s: %w", col.Name(), err)
	}
	return nil
}

func findOne[T any](ctx context.Context, col *mongo.Collection, filter bson.M, notFound error) (*T, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var v T
	if err := col.FindOne(ctx, filter).Decode(&v); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, notFound
		}
		return nil, fmt.Errorf("find in %s: %w", col.Name(), err)
	}
	return &v, nil
}

func findAll[T any](ctx context.Context, col *mongo.Collection, filter bson.M, sort bson.D) ([]*T, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := col.Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, fmt.Errorf("find in %s: %w", col.Name(), err)
	}
	defer cur.Close(ctx)

	var out []*T
	for cur.Next(ctx) {
		var v T
		if err := cur.Decode(&v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", col.Name(), err)
		}
		out = append(out, &v)
	}
	return out, cur.Err()
}

func replaceOne(ctx context.Context, col *mongo.Collection, id string, doc any, notFound, duplicate error) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := col.ReplaceOne(ctx, bson.M{"_id": id}, doc)
	if err != nil {
		if duplicate != nil && mongo.IsDuplicateKeyError(err) {
			return duplicate
		}
		return fmt.Errorf("replace in %s: %w", col.Name(), err)
	}
	if res.MatchedCount == 0 {
		return notFound
	}
	return nil
}

func updateByID(ctx context.Context, col *mongo.Collection, id string, update bson.M, notFound error) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := col.UpdateByID(ctx, id, update)
	if err != nil {
		return fmt.Errorf("update in %s: %w", col.Name(), err)
	}
	if res.MatchedCount == 0 {
		return notFound
	}
	return nil
}

func deleteByID(ctx context.Context, col *mongo.Collection, id string, notFound error) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete from %s: %w", col.Name(), err)
	}
	if res.DeletedCount == 0 {
		return notFound
	}
	return nil
}
