package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tastetrail/internal/model"
)

// PatternRepo handles MongoDB operations for detected taste patterns.
// Detection replaces the whole stored set in one call.
type PatternRepo interface {
	List(ctx context.Context) ([]*model.Pattern, error)
	GetByID(ctx context.Context, id string) (*model.Pattern, error)
	ReplaceAll(ctx context.Context, patterns []*model.Pattern) error
	SetValidated(ctx context.Context, id string, confirmed bool) error
}

type patternRepo struct {
	collection *mongo.Collection
}

// NewPatternRepo creates a new pattern repository
func NewPatternRepo(db *mongo.Database) PatternRepo {
	return &patternRepo{
		collection: db.Collection("patterns"),
	}
}

func (r *patternRepo) List(ctx context.Context) ([]*model.Pattern, error) {
	opts := options.Find().SetSort(bson.D{{Key: "confidence", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var patterns []*model.Pattern
	if err := cursor.All(ctx, &patterns); err != nil {
		return nil, err
	}
	return patterns, nil
}

func (r *patternRepo) GetByID(ctx context.Context, id string) (*model.Pattern, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	var pattern model.Pattern
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&pattern)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	pattern.ID = id
	return &pattern, nil
}

func (r *patternRepo) ReplaceAll(ctx context.Context, patterns []*model.Pattern) error {
	if _, err := r.collection.DeleteMany(ctx, bson.M{}); err != nil {
		return err
	}
	if len(patterns) == 0 {
		return nil
	}

	// Inserted docs always get fresh ObjectIDs; carried-over patterns keep
	// their hex ID in the caller's copy only.
	docs := make([]interface{}, 0, len(patterns))
	for _, p := range patterns {
		doc := *p
		doc.ID = ""
		docs = append(docs, &doc)
	}
	_, err := r.collection.InsertMany(ctx, docs)
	return err
}

func (r *patternRepo) SetValidated(ctx context.Context, id string, confirmed bool) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	_, err = r.collection.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{
		"$set": bson.M{"validated": confirmed},
	})
	return err
}
