package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tastetrail/internal/model"
)

// MovieRepo handles MongoDB operations for movies
type MovieRepo interface {
	Create(ctx context.Context, movie *model.Movie) (string, error)
	GetByID(ctx context.Context, id string) (*model.Movie, error)
	List(ctx context.Context) ([]*model.Movie, error)
	Update(ctx context.Context, movie *model.Movie) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
	SetLastAnalyzed(ctx context.Context, id string, at time.Time) error
}

type movieRepo struct {
	collection *mongo.Collection
}

// NewMovieRepo creates a new movie repository
func NewMovieRepo(db *mongo.Database) MovieRepo {
	return &movieRepo{
		collection: db.Collection("movies"),
	}
}

func (r *movieRepo) Create(ctx context.Context, movie *model.Movie) (string, error) {
	if movie.CreatedAt.IsZero() {
		movie.CreatedAt = time.Now()
	}

	result, err := r.collection.InsertOne(ctx, movie)
	if err != nil {
		return "", err
	}

	oid, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", nil
	}
	return oid.Hex(), nil
}

func (r *movieRepo) GetByID(ctx context.Context, id string) (*model.Movie, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	var movie model.Movie
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&movie)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	movie.ID = id
	return &movie, nil
}

func (r *movieRepo) List(ctx context.Context) ([]*model.Movie, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var movies []*model.Movie
	if err := cursor.All(ctx, &movies); err != nil {
		return nil, err
	}
	return movies, nil
}

func (r *movieRepo) Update(ctx context.Context, movie *model.Movie) error {
	oid, err := primitive.ObjectIDFromHex(movie.ID)
	if err != nil {
		return err
	}

	_, err = r.collection.ReplaceOne(ctx, bson.M{"_id": oid}, movieReplacement(movie))
	return err
}

// movieReplacement copies the movie with its hex ID cleared; see
// sessionReplacement for why the replacement document must omit _id.
func movieReplacement(movie *model.Movie) *model.Movie {
	doc := *movie
	doc.ID = ""
	return &doc
}

func (r *movieRepo) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	_, err = r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	return err
}

func (r *movieRepo) Count(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{})
}

func (r *movieRepo) SetLastAnalyzed(ctx context.Context, id string, at time.Time) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	_, err = r.collection.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{
		"$set": bson.M{"lastAnalyzedAt": at},
	})
	return err
}
