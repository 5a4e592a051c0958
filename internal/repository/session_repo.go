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

// SessionRepo handles MongoDB operations for reflection sessions
type SessionRepo interface {
	Create(ctx context.Context, session *model.Session) (string, error)
	GetByID(ctx context.Context, id string) (*model.Session, error)
	List(ctx context.Context) ([]*model.Session, error)
	Update(ctx context.Context, session *model.Session) error
	CountByStatus(ctx context.Context, status model.SessionStatus) (int64, error)
}

type sessionRepo struct {
	collection *mongo.Collection
}

// NewSessionRepo creates a new session repository
func NewSessionRepo(db *mongo.Database) SessionRepo {
	return &sessionRepo{
		collection: db.Collection("sessions"),
	}
}

func (r *sessionRepo) Create(ctx context.Context, session *model.Session) (string, error) {
	if session.StartedAt.IsZero() {
		session.StartedAt = time.Now()
	}

	result, err := r.collection.InsertOne(ctx, session)
	if err != nil {
		return "", err
	}

	oid, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", nil
	}
	return oid.Hex(), nil
}

func (r *sessionRepo) GetByID(ctx context.Context, id string) (*model.Session, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	var session model.Session
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&session)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	session.ID = id
	return &session, nil
}

func (r *sessionRepo) List(ctx context.Context) ([]*model.Session, error) {
	opts := options.Find().SetSort(bson.D{{Key: "startedAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var sessions []*model.Session
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *sessionRepo) Update(ctx context.Context, session *model.Session) error {
	oid, err := primitive.ObjectIDFromHex(session.ID)
	if err != nil {
		return err
	}

	_, err = r.collection.ReplaceOne(ctx, bson.M{"_id": oid}, sessionReplacement(session))
	return err
}

// sessionReplacement copies the session with its ID cleared. The model holds
// the hex form while the stored _id is an ObjectID, so the replacement
// document must omit _id entirely or mongo rejects it as an immutable-field
// change.
func sessionReplacement(session *model.Session) *model.Session {
	doc := *session
	doc.ID = ""
	return &doc
}

func (r *sessionRepo) CountByStatus(ctx context.Context, status model.SessionStatus) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"status": status})
}
