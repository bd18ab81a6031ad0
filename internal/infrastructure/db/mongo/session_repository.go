package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionSessions = "auth_sessions"

// SessionRepository stores live sessions keyed by token fingerprint.
type SessionRepository struct {
	col *mongo.Collection
}

func NewSessionRepository(db *mongo.Database) *SessionRepository {
	return &SessionRepository{col: db.Collection(collectionSessions)}
}

type sessionDoc struct {
	Key       string `bson:"_id"`
	UserID    int64  `bson:"user_id"`
	CreatedAt int64  `bson:"created_at"`
}

func (r *SessionRepository) Open(ctx context.Context, userID int64, key string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.InsertOne(ctx, sessionDoc{Key: key, UserID: userID, CreatedAt: time.Now().Unix()})
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return mapError("open session", err)
	}
	return nil
}

func (r *SessionRepository) IsLive(ctx context.Context, key string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.FindOne().SetProjection(bson.M{"_id": 1})
	err := r.col.FindOne(ctx, bson.M{"_id": key}, opts).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, mapError("check session", err)
	}
	return true, nil
}

// Close removes the session. Closing an unknown key is not an error.
func (r *SessionRepository) Close(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.DeleteOne(ctx, bson.M{"_id": key}); err != nil {
		return mapError("close session", err)
	}
	return nil
}

// EnsureIndexes indexes sessions by owner.
func (r *SessionRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "user_id", Value: 1}}})
	return err
}
