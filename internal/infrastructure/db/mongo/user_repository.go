package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jwt-pizza/pizza-service/internal/core/domain"
	"github.com/jwt-pizza/pizza-service/internal/core/ports"
	"github.com/jwt-pizza/pizza-service/internal/infrastructure/security"
)

const (
	collectionUsers    = "users"
	collectionCounters = "counters"
	userSequence       = "users"
)

// UserRepository is the MongoDB-backed credential store. User ids come from
// a counters document so they stay numeric across backends.
type UserRepository struct {
	col      *mongo.Collection
	counters *mongo.Collection
	hasher   ports.PasswordHasher
	decoy    *security.DecoyVerifier
}

func NewUserRepository(db *mongo.Database, hasher ports.PasswordHasher) *UserRepository {
	return &UserRepository{
		col:      db.Collection(collectionUsers),
		counters: db.Collection(collectionCounters),
		hasher:   hasher,
		decoy:    security.NewDecoyVerifier(hasher),
	}
}

type roleDoc struct {
	Role     string `bson:"role"`
	ObjectID *int64 `bson:"object_id,omitempty"`
}

type userDoc struct {
	ID           int64     `bson:"_id"`
	Name         string    `bson:"name"`
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"password_hash"`
	Roles        []roleDoc `bson:"roles"`
	CreatedAt    int64     `bson:"created_at"`
	UpdatedAt    int64     `bson:"updated_at"`
}

func (d *userDoc) toDomain() *domain.User {
	roles := make([]domain.RoleAssignment, 0, len(d.Roles))
	for _, r := range d.Roles {
		roles = append(roles, domain.RoleAssignment{Role: domain.Role(r.Role), ObjectID: r.ObjectID})
	}
	return &domain.User{
		ID:           d.ID,
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Roles:        roles,
		CreatedAt:    unixToTime(d.CreatedAt),
		UpdatedAt:    unixToTime(d.UpdatedAt),
	}
}

func (r *UserRepository) Add(ctx context.Context, nu domain.NewUser) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	hash, err := r.hasher.Hash(nu.Password)
	if err != nil {
		return nil, err
	}

	id, err := r.nextID(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	doc := userDoc{
		ID:           id,
		Name:         nu.Name,
		Email:        nu.Email,
		PasswordHash: hash,
		Roles:        make([]roleDoc, 0, len(nu.Roles)),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for _, ra := range nu.Roles {
		doc.Roles = append(doc.Roles, roleDoc{Role: string(ra.Role), ObjectID: ra.ObjectID})
	}

	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return nil, mapError("insert user", err)
	}
	return doc.toDomain().Redacted(), nil
}

// Find returns the user only if email exists and password verifies. Both
// failure cases yield domain.ErrNotFound after one password verification.
func (r *UserRepository) Find(ctx context.Context, email, password string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc userDoc
	err := r.col.FindOne(ctx, bson.M{"email": email}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		r.decoy.Verify(password)
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, mapError("find user", err)
	}

	ok, err := r.hasher.Verify(password, doc.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, domain.ErrNotFound
	}
	return doc.toDomain().Redacted(), nil
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc userDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return nil, mapError("find user by id", err)
	}
	return doc.toDomain().Redacted(), nil
}

// Update changes email and/or password. Empty values leave the field as is.
func (r *UserRepository) Update(ctx context.Context, id int64, email, password string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set := bson.M{"updated_at": time.Now().Unix()}
	if email != "" {
		set["email"] = email
	}
	if password != "" {
		hash, err := r.hasher.Hash(password)
		if err != nil {
			return nil, err
		}
		set["password_hash"] = hash
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc userDoc
	err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&doc)
	if err != nil {
		return nil, mapError("update user", err)
	}
	return doc.toDomain().Redacted(), nil
}

// EnsureIndexes creates the unique email index on the users collection.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (r *UserRepository) nextID(ctx context.Context) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": userSequence},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		opts,
	).Decode(&counter)
	if err != nil {
		return 0, mapError("next user id", err)
	}
	return counter.Seq, nil
}

// mapError translates driver errors into domain errors.
func mapError(op string, err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return domain.ErrConflict
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrPersistence, op, err)
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
