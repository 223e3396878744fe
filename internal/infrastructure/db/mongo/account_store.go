package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/credgate/auth-gateway/internal/core/domain"
)

const collectionUsers = "users"

// AccountStore implements ports.AccountStore on the users collection. The
// unique index on username is what makes Insert a compare-and-insert.
type AccountStore struct {
	col *mongo.Collection
}

func NewAccountStore(db *mongo.Database) *AccountStore {
	return &AccountStore{col: db.Collection(collectionUsers)}
}

type accountDocument struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	Username       string             `bson:"username"`
	HashedPassword string             `bson:"hashed_password"`
	Role           string             `bson:"role"`
	CreatedAt      time.Time          `bson:"created_at"`
}

// Insert writes a new account document in a single InsertOne.
func (s *AccountStore) Insert(ctx context.Context, account *domain.Account) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := accountDocument{
		Username:       account.Username,
		HashedPassword: account.PasswordHash,
		Role:           account.Role,
		CreatedAt:      account.CreatedAt,
	}

	if _, err := s.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateAccount
		}
		return unavailable("insert account", err)
	}
	return nil
}

// FindByUsername retrieves an account by its exact, case-sensitive username.
func (s *AccountStore) FindByUsername(ctx context.Context, username string) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc accountDocument
	if err := s.col.FindOne(ctx, bson.M{"username": username}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, unavailable("find account", err)
	}

	return &domain.Account{
		Username:     doc.Username,
		PasswordHash: doc.HashedPassword,
		Role:         doc.Role,
		CreatedAt:    doc.CreatedAt.UTC(),
	}, nil
}

// EnsureIndexes creates the unique username index. It must run before the
// store accepts signups, otherwise duplicates are not rejected.
func (s *AccountStore) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := s.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("username_unique"),
	})
	if err != nil {
		return fmt.Errorf("ensure users indexes: %w", err)
	}
	return nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrStoreUnavailable, op, err)
}
