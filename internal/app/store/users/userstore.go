package userstore

import (
	"context"
	"errors"
	"time"

	"github.com/cinecircle/cinecircle/internal/app/system/normalize"
	"github.com/cinecircle/cinecircle/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrDuplicateEmail is returned when creating a user with an email
	// that already exists.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	// ErrBadCredentials is returned when email/password authentication fails.
	ErrBadCredentials = errors.New("invalid email or password")
)

// Store manages the users collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new users Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// EnsureIndexes creates the unique email index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_users_email"),
		},
		{
			Keys:    bson.D{{Key: "google_id", Value: 1}},
			Options: options.Index().SetSparse(true).SetName("idx_users_google"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by case-insensitive email.
// Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateWithPassword inserts a new password-auth user after normalizing
// fields and hashing the password.
func (s *Store) CreateWithPassword(ctx context.Context, name, email, password string) (models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return models.User{}, err
	}

	now := time.Now().UTC()
	u := models.User{
		ID:           primitive.NewObjectID(),
		Name:         normalize.Name(name),
		NameCI:       text.Fold(normalize.Name(name)),
		Email:        normalize.Email(email),
		AuthMethod:   models.AuthMethodPassword,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// Authenticate checks an email/password pair and returns the user on
// success. Google-auth accounts fail with ErrBadCredentials rather than
// revealing which auth method the email uses.
func (s *Store) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	u, err := s.GetByEmail(ctx, email)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrBadCredentials
		}
		return nil, err
	}
	if u.AuthMethod != models.AuthMethodPassword || u.PasswordHash == "" {
		return nil, ErrBadCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrBadCredentials
	}
	return u, nil
}

// UpsertGoogleUser finds or creates the account for a Google identity.
// Matching prefers the stored google_id, then falls back to the verified
// email (linking an existing password account is not supported; a
// password account with the same email fails with ErrDuplicateEmail).
func (s *Store) UpsertGoogleUser(ctx context.Context, googleID, email, name, avatarURL string) (models.User, error) {
	var u models.User
	err := s.c.FindOne(ctx, bson.M{"google_id": googleID}).Decode(&u)
	if err == nil {
		return u, nil
	}
	if err != mongo.ErrNoDocuments {
		return models.User{}, err
	}

	// No linked account yet; an existing google account under this email
	// gets the id attached, anything else is a fresh sign-up.
	existing, err := s.GetByEmail(ctx, email)
	if err == nil {
		if existing.AuthMethod != models.AuthMethodGoogle {
			return models.User{}, ErrDuplicateEmail
		}
		_, err = s.c.UpdateOne(ctx, bson.M{"_id": existing.ID}, bson.M{
			"$set": bson.M{"google_id": googleID, "updated_at": time.Now().UTC()},
		})
		if err != nil {
			return models.User{}, err
		}
		existing.GoogleID = googleID
		return *existing, nil
	}
	if err != mongo.ErrNoDocuments {
		return models.User{}, err
	}

	now := time.Now().UTC()
	u = models.User{
		ID:         primitive.NewObjectID(),
		Name:       normalize.Name(name),
		NameCI:     text.Fold(normalize.Name(name)),
		Email:      normalize.Email(email),
		AuthMethod: models.AuthMethodGoogle,
		GoogleID:   googleID,
		AvatarURL:  avatarURL,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// GetByIDs loads the users for a set of ids, for rendering invitee lists.
// Missing ids are skipped, not errors.
func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}
