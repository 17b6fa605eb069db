package playliststore

import (
	"context"
	"time"

	"github.com/cinecircle/cinecircle/internal/app/system/normalize"
	"github.com/cinecircle/cinecircle/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store manages the playlists collection. Playlists are private: every
// operation is filtered by owner, so acting on someone else's playlist
// behaves like acting on a missing one.
type Store struct {
	c *mongo.Collection
}

// New creates a new playlists Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("playlists")}
}

// EnsureIndexes creates the owner listing index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "owner", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_playlists_owner"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Create inserts a new playlist for owner.
func (s *Store) Create(ctx context.Context, owner primitive.ObjectID, name string, movies []models.PlaylistEntry) (models.Playlist, error) {
	if movies == nil {
		movies = []models.PlaylistEntry{}
	}
	now := time.Now().UTC()
	p := models.Playlist{
		ID:        primitive.NewObjectID(),
		Name:      normalize.Name(name),
		NameCI:    text.Fold(normalize.Name(name)),
		Owner:     owner,
		Movies:    movies,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.c.InsertOne(ctx, p); err != nil {
		return models.Playlist{}, err
	}
	return p, nil
}

// GetByID loads a playlist owned by owner.
// Returns mongo.ErrNoDocuments for other users' playlists.
func (s *Store) GetByID(ctx context.Context, id, owner primitive.ObjectID) (*models.Playlist, error) {
	var p models.Playlist
	if err := s.c.FindOne(ctx, bson.M{"_id": id, "owner": owner}).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListForOwner returns the owner's playlists, newest first.
func (s *Store) ListForOwner(ctx context.Context, owner primitive.ObjectID) ([]models.Playlist, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{"owner": owner}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var lists []models.Playlist
	if err := cur.All(ctx, &lists); err != nil {
		return nil, err
	}
	return lists, nil
}

// Update holds the editable fields of a playlist. An empty Name leaves
// the name alone; a nil Movies slice leaves the list alone.
type Update struct {
	Name   string
	Movies []models.PlaylistEntry
}

// Update renames a playlist and/or replaces its movie list.
func (s *Store) Update(ctx context.Context, id, owner primitive.ObjectID, upd Update) (*models.Playlist, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Name != "" {
		name := normalize.Name(upd.Name)
		set["name"] = name
		set["name_ci"] = text.Fold(name)
	}
	if upd.Movies != nil {
		set["movies"] = upd.Movies
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var p models.Playlist
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "owner": owner},
		bson.M{"$set": set},
		opts,
	).Decode(&p)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Delete removes a playlist. Returns the number of documents deleted
// (0 when the playlist does not exist or belongs to someone else).
func (s *Store) Delete(ctx context.Context, id, owner primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id, "owner": owner})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
