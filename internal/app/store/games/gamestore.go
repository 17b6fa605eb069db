package gamestore

import (
	"context"
	"errors"
	"time"

	"github.com/cinecircle/cinecircle/internal/app/system/realtime"
	"github.com/cinecircle/cinecircle/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the games collection name; also the realtime topic
// prefix. Game documents are keyed by event id, one game per event.
const Collection = "games"

var (
	// ErrGameOver is returned when marking tiles on a completed game.
	ErrGameOver = errors.New("game is already completed")
	// ErrNotJoined is returned when marking tiles for a player the game
	// has no entry for.
	ErrNotJoined = errors.New("player has not joined this game")
	// ErrNoPlayers is returned when declaring a winner on a game with no
	// player entries.
	ErrNoPlayers = errors.New("game has no players")
)

// Store manages the games collection. Like the events store, every
// successful write publishes the fresh document for live subscribers.
type Store struct {
	c      *mongo.Collection
	broker *realtime.Broker
}

// New creates a new games Store publishing to broker.
func New(db *mongo.Database, broker *realtime.Broker) *Store {
	return &Store{c: db.Collection(Collection), broker: broker}
}

// EnsureIndexes creates the one-game-per-event index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "event_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_games_event"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// GetByEvent loads the game document for an event.
func (s *Store) GetByEvent(ctx context.Context, eventID primitive.ObjectID) (*models.Game, error) {
	var g models.Game
	if err := s.c.FindOne(ctx, bson.M{"event_id": eventID}).Decode(&g); err != nil {
		return nil, err
	}
	return &g, nil
}

// Join creates the event's game document if it does not exist yet and
// adds an entry for playerID on their first join. Re-joining is a no-op;
// player entries are never removed, so a reconnecting player keeps their
// marked tiles.
func (s *Store) Join(ctx context.Context, eventID primitive.ObjectID, playerID string) (*models.Game, error) {
	now := time.Now().UTC()

	_, err := s.c.UpdateOne(ctx,
		bson.M{"event_id": eventID},
		bson.M{"$setOnInsert": bson.M{
			"event_id":       eventID,
			"active_players": bson.M{},
			"game_status":    models.GameActive,
			"created_at":     now,
			"updated_at":     now,
		}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return nil, err
	}

	// Add the player entry only when absent, so a re-join does not wipe
	// their progress.
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var g models.Game
	err = s.c.FindOneAndUpdate(ctx,
		bson.M{
			"event_id":                  eventID,
			"active_players." + playerID: bson.M{"$exists": false},
		},
		bson.M{"$set": bson.M{
			"active_players." + playerID: models.PlayerState{MarkedTiles: []int{}},
			"updated_at":                 now,
		}},
		opts,
	).Decode(&g)

	if err == mongo.ErrNoDocuments {
		// Already joined; nothing changed, nothing to publish.
		return s.GetByEvent(ctx, eventID)
	}
	if err != nil {
		return nil, err
	}
	s.publish(g)
	return &g, nil
}

// MarkTiles replaces playerID's whole marked-tile list. Each player owns
// their own field under active_players, so concurrent markers touching
// different players never conflict; the same player marking from two
// sessions is last-write-wins.
//
// The completed-game check is read-then-write, not transactional: a mark
// racing a declare-winner can still land after completion.
func (s *Store) MarkTiles(ctx context.Context, eventID primitive.ObjectID, playerID string, tiles []int) (*models.Game, error) {
	g, err := s.GetByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if g.GameStatus == models.GameCompleted {
		return nil, ErrGameOver
	}
	if _, ok := g.ActivePlayers[playerID]; !ok {
		return nil, ErrNotJoined
	}
	if tiles == nil {
		tiles = []int{}
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.Game
	err = s.c.FindOneAndUpdate(ctx,
		bson.M{"event_id": eventID},
		bson.M{"$set": bson.M{
			"active_players." + playerID + ".marked_tiles": tiles,
			"updated_at": time.Now().UTC(),
		}},
		opts,
	).Decode(&updated)
	if err != nil {
		return nil, err
	}
	s.publish(updated)
	return &updated, nil
}

// DeclareWinner ranks players by marked-tile count from the last-known
// snapshot and writes game_status=completed plus the winner in one
// update. Ties fall to whichever entry map iteration yields first, which
// is deliberately arbitrary. Nothing stops a second declarer: the later
// write simply overwrites the recorded winner (last write wins), the
// accepted conflict policy for this document.
func (s *Store) DeclareWinner(ctx context.Context, eventID primitive.ObjectID) (*models.Game, error) {
	g, err := s.GetByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if len(g.ActivePlayers) == 0 {
		return nil, ErrNoPlayers
	}

	winner := ""
	best := -1
	for id, state := range g.ActivePlayers {
		if n := len(state.MarkedTiles); n > best {
			winner = id
			best = n
		}
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.Game
	err = s.c.FindOneAndUpdate(ctx,
		bson.M{"event_id": eventID},
		bson.M{"$set": bson.M{
			"game_status": models.GameCompleted,
			"winner":      winner,
			"updated_at":  time.Now().UTC(),
		}},
		opts,
	).Decode(&updated)
	if err != nil {
		return nil, err
	}
	s.publish(updated)
	return &updated, nil
}

func (s *Store) publish(g models.Game) {
	if s.broker != nil {
		s.broker.Publish(realtime.Topic(Collection, g.EventID.Hex()), g)
	}
}
