// internal/domain/models/bingo.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Game status values.
const (
	GameActive    = "active"
	GameCompleted = "completed"
)

// BingoTask is one entry in the shared task pool (bingo_tasks
// collection) that boards are drawn from.
type BingoTask struct {
	ID   primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Text string             `bson:"text" json:"text"`
}

// Game is the shared progress document for one event's bingo game
// (games collection, keyed by event id).
//
// Each player owns their own entry in ActivePlayers and only ever
// rewrites their own marked-tile list, so concurrent markers do not
// conflict. Status transitions active -> completed once, when any
// client declares a winner; nothing prevents a second declarer from
// overwriting the first (last write wins).
//
// Player keys are user ids for signed-in players and "guest-<uuid>"
// for anonymous ones. Boards themselves are generated per player and
// never stored, so two players' tile indices refer to different tasks.
type Game struct {
	ID            primitive.ObjectID     `bson:"_id,omitempty" json:"id"`
	EventID       primitive.ObjectID     `bson:"event_id" json:"event_id"`
	ActivePlayers map[string]PlayerState `bson:"active_players" json:"active_players"`
	GameStatus    string                 `bson:"game_status" json:"game_status"`
	Winner        string                 `bson:"winner,omitempty" json:"winner,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// PlayerState is one player's progress within a Game.
type PlayerState struct {
	MarkedTiles []int `bson:"marked_tiles" json:"marked_tiles"`
}
