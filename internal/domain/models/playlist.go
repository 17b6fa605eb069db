// internal/domain/models/playlist.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Playlist is a user-owned, ordered list of movie references in the
// playlists collection. Playlists are private to their owner; there is
// no sharing or collaborative mutation.
type Playlist struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name   string             `bson:"name" json:"name"`
	NameCI string             `bson:"name_ci" json:"-"`
	Owner  primitive.ObjectID `bson:"owner" json:"owner"`
	Movies []PlaylistEntry    `bson:"movies" json:"movies"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// PlaylistEntry is one movie reference within a playlist. Order within
// Playlist.Movies is the order the owner arranged.
type PlaylistEntry struct {
	Title     string `bson:"title" json:"title"`
	TMDBID    int64  `bson:"tmdb_id" json:"tmdb_id"`
	PosterURL string `bson:"poster_url,omitempty" json:"poster_url,omitempty"`
}
