// internal/domain/models/event.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Event is a planned movie night in the events collection.
//
// Invitees always contains the creator; the events store appends the
// creator before the first write. Invitees may vote on the nominated
// movies; only the creator may edit the event itself.
type Event struct {
	ID       primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name     string               `bson:"name" json:"name"`
	NameCI   string               `bson:"name_ci" json:"-"`
	Date     string               `bson:"date" json:"date"` // YYYY-MM-DD
	Time     string               `bson:"time" json:"time"` // HH:MM, local to the event
	Creator  primitive.ObjectID   `bson:"creator" json:"creator"`
	Invitees []primitive.ObjectID `bson:"invitees" json:"invitees"`
	Movies   []MovieChoice        `bson:"movies" json:"movies"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// MovieChoice is a movie nominated within an Event, carrying the set of
// users who voted for it. VotedBy holds each user id at most once; the
// vote merge in the events store deduplicates at write time, the store
// itself does not enforce it.
type MovieChoice struct {
	Title     string               `bson:"title" json:"title"`
	TMDBID    int64                `bson:"tmdb_id" json:"tmdb_id"`
	PosterURL string               `bson:"poster_url,omitempty" json:"poster_url,omitempty"`
	VotedBy   []primitive.ObjectID `bson:"voted_by" json:"voted_by"`
}

// HasVote reports whether userID already appears in VotedBy.
func (m MovieChoice) HasVote(userID primitive.ObjectID) bool {
	for _, id := range m.VotedBy {
		if id == userID {
			return true
		}
	}
	return false
}

// IsInvitee reports whether userID is a member of the event's invitees.
func (e Event) IsInvitee(userID primitive.ObjectID) bool {
	for _, id := range e.Invitees {
		if id == userID {
			return true
		}
	}
	return false
}
