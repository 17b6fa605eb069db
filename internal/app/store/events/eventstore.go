package eventstore

import (
	"context"
	"errors"
	"time"

	"github.com/cinecircle/cinecircle/internal/app/system/normalize"
	"github.com/cinecircle/cinecircle/internal/app/system/realtime"
	"github.com/cinecircle/cinecircle/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the events collection name; also the realtime topic prefix.
const Collection = "events"

var (
	// ErrNotInvited is returned when a user acts on an event they are not
	// an invitee of.
	ErrNotInvited = errors.New("user is not invited to this event")
	// ErrMovieNotFound is returned when a vote names a movie the event
	// does not carry.
	ErrMovieNotFound = errors.New("movie is not nominated on this event")
)

// Store manages the events collection. Every successful write publishes
// the fresh document to the realtime broker, which is what drives live
// subscribers; reads never publish.
type Store struct {
	c      *mongo.Collection
	broker *realtime.Broker
}

// New creates a new events Store publishing to broker. A nil broker
// disables publishing (used by callers that only read).
func New(db *mongo.Database, broker *realtime.Broker) *Store {
	return &Store{c: db.Collection(Collection), broker: broker}
}

// EnsureIndexes creates indexes for membership queries.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "creator", Value: 1}, {Key: "date", Value: 1}},
			Options: options.Index().SetName("idx_events_creator"),
		},
		{
			Keys:    bson.D{{Key: "invitees", Value: 1}, {Key: "date", Value: 1}},
			Options: options.Index().SetName("idx_events_invitees"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Create inserts a new event. The creator is appended to invitees before
// the write if not already present, so the creator is always a member of
// their own event.
func (s *Store) Create(ctx context.Context, ev models.Event) (models.Event, error) {
	ev.ID = primitive.NewObjectID()
	ev.Name = normalize.Name(ev.Name)
	ev.NameCI = text.Fold(ev.Name)
	if !ev.IsInvitee(ev.Creator) {
		ev.Invitees = append(ev.Invitees, ev.Creator)
	}
	if ev.Movies == nil {
		ev.Movies = []models.MovieChoice{}
	}
	for i := range ev.Movies {
		if ev.Movies[i].VotedBy == nil {
			ev.Movies[i].VotedBy = []primitive.ObjectID{}
		}
	}

	now := time.Now().UTC()
	ev.CreatedAt = now
	ev.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, ev); err != nil {
		return models.Event{}, err
	}
	s.publish(ev)
	return ev, nil
}

// GetByID loads an event by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Event, error) {
	var ev models.Event
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

// ListForUser returns every event the user created or is invited to,
// soonest first.
func (s *Store) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Event, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"creator": userID},
		bson.M{"invitees": userID},
	}}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "time", Value: 1}})

	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var events []models.Event
	if err := cur.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// Update holds the editable fields of an event. Nil slices / empty
// strings mean "leave unchanged".
type Update struct {
	Name   string
	Date   string
	Time   string
	Movies []models.MovieChoice
}

// UpdateByCreator applies upd to the event, but only when userID is the
// creator. Replacing the movie list resets no votes: choices in the new
// list keep whatever voted_by they carry.
func (s *Store) UpdateByCreator(ctx context.Context, id, userID primitive.ObjectID, upd Update) (*models.Event, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Name != "" {
		name := normalize.Name(upd.Name)
		set["name"] = name
		set["name_ci"] = text.Fold(name)
	}
	if upd.Date != "" {
		set["date"] = upd.Date
	}
	if upd.Time != "" {
		set["time"] = upd.Time
	}
	if upd.Movies != nil {
		for i := range upd.Movies {
			if upd.Movies[i].VotedBy == nil {
				upd.Movies[i].VotedBy = []primitive.ObjectID{}
			}
		}
		set["movies"] = upd.Movies
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var ev models.Event
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "creator": userID},
		bson.M{"$set": set},
		opts,
	).Decode(&ev)
	if err != nil {
		return nil, err
	}
	s.publish(ev)
	return &ev, nil
}

// AddInvitee adds userID to the event's invitee set. Only the creator
// may invite. Adding an existing invitee is a no-op.
func (s *Store) AddInvitee(ctx context.Context, id, creatorID, userID primitive.ObjectID) (*models.Event, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var ev models.Event
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "creator": creatorID},
		bson.M{
			"$addToSet": bson.M{"invitees": userID},
			"$set":      bson.M{"updated_at": time.Now().UTC()},
		},
		opts,
	).Decode(&ev)
	if err != nil {
		return nil, err
	}
	s.publish(ev)
	return &ev, nil
}

// AddVote records userID's vote for the movie with tmdbID.
//
// The merge follows the shared-document convention used throughout the
// collaborative features: read the latest snapshot, append the voter to
// voted_by if absent, and write the whole movies array back in one $set.
// Two concurrent voters can therefore race and the later write wins;
// there is no transaction. A user who already voted is a silent no-op
// (voted reports false), which is what makes voting idempotent per user.
func (s *Store) AddVote(ctx context.Context, eventID primitive.ObjectID, tmdbID int64, userID primitive.ObjectID) (*models.Event, bool, error) {
	ev, err := s.GetByID(ctx, eventID)
	if err != nil {
		return nil, false, err
	}
	if !ev.IsInvitee(userID) {
		return nil, false, ErrNotInvited
	}

	idx := -1
	for i := range ev.Movies {
		if ev.Movies[i].TMDBID == tmdbID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, false, ErrMovieNotFound
	}
	if ev.Movies[idx].HasVote(userID) {
		return ev, false, nil
	}

	ev.Movies[idx].VotedBy = append(ev.Movies[idx].VotedBy, userID)
	ev.UpdatedAt = time.Now().UTC()

	_, err = s.c.UpdateOne(ctx, bson.M{"_id": eventID}, bson.M{
		"$set": bson.M{"movies": ev.Movies, "updated_at": ev.UpdatedAt},
	})
	if err != nil {
		return nil, false, err
	}
	s.publish(*ev)
	return ev, true, nil
}

func (s *Store) publish(ev models.Event) {
	if s.broker != nil {
		s.broker.Publish(realtime.Topic(Collection, ev.ID.Hex()), ev)
	}
}
