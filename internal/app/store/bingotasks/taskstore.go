package bingotasks

import (
	"context"

	"github.com/cinecircle/cinecircle/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// defaultTasks is the task pool seeded on first startup. Boards are drawn
// from whatever the collection holds, so the pool can be grown later
// without code changes.
var defaultTasks = []string{
	"Someone says \"I've seen this one\"",
	"Phone screen lights up during the movie",
	"Someone asks who that character is",
	"Popcorn bowl is empty before the title card",
	"Someone predicts a plot twist out loud",
	"Subtitles get turned on",
	"Someone quotes the movie before the line lands",
	"A pet walks across the screen area",
	"Someone leaves for a snack refill",
	"Volume gets adjusted more than twice",
	"Someone checks the runtime",
	"Opening logo gets talked over",
	"Someone recognizes an actor but not from where",
	"A plot hole gets pointed out",
	"Someone tears up",
	"The host apologizes for the seating",
	"Trailer talk delays the start",
	"Someone spoils a detail and gets shushed",
	"Blanket negotiation breaks out",
	"Someone claims the book was better",
	"Pause for a bathroom break",
	"Someone starts narrating sarcastically",
	"Snack gets spilled",
	"Someone falls asleep",
	"End credits song gets skipped",
	"Someone rates the movie unprompted",
	"Sequel debate starts before the credits",
	"Someone googles the cast mid-movie",
	"A scene gets rewound",
	"Someone sits on the floor",
}

// Store manages the bingo_tasks collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new bingo tasks Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("bingo_tasks")}
}

// Seed inserts the default task pool if the collection is empty.
func (s *Store) Seed(ctx context.Context) error {
	n, err := s.c.CountDocuments(ctx, bson.M{})
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	docs := make([]any, 0, len(defaultTasks))
	for _, text := range defaultTasks {
		docs = append(docs, models.BingoTask{ID: primitive.NewObjectID(), Text: text})
	}
	_, err = s.c.InsertMany(ctx, docs)
	return err
}

// All returns the whole task pool.
func (s *Store) All(ctx context.Context) ([]models.BingoTask, error) {
	cur, err := s.c.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var tasks []models.BingoTask
	if err := cur.All(ctx, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}
