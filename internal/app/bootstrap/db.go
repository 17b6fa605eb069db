// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	bingotaskstore "github.com/cinecircle/cinecircle/internal/app/store/bingotasks"
	eventstore "github.com/cinecircle/cinecircle/internal/app/store/events"
	gamestore "github.com/cinecircle/cinecircle/internal/app/store/games"
	"github.com/cinecircle/cinecircle/internal/app/store/oauthstate"
	playliststore "github.com/cinecircle/cinecircle/internal/app/store/playlists"
	userstore "github.com/cinecircle/cinecircle/internal/app/store/users"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// ConnectDB establishes the MongoDB connection used by the whole app.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return DBDeps{}, fmt.Errorf("mongo ping: %w", err)
	}

	logger.Info("connected to MongoDB",
		zap.String("database", appCfg.MongoDatabase))

	return DBDeps{
		MongoClient:   client,
		MongoDatabase: client.Database(appCfg.MongoDatabase),
	}, nil
}

// EnsureSchema creates indexes and seeds the bingo task pool.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.MongoDatabase

	ensurers := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"users", userstore.New(db).EnsureIndexes},
		{"events", eventstore.New(db, nil).EnsureIndexes},
		{"playlists", playliststore.New(db).EnsureIndexes},
		{"games", gamestore.New(db, nil).EnsureIndexes},
		{"oauth_states", oauthstate.New(db).EnsureIndexes},
	}
	for _, e := range ensurers {
		if err := e.fn(ctx); err != nil {
			return fmt.Errorf("ensure %s indexes: %w", e.name, err)
		}
	}

	if err := bingotaskstore.New(db).Seed(ctx); err != nil {
		return fmt.Errorf("seed bingo tasks: %w", err)
	}

	logger.Info("schema ensured")
	return nil
}
