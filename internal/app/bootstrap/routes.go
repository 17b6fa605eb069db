// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/cinecircle/cinecircle/internal/app/clients/spotify"
	"github.com/cinecircle/cinecircle/internal/app/clients/tmdb"
	authfeature "github.com/cinecircle/cinecircle/internal/app/features/auth"
	authgooglefeature "github.com/cinecircle/cinecircle/internal/app/features/authgoogle"
	bingofeature "github.com/cinecircle/cinecircle/internal/app/features/bingo"
	eventsfeature "github.com/cinecircle/cinecircle/internal/app/features/events"
	healthfeature "github.com/cinecircle/cinecircle/internal/app/features/health"
	moviesfeature "github.com/cinecircle/cinecircle/internal/app/features/movies"
	musicfeature "github.com/cinecircle/cinecircle/internal/app/features/music"
	playlistsfeature "github.com/cinecircle/cinecircle/internal/app/features/playlists"
	realtimeticketfeature "github.com/cinecircle/cinecircle/internal/app/features/realtimeticket"
	usersfeature "github.com/cinecircle/cinecircle/internal/app/features/users"
	bingotaskstore "github.com/cinecircle/cinecircle/internal/app/store/bingotasks"
	eventstore "github.com/cinecircle/cinecircle/internal/app/store/events"
	gamestore "github.com/cinecircle/cinecircle/internal/app/store/games"
	"github.com/cinecircle/cinecircle/internal/app/store/oauthstate"
	playliststore "github.com/cinecircle/cinecircle/internal/app/store/playlists"
	userstore "github.com/cinecircle/cinecircle/internal/app/store/users"
	sessionauth "github.com/cinecircle/cinecircle/internal/app/system/auth"
	"github.com/cinecircle/cinecircle/internal/app/system/kvcache"
	"github.com/cinecircle/cinecircle/internal/app/system/realtime"
	"github.com/cinecircle/cinecircle/internal/app/system/wsstream"
	"github.com/cinecircle/cinecircle/internal/app/system/wsticket"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler for the app.
//
// WAFFLE calls this after configuration, DB connections, schema setup,
// and Startup have completed. It wires the session manager, the realtime
// broker, the catalog clients, and every feature router.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	secure := coreCfg.Env == "prod"
	sessionMgr, err := sessionauth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}
	// Fetch fresh user data on each request so profile changes take
	// effect immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(deps.MongoDatabase))

	ticketIssuer, err := wsticket.NewIssuer(appCfg.WSTicketKey)
	if err != nil {
		logger.Error("ws ticket issuer init failed", zap.Error(err))
		return nil, err
	}

	// One broker per process; stores publish committed documents into it
	// and websocket subscribers stream them out.
	broker := realtime.NewBroker()
	streamer := wsstream.NewStreamer(broker, ticketIssuer, logger)

	var cache kvcache.Cache
	if appCfg.CacheAddr != "" {
		valkeyCache, err := kvcache.NewValkey(appCfg.CacheAddr)
		if err != nil {
			logger.Error("valkey connect failed", zap.String("addr", appCfg.CacheAddr), zap.Error(err))
			return nil, err
		}
		cache = valkeyCache
	} else {
		cache = kvcache.NewMemory()
	}

	// Stores
	users := userstore.New(deps.MongoDatabase)
	events := eventstore.New(deps.MongoDatabase, broker)
	playlists := playliststore.New(deps.MongoDatabase)
	games := gamestore.New(deps.MongoDatabase, broker)
	bingoTasks := bingotaskstore.New(deps.MongoDatabase)
	oauthStates := oauthstate.New(deps.MongoDatabase)

	// Catalog clients
	movieCatalog := tmdb.New(appCfg.TMDBAPIKey, cache, logger)
	musicCatalog := spotify.New(appCfg.SpotifyClientID, appCfg.SpotifyClientSecret, logger)

	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context if logged in.
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	r.Mount("/health", healthfeature.Routes(healthfeature.NewHandler(deps.MongoClient, logger)))

	// Identity
	authHandler := authfeature.NewHandler(users, sessionMgr, logger)
	r.Mount("/api/auth", authfeature.Routes(authHandler))

	googleHandler := authgooglefeature.NewHandler(
		users, oauthStates, sessionMgr,
		appCfg.GoogleClientID, appCfg.GoogleClientSecret, appCfg.BaseURL,
		logger)
	r.Mount("/auth/google", authgooglefeature.Routes(googleHandler))

	// Websocket streams and tickets: auth is the ticket itself, so these
	// stay outside RequireSignedIn.
	eventsHandler := eventsfeature.NewHandler(events, streamer, logger)
	r.Mount("/ws/events", eventsfeature.StreamRoutes(eventsHandler))

	bingoHandler := bingofeature.NewHandler(bingoTasks, games, streamer, logger)
	r.Mount("/ws/games", bingofeature.StreamRoutes(bingoHandler))

	r.Mount("/api/realtime", realtimeticketfeature.Routes(realtimeticketfeature.NewHandler(ticketIssuer, logger)))

	// Bingo is open to guests.
	r.Mount("/api/bingo", bingofeature.Routes(bingoHandler))

	// Everything else requires a signed-in user.
	r.Group(func(r chi.Router) {
		r.Use(sessionMgr.RequireSignedIn)

		r.Mount("/api/users", usersfeature.Routes(usersfeature.NewHandler(users, logger)))
		r.Mount("/api/events", eventsfeature.Routes(eventsHandler))
		r.Mount("/api/playlists", playlistsfeature.Routes(playlistsfeature.NewHandler(playlists, logger)))
		r.Mount("/api/movies", moviesfeature.Routes(moviesfeature.NewHandler(movieCatalog, logger)))
		r.Mount("/api/music", musicfeature.Routes(musicfeature.NewHandler(musicCatalog, appCfg.BaseURL, logger)))
	})

	return r, nil
}
