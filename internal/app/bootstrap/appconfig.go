// internal/app/bootstrap/appconfig.go
package bootstrap

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig handles framework-level settings (ports, TLS,
// logging, CORS); AppConfig is everything specific to CineCircle.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string // Secret key for signing session cookies (must be strong in production)
	SessionName   string // Cookie name for sessions
	SessionDomain string // Cookie domain (blank means current host)

	// Websocket ticket signing key. Falls back to SessionKey when blank.
	WSTicketKey string

	// Base URL for OAuth callbacks and the music-login redirect
	BaseURL string // e.g., "https://cinecircle.example" or "http://localhost:3000"

	// Google OAuth configuration
	GoogleClientID     string
	GoogleClientSecret string

	// Movie catalog (TMDB) configuration
	TMDBAPIKey string

	// Music catalog (Spotify) configuration
	SpotifyClientID     string
	SpotifyClientSecret string

	// Cache backend for catalog keyword lookups. Blank selects the
	// in-process memory cache.
	CacheAddr string // Valkey address, e.g. "localhost:6379"
}
