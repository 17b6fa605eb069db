// Package spotify wraps the Spotify Web API for catalog search and album
// track listings, plus the user-authorization URL used by the browser for
// playback features.
package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	// DefaultBaseURL is the production Web API root.
	DefaultBaseURL = "https://api.spotify.com/v1"

	// DefaultAccountsURL is the root of the accounts service, which hosts
	// both the token endpoint and the user-authorization page.
	DefaultAccountsURL = "https://accounts.spotify.com"
)

// Client is a Spotify Web API client. Catalog requests use an app token
// from the client-credentials flow; the token source caches the token and
// refreshes it when it expires.
type Client struct {
	baseURL     string
	accountsURL string
	clientID    string
	http        *http.Client
	tokens      oauth2.TokenSource
	log         *zap.Logger
}

// New creates a Spotify client with the given app credentials.
func New(clientID, clientSecret string, logger *zap.Logger) *Client {
	c := &Client{
		baseURL:     DefaultBaseURL,
		accountsURL: DefaultAccountsURL,
		clientID:    clientID,
		http:        &http.Client{Timeout: 10 * time.Second},
		log:         logger,
	}
	c.tokens = c.tokenSource(clientID, clientSecret)
	return c
}

// WithURLs overrides the API and accounts roots and rebuilds the token
// source against them. Used by tests.
func (c *Client) WithURLs(baseURL, accountsURL, clientSecret string) *Client {
	c.baseURL = baseURL
	c.accountsURL = accountsURL
	c.tokens = c.tokenSource(c.clientID, clientSecret)
	return c
}

func (c *Client) tokenSource(clientID, clientSecret string) oauth2.TokenSource {
	cfg := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     c.accountsURL + "/api/token",
	}
	return cfg.TokenSource(context.Background())
}

// Artist is a catalog artist reference.
type Artist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Image is a cover art rendition.
type Image struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// Album is a catalog album.
type Album struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Artists []Artist `json:"artists"`
	Images  []Image  `json:"images"`
}

// Track is a catalog track.
type Track struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	DurationMS int      `json:"duration_ms"`
	PreviewURL string   `json:"preview_url"`
	URI        string   `json:"uri"`
	Artists    []Artist `json:"artists"`
	Album      *Album   `json:"album,omitempty"`
}

// SearchResult holds whichever sections the search type selected.
type SearchResult struct {
	Tracks *struct {
		Items []Track `json:"items"`
		Total int     `json:"total"`
	} `json:"tracks,omitempty"`
	Albums *struct {
		Items []Album `json:"items"`
		Total int     `json:"total"`
	} `json:"albums,omitempty"`
}

// Search queries the catalog. typ is a comma-separated list of result
// types; it defaults to "track,album" when empty.
func (c *Client) Search(ctx context.Context, query, typ string) (*SearchResult, error) {
	if typ == "" {
		typ = "track,album"
	}
	q := url.Values{}
	q.Set("q", query)
	q.Set("type", typ)

	var result SearchResult
	if err := c.get(ctx, "/search", q, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// AlbumTracks lists the tracks of an album.
func (c *Client) AlbumTracks(ctx context.Context, albumID string) ([]Track, error) {
	var body struct {
		Items []Track `json:"items"`
	}
	if err := c.get(ctx, "/albums/"+url.PathEscape(albumID)+"/tracks", url.Values{}, &body); err != nil {
		return nil, err
	}
	return body.Items, nil
}

// UserLoginURL builds the implicit-grant authorization URL. The browser
// completes the flow itself and receives the access token in the redirect
// URL fragment, so the token never passes through this server.
func (c *Client) UserLoginURL(redirectURI, state string, scopes []string) string {
	q := url.Values{}
	q.Set("client_id", c.clientID)
	q.Set("response_type", "token")
	q.Set("redirect_uri", redirectURI)
	q.Set("state", state)
	if len(scopes) > 0 {
		q.Set("scope", strings.Join(scopes, " "))
	}
	return c.accountsURL + "/authorize?" + q.Encode()
}

// get issues an authenticated GET against the Web API and decodes the JSON
// response into dst.
func (c *Client) get(ctx context.Context, path string, q url.Values, dst any) error {
	token, err := c.tokens.Token()
	if err != nil {
		return fmt.Errorf("fetch spotify app token: %w", err)
	}

	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build spotify request: %w", err)
	}
	token.SetAuthHeader(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("spotify request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("spotify returned status %d for %s", resp.StatusCode, path)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode spotify response: %w", err)
	}
	return nil
}
