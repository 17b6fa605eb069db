// Package tmdb wraps the TMDB read-only HTTP API used for movie discovery,
// search, detail lookup, and genre listing.
package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cinecircle/cinecircle/internal/app/system/kvcache"
	"go.uber.org/zap"
)

const (
	// DefaultBaseURL is the production TMDB API root.
	DefaultBaseURL = "https://api.themoviedb.org/3"

	// maxReportedPages caps the page count returned to clients. TMDB
	// rejects page parameters above 500, so advertising more pages than
	// that produces dead pagination links.
	maxReportedPages = 500

	keywordCacheTTL = 24 * time.Hour
)

// Client is a read-only TMDB API client. Keyword lookups made during mood
// translation are cached to avoid a round trip per discover request.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	cache   kvcache.Cache
	log     *zap.Logger
}

// New creates a TMDB client with the given API key.
func New(apiKey string, cache kvcache.Cache, logger *zap.Logger) *Client {
	return &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
		cache:   cache,
		log:     logger,
	}
}

// WithBaseURL overrides the API root. Used by tests.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = baseURL
	return c
}

// Movie is a single catalog entry as returned by discover and search.
type Movie struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	PosterPath  string  `json:"poster_path"`
	ReleaseDate string  `json:"release_date"`
	VoteAverage float64 `json:"vote_average"`
	GenreIDs    []int64 `json:"genre_ids,omitempty"`
}

// Page is one page of catalog results.
type Page struct {
	Page         int     `json:"page"`
	Results      []Movie `json:"results"`
	TotalPages   int     `json:"total_pages"`
	TotalResults int     `json:"total_results"`
}

// MovieDetail is the full record for a single movie.
type MovieDetail struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	PosterPath  string  `json:"poster_path"`
	ReleaseDate string  `json:"release_date"`
	Runtime     int     `json:"runtime"`
	VoteAverage float64 `json:"vote_average"`
	Tagline     string  `json:"tagline"`
	Genres      []Genre `json:"genres"`
}

// Genre is a TMDB genre entry.
type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// DiscoverParams are the supported discover filters. Mood, when set, is
// translated into genre and keyword identifiers before the request is built.
type DiscoverParams struct {
	Genre    string
	Year     string
	Rating   string
	Language string
	Sort     string
	Mood     string
	Page     int
}

// moodFilter maps a mood name onto the discover parameters that express it.
type moodFilter struct {
	genres  string
	keyword string
}

// Moods are fixed; the keyword half still needs a search round trip to
// resolve the keyword name into TMDB's numeric id.
var moodFilters = map[string]moodFilter{
	"cozy":        {genres: "35,10751", keyword: "feel-good"},
	"spooky":      {genres: "27,9648", keyword: "haunting"},
	"adventurous": {genres: "12,28", keyword: "quest"},
	"romantic":    {genres: "10749,35", keyword: "love"},
	"thoughtful":  {genres: "18,878", keyword: "philosophy"},
	"nostalgic":   {genres: "16,10751", keyword: "childhood"},
}

// Discover fetches a page of movies matching the given filters.
func (c *Client) Discover(ctx context.Context, p DiscoverParams) (*Page, error) {
	q := url.Values{}
	if p.Genre != "" {
		q.Set("with_genres", p.Genre)
	}
	if p.Year != "" {
		q.Set("primary_release_year", p.Year)
	}
	if p.Rating != "" {
		q.Set("vote_average.gte", p.Rating)
	}
	if p.Language != "" {
		q.Set("with_original_language", p.Language)
	}
	if p.Sort != "" {
		q.Set("sort_by", p.Sort)
	}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}

	if p.Mood != "" {
		mf, ok := moodFilters[p.Mood]
		if !ok {
			return nil, fmt.Errorf("unknown mood %q", p.Mood)
		}
		q.Set("with_genres", mf.genres)
		keywordID, err := c.keywordID(ctx, mf.keyword)
		if err != nil {
			// Genre filtering alone still gives usable results.
			c.log.Warn("keyword lookup failed, discovering by genre only",
				zap.String("mood", p.Mood), zap.Error(err))
		} else if keywordID != "" {
			q.Set("with_keywords", keywordID)
		}
	}

	var page Page
	if err := c.get(ctx, "/discover/movie", q, &page); err != nil {
		return nil, err
	}
	capPages(&page)
	return &page, nil
}

// Search fetches a page of movies matching a title query.
func (c *Client) Search(ctx context.Context, query string, pageNum int) (*Page, error) {
	q := url.Values{}
	q.Set("query", query)
	if pageNum > 0 {
		q.Set("page", strconv.Itoa(pageNum))
	}

	var page Page
	if err := c.get(ctx, "/search/movie", q, &page); err != nil {
		return nil, err
	}
	capPages(&page)
	return &page, nil
}

// Detail fetches the full record for a single movie.
func (c *Client) Detail(ctx context.Context, id int64) (*MovieDetail, error) {
	var detail MovieDetail
	if err := c.get(ctx, "/movie/"+strconv.FormatInt(id, 10), url.Values{}, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Genres fetches the movie genre list.
func (c *Client) Genres(ctx context.Context) ([]Genre, error) {
	var body struct {
		Genres []Genre `json:"genres"`
	}
	if err := c.get(ctx, "/genre/movie/list", url.Values{}, &body); err != nil {
		return nil, err
	}
	return body.Genres, nil
}

// keywordID resolves a keyword name to TMDB's numeric keyword id via the
// keyword-search endpoint, caching the result. Returns an empty string when
// the keyword has no match.
func (c *Client) keywordID(ctx context.Context, keyword string) (string, error) {
	cacheKey := "tmdb:keyword:" + keyword
	if c.cache != nil {
		if id, ok := c.cache.Get(ctx, cacheKey); ok {
			return id, nil
		}
	}

	q := url.Values{}
	q.Set("query", keyword)

	var body struct {
		Results []struct {
			ID   int64  `json:"id"`
			Name string `json:"name"`
		} `json:"results"`
	}
	if err := c.get(ctx, "/search/keyword", q, &body); err != nil {
		return "", err
	}
	if len(body.Results) == 0 {
		return "", nil
	}

	id := strconv.FormatInt(body.Results[0].ID, 10)
	if c.cache != nil {
		c.cache.Set(ctx, cacheKey, id, keywordCacheTTL)
	}
	return id, nil
}

// get issues a GET against the API and decodes the JSON response into dst.
func (c *Client) get(ctx context.Context, path string, q url.Values, dst any) error {
	q.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build tmdb request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("tmdb request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tmdb returned status %d for %s", resp.StatusCode, path)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode tmdb response: %w", err)
	}
	return nil
}

func capPages(p *Page) {
	if p.TotalPages > maxReportedPages {
		p.TotalPages = maxReportedPages
	}
}
