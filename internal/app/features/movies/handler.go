// Package movies proxies the movie catalog for the browser. Upstream
// failures surface as 502 with empty data rather than breaking the page.
package movies

import (
	"net/http"
	"strconv"

	"github.com/cinecircle/cinecircle/internal/app/clients/tmdb"
	"github.com/cinecircle/cinecircle/internal/app/system/httpjson"
	"github.com/cinecircle/cinecircle/internal/app/system/normalize"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler serves catalog endpoints.
type Handler struct {
	Catalog *tmdb.Client
	Log     *zap.Logger
}

// NewHandler constructs a movies Handler.
func NewHandler(catalog *tmdb.Client, logger *zap.Logger) *Handler {
	return &Handler{Catalog: catalog, Log: logger}
}

// ServeDiscover handles GET /api/movies/discover.
func (h *Handler) ServeDiscover(w http.ResponseWriter, r *http.Request) {
	pageNum, _ := strconv.Atoi(query.Get(r, "page"))

	params := tmdb.DiscoverParams{
		Genre:    query.Get(r, "genre"),
		Year:     query.Get(r, "year"),
		Rating:   query.Get(r, "rating"),
		Language: query.Get(r, "language"),
		Sort:     query.Get(r, "sort"),
		Mood:     normalize.Mood(query.Get(r, "mood")),
		Page:     pageNum,
	}

	page, err := h.Catalog.Discover(r.Context(), params)
	if err != nil {
		h.Log.Warn("movie discover failed", zap.Error(err))
		httpjson.Write(w, http.StatusBadGateway, tmdb.Page{Results: []tmdb.Movie{}})
		return
	}
	httpjson.OK(w, page)
}

// ServeSearch handles GET /api/movies/search.
func (h *Handler) ServeSearch(w http.ResponseWriter, r *http.Request) {
	q := query.Get(r, "query")
	if q == "" {
		httpjson.Error(w, http.StatusBadRequest, "query is required")
		return
	}
	pageNum, _ := strconv.Atoi(query.Get(r, "page"))

	page, err := h.Catalog.Search(r.Context(), q, pageNum)
	if err != nil {
		h.Log.Warn("movie search failed", zap.String("query", q), zap.Error(err))
		httpjson.Write(w, http.StatusBadGateway, tmdb.Page{Results: []tmdb.Movie{}})
		return
	}
	httpjson.OK(w, page)
}

// ServeDetail handles GET /api/movies/{id}.
func (h *Handler) ServeDetail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid movie id")
		return
	}

	detail, err := h.Catalog.Detail(r.Context(), id)
	if err != nil {
		h.Log.Warn("movie detail failed", zap.Int64("id", id), zap.Error(err))
		httpjson.Error(w, http.StatusBadGateway, "movie catalog unavailable")
		return
	}
	httpjson.OK(w, detail)
}

// ServeGenres handles GET /api/movies/genres.
func (h *Handler) ServeGenres(w http.ResponseWriter, r *http.Request) {
	genres, err := h.Catalog.Genres(r.Context())
	if err != nil {
		h.Log.Warn("genre list failed", zap.Error(err))
		httpjson.Write(w, http.StatusBadGateway, []tmdb.Genre{})
		return
	}
	httpjson.OK(w, genres)
}
