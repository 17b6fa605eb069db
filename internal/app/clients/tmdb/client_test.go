package tmdb_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cinecircle/cinecircle/internal/app/clients/tmdb"
	"github.com/cinecircle/cinecircle/internal/app/system/kvcache"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*tmdb.Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := tmdb.New("test-key", kvcache.NewMemory(), zap.NewNop()).WithBaseURL(srv.URL)
	return client, srv
}

func TestDiscover_BuildsFilterParams(t *testing.T) {
	var gotQuery map[string]string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/discover/movie" {
			t.Errorf("path: got %q, want /discover/movie", r.URL.Path)
		}
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		json.NewEncoder(w).Encode(tmdb.Page{Page: 2, TotalPages: 10})
	})

	page, err := client.Discover(context.Background(), tmdb.DiscoverParams{
		Genre:    "28",
		Year:     "1982",
		Rating:   "7",
		Language: "en",
		Sort:     "popularity.desc",
		Page:     2,
	})
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}

	want := map[string]string{
		"api_key":                "test-key",
		"with_genres":            "28",
		"primary_release_year":   "1982",
		"vote_average.gte":       "7",
		"with_original_language": "en",
		"sort_by":                "popularity.desc",
		"page":                   "2",
	}
	for k, v := range want {
		if gotQuery[k] != v {
			t.Errorf("query %s: got %q, want %q", k, gotQuery[k], v)
		}
	}
	if page.Page != 2 {
		t.Errorf("page: got %d, want 2", page.Page)
	}
}

func TestDiscover_CapsReportedPages(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(tmdb.Page{Page: 1, TotalPages: 32412, TotalResults: 648240})
	})

	page, err := client.Discover(context.Background(), tmdb.DiscoverParams{})
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if page.TotalPages != 500 {
		t.Errorf("total pages: got %d, want 500", page.TotalPages)
	}
	if page.TotalResults != 648240 {
		t.Errorf("total results should be pass-through, got %d", page.TotalResults)
	}
}

func TestDiscover_MoodTranslation(t *testing.T) {
	var keywordSearches int
	var discoverGenres, discoverKeywords string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search/keyword":
			keywordSearches++
			if got := r.URL.Query().Get("query"); got != "feel-good" {
				t.Errorf("keyword query: got %q, want %q", got, "feel-good")
			}
			json.NewEncoder(w).Encode(map[string]any{
				"results": []map[string]any{{"id": 9715, "name": "feel-good"}},
			})
		case "/discover/movie":
			discoverGenres = r.URL.Query().Get("with_genres")
			discoverKeywords = r.URL.Query().Get("with_keywords")
			json.NewEncoder(w).Encode(tmdb.Page{Page: 1, TotalPages: 3})
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
		}
	})

	_, err := client.Discover(context.Background(), tmdb.DiscoverParams{Mood: "cozy"})
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if discoverGenres != "35,10751" {
		t.Errorf("with_genres: got %q, want %q", discoverGenres, "35,10751")
	}
	if discoverKeywords != "9715" {
		t.Errorf("with_keywords: got %q, want %q", discoverKeywords, "9715")
	}

	// Second discover with the same mood hits the keyword cache.
	_, err = client.Discover(context.Background(), tmdb.DiscoverParams{Mood: "cozy"})
	if err != nil {
		t.Fatalf("second Discover failed: %v", err)
	}
	if keywordSearches != 1 {
		t.Errorf("keyword searches: got %d, want 1 (cached)", keywordSearches)
	}
}

func TestDiscover_UnknownMood(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should be made for an unknown mood")
	})

	_, err := client.Discover(context.Background(), tmdb.DiscoverParams{Mood: "grumpy"})
	if err == nil {
		t.Fatal("expected error for unknown mood")
	}
}

func TestSearch(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/movie" {
			t.Errorf("path: got %q, want /search/movie", r.URL.Path)
		}
		if got := r.URL.Query().Get("query"); got != "alien" {
			t.Errorf("query: got %q, want %q", got, "alien")
		}
		json.NewEncoder(w).Encode(tmdb.Page{
			Page:       1,
			TotalPages: 2,
			Results:    []tmdb.Movie{{ID: 348, Title: "Alien"}},
		})
	})

	page, err := client.Search(context.Background(), "alien", 1)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(page.Results) != 1 || page.Results[0].Title != "Alien" {
		t.Errorf("unexpected results: %+v", page.Results)
	}
}

func TestDetail(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/movie/348" {
			t.Errorf("path: got %q, want /movie/348", r.URL.Path)
		}
		json.NewEncoder(w).Encode(tmdb.MovieDetail{
			ID:      348,
			Title:   "Alien",
			Runtime: 117,
			Genres:  []tmdb.Genre{{ID: 27, Name: "Horror"}},
		})
	})

	detail, err := client.Detail(context.Background(), 348)
	if err != nil {
		t.Fatalf("Detail failed: %v", err)
	}
	if detail.Title != "Alien" || detail.Runtime != 117 {
		t.Errorf("unexpected detail: %+v", detail)
	}
}

func TestGenres(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/genre/movie/list" {
			t.Errorf("path: got %q, want /genre/movie/list", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"genres": []tmdb.Genre{{ID: 28, Name: "Action"}, {ID: 35, Name: "Comedy"}},
		})
	})

	genres, err := client.Genres(context.Background())
	if err != nil {
		t.Fatalf("Genres failed: %v", err)
	}
	if len(genres) != 2 || genres[0].Name != "Action" {
		t.Errorf("unexpected genres: %+v", genres)
	}
}

func TestGet_UpstreamError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"status_message":"Invalid API key"}`, http.StatusUnauthorized)
	})

	if _, err := client.Search(context.Background(), "alien", 1); err == nil {
		t.Fatal("expected error for upstream failure")
	}
}
