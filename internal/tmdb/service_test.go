package tmdb

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelog/reelog/internal/cache"
)

type upstream struct {
	server   *httptest.Server
	requests atomic.Int64
	status   atomic.Int64
}

// newUpstream serves a minimal TMDB lookalike under a /3 path prefix, like
// the real API, counting requests and honoring a forced status code.
func newUpstream(t *testing.T) *upstream {
	t.Helper()
	u := &upstream{}
	u.status.Store(http.StatusOK)

	mux := http.NewServeMux()
	mux.HandleFunc("/3/search/movie", func(w http.ResponseWriter, r *http.Request) {
		u.requests.Add(1)
		if code := int(u.status.Load()); code != http.StatusOK {
			w.WriteHeader(code)
			return
		}
		writeTestJSON(t, w, SearchResult{
			Page:         1,
			Results:      []Movie{{TMDBID: 27205, Title: "Inception"}},
			TotalPages:   1,
			TotalResults: 1,
		})
	})
	mux.HandleFunc("/3/movie/27205", func(w http.ResponseWriter, r *http.Request) {
		u.requests.Add(1)
		if code := int(u.status.Load()); code != http.StatusOK {
			w.WriteHeader(code)
			return
		}
		runtime := 148
		writeTestJSON(t, w, Movie{TMDBID: 27205, Title: "Inception", Runtime: &runtime})
	})
	mux.HandleFunc("/3/movie/27205/similar", func(w http.ResponseWriter, r *http.Request) {
		u.requests.Add(1)
		writeTestJSON(t, w, SearchResult{Page: 1, Results: []Movie{{TMDBID: 949, Title: "Heat"}}})
	})
	mux.HandleFunc("/3/genre/movie/list", func(w http.ResponseWriter, r *http.Request) {
		u.requests.Add(1)
		writeTestJSON(t, w, map[string][]Genre{"genres": {{ID: 28, Name: "Action"}}})
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		u.requests.Add(1)
		w.WriteHeader(http.StatusNotFound)
	})

	u.server = httptest.NewServer(mux)
	t.Cleanup(u.server.Close)
	return u
}

func writeTestJSON(t *testing.T, w http.ResponseWriter, payload interface{}) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(payload))
}

func newTestService(t *testing.T, u *upstream) *Service {
	t.Helper()
	client, err := NewHTTPClient(u.server.URL+"/3", "test-token", 2*time.Second, zerolog.Nop())
	require.NoError(t, err)
	return NewService(client, cache.NewMemory(), zerolog.Nop())
}

func TestSearchMoviesCaches(t *testing.T) {
	u := newUpstream(t)
	svc := newTestService(t, u)
	ctx := context.Background()

	first := svc.SearchMovies(ctx, "Inception", 1)
	require.Len(t, first.Results, 1)
	assert.Equal(t, "Inception", first.Results[0].Title)
	assert.Empty(t, first.Error)

	second := svc.SearchMovies(ctx, "inception", 1)
	require.Len(t, second.Results, 1)
	assert.Equal(t, int64(1), u.requests.Load(), "case-folded repeat served from cache")
}

func TestSearchMoviesBlankQuery(t *testing.T) {
	u := newUpstream(t)
	svc := newTestService(t, u)

	got := svc.SearchMovies(context.Background(), "   ", 1)
	assert.Empty(t, got.Results)
	assert.Zero(t, u.requests.Load())
}

func TestSearchMoviesRateLimited(t *testing.T) {
	u := newUpstream(t)
	svc := newTestService(t, u)
	u.status.Store(http.StatusTooManyRequests)

	got := svc.SearchMovies(context.Background(), "Inception", 1)
	assert.Empty(t, got.Results)
	assert.Contains(t, got.Error, "Rate limit")
}

func TestSearchMoviesTransportFailure(t *testing.T) {
	u := newUpstream(t)
	svc := newTestService(t, u)
	u.server.Close()

	got := svc.SearchMovies(context.Background(), "Inception", 1)
	assert.Empty(t, got.Results)
	assert.Contains(t, got.Error, "Connection error")
}

func TestMovieDetailsCaches(t *testing.T) {
	u := newUpstream(t)
	svc := newTestService(t, u)
	ctx := context.Background()

	movie, err := svc.MovieDetails(ctx, 27205)
	require.NoError(t, err)
	require.NotNil(t, movie)
	assert.Equal(t, "Inception", movie.Title)
	require.NotNil(t, movie.Runtime)
	assert.Equal(t, 148, *movie.Runtime)

	again, err := svc.MovieDetails(ctx, 27205)
	require.NoError(t, err)
	require.NotNil(t, again)
	assert.Equal(t, int64(1), u.requests.Load())
}

func TestMovieDetailsDegradesToNil(t *testing.T) {
	u := newUpstream(t)
	svc := newTestService(t, u)

	movie, err := svc.MovieDetails(context.Background(), 999999)
	assert.NoError(t, err)
	assert.Nil(t, movie)

	movie, err = svc.MovieDetails(context.Background(), 0)
	assert.NoError(t, err)
	assert.Nil(t, movie)
}

func TestSimilarMovies(t *testing.T) {
	u := newUpstream(t)
	svc := newTestService(t, u)
	ctx := context.Background()

	got := svc.SimilarMovies(ctx, 27205, 1)
	require.Len(t, got.Results, 1)
	assert.Equal(t, "Heat", got.Results[0].Title)

	svc.SimilarMovies(ctx, 27205, 1)
	assert.Equal(t, int64(1), u.requests.Load())
}

func TestGenres(t *testing.T) {
	u := newUpstream(t)
	svc := newTestService(t, u)
	ctx := context.Background()

	genres := svc.Genres(ctx)
	require.Len(t, genres, 1)
	assert.Equal(t, "Action", genres[0].Name)

	svc.Genres(ctx)
	assert.Equal(t, int64(1), u.requests.Load())
}

func TestGenresDegradesToEmpty(t *testing.T) {
	u := newUpstream(t)
	svc := newTestService(t, u)
	u.server.Close()

	genres := svc.Genres(context.Background())
	assert.NotNil(t, genres)
	assert.Empty(t, genres)
}

func TestHTTPClientSendsBearerToken(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		writeTestJSON(t, w, SearchResult{})
	}))
	defer server.Close()

	client, err := NewHTTPClient(server.URL, "secret-token", 2*time.Second, zerolog.Nop())
	require.NoError(t, err)

	_, err = client.SearchMovies(context.Background(), "x", 1)
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret-token", gotAuth)
}

func TestHTTPClientPreservesBasePathPrefix(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		writeTestJSON(t, w, SearchResult{})
	}))
	defer server.Close()

	client, err := NewHTTPClient(server.URL+"/3/", "token", 2*time.Second, zerolog.Nop())
	require.NoError(t, err)

	_, err = client.SearchMovies(context.Background(), "x", 1)
	require.NoError(t, err)
	assert.Equal(t, "/3/search/movie", gotPath)
}
