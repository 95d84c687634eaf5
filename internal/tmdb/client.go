package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ErrNotFound is returned when upstream cannot find the requested movie.
var ErrNotFound = errors.New("tmdb: not found")

// ErrRateLimited is returned when upstream responds with 429.
var ErrRateLimited = errors.New("tmdb: rate limited")

// Client defines the contract for querying the TMDB API.
type Client interface {
	SearchMovies(ctx context.Context, query string, page int) (*SearchResult, error)
	MovieDetails(ctx context.Context, tmdbID int64) (*Movie, error)
	SimilarMovies(ctx context.Context, tmdbID int64, page int) (*SearchResult, error)
	Genres(ctx context.Context) ([]Genre, error)
}

// Movie is the TMDB movie payload, with credits when requested.
type Movie struct {
	TMDBID      int64    `json:"id"`
	Title       string   `json:"title"`
	Overview    string   `json:"overview"`
	PosterPath  string   `json:"poster_path"`
	ReleaseDate string   `json:"release_date"`
	Runtime     *int     `json:"runtime"`
	Popularity  float64  `json:"popularity"`
	Genres      []Genre  `json:"genres,omitempty"`
	Credits     *Credits `json:"credits,omitempty"`
}

// Genre is a TMDB genre entry.
type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Credits carries cast and crew for a movie.
type Credits struct {
	Cast []CastMember `json:"cast"`
	Crew []CrewMember `json:"crew"`
}

// CastMember is one cast credit.
type CastMember struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Character string `json:"character"`
	Order     int    `json:"order"`
}

// CrewMember is one crew credit.
type CrewMember struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Job  string `json:"job"`
}

// SearchResult is a page of search or similar-movie results.
type SearchResult struct {
	Page         int     `json:"page"`
	Results      []Movie `json:"results"`
	TotalPages   int     `json:"total_pages"`
	TotalResults int     `json:"total_results"`
	// Error is set by the cached service layer when results were degraded.
	Error string `json:"error,omitempty"`
}

// HTTPClient implements Client over HTTP with a bearer access token.
type HTTPClient struct {
	baseURL     *url.URL
	accessToken string
	client      *http.Client
	logger      zerolog.Logger
}

// NewHTTPClient constructs a new HTTP-backed TMDB client.
func NewHTTPClient(baseURL, accessToken string, timeout time.Duration, logger zerolog.Logger) (*HTTPClient, error) {
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse tmdb url: %w", err)
	}
	return &HTTPClient{
		baseURL:     parsed,
		accessToken: accessToken,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   timeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   timeout,
				ResponseHeaderTimeout: timeout,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
		logger: logger,
	}, nil
}

// SearchMovies queries the movie search endpoint.
func (c *HTTPClient) SearchMovies(ctx context.Context, query string, page int) (*SearchResult, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("page", strconv.Itoa(page))

	var result SearchResult
	if err := c.getJSON(ctx, "/search/movie", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// MovieDetails fetches one movie with credits appended.
func (c *HTTPClient) MovieDetails(ctx context.Context, tmdbID int64) (*Movie, error) {
	params := url.Values{}
	params.Set("append_to_response", "credits")

	var movie Movie
	if err := c.getJSON(ctx, fmt.Sprintf("/movie/%d", tmdbID), params, &movie); err != nil {
		return nil, err
	}
	return &movie, nil
}

// SimilarMovies fetches a page of movies similar to the given one.
func (c *HTTPClient) SimilarMovies(ctx context.Context, tmdbID int64, page int) (*SearchResult, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))

	var result SearchResult
	if err := c.getJSON(ctx, fmt.Sprintf("/movie/%d/similar", tmdbID), params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Genres fetches the movie genre list.
func (c *HTTPClient) Genres(ctx context.Context) ([]Genre, error) {
	var payload struct {
		Genres []Genre `json:"genres"`
	}
	if err := c.getJSON(ctx, "/genre/movie/list", nil, &payload); err != nil {
		return nil, err
	}
	return payload.Genres, nil
}

func (c *HTTPClient) getJSON(ctx context.Context, path string, params url.Values, dest interface{}) error {
	// Joined manually so a base URL with a path prefix (the real API lives
	// under /3) is preserved.
	endpoint := *c.baseURL
	endpoint.Path = strings.TrimRight(endpoint.Path, "/") + path
	if params != nil {
		endpoint.RawQuery = params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
			return fmt.Errorf("decode tmdb response: %w", err)
		}
		return nil
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		c.logger.Warn().Int("status", resp.StatusCode).Str("path", path).Msg("tmdb: unexpected status")
		return fmt.Errorf("tmdb: upstream returned %d", resp.StatusCode)
	}
}
