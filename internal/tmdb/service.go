package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/reelog/reelog/internal/cache"
	"github.com/reelog/reelog/internal/metrics"
)

// Cache TTLs. Search results churn with upstream popularity scores, so they
// expire quickly; details, similar lists and genres are stable for a day.
const (
	searchTTL  = time.Hour
	detailsTTL = 24 * time.Hour
	similarTTL = 24 * time.Hour
	genresTTL  = 24 * time.Hour
)

// Service wraps a Client with read-through caching and fail-soft degradation:
// no method returns an error. Failed lookups yield empty results (with an
// Error note on search payloads) so callers can always render something.
type Service struct {
	client Client
	cache  cache.Cache
	logger zerolog.Logger
}

// NewService builds the cached TMDB service.
func NewService(client Client, c cache.Cache, logger zerolog.Logger) *Service {
	return &Service{client: client, cache: c, logger: logger}
}

// SearchMovies searches for movies by title. A blank query returns an empty
// result without touching the upstream. On rate limiting or transport
// failure, a previously cached page is served if one survives.
func (s *Service) SearchMovies(ctx context.Context, query string, page int) *SearchResult {
	query = strings.TrimSpace(query)
	if query == "" {
		return &SearchResult{Results: []Movie{}}
	}
	if page < 1 {
		page = 1
	}

	key := fmt.Sprintf("tmdb_search_%s_page_%d", strings.ToLower(query), page)
	var cached SearchResult
	if s.readCached(ctx, key, &cached) {
		return &cached
	}

	result, err := s.client.SearchMovies(ctx, query, page)
	if err != nil {
		if stale := s.staleSearch(ctx, key); stale != nil {
			return stale
		}
		if errors.Is(err, ErrRateLimited) {
			metrics.TMDBUpstreamErrors.WithLabelValues("rate_limited").Inc()
			return &SearchResult{Results: []Movie{}, Error: "Rate limit exceeded. Please try again later."}
		}
		metrics.TMDBUpstreamErrors.WithLabelValues("transport").Inc()
		s.logger.Warn().Err(err).Str("query", query).Msg("tmdb: search failed")
		return &SearchResult{Results: []Movie{}, Error: "Connection error. Please try again later."}
	}

	s.writeCached(ctx, key, result, searchTTL)
	return result
}

// MovieDetails returns one movie with credits, or nil when it cannot be
// fetched for any reason.
func (s *Service) MovieDetails(ctx context.Context, tmdbID int64) (*Movie, error) {
	if tmdbID <= 0 {
		return nil, nil
	}

	key := fmt.Sprintf("tmdb_movie_%d", tmdbID)
	var cached Movie
	if s.readCached(ctx, key, &cached) {
		return &cached, nil
	}

	movie, err := s.client.MovieDetails(ctx, tmdbID)
	if err != nil {
		s.countUpstreamError(err)
		s.logger.Warn().Err(err).Int64("tmdb_id", tmdbID).Msg("tmdb: details failed")
		return nil, nil
	}

	s.writeCached(ctx, key, movie, detailsTTL)
	return movie, nil
}

// SimilarMovies returns a page of similar movies, degrading to an empty page.
func (s *Service) SimilarMovies(ctx context.Context, tmdbID int64, page int) *SearchResult {
	if tmdbID <= 0 {
		return &SearchResult{Results: []Movie{}}
	}
	if page < 1 {
		page = 1
	}

	key := fmt.Sprintf("tmdb_similar_%d_page_%d", tmdbID, page)
	var cached SearchResult
	if s.readCached(ctx, key, &cached) {
		return &cached
	}

	result, err := s.client.SimilarMovies(ctx, tmdbID, page)
	if err != nil {
		s.countUpstreamError(err)
		s.logger.Warn().Err(err).Int64("tmdb_id", tmdbID).Msg("tmdb: similar failed")
		return &SearchResult{Results: []Movie{}, Error: "An error occurred"}
	}

	s.writeCached(ctx, key, result, similarTTL)
	return result
}

// Genres returns the genre list, degrading to an empty slice.
func (s *Service) Genres(ctx context.Context) []Genre {
	const key = "tmdb_genres"
	var cached []Genre
	if s.readCached(ctx, key, &cached) {
		return cached
	}

	genres, err := s.client.Genres(ctx)
	if err != nil {
		s.countUpstreamError(err)
		s.logger.Warn().Err(err).Msg("tmdb: genres failed")
		return []Genre{}
	}

	s.writeCached(ctx, key, genres, genresTTL)
	return genres
}

func (s *Service) readCached(ctx context.Context, key string, dest interface{}) bool {
	raw, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("tmdb: cache read failed")
		metrics.TMDBCacheMisses.Inc()
		return false
	}
	if !ok {
		metrics.TMDBCacheMisses.Inc()
		return false
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("tmdb: cache entry corrupt")
		_ = s.cache.Delete(ctx, key)
		metrics.TMDBCacheMisses.Inc()
		return false
	}
	metrics.TMDBCacheHits.Inc()
	return true
}

func (s *Service) writeCached(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, string(raw), ttl); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("tmdb: cache write failed")
	}
}

// staleSearch re-reads the cache after an upstream failure; a concurrent
// request may have refreshed the entry in the meantime.
func (s *Service) staleSearch(ctx context.Context, key string) *SearchResult {
	var cached SearchResult
	if s.readCached(ctx, key, &cached) {
		return &cached
	}
	return nil
}

func (s *Service) countUpstreamError(err error) {
	switch {
	case errors.Is(err, ErrRateLimited):
		metrics.TMDBUpstreamErrors.WithLabelValues("rate_limited").Inc()
	case errors.Is(err, ErrNotFound):
		metrics.TMDBUpstreamErrors.WithLabelValues("status").Inc()
	default:
		metrics.TMDBUpstreamErrors.WithLabelValues("transport").Inc()
	}
}
