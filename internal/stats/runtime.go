package stats

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/reelog/reelog/internal/domain"
	"github.com/reelog/reelog/internal/metrics"
)

const (
	runtimeKeyPrefix = "movie_runtime_"
	runtimeMissing   = "missing"
	runtimeCacheTTL  = 6 * time.Hour
)

// runtimeResolver fills in missing movie runtimes, in minutes. Lookup order:
// the movie record itself, the per-run memo, the shared cache, and finally
// one upstream call. A movie whose runtime cannot be determined resolves to
// zero and is remembered as missing for the cache TTL, so repeated page
// loads do not hammer a provider that has no answer.
//
// The memo is scoped to one resolver, and a resolver to one aggregation run:
// a movie appearing in many watch events triggers at most one upstream call
// per run, and concurrent requests stay isolated from each other.
type runtimeResolver struct {
	svc  *Service
	memo map[int64]int
}

func (s *Service) newRuntimeResolver() *runtimeResolver {
	return &runtimeResolver{svc: s, memo: make(map[int64]int)}
}

func (r *runtimeResolver) resolve(ctx context.Context, movie domain.Movie) int {
	if movie.Runtime != nil && *movie.Runtime > 0 {
		metrics.RuntimeResolutions.WithLabelValues("movie").Inc()
		return *movie.Runtime
	}
	if minutes, ok := r.memo[movie.ID]; ok {
		return minutes
	}

	key := fmt.Sprintf("%s%d", runtimeKeyPrefix, movie.TMDBID)
	if raw, ok, err := r.svc.cache.Get(ctx, key); err == nil && ok {
		if raw == runtimeMissing {
			metrics.RuntimeResolutions.WithLabelValues("missing").Inc()
			r.memo[movie.ID] = 0
			return 0
		}
		if minutes, err := strconv.Atoi(raw); err == nil && minutes > 0 {
			metrics.RuntimeResolutions.WithLabelValues("cache").Inc()
			r.memo[movie.ID] = minutes
			return minutes
		}
	}

	minutes := r.fetch(ctx, movie, key)
	r.memo[movie.ID] = minutes
	return minutes
}

// fetch makes the single best-effort upstream attempt. Failures of any kind
// are equivalent to "runtime unknown": zero, plus a cached missing marker.
func (r *runtimeResolver) fetch(ctx context.Context, movie domain.Movie, key string) int {
	details, err := r.svc.meta.MovieDetails(ctx, movie.TMDBID)
	if err != nil || details == nil || details.Runtime == nil || *details.Runtime <= 0 {
		if err != nil {
			r.svc.logger.Warn().Err(err).Int64("tmdb_id", movie.TMDBID).Msg("stats: runtime lookup failed")
		}
		metrics.RuntimeResolutions.WithLabelValues("missing").Inc()
		if cacheErr := r.svc.cache.Set(ctx, key, runtimeMissing, runtimeCacheTTL); cacheErr != nil {
			r.svc.logger.Warn().Err(cacheErr).Str("key", key).Msg("stats: runtime cache write failed")
		}
		return 0
	}

	minutes := *details.Runtime
	metrics.RuntimeResolutions.WithLabelValues("upstream").Inc()

	// Best-effort write-back; the caller never observes a failure here.
	if err := r.svc.movies.UpdateRuntime(ctx, movie.ID, minutes); err != nil {
		r.svc.logger.Warn().Err(err).Int64("movie_id", movie.ID).Msg("stats: runtime write-back failed")
	}
	if err := r.svc.cache.Set(ctx, key, strconv.Itoa(minutes), runtimeCacheTTL); err != nil {
		r.svc.logger.Warn().Err(err).Str("key", key).Msg("stats: runtime cache write failed")
	}
	return minutes
}
