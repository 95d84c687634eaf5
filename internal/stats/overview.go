package stats

import (
	"context"
	"math"
	"time"

	"github.com/reelog/reelog/internal/domain"
)

// Overview computes the user's lifetime totals and breakdowns.
//
// TotalMovies counts distinct movies across both watch-log sources; every
// other figure accumulates per watch event, so rewatching a two-hour movie
// three times contributes six hours. A movie with an unresolvable runtime
// contributes zero hours but still counts everywhere else, and a movie with
// no release date is excluded from the decade breakdown only.
func (s *Service) Overview(ctx context.Context, userID int64) domain.StatsOverview {
	defer s.observe("overview", time.Now())

	result := domain.StatsOverview{
		GenreBreakdown:  make(map[string]int),
		DecadeBreakdown: make(map[string]int),
	}

	events, err := s.watch.WatchEvents(ctx, userID)
	if err != nil {
		s.logger.Warn().Err(err).Int64("user_id", userID).Msg("stats: overview read failed")
		return result
	}

	resolver := s.newRuntimeResolver()
	distinct := make(map[int64]struct{})
	totalMinutes := 0

	for _, ev := range events {
		distinct[ev.MovieID] = struct{}{}
		totalMinutes += resolver.resolve(ctx, ev.Movie)
		if ev.Rewatch {
			result.TotalRewatches++
		}
		for _, genre := range ev.Movie.Genres {
			result.GenreBreakdown[genre.Name]++
		}
		if decade, ok := ev.Movie.Decade(); ok {
			result.DecadeBreakdown[decade]++
		}
	}

	reviewCount, err := s.reviews.CountByUser(ctx, userID)
	if err != nil {
		s.logger.Warn().Err(err).Int64("user_id", userID).Msg("stats: review count failed")
		reviewCount = 0
	}

	result.TotalMovies = len(distinct)
	result.TotalHours = int(math.Round(float64(totalMinutes) / 60))
	result.TotalReviews = reviewCount
	return result
}
