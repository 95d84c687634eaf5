package stats

import (
	"context"
	"sort"
	"time"

	"github.com/reelog/reelog/internal/domain"
)

// MostWatchedMovies ranks the user's movies by watch count, descending,
// ties kept in first-watched order. A limit of zero or less means
// DefaultLimit.
func (s *Service) MostWatchedMovies(ctx context.Context, userID int64, limit int) []domain.MovieWatchCount {
	defer s.observe("most_watched", time.Now())

	if limit <= 0 {
		limit = DefaultLimit
	}

	events, err := s.watch.WatchEvents(ctx, userID)
	if err != nil {
		s.logger.Warn().Err(err).Int64("user_id", userID).Msg("stats: most watched read failed")
		return []domain.MovieWatchCount{}
	}

	byMovie := make(map[int64]int)
	ranked := make([]domain.MovieWatchCount, 0)

	for _, ev := range events {
		idx, seen := byMovie[ev.MovieID]
		if !seen {
			idx = len(ranked)
			byMovie[ev.MovieID] = idx
			ranked = append(ranked, domain.MovieWatchCount{Movie: ev.Movie})
		}
		ranked[idx].WatchCount++
		if ev.Rewatch {
			ranked[idx].RewatchCount++
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].WatchCount > ranked[j].WatchCount
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
