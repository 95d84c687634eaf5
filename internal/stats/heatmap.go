package stats

import (
	"context"
	"time"
)

const dayKeyLayout = "2006-01-02"

// Heatmap computes day-bucketed watch counts across one calendar year,
// January 1st through December 31st. The result is dense: every date in the
// year is a key, days without activity map to zero, so a calendar grid can
// render a fixed number of cells. On a read failure the all-zero grid is
// returned.
func (s *Service) Heatmap(ctx context.Context, userID int64, year int) map[string]int {
	defer s.observe("heatmap", time.Now())

	result := make(map[string]int, 366)
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	for day := start; day.Year() == year; day = day.AddDate(0, 0, 1) {
		result[day.Format(dayKeyLayout)] = 0
	}

	events, err := s.watch.WatchEvents(ctx, userID)
	if err != nil {
		s.logger.Warn().Err(err).Int64("user_id", userID).Msg("stats: heatmap read failed")
		return result
	}

	for _, ev := range events {
		if ev.WatchedOn == nil || ev.WatchedOn.Year() != year {
			continue
		}
		result[ev.WatchedOn.Format(dayKeyLayout)]++
	}
	return result
}
