package stats

import (
	"context"
	"sort"
	"time"
)

// HeatmapYears lists the years offered by the heatmap's year picker: every
// year the user has dated watch events in, plus the current year, newest
// first. On failure or with no history it degrades to just the current year.
func (s *Service) HeatmapYears(ctx context.Context, userID int64, currentYear int) []int {
	defer s.observe("heatmap_years", time.Now())

	years, err := s.watch.WatchedYears(ctx, userID)
	if err != nil {
		s.logger.Warn().Err(err).Int64("user_id", userID).Msg("stats: heatmap years read failed")
		return []int{currentYear}
	}

	seen := false
	for _, year := range years {
		if year == currentYear {
			seen = true
			break
		}
	}
	if !seen {
		years = append(years, currentYear)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years
}

// TrendYears lists the years offered by the trend year picker: the current
// year and the four before it, newest first.
func (s *Service) TrendYears(currentYear int) []int {
	years := make([]int, 0, 5)
	for i := 0; i < 5; i++ {
		years = append(years, currentYear-i)
	}
	return years
}
