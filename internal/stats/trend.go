package stats

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/reelog/reelog/internal/domain"
)

const monthKeyLayout = "2006-01"

// TrendData computes month-bucketed watch activity and average rating for
// one calendar year. Both trends are sparse: months without activity are
// omitted, and months without any rated event are omitted from the rating
// trend only. Undated events are skipped.
//
// A user with fewer than two dated events overall gets two empty lists:
// there is no trend to draw yet, and the caller renders that as a
// "not enough data" state rather than an error.
func (s *Service) TrendData(ctx context.Context, userID int64, year int) domain.TrendData {
	defer s.observe("trend", time.Now())

	result := domain.TrendData{
		ActivityTrend: []domain.ActivityPoint{},
		RatingTrend:   []domain.RatingPoint{},
	}

	events, err := s.watch.WatchEvents(ctx, userID)
	if err != nil {
		s.logger.Warn().Err(err).Int64("user_id", userID).Msg("stats: trend read failed")
		return result
	}

	dated := 0
	for _, ev := range events {
		if ev.WatchedOn != nil {
			dated++
		}
	}
	if dated < 2 {
		return result
	}

	activity := make(map[string]int)
	ratingSum := make(map[string]int)
	ratingCount := make(map[string]int)

	for _, ev := range events {
		if ev.WatchedOn == nil || ev.WatchedOn.Year() != year {
			continue
		}
		month := ev.WatchedOn.Format(monthKeyLayout)
		activity[month]++
		if ev.Rating != nil {
			ratingSum[month] += *ev.Rating
			ratingCount[month]++
		}
	}

	months := make([]string, 0, len(activity))
	for month := range activity {
		months = append(months, month)
	}
	sort.Strings(months)

	for _, month := range months {
		result.ActivityTrend = append(result.ActivityTrend, domain.ActivityPoint{
			Month: month,
			Count: activity[month],
		})
		if n := ratingCount[month]; n > 0 {
			avg := float64(ratingSum[month]) / float64(n)
			result.RatingTrend = append(result.RatingTrend, domain.RatingPoint{
				Month:         month,
				AverageRating: math.Round(avg*10) / 10,
			})
		}
	}
	return result
}
