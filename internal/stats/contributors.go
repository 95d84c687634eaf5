package stats

import (
	"context"
	"sort"
	"time"

	"github.com/reelog/reelog/internal/domain"
)

// TopContributors ranks the user's genres, directors and actors by watch
// frequency, descending, ties kept in first-encountered order. A limit of
// zero or less means DefaultLimit.
func (s *Service) TopContributors(ctx context.Context, userID int64, limit int) domain.TopContributors {
	defer s.observe("top_contributors", time.Now())

	if limit <= 0 {
		limit = DefaultLimit
	}
	result := domain.TopContributors{
		TopGenres:    []domain.Contribution{},
		TopDirectors: []domain.Contribution{},
		TopActors:    []domain.Contribution{},
	}

	events, err := s.watch.WatchEvents(ctx, userID)
	if err != nil {
		s.logger.Warn().Err(err).Int64("user_id", userID).Msg("stats: contributors read failed")
		return result
	}

	genres := newCounter()
	directors := newCounter()
	actors := newCounter()

	for _, ev := range events {
		for _, genre := range ev.Movie.Genres {
			genres.add(genre.Name)
		}
		for _, person := range ev.Movie.Directors {
			directors.add(person.Name)
		}
		for _, person := range ev.Movie.Cast {
			actors.add(person.Name)
		}
	}

	result.TopGenres = genres.top(limit)
	result.TopDirectors = directors.top(limit)
	result.TopActors = actors.top(limit)
	return result
}

// counter tallies occurrences while remembering first-encountered order so
// the final sort is stable for ties.
type counter struct {
	counts map[string]int
	order  []string
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int)}
}

func (c *counter) add(name string) {
	if name == "" {
		return
	}
	if _, seen := c.counts[name]; !seen {
		c.order = append(c.order, name)
	}
	c.counts[name]++
}

func (c *counter) top(limit int) []domain.Contribution {
	ranked := make([]domain.Contribution, 0, len(c.order))
	for _, name := range c.order {
		ranked = append(ranked, domain.Contribution{Name: name, Count: c.counts[name]})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
