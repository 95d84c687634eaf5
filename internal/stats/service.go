// Package stats computes a user's watch statistics: lifetime overview,
// ranked contributors, month-bucketed trends and a calendar heatmap, plus
// the runtime resolution that backs the hours-watched figure.
//
// Every exported operation is fail-soft: data-access problems are logged and
// the zero/empty result is returned, never an error. A broken stats widget
// must not break the page.
package stats

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/reelog/reelog/internal/cache"
	"github.com/reelog/reelog/internal/domain"
	"github.com/reelog/reelog/internal/metrics"
	"github.com/reelog/reelog/internal/tmdb"
)

// DefaultLimit bounds ranked lists when the caller does not supply a limit.
const DefaultLimit = 10

// WatchRepository is the read side of the user's watch history.
type WatchRepository interface {
	WatchEvents(ctx context.Context, userID int64) ([]domain.WatchEvent, error)
	WatchedYears(ctx context.Context, userID int64) ([]int, error)
}

// ReviewCounter supplies the user's review count for the overview.
type ReviewCounter interface {
	CountByUser(ctx context.Context, userID int64) (int, error)
}

// RuntimeWriter persists resolved runtimes back onto movie records.
type RuntimeWriter interface {
	UpdateRuntime(ctx context.Context, movieID int64, runtime int) error
}

// MetadataProvider is the external movie-details lookup used to fill in
// missing runtimes.
type MetadataProvider interface {
	MovieDetails(ctx context.Context, tmdbID int64) (*tmdb.Movie, error)
}

// Deps bundles the collaborators a Service reads from.
type Deps struct {
	Watch    WatchRepository
	Reviews  ReviewCounter
	Movies   RuntimeWriter
	Metadata MetadataProvider
	Cache    cache.Cache
	Logger   zerolog.Logger
}

// Service is the statistics aggregator. It owns no data and performs no
// writes beyond the runtime resolver's best-effort runtime write-back.
type Service struct {
	watch   WatchRepository
	reviews ReviewCounter
	movies  RuntimeWriter
	meta    MetadataProvider
	cache   cache.Cache
	logger  zerolog.Logger
}

// New constructs the aggregator.
func New(deps Deps) *Service {
	return &Service{
		watch:   deps.Watch,
		reviews: deps.Reviews,
		movies:  deps.Movies,
		meta:    deps.Metadata,
		cache:   deps.Cache,
		logger:  deps.Logger,
	}
}

func (s *Service) observe(operation string, start time.Time) {
	metrics.StatsDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
