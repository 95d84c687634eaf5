package stats

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelog/reelog/internal/cache"
	"github.com/reelog/reelog/internal/domain"
	"github.com/reelog/reelog/internal/tmdb"
)

type fakeWatchRepo struct {
	events []domain.WatchEvent
	years  []int
	err    error
}

func (f *fakeWatchRepo) WatchEvents(context.Context, int64) ([]domain.WatchEvent, error) {
	return f.events, f.err
}

func (f *fakeWatchRepo) WatchedYears(context.Context, int64) ([]int, error) {
	return f.years, f.err
}

type fakeReviews struct {
	count int
	err   error
}

func (f *fakeReviews) CountByUser(context.Context, int64) (int, error) {
	return f.count, f.err
}

type fakeRuntimeWriter struct {
	updates map[int64]int
	err     error
}

func (f *fakeRuntimeWriter) UpdateRuntime(_ context.Context, movieID int64, runtime int) error {
	if f.err != nil {
		return f.err
	}
	if f.updates == nil {
		f.updates = make(map[int64]int)
	}
	f.updates[movieID] = runtime
	return nil
}

type fakeMeta struct {
	runtimes map[int64]int
	err      error
	calls    int
}

func (f *fakeMeta) MovieDetails(_ context.Context, tmdbID int64) (*tmdb.Movie, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	minutes, ok := f.runtimes[tmdbID]
	if !ok {
		return nil, nil
	}
	return &tmdb.Movie{TMDBID: tmdbID, Runtime: &minutes}, nil
}

type serviceFixture struct {
	svc     *Service
	watch   *fakeWatchRepo
	reviews *fakeReviews
	writer  *fakeRuntimeWriter
	meta    *fakeMeta
	cache   *cache.Memory
}

func newFixture() *serviceFixture {
	f := &serviceFixture{
		watch:   &fakeWatchRepo{},
		reviews: &fakeReviews{},
		writer:  &fakeRuntimeWriter{},
		meta:    &fakeMeta{},
		cache:   cache.NewMemory(),
	}
	f.svc = New(Deps{
		Watch:    f.watch,
		Reviews:  f.reviews,
		Movies:   f.writer,
		Metadata: f.meta,
		Cache:    f.cache,
		Logger:   zerolog.Nop(),
	})
	return f
}

func runtimePtr(minutes int) *int { return &minutes }

func ratingPtr(rating int) *int { return &rating }

func onDate(year int, month time.Month, day int) *time.Time {
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &d
}

func testMovie(id, tmdbID int64, title string, releaseYear int, runtime *int) domain.Movie {
	m := domain.Movie{ID: id, TMDBID: tmdbID, Title: title, Runtime: runtime}
	if releaseYear > 0 {
		release := time.Date(releaseYear, time.January, 1, 0, 0, 0, 0, time.UTC)
		m.ReleaseDate = &release
	}
	return m
}

func withGenres(m domain.Movie, names ...string) domain.Movie {
	for i, name := range names {
		m.Genres = append(m.Genres, domain.Genre{ID: int64(i + 1), Name: name})
	}
	return m
}

func watchEvent(id int64, movie domain.Movie, watchedOn *time.Time, rating *int, rewatch bool) domain.WatchEvent {
	return domain.WatchEvent{
		ID:        id,
		MovieID:   movie.ID,
		WatchedOn: watchedOn,
		Rating:    rating,
		Rewatch:   rewatch,
		Movie:     movie,
	}
}

func TestOverview(t *testing.T) {
	f := newFixture()
	f.reviews.count = 4

	inception := withGenres(testMovie(1, 27205, "Inception", 2010, runtimePtr(148)), "Science Fiction", "Action")
	heat := withGenres(testMovie(2, 949, "Heat", 1995, runtimePtr(170)), "Crime")

	f.watch.events = []domain.WatchEvent{
		watchEvent(1, inception, onDate(2024, time.January, 10), ratingPtr(9), false),
		watchEvent(2, heat, onDate(2024, time.February, 2), nil, false),
		watchEvent(3, inception, onDate(2024, time.March, 5), nil, true),
	}

	got := f.svc.Overview(context.Background(), 1)

	assert.Equal(t, 2, got.TotalMovies)
	// 148 + 170 + 148 = 466 minutes, rounded to 8 hours.
	assert.Equal(t, 8, got.TotalHours)
	assert.Equal(t, 4, got.TotalReviews)
	assert.Equal(t, 1, got.TotalRewatches)
	assert.Equal(t, map[string]int{"Science Fiction": 2, "Action": 2, "Crime": 1}, got.GenreBreakdown)
	assert.Equal(t, map[string]int{"2010s": 2, "1990s": 1}, got.DecadeBreakdown)
	assert.Zero(t, f.meta.calls, "no upstream calls when runtimes are stored")
}

func TestOverviewEmptyHistory(t *testing.T) {
	f := newFixture()

	got := f.svc.Overview(context.Background(), 1)

	assert.Zero(t, got.TotalMovies)
	assert.Zero(t, got.TotalHours)
	assert.Zero(t, got.TotalRewatches)
	assert.NotNil(t, got.GenreBreakdown)
	assert.Empty(t, got.GenreBreakdown)
	assert.NotNil(t, got.DecadeBreakdown)
	assert.Empty(t, got.DecadeBreakdown)
}

func TestOverviewFailSoft(t *testing.T) {
	f := newFixture()
	f.watch.err = errors.New("db down")
	f.reviews.count = 4

	got := f.svc.Overview(context.Background(), 1)

	assert.Zero(t, got.TotalMovies)
	assert.Zero(t, got.TotalReviews)
	assert.Empty(t, got.GenreBreakdown)
}

func TestOverviewSkipsDecadeWithoutReleaseDate(t *testing.T) {
	f := newFixture()
	undated := withGenres(testMovie(1, 100, "Lost Reel", 0, runtimePtr(90)), "Drama")
	f.watch.events = []domain.WatchEvent{
		watchEvent(1, undated, onDate(2024, time.April, 1), nil, false),
	}

	got := f.svc.Overview(context.Background(), 1)

	assert.Equal(t, map[string]int{"Drama": 1}, got.GenreBreakdown)
	assert.Empty(t, got.DecadeBreakdown)
}

func TestRuntimeResolverFetchesOncePerRun(t *testing.T) {
	f := newFixture()
	f.meta.runtimes = map[int64]int{603: 136}

	matrix := testMovie(7, 603, "The Matrix", 1999, nil)
	f.watch.events = []domain.WatchEvent{
		watchEvent(1, matrix, onDate(2024, time.January, 1), nil, false),
		watchEvent(2, matrix, onDate(2024, time.February, 1), nil, true),
		watchEvent(3, matrix, onDate(2024, time.March, 1), nil, true),
	}

	got := f.svc.Overview(context.Background(), 1)

	// 3 x 136 = 408 minutes, rounded to 7 hours.
	assert.Equal(t, 7, got.TotalHours)
	assert.Equal(t, 1, f.meta.calls, "runtime memoized within the run")
	assert.Equal(t, map[int64]int{7: 136}, f.writer.updates, "runtime written back to the movie")

	raw, ok, err := f.cache.Get(context.Background(), "movie_runtime_603")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "136", raw)
}

func TestRuntimeResolverServesFromCacheAcrossRuns(t *testing.T) {
	f := newFixture()
	f.meta.runtimes = map[int64]int{603: 136}

	matrix := testMovie(7, 603, "The Matrix", 1999, nil)
	f.watch.events = []domain.WatchEvent{
		watchEvent(1, matrix, onDate(2024, time.January, 1), nil, false),
	}

	f.svc.Overview(context.Background(), 1)
	f.svc.Overview(context.Background(), 1)

	assert.Equal(t, 1, f.meta.calls, "second run served from the shared cache")
}

func TestRuntimeResolverCachesMissing(t *testing.T) {
	f := newFixture()
	f.meta.err = errors.New("upstream down")

	ghost := testMovie(9, 404404, "Ghost Reel", 2020, nil)
	f.watch.events = []domain.WatchEvent{
		watchEvent(1, ghost, onDate(2024, time.January, 1), nil, false),
	}

	got := f.svc.Overview(context.Background(), 1)
	assert.Zero(t, got.TotalHours)
	assert.Equal(t, 1, got.TotalMovies, "unresolvable runtime still counts the movie")

	raw, ok, err := f.cache.Get(context.Background(), "movie_runtime_404404")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "missing", raw)

	f.svc.Overview(context.Background(), 1)
	assert.Equal(t, 1, f.meta.calls, "missing marker suppresses repeat lookups")
}

func TestTopContributors(t *testing.T) {
	f := newFixture()

	nolan := domain.Person{ID: 1, Name: "Christopher Nolan"}
	mann := domain.Person{ID: 2, Name: "Michael Mann"}
	dicaprio := domain.Person{ID: 3, Name: "Leonardo DiCaprio"}
	pacino := domain.Person{ID: 4, Name: "Al Pacino"}

	inception := withGenres(testMovie(1, 27205, "Inception", 2010, runtimePtr(148)), "Science Fiction")
	inception.Directors = []domain.Person{nolan}
	inception.Cast = []domain.Person{dicaprio}

	heat := withGenres(testMovie(2, 949, "Heat", 1995, runtimePtr(170)), "Crime")
	heat.Directors = []domain.Person{mann}
	heat.Cast = []domain.Person{pacino}

	f.watch.events = []domain.WatchEvent{
		watchEvent(1, inception, onDate(2024, time.January, 1), nil, false),
		watchEvent(2, heat, onDate(2024, time.February, 1), nil, false),
		watchEvent(3, inception, onDate(2024, time.March, 1), nil, true),
	}

	got := f.svc.TopContributors(context.Background(), 1, 0)

	require.Len(t, got.TopGenres, 2)
	assert.Equal(t, domain.Contribution{Name: "Science Fiction", Count: 2}, got.TopGenres[0])
	assert.Equal(t, domain.Contribution{Name: "Crime", Count: 1}, got.TopGenres[1])

	require.Len(t, got.TopDirectors, 2)
	assert.Equal(t, domain.Contribution{Name: "Christopher Nolan", Count: 2}, got.TopDirectors[0])

	require.Len(t, got.TopActors, 2)
	assert.Equal(t, domain.Contribution{Name: "Leonardo DiCaprio", Count: 2}, got.TopActors[0])
}

func TestTopContributorsTiesKeepFirstWatchedOrder(t *testing.T) {
	f := newFixture()

	first := withGenres(testMovie(1, 1, "First", 2000, runtimePtr(100)), "Drama")
	second := withGenres(testMovie(2, 2, "Second", 2001, runtimePtr(100)), "Comedy")

	f.watch.events = []domain.WatchEvent{
		watchEvent(1, first, onDate(2024, time.January, 1), nil, false),
		watchEvent(2, second, onDate(2024, time.January, 2), nil, false),
	}

	got := f.svc.TopContributors(context.Background(), 1, 10)
	require.Len(t, got.TopGenres, 2)
	assert.Equal(t, "Drama", got.TopGenres[0].Name)
	assert.Equal(t, "Comedy", got.TopGenres[1].Name)
}

func TestTopContributorsLimit(t *testing.T) {
	f := newFixture()

	movie := withGenres(testMovie(1, 1, "Epic", 2000, runtimePtr(100)),
		"Drama", "Comedy", "Action", "Horror")
	f.watch.events = []domain.WatchEvent{
		watchEvent(1, movie, onDate(2024, time.January, 1), nil, false),
	}

	got := f.svc.TopContributors(context.Background(), 1, 2)
	assert.Len(t, got.TopGenres, 2)
}

func TestTrendData(t *testing.T) {
	f := newFixture()
	movie := testMovie(1, 1, "Any", 2000, runtimePtr(100))

	f.watch.events = []domain.WatchEvent{
		watchEvent(1, movie, onDate(2024, time.January, 5), ratingPtr(7), false),
		watchEvent(2, movie, onDate(2024, time.January, 20), ratingPtr(8), true),
		watchEvent(3, movie, onDate(2024, time.March, 1), nil, true),
		watchEvent(4, movie, onDate(2023, time.December, 25), ratingPtr(10), false),
		watchEvent(5, movie, nil, nil, false),
	}

	got := f.svc.TrendData(context.Background(), 1, 2024)

	// Months outside 2024 and undated events are excluded; February has no
	// activity and is omitted.
	require.Len(t, got.ActivityTrend, 2)
	assert.Equal(t, domain.ActivityPoint{Month: "2024-01", Count: 2}, got.ActivityTrend[0])
	assert.Equal(t, domain.ActivityPoint{Month: "2024-03", Count: 1}, got.ActivityTrend[1])

	// March had activity but no rated event, so only January appears.
	require.Len(t, got.RatingTrend, 1)
	assert.Equal(t, domain.RatingPoint{Month: "2024-01", AverageRating: 7.5}, got.RatingTrend[0])
}

func TestTrendDataNeedsTwoDatedEvents(t *testing.T) {
	f := newFixture()
	movie := testMovie(1, 1, "Any", 2000, runtimePtr(100))

	f.watch.events = []domain.WatchEvent{
		watchEvent(1, movie, onDate(2024, time.January, 5), ratingPtr(7), false),
		watchEvent(2, movie, nil, nil, false),
	}

	got := f.svc.TrendData(context.Background(), 1, 2024)
	assert.Empty(t, got.ActivityTrend)
	assert.Empty(t, got.RatingTrend)
	assert.NotNil(t, got.ActivityTrend)
	assert.NotNil(t, got.RatingTrend)
}

func TestHeatmap(t *testing.T) {
	f := newFixture()
	movie := testMovie(1, 1, "Any", 2000, runtimePtr(100))

	f.watch.events = []domain.WatchEvent{
		watchEvent(1, movie, onDate(2024, time.February, 29), nil, false),
		watchEvent(2, movie, onDate(2024, time.February, 29), nil, true),
		watchEvent(3, movie, onDate(2024, time.July, 4), nil, true),
		watchEvent(4, movie, onDate(2023, time.July, 4), nil, false),
		watchEvent(5, movie, nil, nil, false),
	}

	got := f.svc.Heatmap(context.Background(), 1, 2024)

	assert.Len(t, got, 366, "2024 is a leap year")
	assert.Equal(t, 2, got["2024-02-29"])
	assert.Equal(t, 1, got["2024-07-04"])
	assert.Equal(t, 0, got["2024-01-01"])
	_, hasOtherYear := got["2023-07-04"]
	assert.False(t, hasOtherYear)
}

func TestHeatmapFailSoft(t *testing.T) {
	f := newFixture()
	f.watch.err = errors.New("db down")

	got := f.svc.Heatmap(context.Background(), 1, 2023)
	assert.Len(t, got, 365)
	assert.Equal(t, 0, got["2023-06-15"])
}

func TestMostWatchedMovies(t *testing.T) {
	f := newFixture()

	inception := testMovie(1, 27205, "Inception", 2010, runtimePtr(148))
	heat := testMovie(2, 949, "Heat", 1995, runtimePtr(170))
	matrix := testMovie(3, 603, "The Matrix", 1999, runtimePtr(136))

	f.watch.events = []domain.WatchEvent{
		watchEvent(1, heat, onDate(2024, time.January, 1), nil, false),
		watchEvent(2, inception, onDate(2024, time.January, 2), nil, false),
		watchEvent(3, inception, onDate(2024, time.February, 1), nil, true),
		watchEvent(4, inception, onDate(2024, time.March, 1), nil, true),
		watchEvent(5, matrix, onDate(2024, time.April, 1), nil, false),
	}

	got := f.svc.MostWatchedMovies(context.Background(), 1, 2)

	require.Len(t, got, 2)
	assert.Equal(t, "Inception", got[0].Movie.Title)
	assert.Equal(t, 3, got[0].WatchCount)
	assert.Equal(t, 2, got[0].RewatchCount)
	// Heat and The Matrix tie at one watch; Heat was watched first.
	assert.Equal(t, "Heat", got[1].Movie.Title)
	assert.Equal(t, 1, got[1].WatchCount)
}

func TestHeatmapYears(t *testing.T) {
	f := newFixture()
	f.watch.years = []int{2024, 2022}

	got := f.svc.HeatmapYears(context.Background(), 1, 2026)
	assert.Equal(t, []int{2026, 2024, 2022}, got)

	f.watch.years = []int{2026, 2024}
	got = f.svc.HeatmapYears(context.Background(), 1, 2026)
	assert.Equal(t, []int{2026, 2024}, got, "current year not duplicated")

	f.watch.years = nil
	f.watch.err = errors.New("db down")
	got = f.svc.HeatmapYears(context.Background(), 1, 2026)
	assert.Equal(t, []int{2026}, got)
}

func TestTrendYears(t *testing.T) {
	f := newFixture()
	assert.Equal(t, []int{2026, 2025, 2024, 2023, 2022}, f.svc.TrendYears(2026))
}
