package domain

// StatsOverview aggregates a user's lifetime watch totals and breakdowns.
// TotalMovies counts distinct movies; hours and breakdowns accumulate per
// watch event.
type StatsOverview struct {
	TotalMovies     int            `json:"totalMovies"`
	TotalHours      int            `json:"totalHours"`
	TotalReviews    int            `json:"totalReviews"`
	TotalRewatches  int            `json:"totalRewatches"`
	GenreBreakdown  map[string]int `json:"genreBreakdown"`
	DecadeBreakdown map[string]int `json:"decadeBreakdown"`
}

// Contribution is one ranked name/count pair.
type Contribution struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// TopContributors ranks genres, directors and actors by watch frequency.
type TopContributors struct {
	TopGenres    []Contribution `json:"topGenres"`
	TopDirectors []Contribution `json:"topDirectors"`
	TopActors    []Contribution `json:"topActors"`
}

// ActivityPoint is a month bucket of watch activity. Month is "YYYY-MM".
type ActivityPoint struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// RatingPoint is a month bucket of average rating, rounded to one decimal.
type RatingPoint struct {
	Month         string  `json:"month"`
	AverageRating float64 `json:"averageRating"`
}

// TrendData holds sparse month-bucketed trends for one year: months with no
// activity are omitted, and months with no rated events are omitted from the
// rating trend only.
type TrendData struct {
	ActivityTrend []ActivityPoint `json:"activityTrend"`
	RatingTrend   []RatingPoint   `json:"ratingTrend"`
}

// MovieWatchCount pairs a movie with how often a user watched it.
type MovieWatchCount struct {
	Movie        Movie `json:"movie"`
	WatchCount   int   `json:"watchCount"`
	RewatchCount int   `json:"rewatchCount"`
}
