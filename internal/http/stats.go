package httpserver

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/reelog/reelog/internal/auth"
	"github.com/reelog/reelog/internal/domain"
)

type statsResponse struct {
	Overview        domain.StatsOverview   `json:"overview"`
	TopContributors domain.TopContributors `json:"topContributors"`
	TrendData       domain.TrendData       `json:"trendData"`
	HeatmapData     map[string]int         `json:"heatmapData"`
	Year            int                    `json:"year"`
}

type statsYearsResponse struct {
	HeatmapYears []int `json:"heatmapYears"`
	TrendYears   []int `json:"trendYears"`
}

type mostWatchedEntry struct {
	Movie        movieResponse `json:"movie"`
	WatchCount   int           `json:"watchCount"`
	RewatchCount int           `json:"rewatchCount"`
}

// handleStats serves the whole stats page payload for the authenticated
// user. The four aggregations are independent; they are simply computed in
// sequence within the request.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing authenticated user")
		return
	}

	year, err := s.yearParam(r, s.now().Year())
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	ctx := r.Context()
	resp := statsResponse{
		Overview:        s.stats.Overview(ctx, userID),
		TopContributors: s.stats.TopContributors(ctx, userID, 0),
		TrendData:       s.stats.TrendData(ctx, userID, year),
		HeatmapData:     s.stats.Heatmap(ctx, userID, year),
		Year:            year,
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMostWatched(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing authenticated user")
		return
	}

	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid limit value")
			return
		}
		limit = parsed
	}

	ranked := s.stats.MostWatchedMovies(r.Context(), userID, limit)
	entries := make([]mostWatchedEntry, 0, len(ranked))
	for _, item := range ranked {
		entries = append(entries, mostWatchedEntry{
			Movie:        toMovieResponse(item.Movie),
			WatchCount:   item.WatchCount,
			RewatchCount: item.RewatchCount,
		})
	}
	s.respondJSON(w, http.StatusOK, entries)
}

func (s *Server) handleStatsYears(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing authenticated user")
		return
	}

	currentYear := s.now().Year()
	s.respondJSON(w, http.StatusOK, statsYearsResponse{
		HeatmapYears: s.stats.HeatmapYears(r.Context(), userID, currentYear),
		TrendYears:   s.stats.TrendYears(currentYear),
	})
}

func (s *Server) yearParam(r *http.Request, fallback int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("year"))
	if raw == "" {
		return fallback, nil
	}
	year, err := strconv.Atoi(raw)
	if err != nil || year < 1800 || year > 3000 {
		return 0, errInvalidYear
	}
	return year, nil
}
