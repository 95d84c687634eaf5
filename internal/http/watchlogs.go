package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/reelog/reelog/internal/auth"
	"github.com/reelog/reelog/internal/domain"
	"github.com/reelog/reelog/internal/repository"
)

const maxRequestBody = 1 << 20 // 1 MiB

const dateLayout = "2006-01-02"

var errInvalidYear = errors.New("invalid year value")

type watchLogCreateRequest struct {
	MovieID   int64  `json:"movieId"`
	WatchedOn string `json:"watchedOn"`
}

type watchLogResponse struct {
	ID        int64         `json:"id"`
	WatchedOn string        `json:"watchedOn"`
	Movie     movieResponse `json:"movie"`
}

func (s *Server) handleListWatchLogs(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing authenticated user")
		return
	}

	logs, err := s.repo.WatchLogs.ListWatchLogs(r.Context(), userID)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("http: list watch logs failed")
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list watch history")
		return
	}

	resp := make([]watchLogResponse, 0, len(logs))
	for _, wl := range logs {
		resp = append(resp, toWatchLogResponse(wl))
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// handleCreateWatchLog logs a viewing. This is the write path that upholds
// the invariants the aggregator assumes: the watch date may not be in the
// future and may not precede the movie's release date.
func (s *Server) handleCreateWatchLog(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing authenticated user")
		return
	}

	var req watchLogCreateRequest
	body := http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Request body cannot be empty")
			return
		}
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Malformed JSON payload")
		return
	}
	if req.MovieID <= 0 {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "movieId is required")
		return
	}

	today := s.now().UTC().Truncate(24 * time.Hour)
	watchedOn := today
	if req.WatchedOn != "" {
		parsed, err := time.Parse(dateLayout, req.WatchedOn)
		if err != nil {
			s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "watchedOn must be formatted YYYY-MM-DD")
			return
		}
		watchedOn = parsed
	}

	movie, err := s.repo.Movies.GetByID(r.Context(), req.MovieID)
	if errors.Is(err, repository.ErrNotFound) {
		// Fall back to treating the id as a TMDB id, as the original app did
		// for clients that only know the provider id.
		movie, err = s.repo.Movies.GetByTMDBID(r.Context(), req.MovieID)
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Movie not found")
			return
		}
		s.logger.Error().Err(err).Int64("movie_id", req.MovieID).Msg("http: load movie failed")
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load movie")
		return
	}

	if watchedOn.After(today) {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "watchedOn cannot be in the future")
		return
	}
	if movie.ReleaseDate != nil && watchedOn.Before(*movie.ReleaseDate) {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR",
			fmt.Sprintf("watchedOn cannot be before the release date %s", movie.ReleaseDate.Format(dateLayout)))
		return
	}

	wl, err := s.repo.WatchLogs.CreateWatchLog(r.Context(), userID, movie.ID, watchedOn)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("http: create watch log failed")
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to log watch")
		return
	}
	wl.Movie = movie
	s.respondJSON(w, http.StatusCreated, toWatchLogResponse(wl))
}

func (s *Server) handleDeleteWatchLog(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing authenticated user")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid watch log id")
		return
	}

	if err := s.repo.WatchLogs.DeleteWatchLog(r.Context(), userID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Watch history entry not found")
			return
		}
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("http: delete watch log failed")
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete watch log")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toWatchLogResponse(wl domain.WatchLog) watchLogResponse {
	return watchLogResponse{
		ID:        wl.ID,
		WatchedOn: wl.WatchedOn.Format(dateLayout),
		Movie:     toMovieResponse(wl.Movie),
	}
}
