package httpserver

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/reelog/reelog/internal/domain"
	"github.com/reelog/reelog/internal/repository"
	"github.com/reelog/reelog/internal/tmdb"
)

// maxCastCredits bounds how many cast members are persisted per movie.
const maxCastCredits = 10

type movieResponse struct {
	ID          int64    `json:"id"`
	TMDBID      int64    `json:"tmdbId"`
	Title       string   `json:"title"`
	Overview    string   `json:"overview,omitempty"`
	PosterPath  string   `json:"posterPath,omitempty"`
	ReleaseDate string   `json:"releaseDate,omitempty"`
	Runtime     *int     `json:"runtime,omitempty"`
	Genres      []string `json:"genres,omitempty"`
	Directors   []string `json:"directors,omitempty"`
	Cast        []string `json:"cast,omitempty"`
}

func toMovieResponse(m domain.Movie) movieResponse {
	resp := movieResponse{
		ID:         m.ID,
		TMDBID:     m.TMDBID,
		Title:      m.Title,
		Overview:   m.Overview,
		PosterPath: m.PosterPath,
		Runtime:    m.Runtime,
	}
	if m.ReleaseDate != nil {
		resp.ReleaseDate = m.ReleaseDate.Format(dateLayout)
	}
	for _, g := range m.Genres {
		resp.Genres = append(resp.Genres, g.Name)
	}
	for _, p := range m.Directors {
		resp.Directors = append(resp.Directors, p.Name)
	}
	for _, p := range m.Cast {
		resp.Cast = append(resp.Cast, p.Name)
	}
	return resp
}

func (s *Server) handleSearchMovies(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	page := 1
	if raw := strings.TrimSpace(r.URL.Query().Get("page")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid page value")
			return
		}
		page = parsed
	}

	result := s.tmdb.SearchMovies(r.Context(), query, page)
	s.respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleGenres(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.tmdb.Genres(r.Context()))
}

// handleMovieDetails fetches a movie from the provider and upserts the local
// row, so that the canonical movie exists before any watch log references it.
func (s *Server) handleMovieDetails(w http.ResponseWriter, r *http.Request) {
	tmdbID, err := strconv.ParseInt(chi.URLParam(r, "tmdbID"), 10, 64)
	if err != nil || tmdbID <= 0 {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid movie id")
		return
	}

	detail, _ := s.tmdb.MovieDetails(r.Context(), tmdbID)
	if detail == nil {
		// The cached service degrades all upstream failures to nil. Serve the
		// local row if the movie was synced before, otherwise report missing.
		movie, err := s.repo.Movies.GetByTMDBID(r.Context(), tmdbID)
		if err != nil {
			s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Movie not found")
			return
		}
		s.respondJSON(w, http.StatusOK, toMovieResponse(movie))
		return
	}

	movie, err := s.repo.Movies.UpsertFromMetadata(r.Context(), upsertParams(detail))
	if err != nil {
		s.logger.Error().Err(err).Int64("tmdb_id", tmdbID).Msg("http: movie upsert failed")
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to store movie")
		return
	}
	s.respondJSON(w, http.StatusOK, toMovieResponse(movie))
}

func (s *Server) handleSimilarMovies(w http.ResponseWriter, r *http.Request) {
	tmdbID, err := strconv.ParseInt(chi.URLParam(r, "tmdbID"), 10, 64)
	if err != nil || tmdbID <= 0 {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid movie id")
		return
	}

	page := 1
	if raw := strings.TrimSpace(r.URL.Query().Get("page")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid page value")
			return
		}
		page = parsed
	}

	s.respondJSON(w, http.StatusOK, s.tmdb.SimilarMovies(r.Context(), tmdbID, page))
}

// upsertParams maps a provider payload onto the repository's upsert shape.
// Directors come from the crew list; cast is capped by billing order.
func upsertParams(m *tmdb.Movie) repository.MovieUpsertParams {
	params := repository.MovieUpsertParams{
		TMDBID:     m.TMDBID,
		Title:      m.Title,
		Overview:   m.Overview,
		PosterPath: m.PosterPath,
		Runtime:    m.Runtime,
		Popularity: m.Popularity,
	}
	if m.ReleaseDate != "" {
		if parsed, err := time.Parse(dateLayout, m.ReleaseDate); err == nil {
			params.ReleaseDate = &parsed
		}
	}
	for _, g := range m.Genres {
		params.Genres = append(params.Genres, repository.GenreParams{TMDBID: g.ID, Name: g.Name})
	}
	if m.Credits != nil {
		for _, crew := range m.Credits.Crew {
			if crew.Job == "Director" {
				params.Credits = append(params.Credits, repository.CreditParams{
					TMDBID: crew.ID,
					Name:   crew.Name,
					Role:   domain.RoleDirector,
				})
			}
		}
		for i, member := range m.Credits.Cast {
			if i >= maxCastCredits {
				break
			}
			params.Credits = append(params.Credits, repository.CreditParams{
				TMDBID:    member.ID,
				Name:      member.Name,
				Role:      domain.RoleCast,
				Character: member.Character,
			})
		}
	}
	return params
}
