package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reelog/reelog/internal/domain"
)

// WatchLogsRepository reads and writes a user's watch history. Watch evidence
// lives in two tables: the legacy logs table (which can carry a rating) and
// the current watch_logs table. Aggregation reads treat them as one stream.
type WatchLogsRepository struct {
	pool *pgxpool.Pool
}

// WatchEvents returns every watch event for the user, both sources combined,
// joined to movie, genre and credit metadata. Events are ordered by watch
// date ascending with undated events last, so iteration order is stable and
// chronological. The rewatch flag is derived in SQL: an event is a rewatch
// iff a strictly earlier dated event exists for the same movie.
func (r *WatchLogsRepository) WatchEvents(ctx context.Context, userID int64) ([]domain.WatchEvent, error) {
	const query = `
        WITH events AS (
            SELECT l.id, 'log' AS source, l.movie_id, l.watched_on, l.rating
            FROM logs l
            WHERE l.user_id = $1
            UNION ALL
            SELECT w.id, 'watch_log' AS source, w.movie_id, w.watched_on, NULL::int AS rating
            FROM watch_logs w
            WHERE w.user_id = $1
        )
        SELECT e.id, e.source, e.movie_id, e.watched_on, e.rating,
               (e.watched_on IS NOT NULL
                AND e.watched_on > MIN(e.watched_on) OVER (PARTITION BY e.movie_id)) AS is_rewatch,
               m.tmdb_id, m.title, m.release_date, m.runtime
        FROM events e
        JOIN movies m ON m.id = e.movie_id
        ORDER BY e.watched_on ASC NULLS LAST, e.id ASC
    `

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query watch events: %w", err)
	}
	defer rows.Close()

	var events []domain.WatchEvent
	movieIDs := make(map[int64]struct{})
	for rows.Next() {
		var ev domain.WatchEvent
		ev.UserID = userID
		if err := rows.Scan(
			&ev.ID,
			&ev.Source,
			&ev.MovieID,
			&ev.WatchedOn,
			&ev.Rating,
			&ev.Rewatch,
			&ev.Movie.TMDBID,
			&ev.Movie.Title,
			&ev.Movie.ReleaseDate,
			&ev.Movie.Runtime,
		); err != nil {
			return nil, fmt.Errorf("scan watch event: %w", err)
		}
		ev.Movie.ID = ev.MovieID
		events = append(events, ev)
		movieIDs[ev.MovieID] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate watch events: %w", err)
	}
	if len(events) == 0 {
		return nil, nil
	}

	ids := make([]int64, 0, len(movieIDs))
	for id := range movieIDs {
		ids = append(ids, id)
	}

	genres, err := r.genresByMovie(ctx, ids)
	if err != nil {
		return nil, err
	}
	credits, err := r.creditsByMovie(ctx, ids)
	if err != nil {
		return nil, err
	}

	for i := range events {
		id := events[i].MovieID
		events[i].Movie.Genres = genres[id]
		events[i].Movie.Directors = credits[id].directors
		events[i].Movie.Cast = credits[id].cast
	}
	return events, nil
}

func (r *WatchLogsRepository) genresByMovie(ctx context.Context, movieIDs []int64) (map[int64][]domain.Genre, error) {
	const query = `
        SELECT mg.movie_id, g.id, g.tmdb_id, g.name
        FROM movie_genres mg
        JOIN genres g ON g.id = mg.genre_id
        WHERE mg.movie_id = ANY($1)
        ORDER BY mg.id
    `
	rows, err := r.pool.Query(ctx, query, movieIDs)
	if err != nil {
		return nil, fmt.Errorf("query movie genres: %w", err)
	}
	defer rows.Close()

	result := make(map[int64][]domain.Genre)
	for rows.Next() {
		var movieID int64
		var g domain.Genre
		if err := rows.Scan(&movieID, &g.ID, &g.TMDBID, &g.Name); err != nil {
			return nil, fmt.Errorf("scan movie genre: %w", err)
		}
		result[movieID] = append(result[movieID], g)
	}
	return result, rows.Err()
}

type movieCredits struct {
	directors []domain.Person
	cast      []domain.Person
}

func (r *WatchLogsRepository) creditsByMovie(ctx context.Context, movieIDs []int64) (map[int64]movieCredits, error) {
	const query = `
        SELECT mp.movie_id, p.id, p.tmdb_id, p.name, mp.role
        FROM movie_people mp
        JOIN people p ON p.id = mp.person_id
        WHERE mp.movie_id = ANY($1)
        ORDER BY mp.id
    `
	rows, err := r.pool.Query(ctx, query, movieIDs)
	if err != nil {
		return nil, fmt.Errorf("query movie credits: %w", err)
	}
	defer rows.Close()

	result := make(map[int64]movieCredits)
	for rows.Next() {
		var movieID int64
		var p domain.Person
		var role string
		if err := rows.Scan(&movieID, &p.ID, &p.TMDBID, &p.Name, &role); err != nil {
			return nil, fmt.Errorf("scan movie credit: %w", err)
		}
		credits := result[movieID]
		switch role {
		case domain.RoleDirector:
			credits.directors = append(credits.directors, p)
		case domain.RoleCast:
			credits.cast = append(credits.cast, p)
		}
		result[movieID] = credits
	}
	return result, rows.Err()
}

// EnsureWatchHistory returns the id of the user's watch history container,
// creating it on first use.
func (r *WatchLogsRepository) EnsureWatchHistory(ctx context.Context, userID int64) (int64, error) {
	const query = `
        INSERT INTO watch_histories (user_id)
        VALUES ($1)
        ON CONFLICT (user_id) DO UPDATE SET updated_at = now()
        RETURNING id
    `
	var id int64
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&id); err != nil {
		return 0, fmt.Errorf("ensure watch history: %w", err)
	}
	return id, nil
}

// CreateWatchLog records a viewing of a movie on a date.
func (r *WatchLogsRepository) CreateWatchLog(ctx context.Context, userID, movieID int64, watchedOn time.Time) (domain.WatchLog, error) {
	historyID, err := r.EnsureWatchHistory(ctx, userID)
	if err != nil {
		return domain.WatchLog{}, err
	}

	const query = `
        INSERT INTO watch_logs (watch_history_id, user_id, movie_id, watched_on)
        VALUES ($1, $2, $3, $4)
        RETURNING id, user_id, movie_id, watched_on, created_at
    `
	var wl domain.WatchLog
	err = r.pool.QueryRow(ctx, query, historyID, userID, movieID, watchedOn).Scan(
		&wl.ID, &wl.UserID, &wl.MovieID, &wl.WatchedOn, &wl.CreatedAt,
	)
	if err != nil {
		return domain.WatchLog{}, fmt.Errorf("create watch log: %w", err)
	}
	return wl, nil
}

// ListWatchLogs returns the user's current watch logs, most recent first,
// with the watched movie attached.
func (r *WatchLogsRepository) ListWatchLogs(ctx context.Context, userID int64) ([]domain.WatchLog, error) {
	const query = `
        SELECT w.id, w.user_id, w.movie_id, w.watched_on, w.created_at,
               m.tmdb_id, m.title, m.poster_path, m.release_date, m.runtime
        FROM watch_logs w
        JOIN movies m ON m.id = w.movie_id
        WHERE w.user_id = $1
        ORDER BY w.watched_on DESC, w.id DESC
    `
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list watch logs: %w", err)
	}
	defer rows.Close()

	var logs []domain.WatchLog
	for rows.Next() {
		var wl domain.WatchLog
		if err := rows.Scan(
			&wl.ID, &wl.UserID, &wl.MovieID, &wl.WatchedOn, &wl.CreatedAt,
			&wl.Movie.TMDBID, &wl.Movie.Title, &wl.Movie.PosterPath,
			&wl.Movie.ReleaseDate, &wl.Movie.Runtime,
		); err != nil {
			return nil, fmt.Errorf("scan watch log: %w", err)
		}
		wl.Movie.ID = wl.MovieID
		logs = append(logs, wl)
	}
	return logs, rows.Err()
}

// DeleteWatchLog removes one of the user's watch logs. Returns ErrNotFound
// when the row does not exist or belongs to another user.
func (r *WatchLogsRepository) DeleteWatchLog(ctx context.Context, userID, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM watch_logs WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete watch log: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// WatchedYears returns the distinct years of the user's dated watch events,
// both sources combined, newest first.
func (r *WatchLogsRepository) WatchedYears(ctx context.Context, userID int64) ([]int, error) {
	const query = `
        SELECT DISTINCT EXTRACT(YEAR FROM watched_on)::int AS year
        FROM (
            SELECT watched_on FROM logs WHERE user_id = $1 AND watched_on IS NOT NULL
            UNION ALL
            SELECT watched_on FROM watch_logs WHERE user_id = $1 AND watched_on IS NOT NULL
        ) dated
        ORDER BY year DESC
    `
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query watched years: %w", err)
	}
	defer rows.Close()

	var years []int
	for rows.Next() {
		var year int
		if err := rows.Scan(&year); err != nil {
			return nil, fmt.Errorf("scan watched year: %w", err)
		}
		years = append(years, year)
	}
	return years, rows.Err()
}
