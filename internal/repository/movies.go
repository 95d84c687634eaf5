package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reelog/reelog/internal/domain"
)

// MoviesRepository provides persistence helpers for movie entities.
type MoviesRepository struct {
	pool *pgxpool.Pool
}

const movieColumns = `
    id,
    tmdb_id,
    title,
    overview,
    poster_path,
    release_date,
    runtime,
    popularity,
    cached_at,
    created_at,
    updated_at
`

// GenreParams is one genre association for an upsert.
type GenreParams struct {
	TMDBID int64
	Name   string
}

// CreditParams is one person association for an upsert.
type CreditParams struct {
	TMDBID    int64
	Name      string
	Role      string
	Character string
}

// MovieUpsertParams bundles a movie's metadata as fetched from the external
// provider.
type MovieUpsertParams struct {
	TMDBID      int64
	Title       string
	Overview    string
	PosterPath  string
	ReleaseDate *time.Time
	Runtime     *int
	Popularity  float64
	Genres      []GenreParams
	Credits     []CreditParams
}

// GetByTMDBID fetches a movie by its external provider id.
func (r *MoviesRepository) GetByTMDBID(ctx context.Context, tmdbID int64) (domain.Movie, error) {
	query := fmt.Sprintf(`SELECT %s FROM movies WHERE tmdb_id = $1`, movieColumns)
	return r.scanOne(r.pool.QueryRow(ctx, query, tmdbID))
}

// GetByID fetches a movie by its local identifier.
func (r *MoviesRepository) GetByID(ctx context.Context, id int64) (domain.Movie, error) {
	query := fmt.Sprintf(`SELECT %s FROM movies WHERE id = $1`, movieColumns)
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

func (r *MoviesRepository) scanOne(row pgx.Row) (domain.Movie, error) {
	var m domain.Movie
	err := row.Scan(
		&m.ID,
		&m.TMDBID,
		&m.Title,
		&m.Overview,
		&m.PosterPath,
		&m.ReleaseDate,
		&m.Runtime,
		&m.Popularity,
		&m.CachedAt,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Movie{}, ErrNotFound
		}
		return domain.Movie{}, fmt.Errorf("scan movie: %w", err)
	}
	return m, nil
}

// UpsertFromMetadata inserts or refreshes a movie row plus its genre and
// credit associations from external metadata, stamping cached_at. Existing
// associations are kept; new ones are added.
func (r *MoviesRepository) UpsertFromMetadata(ctx context.Context, params MovieUpsertParams) (domain.Movie, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.Movie{}, fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback(ctx)

	query := fmt.Sprintf(`
        INSERT INTO movies (tmdb_id, title, overview, poster_path, release_date, runtime, popularity, cached_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, now())
        ON CONFLICT (tmdb_id) DO UPDATE SET
            title = EXCLUDED.title,
            overview = EXCLUDED.overview,
            poster_path = EXCLUDED.poster_path,
            release_date = EXCLUDED.release_date,
            runtime = COALESCE(EXCLUDED.runtime, movies.runtime),
            popularity = EXCLUDED.popularity,
            cached_at = now(),
            updated_at = now()
        RETURNING %s
    `, movieColumns)

	movie, err := r.scanOne(tx.QueryRow(ctx, query,
		params.TMDBID, params.Title, params.Overview, params.PosterPath,
		params.ReleaseDate, params.Runtime, params.Popularity))
	if err != nil {
		return domain.Movie{}, err
	}

	for _, g := range params.Genres {
		var genreID int64
		err := tx.QueryRow(ctx, `
            INSERT INTO genres (tmdb_id, name)
            VALUES ($1, $2)
            ON CONFLICT (tmdb_id) DO UPDATE SET name = EXCLUDED.name
            RETURNING id
        `, g.TMDBID, g.Name).Scan(&genreID)
		if err != nil {
			return domain.Movie{}, fmt.Errorf("upsert genre %q: %w", g.Name, err)
		}
		if _, err := tx.Exec(ctx, `
            INSERT INTO movie_genres (movie_id, genre_id)
            VALUES ($1, $2)
            ON CONFLICT DO NOTHING
        `, movie.ID, genreID); err != nil {
			return domain.Movie{}, fmt.Errorf("link genre %q: %w", g.Name, err)
		}
		movie.Genres = append(movie.Genres, domain.Genre{ID: genreID, TMDBID: g.TMDBID, Name: g.Name})
	}

	for _, c := range params.Credits {
		var personID int64
		err := tx.QueryRow(ctx, `
            INSERT INTO people (tmdb_id, name)
            VALUES ($1, $2)
            ON CONFLICT (tmdb_id) DO UPDATE SET name = EXCLUDED.name
            RETURNING id
        `, c.TMDBID, c.Name).Scan(&personID)
		if err != nil {
			return domain.Movie{}, fmt.Errorf("upsert person %q: %w", c.Name, err)
		}
		if _, err := tx.Exec(ctx, `
            INSERT INTO movie_people (movie_id, person_id, role, "character")
            VALUES ($1, $2, $3, $4)
            ON CONFLICT DO NOTHING
        `, movie.ID, personID, c.Role, c.Character); err != nil {
			return domain.Movie{}, fmt.Errorf("link person %q: %w", c.Name, err)
		}
		person := domain.Person{ID: personID, TMDBID: c.TMDBID, Name: c.Name}
		switch c.Role {
		case domain.RoleDirector:
			movie.Directors = append(movie.Directors, person)
		case domain.RoleCast:
			movie.Cast = append(movie.Cast, person)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Movie{}, fmt.Errorf("commit upsert: %w", err)
	}
	return movie, nil
}

// UpdateRuntime writes a resolved runtime back onto the movie record. Used by
// the runtime resolver as a best-effort optimization.
func (r *MoviesRepository) UpdateRuntime(ctx context.Context, movieID int64, runtime int) error {
	tag, err := r.pool.Exec(ctx, `
        UPDATE movies SET runtime = $2, updated_at = now() WHERE id = $1
    `, movieID, runtime)
	if err != nil {
		return fmt.Errorf("update runtime: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
