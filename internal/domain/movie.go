package domain

import (
	"fmt"
	"time"
)

// Person roles as stored on the movie_people join table.
const (
	RoleDirector = "director"
	RoleCast     = "cast"
)

// Genre is a TMDB genre associated to movies.
type Genre struct {
	ID     int64
	TMDBID int64
	Name   string
}

// Person is a cast or crew member associated to movies.
type Person struct {
	ID     int64
	TMDBID int64
	Name   string
}

// Movie represents the canonical movie entity in the database. Movies are
// shared across users and keyed to the external provider via TMDBID.
// Runtime and ReleaseDate may be absent when the metadata sync was partial.
type Movie struct {
	ID          int64
	TMDBID      int64
	Title       string
	Overview    string
	PosterPath  string
	ReleaseDate *time.Time
	Runtime     *int
	Popularity  float64
	CachedAt    *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Genres    []Genre
	Directors []Person
	Cast      []Person
}

// ReleaseYear reports the movie's release year, if a release date is known.
func (m Movie) ReleaseYear() (int, bool) {
	if m.ReleaseDate == nil {
		return 0, false
	}
	return m.ReleaseDate.Year(), true
}

// Decade returns the display label for the movie's release decade,
// e.g. "2010s".
func (m Movie) Decade() (string, bool) {
	year, ok := m.ReleaseYear()
	if !ok {
		return "", false
	}
	return fmt.Sprintf("%ds", (year/10)*10), true
}
