package domain

import "time"

// Watch event sources. Legacy log rows predate the watch_logs table and are
// the only rows that can carry a per-watch rating.
const (
	SourceLog      = "log"
	SourceWatchLog = "watch_log"
)

// WatchEvent is one user's viewing of one movie on one date, drawn from
// either watch-log source. Rewatch is derived: true iff a strictly earlier
// dated event exists for the same user and movie.
type WatchEvent struct {
	ID        int64
	Source    string
	UserID    int64
	MovieID   int64
	WatchedOn *time.Time
	Rating    *int
	Rewatch   bool

	Movie Movie
}

// WatchLog is a row of the current watch_logs table as listed on the
// watch-history page.
type WatchLog struct {
	ID        int64
	UserID    int64
	MovieID   int64
	WatchedOn time.Time
	CreatedAt time.Time

	Movie Movie
}
