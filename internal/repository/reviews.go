package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ReviewsRepository exposes the review reads the stats engine needs. Review
// CRUD itself is owned elsewhere.
type ReviewsRepository struct {
	pool *pgxpool.Pool
}

// CountByUser returns how many reviews the user has written.
func (r *ReviewsRepository) CountByUser(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM reviews WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count reviews: %w", err)
	}
	return count, nil
}
