package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SeenIndexImpl implements repository.SeenIndex on the seen_urls table.
type SeenIndexImpl struct {
	db *pgxpool.Pool
}

func NewSeenIndex(db *pgxpool.Pool) *SeenIndexImpl {
	return &SeenIndexImpl{db: db}
}

// Claim inserts url and reports whether this call created the row. The
// primary key makes concurrent claims race-free.
func (r *SeenIndexImpl) Claim(ctx context.Context, url string) (bool, error) {
	tag, err := r.db.Exec(ctx, `INSERT INTO seen_urls (url) VALUES ($1) ON CONFLICT (url) DO NOTHING;`, url)
	if err != nil {
		return false, fmt.Errorf("claim %s: %w", url, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *SeenIndexImpl) Exists(ctx context.Context, url string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM seen_urls WHERE url = $1);`, url).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("lookup %s: %w", url, err)
	}
	return exists, nil
}

func (r *SeenIndexImpl) Release(ctx context.Context, url string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM seen_urls WHERE url = $1;`, url); err != nil {
		return fmt.Errorf("release %s: %w", url, err)
	}
	return nil
}
