package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/revenue-tracker/internal/entity"
)

// CandidateRepoImpl implements repository.CandidateRepository using PostgreSQL.
type CandidateRepoImpl struct {
	db *pgxpool.Pool
}

func NewCandidateRepo(db *pgxpool.Pool) *CandidateRepoImpl {
	return &CandidateRepoImpl{db: db}
}

// Save upserts the article and, for emitted candidates, queues an alert.
// An alert that already exists keeps its delivery state.
func (r *CandidateRepoImpl) Save(ctx context.Context, c entity.RevenueCandidate) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO articles (url, title, source, content, published_at, has_revenue, revenue_amount, revenue_kind, company)
			VALUES ($1, $2, $3, $4, $5, TRUE, $6, $7, $8)
			ON CONFLICT (url) DO UPDATE SET
				title = EXCLUDED.title,
				content = EXCLUDED.content,
				published_at = COALESCE(EXCLUDED.published_at, articles.published_at),
				has_revenue = EXCLUDED.has_revenue,
				revenue_amount = EXCLUDED.revenue_amount,
				revenue_kind = EXCLUDED.revenue_kind,
				company = EXCLUDED.company,
				scraped_at = NOW();
		`,
			c.Article.URL,
			c.Article.Title,
			c.Article.SourceID,
			c.Article.Body,
			c.Article.PublishedAt,
			c.Signal.Amount,
			string(c.Signal.Kind),
			c.Company,
		)
		if err != nil {
			return fmt.Errorf("upsert article: %w", err)
		}

		if c.Decision != entity.DecisionEmit {
			return nil
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO revenue_alerts (article_url, article_title, source, company, kind, amount, published_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (article_url) DO NOTHING;
		`,
			c.Article.URL,
			c.Article.Title,
			c.Article.SourceID,
			c.Company,
			string(c.Signal.Kind),
			c.Signal.Amount,
			c.Article.PublishedAt,
		)
		if err != nil {
			return fmt.Errorf("insert alert: %w", err)
		}
		return nil
	})
}

const alertColumns = `id, article_url, article_title, source, company, kind, amount, published_at, sent, created_at`

// ListPending retrieves unsent alerts at or above minAmount, largest first.
func (r *CandidateRepoImpl) ListPending(ctx context.Context, minAmount float64) ([]entity.Alert, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+alertColumns+`
		FROM revenue_alerts
		WHERE sent = FALSE AND amount >= $1
		ORDER BY amount DESC, id ASC;
	`, minAmount)
	if err != nil {
		return nil, fmt.Errorf("list pending alerts: %w", err)
	}
	return collectAlerts(rows)
}

// ListSentSince retrieves alerts delivered after since, newest first.
func (r *CandidateRepoImpl) ListSentSince(ctx context.Context, since time.Time) ([]entity.Alert, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+alertColumns+`
		FROM revenue_alerts
		WHERE sent = TRUE AND sent_at >= $1
		ORDER BY sent_at DESC, id DESC;
	`, since)
	if err != nil {
		return nil, fmt.Errorf("list sent alerts: %w", err)
	}
	return collectAlerts(rows)
}

func (r *CandidateRepoImpl) MarkSent(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.db.Exec(ctx, `UPDATE revenue_alerts SET sent = TRUE, sent_at = NOW() WHERE id = ANY($1);`, ids)
	if err != nil {
		return fmt.Errorf("mark alerts sent: %w", err)
	}
	return nil
}

func (r *CandidateRepoImpl) Stats(ctx context.Context) (*entity.StoreStats, error) {
	var s entity.StoreStats
	err := r.db.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM articles),
			(SELECT COUNT(*) FROM articles WHERE has_revenue),
			(SELECT COUNT(*) FROM revenue_alerts WHERE sent = FALSE);
	`).Scan(&s.TotalArticles, &s.RevenueArticles, &s.PendingAlerts)
	if err != nil {
		return nil, fmt.Errorf("store stats: %w", err)
	}
	return &s, nil
}

func collectAlerts(rows pgx.Rows) ([]entity.Alert, error) {
	defer rows.Close()

	var alerts []entity.Alert
	for rows.Next() {
		var a entity.Alert
		var kind string
		if err := rows.Scan(
			&a.ID,
			&a.ArticleURL,
			&a.ArticleTitle,
			&a.SourceID,
			&a.Company,
			&kind,
			&a.Amount,
			&a.PublishedAt,
			&a.Sent,
			&a.CreatedAt,
		); err != nil {
			return nil, err
		}
		a.Kind = entity.DisclosureKind(kind)
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

// NewPool opens a pgx pool and verifies connectivity.
func NewPool(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}
