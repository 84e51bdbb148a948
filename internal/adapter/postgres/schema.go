package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema is applied idempotently at startup.
const schema = `
CREATE TABLE IF NOT EXISTS seen_urls (
	url     TEXT PRIMARY KEY,
	seen_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS articles (
	id             BIGSERIAL PRIMARY KEY,
	url            TEXT UNIQUE NOT NULL,
	title          TEXT NOT NULL,
	source         TEXT NOT NULL,
	content        TEXT NOT NULL,
	published_at   TIMESTAMPTZ,
	has_revenue    BOOLEAN NOT NULL DEFAULT FALSE,
	revenue_amount DOUBLE PRECISION,
	revenue_kind   TEXT,
	company        TEXT,
	scraped_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS revenue_alerts (
	id            BIGSERIAL PRIMARY KEY,
	article_url   TEXT UNIQUE NOT NULL REFERENCES articles (url) ON DELETE CASCADE,
	article_title TEXT NOT NULL,
	source        TEXT NOT NULL,
	company       TEXT NOT NULL,
	kind          TEXT NOT NULL,
	amount        DOUBLE PRECISION NOT NULL,
	published_at  TIMESTAMPTZ,
	sent          BOOLEAN NOT NULL DEFAULT FALSE,
	sent_at       TIMESTAMPTZ,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS revenue_alerts_pending_idx ON revenue_alerts (sent, amount);
`

// Migrate creates the tables used by the adapters in this package.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
