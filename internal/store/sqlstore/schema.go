package sqlstore

import (
	"context"
	"fmt"
	"strings"
)

// schema is shared by SQLite and PostgreSQL. Instants are stored as Unix
// milliseconds; list-valued columns hold JSON text.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at    BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS profiles (
		id         TEXT PRIMARY KEY,
		email      TEXT NOT NULL,
		full_name  TEXT NOT NULL DEFAULT '',
		avatar_url TEXT NOT NULL DEFAULT '',
		role       TEXT NOT NULL DEFAULT '',
		created_at BIGINT NOT NULL,
		updated_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS organizations (
		id                TEXT PRIMARY KEY,
		name              TEXT NOT NULL,
		owner_id          TEXT NOT NULL,
		subscription_plan TEXT NOT NULL,
		created_at        BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS team_members (
		id              TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL,
		user_id         TEXT NOT NULL DEFAULT '',
		email           TEXT NOT NULL,
		full_name       TEXT NOT NULL DEFAULT '',
		role            TEXT NOT NULL,
		status          TEXT NOT NULL,
		joined_at       BIGINT NOT NULL,
		UNIQUE (organization_id, email)
	)`,
	`CREATE TABLE IF NOT EXISTS social_accounts (
		id               TEXT PRIMARY KEY,
		organization_id  TEXT NOT NULL,
		platform         TEXT NOT NULL,
		username         TEXT NOT NULL,
		status           TEXT NOT NULL,
		last_sync        BIGINT NOT NULL DEFAULT 0,
		follower_count   BIGINT NOT NULL DEFAULT 0,
		posts_this_month BIGINT NOT NULL DEFAULT 0,
		rate_used        BIGINT NOT NULL DEFAULT 0,
		rate_total       BIGINT NOT NULL DEFAULT 0,
		daily_used       BIGINT NOT NULL DEFAULT 0,
		daily_total      BIGINT NOT NULL DEFAULT 0,
		brand_voice      TEXT,
		created_at       BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS calendar_events (
		id              TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL DEFAULT '',
		author_id       TEXT NOT NULL DEFAULT '',
		caption         TEXT NOT NULL,
		scheduled_at    BIGINT NOT NULL,
		platforms       TEXT NOT NULL,
		type            TEXT NOT NULL,
		status          TEXT NOT NULL,
		media           TEXT,
		recurrence      TEXT,
		review_comment  TEXT NOT NULL DEFAULT '',
		created_at      BIGINT NOT NULL,
		updated_at      BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS calendar_events_org_time ON calendar_events (organization_id, scheduled_at)`,
	`CREATE TABLE IF NOT EXISTS activities (
		id              TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL,
		user_id         TEXT NOT NULL DEFAULT '',
		action          TEXT NOT NULL,
		target          TEXT NOT NULL DEFAULT '',
		detail          TEXT NOT NULL DEFAULT '',
		created_at      BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL,
		title      TEXT NOT NULL,
		body       TEXT NOT NULL DEFAULT '',
		is_read    BOOLEAN NOT NULL DEFAULT FALSE,
		created_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS analytics_summaries (
		id              TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL,
		account_id      TEXT NOT NULL DEFAULT '',
		platform        TEXT NOT NULL DEFAULT '',
		day             BIGINT NOT NULL,
		reach           BIGINT NOT NULL DEFAULT 0,
		impressions     BIGINT NOT NULL DEFAULT 0,
		engagements     BIGINT NOT NULL DEFAULT 0,
		engagement_rate DOUBLE PRECISION NOT NULL DEFAULT 0,
		followers       BIGINT NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS ad_accounts (
		id              TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL,
		network         TEXT NOT NULL,
		name            TEXT NOT NULL DEFAULT '',
		status          TEXT NOT NULL,
		created_at      BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS ad_campaigns (
		id              TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL,
		account_id      TEXT NOT NULL,
		name            TEXT NOT NULL,
		status          TEXT NOT NULL,
		created_at      BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS ad_performance (
		id              TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL,
		account_id      TEXT NOT NULL,
		campaign_id     TEXT NOT NULL DEFAULT '',
		day             BIGINT NOT NULL,
		impressions     BIGINT NOT NULL DEFAULT 0,
		clicks          BIGINT NOT NULL DEFAULT 0,
		conversions     BIGINT NOT NULL DEFAULT 0,
		spend           DOUBLE PRECISION NOT NULL DEFAULT 0,
		revenue         DOUBLE PRECISION NOT NULL DEFAULT 0
	)`,
}

// Migrate creates missing tables. It is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			name := strings.Fields(stmt)
			return fmt.Errorf("migrate %s: %w", strings.Join(name[:min(len(name), 6)], " "), err)
		}
	}
	return nil
}
