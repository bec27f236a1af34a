package db

import "database/sql"

// Schema statements are idempotent so every binary can run them at
// startup without coordination.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS tenants (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		status      TEXT NOT NULL DEFAULT 'active',
		credentials JSONB NOT NULL DEFAULT '[]',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at  TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS campaign_jobs (
		id                TEXT PRIMARY KEY,
		tenant_id         TEXT NOT NULL REFERENCES tenants(id),
		created_by        TEXT NOT NULL,
		job_type          TEXT NOT NULL,
		channel_data      JSONB NOT NULL,
		recipients        JSONB NOT NULL,
		status            TEXT NOT NULL DEFAULT 'pending',
		total             INT NOT NULL,
		sent              INT NOT NULL DEFAULT 0,
		failed            INT NOT NULL DEFAULT 0,
		current_batch     INT NOT NULL DEFAULT 0,
		total_batches     INT NOT NULL,
		attempts          INT NOT NULL DEFAULT 0,
		max_attempts      INT NOT NULL,
		backoff_ms        BIGINT NOT NULL,
		last_attempt_at   TIMESTAMPTZ,
		next_retry_at     TIMESTAMPTZ,
		failed_recipients JSONB NOT NULL DEFAULT '[]',
		last_error        TEXT NOT NULL DEFAULT '',
		created_at        TIMESTAMPTZ NOT NULL,
		updated_at        TIMESTAMPTZ NOT NULL,
		started_at        TIMESTAMPTZ,
		completed_at      TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_campaign_jobs_status ON campaign_jobs (status)`,
	`CREATE INDEX IF NOT EXISTS idx_campaign_jobs_tenant ON campaign_jobs (tenant_id)`,
}

// Migrate executes the schema statements in order.
func Migrate(conn *sql.DB) error {
	for _, stmt := range migrations {
		if _, err := conn.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
