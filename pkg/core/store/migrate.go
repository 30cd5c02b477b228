package store

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS ai_reports (
		id              UUID PRIMARY KEY,
		lab_id          TEXT NOT NULL,
		analysis        TEXT NOT NULL,
		model           TEXT NOT NULL DEFAULT '',
		provider        TEXT NOT NULL DEFAULT '',
		prompt_id       TEXT NOT NULL DEFAULT '',
		report_snapshot JSONB,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS ai_reports_lab_id_created_at_idx ON ai_reports (lab_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS ai_reports_created_at_idx ON ai_reports (created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS dashboard_settings (
		id           TEXT PRIMARY KEY,
		ai_settings  JSONB NOT NULL,
		prompt_state JSONB NOT NULL,
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// SQLite keeps timestamps as fixed-width UTC text so string order is time order.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS ai_reports (
		id              TEXT PRIMARY KEY,
		lab_id          TEXT NOT NULL,
		analysis        TEXT NOT NULL,
		model           TEXT NOT NULL DEFAULT '',
		provider        TEXT NOT NULL DEFAULT '',
		prompt_id       TEXT NOT NULL DEFAULT '',
		report_snapshot TEXT,
		created_at      TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS ai_reports_lab_id_created_at_idx ON ai_reports (lab_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS ai_reports_created_at_idx ON ai_reports (created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS dashboard_settings (
		id           TEXT PRIMARY KEY,
		ai_settings  TEXT NOT NULL,
		prompt_state TEXT NOT NULL,
		updated_at   TEXT NOT NULL
	)`,
}
