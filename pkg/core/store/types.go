// Package store archives analysis results and dashboard settings.
//
// Two backends share one schema: Postgres (pgx) for deployments and a local
// SQLite file when no database URL is configured. Records are append-only;
// the latest record for a lab id is the cached analysis.
package store

import (
	"context"
	"time"

	"labqc/pkg/core/agent"
	"labqc/pkg/core/prompt"
	"labqc/pkg/core/report"
)

// SettingsID is the key of the singleton settings row.
const SettingsID = "global"

// AIReport is one archived analysis.
type AIReport struct {
	ID             string         `json:"id"`
	LabID          string         `json:"lab_id"`
	Analysis       string         `json:"analysis"`
	Model          string         `json:"model"`
	Provider       string         `json:"provider"`
	PromptID       string         `json:"prompt_id"`
	ReportSnapshot *report.Report `json:"report_snapshot,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

// SettingsRecord is the persisted dashboard configuration.
type SettingsRecord struct {
	ID          string         `json:"id"`
	AISettings  agent.Settings `json:"ai_settings"`
	PromptState prompt.State   `json:"prompt_state"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// TrendPoint is one archived analysis reduced to what trend charts need.
type TrendPoint struct {
	CreatedAt time.Time `json:"created_at"`
	Provider  string    `json:"provider"`
}

// SystemStats summarises archive volume.
type SystemStats struct {
	TotalAudits int          `json:"total_audits"`
	Trend       []TrendPoint `json:"trend"`
}

// TrendWindow is how far back Stats collects trend points.
const TrendWindow = 30 * 24 * time.Hour

// Archive is a raw archive backend. Errors are returned, not swallowed;
// Gateway adds the best-effort behaviour.
type Archive interface {
	// FindLatestByLabID returns the newest record for labID, or nil.
	FindLatestByLabID(ctx context.Context, labID string) (*AIReport, error)
	// Insert appends a record, assigning ID and CreatedAt when unset.
	Insert(ctx context.Context, r *AIReport) (*AIReport, error)
	// ListByDateRange returns records created in [start, end], newest first,
	// without report snapshots.
	ListByDateRange(ctx context.Context, start, end time.Time) ([]AIReport, error)
	// Stats counts all records and lists trend points since now-TrendWindow.
	Stats(ctx context.Context, now time.Time) (SystemStats, error)
	// GetSettings returns the singleton settings row, or nil.
	GetSettings(ctx context.Context) (*SettingsRecord, error)
	// SaveSettings upserts the singleton settings row.
	SaveSettings(ctx context.Context, rec SettingsRecord) error
	// Migrate creates tables and indexes idempotently.
	Migrate(ctx context.Context) error
	Close() error
}
