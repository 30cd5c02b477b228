package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"labqc/pkg/core/report"
)

// PostgresArchive stores records in Postgres.
type PostgresArchive struct {
	pool *pgxpool.Pool
}

// Ensure interface compliance
var _ Archive = (*PostgresArchive)(nil)

func NewPostgresArchive(pool *pgxpool.Pool) *PostgresArchive {
	return &PostgresArchive{pool: pool}
}

func (a *PostgresArchive) Migrate(ctx context.Context) error {
	for _, stmt := range postgresSchema {
		if _, err := a.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate postgres: %w", err)
		}
	}
	return nil
}

func (a *PostgresArchive) Close() error {
	a.pool.Close()
	return nil
}

func (a *PostgresArchive) FindLatestByLabID(ctx context.Context, labID string) (*AIReport, error) {
	query := `
		SELECT id::text, lab_id, analysis, model, provider, prompt_id, report_snapshot, created_at
		FROM ai_reports
		WHERE lab_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`
	var (
		r        AIReport
		snapshot []byte
	)
	err := a.pool.QueryRow(ctx, query, labID).Scan(
		&r.ID, &r.LabID, &r.Analysis, &r.Model, &r.Provider, &r.PromptID, &snapshot, &r.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find latest ai report: %w", err)
	}
	if r.ReportSnapshot, err = decodeSnapshot(snapshot); err != nil {
		return nil, err
	}
	return &r, nil
}

func (a *PostgresArchive) Insert(ctx context.Context, in *AIReport) (*AIReport, error) {
	r := prepareInsert(in, time.Now())
	snapshot, err := encodeSnapshot(r.ReportSnapshot)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO ai_reports (id, lab_id, analysis, model, provider, prompt_id, report_snapshot, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	if _, err := a.pool.Exec(ctx, query, r.ID, r.LabID, r.Analysis, r.Model, r.Provider, r.PromptID, snapshot, r.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert ai report: %w", err)
	}
	return &r, nil
}

func (a *PostgresArchive) ListByDateRange(ctx context.Context, start, end time.Time) ([]AIReport, error) {
	query := `
		SELECT id::text, lab_id, analysis, model, provider, prompt_id, created_at
		FROM ai_reports
		WHERE created_at >= $1 AND created_at <= $2
		ORDER BY created_at DESC
	`
	rows, err := a.pool.Query(ctx, query, start.UTC(), end.UTC())
	if err != nil {
		return nil, fmt.Errorf("list ai reports: %w", err)
	}
	defer rows.Close()

	out := []AIReport{}
	for rows.Next() {
		var r AIReport
		if err := rows.Scan(&r.ID, &r.LabID, &r.Analysis, &r.Model, &r.Provider, &r.PromptID, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan ai report: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (a *PostgresArchive) Stats(ctx context.Context, now time.Time) (SystemStats, error) {
	stats := SystemStats{Trend: []TrendPoint{}}
	if err := a.pool.QueryRow(ctx, `SELECT count(*) FROM ai_reports`).Scan(&stats.TotalAudits); err != nil {
		return SystemStats{}, fmt.Errorf("count ai reports: %w", err)
	}

	rows, err := a.pool.Query(ctx,
		`SELECT created_at, provider FROM ai_reports WHERE created_at >= $1 ORDER BY created_at`,
		now.Add(-TrendWindow).UTC())
	if err != nil {
		return SystemStats{}, fmt.Errorf("query trend: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p TrendPoint
		if err := rows.Scan(&p.CreatedAt, &p.Provider); err != nil {
			return SystemStats{}, fmt.Errorf("scan trend point: %w", err)
		}
		stats.Trend = append(stats.Trend, p)
	}
	return stats, rows.Err()
}

func (a *PostgresArchive) GetSettings(ctx context.Context) (*SettingsRecord, error) {
	query := `SELECT id, ai_settings, prompt_state, updated_at FROM dashboard_settings WHERE id = $1`
	var (
		rec                SettingsRecord
		aiJSON, promptJSON []byte
	)
	err := a.pool.QueryRow(ctx, query, SettingsID).Scan(&rec.ID, &aiJSON, &promptJSON, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	if err := decodeSettings(&rec, aiJSON, promptJSON); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (a *PostgresArchive) SaveSettings(ctx context.Context, rec SettingsRecord) error {
	aiJSON, promptJSON, err := encodeSettings(rec)
	if err != nil {
		return err
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now()
	}

	query := `
		INSERT INTO dashboard_settings (id, ai_settings, prompt_state, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id)
		DO UPDATE SET
			ai_settings = EXCLUDED.ai_settings,
			prompt_state = EXCLUDED.prompt_state,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := a.pool.Exec(ctx, query, SettingsID, aiJSON, promptJSON, rec.UpdatedAt.UTC()); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

func encodeSnapshot(r *report.Report) ([]byte, error) {
	if r == nil {
		return nil, nil
	}
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal report snapshot: %w", err)
	}
	return data, nil
}

func decodeSnapshot(data []byte) (*report.Report, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	var r report.Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("unmarshal report snapshot: %w", err)
	}
	return &r, nil
}

func encodeSettings(rec SettingsRecord) ([]byte, []byte, error) {
	aiJSON, err := json.Marshal(rec.AISettings)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal ai settings: %w", err)
	}
	promptJSON, err := json.Marshal(rec.PromptState)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal prompt state: %w", err)
	}
	return aiJSON, promptJSON, nil
}

func decodeSettings(rec *SettingsRecord, aiJSON, promptJSON []byte) error {
	if err := json.Unmarshal(aiJSON, &rec.AISettings); err != nil {
		return fmt.Errorf("unmarshal ai settings: %w", err)
	}
	if err := json.Unmarshal(promptJSON, &rec.PromptState); err != nil {
		return fmt.Errorf("unmarshal prompt state: %w", err)
	}
	return nil
}
