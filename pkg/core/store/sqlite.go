package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

// timeLayout is fixed width so lexical order matches chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteArchive stores records in a local SQLite file.
type SQLiteArchive struct {
	db   *sql.DB
	path string
}

// Ensure interface compliance
var _ Archive = (*SQLiteArchive)(nil)

// OpenSQLite opens (creating if needed) the database at path and applies
// the schema.
func OpenSQLite(ctx context.Context, path string) (*SQLiteArchive, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One writer at a time; SQLite serialises writes anyway.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	a := &SQLiteArchive{db: db, path: path}
	if err := a.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return a, nil
}

func (a *SQLiteArchive) Migrate(ctx context.Context) error {
	for _, stmt := range sqliteSchema {
		if _, err := a.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	return nil
}

// Close closes the underlying database connection.
func (a *SQLiteArchive) Close() error {
	if a == nil || a.db == nil {
		return nil
	}
	return a.db.Close()
}

func (a *SQLiteArchive) FindLatestByLabID(ctx context.Context, labID string) (*AIReport, error) {
	row := a.db.QueryRowContext(ctx, `
		SELECT id, lab_id, analysis, model, provider, prompt_id, report_snapshot, created_at
		FROM ai_reports
		WHERE lab_id = ?
		ORDER BY created_at DESC
		LIMIT 1`, labID)

	var (
		r         AIReport
		snapshot  sql.NullString
		createdAt string
	)
	err := row.Scan(&r.ID, &r.LabID, &r.Analysis, &r.Model, &r.Provider, &r.PromptID, &snapshot, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find latest ai report: %w", err)
	}
	if r.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if snapshot.Valid {
		if r.ReportSnapshot, err = decodeSnapshot([]byte(snapshot.String)); err != nil {
			return nil, err
		}
	}
	return &r, nil
}

func (a *SQLiteArchive) Insert(ctx context.Context, in *AIReport) (*AIReport, error) {
	r := prepareInsert(in, time.Now())
	data, err := encodeSnapshot(r.ReportSnapshot)
	if err != nil {
		return nil, err
	}
	var snapshot sql.NullString
	if data != nil {
		snapshot = sql.NullString{String: string(data), Valid: true}
	}

	_, err = a.db.ExecContext(ctx, `
		INSERT INTO ai_reports (id, lab_id, analysis, model, provider, prompt_id, report_snapshot, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.LabID, r.Analysis, r.Model, r.Provider, r.PromptID, snapshot, formatTime(r.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("insert ai report: %w", err)
	}
	return &r, nil
}

func (a *SQLiteArchive) ListByDateRange(ctx context.Context, start, end time.Time) ([]AIReport, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT id, lab_id, analysis, model, provider, prompt_id, created_at
		FROM ai_reports
		WHERE created_at >= ? AND created_at <= ?
		ORDER BY created_at DESC`,
		formatTime(start), formatTime(end))
	if err != nil {
		return nil, fmt.Errorf("list ai reports: %w", err)
	}
	defer rows.Close()

	out := []AIReport{}
	for rows.Next() {
		var (
			r         AIReport
			createdAt string
		)
		if err := rows.Scan(&r.ID, &r.LabID, &r.Analysis, &r.Model, &r.Provider, &r.PromptID, &createdAt); err != nil {
			return nil, fmt.Errorf("scan ai report: %w", err)
		}
		if r.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (a *SQLiteArchive) Stats(ctx context.Context, now time.Time) (SystemStats, error) {
	stats := SystemStats{Trend: []TrendPoint{}}
	if err := a.db.QueryRowContext(ctx, `SELECT count(*) FROM ai_reports`).Scan(&stats.TotalAudits); err != nil {
		return SystemStats{}, fmt.Errorf("count ai reports: %w", err)
	}

	rows, err := a.db.QueryContext(ctx,
		`SELECT created_at, provider FROM ai_reports WHERE created_at >= ? ORDER BY created_at`,
		formatTime(now.Add(-TrendWindow)))
	if err != nil {
		return SystemStats{}, fmt.Errorf("query trend: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			p         TrendPoint
			createdAt string
		)
		if err := rows.Scan(&createdAt, &p.Provider); err != nil {
			return SystemStats{}, fmt.Errorf("scan trend point: %w", err)
		}
		if p.CreatedAt, err = parseTime(createdAt); err != nil {
			return SystemStats{}, err
		}
		stats.Trend = append(stats.Trend, p)
	}
	return stats, rows.Err()
}

func (a *SQLiteArchive) GetSettings(ctx context.Context) (*SettingsRecord, error) {
	var (
		rec                         SettingsRecord
		aiJSON, promptJSON, updated string
	)
	err := a.db.QueryRowContext(ctx,
		`SELECT id, ai_settings, prompt_state, updated_at FROM dashboard_settings WHERE id = ?`, SettingsID,
	).Scan(&rec.ID, &aiJSON, &promptJSON, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	if rec.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	if err := decodeSettings(&rec, []byte(aiJSON), []byte(promptJSON)); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (a *SQLiteArchive) SaveSettings(ctx context.Context, rec SettingsRecord) error {
	aiJSON, promptJSON, err := encodeSettings(rec)
	if err != nil {
		return err
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now()
	}

	_, err = a.db.ExecContext(ctx, `
		INSERT INTO dashboard_settings (id, ai_settings, prompt_state, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			ai_settings = excluded.ai_settings,
			prompt_state = excluded.prompt_state,
			updated_at = excluded.updated_at`,
		SettingsID, string(aiJSON), string(promptJSON), formatTime(rec.UpdatedAt))
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}
