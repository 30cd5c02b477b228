package store

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"labqc/pkg/core/metrics"
)

// Gateway wraps an Archive with best-effort semantics: no method returns an
// error. Failures are logged and counted in labqc_archive_errors_total, and
// callers see an empty result. A nil Archive behaves as an empty archive.
type Gateway struct {
	archive Archive
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

func NewGateway(archive Archive, logger zerolog.Logger, m *metrics.Metrics) *Gateway {
	return &Gateway{
		archive: archive,
		logger:  logger.With().Str("component", "archive").Logger(),
		metrics: m,
	}
}

// FindLatestByKey returns the cached analysis for labID, or nil on miss or
// failure.
func (g *Gateway) FindLatestByKey(ctx context.Context, labID string) *AIReport {
	if g.archive == nil {
		return nil
	}
	r, err := g.archive.FindLatestByLabID(ctx, labID)
	if err != nil {
		g.metrics.ArchiveError("read")
		g.logger.Warn().Err(err).Str("lab_id", labID).Msg("archive lookup failed")
		return nil
	}
	return r
}

// Insert appends a record and returns it as stored, or nil on failure.
func (g *Gateway) Insert(ctx context.Context, r *AIReport) *AIReport {
	if g.archive == nil || r == nil {
		return nil
	}
	saved, err := g.archive.Insert(ctx, r)
	if err != nil {
		g.metrics.ArchiveError("write")
		g.logger.Error().Err(err).Str("lab_id", r.LabID).Msg("archive write failed; analysis not persisted")
		return nil
	}
	return saved
}

// GetByDateRange returns records in [start, end], newest first.
func (g *Gateway) GetByDateRange(ctx context.Context, start, end time.Time) []AIReport {
	if g.archive == nil {
		return []AIReport{}
	}
	out, err := g.archive.ListByDateRange(ctx, start, end)
	if err != nil {
		g.metrics.ArchiveError("list")
		g.logger.Warn().Err(err).Time("start", start).Time("end", end).Msg("archive range query failed")
		return []AIReport{}
	}
	return out
}

// Stats returns archive volume, zero on failure.
func (g *Gateway) Stats(ctx context.Context, now time.Time) SystemStats {
	empty := SystemStats{Trend: []TrendPoint{}}
	if g.archive == nil {
		return empty
	}
	stats, err := g.archive.Stats(ctx, now)
	if err != nil {
		g.metrics.ArchiveError("stats")
		g.logger.Warn().Err(err).Msg("archive stats failed")
		return empty
	}
	return stats
}

// GetSettings returns the stored settings, or nil when absent or unreadable.
func (g *Gateway) GetSettings(ctx context.Context) *SettingsRecord {
	if g.archive == nil {
		return nil
	}
	rec, err := g.archive.GetSettings(ctx)
	if err != nil {
		g.metrics.ArchiveError("settings_read")
		g.logger.Warn().Err(err).Msg("settings read failed")
		return nil
	}
	return rec
}

// SaveSettings upserts settings and reports whether the write succeeded.
func (g *Gateway) SaveSettings(ctx context.Context, rec SettingsRecord) bool {
	if g.archive == nil {
		return false
	}
	if err := g.archive.SaveSettings(ctx, rec); err != nil {
		g.metrics.ArchiveError("settings_write")
		g.logger.Error().Err(err).Msg("settings write failed")
		return false
	}
	return true
}
