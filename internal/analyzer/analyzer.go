package analyzer

import (
	"log/slog"
	"sort"
	"time"

	"github.com/ppiankov/snowspectre/internal/models"
	"github.com/ppiankov/snowspectre/pkg/config"
)

// Analyzer reduces raw warehouse telemetry into usage models. It performs no
// I/O: callers fetch query history and metering rows first and hand them in.
// The clock is injectable so window filtering is deterministic under test.
type Analyzer struct {
	config    *config.Config
	now       func() time.Time
	windows   map[string]*models.UsageWindow
	tables    map[string]*models.TableUsage
	anomalies []*models.Anomaly
}

// New creates an analyzer using wall-clock time.
func New(cfg *config.Config) *Analyzer {
	return NewAt(cfg, time.Now)
}

// NewAt creates an analyzer with a fixed clock.
func NewAt(cfg *config.Config, now func() time.Time) *Analyzer {
	return &Analyzer{
		config:    cfg,
		now:       now,
		windows:   make(map[string]*models.UsageWindow),
		tables:    make(map[string]*models.TableUsage),
		anomalies: make([]*models.Anomaly, 0),
	}
}

// Analyze builds all usage models from query history and metering rows.
func (a *Analyzer) Analyze(queries []*models.QueryRecord, metering []*models.MeteringRecord) error {
	if a.config.Verbose {
		slog.Debug("starting analysis",
			slog.Int("query_records", len(queries)),
			slog.Int("metering_records", len(metering)),
		)
	}

	a.buildUsageWindows(queries, metering)
	a.buildTableModel(queries)
	a.detectAnomalies(queries, metering)

	if a.config.Verbose {
		slog.Debug("analysis complete",
			slog.Int("warehouses", len(a.windows)),
			slog.Int("tables", len(a.tables)),
			slog.Int("anomalies", len(a.anomalies)),
		)
	}

	return nil
}

// UsageWindows returns per-warehouse usage keyed by warehouse name.
// Warehouses with no query activity in the window are absent.
func (a *Analyzer) UsageWindows() map[string]*models.UsageWindow {
	return a.windows
}

// SortedUsageWindows returns usage windows ordered by warehouse name so
// downstream output is deterministic.
func (a *Analyzer) SortedUsageWindows() []models.UsageWindow {
	out := make([]models.UsageWindow, 0, len(a.windows))
	for _, w := range a.windows {
		out = append(out, *w)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].WarehouseName < out[j].WarehouseName
	})
	return out
}

// Tables returns per-table usage stats keyed by full table name.
func (a *Analyzer) Tables() map[string]*models.TableUsage {
	return a.tables
}

// Anomalies returns detected usage anomalies.
func (a *Analyzer) Anomalies() []*models.Anomaly {
	return a.anomalies
}

// cutoff returns the start of the lookback window.
func (a *Analyzer) cutoff() time.Time {
	return a.now().Add(-a.config.LookbackPeriod)
}
