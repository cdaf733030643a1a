package analyzer

import (
	"log/slog"

	"github.com/ppiankov/snowspectre/internal/models"
)

// buildUsageWindows aggregates query records into one UsageWindow per
// warehouse observed inside the lookback window. Warehouses without a single
// matching query record are omitted entirely; callers treat a missing entry
// as "no usage data, skip".
func (a *Analyzer) buildUsageWindows(queries []*models.QueryRecord, metering []*models.MeteringRecord) {
	cutoff := a.cutoff()
	periodDays := a.config.PeriodDays()

	type accumulator struct {
		count   int
		totalMs float64
	}
	usage := make(map[string]*accumulator)

	for _, record := range queries {
		if record.WarehouseName == "" {
			continue
		}
		if record.StartTime.Before(cutoff) {
			continue
		}

		acc, ok := usage[record.WarehouseName]
		if !ok {
			acc = &accumulator{}
			usage[record.WarehouseName] = acc
		}
		acc.count++
		acc.totalMs += record.ExecutionTimeMs
	}

	// Credit metering is a separate series; rows outside the window or for
	// warehouses with no query activity do not create windows of their own.
	credits := make(map[string]float64)
	for _, row := range metering {
		if row.WarehouseName == "" || row.StartTime.Before(cutoff) {
			continue
		}
		credits[row.WarehouseName] += row.CreditsUsed
	}

	for name, acc := range usage {
		window := &models.UsageWindow{
			WarehouseName:             name,
			PeriodDays:                periodDays,
			QueryCount:                acc.count,
			TotalExecutionTimeSeconds: acc.totalMs / 1000,
			CreditsUsed:               credits[name],
		}
		if acc.count > 0 {
			window.AvgExecutionTimeSeconds = acc.totalMs / float64(acc.count) / 1000
		}
		a.windows[name] = window
	}

	if a.config.Verbose {
		slog.Debug("built usage windows", slog.Int("warehouses", len(a.windows)))
	}
}
