package analyzer

import (
	"fmt"

	"github.com/ppiankov/snowspectre/internal/models"
)

// detectAnomalies flags unusual usage patterns across warehouses and tables.
// Findings are informational; scoring and recommendations never depend on them.
func (a *Analyzer) detectAnomalies(queries []*models.QueryRecord, metering []*models.MeteringRecord) {
	now := a.now()
	cutoff := a.cutoff()

	metered := make(map[string]bool)
	for _, row := range metering {
		if row.StartTime.Before(cutoff) {
			continue
		}
		if row.CreditsUsed > 0 {
			metered[row.WarehouseName] = true
		}
	}

	// Warehouse anomalies.
	for name, window := range a.windows {
		if window.QueryCount > 0 && !metered[name] {
			a.anomalies = append(a.anomalies, &models.Anomaly{
				Type:           "missing_metering",
				Description:    "Warehouse has query activity but no metering data; cost falls back to tier-based estimates",
				Severity:       "medium",
				AffectedObject: name,
				DetectedAt:     now,
			})
		}
	}
	for name := range metered {
		if _, hasQueries := a.windows[name]; !hasQueries {
			a.anomalies = append(a.anomalies, &models.Anomaly{
				Type:           "metered_idle",
				Description:    "Warehouse consumed credits without running any queries in the lookback period",
				Severity:       "medium",
				AffectedObject: name,
				DetectedAt:     now,
			})
		}
	}

	// Table anomalies.
	for tableName, table := range a.tables {
		totalAccess := table.Reads + table.Writes
		if totalAccess == 1 {
			a.anomalies = append(a.anomalies, &models.Anomaly{
				Type:           "single_access",
				Description:    "Table accessed only once in lookback period",
				Severity:       "low",
				AffectedObject: tableName,
				DetectedAt:     now,
			})
			continue
		}

		if daysSince := now.Sub(table.LastAccess).Hours() / 24; daysSince > 30 {
			a.anomalies = append(a.anomalies, &models.Anomaly{
				Type:           "stale_table",
				Description:    fmt.Sprintf("Table not accessed in %d days", int(daysSince)),
				Severity:       "medium",
				AffectedObject: tableName,
				DetectedAt:     now,
			})
		}

		if table.Writes > 0 && table.Reads == 0 {
			a.anomalies = append(a.anomalies, &models.Anomaly{
				Type:           "write_only",
				Description:    "Table has writes but no reads (possible data sink)",
				Severity:       "low",
				AffectedObject: tableName,
				DetectedAt:     now,
			})
		}
	}
}
