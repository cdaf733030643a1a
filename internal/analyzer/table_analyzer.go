package analyzer

import (
	"log/slog"
	"strings"

	"github.com/ppiankov/snowspectre/internal/models"
)

// buildTableModel tracks per-table read/write activity from query records.
// It feeds anomaly detection; health scoring uses the metadata source instead.
func (a *Analyzer) buildTableModel(queries []*models.QueryRecord) {
	cutoff := a.cutoff()

	for _, record := range queries {
		if record.StartTime.Before(cutoff) {
			continue
		}

		for _, tableName := range record.Tables {
			if tableName == "" {
				continue
			}
			if a.config.IsTableExcluded(tableName) {
				continue
			}

			table, exists := a.tables[tableName]
			if !exists {
				table = &models.TableUsage{
					FullName:  tableName,
					FirstSeen: record.StartTime,
				}
				a.tables[tableName] = table
			}

			if isReadQuery(record.QueryType) {
				table.Reads++
			} else if isWriteQuery(record.QueryType) {
				table.Writes++
			}

			if record.StartTime.After(table.LastAccess) {
				table.LastAccess = record.StartTime
			}
			if record.StartTime.Before(table.FirstSeen) {
				table.FirstSeen = record.StartTime
			}
		}
	}

	if a.config.Verbose {
		slog.Debug("built table model", slog.Int("tables", len(a.tables)))
	}
}

// isReadQuery checks if a query type is a read operation
func isReadQuery(queryType string) bool {
	t := strings.ToUpper(queryType)
	return strings.HasPrefix(t, "SELECT") || strings.HasPrefix(t, "SHOW")
}

// isWriteQuery checks if a query type is a write operation
func isWriteQuery(queryType string) bool {
	t := strings.ToUpper(queryType)
	switch {
	case strings.HasPrefix(t, "INSERT"),
		strings.HasPrefix(t, "COPY"),
		strings.HasPrefix(t, "CREATE"),
		strings.HasPrefix(t, "MERGE"),
		strings.HasPrefix(t, "UPDATE"),
		strings.HasPrefix(t, "DELETE"),
		strings.HasPrefix(t, "DROP"),
		strings.HasPrefix(t, "ALTER"):
		return true
	}
	return false
}
