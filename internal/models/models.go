package models

import "time"

// QueryRecord represents a single entry from the warehouse query history
type QueryRecord struct {
	QueryID         string
	WarehouseName   string
	QueryType       string // 'SELECT', 'INSERT', 'CREATE', etc.
	StartTime       time.Time
	ExecutionTimeMs float64
	User            string
	RowsProduced    uint64
	Tables          []string // Extracted from query text
}

// MeteringRecord is one row of the credit-metering series
type MeteringRecord struct {
	WarehouseName string
	StartTime     time.Time
	CreditsUsed   float64
}

// Warehouse describes a compute cluster as reported by the account
type Warehouse struct {
	Name        string `json:"name"`
	Size        string `json:"size"`
	State       string `json:"state,omitempty"`
	AutoSuspend int    `json:"auto_suspend_seconds,omitempty"`
}

// SizeTier is one entry of the ordered warehouse size catalog
type SizeTier struct {
	Name           string  `json:"name"`
	CostMultiplier float64 `json:"cost_multiplier"`
	Ordinal        int     `json:"ordinal"`
}

// UsageWindow summarizes query activity for one warehouse over the lookback period
type UsageWindow struct {
	WarehouseName             string  `json:"warehouse_name"`
	PeriodDays                int     `json:"period_days"`
	QueryCount                int     `json:"query_count"`
	AvgExecutionTimeSeconds   float64 `json:"avg_execution_time_seconds"`
	TotalExecutionTimeSeconds float64 `json:"total_execution_time_seconds"`
	CreditsUsed               float64 `json:"credits_used"`
}

// TableMeta describes a table as reported by the metadata source
type TableMeta struct {
	Database      string    `json:"database"`
	Schema        string    `json:"schema,omitempty"`
	Name          string    `json:"name"`
	FullName      string    `json:"full_name"` // "db.schema.table"
	RowCount      int64     `json:"row_count"`
	Bytes         int64     `json:"bytes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	LastAlteredAt time.Time `json:"last_altered_at"`
}

// ColumnStat holds per-column profiling results for one table
type ColumnStat struct {
	ColumnName     string  `json:"column_name"`
	NullPercentage float64 `json:"null_percentage"`
	DistinctCount  int64   `json:"distinct_count"`
}

// TableUsage tracks query activity against a single table
type TableUsage struct {
	FullName   string    `json:"full_name"`
	Reads      uint64    `json:"reads"`
	Writes     uint64    `json:"writes"`
	FirstSeen  time.Time `json:"first_seen"`
	LastAccess time.Time `json:"last_access"`
}

// Anomaly represents an unusual usage pattern
type Anomaly struct {
	Type           string    `json:"type"`
	Description    string    `json:"description"`
	Severity       string    `json:"severity"` // "low", "medium", "high"
	AffectedObject string    `json:"affected_object,omitempty"`
	DetectedAt     time.Time `json:"detected_at"`
}
