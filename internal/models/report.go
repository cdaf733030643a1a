package models

import "time"

// IssueKind classifies a data quality issue
type IssueKind string

const (
	IssueHighNulls  IssueKind = "high_nulls"
	IssueDuplicates IssueKind = "duplicates"
	IssueEmpty      IssueKind = "empty"
	IssueStale      IssueKind = "stale"
)

// QualityIssue describes one problem found while scoring a table
type QualityIssue struct {
	Kind            IssueKind `json:"kind"`
	Description     string    `json:"description"`
	SeverityPenalty float64   `json:"severity_penalty"`
}

// CostEstimate is the advisor's verdict for a single warehouse.
// RecommendedTier is nil when no change is recommended.
type CostEstimate struct {
	WarehouseName      string    `json:"warehouse_name"`
	CurrentTier        SizeTier  `json:"current_tier"`
	CurrentCostUSD     float64   `json:"current_cost_usd"`
	RecommendedTier    *SizeTier `json:"recommended_tier,omitempty"`
	RecommendedCostUSD float64   `json:"recommended_cost_usd"`
	SavingsUSD         float64   `json:"savings_usd"`
	SavingsPercent     float64   `json:"savings_percent"`
	Rationale          string    `json:"rationale"`
	PeriodDays         int       `json:"period_days"`
}

// HasRecommendation reports whether the estimate carries an actionable change.
func (e *CostEstimate) HasRecommendation() bool {
	return e != nil && e.Rationale != ""
}

// TableHealthReport is the composite quality verdict for one table
type TableHealthReport struct {
	TableName       string         `json:"table_name"`
	RowCount        int64          `json:"row_count"`
	AgeInDays       int            `json:"age_in_days"`
	DaysSinceUpdate int            `json:"days_since_update"`
	Columns         []ColumnStat   `json:"columns"`
	HealthScore     int            `json:"health_score"`
	Issues          []QualityIssue `json:"issues"`
	Recommendations []string       `json:"recommendations"`
}

// PerTableScore is the fleet report's per-table summary line
type PerTableScore struct {
	Name   string         `json:"name"`
	Score  int            `json:"score"`
	Issues []QualityIssue `json:"issues"`
}

// FleetQualityReport rolls table scores up to an account-wide verdict
type FleetQualityReport struct {
	OverallScore           int             `json:"overall_score"`
	PerTableScores         []PerTableScore `json:"per_table_scores"`
	AvgNullPercentage      float64         `json:"avg_null_percentage"`
	AvgDuplicatePercentage float64         `json:"avg_duplicate_percentage"`
	TablesWithIssues       int             `json:"tables_with_issues"`
	Recommendations        []string        `json:"recommendations"`
}

// Report is the complete output structure
type Report struct {
	Tool               string              `json:"tool"`
	Version            string              `json:"version"`
	Timestamp          string              `json:"timestamp"`
	Metadata           Metadata            `json:"metadata"`
	UsageWindows       []UsageWindow       `json:"usage_windows"`
	CostEstimates      []CostEstimate      `json:"cost_estimates"`
	TopRecommendations []CostEstimate      `json:"top_recommendations"`
	TableReports       []TableHealthReport `json:"table_reports"`
	Fleet              *FleetQualityReport `json:"fleet,omitempty"`
	Anomalies          []Anomaly           `json:"anomalies"`
}

// Metadata contains report generation info
type Metadata struct {
	GeneratedAt          time.Time `json:"generated_at"`
	LookbackDays         int       `json:"lookback_days"`
	AccountHost          string    `json:"account_host"`
	TotalQueriesAnalyzed uint64    `json:"total_queries_analyzed"`
	TablesSampled        int       `json:"tables_sampled"`
	AnalysisDuration     string    `json:"analysis_duration"`
	Version              string    `json:"version"`
	CreditUnitPrice      float64   `json:"credit_unit_price"`
}
