package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/ppiankov/snowspectre/internal/models"
)

// ErrRunNotFound is returned when a run id has no stored row.
var ErrRunNotFound = errors.New("run not found")

// RunSummary is the stored rollup of one analysis run.
type RunSummary struct {
	ID                  string    `json:"id"`
	CreatedAt           time.Time `json:"created_at"`
	AccountHost         string    `json:"account_host"`
	LookbackDays        int       `json:"lookback_days"`
	QueriesAnalyzed     uint64    `json:"queries_analyzed"`
	WarehousesAnalyzed  int       `json:"warehouses_analyzed"`
	TablesScanned       int       `json:"tables_scanned"`
	TotalSavingsUSD     float64   `json:"total_savings_usd"`
	OverallQualityScore int       `json:"overall_quality_score"`
}

// Store keeps a local history of analysis runs in SQLite
type Store struct {
	db *sql.DB
}

// NewStore opens (and if needed creates) the history database
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// SaveRun persists a finished report and returns the run id
func (s *Store) SaveRun(report *models.Report) (string, error) {
	if report == nil {
		return "", errors.New("report is nil")
	}

	reportJSON, err := json.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}

	totalSavings := 0.0
	for i := range report.CostEstimates {
		if report.CostEstimates[i].HasRecommendation() {
			totalSavings += report.CostEstimates[i].SavingsUSD
		}
	}

	overallScore := 0
	if report.Fleet != nil {
		overallScore = report.Fleet.OverallScore
	}

	createdAt := report.Metadata.GeneratedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	runID := uuid.NewString()
	query := `
		INSERT INTO runs (
			id, created_at, account_host, lookback_days, queries_analyzed,
			warehouses_analyzed, tables_scanned, total_savings_usd,
			overall_quality_score, report_json
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.Exec(query,
		runID,
		createdAt,
		report.Metadata.AccountHost,
		report.Metadata.LookbackDays,
		report.Metadata.TotalQueriesAnalyzed,
		len(report.UsageWindows),
		len(report.TableReports),
		totalSavings,
		overallScore,
		string(reportJSON),
	)
	if err != nil {
		return "", fmt.Errorf("failed to store run: %w", err)
	}

	return runID, nil
}

// ListRuns returns the most recent run summaries, newest first
func (s *Store) ListRuns(limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, created_at, account_host, lookback_days, queries_analyzed,
		       warehouses_analyzed, tables_scanned, total_savings_usd, overall_quality_score
		FROM runs
		ORDER BY created_at DESC
		LIMIT ?
	`

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var run RunSummary
		err := rows.Scan(
			&run.ID,
			&run.CreatedAt,
			&run.AccountHost,
			&run.LookbackDays,
			&run.QueriesAnalyzed,
			&run.WarehousesAnalyzed,
			&run.TablesScanned,
			&run.TotalSavingsUSD,
			&run.OverallQualityScore,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}

	return runs, nil
}

// GetRun loads a stored report by run id
func (s *Store) GetRun(runID string) (*models.Report, error) {
	var reportJSON string
	err := s.db.QueryRow("SELECT report_json FROM runs WHERE id = ?", runID).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run: %w", err)
	}

	var report models.Report
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse stored report: %w", err)
	}

	return &report, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}
