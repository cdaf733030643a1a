package reporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ppiankov/snowspectre/internal/models"
	"github.com/ppiankov/snowspectre/pkg/config"
)

// WriteCSV writes the report to report.csv
func WriteCSV(report *models.Report, cfg *config.Config) error {
	if report == nil {
		return fmt.Errorf("report is nil")
	}
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	outputPath := filepath.Join(cfg.OutputDir, "report.csv")
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create report.csv: %w", err)
	}
	defer file.Close()

	return generateCSV(report, file)
}

func generateCSV(report *models.Report, writer io.Writer) error {
	w := csv.NewWriter(writer)
	defer w.Flush()

	header := []string{
		"Warehouse",
		"Current Tier",
		"Recommended Tier",
		"Current Cost ($)",
		"Recommended Cost ($)",
		"Savings ($)",
		"Savings (%)",
		"Rationale",
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	totalSavings := 0.0
	recommended := 0
	for _, est := range report.CostEstimates {
		if !est.HasRecommendation() {
			continue
		}
		recommended++
		totalSavings += est.SavingsUSD

		recommendedTier := est.CurrentTier.Name
		if est.RecommendedTier != nil {
			recommendedTier = est.RecommendedTier.Name
		}
		row := []string{
			est.WarehouseName,
			est.CurrentTier.Name,
			recommendedTier,
			fmt.Sprintf("%.2f", est.CurrentCostUSD),
			fmt.Sprintf("%.2f", est.RecommendedCostUSD),
			fmt.Sprintf("%.2f", est.SavingsUSD),
			fmt.Sprintf("%.1f", est.SavingsPercent),
			est.Rationale,
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	w.Write([]string{})
	w.Write([]string{"SUMMARY"})
	w.Write([]string{"Warehouses Analyzed", fmt.Sprintf("%d", len(report.UsageWindows))})
	w.Write([]string{"Recommendations", fmt.Sprintf("%d", recommended)})
	w.Write([]string{"Total Savings", fmt.Sprintf("$%.2f", totalSavings)})
	if report.Fleet != nil {
		w.Write([]string{"Fleet Quality Score", fmt.Sprintf("%d", report.Fleet.OverallScore)})
	}

	if len(report.TableReports) > 0 {
		w.Write([]string{})
		w.Write([]string{"TABLE HEALTH"})
		w.Write([]string{"Table", "Score", "Issues"})
		for _, table := range report.TableReports {
			w.Write([]string{
				table.TableName,
				fmt.Sprintf("%d", table.HealthScore),
				fmt.Sprintf("%d", len(table.Issues)),
			})
		}
	}

	return nil
}
