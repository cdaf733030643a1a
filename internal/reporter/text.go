package reporter

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ppiankov/snowspectre/internal/models"
	"github.com/ppiankov/snowspectre/pkg/config"
)

const (
	textANSIReset = "\x1b[0m"
	textANSIBold  = "\x1b[1m"
)

// WriteText writes a human-readable text report to report.txt and stdout.
func WriteText(report *models.Report, cfg *config.Config) error {
	return writeText(report, cfg, os.Stdout)
}

func writeText(report *models.Report, cfg *config.Config, out io.Writer) error {
	if report == nil {
		return fmt.Errorf("report is nil")
	}
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if out == nil {
		return fmt.Errorf("writer is nil")
	}

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	rendered := renderTextReport(report, supportsANSI(out))
	outputPath := filepath.Join(cfg.OutputDir, "report.txt")

	if err := os.WriteFile(outputPath, []byte(rendered), 0644); err != nil {
		return fmt.Errorf("failed to write report.txt: %w", err)
	}

	if _, err := io.WriteString(out, rendered); err != nil {
		return fmt.Errorf("failed to write text report to output: %w", err)
	}

	return nil
}

func renderTextReport(report *models.Report, useANSI bool) string {
	var b strings.Builder

	generatedAt := strings.TrimSpace(report.Timestamp)
	if generatedAt == "" {
		if !report.Metadata.GeneratedAt.IsZero() {
			generatedAt = report.Metadata.GeneratedAt.UTC().Format(time.RFC3339)
		} else {
			generatedAt = "unknown"
		}
	}

	host := strings.TrimSpace(report.Metadata.AccountHost)
	if host == "" {
		host = "unknown"
	}

	writeTextSectionHeader(&b, "SnowSpectre Cost & Quality Report", useANSI)
	fmt.Fprintf(&b, "Generated: %s\n", generatedAt)
	fmt.Fprintf(&b, "Account: %s\n", host)
	fmt.Fprintf(&b, "Lookback days: %d\n", report.Metadata.LookbackDays)
	fmt.Fprintf(&b, "Queries analyzed: %d\n", report.Metadata.TotalQueriesAnalyzed)
	fmt.Fprintf(&b, "Tables sampled: %d\n", report.Metadata.TablesSampled)
	b.WriteString("\n")

	writeTextSectionHeader(&b, "Warehouse Usage", useANSI)
	if len(report.UsageWindows) == 0 {
		b.WriteString("No warehouse activity in the lookback window.\n")
	} else {
		b.WriteString("WAREHOUSE                        QUERIES   AVG EXEC (s)  TOTAL EXEC (s)  CREDITS\n")
		b.WriteString("--------------------------------------------------------------------------------\n")
		for _, window := range report.UsageWindows {
			fmt.Fprintf(&b, "%-32s %-9d %-13.1f %-15.1f %.1f\n",
				truncateTextValue(window.WarehouseName, 32),
				window.QueryCount,
				window.AvgExecutionTimeSeconds,
				window.TotalExecutionTimeSeconds,
				window.CreditsUsed,
			)
		}
	}
	b.WriteString("\n")

	writeTextSectionHeader(&b, "Top Recommendations", useANSI)
	if len(report.TopRecommendations) == 0 {
		b.WriteString("No cost recommendations.\n")
	} else {
		for i, rec := range report.TopRecommendations {
			fmt.Fprintf(&b, "%d. %s: %s\n", i+1, rec.WarehouseName, rec.Rationale)
			fmt.Fprintf(&b, "   current $%.2f", rec.CurrentCostUSD)
			if rec.RecommendedTier != nil {
				fmt.Fprintf(&b, " -> recommended $%.2f (%s)", rec.RecommendedCostUSD, rec.RecommendedTier.Name)
			} else {
				fmt.Fprintf(&b, " -> recommended $%.2f", rec.RecommendedCostUSD)
			}
			fmt.Fprintf(&b, ", saves $%.2f (%.1f%%) over %d days\n", rec.SavingsUSD, rec.SavingsPercent, rec.PeriodDays)
		}
	}
	b.WriteString("\n")

	writeTextSectionHeader(&b, "Table Health", useANSI)
	if len(report.TableReports) == 0 {
		b.WriteString("No tables sampled.\n")
	} else {
		b.WriteString("TABLE                                        SCORE  ISSUES\n")
		b.WriteString("----------------------------------------------------------\n")
		for _, table := range report.TableReports {
			fmt.Fprintf(&b, "%-44s %-6d %d\n",
				truncateTextValue(table.TableName, 44),
				table.HealthScore,
				len(table.Issues),
			)
		}

		b.WriteString("\n")
		for _, table := range report.TableReports {
			if len(table.Issues) == 0 && len(table.Recommendations) == 0 {
				continue
			}
			fmt.Fprintf(&b, "%s | score=%d\n", table.TableName, table.HealthScore)
			for _, issue := range table.Issues {
				fmt.Fprintf(&b, "  issue: %s\n", issue.Description)
			}
			for _, rec := range table.Recommendations {
				fmt.Fprintf(&b, "  recommendation: %s\n", rec)
			}
		}
	}
	b.WriteString("\n")

	if report.Fleet != nil {
		writeTextSectionHeader(&b, "Fleet Summary", useANSI)
		fmt.Fprintf(&b, "Overall score: %d\n", report.Fleet.OverallScore)
		fmt.Fprintf(&b, "Tables with issues: %d\n", report.Fleet.TablesWithIssues)
		fmt.Fprintf(&b, "Avg null rate: %.1f%%\n", report.Fleet.AvgNullPercentage)
		fmt.Fprintf(&b, "Avg duplicate rate: %.1f%%\n", report.Fleet.AvgDuplicatePercentage)
		for _, rec := range report.Fleet.Recommendations {
			fmt.Fprintf(&b, "- %s\n", rec)
		}
		b.WriteString("\n")
	}

	if len(report.Anomalies) > 0 {
		writeTextSectionHeader(&b, "Anomalies", useANSI)
		for _, anomaly := range report.Anomalies {
			fmt.Fprintf(&b, "- [%s] %s: %s\n", anomaly.Severity, anomaly.AffectedObject, anomaly.Description)
		}
	}

	return b.String()
}

func writeTextSectionHeader(b *strings.Builder, title string, useANSI bool) {
	header := title
	if useANSI {
		header = textANSIBold + title + textANSIReset
	}
	fmt.Fprintf(b, "%s\n", header)
	fmt.Fprintf(b, "%s\n", strings.Repeat("-", len(title)))
}

func supportsANSI(out io.Writer) bool {
	file, ok := out.(*os.File)
	if !ok {
		return false
	}

	info, err := file.Stat()
	if err != nil {
		return false
	}

	return info.Mode()&os.ModeCharDevice != 0
}

func truncateTextValue(value string, width int) string {
	if width <= 0 || len(value) <= width {
		return value
	}
	if width <= 3 {
		return value[:width]
	}
	return value[:width-3] + "..."
}
