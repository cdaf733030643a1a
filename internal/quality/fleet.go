package quality

import (
	"fmt"
	"math"

	"github.com/ppiankov/snowspectre/internal/models"
)

// NeutralScore is reported when no tables were sampled. It distinguishes
// "nothing evaluated" from "evaluated and scored zero".
const NeutralScore = 75

const (
	fleetNullThresholdPct = 10.0
	fleetDupThresholdPct  = 5.0
)

// Aggregate rolls per-table health reports into an account-wide verdict.
func Aggregate(reports []*models.TableHealthReport) *models.FleetQualityReport {
	fleet := &models.FleetQualityReport{
		PerTableScores:  []models.PerTableScore{},
		Recommendations: []string{},
	}

	if len(reports) == 0 {
		fleet.OverallScore = NeutralScore
		return fleet
	}

	var scoreSum int
	var columnCount int
	var nullSum, dupSum float64

	for _, report := range reports {
		scoreSum += report.HealthScore

		issues := report.Issues
		if issues == nil {
			issues = []models.QualityIssue{}
		}
		fleet.PerTableScores = append(fleet.PerTableScores, models.PerTableScore{
			Name:   report.TableName,
			Score:  report.HealthScore,
			Issues: issues,
		})
		if len(issues) > 0 {
			fleet.TablesWithIssues++
		}

		for _, col := range report.Columns {
			columnCount++
			nullSum += col.NullPercentage
			if report.RowCount > 0 {
				dup := float64(report.RowCount-col.DistinctCount) / float64(report.RowCount) * 100
				if dup < 0 {
					dup = 0
				}
				dupSum += dup
			}
		}
	}

	fleet.OverallScore = int(math.Round(float64(scoreSum) / float64(len(reports))))
	if columnCount > 0 {
		fleet.AvgNullPercentage = nullSum / float64(columnCount)
		fleet.AvgDuplicatePercentage = dupSum / float64(columnCount)
	}

	if fleet.AvgNullPercentage > fleetNullThresholdPct {
		fleet.Recommendations = append(fleet.Recommendations,
			"Add data validation checks to reduce null rates at ingestion")
	}
	if fleet.AvgDuplicatePercentage > fleetDupThresholdPct {
		fleet.Recommendations = append(fleet.Recommendations,
			"Review ingestion pipelines for duplicate records")
	}
	if fleet.TablesWithIssues > 0 {
		fleet.Recommendations = append(fleet.Recommendations,
			fmt.Sprintf("Address outstanding issues in %d table(s)", fleet.TablesWithIssues))
	}

	return fleet
}
