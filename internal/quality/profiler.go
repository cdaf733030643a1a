package quality

import (
	"fmt"
	"math"
	"strings"

	"github.com/ppiankov/snowspectre/internal/models"
)

const (
	highNullThresholdPct = 20.0
	nullPenaltyPerColumn = 5.0
	maxNullPenalty       = 30.0
)

// ProfileColumns scores one table's columns on null rates and returns the
// 0-100 score plus the issues found.
//
// The penalty is a fixed amount per offending column, capped at 30, no matter
// how far past the threshold a column is. The coarseness is intentional: the
// score should react to how widespread the problem is, not to outlier
// columns.
func ProfileColumns(columns []models.ColumnStat) (int, []models.QualityIssue) {
	score := 100.0
	issues := []models.QualityIssue{}

	var highNull []string
	for _, col := range columns {
		if col.NullPercentage > highNullThresholdPct {
			highNull = append(highNull, col.ColumnName)
		}
	}

	if len(highNull) > 0 {
		penalty := math.Min(nullPenaltyPerColumn*float64(len(highNull)), maxNullPenalty)
		score -= penalty
		issues = append(issues, models.QualityIssue{
			Kind: models.IssueHighNulls,
			Description: fmt.Sprintf("%d column(s) exceed %.0f%% nulls: %s",
				len(highNull), highNullThresholdPct, strings.Join(highNull, ", ")),
			SeverityPenalty: penalty,
		})
	}

	if score < 0 {
		score = 0
	}
	return int(score), issues
}
