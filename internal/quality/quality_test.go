package quality

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ppiankov/snowspectre/internal/models"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func columnsWithNulls(count int, nullPct float64) []models.ColumnStat {
	cols := make([]models.ColumnStat, 0, count)
	for i := 0; i < count; i++ {
		cols = append(cols, models.ColumnStat{
			ColumnName:     fmt.Sprintf("col_%d", i),
			NullPercentage: nullPct,
			DistinctCount:  1000,
		})
	}
	return cols
}

func TestProfileColumns(t *testing.T) {
	cases := []struct {
		name       string
		columns    []models.ColumnStat
		wantScore  int
		wantIssues int
	}{
		{
			name:       "no_columns",
			columns:    nil,
			wantScore:  100,
			wantIssues: 0,
		},
		{
			name:       "clean_columns",
			columns:    columnsWithNulls(4, 5),
			wantScore:  100,
			wantIssues: 0,
		},
		{
			name:       "single_column_just_over_threshold",
			columns:    columnsWithNulls(1, 21),
			wantScore:  95,
			wantIssues: 1,
		},
		{
			name:       "threshold_is_exclusive",
			columns:    columnsWithNulls(1, 20),
			wantScore:  100,
			wantIssues: 0,
		},
		{
			name:       "three_offending_columns",
			columns:    columnsWithNulls(3, 60),
			wantScore:  85,
			wantIssues: 1,
		},
		{
			name:       "penalty_caps_at_thirty",
			columns:    columnsWithNulls(10, 99),
			wantScore:  70,
			wantIssues: 1,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			score, issues := ProfileColumns(tc.columns)
			if score != tc.wantScore {
				t.Fatalf("expected score %d, got %d", tc.wantScore, score)
			}
			if len(issues) != tc.wantIssues {
				t.Fatalf("expected %d issues, got %d", tc.wantIssues, len(issues))
			}
			if score < 0 || score > 100 {
				t.Fatalf("score out of range: %d", score)
			}
			if tc.wantIssues > 0 && issues[0].Kind != models.IssueHighNulls {
				t.Fatalf("expected high_nulls issue, got %s", issues[0].Kind)
			}
		})
	}
}

func TestScoreEmptyTableUpdatedYesterday(t *testing.T) {
	scorer := NewScorerAt(fixedClock)
	meta := models.TableMeta{
		FullName:      "analytics.public.events",
		RowCount:      0,
		CreatedAt:     testNow.AddDate(0, -6, 0),
		LastAlteredAt: testNow.Add(-24 * time.Hour),
	}

	report, err := scorer.Score(meta, nil)
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}

	if report.HealthScore != 70 {
		t.Fatalf("expected score 70, got %d", report.HealthScore)
	}
	if len(report.Issues) != 1 || report.Issues[0].Kind != models.IssueEmpty {
		t.Fatalf("expected single empty issue, got %+v", report.Issues)
	}
	if len(report.Recommendations) != 1 {
		t.Fatalf("expected one recommendation, got %v", report.Recommendations)
	}
}

func TestScoreAppliesAllPenalties(t *testing.T) {
	scorer := NewScorerAt(fixedClock)
	meta := models.TableMeta{
		FullName:      "analytics.public.orders",
		RowCount:      1000,
		CreatedAt:     testNow.AddDate(-1, 0, 0),
		LastAlteredAt: testNow.AddDate(0, 0, -45),
	}

	report, err := scorer.Score(meta, columnsWithNulls(3, 40))
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}

	// 100 - min(5*3, 30) - 20 stale
	if report.HealthScore != 65 {
		t.Fatalf("expected score 65, got %d", report.HealthScore)
	}
	if report.DaysSinceUpdate != 45 {
		t.Fatalf("expected 45 days since update, got %d", report.DaysSinceUpdate)
	}
	if report.AgeInDays != 365 {
		t.Fatalf("expected age 365 days, got %d", report.AgeInDays)
	}

	kinds := map[models.IssueKind]bool{}
	for _, issue := range report.Issues {
		kinds[issue.Kind] = true
	}
	if !kinds[models.IssueHighNulls] || !kinds[models.IssueStale] {
		t.Fatalf("expected high_nulls and stale issues, got %+v", report.Issues)
	}
}

func TestScoreFloorIsZero(t *testing.T) {
	scorer := NewScorerAt(fixedClock)
	meta := models.TableMeta{
		FullName:      "analytics.public.dead",
		RowCount:      0,
		CreatedAt:     testNow.AddDate(-2, 0, 0),
		LastAlteredAt: testNow.AddDate(-1, 0, 0),
	}

	report, err := scorer.Score(meta, columnsWithNulls(10, 95))
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	// 100 - 30 empty - 30 nulls - 20 stale = 20; floor engages only below 0,
	// so verify the range rather than an exact floor hit here.
	if report.HealthScore != 20 {
		t.Fatalf("expected score 20, got %d", report.HealthScore)
	}
	if report.HealthScore < 0 || report.HealthScore > 100 {
		t.Fatalf("score out of range: %d", report.HealthScore)
	}
}

func TestScoreRejectsNegativeRowCount(t *testing.T) {
	scorer := NewScorerAt(fixedClock)
	meta := models.TableMeta{FullName: "db.s.t", RowCount: -1}

	if _, err := scorer.Score(meta, nil); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestScoreFlagsDuplicatesWithoutPenalty(t *testing.T) {
	scorer := NewScorerAt(fixedClock)
	meta := models.TableMeta{
		FullName:      "analytics.public.users",
		RowCount:      1000,
		CreatedAt:     testNow.AddDate(0, -1, 0),
		LastAlteredAt: testNow.Add(-2 * time.Hour),
	}
	columns := []models.ColumnStat{
		{ColumnName: "email", NullPercentage: 0, DistinctCount: 400},
	}

	report, err := scorer.Score(meta, columns)
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	if report.HealthScore != 100 {
		t.Fatalf("duplicates must not change the score, got %d", report.HealthScore)
	}
	if len(report.Issues) != 1 || report.Issues[0].Kind != models.IssueDuplicates {
		t.Fatalf("expected single duplicates issue, got %+v", report.Issues)
	}
	if report.Issues[0].SeverityPenalty != 0 {
		t.Fatalf("duplicates issue must carry zero penalty")
	}
}

func TestScoreTablesPreservesOrder(t *testing.T) {
	scorer := NewScorerAt(fixedClock)

	var samples []TableSample
	for i := 0; i < 20; i++ {
		samples = append(samples, TableSample{
			Meta: models.TableMeta{
				FullName:      fmt.Sprintf("db.s.table_%02d", i),
				RowCount:      int64(100 * (i + 1)),
				CreatedAt:     testNow.AddDate(0, -1, 0),
				LastAlteredAt: testNow.Add(-1 * time.Hour),
			},
		})
	}

	reports, err := scorer.ScoreTables(samples, 4)
	if err != nil {
		t.Fatalf("ScoreTables failed: %v", err)
	}
	if len(reports) != len(samples) {
		t.Fatalf("expected %d reports, got %d", len(samples), len(reports))
	}
	for i, report := range reports {
		want := fmt.Sprintf("db.s.table_%02d", i)
		if report.TableName != want {
			t.Fatalf("order broken at %d: got %s, want %s", i, report.TableName, want)
		}
	}
}

func TestScoreTablesRejectsEmptyBatch(t *testing.T) {
	scorer := NewScorerAt(fixedClock)
	if _, err := scorer.ScoreTables(nil, 4); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestAggregateEmpty(t *testing.T) {
	fleet := Aggregate(nil)
	if fleet.OverallScore != NeutralScore {
		t.Fatalf("expected neutral score %d, got %d", NeutralScore, fleet.OverallScore)
	}
	if fleet.TablesWithIssues != 0 {
		t.Fatalf("expected zero tables with issues, got %d", fleet.TablesWithIssues)
	}
	if len(fleet.PerTableScores) != 0 || len(fleet.Recommendations) != 0 {
		t.Fatalf("expected empty slices, got %+v", fleet)
	}
}

func TestAggregateRollsUpScoresAndIssues(t *testing.T) {
	reports := []*models.TableHealthReport{
		{
			TableName:   "db.s.a",
			RowCount:    100,
			HealthScore: 90,
			Issues:      []models.QualityIssue{{Kind: models.IssueStale}},
			Columns:     []models.ColumnStat{{ColumnName: "x", NullPercentage: 30, DistinctCount: 100}},
		},
		{
			TableName:   "db.s.b",
			RowCount:    100,
			HealthScore: 71,
			Issues:      []models.QualityIssue{},
			Columns:     []models.ColumnStat{{ColumnName: "y", NullPercentage: 10, DistinctCount: 50}},
		},
	}

	fleet := Aggregate(reports)

	// round((90+71)/2) = round(80.5) = 81
	if fleet.OverallScore != 81 {
		t.Fatalf("expected overall 81, got %d", fleet.OverallScore)
	}
	if fleet.TablesWithIssues != 1 {
		t.Fatalf("expected 1 table with issues, got %d", fleet.TablesWithIssues)
	}
	if fleet.AvgNullPercentage != 20 {
		t.Fatalf("expected avg null 20, got %v", fleet.AvgNullPercentage)
	}
	// Column x: 0% duplicates; column y: 50% duplicates -> avg 25.
	if fleet.AvgDuplicatePercentage != 25 {
		t.Fatalf("expected avg duplicates 25, got %v", fleet.AvgDuplicatePercentage)
	}
	if len(fleet.PerTableScores) != 2 || fleet.PerTableScores[0].Name != "db.s.a" {
		t.Fatalf("per-table scores must preserve input order: %+v", fleet.PerTableScores)
	}

	// avg null 20 > 10, avg dup 25 > 5, one table with issues.
	if len(fleet.Recommendations) != 3 {
		t.Fatalf("expected 3 recommendations, got %v", fleet.Recommendations)
	}
}
