package quality

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/ppiankov/snowspectre/internal/models"
)

// ErrInvalidInput marks inputs the scorer refuses to coerce.
var ErrInvalidInput = errors.New("invalid input")

const (
	emptyTablePenalty   = 30.0
	staleThresholdDays  = 30
	stalePenalty        = 20.0
	duplicateAvgPctFlag = 5.0
)

// Scorer computes composite table health reports. The clock is injectable so
// freshness checks are deterministic under test.
type Scorer struct {
	now func() time.Time
}

// NewScorer returns a scorer using wall-clock time.
func NewScorer() *Scorer {
	return &Scorer{now: time.Now}
}

// NewScorerAt returns a scorer with a fixed clock.
func NewScorerAt(now func() time.Time) *Scorer {
	return &Scorer{now: now}
}

// TableSample pairs a table's metadata with its column profile.
type TableSample struct {
	Meta    models.TableMeta
	Columns []models.ColumnStat
}

// Score evaluates one table. Every applicable check contributes its penalty;
// checks never short-circuit each other.
func (s *Scorer) Score(meta models.TableMeta, columns []models.ColumnStat) (*models.TableHealthReport, error) {
	if meta.RowCount < 0 {
		return nil, fmt.Errorf("%w: negative row count %d for table %s", ErrInvalidInput, meta.RowCount, meta.FullName)
	}

	now := s.now()
	report := &models.TableHealthReport{
		TableName:       meta.FullName,
		RowCount:        meta.RowCount,
		Columns:         columns,
		AgeInDays:       ceilDays(now, meta.CreatedAt),
		DaysSinceUpdate: ceilDays(now, meta.LastAlteredAt),
		Issues:          []models.QualityIssue{},
		Recommendations: []string{},
	}

	score := 100.0

	if meta.RowCount == 0 {
		score -= emptyTablePenalty
		report.Issues = append(report.Issues, models.QualityIssue{
			Kind:            models.IssueEmpty,
			Description:     "Table is empty",
			SeverityPenalty: emptyTablePenalty,
		})
		report.Recommendations = append(report.Recommendations,
			"Investigate why the table has no data")
	}

	colScore, colIssues := ProfileColumns(columns)
	score -= 100 - float64(colScore)
	report.Issues = append(report.Issues, colIssues...)

	if report.DaysSinceUpdate > staleThresholdDays {
		score -= stalePenalty
		report.Issues = append(report.Issues, models.QualityIssue{
			Kind:            models.IssueStale,
			Description:     fmt.Sprintf("Table hasn't been updated in %d days", report.DaysSinceUpdate),
			SeverityPenalty: stalePenalty,
		})
		report.Recommendations = append(report.Recommendations,
			"Verify if the table should be receiving regular updates")
	}

	// Duplication is reported but never penalized; only widespread null rates,
	// emptiness and staleness move the score.
	if dup := avgDuplicatePct(meta.RowCount, columns); dup > duplicateAvgPctFlag {
		report.Issues = append(report.Issues, models.QualityIssue{
			Kind:            models.IssueDuplicates,
			Description:     fmt.Sprintf("Average duplicate ratio is %.1f%% across profiled columns", dup),
			SeverityPenalty: 0,
		})
	}

	if score < 0 {
		score = 0
	}
	report.HealthScore = int(score)
	return report, nil
}

// ScoreTables evaluates a batch of sampled tables concurrently. Reports come
// back in input order regardless of completion order.
func (s *Scorer) ScoreTables(samples []TableSample, concurrency int) ([]*models.TableHealthReport, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: at least one table sample required", ErrInvalidInput)
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	reports := make([]*models.TableHealthReport, len(samples))
	sem := make(chan struct{}, concurrency)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for i, sample := range samples {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, sample TableSample) {
			defer wg.Done()
			defer func() { <-sem }()

			report, err := s.Score(sample.Meta, sample.Columns)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}
			reports[i] = report
		}(i, sample)
	}

	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}
	return reports, nil
}

// ceilDays returns the absolute distance between now and t in whole days,
// rounded up.
func ceilDays(now, t time.Time) int {
	hours := math.Abs(now.Sub(t).Hours())
	return int(math.Ceil(hours / 24))
}

// avgDuplicatePct derives a duplicate percentage per column from distinct
// counts and averages it across columns. Tables with no rows or no columns
// report 0.
func avgDuplicatePct(rowCount int64, columns []models.ColumnStat) float64 {
	if rowCount <= 0 || len(columns) == 0 {
		return 0
	}

	var sum float64
	for _, col := range columns {
		dup := float64(rowCount-col.DistinctCount) / float64(rowCount) * 100
		if dup < 0 {
			dup = 0
		}
		sum += dup
	}
	return sum / float64(len(columns))
}
