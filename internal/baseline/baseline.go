package baseline

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ppiankov/snowspectre/internal/models"
)

const (
	// DefaultPath is the baseline location when --update-baseline runs
	// without an explicit --baseline path.
	DefaultPath = ".snowspectre-baseline.json"
	fileVersion = 1
)

// Set holds the fingerprints of previously accepted findings.
type Set map[string]struct{}

func (s Set) add(fingerprint string) {
	if fingerprint != "" {
		s[fingerprint] = struct{}{}
	}
}

func (s Set) has(fingerprint string) bool {
	_, ok := s[fingerprint]
	return ok
}

// File is the on-disk baseline format.
type File struct {
	Version      int      `json:"version"`
	Fingerprints []string `json:"fingerprints"`
}

// Load reads a baseline file. A missing file is not an error; it yields
// an empty set.
func Load(path string) (Set, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("baseline path is empty")
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return Set{}, nil
	case err != nil:
		return nil, fmt.Errorf("read baseline file: %w", err)
	}

	var file File
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse baseline file: %w", err)
	}
	if file.Version != 0 && file.Version != fileVersion {
		return nil, fmt.Errorf("unsupported baseline version: %d", file.Version)
	}

	set := make(Set, len(file.Fingerprints))
	for _, fp := range file.Fingerprints {
		set.add(fp)
	}
	return set, nil
}

// Save writes the set as a sorted, versioned baseline file, creating
// parent directories as needed.
func Save(path string, set Set) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("baseline path is empty")
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create baseline directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(File{Version: fileVersion, Fingerprints: Sorted(set)}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal baseline file: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write baseline file: %w", err)
	}
	return nil
}

// AddAll inserts fingerprints into the target set, skipping empties.
func AddAll(target Set, fingerprints []string) {
	for _, fp := range fingerprints {
		target.add(fp)
	}
}

// Sorted returns the set's fingerprints in lexical order.
func Sorted(set Set) []string {
	out := make([]string, 0, len(set))
	for fp := range set {
		out = append(out, fp)
	}
	sort.Strings(out)
	return out
}

// CountFindings counts the report items that gate the findings exit
// code: anomalies, cost recommendations, and table quality issues.
func CountFindings(report *models.Report) int {
	if report == nil {
		return 0
	}

	count := len(report.Anomalies)
	for i := range report.CostEstimates {
		if report.CostEstimates[i].HasRecommendation() {
			count++
		}
	}
	for _, table := range report.TableReports {
		count += len(table.Issues)
	}
	return count
}

// CollectFingerprints returns sorted fingerprints for every current
// finding in the report.
func CollectFingerprints(report *models.Report) []string {
	set := Set{}
	if report == nil {
		return []string{}
	}

	for _, anomaly := range report.Anomalies {
		set.add(FingerprintAnomaly(anomaly))
	}
	for i := range report.CostEstimates {
		if est := &report.CostEstimates[i]; est.HasRecommendation() {
			set.add(FingerprintCostEstimate(est))
		}
	}
	for _, table := range report.TableReports {
		for _, issue := range table.Issues {
			set.add(FingerprintQualityIssue(table.TableName, issue))
		}
	}
	return Sorted(set)
}

// SuppressKnown strips findings whose fingerprints appear in known.
// A suppressed cost estimate keeps its measured usage but loses the
// recommendation; a suppressed quality issue is dropped without
// rescoring the table.
func SuppressKnown(report *models.Report, known Set) (suppressed int, remaining int) {
	if report == nil || len(known) == 0 {
		return 0, CountFindings(report)
	}

	kept := report.Anomalies[:0]
	for _, anomaly := range report.Anomalies {
		if known.has(FingerprintAnomaly(anomaly)) {
			suppressed++
			continue
		}
		kept = append(kept, anomaly)
	}
	report.Anomalies = kept

	for i := range report.CostEstimates {
		est := &report.CostEstimates[i]
		if est.HasRecommendation() && known.has(FingerprintCostEstimate(est)) {
			est.Rationale = ""
			est.RecommendedTier = nil
			est.RecommendedCostUSD = est.CurrentCostUSD
			est.SavingsUSD = 0
			est.SavingsPercent = 0
			suppressed++
		}
	}

	// TopRecommendations holds copies, so filter by the same fingerprints.
	keptTop := report.TopRecommendations[:0]
	for i := range report.TopRecommendations {
		if known.has(FingerprintCostEstimate(&report.TopRecommendations[i])) {
			continue
		}
		keptTop = append(keptTop, report.TopRecommendations[i])
	}
	report.TopRecommendations = keptTop

	for i := range report.TableReports {
		table := &report.TableReports[i]
		keptIssues := table.Issues[:0]
		for _, issue := range table.Issues {
			if known.has(FingerprintQualityIssue(table.TableName, issue)) {
				suppressed++
				continue
			}
			keptIssues = append(keptIssues, issue)
		}
		table.Issues = keptIssues
	}

	return suppressed, CountFindings(report)
}

// FingerprintAnomaly identifies an anomaly by type, severity, and
// affected object. Detection timestamps are not part of the identity.
func FingerprintAnomaly(anomaly models.Anomaly) string {
	return hash("anomaly", anomaly.Type, anomaly.Severity, anomaly.AffectedObject)
}

// FingerprintCostEstimate identifies a recommendation by warehouse,
// tier transition, and rationale, not by the measured dollar amounts.
func FingerprintCostEstimate(est *models.CostEstimate) string {
	recommendedTier := ""
	if est.RecommendedTier != nil {
		recommendedTier = est.RecommendedTier.Name
	}
	return hash("cost", est.WarehouseName, est.CurrentTier.Name, recommendedTier, est.Rationale)
}

// FingerprintQualityIssue identifies a quality issue by table and kind.
func FingerprintQualityIssue(tableName string, issue models.QualityIssue) string {
	return hash("quality", tableName, string(issue.Kind))
}

func hash(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return hex.EncodeToString(sum[:])
}
