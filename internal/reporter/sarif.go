package reporter

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/ppiankov/snowspectre/internal/models"
	"github.com/ppiankov/snowspectre/pkg/config"
)

const (
	ruleOversizedWarehouse = "snowspectre/OVERSIZED_WAREHOUSE"
	ruleIdleWarehouse      = "snowspectre/IDLE_WAREHOUSE"
	ruleTableHealth        = "snowspectre/TABLE_HEALTH"
	ruleAnomaly            = "snowspectre/ANOMALY"

	ruleIndexOversized   = 0
	ruleIndexIdle        = 1
	ruleIndexTableHealth = 2
	ruleIndexAnomaly     = 3

	sarifFallbackLocationURI = "README.md"
	sarifSchemaURI           = "https://docs.oasis-open.org/sarif/sarif/v2.1.0/cs01/schemas/sarif-schema-2.1.0.json"

	unhealthyScoreThreshold = 70
)

var semanticVersionPattern = regexp.MustCompile(`^(0|[1-9]\d*)\.(0|[1-9]\d*)\.(0|[1-9]\d*)(?:-[0-9A-Za-z.-]+)?(?:\+[0-9A-Za-z.-]+)?$`)

type sarifLog struct {
	Version string     `json:"version"`
	Schema  string     `json:"$schema"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool              sarifTool               `json:"tool"`
	Results           []sarifResult           `json:"results"`
	AutomationDetails *sarifAutomationDetails `json:"automationDetails,omitempty"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifAutomationDetails struct {
	ID string `json:"id"`
}

type sarifDriver struct {
	Name            string       `json:"name"`
	Version         string       `json:"version,omitempty"`
	InformationURI  string       `json:"informationUri,omitempty"`
	ShortDesc       sarifMessage `json:"shortDescription"`
	FullDesc        sarifMessage `json:"fullDescription"`
	Rules           []sarifRule  `json:"rules"`
	SemanticVersion string       `json:"semanticVersion,omitempty"`
}

type sarifRule struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	ShortDesc     sarifMessage `json:"shortDescription"`
	FullDesc      sarifMessage `json:"fullDescription"`
	DefaultConfig sarifConfig  `json:"defaultConfiguration"`
}

type sarifConfig struct {
	Level string `json:"level"`
}

type sarifResult struct {
	RuleID              string            `json:"ruleId"`
	RuleIndex           *int              `json:"ruleIndex,omitempty"`
	Level               string            `json:"level,omitempty"`
	Message             sarifMessage      `json:"message"`
	Locations           []sarifLocation   `json:"locations,omitempty"`
	PartialFingerprints map[string]string `json:"partialFingerprints,omitempty"`
	Properties          map[string]any    `json:"properties,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation  `json:"physicalLocation,omitempty"`
	LogicalLocations []sarifLogicalLocation `json:"logicalLocations,omitempty"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           *sarifRegion          `json:"region,omitempty"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine int `json:"startLine,omitempty"`
}

type sarifLogicalLocation struct {
	Name               string `json:"name,omitempty"`
	FullyQualifiedName string `json:"fullyQualifiedName,omitempty"`
	Kind               string `json:"kind,omitempty"`
}

// WriteSARIF writes SARIF 2.1.0 output to report.sarif.
func WriteSARIF(report *models.Report, cfg *config.Config) error {
	if report == nil {
		return fmt.Errorf("report is nil")
	}
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	reportVersion := report.Version
	if reportVersion == "" {
		reportVersion = report.Metadata.Version
	}

	output := sarifLog{
		Version: "2.1.0",
		Schema:  sarifSchemaURI,
		Runs: []sarifRun{
			{
				Tool: sarifTool{
					Driver: sarifDriver{
						Name:            "snowspectre",
						Version:         reportVersion,
						SemanticVersion: normalizeSemanticVersion(reportVersion),
						InformationURI:  "https://github.com/ppiankov/snowspectre",
						ShortDesc: sarifMessage{
							Text: "Warehouse cost and data quality analyzer",
						},
						FullDesc: sarifMessage{
							Text: "Detects oversized and idle warehouses and unhealthy tables from account usage history.",
						},
						Rules: []sarifRule{
							{
								ID:        ruleOversizedWarehouse,
								Name:      "OVERSIZED_WAREHOUSE",
								ShortDesc: sarifMessage{Text: "Warehouse is larger than its workload needs"},
								FullDesc:  sarifMessage{Text: "Observed query volume and runtimes suggest a smaller size tier would handle the workload."},
								DefaultConfig: sarifConfig{
									Level: "warning",
								},
							},
							{
								ID:        ruleIdleWarehouse,
								Name:      "IDLE_WAREHOUSE",
								ShortDesc: sarifMessage{Text: "Warehouse is mostly idle"},
								FullDesc:  sarifMessage{Text: "The warehouse ran few queries in the lookback period and likely burns credits while idle."},
								DefaultConfig: sarifConfig{
									Level: "note",
								},
							},
							{
								ID:        ruleTableHealth,
								Name:      "TABLE_HEALTH",
								ShortDesc: sarifMessage{Text: "Table has data quality issues"},
								FullDesc:  sarifMessage{Text: "Null rates, staleness, or emptiness lowered the table's health score."},
								DefaultConfig: sarifConfig{
									Level: "warning",
								},
							},
							{
								ID:        ruleAnomaly,
								Name:      "ANOMALY",
								ShortDesc: sarifMessage{Text: "Unusual usage pattern detected"},
								FullDesc:  sarifMessage{Text: "An anomaly was detected in account usage and should be investigated."},
								DefaultConfig: sarifConfig{
									Level: "warning",
								},
							},
						},
					},
				},
				Results: buildSARIFResults(report),
				AutomationDetails: &sarifAutomationDetails{
					ID: "snowspectre/analyze",
				},
			},
		},
	}

	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal SARIF: %w", err)
	}

	outputPath := filepath.Join(cfg.OutputDir, "report.sarif")
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write report.sarif: %w", err)
	}

	return nil
}

func buildSARIFResults(report *models.Report) []sarifResult {
	results := make([]sarifResult, 0)
	if report == nil {
		return results
	}

	for _, est := range report.CostEstimates {
		if !est.HasRecommendation() {
			continue
		}

		ruleID := ruleIdleWarehouse
		ruleIndex := ruleIndexIdle
		level := "note"
		if est.RecommendedTier != nil {
			ruleID = ruleOversizedWarehouse
			ruleIndex = ruleIndexOversized
			level = "warning"
		}

		fingerprint := hashFinding("cost", est.WarehouseName, est.Rationale)
		results = append(results, sarifResult{
			RuleID:    ruleID,
			RuleIndex: ruleIndexPtr(ruleIndex),
			Level:     level,
			Message: sarifMessage{Text: fmt.Sprintf("Warehouse %q: %s (saves $%.2f over %d days).",
				est.WarehouseName, est.Rationale, est.SavingsUSD, est.PeriodDays)},
			Locations: warehouseLocation(est.WarehouseName),
			PartialFingerprints: map[string]string{
				"snowspectre/findingHash": fingerprint,
			},
			Properties: map[string]any{
				"category":        "cost",
				"warehouse":       est.WarehouseName,
				"current_tier":    est.CurrentTier.Name,
				"savings_usd":     est.SavingsUSD,
				"savings_percent": est.SavingsPercent,
			},
		})
	}

	for _, table := range report.TableReports {
		if len(table.Issues) == 0 && table.HealthScore >= unhealthyScoreThreshold {
			continue
		}

		level := "note"
		if table.HealthScore < unhealthyScoreThreshold {
			level = "warning"
		}
		if table.HealthScore < 50 {
			level = "error"
		}

		issueKinds := make([]string, 0, len(table.Issues))
		for _, issue := range table.Issues {
			issueKinds = append(issueKinds, string(issue.Kind))
		}

		fingerprint := hashFinding("quality", table.TableName, strconv.Itoa(table.HealthScore), strings.Join(issueKinds, ","))
		results = append(results, sarifResult{
			RuleID:    ruleTableHealth,
			RuleIndex: ruleIndexPtr(ruleIndexTableHealth),
			Level:     level,
			Message: sarifMessage{Text: fmt.Sprintf("Table %q scored %d/100 (%d issue(s)).",
				table.TableName, table.HealthScore, len(table.Issues))},
			Locations: tableLocation(table.TableName),
			PartialFingerprints: map[string]string{
				"snowspectre/findingHash": fingerprint,
			},
			Properties: map[string]any{
				"category": "quality",
				"table":    table.TableName,
				"score":    table.HealthScore,
				"issues":   issueKinds,
			},
		})
	}

	for _, anomaly := range report.Anomalies {
		message := anomaly.Description
		if message == "" {
			message = "Anomalous usage detected."
		}
		severity := normalizeSeverity(anomaly.Severity)
		fingerprint := hashFinding("anomaly", anomaly.Type, severity, anomaly.AffectedObject, message)

		results = append(results, sarifResult{
			RuleID:    ruleAnomaly,
			RuleIndex: ruleIndexPtr(ruleIndexAnomaly),
			Level:     mapSeverityToSARIFLevel(severity),
			Message:   sarifMessage{Text: message},
			Locations: anomalyLocation(anomaly),
			PartialFingerprints: map[string]string{
				"snowspectre/findingHash": fingerprint,
			},
			Properties: map[string]any{
				"category":        "anomaly",
				"type":            anomaly.Type,
				"severity":        severity,
				"affected_object": anomaly.AffectedObject,
			},
		})
	}

	return results
}

func tableLocation(tableName string) []sarifLocation {
	normalized := strings.TrimSpace(tableName)
	if normalized == "" {
		normalized = "unknown_table"
	}

	name := normalized
	if idx := strings.LastIndex(normalized, "."); idx >= 0 {
		name = normalized[idx+1:]
	}

	return []sarifLocation{
		{
			PhysicalLocation: sarifPhysicalLocation{
				ArtifactLocation: sarifArtifactLocation{URI: sarifFallbackLocationURI},
				Region: &sarifRegion{
					StartLine: 1,
				},
			},
			LogicalLocations: []sarifLogicalLocation{
				{
					Name:               name,
					FullyQualifiedName: normalized,
					Kind:               "table",
				},
			},
		},
	}
}

func warehouseLocation(name string) []sarifLocation {
	normalized := strings.TrimSpace(name)
	if normalized == "" {
		normalized = "unknown_warehouse"
	}

	return []sarifLocation{
		{
			PhysicalLocation: sarifPhysicalLocation{
				ArtifactLocation: sarifArtifactLocation{URI: sarifFallbackLocationURI},
				Region: &sarifRegion{
					StartLine: 1,
				},
			},
			LogicalLocations: []sarifLogicalLocation{
				{
					Name:               normalized,
					FullyQualifiedName: normalized,
					Kind:               "warehouse",
				},
			},
		},
	}
}

func anomalyLocation(anomaly models.Anomaly) []sarifLocation {
	object := strings.TrimSpace(anomaly.AffectedObject)
	if object == "" {
		return []sarifLocation{
			{
				PhysicalLocation: sarifPhysicalLocation{
					ArtifactLocation: sarifArtifactLocation{URI: sarifFallbackLocationURI},
					Region: &sarifRegion{
						StartLine: 1,
					},
				},
				LogicalLocations: []sarifLogicalLocation{
					{
						Name:               "anomaly",
						FullyQualifiedName: "snowspectre.anomaly",
						Kind:               "finding",
					},
				},
			},
		}
	}

	if strings.Contains(object, ".") {
		return tableLocation(object)
	}
	return warehouseLocation(object)
}

func normalizeSeverity(severity string) string {
	normalized := strings.ToLower(strings.TrimSpace(severity))
	if normalized == "" {
		return "medium"
	}
	return normalized
}

func mapSeverityToSARIFLevel(severity string) string {
	switch severity {
	case "high":
		return "error"
	case "low":
		return "note"
	default:
		return "warning"
	}
}

func normalizeSemanticVersion(version string) string {
	normalized := strings.TrimSpace(strings.TrimPrefix(version, "v"))
	if semanticVersionPattern.MatchString(normalized) {
		return normalized
	}
	return ""
}

func hashFinding(parts ...string) string {
	canonical := strings.Join(parts, "\x1f")
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}

func ruleIndexPtr(index int) *int {
	value := index
	return &value
}
