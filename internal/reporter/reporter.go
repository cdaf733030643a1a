package reporter

import (
	"fmt"
	"strings"

	"github.com/ppiankov/snowspectre/internal/models"
	"github.com/ppiankov/snowspectre/pkg/config"
)

// Reporter interface for generating reports
type Reporter interface {
	Generate(report *models.Report) error
}

// reporter implements the Reporter interface
type reporter struct {
	config *config.Config
}

// New creates a new reporter instance
func New(cfg *config.Config) Reporter {
	return &reporter{
		config: cfg,
	}
}

// Generate writes the report in the configured format. The JSON artifact is
// always written so downstream tooling has a stable machine-readable copy.
func (r *reporter) Generate(report *models.Report) error {
	if err := WriteJSON(report, r.config); err != nil {
		return err
	}

	switch strings.ToLower(strings.TrimSpace(r.config.Format)) {
	case "", "json":
		return nil
	case "text":
		return WriteText(report, r.config)
	case "csv":
		return WriteCSV(report, r.config)
	case "sarif":
		return WriteSARIF(report, r.config)
	default:
		return fmt.Errorf("unsupported report format: %s", r.config.Format)
	}
}
