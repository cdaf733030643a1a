package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigFileYAML is the canonical config filename.
	DefaultConfigFileYAML = ".snowspectre.yaml"
	// DefaultConfigFileYML is a compatible alternate config filename.
	DefaultConfigFileYML = ".snowspectre.yml"
)

// FileConfig represents values loaded from a .snowspectre.yaml file.
type FileConfig struct {
	SnowflakeDSN     string   `yaml:"snowflake_dsn"`
	SnowflakeURL     string   `yaml:"snowflake_url"`
	CreditUnitPrice  *float64 `yaml:"credit_unit_price"`
	MinCostUSD       *float64 `yaml:"min_cost_usd"`
	SampleTables     *int     `yaml:"sample_tables"`
	ExcludeTables    []string `yaml:"exclude_tables"`
	ExcludeDatabases []string `yaml:"exclude_databases"`
	Format           string   `yaml:"format"`
	Timeout          string   `yaml:"timeout"`
	QueryTimeout     string   `yaml:"query_timeout"`
	HistoryDB        string   `yaml:"history_db"`
}

// SnowflakeEndpoint returns the first configured Snowflake endpoint.
func (fc *FileConfig) SnowflakeEndpoint() string {
	if fc == nil {
		return ""
	}
	if dsn := strings.TrimSpace(fc.SnowflakeDSN); dsn != "" {
		return dsn
	}
	return strings.TrimSpace(fc.SnowflakeURL)
}

// QueryTimeoutValue returns timeout from timeout/query_timeout fields.
func (fc *FileConfig) QueryTimeoutValue() string {
	if fc == nil {
		return ""
	}
	if timeout := strings.TrimSpace(fc.Timeout); timeout != "" {
		return timeout
	}
	return strings.TrimSpace(fc.QueryTimeout)
}

// Normalize trims and removes empty items from list fields.
func (fc *FileConfig) Normalize() {
	if fc == nil {
		return
	}
	fc.ExcludeTables = normalizeList(fc.ExcludeTables)
	fc.ExcludeDatabases = normalizeList(fc.ExcludeDatabases)
	fc.Format = strings.TrimSpace(strings.ToLower(fc.Format))
}

// Apply merges file values into cfg. Flags already set by the caller win, so
// Apply only fills fields that still hold their zero/default value.
func (fc *FileConfig) Apply(cfg *Config) error {
	if fc == nil || cfg == nil {
		return nil
	}

	if cfg.SnowflakeDSN == "" {
		cfg.SnowflakeDSN = fc.SnowflakeEndpoint()
	}
	if fc.CreditUnitPrice != nil && *fc.CreditUnitPrice > 0 {
		cfg.CreditUnitPrice = *fc.CreditUnitPrice
	}
	if fc.MinCostUSD != nil && *fc.MinCostUSD >= 0 {
		cfg.MinCostUSD = *fc.MinCostUSD
	}
	if fc.SampleTables != nil && *fc.SampleTables > 0 {
		cfg.SampleTables = *fc.SampleTables
	}
	if len(fc.ExcludeTables) > 0 {
		cfg.ExcludeTables = append(cfg.ExcludeTables, fc.ExcludeTables...)
	}
	if len(fc.ExcludeDatabases) > 0 {
		cfg.ExcludeDatabases = append(cfg.ExcludeDatabases, fc.ExcludeDatabases...)
	}
	if fc.Format != "" {
		cfg.Format = fc.Format
	}
	if fc.HistoryDB != "" {
		cfg.HistoryDBPath = fc.HistoryDB
	}
	if timeout := fc.QueryTimeoutValue(); timeout != "" {
		parsed, err := ParseDuration(timeout)
		if err != nil {
			return fmt.Errorf("invalid timeout in config file: %w", err)
		}
		cfg.QueryTimeout = parsed
	}

	cfg.Normalize()
	return nil
}

// LoadDefault looks for a config file in the working directory, then the
// user's home directory. A missing file is not an error.
func LoadDefault() (*FileConfig, string, error) {
	candidates := []string{
		DefaultConfigFileYAML,
		DefaultConfigFileYML,
	}

	if home, err := os.UserHomeDir(); err == nil && home != "" {
		candidates = append(candidates,
			filepath.Join(home, DefaultConfigFileYAML),
			filepath.Join(home, DefaultConfigFileYML),
		)
	}

	return LoadFirstExistingFile(candidates)
}

// LoadFirstExistingFile loads the first config file that exists in paths.
func LoadFirstExistingFile(paths []string) (*FileConfig, string, error) {
	for _, path := range paths {
		candidate := strings.TrimSpace(path)
		if candidate == "" {
			continue
		}

		info, err := os.Stat(candidate)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, "", fmt.Errorf("failed to access config file %q: %w", candidate, err)
		}
		if info.IsDir() {
			return nil, "", fmt.Errorf("config path %q is a directory, expected a file", candidate)
		}

		cfg, err := LoadFile(candidate)
		if err != nil {
			return nil, "", err
		}
		return cfg, candidate, nil
	}

	return nil, "", nil
}

// LoadFile loads config values from a specific YAML file path.
func LoadFile(path string) (*FileConfig, error) {
	filename := strings.TrimSpace(path)
	if filename == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", filename, err)
	}

	cfg := &FileConfig{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %q: %w", filename, err)
	}

	cfg.Normalize()
	return cfg, nil
}

func normalizeList(values []string) []string {
	if len(values) == 0 {
		return []string{}
	}

	normalized := make([]string, 0, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		normalized = append(normalized, trimmed)
	}
	return normalized
}
