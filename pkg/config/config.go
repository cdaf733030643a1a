package config

import "time"

// Config holds all runtime configuration
type Config struct {
	// Snowflake settings
	SnowflakeDSN   string
	QueryTimeout   time.Duration
	BatchSize      int
	MaxRows        int
	LookbackPeriod time.Duration

	// Cost settings
	CreditUnitPrice    float64
	MinCostUSD         float64
	TopRecommendations int

	// Quality scan settings
	SampleTables     int
	ExcludeTables    []string
	ExcludeDatabases []string

	// Concurrency settings
	Concurrency      int
	ProfileRateLimit int
	MetadataCacheTTL time.Duration

	// Output settings
	OutputDir string
	Format    string

	// Baseline settings
	BaselinePath   string
	UpdateBaseline bool

	// History settings
	StoreHistory  bool
	HistoryDBPath string

	// Server settings
	ServerPort int

	// Operational flags
	Verbose bool
	DryRun  bool
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		QueryTimeout:       5 * time.Minute,
		BatchSize:          10000,
		MaxRows:            200000,
		LookbackPeriod:     30 * 24 * time.Hour, // 30 days
		CreditUnitPrice:    3.0,
		MinCostUSD:         10.0,
		TopRecommendations: 5,
		SampleTables:       20,
		ExcludeTables:      []string{},
		ExcludeDatabases:   []string{},
		Concurrency:        5,
		ProfileRateLimit:   5,
		MetadataCacheTTL:   5 * time.Minute,
		OutputDir:          "./report",
		Format:             "json",
		BaselinePath:       "",
		UpdateBaseline:     false,
		StoreHistory:       false,
		HistoryDBPath:      ".snowspectre-history.db",
		ServerPort:         8080,
		Verbose:            false,
		DryRun:             false,
	}
}

// PeriodDays returns the lookback period in whole days.
func (c *Config) PeriodDays() int {
	return int(c.LookbackPeriod.Hours() / 24)
}
