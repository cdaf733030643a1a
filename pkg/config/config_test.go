package config

import (
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	cases := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{name: "QueryTimeout", got: cfg.QueryTimeout, want: 5 * time.Minute},
		{name: "BatchSize", got: cfg.BatchSize, want: 10000},
		{name: "MaxRows", got: cfg.MaxRows, want: 200000},
		{name: "LookbackPeriod", got: cfg.LookbackPeriod, want: 30 * 24 * time.Hour},
		{name: "CreditUnitPrice", got: cfg.CreditUnitPrice, want: 3.0},
		{name: "MinCostUSD", got: cfg.MinCostUSD, want: 10.0},
		{name: "TopRecommendations", got: cfg.TopRecommendations, want: 5},
		{name: "SampleTables", got: cfg.SampleTables, want: 20},
		{name: "ExcludeTables", got: len(cfg.ExcludeTables), want: 0},
		{name: "ExcludeDatabases", got: len(cfg.ExcludeDatabases), want: 0},
		{name: "Concurrency", got: cfg.Concurrency, want: 5},
		{name: "ProfileRateLimit", got: cfg.ProfileRateLimit, want: 5},
		{name: "MetadataCacheTTL", got: cfg.MetadataCacheTTL, want: 5 * time.Minute},
		{name: "OutputDir", got: cfg.OutputDir, want: "./report"},
		{name: "Format", got: cfg.Format, want: "json"},
		{name: "BaselinePath", got: cfg.BaselinePath, want: ""},
		{name: "UpdateBaseline", got: cfg.UpdateBaseline, want: false},
		{name: "StoreHistory", got: cfg.StoreHistory, want: false},
		{name: "HistoryDBPath", got: cfg.HistoryDBPath, want: ".snowspectre-history.db"},
		{name: "ServerPort", got: cfg.ServerPort, want: 8080},
		{name: "Verbose", got: cfg.Verbose, want: false},
		{name: "DryRun", got: cfg.DryRun, want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, tc.got)
			}
		})
	}
}

func TestPeriodDays(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.PeriodDays(); got != 30 {
		t.Fatalf("expected 30 days, got %d", got)
	}

	cfg.LookbackPeriod = 36 * time.Hour
	if got := cfg.PeriodDays(); got != 1 {
		t.Fatalf("expected 1 day for 36h, got %d", got)
	}
}

func TestParseDuration(t *testing.T) {
	cases := []struct {
		name    string
		input   string
		want    time.Duration
		wantErr bool
	}{
		{name: "seconds", input: "30s", want: 30 * time.Second},
		{name: "minutes", input: "5m", want: 5 * time.Minute},
		{name: "hours", input: "2h", want: 2 * time.Hour},
		{name: "days", input: "7d", want: 7 * 24 * time.Hour},
		{name: "fallback_go_duration", input: "1.5h", want: time.Duration(1.5 * float64(time.Hour))},
		{name: "invalid", input: "bad", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseDuration(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tc.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDuration(%q) failed: %v", tc.input, err)
			}
			if got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestIsTableExcluded(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ExcludeTables = []string{"staging.*", "scratch_table"}
	cfg.ExcludeDatabases = []string{"temp_db"}
	cfg.Normalize()

	cases := []struct {
		name  string
		table string
		want  bool
	}{
		{name: "glob_match", table: "staging.events", want: true},
		{name: "bare_table_match", table: "analytics.scratch_table", want: true},
		{name: "database_match", table: "temp_db.anything", want: true},
		{name: "case_insensitive", table: "TEMP_DB.Other", want: true},
		{name: "no_match", table: "analytics.orders", want: false},
		{name: "empty", table: "", want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := cfg.IsTableExcluded(tc.table); got != tc.want {
				t.Fatalf("IsTableExcluded(%q) = %v, want %v", tc.table, got, tc.want)
			}
		})
	}
}
