package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultConfigFileYAML)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeTempConfig(t, `
snowflake_dsn: user:pass@account/db
credit_unit_price: 2.5
min_cost_usd: 20
sample_tables: 50
exclude_tables:
  - staging.*
  - "  "
exclude_databases:
  - temp_db
format: TEXT
timeout: 10m
history_db: /tmp/history.db
`)

	fc, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if fc.SnowflakeEndpoint() != "user:pass@account/db" {
		t.Fatalf("unexpected endpoint %q", fc.SnowflakeEndpoint())
	}
	if fc.CreditUnitPrice == nil || *fc.CreditUnitPrice != 2.5 {
		t.Fatalf("unexpected credit unit price %v", fc.CreditUnitPrice)
	}
	if len(fc.ExcludeTables) != 1 || fc.ExcludeTables[0] != "staging.*" {
		t.Fatalf("expected blank entries stripped, got %v", fc.ExcludeTables)
	}
	if fc.Format != "text" {
		t.Fatalf("expected normalized format, got %q", fc.Format)
	}
}

func TestLoadFileErrors(t *testing.T) {
	cases := []struct {
		name    string
		path    string
		content string
	}{
		{name: "missing_file", path: filepath.Join(t.TempDir(), "nope.yaml")},
		{name: "empty_path", path: ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := LoadFile(tc.path); err == nil {
				t.Fatalf("expected error")
			}
		})
	}

	t.Run("invalid_yaml", func(t *testing.T) {
		path := writeTempConfig(t, "snowflake_dsn: [unclosed")
		if _, err := LoadFile(path); err == nil {
			t.Fatalf("expected parse error")
		}
	})
}

func TestApplyMergesIntoDefaults(t *testing.T) {
	price := 4.0
	samples := 100
	fc := &FileConfig{
		SnowflakeURL:    "account/db",
		CreditUnitPrice: &price,
		SampleTables:    &samples,
		ExcludeTables:   []string{"Staging.*"},
		Format:          "csv",
		QueryTimeout:    "2m",
		HistoryDB:       "runs.db",
	}
	fc.Normalize()

	cfg := DefaultConfig()
	if err := fc.Apply(cfg); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	if cfg.SnowflakeDSN != "account/db" {
		t.Fatalf("expected DSN from file, got %q", cfg.SnowflakeDSN)
	}
	if cfg.CreditUnitPrice != 4.0 || cfg.SampleTables != 100 {
		t.Fatalf("numeric overrides not applied: %+v", cfg)
	}
	if cfg.QueryTimeout != 2*time.Minute {
		t.Fatalf("expected 2m timeout, got %v", cfg.QueryTimeout)
	}
	if cfg.Format != "csv" || cfg.HistoryDBPath != "runs.db" {
		t.Fatalf("string overrides not applied: %+v", cfg)
	}
	if len(cfg.ExcludeTables) != 1 || cfg.ExcludeTables[0] != "staging.*" {
		t.Fatalf("expected normalized exclude patterns, got %v", cfg.ExcludeTables)
	}
}

func TestApplyDoesNotOverrideExplicitDSN(t *testing.T) {
	fc := &FileConfig{SnowflakeDSN: "from-file"}
	cfg := DefaultConfig()
	cfg.SnowflakeDSN = "from-flag"

	if err := fc.Apply(cfg); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if cfg.SnowflakeDSN != "from-flag" {
		t.Fatalf("flag value must win, got %q", cfg.SnowflakeDSN)
	}
}

func TestApplyRejectsBadTimeout(t *testing.T) {
	fc := &FileConfig{Timeout: "bogus"}
	if err := fc.Apply(DefaultConfig()); err == nil {
		t.Fatalf("expected error for bad timeout")
	}
}

func TestLoadFirstExistingFile(t *testing.T) {
	existing := writeTempConfig(t, "format: json\n")
	missing := filepath.Join(t.TempDir(), "absent.yaml")

	fc, path, err := LoadFirstExistingFile([]string{missing, existing})
	if err != nil {
		t.Fatalf("LoadFirstExistingFile failed: %v", err)
	}
	if fc == nil || path != existing {
		t.Fatalf("expected %q, got %q", existing, path)
	}

	fc, path, err = LoadFirstExistingFile([]string{missing})
	if err != nil || fc != nil || path != "" {
		t.Fatalf("expected nil result for missing files, got %v %q %v", fc, path, err)
	}
}
