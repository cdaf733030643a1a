package main

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	sf "github.com/snowflakedb/gosnowflake"
	"github.com/spf13/cobra"

	"github.com/ppiankov/snowspectre/internal/advisor"
	"github.com/ppiankov/snowspectre/internal/analyzer"
	"github.com/ppiankov/snowspectre/internal/baseline"
	"github.com/ppiankov/snowspectre/internal/models"
	"github.com/ppiankov/snowspectre/internal/quality"
	"github.com/ppiankov/snowspectre/internal/reporter"
	"github.com/ppiankov/snowspectre/internal/storage/sqlite"
	"github.com/ppiankov/snowspectre/internal/tiers"
	"github.com/ppiankov/snowspectre/internal/warehouse"
	"github.com/ppiankov/snowspectre/pkg/config"
)

// NewAnalyzeCmd creates the analyze command
func NewAnalyzeCmd() *cobra.Command {
	cfg := config.DefaultConfig()

	// String variables for custom duration parsing
	var lookbackStr string
	var queryTimeoutStr string
	var cacheTTLStr string
	var failOnFindings bool

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze warehouse usage and generate report",
		Long: `Analyze query and metering history to build per-warehouse usage
profiles, recommend size changes, and score table data quality.`,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			fileCfg, _, err := config.LoadDefault()
			if err != nil {
				return err
			}
			if fileCfg != nil {
				if err := fileCfg.Apply(cfg); err != nil {
					return err
				}
			}

			if lookbackStr != "" {
				cfg.LookbackPeriod, err = config.ParseDuration(lookbackStr)
				if err != nil {
					return fmt.Errorf("invalid --lookback duration: %w", err)
				}
			}
			if queryTimeoutStr != "" {
				cfg.QueryTimeout, err = config.ParseDuration(queryTimeoutStr)
				if err != nil {
					return fmt.Errorf("invalid --query-timeout duration: %w", err)
				}
			}
			if cacheTTLStr != "" {
				cfg.MetadataCacheTTL, err = config.ParseDuration(cacheTTLStr)
				if err != nil {
					return fmt.Errorf("invalid --cache-ttl duration: %w", err)
				}
			}

			switch cfg.Format {
			case "json", "text", "csv", "sarif":
			default:
				return fmt.Errorf("invalid --format value: %s", cfg.Format)
			}

			if cfg.SnowflakeDSN == "" {
				return fmt.Errorf("--dsn is required (flag or config file)")
			}

			cfg.Normalize()
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cfg, failOnFindings)
		},
	}

	// Connection flags
	cmd.Flags().StringVar(&cfg.SnowflakeDSN, "dsn", "", "Snowflake DSN (user:pass@account/db)")
	cmd.Flags().StringVar(&queryTimeoutStr, "query-timeout", "", "Query timeout (e.g., 5m, 10m, 1h)")
	cmd.Flags().IntVar(&cfg.BatchSize, "batch-size", cfg.BatchSize, "Query history batch size")
	cmd.Flags().IntVar(&cfg.MaxRows, "max-rows", cfg.MaxRows, "Max query history rows to process")
	cmd.Flags().StringVar(&lookbackStr, "lookback", "", "Lookback period (e.g., 7d, 30d, 90d, 720h)")

	// Cost flags
	cmd.Flags().Float64Var(&cfg.CreditUnitPrice, "credit-price", cfg.CreditUnitPrice, "Price of one credit in USD")
	cmd.Flags().Float64Var(&cfg.MinCostUSD, "min-cost", cfg.MinCostUSD, "Ignore warehouses cheaper than this in rankings")
	cmd.Flags().IntVar(&cfg.TopRecommendations, "top", cfg.TopRecommendations, "Number of top recommendations to keep")

	// Quality flags
	cmd.Flags().IntVar(&cfg.SampleTables, "sample-tables", cfg.SampleTables, "Number of largest tables to profile")
	cmd.Flags().StringSliceVar(&cfg.ExcludeTables, "exclude-tables", nil, "Table patterns to skip (glob)")
	cmd.Flags().StringSliceVar(&cfg.ExcludeDatabases, "exclude-databases", nil, "Database patterns to skip (glob)")
	cmd.Flags().IntVar(&cfg.ProfileRateLimit, "profile-rate-limit", cfg.ProfileRateLimit, "Profiling queries per second")
	cmd.Flags().StringVar(&cacheTTLStr, "cache-ttl", "", "Metadata cache TTL (e.g., 5m, 1h)")

	// Concurrency flags
	cmd.Flags().IntVar(&cfg.Concurrency, "concurrency", cfg.Concurrency, "Worker pool size")

	// Output flags
	cmd.Flags().StringVar(&cfg.OutputDir, "output", cfg.OutputDir, "Output directory")
	cmd.Flags().StringVar(&cfg.Format, "format", cfg.Format, "Output format (json, text, csv, sarif)")

	// Baseline flags
	cmd.Flags().StringVar(&cfg.BaselinePath, "baseline", "", "Baseline file for suppressing known findings")
	cmd.Flags().BoolVar(&cfg.UpdateBaseline, "update-baseline", false, "Record current findings into the baseline")
	cmd.Flags().BoolVar(&failOnFindings, "fail-on-findings", false, "Exit non-zero when findings remain")

	// History flags
	cmd.Flags().BoolVar(&cfg.StoreHistory, "store-history", false, "Store the run in the local history database")
	cmd.Flags().StringVar(&cfg.HistoryDBPath, "history-db", cfg.HistoryDBPath, "History database path")

	// Operational flags
	cmd.Flags().BoolVar(&cfg.Verbose, "verbose", false, "Verbose logging")
	cmd.Flags().BoolVar(&cfg.DryRun, "dry-run", false, "Dry run mode (don't write output)")

	return cmd
}

// runAnalyze executes the analysis workflow
func runAnalyze(cfg *config.Config, failOnFindings bool) error {
	startTime := time.Now()
	ctx := context.Background()

	fmt.Println("🔌 Connecting to Snowflake...")
	col, err := warehouse.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create collector: %w", err)
	}
	defer col.Close()

	fmt.Println("🏭 Listing warehouses...")
	warehouses, err := col.CollectWarehouses(ctx)
	if err != nil {
		return fmt.Errorf("failed to list warehouses: %w", err)
	}

	fmt.Println("📊 Collecting usage history...")
	fetchCtx := ctx
	if cfg.QueryTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, cfg.QueryTimeout)
		defer cancel()
	}
	queries, metering, err := col.CollectUsage(fetchCtx)
	if err != nil {
		return fmt.Errorf("failed to collect usage history: %w", err)
	}
	fmt.Printf("✓ Collected %d query records, %d metering rows\n", len(queries), len(metering))

	fmt.Println("🔍 Analyzing usage...")
	an := analyzer.New(cfg)
	if err := an.Analyze(queries, metering); err != nil {
		return fmt.Errorf("failed to analyze usage: %w", err)
	}
	fmt.Printf("✓ Analyzed %d warehouses, %d tables\n", len(an.UsageWindows()), len(an.Tables()))

	fmt.Println("💰 Estimating costs...")
	estimates := buildEstimates(cfg, warehouses, an)
	top := advisor.RankFleet(estimatePtrs(estimates), cfg.MinCostUSD, cfg.TopRecommendations)
	fmt.Printf("✓ %d warehouses estimated, %d recommendations\n", len(estimates), len(top))

	fmt.Println("🧪 Profiling tables...")
	tableReports, err := profileAndScore(ctx, cfg, col)
	if err != nil {
		return fmt.Errorf("failed to score tables: %w", err)
	}
	fmt.Printf("✓ Scored %d tables\n", len(tableReports))

	var fleet *models.FleetQualityReport
	if len(tableReports) > 0 {
		fleet = quality.Aggregate(tableReports)
	}

	report := buildReport(cfg, queries, estimates, top, tableReports, fleet, an, startTime)

	if err := applyBaseline(cfg, report); err != nil {
		return err
	}

	if !cfg.DryRun {
		fmt.Println("📝 Writing report...")
		rep := reporter.New(cfg)
		if err := rep.Generate(report); err != nil {
			return fmt.Errorf("failed to generate report: %w", err)
		}
		fmt.Printf("✓ Report written to: %s\n", cfg.OutputDir)
	} else {
		fmt.Println("🏃 Dry run mode - skipping output")
	}

	if cfg.StoreHistory && !cfg.DryRun {
		store, err := sqlite.NewStore(cfg.HistoryDBPath)
		if err != nil {
			return fmt.Errorf("failed to open history database: %w", err)
		}
		defer store.Close()

		runID, err := store.SaveRun(report)
		if err != nil {
			return fmt.Errorf("failed to store run: %w", err)
		}
		fmt.Printf("✓ Run stored as %s\n", runID)
	}

	duration := time.Since(startTime)
	fmt.Printf("\n✅ Analysis complete in %s!\n", duration.Round(time.Second))
	if !cfg.DryRun {
		fmt.Printf("\n📊 View report:\n")
		fmt.Printf("   snowspectre serve %s\n", cfg.OutputDir)
	}

	if failOnFindings {
		if count := baseline.CountFindings(report); count > 0 {
			return &FindingsError{Count: count}
		}
	}

	return nil
}

// buildEstimates runs the advisor over every warehouse with usage data,
// sorted by name so output is stable.
func buildEstimates(cfg *config.Config, warehouses []*models.Warehouse, an *analyzer.Analyzer) []models.CostEstimate {
	adv := advisor.New(cfg.CreditUnitPrice)
	windows := an.UsageWindows()

	estimates := make([]models.CostEstimate, 0, len(warehouses))
	for _, wh := range warehouses {
		window, ok := windows[wh.Name]
		if !ok {
			slog.Debug("skipping warehouse with no usage data", slog.String("warehouse", wh.Name))
			continue
		}
		tier, err := tiers.Lookup(wh.Size)
		if err != nil {
			slog.Warn("unknown warehouse size, assuming smallest tier",
				slog.String("warehouse", wh.Name),
				slog.String("size", wh.Size),
			)
			tier = tiers.Resolve(wh.Size)
		}
		if est := adv.Recommend(tier, window); est != nil {
			estimates = append(estimates, *est)
		}
	}

	sort.Slice(estimates, func(i, j int) bool {
		return estimates[i].WarehouseName < estimates[j].WarehouseName
	})
	return estimates
}

func estimatePtrs(estimates []models.CostEstimate) []*models.CostEstimate {
	ptrs := make([]*models.CostEstimate, len(estimates))
	for i := range estimates {
		ptrs[i] = &estimates[i]
	}
	return ptrs
}

// profileAndScore samples the largest tables, profiles their columns in
// parallel, and scores each one.
func profileAndScore(ctx context.Context, cfg *config.Config, col warehouse.Collector) ([]*models.TableHealthReport, error) {
	tables, err := col.CollectTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch table metadata: %w", err)
	}
	if len(tables) == 0 {
		return nil, nil
	}

	profiles, err := col.ProfileTables(ctx, tables)
	if err != nil {
		return nil, fmt.Errorf("failed to profile tables: %w", err)
	}

	samples := make([]quality.TableSample, 0, len(profiles))
	for _, profile := range profiles {
		if profile.Err != nil {
			slog.Warn("skipping unprofiled table",
				slog.String("table", profile.Meta.FullName),
				slog.String("error", profile.Err.Error()),
			)
			continue
		}
		samples = append(samples, quality.TableSample{
			Meta:    profile.Meta,
			Columns: profile.Columns,
		})
	}
	if len(samples) == 0 {
		return nil, nil
	}

	scorer := quality.NewScorer()
	return scorer.ScoreTables(samples, cfg.Concurrency)
}

// applyBaseline suppresses known findings and optionally records the rest.
func applyBaseline(cfg *config.Config, report *models.Report) error {
	path := cfg.BaselinePath
	if path == "" {
		if !cfg.UpdateBaseline {
			return nil
		}
		path = baseline.DefaultPath
	}

	known, err := baseline.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load baseline: %w", err)
	}

	if len(known) > 0 {
		suppressed, remaining := baseline.SuppressKnown(report, known)
		if suppressed > 0 {
			fmt.Printf("✓ Suppressed %d baselined findings (%d remaining)\n", suppressed, remaining)
		}
	}

	if cfg.UpdateBaseline {
		baseline.AddAll(known, baseline.CollectFingerprints(report))
		if err := baseline.Save(path, known); err != nil {
			return fmt.Errorf("failed to update baseline: %w", err)
		}
		fmt.Printf("✓ Baseline updated: %s\n", path)
	}

	return nil
}

// buildReport constructs the final report
func buildReport(
	cfg *config.Config,
	queries []*models.QueryRecord,
	estimates []models.CostEstimate,
	top []models.CostEstimate,
	tableReports []*models.TableHealthReport,
	fleet *models.FleetQualityReport,
	an *analyzer.Analyzer,
	startTime time.Time,
) *models.Report {
	anomalies := make([]models.Anomaly, 0)
	for _, anomaly := range an.Anomalies() {
		anomalies = append(anomalies, *anomaly)
	}

	reports := make([]models.TableHealthReport, 0, len(tableReports))
	for _, tr := range tableReports {
		reports = append(reports, *tr)
	}

	now := time.Now()
	return &models.Report{
		Tool:      "snowspectre",
		Version:   version,
		Timestamp: now.UTC().Format(time.RFC3339),
		Metadata: models.Metadata{
			GeneratedAt:          now,
			LookbackDays:         cfg.PeriodDays(),
			AccountHost:          accountHost(cfg.SnowflakeDSN),
			TotalQueriesAnalyzed: uint64(len(queries)),
			TablesSampled:        len(reports),
			AnalysisDuration:     time.Since(startTime).Round(time.Second).String(),
			Version:              version,
			CreditUnitPrice:      cfg.CreditUnitPrice,
		},
		UsageWindows:       an.SortedUsageWindows(),
		CostEstimates:      estimates,
		TopRecommendations: top,
		TableReports:       reports,
		Fleet:              fleet,
		Anomalies:          anomalies,
	}
}

// accountHost extracts the account hostname from the DSN without credentials.
func accountHost(dsn string) string {
	sfCfg, err := sf.ParseDSN(dsn)
	if err != nil {
		return "unknown"
	}
	if sfCfg.Host != "" {
		return sfCfg.Host
	}
	if sfCfg.Account != "" {
		return sfCfg.Account + ".snowflakecomputing.com"
	}
	return "unknown"
}
