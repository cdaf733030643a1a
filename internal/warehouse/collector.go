package warehouse

import (
	"context"
	"fmt"
	"sort"

	"github.com/ppiankov/snowspectre/internal/models"
	"github.com/ppiankov/snowspectre/pkg/config"
)

// Collector gathers the raw account telemetry the analysis runs on
type Collector interface {
	CollectUsage(ctx context.Context) ([]*models.QueryRecord, []*models.MeteringRecord, error)
	CollectWarehouses(ctx context.Context) ([]*models.Warehouse, error)
	CollectTables(ctx context.Context) ([]models.TableMeta, error)
	ProfileTables(ctx context.Context, tables []models.TableMeta) ([]*TableProfile, error)
	Close() error
}

type collector struct {
	config  *config.Config
	client  *SnowflakeClient
	cache   *StatsCache
	limiter *RateLimiter
}

// New creates a collector connected to the configured account
func New(ctx context.Context, cfg *config.Config) (Collector, error) {
	client, err := NewSnowflakeClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Snowflake client: %w", err)
	}

	return &collector{
		config:  cfg,
		client:  client,
		cache:   NewStatsCache(cfg.MetadataCacheTTL),
		limiter: NewRateLimiter(cfg.ProfileRateLimit),
	}, nil
}

// CollectUsage fetches query history and metering rows for the lookback window
func (c *collector) CollectUsage(ctx context.Context) ([]*models.QueryRecord, []*models.MeteringRecord, error) {
	queries, err := c.client.FetchQueryHistory(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch query history: %w", err)
	}

	metering, err := c.client.FetchMeteringHistory(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch metering history: %w", err)
	}

	return queries, metering, nil
}

// CollectWarehouses lists warehouses with current size and state
func (c *collector) CollectWarehouses(ctx context.Context) ([]*models.Warehouse, error) {
	return c.client.FetchWarehouses(ctx)
}

// CollectTables fetches metadata for the sampled tables
func (c *collector) CollectTables(ctx context.Context) ([]models.TableMeta, error) {
	return c.client.FetchTables(ctx)
}

// ProfileTables profiles column stats for the given tables in parallel.
// Results come back sorted by full table name regardless of completion order.
// Per-table failures are carried in the profile, not returned as an error.
func (c *collector) ProfileTables(ctx context.Context, tables []models.TableMeta) ([]*TableProfile, error) {
	if len(tables) == 0 {
		return nil, nil
	}

	pool := NewProfilePool(c.config.Concurrency, c.client, c.cache, c.limiter)
	pool.Start(ctx)
	defer pool.Stop()

	go func() {
		for _, meta := range tables {
			pool.Submit(meta)
		}
	}()

	profiles := make([]*TableProfile, 0, len(tables))
	for i := 0; i < len(tables); i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case profile := <-pool.Results():
			profiles = append(profiles, profile)
		}
	}

	sort.Slice(profiles, func(i, j int) bool {
		return profiles[i].Meta.FullName < profiles[j].Meta.FullName
	})

	return profiles, nil
}

// Close closes the collector and its connection
func (c *collector) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}
