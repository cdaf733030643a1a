package warehouse

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/ppiankov/snowspectre/internal/models"
)

func TestExecuteWithRetryTransientBackoff(t *testing.T) {
	attempts := 0
	var sleeps []time.Duration

	cfg := retryConfig{
		maxAttempts:    3,
		initialBackoff: 10 * time.Millisecond,
		maxBackoff:     40 * time.Millisecond,
		sleep: func(_ context.Context, d time.Duration) error {
			sleeps = append(sleeps, d)
			return nil
		},
	}

	err := executeWithRetry(context.Background(), cfg, func() error {
		attempts++
		if attempts < 3 {
			return errors.New("i/o timeout")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected retry success, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
	if len(sleeps) != 2 {
		t.Fatalf("expected 2 backoff sleeps, got %d", len(sleeps))
	}
	if sleeps[0] != 10*time.Millisecond || sleeps[1] != 20*time.Millisecond {
		t.Fatalf("unexpected backoff schedule: %v", sleeps)
	}
}

func TestExecuteWithRetryAuthFailFast(t *testing.T) {
	attempts := 0
	sleepCalls := 0

	cfg := retryConfig{
		maxAttempts:    3,
		initialBackoff: 10 * time.Millisecond,
		maxBackoff:     40 * time.Millisecond,
		sleep: func(context.Context, time.Duration) error {
			sleepCalls++
			return nil
		},
	}

	err := executeWithRetry(context.Background(), cfg, func() error {
		attempts++
		return errors.New("390100: Incorrect username or password was specified")
	})
	if err == nil {
		t.Fatal("expected auth error")
	}
	if attempts != 1 {
		t.Fatalf("expected auth fail-fast after 1 attempt, got %d", attempts)
	}
	if sleepCalls != 0 {
		t.Fatalf("expected no backoff sleeps for auth errors, got %d", sleepCalls)
	}
}

func TestExecuteWithRetryNonRetryableError(t *testing.T) {
	attempts := 0
	cfg := retryConfig{
		maxAttempts: 3,
		sleep: func(context.Context, time.Duration) error {
			return nil
		},
	}

	err := executeWithRetry(context.Background(), cfg, func() error {
		attempts++
		return errors.New("SQL compilation error: object does not exist")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt for non-retryable errors, got %d", attempts)
	}
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{context.Canceled, false},
		{context.DeadlineExceeded, true},
		{errors.New("read tcp: connection reset by peer"), true},
		{errors.New("dial tcp: no such host"), true},
		{errors.New("syntax error near SELECT"), false},
	}
	for _, tt := range tests {
		if got := isRetryableError(tt.err); got != tt.want {
			t.Errorf("isRetryableError(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestExtractTables(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{
			name:  "simple select",
			query: "SELECT * FROM prod.sales.orders",
			want:  []string{"prod.sales.orders"},
		},
		{
			name:  "join dedupes",
			query: "SELECT * FROM prod.sales.orders o JOIN prod.sales.customers c ON o.id = c.id JOIN prod.sales.orders x ON 1=1",
			want:  []string{"prod.sales.orders", "prod.sales.customers"},
		},
		{
			name:  "merge and copy",
			query: "MERGE INTO prod.core.dim_users USING (SELECT * FROM staging.users) s ON 1=1; COPY INTO raw.events FROM @stage",
			want:  []string{"staging.users", "prod.core.dim_users", "raw.events"},
		},
		{
			name:  "create table",
			query: "CREATE OR REPLACE TABLE analytics.daily_rollup AS SELECT * FROM analytics.events",
			want:  []string{"analytics.events", "analytics.daily_rollup"},
		},
		{
			name:  "empty",
			query: "   ",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractTables(tt.query)
			sort.Strings(got)
			want := append([]string(nil), tt.want...)
			sort.Strings(want)
			if !reflect.DeepEqual(got, want) {
				t.Errorf("extractTables() = %v, want %v", got, want)
			}
		})
	}
}

func TestStatsCacheSetGetClearAndSize(t *testing.T) {
	cache := NewStatsCache(time.Minute)

	stats := []models.ColumnStat{{ColumnName: "id", NullPercentage: 0, DistinctCount: 100}}
	cache.Set("prod.sales.orders", stats)

	got := cache.Get("prod.sales.orders")
	if !reflect.DeepEqual(got, stats) {
		t.Errorf("cache get = %v, want %v", got, stats)
	}
	if cache.Get("prod.sales.missing") != nil {
		t.Error("expected miss for unknown table")
	}
	if cache.Size() != 1 {
		t.Errorf("size = %d, want 1", cache.Size())
	}

	cache.Clear()
	if cache.Size() != 0 {
		t.Errorf("size after clear = %d, want 0", cache.Size())
	}
}

func TestStatsCacheExpiry(t *testing.T) {
	cache := NewStatsCache(10 * time.Millisecond)
	cache.Set("prod.sales.orders", []models.ColumnStat{{ColumnName: "id"}})

	time.Sleep(20 * time.Millisecond)
	if cache.Get("prod.sales.orders") != nil {
		t.Error("expected expired entry to miss")
	}
}

func TestRateLimiterAllow(t *testing.T) {
	limiter := NewRateLimiter(1)

	allowed := 0
	for i := 0; i < 10; i++ {
		if limiter.Allow() {
			allowed++
		}
	}
	// Burst is 2x the rate.
	if allowed != 2 {
		t.Errorf("allowed = %d, want 2", allowed)
	}
}

type fakeFetcher struct {
	mu      sync.Mutex
	calls   map[string]int
	failFor string
}

func (f *fakeFetcher) FetchColumnStats(_ context.Context, meta models.TableMeta) ([]models.ColumnStat, error) {
	f.mu.Lock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[meta.FullName]++
	f.mu.Unlock()

	if meta.FullName == f.failFor {
		return nil, errors.New("profiling failed")
	}
	return []models.ColumnStat{{ColumnName: "id", DistinctCount: meta.RowCount}}, nil
}

func (f *fakeFetcher) callCount(fullName string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[fullName]
}

func TestProfilePoolProcessesAllTables(t *testing.T) {
	fetcher := &fakeFetcher{failFor: "prod.sales.bad"}
	pool := NewProfilePool(3, fetcher, nil, nil)
	pool.Start(context.Background())

	tables := make([]models.TableMeta, 0, 10)
	for i := 0; i < 9; i++ {
		name := fmt.Sprintf("t_%02d", i)
		tables = append(tables, models.TableMeta{
			Database: "prod", Schema: "sales", Name: name,
			FullName: "prod.sales." + name, RowCount: int64(i * 100),
		})
	}
	tables = append(tables, models.TableMeta{
		Database: "prod", Schema: "sales", Name: "bad", FullName: "prod.sales.bad",
	})

	go func() {
		for _, meta := range tables {
			pool.Submit(meta)
		}
	}()

	seen := make(map[string]*TableProfile)
	for i := 0; i < len(tables); i++ {
		profile := <-pool.Results()
		seen[profile.Meta.FullName] = profile
	}
	pool.Stop()

	if len(seen) != len(tables) {
		t.Fatalf("got %d profiles, want %d", len(seen), len(tables))
	}

	bad, ok := seen["prod.sales.bad"]
	if !ok || bad.Err == nil {
		t.Error("expected failed table to carry its error")
	}

	good := seen["prod.sales.t_03"]
	if good.Err != nil {
		t.Fatalf("unexpected error: %v", good.Err)
	}
	if len(good.Columns) != 1 || good.Columns[0].DistinctCount != 300 {
		t.Errorf("unexpected columns: %+v", good.Columns)
	}
}

func TestProfilePoolUsesCache(t *testing.T) {
	fetcher := &fakeFetcher{}
	cache := NewStatsCache(time.Minute)
	cached := []models.ColumnStat{{ColumnName: "cached_col"}}
	cache.Set("prod.sales.orders", cached)

	pool := NewProfilePool(1, fetcher, cache, nil)
	pool.Start(context.Background())

	go pool.Submit(models.TableMeta{FullName: "prod.sales.orders"})
	profile := <-pool.Results()
	pool.Stop()

	if profile.Err != nil {
		t.Fatalf("unexpected error: %v", profile.Err)
	}
	if !reflect.DeepEqual(profile.Columns, cached) {
		t.Errorf("expected cached stats, got %+v", profile.Columns)
	}
	if fetcher.callCount("prod.sales.orders") != 0 {
		t.Error("cache hit should not reach the fetcher")
	}
}

func TestProfilePoolStopBeforeStart(t *testing.T) {
	pool := NewProfilePool(2, &fakeFetcher{}, nil, nil)
	pool.Stop() // must not panic
}
