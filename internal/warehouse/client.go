package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	sf "github.com/snowflakedb/gosnowflake"

	"github.com/ppiankov/snowspectre/internal/models"
	"github.com/ppiankov/snowspectre/pkg/config"
)

const maxProfiledColumns = 50

// SnowflakeClient handles Snowflake connections and account-usage queries
type SnowflakeClient struct {
	conn   *sql.DB
	config *config.Config
	retry  retryConfig
}

// NewSnowflakeClient creates a new Snowflake client
func NewSnowflakeClient(ctx context.Context, cfg *config.Config) (*SnowflakeClient, error) {
	sfCfg, err := sf.ParseDSN(cfg.SnowflakeDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Snowflake DSN: %w", err)
	}

	conn, err := sql.Open("snowflake", cfg.SnowflakeDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open Snowflake connection: %w", err)
	}

	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(time.Hour)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping Snowflake: %w", err)
	}

	if cfg.Verbose {
		slog.Debug("connected to Snowflake", slog.String("account", sfCfg.Account))
	}

	return &SnowflakeClient{
		conn:   conn,
		config: cfg,
		retry:  defaultRetryConfig(),
	}, nil
}

// FetchQueryHistory retrieves query history rows with pagination
func (c *SnowflakeClient) FetchQueryHistory(ctx context.Context) ([]*models.QueryRecord, error) {
	lookbackDays := c.config.PeriodDays()

	query := `
		SELECT
			query_id,
			COALESCE(warehouse_name, ''),
			COALESCE(query_type, ''),
			start_time,
			COALESCE(total_elapsed_time, 0),
			COALESCE(user_name, ''),
			COALESCE(rows_produced, 0),
			COALESCE(query_text, '')
		FROM snowflake.account_usage.query_history
		WHERE start_time >= DATEADD(day, -?, CURRENT_TIMESTAMP())
		  AND execution_status = 'SUCCESS'
		ORDER BY start_time DESC
		LIMIT ? OFFSET ?
	`

	var allRecords []*models.QueryRecord
	offset := 0

	for {
		var rows *sql.Rows
		err := executeWithRetry(ctx, c.retry, func() error {
			var qerr error
			rows, qerr = c.conn.QueryContext(ctx, query, lookbackDays, c.config.BatchSize, offset)
			return qerr
		})
		if err != nil {
			return nil, fmt.Errorf("query history fetch failed at offset %d: %w", offset, err)
		}

		batch, err := c.scanQueryBatch(rows)
		rows.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to process query history batch at offset %d: %w", offset, err)
		}

		if len(batch) == 0 {
			break
		}

		allRecords = append(allRecords, batch...)

		if c.config.Verbose {
			slog.Debug("fetched query history batch",
				slog.Int("batch", len(batch)),
				slog.Int("total", len(allRecords)),
			)
		}

		if len(allRecords) >= c.config.MaxRows {
			if c.config.Verbose {
				slog.Debug("max rows limit reached, stopping collection", slog.Int("max_rows", c.config.MaxRows))
			}
			break
		}

		if len(batch) < c.config.BatchSize {
			break
		}
		offset += c.config.BatchSize
	}

	return allRecords, nil
}

func (c *SnowflakeClient) scanQueryBatch(rows *sql.Rows) ([]*models.QueryRecord, error) {
	var records []*models.QueryRecord
	rowNum := 0
	skipped := 0

	for rows.Next() {
		rowNum++
		var record models.QueryRecord
		var queryText string

		err := rows.Scan(
			&record.QueryID,
			&record.WarehouseName,
			&record.QueryType,
			&record.StartTime,
			&record.ExecutionTimeMs,
			&record.User,
			&record.RowsProduced,
			&queryText,
		)
		if err != nil {
			skipped++
			if skipped == 1 {
				slog.Warn("failed to scan query history row", slog.Int("row", rowNum), slog.String("error", err.Error()))
			}
			continue
		}

		if record.QueryID == "" {
			skipped++
			continue
		}

		record.Tables = extractTables(queryText)
		records = append(records, &record)
	}

	if skipped > 0 {
		slog.Warn("skipped problematic query history rows", slog.Int("skipped", skipped), slog.Int("total", rowNum))
	}

	if err := rows.Err(); err != nil {
		if len(records) > 0 {
			slog.Warn("row iteration error, returning partial batch",
				slog.Int("recovered", len(records)),
				slog.String("error", err.Error()),
			)
			return records, nil
		}
		return nil, err
	}

	return records, nil
}

// FetchMeteringHistory retrieves per-warehouse credit consumption rows
func (c *SnowflakeClient) FetchMeteringHistory(ctx context.Context) ([]*models.MeteringRecord, error) {
	query := `
		SELECT
			COALESCE(warehouse_name, ''),
			start_time,
			COALESCE(credits_used, 0)
		FROM snowflake.account_usage.warehouse_metering_history
		WHERE start_time >= DATEADD(day, -?, CURRENT_TIMESTAMP())
		ORDER BY start_time DESC
	`

	var rows *sql.Rows
	err := executeWithRetry(ctx, c.retry, func() error {
		var qerr error
		rows, qerr = c.conn.QueryContext(ctx, query, c.config.PeriodDays())
		return qerr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch metering history: %w", err)
	}
	defer rows.Close()

	var records []*models.MeteringRecord
	for rows.Next() {
		var record models.MeteringRecord
		if err := rows.Scan(&record.WarehouseName, &record.StartTime, &record.CreditsUsed); err != nil {
			slog.Warn("failed to scan metering row", slog.String("error", err.Error()))
			continue
		}
		records = append(records, &record)
	}

	return records, rows.Err()
}

// FetchWarehouses lists warehouses with their current size and state.
// SHOW WAREHOUSES and RESULT_SCAN must run on the same session, so the
// connection is pinned for both statements.
func (c *SnowflakeClient) FetchWarehouses(ctx context.Context) ([]*models.Warehouse, error) {
	session, err := c.conn.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire session: %w", err)
	}
	defer session.Close()

	if _, err := session.ExecContext(ctx, "SHOW WAREHOUSES"); err != nil {
		return nil, fmt.Errorf("failed to list warehouses: %w", err)
	}

	rows, err := session.QueryContext(ctx, `
		SELECT "name", "size", "state", "auto_suspend"
		FROM TABLE(RESULT_SCAN(LAST_QUERY_ID()))
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to scan warehouse list: %w", err)
	}
	defer rows.Close()

	var warehouses []*models.Warehouse
	for rows.Next() {
		var wh models.Warehouse
		var autoSuspend sql.NullInt64
		if err := rows.Scan(&wh.Name, &wh.Size, &wh.State, &autoSuspend); err != nil {
			slog.Warn("failed to scan warehouse row", slog.String("error", err.Error()))
			continue
		}
		if autoSuspend.Valid {
			wh.AutoSuspend = int(autoSuspend.Int64)
		}
		warehouses = append(warehouses, &wh)
	}

	return warehouses, rows.Err()
}

// FetchTables retrieves table metadata for the largest active tables,
// skipping excluded databases and tables.
func (c *SnowflakeClient) FetchTables(ctx context.Context) ([]models.TableMeta, error) {
	query := `
		SELECT
			table_catalog,
			table_schema,
			table_name,
			COALESCE(row_count, 0),
			COALESCE(bytes, 0),
			created,
			last_altered
		FROM snowflake.account_usage.tables
		WHERE deleted IS NULL
		  AND table_type = 'BASE TABLE'
		  AND table_schema <> 'INFORMATION_SCHEMA'
		ORDER BY bytes DESC
	`

	var rows *sql.Rows
	err := executeWithRetry(ctx, c.retry, func() error {
		var qerr error
		rows, qerr = c.conn.QueryContext(ctx, query)
		return qerr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch table metadata: %w", err)
	}
	defer rows.Close()

	var tables []models.TableMeta
	for rows.Next() {
		var meta models.TableMeta
		if err := rows.Scan(&meta.Database, &meta.Schema, &meta.Name, &meta.RowCount, &meta.Bytes, &meta.CreatedAt, &meta.LastAlteredAt); err != nil {
			slog.Warn("failed to scan table metadata row", slog.String("error", err.Error()))
			continue
		}
		meta.FullName = meta.Database + "." + meta.Schema + "." + meta.Name

		if c.config.IsDatabaseExcluded(meta.Database) || c.config.IsTableExcluded(meta.FullName) {
			continue
		}

		tables = append(tables, meta)
		if c.config.SampleTables > 0 && len(tables) >= c.config.SampleTables {
			break
		}
	}

	return tables, rows.Err()
}

// FetchColumnStats profiles null rates and distinct counts for a table's
// columns in a single aggregate pass.
func (c *SnowflakeClient) FetchColumnStats(ctx context.Context, meta models.TableMeta) ([]models.ColumnStat, error) {
	columns, err := c.fetchColumnNames(ctx, meta)
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, nil
	}
	if len(columns) > maxProfiledColumns {
		columns = columns[:maxProfiledColumns]
	}

	var sb strings.Builder
	sb.WriteString("SELECT COUNT(*)")
	for _, col := range columns {
		fmt.Fprintf(&sb, ", COUNT(%[1]s), COUNT(DISTINCT %[1]s)", quoteIdent(col))
	}
	fmt.Fprintf(&sb, " FROM %s.%s.%s", quoteIdent(meta.Database), quoteIdent(meta.Schema), quoteIdent(meta.Name))

	var row *sql.Row
	err = executeWithRetry(ctx, c.retry, func() error {
		row = c.conn.QueryRowContext(ctx, sb.String())
		return row.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to profile %s: %w", meta.FullName, err)
	}

	total := int64(0)
	nonNull := make([]int64, len(columns))
	distinct := make([]int64, len(columns))

	dest := make([]any, 0, 1+2*len(columns))
	dest = append(dest, &total)
	for i := range columns {
		dest = append(dest, &nonNull[i], &distinct[i])
	}
	if err := row.Scan(dest...); err != nil {
		return nil, fmt.Errorf("failed to scan profile for %s: %w", meta.FullName, err)
	}

	stats := make([]models.ColumnStat, 0, len(columns))
	for i, col := range columns {
		stat := models.ColumnStat{
			ColumnName:    col,
			DistinctCount: distinct[i],
		}
		if total > 0 {
			stat.NullPercentage = float64(total-nonNull[i]) / float64(total) * 100
		}
		stats = append(stats, stat)
	}

	return stats, nil
}

func (c *SnowflakeClient) fetchColumnNames(ctx context.Context, meta models.TableMeta) ([]string, error) {
	query := `
		SELECT column_name
		FROM snowflake.account_usage.columns
		WHERE deleted IS NULL
		  AND table_catalog = ?
		  AND table_schema = ?
		  AND table_name = ?
		ORDER BY ordinal_position
	`

	var rows *sql.Rows
	err := executeWithRetry(ctx, c.retry, func() error {
		var qerr error
		rows, qerr = c.conn.QueryContext(ctx, query, meta.Database, meta.Schema, meta.Name)
		return qerr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list columns for %s: %w", meta.FullName, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			continue
		}
		columns = append(columns, name)
	}

	return columns, rows.Err()
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// Close closes the Snowflake connection
func (c *SnowflakeClient) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
