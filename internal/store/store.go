// Package store exports aligned feature tables to a SQL database.
// SQLite (modernc.org/sqlite) and PostgreSQL (lib/pq) are supported.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/slowdive42/news2alpha/internal/tabular"
	"github.com/slowdive42/news2alpha/pkg/models"
	"github.com/slowdive42/news2alpha/pkg/utils"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DefaultTable is the table name used when Config.Table is empty.
const DefaultTable = "aligned_features"

// ErrUnsupportedDriver is returned by Open for unknown drivers.
var ErrUnsupportedDriver = errors.New("unsupported store driver")

var tableNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

// Config selects the database.
type Config struct {
	Driver     string // sqlite or postgres
	DSN        string // file path for sqlite, connection string for postgres
	Table      string
	TimeColumn string // default: "Date"
}

// Store writes aligned rows into one table.
type Store struct {
	db         *sql.DB
	driver     string
	table      string
	timeColumn string
}

// Row is one stored market bar.
type Row struct {
	RunID         string
	Symbol        string
	Day           string
	Columns       map[string]string
	SentimentMean float64
	NewsCount     int
}

// Open connects to the database and creates the table if needed.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	driver := strings.ToLower(cfg.Driver)
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Driver)
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("store: dsn is required")
	}
	table := cfg.Table
	if table == "" {
		table = DefaultTable
	}
	if !tableNameRe.MatchString(table) {
		return nil, fmt.Errorf("store: invalid table name %q", table)
	}
	timeCol := cfg.TimeColumn
	if timeCol == "" {
		timeCol = "Date"
	}

	db, err := sql.Open(driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	s := &Store{db: db, driver: driver, table: table, timeColumn: timeCol}
	if driver == DriverSQLite {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode = WAL;"); err != nil {
			db.Close()
			return nil, fmt.Errorf("set WAL mode: %w", err)
		}
	}
	if err := s.createTable(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createTable(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			run_id TEXT NOT NULL,
			symbol TEXT NOT NULL,
			day TEXT NOT NULL,
			"columns" TEXT NOT NULL,
			sentiment_mean DOUBLE PRECISION NOT NULL,
			news_count INTEGER NOT NULL,
			PRIMARY KEY (run_id, symbol, day)
		)`, s.table)
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create table %s: %w", s.table, err)
	}
	return nil
}

// placeholders returns n bind markers for the driver.
func (s *Store) placeholders(n int) string {
	marks := make([]string, n)
	for i := range marks {
		if s.driver == DriverPostgres {
			marks[i] = "$" + strconv.Itoa(i+1)
		} else {
			marks[i] = "?"
		}
	}
	return strings.Join(marks, ", ")
}

// SaveAligned upserts one row per market bar of table in a single
// transaction and returns the number of rows written.
func (s *Store) SaveAligned(ctx context.Context, runID, symbol string, table *tabular.Table) (int, error) {
	cols, missing := table.Lookup(s.timeColumn, models.ColSentimentMean, models.ColNewsCount)
	if len(missing) > 0 {
		return 0, fmt.Errorf("%s: missing columns %s", table.Name, strings.Join(missing, ", "))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`INSERT INTO %s (run_id, symbol, day, "columns", sentiment_mean, news_count)
		VALUES (%s)
		ON CONFLICT (run_id, symbol, day) DO UPDATE SET
			"columns" = excluded."columns",
			sentiment_mean = excluded.sentiment_mean,
			news_count = excluded.news_count`, s.table, s.placeholders(6))
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for i, row := range table.Rows {
		get := func(c string) string {
			if idx := cols[c]; idx < len(row) {
				return strings.TrimSpace(row[idx])
			}
			return ""
		}
		ts, err := utils.ParseTimestamp(get(s.timeColumn))
		if err != nil {
			return 0, fmt.Errorf("%s row %d: %w", table.Name, i+1, err)
		}
		mean, err := strconv.ParseFloat(get(models.ColSentimentMean), 64)
		if err != nil {
			return 0, fmt.Errorf("%s row %d: %s: %w", table.Name, i+1, models.ColSentimentMean, err)
		}
		count, err := strconv.Atoi(get(models.ColNewsCount))
		if err != nil {
			return 0, fmt.Errorf("%s row %d: %s: %w", table.Name, i+1, models.ColNewsCount, err)
		}

		record := make(map[string]string, len(table.Header))
		for j, h := range table.Header {
			if j < len(row) {
				record[h] = row[j]
			}
		}
		payload, err := json.Marshal(record)
		if err != nil {
			return 0, fmt.Errorf("encode row %d: %w", i+1, err)
		}

		if _, err := stmt.ExecContext(ctx, runID, symbol, utils.DayKey(ts), string(payload), mean, count); err != nil {
			return 0, fmt.Errorf("upsert row %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(table.Rows), nil
}

// Rows returns the stored rows of a run ordered by day.
func (s *Store) Rows(ctx context.Context, runID string) ([]Row, error) {
	query := fmt.Sprintf(`SELECT run_id, symbol, day, "columns", sentiment_mean, news_count
		FROM %s WHERE run_id = %s ORDER BY symbol, day`, s.table, s.placeholders(1))
	rows, err := s.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", s.table, err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		var payload string
		if err := rows.Scan(&r.RunID, &r.Symbol, &r.Day, &payload, &r.SentimentMean, &r.NewsCount); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		if err := json.Unmarshal([]byte(payload), &r.Columns); err != nil {
			return nil, fmt.Errorf("decode columns for %s: %w", r.Day, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
