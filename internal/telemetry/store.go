package telemetry

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteMetricsStore implements MetricsStore using SQLite.
type SQLiteMetricsStore struct {
	db *sql.DB
}

// NewSQLiteMetricsStore opens (or creates) the metrics database at path.
func NewSQLiteMetricsStore(path string) (*SQLiteMetricsStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open metrics database: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS query_mode_stats (
		date TEXT NOT NULL,
		mode TEXT NOT NULL,
		count INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (date, mode)
	);

	CREATE TABLE IF NOT EXISTS zero_result_queries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		query TEXT NOT NULL,
		timestamp TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS query_latency_stats (
		date TEXT NOT NULL,
		bucket TEXT NOT NULL,
		count INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (date, bucket)
	);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create metrics schema: %w", err)
	}

	return &SQLiteMetricsStore{db: db}, nil
}

// RecordEvent persists one query event.
func (s *SQLiteMetricsStore) RecordEvent(ev QueryEvent) error {
	date := ev.Timestamp.Format("2006-01-02")

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin metrics tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT INTO query_mode_stats (date, mode, count) VALUES (?, ?, 1)
		ON CONFLICT(date, mode) DO UPDATE SET count = count + 1`,
		date, ev.Mode); err != nil {
		return fmt.Errorf("record mode stat: %w", err)
	}

	if _, err := tx.Exec(`
		INSERT INTO query_latency_stats (date, bucket, count) VALUES (?, ?, 1)
		ON CONFLICT(date, bucket) DO UPDATE SET count = count + 1`,
		date, LatencyBucket(ev.Latency)); err != nil {
		return fmt.Errorf("record latency stat: %w", err)
	}

	if ev.ResultCount == 0 {
		if _, err := tx.Exec(`INSERT INTO zero_result_queries (query) VALUES (?)`, ev.Query); err != nil {
			return fmt.Errorf("record zero-result query: %w", err)
		}
		// Keep the zero-result list bounded.
		if _, err := tx.Exec(`
			DELETE FROM zero_result_queries WHERE id NOT IN (
				SELECT id FROM zero_result_queries ORDER BY id DESC LIMIT ?
			)`, MaxZeroResultQueries); err != nil {
			return fmt.Errorf("trim zero-result queries: %w", err)
		}
	}

	return tx.Commit()
}

// Summary aggregates all persisted metrics.
func (s *SQLiteMetricsStore) Summary() (*Summary, error) {
	summary := &Summary{
		QueriesByMode:  make(map[string]int64),
		LatencyBuckets: make(map[string]int64),
	}

	rows, err := s.db.Query(`SELECT mode, SUM(count) FROM query_mode_stats GROUP BY mode`)
	if err != nil {
		return nil, fmt.Errorf("query mode stats: %w", err)
	}
	for rows.Next() {
		var mode string
		var count int64
		if err := rows.Scan(&mode, &count); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan mode stat: %w", err)
		}
		summary.QueriesByMode[mode] = count
		summary.TotalQueries += count
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate mode stats: %w", err)
	}
	rows.Close()

	rows, err = s.db.Query(`SELECT bucket, SUM(count) FROM query_latency_stats GROUP BY bucket`)
	if err != nil {
		return nil, fmt.Errorf("query latency stats: %w", err)
	}
	for rows.Next() {
		var bucket string
		var count int64
		if err := rows.Scan(&bucket, &count); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan latency stat: %w", err)
		}
		summary.LatencyBuckets[bucket] = count
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate latency stats: %w", err)
	}
	rows.Close()

	rows, err = s.db.Query(`SELECT query FROM zero_result_queries ORDER BY id DESC LIMIT ?`, MaxZeroResultQueries)
	if err != nil {
		return nil, fmt.Errorf("query zero-result list: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var q string
		if err := rows.Scan(&q); err != nil {
			return nil, fmt.Errorf("scan zero-result query: %w", err)
		}
		summary.ZeroResultQueries = append(summary.ZeroResultQueries, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate zero-result queries: %w", err)
	}

	return summary, nil
}

// Close closes the database.
func (s *SQLiteMetricsStore) Close() error {
	return s.db.Close()
}

var _ MetricsStore = (*SQLiteMetricsStore)(nil)
