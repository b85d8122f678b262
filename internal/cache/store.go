// Package cache memoizes the "my assigned issues" list in a local SQLite
// database with a fixed freshness window.
package cache

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"worklogd/internal/jira"
)

const currentVersion = 1

// Store is the SQLite persistence layer for cached issue snapshots.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the SQLite database at dbPath and runs
// migrations.
func NewStore(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// NewMemory creates an in-memory store for testing.
func NewMemory() (*Store, error) {
	return NewStore(":memory:")
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	if version >= currentVersion {
		return nil
	}

	if version < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
	}

	_, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentVersion))
	return err
}

func (s *Store) migrateV1() error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS issue_cache (
		key           TEXT PRIMARY KEY,
		summary       TEXT NOT NULL,
		status_name   TEXT,
		assignee_name TEXT,
		updated       TEXT,
		cached_at     REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_issue_cache_cached_at ON issue_cache(cached_at);
	`
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("create issue_cache: %w", err)
	}
	return nil
}

// Replace swaps the entire cached set for issues, stamped at cachedAt.
// Refreshes are whole-entry replacements, never merges.
func (s *Store) Replace(issues []jira.Issue, cachedAt time.Time) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM issue_cache`); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}

	stamp := float64(cachedAt.UnixMilli()) / 1000
	for _, issue := range issues {
		_, err := tx.Exec(
			`INSERT INTO issue_cache (key, summary, status_name, assignee_name, updated, cached_at) VALUES (?, ?, ?, ?, ?, ?)`,
			issue.Key, issue.Summary, issue.Status, issue.Assignee, issue.Updated.Format(time.RFC3339), stamp,
		)
		if err != nil {
			return fmt.Errorf("insert %s: %w", issue.Key, err)
		}
	}

	return tx.Commit()
}

// Load returns the cached issue set when every row is newer than cutoff and
// no row carries the stale marker. ok is false on a miss, an expired set, or
// a stale-marked set.
func (s *Store) Load(cutoff time.Time) ([]jira.Issue, bool, error) {
	var staleCount int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM issue_cache WHERE cached_at = 0`).Scan(&staleCount); err != nil {
		return nil, false, fmt.Errorf("check stale marker: %w", err)
	}
	if staleCount > 0 {
		return nil, false, nil
	}

	rows, err := s.db.Query(
		`SELECT key, summary, status_name, assignee_name, updated FROM issue_cache WHERE cached_at > ? ORDER BY updated DESC`,
		float64(cutoff.UnixMilli())/1000,
	)
	if err != nil {
		return nil, false, fmt.Errorf("load cache: %w", err)
	}
	defer rows.Close()

	var issues []jira.Issue
	for rows.Next() {
		var issue jira.Issue
		var updated string
		if err := rows.Scan(&issue.Key, &issue.Summary, &issue.Status, &issue.Assignee, &updated); err != nil {
			return nil, false, err
		}
		issue.Updated, _ = time.Parse(time.RFC3339, updated)
		issues = append(issues, issue)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}

	if len(issues) == 0 {
		return nil, false, nil
	}
	return issues, true, nil
}

// MarkStale zeroes the timestamp of one row, which poisons the whole cached
// set: the next Load misses and the caller refetches from Jira.
func (s *Store) MarkStale(key string) error {
	_, err := s.db.Exec(`UPDATE issue_cache SET cached_at = 0 WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("mark %s stale: %w", key, err)
	}
	return nil
}

// Clear removes all cached issues.
func (s *Store) Clear() error {
	_, err := s.db.Exec(`DELETE FROM issue_cache`)
	if err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	return nil
}

// Stats describes the cached set for the cache-info endpoint.
type Stats struct {
	Count  int
	Oldest time.Time
	Newest time.Time
}

// Info reports row count and timestamp bounds of the cached set.
func (s *Store) Info() (Stats, error) {
	var count int
	var oldest, newest sql.NullFloat64
	err := s.db.QueryRow(`SELECT COUNT(*), MIN(cached_at), MAX(cached_at) FROM issue_cache`).Scan(&count, &oldest, &newest)
	if err != nil {
		return Stats{}, fmt.Errorf("cache info: %w", err)
	}

	stats := Stats{Count: count}
	if oldest.Valid {
		stats.Oldest = time.UnixMilli(int64(oldest.Float64 * 1000))
	}
	if newest.Valid {
		stats.Newest = time.UnixMilli(int64(newest.Float64 * 1000))
	}
	return stats, nil
}
