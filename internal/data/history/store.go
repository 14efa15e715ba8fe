package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5
)

type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

func Open(path string, busyTimeout time.Duration) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("history path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("history path %q is a directory, expected file", cleanPath)
	}
	if dir := filepath.Dir(cleanPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory %q: %w", dir, err)
		}
	}
	if busyTimeout <= 0 {
		busyTimeout = 2 * time.Second
	}

	// WAL plus busy_timeout keep watch-mode rebuilds from tripping over locks.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)", cleanPath, busyTimeout.Milliseconds())
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite history %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite history %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}
	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// SaveBuild records b, filling in a run id and start time when missing.
func (s *Store) SaveBuild(b Build) (Build, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b.RunID == "" {
		b.RunID = NewRunID()
	}
	b.ProjectKey = projectKey(b.ProjectKey)
	if b.StartedAt.IsZero() {
		b.StartedAt = time.Now()
	}
	b.StartedAt = b.StartedAt.UTC()

	const query = `
INSERT INTO builds (
  run_id, project_key, started_at_utc, duration_ms, module_count,
  error_count, warning_count, aborted, output_hash
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	err := s.withRetry("save build", func() error {
		_, err := s.db.Exec(query,
			b.RunID,
			b.ProjectKey,
			b.StartedAt.Format(time.RFC3339Nano),
			b.Duration.Milliseconds(),
			b.Modules,
			b.Errors,
			b.Warnings,
			b.Aborted,
			b.OutputHash,
		)
		return err
	})
	return b, err
}

// LoadBuilds returns the project's builds started at or after since, oldest
// first. limit <= 0 returns all of them.
func (s *Store) LoadBuilds(key string, since time.Time, limit int) ([]Build, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
SELECT run_id, project_key, started_at_utc, duration_ms, module_count,
  error_count, warning_count, aborted, output_hash
FROM builds WHERE project_key = ?`
	args := []any{projectKey(key)}
	if !since.IsZero() {
		query += " AND started_at_utc >= ?"
		args = append(args, since.UTC().Format(time.RFC3339Nano))
	}
	query += " ORDER BY started_at_utc ASC, run_id ASC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	var rows *sql.Rows
	err := s.withRetry("load builds", func() error {
		var qErr error
		rows, qErr = s.db.Query(query, args...)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	builds := make([]Build, 0)
	for rows.Next() {
		var (
			b          Build
			startedRaw string
			durationMs int64
		)
		if err := rows.Scan(&b.RunID, &b.ProjectKey, &startedRaw, &durationMs, &b.Modules,
			&b.Errors, &b.Warnings, &b.Aborted, &b.OutputHash); err != nil {
			return nil, fmt.Errorf("scan build row: %w", err)
		}
		started, err := time.Parse(time.RFC3339Nano, startedRaw)
		if err != nil {
			return nil, fmt.Errorf("parse build timestamp %q: %w", startedRaw, err)
		}
		b.StartedAt = started.UTC()
		b.Duration = time.Duration(durationMs) * time.Millisecond
		builds = append(builds, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate build rows: %w", err)
	}
	return builds, nil
}

// Last returns the most recent build of the project. ok is false when none
// was recorded.
func (s *Store) Last(key string) (Build, bool, error) {
	builds, err := s.LoadBuilds(key, time.Time{}, 0)
	if err != nil || len(builds) == 0 {
		return Build{}, false, err
	}
	return builds[len(builds)-1], true, nil
}

func projectKey(key string) string {
	if key = strings.TrimSpace(key); key != "" {
		return key
	}
	return "default"
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}
