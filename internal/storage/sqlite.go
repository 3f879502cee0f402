package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)
)

// DBName is the database file created in the project directory
const DBName = "wordup.db"

// SQLiteStorage records runs, their wordlists, hosts and emails so results of
// several runs against one organisation can be compared
type SQLiteStorage struct {
	db     *sql.DB
	dbPath string
}

// HostRecord is a discovered host and whether it answered
type HostRecord struct {
	Host   string
	Source string
	Live   bool
	URL    string
	Status int
}

// NewSQLiteStorage opens (or creates) the database in baseDir.
// baseDir may be ":memory:" for tests.
func NewSQLiteStorage(baseDir string) (*SQLiteStorage, error) {
	dbPath := baseDir
	if baseDir != ":memory:" {
		baseDir = expandHome(baseDir)
		if err := os.MkdirAll(baseDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create base directory: %w", err)
		}
		dbPath = filepath.Join(baseDir, DBName)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	if dbPath == ":memory:" {
		// every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	} else if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &SQLiteStorage{db: db, dbPath: dbPath}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStorage) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		domain TEXT NOT NULL,
		company TEXT,
		version TEXT,
		start_time DATETIME NOT NULL,
		end_time DATETIME,
		status TEXT DEFAULT 'running',
		duration TEXT,
		summary_json TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_runs_domain ON runs(domain);

	CREATE TABLE IF NOT EXISTS words (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		list TEXT NOT NULL,
		word TEXT NOT NULL,
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE,
		UNIQUE(run_id, list, word)
	);
	CREATE INDEX IF NOT EXISTS idx_words_run_list ON words(run_id, list);

	CREATE TABLE IF NOT EXISTS hosts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		host TEXT NOT NULL,
		source TEXT,
		is_live INTEGER DEFAULT 0,
		url TEXT,
		status_code INTEGER,
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE,
		UNIQUE(run_id, host)
	);

	CREATE TABLE IF NOT EXISTS emails (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		email TEXT NOT NULL,
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE,
		UNIQUE(run_id, email)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Path returns the database location
func (s *SQLiteStorage) Path() string {
	return s.dbPath
}

// Close closes the database
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// CreateRun inserts a run in the running state
func (s *SQLiteStorage) CreateRun(ctx context.Context, runID, domain, company, version string, started time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, domain, company, version, start_time)
		VALUES (?, ?, ?, ?, ?)
	`, runID, domain, company, version, started)
	return err
}

// CompleteRun marks a run completed and stores its summary as JSON
func (s *SQLiteStorage) CompleteRun(ctx context.Context, runID string, duration time.Duration, summary interface{}) error {
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		UPDATE runs SET status = 'completed', end_time = ?, duration = ?, summary_json = ? WHERE id = ?
	`, time.Now(), duration.Round(time.Millisecond).String(), string(summaryJSON), runID)
	return err
}

// SaveWords bulk inserts one wordlist of a run
func (s *SQLiteStorage) SaveWords(ctx context.Context, runID, list string, words []string) error {
	return s.bulkInsert(ctx, `INSERT OR IGNORE INTO words (run_id, list, word) VALUES (?, ?, ?)`,
		len(words), func(stmt *sql.Stmt, i int) error {
			_, err := stmt.ExecContext(ctx, runID, list, words[i])
			return err
		})
}

// SaveHosts bulk inserts the discovered hosts
func (s *SQLiteStorage) SaveHosts(ctx context.Context, runID string, hosts []HostRecord) error {
	return s.bulkInsert(ctx, `
		INSERT OR REPLACE INTO hosts (run_id, host, source, is_live, url, status_code)
		VALUES (?, ?, ?, ?, ?, ?)`,
		len(hosts), func(stmt *sql.Stmt, i int) error {
			h := hosts[i]
			live := 0
			if h.Live {
				live = 1
			}
			_, err := stmt.ExecContext(ctx, runID, h.Host, h.Source, live, h.URL, h.Status)
			return err
		})
}

// SaveEmails bulk inserts the collected addresses
func (s *SQLiteStorage) SaveEmails(ctx context.Context, runID string, emails []string) error {
	return s.bulkInsert(ctx, `INSERT OR IGNORE INTO emails (run_id, email) VALUES (?, ?)`,
		len(emails), func(stmt *sql.Stmt, i int) error {
			_, err := stmt.ExecContext(ctx, runID, emails[i])
			return err
		})
}

func (s *SQLiteStorage) bulkInsert(ctx context.Context, query string, n int, exec func(*sql.Stmt, int) error) error {
	if n == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := 0; i < n; i++ {
		if err := exec(stmt, i); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// NewWords returns words of list in runID that did not appear in the same
// list of any earlier run for the domain
func (s *SQLiteStorage) NewWords(ctx context.Context, runID, list string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT w.word FROM words w
		JOIN runs r ON r.id = w.run_id
		WHERE w.run_id = ? AND w.list = ?
		AND NOT EXISTS (
			SELECT 1 FROM words o JOIN runs ro ON ro.id = o.run_id
			WHERE o.word = w.word AND o.list = w.list AND ro.domain = r.domain
			AND ro.id != r.id AND ro.start_time < r.start_time
		)
		ORDER BY w.word
	`, runID, list)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var words []string
	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err != nil {
			return nil, err
		}
		words = append(words, w)
	}
	return words, rows.Err()
}
