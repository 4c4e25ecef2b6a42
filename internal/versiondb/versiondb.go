// Package versiondb stores reviewer suggestions with per-(problem, file)
// version numbering, review-session bookkeeping for resumable interactive
// sessions, per-problem check tracking, and per-(file, checker) progress
// used to skip already-processed files across runs.
package versiondb

import (
	"database/sql"
	"path/filepath"

	"github.com/vaibhavblayer/vbagent-sub000/internal/sqlitedb"
)

// DBName is the version database file created inside the base directory.
const DBName = ".vbagent_versions.db"

// Store wraps the version/suggestion database.
type Store struct {
	conn *sql.DB
	path string
}

// Migration 1 matches the schema the tool shipped with; migration 2 adds
// the session-resume columns that used to be bolted on lazily. Databases
// created before versioning existed are stamped at 1 and upgraded.
var migrations = []sqlitedb.Migration{
	{
		Version:     1,
		Description: "initial version store schema",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS suggestions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    version INTEGER NOT NULL,
    problem_id TEXT NOT NULL,
    file_path TEXT NOT NULL,
    issue_type TEXT NOT NULL,
    description TEXT NOT NULL,
    reasoning TEXT NOT NULL,
    confidence REAL NOT NULL,
    original_content TEXT NOT NULL,
    suggested_content TEXT NOT NULL,
    diff TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'pending',
    session_id TEXT,
    created_at TEXT DEFAULT (datetime('now')),
    UNIQUE(problem_id, file_path, version)
);

CREATE TABLE IF NOT EXISTS review_sessions (
    id TEXT PRIMARY KEY,
    started_at TEXT DEFAULT (datetime('now')),
    completed_at TEXT,
    problems_reviewed INTEGER DEFAULT 0,
    suggestions_made INTEGER DEFAULT 0,
    approved_count INTEGER DEFAULT 0,
    rejected_count INTEGER DEFAULT 0,
    skipped_count INTEGER DEFAULT 0
);

CREATE TABLE IF NOT EXISTS problem_checks (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    problem_id TEXT NOT NULL,
    output_dir TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'pending',
    suggestion_count INTEGER DEFAULT 0,
    checked_at TEXT,
    created_at TEXT DEFAULT (datetime('now')),
    UNIQUE(problem_id, output_dir)
);

CREATE TABLE IF NOT EXISTS checker_progress (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    file_path TEXT NOT NULL,
    checker_type TEXT NOT NULL,
    output_dir TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'checked',
    passed INTEGER DEFAULT 0,
    checked_at TEXT DEFAULT (datetime('now')),
    UNIQUE(file_path, checker_type, output_dir)
);

CREATE INDEX IF NOT EXISTS idx_suggestions_problem ON suggestions(problem_id);
CREATE INDEX IF NOT EXISTS idx_suggestions_status ON suggestions(status);
CREATE INDEX IF NOT EXISTS idx_suggestions_created ON suggestions(created_at);
CREATE INDEX IF NOT EXISTS idx_problem_checks_status ON problem_checks(status);
CREATE INDEX IF NOT EXISTS idx_problem_checks_dir ON problem_checks(output_dir);
CREATE INDEX IF NOT EXISTS idx_checker_progress_type ON checker_progress(checker_type, output_dir);
`)
			return err
		},
	},
	{
		Version:     2,
		Description: "session resume state columns",
		Up: func(tx *sql.Tx) error {
			// Legacy databases may already carry these columns from the
			// era when they were added lazily, so check before altering.
			cols, err := tableColumns(tx, "review_sessions")
			if err != nil {
				return err
			}
			if !cols["output_dir"] {
				if _, err := tx.Exec("ALTER TABLE review_sessions ADD COLUMN output_dir TEXT"); err != nil {
					return err
				}
			}
			if !cols["remaining_problems"] {
				if _, err := tx.Exec("ALTER TABLE review_sessions ADD COLUMN remaining_problems TEXT"); err != nil {
					return err
				}
			}
			return nil
		},
	},
}

func tableColumns(tx *sql.Tx, table string) (map[string]bool, error) {
	rows, err := tx.Query("SELECT name FROM pragma_table_info(?)", table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		cols[name] = true
	}
	return cols, rows.Err()
}

// Open creates or opens the version database inside baseDir.
func Open(baseDir string) (*Store, error) {
	dbPath := filepath.Join(baseDir, DBName)
	conn, err := sqlitedb.Open(dbPath, migrations, "suggestions")
	if err != nil {
		return nil, err
	}
	return &Store{conn: conn, path: dbPath}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}
