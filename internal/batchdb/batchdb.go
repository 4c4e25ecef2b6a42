// Package batchdb is the durable queue behind batch image processing.
// Each source image gets one row whose status walks the pipeline stages,
// so an interrupted run resumes from the last recorded stage.
package batchdb

import (
	"database/sql"
	"path/filepath"

	"github.com/vaibhavblayer/vbagent-sub000/internal/sqlitedb"
)

// DBName is the batch database file created inside the base directory.
const DBName = ".vbagent_batch.db"

// Store wraps the batch processing database.
type Store struct {
	conn *sql.DB
	path string
}

var migrations = []sqlitedb.Migration{
	{
		Version:     1,
		Description: "initial batch schema",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS images (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    image_path TEXT UNIQUE NOT NULL,
    status TEXT NOT NULL DEFAULT 'pending',
    current_stage TEXT,
    error_message TEXT,
    created_at TEXT DEFAULT (datetime('now')),
    updated_at TEXT DEFAULT (datetime('now')),
    completed_at TEXT,
    classification_json TEXT,
    latex TEXT,
    tikz_code TEXT,
    ideas_json TEXT
);

CREATE TABLE IF NOT EXISTS variants (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    image_id INTEGER NOT NULL REFERENCES images(id),
    variant_type TEXT NOT NULL,
    latex TEXT,
    created_at TEXT DEFAULT (datetime('now')),
    UNIQUE(image_id, variant_type)
);

CREATE TABLE IF NOT EXISTS alternates (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    image_id INTEGER NOT NULL REFERENCES images(id),
    latex TEXT,
    created_at TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS batch_config (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    images_dir TEXT NOT NULL,
    output_dir TEXT NOT NULL,
    variant_types TEXT,
    generate_alternates INTEGER DEFAULT 0,
    use_context INTEGER DEFAULT 1,
    created_at TEXT DEFAULT (datetime('now'))
);
`)
			return err
		},
	},
}

// Open creates or opens the batch database inside baseDir.
func Open(baseDir string) (*Store, error) {
	dbPath := filepath.Join(baseDir, DBName)
	conn, err := sqlitedb.Open(dbPath, migrations, "images")
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
