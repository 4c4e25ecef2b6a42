package versiondb

// MarkFileChecked records that a checker processed a file, replacing any
// earlier outcome for the same (file, checker, directory).
func (s *Store) MarkFileChecked(filePath, checkerType, outputDir string, passed bool) error {
	passedInt := 0
	if passed {
		passedInt = 1
	}
	_, err := s.conn.Exec(`
		INSERT INTO checker_progress (file_path, checker_type, output_dir, passed)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(file_path, checker_type, output_dir)
		DO UPDATE SET passed = excluded.passed, checked_at = datetime('now')`,
		filePath, checkerType, outputDir, passedInt,
	)
	return err
}

// IsFileChecked reports whether a checker has already processed a file.
func (s *Store) IsFileChecked(filePath, checkerType, outputDir string) (bool, error) {
	var count int
	err := s.conn.QueryRow(`
		SELECT COUNT(*) FROM checker_progress
		WHERE file_path = ? AND checker_type = ? AND output_dir = ?`,
		filePath, checkerType, outputDir,
	).Scan(&count)
	return count > 0, err
}

// GetCheckedFiles returns the set of files a checker has processed in a
// directory, for skipping on resumed runs.
func (s *Store) GetCheckedFiles(checkerType, outputDir string) (map[string]bool, error) {
	rows, err := s.conn.Query(
		"SELECT file_path FROM checker_progress WHERE checker_type = ? AND output_dir = ?",
		checkerType, outputDir,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	checked := make(map[string]bool)
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, err
		}
		checked[path] = true
	}
	return checked, rows.Err()
}

// GetCheckerStats summarizes a checker's progress in a directory.
func (s *Store) GetCheckerStats(checkerType, outputDir string) (*CheckerStats, error) {
	var stats CheckerStats
	err := s.conn.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(passed), 0) FROM checker_progress
		WHERE checker_type = ? AND output_dir = ?`,
		checkerType, outputDir,
	).Scan(&stats.Total, &stats.Passed)
	if err != nil {
		return nil, err
	}
	stats.Failed = stats.Total - stats.Passed
	return &stats, nil
}

// ResetCheckerProgress deletes progress rows so files get re-checked. A nil
// or empty filePaths resets the checker's whole directory. Returns the
// number of rows removed.
func (s *Store) ResetCheckerProgress(checkerType, outputDir string, filePaths []string) (int, error) {
	query := "DELETE FROM checker_progress WHERE checker_type = ? AND output_dir = ?"
	args := []any{checkerType, outputDir}
	if len(filePaths) > 0 {
		query += " AND file_path IN (" + placeholders(len(filePaths)) + ")"
		for _, path := range filePaths {
			args = append(args, path)
		}
	}

	result, err := s.conn.Exec(query, args...)
	if err != nil {
		return 0, err
	}
	n, err := result.RowsAffected()
	return int(n), err
}
