package versiondb

import "strings"

// ProblemCheck is one problem's QA state within an output directory.
type ProblemCheck struct {
	ID              int64
	ProblemID       string
	OutputDir       string
	Status          CheckStatus
	SuggestionCount int
	CheckedAt       *string
	CreatedAt       *string
}

// InitProblemChecks registers problems as pending for a directory and
// returns how many rows were newly inserted. Already-registered problems
// keep their state unless reset is set, which clears prior state for the
// given problems only; other problems in the directory are untouched.
func (s *Store) InitProblemChecks(problemIDs []string, outputDir string, reset bool) (int, error) {
	if reset && len(problemIDs) > 0 {
		query := "DELETE FROM problem_checks WHERE output_dir = ? AND problem_id IN (" +
			placeholders(len(problemIDs)) + ")"
		args := []any{outputDir}
		for _, id := range problemIDs {
			args = append(args, id)
		}
		if _, err := s.conn.Exec(query, args...); err != nil {
			return 0, err
		}
	}

	added := 0
	for _, problemID := range problemIDs {
		result, err := s.conn.Exec(
			"INSERT OR IGNORE INTO problem_checks (problem_id, output_dir) VALUES (?, ?)",
			problemID, outputDir,
		)
		if err != nil {
			return added, err
		}
		n, err := result.RowsAffected()
		if err != nil {
			return added, err
		}
		added += int(n)
	}
	return added, nil
}

// UpdateProblemCheck records a check outcome and stamps checked_at.
func (s *Store) UpdateProblemCheck(problemID, outputDir string, status CheckStatus, suggestionCount int) error {
	_, err := s.conn.Exec(`
		UPDATE problem_checks
		SET status = ?, suggestion_count = ?, checked_at = datetime('now')
		WHERE problem_id = ? AND output_dir = ?`,
		status, suggestionCount, problemID, outputDir,
	)
	return err
}

// GetPendingProblems returns up to limit pending problem IDs for a
// directory in registration order. limit <= 0 means no limit.
func (s *Store) GetPendingProblems(outputDir string, limit int) ([]string, error) {
	query := `SELECT problem_id FROM problem_checks
		WHERE output_dir = ? AND status = 'pending' ORDER BY id`
	args := []any{outputDir}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return s.queryProblemIDs(query, args...)
}

// GetProblemsByStatus returns problem IDs in a directory with the given status.
func (s *Store) GetProblemsByStatus(outputDir string, status CheckStatus) ([]string, error) {
	return s.queryProblemIDs(
		`SELECT problem_id FROM problem_checks
		WHERE output_dir = ? AND status = ? ORDER BY id`,
		outputDir, status,
	)
}

func (s *Store) queryProblemIDs(query string, args ...any) ([]string, error) {
	rows, err := s.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GetProblemCheckStats returns per-status counts for a directory, plus a
// "total" entry.
func (s *Store) GetProblemCheckStats(outputDir string) (map[string]int, error) {
	rows, err := s.conn.Query(
		"SELECT status, COUNT(*) FROM problem_checks WHERE output_dir = ? GROUP BY status",
		outputDir,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := map[string]int{"total": 0}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
		stats["total"] += count
	}
	return stats, rows.Err()
}

// ResetProblemChecks puts problems back to pending, clearing their check
// results. A nil or empty problemIDs resets the whole directory. Returns
// the number of rows reset.
func (s *Store) ResetProblemChecks(outputDir string, problemIDs []string) (int, error) {
	query := `UPDATE problem_checks
		SET status = 'pending', suggestion_count = 0, checked_at = NULL
		WHERE output_dir = ?`
	args := []any{outputDir}
	if len(problemIDs) > 0 {
		query += " AND problem_id IN (" + placeholders(len(problemIDs)) + ")"
		for _, id := range problemIDs {
			args = append(args, id)
		}
	}

	result, err := s.conn.Exec(query, args...)
	if err != nil {
		return 0, err
	}
	n, err := result.RowsAffected()
	return int(n), err
}

// ClearProblemChecks deletes all check rows for a directory and returns
// how many were removed.
func (s *Store) ClearProblemChecks(outputDir string) (int, error) {
	result, err := s.conn.Exec(
		"DELETE FROM problem_checks WHERE output_dir = ?", outputDir)
	if err != nil {
		return 0, err
	}
	n, err := result.RowsAffected()
	return int(n), err
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
