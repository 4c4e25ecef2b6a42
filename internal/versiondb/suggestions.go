package versiondb

import (
	"database/sql"
	"strconv"
)

// nextVersion returns max(version)+1 for a (problem, file) pair, starting at 1.
func (s *Store) nextVersion(problemID, filePath string) (int, error) {
	var max sql.NullInt64
	err := s.conn.QueryRow(
		"SELECT MAX(version) FROM suggestions WHERE problem_id = ? AND file_path = ?",
		problemID, filePath,
	).Scan(&max)
	if err != nil {
		return 0, err
	}
	return int(max.Int64) + 1, nil
}

// SaveSuggestion stores a new suggestion under the next version for its
// (problem, file) pair and returns the row ID. Suggestions are immutable
// after creation except for their status.
func (s *Store) SaveSuggestion(sug Suggestion, problemID string, status SuggestionStatus, sessionID *string) (int64, error) {
	version, err := s.nextVersion(problemID, sug.FilePath)
	if err != nil {
		return 0, err
	}

	result, err := s.conn.Exec(`
		INSERT INTO suggestions (
			version, problem_id, file_path, issue_type, description,
			reasoning, confidence, original_content, suggested_content,
			diff, status, session_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		version, problemID, sug.FilePath, sug.IssueType, sug.Description,
		sug.Reasoning, sug.Confidence, sug.OriginalContent, sug.SuggestedContent,
		sug.Diff, status, sessionID,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

const suggestionColumns = `id, version, problem_id, file_path, issue_type, description,
	reasoning, confidence, original_content, suggested_content, diff, status, session_id, created_at`

// GetVersions returns stored suggestions filtered by problem and/or file,
// newest first. Both filters are optional.
func (s *Store) GetVersions(problemID, filePath *string) ([]StoredSuggestion, error) {
	query := "SELECT " + suggestionColumns + " FROM suggestions"
	var conditions []string
	var args []any

	if problemID != nil {
		conditions = append(conditions, "problem_id = ?")
		args = append(args, *problemID)
	}
	if filePath != nil {
		conditions = append(conditions, "file_path = ?")
		args = append(args, *filePath)
	}
	if len(conditions) > 0 {
		query += " WHERE " + conditions[0]
		if len(conditions) == 2 {
			query += " AND " + conditions[1]
		}
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := s.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSuggestions(rows)
}

// GetSuggestion returns a suggestion by ID, or nil if not found.
func (s *Store) GetSuggestion(id int64) (*StoredSuggestion, error) {
	row := s.conn.QueryRow("SELECT "+suggestionColumns+" FROM suggestions WHERE id = ?", id)
	sug, err := scanSuggestion(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return sug, nil
}

// UpdateStatus mutates a suggestion's status in place. Content, diff, and
// version never change after creation.
func (s *Store) UpdateStatus(id int64, status SuggestionStatus) error {
	_, err := s.conn.Exec("UPDATE suggestions SET status = ? WHERE id = ?", status, id)
	return err
}

func scanSuggestions(rows *sql.Rows) ([]StoredSuggestion, error) {
	var suggestions []StoredSuggestion
	for rows.Next() {
		var sug StoredSuggestion
		if err := rows.Scan(&sug.ID, &sug.Version, &sug.ProblemID, &sug.FilePath,
			&sug.IssueType, &sug.Description, &sug.Reasoning, &sug.Confidence,
			&sug.OriginalContent, &sug.SuggestedContent, &sug.Diff,
			&sug.Status, &sug.SessionID, &sug.CreatedAt); err != nil {
			return nil, err
		}
		suggestions = append(suggestions, sug)
	}
	return suggestions, rows.Err()
}

func scanSuggestion(row *sql.Row) (*StoredSuggestion, error) {
	var sug StoredSuggestion
	err := row.Scan(&sug.ID, &sug.Version, &sug.ProblemID, &sug.FilePath,
		&sug.IssueType, &sug.Description, &sug.Reasoning, &sug.Confidence,
		&sug.OriginalContent, &sug.SuggestedContent, &sug.Diff,
		&sug.Status, &sug.SessionID, &sug.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &sug, nil
}

// GetStats aggregates review statistics, optionally limited to the last
// N days (days <= 0 means all time). The approval rate is
// approved / (approved + rejected), 0.0 when nothing has been decided.
func (s *Store) GetStats(days int) (*ReviewStats, error) {
	dateFilter := ""
	var args []any
	if days > 0 {
		dateFilter = " WHERE created_at >= datetime('now', ?)"
		args = append(args, "-"+strconv.Itoa(days)+" days")
	}

	stats := &ReviewStats{IssuesByType: make(map[string]int)}

	err := s.conn.QueryRow("SELECT COUNT(*) FROM suggestions"+dateFilter, args...).
		Scan(&stats.TotalSuggestions)
	if err != nil {
		return nil, err
	}

	rows, err := s.conn.Query(
		"SELECT status, COUNT(*) FROM suggestions"+dateFilter+" GROUP BY status", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		switch SuggestionStatus(status) {
		case SuggestionApproved:
			stats.ApprovedCount = count
		case SuggestionRejected:
			stats.RejectedCount = count
		case SuggestionPending:
			stats.PendingCount = count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	issueRows, err := s.conn.Query(
		"SELECT issue_type, COUNT(*) FROM suggestions"+dateFilter+" GROUP BY issue_type", args...)
	if err != nil {
		return nil, err
	}
	defer issueRows.Close()
	for issueRows.Next() {
		var issue string
		var count int
		if err := issueRows.Scan(&issue, &count); err != nil {
			return nil, err
		}
		stats.IssuesByType[issue] = count
	}
	if err := issueRows.Err(); err != nil {
		return nil, err
	}

	sessionFilter := ""
	var sessionArgs []any
	if days > 0 {
		sessionFilter = " WHERE started_at >= datetime('now', ?)"
		sessionArgs = append(sessionArgs, "-"+strconv.Itoa(days)+" days")
	}
	err = s.conn.QueryRow(`
		SELECT COALESCE(SUM(problems_reviewed), 0), COALESCE(SUM(skipped_count), 0)
		FROM review_sessions`+sessionFilter, sessionArgs...).
		Scan(&stats.TotalReviewed, &stats.SkippedCount)
	if err != nil {
		return nil, err
	}

	if decided := stats.ApprovedCount + stats.RejectedCount; decided > 0 {
		stats.ApprovalRate = float64(stats.ApprovedCount) / float64(decided)
	}
	return stats, nil
}
