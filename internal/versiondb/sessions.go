package versiondb

import (
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"
)

// CreateSession starts a new review session and returns its ID.
func (s *Store) CreateSession() (string, error) {
	sessionID := uuid.NewString()
	_, err := s.conn.Exec("INSERT INTO review_sessions (id) VALUES (?)", sessionID)
	if err != nil {
		return "", err
	}
	return sessionID, nil
}

// UpdateSession overwrites the provided counters with the caller's current
// running totals (not deltas). completed stamps completed_at.
func (s *Store) UpdateSession(sessionID string, counts SessionCounts, completed bool) error {
	var updates []string
	var args []any

	set := func(column string, value *int) {
		if value != nil {
			updates = append(updates, column+" = ?")
			args = append(args, *value)
		}
	}
	set("problems_reviewed", counts.ProblemsReviewed)
	set("suggestions_made", counts.SuggestionsMade)
	set("approved_count", counts.ApprovedCount)
	set("rejected_count", counts.RejectedCount)
	set("skipped_count", counts.SkippedCount)

	if completed {
		updates = append(updates, "completed_at = datetime('now')")
	}
	if len(updates) == 0 {
		return nil
	}

	query := "UPDATE review_sessions SET " + updates[0]
	for _, u := range updates[1:] {
		query += ", " + u
	}
	query += " WHERE id = ?"
	args = append(args, sessionID)

	_, err := s.conn.Exec(query, args...)
	return err
}

// SaveSessionState persists the resume state: which directory is being
// reviewed and which problems have not been reviewed yet.
func (s *Store) SaveSessionState(sessionID, outputDir string, remainingProblems []string) error {
	remaining, err := json.Marshal(remainingProblems)
	if err != nil {
		return err
	}
	_, err = s.conn.Exec(
		"UPDATE review_sessions SET output_dir = ?, remaining_problems = ? WHERE id = ?",
		outputDir, string(remaining), sessionID,
	)
	return err
}

const sessionColumns = `id, started_at, completed_at, problems_reviewed, suggestions_made,
	approved_count, rejected_count, skipped_count, output_dir, remaining_problems`

// GetSession returns a session by ID, or nil if not found.
func (s *Store) GetSession(sessionID string) (*Session, error) {
	row := s.conn.QueryRow(
		"SELECT "+sessionColumns+" FROM review_sessions WHERE id = ?", sessionID,
	)
	sess, err := scanSession(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// GetIncompleteSessions returns interrupted sessions (no completed_at),
// newest first, for the resume prompt.
func (s *Store) GetIncompleteSessions() ([]Session, error) {
	rows, err := s.conn.Query(
		"SELECT " + sessionColumns + ` FROM review_sessions
		WHERE completed_at IS NULL ORDER BY started_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		sess, err := scanSession(rows.Scan)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *sess)
	}
	return sessions, rows.Err()
}

// DeleteSession removes a session and its suggestions. Returns false if the
// session does not exist.
func (s *Store) DeleteSession(sessionID string) (bool, error) {
	var id string
	err := s.conn.QueryRow("SELECT id FROM review_sessions WHERE id = ?", sessionID).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if _, err := s.conn.Exec("DELETE FROM suggestions WHERE session_id = ?", sessionID); err != nil {
		return false, err
	}
	if _, err := s.conn.Exec("DELETE FROM review_sessions WHERE id = ?", sessionID); err != nil {
		return false, err
	}
	return true, nil
}

func scanSession(scan func(...any) error) (*Session, error) {
	var sess Session
	var remaining *string
	err := scan(&sess.ID, &sess.StartedAt, &sess.CompletedAt,
		&sess.ProblemsReviewed, &sess.SuggestionsMade,
		&sess.ApprovedCount, &sess.RejectedCount, &sess.SkippedCount,
		&sess.OutputDir, &remaining)
	if err != nil {
		return nil, err
	}
	if remaining != nil && *remaining != "" {
		if err := json.Unmarshal([]byte(*remaining), &sess.RemainingProblems); err != nil {
			return nil, err
		}
	}
	return &sess, nil
}
