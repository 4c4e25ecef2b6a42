package batchdb

import (
	"database/sql"
	"time"
)

const imageColumns = `id, image_path, status, current_stage, error_message,
	created_at, updated_at, completed_at, classification_json, latex, tikz_code, ideas_json`

// AddImage adds an image to the processing queue in pending status.
// Adding an already-registered path is a no-op that returns the existing ID.
func (s *Store) AddImage(imagePath string) (int64, error) {
	result, err := s.conn.Exec(
		"INSERT OR IGNORE INTO images (image_path, status) VALUES (?, ?)",
		imagePath, StatusPending,
	)
	if err != nil {
		return 0, err
	}

	if n, err := result.RowsAffected(); err == nil && n > 0 {
		return result.LastInsertId()
	}

	var id int64
	err = s.conn.QueryRow("SELECT id FROM images WHERE image_path = ?", imagePath).Scan(&id)
	return id, err
}

// UpdateStatus records a status transition. Moving to completed stamps
// completed_at; any other status clears it. stage and errMsg may be nil.
func (s *Store) UpdateStatus(imageID int64, status Status, stage, errMsg *string) error {
	var completedAt *string
	if status == StatusCompleted {
		now := time.Now().Format(time.RFC3339)
		completedAt = &now
	}

	_, err := s.conn.Exec(`
		UPDATE images
		SET status = ?, current_stage = ?, error_message = ?,
		    updated_at = datetime('now'), completed_at = ?
		WHERE id = ?`,
		status, stage, errMsg, completedAt, imageID,
	)
	return err
}

// SaveClassification stores the classification stage payload.
func (s *Store) SaveClassification(imageID int64, classificationJSON string) error {
	return s.savePayload(imageID, "classification_json", classificationJSON)
}

// SaveLatex stores the scanned LaTeX.
func (s *Store) SaveLatex(imageID int64, latex string) error {
	return s.savePayload(imageID, "latex", latex)
}

// SaveTikz stores the generated TikZ code.
func (s *Store) SaveTikz(imageID int64, tikzCode string) error {
	return s.savePayload(imageID, "tikz_code", tikzCode)
}

// SaveIdeas stores the idea extraction payload.
func (s *Store) SaveIdeas(imageID int64, ideasJSON string) error {
	return s.savePayload(imageID, "ideas_json", ideasJSON)
}

func (s *Store) savePayload(imageID int64, column, value string) error {
	_, err := s.conn.Exec(
		"UPDATE images SET "+column+" = ?, updated_at = datetime('now') WHERE id = ?",
		value, imageID,
	)
	return err
}

// GetImage returns an image record by ID, or nil if not found.
func (s *Store) GetImage(imageID int64) (*ImageRecord, error) {
	row := s.conn.QueryRow("SELECT "+imageColumns+" FROM images WHERE id = ?", imageID)
	return scanImage(row)
}

// GetImageByPath returns an image record by path, or nil if not found.
func (s *Store) GetImageByPath(imagePath string) (*ImageRecord, error) {
	row := s.conn.QueryRow("SELECT "+imageColumns+" FROM images WHERE image_path = ?", imagePath)
	return scanImage(row)
}

// GetPendingImages returns the resume queue: every image whose status is
// neither completed nor failed, in insertion order.
func (s *Store) GetPendingImages() ([]ImageRecord, error) {
	rows, err := s.conn.Query(
		"SELECT "+imageColumns+" FROM images WHERE status != ? AND status != ? ORDER BY id",
		StatusCompleted, StatusFailed,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanImages(rows)
}

// GetStats returns queue counts. InProgress is everything not yet counted
// as completed, failed, or pending.
func (s *Store) GetStats() (*Stats, error) {
	stats := &Stats{}
	if err := s.conn.QueryRow("SELECT COUNT(*) FROM images").Scan(&stats.Total); err != nil {
		return nil, err
	}

	counts := map[Status]*int{
		StatusCompleted: &stats.Completed,
		StatusFailed:    &stats.Failed,
		StatusPending:   &stats.Pending,
	}
	for status, dst := range counts {
		err := s.conn.QueryRow("SELECT COUNT(*) FROM images WHERE status = ?", status).Scan(dst)
		if err != nil {
			return nil, err
		}
	}

	stats.InProgress = stats.Total - stats.Completed - stats.Failed - stats.Pending
	return stats, nil
}

// ResetFailed moves every failed image back to pending, clearing its error
// message. Returns the number of images reset.
func (s *Store) ResetFailed() (int64, error) {
	result, err := s.conn.Exec(`
		UPDATE images
		SET status = ?, error_message = NULL, updated_at = datetime('now')
		WHERE status = ?`,
		StatusPending, StatusFailed,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func scanImages(rows *sql.Rows) ([]ImageRecord, error) {
	var records []ImageRecord
	for rows.Next() {
		var r ImageRecord
		if err := rows.Scan(&r.ID, &r.ImagePath, &r.Status, &r.CurrentStage, &r.ErrorMessage,
			&r.CreatedAt, &r.UpdatedAt, &r.CompletedAt,
			&r.ClassificationJSON, &r.Latex, &r.TikzCode, &r.IdeasJSON); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func scanImage(row *sql.Row) (*ImageRecord, error) {
	var r ImageRecord
	err := row.Scan(&r.ID, &r.ImagePath, &r.Status, &r.CurrentStage, &r.ErrorMessage,
		&r.CreatedAt, &r.UpdatedAt, &r.CompletedAt,
		&r.ClassificationJSON, &r.Latex, &r.TikzCode, &r.IdeasJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}
