package batchdb

// SaveVariant upserts the generated LaTeX for one variant type of an image.
// Saving the same (image, type) pair again replaces the previous text.
func (s *Store) SaveVariant(imageID int64, variantType, latex string) error {
	_, err := s.conn.Exec(`
		INSERT OR REPLACE INTO variants (image_id, variant_type, latex)
		VALUES (?, ?, ?)`,
		imageID, variantType, latex,
	)
	return err
}

// GetVariants returns all variants for an image, keyed by variant type.
func (s *Store) GetVariants(imageID int64) (map[string]string, error) {
	rows, err := s.conn.Query(
		"SELECT variant_type, latex FROM variants WHERE image_id = ?", imageID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	variants := make(map[string]string)
	for rows.Next() {
		var variantType, latex string
		if err := rows.Scan(&variantType, &latex); err != nil {
			return nil, err
		}
		variants[variantType] = latex
	}
	return variants, rows.Err()
}

// SaveAlternate appends an alternate-solution LaTeX blob for an image.
// Alternates accumulate; there is no uniqueness constraint.
func (s *Store) SaveAlternate(imageID int64, latex string) error {
	_, err := s.conn.Exec(
		"INSERT INTO alternates (image_id, latex) VALUES (?, ?)",
		imageID, latex,
	)
	return err
}

// GetAlternates returns all alternate solutions for an image in insertion order.
func (s *Store) GetAlternates(imageID int64) ([]string, error) {
	rows, err := s.conn.Query(
		"SELECT latex FROM alternates WHERE image_id = ? ORDER BY id", imageID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alternates []string
	for rows.Next() {
		var latex string
		if err := rows.Scan(&latex); err != nil {
			return nil, err
		}
		alternates = append(alternates, latex)
	}
	return alternates, rows.Err()
}
