package batchdb

import (
	"database/sql"
	"strings"
)

// SaveConfig overwrites the batch configuration singleton row.
func (s *Store) SaveConfig(cfg Config) error {
	_, err := s.conn.Exec(`
		INSERT OR REPLACE INTO batch_config
		(id, images_dir, output_dir, variant_types, generate_alternates, use_context)
		VALUES (1, ?, ?, ?, ?, ?)`,
		cfg.ImagesDir,
		cfg.OutputDir,
		strings.Join(cfg.VariantTypes, ","),
		boolToInt(cfg.GenerateAlternates),
		boolToInt(cfg.UseContext),
	)
	return err
}

// GetConfig returns the saved batch configuration, or nil if the batch was
// never initialized.
func (s *Store) GetConfig() (*Config, error) {
	var cfg Config
	var variantTypes string
	var generateAlternates, useContext int

	err := s.conn.QueryRow(`
		SELECT images_dir, output_dir, variant_types, generate_alternates, use_context
		FROM batch_config WHERE id = 1`,
	).Scan(&cfg.ImagesDir, &cfg.OutputDir, &variantTypes, &generateAlternates, &useContext)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if variantTypes != "" {
		cfg.VariantTypes = strings.Split(variantTypes, ",")
	}
	cfg.GenerateAlternates = generateAlternates != 0
	cfg.UseContext = useContext != 0
	return &cfg, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
