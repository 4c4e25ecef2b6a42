package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseDefaultConfig(t *testing.T) {
	cfg, err := parse(DefaultConfigYAML)
	if err != nil {
		t.Fatalf("failed to parse default config: %v", err)
	}

	if cfg.LLM.Provider != "ollama" {
		t.Errorf("expected provider 'ollama', got %q", cfg.LLM.Provider)
	}
	if cfg.LLM.VisionModel != "llama3.2-vision" {
		t.Errorf("expected vision model 'llama3.2-vision', got %q", cfg.LLM.VisionModel)
	}
	if len(cfg.Batch.VariantTypes) != 3 {
		t.Errorf("expected 3 variant types, got %v", cfg.Batch.VariantTypes)
	}
	if cfg.Review.MinConfidence != 0.8 {
		t.Errorf("expected min confidence 0.8, got %f", cfg.Review.MinConfidence)
	}
}

func TestParseMinimalConfig(t *testing.T) {
	data := []byte(`
llm:
  provider: openai
  openai_model: gpt-4o-mini
review:
  batch_size: 25
`)
	cfg, err := parse(data)
	if err != nil {
		t.Fatalf("failed to parse minimal config: %v", err)
	}

	if cfg.LLM.Provider != "openai" {
		t.Errorf("expected provider 'openai', got %q", cfg.LLM.Provider)
	}
	if cfg.Review.BatchSize != 25 {
		t.Errorf("expected batch size 25, got %d", cfg.Review.BatchSize)
	}
	// Defaults should still be set for unspecified fields
	if cfg.LLM.OllamaURL != "http://localhost:11434" {
		t.Errorf("expected default ollama_url, got %q", cfg.LLM.OllamaURL)
	}
	if cfg.Batch.ImagesDir != "images" {
		t.Errorf("expected default images dir, got %q", cfg.Batch.ImagesDir)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, DefaultConfigYAML, 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.LLM.Model == "" {
		t.Error("expected model populated from file")
	}
}

func TestResolveExplicitMissing(t *testing.T) {
	_, err := ResolveConfigPath(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Error("expected error for missing explicit config")
	}
}

func TestGetOutputDir(t *testing.T) {
	cfg := &Config{}
	if cfg.GetOutputDir() != "output" {
		t.Errorf("expected default output dir, got %q", cfg.GetOutputDir())
	}

	cfg.Output.Dir = "/custom/path"
	if cfg.GetOutputDir() != "/custom/path" {
		t.Errorf("expected '/custom/path', got %q", cfg.GetOutputDir())
	}
}
