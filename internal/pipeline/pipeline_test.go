package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vaibhavblayer/vbagent-sub000/internal/agents"
	"github.com/vaibhavblayer/vbagent-sub000/internal/batchdb"
)

// scriptedProvider answers each prompt kind with a canned response and
// can be told to fail on a given stage.
type scriptedProvider struct {
	failOn string
}

func (s *scriptedProvider) respond(prompt string) (string, error) {
	switch {
	case strings.Contains(prompt, "classifying a physics exam question"):
		if s.failOn == "classify" {
			return "", fmt.Errorf("classify blew up")
		}
		return `{"question_type": "mcq_sc", "difficulty": "medium", "topic": "kinematics",
			"subtopic": "projectiles", "has_diagram": true, "diagram_type": "graph",
			"num_options": 4, "estimated_marks": 3, "key_concepts": ["range"],
			"requires_calculus": false, "confidence": 0.9}`, nil
	case strings.Contains(prompt, "transcribing a physics exam question"):
		if s.failOn == "scan" {
			return "", fmt.Errorf("scan blew up")
		}
		return `{"latex": "\\begin{problem}q\\end{problem}", "has_diagram": true,
			"diagram_description": "velocity-time graph"}`, nil
	case strings.Contains(prompt, "TikZ code"):
		return "\\begin{tikzpicture}\\end{tikzpicture}", nil
	case strings.Contains(prompt, "underlying ideas"):
		return `{"concepts": ["kinematics"], "formulas": [], "techniques": [], "difficulty_factors": []}`, nil
	case strings.Contains(prompt, "alternate solution"):
		return "\\textbf{Alternate:} use energy conservation.", nil
	case strings.Contains(prompt, "creating a variant"):
		return "\\begin{problem}variant\\end{problem}", nil
	}
	return "", fmt.Errorf("unexpected prompt: %.60s", prompt)
}

func (s *scriptedProvider) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	return s.respond(prompt)
}

func (s *scriptedProvider) GenerateVision(ctx context.Context, prompt, imagePath string, maxTokens int) (string, error) {
	return s.respond(prompt)
}

func (s *scriptedProvider) IsConfigured() bool { return true }

func setup(t *testing.T, failOn string) (*Pipeline, *batchdb.Store, string, string) {
	t.Helper()
	base := t.TempDir()
	imagesDir := filepath.Join(base, "images")
	outputDir := filepath.Join(base, "out")
	if err := os.MkdirAll(imagesDir, 0o755); err != nil {
		t.Fatalf("failed to create images dir: %v", err)
	}
	for _, name := range []string{"q1.png", "q2.png", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(imagesDir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}

	store, err := batchdb.Open(base)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	p := New(store, agents.New(&scriptedProvider{failOn: failOn}, 0))
	return p, store, imagesDir, outputDir
}

func TestInitBatchDiscoversImages(t *testing.T) {
	p, store, imagesDir, outputDir := setup(t, "")

	count, err := p.InitBatch(imagesDir, batchdb.Config{
		OutputDir:    outputDir,
		VariantTypes: []string{"numerical"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 images discovered, got %d", count)
	}

	// Re-running init must not duplicate registrations.
	count, err = p.InitBatch(imagesDir, batchdb.Config{OutputDir: outputDir})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stats, _ := store.GetStats()
	if stats.Total != 2 {
		t.Errorf("expected 2 rows after re-init, got %d", stats.Total)
	}

	cfg, _ := store.GetConfig()
	if cfg == nil || cfg.ImagesDir != imagesDir {
		t.Error("expected batch config saved")
	}
}

func TestInitBatchEmptyDir(t *testing.T) {
	p, _, _, outputDir := setup(t, "")
	empty := t.TempDir()
	if _, err := p.InitBatch(empty, batchdb.Config{OutputDir: outputDir}); err == nil {
		t.Error("expected error for directory without images")
	}
}

func TestRunCompletesAndWritesOutputs(t *testing.T) {
	p, store, imagesDir, outputDir := setup(t, "")
	p.InitBatch(imagesDir, batchdb.Config{
		OutputDir:          outputDir,
		VariantTypes:       []string{"numerical", "context"},
		GenerateAlternates: true,
	})

	result, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Completed != 2 || result.Failed != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}

	stats, _ := store.GetStats()
	if stats.Completed != 2 {
		t.Errorf("expected 2 completed in store, got %d", stats.Completed)
	}

	for _, path := range []string{
		"scans/q1.tex",
		"classifications/q1.json",
		"tikz/q1.tex",
		"ideas/q1.json",
		"alternates/q1.tex",
		"variants/numerical/q1.tex",
		"variants/context/q2.tex",
	} {
		if _, err := os.Stat(filepath.Join(outputDir, path)); err != nil {
			t.Errorf("expected output file %s: %v", path, err)
		}
	}

	record, _ := store.GetImageByPath(filepath.Join(imagesDir, "q1.png"))
	if record.Latex == nil || record.TikzCode == nil || record.IdeasJSON == nil {
		t.Error("expected stage payloads persisted")
	}
	variants, _ := store.GetVariants(record.ID)
	if len(variants) != 2 {
		t.Errorf("expected 2 variants persisted, got %d", len(variants))
	}
}

func TestRunRecordsFailureAndContinues(t *testing.T) {
	p, store, imagesDir, outputDir := setup(t, "scan")
	p.InitBatch(imagesDir, batchdb.Config{OutputDir: outputDir})

	result, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Failed != 2 || result.Completed != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}

	stats, _ := store.GetStats()
	if stats.Failed != 2 {
		t.Errorf("expected 2 failed, got %d", stats.Failed)
	}
	record, _ := store.GetImageByPath(filepath.Join(imagesDir, "q1.png"))
	if record.ErrorMessage == nil || !strings.Contains(*record.ErrorMessage, "scan") {
		t.Error("expected scan failure recorded on the image")
	}

	// After reset-failed the images are pending again and a fixed run succeeds.
	store.ResetFailed()
	p2 := New(store, agents.New(&scriptedProvider{}, 0))
	result, _ = p2.Run(context.Background())
	if result.Completed != 2 {
		t.Errorf("expected resumed run to complete, got %+v", result)
	}
}

func TestRunWithoutInit(t *testing.T) {
	p, _, _, _ := setup(t, "")
	if _, err := p.Run(context.Background()); err == nil {
		t.Error("expected error when batch was never initialized")
	}
}
