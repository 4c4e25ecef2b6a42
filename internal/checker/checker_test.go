package checker

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vaibhavblayer/vbagent-sub000/internal/agents"
	"github.com/vaibhavblayer/vbagent-sub000/internal/versiondb"
)

// checkProvider fails any file whose content contains "BAD".
type checkProvider struct{}

func (p *checkProvider) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if strings.Contains(prompt, "BAD") {
		return `{"passed": false, "summary": "issue found", "suggestions": [{
			"issue_type": "grammar",
			"file_path": "placeholder",
			"description": "typo",
			"reasoning": "misspelled word",
			"confidence": 0.7,
			"original_content": "BAD",
			"suggested_content": "GOOD"
		}]}`, nil
	}
	return `{"passed": true, "summary": "ok", "suggestions": []}`, nil
}

func (p *checkProvider) GenerateVision(ctx context.Context, prompt, imagePath string, maxTokens int) (string, error) {
	return p.Generate(ctx, prompt, maxTokens)
}

func (p *checkProvider) IsConfigured() bool { return true }

func setup(t *testing.T) (*Checker, *versiondb.Store, string) {
	t.Helper()
	outputDir := t.TempDir()
	scans := filepath.Join(outputDir, "scans")
	if err := os.MkdirAll(scans, 0o755); err != nil {
		t.Fatalf("failed to create scans dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(scans, "P1.tex"), []byte("fine content"), 0o644); err != nil {
		t.Fatalf("failed to write P1: %v", err)
	}
	if err := os.WriteFile(filepath.Join(scans, "P2.tex"), []byte("BAD content"), 0o644); err != nil {
		t.Fatalf("failed to write P2: %v", err)
	}

	store, err := versiondb.Open(t.TempDir())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return New(store, agents.New(&checkProvider{}, 0)), store, outputDir
}

func TestRunChecksAllFiles(t *testing.T) {
	c, store, outputDir := setup(t)

	result, err := c.Run(context.Background(), "grammar", outputDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Checked != 2 || result.Passed != 1 || result.Failed != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.Suggestions != 1 {
		t.Errorf("expected 1 suggestion saved, got %d", result.Suggestions)
	}

	stats, _ := store.GetCheckerStats("grammar", outputDir)
	if stats.Total != 2 || stats.Passed != 1 || stats.Failed != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}

	suggestions, _ := store.GetVersions(nil, nil)
	if len(suggestions) != 1 || suggestions[0].ProblemID != "P2" {
		t.Errorf("expected suggestion for P2, got %+v", suggestions)
	}
}

func TestRunSkipsAlreadyChecked(t *testing.T) {
	c, _, outputDir := setup(t)

	first, _ := c.Run(context.Background(), "grammar", outputDir)
	if first.Checked != 2 {
		t.Fatalf("unexpected first run: %+v", first)
	}

	second, err := c.Run(context.Background(), "grammar", outputDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.Checked != 0 || second.Skipped != 2 {
		t.Errorf("expected everything skipped on rerun, got %+v", second)
	}
}

func TestResetForcesRecheck(t *testing.T) {
	c, _, outputDir := setup(t)
	c.Run(context.Background(), "grammar", outputDir)

	count, err := c.Reset("grammar", outputDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 progress rows removed, got %d", count)
	}

	rerun, _ := c.Run(context.Background(), "grammar", outputDir)
	if rerun.Checked != 2 {
		t.Errorf("expected full recheck after reset, got %+v", rerun)
	}
}

func TestTikzCheckerOnlySeesTikzFiles(t *testing.T) {
	c, _, outputDir := setup(t)

	// No tikz/ directory exists, so the tikz checker has no candidates.
	if _, err := c.Run(context.Background(), "tikz", outputDir); err == nil {
		t.Error("expected error when no tikz files exist")
	}

	tikzDir := filepath.Join(outputDir, "tikz")
	if err := os.MkdirAll(tikzDir, 0o755); err != nil {
		t.Fatalf("failed to create tikz dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(tikzDir, "P1.tex"), []byte("\\begin{tikzpicture}"), 0o644); err != nil {
		t.Fatalf("failed to write tikz file: %v", err)
	}

	result, err := c.Run(context.Background(), "tikz", outputDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Checked != 1 {
		t.Errorf("expected only the tikz file checked, got %+v", result)
	}
}
