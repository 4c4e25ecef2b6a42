package agents

import (
	"context"
	"testing"

	"github.com/vaibhavblayer/vbagent-sub000/internal/versiondb"
)

// fakeProvider returns canned responses without any network.
type fakeProvider struct {
	response string
	err      error
}

func (f *fakeProvider) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	return f.response, f.err
}

func (f *fakeProvider) GenerateVision(ctx context.Context, prompt, imagePath string, maxTokens int) (string, error) {
	return f.response, f.err
}

func (f *fakeProvider) IsConfigured() bool { return true }

func TestNilProviderReturnsError(t *testing.T) {
	a := New(nil, 0)
	ctx := context.Background()

	if _, err := a.Classify(ctx, "q.png"); err != ErrNoProvider {
		t.Errorf("Classify: expected ErrNoProvider, got %v", err)
	}
	if _, err := a.Scan(ctx, "q.png"); err != ErrNoProvider {
		t.Errorf("Scan: expected ErrNoProvider, got %v", err)
	}
	if _, err := a.GenerateTikz(ctx, "a ramp", ""); err != ErrNoProvider {
		t.Errorf("GenerateTikz: expected ErrNoProvider, got %v", err)
	}
	if _, err := a.ExtractIdeas(ctx, "x"); err != ErrNoProvider {
		t.Errorf("ExtractIdeas: expected ErrNoProvider, got %v", err)
	}
	if _, err := a.GenerateVariant(ctx, "x", "", "numerical"); err != ErrNoProvider {
		t.Errorf("GenerateVariant: expected ErrNoProvider, got %v", err)
	}
	if _, err := a.GenerateAlternate(ctx, "x"); err != ErrNoProvider {
		t.Errorf("GenerateAlternate: expected ErrNoProvider, got %v", err)
	}
	if _, err := a.Review(ctx, "P1", map[string]string{"f.tex": "x"}); err != ErrNoProvider {
		t.Errorf("Review: expected ErrNoProvider, got %v", err)
	}
	if _, err := a.Check(ctx, "grammar", "P1", nil); err != ErrNoProvider {
		t.Errorf("Check: expected ErrNoProvider, got %v", err)
	}
}

func TestParseClassificationValid(t *testing.T) {
	a := New(&fakeProvider{response: `{
		"question_type": "MCQ_SC",
		"difficulty": "hard",
		"topic": "kinematics",
		"subtopic": "projectile motion",
		"has_diagram": true,
		"diagram_type": "graph",
		"num_options": 4,
		"estimated_marks": 3,
		"key_concepts": ["projectile", "range"],
		"requires_calculus": false,
		"confidence": 0.92
	}`}, 0)

	result, err := a.Classify(context.Background(), "q.png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.QuestionType != "mcq_sc" {
		t.Errorf("expected lowercased mcq_sc, got %q", result.QuestionType)
	}
	if result.DiagramType == nil || *result.DiagramType != "graph" {
		t.Error("expected diagram type graph")
	}
	if result.NumOptions == nil || *result.NumOptions != 4 {
		t.Error("expected 4 options")
	}
	if result.Confidence != 0.92 {
		t.Errorf("unexpected confidence %f", result.Confidence)
	}
}

func TestParseClassificationClampsAndDefaults(t *testing.T) {
	a := New(&fakeProvider{response: `{
		"question_type": "essay",
		"difficulty": "impossible",
		"estimated_marks": -3,
		"confidence": 1.7
	}`}, 0)

	result, _ := a.Classify(context.Background(), "q.png")
	if result.QuestionType != "subjective" {
		t.Errorf("expected fallback subjective, got %q", result.QuestionType)
	}
	if result.Difficulty != "medium" {
		t.Errorf("expected fallback medium, got %q", result.Difficulty)
	}
	if result.EstimatedMarks != 1 {
		t.Errorf("expected marks clamped to 1, got %d", result.EstimatedMarks)
	}
	if result.Confidence != 1.0 {
		t.Errorf("expected confidence clamped to 1.0, got %f", result.Confidence)
	}
}

func TestParseClassificationGarbage(t *testing.T) {
	a := New(&fakeProvider{response: "I cannot classify this image."}, 0)
	result, err := a.Classify(context.Background(), "q.png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.QuestionType != "subjective" || result.Confidence != 0.0 {
		t.Errorf("expected zero-confidence fallback, got %+v", result)
	}
}

func TestScanJSONResponse(t *testing.T) {
	a := New(&fakeProvider{response: "```json\n" +
		`{"latex": "\\begin{problem}x\\end{problem}", "has_diagram": true, "diagram_description": "a ramp"}` +
		"\n```"}, 0)

	result, err := a.Scan(context.Background(), "q.png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Latex == "" || !result.HasDiagram {
		t.Errorf("unexpected result: %+v", result)
	}
	if result.DiagramDescription == nil || *result.DiagramDescription != "a ramp" {
		t.Error("expected diagram description")
	}
}

func TestScanBareLatexFallback(t *testing.T) {
	a := New(&fakeProvider{response: "\\begin{problem}A ball...\\end{problem}"}, 0)
	result, err := a.Scan(context.Background(), "q.png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Latex != "\\begin{problem}A ball...\\end{problem}" {
		t.Errorf("expected bare response kept as latex, got %q", result.Latex)
	}
	if result.HasDiagram {
		t.Error("expected no diagram flag for bare fallback")
	}
}

func TestGenerateTikzStripsFences(t *testing.T) {
	a := New(&fakeProvider{response: "```latex\n\\begin{tikzpicture}\\end{tikzpicture}\n```"}, 0)
	tikz, err := a.GenerateTikz(context.Background(), "a ramp", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tikz != "\\begin{tikzpicture}\\end{tikzpicture}" {
		t.Errorf("expected fences stripped, got %q", tikz)
	}
}

func TestExtractIdeas(t *testing.T) {
	a := New(&fakeProvider{response: `{
		"concepts": ["energy conservation"],
		"formulas": ["E = mgh"],
		"techniques": ["work-energy theorem"],
		"difficulty_factors": []
	}`}, 0)

	result, err := a.ExtractIdeas(context.Background(), "\\begin{problem}...\\end{problem}")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Concepts) != 1 || result.Concepts[0] != "energy conservation" {
		t.Errorf("unexpected concepts: %v", result.Concepts)
	}
	if len(result.DifficultyFactors) != 0 {
		t.Errorf("expected empty difficulty factors, got %v", result.DifficultyFactors)
	}
}

func TestReviewParsesSuggestions(t *testing.T) {
	a := New(&fakeProvider{response: `{
		"passed": true,
		"summary": "one brace issue",
		"suggestions": [
			{
				"issue_type": "latex_syntax",
				"file_path": "P1/scans/P1.tex",
				"description": "unbalanced brace",
				"reasoning": "missing closing brace",
				"confidence": 2.5,
				"original_content": "\\frac{1}{2",
				"suggested_content": "\\frac{1}{2}"
			},
			{
				"issue_type": "grammar",
				"file_path": "",
				"original_content": "dropped: no file path"
			}
		]
	}`}, 0)

	result, err := a.Review(context.Background(), "P1", map[string]string{"P1/scans/P1.tex": "x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Suggestions) != 1 {
		t.Fatalf("expected 1 usable suggestion, got %d", len(result.Suggestions))
	}
	sug := result.Suggestions[0]
	if sug.IssueType != versiondb.IssueLatexSyntax {
		t.Errorf("unexpected issue type %q", sug.IssueType)
	}
	if sug.Confidence != 1.0 {
		t.Errorf("expected confidence clamped to 1.0, got %f", sug.Confidence)
	}
	// Any surviving suggestion overrides a passed verdict.
	if result.Passed {
		t.Error("expected passed=false with suggestions present")
	}
}

func TestReviewUnparseablePasses(t *testing.T) {
	a := New(&fakeProvider{response: "looks fine to me!"}, 0)
	result, err := a.Review(context.Background(), "P1", map[string]string{"f.tex": "x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Passed || len(result.Suggestions) != 0 {
		t.Errorf("expected pass with no suggestions, got %+v", result)
	}
}

func TestCheckUnknownType(t *testing.T) {
	a := New(&fakeProvider{response: "{}"}, 0)
	if _, err := a.Check(context.Background(), "vibes", "P1", nil); err == nil {
		t.Error("expected error for unknown checker type")
	}
}
