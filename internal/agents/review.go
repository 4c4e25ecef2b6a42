package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/vaibhavblayer/vbagent-sub000/internal/llm"
	"github.com/vaibhavblayer/vbagent-sub000/internal/versiondb"
)

const reviewPrompt = `You are reviewing LaTeX files of a physics problem for quality issues.

%s

Problem ID: %s
Files:
%s

Look for: LaTeX syntax errors, physics errors, solution errors,
inconsistencies between variants, formatting problems, grammar, and
clarity. For each issue, quote the exact original content and your
suggested replacement.

Respond with ONLY this JSON:
{
    "passed": true or false,
    "summary": "one-sentence review summary",
    "suggestions": [
        {
            "issue_type": "latex_syntax" | "physics_error" | "solution_error" | "variant_inconsistency" | "formatting" | "grammar" | "clarity" | "other",
            "file_path": "path of the file to modify",
            "description": "brief description of the issue",
            "reasoning": "detailed reasoning",
            "confidence": 0.0-1.0,
            "original_content": "exact content to replace",
            "suggested_content": "replacement content"
        }
    ]
}`

// checkerFocus narrows the review prompt for single-purpose checkers.
var checkerFocus = map[string]string{
	"solution": "Focus ONLY on the correctness of the solution: physics, algebra, and the final answer.",
	"grammar":  "Focus ONLY on grammar, spelling, and punctuation in the prose. Ignore the physics.",
	"clarity":  "Focus ONLY on clarity: ambiguous phrasing, missing definitions, confusing structure.",
	"tikz":     "Focus ONLY on TikZ code: syntax errors, mislabeled axes, and mismatches with the problem statement.",
}

// CheckerTypes lists the supported single-purpose checkers.
func CheckerTypes() []string {
	return []string{"solution", "grammar", "clarity", "tikz"}
}

// ReviewResult is the reviewer's verdict on one problem.
type ReviewResult struct {
	ProblemID   string
	Passed      bool
	Summary     string
	Suggestions []versiondb.Suggestion
}

// Review runs a full QA review over a problem's files. files maps each
// file path to its content.
func (a *Agents) Review(ctx context.Context, problemID string, files map[string]string) (*ReviewResult, error) {
	return a.review(ctx, problemID, files, "")
}

// Check runs a single-purpose checker over a problem's files.
func (a *Agents) Check(ctx context.Context, checkerType, problemID string, files map[string]string) (*ReviewResult, error) {
	focus, ok := checkerFocus[strings.ToLower(checkerType)]
	if !ok {
		return nil, fmt.Errorf("unknown checker type: %s", checkerType)
	}
	return a.review(ctx, problemID, files, focus)
}

func (a *Agents) review(ctx context.Context, problemID string, files map[string]string, focus string) (*ReviewResult, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	var sb strings.Builder
	for path, content := range files {
		sb.WriteString("=== " + path + " ===\n")
		sb.WriteString(truncate(content, 8000))
		sb.WriteString("\n\n")
	}

	prompt := fmt.Sprintf(reviewPrompt, focus, problemID, sb.String())
	response, err := a.provider.Generate(ctx, prompt, a.maxTokens)
	if err != nil {
		return nil, err
	}
	return parseReview(llm.ParseJSONResponse(response), problemID), nil
}

// parseReview normalizes raw reviewer output. Unparseable responses pass
// the problem rather than inventing issues.
func parseReview(parsed map[string]any, problemID string) *ReviewResult {
	if parsed == nil {
		return &ReviewResult{
			ProblemID: problemID,
			Passed:    true,
			Summary:   "review response could not be parsed",
		}
	}

	result := &ReviewResult{
		ProblemID: problemID,
		Passed:    getBool(parsed, "passed", true),
		Summary:   getString(parsed, "summary", ""),
	}

	raw, ok := parsed["suggestions"].([]any)
	if !ok {
		return result
	}
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		sug := versiondb.Suggestion{
			FilePath:         getString(m, "file_path", ""),
			IssueType:        versiondb.ParseIssueType(getString(m, "issue_type", "other")),
			Description:      getString(m, "description", ""),
			Reasoning:        getString(m, "reasoning", ""),
			Confidence:       clamp01(getFloat(m, "confidence", 0.5)),
			OriginalContent:  getString(m, "original_content", ""),
			SuggestedContent: getString(m, "suggested_content", ""),
		}
		// A suggestion with no target or no content cannot be applied.
		if sug.FilePath == "" || sug.OriginalContent == "" {
			continue
		}
		result.Suggestions = append(result.Suggestions, sug)
	}
	if len(result.Suggestions) > 0 {
		result.Passed = false
	}
	return result
}
