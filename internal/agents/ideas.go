package agents

import (
	"context"
	"fmt"

	"github.com/vaibhavblayer/vbagent-sub000/internal/llm"
)

const ideasPrompt = `You are analyzing a physics problem to extract its underlying ideas.

Problem (LaTeX):
%s

Respond with ONLY this JSON:
{
    "concepts": ["primary physics concepts"],
    "formulas": ["key formulas used, in LaTeX"],
    "techniques": ["problem-solving techniques"],
    "difficulty_factors": ["what makes this problem difficult"]
}`

// IdeaResult captures the concepts and techniques behind a problem.
type IdeaResult struct {
	Concepts          []string `json:"concepts"`
	Formulas          []string `json:"formulas"`
	Techniques        []string `json:"techniques"`
	DifficultyFactors []string `json:"difficulty_factors"`
}

// ExtractIdeas analyzes a problem's LaTeX for concepts and techniques.
func (a *Agents) ExtractIdeas(ctx context.Context, latex string) (*IdeaResult, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	prompt := fmt.Sprintf(ideasPrompt, truncate(latex, 6000))
	response, err := a.provider.Generate(ctx, prompt, 1024)
	if err != nil {
		return nil, err
	}

	parsed := llm.ParseJSONResponse(response)
	if parsed == nil {
		return &IdeaResult{}, nil
	}
	return &IdeaResult{
		Concepts:          getStringList(parsed, "concepts"),
		Formulas:          getStringList(parsed, "formulas"),
		Techniques:        getStringList(parsed, "techniques"),
		DifficultyFactors: getStringList(parsed, "difficulty_factors"),
	}, nil
}
