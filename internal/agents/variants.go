package agents

import (
	"context"
	"fmt"
	"strings"
)

const variantPrompt = `You are creating a variant of a physics problem.

Original problem (LaTeX):
%s

Underlying ideas:
%s

Variant type: %s
%s

Keep the same physics and difficulty. Respond with ONLY the complete
LaTeX for the new problem including its solution, no explanation.`

const alternatePrompt = `You are writing an alternate solution for a physics problem.

Problem and existing solution (LaTeX):
%s

Write a genuinely different solution approach (different method, frame,
or principle), not a restatement. Respond with ONLY the LaTeX for the
alternate solution, no explanation.`

// variantInstructions guide each variant type. Unknown types get a
// generic rephrasing instruction.
var variantInstructions = map[string]string{
	"numerical":           "Change the numerical values and recompute the answer.",
	"conceptual":          "Rework the problem so it tests the concept qualitatively, without computation.",
	"conceptual_calculus": "Rework the problem so it requires a calculus-based argument.",
	"context":             "Keep the physics identical but move the problem into a different real-world context.",
}

// GenerateVariant creates a variant of a problem for the given type.
func (a *Agents) GenerateVariant(ctx context.Context, latex, ideas, variantType string) (string, error) {
	if err := a.ready(); err != nil {
		return "", err
	}
	instruction, ok := variantInstructions[strings.ToLower(variantType)]
	if !ok {
		instruction = "Rephrase the problem while keeping the same physics."
	}
	prompt := fmt.Sprintf(variantPrompt, truncate(latex, 6000), truncate(ideas, 2000), variantType, instruction)
	response, err := a.provider.Generate(ctx, prompt, a.maxTokens)
	if err != nil {
		return "", err
	}
	return stripCodeFences(response), nil
}

// GenerateAlternate writes an alternate solution for a problem.
func (a *Agents) GenerateAlternate(ctx context.Context, latex string) (string, error) {
	if err := a.ready(); err != nil {
		return "", err
	}
	prompt := fmt.Sprintf(alternatePrompt, truncate(latex, 6000))
	response, err := a.provider.Generate(ctx, prompt, a.maxTokens)
	if err != nil {
		return "", err
	}
	return stripCodeFences(response), nil
}
