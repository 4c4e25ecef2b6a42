package agents

import (
	"context"
	"fmt"
	"strings"
)

const tikzPrompt = `You are generating TikZ code for a physics diagram.

Diagram description:
%s

Question context (LaTeX):
%s

Generate a complete tikzpicture environment reproducing the diagram.
Use pgfplots for graphs and circuitikz conventions for circuits.
Respond with ONLY the LaTeX code, no explanation.`

// GenerateTikz produces a tikzpicture for a described diagram.
func (a *Agents) GenerateTikz(ctx context.Context, description, latexContext string) (string, error) {
	if err := a.ready(); err != nil {
		return "", err
	}
	prompt := fmt.Sprintf(tikzPrompt, description, truncate(latexContext, 4000))
	response, err := a.provider.Generate(ctx, prompt, a.maxTokens)
	if err != nil {
		return "", err
	}
	return stripCodeFences(response), nil
}

// stripCodeFences removes a surrounding markdown code block if present.
func stripCodeFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	lines := strings.Split(text, "\n")
	endIdx := len(lines) - 1
	for i := len(lines) - 1; i > 0; i-- {
		if strings.TrimSpace(lines[i]) == "```" {
			endIdx = i
			break
		}
	}
	return strings.TrimSpace(strings.Join(lines[1:endIdx], "\n"))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
