package agents

import (
	"context"
	"strings"

	"github.com/vaibhavblayer/vbagent-sub000/internal/llm"
)

const scanPrompt = `You are transcribing a physics exam question from an image into LaTeX.

Transcribe the question text, options, and any equations exactly. Use
standard LaTeX math mode for all mathematics. Do NOT transcribe the
diagram itself; describe it instead.

Respond with ONLY this JSON:
{
    "latex": "the full LaTeX transcription",
    "has_diagram": true or false,
    "diagram_description": "detailed description of the diagram, or null"
}`

// ScanResult is the scanner's LaTeX transcription of a question image.
type ScanResult struct {
	Latex              string  `json:"latex"`
	HasDiagram         bool    `json:"has_diagram"`
	DiagramDescription *string `json:"diagram_description,omitempty"`
}

// Scan transcribes a question image to LaTeX.
func (a *Agents) Scan(ctx context.Context, imagePath string) (*ScanResult, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	response, err := a.provider.GenerateVision(ctx, scanPrompt, imagePath, a.maxTokens)
	if err != nil {
		return nil, err
	}

	parsed := llm.ParseJSONResponse(response)
	if parsed == nil {
		// Vision models sometimes answer with bare LaTeX instead of JSON.
		text := strings.TrimSpace(response)
		if text == "" {
			return &ScanResult{}, nil
		}
		return &ScanResult{Latex: text}, nil
	}

	result := &ScanResult{
		Latex:      getString(parsed, "latex", ""),
		HasDiagram: getBool(parsed, "has_diagram", false),
	}
	if desc := getString(parsed, "diagram_description", ""); desc != "" {
		result.DiagramDescription = &desc
	}
	return result, nil
}
