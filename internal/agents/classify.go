package agents

import (
	"context"
	"strings"

	"github.com/vaibhavblayer/vbagent-sub000/internal/llm"
)

const classifyPrompt = `You are classifying a physics exam question from an image.

Extract metadata about the question. Question types:
- mcq_sc: multiple choice, single correct option
- mcq_mc: multiple choice, multiple correct options
- subjective: free-form answer
- assertion_reason: assertion and reason pair
- passage: passage-based question
- match: match the columns

Respond with ONLY this JSON:
{
    "question_type": "mcq_sc" | "mcq_mc" | "subjective" | "assertion_reason" | "passage" | "match",
    "difficulty": "easy" | "medium" | "hard",
    "topic": "physics topic, e.g. kinematics",
    "subtopic": "specific subtopic",
    "has_diagram": true or false,
    "diagram_type": "graph" | "circuit" | "free_body" | "geometry" | "none",
    "num_options": number of options if MCQ, else null,
    "estimated_marks": 1-10,
    "key_concepts": ["concept 1", "concept 2"],
    "requires_calculus": true or false,
    "confidence": 0.0-1.0
}`

// ClassificationResult is the classifier's extracted question metadata.
type ClassificationResult struct {
	QuestionType     string   `json:"question_type"`
	Difficulty       string   `json:"difficulty"`
	Topic            string   `json:"topic"`
	Subtopic         string   `json:"subtopic"`
	HasDiagram       bool     `json:"has_diagram"`
	DiagramType      *string  `json:"diagram_type,omitempty"`
	NumOptions       *int     `json:"num_options,omitempty"`
	EstimatedMarks   int      `json:"estimated_marks"`
	KeyConcepts      []string `json:"key_concepts"`
	RequiresCalculus bool     `json:"requires_calculus"`
	Confidence       float64  `json:"confidence"`
}

var questionTypes = map[string]bool{
	"mcq_sc": true, "mcq_mc": true, "subjective": true,
	"assertion_reason": true, "passage": true, "match": true,
}

var diagramTypes = map[string]bool{
	"graph": true, "circuit": true, "free_body": true, "geometry": true, "none": true,
}

// Classify extracts question metadata from an image.
func (a *Agents) Classify(ctx context.Context, imagePath string) (*ClassificationResult, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	response, err := a.provider.GenerateVision(ctx, classifyPrompt, imagePath, 1024)
	if err != nil {
		return nil, err
	}
	return parseClassification(llm.ParseJSONResponse(response)), nil
}

// parseClassification normalizes raw model output, falling back to a
// low-confidence subjective classification when parsing fails.
func parseClassification(parsed map[string]any) *ClassificationResult {
	if parsed == nil {
		return &ClassificationResult{
			QuestionType:   "subjective",
			Difficulty:     "medium",
			Topic:          "unknown",
			EstimatedMarks: 1,
			Confidence:     0.0,
		}
	}

	result := &ClassificationResult{
		QuestionType:     strings.ToLower(getString(parsed, "question_type", "subjective")),
		Difficulty:       strings.ToLower(getString(parsed, "difficulty", "medium")),
		Topic:            getString(parsed, "topic", "unknown"),
		Subtopic:         getString(parsed, "subtopic", ""),
		HasDiagram:       getBool(parsed, "has_diagram", false),
		EstimatedMarks:   getInt(parsed, "estimated_marks", 1),
		KeyConcepts:      getStringList(parsed, "key_concepts"),
		RequiresCalculus: getBool(parsed, "requires_calculus", false),
		Confidence:       clamp01(getFloat(parsed, "confidence", 1.0)),
	}

	if !questionTypes[result.QuestionType] {
		result.QuestionType = "subjective"
	}
	switch result.Difficulty {
	case "easy", "medium", "hard":
	default:
		result.Difficulty = "medium"
	}
	if dt := strings.ToLower(getString(parsed, "diagram_type", "")); dt != "" && diagramTypes[dt] {
		result.DiagramType = &dt
	}
	if n := getInt(parsed, "num_options", 0); n > 0 {
		result.NumOptions = &n
	}
	if result.EstimatedMarks < 1 {
		result.EstimatedMarks = 1
	}
	return result
}
