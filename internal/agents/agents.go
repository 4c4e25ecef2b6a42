// Package agents wraps each LLM role in the pipeline: classification,
// LaTeX extraction, TikZ generation, idea extraction, variant and
// alternate-solution generation, and QA review. Every agent normalizes
// the model's JSON output and falls back to a safe default when the
// response cannot be parsed.
package agents

import (
	"encoding/json"
	"errors"

	"github.com/vaibhavblayer/vbagent-sub000/internal/llm"
)

// ErrNoProvider is returned when no LLM provider could be configured.
var ErrNoProvider = errors.New("no LLM provider configured; check Ollama is running or set OPENAI_API_KEY / GEMINI_API_KEY")

// Agents bundles the LLM provider with generation limits.
type Agents struct {
	provider  llm.Provider
	maxTokens int
}

// New creates the agent set backed by a provider.
func New(provider llm.Provider, maxTokens int) *Agents {
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &Agents{provider: provider, maxTokens: maxTokens}
}

// ready guards against the nil provider CreateProvider returns when
// nothing is configured.
func (a *Agents) ready() error {
	if a.provider == nil {
		return ErrNoProvider
	}
	return nil
}

func getString(m map[string]any, key, fallback string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return fallback
}

func getBool(m map[string]any, key string, fallback bool) bool {
	if v, ok := m[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return fallback
}

func getInt(m map[string]any, key string, fallback int) int {
	if v, ok := m[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case json.Number:
			if i, err := n.Int64(); err == nil {
				return int(i)
			}
		}
	}
	return fallback
}

func getFloat(m map[string]any, key string, fallback float64) float64 {
	if v, ok := m[key]; ok {
		switch n := v.(type) {
		case float64:
			return n
		case json.Number:
			if f, err := n.Float64(); err == nil {
				return f
			}
		}
	}
	return fallback
}

func getStringList(m map[string]any, key string) []string {
	var out []string
	if v, ok := m[key]; ok {
		if arr, ok := v.([]any); ok {
			for _, item := range arr {
				if s, ok := item.(string); ok {
					out = append(out, s)
				}
			}
		}
	}
	return out
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
