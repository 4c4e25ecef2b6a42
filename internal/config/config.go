package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	LLM     LLM     `yaml:"llm"`
	Batch   Batch   `yaml:"batch"`
	Review  Review  `yaml:"review"`
	Output  Output  `yaml:"output"`
	Logging Logging `yaml:"logging"`
}

type LLM struct {
	Provider       string `yaml:"provider"`
	Model          string `yaml:"model"`
	VisionModel    string `yaml:"vision_model"`
	OllamaURL      string `yaml:"ollama_url"`
	OpenAIModel    string `yaml:"openai_model"`
	OpenAIKeyEnv   string `yaml:"openai_api_key_env"`
	GeminiModel    string `yaml:"gemini_model"`
	GeminiKeyEnv   string `yaml:"gemini_api_key_env"`
	MaxTokens      int    `yaml:"max_tokens"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type Batch struct {
	ImagesDir          string   `yaml:"images_dir"`
	VariantTypes       []string `yaml:"variant_types"`
	GenerateAlternates bool     `yaml:"generate_alternates"`
	UseContext         bool     `yaml:"use_context"`
}

type Review struct {
	MinConfidence float64 `yaml:"min_confidence"`
	BatchSize     int     `yaml:"batch_size"`
}

type Output struct {
	Dir string `yaml:"dir"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// ConfigDir returns the XDG config directory for vbagent.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "vbagent")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/vbagent/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'vbagent init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// LoadOrDefault loads the resolved config file, falling back to the
// embedded defaults when no file exists anywhere.
func LoadOrDefault(explicit string) (*Config, error) {
	path, err := ResolveConfigPath(explicit)
	if err != nil {
		if explicit != "" {
			return nil, err
		}
		return parse(DefaultConfigYAML)
	}
	return Load(path)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		LLM: LLM{
			Provider:       "ollama",
			Model:          "qwen2.5:7b",
			VisionModel:    "llama3.2-vision",
			OllamaURL:      "http://localhost:11434",
			OpenAIModel:    "gpt-4o",
			OpenAIKeyEnv:   "OPENAI_API_KEY",
			GeminiModel:    "gemini-1.5-pro",
			GeminiKeyEnv:   "GEMINI_API_KEY",
			MaxTokens:      4096,
			TimeoutSeconds: 300,
		},
		Batch: Batch{
			ImagesDir:    "images",
			VariantTypes: []string{"numerical", "conceptual", "context"},
		},
		Review: Review{
			MinConfidence: 0.8,
			BatchSize:     10,
		},
		Output:  Output{Dir: "output"},
		Logging: Logging{Level: "INFO"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// GetOutputDir returns the effective output directory.
func (c *Config) GetOutputDir() string {
	if c.Output.Dir != "" {
		return c.Output.Dir
	}
	return "output"
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
