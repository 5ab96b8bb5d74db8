package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

var (
	exeDirCache string
)

// getExecutableDir returns the directory where the executable is located
func getExecutableDir() string {
	if exeDirCache != "" {
		return exeDirCache
	}
	execPath, err := os.Executable()
	if err != nil {
		exeDirCache = "."
		return exeDirCache
	}
	execPath, err = filepath.EvalSymlinks(execPath)
	if err != nil {
		exeDirCache = "."
		return exeDirCache
	}
	exeDirCache = filepath.Dir(execPath)
	return exeDirCache
}

// Source names accepted in Settings.Source.
const (
	SourceDefault = "default"
	SourceProfile = "profile"
	SourceOllama  = "ollama"
	SourceOpenAI  = "openai"
)

// Suggestion length presets.
const (
	LengthShort = "short" // 2-3 sentences per description
	LengthLong  = "long"  // 4-6 sentences per description
)

type Config struct {
	Port    int           `yaml:"port"`
	Logging LoggingConfig `yaml:"logging"`
	Suggest Settings      `yaml:"suggest"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Settings holds the generation settings snapshotted into every request.
type Settings struct {
	Source  string `yaml:"source"`            // "default", "profile", "ollama", "openai"
	Profile string `yaml:"profile,omitempty"` // connection profile name for source=profile

	OllamaURL   string `yaml:"ollama_url,omitempty"`
	OllamaModel string `yaml:"ollama_model,omitempty"`
	OpenAIURL   string `yaml:"openai_url,omitempty"`
	OpenAIModel string `yaml:"openai_model,omitempty"`
	HostURL     string `yaml:"host_url,omitempty"` // raw-generation callback for source=default

	SuggestionsCount   int    `yaml:"suggestions_count"`
	ContextDepth       int    `yaml:"context_depth"`
	SuggestionLength   string `yaml:"suggestion_length"`
	IncludeScenario    bool   `yaml:"include_scenario"`
	IncludeDescription bool   `yaml:"include_description"`
	IncludeWorldInfo   bool   `yaml:"include_worldinfo"`
	ShowExplicit       bool   `yaml:"show_explicit"`
}

func DefaultConfig() *Config {
	return &Config{
		Port: 8787,
		Logging: LoggingConfig{
			Level: "info",
		},
		Suggest: DefaultSettings(),
	}
}

func DefaultSettings() Settings {
	return Settings{
		Source:             SourceDefault,
		OllamaURL:          "http://localhost:11434",
		OpenAIURL:          "http://localhost:1234/v1",
		OpenAIModel:        "local-model",
		SuggestionsCount:   6,
		ContextDepth:       4,
		SuggestionLength:   LengthShort,
		IncludeScenario:    true,
		IncludeDescription: true,
	}
}

// Normalize clamps settings into their valid ranges.
func (s Settings) Normalize() Settings {
	if s.Source == "" {
		s.Source = SourceDefault
	}
	if s.SuggestionsCount <= 0 {
		s.SuggestionsCount = 6
	}
	if s.ContextDepth < 2 {
		s.ContextDepth = 2
	}
	if s.ContextDepth > 10 {
		s.ContextDepth = 10
	}
	if s.SuggestionLength != LengthLong {
		s.SuggestionLength = LengthShort
	}
	return s
}

func ConfigDir() string {
	exeDir := getExecutableDir()
	return filepath.Join(exeDir, ".pathweaver")
}

func ConfigPath() string {
	exeDir := getExecutableDir()
	return filepath.Join(exeDir, ".pathweaver.yaml")
}

// StorePath returns the SQLite database path for custom categories and
// template overrides.
func StorePath() string {
	return filepath.Join(ConfigDir(), "pathweaver.db")
}

// ProfilesPath returns the connection profiles file path.
func ProfilesPath() string {
	return filepath.Join(ConfigDir(), "profiles.yaml")
}

func Load() (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	cfg.Suggest = cfg.Suggest.Normalize()
	return cfg, nil
}

func (c *Config) Save() error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(ConfigPath(), data, 0600)
}
