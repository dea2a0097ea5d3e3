package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `json:"server" yaml:"server"`
	LLM     LLMConfig     `json:"llm" yaml:"llm"`
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

type ServerConfig struct {
	Addr         string   `json:"addr" yaml:"addr"`
	ReadTimeout  Duration `json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout Duration `json:"write_timeout" yaml:"write_timeout"`
	IdleTimeout  Duration `json:"idle_timeout" yaml:"idle_timeout"`
}

type LLMConfig struct {
	Provider  string `json:"provider" yaml:"provider"`
	Model     string `json:"model" yaml:"model"`
	BaseURL   string `json:"base_url" yaml:"base_url"`
	APIKey    string `json:"api_key" yaml:"api_key"`
	MaxTokens int    `json:"max_tokens" yaml:"max_tokens"`
}

type LoggingConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
	Output string `json:"output" yaml:"output"`
}

// Duration accepts "15s"-style strings or a bare number of seconds, in both
// JSON and YAML.
type Duration time.Duration

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var n int64
		if numErr := json.Unmarshal(data, &n); numErr != nil {
			return fmt.Errorf("invalid duration %s", string(data))
		}
		*d = Duration(time.Duration(n) * time.Second)
		return nil
	}
	return d.parse(s)
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var n int64
	if node.ShortTag() == "!!int" {
		if err := node.Decode(&n); err != nil {
			return fmt.Errorf("invalid duration %q: %w", node.Value, err)
		}
		*d = Duration(time.Duration(n) * time.Second)
		return nil
	}
	return d.parse(node.Value)
}

func (d *Duration) parse(s string) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:        ":8080",
			ReadTimeout: Duration(15 * time.Second),
			IdleTimeout: Duration(60 * time.Second),
		},
		LLM: LLMConfig{
			Provider:  "openai",
			MaxTokens: 500,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
	}
}

// LoadConfig reads a JSON or YAML file (chosen by extension) over the
// defaults and applies environment overrides. A missing file is not an error.
func LoadConfig(filename string) (*Config, error) {
	config := Default()

	data, err := os.ReadFile(filename)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := decode(filename, data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnv(config)
	return config, nil
}

func decode(filename string, data []byte, config *Config) error {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, config)
	default:
		return json.Unmarshal(data, config)
	}
}

func applyEnv(config *Config) {
	if v := os.Getenv("DEVASSIST_SERVER_ADDR"); v != "" {
		config.Server.Addr = v
	}
	if v := os.Getenv("DEVASSIST_LLM_PROVIDER"); v != "" {
		config.LLM.Provider = v
	}
	if v := os.Getenv("DEVASSIST_LLM_MODEL"); v != "" {
		config.LLM.Model = v
	}

	if v := os.Getenv("DEVASSIST_LLM_API_KEY"); v != "" {
		config.LLM.APIKey = v
		return
	}
	if config.LLM.APIKey != "" {
		return
	}
	switch config.LLM.Provider {
	case "openai":
		config.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	case "gemini":
		config.LLM.APIKey = os.Getenv("GEMINI_API_KEY")
	}
}
