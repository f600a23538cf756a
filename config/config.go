package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"blockmerge/text"
	"blockmerge/types"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// EnvVar holds a JSON config document, read by FromEnv
const EnvVar = "BLOCKMERGE_CONFIG"

type DiffConfig struct {
	IgnoreTrimWhitespace     bool `json:"ignore_trim_whitespace" yaml:"ignore_trim_whitespace" toml:"ignore_trim_whitespace"`
	ComputeMoves             bool `json:"compute_moves" yaml:"compute_moves" toml:"compute_moves"`
	MaxComputationTimeMillis int  `json:"max_computation_time_ms" yaml:"max_computation_time_ms" toml:"max_computation_time_ms"`
}

type StreamConfig struct {
	URL              string  `json:"url" yaml:"url" toml:"url"`
	Model            string  `json:"model" yaml:"model" toml:"model"`
	APIKeyEnv        string  `json:"api_key_env" yaml:"api_key_env" toml:"api_key_env"`
	Temperature      float64 `json:"temperature" yaml:"temperature" toml:"temperature"`
	MaxTokens        int     `json:"max_tokens" yaml:"max_tokens" toml:"max_tokens"`
	TimeoutMillis    int     `json:"timeout_ms" yaml:"timeout_ms" toml:"timeout_ms"`
	CompressRequests bool    `json:"compress_requests" yaml:"compress_requests" toml:"compress_requests"`
}

type Config struct {
	LogLevel         string       `json:"log_level" yaml:"log_level" toml:"log_level"` // trace, debug, info, warn, error, off
	LogFile          string       `json:"log_file" yaml:"log_file" toml:"log_file"`
	DefaultDecision  string       `json:"default_decision" yaml:"default_decision" toml:"default_decision"`
	BoundarySentinel string       `json:"boundary_sentinel" yaml:"boundary_sentinel" toml:"boundary_sentinel"`
	UnwrapCodeFence  bool         `json:"unwrap_code_fence" yaml:"unwrap_code_fence" toml:"unwrap_code_fence"`
	Diff             DiffConfig   `json:"diff" yaml:"diff" toml:"diff"`
	Stream           StreamConfig `json:"stream" yaml:"stream" toml:"stream"`
	MetricsURL       string       `json:"metrics_url" yaml:"metrics_url" toml:"metrics_url"`
	DataDir          string       `json:"data_dir" yaml:"data_dir" toml:"data_dir"`
}

// Default returns the configuration used when nothing is set
func Default() Config {
	return Config{
		LogLevel:         "info",
		LogFile:          defaultLogFile(),
		DefaultDecision:  types.DecisionIncoming.String(),
		BoundarySentinel: text.DefaultBoundarySentinel,
		UnwrapCodeFence:  true,
		Diff: DiffConfig{
			ComputeMoves: true,
		},
		Stream: StreamConfig{
			URL:         "https://api.openai.com",
			Model:       "gpt-4o-mini",
			APIKeyEnv:   "OPENAI_API_KEY",
			Temperature: 0.2,
			MaxTokens:   4096,
		},
		DataDir: defaultDataDir(),
	}
}

// blockmerge.log next to the executable
func defaultLogFile() string {
	execPath, err := os.Executable()
	if err != nil {
		return filepath.Join(os.TempDir(), "blockmerge.log")
	}
	return filepath.Join(filepath.Dir(execPath), "blockmerge.log")
}

func defaultDataDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "blockmerge")
}

// Load reads the file at path over Default. The format follows the extension:
// .json, .yaml/.yml or .toml.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		err = json.Unmarshal(data, &cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	case ".toml":
		_, err = toml.Decode(string(data), &cfg)
	default:
		return cfg, fmt.Errorf("unsupported config format %q", ext)
	}
	if err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// FromEnv reads a JSON document from BLOCKMERGE_CONFIG over Default. An unset
// variable yields the defaults.
func FromEnv() (Config, error) {
	cfg := Default()
	raw := strings.TrimSpace(os.Getenv(EnvVar))
	if raw == "" {
		return cfg, nil
	}
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return cfg, fmt.Errorf("invalid config in %s: %w", EnvVar, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks the values Load and FromEnv cannot check by type
func (c Config) Validate() error {
	var errs []error
	if _, err := c.Decision(); err != nil {
		errs = append(errs, err)
	}
	if c.BoundarySentinel == "" {
		errs = append(errs, errors.New("boundary_sentinel must not be empty"))
	}
	if strings.ContainsAny(c.BoundarySentinel, "\r\n") {
		errs = append(errs, errors.New("boundary_sentinel must be a single line"))
	}
	if c.Diff.MaxComputationTimeMillis < 0 {
		errs = append(errs, errors.New("diff.max_computation_time_ms must not be negative"))
	}
	if c.Stream.TimeoutMillis < 0 {
		errs = append(errs, errors.New("stream.timeout_ms must not be negative"))
	}
	return errors.Join(errs...)
}

// Decision parses default_decision. Only incoming and current are valid defaults.
func (c Config) Decision() (types.Decision, error) {
	d, err := types.ParseDecision(c.DefaultDecision)
	if err != nil {
		return types.DecisionPending, fmt.Errorf("default_decision: %w", err)
	}
	if d != types.DecisionIncoming && d != types.DecisionCurrent {
		return types.DecisionPending, fmt.Errorf("default_decision must be incoming or current, got %q", c.DefaultDecision)
	}
	return d, nil
}

func (c Config) DiffOptions() text.DiffOptions {
	return text.DiffOptions{
		IgnoreTrimWhitespace:     c.Diff.IgnoreTrimWhitespace,
		ComputeMoves:             c.Diff.ComputeMoves,
		MaxComputationTimeMillis: c.Diff.MaxComputationTimeMillis,
	}
}

// Marker returns the boundary marker built from the sentinel
func (c Config) Marker() string {
	return text.BoundaryMarker(c.BoundarySentinel)
}

// StreamClientConfig resolves the API key from the environment
func (c Config) StreamClientConfig() types.StreamConfig {
	var key string
	if c.Stream.APIKeyEnv != "" {
		key = os.Getenv(c.Stream.APIKeyEnv)
	}
	return types.StreamConfig{
		URL:              c.Stream.URL,
		APIKey:           key,
		Model:            c.Stream.Model,
		Temperature:      c.Stream.Temperature,
		MaxTokens:        c.Stream.MaxTokens,
		TimeoutMillis:    c.Stream.TimeoutMillis,
		CompressRequests: c.Stream.CompressRequests,
	}
}
