package config

import (
	"os"
	"path/filepath"
	"testing"

	"blockmerge/assert"
	"blockmerge/text"
	"blockmerge/types"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	assert.NoError(t, os.WriteFile(path, []byte(content), 0o644), "write config")
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.Validate(), "defaults are valid")
	d, err := cfg.Decision()
	assert.NoError(t, err, "Decision")
	assert.Equal(t, types.DecisionIncoming, d, "default decision")
	assert.True(t, cfg.Diff.ComputeMoves, "moves on by default")
	assert.True(t, cfg.UnwrapCodeFence, "fence unwrapping on by default")
	assert.Equal(t, text.BoundaryMarker(text.DefaultBoundarySentinel), cfg.Marker(), "marker")
}

func TestLoad_Formats(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"json", "c.json", `{"default_decision":"current","diff":{"ignore_trim_whitespace":true},"stream":{"model":"m1"}}`},
		{"yaml", "c.yaml", "default_decision: current\ndiff:\n  ignore_trim_whitespace: true\nstream:\n  model: m1\n"},
		{"yml", "c.yml", "default_decision: current\ndiff:\n  ignore_trim_whitespace: true\nstream:\n  model: m1\n"},
		{"toml", "c.toml", "default_decision = \"current\"\n[diff]\nignore_trim_whitespace = true\n[stream]\nmodel = \"m1\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeFile(t, tt.file, tt.content))
			assert.NoError(t, err, "Load")
			d, _ := cfg.Decision()
			assert.Equal(t, types.DecisionCurrent, d, "decision")
			assert.True(t, cfg.Diff.IgnoreTrimWhitespace, "ignore whitespace")
			assert.True(t, cfg.Diff.ComputeMoves, "missing key keeps default")
			assert.Equal(t, "m1", cfg.Stream.Model, "model")
			assert.Equal(t, "OPENAI_API_KEY", cfg.Stream.APIKeyEnv, "api key env default")
		})
	}
}

func TestLoad_UnknownExtension(t *testing.T) {
	_, err := Load(writeFile(t, "c.ini", "x=1"))
	assert.Error(t, err, "unsupported format")
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err, "missing file")
}

func TestLoad_InvalidValues(t *testing.T) {
	_, err := Load(writeFile(t, "c.json", `{"default_decision":"both"}`))
	assert.Error(t, err, "both is not a valid default")
}

func TestFromEnv(t *testing.T) {
	t.Setenv(EnvVar, `{"log_level":"debug","boundary_sentinel":"--SEP--"}`)
	cfg, err := FromEnv()
	assert.NoError(t, err, "FromEnv")
	assert.Equal(t, "debug", cfg.LogLevel, "log level")
	assert.Equal(t, "\n--SEP--\n", cfg.Marker(), "marker")

	t.Setenv(EnvVar, "")
	cfg, err = FromEnv()
	assert.NoError(t, err, "unset env")
	assert.Equal(t, Default().BoundarySentinel, cfg.BoundarySentinel, "defaults")

	t.Setenv(EnvVar, "{")
	_, err = FromEnv()
	assert.Error(t, err, "invalid JSON")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown decision", func(c *Config) { c.DefaultDecision = "maybe" }},
		{"pending decision", func(c *Config) { c.DefaultDecision = "pending" }},
		{"empty sentinel", func(c *Config) { c.BoundarySentinel = "" }},
		{"multi-line sentinel", func(c *Config) { c.BoundarySentinel = "a\nb" }},
		{"negative diff timeout", func(c *Config) { c.Diff.MaxComputationTimeMillis = -1 }},
		{"negative stream timeout", func(c *Config) { c.Stream.TimeoutMillis = -5 }},
	}
	for _, tt := range tests {
		cfg := Default()
		tt.mutate(&cfg)
		assert.Error(t, cfg.Validate(), tt.name)
	}
}

func TestDiffOptions(t *testing.T) {
	cfg := Default()
	cfg.Diff = DiffConfig{IgnoreTrimWhitespace: true, MaxComputationTimeMillis: 50}
	opts := cfg.DiffOptions()
	assert.True(t, opts.IgnoreTrimWhitespace, "ignore whitespace")
	assert.False(t, opts.ComputeMoves, "moves")
	assert.Equal(t, 50, opts.MaxComputationTimeMillis, "timeout")
}

func TestStreamClientConfig(t *testing.T) {
	t.Setenv("TEST_BLOCKMERGE_KEY", "sk-1")
	cfg := Default()
	cfg.Stream.APIKeyEnv = "TEST_BLOCKMERGE_KEY"
	cfg.Stream.CompressRequests = true
	sc := cfg.StreamClientConfig()
	assert.Equal(t, "sk-1", sc.APIKey, "api key")
	assert.True(t, sc.CompressRequests, "compress")
	assert.Equal(t, cfg.Stream.URL, sc.URL, "url")
}
