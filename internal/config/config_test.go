package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.toml"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.LLM.Model != "gpt-3.5-turbo" {
		t.Fatalf("unexpected default model: %s", cfg.LLM.Model)
	}
	if cfg.LLM.MaxTokens != 500 || cfg.LLM.Temperature != 0.7 {
		t.Fatalf("unexpected generation defaults: %+v", cfg.LLM)
	}
	if cfg.HTTPAddr() != "0.0.0.0:8080" {
		t.Fatalf("unexpected addr: %s", cfg.HTTPAddr())
	}
	if cfg.Companion.SessionIdleSeconds != 1800 || cfg.Companion.SweepIntervalSeconds != 60 {
		t.Fatalf("unexpected companion defaults: %+v", cfg.Companion)
	}
}

func TestLoadFileThenEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[llm]
model = "gpt-4o-mini"
max_tokens = 256
timeout_seconds = 12

[crisis]
high_keywords = ["no way out"]
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("LLM_MODEL", "gpt-4o")
	t.Setenv("LLM_TEMPERATURE", "0.2")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.LLM.Model != "gpt-4o" {
		t.Fatalf("env should win over file, got %s", cfg.LLM.Model)
	}
	if cfg.LLM.MaxTokens != 256 {
		t.Fatalf("file value lost, got %d", cfg.LLM.MaxTokens)
	}
	if cfg.LLM.Temperature != 0.2 {
		t.Fatalf("unexpected temperature: %v", cfg.LLM.Temperature)
	}
	if cfg.LLMTimeout() != 12*time.Second {
		t.Fatalf("unexpected timeout: %v", cfg.LLMTimeout())
	}
	if len(cfg.Crisis.HighKeywords) != 1 || cfg.Crisis.HighKeywords[0] != "no way out" {
		t.Fatalf("unexpected crisis keywords: %v", cfg.Crisis.HighKeywords)
	}
}

func TestLLMConfigured(t *testing.T) {
	cases := map[string]bool{
		"":                false,
		"   ":             false,
		PlaceholderAPIKey: false,
		"sk-real":         true,
	}
	for key, want := range cases {
		cfg := defaultConfig()
		cfg.LLM.APIKey = key
		if got := cfg.LLMConfigured(); got != want {
			t.Fatalf("LLMConfigured(%q) = %v, want %v", key, got, want)
		}
	}
}
