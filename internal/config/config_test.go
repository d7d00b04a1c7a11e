package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 5000 {
		t.Errorf("Expected port 5000, got %d", cfg.Server.Port)
	}
	if cfg.SearXNG.BaseURL != "http://localhost:8080" {
		t.Errorf("Unexpected searxng base url %q", cfg.SearXNG.BaseURL)
	}
	if cfg.Search.DefaultCount != 5 || cfg.Search.MaxCount != 10 {
		t.Errorf("Unexpected search counts %+v", cfg.Search)
	}
	if cfg.Fetch.MaxChars != 50000 || cfg.Fetch.Timeout != 30 {
		t.Errorf("Unexpected fetch config %+v", cfg.Fetch)
	}
	if cfg.Ollama.PullTimeout != 600 || !cfg.Ollama.PullOnStartup {
		t.Errorf("Unexpected ollama config %+v", cfg.Ollama)
	}
}

func TestLoadEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SEARXNG_BASE_URL", "http://searxng:8080")
	t.Setenv("SEARXNG_ENGINES", "google,bing")
	t.Setenv("SEARXNG_SAFESEARCH", "1")
	t.Setenv("MAX_SEARCH_COUNT", "20")
	t.Setenv("FETCH_MAX_CHARS", "0")
	t.Setenv("OLLAMA_MODEL", "qwen2.5:7b")
	t.Setenv("OLLAMA_PULL_ON_STARTUP", "false")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.SearXNG.BaseURL != "http://searxng:8080" {
		t.Errorf("Expected env base url, got %q", cfg.SearXNG.BaseURL)
	}
	if cfg.SearXNG.Engines != "google,bing" || cfg.SearXNG.SafeSearch != 1 {
		t.Errorf("Unexpected searxng config %+v", cfg.SearXNG)
	}
	if cfg.Search.MaxCount != 20 {
		t.Errorf("Expected legacy MAX_SEARCH_COUNT to apply, got %d", cfg.Search.MaxCount)
	}
	if cfg.Fetch.MaxChars != 0 {
		t.Errorf("Expected max chars 0, got %d", cfg.Fetch.MaxChars)
	}
	if cfg.Ollama.Model != "qwen2.5:7b" || cfg.Ollama.PullOnStartup {
		t.Errorf("Unexpected ollama config %+v", cfg.Ollama)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Expected LOG_LEVEL to apply, got %q", cfg.Logging.Level)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "zaatar.yaml")
	content := []byte(`
server:
  port: 9000
searxng:
  base_url: http://search.internal
search:
  default_count: 3
`)
	if err := os.WriteFile(path, content, 0600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 9000 || cfg.SearXNG.BaseURL != "http://search.internal" || cfg.Search.DefaultCount != 3 {
		t.Errorf("Config file values not applied: %+v", cfg)
	}
	if cfg.Search.MaxCount != 10 {
		t.Errorf("Expected default max count to survive, got %d", cfg.Search.MaxCount)
	}

	t.Run("Missing explicit file is an error", func(t *testing.T) {
		if _, err := Load(filepath.Join(dir, "absent.yaml")); err == nil {
			t.Error("Expected error for missing config file")
		}
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			SearXNG: SearXNGConfig{Timeout: 30},
			Search:  SearchConfig{DefaultCount: 5, MaxCount: 10},
			Fetch:   FetchConfig{Timeout: 30},
			Ollama:  OllamaConfig{Timeout: 120, PullTimeout: 600},
		}
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("Expected valid config, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"Zero max count", func(c *Config) { c.Search.MaxCount = 0 }},
		{"Default above max", func(c *Config) { c.Search.DefaultCount = 11 }},
		{"Default zero", func(c *Config) { c.Search.DefaultCount = 0 }},
		{"Safesearch out of range", func(c *Config) { c.SearXNG.SafeSearch = 3 }},
		{"Zero fetch timeout", func(c *Config) { c.Fetch.Timeout = 0 }},
		{"Negative pull timeout", func(c *Config) { c.Ollama.PullTimeout = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}
