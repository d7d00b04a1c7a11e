package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	SearXNG SearXNGConfig `mapstructure:"searxng"`
	Search  SearchConfig  `mapstructure:"search"`
	Fetch   FetchConfig   `mapstructure:"fetch"`
	Ollama  OllamaConfig  `mapstructure:"ollama"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
}

// SearXNGConfig describes the metasearch engine upstream
type SearXNGConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	Engines    string `mapstructure:"engines"`    // Comma-separated allow-list, empty means engine defaults
	SafeSearch int    `mapstructure:"safesearch"` // 0 off, 1 moderate, 2 strict
	Timeout    int    `mapstructure:"timeout"`
}

type SearchConfig struct {
	DefaultCount int `mapstructure:"default_count"`
	MaxCount     int `mapstructure:"max_count"`
}

type FetchConfig struct {
	Timeout      int    `mapstructure:"timeout"`
	MaxChars     int    `mapstructure:"max_chars"` // <= 0 disables truncation
	UserAgent    string `mapstructure:"user_agent"`
	MaxBodyBytes int64  `mapstructure:"max_body_bytes"`
}

// OllamaConfig describes the inference service used for summaries
type OllamaConfig struct {
	BaseURL       string `mapstructure:"base_url"`
	Model         string `mapstructure:"model"`
	Timeout       int    `mapstructure:"timeout"`
	PullTimeout   int    `mapstructure:"pull_timeout"`
	PullOnStartup bool   `mapstructure:"pull_on_startup"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from defaults, an optional config file and the
// environment, in increasing order of precedence.
func Load(cfgFile string) (*Config, error) {
	// Missing .env files are fine
	_ = godotenv.Load()
	_ = godotenv.Load(".env.local")

	v := viper.New()
	setDefaults(v)

	// searxng.base_url -> SEARXNG_BASE_URL
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindLegacyEnv(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	if err := v.ReadInConfig(); err != nil {
		// Only a searched-for config may be absent; an explicit path must exist.
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.read_timeout", 30)
	v.SetDefault("server.write_timeout", 300)

	v.SetDefault("searxng.base_url", "http://localhost:8080")
	v.SetDefault("searxng.engines", "")
	v.SetDefault("searxng.safesearch", 0)
	v.SetDefault("searxng.timeout", 30)

	v.SetDefault("search.default_count", 5)
	v.SetDefault("search.max_count", 10)

	v.SetDefault("fetch.timeout", 30)
	v.SetDefault("fetch.max_chars", 50000)
	v.SetDefault("fetch.user_agent", "zaatar/dev")
	v.SetDefault("fetch.max_body_bytes", 10<<20)

	v.SetDefault("ollama.base_url", "http://localhost:11434")
	v.SetDefault("ollama.model", "llama3.2:3b")
	v.SetDefault("ollama.timeout", 120)
	v.SetDefault("ollama.pull_timeout", 600)
	v.SetDefault("ollama.pull_on_startup", true)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// bindLegacyEnv keeps the flat variable names older deployments use.
func bindLegacyEnv(v *viper.Viper) {
	_ = v.BindEnv("search.default_count", "SEARCH_DEFAULT_COUNT", "DEFAULT_SEARCH_COUNT")
	_ = v.BindEnv("search.max_count", "SEARCH_MAX_COUNT", "MAX_SEARCH_COUNT")
	_ = v.BindEnv("logging.level", "LOGGING_LEVEL", "LOG_LEVEL")
}

// Validate checks invariants the rest of the service relies on.
func (c *Config) Validate() error {
	if c.Search.MaxCount < 1 {
		return fmt.Errorf("search.max_count must be at least 1, got %d", c.Search.MaxCount)
	}
	if c.Search.DefaultCount < 1 || c.Search.DefaultCount > c.Search.MaxCount {
		return fmt.Errorf("search.default_count must be between 1 and %d, got %d", c.Search.MaxCount, c.Search.DefaultCount)
	}
	if c.SearXNG.SafeSearch < 0 || c.SearXNG.SafeSearch > 2 {
		return fmt.Errorf("searxng.safesearch must be 0, 1 or 2, got %d", c.SearXNG.SafeSearch)
	}
	timeouts := []struct {
		key string
		val int
	}{
		{"searxng.timeout", c.SearXNG.Timeout},
		{"fetch.timeout", c.Fetch.Timeout},
		{"ollama.timeout", c.Ollama.Timeout},
		{"ollama.pull_timeout", c.Ollama.PullTimeout},
	}
	for _, t := range timeouts {
		if t.val <= 0 {
			return fmt.Errorf("%s must be positive, got %d", t.key, t.val)
		}
	}
	return nil
}

// Seconds converts a config value in seconds to a duration.
func Seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
