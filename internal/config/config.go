package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// New creates a new configuration instance
func New() (*Config, error) {
	return Load("")
}

// Load creates a configuration instance, reading configFile when it is set
// and searching the default locations otherwise
func Load(configFile string) (*Config, error) {
	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/phishguard/")
		v.AddConfigPath("$HOME/.phishguard")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvPrefix("PHISHGUARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configFile != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults
	}

	return &Config{v: v}, nil
}

// NewFromViper creates a new configuration instance from an existing Viper instance
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// NewEmptyViper creates a new Viper instance with defaults
func NewEmptyViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	// Scoring service
	v.SetDefault("scoring.base_url", "http://localhost:8000")
	v.SetDefault("scoring.timeout", "30s")

	// Narrative
	v.SetDefault("narrative.provider", "ollama")
	v.SetDefault("narrative.max_body_size", 4096)

	// Ollama defaults
	v.SetDefault("ollama.base_url", "http://localhost:11434")
	v.SetDefault("ollama.model", "smollm2")
	v.SetDefault("ollama.timeout", "120s")

	// OpenAI defaults
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.model_name", "gpt-4o-mini")
	v.SetDefault("openai.max_tokens", 800)
	v.SetDefault("openai.temperature", 0.2)
	v.SetDefault("openai.top_p", 0.9)

	// Gemini defaults
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model_name", "gemini-1.5-flash")
	v.SetDefault("gemini.max_tokens", 800)
	v.SetDefault("gemini.temperature", 0.2)
	v.SetDefault("gemini.top_p", 0.9)

	// Bedrock defaults
	v.SetDefault("bedrock.region", "us-east-1")
	v.SetDefault("bedrock.model_id", "anthropic.claude-v2")
	v.SetDefault("bedrock.max_tokens", 800)
	v.SetDefault("bedrock.temperature", 0.2)
	v.SetDefault("bedrock.top_p", 0.9)

	// Server defaults
	v.SetDefault("server.frontend", "http")
	v.SetDefault("server.listen_address", "0.0.0.0:8080")
	v.SetDefault("server.shutdown_timeout", "10s")

	// Postfix content filter defaults
	v.SetDefault("postfix.listen_address", "0.0.0.0:10025")
	v.SetDefault("postfix.reinject_address", "127.0.0.1")
	v.SetDefault("postfix.reinject_port", 10026)
	v.SetDefault("postfix.reinject_enabled", true)
	v.SetDefault("postfix.modify_subject", false)
	v.SetDefault("postfix.subject_prefix", "[PHISHING] ")
	v.SetDefault("postfix.trusted_domains", []string{})
	v.SetDefault("postfix.analysis_timeout", "180s")
	v.SetDefault("postfix.headers.risk", "X-Phish-Risk")
	v.SetDefault("postfix.headers.score", "X-Phish-Score")
	v.SetDefault("postfix.headers.analysis", "X-Phish-Analysis")

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.namespace", "phishguard")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetFloat64 gets a float64 value from the configuration
func (c *Config) GetFloat64(key string) float64 {
	return c.v.GetFloat64(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration
func (c *Config) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// GetDuration gets a duration value from the configuration
func (c *Config) GetDuration(key string) (time.Duration, error) {
	d, err := time.ParseDuration(c.GetString(key))
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %w", key, err)
	}
	return d, nil
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}
