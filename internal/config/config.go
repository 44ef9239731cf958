package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/a3tai/mcp-pdf-form-filler/internal/llm"
)

const (
	// EnvPrefix prefixes every environment override, e.g. FORM_FILLER_LOG_LEVEL.
	EnvPrefix = "FORM_FILLER"

	// Credential variables read directly.
	EnvSonarAPIKey  = "SONAR_API_KEY"
	EnvOpenAIAPIKey = "OPENAI_API_KEY"

	DefaultLogLevel        = "info"
	DefaultLogFormat       = "json"
	DefaultMaxFileSize     = 100 * 1024 * 1024 // 100MB
	DefaultPromptCharLimit = 15000
	DefaultRequestTimeout  = 60 * time.Second
)

// Config holds all configuration for the form filler.
type Config struct {
	Version    string
	ServerName string

	LogLevel  string
	LogFormat string

	MaxFileSize     int64 // Maximum PDF file size in bytes
	PromptCharLimit int   // Characters of document text per prompt
	RequestTimeout  time.Duration
	AutoRegenerate  bool // Ask viewers to rebuild field appearances

	Primary  EndpointConfig
	Fallback EndpointConfig
	Retry    RetryConfig
}

// EndpointConfig addresses one inference endpoint.
type EndpointConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// RetryConfig is the primary endpoint retry policy.
type RetryConfig struct {
	MaxAttempts int
	Multiplier  time.Duration
	MinWait     time.Duration
	MaxWait     time.Duration
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version:         "1.0.0",
		ServerName:      "mcp-pdf-form-filler",
		LogLevel:        DefaultLogLevel,
		LogFormat:       DefaultLogFormat,
		MaxFileSize:     DefaultMaxFileSize,
		PromptCharLimit: DefaultPromptCharLimit,
		RequestTimeout:  DefaultRequestTimeout,
		Primary: EndpointConfig{
			BaseURL: llm.DefaultSonarBaseURL,
			Model:   llm.DefaultSonarModel,
		},
		Fallback: EndpointConfig{
			Model: llm.DefaultOpenAIModel,
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			Multiplier:  time.Second,
			MinWait:     4 * time.Second,
			MaxWait:     10 * time.Second,
		},
	}
}

// flagKeys maps flag names to viper keys.
var flagKeys = map[string]string{
	"log-level":          "log-level",
	"log-format":         "log-format",
	"max-file-size":      "max-file-size",
	"prompt-char-limit":  "prompt-char-limit",
	"request-timeout":    "request-timeout",
	"auto-regenerate":    "auto-regenerate",
	"primary-base-url":   "primary.base-url",
	"primary-model":      "primary.model",
	"fallback-base-url":  "fallback.base-url",
	"fallback-model":     "fallback.model",
	"retry-max-attempts": "retry.max-attempts",
	"retry-multiplier":   "retry.multiplier",
	"retry-min-wait":     "retry.min-wait",
	"retry-max-wait":     "retry.max-wait",
}

// DefineFlags registers configuration flags on fs.
func DefineFlags(fs *pflag.FlagSet) {
	d := DefaultConfig()
	fs.String("config", "", "Optional config file (yaml, json or toml)")
	fs.String("log-level", d.LogLevel, "Log level (debug, info, warn, error)")
	fs.String("log-format", d.LogFormat, "Log format (json, console)")
	fs.Int64("max-file-size", d.MaxFileSize, "Maximum PDF file size in bytes")
	fs.Int("prompt-char-limit", d.PromptCharLimit, "Characters of document text embedded in each prompt")
	fs.Duration("request-timeout", d.RequestTimeout, "Timeout for a single inference request")
	fs.Bool("auto-regenerate", d.AutoRegenerate, "Ask PDF viewers to regenerate field appearances")
	fs.String("primary-base-url", d.Primary.BaseURL, "Primary (Sonar) API base URL")
	fs.String("primary-model", d.Primary.Model, "Primary (Sonar) model")
	fs.String("fallback-base-url", d.Fallback.BaseURL, "Fallback (OpenAI) API base URL; empty uses the library default")
	fs.String("fallback-model", d.Fallback.Model, "Fallback (OpenAI) model")
	fs.Int("retry-max-attempts", d.Retry.MaxAttempts, "Attempts on the primary endpoint before falling back")
	fs.Duration("retry-multiplier", d.Retry.Multiplier, "Backoff multiplier")
	fs.Duration("retry-min-wait", d.Retry.MinWait, "Minimum wait between primary attempts")
	fs.Duration("retry-max-wait", d.Retry.MaxWait, "Maximum wait between primary attempts")
}

// Load builds the configuration from defaults, an optional .env file, an
// optional config file, environment variables and the flags in fs, in
// increasing order of precedence.
func Load(fs *pflag.FlagSet) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := viper.New()
	cfg := DefaultConfig()
	setupViperEnvironment(v, cfg)

	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, eris.Wrapf(err, "bind flag %s", name)
				}
			}
		}
		if f := fs.Lookup("config"); f != nil && f.Value.String() != "" {
			v.SetConfigFile(f.Value.String())
			if err := v.ReadInConfig(); err != nil {
				return nil, eris.Wrapf(err, "read config file %s", f.Value.String())
			}
		}
	}

	populateConfigFromViper(v, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, eris.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return eris.Wrapf(err, "load %s", path)
	}
	return nil
}

// setupViperEnvironment configures environment lookups and defaults.
func setupViperEnvironment(v *viper.Viper, cfg *Config) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("primary.api-key", EnvSonarAPIKey, EnvPrefix+"_PRIMARY_API_KEY")
	_ = v.BindEnv("fallback.api-key", EnvOpenAIAPIKey, EnvPrefix+"_FALLBACK_API_KEY")

	v.SetDefault("log-level", cfg.LogLevel)
	v.SetDefault("log-format", cfg.LogFormat)
	v.SetDefault("max-file-size", cfg.MaxFileSize)
	v.SetDefault("prompt-char-limit", cfg.PromptCharLimit)
	v.SetDefault("request-timeout", cfg.RequestTimeout)
	v.SetDefault("auto-regenerate", cfg.AutoRegenerate)
	v.SetDefault("primary.base-url", cfg.Primary.BaseURL)
	v.SetDefault("primary.model", cfg.Primary.Model)
	v.SetDefault("fallback.base-url", cfg.Fallback.BaseURL)
	v.SetDefault("fallback.model", cfg.Fallback.Model)
	v.SetDefault("retry.max-attempts", cfg.Retry.MaxAttempts)
	v.SetDefault("retry.multiplier", cfg.Retry.Multiplier)
	v.SetDefault("retry.min-wait", cfg.Retry.MinWait)
	v.SetDefault("retry.max-wait", cfg.Retry.MaxWait)
}

// populateConfigFromViper fills cfg with the resolved values.
func populateConfigFromViper(v *viper.Viper, cfg *Config) {
	cfg.LogLevel = v.GetString("log-level")
	cfg.LogFormat = v.GetString("log-format")
	cfg.MaxFileSize = v.GetInt64("max-file-size")
	cfg.PromptCharLimit = v.GetInt("prompt-char-limit")
	cfg.RequestTimeout = v.GetDuration("request-timeout")
	cfg.AutoRegenerate = v.GetBool("auto-regenerate")

	cfg.Primary = EndpointConfig{
		APIKey:  v.GetString("primary.api-key"),
		BaseURL: v.GetString("primary.base-url"),
		Model:   v.GetString("primary.model"),
	}
	cfg.Fallback = EndpointConfig{
		APIKey:  v.GetString("fallback.api-key"),
		BaseURL: v.GetString("fallback.base-url"),
		Model:   v.GetString("fallback.model"),
	}
	cfg.Retry = RetryConfig{
		MaxAttempts: v.GetInt("retry.max-attempts"),
		Multiplier:  v.GetDuration("retry.multiplier"),
		MinWait:     v.GetDuration("retry.min-wait"),
		MaxWait:     v.GetDuration("retry.max-wait"),
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return eris.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}
	if c.LogFormat != "json" && c.LogFormat != "console" {
		return eris.Errorf("invalid log format: %s (must be json or console)", c.LogFormat)
	}
	if c.MaxFileSize <= 0 {
		return eris.New("maximum file size must be positive")
	}
	if c.PromptCharLimit <= 0 {
		return eris.New("prompt character limit must be positive")
	}
	if c.RequestTimeout <= 0 {
		return eris.New("request timeout must be positive")
	}
	if c.Primary.Model == "" || c.Fallback.Model == "" {
		return eris.New("primary and fallback models must be set")
	}
	if c.Retry.MaxAttempts < 1 {
		return eris.New("retry max attempts must be at least 1")
	}
	if c.Retry.Multiplier <= 0 {
		return eris.New("retry multiplier must be positive")
	}
	if c.Retry.MinWait < 0 || c.Retry.MaxWait < c.Retry.MinWait {
		return eris.Errorf("invalid retry waits: min %s, max %s", c.Retry.MinWait, c.Retry.MaxWait)
	}
	return nil
}

// HasCredentials reports whether at least one endpoint has an API key.
func (c *Config) HasCredentials() bool {
	return c.Primary.APIKey != "" || c.Fallback.APIKey != ""
}

// IsDebug returns true if debug logging is enabled.
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration without
// credentials.
func (c *Config) String() string {
	return fmt.Sprintf("Config{LogLevel: %s, LogFormat: %s, MaxFileSize: %d, PromptCharLimit: %d, "+
		"Primary: %s, Fallback: %s, RetryMaxAttempts: %d}",
		c.LogLevel, c.LogFormat, c.MaxFileSize, c.PromptCharLimit,
		c.Primary.Model, c.Fallback.Model, c.Retry.MaxAttempts)
}

// InitLogger builds the process logger and installs it globally. Output
// goes to stderr so stdout stays free for protocol traffic.
func InitLogger(level, format string) (*zap.Logger, error) {
	var zapCfg zap.Config
	if format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}
	zapCfg.OutputPaths = []string{"stderr"}
	zapCfg.ErrorOutputPaths = []string{"stderr"}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(lvl)

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)
	return logger, nil
}
