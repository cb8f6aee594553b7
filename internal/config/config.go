// Package config loads the CLI configuration from file, environment, and
// flag overrides.
package config

import (
	stderrors "errors"
	"strings"

	"github.com/spf13/viper"

	"github.com/felixgeelhaar/epicbreaker/internal/errors"
)

// Config is the full epicbreaker configuration.
type Config struct {
	Tracker  TrackerConfig  `mapstructure:"tracker"`
	Docs     DocsConfig     `mapstructure:"docs"`
	Oracle   OracleConfig   `mapstructure:"oracle"`
	Planning PlanningConfig `mapstructure:"planning"`
	Log      LogConfig      `mapstructure:"log"`
}

// TrackerConfig points at the issue tracker.
type TrackerConfig struct {
	BaseURL  string `mapstructure:"base_url"`
	Email    string `mapstructure:"email"`
	APIToken string `mapstructure:"api_token"`
	Project  string `mapstructure:"project"`
}

// DocsConfig points at the document store.
type DocsConfig struct {
	BaseURL  string `mapstructure:"base_url"`
	Email    string `mapstructure:"email"`
	APIToken string `mapstructure:"api_token"`
}

// OracleConfig selects and configures the generative oracle.
type OracleConfig struct {
	// Provider is "openai" or "none".
	Provider    string  `mapstructure:"provider"`
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	Model       string  `mapstructure:"model"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float32 `mapstructure:"temperature"`
}

// PlanningConfig holds the pipeline defaults.
type PlanningConfig struct {
	MaxCycleDays float64 `mapstructure:"max_cycle_days"`
	Coverage     string  `mapstructure:"coverage"`
	DryRun       bool    `mapstructure:"dry_run"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() *Config {
	return &Config{
		Oracle: OracleConfig{
			Provider: "none",
		},
		Planning: PlanningConfig{
			MaxCycleDays: 5,
			Coverage:     "standard",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads configuration from the given file path, or from the standard
// locations when path is empty, with EPICBREAKER_* environment variables
// taking precedence over file values.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("oracle.provider", "none")
	v.SetDefault("planning.max_cycle_days", 5.0)
	v.SetDefault("planning.coverage", "standard")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetEnvPrefix("EPICBREAKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.NewConfigNotFoundError(path)
		}
	} else {
		v.SetConfigName("epicbreaker")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/epicbreaker")

		// A missing default config file is fine; defaults and env apply.
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !stderrors.As(err, &notFound) {
				return nil, errors.NewConfigInvalidError(v.ConfigFileUsed(), err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.NewConfigInvalidError(v.ConfigFileUsed(), err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.Planning.MaxCycleDays <= 0 {
		return errors.NewConfigInvalidError("planning.max_cycle_days must be positive", nil)
	}

	switch c.Planning.Coverage {
	case "minimal", "basic", "standard", "comprehensive", "":
	default:
		return errors.NewConfigInvalidError(
			"planning.coverage must be one of minimal, basic, standard, comprehensive", nil)
	}

	switch c.Oracle.Provider {
	case "", "none", "openai":
	default:
		return errors.NewConfigInvalidError("oracle.provider must be none or openai", nil)
	}

	if c.Oracle.Provider == "openai" && c.Oracle.APIKey == "" {
		return errors.NewConfigInvalidError("oracle.api_key is required when oracle.provider is openai", nil)
	}

	return nil
}
