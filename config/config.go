package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

const maxConcurrency = 10

// Load loads the configuration from file and environment. Without an explicit
// path a missing config file is not an error; settings may come from the
// environment alone.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)
	bindEnv(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Look for config in standard locations
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// Check current directory first
		v.AddConfigPath(".")

		// Check home directory
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".airtabler"))
		}

		// Check /etc
		v.AddConfigPath("/etc/airtabler/")
	}

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || configPath != "" {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Validate configuration
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Airtable defaults
	v.SetDefault("airtable.url", "https://api.airtable.com/v0")
	v.SetDefault("airtable.timeout", "30s")
	v.SetDefault("airtable.concurrency", 5)

	// Safety defaults
	v.SetDefault("safety.dry_run", true)
	v.SetDefault("safety.confirm_delete", true)
	v.SetDefault("safety.show_details", true)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.color", true)
}

// bindEnv lets the environment override credentials and endpoint
func bindEnv(v *viper.Viper) {
	_ = v.BindEnv("airtable.api_key", "AIRTABLE_API_KEY")
	_ = v.BindEnv("airtable.base_id", "AIRTABLE_BASE_ID")
	_ = v.BindEnv("airtable.url", "AIRTABLE_URL")
}

// validate checks if the configuration is valid
func validate(cfg *Config) error {
	if cfg.Airtable.BaseID == "" {
		return fmt.Errorf("airtable.base_id is required")
	}

	if cfg.Airtable.APIKey == "" || cfg.Airtable.APIKey == "your-api-key-here" {
		return fmt.Errorf("airtable.api_key must be set to a valid API key")
	}

	if cfg.Airtable.Concurrency < 1 || cfg.Airtable.Concurrency > maxConcurrency {
		return fmt.Errorf("airtable.concurrency must be between 1 and %d, got %d", maxConcurrency, cfg.Airtable.Concurrency)
	}

	if cfg.Airtable.Timeout < 0 {
		return fmt.Errorf("airtable.timeout must not be negative")
	}

	for name, preset := range cfg.Filter.Presets {
		if preset.Expression == "" {
			return fmt.Errorf("filter preset %q has no expression", name)
		}
	}

	// Validate logging level
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s", cfg.Logging.Level)
	}

	// Validate logging format
	validFormats := map[string]bool{
		"console": true,
		"json":    true,
	}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("invalid logging format: %s", cfg.Logging.Format)
	}

	return nil
}
