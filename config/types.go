package config

import "time"

// Config represents the complete configuration structure
type Config struct {
	Airtable AirtableConfig `mapstructure:"airtable"`
	Filter   FilterConfig   `mapstructure:"filter"`
	Safety   SafetyConfig   `mapstructure:"safety"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// AirtableConfig holds API connection details
type AirtableConfig struct {
	URL          string        `mapstructure:"url"`
	BaseID       string        `mapstructure:"base_id"`
	APIKey       string        `mapstructure:"api_key"`
	Timeout      time.Duration `mapstructure:"timeout"`
	Concurrency  int           `mapstructure:"concurrency"`
	DefaultTable string        `mapstructure:"default_table"`
}

// FilterConfig contains client-side filter settings
type FilterConfig struct {
	// DefaultExpression is applied by list when no --filter or --preset is given
	DefaultExpression string                  `mapstructure:"default_expression"`
	Presets           map[string]FilterPreset `mapstructure:"presets"`
}

// FilterPreset is a named, reusable filter expression
type FilterPreset struct {
	Expression  string `mapstructure:"expression"`
	Description string `mapstructure:"description"`
}

// SafetyConfig contains safety-related settings
type SafetyConfig struct {
	DryRun        bool `mapstructure:"dry_run"`
	ConfirmDelete bool `mapstructure:"confirm_delete"`
	ShowDetails   bool `mapstructure:"show_details"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}

// Table returns name, or the configured default table when name is empty
func (c *Config) Table(name string) string {
	if name != "" {
		return name
	}
	return c.Airtable.DefaultTable
}
