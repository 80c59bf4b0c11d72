// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"

	"github.com/Sallywang319/myMediaCrawler/internal/platform"
)

// Config represents the CLI configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	// Event
	Description string `json:"description,omitempty"` // Event description driving keyword extraction and judging

	// Platforms
	Platforms []string `json:"platforms,omitempty" validate:"omitempty,dive,platform"` // Platform names to crawl

	// Limits
	MaxKeywords int     `json:"max_keywords,omitempty" validate:"omitempty,gte=1"`        // Maximum extracted keywords
	Threshold   float64 `json:"threshold,omitempty" validate:"omitempty,gte=0,lte=1"`     // Relevance threshold
	ItemDelayMS int     `json:"item_delay_ms,omitempty" validate:"omitempty,gte=0"`       // Delay between items in one stream
	Retries     int     `json:"retries,omitempty" validate:"omitempty,gte=1,lte=10"`      // Sink write attempts per record

	// Behavior
	APIKey        string `json:"api_key,omitempty"`        // Gemini API key
	DisableFilter bool   `json:"disable_filter,omitempty"` // Persist every hit without judging
	Verbose       bool   `json:"verbose,omitempty"`        // Print detailed debug information
	DataDir       string `json:"data_dir,omitempty"`       // JSON sink base directory
	DatabaseURL   string `json:"database_url,omitempty"`   // PostgreSQL connection URL; file sink when empty
}

// validate is the shared validator instance with the custom platform rule.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// The error from registering a static rule is only non-nil for misuse.
	_ = v.RegisterValidation("platform", func(fl validator.FieldLevel) bool {
		name := fl.Field().String()
		for _, known := range platform.KnownNames() {
			if name == known {
				return true
			}
		}
		return false
	})
	return v
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
// Note: a missing API key is not an error here; the crawler degrades to its
// deterministic fallbacks without one.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("config error: %w", err)
		}
		for _, fieldErr := range fieldErrs {
			switch fieldErr.Tag() {
			case "platform":
				return fmt.Errorf("config error: unknown platform %q (known: %v)", fieldErr.Value(), platform.KnownNames())
			case "gte", "lte":
				return fmt.Errorf("config error: %q out of range", fieldErr.Field())
			default:
				return fmt.Errorf("config error: %q is invalid", fieldErr.Field())
			}
		}
		return fmt.Errorf("config error: %w", err)
	}
	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
// A zero value is indistinguishable from unset here; callers that need an
// explicit zero (a threshold of 0, no item delay) must re-apply it after
// merging, which the crawl command does for flags marked as changed.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.Description == "" {
		result.Description = defaults.Description
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.DataDir == "" {
		result.DataDir = defaults.DataDir
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}

	// Slice fields: use default if unset
	if len(result.Platforms) == 0 {
		result.Platforms = defaults.Platforms
	}

	// Int fields: use default if zero
	if result.MaxKeywords == 0 {
		result.MaxKeywords = defaults.MaxKeywords
	}
	if result.ItemDelayMS == 0 {
		result.ItemDelayMS = defaults.ItemDelayMS
	}
	if result.Retries == 0 {
		result.Retries = defaults.Retries
	}

	// Float fields
	if result.Threshold == 0 {
		result.Threshold = defaults.Threshold
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}
