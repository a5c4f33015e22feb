// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/go-playground/validator/v10"
)

// Defaults mirror the timings that keep a live results page stable between steps.
const (
	DefaultScrollSettleMS         = 1000
	DefaultScrollIntoViewSettleMS = 2000
	DefaultClickSettleMS          = 4000
	DefaultPollIntervalMS         = 500
	DefaultPollAttempts           = 15
	DefaultPort                   = 8080
)

// Config represents the CLI configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	// Run
	URL       string `json:"url,omitempty" validate:"omitempty,url"` // Results page to open
	PageLimit int    `json:"page_limit,omitempty" validate:"gte=0"`  // 0 means until no next page

	// Timings (milliseconds)
	ScrollSettleMS         int `json:"scroll_settle_ms,omitempty" validate:"gte=0"`
	ScrollIntoViewSettleMS int `json:"scroll_into_view_settle_ms,omitempty" validate:"gte=0"`
	ClickSettleMS          int `json:"click_settle_ms,omitempty" validate:"gte=0"`
	PollIntervalMS         int `json:"poll_interval_ms,omitempty" validate:"gte=0"`
	PollAttempts           int `json:"poll_attempts,omitempty" validate:"gte=0"`

	// Page matching; empty uses the runner defaults
	NextPageSelectors  []string `json:"next_page_selectors,omitempty" validate:"dive,required"`
	ProfileLinkPattern string   `json:"profile_link_pattern,omitempty"`

	// Browser; Headless is a pointer so an absent value keeps the default
	Headless   *bool  `json:"headless,omitempty"`
	ChromePath string `json:"chrome_path,omitempty"` // Chrome/Chromium binary

	// Behavior
	Verbose     bool   `json:"verbose,omitempty"`                         // Print detailed debug information
	DatabaseURL string `json:"database_url,omitempty"`                    // PostgreSQL connection URL
	Port        int    `json:"port,omitempty" validate:"gte=0,lte=65535"` // HTTP port for serve
}

// Default returns the configuration used when nothing else is given.
func Default() Config {
	headless := true
	return Config{
		ScrollSettleMS:         DefaultScrollSettleMS,
		ScrollIntoViewSettleMS: DefaultScrollIntoViewSettleMS,
		ClickSettleMS:          DefaultClickSettleMS,
		PollIntervalMS:         DefaultPollIntervalMS,
		PollAttempts:           DefaultPollAttempts,
		Headless:               &headless,
		Port:                   DefaultPort,
	}
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
// Note: This doesn't check for required fields since those are handled
// by CLI flag validation after merging.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	if c.ChromePath != "" {
		if _, err := os.Stat(c.ChromePath); os.IsNotExist(err) {
			return fmt.Errorf("config error: chrome binary not found: %s", c.ChromePath)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with unset fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.URL == "" {
		result.URL = defaults.URL
	}
	if result.ProfileLinkPattern == "" {
		result.ProfileLinkPattern = defaults.ProfileLinkPattern
	}
	if result.ChromePath == "" {
		result.ChromePath = defaults.ChromePath
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.Headless == nil && defaults.Headless != nil {
		headless := *defaults.Headless
		result.Headless = &headless
	}
	if len(result.NextPageSelectors) == 0 {
		result.NextPageSelectors = slices.Clone(defaults.NextPageSelectors)
	}

	// Int fields: use default if zero
	if result.PageLimit == 0 {
		result.PageLimit = defaults.PageLimit
	}
	if result.ScrollSettleMS == 0 {
		result.ScrollSettleMS = defaults.ScrollSettleMS
	}
	if result.ScrollIntoViewSettleMS == 0 {
		result.ScrollIntoViewSettleMS = defaults.ScrollIntoViewSettleMS
	}
	if result.ClickSettleMS == 0 {
		result.ClickSettleMS = defaults.ClickSettleMS
	}
	if result.PollIntervalMS == 0 {
		result.PollIntervalMS = defaults.PollIntervalMS
	}
	if result.PollAttempts == 0 {
		result.PollAttempts = defaults.PollAttempts
	}
	if result.Port == 0 {
		result.Port = defaults.Port
	}

	// Plain bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

// IsHeadless reports whether the browser runs without a window. Unset means headless.
func (c *Config) IsHeadless() bool {
	return c.Headless == nil || *c.Headless
}

// ScrollSettle is the pause after each scroll step.
func (c *Config) ScrollSettle() time.Duration {
	return millis(c.ScrollSettleMS)
}

// ScrollIntoViewSettle is the pause after bringing the next-page control into view.
func (c *Config) ScrollIntoViewSettle() time.Duration {
	return millis(c.ScrollIntoViewSettleMS)
}

// ClickSettle is the pause after activating the next-page control.
func (c *Config) ClickSettle() time.Duration {
	return millis(c.ClickSettleMS)
}

// PollInterval is the pause between checks for rendered profile links.
func (c *Config) PollInterval() time.Duration {
	return millis(c.PollIntervalMS)
}

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
