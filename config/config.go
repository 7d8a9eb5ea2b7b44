package config

import (
	"fmt"
	"strings"
	"time"
)

// Config holds metadata source configuration.
type Config struct {
	BaseURL string
	// Country is the storefront locale code used in product and search URLs.
	Country string
	// Language filters search results; a 2-letter code or "all".
	Language string
	// NumMatches caps how many candidate product pages identify looks at.
	NumMatches int
	// MaxSearchPages caps how many result pages the paginator walks.
	MaxSearchPages int

	TitleBlacklist string // comma-separated words
	TagBlacklist   string // comma-separated tags

	RemoveLeadingZeroes bool
	ResizeCover         bool
	CoverWidth          int
	CoverHeight         int

	Timeout          time.Duration
	UserAgent        string
	ChallengeRetries int
	ChallengeWait    time.Duration

	CoverCacheSize int
	MetricsAddr    string
	Verbose        bool
}

// DefaultConfig returns the defaults used by the CLI and tests.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:             "https://www.kobo.com/",
		Country:             "us",
		Language:            "all",
		NumMatches:          10,
		MaxSearchPages:      4,
		TitleBlacklist:      "",
		TagBlacklist:        "",
		RemoveLeadingZeroes: false,
		ResizeCover:         false,
		CoverWidth:          1650,
		CoverHeight:         2200,
		Timeout:             30 * time.Second,
		UserAgent:           "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
		ChallengeRetries:    15,
		ChallengeWait:       time.Second,
		CoverCacheSize:      256,
		MetricsAddr:         "",
		Verbose:             false,
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}
	if !strings.HasSuffix(c.BaseURL, "/") {
		return fmt.Errorf("base URL must end with a slash")
	}
	if c.Country == "" {
		return fmt.Errorf("country cannot be empty")
	}
	if c.Language == "" {
		return fmt.Errorf("language cannot be empty; use \"all\" to disable filtering")
	}
	if c.NumMatches <= 0 {
		return fmt.Errorf("num matches must be positive")
	}
	if c.MaxSearchPages <= 0 {
		return fmt.Errorf("max search pages must be positive")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	if c.ChallengeRetries <= 0 {
		return fmt.Errorf("challenge retries must be positive")
	}
	if c.ChallengeWait < 0 {
		return fmt.Errorf("challenge wait cannot be negative")
	}
	if c.ResizeCover && (c.CoverWidth <= 0 || c.CoverHeight <= 0) {
		return fmt.Errorf("cover dimensions must be positive when resizing is enabled")
	}
	if c.CoverCacheSize <= 0 {
		return fmt.Errorf("cover cache size must be positive")
	}
	return nil
}
