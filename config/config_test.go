package config

import (
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "empty base url", mutate: func(c *Config) { c.BaseURL = "" }},
		{name: "base url without trailing slash", mutate: func(c *Config) { c.BaseURL = "https://www.kobo.com" }},
		{name: "empty country", mutate: func(c *Config) { c.Country = "" }},
		{name: "empty language", mutate: func(c *Config) { c.Language = "" }},
		{name: "zero matches", mutate: func(c *Config) { c.NumMatches = 0 }},
		{name: "zero search pages", mutate: func(c *Config) { c.MaxSearchPages = 0 }},
		{name: "zero timeout", mutate: func(c *Config) { c.Timeout = 0 }},
		{name: "empty user agent", mutate: func(c *Config) { c.UserAgent = "" }},
		{name: "zero challenge retries", mutate: func(c *Config) { c.ChallengeRetries = 0 }},
		{name: "negative challenge wait", mutate: func(c *Config) { c.ChallengeWait = -time.Second }},
		{name: "resize without dimensions", mutate: func(c *Config) { c.ResizeCover = true; c.CoverWidth = 0 }},
		{name: "zero cache size", mutate: func(c *Config) { c.CoverCacheSize = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("KOBOSOURCE_TEST_STR", "value")
	if got, ok := EnvString("KOBOSOURCE_TEST_STR"); !ok || got != "value" {
		t.Fatalf("EnvString = %q, %v", got, ok)
	}
	if _, ok := EnvString("KOBOSOURCE_TEST_MISSING"); ok {
		t.Fatalf("EnvString should miss")
	}

	t.Setenv("KOBOSOURCE_TEST_INT", "42")
	if got, ok, err := EnvInt("KOBOSOURCE_TEST_INT"); err != nil || !ok || got != 42 {
		t.Fatalf("EnvInt = %d, %v, %v", got, ok, err)
	}
	t.Setenv("KOBOSOURCE_TEST_INT", "nope")
	if _, _, err := EnvInt("KOBOSOURCE_TEST_INT"); err == nil {
		t.Fatalf("EnvInt should reject garbage")
	}

	t.Setenv("KOBOSOURCE_TEST_BOOL", "true")
	if got, ok, err := EnvBool("KOBOSOURCE_TEST_BOOL"); err != nil || !ok || !got {
		t.Fatalf("EnvBool = %v, %v, %v", got, ok, err)
	}
}
