// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// defaultKeywords is the rotation list used when KEYWORDS is not set:
// a spread of common job categories so successive passes diversify results.
var defaultKeywords = []string{
	"software engineer",
	"data scientist",
	"field service",
	"customer service",
	"sales",
	"marketing",
	"project manager",
	"accountant",
	"nurse",
	"technician",
}

// Config holds the application configuration.
type Config struct {
	DatabasePath string
	ListenAddr   string
	LogLevel     string

	AdzunaAppID   string
	AdzunaAppKey  string
	AdzunaCountry string

	RefreshInterval time.Duration
	PageCap         int // max API pages per source per pass; 0 means unlimited
	Rotation        bool
	Keywords        []string
	DefaultQuery    string // used when rotation is disabled; empty fetches everything
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		DatabasePath:    envOrDefault("DATABASE_PATH", "./data/jobs.db"),
		ListenAddr:      envOrDefault("LISTEN_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		AdzunaAppID:     os.Getenv("ADZUNA_APP_ID"),
		AdzunaAppKey:    os.Getenv("ADZUNA_APP_KEY"),
		AdzunaCountry:   envOrDefault("ADZUNA_COUNTRY", "us"),
		RefreshInterval: time.Hour,
		Rotation:        true,
		Keywords:        defaultKeywords,
		DefaultQuery:    os.Getenv("DEFAULT_QUERY"),
	}

	if raw := os.Getenv("REFRESH_INTERVAL"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid REFRESH_INTERVAL %q: %w", raw, err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("REFRESH_INTERVAL must be positive, got %q", raw)
		}
		cfg.RefreshInterval = d
	}

	if raw := os.Getenv("PAGE_CAP"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid PAGE_CAP %q", raw)
		}
		cfg.PageCap = n
	}

	if raw := os.Getenv("KEYWORD_ROTATION"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid KEYWORD_ROTATION %q: %w", raw, err)
		}
		cfg.Rotation = b
	}

	if raw := os.Getenv("KEYWORDS"); raw != "" {
		var keywords []string
		for _, k := range strings.Split(raw, ",") {
			k = strings.TrimSpace(k)
			if k == "" {
				continue
			}
			keywords = append(keywords, k)
		}
		if len(keywords) == 0 {
			return nil, fmt.Errorf("KEYWORDS is set but contains no keywords")
		}
		cfg.Keywords = keywords
	}

	return cfg, nil
}

// HasAdzunaCredentials reports whether the search-API collector is usable.
func (c *Config) HasAdzunaCredentials() bool {
	return c.AdzunaAppID != "" && c.AdzunaAppKey != ""
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
