// Package newsclient provides a client for keyword based news search APIs.
package newsclient

import (
	"os"
	"strings"
	"time"
)

// Config holds configuration for a news search API client.
type Config struct {
	SourceName string        // Logical name reported in gathered articles (e.g., "newsapi")
	BaseURL    string        // Base URL for the API
	APIKey     string        // API key for authentication
	Timeout    time.Duration // HTTP request timeout
	RateLimit  float64       // Requests per second against the provider
}

// LoadConfig loads the primary news source configuration from environment variables.
func LoadConfig() Config {
	name := os.Getenv("NEWS_SOURCE_NAME")
	if name == "" {
		name = "newsapi"
	}
	return Config{
		SourceName: name,
		BaseURL:    os.Getenv("NEWS_API_BASE_URL"),
		APIKey:     os.Getenv("NEWS_API_KEY"),
		Timeout:    10 * time.Second,
		RateLimit:  2,
	}
}

// LoadConfigs loads every configured news source. NEWS_SOURCES holds a
// comma separated list of source names; per source settings use the
// NEWS_<NAME>_BASE_URL / NEWS_<NAME>_API_KEY convention. When NEWS_SOURCES
// is unset the single primary source from LoadConfig is returned.
func LoadConfigs() []Config {
	raw := os.Getenv("NEWS_SOURCES")
	if raw == "" {
		return []Config{LoadConfig()}
	}
	var cfgs []Config
	for _, name := range strings.Split(raw, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		key := strings.ToUpper(name)
		cfgs = append(cfgs, Config{
			SourceName: name,
			BaseURL:    os.Getenv("NEWS_" + key + "_BASE_URL"),
			APIKey:     os.Getenv("NEWS_" + key + "_API_KEY"),
			Timeout:    10 * time.Second,
			RateLimit:  2,
		})
	}
	return cfgs
}
