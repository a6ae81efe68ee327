// Package stockprice provides a client for real-time stock quote APIs.
package stockprice

import (
	"os"
	"time"
)

// Config holds configuration for the stock quote API client.
type Config struct {
	BaseURL string        // Base URL for the API (e.g., "https://api.twelvedata.com")
	APIKey  string        // API key for authentication
	Timeout time.Duration // HTTP request timeout
}

// LoadConfig loads stock quote API configuration from environment variables.
func LoadConfig() Config {
	return Config{
		BaseURL: os.Getenv("STOCK_PRICE_BASE_URL"),
		APIKey:  os.Getenv("STOCK_PRICE_API_KEY"),
		Timeout: 10 * time.Second,
	}
}
