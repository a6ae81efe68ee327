package di

import (
	"os"
	"strconv"

	"portfolio_backend/internal/feature/portfolio/usecase"
)

// LoadStrategyConfig loads strategy pipeline tuning from environment
// variables. Unset or invalid values fall back to the usecase defaults.
func LoadStrategyConfig() usecase.StrategyConfig {
	return usecase.StrategyConfig{
		MaxArticlesPerKeyword: envInt("STRATEGY_MAX_ARTICLES_PER_KEYWORD"),
		ConfidenceThreshold:   envFloat("STRATEGY_CONFIDENCE_THRESHOLD"),
		ItemConcurrency:       envInt("STRATEGY_ITEM_CONCURRENCY"),
	}
}

func envInt(key string) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return 0
	}
	return v
}

func envFloat(key string) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return 0
	}
	return v
}
