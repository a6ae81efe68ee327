// Package di provides dependency injection factories for creating application components.
package di

import (
	"time"

	"github.com/redis/go-redis/v9"

	"portfolio_backend/internal/feature/portfolio/usecase"
	"portfolio_backend/internal/platform/cache"
	"portfolio_backend/internal/platform/externalapi/stockprice"
	infrahttp "portfolio_backend/internal/platform/http"
)

// NewQuoteRepository creates a fully configured stock quote client.
// If Redis is available, quotes are cached so that users holding the same
// stock share one provider request per TTL window.
func NewQuoteRepository(rdb *redis.Client, ttl time.Duration) usecase.QuoteRepository {
	cfg := stockprice.LoadConfig()
	httpClient := infrahttp.NewHTTPClient(cfg.Timeout)
	client := stockprice.NewQuoteClient(cfg, httpClient)
	if rdb == nil {
		return client
	}
	return cache.NewCachingQuoteRepository(rdb, ttl, client, "quotes")
}
