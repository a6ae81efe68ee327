package di

import (
	"portfolio_backend/internal/feature/portfolio/usecase"
	"portfolio_backend/internal/platform/externalapi/newsclient"
	infrahttp "portfolio_backend/internal/platform/http"
)

// NewNewsSources creates one client per configured news provider.
func NewNewsSources() []usecase.NewsSource {
	cfgs := newsclient.LoadConfigs()
	sources := make([]usecase.NewsSource, 0, len(cfgs))
	for _, cfg := range cfgs {
		httpClient := infrahttp.NewHTTPClient(cfg.Timeout)
		sources = append(sources, newsclient.NewNewsSearchClient(cfg, httpClient))
	}
	return sources
}
