package dto

import (
	"time"

	"portfolio_backend/internal/feature/portfolio/domain/entity"
)

// PortfolioResponse は保有銘柄のレスポンスDTOです。評価損益を含みます。
type PortfolioResponse struct {
	ID             uint    `json:"id"`
	StockCode      string  `json:"stock_code"`
	StockName      string  `json:"stock_name"`
	Quantity       int64   `json:"quantity"`
	AvgPrice       float64 `json:"avg_price"`
	CurrentPrice   float64 `json:"current_price"`
	ProfitLoss     float64 `json:"profit_loss"`
	ProfitLossRate float64 `json:"profit_loss_rate"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`
}

// NewPortfolioResponse はエンティティからレスポンスDTOを生成します。
func NewPortfolioResponse(p entity.Portfolio) PortfolioResponse {
	return PortfolioResponse{
		ID:             p.ID,
		StockCode:      p.StockCode,
		StockName:      p.StockName,
		Quantity:       p.Quantity,
		AvgPrice:       p.AvgPrice,
		CurrentPrice:   p.CurrentPrice,
		ProfitLoss:     p.ProfitLoss(),
		ProfitLossRate: p.ProfitLossRate(),
		CreatedAt:      p.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:      p.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// StrategyResponse は戦略履歴のレスポンスDTOです。
type StrategyResponse struct {
	ID               uint     `json:"id"`
	StrategyType     string   `json:"strategy_type"`
	Confidence       float64  `json:"confidence"`
	Reasoning        string   `json:"reasoning"`
	TargetPrice      *float64 `json:"target_price,omitempty"`
	PreviousStrategy string   `json:"previous_strategy,omitempty"`
	IsChanged        bool     `json:"is_changed"`
	CreatedAt        string   `json:"created_at"`
}

// NewStrategyResponse はエンティティからレスポンスDTOを生成します。
func NewStrategyResponse(s entity.Strategy) StrategyResponse {
	return StrategyResponse{
		ID:               s.ID,
		StrategyType:     string(s.Kind),
		Confidence:       s.Confidence,
		Reasoning:        s.Reasoning,
		TargetPrice:      s.TargetPrice,
		PreviousStrategy: string(s.PreviousKind),
		IsChanged:        s.IsChanged,
		CreatedAt:        s.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// NewsSummaryResponse はニュース要約のレスポンスDTOです。
type NewsSummaryResponse struct {
	Title          string  `json:"title"`
	URL            string  `json:"url"`
	Summary        string  `json:"summary"`
	Sentiment      string  `json:"sentiment"`
	RelevanceScore float64 `json:"relevance_score"`
	PublishedAt    string  `json:"published_at"`
}

// NewsDigestResponse はニュースダイジェストのレスポンスDTOです。
type NewsDigestResponse struct {
	TotalCount    int                   `json:"total_count"`
	PositiveCount int                   `json:"positive_count"`
	NegativeCount int                   `json:"negative_count"`
	NeutralCount  int                   `json:"neutral_count"`
	AvgRelevance  float64               `json:"avg_relevance"`
	LatestNews    []NewsSummaryResponse `json:"latest_news"`
}

// NewNewsDigestResponse はエンティティからレスポンスDTOを生成します。
func NewNewsDigestResponse(d *entity.NewsDigest) NewsDigestResponse {
	latest := make([]NewsSummaryResponse, 0, len(d.LatestNews))
	for _, n := range d.LatestNews {
		latest = append(latest, NewsSummaryResponse{
			Title:          n.Title,
			URL:            n.URL,
			Summary:        n.Summary,
			Sentiment:      n.Sentiment,
			RelevanceScore: n.RelevanceScore,
			PublishedAt:    n.PublishedAt.UTC().Format(time.RFC3339),
		})
	}
	return NewsDigestResponse{
		TotalCount:    d.TotalCount,
		PositiveCount: d.PositiveCount,
		NegativeCount: d.NegativeCount,
		NeutralCount:  d.NeutralCount,
		AvgRelevance:  d.AvgRelevance,
		LatestNews:    latest,
	}
}
