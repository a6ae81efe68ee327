package entity

import "time"

// RawArticle is an article as returned by a news source, before the oracle
// has seen it.
type RawArticle struct {
	Title       string
	URL         string
	Snippet     string
	Source      string // Name of the news source that found the article
	Keyword     string // Search keyword that matched
	PublishedAt time.Time
}

// ArticleInsight is the oracle's structured reading of one article.
type ArticleInsight struct {
	Summary   string
	Sentiment string
	Relevance float64 // In [0,1]
}

// StrategyResult is the oracle's synthesized recommendation before it is
// diffed against the prior strategy and persisted.
type StrategyResult struct {
	Kind        StrategyKind
	Confidence  float64
	Reasoning   string
	TargetPrice *float64
	Sentiment   string
}

// StrategyInput carries everything the oracle needs to synthesize a strategy
// for one position.
type StrategyInput struct {
	StockCode    string
	StockName    string
	CurrentPrice float64
	Quantity     int64
	AvgPrice     float64
	News         []NewsSummary
	PreviousKind StrategyKind // Empty when no prior strategy exists
}

// StrategyUpdate is one row of the batch report returned by a strategy
// update run.
type StrategyUpdate struct {
	PortfolioID  uint         `json:"portfolio_id"`
	StockCode    string       `json:"stock_code"`
	StockName    string       `json:"stock_name"`
	PreviousKind StrategyKind `json:"previous_strategy,omitempty"`
	NewKind      StrategyKind `json:"new_strategy"`
	Changed      bool         `json:"changed"`
	Confidence   float64      `json:"confidence"`
	Reasoning    string       `json:"reasoning"`
	NewsCount    int          `json:"news_count"`
}

// Quote is a market-data snapshot for one stock.
type Quote struct {
	Code        string
	Name        string
	Price       float64
	Change      float64 // Change versus the previous close
	ChangeRate  float64 // Change as a percentage
	Volume      int64
	RetrievedAt time.Time
}

// PriceUpdate is one row of the report returned by a price refresh run.
type PriceUpdate struct {
	PortfolioID    uint    `json:"portfolio_id"`
	StockCode      string  `json:"stock_code"`
	StockName      string  `json:"stock_name"`
	Price          float64 `json:"current_price"`
	Change         float64 `json:"change"`
	ChangeRate     float64 `json:"change_rate"`
	ProfitLoss     float64 `json:"profit_loss"`
	ProfitLossRate float64 `json:"profit_loss_rate"`
}

// StrategyChange is a changed strategy joined with its portfolio identity,
// as served by the change-history query and the on-connect greeting.
type StrategyChange struct {
	PortfolioID  uint         `json:"portfolio_id"`
	StockCode    string       `json:"stock_code"`
	StockName    string       `json:"stock_name"`
	PreviousKind StrategyKind `json:"previous_strategy,omitempty"`
	NewKind      StrategyKind `json:"new_strategy"`
	Confidence   float64      `json:"confidence"`
	Reasoning    string       `json:"reasoning"`
	ChangedAt    time.Time    `json:"changed_at"`
}

// NewsDigest aggregates recent news for one portfolio.
type NewsDigest struct {
	TotalCount    int           `json:"total_count"`
	PositiveCount int           `json:"positive_count"`
	NegativeCount int           `json:"negative_count"`
	NeutralCount  int           `json:"neutral_count"`
	AvgRelevance  float64       `json:"avg_relevance"`
	LatestNews    []NewsSummary `json:"latest_news"`
}
