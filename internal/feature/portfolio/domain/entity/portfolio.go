// Package entity defines the domain models for the portfolio feature.
package entity

import "time"

// StrategyKind is the recommendation kind for a tracked position.
type StrategyKind string

const (
	// StrategyBuy recommends increasing the position.
	StrategyBuy StrategyKind = "BUY"
	// StrategySell recommends reducing or closing the position.
	StrategySell StrategyKind = "SELL"
	// StrategyHold recommends keeping the position unchanged.
	StrategyHold StrategyKind = "HOLD"
)

// Sentiment labels attached to news and strategies.
const (
	SentimentPositive = "POSITIVE"
	SentimentNegative = "NEGATIVE"
	SentimentNeutral  = "NEUTRAL"
)

// Portfolio represents one tracked position owned by a user.
// (UserID, StockCode) is unique: a user tracks a given stock at most once.
type Portfolio struct {
	ID           uint
	UserID       uint
	StockCode    string // Ticker code (e.g., "7203")
	StockName    string // Display name (e.g., "トヨタ自動車")
	Quantity     int64
	AvgPrice     float64
	CurrentPrice float64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ProfitLoss returns the unrealized gain or loss at the current price.
func (p Portfolio) ProfitLoss() float64 {
	return (p.CurrentPrice - p.AvgPrice) * float64(p.Quantity)
}

// ProfitLossRate returns the unrealized gain or loss as a percentage of cost.
// Returns 0 when the average price is not set.
func (p Portfolio) ProfitLossRate() float64 {
	if p.AvgPrice == 0 {
		return 0
	}
	return (p.CurrentPrice - p.AvgPrice) / p.AvgPrice * 100
}

// NewsSummary is one ingested article tied to a portfolio, together with the
// oracle-derived summary. (PortfolioID, URL) is unique: re-ingesting the same
// URL is a no-op.
type NewsSummary struct {
	ID             uint
	PortfolioID    uint
	Title          string
	URL            string
	Content        string
	Summary        string
	Sentiment      string
	RelevanceScore float64 // Relevance to the tracked stock, in [0,1]
	PublishedAt    time.Time
	CreatedAt      time.Time
}

// Strategy is one point-in-time recommendation for a portfolio.
// Rows are append-only; the current strategy is the most recently created row.
type Strategy struct {
	ID           uint
	PortfolioID  uint
	Kind         StrategyKind
	Confidence   float64 // Certainty of the recommendation, in [0,1]
	Reasoning    string
	TargetPrice  *float64
	PreviousKind StrategyKind // Kind of the strategy this one supersedes; empty for the first
	IsChanged    bool
	CreatedAt    time.Time
}

// NewsKeyword is a search term bound to a portfolio. Keywords are
// soft-deleted by flipping IsActive so that history is preserved.
type NewsKeyword struct {
	ID          uint
	PortfolioID uint
	Keyword     string
	Priority    int
	IsActive    bool
	CreatedAt   time.Time
}
