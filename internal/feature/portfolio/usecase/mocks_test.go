package usecase

import (
	"context"
	"errors"
	"time"

	"portfolio_backend/internal/feature/portfolio/domain/entity"
)

// mockPortfolioRepository is a mock implementation of the PortfolioRepository interface.
type mockPortfolioRepository struct {
	CreateFunc      func(ctx context.Context, p *entity.Portfolio) error
	FindByUserFunc  func(ctx context.Context, userID uint) ([]entity.Portfolio, error)
	FindByIDFunc    func(ctx context.Context, id, userID uint) (*entity.Portfolio, error)
	UpdateFunc      func(ctx context.Context, p *entity.Portfolio) error
	DeleteFunc      func(ctx context.Context, id, userID uint) error
	ListUserIDsFunc func(ctx context.Context) ([]uint, error)
}

func (m *mockPortfolioRepository) Create(ctx context.Context, p *entity.Portfolio) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, p)
	}
	return nil
}

func (m *mockPortfolioRepository) FindByUser(ctx context.Context, userID uint) ([]entity.Portfolio, error) {
	if m.FindByUserFunc != nil {
		return m.FindByUserFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockPortfolioRepository) FindByID(ctx context.Context, id, userID uint) (*entity.Portfolio, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id, userID)
	}
	return nil, errors.New("not found")
}

func (m *mockPortfolioRepository) Update(ctx context.Context, p *entity.Portfolio) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, p)
	}
	return nil
}

func (m *mockPortfolioRepository) Delete(ctx context.Context, id, userID uint) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id, userID)
	}
	return nil
}

func (m *mockPortfolioRepository) ListUserIDs(ctx context.Context) ([]uint, error) {
	if m.ListUserIDsFunc != nil {
		return m.ListUserIDsFunc(ctx)
	}
	return nil, nil
}

// mockKeywordRepository is a mock implementation of the KeywordRepository interface.
type mockKeywordRepository struct {
	FindActiveFunc func(ctx context.Context, portfolioID uint) ([]entity.NewsKeyword, error)
	UpsertFunc     func(ctx context.Context, k *entity.NewsKeyword) error
	DeactivateFunc func(ctx context.Context, portfolioID uint, keyword string) error
}

func (m *mockKeywordRepository) FindActive(ctx context.Context, portfolioID uint) ([]entity.NewsKeyword, error) {
	if m.FindActiveFunc != nil {
		return m.FindActiveFunc(ctx, portfolioID)
	}
	return nil, nil
}

func (m *mockKeywordRepository) Upsert(ctx context.Context, k *entity.NewsKeyword) error {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, k)
	}
	return nil
}

func (m *mockKeywordRepository) Deactivate(ctx context.Context, portfolioID uint, keyword string) error {
	if m.DeactivateFunc != nil {
		return m.DeactivateFunc(ctx, portfolioID, keyword)
	}
	return nil
}

// mockNewsRepository is a mock implementation of the NewsRepository interface.
type mockNewsRepository struct {
	CreateIgnoreDuplicatesFunc func(ctx context.Context, news []entity.NewsSummary) error
	FindRecentFunc             func(ctx context.Context, portfolioID uint, since time.Time) ([]entity.NewsSummary, error)
}

func (m *mockNewsRepository) CreateIgnoreDuplicates(ctx context.Context, news []entity.NewsSummary) error {
	if m.CreateIgnoreDuplicatesFunc != nil {
		return m.CreateIgnoreDuplicatesFunc(ctx, news)
	}
	return nil
}

func (m *mockNewsRepository) FindRecent(ctx context.Context, portfolioID uint, since time.Time) ([]entity.NewsSummary, error) {
	if m.FindRecentFunc != nil {
		return m.FindRecentFunc(ctx, portfolioID, since)
	}
	return nil, nil
}

// mockStrategyRepository is a mock implementation of the StrategyRepository interface.
type mockStrategyRepository struct {
	CreateFunc           func(ctx context.Context, s *entity.Strategy) error
	FindLatestFunc       func(ctx context.Context, portfolioID uint) (*entity.Strategy, error)
	FindByPortfolioFunc  func(ctx context.Context, portfolioID uint, limit int) ([]entity.Strategy, error)
	FindChangedSinceFunc func(ctx context.Context, userID uint, since time.Time) ([]entity.StrategyChange, error)
}

func (m *mockStrategyRepository) Create(ctx context.Context, s *entity.Strategy) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, s)
	}
	return nil
}

func (m *mockStrategyRepository) FindLatest(ctx context.Context, portfolioID uint) (*entity.Strategy, error) {
	if m.FindLatestFunc != nil {
		return m.FindLatestFunc(ctx, portfolioID)
	}
	return nil, nil
}

func (m *mockStrategyRepository) FindByPortfolio(ctx context.Context, portfolioID uint, limit int) ([]entity.Strategy, error) {
	if m.FindByPortfolioFunc != nil {
		return m.FindByPortfolioFunc(ctx, portfolioID, limit)
	}
	return nil, nil
}

func (m *mockStrategyRepository) FindChangedSince(ctx context.Context, userID uint, since time.Time) ([]entity.StrategyChange, error) {
	if m.FindChangedSinceFunc != nil {
		return m.FindChangedSinceFunc(ctx, userID, since)
	}
	return nil, nil
}

// mockNewsSource is a mock implementation of the NewsSource interface.
type mockNewsSource struct {
	name       string
	SearchFunc func(ctx context.Context, keyword string, maxResults int) ([]entity.RawArticle, error)
}

func (m *mockNewsSource) Name() string { return m.name }

func (m *mockNewsSource) Search(ctx context.Context, keyword string, maxResults int) ([]entity.RawArticle, error) {
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, keyword, maxResults)
	}
	return nil, nil
}

// mockOracle is a mock implementation of the InsightOracle interface.
type mockOracle struct {
	SummarizeFunc          func(ctx context.Context, article entity.RawArticle, stockName string) (*entity.ArticleInsight, error)
	SynthesizeStrategyFunc func(ctx context.Context, input entity.StrategyInput) (*entity.StrategyResult, error)
}

func (m *mockOracle) Summarize(ctx context.Context, article entity.RawArticle, stockName string) (*entity.ArticleInsight, error) {
	if m.SummarizeFunc != nil {
		return m.SummarizeFunc(ctx, article, stockName)
	}
	return &entity.ArticleInsight{Summary: "要約", Sentiment: entity.SentimentNeutral, Relevance: 0.5}, nil
}

func (m *mockOracle) SynthesizeStrategy(ctx context.Context, input entity.StrategyInput) (*entity.StrategyResult, error) {
	if m.SynthesizeStrategyFunc != nil {
		return m.SynthesizeStrategyFunc(ctx, input)
	}
	return &entity.StrategyResult{Kind: entity.StrategyHold, Confidence: 0.5, Sentiment: entity.SentimentNeutral}, nil
}

// mockTransactor runs the function directly, without a real transaction.
type mockTransactor struct {
	TransactionFunc func(ctx context.Context, fn func(ctx context.Context) error) error
}

func (m *mockTransactor) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.TransactionFunc != nil {
		return m.TransactionFunc(ctx, fn)
	}
	return fn(ctx)
}

// mockStrategyNotifier records aggregated notifications.
type mockStrategyNotifier struct {
	calls   int
	changes []entity.StrategyChange
}

func (m *mockStrategyNotifier) NotifyStrategyChanges(userID uint, changes []entity.StrategyChange) int {
	m.calls++
	m.changes = append(m.changes, changes...)
	return len(changes)
}

// mockPriceNotifier records aggregated price notifications.
type mockPriceNotifier struct {
	calls   int
	updates []entity.PriceUpdate
}

func (m *mockPriceNotifier) NotifyPriceUpdates(userID uint, updates []entity.PriceUpdate) int {
	m.calls++
	m.updates = append(m.updates, updates...)
	return len(updates)
}

// mockQuoteRepository is a mock implementation of the QuoteRepository interface.
type mockQuoteRepository struct {
	GetQuoteFunc func(ctx context.Context, code, name string) (*entity.Quote, error)
}

func (m *mockQuoteRepository) GetQuote(ctx context.Context, code, name string) (*entity.Quote, error) {
	if m.GetQuoteFunc != nil {
		return m.GetQuoteFunc(ctx, code, name)
	}
	return nil, errors.New("no quote")
}

// nopPolicy derives no keywords.
type nopPolicy struct{}

func (nopPolicy) DerivedKeywords(stockName string) []string { return nil }
