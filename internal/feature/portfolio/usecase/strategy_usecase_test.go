package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio_backend/internal/feature/portfolio/domain/entity"
)

// newStrategyFixture は単一銘柄のバッチをデフォルトのモックで構築します。
func newStrategyFixture() (*mockPortfolioRepository, *mockStrategyRepository, *mockStrategyNotifier, *strategyUsecase) {
	portfolios := &mockPortfolioRepository{
		FindByUserFunc: func(ctx context.Context, userID uint) ([]entity.Portfolio, error) {
			return []entity.Portfolio{
				{ID: 1, UserID: userID, StockCode: "7203", StockName: "トヨタ自動車", Quantity: 100, AvgPrice: 2500, CurrentPrice: 2600},
			}, nil
		},
	}
	strategies := &mockStrategyRepository{}
	notifier := &mockStrategyNotifier{}
	uc := NewStrategyUsecase(
		portfolios, &mockKeywordRepository{}, &mockNewsRepository{}, strategies,
		nil, &mockOracle{}, &mockTransactor{}, notifier, nopPolicy{}, StrategyConfig{},
	)
	return portfolios, strategies, notifier, uc
}

func TestStrategyUsecase_UpdateUserStrategies(t *testing.T) {
	t.Run("first strategy is marked as changed", func(t *testing.T) {
		_, strategies, notifier, uc := newStrategyFixture()
		strategies.FindLatestFunc = func(ctx context.Context, portfolioID uint) (*entity.Strategy, error) {
			return nil, nil // 履歴なし
		}
		var created []entity.Strategy
		strategies.CreateFunc = func(ctx context.Context, s *entity.Strategy) error {
			created = append(created, *s)
			return nil
		}
		uc.oracle = &mockOracle{
			SynthesizeStrategyFunc: func(ctx context.Context, input entity.StrategyInput) (*entity.StrategyResult, error) {
				assert.Equal(t, entity.StrategyKind(""), input.PreviousKind)
				return &entity.StrategyResult{Kind: entity.StrategyBuy, Confidence: 0.9, Reasoning: "好材料"}, nil
			},
		}

		updates, err := uc.UpdateUserStrategies(context.Background(), 1)

		require.NoError(t, err)
		require.Len(t, updates, 1)
		assert.True(t, updates[0].Changed)
		assert.Equal(t, entity.StrategyBuy, updates[0].NewKind)
		assert.Equal(t, entity.StrategyKind(""), updates[0].PreviousKind)
		require.Len(t, created, 1)
		assert.True(t, created[0].IsChanged)
		assert.Equal(t, 1, notifier.calls)
	})

	t.Run("unchanged strategy is persisted but not notified", func(t *testing.T) {
		_, strategies, notifier, uc := newStrategyFixture()
		strategies.FindLatestFunc = func(ctx context.Context, portfolioID uint) (*entity.Strategy, error) {
			return &entity.Strategy{PortfolioID: portfolioID, Kind: entity.StrategyBuy}, nil
		}
		var created []entity.Strategy
		strategies.CreateFunc = func(ctx context.Context, s *entity.Strategy) error {
			created = append(created, *s)
			return nil
		}
		uc.oracle = &mockOracle{
			SynthesizeStrategyFunc: func(ctx context.Context, input entity.StrategyInput) (*entity.StrategyResult, error) {
				return &entity.StrategyResult{Kind: entity.StrategyBuy, Confidence: 0.9}, nil
			},
		}

		updates, err := uc.UpdateUserStrategies(context.Background(), 1)

		require.NoError(t, err)
		require.Len(t, updates, 1)
		assert.False(t, updates[0].Changed)
		require.Len(t, created, 1) // 履歴は変更なしでも追記される
		assert.False(t, created[0].IsChanged)
		assert.Equal(t, 0, notifier.calls)
	})

	t.Run("low confidence change is not notified", func(t *testing.T) {
		_, strategies, notifier, uc := newStrategyFixture()
		strategies.FindLatestFunc = func(ctx context.Context, portfolioID uint) (*entity.Strategy, error) {
			return &entity.Strategy{PortfolioID: portfolioID, Kind: entity.StrategyBuy}, nil
		}
		uc.oracle = &mockOracle{
			SynthesizeStrategyFunc: func(ctx context.Context, input entity.StrategyInput) (*entity.StrategyResult, error) {
				return &entity.StrategyResult{Kind: entity.StrategySell, Confidence: 0.5}, nil
			},
		}

		updates, err := uc.UpdateUserStrategies(context.Background(), 1)

		require.NoError(t, err)
		require.Len(t, updates, 1)
		assert.True(t, updates[0].Changed)
		assert.Equal(t, 0, notifier.calls) // 信頼度0.5 < しきい値0.7
	})

	t.Run("oracle failure falls back to HOLD", func(t *testing.T) {
		_, strategies, notifier, uc := newStrategyFixture()
		strategies.FindLatestFunc = func(ctx context.Context, portfolioID uint) (*entity.Strategy, error) {
			return &entity.Strategy{PortfolioID: portfolioID, Kind: entity.StrategyBuy}, nil
		}
		uc.oracle = &mockOracle{
			SynthesizeStrategyFunc: func(ctx context.Context, input entity.StrategyInput) (*entity.StrategyResult, error) {
				return nil, errors.New("oracle unavailable")
			},
		}

		updates, err := uc.UpdateUserStrategies(context.Background(), 1)

		require.NoError(t, err)
		require.Len(t, updates, 1)
		assert.Equal(t, entity.StrategyHold, updates[0].NewKind)
		assert.InDelta(t, 0.3, updates[0].Confidence, 1e-9)
		assert.Equal(t, fallbackReasoning, updates[0].Reasoning)
		assert.True(t, updates[0].Changed) // BUY → HOLD
		assert.Equal(t, 0, notifier.calls) // 低信頼度のため通知されない
	})

	t.Run("commit failure returns report together with error", func(t *testing.T) {
		_, _, notifier, uc := newStrategyFixture()
		commitErr := errors.New("commit failed")
		uc.tx = &mockTransactor{
			TransactionFunc: func(ctx context.Context, fn func(ctx context.Context) error) error {
				return commitErr
			},
		}

		updates, err := uc.UpdateUserStrategies(context.Background(), 1)

		assert.ErrorIs(t, err, commitErr)
		assert.Len(t, updates, 1) // レポートはエラーと共に返る
		assert.Equal(t, 0, notifier.calls)
	})

	t.Run("no portfolios returns empty report", func(t *testing.T) {
		portfolios, _, notifier, uc := newStrategyFixture()
		portfolios.FindByUserFunc = func(ctx context.Context, userID uint) ([]entity.Portfolio, error) {
			return nil, nil
		}

		updates, err := uc.UpdateUserStrategies(context.Background(), 1)

		require.NoError(t, err)
		assert.Empty(t, updates)
		assert.Equal(t, 0, notifier.calls)
	})

	t.Run("one item failure does not block other items", func(t *testing.T) {
		portfolios, strategies, _, uc := newStrategyFixture()
		portfolios.FindByUserFunc = func(ctx context.Context, userID uint) ([]entity.Portfolio, error) {
			return []entity.Portfolio{
				{ID: 1, UserID: userID, StockCode: "7203", StockName: "トヨタ自動車"},
				{ID: 2, UserID: userID, StockCode: "6758", StockName: "ソニーグループ"},
			}, nil
		}
		strategies.FindLatestFunc = func(ctx context.Context, portfolioID uint) (*entity.Strategy, error) {
			return nil, nil
		}
		uc.oracle = &mockOracle{
			SynthesizeStrategyFunc: func(ctx context.Context, input entity.StrategyInput) (*entity.StrategyResult, error) {
				if input.StockCode == "7203" {
					return nil, errors.New("oracle unavailable")
				}
				return &entity.StrategyResult{Kind: entity.StrategyBuy, Confidence: 0.8}, nil
			},
		}

		updates, err := uc.UpdateUserStrategies(context.Background(), 1)

		require.NoError(t, err)
		require.Len(t, updates, 2)
		assert.Equal(t, entity.StrategyHold, updates[0].NewKind) // 劣化結果
		assert.Equal(t, entity.StrategyBuy, updates[1].NewKind)
	})
}

func TestStrategyUsecase_GatherNews(t *testing.T) {
	now := time.Now()
	older := now.Add(-2 * time.Hour)

	t.Run("duplicate URLs keep the first occurrence", func(t *testing.T) {
		srcA := &mockNewsSource{name: "sourceA", SearchFunc: func(ctx context.Context, keyword string, maxResults int) ([]entity.RawArticle, error) {
			return []entity.RawArticle{
				{Title: "A記事", URL: "https://example.com/1", PublishedAt: older},
			}, nil
		}}
		srcB := &mockNewsSource{name: "sourceB", SearchFunc: func(ctx context.Context, keyword string, maxResults int) ([]entity.RawArticle, error) {
			return []entity.RawArticle{
				{Title: "B記事(同一URL)", URL: "https://example.com/1", PublishedAt: now},
				{Title: "B記事2", URL: "https://example.com/2", PublishedAt: now},
			}, nil
		}}
		uc := NewStrategyUsecase(
			&mockPortfolioRepository{}, &mockKeywordRepository{}, &mockNewsRepository{}, &mockStrategyRepository{},
			[]NewsSource{srcA, srcB}, &mockOracle{}, &mockTransactor{}, &mockStrategyNotifier{}, nopPolicy{}, StrategyConfig{},
		)

		articles := uc.gatherNews(context.Background(), []string{"トヨタ"})

		require.Len(t, articles, 2)
		// 新しい順に整列され、重複URLはソース順で先のものが残る
		assert.Equal(t, "B記事2", articles[0].Title)
		assert.Equal(t, "A記事", articles[1].Title)
		assert.Equal(t, "sourceA", articles[1].Source)
		assert.Equal(t, "トヨタ", articles[1].Keyword)
	})

	t.Run("source failure contributes nothing", func(t *testing.T) {
		var mu sync.Mutex
		searched := 0
		failing := &mockNewsSource{name: "failing", SearchFunc: func(ctx context.Context, keyword string, maxResults int) ([]entity.RawArticle, error) {
			return nil, errors.New("http 500")
		}}
		working := &mockNewsSource{name: "working", SearchFunc: func(ctx context.Context, keyword string, maxResults int) ([]entity.RawArticle, error) {
			mu.Lock()
			searched++
			mu.Unlock()
			return []entity.RawArticle{{Title: "記事", URL: "https://example.com/1", PublishedAt: now}}, nil
		}}
		uc := NewStrategyUsecase(
			&mockPortfolioRepository{}, &mockKeywordRepository{}, &mockNewsRepository{}, &mockStrategyRepository{},
			[]NewsSource{failing, working}, &mockOracle{}, &mockTransactor{}, &mockStrategyNotifier{}, nopPolicy{}, StrategyConfig{},
		)

		articles := uc.gatherNews(context.Background(), []string{"トヨタ", "7203"})

		assert.Len(t, articles, 1)
		assert.Equal(t, 2, searched) // キーワードごとに検索される
	})
}

func TestStrategyUsecase_ResolveKeywords(t *testing.T) {
	keywords := &mockKeywordRepository{
		FindActiveFunc: func(ctx context.Context, portfolioID uint) ([]entity.NewsKeyword, error) {
			return []entity.NewsKeyword{
				{Keyword: "EV"},
				{Keyword: "トヨタ自動車"}, // 銘柄名と重複
			}, nil
		},
	}
	uc := NewStrategyUsecase(
		&mockPortfolioRepository{}, keywords, &mockNewsRepository{}, &mockStrategyRepository{},
		nil, &mockOracle{}, &mockTransactor{}, &mockStrategyNotifier{}, NewSectorSuffixPolicy(), StrategyConfig{},
	)

	out := uc.resolveKeywords(context.Background(), entity.Portfolio{
		ID: 1, StockCode: "7203", StockName: "トヨタ自動車",
	})

	assert.Contains(t, out, "トヨタ自動車")
	assert.Contains(t, out, "7203")
	assert.Contains(t, out, "EV")
	assert.Contains(t, out, "トヨタ自動車 販売台数") // セクターポリシー派生
	// 重複は除去される
	seen := map[string]int{}
	for _, k := range out {
		seen[k]++
	}
	for k, n := range seen {
		assert.Equal(t, 1, n, "keyword %q duplicated", k)
	}
}

func TestStrategyUsecase_SummarizeArticles(t *testing.T) {
	oracle := &mockOracle{
		SummarizeFunc: func(ctx context.Context, article entity.RawArticle, stockName string) (*entity.ArticleInsight, error) {
			if article.URL == "https://example.com/bad" {
				return nil, errors.New("malformed reply")
			}
			return &entity.ArticleInsight{Summary: "要約: " + article.Title, Sentiment: entity.SentimentPositive, Relevance: 0.8}, nil
		},
	}
	uc := NewStrategyUsecase(
		&mockPortfolioRepository{}, &mockKeywordRepository{}, &mockNewsRepository{}, &mockStrategyRepository{},
		nil, oracle, &mockTransactor{}, &mockStrategyNotifier{}, nopPolicy{}, StrategyConfig{},
	)

	summaries := uc.summarizeArticles(context.Background(), entity.Portfolio{ID: 1, StockName: "トヨタ自動車"}, []entity.RawArticle{
		{Title: "良い記事", URL: "https://example.com/good"},
		{Title: "壊れた記事", URL: "https://example.com/bad"},
	})

	// 要約に失敗した記事は落とされる
	require.Len(t, summaries, 1)
	assert.Equal(t, "要約: 良い記事", summaries[0].Summary)
	assert.Equal(t, uint(1), summaries[0].PortfolioID)
}
