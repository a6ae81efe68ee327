// Package usecase はportfolioフィーチャーのビジネスロジックを実装します。
package usecase

import (
	"context"
	"fmt"
	"time"

	"portfolio_backend/internal/feature/portfolio/domain/entity"
)

const (
	// DefaultDigestDays はニュースダイジェストのデフォルト集計期間（日数）です。
	DefaultDigestDays = 7
	// DefaultChangeHours は戦略変更履歴のデフォルト参照期間（時間）です。
	DefaultChangeHours = 24
	// DigestLatestNewsLimit はダイジェストに含める最新ニュースの件数です。
	DigestLatestNewsLimit = 5
)

// PortfolioRepository は保有銘柄の永続化層を抽象化します。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type PortfolioRepository interface {
	// Create は新しい保有銘柄を永続化します。
	// 同じ(ユーザー, 銘柄コード)の組が既に存在する場合、domain.ErrDuplicatePortfolioを返します。
	Create(ctx context.Context, p *entity.Portfolio) error

	// FindByUser は指定ユーザーの全保有銘柄を返します。
	FindByUser(ctx context.Context, userID uint) ([]entity.Portfolio, error)

	// FindByID は指定ユーザーが所有する保有銘柄を1件返します。
	// 見つからない場合、domain.ErrPortfolioNotFoundを返します。
	FindByID(ctx context.Context, id, userID uint) (*entity.Portfolio, error)

	// Update は保有銘柄の数量・取得単価・現在値を更新します。
	Update(ctx context.Context, p *entity.Portfolio) error

	// Delete は保有銘柄を物理削除します。
	Delete(ctx context.Context, id, userID uint) error

	// ListUserIDs は保有銘柄を1件以上持つ全ユーザーのIDを返します。
	// バッチ更新の対象列挙に使用します。
	ListUserIDs(ctx context.Context) ([]uint, error)
}

// KeywordRepository はニュース検索キーワードの永続化層を抽象化します。
type KeywordRepository interface {
	// FindActive は指定銘柄の有効なキーワードを優先度順で返します。
	FindActive(ctx context.Context, portfolioID uint) ([]entity.NewsKeyword, error)

	// Upsert はキーワードを追加します。論理削除済みの同名キーワードが
	// 存在する場合は再有効化し、優先度を上書きします。
	Upsert(ctx context.Context, k *entity.NewsKeyword) error

	// Deactivate はキーワードを論理削除します（行は残ります）。
	Deactivate(ctx context.Context, portfolioID uint, keyword string) error
}

// NewsRepository はニュース要約の永続化層を抽象化します。
type NewsRepository interface {
	// CreateIgnoreDuplicates はニュース要約を一括挿入します。
	// (銘柄, URL)が既存の行はスキップされ、上書きされません。
	CreateIgnoreDuplicates(ctx context.Context, news []entity.NewsSummary) error

	// FindRecent は指定銘柄のsince以降に取り込まれたニュースを返します。
	FindRecent(ctx context.Context, portfolioID uint, since time.Time) ([]entity.NewsSummary, error)
}

// StrategyRepository は戦略履歴の永続化層を抽象化します。履歴は追記専用です。
type StrategyRepository interface {
	// Create は新しい戦略行を追記します。既存行は変更されません。
	Create(ctx context.Context, s *entity.Strategy) error

	// FindLatest は指定銘柄の最新戦略を返します。存在しない場合は(nil, nil)を返します。
	FindLatest(ctx context.Context, portfolioID uint) (*entity.Strategy, error)

	// FindByPortfolio は指定銘柄の戦略履歴を新しい順に返します。
	FindByPortfolio(ctx context.Context, portfolioID uint, limit int) ([]entity.Strategy, error)

	// FindChangedSince は指定ユーザーの全銘柄についてsince以降の
	// 変更された戦略を銘柄情報付きで返します。
	FindChangedSince(ctx context.Context, userID uint, since time.Time) ([]entity.StrategyChange, error)
}

// portfolioUsecase は保有銘柄のCRUDとキーワード管理・参照系を提供します。
type portfolioUsecase struct {
	portfolios PortfolioRepository
	keywords   KeywordRepository
	news       NewsRepository
	strategies StrategyRepository
}

// NewPortfolioUsecase はportfolioUsecaseの新しいインスタンスを生成します。
func NewPortfolioUsecase(p PortfolioRepository, k KeywordRepository, n NewsRepository, s StrategyRepository) *portfolioUsecase {
	return &portfolioUsecase{portfolios: p, keywords: k, news: n, strategies: s}
}

// AddPortfolio は保有銘柄を追加します。現在値は取得単価で初期化されます。
func (u *portfolioUsecase) AddPortfolio(ctx context.Context, userID uint, code, name string, quantity int64, avgPrice float64) (*entity.Portfolio, error) {
	if code == "" || name == "" {
		return nil, fmt.Errorf("stock code and name are required")
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive")
	}
	if avgPrice <= 0 {
		return nil, fmt.Errorf("average price must be positive")
	}

	p := &entity.Portfolio{
		UserID:       userID,
		StockCode:    code,
		StockName:    name,
		Quantity:     quantity,
		AvgPrice:     avgPrice,
		CurrentPrice: avgPrice,
	}
	if err := u.portfolios.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ListPortfolios は指定ユーザーの保有銘柄一覧を返します。
func (u *portfolioUsecase) ListPortfolios(ctx context.Context, userID uint) ([]entity.Portfolio, error) {
	return u.portfolios.FindByUser(ctx, userID)
}

// UpdatePortfolio は保有銘柄の数量・取得単価を部分更新します。
// nilのフィールドは変更されません。
func (u *portfolioUsecase) UpdatePortfolio(ctx context.Context, id, userID uint, quantity *int64, avgPrice *float64) (*entity.Portfolio, error) {
	p, err := u.portfolios.FindByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if quantity != nil {
		if *quantity <= 0 {
			return nil, fmt.Errorf("quantity must be positive")
		}
		p.Quantity = *quantity
	}
	if avgPrice != nil {
		if *avgPrice <= 0 {
			return nil, fmt.Errorf("average price must be positive")
		}
		p.AvgPrice = *avgPrice
	}
	if err := u.portfolios.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// RemovePortfolio は保有銘柄を削除します。
func (u *portfolioUsecase) RemovePortfolio(ctx context.Context, id, userID uint) error {
	return u.portfolios.Delete(ctx, id, userID)
}

// AddKeyword は銘柄にカスタム検索キーワードを追加します。
func (u *portfolioUsecase) AddKeyword(ctx context.Context, id, userID uint, keyword string, priority int) error {
	if keyword == "" {
		return fmt.Errorf("keyword is required")
	}
	if priority < 1 {
		priority = 1
	}
	// 所有チェック
	if _, err := u.portfolios.FindByID(ctx, id, userID); err != nil {
		return err
	}
	return u.keywords.Upsert(ctx, &entity.NewsKeyword{
		PortfolioID: id,
		Keyword:     keyword,
		Priority:    priority,
		IsActive:    true,
	})
}

// RemoveKeyword はカスタムキーワードを論理削除します。
func (u *portfolioUsecase) RemoveKeyword(ctx context.Context, id, userID uint, keyword string) error {
	if _, err := u.portfolios.FindByID(ctx, id, userID); err != nil {
		return err
	}
	return u.keywords.Deactivate(ctx, id, keyword)
}

// StrategyHistory は銘柄の戦略履歴を新しい順に返します。
func (u *portfolioUsecase) StrategyHistory(ctx context.Context, id, userID uint, limit int) ([]entity.Strategy, error) {
	if _, err := u.portfolios.FindByID(ctx, id, userID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}
	return u.strategies.FindByPortfolio(ctx, id, limit)
}

// RecentStrategyChanges は指定期間内に変更された戦略の一覧を返します。
func (u *portfolioUsecase) RecentStrategyChanges(ctx context.Context, userID uint, hours int) ([]entity.StrategyChange, error) {
	if hours <= 0 {
		hours = DefaultChangeHours
	}
	since := time.Now().Add(-time.Duration(hours) * time.Hour)
	return u.strategies.FindChangedSince(ctx, userID, since)
}

// NewsDigest は指定期間のニュースをセンチメント別に集計して返します。
func (u *portfolioUsecase) NewsDigest(ctx context.Context, id, userID uint, days int) (*entity.NewsDigest, error) {
	if _, err := u.portfolios.FindByID(ctx, id, userID); err != nil {
		return nil, err
	}
	if days <= 0 {
		days = DefaultDigestDays
	}
	since := time.Now().AddDate(0, 0, -days)
	news, err := u.news.FindRecent(ctx, id, since)
	if err != nil {
		return nil, err
	}

	digest := &entity.NewsDigest{TotalCount: len(news), LatestNews: []entity.NewsSummary{}}
	var relevanceSum float64
	for _, n := range news {
		switch n.Sentiment {
		case entity.SentimentPositive:
			digest.PositiveCount++
		case entity.SentimentNegative:
			digest.NegativeCount++
		default:
			digest.NeutralCount++
		}
		relevanceSum += n.RelevanceScore
	}
	if len(news) > 0 {
		digest.AvgRelevance = relevanceSum / float64(len(news))
	}
	// FindRecentは発行日時の降順で返すため、先頭N件が最新ニュース
	if len(news) > DigestLatestNewsLimit {
		digest.LatestNews = news[:DigestLatestNewsLimit]
	} else {
		digest.LatestNews = news
	}
	return digest, nil
}
