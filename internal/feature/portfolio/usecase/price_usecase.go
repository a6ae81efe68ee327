package usecase

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"portfolio_backend/internal/feature/portfolio/domain/entity"
)

// QuoteRepository は市場データプロバイダから現在値を取得するリポジトリです。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type QuoteRepository interface {
	// GetQuote は銘柄の現在値スナップショットを取得します。
	GetQuote(ctx context.Context, code, name string) (*entity.Quote, error)
}

// PriceNotifier は価格更新を接続中のクライアントへ配信します。
type PriceNotifier interface {
	NotifyPriceUpdates(userID uint, updates []entity.PriceUpdate) int
}

// priceUsecase は保有銘柄の現在値を更新するユースケースです。
// 戦略更新パイプラインとは独立した周期・独立した失敗ドメインで動作します。
type priceUsecase struct {
	portfolios  PortfolioRepository
	quotes      QuoteRepository
	notifier    PriceNotifier
	concurrency int
}

// NewPriceUsecase はpriceUsecaseの新しいインスタンスを生成します。
// concurrencyが0以下の場合はDefaultItemConcurrencyが使われます。
func NewPriceUsecase(portfolios PortfolioRepository, quotes QuoteRepository, notifier PriceNotifier, concurrency int) *priceUsecase {
	if concurrency <= 0 {
		concurrency = DefaultItemConcurrency
	}
	return &priceUsecase{portfolios: portfolios, quotes: quotes, notifier: notifier, concurrency: concurrency}
}

// UpdateUserPrices はユーザーの全保有銘柄の現在値を更新し、評価損益を
// 再計算して返します。取得に失敗した銘柄はスキップされ、他の銘柄の更新は
// 継続します。1件以上更新された場合、価格更新通知を1通配信します。
func (u *priceUsecase) UpdateUserPrices(ctx context.Context, userID uint) ([]entity.PriceUpdate, error) {
	portfolios, err := u.portfolios.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(portfolios) == 0 {
		return []entity.PriceUpdate{}, nil
	}

	// 銘柄ごとに並行で取得。スロットへのインデックス代入で競合なく集約する
	results := make([]*entity.PriceUpdate, len(portfolios))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.concurrency)
	for i, p := range portfolios {
		g.Go(func() error {
			quote, err := u.quotes.GetQuote(gctx, p.StockCode, p.StockName)
			if err != nil {
				// 1銘柄の失敗はスキップして他の銘柄を続行
				slog.Warn("quote fetch failed", "stock", p.StockCode, "error", err)
				return nil
			}
			p.CurrentPrice = quote.Price
			if err := u.portfolios.Update(gctx, &p); err != nil {
				slog.Error("price update failed", "portfolio_id", p.ID, "error", err)
				return nil
			}
			results[i] = &entity.PriceUpdate{
				PortfolioID:    p.ID,
				StockCode:      p.StockCode,
				StockName:      p.StockName,
				Price:          quote.Price,
				Change:         quote.Change,
				ChangeRate:     quote.ChangeRate,
				ProfitLoss:     p.ProfitLoss(),
				ProfitLossRate: p.ProfitLossRate(),
			}
			return nil
		})
	}
	_ = g.Wait()

	updates := make([]entity.PriceUpdate, 0, len(results))
	for _, r := range results {
		if r != nil {
			updates = append(updates, *r)
		}
	}

	if len(updates) > 0 {
		sent := u.notifier.NotifyPriceUpdates(userID, updates)
		slog.Info("price update notification sent",
			"user_id", userID, "updated", len(updates), "channels", sent)
	}
	return updates, nil
}
