// Package scheduler は接続中ユーザーに対する定期更新を駆動します。
package scheduler

import (
	"context"
	"log/slog"
	"os"
	"time"

	"portfolio_backend/internal/feature/portfolio/domain/entity"
)

// デフォルトの更新間隔。
const (
	DefaultStrategyInterval = 30 * time.Minute
	DefaultPriceInterval    = time.Minute
)

// UserLister は更新対象のユーザーを列挙します。接続中のユーザーのみが
// 定期更新の対象です。切断中のユーザーはcmd/updaterのバッチで更新されます。
type UserLister interface {
	ConnectedUsers() []uint
}

// StrategyUpdater はユーザー単位の戦略更新を実行します。
type StrategyUpdater interface {
	UpdateUserStrategies(ctx context.Context, userID uint) ([]entity.StrategyUpdate, error)
}

// PriceUpdater はユーザー単位の株価更新を実行します。
type PriceUpdater interface {
	UpdateUserPrices(ctx context.Context, userID uint) ([]entity.PriceUpdate, error)
}

// Config はスケジューラの更新間隔を保持します。
type Config struct {
	StrategyInterval time.Duration
	PriceInterval    time.Duration
}

// LoadConfig は環境変数から更新間隔を読み込みます。
// 値はtime.ParseDuration形式（例: "30m", "1m"）です。
func LoadConfig() Config {
	cfg := Config{
		StrategyInterval: DefaultStrategyInterval,
		PriceInterval:    DefaultPriceInterval,
	}
	if d, err := time.ParseDuration(os.Getenv("STRATEGY_UPDATE_INTERVAL")); err == nil && d > 0 {
		cfg.StrategyInterval = d
	}
	if d, err := time.ParseDuration(os.Getenv("PRICE_UPDATE_INTERVAL")); err == nil && d > 0 {
		cfg.PriceInterval = d
	}
	return cfg
}

// Scheduler は2本のティッカーで戦略更新と株価更新を駆動します。
type Scheduler struct {
	users      UserLister
	strategies StrategyUpdater
	prices     PriceUpdater
	cfg        Config
}

// New はSchedulerの新しいインスタンスを生成します。
func New(users UserLister, strategies StrategyUpdater, prices PriceUpdater, cfg Config) *Scheduler {
	if cfg.StrategyInterval <= 0 {
		cfg.StrategyInterval = DefaultStrategyInterval
	}
	if cfg.PriceInterval <= 0 {
		cfg.PriceInterval = DefaultPriceInterval
	}
	return &Scheduler{users: users, strategies: strategies, prices: prices, cfg: cfg}
}

// Run はコンテキストがキャンセルされるまで定期更新を回します。
// ブロックするため、呼び出し側でgoroutineとして起動します。
func (s *Scheduler) Run(ctx context.Context) {
	strategyTicker := time.NewTicker(s.cfg.StrategyInterval)
	defer strategyTicker.Stop()
	priceTicker := time.NewTicker(s.cfg.PriceInterval)
	defer priceTicker.Stop()

	slog.Info("scheduler started",
		"strategy_interval", s.cfg.StrategyInterval,
		"price_interval", s.cfg.PriceInterval)

	for {
		select {
		case <-ctx.Done():
			slog.Info("scheduler stopped")
			return
		case <-strategyTicker.C:
			s.runStrategyUpdates(ctx)
		case <-priceTicker.C:
			s.runPriceUpdates(ctx)
		}
	}
}

// runStrategyUpdates は接続中の全ユーザーの戦略を順番に更新します。
// 1ユーザーの失敗は他のユーザーに波及しません。
func (s *Scheduler) runStrategyUpdates(ctx context.Context) {
	for _, userID := range s.users.ConnectedUsers() {
		updates, err := s.strategies.UpdateUserStrategies(ctx, userID)
		if err != nil {
			slog.Error("scheduled strategy update failed", "user_id", userID, "error", err)
			continue
		}
		slog.Info("scheduled strategy update done", "user_id", userID, "items", len(updates))
	}
}

// runPriceUpdates は接続中の全ユーザーの株価を順番に更新します。
func (s *Scheduler) runPriceUpdates(ctx context.Context) {
	for _, userID := range s.users.ConnectedUsers() {
		if _, err := s.prices.UpdateUserPrices(ctx, userID); err != nil {
			slog.Error("scheduled price update failed", "user_id", userID, "error", err)
		}
	}
}
