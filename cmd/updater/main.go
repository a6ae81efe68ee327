// 全ユーザーの戦略を一括更新するワンショットバッチです。cronからの実行を想定しています。
package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"

	"portfolio_backend/internal/app/di"
	notifyusecase "portfolio_backend/internal/feature/notification/usecase"
	"portfolio_backend/internal/feature/portfolio/adapters"
	"portfolio_backend/internal/feature/portfolio/usecase"
	infradb "portfolio_backend/internal/platform/db"
	"portfolio_backend/internal/shared/ratelimiter"
)

// oracleCallsPerMinute はGemini APIの呼び出しペースの上限です。
const oracleCallsPerMinute = 15

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("[INFO] .env not found, using environment variables")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	db := infradb.OpenDB()

	portfolioRepo := adapters.NewPortfolioRepository(db)
	keywordRepo := adapters.NewKeywordRepository(db)
	newsRepo := adapters.NewNewsRepository(db)
	strategyRepo := adapters.NewStrategyRepository(db)
	transactor := infradb.NewGormTransactor(db)

	oracle, err := di.NewOracle(ctx)
	if err != nil {
		log.Fatal("failed to create gemini client:", err)
	}
	sources := di.NewNewsSources()

	// バッチには接続クライアントがいないため、配信先ゼロのディスパッチャを使う
	dispatcher := notifyusecase.NewDispatcher(notifyusecase.NewRegistry())

	uc := usecase.NewStrategyUsecase(
		portfolioRepo, keywordRepo, newsRepo, strategyRepo,
		sources, oracle, transactor, dispatcher,
		usecase.NewSectorSuffixPolicy(), di.LoadStrategyConfig(),
	)

	userIDs, err := portfolioRepo.ListUserIDs(ctx)
	if err != nil {
		log.Fatal("failed to list users:", err)
	}

	limiter := ratelimiter.NewRateLimiter(oracleCallsPerMinute, time.Minute)
	updated := 0
	for _, userID := range userIDs {
		limiter.WaitIfNeeded()
		updates, err := uc.UpdateUserStrategies(ctx, userID)
		if err != nil {
			log.Printf("[ERROR] strategy update failed for user %d: %v", userID, err)
			continue
		}
		updated += len(updates)
	}
	log.Printf("updater ok: %d users, %d items updated", len(userIDs), updated)
}
