package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"
	redisv9 "github.com/redis/go-redis/v9"

	"portfolio_backend/internal/app/di"
	"portfolio_backend/internal/app/router"
	"portfolio_backend/internal/app/scheduler"
	authadapters "portfolio_backend/internal/feature/auth/adapters"
	authhandler "portfolio_backend/internal/feature/auth/transport/handler"
	authusecase "portfolio_backend/internal/feature/auth/usecase"
	"portfolio_backend/internal/feature/notification/transport/ws"
	notifyusecase "portfolio_backend/internal/feature/notification/usecase"
	"portfolio_backend/internal/feature/portfolio/adapters"
	portfoliohandler "portfolio_backend/internal/feature/portfolio/transport/handler"
	"portfolio_backend/internal/feature/portfolio/usecase"
	infradb "portfolio_backend/internal/platform/db"
	jwtmw "portfolio_backend/internal/platform/jwt"
	infraredis "portfolio_backend/internal/platform/redis"
)

func main() {
	// .envがあれば読み込む（本番はコンテナの環境変数を使用）
	if err := godotenv.Load(".env"); err != nil {
		log.Println("[INFO] .env not found, using environment variables")
	}

	ctx := context.Background()

	// db
	db := infradb.OpenDB()

	// Redis
	var rdb *redisv9.Client
	if tmp, err := infraredis.NewRedisClient(); err != nil {
		log.Println("[WARN] Redis unavailable. Running without cache.")
		rdb = nil
	} else {
		rdb = tmp
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Println("[ERROR] Failed to close Redis client:", err)
			}
		}()
	}

	// Repository
	userRepo := authadapters.NewUserRepository(db)
	portfolioRepo := adapters.NewPortfolioRepository(db)
	keywordRepo := adapters.NewKeywordRepository(db)
	newsRepo := adapters.NewNewsRepository(db)
	strategyRepo := adapters.NewStrategyRepository(db)
	transactor := infradb.NewGormTransactor(db)

	// 外部サービス
	oracle, err := di.NewOracle(ctx)
	if err != nil {
		log.Fatal("failed to create gemini client:", err)
	}
	sources := di.NewNewsSources()
	schedCfg := scheduler.LoadConfig()
	quoteRepo := di.NewQuoteRepository(rdb, schedCfg.PriceInterval)

	// 通知
	registry := notifyusecase.NewRegistry()
	dispatcher := notifyusecase.NewDispatcher(registry)

	// Usecase
	jwtGen := jwtmw.NewGenerator(os.Getenv(jwtmw.EnvKeyJWTSecret), jwtmw.DefaultExpiration)
	authUC := authusecase.NewAuthUsecase(userRepo, jwtGen)
	portfolioUC := usecase.NewPortfolioUsecase(portfolioRepo, keywordRepo, newsRepo, strategyRepo)
	strategyUC := usecase.NewStrategyUsecase(
		portfolioRepo, keywordRepo, newsRepo, strategyRepo,
		sources, oracle, transactor, dispatcher,
		usecase.NewSectorSuffixPolicy(), di.LoadStrategyConfig(),
	)
	priceUC := usecase.NewPriceUsecase(portfolioRepo, quoteRepo, dispatcher, 0)

	// Handler
	authH := authhandler.NewAuthHandler(authUC)
	portfolioH := portfoliohandler.NewPortfolioHandler(portfolioUC, strategyUC)
	wsH := ws.NewWSHandler(registry, dispatcher, strategyUC, portfolioUC)

	// 接続中ユーザーの定期更新
	sched := scheduler.New(registry, strategyUC, priceUC, schedCfg)
	go sched.Run(ctx)

	// ルータ生成
	r := router.NewRouter(authH, portfolioH, wsH)

	// JWT_SECRETチェック（開発中の注意喚起）
	if os.Getenv(jwtmw.EnvKeyJWTSecret) == "" {
		log.Println("[WARN] JWT_SECRET is not set. Set a strong secret in production.")
	}

	if err := r.Run(":8080"); err != nil {
		log.Fatal(err)
	}
}
