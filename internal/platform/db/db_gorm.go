// Package db はGORMによるデータベース接続とトランザクション境界を提供します。
package db

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	gpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	authentity "portfolio_backend/internal/feature/auth/domain/entity"
	portfolioadapters "portfolio_backend/internal/feature/portfolio/adapters"
	"portfolio_backend/internal/platform/db/txctx"
)

// OpenDB は環境変数からPostgreSQLへ接続します。起動直後のDB未起動に備えて
// 60秒間リトライします。RUN_MIGRATIONS=trueの場合はマイグレーションを実行します。
func OpenDB() *gorm.DB {
	user := os.Getenv("DB_USER")
	pass := os.Getenv("DB_PASSWORD")
	name := os.Getenv("DB_NAME")
	host := os.Getenv("DB_HOST")
	port := os.Getenv("DB_PORT")

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable TimeZone=Asia/Tokyo",
		host, port, user, pass, name)

	var (
		db  *gorm.DB
		err error
	)

	deadline := time.Now().Add(60 * time.Second)
	for {
		db, err = gorm.Open(gpostgres.Open(dsn), &gorm.Config{TranslateError: true})
		if err == nil {
			break
		}
		if time.Now().After(deadline) {
			log.Fatalf("DB connect failed after 60s: %v", err)
		}
		log.Printf("DB connect failed, retrying...: %v", err)
		time.Sleep(3 * time.Second)
	}

	if os.Getenv("RUN_MIGRATIONS") == "true" {
		if err := db.AutoMigrate(
			&authentity.User{},
			&portfolioadapters.PortfolioModel{},
			&portfolioadapters.NewsSummaryModel{},
			&portfolioadapters.StrategyModel{},
			&portfolioadapters.NewsKeywordModel{},
		); err != nil {
			log.Fatalf("failed to migrate: %v", err)
		}
	}

	return db
}

// FromContext はコンテキストにトランザクションが載っていればそれを、
// 無ければfallbackを返します。実装はtxctxパッケージにあります。
func FromContext(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	return txctx.FromContext(ctx, fallback)
}

// GormTransactor はgormのトランザクションでバッチ境界を実装します。
type GormTransactor = txctx.GormTransactor

// NewGormTransactor はGormTransactorの新しいインスタンスを生成します。
func NewGormTransactor(db *gorm.DB) *GormTransactor {
	return txctx.NewGormTransactor(db)
}
