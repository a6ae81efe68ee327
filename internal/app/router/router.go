// Package router はアプリケーションのHTTPルーティングを構成します。
package router

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	authhandler "portfolio_backend/internal/feature/auth/transport/handler"
	"portfolio_backend/internal/feature/notification/transport/ws"
	portfoliohandler "portfolio_backend/internal/feature/portfolio/transport/handler"
	platformhandler "portfolio_backend/internal/platform/http/handler"
	jwtmw "portfolio_backend/internal/platform/jwt"
)

// NewRouter は全エンドポイントを登録したginエンジンを生成します。
func NewRouter(authHandler *authhandler.AuthHandler, portfolio *portfoliohandler.PortfolioHandler,
	wsHandler *ws.WSHandler) *gin.Engine {
	r := gin.Default()
	r.Use(cors.Default())

	// 認証不要
	// 導通確認用
	r.GET("/healthz", platformhandler.Health)
	// 新規ユーザー登録
	r.POST("/signup", authHandler.Signup)
	// ログイン（JWT 発行）
	r.POST("/login", authHandler.Login)

	// 認証必須のルート
	auth := r.Group("/")
	auth.Use(jwtmw.AuthRequired())
	{
		api := auth.Group("/api")
		{
			api.POST("/portfolio", portfolio.Create)
			api.GET("/portfolio", portfolio.List)
			api.PUT("/portfolio/:id", portfolio.Update)
			api.DELETE("/portfolio/:id", portfolio.Delete)
			api.POST("/portfolio/:id/keywords", portfolio.AddKeyword)
			api.DELETE("/portfolio/:id/keywords/:keyword", portfolio.RemoveKeyword)
			api.GET("/portfolio/:id/strategies", portfolio.StrategyHistory)
			api.GET("/portfolio/:id/news", portfolio.NewsDigest)
			api.GET("/strategies/changes", portfolio.RecentChanges)
			api.POST("/strategies/update", portfolio.TriggerUpdate)
		}

		auth.GET("/ws", wsHandler.Serve)
		auth.GET("/ws/status", wsHandler.Status)
		auth.POST("/ws/broadcast", wsHandler.Broadcast)
	}

	return r
}
