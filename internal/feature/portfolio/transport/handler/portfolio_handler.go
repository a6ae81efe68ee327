// Package handler はportfolioフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"portfolio_backend/internal/api"
	"portfolio_backend/internal/feature/portfolio/domain"
	"portfolio_backend/internal/feature/portfolio/domain/entity"
	"portfolio_backend/internal/feature/portfolio/transport/http/dto"
	jwtmw "portfolio_backend/internal/platform/jwt"
)

// PortfolioUsecase は保有銘柄操作のユースケースインターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type PortfolioUsecase interface {
	AddPortfolio(ctx context.Context, userID uint, code, name string, quantity int64, avgPrice float64) (*entity.Portfolio, error)
	ListPortfolios(ctx context.Context, userID uint) ([]entity.Portfolio, error)
	UpdatePortfolio(ctx context.Context, id, userID uint, quantity *int64, avgPrice *float64) (*entity.Portfolio, error)
	RemovePortfolio(ctx context.Context, id, userID uint) error
	AddKeyword(ctx context.Context, id, userID uint, keyword string, priority int) error
	RemoveKeyword(ctx context.Context, id, userID uint, keyword string) error
	StrategyHistory(ctx context.Context, id, userID uint, limit int) ([]entity.Strategy, error)
	RecentStrategyChanges(ctx context.Context, userID uint, hours int) ([]entity.StrategyChange, error)
	NewsDigest(ctx context.Context, id, userID uint, days int) (*entity.NewsDigest, error)
}

// StrategyUpdater はオンデマンドの戦略更新を実行します。
type StrategyUpdater interface {
	UpdateUserStrategies(ctx context.Context, userID uint) ([]entity.StrategyUpdate, error)
}

// PortfolioHandler は保有銘柄のHTTPリクエストを処理します。
type PortfolioHandler struct {
	uc         PortfolioUsecase
	strategies StrategyUpdater
}

// NewPortfolioHandler はPortfolioHandlerの新しいインスタンスを生成します。
func NewPortfolioHandler(uc PortfolioUsecase, strategies StrategyUpdater) *PortfolioHandler {
	return &PortfolioHandler{uc: uc, strategies: strategies}
}

// Create はPOST /api/portfolioを処理します。
// 同一銘柄の重複登録は409を返します。
func (h *PortfolioHandler) Create(c *gin.Context) {
	userID := c.GetUint(jwtmw.ContextUserID)
	var req dto.CreatePortfolioReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid request"})
		return
	}
	p, err := h.uc.AddPortfolio(c.Request.Context(), userID, req.StockCode, req.StockName, req.Quantity, req.AvgPrice)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicatePortfolio) {
			c.JSON(http.StatusConflict, api.ErrorResponse{Error: "stock already registered"})
			return
		}
		slog.Error("failed to create portfolio", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to create portfolio"})
		return
	}
	c.JSON(http.StatusCreated, dto.NewPortfolioResponse(*p))
}

// List はGET /api/portfolioを処理します。
func (h *PortfolioHandler) List(c *gin.Context) {
	userID := c.GetUint(jwtmw.ContextUserID)
	portfolios, err := h.uc.ListPortfolios(c.Request.Context(), userID)
	if err != nil {
		slog.Error("failed to list portfolios", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to list portfolios"})
		return
	}
	out := make([]dto.PortfolioResponse, 0, len(portfolios))
	for _, p := range portfolios {
		out = append(out, dto.NewPortfolioResponse(p))
	}
	c.JSON(http.StatusOK, out)
}

// Update はPUT /api/portfolio/:idを処理します。
func (h *PortfolioHandler) Update(c *gin.Context) {
	userID := c.GetUint(jwtmw.ContextUserID)
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.UpdatePortfolioReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid request"})
		return
	}
	p, err := h.uc.UpdatePortfolio(c.Request.Context(), id, userID, req.Quantity, req.AvgPrice)
	if err != nil {
		h.replyPortfolioError(c, userID, "failed to update portfolio", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPortfolioResponse(*p))
}

// Delete はDELETE /api/portfolio/:idを処理します。
func (h *PortfolioHandler) Delete(c *gin.Context) {
	userID := c.GetUint(jwtmw.ContextUserID)
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.uc.RemovePortfolio(c.Request.Context(), id, userID); err != nil {
		h.replyPortfolioError(c, userID, "failed to delete portfolio", err)
		return
	}
	c.JSON(http.StatusOK, api.MessageResponse{Message: "ok"})
}

// AddKeyword はPOST /api/portfolio/:id/keywordsを処理します。
func (h *PortfolioHandler) AddKeyword(c *gin.Context) {
	userID := c.GetUint(jwtmw.ContextUserID)
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.AddKeywordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid request"})
		return
	}
	if err := h.uc.AddKeyword(c.Request.Context(), id, userID, req.Keyword, req.Priority); err != nil {
		h.replyPortfolioError(c, userID, "failed to add keyword", err)
		return
	}
	c.JSON(http.StatusCreated, api.MessageResponse{Message: "ok"})
}

// RemoveKeyword はDELETE /api/portfolio/:id/keywords/:keywordを処理します。
func (h *PortfolioHandler) RemoveKeyword(c *gin.Context) {
	userID := c.GetUint(jwtmw.ContextUserID)
	id, ok := pathID(c)
	if !ok {
		return
	}
	keyword := c.Param("keyword")
	if err := h.uc.RemoveKeyword(c.Request.Context(), id, userID, keyword); err != nil {
		h.replyPortfolioError(c, userID, "failed to remove keyword", err)
		return
	}
	c.JSON(http.StatusOK, api.MessageResponse{Message: "ok"})
}

// StrategyHistory はGET /api/portfolio/:id/strategiesを処理します。
//
// エンドポイント例:
// GET /api/portfolio/3/strategies?limit=10
func (h *PortfolioHandler) StrategyHistory(c *gin.Context) {
	userID := c.GetUint(jwtmw.ContextUserID)
	id, ok := pathID(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	strategies, err := h.uc.StrategyHistory(c.Request.Context(), id, userID, limit)
	if err != nil {
		h.replyPortfolioError(c, userID, "failed to load strategy history", err)
		return
	}
	out := make([]dto.StrategyResponse, 0, len(strategies))
	for _, s := range strategies {
		out = append(out, dto.NewStrategyResponse(s))
	}
	c.JSON(http.StatusOK, out)
}

// RecentChanges はGET /api/strategies/changesを処理します。
//
// エンドポイント例:
// GET /api/strategies/changes?hours=24
func (h *PortfolioHandler) RecentChanges(c *gin.Context) {
	userID := c.GetUint(jwtmw.ContextUserID)
	hours, _ := strconv.Atoi(c.DefaultQuery("hours", "24"))
	changes, err := h.uc.RecentStrategyChanges(c.Request.Context(), userID, hours)
	if err != nil {
		slog.Error("failed to load strategy changes", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to load strategy changes"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"changes": changes, "total_changes": len(changes)})
}

// NewsDigest はGET /api/portfolio/:id/newsを処理します。
//
// エンドポイント例:
// GET /api/portfolio/3/news?days=7
func (h *PortfolioHandler) NewsDigest(c *gin.Context) {
	userID := c.GetUint(jwtmw.ContextUserID)
	id, ok := pathID(c)
	if !ok {
		return
	}
	days, _ := strconv.Atoi(c.DefaultQuery("days", "7"))
	digest, err := h.uc.NewsDigest(c.Request.Context(), id, userID, days)
	if err != nil {
		h.replyPortfolioError(c, userID, "failed to build news digest", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewNewsDigestResponse(digest))
}

// TriggerUpdate はPOST /api/strategies/updateを処理します。
// 呼び出しユーザーの全銘柄について戦略更新を同期実行し、レポートを返します。
func (h *PortfolioHandler) TriggerUpdate(c *gin.Context) {
	userID := c.GetUint(jwtmw.ContextUserID)
	updates, err := h.strategies.UpdateUserStrategies(c.Request.Context(), userID)
	if err != nil {
		slog.Error("on-demand strategy update failed", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "strategy update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"updates": updates, "total_updated": len(updates)})
}

// pathID は:idパスパラメータをパースします。不正な場合は400を返して
// falseを返します。
func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid portfolio id"})
		return 0, false
	}
	return uint(id), true
}

// replyPortfolioError はユースケースのエラーをHTTPステータスへ対応付けます。
func (h *PortfolioHandler) replyPortfolioError(c *gin.Context, userID uint, message string, err error) {
	if errors.Is(err, domain.ErrPortfolioNotFound) {
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "portfolio not found"})
		return
	}
	slog.Error(message, "user_id", userID, "error", err)
	c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: message})
}
