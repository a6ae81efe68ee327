// Package dto はportfolioフィーチャーのHTTPトランスポート層のデータ転送オブジェクトを定義します。
package dto

// CreatePortfolioReq はPOST /api/portfolioのリクエストボディを表します。
type CreatePortfolioReq struct {
	StockCode string  `json:"stock_code" binding:"required,max=20"`
	StockName string  `json:"stock_name" binding:"required,max=100"`
	Quantity  int64   `json:"quantity" binding:"required,gt=0"`
	AvgPrice  float64 `json:"avg_price" binding:"required,gt=0"`
}

// UpdatePortfolioReq はPUT /api/portfolio/:idのリクエストボディを表します。
// 指定されたフィールドのみ更新されます。
type UpdatePortfolioReq struct {
	Quantity *int64   `json:"quantity" binding:"omitempty,gt=0"`
	AvgPrice *float64 `json:"avg_price" binding:"omitempty,gt=0"`
}

// AddKeywordReq はPOST /api/portfolio/:id/keywordsのリクエストボディを表します。
type AddKeywordReq struct {
	Keyword  string `json:"keyword" binding:"required,max=100"`
	Priority int    `json:"priority" binding:"omitempty,gte=0"`
}
