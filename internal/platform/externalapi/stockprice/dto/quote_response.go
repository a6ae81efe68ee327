// Package dto は株価APIのレスポンス形式を定義します。
package dto

// QuoteResponse は/quoteエンドポイントのレスポンスです。
// 数値フィールドは文字列で返されます。
type QuoteResponse struct {
	Symbol        string `json:"symbol"`
	Name          string `json:"name"`
	Close         string `json:"close"`
	Change        string `json:"change"`
	PercentChange string `json:"percent_change"`
	Volume        string `json:"volume"`
	Status        string `json:"status,omitempty"`
	Message       string `json:"message,omitempty"`
}
