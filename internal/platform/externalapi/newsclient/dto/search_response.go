// Package dto はニュース検索APIのレスポンス形式を定義します。
package dto

// SearchResponse はキーワード検索APIのトップレベルレスポンスです。
type SearchResponse struct {
	Status       string    `json:"status"`
	Message      string    `json:"message,omitempty"`
	TotalResults int       `json:"totalResults"`
	Articles     []Article `json:"articles"`
}

// Article はレスポンス中の1記事です。
type Article struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
	Source      Source `json:"source"`
	PublishedAt string `json:"publishedAt"` // RFC3339
}

// Source は記事の配信元です。
type Source struct {
	Name string `json:"name"`
}
