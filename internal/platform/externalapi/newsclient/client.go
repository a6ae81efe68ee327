package newsclient

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"portfolio_backend/internal/feature/portfolio/domain/entity"
	"portfolio_backend/internal/feature/portfolio/usecase"
	"portfolio_backend/internal/platform/externalapi/newsclient/dto"
)

// NewsSearchClient はキーワード検索型のニュースAPIからニュース記事を取得する
// NewsSource実装です。プロバイダのレート制限をクライアント側で先に守り、
// 一時的な失敗には指数バックオフで再試行します。
type NewsSearchClient struct {
	cfg     Config
	client  *http.Client
	limiter *rate.Limiter
}

// NewsSearchClientがNewsSourceを実装していることをコンパイル時に検証します。
var _ usecase.NewsSource = (*NewsSearchClient)(nil)

// NewNewsSearchClient は指定された設定とHTTPクライアントでNewsSearchClientの新しいインスタンスを生成します。
func NewNewsSearchClient(cfg Config, client *http.Client) *NewsSearchClient {
	rps := cfg.RateLimit
	if rps <= 0 {
		rps = 2
	}
	return &NewsSearchClient{
		cfg:     cfg,
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// Name はこのソースの論理名を返します。記事のSourceフィールドに記録されます。
func (c *NewsSearchClient) Name() string {
	return c.cfg.SourceName
}

// Search はキーワードに一致する記事を新しい順に最大maxResults件返します。
func (c *NewsSearchClient) Search(ctx context.Context, keyword string, maxResults int) ([]entity.RawArticle, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("q", keyword)
	q.Set("pageSize", strconv.Itoa(maxResults))
	q.Set("sortBy", "publishedAt")
	q.Set("apiKey", c.cfg.APIKey)
	u := fmt.Sprintf("%s/everything?%s", c.cfg.BaseURL, q.Encode())

	var body dto.SearchResponse
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		res, err := c.client.Do(req)
		if err != nil {
			return err
		}
		defer func() {
			if err := res.Body.Close(); err != nil {
				slog.Warn("failed to close response body", "error", err)
			}
		}()

		// 429と5xxのみ再試行、それ以外の4xxは恒久エラー
		if res.StatusCode == http.StatusTooManyRequests || res.StatusCode >= 500 {
			return fmt.Errorf("%s http %d", c.cfg.SourceName, res.StatusCode)
		}
		if res.StatusCode >= 400 {
			return backoff.Permanent(fmt.Errorf("%s http %d", c.cfg.SourceName, res.StatusCode))
		}
		if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
			return backoff.Permanent(err)
		}
		if body.Status == "error" {
			return backoff.Permanent(fmt.Errorf("%s: %s", c.cfg.SourceName, body.Message))
		}
		return nil
	}

	bo := backoff.WithContext(newsBackoff(), ctx)
	if err := backoff.Retry(operation, bo); err != nil {
		return nil, err
	}

	articles := make([]entity.RawArticle, 0, len(body.Articles))
	for _, a := range body.Articles {
		if a.URL == "" {
			continue
		}
		publishedAt, err := time.Parse(time.RFC3339, a.PublishedAt)
		if err != nil {
			slog.Warn("failed to parse publishedAt", "source", c.cfg.SourceName, "value", a.PublishedAt)
			publishedAt = time.Time{}
		}
		articles = append(articles, entity.RawArticle{
			Title:       a.Title,
			URL:         a.URL,
			Snippet:     a.Description,
			Source:      c.cfg.SourceName,
			PublishedAt: publishedAt,
		})
	}
	return articles, nil
}

func newsBackoff() backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxElapsedTime = 15 * time.Second
	return bo
}
