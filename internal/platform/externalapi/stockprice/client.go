package stockprice

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

	"portfolio_backend/internal/feature/portfolio/domain/entity"
	"portfolio_backend/internal/feature/portfolio/usecase"
	"portfolio_backend/internal/platform/externalapi/stockprice/dto"
)

// QuoteClient は株価APIから現在値スナップショットを取得するQuoteRepository実装です。
type QuoteClient struct {
	cfg    Config
	client *http.Client
}

// QuoteClientがQuoteRepositoryを実装していることをコンパイル時に検証します。
var _ usecase.QuoteRepository = (*QuoteClient)(nil)

// NewQuoteClient は指定された設定とHTTPクライアントでQuoteClientの新しいインスタンスを生成します。
func NewQuoteClient(cfg Config, client *http.Client) *QuoteClient {
	return &QuoteClient{cfg: cfg, client: client}
}

// GetQuote は銘柄コードの現在値を取得します。429と5xxは指数バックオフで再試行します。
func (c *QuoteClient) GetQuote(ctx context.Context, code, name string) (*entity.Quote, error) {
	q := url.Values{}
	q.Set("symbol", code)
	q.Set("apikey", c.cfg.APIKey)
	u := fmt.Sprintf("%s/quote?%s", c.cfg.BaseURL, q.Encode())

	var body dto.QuoteResponse
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

		if res.StatusCode == http.StatusTooManyRequests || res.StatusCode >= 500 {
			return fmt.Errorf("stockprice http %d", res.StatusCode)
		}
		if res.StatusCode >= 400 {
			return backoff.Permanent(fmt.Errorf("stockprice http %d", res.StatusCode))
		}
		if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
			return backoff.Permanent(err)
		}
		if body.Status == "error" {
			return backoff.Permanent(fmt.Errorf("stockprice: %s", body.Message))
		}
		return nil
	}

	bo := backoff.WithContext(quoteBackoff(), ctx)
	if err := backoff.Retry(operation, bo); err != nil {
		return nil, err
	}

	price, err := strconv.ParseFloat(body.Close, 64)
	if err != nil {
		return nil, fmt.Errorf("parse close %q: %w", body.Close, err)
	}
	change, err := strconv.ParseFloat(body.Change, 64)
	if err != nil {
		return nil, fmt.Errorf("parse change %q: %w", body.Change, err)
	}
	changeRate, err := strconv.ParseFloat(body.PercentChange, 64)
	if err != nil {
		return nil, fmt.Errorf("parse percent_change %q: %w", body.PercentChange, err)
	}
	var volume int64
	if body.Volume != "" {
		volume, err = strconv.ParseInt(body.Volume, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse volume %q: %w", body.Volume, err)
		}
	}

	quoteName := body.Name
	if quoteName == "" {
		quoteName = name
	}
	return &entity.Quote{
		Code:        code,
		Name:        quoteName,
		Price:       price,
		Change:      change,
		ChangeRate:  changeRate,
		Volume:      volume,
		RetrievedAt: time.Now().UTC(),
	}, nil
}

func quoteBackoff() backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxElapsedTime = 15 * time.Second
	return bo
}
