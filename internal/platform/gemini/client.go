// Package gemini はGoogle Gemini APIを使用したニュース要約・戦略生成
// クライアント（インサイトオラクル）を提供します。
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"portfolio_backend/internal/feature/portfolio/domain"
	"portfolio_backend/internal/feature/portfolio/domain/entity"
	"portfolio_backend/internal/feature/portfolio/usecase"
)

const (
	// DefaultModel はGemini APIのデフォルトモデルです。
	DefaultModel = "gemini-2.5-flash"
)

// Client はGemini APIでInsightOracleを実装します。
// 応答は厳密にパース可能なJSONを要求し、スキーマや値域に合わない応答は
// domain.ErrOracleReplyとして呼び出し元へ返します。
type Client struct {
	client *genai.Client
	model  string
}

// ClientがInsightOracleを実装していることをコンパイル時に検証します。
var _ usecase.InsightOracle = (*Client)(nil)

// NewClient はADCを使用してClientの新しいインスタンスを生成します。
// 環境変数 GOOGLE_GENAI_USE_VERTEXAI, GOOGLE_CLOUD_PROJECT, GOOGLE_CLOUD_LOCATION が必要です。
func NewClient(ctx context.Context, model string) (*Client, error) {
	c, err := genai.NewClient(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	if model == "" {
		model = DefaultModel
	}
	return &Client{client: c, model: model}, nil
}

// summarizeReply は要約応答のワイヤ形式です。
type summarizeReply struct {
	Summary        string  `json:"summary"`
	Sentiment      string  `json:"sentiment"`
	RelevanceScore float64 `json:"relevance_score"`
}

// strategyReply は戦略生成応答のワイヤ形式です。
type strategyReply struct {
	StrategyType string   `json:"strategy_type"`
	Confidence   float64  `json:"confidence"`
	Reasoning    string   `json:"reasoning"`
	TargetPrice  *float64 `json:"target_price"`
	Sentiment    string   `json:"sentiment"`
}

// Summarize は1記事を要約し、センチメントと関連度を付与します。
func (c *Client) Summarize(ctx context.Context, article entity.RawArticle, stockName string) (*entity.ArticleInsight, error) {
	prompt := fmt.Sprintf(`次は「%s」銘柄に関連するニュース記事です。この記事を分析し、以下のJSON形式のみで回答してください。

タイトル: %s
内容: %s

{
  "summary": "記事の核心を2〜3文で要約",
  "sentiment": "POSITIVE/NEGATIVE/NEUTRALのいずれか",
  "relevance_score": 0.0から1.0の数値（銘柄との関連度）
}

注意:
- sentimentは当該銘柄への影響を基準に判断すること
- relevance_scoreは銘柄との直接的な関連性を評価すること`,
		stockName, article.Title, article.Snippet)

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		return nil, fmt.Errorf("gemini API request failed: %w", err)
	}

	var reply summarizeReply
	if err := unmarshalReply(resp.Text(), &reply); err != nil {
		return nil, err
	}
	if !validSentiment(reply.Sentiment) {
		return nil, fmt.Errorf("%w: unknown sentiment %q", domain.ErrOracleReply, reply.Sentiment)
	}
	if reply.RelevanceScore < 0 || reply.RelevanceScore > 1 {
		return nil, fmt.Errorf("%w: relevance_score %v out of range", domain.ErrOracleReply, reply.RelevanceScore)
	}

	return &entity.ArticleInsight{
		Summary:   reply.Summary,
		Sentiment: reply.Sentiment,
		Relevance: reply.RelevanceScore,
	}, nil
}

// SynthesizeStrategy は銘柄・建玉・ニュース・前回戦略から投資戦略を生成します。
func (c *Client) SynthesizeStrategy(ctx context.Context, input entity.StrategyInput) (*entity.StrategyResult, error) {
	previous := "なし"
	if input.PreviousKind != "" {
		previous = string(input.PreviousKind)
	}

	prompt := fmt.Sprintf(`あなたは専門の金融アナリストです。以下の情報をもとに「%s（%s）」銘柄の投資戦略を提示してください。

== 銘柄情報 ==
銘柄名: %s
銘柄コード: %s
現在値: %.0f円

== 建玉情報 ==
保有数量: %d株
平均取得単価: %.0f円

== 最近のニュース分析 ==
%s

== 前回の戦略 ==
%s

以下のJSON形式のみで回答してください:
{
  "strategy_type": "BUY/SELL/HOLDのいずれか",
  "confidence": 0.0から1.0の信頼度,
  "reasoning": "戦略選択の理由（200文字以内）",
  "target_price": 目標株価（数値、任意）,
  "sentiment": "POSITIVE/NEGATIVE/NEUTRAL"
}

判断基準:
- BUY: 好材料が多く上昇が見込まれるとき
- SELL: 悪材料が多く下落リスクが大きいとき
- HOLD: 不確実性が高く現状維持が適切なとき`,
		input.StockName, input.StockCode,
		input.StockName, input.StockCode, input.CurrentPrice,
		input.Quantity, input.AvgPrice,
		newsDigestText(input.News), previous)

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		return nil, fmt.Errorf("gemini API request failed: %w", err)
	}

	var reply strategyReply
	if err := unmarshalReply(resp.Text(), &reply); err != nil {
		return nil, err
	}
	kind := entity.StrategyKind(reply.StrategyType)
	if kind != entity.StrategyBuy && kind != entity.StrategySell && kind != entity.StrategyHold {
		return nil, fmt.Errorf("%w: unknown strategy_type %q", domain.ErrOracleReply, reply.StrategyType)
	}
	if reply.Confidence < 0 || reply.Confidence > 1 {
		return nil, fmt.Errorf("%w: confidence %v out of range", domain.ErrOracleReply, reply.Confidence)
	}
	if !validSentiment(reply.Sentiment) {
		reply.Sentiment = entity.SentimentNeutral
	}

	return &entity.StrategyResult{
		Kind:        kind,
		Confidence:  reply.Confidence,
		Reasoning:   reply.Reasoning,
		TargetPrice: reply.TargetPrice,
		Sentiment:   reply.Sentiment,
	}, nil
}

// newsDigestText はセンチメント別にニュース要約を整形します。
func newsDigestText(news []entity.NewsSummary) string {
	if len(news) == 0 {
		return "関連ニュースなし"
	}
	var positive, negative, neutral []string
	for _, n := range news {
		switch n.Sentiment {
		case entity.SentimentPositive:
			positive = append(positive, "- "+n.Summary)
		case entity.SentimentNegative:
			negative = append(negative, "- "+n.Summary)
		default:
			neutral = append(neutral, "- "+n.Summary)
		}
	}
	var b strings.Builder
	fmt.Fprintf(&b, "好材料ニュース（%d件）:\n%s\n\n", len(positive), strings.Join(positive, "\n"))
	fmt.Fprintf(&b, "悪材料ニュース（%d件）:\n%s\n\n", len(negative), strings.Join(negative, "\n"))
	fmt.Fprintf(&b, "中立ニュース（%d件）:\n%s", len(neutral), strings.Join(neutral, "\n"))
	return b.String()
}

// unmarshalReply はコードフェンスを剥がしてJSONをデコードします。
// デコードできない応答はdomain.ErrOracleReplyとして返します。
func unmarshalReply(text string, v any) error {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}
	if err := json.Unmarshal([]byte(s), v); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrOracleReply, err)
	}
	return nil
}

// validSentiment はセンチメントラベルが既知の値かを判定します。
func validSentiment(s string) bool {
	switch s {
	case entity.SentimentPositive, entity.SentimentNegative, entity.SentimentNeutral:
		return true
	}
	return false
}
