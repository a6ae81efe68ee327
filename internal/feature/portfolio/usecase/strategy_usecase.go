package usecase

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"portfolio_backend/internal/feature/portfolio/domain/entity"
)

const (
	// DefaultMaxArticlesPerKeyword はキーワードごとに各ソースから取得する記事数の上限です。
	DefaultMaxArticlesPerKeyword = 5
	// DefaultConfidenceThreshold は通知対象とみなす戦略変更の信頼度しきい値です。
	DefaultConfidenceThreshold = 0.7
	// DefaultItemConcurrency は同時に処理する銘柄数の上限です。
	DefaultItemConcurrency = 4
	// synthesisNewsLimit は戦略生成プロンプトに渡す最新ニュースの件数です。
	synthesisNewsLimit = 10
)

// fallbackReasoning はオラクル障害時に記録する根拠テキストです。
const fallbackReasoning = "分析中にエラーが発生したため、様子見（HOLD）を推奨します。"

// NewsSource は1つのニュース検索ソースを抽象化します。
// ソースは独立して呼び出され、独立して失敗します。
type NewsSource interface {
	// Name はソースの識別名を返します。
	Name() string
	// Search はキーワードに一致する記事を最大maxResults件返します。
	Search(ctx context.Context, keyword string, maxResults int) ([]entity.RawArticle, error)
}

// InsightOracle はニュース要約と戦略生成を行う外部オラクルを抽象化します。
// 構造化された応答のパースに失敗した呼び出しはエラーとして返されます。
type InsightOracle interface {
	// Summarize は1記事を要約し、センチメントと関連度を付与します。
	Summarize(ctx context.Context, article entity.RawArticle, stockName string) (*entity.ArticleInsight, error)
	// SynthesizeStrategy は銘柄・建玉・ニュース・前回戦略から新しい戦略を生成します。
	SynthesizeStrategy(ctx context.Context, input entity.StrategyInput) (*entity.StrategyResult, error)
}

// Transactor はバッチ単位のトランザクション境界を抽象化します。
// fnがエラーを返した場合、fn内の書き込みはすべてロールバックされます。
type Transactor interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// StrategyNotifier は戦略変更を接続中のクライアントへ配信します。
// 戻り値は配信に成功したチャネル数です（可観測性のためであり、エラーにはなりません）。
type StrategyNotifier interface {
	NotifyStrategyChanges(userID uint, changes []entity.StrategyChange) int
}

// StrategyConfig は戦略更新バッチの調整パラメータです。
type StrategyConfig struct {
	MaxArticlesPerKeyword int
	ConfidenceThreshold   float64
	ItemConcurrency       int
}

// withDefaults はゼロ値のフィールドをデフォルト値で埋めます。
func (c StrategyConfig) withDefaults() StrategyConfig {
	if c.MaxArticlesPerKeyword <= 0 {
		c.MaxArticlesPerKeyword = DefaultMaxArticlesPerKeyword
	}
	if c.ConfidenceThreshold <= 0 {
		c.ConfidenceThreshold = DefaultConfidenceThreshold
	}
	if c.ItemConcurrency <= 0 {
		c.ItemConcurrency = DefaultItemConcurrency
	}
	return c
}

// strategyUsecase はユーザーの全保有銘柄に対する戦略更新パイプラインを駆動します。
//
// 銘柄ごとのパイプラインはI/Oステージ（キーワード解決→ニュース収集→要約→戦略生成）
// を並行に実行し、永続化はフェーズ分離して単一トランザクションで適用します。
// 1銘柄の失敗は他の銘柄に波及せず、劣化した結果（HOLD・低信頼度）として報告されます。
type strategyUsecase struct {
	portfolios PortfolioRepository
	keywords   KeywordRepository
	news       NewsRepository
	strategies StrategyRepository
	sources    []NewsSource
	oracle     InsightOracle
	tx         Transactor
	notifier   StrategyNotifier
	policy     KeywordPolicy
	cfg        StrategyConfig
}

// NewStrategyUsecase はstrategyUsecaseの新しいインスタンスを生成します。
func NewStrategyUsecase(
	portfolios PortfolioRepository,
	keywords KeywordRepository,
	news NewsRepository,
	strategies StrategyRepository,
	sources []NewsSource,
	oracle InsightOracle,
	tx Transactor,
	notifier StrategyNotifier,
	policy KeywordPolicy,
	cfg StrategyConfig,
) *strategyUsecase {
	return &strategyUsecase{
		portfolios: portfolios,
		keywords:   keywords,
		news:       news,
		strategies: strategies,
		sources:    sources,
		oracle:     oracle,
		tx:         tx,
		notifier:   notifier,
		policy:     policy,
		cfg:        cfg.withDefaults(),
	}
}

// itemOutcome は1銘柄分のパイプライン結果です。永続化フェーズまで保持されます。
type itemOutcome struct {
	update   entity.StrategyUpdate
	news     []entity.NewsSummary
	strategy entity.Strategy
}

// UpdateUserStrategies はユーザーの全保有銘柄の戦略を更新し、銘柄ごとの
// レポートを返します。永続化はバッチ全体で1トランザクションにまとめられ、
// コミット失敗時は全体がロールバックされます（レポートはエラーと共に返ります）。
func (u *strategyUsecase) UpdateUserStrategies(ctx context.Context, userID uint) ([]entity.StrategyUpdate, error) {
	portfolios, err := u.portfolios.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(portfolios) == 0 {
		slog.Info("no portfolios to update", "user_id", userID)
		return []entity.StrategyUpdate{}, nil
	}

	// I/Oステージ: 銘柄ごとに並行実行。結果はインデックス代入で集約するため
	// 競合しません。processItemはエラーを返さず、失敗は劣化結果として記録します。
	outcomes := make([]itemOutcome, len(portfolios))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.cfg.ItemConcurrency)
	for i, p := range portfolios {
		g.Go(func() error {
			outcomes[i] = u.processItem(gctx, p)
			return nil
		})
	}
	_ = g.Wait() // ゴルーチンはエラーを返さない

	updates := make([]entity.StrategyUpdate, 0, len(outcomes))
	for _, o := range outcomes {
		updates = append(updates, o.update)
	}

	// 永続化フェーズ: バッチ全体を1トランザクションで適用
	err = u.tx.Transaction(ctx, func(txCtx context.Context) error {
		for i := range outcomes {
			if err := u.news.CreateIgnoreDuplicates(txCtx, outcomes[i].news); err != nil {
				return err
			}
			if err := u.strategies.Create(txCtx, &outcomes[i].strategy); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		slog.Error("strategy batch commit failed", "user_id", userID, "error", err)
		return updates, err
	}

	// 変更あり かつ 信頼度がしきい値以上の銘柄のみを1通のアグリゲート通知にまとめる
	significant := make([]entity.StrategyChange, 0, len(updates))
	now := time.Now()
	for _, up := range updates {
		if up.Changed && up.Confidence >= u.cfg.ConfidenceThreshold {
			significant = append(significant, entity.StrategyChange{
				PortfolioID:  up.PortfolioID,
				StockCode:    up.StockCode,
				StockName:    up.StockName,
				PreviousKind: up.PreviousKind,
				NewKind:      up.NewKind,
				Confidence:   up.Confidence,
				Reasoning:    up.Reasoning,
				ChangedAt:    now,
			})
		}
	}
	if len(significant) > 0 {
		sent := u.notifier.NotifyStrategyChanges(userID, significant)
		slog.Info("strategy change notification sent",
			"user_id", userID, "changes", len(significant), "channels", sent)
	}

	return updates, nil
}

// processItem は1銘柄分のI/Oステージを実行します。エラーは返さず、
// 失敗時は劣化した結果（HOLD・低信頼度）を返します。
func (u *strategyUsecase) processItem(ctx context.Context, p entity.Portfolio) itemOutcome {
	keywords := u.resolveKeywords(ctx, p)
	articles := u.gatherNews(ctx, keywords)

	// 前回戦略。読み取り失敗は「前回なし」として扱い、銘柄の処理は続行する
	prior, err := u.strategies.FindLatest(ctx, p.ID)
	if err != nil {
		slog.Warn("failed to load prior strategy", "portfolio_id", p.ID, "error", err)
		prior = nil
	}
	var priorKind entity.StrategyKind
	if prior != nil {
		priorKind = prior.Kind
	}

	summaries := u.summarizeArticles(ctx, p, articles)

	input := entity.StrategyInput{
		StockCode:    p.StockCode,
		StockName:    p.StockName,
		CurrentPrice: p.CurrentPrice,
		Quantity:     p.Quantity,
		AvgPrice:     p.AvgPrice,
		News:         summaries,
		PreviousKind: priorKind,
	}
	if len(input.News) > synthesisNewsLimit {
		input.News = input.News[:synthesisNewsLimit]
	}

	result, err := u.oracle.SynthesizeStrategy(ctx, input)
	if err != nil {
		// 劣化動作: 結果が無いよりは保守的なHOLDを記録する
		slog.Warn("strategy synthesis failed, falling back to HOLD",
			"portfolio_id", p.ID, "stock", p.StockCode, "error", err)
		result = &entity.StrategyResult{
			Kind:       entity.StrategyHold,
			Confidence: 0.3,
			Reasoning:  fallbackReasoning,
			Sentiment:  entity.SentimentNeutral,
		}
	}

	changed := prior == nil || prior.Kind != result.Kind

	return itemOutcome{
		update: entity.StrategyUpdate{
			PortfolioID:  p.ID,
			StockCode:    p.StockCode,
			StockName:    p.StockName,
			PreviousKind: priorKind,
			NewKind:      result.Kind,
			Changed:      changed,
			Confidence:   result.Confidence,
			Reasoning:    result.Reasoning,
			NewsCount:    len(summaries),
		},
		news: summaries,
		strategy: entity.Strategy{
			PortfolioID:  p.ID,
			Kind:         result.Kind,
			Confidence:   result.Confidence,
			Reasoning:    result.Reasoning,
			TargetPrice:  result.TargetPrice,
			PreviousKind: priorKind,
			IsChanged:    changed,
		},
	}
}

// resolveKeywords は銘柄名・銘柄コード・有効なカスタムキーワード・
// ポリシー派生キーワードの和集合を重複なしで返します。
func (u *strategyUsecase) resolveKeywords(ctx context.Context, p entity.Portfolio) []string {
	keywords := []string{p.StockName, p.StockCode}

	customs, err := u.keywords.FindActive(ctx, p.ID)
	if err != nil {
		// キーワード取得失敗は基本キーワードのみで続行
		slog.Warn("failed to load custom keywords", "portfolio_id", p.ID, "error", err)
	}
	for _, k := range customs {
		keywords = append(keywords, k.Keyword)
	}
	keywords = append(keywords, u.policy.DerivedKeywords(p.StockName)...)

	seen := make(map[string]struct{}, len(keywords))
	out := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

// gatherNews は全ソース×全キーワードへ並行に検索をかけ、結果をマージします。
// URL重複は先に発見されたものが残り、発行日時の新しい順に整列されます。
// ソース単位の失敗は空の結果として扱われ、パイプラインを中断しません。
func (u *strategyUsecase) gatherNews(ctx context.Context, keywords []string) []entity.RawArticle {
	// (ソース, キーワード)ごとの結果をスロットに集め、収集順を決定的に保つ
	slots := make([][]entity.RawArticle, len(u.sources)*len(keywords))
	g, gctx := errgroup.WithContext(ctx)
	for si, src := range u.sources {
		for ki, kw := range keywords {
			slot := si*len(keywords) + ki
			g.Go(func() error {
				articles, err := src.Search(gctx, kw, u.cfg.MaxArticlesPerKeyword)
				if err != nil {
					slog.Warn("news source search failed",
						"source", src.Name(), "keyword", kw, "error", err)
					return nil // このソースの寄与は空になるだけ
				}
				for i := range articles {
					articles[i].Source = src.Name()
					articles[i].Keyword = kw
				}
				slots[slot] = articles
				return nil
			})
		}
	}
	_ = g.Wait()

	seen := make(map[string]struct{})
	var merged []entity.RawArticle
	for _, slot := range slots {
		for _, a := range slot {
			if a.URL == "" {
				continue
			}
			if _, ok := seen[a.URL]; ok {
				continue
			}
			seen[a.URL] = struct{}{}
			merged = append(merged, a)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].PublishedAt.After(merged[j].PublishedAt)
	})
	return merged
}

// summarizeArticles は各記事をオラクルで要約します。
// 要約に失敗した記事はログに残して除外されます（致命的ではありません）。
func (u *strategyUsecase) summarizeArticles(ctx context.Context, p entity.Portfolio, articles []entity.RawArticle) []entity.NewsSummary {
	summaries := make([]entity.NewsSummary, 0, len(articles))
	for _, a := range articles {
		insight, err := u.oracle.Summarize(ctx, a, p.StockName)
		if err != nil {
			slog.Warn("article summarization failed, dropping article",
				"portfolio_id", p.ID, "url", a.URL, "error", err)
			continue
		}
		summaries = append(summaries, entity.NewsSummary{
			PortfolioID:    p.ID,
			Title:          a.Title,
			URL:            a.URL,
			Content:        a.Snippet,
			Summary:        insight.Summary,
			Sentiment:      insight.Sentiment,
			RelevanceScore: insight.Relevance,
			PublishedAt:    a.PublishedAt,
		})
	}
	return summaries
}
