package adapters

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"portfolio_backend/internal/feature/portfolio/domain/entity"
	"portfolio_backend/internal/feature/portfolio/usecase"
	db "portfolio_backend/internal/platform/db/txctx"
)

type newsGorm struct {
	db *gorm.DB
}

var _ usecase.NewsRepository = (*newsGorm)(nil)

func NewNewsRepository(gdb *gorm.DB) *newsGorm {
	return &newsGorm{db: gdb}
}

// NewsSummaryModel はニュース要約の永続化モデルです。
// (portfolio_id, news_url)の一意制約が再取り込みの冪等性を担保します。
type NewsSummaryModel struct {
	ID             uint      `gorm:"primaryKey"`
	PortfolioID    uint      `gorm:"not null;uniqueIndex:news_portfolio_url,priority:1"`
	NewsTitle      string    `gorm:"size:500;not null"`
	NewsURL        string    `gorm:"size:500;not null;uniqueIndex:news_portfolio_url,priority:2"`
	NewsContent    string    `gorm:"type:text"`
	Summary        string    `gorm:"type:text"`
	Sentiment      string    `gorm:"size:20"`
	RelevanceScore float64   `gorm:"not null;default:0"`
	PublishedAt    time.Time `gorm:"not null"`
	CreatedAt      time.Time
}

func (NewsSummaryModel) TableName() string {
	return "news_summaries"
}

func toNewsModel(e entity.NewsSummary) NewsSummaryModel {
	return NewsSummaryModel{
		PortfolioID:    e.PortfolioID,
		NewsTitle:      e.Title,
		NewsURL:        e.URL,
		NewsContent:    e.Content,
		Summary:        e.Summary,
		Sentiment:      e.Sentiment,
		RelevanceScore: e.RelevanceScore,
		PublishedAt:    e.PublishedAt,
	}
}

func toNewsEntity(m NewsSummaryModel) entity.NewsSummary {
	return entity.NewsSummary{
		ID:             m.ID,
		PortfolioID:    m.PortfolioID,
		Title:          m.NewsTitle,
		URL:            m.NewsURL,
		Content:        m.NewsContent,
		Summary:        m.Summary,
		Sentiment:      m.Sentiment,
		RelevanceScore: m.RelevanceScore,
		PublishedAt:    m.PublishedAt,
		CreatedAt:      m.CreatedAt,
	}
}

// CreateIgnoreDuplicates はニュース要約を一括挿入します。既存の
// (portfolio_id, news_url)と衝突する行はスキップされ、上書きされません。
func (r *newsGorm) CreateIgnoreDuplicates(ctx context.Context, news []entity.NewsSummary) error {
	if len(news) == 0 {
		return nil
	}
	ms := make([]NewsSummaryModel, 0, len(news))
	for _, e := range news {
		ms = append(ms, toNewsModel(e))
	}
	return db.FromContext(ctx, r.db).WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "portfolio_id"}, {Name: "news_url"}},
		DoNothing: true,
	}).Create(&ms).Error
}

func (r *newsGorm) FindRecent(ctx context.Context, portfolioID uint, since time.Time) ([]entity.NewsSummary, error) {
	var rows []NewsSummaryModel
	err := db.FromContext(ctx, r.db).WithContext(ctx).
		Where("portfolio_id = ? AND created_at >= ?", portfolioID, since).
		Order("published_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]entity.NewsSummary, 0, len(rows))
	for _, m := range rows {
		out = append(out, toNewsEntity(m))
	}
	return out, nil
}
