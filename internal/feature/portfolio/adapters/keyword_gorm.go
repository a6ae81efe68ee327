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

type keywordGorm struct {
	db *gorm.DB
}

var _ usecase.KeywordRepository = (*keywordGorm)(nil)

func NewKeywordRepository(gdb *gorm.DB) *keywordGorm {
	return &keywordGorm{db: gdb}
}

// NewsKeywordModel は検索キーワードの永続化モデルです。
// 削除はis_activeの反転による論理削除で、行は履歴として残ります。
type NewsKeywordModel struct {
	ID          uint   `gorm:"primaryKey"`
	PortfolioID uint   `gorm:"not null;uniqueIndex:keyword_portfolio_word,priority:1"`
	Keyword     string `gorm:"size:100;not null;uniqueIndex:keyword_portfolio_word,priority:2"`
	Priority    int    `gorm:"not null;default:1"`
	IsActive    bool   `gorm:"not null;default:true"`
	CreatedAt   time.Time
}

func (NewsKeywordModel) TableName() string {
	return "news_keywords"
}

func (r *keywordGorm) FindActive(ctx context.Context, portfolioID uint) ([]entity.NewsKeyword, error) {
	var rows []NewsKeywordModel
	err := db.FromContext(ctx, r.db).WithContext(ctx).
		Where("portfolio_id = ? AND is_active = ?", portfolioID, true).
		Order("priority DESC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]entity.NewsKeyword, 0, len(rows))
	for _, m := range rows {
		out = append(out, entity.NewsKeyword{
			ID:          m.ID,
			PortfolioID: m.PortfolioID,
			Keyword:     m.Keyword,
			Priority:    m.Priority,
			IsActive:    m.IsActive,
			CreatedAt:   m.CreatedAt,
		})
	}
	return out, nil
}

// Upsert はキーワードを追加します。論理削除済みを含む同名キーワードが
// 既にある場合は再有効化し、優先度を上書きします。
func (r *keywordGorm) Upsert(ctx context.Context, k *entity.NewsKeyword) error {
	m := NewsKeywordModel{
		PortfolioID: k.PortfolioID,
		Keyword:     k.Keyword,
		Priority:    k.Priority,
		IsActive:    true,
	}
	return db.FromContext(ctx, r.db).WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "portfolio_id"}, {Name: "keyword"}},
		DoUpdates: clause.AssignmentColumns([]string{"priority", "is_active"}),
	}).Create(&m).Error
}

// Deactivate はキーワードを論理削除します。該当行が無くてもエラーにはなりません。
func (r *keywordGorm) Deactivate(ctx context.Context, portfolioID uint, keyword string) error {
	return db.FromContext(ctx, r.db).WithContext(ctx).
		Model(&NewsKeywordModel{}).
		Where("portfolio_id = ? AND keyword = ?", portfolioID, keyword).
		Update("is_active", false).Error
}
