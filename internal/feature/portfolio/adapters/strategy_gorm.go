package adapters

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"portfolio_backend/internal/feature/portfolio/domain/entity"
	"portfolio_backend/internal/feature/portfolio/usecase"
	db "portfolio_backend/internal/platform/db/txctx"
)

type strategyGorm struct {
	db *gorm.DB
}

var _ usecase.StrategyRepository = (*strategyGorm)(nil)

func NewStrategyRepository(gdb *gorm.DB) *strategyGorm {
	return &strategyGorm{db: gdb}
}

// StrategyModel は戦略履歴の永続化モデルです。行は追記専用で、
// 一度書かれた行が更新されることはありません。
type StrategyModel struct {
	ID               uint     `gorm:"primaryKey"`
	PortfolioID      uint     `gorm:"not null;index"`
	StrategyType     string   `gorm:"size:20;not null"`
	Confidence       float64  `gorm:"not null;default:0"`
	Reasoning        string   `gorm:"type:text;not null"`
	TargetPrice      *float64 `gorm:""`
	PreviousStrategy string   `gorm:"size:20"`
	IsChanged        bool     `gorm:"not null;default:false"`
	CreatedAt        time.Time
}

func (StrategyModel) TableName() string {
	return "strategies"
}

func toStrategyModel(e *entity.Strategy) StrategyModel {
	return StrategyModel{
		PortfolioID:      e.PortfolioID,
		StrategyType:     string(e.Kind),
		Confidence:       e.Confidence,
		Reasoning:        e.Reasoning,
		TargetPrice:      e.TargetPrice,
		PreviousStrategy: string(e.PreviousKind),
		IsChanged:        e.IsChanged,
	}
}

func toStrategyEntity(m StrategyModel) entity.Strategy {
	return entity.Strategy{
		ID:           m.ID,
		PortfolioID:  m.PortfolioID,
		Kind:         entity.StrategyKind(m.StrategyType),
		Confidence:   m.Confidence,
		Reasoning:    m.Reasoning,
		TargetPrice:  m.TargetPrice,
		PreviousKind: entity.StrategyKind(m.PreviousStrategy),
		IsChanged:    m.IsChanged,
		CreatedAt:    m.CreatedAt,
	}
}

func (r *strategyGorm) Create(ctx context.Context, s *entity.Strategy) error {
	m := toStrategyModel(s)
	if err := db.FromContext(ctx, r.db).WithContext(ctx).Create(&m).Error; err != nil {
		return err
	}
	s.ID = m.ID
	s.CreatedAt = m.CreatedAt
	return nil
}

// FindLatest は最新の戦略を返します。履歴が無い場合は(nil, nil)です。
func (r *strategyGorm) FindLatest(ctx context.Context, portfolioID uint) (*entity.Strategy, error) {
	var m StrategyModel
	err := db.FromContext(ctx, r.db).WithContext(ctx).
		Where("portfolio_id = ?", portfolioID).
		Order("created_at DESC, id DESC").
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	e := toStrategyEntity(m)
	return &e, nil
}

func (r *strategyGorm) FindByPortfolio(ctx context.Context, portfolioID uint, limit int) ([]entity.Strategy, error) {
	var rows []StrategyModel
	q := db.FromContext(ctx, r.db).WithContext(ctx).
		Where("portfolio_id = ?", portfolioID).
		Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]entity.Strategy, 0, len(rows))
	for _, m := range rows {
		out = append(out, toStrategyEntity(m))
	}
	return out, nil
}

// strategyChangeRow は銘柄情報をJOINした変更履歴クエリの行です。
type strategyChangeRow struct {
	PortfolioID      uint
	StockCode        string
	StockName        string
	PreviousStrategy string
	StrategyType     string
	Confidence       float64
	Reasoning        string
	CreatedAt        time.Time
}

func (r *strategyGorm) FindChangedSince(ctx context.Context, userID uint, since time.Time) ([]entity.StrategyChange, error) {
	var rows []strategyChangeRow
	err := db.FromContext(ctx, r.db).WithContext(ctx).
		Table("strategies").
		Select("strategies.portfolio_id, portfolios.stock_code, portfolios.stock_name, "+
			"strategies.previous_strategy, strategies.strategy_type, strategies.confidence, "+
			"strategies.reasoning, strategies.created_at").
		Joins("JOIN portfolios ON portfolios.id = strategies.portfolio_id").
		Where("portfolios.user_id = ? AND strategies.is_changed = ? AND strategies.created_at >= ?",
			userID, true, since).
		Order("strategies.created_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]entity.StrategyChange, 0, len(rows))
	for _, row := range rows {
		out = append(out, entity.StrategyChange{
			PortfolioID:  row.PortfolioID,
			StockCode:    row.StockCode,
			StockName:    row.StockName,
			PreviousKind: entity.StrategyKind(row.PreviousStrategy),
			NewKind:      entity.StrategyKind(row.StrategyType),
			Confidence:   row.Confidence,
			Reasoning:    row.Reasoning,
			ChangedAt:    row.CreatedAt,
		})
	}
	return out, nil
}
