// Package adapters はportfolioフィーチャーのGORMリポジトリ実装を提供します。
package adapters

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"portfolio_backend/internal/feature/portfolio/domain"
	"portfolio_backend/internal/feature/portfolio/domain/entity"
	"portfolio_backend/internal/feature/portfolio/usecase"
	db "portfolio_backend/internal/platform/db/txctx"
)

// pgUniqueViolation はPostgreSQLの一意制約違反のSQLSTATEです。
const pgUniqueViolation = "23505"

type portfolioGorm struct {
	db *gorm.DB
}

var _ usecase.PortfolioRepository = (*portfolioGorm)(nil)

func NewPortfolioRepository(gdb *gorm.DB) *portfolioGorm {
	return &portfolioGorm{db: gdb}
}

// PortfolioModel は保有銘柄の永続化モデルです。
// (user_id, stock_code)の一意制約が「1ユーザー1銘柄」の不変条件を担保します。
type PortfolioModel struct {
	ID           uint    `gorm:"primaryKey"`
	UserID       uint    `gorm:"not null;uniqueIndex:portfolio_user_code,priority:1"`
	StockCode    string  `gorm:"size:20;not null;uniqueIndex:portfolio_user_code,priority:2"`
	StockName    string  `gorm:"size:100;not null"`
	Quantity     int64   `gorm:"not null"`
	AvgPrice     float64 `gorm:"not null"`
	CurrentPrice float64 `gorm:"not null;default:0"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (PortfolioModel) TableName() string {
	return "portfolios"
}

func toPortfolioModel(e *entity.Portfolio) PortfolioModel {
	return PortfolioModel{
		ID:           e.ID,
		UserID:       e.UserID,
		StockCode:    e.StockCode,
		StockName:    e.StockName,
		Quantity:     e.Quantity,
		AvgPrice:     e.AvgPrice,
		CurrentPrice: e.CurrentPrice,
	}
}

func toPortfolioEntity(m PortfolioModel) entity.Portfolio {
	return entity.Portfolio{
		ID:           m.ID,
		UserID:       m.UserID,
		StockCode:    m.StockCode,
		StockName:    m.StockName,
		Quantity:     m.Quantity,
		AvgPrice:     m.AvgPrice,
		CurrentPrice: m.CurrentPrice,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// isUniqueViolation は一意制約違反かどうかを判定します。
// gormのTranslateErrorとpgxのSQLSTATEの両方をみます（テスト用SQLiteと本番Postgresの差異吸収）。
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func (r *portfolioGorm) Create(ctx context.Context, p *entity.Portfolio) error {
	m := toPortfolioModel(p)
	if err := db.FromContext(ctx, r.db).WithContext(ctx).Create(&m).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicatePortfolio
		}
		return err
	}
	p.ID = m.ID
	p.CreatedAt = m.CreatedAt
	p.UpdatedAt = m.UpdatedAt
	return nil
}

func (r *portfolioGorm) FindByUser(ctx context.Context, userID uint) ([]entity.Portfolio, error) {
	var rows []PortfolioModel
	err := db.FromContext(ctx, r.db).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]entity.Portfolio, 0, len(rows))
	for _, m := range rows {
		out = append(out, toPortfolioEntity(m))
	}
	return out, nil
}

func (r *portfolioGorm) FindByID(ctx context.Context, id, userID uint) (*entity.Portfolio, error) {
	var m PortfolioModel
	err := db.FromContext(ctx, r.db).WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPortfolioNotFound
		}
		return nil, err
	}
	e := toPortfolioEntity(m)
	return &e, nil
}

func (r *portfolioGorm) Update(ctx context.Context, p *entity.Portfolio) error {
	return db.FromContext(ctx, r.db).WithContext(ctx).
		Model(&PortfolioModel{}).
		Where("id = ? AND user_id = ?", p.ID, p.UserID).
		Updates(map[string]any{
			"quantity":      p.Quantity,
			"avg_price":     p.AvgPrice,
			"current_price": p.CurrentPrice,
		}).Error
}

func (r *portfolioGorm) ListUserIDs(ctx context.Context) ([]uint, error) {
	var ids []uint
	err := db.FromContext(ctx, r.db).WithContext(ctx).
		Model(&PortfolioModel{}).
		Distinct("user_id").
		Order("user_id ASC").
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *portfolioGorm) Delete(ctx context.Context, id, userID uint) error {
	res := db.FromContext(ctx, r.db).WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&PortfolioModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrPortfolioNotFound
	}
	return nil
}
