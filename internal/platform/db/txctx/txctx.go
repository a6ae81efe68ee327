// Package txctx はコンテキスト経由のトランザクション伝播を提供します。
package txctx

import (
	"context"

	"gorm.io/gorm"
)

// txKey はコンテキストに載せるトランザクションハンドルのキーです。
type txKey struct{}

// FromContext はコンテキストにトランザクションが載っていればそれを、
// 無ければfallbackを返します。リポジトリの全クエリがこの関数を経由する
// ことで、Transactor配下の呼び出しは同一トランザクションに参加します。
func FromContext(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return fallback
}

// GormTransactor はgormのトランザクションでバッチ境界を実装します。
type GormTransactor struct {
	db *gorm.DB
}

// NewGormTransactor はGormTransactorの新しいインスタンスを生成します。
func NewGormTransactor(db *gorm.DB) *GormTransactor {
	return &GormTransactor{db: db}
}

// Transaction はfnを1つのDBトランザクション内で実行します。fnへ渡される
// コンテキスト経由でトランザクションがリポジトリへ伝播し、fnがエラーを
// 返すと全体がロールバックされます。
func (t *GormTransactor) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}
