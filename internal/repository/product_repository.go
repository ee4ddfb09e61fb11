package repository

import (
	"context"

	"shop/internal/domain/model"

	"github.com/shopspring/decimal"
)

// 一覧検索
type ProductListQuery struct {
	Page     int
	Limit    int
	Name     string // 部分一致（大文字小文字を区別しない）
	Category string // カテゴリ名の完全一致（大文字小文字を区別しない）
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
}

// 商品の永続化（保存・取得）だけを約束。
type ProductRepository interface {
	List(ctx context.Context, q ProductListQuery) ([]model.Product, int64, error)
	FindByID(ctx context.Context, id int64) (model.Product, error)
	Create(ctx context.Context, p model.Product) (model.Product, error)
	Update(ctx context.Context, p model.Product) error
	Delete(ctx context.Context, id int64) error
}

// 在庫の読み書き。Tx内でのみ使う。
type ProductStockRepository interface {
	// 行ロックを取って現在の価格と在庫を返す
	GetForUpdate(ctx context.Context, productID int64) (model.Product, error)
	SetStock(ctx context.Context, productID int64, newStock int64) error
}
