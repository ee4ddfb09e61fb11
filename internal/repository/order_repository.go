package repository

import (
	"context"

	"shop/internal/domain/model"

	"github.com/shopspring/decimal"
)

type OrderRepository interface {
	Create(ctx context.Context, order model.Order) (int64, error)
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	// 更新・削除の前に注文行をロックする
	FindByIDForUpdate(ctx context.Context, orderID int64) (model.Order, error)
	ListByUserID(ctx context.Context, userID int64) ([]model.Order, error)
	SetTotals(ctx context.Context, orderID int64, total decimal.Decimal, status model.OrderStatus) error
	// 明細もまとめて消える
	Delete(ctx context.Context, orderID int64) error
}
