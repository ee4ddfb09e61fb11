package repository

import (
	"context"

	"shop/internal/domain/model"
)

type OrderItemRepository interface {
	Create(ctx context.Context, item model.OrderItem) (int64, error)
	Update(ctx context.Context, item model.OrderItem) error
	Delete(ctx context.Context, itemID int64) error
	ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error)
}
