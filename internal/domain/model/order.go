package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "Pending"
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusDelivered  OrderStatus = "Delivered"
	OrderStatusCancelled  OrderStatus = "Cancelled"
)

// 作成からこの時間を過ぎた注文は変更できない
const OrderEditWindow = 24 * time.Hour

// 遷移表（空は終端）
var orderStatusNext = map[OrderStatus]map[OrderStatus]bool{
	OrderStatusPending:    {OrderStatusProcessing: true, OrderStatusCancelled: true},
	OrderStatusProcessing: {OrderStatusShipped: true, OrderStatusCancelled: true},
	OrderStatusShipped:    {OrderStatusDelivered: true},
	OrderStatusDelivered:  {},
	OrderStatusCancelled:  {},
}

func (s OrderStatus) Valid() bool {
	_, ok := orderStatusNext[s]
	return ok
}

// CanTransition は from から to へ一段で動けるかを返す。
func CanTransition(from, to OrderStatus) bool {
	return orderStatusNext[from][to]
}

func (s OrderStatus) IsTerminal() bool {
	next, ok := orderStatusNext[s]
	return ok && len(next) == 0
}

// 出荷以降と終端は注文内容を触らせない
func (s OrderStatus) IsLocked() bool {
	return s == OrderStatusShipped || s.IsTerminal()
}

type Order struct {
	ID         int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     int64           `gorm:"not null;index" json:"user_id"`
	Status     OrderStatus     `gorm:"type:varchar(20);not null;index" json:"status"`
	TotalPrice decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total_price"`
	CreatedAt  time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// 編集期限切れか
func (o Order) EditWindowExpired(now time.Time) bool {
	return now.Sub(o.CreatedAt) > OrderEditWindow
}
