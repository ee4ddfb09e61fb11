package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"shop/internal/domain/model"
	repo "shop/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// 注文イベントの送信先（Kafka or 何もしない）
type OrderEventPublisher interface {
	PublishOrderEvent(ctx context.Context, ev model.OrderEvent) error
}

// 注文の作成・更新・削除と在庫の引当て
type OrderUsecase struct {
	tx     repo.TransactionManager
	events OrderEventPublisher
	clock  Clock
	log    *slog.Logger
}

func NewOrderUsecase(tx repo.TransactionManager, events OrderEventPublisher, clock Clock, logger *slog.Logger) *OrderUsecase {
	if logger == nil {
		logger = slog.Default()
	}
	return &OrderUsecase{tx: tx, events: events, clock: clock, log: logger}
}

type OrderLineInput struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

// nilは「変更しない」
type UpdateOrderInput struct {
	Items  *[]OrderLineInput
	Status *model.OrderStatus
}

type OrderItemOutput struct {
	ID        int64           `json:"id"`
	ProductID int64           `json:"product_id"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type OrderOutput struct {
	ID         int64             `json:"id"`
	UserID     int64             `json:"user_id"`
	Status     model.OrderStatus `json:"status"`
	TotalPrice decimal.Decimal   `json:"total_price"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
	Items      []OrderItemOutput `json:"items"`
}

func (u *OrderUsecase) CreateOrder(ctx context.Context, userID int64, items []OrderLineInput) (OrderOutput, error) {
	lines, err := normalizeLines(items)
	if err != nil {
		return OrderOutput{}, err
	}

	now := u.clock.Now()
	var out OrderOutput

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		created := make([]model.OrderItem, 0, len(lines))

		//商品IDの昇順でロックする
		for _, ln := range lines {
			p, err := adjustStock(ctx, r.Stock(), ln.ProductID, ln.Quantity, 0)
			if err != nil {
				return err
			}
			created = append(created, model.OrderItem{
				ProductID: ln.ProductID,
				Quantity:  ln.Quantity,
				UnitPrice: p.Price,
				LineTotal: model.LineTotal(p.Price, ln.Quantity),
			})
		}

		order := model.Order{
			UserID:     userID,
			Status:     model.OrderStatusPending,
			TotalPrice: model.SumLineTotals(created),
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		orderID, err := r.Orders().Create(ctx, order)
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		order.ID = orderID

		for i := range created {
			created[i].OrderID = orderID
			itemID, err := r.OrderItems().Create(ctx, created[i])
			if err != nil {
				return fmt.Errorf("create order item: %w", err)
			}
			created[i].ID = itemID
		}

		out = toOrderOutput(order, created)
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}

	u.log.InfoContext(ctx, "order created", "order_id", out.ID, "user_id", userID, "total", out.TotalPrice.String())
	u.publish(ctx, model.OrderEventCreated, out)
	return out, nil
}

func (u *OrderUsecase) GetOrder(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err != nil {
			return orderLookupError(err)
		}
		//他人の注文は「存在しない扱い」にする
		if o.UserID != userID {
			return ErrNotFound
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return fmt.Errorf("list order items: %w", err)
		}
		out = toOrderOutput(o, items)
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64) ([]OrderOutput, error) {
	var outs []OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, err := r.Orders().ListByUserID(ctx, userID)
		if err != nil {
			return fmt.Errorf("list orders: %w", err)
		}

		outs = make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return fmt.Errorf("list order items: %w", err)
			}
			outs = append(outs, toOrderOutput(o, items))
		}
		return nil
	})
	if err != nil {
		return []OrderOutput{}, err
	}
	return outs, nil
}

// UpdateOrder は明細の差し替えとステータス変更を1つのTxで行う。
// 既存明細との差分だけ在庫を動かし、外れた明細の在庫は戻す。
// キャンセルになったときは残っている明細の在庫をすべて戻す。
func (u *OrderUsecase) UpdateOrder(ctx context.Context, userID int64, orderID int64, in UpdateOrderInput) (OrderOutput, error) {
	var lines []OrderLineInput
	if in.Items != nil {
		var err error
		if lines, err = normalizeLines(*in.Items); err != nil {
			return OrderOutput{}, err
		}
	}
	if in.Status != nil && !in.Status.Valid() {
		return OrderOutput{}, validationError(fmt.Sprintf("unknown status %q", *in.Status))
	}

	now := u.clock.Now()
	var out OrderOutput
	var prev model.OrderStatus

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		order, err := r.Orders().FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return orderLookupError(err)
		}
		if order.UserID != userID {
			return ErrForbidden
		}
		if order.Status.IsLocked() {
			return ErrOrderLocked
		}

		prev = order.Status
		next := order.Status
		if in.Status != nil {
			next = *in.Status
		}
		changing := next != prev

		if order.EditWindowExpired(now) && (changing || in.Items != nil) {
			return ErrEditWindowExpired
		}
		if changing && !model.CanTransition(prev, next) {
			return &InvalidStatusTransitionError{From: prev, To: next}
		}

		items, err := r.OrderItems().ListByOrderID(ctx, order.ID)
		if err != nil {
			return fmt.Errorf("list order items: %w", err)
		}

		if in.Items != nil {
			if items, err = reconcileItems(ctx, r, order.ID, items, lines); err != nil {
				return err
			}
		}

		if next == model.OrderStatusCancelled && prev != model.OrderStatusCancelled {
			sort.Slice(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })
			for _, it := range items {
				if _, err := adjustStock(ctx, r.Stock(), it.ProductID, -it.Quantity, 0); err != nil {
					return err
				}
			}
		}

		total := model.SumLineTotals(items)
		if err := r.Orders().SetTotals(ctx, order.ID, total, next); err != nil {
			return fmt.Errorf("set order totals: %w", err)
		}

		if changing {
			if err := writeStatusAudit(ctx, r.AuditLogs(), userID, order.ID, prev, next, now); err != nil {
				return err
			}
		}

		order.Status = next
		order.TotalPrice = total
		order.UpdatedAt = now
		out = toOrderOutput(order, items)
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}

	u.log.InfoContext(ctx, "order updated", "order_id", out.ID, "user_id", userID, "from", prev, "to", out.Status)
	u.publish(ctx, model.OrderEventUpdated, out)
	return out, nil
}

// 明細ごと削除する。在庫は戻さない。
func (u *OrderUsecase) DeleteOrder(ctx context.Context, userID int64, orderID int64) error {
	var deleted model.Order

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		order, err := r.Orders().FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return orderLookupError(err)
		}
		if order.UserID != userID {
			return ErrForbidden
		}
		if err := r.Orders().Delete(ctx, order.ID); err != nil {
			return fmt.Errorf("delete order: %w", err)
		}
		deleted = order
		return nil
	})
	if err != nil {
		return err
	}

	u.log.InfoContext(ctx, "order deleted", "order_id", orderID, "user_id", userID)
	u.publish(ctx, model.OrderEventDeleted, toOrderOutput(deleted, nil))
	return nil
}

// コミット後に送る。失敗しても注文は成功のまま。
func (u *OrderUsecase) publish(ctx context.Context, typ model.OrderEventType, o OrderOutput) {
	if u.events == nil {
		return
	}
	ev := model.OrderEvent{
		ID:         uuid.NewString(),
		Type:       typ,
		OrderID:    o.ID,
		UserID:     o.UserID,
		Status:     o.Status,
		TotalPrice: o.TotalPrice,
		OccurredAt: u.clock.Now(),
	}
	//コミット済みなのでクライアント切断では止めない
	if err := u.events.PublishOrderEvent(context.WithoutCancel(ctx), ev); err != nil {
		u.log.WarnContext(ctx, "publish order event failed", "type", typ, "order_id", o.ID, "err", err)
	}
}

// 既存明細と新しい明細をつき合わせる。商品IDの昇順で処理する。
func reconcileItems(ctx context.Context, r repo.TxRepos, orderID int64, existing []model.OrderItem, lines []OrderLineInput) ([]model.OrderItem, error) {
	current := make(map[int64]model.OrderItem, len(existing))
	for _, it := range existing {
		current[it.ProductID] = it
	}
	incoming := make(map[int64]int64, len(lines))
	for _, ln := range lines {
		incoming[ln.ProductID] = ln.Quantity
	}

	productIDs := make([]int64, 0, len(current)+len(incoming))
	for id := range current {
		productIDs = append(productIDs, id)
	}
	for id := range incoming {
		if _, ok := current[id]; !ok {
			productIDs = append(productIDs, id)
		}
	}
	sort.Slice(productIDs, func(i, j int) bool { return productIDs[i] < productIDs[j] })

	result := make([]model.OrderItem, 0, len(incoming))
	for _, pid := range productIDs {
		old, hasOld := current[pid]
		qty, hasNew := incoming[pid]

		switch {
		case hasOld && hasNew:
			//前回の引当てとの差分だけ動かす
			p, err := adjustStock(ctx, r.Stock(), pid, qty-old.Quantity, old.Quantity)
			if err != nil {
				return nil, err
			}
			old.Quantity = qty
			old.UnitPrice = p.Price
			old.LineTotal = model.LineTotal(p.Price, qty)
			if err := r.OrderItems().Update(ctx, old); err != nil {
				return nil, fmt.Errorf("update order item: %w", err)
			}
			result = append(result, old)

		case hasNew:
			p, err := adjustStock(ctx, r.Stock(), pid, qty, 0)
			if err != nil {
				return nil, err
			}
			it := model.OrderItem{
				OrderID:   orderID,
				ProductID: pid,
				Quantity:  qty,
				UnitPrice: p.Price,
				LineTotal: model.LineTotal(p.Price, qty),
			}
			id, err := r.OrderItems().Create(ctx, it)
			if err != nil {
				return nil, fmt.Errorf("create order item: %w", err)
			}
			it.ID = id
			result = append(result, it)

		default:
			//外れた明細は在庫を戻して消す
			if _, err := adjustStock(ctx, r.Stock(), pid, -old.Quantity, 0); err != nil {
				return nil, err
			}
			if err := r.OrderItems().Delete(ctx, old.ID); err != nil {
				return nil, fmt.Errorf("delete order item: %w", err)
			}
		}
	}
	return result, nil
}

// 商品行をロックして在庫を delta だけ減らす（負なら戻す）。
// held はこの注文が既に引き当てている数量。不足エラーは held 込みの数量で返す。
func adjustStock(ctx context.Context, stock repo.ProductStockRepository, productID int64, delta int64, held int64) (model.Product, error) {
	p, err := stock.GetForUpdate(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, fmt.Errorf("%w: product %d", ErrNotFound, productID)
	}
	if err != nil {
		return model.Product{}, fmt.Errorf("lock product %d: %w", productID, err)
	}
	if delta == 0 {
		return p, nil
	}
	if delta > 0 && p.Stock < delta {
		return model.Product{}, &InsufficientStockError{ProductName: p.Name, Requested: delta + held, Available: p.Stock + held}
	}
	if err := stock.SetStock(ctx, productID, p.Stock-delta); err != nil {
		return model.Product{}, fmt.Errorf("set stock %d: %w", productID, err)
	}
	p.Stock -= delta
	return p, nil
}

func writeStatusAudit(ctx context.Context, logs repo.AuditLogRepository, actor, orderID int64, from, to model.OrderStatus, now time.Time) error {
	before, _ := json.Marshal(map[string]model.OrderStatus{"status": from})
	after, _ := json.Marshal(map[string]model.OrderStatus{"status": to})

	err := logs.Create(ctx, model.AuditLog{
		ActorUserID:  actor,
		Action:       model.AuditActionUpdateOrderStatus,
		ResourceType: model.AuditResourceOrder,
		ResourceID:   orderID,
		BeforeJSON:   string(before),
		AfterJSON:    string(after),
		CreatedAt:    now,
	})
	if err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}

// 入力チェックして商品IDの昇順に並べる
func normalizeLines(items []OrderLineInput) ([]OrderLineInput, error) {
	if len(items) == 0 {
		return nil, validationError("items must not be empty")
	}

	seen := make(map[int64]struct{}, len(items))
	out := make([]OrderLineInput, 0, len(items))
	for _, it := range items {
		if it.ProductID <= 0 {
			return nil, validationError("invalid product_id")
		}
		if it.Quantity <= 0 {
			return nil, validationError("quantity must be positive")
		}
		if _, dup := seen[it.ProductID]; dup {
			return nil, validationError(fmt.Sprintf("duplicate product %d", it.ProductID))
		}
		seen[it.ProductID] = struct{}{}
		out = append(out, it)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}

func orderLookupError(err error) error {
	if errors.Is(err, repo.ErrNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("find order: %w", err)
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			ID:        it.ID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			LineTotal: it.LineTotal,
		})
	}

	return OrderOutput{
		ID:         o.ID,
		UserID:     o.UserID,
		Status:     o.Status,
		TotalPrice: o.TotalPrice,
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
		Items:      outItems,
	}
}
