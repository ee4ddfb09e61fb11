package usecase_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"shop/internal/domain/model"
	repo "shop/internal/repository"

	"github.com/shopspring/decimal"
)

// =====================
// in-memory TxManager
// =====================

// memState はTx1回分のスナップショット。fnが成功したときだけ差し替える。
type memState struct {
	products   map[int64]model.Product
	orders     map[int64]model.Order
	items      map[int64]model.OrderItem
	audits     []model.AuditLog
	nextOrder  int64
	nextItem   int64
	failOnItem bool // 明細作成を失敗させる（ロールバック確認用）
}

func (s *memState) clone() *memState {
	c := &memState{
		products:   make(map[int64]model.Product, len(s.products)),
		orders:     make(map[int64]model.Order, len(s.orders)),
		items:      make(map[int64]model.OrderItem, len(s.items)),
		audits:     append([]model.AuditLog(nil), s.audits...),
		nextOrder:  s.nextOrder,
		nextItem:   s.nextItem,
		failOnItem: s.failOnItem,
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.items {
		c.items[k] = v
	}
	return c
}

type memTxManager struct {
	mu    sync.Mutex
	state *memState
}

func newMemTxManager() *memTxManager {
	return &memTxManager{state: &memState{
		products: map[int64]model.Product{},
		orders:   map[int64]model.Order{},
		items:    map[int64]model.OrderItem{},
	}}
}

func (m *memTxManager) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	work := m.state.clone()
	if err := fn(&memRepos{s: work}); err != nil {
		return err
	}
	m.state = work
	return nil
}

func (m *memTxManager) addProduct(id int64, name string, price string, stock int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.products[id] = model.Product{ID: id, Name: name, Price: decimal.RequireFromString(price), Stock: stock}
}

func (m *memTxManager) stock(id int64) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.products[id].Stock
}

func (m *memTxManager) order(id int64) (model.Order, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.state.orders[id]
	return o, ok
}

func (m *memTxManager) setOrder(o model.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.orders[o.ID] = o
}

func (m *memTxManager) itemCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.state.items)
}

func (m *memTxManager) auditLogs() []model.AuditLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.AuditLog(nil), m.state.audits...)
}

type memRepos struct{ s *memState }

func (r *memRepos) Orders() repo.OrderRepository         { return memOrders{r.s} }
func (r *memRepos) OrderItems() repo.OrderItemRepository { return memOrderItems{r.s} }
func (r *memRepos) Stock() repo.ProductStockRepository   { return memStock{r.s} }
func (r *memRepos) AuditLogs() repo.AuditLogRepository   { return memAudit{r.s} }

// 注文の処理では使わない
func (r *memRepos) Products() repo.ProductRepository { return nil }

type memOrders struct{ s *memState }

func (m memOrders) Create(ctx context.Context, o model.Order) (int64, error) {
	m.s.nextOrder++
	o.ID = m.s.nextOrder
	m.s.orders[o.ID] = o
	return o.ID, nil
}

func (m memOrders) FindByID(ctx context.Context, id int64) (model.Order, error) {
	o, ok := m.s.orders[id]
	if !ok {
		return model.Order{}, repo.ErrNotFound
	}
	return o, nil
}

func (m memOrders) FindByIDForUpdate(ctx context.Context, id int64) (model.Order, error) {
	return m.FindByID(ctx, id)
}

func (m memOrders) ListByUserID(ctx context.Context, userID int64) ([]model.Order, error) {
	out := []model.Order{}
	for _, o := range m.s.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m memOrders) SetTotals(ctx context.Context, id int64, total decimal.Decimal, status model.OrderStatus) error {
	o, ok := m.s.orders[id]
	if !ok {
		return repo.ErrNotFound
	}
	o.TotalPrice = total
	o.Status = status
	m.s.orders[id] = o
	return nil
}

func (m memOrders) Delete(ctx context.Context, id int64) error {
	if _, ok := m.s.orders[id]; !ok {
		return repo.ErrNotFound
	}
	for itemID, it := range m.s.items {
		if it.OrderID == id {
			delete(m.s.items, itemID)
		}
	}
	delete(m.s.orders, id)
	return nil
}

type memOrderItems struct{ s *memState }

func (m memOrderItems) Create(ctx context.Context, it model.OrderItem) (int64, error) {
	if m.s.failOnItem {
		return 0, errors.New("disk full")
	}
	m.s.nextItem++
	it.ID = m.s.nextItem
	m.s.items[it.ID] = it
	return it.ID, nil
}

func (m memOrderItems) Update(ctx context.Context, it model.OrderItem) error {
	if _, ok := m.s.items[it.ID]; !ok {
		return repo.ErrNotFound
	}
	m.s.items[it.ID] = it
	return nil
}

func (m memOrderItems) Delete(ctx context.Context, id int64) error {
	if _, ok := m.s.items[id]; !ok {
		return repo.ErrNotFound
	}
	delete(m.s.items, id)
	return nil
}

func (m memOrderItems) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	out := []model.OrderItem{}
	for _, it := range m.s.items {
		if it.OrderID == orderID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memStock struct{ s *memState }

func (m memStock) GetForUpdate(ctx context.Context, id int64) (model.Product, error) {
	p, ok := m.s.products[id]
	if !ok {
		return model.Product{}, repo.ErrNotFound
	}
	return p, nil
}

func (m memStock) SetStock(ctx context.Context, id int64, stock int64) error {
	p, ok := m.s.products[id]
	if !ok {
		return repo.ErrNotFound
	}
	p.Stock = stock
	m.s.products[id] = p
	return nil
}

type memAudit struct{ s *memState }

func (m memAudit) Create(ctx context.Context, l model.AuditLog) error {
	m.s.audits = append(m.s.audits, l)
	return nil
}

func (m memAudit) List(ctx context.Context, f repo.AuditLogFilter) ([]model.AuditLog, error) {
	return append([]model.AuditLog(nil), m.s.audits...), nil
}

// =====================
// clock / publisher
// =====================

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

type recordingPublisher struct {
	mu      sync.Mutex
	events  []model.OrderEvent
	ctxErrs []error
	err     error
}

func (p *recordingPublisher) PublishOrderEvent(ctx context.Context, ev model.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	p.ctxErrs = append(p.ctxErrs, ctx.Err())
	return p.err
}

func (p *recordingPublisher) types() []model.OrderEventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.OrderEventType, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}
