package repository_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"shop/internal/domain/model"
	"shop/internal/infra/db"
	"shop/internal/infra/event"
	infraRepo "shop/internal/infra/repository"
	repo "shop/internal/repository"
	"shop/internal/usecase"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TEST_DATABASE_URL が無ければスキップ
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	gormDB, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Discard,
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gormDB))
	return gormDB
}

func seedProduct(t *testing.T, gormDB *gorm.DB, price string, stock int64) model.Product {
	t.Helper()
	ctx := context.Background()

	cat, err := infraRepo.NewCategoryGormRepository(gormDB).GetOrCreateByName(ctx, "test-"+uuid.NewString()[:8])
	require.NoError(t, err)

	p, err := infraRepo.NewProductGormRepository(gormDB).Create(ctx, model.Product{
		Name:       "item-" + uuid.NewString()[:8],
		Price:      decimal.RequireFromString(price),
		Stock:      stock,
		CategoryID: cat.ID,
	})
	require.NoError(t, err)
	return p
}

func seedUser(t *testing.T, gormDB *gorm.DB) int64 {
	t.Helper()
	suffix := uuid.NewString()[:8]
	u := &model.User{
		Username:     "u-" + suffix,
		Email:        suffix + "@test.com",
		PasswordHash: "x",
		Role:         model.RoleUser,
		IsActive:     true,
	}
	require.NoError(t, infraRepo.NewUserGormRepository(gormDB).Create(context.Background(), u))
	return u.ID
}

func newOrderUC(gormDB *gorm.DB) *usecase.OrderUsecase {
	return usecase.NewOrderUsecase(infraRepo.NewTxManagerGorm(gormDB), event.NopPublisher{}, usecase.SystemClock{}, nil)
}

func currentStock(t *testing.T, gormDB *gorm.DB, productID int64) int64 {
	t.Helper()
	p, err := infraRepo.NewProductGormRepository(gormDB).FindByID(context.Background(), productID)
	require.NoError(t, err)
	return p.Stock
}

func TestOrderFlow_CreateUpdateCancel(t *testing.T) {
	gormDB := openTestDB(t)
	ctx := context.Background()

	p := seedProduct(t, gormDB, "20.00", 10)
	userID := seedUser(t, gormDB)
	uc := newOrderUC(gormDB)

	out, err := uc.CreateOrder(ctx, userID, []usecase.OrderLineInput{{ProductID: p.ID, Quantity: 3}})
	require.NoError(t, err)
	assert.True(t, out.TotalPrice.Equal(decimal.RequireFromString("60.00")))
	assert.Equal(t, int64(7), currentStock(t, gormDB, p.ID))

	items := []usecase.OrderLineInput{{ProductID: p.ID, Quantity: 5}}
	out, err = uc.UpdateOrder(ctx, userID, out.ID, usecase.UpdateOrderInput{Items: &items})
	require.NoError(t, err)
	assert.True(t, out.TotalPrice.Equal(decimal.RequireFromString("100.00")))
	assert.Equal(t, int64(5), currentStock(t, gormDB, p.ID))

	cancelled := model.OrderStatusCancelled
	_, err = uc.UpdateOrder(ctx, userID, out.ID, usecase.UpdateOrderInput{Status: &cancelled})
	require.NoError(t, err)
	assert.Equal(t, int64(10), currentStock(t, gormDB, p.ID))

	logs, err := infraRepo.NewAuditLogGormRepository(gormDB).List(ctx, repoFilterForOrder(out.ID))
	require.NoError(t, err)
	assert.NotEmpty(t, logs)
}

// 行ロックで売り越さない
func TestOrderFlow_ConcurrentOrdersNeverOversell(t *testing.T) {
	gormDB := openTestDB(t)
	ctx := context.Background()

	p := seedProduct(t, gormDB, "1.00", 5)
	userID := seedUser(t, gormDB)
	uc := newOrderUC(gormDB)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			if _, err := uc.CreateOrder(c, userID, []usecase.OrderLineInput{{ProductID: p.ID, Quantity: 1}}); err == nil {
				mu.Lock()
				success++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, success)
	assert.Equal(t, int64(0), currentStock(t, gormDB, p.ID))
}

func TestCategoryDelete_InUseIsConflict(t *testing.T) {
	gormDB := openTestDB(t)

	p := seedProduct(t, gormDB, "1.00", 1)
	err := infraRepo.NewCategoryGormRepository(gormDB).Delete(context.Background(), p.CategoryID)
	assert.ErrorIs(t, err, repo.ErrConflict)
}

// 注文中の商品は消せない。注文はキャンセルでき在庫も戻る
func TestProductDelete_ReferencedByOrderIsConflict(t *testing.T) {
	gormDB := openTestDB(t)
	ctx := context.Background()

	p := seedProduct(t, gormDB, "3.00", 6)
	userID := seedUser(t, gormDB)
	uc := newOrderUC(gormDB)

	out, err := uc.CreateOrder(ctx, userID, []usecase.OrderLineInput{{ProductID: p.ID, Quantity: 2}})
	require.NoError(t, err)

	err = infraRepo.NewProductGormRepository(gormDB).Delete(ctx, p.ID)
	assert.ErrorIs(t, err, repo.ErrConflict)

	cancelled := model.OrderStatusCancelled
	_, err = uc.UpdateOrder(ctx, userID, out.ID, usecase.UpdateOrderInput{Status: &cancelled})
	require.NoError(t, err)
	assert.Equal(t, int64(6), currentStock(t, gormDB, p.ID))
}

func repoFilterForOrder(orderID int64) repo.AuditLogFilter {
	action := model.AuditActionUpdateOrderStatus
	return repo.AuditLogFilter{Action: &action, ResourceID: &orderID}
}
