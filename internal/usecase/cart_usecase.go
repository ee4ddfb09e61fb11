package usecase

import (
	"context"
	"errors"
	"net/http"

	"shop/internal/domain/model"
	repo "shop/internal/repository"
)

// CartUsecase は /cart の業務ロジック。
// カートはユーザーごとの行の集まりで、注文とは独立している。
type CartUsecase struct {
	cartItemRepo repo.CartItemRepository
	productRepo  repo.ProductRepository
	clock        Clock
}

func NewCartUsecase(
	cartItemRepo repo.CartItemRepository,
	productRepo repo.ProductRepository,
	clock Clock,
) *CartUsecase {
	return &CartUsecase{
		cartItemRepo: cartItemRepo,
		productRepo:  productRepo,
		clock:        clock,
	}
}

type AddCartInput struct {
	ProductID int64
	Quantity  int64
}

func (u *CartUsecase) List(ctx context.Context, userID int64) ([]model.CartItem, error) {
	if userID <= 0 {
		return []model.CartItem{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	items, err := u.cartItemRepo.ListByUserID(ctx, userID)
	if err != nil {
		return []model.CartItem{}, errDB()
	}
	return items, nil
}

func (u *CartUsecase) Add(ctx context.Context, userID int64, in AddCartInput) (model.CartItem, error) {
	if userID <= 0 {
		return model.CartItem{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.ProductID <= 0 {
		return model.CartItem{}, NewHTTPError(http.StatusBadRequest, "invalid product")
	}
	if in.Quantity < 1 {
		return model.CartItem{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}

	//存在しない商品は入力エラー
	if _, err := u.productRepo.FindByID(ctx, in.ProductID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.CartItem{}, NewHTTPError(http.StatusBadRequest, "invalid product")
		}
		return model.CartItem{}, errDB()
	}

	item, err := u.cartItemRepo.Create(ctx, model.CartItem{
		UserID:    userID,
		ProductID: in.ProductID,
		Quantity:  in.Quantity,
		AddedAt:   u.clock.Now(),
	})
	if err != nil {
		return model.CartItem{}, errDB()
	}
	return item, nil
}

func (u *CartUsecase) Get(ctx context.Context, userID int64, cartItemID int64) (model.CartItem, error) {
	return u.findOwned(ctx, userID, cartItemID)
}

func (u *CartUsecase) UpdateQuantity(ctx context.Context, userID int64, cartItemID int64, qty int64) (model.CartItem, error) {
	if qty < 1 {
		return model.CartItem{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}

	item, err := u.findOwned(ctx, userID, cartItemID)
	if err != nil {
		return model.CartItem{}, err
	}

	if err := u.cartItemRepo.UpdateQuantity(ctx, item.ID, qty); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.CartItem{}, NewHTTPError(http.StatusNotFound, "not found")
		}
		return model.CartItem{}, errDB()
	}
	item.Quantity = qty
	return item, nil
}

func (u *CartUsecase) Delete(ctx context.Context, userID int64, cartItemID int64) error {
	item, err := u.findOwned(ctx, userID, cartItemID)
	if err != nil {
		return err
	}

	if err := u.cartItemRepo.Delete(ctx, item.ID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		return errDB()
	}
	return nil
}

// 他人のカート行は403
func (u *CartUsecase) findOwned(ctx context.Context, userID int64, cartItemID int64) (model.CartItem, error) {
	if userID <= 0 {
		return model.CartItem{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if cartItemID <= 0 {
		return model.CartItem{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	item, err := u.cartItemRepo.FindByID(ctx, cartItemID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.CartItem{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.CartItem{}, errDB()
	}
	if item.UserID != userID {
		return model.CartItem{}, NewHTTPError(http.StatusForbidden, "forbidden")
	}
	return item, nil
}
