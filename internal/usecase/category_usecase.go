package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"shop/internal/domain/model"
	repo "shop/internal/repository"
)

type CategoryUsecase struct {
	categoryRepo repo.CategoryRepository
}

func NewCategoryUsecase(categoryRepo repo.CategoryRepository) *CategoryUsecase {
	return &CategoryUsecase{categoryRepo: categoryRepo}
}

// 前後空白を落として小文字にそろえる
func normalizeCategoryName(name string) (string, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return "", NewHTTPError(http.StatusBadRequest, "category name required")
	}
	if len(n) > 100 {
		return "", NewHTTPError(http.StatusBadRequest, "category name too long")
	}
	return n, nil
}

func (u *CategoryUsecase) List(ctx context.Context) ([]model.Category, error) {
	cats, err := u.categoryRepo.List(ctx)
	if err != nil {
		return []model.Category{}, errDB()
	}
	return cats, nil
}

func (u *CategoryUsecase) Get(ctx context.Context, id int64) (model.Category, error) {
	if id <= 0 {
		return model.Category{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	c, err := u.categoryRepo.FindByID(ctx, id)
	return c, categoryError(err)
}

func (u *CategoryUsecase) Create(ctx context.Context, name string) (model.Category, error) {
	n, err := normalizeCategoryName(name)
	if err != nil {
		return model.Category{}, err
	}
	c, err := u.categoryRepo.Create(ctx, model.Category{Name: n})
	return c, categoryError(err)
}

func (u *CategoryUsecase) Update(ctx context.Context, id int64, name string) (model.Category, error) {
	if id <= 0 {
		return model.Category{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	n, err := normalizeCategoryName(name)
	if err != nil {
		return model.Category{}, err
	}
	if err := u.categoryRepo.Update(ctx, model.Category{ID: id, Name: n}); err != nil {
		return model.Category{}, categoryError(err)
	}
	c, err := u.categoryRepo.FindByID(ctx, id)
	return c, categoryError(err)
}

func (u *CategoryUsecase) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	err := u.categoryRepo.Delete(ctx, id)
	if errors.Is(err, repo.ErrConflict) {
		//商品が参照している
		return NewHTTPError(http.StatusConflict, "category in use")
	}
	return categoryError(err)
}

func categoryError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repo.ErrNotFound):
		return NewHTTPError(http.StatusNotFound, "not found")
	case errors.Is(err, repo.ErrConflict):
		return NewHTTPError(http.StatusConflict, "category already exists")
	default:
		return errDB()
	}
}
