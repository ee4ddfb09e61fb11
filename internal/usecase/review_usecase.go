package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"shop/internal/domain/model"
	repo "shop/internal/repository"
)

// 商品レビュー。1ユーザー1対象につき1件。
type ReviewUsecase struct {
	reviewRepo  repo.ReviewRepository
	productRepo repo.ProductRepository
	clock       Clock
}

func NewReviewUsecase(reviewRepo repo.ReviewRepository, productRepo repo.ProductRepository, clock Clock) *ReviewUsecase {
	return &ReviewUsecase{reviewRepo: reviewRepo, productRepo: productRepo, clock: clock}
}

type ReviewInput struct {
	Rating  int
	Comment *string
}

func (in ReviewInput) validate() error {
	if in.Rating < model.MinRating || in.Rating > model.MaxRating {
		return NewHTTPError(http.StatusBadRequest, "rating must be between 1 and 5")
	}
	return nil
}

func (u *ReviewUsecase) List(ctx context.Context, target model.ReviewTarget) ([]model.Review, error) {
	if err := u.ensureTarget(ctx, target); err != nil {
		return []model.Review{}, err
	}

	reviews, err := u.reviewRepo.ListByTarget(ctx, target)
	if err != nil {
		return []model.Review{}, errDB()
	}
	return reviews, nil
}

func (u *ReviewUsecase) Create(ctx context.Context, userID int64, target model.ReviewTarget, in ReviewInput) (model.Review, error) {
	if userID <= 0 {
		return model.Review{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err := in.validate(); err != nil {
		return model.Review{}, err
	}
	if err := u.ensureTarget(ctx, target); err != nil {
		return model.Review{}, err
	}

	exists, err := u.reviewRepo.ExistsByUserAndTarget(ctx, userID, target)
	if err != nil {
		return model.Review{}, errDB()
	}
	if exists {
		return model.Review{}, NewHTTPError(http.StatusConflict, "already reviewed")
	}

	rv, err := u.reviewRepo.Create(ctx, model.Review{
		UserID:     userID,
		TargetKind: target.Kind,
		TargetID:   target.ID,
		Rating:     in.Rating,
		Comment:    trimComment(in.Comment),
		CreatedAt:  u.clock.Now(),
	})
	//同時投稿はDBの一意制約で弾く
	if errors.Is(err, repo.ErrConflict) {
		return model.Review{}, NewHTTPError(http.StatusConflict, "already reviewed")
	}
	if err != nil {
		return model.Review{}, errDB()
	}
	return rv, nil
}

func (u *ReviewUsecase) Get(ctx context.Context, target model.ReviewTarget, reviewID int64) (model.Review, error) {
	return u.find(ctx, target, reviewID)
}

func (u *ReviewUsecase) Update(ctx context.Context, userID int64, target model.ReviewTarget, reviewID int64, in ReviewInput) (model.Review, error) {
	if err := in.validate(); err != nil {
		return model.Review{}, err
	}
	rv, err := u.findOwned(ctx, userID, target, reviewID)
	if err != nil {
		return model.Review{}, err
	}

	rv.Rating = in.Rating
	rv.Comment = trimComment(in.Comment)
	if err := u.reviewRepo.Update(ctx, rv); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.Review{}, NewHTTPError(http.StatusNotFound, "not found")
		}
		return model.Review{}, errDB()
	}
	return rv, nil
}

func (u *ReviewUsecase) Delete(ctx context.Context, userID int64, target model.ReviewTarget, reviewID int64) error {
	rv, err := u.findOwned(ctx, userID, target, reviewID)
	if err != nil {
		return err
	}
	if err := u.reviewRepo.Delete(ctx, rv.ID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		return errDB()
	}
	return nil
}

// 対象の種類ごとに存在確認する
func (u *ReviewUsecase) ensureTarget(ctx context.Context, target model.ReviewTarget) error {
	if err := target.Validate(); err != nil {
		return NewHTTPError(http.StatusBadRequest, "invalid review target")
	}

	switch target.Kind {
	case model.ReviewTargetProduct:
		_, err := u.productRepo.FindByID(ctx, target.ID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return errDB()
		}
	}
	return nil
}

// 別の対象に付いたレビューは見えない扱い
func (u *ReviewUsecase) find(ctx context.Context, target model.ReviewTarget, reviewID int64) (model.Review, error) {
	if reviewID <= 0 {
		return model.Review{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := target.Validate(); err != nil {
		return model.Review{}, NewHTTPError(http.StatusBadRequest, "invalid review target")
	}

	rv, err := u.reviewRepo.FindByID(ctx, reviewID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Review{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Review{}, errDB()
	}
	if rv.Target() != target {
		return model.Review{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	return rv, nil
}

func (u *ReviewUsecase) findOwned(ctx context.Context, userID int64, target model.ReviewTarget, reviewID int64) (model.Review, error) {
	if userID <= 0 {
		return model.Review{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	rv, err := u.find(ctx, target, reviewID)
	if err != nil {
		return model.Review{}, err
	}
	if rv.UserID != userID {
		return model.Review{}, NewHTTPError(http.StatusForbidden, "forbidden")
	}
	return rv, nil
}

func trimComment(c *string) *string {
	if c == nil {
		return nil
	}
	t := strings.TrimSpace(*c)
	if t == "" {
		return nil
	}
	return &t
}
