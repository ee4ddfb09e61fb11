package repository

import (
	"context"

	"shop/internal/domain/model"
)

type ReviewRepository interface {
	ListByTarget(ctx context.Context, target model.ReviewTarget) ([]model.Review, error)
	FindByID(ctx context.Context, reviewID int64) (model.Review, error)
	ExistsByUserAndTarget(ctx context.Context, userID int64, target model.ReviewTarget) (bool, error)
	// 同じユーザー×対象は ErrConflict
	Create(ctx context.Context, r model.Review) (model.Review, error)
	Update(ctx context.Context, r model.Review) error
	Delete(ctx context.Context, reviewID int64) error
}
