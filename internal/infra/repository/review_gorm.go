package repository

import (
	"context"

	"shop/internal/domain/model"

	"gorm.io/gorm"
)

type ReviewGormRepository struct {
	db *gorm.DB
}

func NewReviewGormRepository(db *gorm.DB) *ReviewGormRepository {
	return &ReviewGormRepository{db: db}
}

func (r *ReviewGormRepository) ListByTarget(ctx context.Context, target model.ReviewTarget) ([]model.Review, error) {
	var rs []model.Review
	err := r.db.WithContext(ctx).
		Where("target_kind = ? AND target_id = ?", target.Kind, target.ID).
		Order("id asc").
		Find(&rs).Error
	if err != nil {
		return []model.Review{}, err
	}
	return rs, nil
}

func (r *ReviewGormRepository) FindByID(ctx context.Context, reviewID int64) (model.Review, error) {
	var rv model.Review
	if err := r.db.WithContext(ctx).First(&rv, reviewID).Error; err != nil {
		return model.Review{}, translateError(err)
	}
	return rv, nil
}

func (r *ReviewGormRepository) ExistsByUserAndTarget(ctx context.Context, userID int64, target model.ReviewTarget) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Review{}).
		Where("user_id = ? AND target_kind = ? AND target_id = ?", userID, target.Kind, target.ID).
		Count(&n).Error
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *ReviewGormRepository) Create(ctx context.Context, rv model.Review) (model.Review, error) {
	if err := r.db.WithContext(ctx).Create(&rv).Error; err != nil {
		return model.Review{}, translateError(err)
	}
	return rv, nil
}

func (r *ReviewGormRepository) Update(ctx context.Context, rv model.Review) error {
	res := r.db.WithContext(ctx).Model(&model.Review{}).Where("id = ?", rv.ID).Updates(map[string]interface{}{
		"rating":  rv.Rating,
		"comment": rv.Comment,
	})
	return checkAffected(res)
}

func (r *ReviewGormRepository) Delete(ctx context.Context, reviewID int64) error {
	return checkAffected(r.db.WithContext(ctx).Delete(&model.Review{}, reviewID))
}
