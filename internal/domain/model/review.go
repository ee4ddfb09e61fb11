package model

import (
	"errors"
	"time"
)

// レビュー対象の種類
type ReviewTargetKind string

const (
	ReviewTargetProduct ReviewTargetKind = "product"
)

var ErrUnknownReviewTarget = errors.New("unknown review target")

// ReviewTarget はレビュー対象。Kind ごとに ID の意味が決まる。
type ReviewTarget struct {
	Kind ReviewTargetKind
	ID   int64
}

func ProductTarget(productID int64) ReviewTarget {
	return ReviewTarget{Kind: ReviewTargetProduct, ID: productID}
}

func (t ReviewTarget) Validate() error {
	switch t.Kind {
	case ReviewTargetProduct:
	default:
		return ErrUnknownReviewTarget
	}
	if t.ID <= 0 {
		return ErrUnknownReviewTarget
	}
	return nil
}

const (
	MinRating = 1
	MaxRating = 5
)

type Review struct {
	ID         int64            `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     int64            `gorm:"not null;uniqueIndex:idx_review_owner_target" json:"user"`
	TargetKind ReviewTargetKind `gorm:"type:varchar(30);not null;uniqueIndex:idx_review_owner_target;index:idx_review_target" json:"content_type"`
	TargetID   int64            `gorm:"not null;uniqueIndex:idx_review_owner_target;index:idx_review_target" json:"object_id"`
	Rating     int              `gorm:"not null" json:"rating"`
	Comment    *string          `gorm:"type:text" json:"comment"`
	CreatedAt  time.Time        `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (r Review) Target() ReviewTarget {
	return ReviewTarget{Kind: r.TargetKind, ID: r.TargetID}
}
