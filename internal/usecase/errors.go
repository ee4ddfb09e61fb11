package usecase

import (
	"errors"
	"fmt"
	"net/http"

	"shop/internal/domain/model"
)

var (
	//400 入力不正
	ErrValidation = errors.New("validation error")
	//400 在庫不足
	ErrInsufficientStock = errors.New("insufficient stock")
	//400 遷移表にない
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	//403 本人以外
	ErrForbidden = errors.New("forbidden")
	//404
	ErrNotFound = errors.New("not found")
	//409 出荷済み・終端
	ErrOrderLocked = errors.New("order is locked")
	//409 24時間経過
	ErrEditWindowExpired = errors.New("order edit window expired")
)

// 在庫不足の詳細。既存明細の更新では、注文が持っている分も含めた数量。
type InsufficientStockError struct {
	ProductName string
	Requested   int64 // 明細として求めた数量
	Available   int64 // この注文が確保できる上限
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d", e.ProductName, e.Requested, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// 遷移エラーの詳細
type InvalidStatusTransitionError struct {
	From model.OrderStatus
	To   model.OrderStatus
}

func (e *InvalidStatusTransitionError) Error() string {
	return fmt.Sprintf("cannot change status from %s to %s", e.From, e.To)
}

func (e *InvalidStatusTransitionError) Is(target error) bool {
	return target == ErrInvalidStatusTransition
}

// 入力エラーにメッセージを付ける
func validationError(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

// ステータスとメッセージをそのまま返すエラー（CRUD系で使う）
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

func errDB() error {
	return NewHTTPError(http.StatusInternalServerError, "db error")
}
