package repository

import "errors"

var (
	// 対象が存在しない
	ErrNotFound = errors.New("not found")
	// 一意制約・外部キー制約違反
	ErrConflict = errors.New("conflict")
)
