package usecase

import "time"

// 現在時刻（テストで差し替える）
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
