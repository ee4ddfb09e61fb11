package auth

import (
	"context"
	"errors"

	"shop/internal/repository"
)

var (
	// 見つからない・期限切れ・失効済み
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	// 使用済みのトークンがもう一度来た
	ErrRefreshTokenReused = errors.New("refresh token reused")
)

// リフレッシュトークンを使い捨てで回す
type RefreshUsecase struct {
	userRepo repository.UserRepository
	rtRepo   repository.RefreshTokenRepository
	sessions *SessionIssuer
	clock    Clock
}

func NewRefreshUsecase(
	userRepo repository.UserRepository,
	rtRepo repository.RefreshTokenRepository,
	sessions *SessionIssuer,
	clock Clock,
) *RefreshUsecase {
	return &RefreshUsecase{userRepo: userRepo, rtRepo: rtRepo, sessions: sessions, clock: clock}
}

func (u *RefreshUsecase) Execute(ctx context.Context, plainRefresh string, userAgent string) (Session, error) {
	if plainRefresh == "" {
		return Session{}, ErrInvalidRefreshToken
	}

	rt, err := u.rtRepo.FindByTokenHash(ctx, hashToken(plainRefresh))
	if errors.Is(err, repository.ErrNotFound) {
		return Session{}, ErrInvalidRefreshToken
	}
	if err != nil {
		return Session{}, err
	}

	now := u.clock.Now()

	//used済みが来たら replay → 全削除
	if rt.UsedAt != nil {
		_ = u.rtRepo.DeleteAllByUserID(ctx, rt.UserID)
		return Session{}, ErrRefreshTokenReused
	}
	if !rt.Usable(now) {
		return Session{}, ErrInvalidRefreshToken
	}

	user, err := u.userRepo.FindByID(ctx, rt.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return Session{}, ErrInvalidRefreshToken
	}
	if err != nil {
		return Session{}, err
	}
	if !user.IsActive {
		return Session{}, ErrUserInactive
	}

	//旧tokenをusedにしてから新しいものを発行
	if err := u.rtRepo.MarkUsed(ctx, rt.ID, now); err != nil {
		//同時に使われた
		if errors.Is(err, repository.ErrNotFound) {
			_ = u.rtRepo.DeleteAllByUserID(ctx, rt.UserID)
			return Session{}, ErrRefreshTokenReused
		}
		return Session{}, err
	}
	return u.sessions.Issue(ctx, user, userAgent, now)
}
