package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"shop/internal/domain/model"
	"shop/internal/repository"
)

// handlerからusecaseに渡す入力
type LoginInput struct {
	Login     string // email または username
	Password  string
	UserAgent string
	ClientIP  string
}

// handlerがJSONにして返す
type LoginOutput struct {
	User  model.User     `json:"user"`
	Token JwtAccessToken `json:"token"`
}

// メールまたはパスワードが違う
var ErrInvalidCredentials = errors.New("invalid credentials")

// 停止済みユーザー
var ErrUserInactive = errors.New("user is inactive")

// 試行回数の上限を超えた
var ErrTooManyAttempts = errors.New("too many login attempts")

// 入力パスワードと保存したハッシュを比べる約束
type PasswordVerifier interface {
	Verify(plain string, hashed string) bool
}

// ログイン試行の回数制限（キーはクライアントIP）
type LoginLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Reset(ctx context.Context, key string) error
}

type LoginUsecase struct {
	userRepo repository.UserRepository
	verifier PasswordVerifier
	sessions *SessionIssuer
	limiter  LoginLimiter
	clock    Clock
	log      *slog.Logger
}

func NewLoginUsecase(
	userRepo repository.UserRepository,
	verifier PasswordVerifier,
	sessions *SessionIssuer,
	limiter LoginLimiter,
	clock Clock,
	logger *slog.Logger,
) *LoginUsecase {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoginUsecase{
		userRepo: userRepo,
		verifier: verifier,
		sessions: sessions,
		limiter:  limiter,
		clock:    clock,
		log:      logger,
	}
}

// ログイン処理を実行する
func (u *LoginUsecase) Execute(ctx context.Context, in LoginInput) (LoginOutput, Session, error) {
	var out LoginOutput

	//回数制限。制限側が落ちているときは通す
	if u.limiter != nil {
		ok, err := u.limiter.Allow(ctx, in.ClientIP)
		if err != nil {
			u.log.WarnContext(ctx, "login limiter unavailable", "err", err)
		} else if !ok {
			return out, Session{}, ErrTooManyAttempts
		}
	}

	login := strings.TrimSpace(in.Login)
	if login == "" || in.Password == "" {
		return out, Session{}, ErrInvalidCredentials
	}

	//emailかusernameでユーザー取得
	find := u.userRepo.FindByUsername
	if strings.Contains(login, "@") {
		find = u.userRepo.FindByEmail
	}
	user, err := find(ctx, login)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return out, Session{}, ErrInvalidCredentials
		}
		return out, Session{}, err
	}

	//停止ユーザーはログイン不可
	if !user.IsActive {
		return out, Session{}, ErrUserInactive
	}

	//パスワード照合
	if ok := u.verifier.Verify(in.Password, user.PasswordHash); !ok {
		return out, Session{}, ErrInvalidCredentials
	}

	now := u.clock.Now()
	sess, err := u.sessions.Issue(ctx, user, in.UserAgent, now)
	if err != nil {
		return out, Session{}, err
	}

	//最終ログイン時刻更新
	user.LastLoginAt = &now
	if err := u.userRepo.Update(ctx, user); err != nil {
		return out, Session{}, err
	}

	//成功したらカウンタを戻す
	if u.limiter != nil {
		if err := u.limiter.Reset(ctx, in.ClientIP); err != nil {
			u.log.WarnContext(ctx, "login limiter reset failed", "err", err)
		}
	}

	out.User = *user
	out.Token = sess.Access
	return out, sess, nil
}
