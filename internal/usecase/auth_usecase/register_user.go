package auth

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"shop/internal/domain/model"
	"shop/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

// 最小のパスワード長
const MinPasswordLength = 8

// 会員登録の入力
type RegisterUserInput struct {
	Username  string
	Email     string
	Password  string
	Phone     string
	Address   string
	UserAgent string
}

// 会員登録の出力（登録後そのままログイン状態になる）
type RegisterUserOutput struct {
	User  model.User     `json:"user"`
	Token JwtAccessToken `json:"token"`
}

var (
	// 入力が不正
	ErrInvalidEmailFormat = errors.New("invalid email format")
	ErrInvalidUsername    = errors.New("invalid username")
	ErrPasswordTooShort   = errors.New("password too short")
	ErrWeakPassword       = errors.New("weak password")

	// 競合
	ErrEmailAlreadyExists    = errors.New("email already exists")
	ErrUsernameAlreadyExists = errors.New("username already exists")
)

// 平文パスワードからハッシュへ。
type PasswordHasher interface {
	Hash(plain string) (string, error)
}

// RegisterUserUsecaseは会員登録の処理。
type RegisterUserUsecase struct {
	userRepo repository.UserRepository
	hasher   PasswordHasher
	sessions *SessionIssuer
	clock    Clock
}

// DI
func NewRegisterUserUsecase(
	userRepo repository.UserRepository,
	hasher PasswordHasher,
	sessions *SessionIssuer,
	clock Clock,
) *RegisterUserUsecase {
	return &RegisterUserUsecase{
		userRepo: userRepo,
		hasher:   hasher,
		sessions: sessions,
		clock:    clock,
	}
}

// 会員登録実行
func (u *RegisterUserUsecase) Execute(ctx context.Context, in RegisterUserInput) (RegisterUserOutput, Session, error) {
	var out RegisterUserOutput

	email := strings.TrimSpace(in.Email)
	username := strings.TrimSpace(in.Username)

	if !isValidEmailFormat(email) {
		return out, Session{}, ErrInvalidEmailFormat
	}
	if username == "" || len(username) > 150 {
		return out, Session{}, ErrInvalidUsername
	}
	if err := ValidatePassword(in.Password); err != nil {
		return out, Session{}, err
	}

	// email重複チェック
	if err := u.ensureFree(ctx, u.userRepo.FindByEmail, email, ErrEmailAlreadyExists); err != nil {
		return out, Session{}, err
	}
	if err := u.ensureFree(ctx, u.userRepo.FindByUsername, username, ErrUsernameAlreadyExists); err != nil {
		return out, Session{}, err
	}

	// パスワードをハッシュ化
	hashed, err := u.hasher.Hash(in.Password)
	if err != nil {
		return out, Session{}, err
	}

	now := u.clock.Now()
	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hashed, // ハッシュを保存（平文は保存しない）
		Role:         model.RoleUser,
		TokenVersion: 0,
		IsActive:     true,
		Profile: model.UserProfile{
			Phone:   strings.TrimSpace(in.Phone),
			Address: strings.TrimSpace(in.Address),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	// DBへ保存（同時登録は一意制約で弾く）
	if err := u.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return out, Session{}, ErrEmailAlreadyExists
		}
		return out, Session{}, err
	}

	sess, err := u.sessions.Issue(ctx, user, in.UserAgent, now)
	if err != nil {
		return out, Session{}, err
	}

	out.User = *user
	out.Token = sess.Access
	return out, sess, nil
}

func (u *RegisterUserUsecase) ensureFree(
	ctx context.Context,
	find func(context.Context, string) (*model.User, error),
	value string,
	conflict error,
) error {
	existing, err := find(ctx, value)
	if err == nil && existing != nil {
		return conflict
	}
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	return nil
}

// パスワードの長さと弱いパスワードを確認する
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if isWeakPassword(password) {
		return ErrWeakPassword
	}
	return nil
}

// メールチェック
func isValidEmailFormat(email string) bool {
	if email == "" {
		return false
	}
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

// よくある弱いパスワード
func isWeakPassword(password string) bool {
	normalized := strings.ToLower(strings.TrimSpace(password))

	weak := map[string]struct{}{
		"password":     {},
		"password123":  {},
		"123456789012": {},
		"1234567890":   {},
		"12345678":     {},
		"qwertyuiop":   {},
		"letmein123":   {},
		"admin123":     {},
	}

	_, ok := weak[normalized]
	return ok
}

// bcryptハッシュ化
type BcryptPasswordHasher struct {
	cost int
}

// DI
func NewBcryptPasswordHasher(cost int) *BcryptPasswordHasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptPasswordHasher{cost}
}

func (h *BcryptPasswordHasher) Hash(plain string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", err
	}

	return string(hashedBytes), nil
}

// bcryptハッシュと平文を比較
type BcryptPasswordVerifier struct{}

// DI
func NewBcryptPasswordVerifier() *BcryptPasswordVerifier {
	return &BcryptPasswordVerifier{}
}

func (v *BcryptPasswordVerifier) Verify(plain string, hashed string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
	return err == nil
}
