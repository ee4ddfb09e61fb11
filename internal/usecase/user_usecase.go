package usecase

import (
	"context"
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"shop/internal/domain/model"
	repo "shop/internal/repository"
	auth "shop/internal/usecase/auth_usecase"
)

// /users の処理。自分以外の更新・削除は403。
type UserUsecase struct {
	userRepo repo.UserRepository
	rtRepo   repo.RefreshTokenRepository
	hasher   auth.PasswordHasher
}

func NewUserUsecase(userRepo repo.UserRepository, rtRepo repo.RefreshTokenRepository, hasher auth.PasswordHasher) *UserUsecase {
	return &UserUsecase{userRepo: userRepo, rtRepo: rtRepo, hasher: hasher}
}

// nilの項目は変更しない
type UpdateUserInput struct {
	Username *string
	Email    *string
	Password *string
	Phone    *string
	Address  *string
}

func (u *UserUsecase) List(ctx context.Context) ([]model.User, error) {
	users, err := u.userRepo.List(ctx)
	if err != nil {
		return []model.User{}, errDB()
	}
	return users, nil
}

func (u *UserUsecase) Get(ctx context.Context, callerID int64, userID int64) (model.User, error) {
	user, err := u.findSelf(ctx, callerID, userID)
	if err != nil {
		return model.User{}, err
	}
	return *user, nil
}

// パスワードを変えたら token_version を上げて既存トークンを無効にする
func (u *UserUsecase) Update(ctx context.Context, callerID int64, userID int64, in UpdateUserInput) (model.User, error) {
	user, err := u.findSelf(ctx, callerID, userID)
	if err != nil {
		return model.User{}, err
	}

	if in.Username != nil {
		name := strings.TrimSpace(*in.Username)
		if name == "" || len(name) > 150 {
			return model.User{}, NewHTTPError(http.StatusBadRequest, "invalid username")
		}
		user.Username = name
	}
	if in.Email != nil {
		email := strings.TrimSpace(*in.Email)
		if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
			return model.User{}, NewHTTPError(http.StatusBadRequest, "invalid email")
		}
		user.Email = email
	}
	if in.Phone != nil {
		user.Profile.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Address != nil {
		user.Profile.Address = strings.TrimSpace(*in.Address)
	}

	passwordChanged := false
	if in.Password != nil {
		if err := auth.ValidatePassword(*in.Password); err != nil {
			return model.User{}, NewHTTPError(http.StatusBadRequest, err.Error())
		}
		hashed, err := u.hasher.Hash(*in.Password)
		if err != nil {
			return model.User{}, NewHTTPError(http.StatusInternalServerError, "internal error")
		}
		user.PasswordHash = hashed
		passwordChanged = true
	}

	if err := u.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repo.ErrConflict) {
			return model.User{}, NewHTTPError(http.StatusConflict, "username or email already exists")
		}
		return model.User{}, errDB()
	}

	if passwordChanged {
		if err := u.userRepo.IncrementTokenVersion(ctx, user.ID); err != nil {
			return model.User{}, errDB()
		}
		if err := u.rtRepo.DeleteAllByUserID(ctx, user.ID); err != nil {
			return model.User{}, errDB()
		}
		user.TokenVersion++
	}
	return *user, nil
}

func (u *UserUsecase) Delete(ctx context.Context, callerID int64, userID int64) error {
	if _, err := u.findSelf(ctx, callerID, userID); err != nil {
		return err
	}
	if err := u.userRepo.Delete(ctx, userID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		return errDB()
	}
	return nil
}

func (u *UserUsecase) findSelf(ctx context.Context, callerID int64, userID int64) (*model.User, error) {
	if callerID <= 0 {
		return nil, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if userID <= 0 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if callerID != userID {
		return nil, NewHTTPError(http.StatusForbidden, "forbidden")
	}

	user, err := u.userRepo.FindByID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return nil, errDB()
	}
	return user, nil
}
