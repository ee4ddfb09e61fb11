package auth

import (
	"context"
	"testing"
	"time"

	"shop/internal/domain/model"
	"shop/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newRefreshUC(userRepo *MockUserRepository, rtRepo *MockRefreshTokenRepository) *RefreshUsecase {
	return NewRefreshUsecase(userRepo, rtRepo, newSessions(rtRepo), fixedClock{testNow})
}

func storedToken(plain string) *model.RefreshToken {
	return &model.RefreshToken{
		ID:        "rt-old",
		UserID:    1,
		TokenHash: hashToken(plain),
		ExpiresAt: testNow.Add(time.Hour),
	}
}

func TestRefresh_Rotates(t *testing.T) {
	userRepo := new(MockUserRepository)
	rtRepo := new(MockRefreshTokenRepository)

	rtRepo.On("FindByTokenHash", mock.Anything, hashToken("plain")).Return(storedToken("plain"), nil)
	userRepo.On("FindByID", mock.Anything, int64(1)).Return(activeUser("CorrectPW1"), nil)
	rtRepo.On("MarkUsed", mock.Anything, "rt-old", testNow).Return(nil)
	rtRepo.On("Create", mock.Anything, mock.MatchedBy(func(rt *model.RefreshToken) bool {
		return rt.UserID == 1 && rt.TokenHash != hashToken("plain")
	})).Return(nil)

	sess, err := newRefreshUC(userRepo, rtRepo).Execute(context.Background(), "plain", "ua")
	require.NoError(t, err)
	assert.NotEqual(t, "plain", sess.PlainRefreshToken)
	assert.NotEmpty(t, sess.Access.AccessToken)
	rtRepo.AssertExpectations(t)
}

func TestRefresh_Empty(t *testing.T) {
	_, err := newRefreshUC(new(MockUserRepository), new(MockRefreshTokenRepository)).Execute(context.Background(), "", "ua")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestRefresh_Unknown(t *testing.T) {
	rtRepo := new(MockRefreshTokenRepository)
	rtRepo.On("FindByTokenHash", mock.Anything, mock.Anything).Return(nil, repository.ErrNotFound)

	_, err := newRefreshUC(new(MockUserRepository), rtRepo).Execute(context.Background(), "nope", "ua")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestRefresh_Expired(t *testing.T) {
	rtRepo := new(MockRefreshTokenRepository)
	rt := storedToken("plain")
	rt.ExpiresAt = testNow.Add(-time.Second)
	rtRepo.On("FindByTokenHash", mock.Anything, hashToken("plain")).Return(rt, nil)

	_, err := newRefreshUC(new(MockUserRepository), rtRepo).Execute(context.Background(), "plain", "ua")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

// 使用済みtokenの再提示は全セッション破棄
func TestRefresh_ReuseRevokesAll(t *testing.T) {
	rtRepo := new(MockRefreshTokenRepository)
	rt := storedToken("plain")
	used := testNow.Add(-time.Minute)
	rt.UsedAt = &used
	rtRepo.On("FindByTokenHash", mock.Anything, hashToken("plain")).Return(rt, nil)
	rtRepo.On("DeleteAllByUserID", mock.Anything, int64(1)).Return(nil)

	_, err := newRefreshUC(new(MockUserRepository), rtRepo).Execute(context.Background(), "plain", "ua")
	assert.ErrorIs(t, err, ErrRefreshTokenReused)
	rtRepo.AssertExpectations(t)
}

func TestRefresh_ConcurrentUse(t *testing.T) {
	userRepo := new(MockUserRepository)
	rtRepo := new(MockRefreshTokenRepository)

	rtRepo.On("FindByTokenHash", mock.Anything, hashToken("plain")).Return(storedToken("plain"), nil)
	userRepo.On("FindByID", mock.Anything, int64(1)).Return(activeUser("CorrectPW1"), nil)
	rtRepo.On("MarkUsed", mock.Anything, "rt-old", testNow).Return(repository.ErrNotFound)
	rtRepo.On("DeleteAllByUserID", mock.Anything, int64(1)).Return(nil)

	_, err := newRefreshUC(userRepo, rtRepo).Execute(context.Background(), "plain", "ua")
	assert.ErrorIs(t, err, ErrRefreshTokenReused)
	rtRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRefresh_InactiveUser(t *testing.T) {
	userRepo := new(MockUserRepository)
	rtRepo := new(MockRefreshTokenRepository)

	u := activeUser("CorrectPW1")
	u.IsActive = false
	rtRepo.On("FindByTokenHash", mock.Anything, hashToken("plain")).Return(storedToken("plain"), nil)
	userRepo.On("FindByID", mock.Anything, int64(1)).Return(u, nil)

	_, err := newRefreshUC(userRepo, rtRepo).Execute(context.Background(), "plain", "ua")
	assert.ErrorIs(t, err, ErrUserInactive)
}
