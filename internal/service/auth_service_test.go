package service

import (
	"context"
	"testing"
	"time"

	"propertyflow-backend/internal/model"
	"propertyflow-backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthService(env *testEnv) AuthService {
	return NewAuthService(repository.NewUserRepository(env.db))
}

func TestRegisterForcesOwnerRole(t *testing.T) {
	env := newTestEnv(t)
	svc := newAuthService(env)

	user, err := svc.Register(context.Background(), RegisterRequest{
		Username: "newowner",
		Email:    "newowner@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)
	assert.Equal(t, model.RoleOwner, user.Role)

	var stored model.User
	require.NoError(t, env.db.First(&stored, "username = ?", "newowner").Error)
	assert.NotEqual(t, "secret123", stored.Password)
}

func TestRegisterDuplicates(t *testing.T) {
	env := newTestEnv(t)
	svc := newAuthService(env)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Username: "dup", Email: "dup@example.com", Password: "secret123"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterRequest{Username: "dup", Email: "dup2@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, ErrDuplicate)

	_, err = svc.Register(ctx, RegisterRequest{Username: "dup2", Email: "dup@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, ErrDuplicate)

	_, err = svc.Register(ctx, RegisterRequest{Username: "dup3", Email: "not-an-email", Password: "secret123"})
	assert.Error(t, err)
}

func TestLoginAndRefreshRotation(t *testing.T) {
	env := newTestEnv(t)
	svc := newAuthService(env)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Username: "login", Email: "login@example.com", Password: "secret123"})
	require.NoError(t, err)

	user, pair, err := svc.Login(ctx, LoginRequest{Email: "login@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, "login", user.Username)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	_, _, err = svc.Login(ctx, LoginRequest{Email: "login@example.com", Password: "wrong"})
	assert.Error(t, err)

	rotated, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	// The old refresh token is single-use.
	_, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRefreshExpiredToken(t *testing.T) {
	env := newTestEnv(t)
	svc := newAuthService(env)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Username: "stale", Email: "stale@example.com", Password: "secret123"})
	require.NoError(t, err)
	_, pair, err := svc.Login(ctx, LoginRequest{Email: "stale@example.com", Password: "secret123"})
	require.NoError(t, err)

	require.NoError(t, env.db.Model(&model.RefreshToken{}).
		Where("token = ?", pair.RefreshToken).
		Update("expires_at", time.Now().Add(-time.Hour)).Error)

	_, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenExpired)

	// The expired token was purged as part of the failed refresh.
	var count int64
	require.NoError(t, env.db.Model(&model.RefreshToken{}).Where("token = ?", pair.RefreshToken).Count(&count).Error)
	assert.Zero(t, count)
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	env := newTestEnv(t)
	svc := newAuthService(env)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Username: "bye", Email: "bye@example.com", Password: "secret123"})
	require.NoError(t, err)
	_, pair, err := svc.Login(ctx, LoginRequest{Email: "bye@example.com", Password: "secret123"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, pair.RefreshToken))

	_, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrNotFound)
}
