package usecase

import (
	"context"
	"testing"
	"time"

	"cineweb/internal/data/entity"
	"cineweb/internal/data/repository"
	"cineweb/internal/dto/request"
	"cineweb/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeUsers struct {
	byName map[string]*entity.User
}

func (f *fakeUsers) Create(_ context.Context, user *entity.User) error {
	f.byName[user.Username] = user
	return nil
}

func (f *fakeUsers) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	for _, u := range f.byName {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUsers) FindByUsername(_ context.Context, username string) (*entity.User, error) {
	return f.byName[username], nil
}

func newAuth(t *testing.T) (AuthService, *fakeUsers) {
	t.Helper()
	users := &fakeUsers{byName: map[string]*entity.User{}}
	cfg := utils.JWTConfig{Secret: "secret", ExpiryHours: 2}
	return NewAuthService(&repository.Repository{User: users}, cfg, zap.NewNop()), users
}

func TestAuth_RegisterThenLogin(t *testing.T) {
	svc, users := newAuth(t)

	reg, err := svc.Register(context.Background(), &request.RegisterRequest{Username: "ana", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, entity.RoleCustomer, reg.Role)
	assert.NotEqual(t, "secret123", users.byName["ana"].PasswordHash)

	login, err := svc.Login(context.Background(), &request.LoginRequest{Username: "ana", Password: "secret123"})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(2*time.Hour), login.ExpiresAt, time.Minute)

	userID, role, err := utils.ParseToken("secret", login.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.UserID, userID.String())
	assert.Equal(t, "customer", role)
}

func TestAuth_RegisterDuplicate(t *testing.T) {
	svc, _ := newAuth(t)

	_, err := svc.Register(context.Background(), &request.RegisterRequest{Username: "ana", Password: "secret123"})
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), &request.RegisterRequest{Username: "ana", Password: "other456"})
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestAuth_LoginFailures(t *testing.T) {
	svc, users := newAuth(t)

	_, err := svc.Register(context.Background(), &request.RegisterRequest{Username: "ana", Password: "secret123"})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), &request.LoginRequest{Username: "ana", Password: "wrong-pass"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), &request.LoginRequest{Username: "bob", Password: "secret123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	users.byName["ana"].IsActive = false
	_, err = svc.Login(context.Background(), &request.LoginRequest{Username: "ana", Password: "secret123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), &request.LoginRequest{Username: "", Password: ""})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAuth_Me(t *testing.T) {
	svc, users := newAuth(t)

	reg, err := svc.Register(context.Background(), &request.RegisterRequest{Username: "ana", Password: "secret123"})
	require.NoError(t, err)
	userID := uuid.MustParse(reg.UserID)

	me, err := svc.Me(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, "ana", me.Username)
	assert.Equal(t, entity.RoleCustomer, me.Role)

	users.byName["ana"].IsActive = false
	_, err = svc.Me(context.Background(), userID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Me(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}
