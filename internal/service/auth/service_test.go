package auth

import (
	"context"
	"sync"
	"testing"

	"github.com/absensi-app/attendance-backend-go/internal/domain/auth"
	"github.com/absensi-app/attendance-backend-go/internal/domain/user"
	"github.com/absensi-app/attendance-backend-go/internal/pkg/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]user.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]user.User)}
}

func (r *memUserRepo) Create(_ context.Context, u user.User) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return user.User{}, user.ErrEmailExists
		}
	}
	r.users[u.ID] = u
	return u, nil
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return user.User{}, user.ErrUserNotFound
	}
	return u, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return user.User{}, user.ErrUserNotFound
}

// memTx satisfies Transactor without a database; it counts invocations so
// tests can assert the write path runs transactionally.
type memTx struct {
	calls int
}

func (tx *memTx) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	tx.calls++
	return fn(ctx)
}

func newTestService(t *testing.T) (auth.AuthService, *memUserRepo) {
	t.Helper()
	repo := newMemUserRepo()
	jwtService := jwt.NewJWTService("test-secret-key", "15m", "168h")
	return NewAuthService(repo, &memTx{}, jwtService), repo
}

func registerValid(t *testing.T, svc auth.AuthService) auth.TokenResponse {
	t.Helper()
	resp, err := svc.Register(context.Background(), auth.RegisterRequest{
		Name:     "Test User",
		Email:    "test@example.com",
		Password: "password123",
	})
	require.NoError(t, err)
	return resp
}

func TestRegister(t *testing.T) {
	svc, repo := newTestService(t)

	resp := registerValid(t, svc)

	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.NotEmpty(t, resp.UserID)
	assert.Equal(t, "user", resp.Role)

	stored, err := repo.GetByID(context.Background(), resp.UserID)
	require.NoError(t, err)
	assert.NotEqual(t, "password123", stored.PasswordHash)
}

func TestRegister_RunsInTransaction(t *testing.T) {
	repo := newMemUserRepo()
	tx := &memTx{}
	svc := NewAuthService(repo, tx, jwt.NewJWTService("test-secret-key", "15m", "168h"))

	registerValid(t, svc)
	assert.Equal(t, 1, tx.calls)

	// Validation failures never reach the transaction.
	_, err := svc.Register(context.Background(), auth.RegisterRequest{
		Name:     "A",
		Email:    "not-an-email",
		Password: "password123",
	})
	require.Error(t, err)
	assert.Equal(t, 1, tx.calls)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _ := newTestService(t)

	registerValid(t, svc)

	_, err := svc.Register(context.Background(), auth.RegisterRequest{
		Name:     "Other User",
		Email:    "test@example.com",
		Password: "password456",
	})
	assert.ErrorIs(t, err, user.ErrEmailExists)
}

func TestRegister_Invalid(t *testing.T) {
	svc, _ := newTestService(t)

	tests := []struct {
		name string
		req  auth.RegisterRequest
	}{
		{"missing name", auth.RegisterRequest{Email: "a@b.com", Password: "password123"}},
		{"bad email", auth.RegisterRequest{Name: "A", Email: "not-an-email", Password: "password123"}},
		{"short password", auth.RegisterRequest{Name: "A", Email: "a@b.com", Password: "short"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.req)
			assert.Error(t, err)
		})
	}
}

func TestLogin(t *testing.T) {
	svc, _ := newTestService(t)
	registerValid(t, svc)

	resp, err := svc.Login(context.Background(), auth.LoginRequest{
		Email:    "test@example.com",
		Password: "password123",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "Test User", resp.Name)
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, _ := newTestService(t)
	registerValid(t, svc)

	_, err := svc.Login(context.Background(), auth.LoginRequest{
		Email:    "test@example.com",
		Password: "wrong-password",
	})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestLogin_UnknownEmail(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Login(context.Background(), auth.LoginRequest{
		Email:    "nobody@example.com",
		Password: "password123",
	})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestRefresh_RotatesToken(t *testing.T) {
	svc, _ := newTestService(t)
	registered := registerValid(t, svc)

	refreshed, err := svc.Refresh(context.Background(), registered.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.Equal(t, registered.UserID, refreshed.UserID)

	// The old refresh token was burned by the rotation.
	_, err = svc.Refresh(context.Background(), registered.RefreshToken)
	assert.ErrorIs(t, err, auth.ErrRefreshTokenRevoked)
}

func TestRefresh_RejectsAccessToken(t *testing.T) {
	svc, _ := newTestService(t)
	registered := registerValid(t, svc)

	_, err := svc.Refresh(context.Background(), registered.AccessToken)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestRefresh_Expired(t *testing.T) {
	repo := newMemUserRepo()
	// Refresh tokens are issued already expired, beyond the acceptable skew.
	svc := NewAuthService(repo, &memTx{}, jwt.NewJWTService("test-secret-key", "15m", "-1h"))

	registered, err := svc.Register(context.Background(), auth.RegisterRequest{
		Name:     "Test User",
		Email:    "test@example.com",
		Password: "password123",
	})
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), registered.RefreshToken)
	assert.ErrorIs(t, err, auth.ErrTokenExpired)
}

func TestRefresh_Garbage(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Refresh(context.Background(), "not-a-jwt")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestLogout(t *testing.T) {
	svc, _ := newTestService(t)
	registered := registerValid(t, svc)

	require.NoError(t, svc.Logout(context.Background(), registered.RefreshToken))

	_, err := svc.Refresh(context.Background(), registered.RefreshToken)
	assert.ErrorIs(t, err, auth.ErrRefreshTokenRevoked)

	// Logging out with an empty cookie is a no-op.
	assert.NoError(t, svc.Logout(context.Background(), ""))
}
