// Package auth implements registration, login and refresh token rotation.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/absensi-app/attendance-backend-go/internal/domain/auth"
	"github.com/absensi-app/attendance-backend-go/internal/domain/user"
	"github.com/absensi-app/attendance-backend-go/internal/pkg/jwt"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Transactor runs a function inside a storage transaction so multi-statement
// writes commit or roll back as one.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type authService struct {
	users user.UserRepository
	tx    Transactor
	jwt   jwt.Service
}

func NewAuthService(users user.UserRepository, tx Transactor, jwtService jwt.Service) auth.AuthService {
	return &authService{
		users: users,
		tx:    tx,
		jwt:   jwtService,
	}
}

// Register implements auth.AuthService. The email check and the insert run in
// one transaction; the unique index on email backstops the race regardless.
func (s *authService) Register(ctx context.Context, req auth.RegisterRequest) (auth.TokenResponse, error) {
	if err := req.Validate(); err != nil {
		return auth.TokenResponse{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return auth.TokenResponse{}, fmt.Errorf("failed to hash password: %w", err)
	}

	var created user.User
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
			return user.ErrEmailExists
		} else if !errors.Is(err, user.ErrUserNotFound) {
			return fmt.Errorf("failed to check existing email: %w", err)
		}

		created, err = s.users.Create(ctx, user.User{
			ID:           uuid.NewString(),
			Name:         req.Name,
			Email:        req.Email,
			PasswordHash: string(hash),
			Role:         user.RoleUser,
		})
		return err
	})
	if err != nil {
		return auth.TokenResponse{}, err
	}

	return s.issueTokens(created)
}

// Login implements auth.AuthService.
func (s *authService) Login(ctx context.Context, req auth.LoginRequest) (auth.TokenResponse, error) {
	if err := req.Validate(); err != nil {
		return auth.TokenResponse{}, err
	}

	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return auth.TokenResponse{}, auth.ErrInvalidCredentials
		}
		return auth.TokenResponse{}, fmt.Errorf("failed to get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return auth.TokenResponse{}, auth.ErrInvalidCredentials
	}

	return s.issueTokens(u)
}

// Refresh implements auth.AuthService. A revoked refresh token stays
// unusable even though it would still verify.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (auth.TokenResponse, error) {
	if s.jwt.IsTokenRevoked(refreshToken) {
		return auth.TokenResponse{}, auth.ErrRefreshTokenRevoked
	}

	userID, err := s.jwt.ParseRefreshToken(refreshToken)
	if err != nil {
		return auth.TokenResponse{}, err
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return auth.TokenResponse{}, auth.ErrInvalidToken
		}
		return auth.TokenResponse{}, fmt.Errorf("failed to get user: %w", err)
	}

	// Rotation: the presented token is burned before new ones are issued.
	s.jwt.RevokeToken(refreshToken)

	return s.issueTokens(u)
}

// Logout implements auth.AuthService.
func (s *authService) Logout(_ context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	s.jwt.RevokeToken(refreshToken)
	return nil
}

func (s *authService) issueTokens(u user.User) (auth.TokenResponse, error) {
	accessToken, accessExp, err := s.jwt.GenerateAccessToken(u.ID, u.Email, u.Role)
	if err != nil {
		return auth.TokenResponse{}, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, refreshExp, err := s.jwt.GenerateRefreshToken(u.ID)
	if err != nil {
		return auth.TokenResponse{}, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return auth.TokenResponse{
		AccessToken:           accessToken,
		AccessTokenExpiresIn:  accessExp,
		RefreshToken:          refreshToken,
		RefreshTokenExpiresIn: refreshExp,
		UserID:                u.ID,
		Name:                  u.Name,
		Role:                  string(u.Role),
	}, nil
}
