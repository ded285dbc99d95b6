package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hospitalward/ward-api/internal/config"
	"github.com/hospitalward/ward-api/internal/model"
	"github.com/hospitalward/ward-api/internal/repository"
	apperrors "github.com/hospitalward/ward-api/pkg/errors"
)

type Service struct {
	users repository.UserRepository
	cfg   config.JWTConfig
}

func NewService(users repository.UserRepository, cfg config.JWTConfig) *Service {
	return &Service{
		users: users,
		cfg:   cfg,
	}
}

// Login checks credentials and issues an access token. Inactive
// accounts cannot log in.
func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error) {
	user, err := s.users.GetByUsername(ctx, req.Username)
	if err != nil {
		return nil, apperrors.Unauthorized(fmt.Errorf("invalid credentials"))
	}
	if !user.IsActive {
		return nil, apperrors.Unauthorized(fmt.Errorf("account is inactive"))
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperrors.Unauthorized(fmt.Errorf("invalid credentials"))
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to record login: %w", err)
	}

	expiresAt := now.Add(time.Duration(s.cfg.ExpiryHours) * time.Hour)
	claims := jwt.RegisteredClaims{
		Subject:   user.ID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &model.TokenResponse{
		AccessToken: token,
		ExpiresAt:   expiresAt,
	}, nil
}

// ValidateToken parses and verifies an access token, returning the
// authenticated user ID.
func (s *Service) ValidateToken(tokenString string) (uuid.UUID, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.Secret), nil
	})
	if err != nil {
		return uuid.Nil, apperrors.Unauthorized(err)
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid {
		return uuid.Nil, apperrors.Unauthorized(fmt.Errorf("invalid token"))
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, apperrors.Unauthorized(fmt.Errorf("invalid subject: %w", err))
	}
	return userID, nil
}
