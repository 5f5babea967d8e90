package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stemsi/exam-portal-backend/internal/config"
	"github.com/stemsi/exam-portal-backend/internal/model"
	"github.com/stemsi/exam-portal-backend/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// Claims extends JWT standard claims with the caller's identity.
type Claims struct {
	jwt.RegisteredClaims
	UserID int        `json:"id"`
	Role   model.Role `json:"role"`
}

// AuthService handles password hashing, JWT issuing and session management.
type AuthService struct {
	cfg      *config.Config
	sessions SessionStore
	now      func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config, sessions SessionStore) *AuthService {
	return &AuthService{cfg: cfg, sessions: sessions, now: time.Now}
}

// SetClock replaces the time source used for issuing and validating tokens.
func (s *AuthService) SetClock(now func() time.Time) {
	s.now = now
}

// HashPassword hashes a password with the configured bcrypt cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	return string(hash), err
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func (s *AuthService) CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// IssueToken signs a token for the user. With single-session enabled the new
// JTI replaces any earlier login, which invalidates older tokens.
func (s *AuthService) IssueToken(ctx context.Context, u *model.User) (string, error) {
	jti := uuid.New().String()
	now := s.now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       jti,
			Subject:  strconv.Itoa(u.ID),
			IssuedAt: jwt.NewNumericDate(now),
		},
		UserID: u.ID,
		Role:   u.Role,
	}
	if s.cfg.JWTExpiry > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.cfg.JWTExpiry))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	if s.cfg.SingleSession {
		if err := s.sessions.Store(ctx, u.ID, jti, s.cfg.JWTExpiry); err != nil {
			return "", fmt.Errorf("store session: %w", err)
		}
	}

	return signed, nil
}

// ValidateToken parses and validates a JWT, returning the claims.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID <= 0 || !claims.Role.Valid() {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}

// ValidateSession checks that the token's JTI is the user's latest login.
// It is a no-op when single-session is disabled.
func (s *AuthService) ValidateSession(ctx context.Context, claims *Claims) error {
	if !s.cfg.SingleSession {
		return nil
	}

	stored, err := s.sessions.Get(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrSessionInvalidated
		}
		return fmt.Errorf("check session: %w", err)
	}
	if stored != claims.ID {
		return ErrSessionInvalidated
	}
	return nil
}

// Logout removes the user's session so the current token stops working.
func (s *AuthService) Logout(ctx context.Context, userID int) error {
	return s.sessions.Delete(ctx, userID)
}
