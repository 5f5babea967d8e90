package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stemsi/exam-portal-backend/internal/config"
	"github.com/stemsi/exam-portal-backend/internal/model"
	"github.com/stemsi/exam-portal-backend/internal/service"
	"github.com/stemsi/exam-portal-backend/internal/service/servicetest"
	"golang.org/x/crypto/bcrypt"
)

func newAuth(singleSession bool) (*service.AuthService, *servicetest.Store) {
	store := servicetest.NewStore()
	cfg := &config.Config{
		JWTSecret:     "test-secret",
		JWTExpiry:     time.Hour,
		SingleSession: singleSession,
		BcryptCost:    bcrypt.MinCost,
	}
	return service.NewAuthService(cfg, store.Sessions()), store
}

func TestAuthService_Password(t *testing.T) {
	auth, _ := newAuth(false)

	hash, err := auth.HashPassword("secret123")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if err := auth.CheckPassword(hash, "secret123"); err != nil {
		t.Errorf("CheckPassword(correct) error = %v", err)
	}
	if err := auth.CheckPassword(hash, "wrong"); !errors.Is(err, service.ErrInvalidCredentials) {
		t.Errorf("CheckPassword(wrong) error = %v, want ErrInvalidCredentials", err)
	}
}

func TestAuthService_TokenRoundTrip(t *testing.T) {
	auth, _ := newAuth(true)
	u := &model.User{ID: 5, Role: model.RoleTeacher}

	token, err := auth.IssueToken(context.Background(), u)
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	claims, err := auth.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.UserID != 5 || claims.Role != model.RoleTeacher {
		t.Errorf("claims = %+v, want user 5 teacher", claims)
	}
	if err := auth.ValidateSession(context.Background(), claims); err != nil {
		t.Errorf("ValidateSession() error = %v", err)
	}
}

func TestAuthService_ValidateToken(t *testing.T) {
	auth, _ := newAuth(false)
	other := service.NewAuthService(&config.Config{JWTSecret: "other-secret", JWTExpiry: time.Hour}, nil)
	u := &model.User{ID: 9, Role: model.RoleStudent}

	expired, _ := newAuth(false)
	expired.SetClock(func() time.Time { return time.Now().Add(-2 * time.Hour) })

	foreign, err := other.IssueToken(context.Background(), u)
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	stale, err := expired.IssueToken(context.Background(), u)
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not.a.token"},
		{"empty", ""},
		{"wrong secret", foreign},
		{"expired", stale},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := auth.ValidateToken(tt.token); !errors.Is(err, service.ErrTokenInvalid) {
				t.Errorf("ValidateToken() error = %v, want ErrTokenInvalid", err)
			}
		})
	}
}

func TestAuthService_SingleSession(t *testing.T) {
	auth, _ := newAuth(true)
	ctx := context.Background()
	u := &model.User{ID: 3, Role: model.RoleStudent}

	first, err := auth.IssueToken(ctx, u)
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	if _, err := auth.IssueToken(ctx, u); err != nil {
		t.Fatalf("second IssueToken() error = %v", err)
	}

	claims, err := auth.ValidateToken(first)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if err := auth.ValidateSession(ctx, claims); !errors.Is(err, service.ErrSessionInvalidated) {
		t.Errorf("ValidateSession(older token) error = %v, want ErrSessionInvalidated", err)
	}
}

func TestAuthService_Logout(t *testing.T) {
	auth, _ := newAuth(true)
	ctx := context.Background()
	u := &model.User{ID: 4, Role: model.RoleAdmin}

	token, err := auth.IssueToken(ctx, u)
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	claims, err := auth.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if err := auth.Logout(ctx, u.ID); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if err := auth.ValidateSession(ctx, claims); !errors.Is(err, service.ErrSessionInvalidated) {
		t.Errorf("ValidateSession() after logout error = %v, want ErrSessionInvalidated", err)
	}
}
