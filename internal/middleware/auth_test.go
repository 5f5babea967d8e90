package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/exam-portal-backend/internal/config"
	"github.com/stemsi/exam-portal-backend/internal/model"
	"github.com/stemsi/exam-portal-backend/internal/response"
	"github.com/stemsi/exam-portal-backend/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestAuth() *service.AuthService {
	return service.NewAuthService(&config.Config{
		JWTSecret: "middleware-secret",
		JWTExpiry: time.Hour,
	}, nil)
}

func token(t *testing.T, auth *service.AuthService, id int, role model.Role) string {
	t.Helper()
	tok, err := auth.IssueToken(context.Background(), &model.User{ID: id, Role: role})
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	return tok
}

func TestRequireAuthAndRole(t *testing.T) {
	auth := newTestAuth()
	student := token(t, auth, 1, model.RoleStudent)
	teacher := token(t, auth, 2, model.RoleTeacher)

	r := gin.New()
	r.GET("/staff", RequireAuth(auth), RequireRole(model.RoleTeacher, model.RoleAdmin), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": GetActor(c).ID})
	})

	tests := []struct {
		name       string
		header     string
		query      string
		wantStatus int
		wantCode   response.ErrCode
	}{
		{"no token", "", "", http.StatusUnauthorized, response.ErrTokenRequired},
		{"malformed header", "Token abc", "", http.StatusUnauthorized, response.ErrTokenRequired},
		{"invalid token", "Bearer abc.def.ghi", "", http.StatusUnauthorized, response.ErrTokenInvalid},
		{"wrong role", "Bearer " + student, "", http.StatusForbidden, response.ErrForbidden},
		{"allowed role", "Bearer " + teacher, "", http.StatusOK, ""},
		{"query token", "", "?token=" + teacher, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/staff"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantCode == "" {
				return
			}
			var body response.ErrorBody
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", body.Code, tt.wantCode)
			}
		})
	}
}

func TestGetActorWithoutClaims(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if a := GetActor(c); a.ID != 0 || a.Role != "" {
		t.Errorf("GetActor() = %+v, want zero value", a)
	}
}
