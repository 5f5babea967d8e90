package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exam-portal-backend/internal/response"
)

// Requests rejected during query binding never reach the service.
func TestAnalyticsHandler_ReportQueryValidation(t *testing.T) {
	h := NewAnalyticsHandler(nil, zerolog.Nop())
	r := gin.New()
	r.GET("/admin/analytics/teachers", h.TeacherReport)
	r.GET("/admin/analytics/students", h.StudentReport)
	r.GET("/analytics/teacher/self", h.TeacherSelf)

	tests := []struct {
		name string
		url  string
	}{
		{"teacher id missing", "/admin/analytics/teachers"},
		{"teacher id not positive", "/admin/analytics/teachers?teacherId=0"},
		{"teacher id not a number", "/admin/analytics/teachers?teacherId=abc"},
		{"student id missing", "/admin/analytics/students?startDate=2026-01-01"},
		{"malformed start date", "/admin/analytics/students?studentId=3&startDate=01-02-2026"},
		{"end before start", "/admin/analytics/teachers?teacherId=2&startDate=2026-03-10&endDate=2026-03-01"},
		{"self range reversed", "/analytics/teacher/self?startDate=2026-05-02&endDate=2026-05-01"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tc.url, nil))
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400 (%s)", w.Code, w.Body.String())
			}
			if code := errorCode(t, w); code != response.ErrValidation {
				t.Errorf("code = %s, want %s", code, response.ErrValidation)
			}
		})
	}
}
