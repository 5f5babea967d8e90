package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stemsi/exam-portal-backend/internal/response"
	"github.com/stemsi/exam-portal-backend/internal/service"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   response.ErrCode
	}{
		{"already attempted", service.ErrAlreadyAttempted, http.StatusForbidden, response.ErrAlreadyAttempted},
		{"wrapped expiry", fmt.Errorf("take: %w", service.ErrAttemptExpired), http.StatusForbidden, response.ErrAttemptExpired},
		{"finalize failure", fmt.Errorf("%w: timeout", service.ErrFinalizeFailed), http.StatusInternalServerError, response.ErrRetrySubmission},
		{"locked exam", service.ErrExamLocked, http.StatusConflict, response.ErrExamLocked},
		{"email taken", service.ErrEmailTaken, http.StatusConflict, response.ErrEmailTaken},
		{"file too large", service.ErrFileTooLarge, http.StatusRequestEntityTooLarge, response.ErrFileTooLarge},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, response.ErrInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code := classify(tt.err)
			if status != tt.wantStatus || code != tt.wantCode {
				t.Errorf("classify() = %d %s, want %d %s", status, code, tt.wantStatus, tt.wantCode)
			}
		})
	}
}

func TestErrorMappingsHaveMessages(t *testing.T) {
	for _, m := range errorMappings {
		if response.GetMessage(m.code) == "Unexpected error" {
			t.Errorf("no message for code %s", m.code)
		}
	}
}
