package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stemsi/exam-portal-backend/internal/model"
	"github.com/stemsi/exam-portal-backend/internal/service"
)

// Create and Update hand back the same view as Get so the handler can
// return it unchanged.
var (
	_ func(*service.ExamService, context.Context, service.Actor, *model.CreateExamRequest) (*model.ExamListItem, error) = (*service.ExamService).Create
	_ func(*service.ExamService, context.Context, service.Actor, uuid.UUID, *model.UpdateExamRequest) (*model.ExamListItem, error) = (*service.ExamService).Update
	_ func(*service.ExamService, context.Context, service.Actor, uuid.UUID) (*model.ExamListItem, error) = (*service.ExamService).Get
)

func TestActorIsAdmin(t *testing.T) {
	tests := []struct {
		role model.Role
		want bool
	}{
		{model.RoleAdmin, true},
		{model.RoleTeacher, false},
		{model.RoleStudent, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			if got := (service.Actor{ID: 1, Role: tt.role}).IsAdmin(); got != tt.want {
				t.Errorf("IsAdmin() = %v, want %v", got, tt.want)
			}
		})
	}
}
