package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stemsi/exam-portal-backend/internal/model"
	"github.com/stemsi/exam-portal-backend/internal/repository"
)

// MonitorService orchestrates live exam monitoring business logic.
type MonitorService struct {
	monitorRepo *repository.MonitorRepository
	exams       *ExamService
}

// NewMonitorService creates a new MonitorService.
func NewMonitorService(monitorRepo *repository.MonitorRepository, exams *ExamService) *MonitorService {
	return &MonitorService{monitorRepo: monitorRepo, exams: exams}
}

// MonitorStats counts attempts by state.
type MonitorStats struct {
	TotalJoined     int   `json:"totalJoined"`
	TotalInProgress int   `json:"totalInProgress"`
	TotalFinalized  int   `json:"totalFinalized"`
	TotalViolations int64 `json:"totalViolations"`
}

// MonitorSnapshot is the full state sent when a monitor attaches and on every refresh.
type MonitorSnapshot struct {
	ExamID         uuid.UUID              `json:"examId"`
	Title          string                 `json:"title"`
	Duration       int                    `json:"durationMinutes"`
	TotalQuestions int                    `json:"totalQuestions"`
	Stats          MonitorStats           `json:"stats"`
	Students       []model.MonitorStudent `json:"students"`
}

// Authorize returns the exam if the actor may monitor it.
func (s *MonitorService) Authorize(ctx context.Context, actor Actor, examID uuid.UUID) (*model.Exam, error) {
	return s.exams.Owned(ctx, actor, examID)
}

// Snapshot builds the current monitor state of an exam.
func (s *MonitorService) Snapshot(ctx context.Context, exam *model.Exam) (*MonitorSnapshot, error) {
	students, err := s.monitorRepo.ListAttempts(ctx, exam.ID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}

	snap := &MonitorSnapshot{
		ExamID:         exam.ID,
		Title:          exam.Title,
		Duration:       exam.DurationMinutes,
		TotalQuestions: exam.QuestionCount,
		Students:       students,
	}
	snap.Stats.TotalJoined = len(students)
	for _, st := range students {
		if st.Status.Final() {
			snap.Stats.TotalFinalized++
		} else {
			snap.Stats.TotalInProgress++
		}
		snap.Stats.TotalViolations += st.Violations
	}
	return snap, nil
}

// Subscribe attaches to the exam's live event channel. The caller must close the subscription.
func (s *MonitorService) Subscribe(ctx context.Context, examID uuid.UUID) *redis.PubSub {
	return s.monitorRepo.Subscribe(ctx, examID)
}
