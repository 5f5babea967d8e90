package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/exam-portal-backend/internal/model"
)

// The interfaces below are the storage needs of the exam lifecycle services.
// The repository package implements them against PostgreSQL and Redis.

// ExamStore reads exams.
type ExamStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error)
}

// QuestionStore reads the questions linked to an exam.
type QuestionStore interface {
	ListByExam(ctx context.Context, examID uuid.UUID) ([]model.Question, error)
	IsLinked(ctx context.Context, examID, questionID uuid.UUID) (bool, error)
}

// AttemptStore persists attempts and their answers.
type AttemptStore interface {
	GetByExamAndStudent(ctx context.Context, examID uuid.UUID, studentID int) (*model.Attempt, error)
	Create(ctx context.Context, a *model.Attempt) error
	Finalize(ctx context.Context, a *model.Attempt, fin model.Finalization, answers []model.Answer) error
	StoredAnswers(ctx context.Context, examID uuid.UUID, studentID int) (map[uuid.UUID]string, error)
	ListByStudent(ctx context.Context, studentID int) ([]model.ResultSummary, error)
	StatusesForStudent(ctx context.Context, studentID int) (map[uuid.UUID]model.AttemptStatus, error)
}

// DraftStore holds autosaved answers of live attempts.
type DraftStore interface {
	Save(ctx context.Context, examID uuid.UUID, studentID int, questionID uuid.UUID, option string) error
	All(ctx context.Context, examID uuid.UUID, studentID int) (map[uuid.UUID]string, error)
	Clear(ctx context.Context, examID uuid.UUID, studentID int) error
}

// ViolationStore is the append-only proctoring log.
type ViolationStore interface {
	Insert(ctx context.Context, v *model.Violation) error
	Count(ctx context.Context, examID uuid.UUID, studentID int) (int, error)
}

// EventPublisher fans monitor events out to live exam monitors.
type EventPublisher interface {
	Publish(ctx context.Context, event model.MonitorEvent) error
}

// SessionStore remembers the latest login per user.
type SessionStore interface {
	Store(ctx context.Context, userID int, jti string, ttl time.Duration) error
	Get(ctx context.Context, userID int) (string, error)
	Delete(ctx context.Context, userID int) error
}
