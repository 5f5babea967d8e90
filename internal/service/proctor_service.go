package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exam-portal-backend/internal/config"
	"github.com/stemsi/exam-portal-backend/internal/model"
)

// ProctorService records proctoring violations and decides whether the
// attempt must be auto-submitted. It never finalizes attempts itself.
type ProctorService struct {
	violations ViolationStore
	threshold  int
	log        zerolog.Logger
}

// NewProctorService creates a new ProctorService. A non-positive threshold
// falls back to config.DefaultViolationThreshold.
func NewProctorService(violations ViolationStore, threshold int, log zerolog.Logger) *ProctorService {
	if threshold <= 0 {
		threshold = config.DefaultViolationThreshold
	}
	return &ProctorService{
		violations: violations,
		threshold:  threshold,
		log:        log.With().Str("component", "proctor_service").Logger(),
	}
}

// Threshold returns the violation count that triggers auto-submission.
func (s *ProctorService) Threshold() int {
	return s.threshold
}

// RecordViolation appends a violation and returns the decision for the new total.
// Violations are never rejected for being too many.
func (s *ProctorService) RecordViolation(ctx context.Context, examID uuid.UUID, studentID int, violationType string, details *string) (*model.ProctorDecision, error) {
	v := &model.Violation{
		StudentID: studentID,
		ExamID:    examID,
		Type:      violationType,
		Details:   details,
	}
	if err := s.violations.Insert(ctx, v); err != nil {
		return nil, fmt.Errorf("insert violation: %w", err)
	}

	count, err := s.violations.Count(ctx, examID, studentID)
	if err != nil {
		return nil, fmt.Errorf("count violations: %w", err)
	}

	decision := Decide(count, s.threshold)
	s.log.Info().
		Str("exam_id", examID.String()).
		Int("student_id", studentID).
		Str("type", violationType).
		Int("count", count).
		Str("action", string(decision.Action)).
		Msg("Violation recorded")

	return decision, nil
}

// Decide maps a violation count to the client action.
func Decide(count, threshold int) *model.ProctorDecision {
	action := model.ProctorActionWarn
	if count >= threshold {
		action = model.ProctorActionAutoSubmit
	}
	return &model.ProctorDecision{Action: action, Violations: count}
}
