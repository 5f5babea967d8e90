package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/stemsi/exam-portal-backend/internal/model"
	"github.com/stemsi/exam-portal-backend/internal/repository"
	"github.com/stemsi/exam-portal-backend/internal/scoring"
)

// QuestionService handles question authoring.
type QuestionService struct {
	questionRepo *repository.QuestionRepository
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(questionRepo *repository.QuestionRepository) *QuestionService {
	return &QuestionService{questionRepo: questionRepo}
}

// Create stores a question authored by the actor. Questions cannot be edited afterwards.
func (s *QuestionService) Create(ctx context.Context, actor Actor, req *model.CreateQuestionRequest) (*model.Question, error) {
	q := &model.Question{
		SubjectID:     req.SubjectID,
		Text:          req.Text,
		OptionA:       req.OptionA,
		OptionB:       req.OptionB,
		OptionC:       req.OptionC,
		OptionD:       req.OptionD,
		CorrectOption: scoring.Normalize(req.CorrectOption),
		CreatedBy:     actor.ID,
	}
	if err := s.questionRepo.Create(ctx, q); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSubjectNotFound
		}
		return nil, fmt.Errorf("create question: %w", err)
	}
	return q, nil
}

// Get retrieves a single question with its correct option.
func (s *QuestionService) Get(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	q, err := s.questionRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrQuestionNotFound
		}
		return nil, err
	}
	return q, nil
}

// List returns questions, optionally limited to one subject.
func (s *QuestionService) List(ctx context.Context, f model.QuestionFilter) ([]model.Question, error) {
	return s.questionRepo.List(ctx, f.SubjectID)
}
