package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/stemsi/exam-portal-backend/internal/model"
	"github.com/stemsi/exam-portal-backend/internal/repository"
)

type SubjectService struct {
	subjectRepo *repository.SubjectRepository
	log         zerolog.Logger
}

func NewSubjectService(subjectRepo *repository.SubjectRepository, log zerolog.Logger) *SubjectService {
	return &SubjectService{
		subjectRepo: subjectRepo,
		log:         log.With().Str("component", "subject_service").Logger(),
	}
}

func (s *SubjectService) GetAll(ctx context.Context) ([]model.Subject, error) {
	return s.subjectRepo.GetAll(ctx)
}

func (s *SubjectService) Get(ctx context.Context, id int) (*model.Subject, error) {
	sub, err := s.subjectRepo.GetByID(ctx, id)
	if err != nil {
		return nil, subjectError(err)
	}
	return sub, nil
}

func (s *SubjectService) Create(ctx context.Context, req *model.CreateSubjectRequest) (*model.Subject, error) {
	sub := &model.Subject{Name: req.Name, DifficultyLevel: difficultyOrDefault(req.DifficultyLevel)}
	if err := s.subjectRepo.Create(ctx, sub); err != nil {
		return nil, subjectError(err)
	}
	s.log.Info().Int("subject_id", sub.ID).Str("name", sub.Name).Msg("Subject created")
	return sub, nil
}

func (s *SubjectService) Update(ctx context.Context, id int, req *model.UpdateSubjectRequest) (*model.Subject, error) {
	sub := &model.Subject{ID: id, Name: req.Name, DifficultyLevel: difficultyOrDefault(req.DifficultyLevel)}
	if err := s.subjectRepo.Update(ctx, sub); err != nil {
		return nil, subjectError(err)
	}
	return sub, nil
}

func (s *SubjectService) Delete(ctx context.Context, id int) error {
	if err := s.subjectRepo.Delete(ctx, id); err != nil {
		return subjectError(err)
	}
	return nil
}

func difficultyOrDefault(level string) string {
	if level == "" {
		return "medium"
	}
	return level
}

func subjectError(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrSubjectNotFound
	case errors.Is(err, repository.ErrDuplicateSubject):
		return ErrSubjectExists
	case errors.Is(err, repository.ErrInUse):
		return ErrSubjectInUse
	}
	return fmt.Errorf("subject: %w", err)
}
