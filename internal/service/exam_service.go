package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exam-portal-backend/internal/model"
	"github.com/stemsi/exam-portal-backend/internal/repository"
)

// Actor is the authenticated caller of a service operation.
type Actor struct {
	ID   int
	Role model.Role
}

// IsAdmin reports whether the actor bypasses ownership checks.
func (a Actor) IsAdmin() bool {
	return a.Role == model.RoleAdmin
}

// ExamService handles exam authoring and listing.
type ExamService struct {
	examRepo     *repository.ExamRepository
	questionRepo *repository.QuestionRepository
	attempts     AttemptStore
	now          func() time.Time
	log          zerolog.Logger
}

// NewExamService creates a new ExamService.
func NewExamService(
	examRepo *repository.ExamRepository,
	questionRepo *repository.QuestionRepository,
	attempts AttemptStore,
	log zerolog.Logger,
) *ExamService {
	return &ExamService{
		examRepo:     examRepo,
		questionRepo: questionRepo,
		attempts:     attempts,
		now:          time.Now,
		log:          log.With().Str("component", "exam_service").Logger(),
	}
}

// Create inserts a new exam owned by the actor. Exams are published unless the request says draft.
func (s *ExamService) Create(ctx context.Context, actor Actor, req *model.CreateExamRequest) (*model.ExamListItem, error) {
	if !req.EndTime.After(req.StartTime) {
		return nil, ErrInvalidWindow
	}

	status := req.Status
	if status == "" {
		status = model.ExamStatusPublished
	}

	exam := &model.Exam{
		Title:           req.Title,
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
		SubjectID:       req.SubjectID,
		CreatedBy:       actor.ID,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		Status:          status,
	}
	if err := s.examRepo.Create(ctx, exam); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSubjectNotFound
		}
		return nil, fmt.Errorf("create exam: %w", err)
	}

	s.log.Info().Str("exam_id", exam.ID.String()).Int("created_by", actor.ID).Msg("Exam created")
	return s.Get(ctx, actor, exam.ID)
}

// Get returns one exam with its availability. Students only see published exams.
func (s *ExamService) Get(ctx context.Context, actor Actor, id uuid.UUID) (*model.ExamListItem, error) {
	exam, err := s.getExam(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role == model.RoleStudent && exam.Status != model.ExamStatusPublished {
		return nil, ErrExamNotFound
	}

	item := &model.ExamListItem{Exam: *exam, Availability: exam.AvailabilityAt(s.now())}
	if actor.Role == model.RoleStudent {
		a, err := s.attempts.GetByExamAndStudent(ctx, id, actor.ID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("get attempt: %w", err)
		}
		if a != nil {
			overlayAttempt(item, a.Status)
		}
	}
	return item, nil
}

// List returns the exams visible to the actor: published exams for students,
// own exams for teachers and every exam for admins.
func (s *ExamService) List(ctx context.Context, actor Actor) ([]model.ExamListItem, error) {
	var f repository.ExamFilter
	switch actor.Role {
	case model.RoleStudent:
		f.PublishedOnly = true
	case model.RoleTeacher:
		f.CreatedBy = actor.ID
	}

	exams, err := s.examRepo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}

	var statuses map[uuid.UUID]model.AttemptStatus
	if actor.Role == model.RoleStudent {
		statuses, err = s.attempts.StatusesForStudent(ctx, actor.ID)
		if err != nil {
			return nil, fmt.Errorf("list attempts: %w", err)
		}
	}

	now := s.now()
	items := make([]model.ExamListItem, len(exams))
	for i := range exams {
		items[i] = model.ExamListItem{Exam: exams[i], Availability: exams[i].AvailabilityAt(now)}
		if status, ok := statuses[exams[i].ID]; ok {
			overlayAttempt(&items[i], status)
		}
	}
	return items, nil
}

// Update edits an exam. Once any attempt exists the duration and window are frozen.
func (s *ExamService) Update(ctx context.Context, actor Actor, id uuid.UUID, req *model.UpdateExamRequest) (*model.ExamListItem, error) {
	exam, err := s.ownedExam(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if req.ChangesSchedule(exam) {
		locked, err := s.examRepo.HasAttempts(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("check attempts: %w", err)
		}
		if locked {
			return nil, ErrExamLocked
		}
	}

	req.Apply(exam)
	if !exam.EndTime.After(exam.StartTime) {
		return nil, ErrInvalidWindow
	}

	if err := s.examRepo.Update(ctx, exam); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// The exam was found above, so the subject is missing.
			return nil, ErrSubjectNotFound
		}
		return nil, fmt.Errorf("update exam: %w", err)
	}

	s.log.Info().Str("exam_id", id.String()).Int("actor_id", actor.ID).Msg("Exam updated")
	return s.Get(ctx, actor, id)
}

// Delete removes an exam that nobody has attempted.
func (s *ExamService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	if _, err := s.ownedExam(ctx, actor, id); err != nil {
		return err
	}

	if err := s.examRepo.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrInUse):
			return ErrExamInUse
		case errors.Is(err, repository.ErrNotFound):
			return ErrExamNotFound
		}
		return fmt.Errorf("delete exam: %w", err)
	}

	s.log.Info().Str("exam_id", id.String()).Int("actor_id", actor.ID).Msg("Exam deleted")
	return nil
}

// LinkQuestions adds questions to an exam and returns how many were new.
// The question set is frozen once any attempt exists.
func (s *ExamService) LinkQuestions(ctx context.Context, actor Actor, id uuid.UUID, req *model.LinkQuestionsRequest) (int, error) {
	if _, err := s.ownedExam(ctx, actor, id); err != nil {
		return 0, err
	}

	locked, err := s.examRepo.HasAttempts(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("check attempts: %w", err)
	}
	if locked {
		return 0, ErrExamLocked
	}

	ids := make([]uuid.UUID, 0, len(req.QuestionIDs))
	seen := make(map[uuid.UUID]bool, len(req.QuestionIDs))
	for _, raw := range req.QuestionIDs {
		qid, err := uuid.Parse(raw)
		if err != nil {
			return 0, ErrQuestionNotFound
		}
		if !seen[qid] {
			seen[qid] = true
			ids = append(ids, qid)
		}
	}

	added, err := s.examRepo.LinkQuestions(ctx, id, ids)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, ErrQuestionNotFound
		}
		return 0, fmt.Errorf("link questions: %w", err)
	}

	s.log.Info().Str("exam_id", id.String()).Int("added", added).Msg("Questions linked")
	return added, nil
}

// Questions lists the questions linked to an exam, including correct options.
func (s *ExamService) Questions(ctx context.Context, actor Actor, id uuid.UUID) ([]model.Question, error) {
	if _, err := s.ownedExam(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.questionRepo.ListByExam(ctx, id)
}

// Owned returns the exam if the actor may manage it.
func (s *ExamService) Owned(ctx context.Context, actor Actor, id uuid.UUID) (*model.Exam, error) {
	return s.ownedExam(ctx, actor, id)
}

func (s *ExamService) ownedExam(ctx context.Context, actor Actor, id uuid.UUID) (*model.Exam, error) {
	exam, err := s.getExam(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && exam.CreatedBy != actor.ID {
		return nil, ErrNotExamOwner
	}
	return exam, nil
}

func (s *ExamService) getExam(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	exam, err := s.examRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("get exam: %w", err)
	}
	return exam, nil
}

// overlayAttempt marks an exam the student has finished as completed for them.
func overlayAttempt(item *model.ExamListItem, status model.AttemptStatus) {
	item.Attempt = &status
	if status.Final() {
		item.Availability = model.AvailabilityCompleted
	}
}
