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
	"github.com/stemsi/exam-portal-backend/internal/scoring"
)

// AttemptService runs the exam attempt lifecycle: start, take, submit and
// auto-submission. Expiry is evaluated lazily whenever an attempt is touched.
type AttemptService struct {
	exams     ExamStore
	questions QuestionStore
	attempts  AttemptStore
	drafts    DraftStore
	proctor   *ProctorService
	events    EventPublisher
	grace     time.Duration
	now       func() time.Time
	log       zerolog.Logger
}

// NewAttemptService creates a new AttemptService. grace is added to the exam
// duration before a started attempt counts as expired.
func NewAttemptService(
	exams ExamStore,
	questions QuestionStore,
	attempts AttemptStore,
	drafts DraftStore,
	proctor *ProctorService,
	events EventPublisher,
	grace time.Duration,
	log zerolog.Logger,
) *AttemptService {
	return &AttemptService{
		exams:     exams,
		questions: questions,
		attempts:  attempts,
		drafts:    drafts,
		proctor:   proctor,
		events:    events,
		grace:     grace,
		now:       time.Now,
		log:       log.With().Str("component", "attempt_service").Logger(),
	}
}

// SetClock replaces the time source.
func (s *AttemptService) SetClock(now func() time.Time) {
	s.now = now
}

// Start opens the student's single attempt at an exam.
func (s *AttemptService) Start(ctx context.Context, examID uuid.UUID, studentID int) (*model.StartAttemptResponse, error) {
	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("get exam: %w", err)
	}
	if exam.Status != model.ExamStatusPublished {
		return nil, ErrExamNotFound
	}

	now := s.now()
	switch exam.AvailabilityAt(now) {
	case model.AvailabilityUpcoming:
		return nil, ErrExamNotOpen
	case model.AvailabilityCompleted:
		return nil, ErrExamClosed
	}

	if _, err := s.attempts.GetByExamAndStudent(ctx, examID, studentID); err == nil {
		return nil, ErrAlreadyAttempted
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("get attempt: %w", err)
	}

	a := &model.Attempt{ExamID: examID, StudentID: studentID, StartedAt: now}
	if err := s.attempts.Create(ctx, a); err != nil {
		// A concurrent start lost the race on the unique constraint.
		if errors.Is(err, repository.ErrDuplicateAttempt) {
			return nil, ErrAlreadyAttempted
		}
		return nil, fmt.Errorf("create attempt: %w", err)
	}

	s.publish(ctx, model.MonitorEvent{
		Type:      model.MonitorEventAttemptStarted,
		ExamID:    examID,
		StudentID: studentID,
		AttemptID: &a.ID,
		Status:    a.Status,
		At:        a.StartedAt,
	})

	return &model.StartAttemptResponse{
		AttemptID:       a.ID,
		StartedAt:       a.StartedAt,
		DurationMinutes: exam.DurationMinutes,
	}, nil
}

// Take returns the exam content for a live attempt. Correct options are never included.
func (s *AttemptService) Take(ctx context.Context, examID uuid.UUID, studentID int) (*model.TakeExamView, error) {
	exam, a, err := s.loadLive(ctx, examID, studentID)
	if err != nil {
		return nil, err
	}

	questions, err := s.questions.ListByExam(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	view := make([]model.QuestionForStudent, len(questions))
	for i := range questions {
		view[i] = questions[i].ForStudent()
	}

	saved, err := s.partialAnswers(ctx, examID, studentID)
	if err != nil {
		return nil, err
	}

	remaining := a.RemainingAt(s.now(), exam.Duration())
	return &model.TakeExamView{
		Exam:             *exam,
		Questions:        view,
		AttemptID:        a.ID,
		StartedAt:        a.StartedAt,
		RemainingSeconds: int(remaining / time.Second),
		SavedAnswers:     saved,
	}, nil
}

// Submit grades and finalizes a live attempt. answers maps question IDs to
// option letters; missing or empty entries count as unanswered and entries
// for questions outside the exam are ignored.
func (s *AttemptService) Submit(ctx context.Context, examID uuid.UUID, studentID int, answers map[string]string) (*model.SubmitAttemptResponse, error) {
	_, a, err := s.loadLive(ctx, examID, studentID)
	if err != nil {
		return nil, err
	}
	return s.submit(ctx, a, parseAnswers(nil, answers))
}

// SubmitSaved finalizes a live attempt from its autosaved answers, with
// answers (which may be nil) taking precedence over what was saved.
func (s *AttemptService) SubmitSaved(ctx context.Context, examID uuid.UUID, studentID int, answers map[string]string) (*model.SubmitAttemptResponse, error) {
	_, a, err := s.loadLive(ctx, examID, studentID)
	if err != nil {
		return nil, err
	}

	saved, err := s.partialAnswers(ctx, examID, studentID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFinalizeFailed, err)
	}
	return s.submit(ctx, a, parseAnswers(saved, answers))
}

// Verify returns the student's attempt if it is live. It applies the same
// expiry rule as every other attempt operation.
func (s *AttemptService) Verify(ctx context.Context, examID uuid.UUID, studentID int) (*model.Attempt, error) {
	_, a, err := s.loadLive(ctx, examID, studentID)
	return a, err
}

func (s *AttemptService) submit(ctx context.Context, a *model.Attempt, given map[uuid.UUID]string) (*model.SubmitAttemptResponse, error) {
	questions, err := s.questions.ListByExam(ctx, a.ExamID)
	if err != nil {
		return nil, fmt.Errorf("%w: list questions: %v", ErrFinalizeFailed, err)
	}

	res, err := s.finalize(ctx, a, questions, given, model.AttemptStatusSubmitted)
	if err != nil {
		if errors.Is(err, repository.ErrAttemptFinal) {
			return nil, ErrAlreadySubmitted
		}
		s.log.Error().Err(err).
			Str("exam_id", a.ExamID.String()).
			Int("student_id", a.StudentID).
			Msg("Failed to finalize attempt")
		return nil, fmt.Errorf("%w: %v", ErrFinalizeFailed, err)
	}

	s.log.Info().
		Str("attempt_id", a.ID.String()).
		Int("score", res.Score).
		Int("total", res.Total).
		Msg("Attempt submitted")

	return &model.SubmitAttemptResponse{
		Score:      res.Score,
		Total:      res.Total,
		Percentage: res.Percentage,
		Passed:     res.Passed,
	}, nil
}

// parseAnswers overlays raw answers keyed by question ID string onto base.
// Unparseable keys are skipped and an empty letter clears the entry.
func parseAnswers(base map[uuid.UUID]string, raw map[string]string) map[uuid.UUID]string {
	given := make(map[uuid.UUID]string, len(base)+len(raw))
	for qid, letter := range base {
		given[qid] = letter
	}
	for key, letter := range raw {
		qid, err := uuid.Parse(key)
		if err != nil {
			continue
		}
		if letter = scoring.Normalize(letter); letter != "" {
			given[qid] = letter
		} else {
			delete(given, qid)
		}
	}
	return given
}

// ReportViolation records a proctoring violation on a live attempt and
// auto-submits it once the threshold is reached.
func (s *AttemptService) ReportViolation(ctx context.Context, examID uuid.UUID, studentID int, violationType string, details *string) (*model.ProctorDecision, error) {
	exam, a, err := s.loadLive(ctx, examID, studentID)
	if err != nil {
		return nil, err
	}

	decision, err := s.proctor.RecordViolation(ctx, examID, studentID, violationType, details)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, model.MonitorEvent{
		Type:          model.MonitorEventViolation,
		ExamID:        examID,
		StudentID:     studentID,
		AttemptID:     &a.ID,
		ViolationType: violationType,
		Violations:    decision.Violations,
		At:            s.now(),
	})

	if decision.Action == model.ProctorActionAutoSubmit {
		if err := s.autoSubmit(ctx, exam, a, "violations"); err != nil {
			return nil, err
		}
	}

	return decision, nil
}

// SaveDraft autosaves one answer of a live attempt. The draft is persisted
// asynchronously by the autosave worker.
func (s *AttemptService) SaveDraft(ctx context.Context, examID uuid.UUID, studentID int, questionID uuid.UUID, option string) error {
	letter := scoring.Normalize(option)
	if !scoring.ValidOption(letter) {
		return ErrInvalidOption
	}

	if _, _, err := s.loadLive(ctx, examID, studentID); err != nil {
		return err
	}

	linked, err := s.questions.IsLinked(ctx, examID, questionID)
	if err != nil {
		return fmt.Errorf("check question: %w", err)
	}
	if !linked {
		return ErrUnknownQuestion
	}

	if err := s.drafts.Save(ctx, examID, studentID, questionID, letter); err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

// MyResults lists the student's attempts. Started attempts that have run out
// of time are auto-submitted first so the listing shows their final score.
func (s *AttemptService) MyResults(ctx context.Context, studentID int) ([]model.ResultSummary, error) {
	results, err := s.attempts.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}

	now := s.now()
	changed := false
	for _, r := range results {
		if r.Status != model.AttemptStatusStarted {
			continue
		}
		exam, err := s.exams.GetByID(ctx, r.ExamID)
		if err != nil {
			s.log.Warn().Err(err).Str("exam_id", r.ExamID.String()).Msg("Skipping expiry check")
			continue
		}

		a := &model.Attempt{
			ID:        r.AttemptID,
			ExamID:    r.ExamID,
			StudentID: studentID,
			StartedAt: r.StartedAt,
			Status:    r.Status,
		}
		if !a.ExpiredAt(now, exam.Duration(), s.grace) {
			continue
		}
		if err := s.autoSubmit(ctx, exam, a, "expired"); err != nil {
			s.log.Warn().Err(err).Str("attempt_id", a.ID.String()).Msg("Failed to auto-submit expired attempt")
			continue
		}
		changed = true
	}

	if !changed {
		return results, nil
	}
	return s.attempts.ListByStudent(ctx, studentID)
}

// loadLive returns the exam and the student's attempt if the attempt can
// still accept answers. An expired attempt is auto-submitted on the spot.
func (s *AttemptService) loadLive(ctx context.Context, examID uuid.UUID, studentID int) (*model.Exam, *model.Attempt, error) {
	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrExamNotFound
		}
		return nil, nil, fmt.Errorf("get exam: %w", err)
	}

	a, err := s.attempts.GetByExamAndStudent(ctx, examID, studentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrNotStarted
		}
		return nil, nil, fmt.Errorf("get attempt: %w", err)
	}
	if !a.Live() {
		return nil, nil, ErrAlreadySubmitted
	}

	if a.ExpiredAt(s.now(), exam.Duration(), s.grace) {
		if err := s.autoSubmit(ctx, exam, a, "expired"); err != nil {
			return nil, nil, err
		}
		return nil, nil, ErrAttemptExpired
	}

	return exam, a, nil
}

// autoSubmit finalizes an attempt with whatever answers were saved so far.
// Losing the race to another finalization is not an error.
func (s *AttemptService) autoSubmit(ctx context.Context, exam *model.Exam, a *model.Attempt, reason string) error {
	questions, err := s.questions.ListByExam(ctx, exam.ID)
	if err != nil {
		return fmt.Errorf("%w: list questions: %v", ErrFinalizeFailed, err)
	}

	given, err := s.partialAnswers(ctx, a.ExamID, a.StudentID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFinalizeFailed, err)
	}

	res, err := s.finalize(ctx, a, questions, given, model.AttemptStatusAutoSubmitted)
	if err != nil {
		if errors.Is(err, repository.ErrAttemptFinal) {
			return nil
		}
		s.log.Error().Err(err).Str("attempt_id", a.ID.String()).Str("reason", reason).Msg("Auto-submit failed")
		return fmt.Errorf("%w: %v", ErrFinalizeFailed, err)
	}

	s.log.Info().
		Str("attempt_id", a.ID.String()).
		Str("reason", reason).
		Int("score", res.Score).
		Float64("percentage", res.Percentage).
		Msg("Attempt auto-submitted")
	return nil
}

// finalize scores the answers and stores the outcome together with one
// answer row per linked question. The attempt must still be started in
// storage, otherwise repository.ErrAttemptFinal is returned.
func (s *AttemptService) finalize(ctx context.Context, a *model.Attempt, questions []model.Question, given map[uuid.UUID]string, status model.AttemptStatus) (scoring.Result, error) {
	key := make([]scoring.Question, len(questions))
	answers := make([]model.Answer, len(questions))
	for i, q := range questions {
		key[i] = scoring.Question{ID: q.ID, CorrectOption: q.CorrectOption}
		answers[i] = model.Answer{QuestionID: q.ID}
		if letter := scoring.Normalize(given[q.ID]); scoring.ValidOption(letter) {
			answers[i].SelectedOption = &letter
		}
	}

	res := scoring.Score(key, given)
	now := s.now()
	fin := model.Finalization{
		Status:      status,
		Score:       res.Score,
		Percentage:  res.Percentage,
		Passed:      res.Passed,
		SubmittedAt: now,
	}
	if err := s.attempts.Finalize(ctx, a, fin, answers); err != nil {
		return res, err
	}

	a.Status = status
	a.Score = &res.Score
	a.Percentage = &res.Percentage
	a.Passed = &res.Passed
	a.SubmittedAt = &now

	if err := s.drafts.Clear(ctx, a.ExamID, a.StudentID); err != nil {
		s.log.Warn().Err(err).Str("attempt_id", a.ID.String()).Msg("Failed to clear drafts")
	}

	s.publish(ctx, model.MonitorEvent{
		Type:       model.MonitorEventAttemptFinalized,
		ExamID:     a.ExamID,
		StudentID:  a.StudentID,
		AttemptID:  &a.ID,
		Status:     status,
		Percentage: &res.Percentage,
		At:         now,
	})

	return res, nil
}

// partialAnswers merges persisted answers with newer autosave drafts.
func (s *AttemptService) partialAnswers(ctx context.Context, examID uuid.UUID, studentID int) (map[uuid.UUID]string, error) {
	answers, err := s.attempts.StoredAnswers(ctx, examID, studentID)
	if err != nil {
		return nil, fmt.Errorf("stored answers: %w", err)
	}
	if answers == nil {
		answers = make(map[uuid.UUID]string)
	}

	drafts, err := s.drafts.All(ctx, examID, studentID)
	if err != nil {
		s.log.Warn().Err(err).Str("exam_id", examID.String()).Int("student_id", studentID).
			Msg("Drafts unavailable, using persisted answers only")
		return answers, nil
	}
	for qid, letter := range drafts {
		answers[qid] = letter
	}
	return answers, nil
}

func (s *AttemptService) publish(ctx context.Context, event model.MonitorEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.log.Warn().Err(err).Str("type", string(event.Type)).Msg("Failed to publish monitor event")
	}
}
