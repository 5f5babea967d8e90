// Package servicetest provides an in-memory implementation of the service
// storage interfaces for tests.
package servicetest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/exam-portal-backend/internal/model"
	"github.com/stemsi/exam-portal-backend/internal/repository"
)

type attemptKey struct {
	examID    uuid.UUID
	studentID int
}

// Store keeps exams, questions, attempts, drafts, violations, monitor events
// and sessions in memory. It is safe for concurrent use and mirrors the
// repository error contract.
type Store struct {
	mu sync.Mutex

	exams      map[uuid.UUID]model.Exam
	questions  map[uuid.UUID][]model.Question
	attempts   map[attemptKey]model.Attempt
	answers    map[attemptKey]map[uuid.UUID]*string
	drafts     map[attemptKey]map[uuid.UUID]string
	violations []model.Violation
	events     []model.MonitorEvent
	sessions   map[int]string

	// FinalizeErr, when set, is returned by Finalize before anything is written.
	FinalizeErr error
	// DraftsErr, when set, is returned by every draft operation.
	DraftsErr error
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{
		exams:     make(map[uuid.UUID]model.Exam),
		questions: make(map[uuid.UUID][]model.Question),
		attempts:  make(map[attemptKey]model.Attempt),
		answers:   make(map[attemptKey]map[uuid.UUID]*string),
		drafts:    make(map[attemptKey]map[uuid.UUID]string),
		sessions:  make(map[int]string),
	}
}

// AddExam stores e, assigning an ID if it has none, and returns it.
func (s *Store) AddExam(e model.Exam) model.Exam {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Status == "" {
		e.Status = model.ExamStatusPublished
	}
	s.exams[e.ID] = e
	return e
}

// AddQuestion links a question with the given correct option to an exam and returns it.
func (s *Store) AddQuestion(examID uuid.UUID, correct string) model.Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := model.Question{
		ID:            uuid.New(),
		Text:          "Question " + correct,
		OptionA:       "Option A",
		OptionB:       "Option B",
		OptionC:       "Option C",
		OptionD:       "Option D",
		CorrectOption: correct,
	}
	s.questions[examID] = append(s.questions[examID], q)
	if e, ok := s.exams[examID]; ok {
		e.QuestionCount = len(s.questions[examID])
		s.exams[examID] = e
	}
	return q
}

// Attempt returns a copy of the stored attempt, or nil.
func (s *Store) Attempt(examID uuid.UUID, studentID int) *model.Attempt {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.attempts[attemptKey{examID, studentID}]
	if !ok {
		return nil
	}
	return &a
}

// AttemptCount returns how many attempts exist for the exam.
func (s *Store) AttemptCount(examID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k := range s.attempts {
		if k.examID == examID {
			n++
		}
	}
	return n
}

// Answers returns the stored answer rows of an attempt, nil meaning unanswered.
func (s *Store) Answers(examID uuid.UUID, studentID int) map[uuid.UUID]*string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[uuid.UUID]*string)
	for qid, v := range s.answers[attemptKey{examID, studentID}] {
		out[qid] = v
	}
	return out
}

// Events returns the published monitor events in order.
func (s *Store) Events() []model.MonitorEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.MonitorEvent(nil), s.events...)
}

// Backdate moves the start of an attempt into the past.
func (s *Store) Backdate(examID uuid.UUID, studentID int, by time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := attemptKey{examID, studentID}
	if a, ok := s.attempts[k]; ok {
		a.StartedAt = a.StartedAt.Add(-by)
		s.attempts[k] = a
	}
}

// ─── ExamStore / QuestionStore ──────────────────────────────────────

func (s *Store) GetByID(_ context.Context, id uuid.UUID) (*model.Exam, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.exams[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &e, nil
}

func (s *Store) ListByExam(_ context.Context, examID uuid.UUID) ([]model.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Question(nil), s.questions[examID]...), nil
}

func (s *Store) IsLinked(_ context.Context, examID, questionID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, q := range s.questions[examID] {
		if q.ID == questionID {
			return true, nil
		}
	}
	return false, nil
}

// ─── AttemptStore ───────────────────────────────────────────────────

func (s *Store) GetByExamAndStudent(_ context.Context, examID uuid.UUID, studentID int) (*model.Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.attempts[attemptKey{examID, studentID}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

func (s *Store) Create(_ context.Context, a *model.Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := attemptKey{a.ExamID, a.StudentID}
	if _, ok := s.attempts[k]; ok {
		return repository.ErrDuplicateAttempt
	}
	a.ID = uuid.New()
	a.Status = model.AttemptStatusStarted
	s.attempts[k] = *a
	return nil
}

func (s *Store) Finalize(_ context.Context, a *model.Attempt, fin model.Finalization, answers []model.Answer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FinalizeErr != nil {
		return s.FinalizeErr
	}

	k := attemptKey{a.ExamID, a.StudentID}
	stored, ok := s.attempts[k]
	if !ok || stored.ID != a.ID || stored.Status != model.AttemptStatusStarted {
		return repository.ErrAttemptFinal
	}

	score, pct, passed, at := fin.Score, fin.Percentage, fin.Passed, fin.SubmittedAt
	stored.Status = fin.Status
	stored.Score = &score
	stored.Percentage = &pct
	stored.Passed = &passed
	stored.SubmittedAt = &at
	s.attempts[k] = stored

	rows := s.answers[k]
	if rows == nil {
		rows = make(map[uuid.UUID]*string)
		s.answers[k] = rows
	}
	for _, ans := range answers {
		rows[ans.QuestionID] = ans.SelectedOption
	}
	return nil
}

func (s *Store) StoredAnswers(_ context.Context, examID uuid.UUID, studentID int) (map[uuid.UUID]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[uuid.UUID]string)
	for qid, v := range s.answers[attemptKey{examID, studentID}] {
		if v != nil {
			out[qid] = *v
		}
	}
	return out, nil
}

// SaveDraftAnswer mirrors AttemptRepository.SaveDraftAnswer.
func (s *Store) SaveDraftAnswer(_ context.Context, examID uuid.UUID, studentID int, questionID uuid.UUID, option string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := attemptKey{examID, studentID}
	a, ok := s.attempts[k]
	if !ok {
		return repository.ErrNotFound
	}
	if a.Status != model.AttemptStatusStarted {
		return repository.ErrAttemptFinal
	}
	rows := s.answers[k]
	if rows == nil {
		rows = make(map[uuid.UUID]*string)
		s.answers[k] = rows
	}
	rows[questionID] = &option
	return nil
}

func (s *Store) ListByStudent(_ context.Context, studentID int) ([]model.ResultSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.ResultSummary{}
	for k, a := range s.attempts {
		if k.studentID != studentID {
			continue
		}
		out = append(out, model.ResultSummary{
			AttemptID:   a.ID,
			ExamID:      a.ExamID,
			ExamTitle:   s.exams[a.ExamID].Title,
			Status:      a.Status,
			Score:       a.Score,
			Percentage:  a.Percentage,
			Passed:      a.Passed,
			StartedAt:   a.StartedAt,
			SubmittedAt: a.SubmittedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return out, nil
}

func (s *Store) StatusesForStudent(_ context.Context, studentID int) (map[uuid.UUID]model.AttemptStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[uuid.UUID]model.AttemptStatus)
	for k, a := range s.attempts {
		if k.studentID == studentID {
			out[k.examID] = a.Status
		}
	}
	return out, nil
}

// ─── DraftStore ─────────────────────────────────────────────────────

// Drafts groups the draft operations so Store can satisfy both
// AttemptStore.Create and DraftStore without a method clash.
type Drafts struct{ s *Store }

// Drafts returns the DraftStore view of the store.
func (s *Store) Drafts() Drafts { return Drafts{s} }

func (d Drafts) Save(_ context.Context, examID uuid.UUID, studentID int, questionID uuid.UUID, option string) error {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	if d.s.DraftsErr != nil {
		return d.s.DraftsErr
	}
	k := attemptKey{examID, studentID}
	if d.s.drafts[k] == nil {
		d.s.drafts[k] = make(map[uuid.UUID]string)
	}
	d.s.drafts[k][questionID] = option
	return nil
}

func (d Drafts) All(_ context.Context, examID uuid.UUID, studentID int) (map[uuid.UUID]string, error) {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	if d.s.DraftsErr != nil {
		return nil, d.s.DraftsErr
	}
	out := make(map[uuid.UUID]string)
	for qid, v := range d.s.drafts[attemptKey{examID, studentID}] {
		out[qid] = v
	}
	return out, nil
}

func (d Drafts) Clear(_ context.Context, examID uuid.UUID, studentID int) error {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	if d.s.DraftsErr != nil {
		return d.s.DraftsErr
	}
	delete(d.s.drafts, attemptKey{examID, studentID})
	return nil
}

// ─── ViolationStore / EventPublisher ────────────────────────────────

func (s *Store) Insert(_ context.Context, v *model.Violation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v.ID = int64(len(s.violations) + 1)
	v.CreatedAt = time.Now()
	s.violations = append(s.violations, *v)
	return nil
}

func (s *Store) Count(_ context.Context, examID uuid.UUID, studentID int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, v := range s.violations {
		if v.ExamID == examID && v.StudentID == studentID {
			n++
		}
	}
	return n, nil
}

func (s *Store) Publish(_ context.Context, event model.MonitorEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// ─── SessionStore ───────────────────────────────────────────────────

// Sessions is the SessionStore view of the store.
type Sessions struct{ s *Store }

// Sessions returns the SessionStore view of the store.
func (s *Store) Sessions() Sessions { return Sessions{s} }

func (v Sessions) Store(_ context.Context, userID int, jti string, _ time.Duration) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	v.s.sessions[userID] = jti
	return nil
}

func (v Sessions) Get(_ context.Context, userID int) (string, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	jti, ok := v.s.sessions[userID]
	if !ok {
		return "", repository.ErrNotFound
	}
	return jti, nil
}

func (v Sessions) Delete(_ context.Context, userID int) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	delete(v.s.sessions, userID)
	return nil
}
