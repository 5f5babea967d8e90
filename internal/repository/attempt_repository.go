package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exam-portal-backend/internal/model"
)

// AttemptRepository handles attempt (results) and answer data access.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

// GetByExamAndStudent retrieves the attempt for an exam-student pair.
func (r *AttemptRepository) GetByExamAndStudent(ctx context.Context, examID uuid.UUID, studentID int) (*model.Attempt, error) {
	a := &model.Attempt{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, exam_id, student_id, started_at, submitted_at, status, score, percentage, passed
		 FROM results
		 WHERE exam_id = $1 AND student_id = $2`, examID, studentID,
	).Scan(&a.ID, &a.ExamID, &a.StudentID, &a.StartedAt, &a.SubmittedAt, &a.Status, &a.Score, &a.Percentage, &a.Passed)
	if err != nil {
		return nil, notFound(err)
	}
	return a, nil
}

// Create inserts a started attempt. The UNIQUE (exam_id, student_id) constraint
// rejects a second attempt with ErrDuplicateAttempt, including concurrent starts.
func (r *AttemptRepository) Create(ctx context.Context, a *model.Attempt) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO results (exam_id, student_id, started_at, status)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, started_at`,
		a.ExamID, a.StudentID, a.StartedAt, model.AttemptStatusStarted,
	).Scan(&a.ID, &a.StartedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateAttempt
		}
		return err
	}
	a.Status = model.AttemptStatusStarted
	return nil
}

// Finalize moves a started attempt to its terminal status and stores the answers
// in one transaction. The status-conditioned UPDATE runs first, so a concurrent
// finalization blocks on the row lock and then sees zero rows. Returns
// ErrAttemptFinal when the attempt had already left started; nothing is written then.
func (r *AttemptRepository) Finalize(ctx context.Context, a *model.Attempt, fin model.Finalization, answers []model.Answer) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE results
			 SET status = $1, score = $2, percentage = $3, passed = $4, submitted_at = $5
			 WHERE id = $6 AND status = $7`,
			fin.Status, fin.Score, fin.Percentage, fin.Passed, fin.SubmittedAt, a.ID, model.AttemptStatusStarted,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrAttemptFinal
		}

		if len(answers) == 0 {
			return nil
		}

		batch := &pgx.Batch{}
		for _, ans := range answers {
			batch.Queue(
				`INSERT INTO student_answers (student_id, exam_id, question_id, selected_option, updated_at)
				 VALUES ($1, $2, $3, $4, NOW())
				 ON CONFLICT (student_id, exam_id, question_id) DO UPDATE
				 SET selected_option = EXCLUDED.selected_option, updated_at = NOW()`,
				a.StudentID, a.ExamID, ans.QuestionID, ans.SelectedOption,
			)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
}

// SaveDraftAnswer upserts one answer while the attempt is still started.
// The attempt row is locked FOR SHARE so the write cannot interleave with
// finalization. Returns ErrAttemptFinal if the attempt is no longer started.
func (r *AttemptRepository) SaveDraftAnswer(ctx context.Context, examID uuid.UUID, studentID int, questionID uuid.UUID, option string) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var status model.AttemptStatus
		err := tx.QueryRow(ctx,
			`SELECT status FROM results WHERE exam_id = $1 AND student_id = $2 FOR SHARE`,
			examID, studentID,
		).Scan(&status)
		if err != nil {
			return notFound(err)
		}
		if status != model.AttemptStatusStarted {
			return ErrAttemptFinal
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO student_answers (student_id, exam_id, question_id, selected_option, updated_at)
			 VALUES ($1, $2, $3, $4, NOW())
			 ON CONFLICT (student_id, exam_id, question_id) DO UPDATE
			 SET selected_option = EXCLUDED.selected_option, updated_at = NOW()`,
			studentID, examID, questionID, option,
		)
		return err
	})
}

// StoredAnswers returns the persisted non-null answers of an attempt keyed by question.
func (r *AttemptRepository) StoredAnswers(ctx context.Context, examID uuid.UUID, studentID int) (map[uuid.UUID]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT question_id, selected_option
		 FROM student_answers
		 WHERE exam_id = $1 AND student_id = $2 AND selected_option IS NOT NULL`,
		examID, studentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	answers := make(map[uuid.UUID]string)
	for rows.Next() {
		var (
			qid    uuid.UUID
			option string
		)
		if err := rows.Scan(&qid, &option); err != nil {
			return nil, err
		}
		answers[qid] = option
	}
	return answers, rows.Err()
}

// ListByStudent returns the student's attempts with exam titles, latest first.
func (r *AttemptRepository) ListByStudent(ctx context.Context, studentID int) ([]model.ResultSummary, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT r.id, r.exam_id, e.title, r.status, r.score, r.percentage, r.passed, r.started_at, r.submitted_at
		 FROM results r
		 JOIN exams e ON e.id = r.exam_id
		 WHERE r.student_id = $1
		 ORDER BY COALESCE(r.submitted_at, r.started_at) DESC`, studentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []model.ResultSummary{}
	for rows.Next() {
		var s model.ResultSummary
		if err := rows.Scan(&s.AttemptID, &s.ExamID, &s.ExamTitle, &s.Status, &s.Score, &s.Percentage,
			&s.Passed, &s.StartedAt, &s.SubmittedAt); err != nil {
			return nil, err
		}
		results = append(results, s)
	}
	return results, rows.Err()
}

// StatusesForStudent returns the attempt status per exam for one student.
func (r *AttemptRepository) StatusesForStudent(ctx context.Context, studentID int) (map[uuid.UUID]model.AttemptStatus, error) {
	rows, err := r.pool.Query(ctx, `SELECT exam_id, status FROM results WHERE student_id = $1`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	statuses := make(map[uuid.UUID]model.AttemptStatus)
	for rows.Next() {
		var (
			id     uuid.UUID
			status model.AttemptStatus
		)
		if err := rows.Scan(&id, &status); err != nil {
			return nil, err
		}
		statuses[id] = status
	}
	return statuses, rows.Err()
}

