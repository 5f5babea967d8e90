package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exam-portal-backend/internal/model"
)

const questionColumns = `q.id, q.subject_id, q.question_text, q.option_a, q.option_b, q.option_c, q.option_d,
	q.correct_option, q.created_by, q.created_at`

// QuestionRepository handles question data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

func scanQuestions(rows pgx.Rows) ([]model.Question, error) {
	defer rows.Close()

	questions := []model.Question{}
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(
			&q.ID, &q.SubjectID, &q.Text, &q.OptionA, &q.OptionB, &q.OptionC, &q.OptionD,
			&q.CorrectOption, &q.CreatedBy, &q.CreatedAt,
		); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// Create inserts a question. Returns ErrNotFound if the subject does not exist.
func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO questions (subject_id, question_text, option_a, option_b, option_c, option_d, correct_option, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at`,
		q.SubjectID, q.Text, q.OptionA, q.OptionB, q.OptionC, q.OptionD, q.CorrectOption, q.CreatedBy,
	).Scan(&q.ID, &q.CreatedAt)
	if isForeignKeyViolation(err) {
		return ErrNotFound
	}
	return err
}

// GetByID retrieves a single question.
func (r *QuestionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+questionColumns+` FROM questions q WHERE q.id = $1`, id)
	if err != nil {
		return nil, err
	}
	questions, err := scanQuestions(rows)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, ErrNotFound
	}
	return &questions[0], nil
}

// List returns questions, optionally limited to one subject.
func (r *QuestionRepository) List(ctx context.Context, subjectID int) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+questionColumns+`
		 FROM questions q
		 WHERE ($1 = 0 OR q.subject_id = $1)
		 ORDER BY q.created_at DESC`, subjectID)
	if err != nil {
		return nil, err
	}
	return scanQuestions(rows)
}

// ListByExam returns every question linked to the exam, including the correct option.
func (r *QuestionRepository) ListByExam(ctx context.Context, examID uuid.UUID) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+questionColumns+`
		 FROM exam_questions eq
		 JOIN questions q ON q.id = eq.question_id
		 WHERE eq.exam_id = $1
		 ORDER BY eq.added_at, q.id`, examID)
	if err != nil {
		return nil, err
	}
	return scanQuestions(rows)
}

// IsLinked reports whether the question belongs to the exam.
func (r *QuestionRepository) IsLinked(ctx context.Context, examID, questionID uuid.UUID) (bool, error) {
	var linked bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM exam_questions WHERE exam_id = $1 AND question_id = $2)`,
		examID, questionID,
	).Scan(&linked)
	return linked, err
}
