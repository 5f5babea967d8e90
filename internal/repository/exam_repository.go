package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exam-portal-backend/internal/model"
)

const examSelect = `
	SELECT e.id, e.title, e.description, e.duration_minutes, e.subject_id, COALESCE(s.name, ''),
	       e.created_by, e.start_time, e.end_time, e.status,
	       (SELECT COUNT(*) FROM exam_questions eq WHERE eq.exam_id = e.id),
	       e.created_at, e.updated_at
	FROM exams e
	LEFT JOIN subjects s ON s.id = e.subject_id`

// ExamFilter narrows exam listings. Zero values mean no restriction.
type ExamFilter struct {
	CreatedBy     int
	PublishedOnly bool
}

// ExamRepository handles exam and exam-question link data access.
type ExamRepository struct {
	pool *pgxpool.Pool
}

// NewExamRepository creates a new ExamRepository.
func NewExamRepository(pool *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{pool: pool}
}

func scanExam(row pgx.Row, e *model.Exam) error {
	return row.Scan(
		&e.ID, &e.Title, &e.Description, &e.DurationMinutes, &e.SubjectID, &e.SubjectName,
		&e.CreatedBy, &e.StartTime, &e.EndTime, &e.Status,
		&e.QuestionCount,
		&e.CreatedAt, &e.UpdatedAt,
	)
}

// Create inserts a new exam. Returns ErrNotFound if the subject does not exist.
func (r *ExamRepository) Create(ctx context.Context, e *model.Exam) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO exams (title, description, duration_minutes, subject_id, created_by, start_time, end_time, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at, updated_at`,
		e.Title, e.Description, e.DurationMinutes, e.SubjectID, e.CreatedBy, e.StartTime, e.EndTime, e.Status,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if isForeignKeyViolation(err) {
		return ErrNotFound
	}
	return err
}

// GetByID retrieves an exam with its subject name and question count.
func (r *ExamRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	e := &model.Exam{}
	if err := scanExam(r.pool.QueryRow(ctx, examSelect+` WHERE e.id = $1`, id), e); err != nil {
		return nil, notFound(err)
	}
	return e, nil
}

// List returns exams ordered by start time, newest first.
func (r *ExamRepository) List(ctx context.Context, f ExamFilter) ([]model.Exam, error) {
	var (
		where []string
		args  []any
	)
	if f.CreatedBy > 0 {
		args = append(args, f.CreatedBy)
		where = append(where, fmt.Sprintf("e.created_by = $%d", len(args)))
	}
	if f.PublishedOnly {
		args = append(args, model.ExamStatusPublished)
		where = append(where, fmt.Sprintf("e.status = $%d", len(args)))
	}

	query := examSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY e.start_time DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	exams := []model.Exam{}
	for rows.Next() {
		var e model.Exam
		if err := scanExam(rows, &e); err != nil {
			return nil, err
		}
		exams = append(exams, e)
	}
	return exams, rows.Err()
}

// Update writes every editable column of e.
func (r *ExamRepository) Update(ctx context.Context, e *model.Exam) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE exams
		 SET title = $1, description = $2, duration_minutes = $3, subject_id = $4,
		     start_time = $5, end_time = $6, status = $7, updated_at = NOW()
		 WHERE id = $8
		 RETURNING updated_at`,
		e.Title, e.Description, e.DurationMinutes, e.SubjectID, e.StartTime, e.EndTime, e.Status, e.ID,
	).Scan(&e.UpdatedAt)
	if isForeignKeyViolation(err) {
		return ErrNotFound
	}
	return notFound(err)
}

// Delete removes an exam and its question links. Returns ErrInUse once attempts exist.
func (r *ExamRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM exams WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrInUse
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// HasAttempts reports whether any student has started the exam.
func (r *ExamRepository) HasAttempts(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM results WHERE exam_id = $1)`, id).Scan(&exists)
	return exists, err
}

// LinkQuestions adds questions to an exam in one transaction and returns how many were new.
// Links that already exist are skipped. Returns ErrNotFound if any question does not exist.
func (r *ExamRepository) LinkQuestions(ctx context.Context, examID uuid.UUID, questionIDs []uuid.UUID) (int, error) {
	added := 0
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, qid := range questionIDs {
			batch.Queue(
				`INSERT INTO exam_questions (exam_id, question_id) VALUES ($1, $2)
				 ON CONFLICT (exam_id, question_id) DO NOTHING`,
				examID, qid,
			)
		}

		br := tx.SendBatch(ctx, batch)
		for range questionIDs {
			tag, err := br.Exec()
			if err != nil {
				br.Close()
				return err
			}
			added += int(tag.RowsAffected())
		}
		return br.Close()
	})
	if err != nil {
		if isForeignKeyViolation(err) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return added, nil
}
