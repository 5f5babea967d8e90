package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exam-portal-backend/internal/model"
)

// ViolationRepository stores the append-only proctoring log.
type ViolationRepository struct {
	pool *pgxpool.Pool
}

// NewViolationRepository creates a new ViolationRepository.
func NewViolationRepository(pool *pgxpool.Pool) *ViolationRepository {
	return &ViolationRepository{pool: pool}
}

// Insert appends a violation.
func (r *ViolationRepository) Insert(ctx context.Context, v *model.Violation) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO proctoring_violations (student_id, exam_id, violation_type, details)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		v.StudentID, v.ExamID, v.Type, v.Details,
	).Scan(&v.ID, &v.CreatedAt)
}

// Count returns the number of violations recorded for an exam-student pair.
func (r *ViolationRepository) Count(ctx context.Context, examID uuid.UUID, studentID int) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM proctoring_violations WHERE exam_id = $1 AND student_id = $2`,
		examID, studentID,
	).Scan(&n)
	return n, err
}
