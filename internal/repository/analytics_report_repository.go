package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stemsi/exam-portal-backend/internal/model"
)

// Cross-exam reports only count finalized attempts on exams whose start time
// falls inside [from, to). Nil bounds are open.

// UserName returns the full name of a user holding role.
func (r *AnalyticsRepository) UserName(ctx context.Context, id int, role model.Role) (string, error) {
	var name string
	err := r.pool.QueryRow(ctx,
		`SELECT full_name FROM users WHERE id = $1 AND role = $2`, id, role,
	).Scan(&name)
	if err != nil {
		return "", notFound(err)
	}
	return name, nil
}

// TeacherRanking ranks teachers by the average percentage on their exams, best first.
func (r *AnalyticsRepository) TeacherRanking(ctx context.Context, from, to *time.Time) ([]model.TeacherRank, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT RANK() OVER (ORDER BY AVG(res.percentage) DESC),
		        u.id, u.full_name, COUNT(res.id), AVG(res.percentage)::float8
		 FROM results res
		 JOIN exams e ON e.id = res.exam_id
		 JOIN users u ON u.id = e.created_by
		 WHERE res.status <> 'started' AND u.role = 'teacher'
		   AND ($1::timestamptz IS NULL OR e.start_time >= $1)
		   AND ($2::timestamptz IS NULL OR e.start_time < $2)
		 GROUP BY u.id, u.full_name
		 ORDER BY 1, u.full_name`,
		from, to,
	)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[model.TeacherRank])
}

// OverallAverage averages every finalized attempt in range.
func (r *AnalyticsRepository) OverallAverage(ctx context.Context, from, to *time.Time) (float64, error) {
	var avg float64
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(AVG(res.percentage), 0)::float8
		 FROM results res
		 JOIN exams e ON e.id = res.exam_id
		 WHERE res.status <> 'started'
		   AND ($1::timestamptz IS NULL OR e.start_time >= $1)
		   AND ($2::timestamptz IS NULL OR e.start_time < $2)`,
		from, to,
	).Scan(&avg)
	return avg, err
}

// TeacherStats aggregates finalized attempts on the teacher's exams.
func (r *AnalyticsRepository) TeacherStats(ctx context.Context, teacherID int, from, to *time.Time) (model.TeacherStats, error) {
	var s model.TeacherStats
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(res.id),
		        COUNT(DISTINCT res.student_id),
		        COALESCE(AVG(res.percentage), 0)::float8,
		        COALESCE(100.0 * COUNT(res.id) FILTER (WHERE res.passed) / NULLIF(COUNT(res.id), 0), 0)::float8
		 FROM results res
		 JOIN exams e ON e.id = res.exam_id
		 WHERE res.status <> 'started' AND e.created_by = $1
		   AND ($2::timestamptz IS NULL OR e.start_time >= $2)
		   AND ($3::timestamptz IS NULL OR e.start_time < $3)`,
		teacherID, from, to,
	).Scan(&s.Attempts, &s.Students, &s.AveragePercentage, &s.PassRate)
	return s, err
}

// ExamProgress returns the average result of each of the teacher's exams in start order.
func (r *AnalyticsRepository) ExamProgress(ctx context.Context, teacherID int, from, to *time.Time) ([]model.ExamProgress, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT e.id, e.title, e.start_time, COUNT(res.id), AVG(res.percentage)::float8
		 FROM exams e
		 JOIN results res ON res.exam_id = e.id AND res.status <> 'started'
		 WHERE e.created_by = $1
		   AND ($2::timestamptz IS NULL OR e.start_time >= $2)
		   AND ($3::timestamptz IS NULL OR e.start_time < $3)
		 GROUP BY e.id, e.title, e.start_time
		 ORDER BY e.start_time`,
		teacherID, from, to,
	)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[model.ExamProgress])
}

// Heatmap returns every student percentage on the teacher's exams.
func (r *AnalyticsRepository) Heatmap(ctx context.Context, teacherID int, from, to *time.Time) ([]model.HeatmapCell, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT u.id, u.full_name, e.id, e.title, COALESCE(res.percentage, 0)::float8
		 FROM results res
		 JOIN exams e ON e.id = res.exam_id
		 JOIN users u ON u.id = res.student_id
		 WHERE res.status <> 'started' AND e.created_by = $1
		   AND ($2::timestamptz IS NULL OR e.start_time >= $2)
		   AND ($3::timestamptz IS NULL OR e.start_time < $3)
		 ORDER BY u.full_name, e.start_time`,
		teacherID, from, to,
	)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[model.HeatmapCell])
}

// StudentExamScores lists a student's finalized attempts in exam start order.
func (r *AnalyticsRepository) StudentExamScores(ctx context.Context, studentID int, from, to *time.Time) ([]model.StudentExamScore, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT e.id, e.title, s.name, e.start_time, res.status,
		        COALESCE(res.score, 0), COALESCE(res.percentage, 0)::float8, COALESCE(res.passed, FALSE)
		 FROM results res
		 JOIN exams e ON e.id = res.exam_id
		 JOIN subjects s ON s.id = e.subject_id
		 WHERE res.status <> 'started' AND res.student_id = $1
		   AND ($2::timestamptz IS NULL OR e.start_time >= $2)
		   AND ($3::timestamptz IS NULL OR e.start_time < $3)
		 ORDER BY e.start_time`,
		studentID, from, to,
	)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[model.StudentExamScore])
}

// ClassAverage averages every finalized attempt on the exams the student took.
func (r *AnalyticsRepository) ClassAverage(ctx context.Context, studentID int, from, to *time.Time) (float64, error) {
	var avg float64
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(AVG(res.percentage), 0)::float8
		 FROM results res
		 JOIN exams e ON e.id = res.exam_id
		 WHERE res.status <> 'started'
		   AND res.exam_id IN (SELECT exam_id FROM results WHERE student_id = $1 AND status <> 'started')
		   AND ($2::timestamptz IS NULL OR e.start_time >= $2)
		   AND ($3::timestamptz IS NULL OR e.start_time < $3)`,
		studentID, from, to,
	).Scan(&avg)
	return avg, err
}

// TeacherStudents lists finalized attempts on the teacher's exams, latest first.
func (r *AnalyticsRepository) TeacherStudents(ctx context.Context, teacherID int) ([]model.TeacherStudentRow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT u.id, u.full_name, e.id, e.title, s.name,
		        COALESCE(res.score, 0), COALESCE(res.percentage, 0)::float8, COALESCE(res.passed, FALSE),
		        res.submitted_at
		 FROM results res
		 JOIN exams e ON e.id = res.exam_id
		 JOIN subjects s ON s.id = e.subject_id
		 JOIN users u ON u.id = res.student_id
		 WHERE res.status <> 'started' AND e.created_by = $1
		 ORDER BY res.submitted_at DESC NULLS LAST`,
		teacherID,
	)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[model.TeacherStudentRow])
}

// TeacherSubjects aggregates finalized attempts on the teacher's exams per subject.
func (r *AnalyticsRepository) TeacherSubjects(ctx context.Context, teacherID int) ([]model.TeacherSubjectPerformance, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT s.id, s.name, COUNT(res.id),
		        COALESCE(AVG(res.percentage), 0)::float8,
		        COALESCE(100.0 * COUNT(res.id) FILTER (WHERE res.passed) / NULLIF(COUNT(res.id), 0), 0)::float8
		 FROM results res
		 JOIN exams e ON e.id = res.exam_id
		 JOIN subjects s ON s.id = e.subject_id
		 WHERE res.status <> 'started' AND e.created_by = $1
		 GROUP BY s.id, s.name
		 ORDER BY s.name`,
		teacherID,
	)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[model.TeacherSubjectPerformance])
}

// ViolationsBySubject counts violations on the teacher's exams per subject, most first.
func (r *AnalyticsRepository) ViolationsBySubject(ctx context.Context, teacherID int, from, to *time.Time) ([]model.SubjectViolations, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT s.id, s.name, COUNT(pv.id)
		 FROM proctoring_violations pv
		 JOIN exams e ON e.id = pv.exam_id
		 JOIN subjects s ON s.id = e.subject_id
		 WHERE e.created_by = $1
		   AND ($2::timestamptz IS NULL OR e.start_time >= $2)
		   AND ($3::timestamptz IS NULL OR e.start_time < $3)
		 GROUP BY s.id, s.name
		 ORDER BY 3 DESC, s.name`,
		teacherID, from, to,
	)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[model.SubjectViolations])
}
