package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exam-portal-backend/internal/model"
)

// ScopeFilter restricts teacher analytics. A zero OwnerID means every exam (admin).
type ScopeFilter struct {
	OwnerID int
	ExamID  *uuid.UUID
}

// AnalyticsRepository runs read-only aggregate queries for dashboards.
type AnalyticsRepository struct {
	pool *pgxpool.Pool
}

// NewAnalyticsRepository creates a new AnalyticsRepository.
func NewAnalyticsRepository(pool *pgxpool.Pool) *AnalyticsRepository {
	return &AnalyticsRepository{pool: pool}
}

// FillSummaryCounts sets the headline totals of the admin dashboard.
func (r *AnalyticsRepository) FillSummaryCounts(ctx context.Context, s *model.DashboardSummary) error {
	return r.pool.QueryRow(ctx,
		`SELECT
			(SELECT COUNT(*) FROM users WHERE role = 'student'),
			(SELECT COUNT(*) FROM users WHERE role = 'teacher'),
			(SELECT COUNT(*) FROM subjects),
			(SELECT COUNT(*) FROM questions),
			(SELECT COUNT(*) FROM exams)`,
	).Scan(&s.TotalStudents, &s.TotalTeachers, &s.TotalSubjects, &s.TotalQuestions, &s.TotalExams)
}

// AvailabilityCounts buckets published exams by their availability at now.
func (r *AnalyticsRepository) AvailabilityCounts(ctx context.Context, now time.Time) (map[model.Availability]int, error) {
	counts := map[model.Availability]int{
		model.AvailabilityUpcoming:  0,
		model.AvailabilityOngoing:   0,
		model.AvailabilityCompleted: 0,
	}
	var upcoming, ongoing, completed int
	err := r.pool.QueryRow(ctx,
		`SELECT
			COUNT(*) FILTER (WHERE $1 < start_time),
			COUNT(*) FILTER (WHERE $1 >= start_time AND $1 <= end_time),
			COUNT(*) FILTER (WHERE $1 > end_time)
		 FROM exams
		 WHERE status = $2`,
		now, model.ExamStatusPublished,
	).Scan(&upcoming, &ongoing, &completed)
	if err != nil {
		return nil, err
	}
	counts[model.AvailabilityUpcoming] = upcoming
	counts[model.AvailabilityOngoing] = ongoing
	counts[model.AvailabilityCompleted] = completed
	return counts, nil
}

// UpcomingExams returns the next published exams that have not opened yet.
func (r *AnalyticsRepository) UpcomingExams(ctx context.Context, now time.Time, limit int) ([]model.UpcomingExam, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, title, start_time, duration_minutes
		 FROM exams
		 WHERE status = $1 AND start_time > $2
		 ORDER BY start_time ASC LIMIT $3`,
		model.ExamStatusPublished, now, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	exams := []model.UpcomingExam{}
	for rows.Next() {
		var e model.UpcomingExam
		if err := rows.Scan(&e.ID, &e.Title, &e.StartTime, &e.DurationMinutes); err != nil {
			return nil, err
		}
		exams = append(exams, e)
	}
	return exams, rows.Err()
}

// RecentExams returns the most recently closed exams with participation stats.
func (r *AnalyticsRepository) RecentExams(ctx context.Context, now time.Time, limit int) ([]model.RecentExamResult, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT e.id, e.title, e.end_time,
		        COUNT(res.id),
		        AVG(res.percentage) FILTER (WHERE res.status <> 'started')::float8
		 FROM exams e
		 LEFT JOIN results res ON res.exam_id = e.id
		 WHERE e.end_time < $1
		 GROUP BY e.id, e.title, e.end_time
		 ORDER BY e.end_time DESC
		 LIMIT $2`,
		now, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []model.RecentExamResult{}
	for rows.Next() {
		var res model.RecentExamResult
		if err := rows.Scan(&res.ID, &res.Title, &res.EndTime, &res.Participants, &res.AveragePercentage); err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

// SubjectPerformance averages a student's finalized percentages per subject.
func (r *AnalyticsRepository) SubjectPerformance(ctx context.Context, studentID int) ([]model.SubjectPerformance, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT s.id, s.name, COUNT(res.id), COALESCE(AVG(res.percentage), 0)::float8
		 FROM results res
		 JOIN exams e ON e.id = res.exam_id
		 JOIN subjects s ON s.id = e.subject_id
		 WHERE res.student_id = $1 AND res.status <> 'started'
		 GROUP BY s.id, s.name
		 ORDER BY s.name`,
		studentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	perf := []model.SubjectPerformance{}
	for rows.Next() {
		var p model.SubjectPerformance
		if err := rows.Scan(&p.SubjectID, &p.Subject, &p.Attempts, &p.AveragePercentage); err != nil {
			return nil, err
		}
		perf = append(perf, p)
	}
	return perf, rows.Err()
}

// WrongQuestions lists the student's finalized answers that missed the correct option,
// including questions left unanswered.
func (r *AnalyticsRepository) WrongQuestions(ctx context.Context, studentID int) ([]model.WrongQuestion, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT e.id, e.title, q.id, q.question_text, s.name, sa.selected_option,
		        q.option_a, q.option_b, q.option_c, q.option_d, q.correct_option
		 FROM results res
		 JOIN exams e ON e.id = res.exam_id
		 JOIN exam_questions eq ON eq.exam_id = e.id
		 JOIN questions q ON q.id = eq.question_id
		 JOIN subjects s ON s.id = q.subject_id
		 LEFT JOIN student_answers sa
		        ON sa.exam_id = res.exam_id AND sa.student_id = res.student_id AND sa.question_id = q.id
		 WHERE res.student_id = $1 AND res.status <> 'started'
		   AND (sa.selected_option IS NULL OR UPPER(sa.selected_option) <> q.correct_option)
		 ORDER BY res.submitted_at DESC, q.id`,
		studentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	wrong := []model.WrongQuestion{}
	for rows.Next() {
		var (
			w model.WrongQuestion
			q model.Question
		)
		if err := rows.Scan(&w.ExamID, &w.ExamTitle, &w.QuestionID, &w.QuestionText, &w.SubjectName, &w.StudentOption,
			&q.OptionA, &q.OptionB, &q.OptionC, &q.OptionD, &w.CorrectOption); err != nil {
			return nil, err
		}
		w.CorrectAnswerText = q.OptionText(w.CorrectOption)
		if w.StudentOption != nil {
			text := q.OptionText(*w.StudentOption)
			w.StudentAnswerText = &text
		}
		wrong = append(wrong, w)
	}
	return wrong, rows.Err()
}

// ExamAnalytics aggregates every attempt of one exam.
func (r *AnalyticsRepository) ExamAnalytics(ctx context.Context, examID uuid.UUID) (*model.ExamAnalytics, error) {
	a := &model.ExamAnalytics{ExamID: examID}
	err := r.pool.QueryRow(ctx,
		`SELECT e.title,
		        (SELECT COUNT(*) FROM exam_questions eq WHERE eq.exam_id = e.id),
		        COUNT(res.id),
		        COUNT(res.id) FILTER (WHERE res.status = 'started'),
		        COUNT(res.id) FILTER (WHERE res.status = 'submitted'),
		        COUNT(res.id) FILTER (WHERE res.status = 'auto_submitted'),
		        COUNT(res.id) FILTER (WHERE res.passed),
		        COALESCE(AVG(res.percentage), 0)::float8,
		        COALESCE(MAX(res.percentage), 0)::float8,
		        COALESCE(MIN(res.percentage), 0)::float8,
		        (SELECT COUNT(*) FROM proctoring_violations pv WHERE pv.exam_id = e.id)
		 FROM exams e
		 LEFT JOIN results res ON res.exam_id = e.id
		 WHERE e.id = $1
		 GROUP BY e.id, e.title`,
		examID,
	).Scan(&a.Title, &a.QuestionCount, &a.Participants, &a.InProgress, &a.Submitted, &a.AutoSubmitted,
		&a.PassCount, &a.AveragePercentage, &a.HighestPercentage, &a.LowestPercentage, &a.ViolationCount)
	if err != nil {
		return nil, notFound(err)
	}
	if finalized := a.Submitted + a.AutoSubmitted; finalized > 0 {
		a.PassRate = float64(a.PassCount) * 100 / float64(finalized)
	}
	return a, nil
}

// ExamResults lists attempts on the exams in scope, latest first.
func (r *AnalyticsRepository) ExamResults(ctx context.Context, f ScopeFilter) ([]model.ExamResultRow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT res.id, e.id, e.title, u.id, u.full_name, u.email, res.status, res.score, res.percentage, res.passed,
		        res.started_at, res.submitted_at,
		        (SELECT COUNT(*) FROM proctoring_violations pv WHERE pv.exam_id = e.id AND pv.student_id = u.id)
		 FROM results res
		 JOIN exams e ON e.id = res.exam_id
		 JOIN users u ON u.id = res.student_id
		 WHERE ($1 = 0 OR e.created_by = $1) AND ($2::uuid IS NULL OR e.id = $2)
		 ORDER BY COALESCE(res.submitted_at, res.started_at) DESC`,
		f.OwnerID, f.ExamID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []model.ExamResultRow{}
	for rows.Next() {
		var row model.ExamResultRow
		if err := rows.Scan(&row.AttemptID, &row.ExamID, &row.ExamTitle, &row.StudentID, &row.StudentName, &row.Email,
			&row.Status, &row.Score, &row.Percentage, &row.Passed, &row.StartedAt, &row.SubmittedAt, &row.Violations); err != nil {
			return nil, err
		}
		results = append(results, row)
	}
	return results, rows.Err()
}

// Violations lists proctoring violations on the exams in scope, newest first.
func (r *AnalyticsRepository) Violations(ctx context.Context, f ScopeFilter) ([]model.ViolationRow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT pv.id, e.id, e.title, u.id, u.full_name, pv.violation_type, pv.details, pv.created_at
		 FROM proctoring_violations pv
		 JOIN exams e ON e.id = pv.exam_id
		 JOIN users u ON u.id = pv.student_id
		 WHERE ($1 = 0 OR e.created_by = $1) AND ($2::uuid IS NULL OR e.id = $2)
		 ORDER BY pv.created_at DESC`,
		f.OwnerID, f.ExamID,
	)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.ViolationRow, error) {
		var v model.ViolationRow
		err := row.Scan(&v.ID, &v.ExamID, &v.ExamTitle, &v.StudentID, &v.StudentName, &v.ViolationType, &v.Details, &v.CreatedAt)
		return v, err
	})
}

// SubjectAnalytics aggregates exams, questions and finalized attempts per subject.
func (r *AnalyticsRepository) SubjectAnalytics(ctx context.Context) ([]model.SubjectAnalytics, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT s.id, s.name, s.difficulty_level,
		        (SELECT COUNT(*) FROM exams e WHERE e.subject_id = s.id),
		        (SELECT COUNT(*) FROM questions q WHERE q.subject_id = s.id),
		        COUNT(res.id),
		        COALESCE(AVG(res.percentage), 0)::float8,
		        COALESCE(100.0 * COUNT(res.id) FILTER (WHERE res.passed) / NULLIF(COUNT(res.id), 0), 0)::float8
		 FROM subjects s
		 LEFT JOIN exams e ON e.subject_id = s.id
		 LEFT JOIN results res ON res.exam_id = e.id AND res.status <> 'started'
		 GROUP BY s.id, s.name, s.difficulty_level
		 ORDER BY s.name`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subjects := []model.SubjectAnalytics{}
	for rows.Next() {
		var s model.SubjectAnalytics
		if err := rows.Scan(&s.SubjectID, &s.Name, &s.DifficultyLevel, &s.ExamCount, &s.QuestionCount,
			&s.Attempts, &s.AveragePercentage, &s.PassRate); err != nil {
			return nil, err
		}
		subjects = append(subjects, s)
	}
	return subjects, rows.Err()
}
