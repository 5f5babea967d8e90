package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/stemsi/exam-portal-backend/internal/config"
	"github.com/stemsi/exam-portal-backend/internal/model"
)

// MonitorRepository provides data access for the live exam monitoring feature.
// It combines PostgreSQL (attempt snapshot) and Redis (event pub/sub and live draft counts).
type MonitorRepository struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
}

// NewMonitorRepository creates a new MonitorRepository.
func NewMonitorRepository(pool *pgxpool.Pool, rdb *redis.Client) *MonitorRepository {
	return &MonitorRepository{pool: pool, rdb: rdb}
}

// ListAttempts returns every attempt of the exam with answered and violation counts.
func (r *MonitorRepository) ListAttempts(ctx context.Context, examID uuid.UUID) ([]model.MonitorStudent, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT r.student_id, u.full_name, r.status, r.started_at, r.percentage,
		        (SELECT COUNT(*) FROM student_answers sa
		          WHERE sa.exam_id = r.exam_id AND sa.student_id = r.student_id AND sa.selected_option IS NOT NULL),
		        (SELECT COUNT(*) FROM proctoring_violations pv
		          WHERE pv.exam_id = r.exam_id AND pv.student_id = r.student_id)
		 FROM results r
		 JOIN users u ON u.id = r.student_id
		 WHERE r.exam_id = $1
		 ORDER BY r.started_at`,
		examID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	students := []model.MonitorStudent{}
	for rows.Next() {
		var s model.MonitorStudent
		if err := rows.Scan(&s.StudentID, &s.FullName, &s.Status, &s.StartedAt, &s.Percentage,
			&s.AnsweredCount, &s.Violations); err != nil {
			return nil, err
		}
		students = append(students, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Drafts not yet flushed by the autosave worker only live in Redis.
	for i := range students {
		if !students[i].Status.Final() {
			n, err := r.rdb.HLen(ctx, config.CacheKey.DraftAnswersKey(examID.String(), students[i].StudentID)).Result()
			if err == nil && n > students[i].AnsweredCount {
				students[i].AnsweredCount = n
			}
		}
	}
	return students, nil
}

// Publish sends an event to everyone monitoring the exam.
func (r *MonitorRepository) Publish(ctx context.Context, event model.MonitorEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return r.rdb.Publish(ctx, config.CacheKey.ExamMonitorChannel(event.ExamID.String()), payload).Err()
}

// Subscribe opens a subscription to the exam's monitor channel. The caller must close it.
func (r *MonitorRepository) Subscribe(ctx context.Context, examID uuid.UUID) *redis.PubSub {
	return r.rdb.Subscribe(ctx, config.CacheKey.ExamMonitorChannel(examID.String()))
}
