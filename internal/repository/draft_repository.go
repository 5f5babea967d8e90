package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stemsi/exam-portal-backend/internal/config"
)

// DraftJob is one autosaved answer queued for persistence.
type DraftJob struct {
	StudentID  int    `json:"student_id"`
	ExamID     string `json:"exam_id"`
	QuestionID string `json:"q_id"`
	Option     string `json:"option"`
}

// DraftRepository keeps autosaved answers of live attempts in Redis and
// queues them for the autosave worker.
type DraftRepository struct {
	rdb *redis.Client
}

// NewDraftRepository creates a new DraftRepository.
func NewDraftRepository(rdb *redis.Client) *DraftRepository {
	return &DraftRepository{rdb: rdb}
}

// Save records the draft and enqueues it in a single MULTI/EXEC.
func (r *DraftRepository) Save(ctx context.Context, examID uuid.UUID, studentID int, questionID uuid.UUID, option string) error {
	job, err := json.Marshal(DraftJob{
		StudentID:  studentID,
		ExamID:     examID.String(),
		QuestionID: questionID.String(),
		Option:     option,
	})
	if err != nil {
		return fmt.Errorf("marshal draft job: %w", err)
	}

	key := config.CacheKey.DraftAnswersKey(examID.String(), studentID)
	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, questionID.String(), option)
		pipe.RPush(ctx, config.WorkerKey.PersistDraftsQueue, job)
		return nil
	})
	return err
}

// All returns the drafts of one attempt keyed by question. Malformed fields are skipped.
func (r *DraftRepository) All(ctx context.Context, examID uuid.UUID, studentID int) (map[uuid.UUID]string, error) {
	raw, err := r.rdb.HGetAll(ctx, config.CacheKey.DraftAnswersKey(examID.String(), studentID)).Result()
	if err != nil {
		return nil, err
	}

	drafts := make(map[uuid.UUID]string, len(raw))
	for field, option := range raw {
		qid, err := uuid.Parse(field)
		if err != nil {
			continue
		}
		drafts[qid] = option
	}
	return drafts, nil
}

// Clear drops the drafts of a finalized attempt.
func (r *DraftRepository) Clear(ctx context.Context, examID uuid.UUID, studentID int) error {
	return r.rdb.Del(ctx, config.CacheKey.DraftAnswersKey(examID.String(), studentID)).Err()
}

// NextJob blocks up to timeout for the next queued draft. It returns redis.Nil when the queue stayed empty.
func (r *DraftRepository) NextJob(ctx context.Context, timeout time.Duration) (string, error) {
	result, err := r.rdb.BLPop(ctx, timeout, config.WorkerKey.PersistDraftsQueue).Result()
	if err != nil {
		return "", err
	}
	if len(result) < 2 {
		return "", redis.Nil
	}
	return result[1], nil
}

// PopJob removes the next queued draft without blocking.
func (r *DraftRepository) PopJob(ctx context.Context) (string, error) {
	return r.rdb.LPop(ctx, config.WorkerKey.PersistDraftsQueue).Result()
}

// Requeue pushes a raw job back for a later retry.
func (r *DraftRepository) Requeue(ctx context.Context, raw string) error {
	return r.rdb.RPush(ctx, config.WorkerKey.PersistDraftsQueue, raw).Err()
}
