package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exam-portal-backend/internal/repository"
)

const (
	pollTimeout = time.Second
	retryDelay  = 5 * time.Second
)

// DraftQueue is the Redis list the autosave path pushes to.
type DraftQueue interface {
	NextJob(ctx context.Context, timeout time.Duration) (string, error)
	PopJob(ctx context.Context) (string, error)
	Requeue(ctx context.Context, raw string) error
}

// AnswerWriter persists one draft answer of a started attempt.
type AnswerWriter interface {
	SaveDraftAnswer(ctx context.Context, examID uuid.UUID, studentID int, questionID uuid.UUID, option string) error
}

// AutosaveWorker consumes the draft queue and upserts answers into PostgreSQL,
// so partial answers survive a Redis flush. Drafts for attempts that are
// already final are dropped.
type AutosaveWorker struct {
	queue   DraftQueue
	answers AnswerWriter
	log     zerolog.Logger
}

// NewAutosaveWorker creates a new AutosaveWorker.
func NewAutosaveWorker(queue DraftQueue, answers AnswerWriter, log zerolog.Logger) *AutosaveWorker {
	return &AutosaveWorker{
		queue:   queue,
		answers: answers,
		log:     log.With().Str("component", "autosave_worker").Logger(),
	}
}

// Start begins the infinite worker loop. Call in a goroutine.
func (w *AutosaveWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			w.drain(context.Background())
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *AutosaveWorker) processNext(ctx context.Context) {
	raw, err := w.queue.NextJob(ctx, pollTimeout)
	if err != nil {
		if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
			sleep(ctx, time.Second)
		}
		return
	}

	if err := w.handle(ctx, raw); err != nil {
		w.log.Error().Err(err).Msg("Persist error, retrying in 5s")
		if err := w.queue.Requeue(ctx, raw); err != nil {
			w.log.Error().Err(err).Str("job", raw).Msg("Requeue failed, draft dropped")
		}
		sleep(ctx, retryDelay)
	}
}

// handle persists one raw job. Only transient failures are returned;
// malformed jobs and drafts of finished attempts are logged and dropped.
func (w *AutosaveWorker) handle(ctx context.Context, raw string) error {
	var job repository.DraftJob
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		w.log.Error().Err(err).Str("job", raw).Msg("Unmarshal error")
		return nil
	}

	examID, err := uuid.Parse(job.ExamID)
	if err != nil {
		w.log.Error().Err(err).Str("job", raw).Msg("Invalid exam id")
		return nil
	}
	questionID, err := uuid.Parse(job.QuestionID)
	if err != nil {
		w.log.Error().Err(err).Str("job", raw).Msg("Invalid question id")
		return nil
	}

	err = w.answers.SaveDraftAnswer(ctx, examID, job.StudentID, questionID, job.Option)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrAttemptFinal), errors.Is(err, repository.ErrNotFound):
		w.log.Debug().
			Int("student_id", job.StudentID).
			Str("exam_id", job.ExamID).
			Msg("Dropping draft of closed attempt")
		return nil
	default:
		return fmt.Errorf("save draft answer: %w", err)
	}
}

// drain processes all remaining items in the queue before shutdown.
func (w *AutosaveWorker) drain(ctx context.Context) {
	drained := 0
	for {
		raw, err := w.queue.PopJob(ctx)
		if err != nil {
			break
		}

		if err := w.handle(ctx, raw); err != nil {
			w.log.Error().Err(err).Msg("Drain persist error")
			_ = w.queue.Requeue(ctx, raw)
			break
		}
		drained++
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining items")
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
