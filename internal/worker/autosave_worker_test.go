package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exam-portal-backend/internal/repository"
)

type fakeQueue struct {
	mu       sync.Mutex
	jobs     []string
	requeued []string
}

func (q *fakeQueue) NextJob(ctx context.Context, _ time.Duration) (string, error) {
	return q.PopJob(ctx)
}

func (q *fakeQueue) PopJob(context.Context) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.jobs) == 0 {
		return "", redis.Nil
	}
	raw := q.jobs[0]
	q.jobs = q.jobs[1:]
	return raw, nil
}

func (q *fakeQueue) Requeue(_ context.Context, raw string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.requeued = append(q.requeued, raw)
	return nil
}

type savedAnswer struct {
	examID     uuid.UUID
	studentID  int
	questionID uuid.UUID
	option     string
}

type fakeWriter struct {
	err   error
	saved []savedAnswer
}

func (w *fakeWriter) SaveDraftAnswer(_ context.Context, examID uuid.UUID, studentID int, questionID uuid.UUID, option string) error {
	if w.err != nil {
		return w.err
	}
	w.saved = append(w.saved, savedAnswer{examID, studentID, questionID, option})
	return nil
}

func draftJob(t *testing.T, examID uuid.UUID, studentID int, questionID uuid.UUID, option string) string {
	t.Helper()
	raw, err := json.Marshal(repository.DraftJob{
		StudentID:  studentID,
		ExamID:     examID.String(),
		QuestionID: questionID.String(),
		Option:     option,
	})
	if err != nil {
		t.Fatalf("marshal job: %v", err)
	}
	return string(raw)
}

func TestAutosaveWorker_Handle(t *testing.T) {
	examID, questionID := uuid.New(), uuid.New()

	tests := []struct {
		name      string
		raw       string
		writerErr error
		wantErr   bool
		wantSaved int
	}{
		{"valid job", draftJob(t, examID, 3, questionID, "C"), nil, false, 1},
		{"malformed json", "{not json", nil, false, 0},
		{"bad exam id", `{"student_id":3,"exam_id":"x","q_id":"` + questionID.String() + `","option":"A"}`, nil, false, 0},
		{"attempt already final", draftJob(t, examID, 3, questionID, "C"), repository.ErrAttemptFinal, false, 0},
		{"attempt missing", draftJob(t, examID, 3, questionID, "C"), repository.ErrNotFound, false, 0},
		{"database down", draftJob(t, examID, 3, questionID, "C"), errors.New("connection refused"), true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			writer := &fakeWriter{err: tt.writerErr}
			w := NewAutosaveWorker(&fakeQueue{}, writer, zerolog.Nop())

			err := w.handle(context.Background(), tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("handle() error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(writer.saved) != tt.wantSaved {
				t.Errorf("saved = %d, want %d", len(writer.saved), tt.wantSaved)
			}
		})
	}
}

func TestAutosaveWorker_DrainsOnShutdown(t *testing.T) {
	examID := uuid.New()
	q1, q2 := uuid.New(), uuid.New()
	queue := &fakeQueue{jobs: []string{
		draftJob(t, examID, 8, q1, "A"),
		draftJob(t, examID, 8, q2, "D"),
	}}
	writer := &fakeWriter{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	NewAutosaveWorker(queue, writer, zerolog.Nop()).Start(ctx)

	if len(writer.saved) != 2 {
		t.Fatalf("saved = %d, want 2", len(writer.saved))
	}
	if got := writer.saved[1]; got.questionID != q2 || got.option != "D" || got.studentID != 8 {
		t.Errorf("second save = %+v", got)
	}
}

func TestAutosaveWorker_RequeuesTransientFailure(t *testing.T) {
	raw := draftJob(t, uuid.New(), 5, uuid.New(), "B")
	queue := &fakeQueue{jobs: []string{raw}}
	writer := &fakeWriter{err: errors.New("connection refused")}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	NewAutosaveWorker(queue, writer, zerolog.Nop()).Start(ctx)

	if len(queue.requeued) != 1 || queue.requeued[0] != raw {
		t.Errorf("requeued = %v, want the failed job", queue.requeued)
	}
}
