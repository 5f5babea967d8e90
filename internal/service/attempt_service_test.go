package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exam-portal-backend/internal/model"
	"github.com/stemsi/exam-portal-backend/internal/service"
	"github.com/stemsi/exam-portal-backend/internal/service/servicetest"
)

const studentID = 42

var baseTime = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	store  *servicetest.Store
	svc    *service.AttemptService
	exam   model.Exam
	q1, q2 model.Question
	now    time.Time
}

// newFixture builds an attempt service over an exam open around baseTime with
// two questions whose correct options are A and B.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{store: servicetest.NewStore(), now: baseTime}
	f.exam = f.store.AddExam(model.Exam{
		Title:           "Algebra",
		DurationMinutes: 60,
		SubjectID:       1,
		CreatedBy:       7,
		StartTime:       baseTime.Add(-time.Hour),
		EndTime:         baseTime.Add(2 * time.Hour),
	})
	f.q1 = f.store.AddQuestion(f.exam.ID, "A")
	f.q2 = f.store.AddQuestion(f.exam.ID, "B")

	log := zerolog.Nop()
	proctor := service.NewProctorService(f.store, 5, log)
	f.svc = service.NewAttemptService(
		f.store, f.store, f.store, f.store.Drafts(), proctor, f.store, 30*time.Second, log,
	)
	f.svc.SetClock(func() time.Time { return f.now })
	return f
}

func (f *fixture) start(t *testing.T) {
	t.Helper()
	if _, err := f.svc.Start(context.Background(), f.exam.ID, studentID); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
}

func TestAttemptService_Start(t *testing.T) {
	tests := []struct {
		name    string
		now     time.Time
		wantErr error
	}{
		{"inside window", baseTime, nil},
		{"at window start", baseTime.Add(-time.Hour), nil},
		{"before window", baseTime.Add(-2 * time.Hour), service.ErrExamNotOpen},
		{"after window", baseTime.Add(3 * time.Hour), service.ErrExamClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.now = tt.now

			resp, err := f.svc.Start(context.Background(), f.exam.ID, studentID)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Start() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				if n := f.store.AttemptCount(f.exam.ID); n != 0 {
					t.Errorf("attempts created = %d, want 0", n)
				}
				return
			}
			if resp.DurationMinutes != 60 {
				t.Errorf("DurationMinutes = %d, want 60", resp.DurationMinutes)
			}
			a := f.store.Attempt(f.exam.ID, studentID)
			if a == nil || a.Status != model.AttemptStatusStarted {
				t.Fatalf("stored attempt = %+v, want started", a)
			}
		})
	}
}

func TestAttemptService_StartUnknownOrDraftExam(t *testing.T) {
	f := newFixture(t)
	draft := f.store.AddExam(model.Exam{
		Title:           "Draft",
		DurationMinutes: 30,
		StartTime:       baseTime.Add(-time.Hour),
		EndTime:         baseTime.Add(time.Hour),
		Status:          model.ExamStatusDraft,
	})

	for _, id := range []uuid.UUID{uuid.New(), draft.ID} {
		if _, err := f.svc.Start(context.Background(), id, studentID); !errors.Is(err, service.ErrExamNotFound) {
			t.Errorf("Start(%s) error = %v, want ErrExamNotFound", id, err)
		}
	}
}

func TestAttemptService_StartTwice(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	_, err := f.svc.Start(context.Background(), f.exam.ID, studentID)
	if !errors.Is(err, service.ErrAlreadyAttempted) {
		t.Fatalf("second Start() error = %v, want ErrAlreadyAttempted", err)
	}
}

func TestAttemptService_StartConcurrent(t *testing.T) {
	f := newFixture(t)

	const workers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Start(context.Background(), f.exam.ID, studentID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, service.ErrAlreadyAttempted):
				rejected++
			default:
				t.Errorf("Start() unexpected error = %v", err)
			}
		}()
	}
	wg.Wait()

	if succeeded != 1 || rejected != workers-1 {
		t.Errorf("succeeded = %d, rejected = %d; want 1 and %d", succeeded, rejected, workers-1)
	}
	if n := f.store.AttemptCount(f.exam.ID); n != 1 {
		t.Errorf("attempts stored = %d, want 1", n)
	}
}

func TestAttemptService_SubmitConcurrent(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	letters := []string{"A", "B", "C", "D"}
	const workers = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		winners  []int
		rejected int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			answers := map[string]string{f.q1.ID.String(): letters[i%len(letters)], f.q2.ID.String(): "B"}
			_, err := f.svc.Submit(context.Background(), f.exam.ID, studentID, answers)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				winners = append(winners, i)
			case errors.Is(err, service.ErrAlreadySubmitted):
				rejected++
			default:
				t.Errorf("Submit() unexpected error = %v", err)
			}
		}(i)
	}
	wg.Wait()

	if len(winners) != 1 || rejected != workers-1 {
		t.Fatalf("succeeded = %d, rejected = %d; want 1 and %d", len(winners), rejected, workers-1)
	}

	// q2 is always right; q1 is right only for the "A" submitters.
	want := 1
	if letters[winners[0]%len(letters)] == "A" {
		want = 2
	}
	a := f.store.Attempt(f.exam.ID, studentID)
	if a.Status != model.AttemptStatusSubmitted || a.Score == nil || *a.Score != want {
		t.Errorf("stored attempt = %+v, want submitted with score %d", a, want)
	}
	if got := f.store.Answers(f.exam.ID, studentID)[f.q1.ID]; got == nil || *got != letters[winners[0]%len(letters)] {
		t.Errorf("stored q1 answer = %v, want the winning submission's letter", got)
	}
}

func TestAttemptService_TakeHidesAnswers(t *testing.T) {
	f := newFixture(t)
	f.start(t)
	f.now = f.now.Add(10 * time.Minute)

	view, err := f.svc.Take(context.Background(), f.exam.ID, studentID)
	if err != nil {
		t.Fatalf("Take() error = %v", err)
	}
	if len(view.Questions) != 2 {
		t.Fatalf("questions = %d, want 2", len(view.Questions))
	}
	if view.RemainingSeconds != 50*60 {
		t.Errorf("RemainingSeconds = %d, want %d", view.RemainingSeconds, 50*60)
	}
}

func TestAttemptService_TakeWithoutAttempt(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Take(context.Background(), f.exam.ID, studentID)
	if !errors.Is(err, service.ErrNotStarted) {
		t.Fatalf("Take() error = %v, want ErrNotStarted", err)
	}
}

func TestAttemptService_Submit(t *testing.T) {
	tests := []struct {
		name        string
		answers     func(f *fixture) map[string]string
		wantScore   int
		wantPercent float64
		wantPassed  bool
	}{
		{
			name:        "all correct",
			answers:     func(f *fixture) map[string]string { return map[string]string{f.q1.ID.String(): "A", f.q2.ID.String(): "B"} },
			wantScore:   2,
			wantPercent: 100,
			wantPassed:  true,
		},
		{
			name:        "lowercase letter counts",
			answers:     func(f *fixture) map[string]string { return map[string]string{f.q1.ID.String(): "a"} },
			wantScore:   1,
			wantPercent: 50,
			wantPassed:  true,
		},
		{
			name:        "nothing answered",
			answers:     func(f *fixture) map[string]string { return nil },
			wantScore:   0,
			wantPercent: 0,
			wantPassed:  false,
		},
		{
			name: "foreign question ignored",
			answers: func(f *fixture) map[string]string {
				return map[string]string{uuid.NewString(): "A", "not-a-uuid": "B", f.q2.ID.String(): "C"}
			},
			wantScore:   0,
			wantPercent: 0,
			wantPassed:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.start(t)

			res, err := f.svc.Submit(context.Background(), f.exam.ID, studentID, tt.answers(f))
			if err != nil {
				t.Fatalf("Submit() error = %v", err)
			}
			if res.Score != tt.wantScore || res.Total != 2 || res.Percentage != tt.wantPercent || res.Passed != tt.wantPassed {
				t.Errorf("Submit() = %+v, want score %d/2 %.0f%% passed=%v", res, tt.wantScore, tt.wantPercent, tt.wantPassed)
			}

			a := f.store.Attempt(f.exam.ID, studentID)
			if a.Status != model.AttemptStatusSubmitted || a.Score == nil || *a.Score != tt.wantScore {
				t.Errorf("stored attempt = %+v", a)
			}
			if rows := f.store.Answers(f.exam.ID, studentID); len(rows) != 2 {
				t.Errorf("answer rows = %d, want one per question", len(rows))
			}
		})
	}
}

func TestAttemptService_SubmitTwice(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	answers := map[string]string{f.q1.ID.String(): "A"}
	if _, err := f.svc.Submit(context.Background(), f.exam.ID, studentID, answers); err != nil {
		t.Fatalf("first Submit() error = %v", err)
	}
	_, err := f.svc.Submit(context.Background(), f.exam.ID, studentID, map[string]string{f.q2.ID.String(): "B"})
	if !errors.Is(err, service.ErrAlreadySubmitted) {
		t.Fatalf("second Submit() error = %v, want ErrAlreadySubmitted", err)
	}

	a := f.store.Attempt(f.exam.ID, studentID)
	if *a.Score != 1 {
		t.Errorf("score changed to %d after second submit", *a.Score)
	}
}

func TestAttemptService_SubmitStorageFailure(t *testing.T) {
	f := newFixture(t)
	f.start(t)
	f.store.FinalizeErr = errors.New("connection reset")

	_, err := f.svc.Submit(context.Background(), f.exam.ID, studentID, nil)
	if !errors.Is(err, service.ErrFinalizeFailed) {
		t.Fatalf("Submit() error = %v, want ErrFinalizeFailed", err)
	}
	if a := f.store.Attempt(f.exam.ID, studentID); a.Status != model.AttemptStatusStarted {
		t.Errorf("status = %s, want started after failed finalize", a.Status)
	}

	f.store.FinalizeErr = nil
	if _, err := f.svc.Submit(context.Background(), f.exam.ID, studentID, nil); err != nil {
		t.Fatalf("retry Submit() error = %v", err)
	}
}

func TestAttemptService_SubmitAfterExpiry(t *testing.T) {
	tests := []struct {
		name    string
		elapsed time.Duration
		wantErr error
	}{
		{"within duration", 59 * time.Minute, nil},
		{"within grace", 60*time.Minute + 20*time.Second, nil},
		{"past grace", 61 * time.Minute, service.ErrAttemptExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.start(t)
			if err := f.svc.SaveDraft(context.Background(), f.exam.ID, studentID, f.q1.ID, "A"); err != nil {
				t.Fatalf("SaveDraft() error = %v", err)
			}
			f.now = f.now.Add(tt.elapsed)

			_, err := f.svc.Submit(context.Background(), f.exam.ID, studentID, nil)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Submit() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil {
				return
			}

			a := f.store.Attempt(f.exam.ID, studentID)
			if a.Status != model.AttemptStatusAutoSubmitted {
				t.Fatalf("status = %s, want auto_submitted", a.Status)
			}
			if *a.Score != 1 {
				t.Errorf("auto-submitted score = %d, want 1 from the saved draft", *a.Score)
			}
		})
	}
}

func TestAttemptService_SubmitSavedMergesDrafts(t *testing.T) {
	f := newFixture(t)
	f.start(t)
	ctx := context.Background()

	if err := f.svc.SaveDraft(ctx, f.exam.ID, studentID, f.q1.ID, "c"); err != nil {
		t.Fatalf("SaveDraft() error = %v", err)
	}
	if err := f.svc.SaveDraft(ctx, f.exam.ID, studentID, f.q2.ID, "B"); err != nil {
		t.Fatalf("SaveDraft() error = %v", err)
	}

	res, err := f.svc.SubmitSaved(ctx, f.exam.ID, studentID, map[string]string{f.q1.ID.String(): "A"})
	if err != nil {
		t.Fatalf("SubmitSaved() error = %v", err)
	}
	if res.Score != 2 {
		t.Errorf("Score = %d, want 2", res.Score)
	}
}

func TestAttemptService_SaveDraft(t *testing.T) {
	tests := []struct {
		name     string
		question func(f *fixture) uuid.UUID
		option   string
		wantErr  error
	}{
		{"valid", func(f *fixture) uuid.UUID { return f.q1.ID }, "d", nil},
		{"invalid option", func(f *fixture) uuid.UUID { return f.q1.ID }, "E", service.ErrInvalidOption},
		{"empty option", func(f *fixture) uuid.UUID { return f.q1.ID }, "", service.ErrInvalidOption},
		{"foreign question", func(f *fixture) uuid.UUID { return uuid.New() }, "A", service.ErrUnknownQuestion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.start(t)

			err := f.svc.SaveDraft(context.Background(), f.exam.ID, studentID, tt.question(f), tt.option)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("SaveDraft() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAttemptService_TakeFallsBackWhenDraftsUnavailable(t *testing.T) {
	f := newFixture(t)
	f.start(t)
	f.store.DraftsErr = errors.New("redis down")

	view, err := f.svc.Take(context.Background(), f.exam.ID, studentID)
	if err != nil {
		t.Fatalf("Take() error = %v", err)
	}
	if len(view.SavedAnswers) != 0 {
		t.Errorf("SavedAnswers = %v, want empty", view.SavedAnswers)
	}
}

func TestAttemptService_ReportViolation(t *testing.T) {
	f := newFixture(t)
	f.start(t)
	ctx := context.Background()

	for i := 1; i <= 4; i++ {
		d, err := f.svc.ReportViolation(ctx, f.exam.ID, studentID, "tab_switch", nil)
		if err != nil {
			t.Fatalf("violation %d: error = %v", i, err)
		}
		if d.Action != model.ProctorActionWarn || d.Violations != i {
			t.Fatalf("violation %d: decision = %+v, want WARN/%d", i, d, i)
		}
	}
	if a := f.store.Attempt(f.exam.ID, studentID); a.Status != model.AttemptStatusStarted {
		t.Fatalf("status after warnings = %s, want started", a.Status)
	}

	d, err := f.svc.ReportViolation(ctx, f.exam.ID, studentID, "fullscreen_exit", nil)
	if err != nil {
		t.Fatalf("fifth violation: error = %v", err)
	}
	if d.Action != model.ProctorActionAutoSubmit || d.Violations != 5 {
		t.Fatalf("fifth violation: decision = %+v, want AUTO_SUBMIT/5", d)
	}
	if a := f.store.Attempt(f.exam.ID, studentID); a.Status != model.AttemptStatusAutoSubmitted {
		t.Fatalf("status = %s, want auto_submitted", a.Status)
	}

	if _, err := f.svc.ReportViolation(ctx, f.exam.ID, studentID, "tab_switch", nil); !errors.Is(err, service.ErrAlreadySubmitted) {
		t.Errorf("violation after auto-submit: error = %v, want ErrAlreadySubmitted", err)
	}
}

func TestAttemptService_PublishesMonitorEvents(t *testing.T) {
	f := newFixture(t)
	f.start(t)
	ctx := context.Background()

	if _, err := f.svc.ReportViolation(ctx, f.exam.ID, studentID, "tab_switch", nil); err != nil {
		t.Fatalf("ReportViolation() error = %v", err)
	}
	if _, err := f.svc.Submit(ctx, f.exam.ID, studentID, nil); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	want := []model.MonitorEventType{
		model.MonitorEventAttemptStarted,
		model.MonitorEventViolation,
		model.MonitorEventAttemptFinalized,
	}
	events := f.store.Events()
	if len(events) != len(want) {
		t.Fatalf("events = %d, want %d", len(events), len(want))
	}
	for i, ev := range events {
		if ev.Type != want[i] {
			t.Errorf("event %d type = %s, want %s", i, ev.Type, want[i])
		}
	}
}

func TestAttemptService_MyResultsFinalizesExpired(t *testing.T) {
	f := newFixture(t)
	f.start(t)
	f.now = f.now.Add(2 * time.Hour)

	results, err := f.svc.MyResults(context.Background(), studentID)
	if err != nil {
		t.Fatalf("MyResults() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("results = %d, want 1", len(results))
	}
	if results[0].Status != model.AttemptStatusAutoSubmitted {
		t.Errorf("status = %s, want auto_submitted", results[0].Status)
	}
}
