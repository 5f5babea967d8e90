package model

import (
	"testing"
	"time"
)

func TestExamAvailabilityAt(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)
	exam := &Exam{StartTime: start, EndTime: end}

	tests := []struct {
		name string
		now  time.Time
		want Availability
	}{
		{"before start", start.Add(-time.Second), AvailabilityUpcoming},
		{"at start", start, AvailabilityOngoing},
		{"inside window", start.Add(time.Hour), AvailabilityOngoing},
		{"at end", end, AvailabilityOngoing},
		{"after end", end.Add(time.Nanosecond), AvailabilityCompleted},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := exam.AvailabilityAt(tc.now); got != tc.want {
				t.Errorf("AvailabilityAt(%v) = %q, want %q", tc.now, got, tc.want)
			}
		})
	}
}

func TestUpdateExamRequestChangesSchedule(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	exam := &Exam{Title: "Algebra", DurationMinutes: 30, StartTime: start, EndTime: start.Add(time.Hour)}

	title := "Algebra II"
	same := 30
	longer := 45
	later := start.Add(time.Minute)

	tests := []struct {
		name string
		req  UpdateExamRequest
		want bool
	}{
		{"title only", UpdateExamRequest{Title: &title}, false},
		{"same duration", UpdateExamRequest{DurationMinutes: &same}, false},
		{"new duration", UpdateExamRequest{DurationMinutes: &longer}, true},
		{"moved start", UpdateExamRequest{StartTime: &later}, true},
		{"same start", UpdateExamRequest{StartTime: &start}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.req.ChangesSchedule(exam); got != tc.want {
				t.Errorf("ChangesSchedule() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestAttemptExpiredAt(t *testing.T) {
	started := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	duration := 30 * time.Minute
	grace := 30 * time.Second

	tests := []struct {
		name    string
		status  AttemptStatus
		elapsed time.Duration
		want    bool
	}{
		{"within duration", AttemptStatusStarted, 10 * time.Minute, false},
		{"inside grace", AttemptStatusStarted, duration + 10*time.Second, false},
		{"exactly at grace", AttemptStatusStarted, duration + grace, false},
		{"past grace", AttemptStatusStarted, duration + grace + time.Second, true},
		{"finalized never expires", AttemptStatusSubmitted, 5 * time.Hour, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a := &Attempt{Status: tc.status, StartedAt: started}
			if got := a.ExpiredAt(started.Add(tc.elapsed), duration, grace); got != tc.want {
				t.Errorf("ExpiredAt() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestAttemptRemainingAt(t *testing.T) {
	started := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	a := &Attempt{Status: AttemptStatusStarted, StartedAt: started}

	if got := a.RemainingAt(started.Add(10*time.Minute), 30*time.Minute); got != 20*time.Minute {
		t.Errorf("RemainingAt = %v, want 20m", got)
	}
	if got := a.RemainingAt(started.Add(time.Hour), 30*time.Minute); got != 0 {
		t.Errorf("RemainingAt after deadline = %v, want 0", got)
	}
}

func TestDateRangeBounds(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC) }

	tests := []struct {
		name     string
		r        DateRange
		from, to *time.Time
	}{
		{"open", DateRange{}, nil, nil},
		{"start only", DateRange{StartDate: day(2)}, ptr(day(2)), nil},
		{"end is inclusive", DateRange{EndDate: day(5)}, nil, ptr(day(6))},
		{"single day", DateRange{StartDate: day(4), EndDate: day(4)}, ptr(day(4)), ptr(day(5))},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			from, to := tc.r.Bounds()
			if !sameTime(from, tc.from) || !sameTime(to, tc.to) {
				t.Errorf("Bounds() = (%v, %v), want (%v, %v)", from, to, tc.from, tc.to)
			}
		})
	}
}

func ptr(t time.Time) *time.Time { return &t }

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
