package model

import (
	"time"

	"github.com/google/uuid"
)

// AttemptStatus enumerates attempt states. Only started is live; the other two are terminal.
type AttemptStatus string

const (
	AttemptStatusStarted       AttemptStatus = "started"
	AttemptStatusSubmitted     AttemptStatus = "submitted"
	AttemptStatusAutoSubmitted AttemptStatus = "auto_submitted"
)

// Final reports whether the status is terminal.
func (s AttemptStatus) Final() bool {
	return s == AttemptStatusSubmitted || s == AttemptStatusAutoSubmitted
}

// Attempt is a student's single try at an exam, stored as a result row.
type Attempt struct {
	ID          uuid.UUID     `json:"attemptId"`
	ExamID      uuid.UUID     `json:"examId"`
	StudentID   int           `json:"studentId"`
	StartedAt   time.Time     `json:"startedAt"`
	SubmittedAt *time.Time    `json:"submittedAt"`
	Status      AttemptStatus `json:"status"`
	Score       *int          `json:"score"`
	Percentage  *float64      `json:"percentage"`
	Passed      *bool         `json:"passed"`
}

// Live reports whether answers may still be written.
func (a *Attempt) Live() bool {
	return a.Status == AttemptStatusStarted
}

// Deadline is the moment the attempt runs out of time, without grace.
func (a *Attempt) Deadline(duration time.Duration) time.Time {
	return a.StartedAt.Add(duration)
}

// ExpiredAt reports whether a live attempt has overrun duration plus grace at now.
func (a *Attempt) ExpiredAt(now time.Time, duration, grace time.Duration) bool {
	return a.Live() && now.Sub(a.StartedAt) > duration+grace
}

// RemainingAt returns the time left before the deadline, floored at zero.
func (a *Attempt) RemainingAt(now time.Time, duration time.Duration) time.Duration {
	left := a.Deadline(duration).Sub(now)
	if left < 0 {
		return 0
	}
	return left
}

// Answer is the stored selection for one question of an attempt. Nil means unanswered.
type Answer struct {
	QuestionID     uuid.UUID `json:"questionId"`
	SelectedOption *string   `json:"selectedOption"`
}

// Finalization is the write-once outcome stored when an attempt leaves started.
type Finalization struct {
	Status      AttemptStatus
	Score       int
	Percentage  float64
	Passed      bool
	SubmittedAt time.Time
}

// StartAttemptResponse is returned to a student who starts an exam.
type StartAttemptResponse struct {
	AttemptID       uuid.UUID `json:"attemptId"`
	StartedAt       time.Time `json:"startedAt"`
	DurationMinutes int       `json:"durationMinutes"`
}

// SubmitAttemptRequest carries the final answers keyed by question ID.
// A missing or empty value leaves the question unanswered.
type SubmitAttemptRequest struct {
	Answers map[string]string `json:"answers" binding:"omitempty,dive,keys,uuid,endkeys,omitempty,optionletter"`
}

// SubmitAttemptResponse is the scored outcome of a submission.
type SubmitAttemptResponse struct {
	Score      int     `json:"score"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
	Passed     bool    `json:"passed"`
}

// ResultSummary is one row of a student's result history.
type ResultSummary struct {
	AttemptID   uuid.UUID     `json:"attemptId"`
	ExamID      uuid.UUID     `json:"examId"`
	ExamTitle   string        `json:"examTitle"`
	Status      AttemptStatus `json:"status"`
	Score       *int          `json:"score"`
	Percentage  *float64      `json:"percentage"`
	Passed      *bool         `json:"passed"`
	StartedAt   time.Time     `json:"startedAt"`
	SubmittedAt *time.Time    `json:"submittedAt"`
}
