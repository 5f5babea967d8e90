package model

import (
	"time"

	"github.com/google/uuid"
)

// ExamStatus is the authoring state of an exam. Students only see published exams.
type ExamStatus string

const (
	ExamStatusDraft     ExamStatus = "draft"
	ExamStatusPublished ExamStatus = "published"
)

// Availability is derived from the exam window and the current time. It is never stored.
type Availability string

const (
	AvailabilityUpcoming  Availability = "upcoming"
	AvailabilityOngoing   Availability = "ongoing"
	AvailabilityCompleted Availability = "completed"
)

// Exam represents a scheduled, timed exam.
type Exam struct {
	ID              uuid.UUID  `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	DurationMinutes int        `json:"durationMinutes"`
	SubjectID       int        `json:"subjectId"`
	SubjectName     string     `json:"subjectName,omitempty"`
	CreatedBy       int        `json:"createdBy"`
	StartTime       time.Time  `json:"startTime"`
	EndTime         time.Time  `json:"endTime"`
	Status          ExamStatus `json:"status"`
	QuestionCount   int        `json:"questionCount"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// AvailabilityAt classifies now against the inclusive window [StartTime, EndTime].
func (e *Exam) AvailabilityAt(now time.Time) Availability {
	switch {
	case now.Before(e.StartTime):
		return AvailabilityUpcoming
	case now.After(e.EndTime):
		return AvailabilityCompleted
	default:
		return AvailabilityOngoing
	}
}

// Duration returns the allowed time per attempt.
func (e *Exam) Duration() time.Duration {
	return time.Duration(e.DurationMinutes) * time.Minute
}

// ExamListItem decorates an exam with its derived availability for listings.
type ExamListItem struct {
	Exam
	Availability Availability   `json:"availability"`
	Attempt      *AttemptStatus `json:"attemptStatus,omitempty"`
}

// CreateExamRequest is the payload for creating a new exam.
type CreateExamRequest struct {
	Title           string     `json:"title" binding:"required,min=3,max=255"`
	Description     string     `json:"description" binding:"omitempty,max=2000"`
	DurationMinutes int        `json:"durationMinutes" binding:"required,min=1,max=600"`
	SubjectID       int        `json:"subjectId" binding:"required,min=1"`
	StartTime       time.Time  `json:"startTime" binding:"required"`
	EndTime         time.Time  `json:"endTime" binding:"required,gtfield=StartTime"`
	Status          ExamStatus `json:"status" binding:"omitempty,oneof=draft published"`
}

// UpdateExamRequest is the payload for updating an existing exam. Nil fields are left unchanged.
type UpdateExamRequest struct {
	Title           *string     `json:"title" binding:"omitempty,min=3,max=255"`
	Description     *string     `json:"description" binding:"omitempty,max=2000"`
	DurationMinutes *int        `json:"durationMinutes" binding:"omitempty,min=1,max=600"`
	SubjectID       *int        `json:"subjectId" binding:"omitempty,min=1"`
	StartTime       *time.Time  `json:"startTime" binding:"omitempty"`
	EndTime         *time.Time  `json:"endTime" binding:"omitempty"`
	Status          *ExamStatus `json:"status" binding:"omitempty,oneof=draft published"`
}

// ChangesSchedule reports whether the request touches the duration or the window.
func (r *UpdateExamRequest) ChangesSchedule(e *Exam) bool {
	if r.DurationMinutes != nil && *r.DurationMinutes != e.DurationMinutes {
		return true
	}
	if r.StartTime != nil && !r.StartTime.Equal(e.StartTime) {
		return true
	}
	if r.EndTime != nil && !r.EndTime.Equal(e.EndTime) {
		return true
	}
	return false
}

// Apply copies the set fields onto e.
func (r *UpdateExamRequest) Apply(e *Exam) {
	if r.Title != nil {
		e.Title = *r.Title
	}
	if r.Description != nil {
		e.Description = *r.Description
	}
	if r.DurationMinutes != nil {
		e.DurationMinutes = *r.DurationMinutes
	}
	if r.SubjectID != nil {
		e.SubjectID = *r.SubjectID
	}
	if r.StartTime != nil {
		e.StartTime = *r.StartTime
	}
	if r.EndTime != nil {
		e.EndTime = *r.EndTime
	}
	if r.Status != nil {
		e.Status = *r.Status
	}
}

// LinkQuestionsRequest adds questions to an exam. Already linked questions are ignored.
type LinkQuestionsRequest struct {
	QuestionIDs []string `json:"questionIds" binding:"required,min=1,max=500,dive,uuid"`
}

// TakeExamView is what a student sees while an attempt is live.
type TakeExamView struct {
	Exam             Exam                 `json:"exam"`
	Questions        []QuestionForStudent `json:"questions"`
	AttemptID        uuid.UUID            `json:"attemptId"`
	StartedAt        time.Time            `json:"startedAt"`
	RemainingSeconds int                  `json:"remainingSeconds"`
	SavedAnswers     map[uuid.UUID]string `json:"savedAnswers"`
}
