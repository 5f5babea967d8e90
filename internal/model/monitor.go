package model

import (
	"time"

	"github.com/google/uuid"
)

// MonitorEventType names the live events pushed to exam monitors.
type MonitorEventType string

const (
	MonitorEventAttemptStarted   MonitorEventType = "attempt_started"
	MonitorEventAttemptFinalized MonitorEventType = "attempt_finalized"
	MonitorEventViolation        MonitorEventType = "violation"
)

// MonitorEvent is published on the exam's monitor channel and forwarded to SSE clients as-is.
type MonitorEvent struct {
	Type          MonitorEventType `json:"type"`
	ExamID        uuid.UUID        `json:"examId"`
	StudentID     int              `json:"studentId"`
	AttemptID     *uuid.UUID       `json:"attemptId,omitempty"`
	Status        AttemptStatus    `json:"status,omitempty"`
	Percentage    *float64         `json:"percentage,omitempty"`
	ViolationType string           `json:"violationType,omitempty"`
	Violations    int              `json:"violations,omitempty"`
	At            time.Time        `json:"at"`
}

// MonitorStudent is one row of the monitor snapshot.
type MonitorStudent struct {
	StudentID     int           `json:"studentId"`
	FullName      string        `json:"fullName"`
	Status        AttemptStatus `json:"status"`
	StartedAt     time.Time     `json:"startedAt"`
	Percentage    *float64      `json:"percentage"`
	AnsweredCount int64         `json:"answeredCount"`
	Violations    int64         `json:"violations"`
}
