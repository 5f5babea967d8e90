package model

import (
	"time"

	"github.com/google/uuid"
)

// ProctorAction is the monitor's instruction to the client after a violation.
type ProctorAction string

const (
	ProctorActionWarn       ProctorAction = "WARN"
	ProctorActionAutoSubmit ProctorAction = "AUTO_SUBMIT"
)

// Violation is one append-only proctoring event.
type Violation struct {
	ID        int64     `json:"id"`
	StudentID int       `json:"studentId"`
	ExamID    uuid.UUID `json:"examId"`
	Type      string    `json:"violationType"`
	Details   *string   `json:"details"`
	CreatedAt time.Time `json:"createdAt"`
}

// ViolationRequest is reported by the exam client.
type ViolationRequest struct {
	ExamID        string  `json:"examId" binding:"required,uuid"`
	ViolationType string  `json:"violationType" binding:"required,min=1,max=64"`
	Details       *string `json:"details" binding:"omitempty,max=2000"`
}

// ProctorDecision is the result of recording a violation.
type ProctorDecision struct {
	Action     ProctorAction `json:"action"`
	Violations int           `json:"violations"`
}
