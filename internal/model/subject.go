package model

import "time"

// Subject represents an academic course that questions and exams belong to.
type Subject struct {
	ID              int       `json:"id"`
	Name            string    `json:"name"`
	DifficultyLevel string    `json:"difficultyLevel"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// CreateSubjectRequest is the payload for creating a subject.
type CreateSubjectRequest struct {
	Name            string `json:"name" binding:"required,min=2,max=100"`
	DifficultyLevel string `json:"difficultyLevel" binding:"omitempty,oneof=easy medium hard"`
}

// UpdateSubjectRequest is the payload for updating a subject.
type UpdateSubjectRequest struct {
	Name            string `json:"name" binding:"required,min=2,max=100"`
	DifficultyLevel string `json:"difficultyLevel" binding:"omitempty,oneof=easy medium hard"`
}
