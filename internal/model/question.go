package model

import (
	"time"

	"github.com/google/uuid"
)

// Question is a four-option multiple-choice item owned by a subject.
// Questions have no update path, so a question linked to an exam never changes.
type Question struct {
	ID            uuid.UUID `json:"id"`
	SubjectID     int       `json:"subjectId"`
	Text          string    `json:"questionText"`
	OptionA       string    `json:"optionA"`
	OptionB       string    `json:"optionB"`
	OptionC       string    `json:"optionC"`
	OptionD       string    `json:"optionD"`
	CorrectOption string    `json:"correctOption"`
	CreatedBy     int       `json:"createdBy"`
	CreatedAt     time.Time `json:"createdAt"`
}

// ForStudent strips the correct option.
func (q *Question) ForStudent() QuestionForStudent {
	return QuestionForStudent{
		ID:      q.ID,
		Text:    q.Text,
		OptionA: q.OptionA,
		OptionB: q.OptionB,
		OptionC: q.OptionC,
		OptionD: q.OptionD,
	}
}

// OptionText returns the text behind an option letter, or "" for an unknown letter.
func (q *Question) OptionText(letter string) string {
	switch letter {
	case "A":
		return q.OptionA
	case "B":
		return q.OptionB
	case "C":
		return q.OptionC
	case "D":
		return q.OptionD
	}
	return ""
}

// QuestionForStudent is a question without the correct answer, sent to students.
type QuestionForStudent struct {
	ID      uuid.UUID `json:"id"`
	Text    string    `json:"questionText"`
	OptionA string    `json:"optionA"`
	OptionB string    `json:"optionB"`
	OptionC string    `json:"optionC"`
	OptionD string    `json:"optionD"`
}

// CreateQuestionRequest is the payload for authoring a question.
type CreateQuestionRequest struct {
	SubjectID     int    `json:"subjectId" binding:"required,min=1"`
	Text          string `json:"questionText" binding:"required,min=1,max=2000"`
	OptionA       string `json:"optionA" binding:"required,max=500"`
	OptionB       string `json:"optionB" binding:"required,max=500"`
	OptionC       string `json:"optionC" binding:"required,max=500"`
	OptionD       string `json:"optionD" binding:"required,max=500"`
	CorrectOption string `json:"correctOption" binding:"required,optionletter"`
}

// QuestionFilter narrows question listings.
type QuestionFilter struct {
	SubjectID int `form:"subjectId" binding:"omitempty,min=1"`
}
