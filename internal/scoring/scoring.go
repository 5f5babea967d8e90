// Package scoring grades a set of answers against an exam's answer key.
package scoring

import (
	"strings"

	"github.com/google/uuid"
)

// PassPercentage is the inclusive pass mark.
const PassPercentage = 40.0

// Question is the part of a question needed for grading.
type Question struct {
	ID            uuid.UUID
	CorrectOption string
}

// Result is the outcome of grading one attempt.
type Result struct {
	Score      int
	Total      int
	Percentage float64
	Passed     bool
}

// Score counts answers matching the correct option, ignoring letter case and
// surrounding whitespace. Answers for questions outside the key are ignored and
// an empty answer is treated as unanswered. With no questions the percentage is 0.
func Score(questions []Question, answers map[uuid.UUID]string) Result {
	res := Result{Total: len(questions)}

	for _, q := range questions {
		given := Normalize(answers[q.ID])
		if given == "" {
			continue
		}
		if given == Normalize(q.CorrectOption) {
			res.Score++
		}
	}

	if res.Total > 0 {
		res.Percentage = float64(res.Score) / float64(res.Total) * 100
	}
	res.Passed = res.Percentage >= PassPercentage

	return res
}

// Normalize upper-cases and trims an option letter for storage and comparison.
func Normalize(letter string) string {
	return strings.ToUpper(strings.TrimSpace(letter))
}

// ValidOption reports whether a normalized letter names one of the four options.
func ValidOption(letter string) bool {
	switch letter {
	case "A", "B", "C", "D":
		return true
	}
	return false
}
