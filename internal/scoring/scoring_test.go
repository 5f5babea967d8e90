package scoring

import (
	"math"
	"testing"

	"github.com/google/uuid"
)

func TestScore(t *testing.T) {
	q1, q2, q3 := uuid.New(), uuid.New(), uuid.New()
	key := []Question{
		{ID: q1, CorrectOption: "A"},
		{ID: q2, CorrectOption: "B"},
	}

	tests := []struct {
		name      string
		questions []Question
		answers   map[uuid.UUID]string
		want      Result
	}{
		{
			name: "no questions no answers",
			want: Result{Score: 0, Total: 0, Percentage: 0, Passed: false},
		},
		{
			name:      "no answers",
			questions: key,
			answers:   map[uuid.UUID]string{},
			want:      Result{Score: 0, Total: 2, Percentage: 0, Passed: false},
		},
		{
			name:      "all correct",
			questions: key,
			answers:   map[uuid.UUID]string{q1: "A", q2: "B"},
			want:      Result{Score: 2, Total: 2, Percentage: 100, Passed: true},
		},
		{
			name:      "half correct passes at forty",
			questions: key,
			answers:   map[uuid.UUID]string{q1: "A", q2: "C"},
			want:      Result{Score: 1, Total: 2, Percentage: 50, Passed: true},
		},
		{
			name:      "lower case matches",
			questions: key,
			answers:   map[uuid.UUID]string{q1: "a", q2: " b "},
			want:      Result{Score: 2, Total: 2, Percentage: 100, Passed: true},
		},
		{
			name:      "empty answer is unanswered",
			questions: []Question{{ID: q1, CorrectOption: ""}},
			answers:   map[uuid.UUID]string{q1: ""},
			want:      Result{Score: 0, Total: 1, Percentage: 0, Passed: false},
		},
		{
			name:      "answers outside the key are ignored",
			questions: key,
			answers:   map[uuid.UUID]string{q3: "A"},
			want:      Result{Score: 0, Total: 2, Percentage: 0, Passed: false},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Score(tc.questions, tc.answers)
			if got != tc.want {
				t.Errorf("Score() = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestScorePassBoundary(t *testing.T) {
	questions := make([]Question, 5)
	answers := make(map[uuid.UUID]string)
	for i := range questions {
		questions[i] = Question{ID: uuid.New(), CorrectOption: "D"}
	}
	answers[questions[0].ID] = "D"
	answers[questions[1].ID] = "d"

	got := Score(questions, answers)
	if math.Abs(got.Percentage-40) > 1e-9 {
		t.Fatalf("percentage = %v, want 40", got.Percentage)
	}
	if !got.Passed {
		t.Error("exactly 40% should pass")
	}

	answers[questions[1].ID] = "A"
	got = Score(questions, answers)
	if got.Passed {
		t.Errorf("20%% should fail, got %+v", got)
	}
}

func TestScoreOrderIndependent(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	answers := map[uuid.UUID]string{a: "A", b: "C", c: "C"}

	forward := Score([]Question{{a, "A"}, {b, "B"}, {c, "C"}}, answers)
	reverse := Score([]Question{{c, "C"}, {b, "B"}, {a, "A"}}, answers)
	if forward != reverse {
		t.Errorf("order changed result: %+v vs %+v", forward, reverse)
	}
}
