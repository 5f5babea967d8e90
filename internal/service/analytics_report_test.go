package service

import (
	"testing"

	"github.com/stemsi/exam-portal-backend/internal/model"
)

func TestRankOfAndTopTeachers(t *testing.T) {
	ranking := []model.TeacherRank{
		{Rank: 1, TeacherID: 4, AveragePercentage: 91},
		{Rank: 2, TeacherID: 7, AveragePercentage: 80},
		{Rank: 2, TeacherID: 9, AveragePercentage: 80},
		{Rank: 4, TeacherID: 3, AveragePercentage: 62},
	}

	tests := []struct {
		teacherID int
		want      int
	}{
		{4, 1},
		{9, 2},
		{3, 4},
		{12, 0},
	}
	for _, tc := range tests {
		if got := rankOf(ranking, tc.teacherID); got != tc.want {
			t.Errorf("rankOf(%d) = %d, want %d", tc.teacherID, got, tc.want)
		}
	}

	top := topTeachers(ranking, 2)
	if len(top) != 2 || top[0].TeacherID != 4 || top[1].TeacherID != 7 {
		t.Errorf("topTeachers(2) = %+v", top)
	}
	top[0].TeacherID = 99
	if ranking[0].TeacherID != 4 {
		t.Error("topTeachers shares its backing array with the ranking")
	}
	if got := topTeachers(ranking, 10); len(got) != len(ranking) {
		t.Errorf("topTeachers(10) returned %d rows, want %d", len(got), len(ranking))
	}
}

func TestOverviewOf(t *testing.T) {
	tests := []struct {
		name string
		rows []model.TeacherStudentRow
		want model.TeacherStudentOverview
	}{
		{"empty", nil, model.TeacherStudentOverview{}},
		{
			"repeat student counted once",
			[]model.TeacherStudentRow{
				{StudentID: 1, Percentage: 80, Passed: true},
				{StudentID: 1, Percentage: 40},
				{StudentID: 2, Percentage: 60, Passed: true},
				{StudentID: 3, Percentage: 20},
			},
			model.TeacherStudentOverview{TotalStudents: 3, ClassAverage: 50, PassRate: 50},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := overviewOf(tc.rows); got != tc.want {
				t.Errorf("overviewOf() = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestAverageScore(t *testing.T) {
	if got := averageScore(nil); got != 0 {
		t.Errorf("averageScore(nil) = %v, want 0", got)
	}
	scores := []model.StudentExamScore{{Percentage: 100}, {Percentage: 50}, {Percentage: 0}}
	if got := averageScore(scores); got != 50 {
		t.Errorf("averageScore() = %v, want 50", got)
	}
}
