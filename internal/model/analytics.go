package model

import (
	"time"

	"github.com/google/uuid"
)

// SubjectPerformance is a student's average percentage per subject.
type SubjectPerformance struct {
	SubjectID         int     `json:"subjectId"`
	Subject           string  `json:"subject"`
	Attempts          int     `json:"attempts"`
	AveragePercentage float64 `json:"average"`
}

// WrongQuestion is a finalized answer that did not match the correct option.
type WrongQuestion struct {
	ExamID            uuid.UUID `json:"examId"`
	ExamTitle         string    `json:"examTitle"`
	QuestionID        uuid.UUID `json:"questionId"`
	QuestionText      string    `json:"questionText"`
	SubjectName       string    `json:"subjectName"`
	StudentOption     *string   `json:"studentOption"`
	StudentAnswerText *string   `json:"studentAnswerText"`
	CorrectOption     string    `json:"correctOption"`
	CorrectAnswerText string    `json:"correctAnswerText"`
}

// ExamAnalytics aggregates all attempts of one exam.
type ExamAnalytics struct {
	ExamID            uuid.UUID `json:"examId"`
	Title             string    `json:"title"`
	QuestionCount     int       `json:"questionCount"`
	Participants      int       `json:"participants"`
	InProgress        int       `json:"inProgress"`
	Submitted         int       `json:"submitted"`
	AutoSubmitted     int       `json:"autoSubmitted"`
	PassCount         int       `json:"passCount"`
	PassRate          float64   `json:"passRate"`
	AveragePercentage float64   `json:"averagePercentage"`
	HighestPercentage float64   `json:"highestPercentage"`
	LowestPercentage  float64   `json:"lowestPercentage"`
	ViolationCount    int       `json:"violationCount"`
}

// ExamResultRow is one student's attempt as seen by the exam owner.
type ExamResultRow struct {
	AttemptID   uuid.UUID     `json:"attemptId"`
	ExamID      uuid.UUID     `json:"examId"`
	ExamTitle   string        `json:"examTitle"`
	StudentID   int           `json:"studentId"`
	StudentName string        `json:"studentName"`
	Email       string        `json:"email"`
	Status      AttemptStatus `json:"status"`
	Score       *int          `json:"score"`
	Percentage  *float64      `json:"percentage"`
	Passed      *bool         `json:"passed"`
	StartedAt   time.Time     `json:"startedAt"`
	SubmittedAt *time.Time    `json:"submittedAt"`
	Violations  int           `json:"violations"`
}

// ViolationRow is a violation joined with student and exam names.
type ViolationRow struct {
	ID            int64     `json:"id"`
	ExamID        uuid.UUID `json:"examId"`
	ExamTitle     string    `json:"examTitle"`
	StudentID     int       `json:"studentId"`
	StudentName   string    `json:"studentName"`
	ViolationType string    `json:"violationType"`
	Details       *string   `json:"details"`
	CreatedAt     time.Time `json:"createdAt"`
}

// SubjectAnalytics aggregates exams and results per subject for admins.
type SubjectAnalytics struct {
	SubjectID         int     `json:"subjectId"`
	Name              string  `json:"name"`
	DifficultyLevel   string  `json:"difficultyLevel"`
	ExamCount         int     `json:"examCount"`
	QuestionCount     int     `json:"questionCount"`
	Attempts          int     `json:"attempts"`
	AveragePercentage float64 `json:"averagePercentage"`
	PassRate          float64 `json:"passRate"`
}

// UpcomingExam is a minimal exam row for the dashboard.
type UpcomingExam struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	StartTime       time.Time `json:"startTime"`
	DurationMinutes int       `json:"durationMinutes"`
}

// RecentExamResult summarizes a finished exam window.
type RecentExamResult struct {
	ID                uuid.UUID `json:"id"`
	Title             string    `json:"title"`
	EndTime           time.Time `json:"endTime"`
	Participants      int       `json:"participants"`
	AveragePercentage *float64  `json:"averagePercentage"`
}

// DashboardSummary is the admin landing page.
type DashboardSummary struct {
	TotalStudents  int                  `json:"totalStudents"`
	TotalTeachers  int                  `json:"totalTeachers"`
	TotalSubjects  int                  `json:"totalSubjects"`
	TotalQuestions int                  `json:"totalQuestions"`
	TotalExams     int                  `json:"totalExams"`
	Availability   map[Availability]int `json:"availability"`
	UpcomingExams  []UpcomingExam       `json:"upcomingExams"`
	RecentExams    []RecentExamResult   `json:"recentExams"`
}

// DateRange limits cross-exam analytics to exams starting inside it. Both ends
// are calendar days; EndDate is inclusive. Zero values leave that end open.
type DateRange struct {
	StartDate time.Time `form:"startDate" json:"startDate" time_format:"2006-01-02"`
	EndDate   time.Time `form:"endDate" json:"endDate" time_format:"2006-01-02" binding:"omitempty,gtefield=StartDate"`
}

// Bounds returns the half-open [from, to) interval for SQL filters. Nil means unbounded.
func (d DateRange) Bounds() (from, to *time.Time) {
	if !d.StartDate.IsZero() {
		start := d.StartDate
		from = &start
	}
	if !d.EndDate.IsZero() {
		end := d.EndDate.AddDate(0, 0, 1)
		to = &end
	}
	return from, to
}

// TeacherAnalyticsQuery selects one teacher for the admin report.
type TeacherAnalyticsQuery struct {
	TeacherID int `form:"teacherId" json:"teacherId" binding:"required,min=1"`
	DateRange
}

// StudentAnalyticsQuery selects one student for the admin report.
type StudentAnalyticsQuery struct {
	StudentID int `form:"studentId" json:"studentId" binding:"required,min=1"`
	DateRange
}

// TeacherRank places a teacher by the average percentage over their exams.
type TeacherRank struct {
	Rank              int     `json:"rank"`
	TeacherID         int     `json:"teacherId"`
	Teacher           string  `json:"teacher"`
	Attempts          int     `json:"attempts"`
	AveragePercentage float64 `json:"averagePercentage"`
}

// ExamProgress is the average result of one exam, ordered by start time in reports.
type ExamProgress struct {
	ExamID            uuid.UUID `json:"examId"`
	Title             string    `json:"title"`
	StartTime         time.Time `json:"startTime"`
	Attempts          int       `json:"attempts"`
	AveragePercentage float64   `json:"averagePercentage"`
}

// HeatmapCell is one student's percentage on one exam.
type HeatmapCell struct {
	StudentID  int       `json:"studentId"`
	Student    string    `json:"student"`
	ExamID     uuid.UUID `json:"examId"`
	Exam       string    `json:"exam"`
	Percentage float64   `json:"percentage"`
}

// TeacherStats are the finalized-attempt aggregates over a teacher's exams.
type TeacherStats struct {
	Attempts          int     `json:"attempts"`
	Students          int     `json:"students"`
	AveragePercentage float64 `json:"averagePercentage"`
	PassRate          float64 `json:"passRate"`
}

// TeacherSummary compares a teacher with every other teacher. Rank is 0 when the
// teacher has no finalized attempts in range.
type TeacherSummary struct {
	TeacherID      int     `json:"teacherId"`
	Teacher        string  `json:"teacher"`
	TeacherAverage float64 `json:"teacherAverage"`
	OverallAverage float64 `json:"overallAverage"`
	TotalStudents  int     `json:"totalStudents"`
	Rank           int     `json:"rank"`
	RankedTeachers int     `json:"rankedTeachers"`
}

// TeacherAnalytics is the admin report on one teacher.
type TeacherAnalytics struct {
	Summary  TeacherSummary `json:"summary"`
	Ranking  []TeacherRank  `json:"ranking"`
	Progress []ExamProgress `json:"progress"`
	Heatmap  []HeatmapCell  `json:"heatmap"`
}

// StudentExamScore is one finalized attempt in a student's history.
type StudentExamScore struct {
	ExamID     uuid.UUID     `json:"examId"`
	Exam       string        `json:"exam"`
	Subject    string        `json:"subject"`
	StartTime  time.Time     `json:"startTime"`
	Status     AttemptStatus `json:"status"`
	Score      int           `json:"score"`
	Percentage float64       `json:"percentage"`
	Passed     bool          `json:"passed"`
}

// StudentSummary compares a student with the classes they sat in and with everyone.
type StudentSummary struct {
	StudentID      int     `json:"studentId"`
	Student        string  `json:"student"`
	ExamsTaken     int     `json:"examsTaken"`
	StudentAverage float64 `json:"studentAverage"`
	ClassAverage   float64 `json:"classAverage"`
	OverallAverage float64 `json:"overallAverage"`
}

// StudentAnalytics is the admin report on one student.
type StudentAnalytics struct {
	Summary    StudentSummary     `json:"summary"`
	ExamScores []StudentExamScore `json:"examScores"`
}

// TeacherStudentRow is a finalized attempt on one of the teacher's exams.
type TeacherStudentRow struct {
	StudentID   int        `json:"studentId"`
	StudentName string     `json:"studentName"`
	ExamID      uuid.UUID  `json:"examId"`
	Exam        string     `json:"exam"`
	Subject     string     `json:"subject"`
	Score       int        `json:"score"`
	Percentage  float64    `json:"percentage"`
	Passed      bool       `json:"passed"`
	SubmittedAt *time.Time `json:"submittedAt"`
}

// TeacherStudentOverview summarizes TeacherStudentRow lists.
type TeacherStudentOverview struct {
	TotalStudents int     `json:"totalStudents"`
	ClassAverage  float64 `json:"classAverage"`
	PassRate      float64 `json:"passRate"`
}

// TeacherStudentAnalytics lists the teacher's students with an overview.
type TeacherStudentAnalytics struct {
	Overview TeacherStudentOverview `json:"overview"`
	Students []TeacherStudentRow    `json:"students"`
}

// TeacherSubjectPerformance aggregates a teacher's finalized attempts per subject.
type TeacherSubjectPerformance struct {
	SubjectID         int     `json:"subjectId"`
	Subject           string  `json:"subject"`
	Attempts          int     `json:"attempts"`
	AveragePercentage float64 `json:"averagePercentage"`
	PassRate          float64 `json:"passRate"`
}

// SubjectViolations counts proctoring violations per subject.
type SubjectViolations struct {
	SubjectID  int    `json:"subjectId"`
	Subject    string `json:"subject"`
	Violations int    `json:"violations"`
}

// TeacherSelfSummary is the headline of a teacher's own report.
type TeacherSelfSummary struct {
	TeacherAverage float64 `json:"teacherAverage"`
	OverallAverage float64 `json:"overallAverage"`
	PassRate       float64 `json:"passRate"`
	Rank           int     `json:"rank"`
}

// TeacherSelfAnalytics is a teacher's report on their own exams.
type TeacherSelfAnalytics struct {
	Summary     TeacherSelfSummary  `json:"summary"`
	Progress    []ExamProgress      `json:"progress"`
	TopTeachers []TeacherRank       `json:"topTeachers"`
	Violations  []SubjectViolations `json:"violations"`
}
