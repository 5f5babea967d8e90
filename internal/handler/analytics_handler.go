package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exam-portal-backend/internal/middleware"
	"github.com/stemsi/exam-portal-backend/internal/model"
	"github.com/stemsi/exam-portal-backend/internal/response"
	"github.com/stemsi/exam-portal-backend/internal/service"
	"github.com/stemsi/exam-portal-backend/internal/validator"
)

// AnalyticsHandler serves the read-only dashboards of every role.
type AnalyticsHandler struct {
	analyticsService *service.AnalyticsService
	log              zerolog.Logger
}

// NewAnalyticsHandler creates a new AnalyticsHandler.
func NewAnalyticsHandler(analyticsService *service.AnalyticsService, log zerolog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		analyticsService: analyticsService,
		log:              log.With().Str("component", "analytics_handler").Logger(),
	}
}

// MySubjects godoc
// GET /api/v1/analytics/student/subjects
func (h *AnalyticsHandler) MySubjects(c *gin.Context) {
	rows, err := h.analyticsService.SubjectPerformance(c.Request.Context(), middleware.GetActor(c).ID)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	if rows == nil {
		rows = []model.SubjectPerformance{}
	}
	response.Success(c, http.StatusOK, rows)
}

// MyWrongQuestions godoc
// GET /api/v1/analytics/student/wrong-questions
// Lists questions the student answered wrongly or left blank in finished attempts.
func (h *AnalyticsHandler) MyWrongQuestions(c *gin.Context) {
	rows, err := h.analyticsService.WrongQuestions(c.Request.Context(), middleware.GetActor(c).ID)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	if rows == nil {
		rows = []model.WrongQuestion{}
	}
	response.Success(c, http.StatusOK, rows)
}

// ExamAnalytics godoc
// GET /api/v1/analytics/teacher/exams/:exam_id
func (h *AnalyticsHandler) ExamAnalytics(c *gin.Context) {
	examID, ok := uuidParam(c, "exam_id")
	if !ok {
		return
	}

	stats, err := h.analyticsService.ExamAnalytics(c.Request.Context(), middleware.GetActor(c), examID)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, stats)
}

// Results godoc
// GET /api/v1/analytics/teacher/results?examId=
func (h *AnalyticsHandler) Results(c *gin.Context) {
	examID, ok := optionalExamID(c)
	if !ok {
		return
	}

	rows, err := h.analyticsService.Results(c.Request.Context(), middleware.GetActor(c), examID)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	if rows == nil {
		rows = []model.ExamResultRow{}
	}
	response.Success(c, http.StatusOK, rows)
}

// Violations godoc
// GET /api/v1/analytics/teacher/violations?examId=
func (h *AnalyticsHandler) Violations(c *gin.Context) {
	examID, ok := optionalExamID(c)
	if !ok {
		return
	}

	rows, err := h.analyticsService.Violations(c.Request.Context(), middleware.GetActor(c), examID)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	if rows == nil {
		rows = []model.ViolationRow{}
	}
	response.Success(c, http.StatusOK, rows)
}

// Dashboard godoc
// GET /api/v1/admin/dashboard
func (h *AnalyticsHandler) Dashboard(c *gin.Context) {
	summary, err := h.analyticsService.Dashboard(c.Request.Context())
	if err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, summary)
}

// Subjects godoc
// GET /api/v1/admin/analytics/subjects
func (h *AnalyticsHandler) Subjects(c *gin.Context) {
	rows, err := h.analyticsService.SubjectAnalytics(c.Request.Context())
	if err != nil {
		fail(c, h.log, err)
		return
	}
	if rows == nil {
		rows = []model.SubjectAnalytics{}
	}
	response.Success(c, http.StatusOK, rows)
}

// TeacherStudents godoc
// GET /api/v1/analytics/teacher/students
func (h *AnalyticsHandler) TeacherStudents(c *gin.Context) {
	report, err := h.analyticsService.TeacherStudents(c.Request.Context(), middleware.GetActor(c))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, report)
}

// TeacherSubjects godoc
// GET /api/v1/analytics/teacher/subjects
func (h *AnalyticsHandler) TeacherSubjects(c *gin.Context) {
	rows, err := h.analyticsService.TeacherSubjects(c.Request.Context(), middleware.GetActor(c))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	if rows == nil {
		rows = []model.TeacherSubjectPerformance{}
	}
	response.Success(c, http.StatusOK, rows)
}

// TeacherSelf godoc
// GET /api/v1/analytics/teacher/self?startDate=&endDate=
func (h *AnalyticsHandler) TeacherSelf(c *gin.Context) {
	var r model.DateRange
	if fields := validator.BindQuery(c, &r); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	report, err := h.analyticsService.TeacherSelf(c.Request.Context(), middleware.GetActor(c), r)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, report)
}

// TeacherReport godoc
// GET /api/v1/admin/analytics/teachers?teacherId=&startDate=&endDate=
func (h *AnalyticsHandler) TeacherReport(c *gin.Context) {
	var q model.TeacherAnalyticsQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	report, err := h.analyticsService.TeacherAnalytics(c.Request.Context(), q)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, report)
}

// StudentReport godoc
// GET /api/v1/admin/analytics/students?studentId=&startDate=&endDate=
func (h *AnalyticsHandler) StudentReport(c *gin.Context) {
	var q model.StudentAnalyticsQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	report, err := h.analyticsService.StudentAnalytics(c.Request.Context(), q)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, report)
}
