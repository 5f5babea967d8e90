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

// ExamHandler handles exam catalog endpoints.
type ExamHandler struct {
	examService *service.ExamService
	log         zerolog.Logger
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(examService *service.ExamService, log zerolog.Logger) *ExamHandler {
	return &ExamHandler{
		examService: examService,
		log:         log.With().Str("component", "exam_handler").Logger(),
	}
}

// List godoc
// GET /api/v1/exams
// Students see published exams with their attempt status, teachers their own
// exams and admins every exam.
func (h *ExamHandler) List(c *gin.Context) {
	exams, err := h.examService.List(c.Request.Context(), middleware.GetActor(c))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	if exams == nil {
		exams = []model.ExamListItem{}
	}
	response.Success(c, http.StatusOK, exams)
}

// Get godoc
// GET /api/v1/exams/:exam_id
func (h *ExamHandler) Get(c *gin.Context) {
	examID, ok := uuidParam(c, "exam_id")
	if !ok {
		return
	}

	exam, err := h.examService.Get(c.Request.Context(), middleware.GetActor(c), examID)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, exam)
}

// Create godoc
// POST /api/v1/exams
func (h *ExamHandler) Create(c *gin.Context) {
	var req model.CreateExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	exam, err := h.examService.Create(c.Request.Context(), middleware.GetActor(c), &req)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, exam)
}

// Update godoc
// PUT /api/v1/exams/:exam_id
func (h *ExamHandler) Update(c *gin.Context) {
	examID, ok := uuidParam(c, "exam_id")
	if !ok {
		return
	}

	var req model.UpdateExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	exam, err := h.examService.Update(c.Request.Context(), middleware.GetActor(c), examID, &req)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, exam)
}

// Delete godoc
// DELETE /api/v1/exams/:exam_id
func (h *ExamHandler) Delete(c *gin.Context) {
	examID, ok := uuidParam(c, "exam_id")
	if !ok {
		return
	}

	if err := h.examService.Delete(c.Request.Context(), middleware.GetActor(c), examID); err != nil {
		fail(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// LinkQuestions godoc
// POST /api/v1/exams/:exam_id/questions
// Links existing questions to the exam and reports how many were newly added.
func (h *ExamHandler) LinkQuestions(c *gin.Context) {
	examID, ok := uuidParam(c, "exam_id")
	if !ok {
		return
	}

	var req model.LinkQuestionsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	added, err := h.examService.LinkQuestions(c.Request.Context(), middleware.GetActor(c), examID, &req)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"added": added})
}

// ListQuestions godoc
// GET /api/v1/exams/:exam_id/questions
// Returns the linked questions including correct options, for the owner only.
func (h *ExamHandler) ListQuestions(c *gin.Context) {
	examID, ok := uuidParam(c, "exam_id")
	if !ok {
		return
	}

	questions, err := h.examService.Questions(c.Request.Context(), middleware.GetActor(c), examID)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	if questions == nil {
		questions = []model.Question{}
	}
	response.Success(c, http.StatusOK, questions)
}
