package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exam-portal-backend/internal/middleware"
	"github.com/stemsi/exam-portal-backend/internal/model"
	"github.com/stemsi/exam-portal-backend/internal/response"
	"github.com/stemsi/exam-portal-backend/internal/service"
	"github.com/stemsi/exam-portal-backend/internal/validator"
)

// AttemptHandler serves the student side of an exam: start, take, submit,
// violation reports and result history.
type AttemptHandler struct {
	attemptService *service.AttemptService
	log            zerolog.Logger
}

// NewAttemptHandler creates a new AttemptHandler.
func NewAttemptHandler(attemptService *service.AttemptService, log zerolog.Logger) *AttemptHandler {
	return &AttemptHandler{
		attemptService: attemptService,
		log:            log.With().Str("component", "attempt_handler").Logger(),
	}
}

// Start godoc
// POST /api/v1/exams/:exam_id/start
func (h *AttemptHandler) Start(c *gin.Context) {
	examID, ok := uuidParam(c, "exam_id")
	if !ok {
		return
	}

	res, err := h.attemptService.Start(c.Request.Context(), examID, middleware.GetActor(c).ID)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, res)
}

// Take godoc
// GET /api/v1/exams/:exam_id/take
// Returns the questions without correct options plus any saved answers.
func (h *AttemptHandler) Take(c *gin.Context) {
	examID, ok := uuidParam(c, "exam_id")
	if !ok {
		return
	}

	view, err := h.attemptService.Take(c.Request.Context(), examID, middleware.GetActor(c).ID)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

// Submit godoc
// POST /api/v1/exams/:exam_id/submit
func (h *AttemptHandler) Submit(c *gin.Context) {
	examID, ok := uuidParam(c, "exam_id")
	if !ok {
		return
	}

	var req model.SubmitAttemptRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	res, err := h.attemptService.Submit(c.Request.Context(), examID, middleware.GetActor(c).ID, req.Answers)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

// ReportViolation godoc
// POST /api/v1/proctoring/violation
// Records a violation and tells the client to warn or to auto-submit.
func (h *AttemptHandler) ReportViolation(c *gin.Context) {
	var req model.ViolationRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	examID, err := uuid.Parse(req.ExamID)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	decision, err := h.attemptService.ReportViolation(c.Request.Context(), examID, middleware.GetActor(c).ID, req.ViolationType, req.Details)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, decision)
}

// MyResults godoc
// GET /api/v1/results/mine
func (h *AttemptHandler) MyResults(c *gin.Context) {
	results, err := h.attemptService.MyResults(c.Request.Context(), middleware.GetActor(c).ID)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	if results == nil {
		results = []model.ResultSummary{}
	}
	response.Success(c, http.StatusOK, results)
}
