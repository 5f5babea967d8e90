package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/exam-portal-backend/internal/middleware"
	"github.com/stemsi/exam-portal-backend/internal/model"
	"github.com/stemsi/exam-portal-backend/internal/response"
	"github.com/stemsi/exam-portal-backend/internal/service"
	ws "github.com/stemsi/exam-portal-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler serves the live exam stream: autosave, violations and submit
// over one connection.
type WSHandler struct {
	attemptService *service.AttemptService
	log            zerolog.Logger
	upgrader       websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(attemptService *service.AttemptService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		attemptService: attemptService,
		log:            log.With().Str("component", "ws_handler").Logger(),
		upgrader:       buildUpgrader(allowedOrigins),
	}
}

// ExamWebSocketStream godoc
// WS /ws/v1/exams/:exam_id/stream
// The attempt must be live before the upgrade; otherwise the request is
// rejected with the usual HTTP error.
func (h *WSHandler) ExamWebSocketStream(c *gin.Context) {
	examID, ok := uuidParam(c, "exam_id")
	if !ok {
		return
	}
	studentID := middleware.GetActor(c).ID

	if _, err := h.attemptService.Verify(c.Request.Context(), examID, studentID); err != nil {
		fail(c, h.log, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Int("student_id", studentID).
		Str("exam_id", examID.String()).
		Logger()

	wsLog.Info().Msg("Student connected")

	// The request context ends with the hijacked connection's handler.
	ctx := context.WithoutCancel(c.Request.Context())

	for {
		action, data, err := ws.ReadMessage(conn)
		if err != nil {
			// A frame was read but its envelope did not decode.
			if data != nil {
				ws.WriteError(conn, string(response.ErrInvalidPayload), "malformed message")
				continue
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		var done bool
		switch action {
		case ws.ActionAutosave:
			h.handleAutosave(ctx, conn, examID, studentID, data)
		case ws.ActionViolation:
			done = h.handleViolation(ctx, conn, examID, studentID, data)
		case ws.ActionSubmit:
			done = h.handleSubmit(ctx, conn, wsLog, examID, studentID, data)
		case ws.ActionPing:
			ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
		default:
			wsLog.Warn().Str("action", string(action)).Msg("Unknown action")
			ws.WriteError(conn, string(response.ErrInvalidPayload), "unknown action: "+string(action))
		}
		if done {
			closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "attempt finalized")
			_ = conn.WriteMessage(websocket.CloseMessage, closeMsg)
			return
		}
	}
}

// handleAutosave stores one draft answer.
func (h *WSHandler) handleAutosave(ctx context.Context, conn *websocket.Conn, examID uuid.UUID, studentID int, data []byte) {
	var req ws.AutosaveRequest
	if err := json.Unmarshal(data, &req); err != nil || req.QuestionID == "" || req.Option == "" {
		ws.WriteError(conn, string(response.ErrInvalidPayload), "questionId and option are required")
		return
	}

	qid, err := uuid.Parse(req.QuestionID)
	if err != nil {
		ws.WriteError(conn, string(response.ErrInvalidID), "invalid questionId format")
		return
	}

	if err := h.attemptService.SaveDraft(ctx, examID, studentID, qid, req.Option); err != nil {
		h.writeServiceError(conn, err)
		return
	}

	ws.WriteTyped(conn, ws.SavedResponse{Event: ws.EventSaved, QuestionID: qid.String()})
}

// handleViolation records a violation. Returns true when the attempt was auto-submitted.
func (h *WSHandler) handleViolation(ctx context.Context, conn *websocket.Conn, examID uuid.UUID, studentID int, data []byte) bool {
	var req ws.ViolationRequest
	if err := json.Unmarshal(data, &req); err != nil || req.ViolationType == "" {
		ws.WriteError(conn, string(response.ErrInvalidPayload), "violationType is required")
		return false
	}

	decision, err := h.attemptService.ReportViolation(ctx, examID, studentID, req.ViolationType, req.Details)
	if err != nil {
		return h.writeServiceError(conn, err)
	}

	ws.WriteTyped(conn, ws.ViolationResponse{
		Event:      ws.EventViolation,
		Action:     string(decision.Action),
		Violations: decision.Violations,
	})
	return decision.Action == model.ProctorActionAutoSubmit
}

// handleSubmit finalizes the attempt from its drafts plus any answers sent along.
func (h *WSHandler) handleSubmit(ctx context.Context, conn *websocket.Conn, wsLog zerolog.Logger, examID uuid.UUID, studentID int, data []byte) bool {
	var req ws.SubmitRequest
	if err := json.Unmarshal(data, &req); err != nil {
		ws.WriteError(conn, string(response.ErrInvalidPayload), "malformed submit message")
		return false
	}

	res, err := h.attemptService.SubmitSaved(ctx, examID, studentID, req.Answers)
	if err != nil {
		return h.writeServiceError(conn, err)
	}

	wsLog.Info().
		Int("score", res.Score).
		Int("total", res.Total).
		Msg("Exam submitted over stream")

	ws.WriteTyped(conn, ws.GradedResponse{
		Event:      ws.EventGraded,
		Status:     "submitted",
		Score:      res.Score,
		Total:      res.Total,
		Percentage: res.Percentage,
		Passed:     res.Passed,
	})
	return true
}

// writeServiceError reports err on the socket. It returns true when the
// attempt can no longer accept input and the stream should end.
func (h *WSHandler) writeServiceError(conn *websocket.Conn, err error) bool {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		h.log.Error().Err(err).Msg("Stream action failed")
	}
	ws.WriteError(conn, string(code), response.GetMessage(code))

	switch code {
	case response.ErrAlreadySubmitted, response.ErrAttemptExpired, response.ErrNotStarted, response.ErrExamNotFound:
		return true
	}
	return false
}
