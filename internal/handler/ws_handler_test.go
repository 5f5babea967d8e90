package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/exam-portal-backend/internal/middleware"
	"github.com/stemsi/exam-portal-backend/internal/model"
	"github.com/stemsi/exam-portal-backend/internal/service"
	"github.com/stemsi/exam-portal-backend/internal/service/servicetest"
	ws "github.com/stemsi/exam-portal-backend/internal/websocket"
)

type streamEnv struct {
	store  *servicetest.Store
	exam   model.Exam
	q1     model.Question
	server *httptest.Server
}

// newStreamEnv starts the exam stream for student 21, whose attempt is already live.
func newStreamEnv(t *testing.T) *streamEnv {
	t.Helper()

	store := servicetest.NewStore()
	now := time.Now()
	exam := store.AddExam(model.Exam{
		Title:           "Chemistry",
		DurationMinutes: 30,
		StartTime:       now.Add(-time.Hour),
		EndTime:         now.Add(time.Hour),
	})
	q1 := store.AddQuestion(exam.ID, "C")
	store.AddQuestion(exam.ID, "D")

	log := zerolog.Nop()
	attempts := service.NewAttemptService(
		store, store, store, store.Drafts(),
		service.NewProctorService(store, 3, log), store, 30*time.Second, log,
	)
	if _, err := attempts.Start(t.Context(), exam.ID, 21); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextKeyClaims, &service.Claims{UserID: 21, Role: model.RoleStudent})
		c.Next()
	})
	r.GET("/ws/v1/exams/:exam_id/stream", NewWSHandler(attempts, log, nil).ExamWebSocketStream)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &streamEnv{store: store, exam: exam, q1: q1, server: srv}
}

func (e *streamEnv) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(e.server.URL, "http") + "/ws/v1/exams/" + e.exam.ID.String() + "/stream"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		t.Fatalf("dial: %v (status %d)", err, status)
	}
	t.Cleanup(func() { conn.Close() })
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msg any) map[string]any {
	t.Helper()
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write: %v", err)
	}
	var reply map[string]any
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("read: %v", err)
	}
	return reply
}

func TestWSHandler_AutosaveAndSubmit(t *testing.T) {
	e := newStreamEnv(t)
	conn := e.dial(t)

	reply := send(t, conn, ws.AutosaveRequest{Action: ws.ActionAutosave, QuestionID: e.q1.ID.String(), Option: "c"})
	if reply["event"] != string(ws.EventSaved) {
		t.Fatalf("autosave reply = %v", reply)
	}

	reply = send(t, conn, ws.SubmitRequest{Action: ws.ActionSubmit})
	if reply["event"] != string(ws.EventGraded) || reply["score"] != float64(1) {
		t.Fatalf("submit reply = %v, want graded with score 1", reply)
	}

	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Errorf("after submit: err = %v, want normal close", err)
	}
}

func TestWSHandler_ViolationAutoSubmitEndsStream(t *testing.T) {
	e := newStreamEnv(t)
	conn := e.dial(t)

	violation := ws.ViolationRequest{Action: ws.ActionViolation, ViolationType: "tab_switch"}
	for i := 1; i <= 2; i++ {
		reply := send(t, conn, violation)
		if reply["action"] != string(model.ProctorActionWarn) {
			t.Fatalf("violation %d reply = %v, want WARN", i, reply)
		}
	}

	reply := send(t, conn, violation)
	if reply["action"] != string(model.ProctorActionAutoSubmit) || reply["violations"] != float64(3) {
		t.Fatalf("third violation reply = %v, want AUTO_SUBMIT/3", reply)
	}

	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Errorf("after auto-submit: err = %v, want normal close", err)
	}
	if a := e.store.Attempt(e.exam.ID, 21); a.Status != model.AttemptStatusAutoSubmitted {
		t.Errorf("status = %s, want auto_submitted", a.Status)
	}
}

func TestWSHandler_RejectsUpgradeWithoutAttempt(t *testing.T) {
	e := newStreamEnv(t)
	other := e.store.AddExam(model.Exam{
		Title:           "Biology",
		DurationMinutes: 30,
		StartTime:       time.Now().Add(-time.Hour),
		EndTime:         time.Now().Add(time.Hour),
	})

	url := "ws" + strings.TrimPrefix(e.server.URL, "http") + "/ws/v1/exams/" + other.ID.String() + "/stream"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("dial succeeded, want rejection before upgrade")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("response = %v, want 403", resp)
	}
	defer resp.Body.Close()

	var body struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Code != "NOT_STARTED" {
		t.Errorf("code = %s, want NOT_STARTED", body.Code)
	}
}
