package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAutosave  Action = "autosave"
	ActionViolation Action = "violation"
	ActionSubmit    Action = "submit"
	ActionPing      Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// AutosaveRequest saves a single answer of the live attempt.
type AutosaveRequest struct {
	Action     Action `json:"action"`
	QuestionID string `json:"questionId"`
	Option     string `json:"option"`
}

// ViolationRequest reports a proctoring violation.
type ViolationRequest struct {
	Action        Action  `json:"action"`
	ViolationType string  `json:"violationType"`
	Details       *string `json:"details"`
}

// SubmitRequest finishes the attempt. Answers override the autosaved ones.
type SubmitRequest struct {
	Action  Action            `json:"action"`
	Answers map[string]string `json:"answers"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError     Event = "error"
	EventSaved     Event = "saved"
	EventViolation Event = "violation"
	EventGraded    Event = "graded"
	EventPong      Event = "pong"
)

type SavedResponse struct {
	Event      Event  `json:"event"`
	QuestionID string `json:"questionId"`
}

type ViolationResponse struct {
	Event      Event  `json:"event"`
	Action     string `json:"action"`
	Violations int    `json:"violations"`
}

type GradedResponse struct {
	Event      Event   `json:"event"`
	Status     string  `json:"status"`
	Score      int     `json:"score"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
	Passed     bool    `json:"passed"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Code  string `json:"code"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
