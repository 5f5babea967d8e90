package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrSessionInvalidated ErrCode = "SESSION_INVALIDATED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden    ErrCode = "FORBIDDEN"
	ErrNotExamOwner ErrCode = "NOT_EXAM_OWNER"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound         ErrCode = "NOT_FOUND"
	ErrEmailTaken       ErrCode = "EMAIL_TAKEN"
	ErrConflict         ErrCode = "CONFLICT"
	ErrDependencyExists ErrCode = "DEPENDENCY_EXISTS"

	// ─── Exam attempts ─────────────────────────────────────────────────
	ErrExamNotFound     ErrCode = "EXAM_NOT_FOUND"
	ErrExamNotOpen      ErrCode = "EXAM_NOT_OPEN"
	ErrExamClosed       ErrCode = "EXAM_CLOSED"
	ErrAlreadyAttempted ErrCode = "ALREADY_ATTEMPTED"
	ErrNotStarted       ErrCode = "NOT_STARTED"
	ErrAlreadySubmitted ErrCode = "ALREADY_SUBMITTED"
	ErrAttemptExpired   ErrCode = "ATTEMPT_EXPIRED"
	ErrRetrySubmission  ErrCode = "RETRY_SUBMISSION"
	ErrExamLocked       ErrCode = "EXAM_LOCKED"
	ErrUnknownQuestion  ErrCode = "UNKNOWN_QUESTION"

	// ─── Media ─────────────────────────────────────────────────────────
	ErrFileRequired    ErrCode = "FILE_REQUIRED"
	ErrUnsupportedFile ErrCode = "UNSUPPORTED_FILE_TYPE"
	ErrFileTooLarge    ErrCode = "FILE_TOO_LARGE"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Invalid email or password"
	case ErrSessionInvalidated:
		return "Your session has ended, please log in again"
	case ErrTokenRequired:
		return "Authentication token required"
	case ErrTokenInvalid:
		return "Invalid authentication token"

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You do not have access to this resource"
	case ErrNotExamOwner:
		return "You are not the owner of this exam"

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed, please check your input"
	case ErrInvalidID:
		return "Invalid ID format"
	case ErrInvalidPayload:
		return "Invalid request payload"

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found"
	case ErrEmailTaken:
		return "Email already exists"
	case ErrConflict:
		return "Resource already exists"
	case ErrDependencyExists:
		return "Resource is still referenced by other data"

	// ─── Exam attempts ─────────────────────────────────────────────────
	case ErrExamNotFound:
		return "Exam not found"
	case ErrExamNotOpen:
		return "Exam not started yet"
	case ErrExamClosed:
		return "Exam already completed"
	case ErrAlreadyAttempted:
		return "Exam already attempted"
	case ErrNotStarted:
		return "Exam not started"
	case ErrAlreadySubmitted:
		return "Exam already submitted"
	case ErrAttemptExpired:
		return "Exam time is over, your answers were submitted automatically"
	case ErrRetrySubmission:
		return "Submission failed, please retry"
	case ErrExamLocked:
		return "Exam schedule and duration cannot change after students have started it"
	case ErrUnknownQuestion:
		return "Question does not belong to this exam"

	// ─── Media ─────────────────────────────────────────────────────────
	case ErrFileRequired:
		return "A file upload is required"
	case ErrUnsupportedFile:
		return "Unsupported file type"
	case ErrFileTooLarge:
		return "File exceeds the size limit"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests, please try again later"

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Internal server error"
	default:
		return "Unexpected error"
	}
}
