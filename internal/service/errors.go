package service

import "errors"

// Attempt lifecycle errors.
var (
	ErrExamNotFound     = errors.New("exam not found")
	ErrExamNotOpen      = errors.New("exam not started yet")
	ErrExamClosed       = errors.New("exam already completed")
	ErrAlreadyAttempted = errors.New("exam already attempted")
	ErrNotStarted       = errors.New("exam not started")
	ErrAlreadySubmitted = errors.New("exam already submitted")
	ErrAttemptExpired   = errors.New("attempt time is over")
	ErrFinalizeFailed   = errors.New("submission failed, please retry")
	ErrUnknownQuestion  = errors.New("question does not belong to this exam")
	ErrInvalidOption    = errors.New("option must be one of A, B, C or D")
)

// Catalog errors.
var (
	ErrExamLocked       = errors.New("exam schedule or questions cannot change once attempts exist")
	ErrExamInUse        = errors.New("exam has attempts and cannot be deleted")
	ErrNotExamOwner     = errors.New("exam belongs to another teacher")
	ErrInvalidWindow    = errors.New("end time must be after start time")
	ErrSubjectNotFound  = errors.New("subject not found")
	ErrSubjectExists    = errors.New("subject already exists")
	ErrSubjectInUse     = errors.New("subject is used by questions or exams")
	ErrQuestionNotFound = errors.New("question not found")
)

// Account errors.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already exists")
	ErrRoleNotAllowed     = errors.New("role cannot be chosen at registration")
	ErrUserNotFound       = errors.New("user not found")
	ErrTokenInvalid       = errors.New("invalid or expired token")
	ErrSessionInvalidated = errors.New("session invalidated by a newer login")
)
