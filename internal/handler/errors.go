package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exam-portal-backend/internal/response"
	"github.com/stemsi/exam-portal-backend/internal/service"
)

// errorMapping ties a service error to its HTTP status and error code.
type errorMapping struct {
	err    error
	status int
	code   response.ErrCode
}

var errorMappings = []errorMapping{
	// Attempt lifecycle
	{service.ErrExamNotFound, http.StatusNotFound, response.ErrExamNotFound},
	{service.ErrExamNotOpen, http.StatusForbidden, response.ErrExamNotOpen},
	{service.ErrExamClosed, http.StatusForbidden, response.ErrExamClosed},
	{service.ErrAlreadyAttempted, http.StatusForbidden, response.ErrAlreadyAttempted},
	{service.ErrNotStarted, http.StatusForbidden, response.ErrNotStarted},
	{service.ErrAlreadySubmitted, http.StatusForbidden, response.ErrAlreadySubmitted},
	{service.ErrAttemptExpired, http.StatusForbidden, response.ErrAttemptExpired},
	{service.ErrFinalizeFailed, http.StatusInternalServerError, response.ErrRetrySubmission},
	{service.ErrUnknownQuestion, http.StatusBadRequest, response.ErrUnknownQuestion},
	{service.ErrInvalidOption, http.StatusBadRequest, response.ErrValidation},

	// Catalog
	{service.ErrExamLocked, http.StatusConflict, response.ErrExamLocked},
	{service.ErrExamInUse, http.StatusConflict, response.ErrDependencyExists},
	{service.ErrNotExamOwner, http.StatusForbidden, response.ErrNotExamOwner},
	{service.ErrInvalidWindow, http.StatusBadRequest, response.ErrValidation},
	{service.ErrSubjectNotFound, http.StatusNotFound, response.ErrNotFound},
	{service.ErrSubjectExists, http.StatusConflict, response.ErrConflict},
	{service.ErrSubjectInUse, http.StatusConflict, response.ErrDependencyExists},
	{service.ErrQuestionNotFound, http.StatusNotFound, response.ErrNotFound},

	// Accounts and media
	{service.ErrInvalidCredentials, http.StatusUnauthorized, response.ErrInvalidCredentials},
	{service.ErrEmailTaken, http.StatusConflict, response.ErrEmailTaken},
	{service.ErrRoleNotAllowed, http.StatusBadRequest, response.ErrValidation},
	{service.ErrUserNotFound, http.StatusNotFound, response.ErrNotFound},
	{service.ErrTokenInvalid, http.StatusUnauthorized, response.ErrTokenInvalid},
	{service.ErrSessionInvalidated, http.StatusUnauthorized, response.ErrSessionInvalidated},
	{service.ErrUnsupportedFileType, http.StatusUnsupportedMediaType, response.ErrUnsupportedFile},
	{service.ErrFileTooLarge, http.StatusRequestEntityTooLarge, response.ErrFileTooLarge},
}

// classify returns the HTTP status and error code for err. Unknown errors are internal.
func classify(err error) (int, response.ErrCode) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, response.ErrInternal
}

// fail writes the error response for err. Server-side failures are logged with
// full detail while the client only sees the generic code.
func fail(c *gin.Context, log zerolog.Logger, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).
			Str("path", c.FullPath()).
			Str("request_id", c.GetString(response.ContextKeyRequestID)).
			Msg("Request failed")
	}

	switch {
	case errors.Is(err, service.ErrInvalidWindow):
		response.FailWithFields(c, status, code, map[string]string{"endTime": err.Error()})
	case errors.Is(err, service.ErrInvalidOption):
		response.FailWithFields(c, status, code, map[string]string{"option": err.Error()})
	case errors.Is(err, service.ErrRoleNotAllowed):
		response.FailWithFields(c, status, code, map[string]string{"role": err.Error()})
	default:
		response.Fail(c, status, code)
	}
}
