package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/go-task-tracker/internal/forms"
	"github.com/adanyl0v/go-task-tracker/internal/services"
	"github.com/adanyl0v/go-task-tracker/internal/validation"
)

var (
	errInvalidRequestBody      = errors.New("invalid request body")
	errInvalidRequestParam     = errors.New("invalid request parameter")
	errMandatoryCookieNotFound = errors.New("mandatory cookie not found")
	errValidationFailed        = errors.New("validation failed")
)

type apiError struct {
	Code       int                    `json:"code"`
	Message    string                 `json:"message"`
	Violations []validation.Violation `json:"violations,omitempty"`
}

func newAPIError(code int, message string) apiError {
	return apiError{
		Code:    code,
		Message: message,
	}
}

func (e apiError) Error() string {
	return e.Message
}

func abort(c *gin.Context, err apiError) {
	body := gin.H{"error": err.Message}
	if len(err.Violations) > 0 {
		body["violations"] = err.Violations
	}
	c.AbortWithStatusJSON(err.Code, body)
}

func newStatusTextError(status int) apiError {
	return newAPIError(status, http.StatusText(status))
}

func newBadRequestError(message string) apiError {
	return newAPIError(http.StatusBadRequest, message)
}

func newUnauthorizedError(message string) apiError {
	return newAPIError(http.StatusUnauthorized, message)
}

func newNotFoundError(message string) apiError {
	return newAPIError(http.StatusNotFound, message)
}

func newConflictError(message string) apiError {
	return newAPIError(http.StatusConflict, message)
}

func newValidationError(err *validation.Error) apiError {
	apiErr := newAPIError(http.StatusUnprocessableEntity, errValidationFailed.Error())
	apiErr.Violations = err.Violations
	return apiErr
}

// newServiceError maps the errors returned by the services onto the API.
func newServiceError(err error) apiError {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		return newValidationError(verr)
	case errors.Is(err, services.ErrTaskNotFound):
		return newNotFoundError(services.ErrTaskNotFound.Error())
	case errors.Is(err, services.ErrUserNotFound):
		return newNotFoundError(services.ErrUserNotFound.Error())
	case errors.Is(err, services.ErrSessionNotFound):
		return newNotFoundError(services.ErrSessionNotFound.Error())
	default:
		return newStatusTextError(http.StatusInternalServerError)
	}
}

// newBindError separates rejected values from unreadable bodies.
func newBindError(err error) apiError {
	var verr *validation.Error
	if errors.As(err, &verr) {
		return newValidationError(verr)
	}
	return newBadRequestError(errInvalidRequestBody.Error())
}

// newFormError keeps loader failures apart from rejected submissions.
func newFormError(err error) apiError {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		return newValidationError(verr)
	case errors.Is(err, forms.ErrInvalidData):
		return newBadRequestError(errInvalidRequestBody.Error())
	default:
		return newStatusTextError(http.StatusInternalServerError)
	}
}
