package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/yanqian/contract-assistant/pkg/errors"
)

// internalErrorLimit caps how much of an unexpected error reaches the caller.
const internalErrorLimit = 100

// Error codes rendered next to the message.
const (
	codeMissingAPIKey   = "missing_api_key"
	codeInvalidAPIKey   = "invalid_api_key"
	codeMissingQuestion = "missing_question"
	codeInvalidInput    = "invalid_input"
	codeInternal        = "internal_error"
)

// HTTPError captures the metadata required to serialize an error response consistently.
type HTTPError struct {
	Status  int
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// NewHTTPError is a helper to build an HTTPError instance.
func NewHTTPError(status int, code, message string, err error) *HTTPError {
	return &HTTPError{Status: status, Code: code, Message: message, Err: err}
}

// newInternalError reports an unexpected failure with a truncated cause.
func newInternalError(err error) *HTTPError {
	return NewHTTPError(http.StatusInternalServerError, codeInternal, internalMessage(err), err)
}

func internalMessage(cause any) string {
	var text string
	switch v := cause.(type) {
	case error:
		text = v.Error()
	case string:
		text = v
	default:
		text = "unexpected failure"
	}
	return "internal server error: " + apperrors.Truncate(text, internalErrorLimit)
}

func asHTTPError(err error) *HTTPError {
	if err == nil {
		return nil
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	return newInternalError(err)
}

func abortWithError(c *gin.Context, err *HTTPError) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func errorBody(message, code string) gin.H {
	return gin.H{
		"success": false,
		"error":   message,
		"code":    code,
	}
}
