package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campusnest/forum/internal/forum"
	"github.com/campusnest/forum/internal/wordle"
)

// ErrorResponse sends a standardized error response.
func ErrorResponse(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

// writeWordleError maps game errors to HTTP statuses. Validation and
// conflict errors carry their own message; anything else is logged and
// reported as a 500.
func writeWordleError(c *gin.Context, err error) {
	switch {
	case wordle.IsValidation(err):
		ErrorResponse(c, http.StatusBadRequest, message(err))
	case wordle.IsConflict(err):
		ErrorResponse(c, http.StatusConflict, message(err))
	case errors.Is(err, wordle.ErrNotFound):
		ErrorResponse(c, http.StatusNotFound, "Word not found")
	default:
		_ = c.Error(err)
		ErrorResponse(c, http.StatusInternalServerError, "Failed to process request")
	}
}

func writeForumError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, forum.ErrInvalidSubmission), errors.Is(err, forum.ErrInvalidDecision):
		ErrorResponse(c, http.StatusBadRequest, message(err))
	case errors.Is(err, forum.ErrRecordNotFound):
		ErrorResponse(c, http.StatusNotFound, "Record not found or already reviewed")
	default:
		_ = c.Error(err)
		ErrorResponse(c, http.StatusInternalServerError, "Failed to process request")
	}
}

// message strips the "pkg: " prefix from a sentinel error's text.
func message(err error) string {
	s := err.Error()
	for i := 0; i+1 < len(s); i++ {
		if s[i] == ':' && s[i+1] == ' ' {
			return s[i+2:]
		}
	}
	return s
}
