// Package response renders the uniform API envelope. Every body has
// the shape {statusCode, isSuccess, message, ...data}; isSuccess is
// authoritative, not the HTTP status class.
package response

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"nextlevel/api/internal/apperrors"
	"nextlevel/api/internal/strutil"
)

func envelope(status int, message string, data gin.H) gin.H {
	body := gin.H{
		"statusCode": status,
		"isSuccess":  status >= 200 && status < 300,
		"message":    message,
	}
	for k, v := range data {
		body[k] = v
	}
	return body
}

// OK writes a success envelope with optional extra fields.
func OK(c *gin.Context, status int, message string, data gin.H) {
	c.JSON(status, envelope(status, message, data))
}

// Fail writes a failure envelope.
func Fail(c *gin.Context, status int, message string) {
	body := envelope(status, message, nil)
	body["isSuccess"] = false
	c.JSON(status, body)
}

// AbortFail writes a failure envelope and stops the handler chain.
// Used by middleware.
func AbortFail(c *gin.Context, status int, message string) {
	body := envelope(status, message, nil)
	body["isSuccess"] = false
	c.AbortWithStatusJSON(status, body)
}

// FromError maps the apperrors taxonomy onto HTTP statuses and writes
// the failure envelope. Unknown errors become an opaque 500; internal
// detail never reaches the client.
func FromError(c *gin.Context, err error) {
	switch {
	case apperrors.IsConflict(err):
		field := "resource"
		if msg := err.Error(); strings.Contains(msg, ": ") {
			field = msg[strings.LastIndex(msg, ": ")+2:]
		}
		Fail(c, http.StatusConflict, strutil.Capitalize(field)+" already exists.")
	case apperrors.IsNotFound(err):
		Fail(c, http.StatusNotFound, err.Error())
	case errors.Is(err, apperrors.ErrValidation):
		Fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, apperrors.ErrMissingToken):
		Fail(c, http.StatusBadRequest, err.Error())
	case apperrors.IsUnauthorized(err):
		Fail(c, http.StatusUnauthorized, err.Error())
	default:
		Fail(c, http.StatusInternalServerError, "An unexpected error occurred.")
	}
}
