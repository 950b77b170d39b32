package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	domainagg "github.com/yungbote/eigo-backend/internal/domain/aggregates"
	"github.com/yungbote/eigo-backend/internal/pkg/logger"
)

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Row     int    `json:"row,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// StatusOf maps an error code to its HTTP status.
func StatusOf(code domainagg.ErrorCode) int {
	switch code {
	case domainagg.CodeValidation:
		return http.StatusBadRequest
	case domainagg.CodeNotFound:
		return http.StatusNotFound
	case domainagg.CodeInvalidHierarchy:
		return http.StatusUnprocessableEntity
	case domainagg.CodeConflict:
		return http.StatusConflict
	case domainagg.CodeUnauthorized:
		return http.StatusUnauthorized
	case domainagg.CodeForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{
		Error: APIError{
			Code:    code,
			Message: msg,
		},
	})
}

// RespondErr writes a service error. Anything that is not a coded error, and
// every INTERNAL error, is logged and shown with a generic message.
func RespondErr(c *gin.Context, log *logger.Logger, err error) {
	e, ok := domainagg.As(err)
	if !ok || e.Code == domainagg.CodeInternal {
		if log != nil {
			log.Error("request failed", "path", c.FullPath(), "error", err)
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorEnvelope{
			Error: APIError{Code: string(domainagg.CodeInternal), Message: "internal error"},
		})
		return
	}
	c.AbortWithStatusJSON(StatusOf(e.Code), ErrorEnvelope{
		Error: APIError{
			Code:    string(e.Code),
			Message: e.Message,
			Field:   e.Field,
			Row:     e.Row,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}

func RespondNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
