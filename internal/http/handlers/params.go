package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainagg "github.com/yungbote/eigo-backend/internal/domain/aggregates"
	"github.com/yungbote/eigo-backend/internal/pkg/validate"
)

func uuidParam(c *gin.Context, op, name string) (uuid.UUID, error) {
	raw := strings.TrimSpace(c.Param(name))
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, domainagg.Validation(op, name, name+" must be a UUID")
	}
	return id, nil
}

// bindJSON decodes and validates the request body through the shared validator.
func bindJSON(c *gin.Context, op string, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return validate.FromError(op, err)
	}
	return nil
}
