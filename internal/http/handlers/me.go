package handlers

import (
	"github.com/gin-gonic/gin"

	domainagg "github.com/yungbote/eigo-backend/internal/domain/aggregates"
	"github.com/yungbote/eigo-backend/internal/http/middleware"
	"github.com/yungbote/eigo-backend/internal/http/response"
	"github.com/yungbote/eigo-backend/internal/pkg/logger"
)

type MeHandler struct {
	log *logger.Logger
}

func NewMeHandler(log *logger.Logger) *MeHandler {
	return &MeHandler{log: log.With("handler", "MeHandler")}
}

// GET /api/me
func (h *MeHandler) GetMe(c *gin.Context) {
	acct := middleware.CurrentAccount(c)
	if acct == nil {
		response.RespondErr(c, h.log, domainagg.NewError(domainagg.CodeUnauthorized, "me.GetMe", "not signed in", nil))
		return
	}
	response.RespondOK(c, gin.H{"account": acct})
}
