package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/eigo-backend/internal/http/response"
	"github.com/yungbote/eigo-backend/internal/pkg/ctxutil"
	"github.com/yungbote/eigo-backend/internal/pkg/logger"
	"github.com/yungbote/eigo-backend/internal/services"
)

// LearnHandler serves the read side shared by both frontends plus answer submission.
type LearnHandler struct {
	log     *logger.Logger
	query   services.QueryService
	answers services.AnswerService
}

func NewLearnHandler(log *logger.Logger, query services.QueryService, answers services.AnswerService) *LearnHandler {
	return &LearnHandler{log: log.With("handler", "LearnHandler"), query: query, answers: answers}
}

// GET /materials
func (h *LearnHandler) ListMaterials(c *gin.Context) {
	ms, err := h.query.ListMaterials(c.Request.Context())
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"materials": ms})
}

// GET /materials/:id/hierarchy
func (h *LearnHandler) GetHierarchy(c *gin.Context) {
	id, err := uuidParam(c, "learn.GetHierarchy", "id")
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	view, err := h.query.GetHierarchy(c.Request.Context(), id)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondOK(c, view)
}

// GET /units/:id
func (h *LearnHandler) GetUnit(c *gin.Context) {
	id, err := uuidParam(c, "learn.GetUnit", "id")
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	view, err := h.query.GetDetail(c.Request.Context(), id)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondOK(c, view)
}

type submitAnswerRequest struct {
	Text string `json:"text" validate:"notblank,max=2000"`
}

// POST /questions/:id/answers
func (h *LearnHandler) SubmitAnswer(c *gin.Context) {
	const op = "learn.SubmitAnswer"
	id, err := uuidParam(c, op, "id")
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	var req submitAnswerRequest
	if err := bindJSON(c, op, &req); err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	rd := ctxutil.GetRequestData(c.Request.Context())
	ua, err := h.answers.Submit(c.Request.Context(), rd.AccountID, id, req.Text)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondCreated(c, gin.H{"answer": ua})
}

// GET /units/:id/answers
func (h *LearnHandler) ListUnitAnswers(c *gin.Context) {
	id, err := uuidParam(c, "learn.ListUnitAnswers", "id")
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	rd := ctxutil.GetRequestData(c.Request.Context())
	out, err := h.answers.ListForUnit(c.Request.Context(), rd.AccountID, id)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"answers": out})
}
