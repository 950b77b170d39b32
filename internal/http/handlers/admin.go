package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainagg "github.com/yungbote/eigo-backend/internal/domain/aggregates"
	"github.com/yungbote/eigo-backend/internal/domain/content"
	"github.com/yungbote/eigo-backend/internal/http/response"
	"github.com/yungbote/eigo-backend/internal/importfile"
	"github.com/yungbote/eigo-backend/internal/pkg/logger"
	"github.com/yungbote/eigo-backend/internal/services"
)

// AdminHandler exposes every structural write. Routes are mounted behind RequireAdmin.
type AdminHandler struct {
	log       *logger.Logger
	hierarchy services.HierarchyService
	answers   services.AnswerService
	importer  services.ImportService
}

func NewAdminHandler(log *logger.Logger, hierarchy services.HierarchyService, answers services.AnswerService, importer services.ImportService) *AdminHandler {
	return &AdminHandler{
		log:       log.With("handler", "AdminHandler"),
		hierarchy: hierarchy,
		answers:   answers,
		importer:  importer,
	}
}

type createNodeRequest struct {
	Name        string `json:"name" validate:"notblank,max=200"`
	Description string `json:"description" validate:"max=4000"`
}

type createChapterRequest struct {
	ParentChapterID *uuid.UUID `json:"parent_chapter_id"`
	Name            string     `json:"name" validate:"notblank,max=200"`
	Description     string     `json:"description" validate:"max=4000"`
}

type createQuestionRequest struct {
	Japanese    string   `json:"japanese" validate:"notblank,max=2000"`
	Hint        string   `json:"hint" validate:"max=2000"`
	Explanation string   `json:"explanation" validate:"max=8000"`
	Answers     []string `json:"answers" validate:"omitempty,dive,notblank,max=2000"`
}

type createAnswerRequest struct {
	AnswerText string `json:"answer_text" validate:"notblank,max=2000"`
}

type reorderRequest struct {
	Kind       content.ScopeKind `json:"kind" validate:"oneof=materials chapters units questions answers"`
	MaterialID *uuid.UUID        `json:"material_id"`
	ParentID   *uuid.UUID        `json:"parent_id"`
	OrderedIDs []uuid.UUID       `json:"ordered_ids"`
}

func (r reorderRequest) scope() content.Scope {
	s := content.Scope{Kind: r.Kind, ParentID: r.ParentID}
	if r.MaterialID != nil {
		s.MaterialID = *r.MaterialID
	}
	return s
}

type moveChapterRequest struct {
	NewParentChapterID *uuid.UUID `json:"new_parent_chapter_id"`
	NewIndex           int        `json:"new_index"`
}

type markAnswerRequest struct {
	IsCorrect *bool `json:"is_correct" validate:"required"`
}

// ---- materials ----

// POST /materials
func (h *AdminHandler) CreateMaterial(c *gin.Context) {
	const op = "admin.CreateMaterial"
	var req createNodeRequest
	if err := bindJSON(c, op, &req); err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	m, err := h.hierarchy.CreateMaterial(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondCreated(c, gin.H{"material": m})
}

// PATCH /materials/:id
func (h *AdminHandler) UpdateMaterial(c *gin.Context) {
	const op = "admin.UpdateMaterial"
	id, patch, ok := h.nodePatch(c, op)
	if !ok {
		return
	}
	m, err := h.hierarchy.UpdateMaterial(c.Request.Context(), id, patch)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"material": m})
}

// DELETE /materials/:id
func (h *AdminHandler) DeleteMaterial(c *gin.Context) {
	h.deleteByID(c, "admin.DeleteMaterial", h.hierarchy.DeleteMaterial)
}

// ---- chapters ----

// POST /materials/:id/chapters
func (h *AdminHandler) CreateChapter(c *gin.Context) {
	const op = "admin.CreateChapter"
	materialID, err := uuidParam(c, op, "id")
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	var req createChapterRequest
	if err := bindJSON(c, op, &req); err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	ch, err := h.hierarchy.CreateChapter(c.Request.Context(), materialID, req.ParentChapterID, req.Name, req.Description)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondCreated(c, gin.H{"chapter": ch})
}

// PATCH /chapters/:id
func (h *AdminHandler) UpdateChapter(c *gin.Context) {
	const op = "admin.UpdateChapter"
	id, patch, ok := h.nodePatch(c, op)
	if !ok {
		return
	}
	ch, err := h.hierarchy.UpdateChapter(c.Request.Context(), id, patch)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"chapter": ch})
}

// POST /chapters/:id/move
func (h *AdminHandler) MoveChapter(c *gin.Context) {
	const op = "admin.MoveChapter"
	id, err := uuidParam(c, op, "id")
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	var req moveChapterRequest
	if err := bindJSON(c, op, &req); err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	ch, err := h.hierarchy.MoveChapter(c.Request.Context(), id, req.NewParentChapterID, req.NewIndex)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"chapter": ch})
}

// DELETE /chapters/:id
func (h *AdminHandler) DeleteChapter(c *gin.Context) {
	h.deleteByID(c, "admin.DeleteChapter", h.hierarchy.DeleteChapter)
}

// ---- units ----

// POST /chapters/:id/units
func (h *AdminHandler) CreateUnit(c *gin.Context) {
	const op = "admin.CreateUnit"
	chapterID, err := uuidParam(c, op, "id")
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	var req createNodeRequest
	if err := bindJSON(c, op, &req); err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	u, err := h.hierarchy.CreateUnit(c.Request.Context(), chapterID, req.Name, req.Description)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondCreated(c, gin.H{"unit": u})
}

// PATCH /units/:id
func (h *AdminHandler) UpdateUnit(c *gin.Context) {
	const op = "admin.UpdateUnit"
	id, patch, ok := h.nodePatch(c, op)
	if !ok {
		return
	}
	u, err := h.hierarchy.UpdateUnit(c.Request.Context(), id, patch)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"unit": u})
}

// DELETE /units/:id
func (h *AdminHandler) DeleteUnit(c *gin.Context) {
	h.deleteByID(c, "admin.DeleteUnit", h.hierarchy.DeleteUnit)
}

// POST /units/:id/import
// Accepts {"rows": [...]}, a raw JSON/YAML/CSV body, or a multipart "file".
func (h *AdminHandler) ImportQuestions(c *gin.Context) {
	const op = "admin.ImportQuestions"
	unitID, err := uuidParam(c, op, "id")
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	rows, err := h.importRows(c, op)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	res, err := h.importer.ImportQuestions(c.Request.Context(), unitID, rows)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondCreated(c, res)
}

func (h *AdminHandler) importRows(c *gin.Context, op string) ([]importfile.Row, error) {
	if fh, err := c.FormFile("file"); err == nil {
		format, ok := importfile.ParseFormat(c.Query("format"))
		if !ok {
			format, ok = importfile.FormatFromName(fh.Filename)
		}
		if !ok {
			return nil, domainagg.Validation(op, "format", "cannot tell the file format; pass ?format=json|yaml|csv")
		}
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return importfile.Decode(format, f)
	}

	format, ok := importfile.ParseFormat(c.Query("format"))
	if !ok {
		format, ok = importfile.ParseFormat(c.ContentType())
	}
	if !ok {
		format = importfile.FormatJSON
	}
	return importfile.Decode(format, c.Request.Body)
}

// ---- questions ----

// POST /units/:id/questions
func (h *AdminHandler) CreateQuestion(c *gin.Context) {
	const op = "admin.CreateQuestion"
	unitID, err := uuidParam(c, op, "id")
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	var req createQuestionRequest
	if err := bindJSON(c, op, &req); err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	q, answers, err := h.hierarchy.CreateQuestionWithAnswers(c.Request.Context(), unitID, req.Japanese, req.Hint, req.Explanation, req.Answers)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondCreated(c, gin.H{"question": q, "correct_answers": answers})
}

// PATCH /questions/:id
func (h *AdminHandler) UpdateQuestion(c *gin.Context) {
	const op = "admin.UpdateQuestion"
	id, err := uuidParam(c, op, "id")
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	var patch services.QuestionPatch
	if err := bindJSON(c, op, &patch); err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	q, err := h.hierarchy.UpdateQuestion(c.Request.Context(), id, patch)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"question": q})
}

// DELETE /questions/:id
func (h *AdminHandler) DeleteQuestion(c *gin.Context) {
	h.deleteByID(c, "admin.DeleteQuestion", h.hierarchy.DeleteQuestion)
}

// ---- correct answers ----

// POST /questions/:id/correct-answers
func (h *AdminHandler) CreateCorrectAnswer(c *gin.Context) {
	const op = "admin.CreateCorrectAnswer"
	questionID, err := uuidParam(c, op, "id")
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	var req createAnswerRequest
	if err := bindJSON(c, op, &req); err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	a, err := h.hierarchy.CreateCorrectAnswer(c.Request.Context(), questionID, req.AnswerText)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondCreated(c, gin.H{"correct_answer": a})
}

// PATCH /correct-answers/:id
func (h *AdminHandler) UpdateCorrectAnswer(c *gin.Context) {
	const op = "admin.UpdateCorrectAnswer"
	id, err := uuidParam(c, op, "id")
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	var patch services.AnswerPatch
	if err := bindJSON(c, op, &patch); err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	a, err := h.hierarchy.UpdateCorrectAnswer(c.Request.Context(), id, patch)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"correct_answer": a})
}

// DELETE /correct-answers/:id
func (h *AdminHandler) DeleteCorrectAnswer(c *gin.Context) {
	h.deleteByID(c, "admin.DeleteCorrectAnswer", h.hierarchy.DeleteCorrectAnswer)
}

// ---- ordering ----

// POST /reorder
func (h *AdminHandler) Reorder(c *gin.Context) {
	const op = "admin.Reorder"
	var req reorderRequest
	if err := bindJSON(c, op, &req); err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	if err := h.hierarchy.Reorder(c.Request.Context(), req.scope(), req.OrderedIDs); err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondNoContent(c)
}

// ---- learner answers ----

// PATCH /answers/:id
func (h *AdminHandler) MarkAnswer(c *gin.Context) {
	const op = "admin.MarkAnswer"
	id, err := uuidParam(c, op, "id")
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	var req markAnswerRequest
	if err := bindJSON(c, op, &req); err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	ua, err := h.answers.Mark(c.Request.Context(), id, *req.IsCorrect)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"answer": ua})
}

// ---- helpers ----

func (h *AdminHandler) nodePatch(c *gin.Context, op string) (uuid.UUID, services.NodePatch, bool) {
	var patch services.NodePatch
	id, err := uuidParam(c, op, "id")
	if err == nil {
		err = bindJSON(c, op, &patch)
	}
	if err != nil {
		response.RespondErr(c, h.log, err)
		return uuid.Nil, patch, false
	}
	return id, patch, true
}

func (h *AdminHandler) deleteByID(c *gin.Context, op string, del func(ctx context.Context, id uuid.UUID) error) {
	id, err := uuidParam(c, op, "id")
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	if err := del(c.Request.Context(), id); err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondNoContent(c)
}
